// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pdf2word CLI: it serves the
// converter UI, runs single conversions locally, and reads the history ledger.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdf2word/internal/history"
	"github.com/pdiddy/pdf2word/internal/session"
	"github.com/pdiddy/pdf2word/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "pdf2word",
	Short: "Convert PDF documents to Word files",
	Long: `pdf2word converts PDF documents to Word files. The serve command hosts a
browser page where users pick or drop a PDF, watch the conversion progress,
compare file sizes, and download the result. The convert command runs the
same flow against a local file.

The default engine simulates the conversion. The container engine pipes the
PDF through a converter image run with docker or podman.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pdf2word.yaml or ~/.config/pdf2word/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("engine", string(types.EngineSimulated), "conversion engine: simulated or container")
	rootCmd.PersistentFlags().Bool("validate", false, "reject documents that do not parse as PDF")
	rootCmd.PersistentFlags().Bool("history", false, "record finished conversions in the history ledger")
	rootCmd.PersistentFlags().String("history-dir", types.DefaultHistoryDir, "directory for history.db and exports")

	bindFlag("log_level", rootCmd, "log-level")
	bindFlag("conversion.engine", rootCmd, "engine")
	bindFlag("conversion.validate", rootCmd, "validate")
	bindFlag("history.enabled", rootCmd, "history")
	bindFlag("history.dir", rootCmd, "history-dir")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pdf2word")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pdf2word"))
		}
	}

	viper.SetEnvPrefix("PDF2WORD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("conversion.tick_interval", types.DefaultTickInterval)
	viper.SetDefault("conversion.soft_limit", types.DefaultSoftLimit)
	viper.SetDefault("conversion.image", types.DefaultImage)
	viper.SetDefault("server.addr", types.DefaultAddr)
	viper.SetDefault("server.session_ttl", types.DefaultSessionTTL)
	viper.SetDefault("server.max_upload", types.DefaultMaxUpload)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig reads the merged flag, env, and file settings.
func loadConfig() types.Config {
	return types.Config{
		Conversion: types.ConversionConfig{
			Engine:       types.EngineKind(viper.GetString("conversion.engine")),
			TickInterval: viper.GetDuration("conversion.tick_interval"),
			SoftLimit:    viper.GetInt64("conversion.soft_limit"),
			MaxSize:      viper.GetInt64("conversion.max_size"),
			Validate:     viper.GetBool("conversion.validate"),
			Image:        viper.GetString("conversion.image"),
		},
		Server: types.ServerConfig{
			Addr:       viper.GetString("server.addr"),
			SessionTTL: viper.GetDuration("server.session_ttl"),
			MaxUpload:  viper.GetInt64("server.max_upload"),
		},
		History: types.HistoryConfig{
			Enabled: viper.GetBool("history.enabled"),
			Dir:     viper.GetString("history.dir"),
		},
		LogLevel: viper.GetString("log_level"),
	}.WithDefaults()
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// openRecorder opens the history ledger when enabled. The returned close
// function is always safe to call.
func openRecorder(cfg types.HistoryConfig) (session.Recorder, func(), error) {
	if !cfg.Enabled {
		return nil, func() {}, nil
	}
	store, err := history.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { store.Close() }, nil
}

// bindFlag ties a config key to a local or persistent flag of cmd.
func bindFlag(key string, cmd *cobra.Command, name string) {
	f := cmd.Flags().Lookup(name)
	if f == nil {
		f = cmd.PersistentFlags().Lookup(name)
	}
	if err := viper.BindPFlag(key, f); err != nil {
		panic(err)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
