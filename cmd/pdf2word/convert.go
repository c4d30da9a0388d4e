// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf2word/internal/compare"
	"github.com/pdiddy/pdf2word/internal/engine"
	"github.com/pdiddy/pdf2word/internal/session"
	"github.com/pdiddy/pdf2word/internal/upload"
	"github.com/pdiddy/pdf2word/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert <file.pdf>",
	Short: "Convert one PDF to a Word document",
	Long: `Convert runs a single conversion locally, printing progress as it goes,
and writes the Word document next to the input (or to --output).`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	log := newLogger(cfg.LogLevel)
	input := args[0]

	content, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("reading %s: %w", input, err)
	}
	file := upload.File{
		Name:      filepath.Base(input),
		MediaType: mime.TypeByExtension(filepath.Ext(input)),
		Size:      int64(len(content)),
	}
	verdict, err := upload.Accept(file, upload.OriginPicker, cfg.Conversion.SoftLimit)
	if err != nil {
		return err
	}
	if verdict.OverSoftLimit {
		fmt.Fprintf(os.Stderr, "warning: %s is larger than the recommended %s\n",
			file.Name, compare.FormatSize(cfg.Conversion.SoftLimit))
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = filepath.Join(filepath.Dir(input), engine.DocxName(file.Name))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, err := engine.New(ctx, cfg.Conversion)
	if err != nil {
		return err
	}
	recorder, closeRecorder, err := openRecorder(cfg.History)
	if err != nil {
		return err
	}
	defer closeRecorder()

	o := session.New(session.Options{
		Engine:   eng,
		Interval: cfg.Conversion.TickInterval,
		Recorder: recorder,
		Logger:   log,
	})
	defer o.Close()

	src := engine.Source{
		Descriptor: types.FileDescriptor{Name: file.Name, Size: file.Size},
		Content:    content,
	}
	return convertFile(ctx, o, src, output, os.Stderr)
}

// convertFile drives o through one run, reporting progress to w, and writes
// the artifact to output once the run completes.
func convertFile(ctx context.Context, o *session.Orchestrator, src engine.Source, output string, w io.Writer) error {
	events, cancel := o.Subscribe(64)
	defer cancel()

	if err := o.Select(src); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			o.Reset()
			fmt.Fprintln(w)
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return errors.New("session closed before the conversion finished")
			}
			snap := ev.Snapshot
			switch snap.State {
			case types.StateProcessing:
				fmt.Fprintf(w, "\rconverting %s  %3d%%", snap.Original.Name, snap.Percent())
			case types.StateError:
				fmt.Fprintln(w)
				return fmt.Errorf("conversion failed: %s", snap.Error)
			case types.StateCompleted:
				fmt.Fprintf(w, "\rconverting %s  %3d%%\n", snap.Original.Name, snap.Percent())
				return writeArtifact(o, snap, output, w)
			}
		}
	}
}

func writeArtifact(o *session.Orchestrator, snap types.Snapshot, output string, w io.Writer) error {
	a, err := o.Download()
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, a.Body, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}

	c := compare.Compare(*snap.Original, *snap.Converted)
	fmt.Fprintf(w, "original:  %s (%s)\n", snap.Original.Name, c.Original)
	fmt.Fprintf(w, "converted: %s (%s)\n", snap.Converted.Name, c.Converted)
	fmt.Fprintln(w, c.Message)
	fmt.Fprintf(w, "wrote %s\n", output)
	return nil
}

func init() {
	convertCmd.Flags().StringP("output", "o", "", "output file (default: <input basename>.docx next to the input)")
	convertCmd.Flags().Duration("tick", 0, "progress tick period (default 200ms)")
	bindFlag("conversion.tick_interval", convertCmd, "tick")

	rootCmd.AddCommand(convertCmd)
}
