// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server is the HTTP surface of the converter: a server-rendered
// page per conversion state, a JSON API, and a server-sent event stream,
// each bound to the caller's browser session.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/pdiddy/pdf2word/internal/compare"
	"github.com/pdiddy/pdf2word/internal/engine"
	"github.com/pdiddy/pdf2word/internal/session"
	"github.com/pdiddy/pdf2word/internal/upload"
	"github.com/pdiddy/pdf2word/pkg/types"
)

// CookieName holds the browser session ID.
const CookieName = "pdf2word_session"

const (
	shutdownTimeout = 5 * time.Second
	keepAlive       = 15 * time.Second
	eventBuffer     = 32
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Server serves the converter UI and API.
type Server struct {
	cfg types.Config
	reg *Registry
	log *slog.Logger
	mux *http.ServeMux

	keepAlive time.Duration
}

// New wires the routes. cfg should already carry defaults.
func New(cfg types.Config, reg *Registry, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{cfg: cfg, reg: reg, log: log, mux: http.NewServeMux(), keepAlive: keepAlive}

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /convert", s.handleConvertForm)
	s.mux.HandleFunc("POST /reset", s.handleResetForm)
	s.mux.HandleFunc("GET /download", s.handleDownload)
	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("POST /api/convert", s.handleConvertAPI)
	s.mux.HandleFunc("POST /api/reset", s.handleResetAPI)
	s.mux.HandleFunc("GET /api/download", s.handleDownload)
	s.mux.HandleFunc("GET /api/events", s.handleEvents)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.reg.Len()})
	})
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on cfg.Server.Addr until ctx is done, then shuts
// down gracefully and tears down all sessions.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.reg.Run(sweepCtx)

	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", srv.Addr, "engine", s.cfg.Conversion.Engine)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		s.reg.Close()
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.reg.Close()
	if err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}

// session resolves the caller's orchestrator, issuing a cookie for new sessions.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *session.Orchestrator {
	_, o := s.sessionWithID(w, r)
	return o
}

func (s *Server) sessionWithID(w http.ResponseWriter, r *http.Request) (string, *session.Orchestrator) {
	var id string
	if c, err := r.Cookie(CookieName); err == nil {
		id = c.Value
	}
	newID, o := s.reg.Get(id)
	if newID != id {
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    newID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return newID, o
}

type pageData struct {
	Snapshot   types.Snapshot
	Status     string
	Comparison compare.Comparison
	Notice     *types.Notification
	SoftLimit  string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	o := s.session(w, r)
	snap := o.Snapshot()

	data := pageData{
		Snapshot:  snap,
		Status:    compare.StatusText(snap.State),
		SoftLimit: compare.FormatSize(s.cfg.Conversion.SoftLimit),
	}
	if n, ok := o.TakeNotice(); ok {
		data.Notice = &n
	}
	if snap.State == types.StateCompleted {
		data.Comparison = compare.Compare(*snap.Original, *snap.Converted)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTmpl.Execute(w, data); err != nil {
		s.log.Error("rendering page", "err", err)
	}
}

// convertResult is the outcome of an upload attempt.
type convertResult struct {
	Accepted      bool           `json:"accepted"`
	OverSoftLimit bool           `json:"over_soft_limit,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	Snapshot      types.Snapshot `json:"snapshot"`
}

// convert reads the upload and starts a run. A file that is not accepted as
// a PDF leaves the session untouched and is reported with Accepted=false.
func (s *Server) convert(w http.ResponseWriter, r *http.Request, o *session.Orchestrator) (convertResult, int, error) {
	up, err := upload.ReadForm(w, r, s.cfg.Server.MaxUpload)
	if errors.Is(err, upload.ErrNoFile) {
		return convertResult{Reason: err.Error(), Snapshot: o.Snapshot()}, http.StatusOK, nil
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return convertResult{}, http.StatusRequestEntityTooLarge, err
		}
		return convertResult{}, http.StatusBadRequest, err
	}

	verdict, err := upload.Accept(up.File, up.Origin, s.cfg.Conversion.SoftLimit)
	if errors.Is(err, upload.ErrNotPDF) {
		s.log.Debug("ignored upload", "file", up.File.Name, "type", up.File.MediaType, "origin", up.Origin)
		return convertResult{Reason: err.Error(), Snapshot: o.Snapshot()}, http.StatusOK, nil
	}
	if err != nil {
		return convertResult{}, http.StatusBadRequest, err
	}
	if verdict.OverSoftLimit {
		s.log.Info("upload above soft limit", "file", up.File.Name, "size", up.File.Size,
			"limit", s.cfg.Conversion.SoftLimit)
	}

	src := engine.Source{
		Descriptor: types.FileDescriptor{Name: up.File.Name, Size: up.File.Size},
		Content:    up.Content,
	}
	if err := o.Select(src); err != nil {
		return convertResult{}, http.StatusServiceUnavailable, err
	}
	return convertResult{
		Accepted:      true,
		OverSoftLimit: verdict.OverSoftLimit,
		Snapshot:      o.Snapshot(),
	}, http.StatusAccepted, nil
}

func (s *Server) handleConvertForm(w http.ResponseWriter, r *http.Request) {
	o := s.session(w, r)
	if _, status, err := s.convert(w, r, o); err != nil {
		http.Error(w, err.Error(), status)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleConvertAPI(w http.ResponseWriter, r *http.Request) {
	o := s.session(w, r)
	res, status, err := s.convert(w, r, o)
	if err != nil {
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, status, res)
}

func (s *Server) handleResetForm(w http.ResponseWriter, r *http.Request) {
	s.session(w, r).Reset()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleResetAPI(w http.ResponseWriter, r *http.Request) {
	o := s.session(w, r)
	o.Reset()
	writeJSON(w, http.StatusOK, o.Snapshot())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session(w, r).Snapshot())
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	a, err := s.session(w, r).Download()
	if errors.Is(err, session.ErrNotCompleted) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		s.log.Error("building download", "err", err)
		http.Error(w, "could not build document", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", a.MediaType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.Name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(a.Body)))
	_, _ = w.Write(a.Body)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	id, o := s.sessionWithID(w, r)
	events, cancel := o.Subscribe(eventBuffer)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	if err := writeEvent(w, session.Event{Kind: session.EventState, Snapshot: o.Snapshot()}); err != nil {
		return
	}
	flusher.Flush()

	ping := time.NewTicker(s.keepAlive)
	defer ping.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ping.C:
			// An open stream keeps its session from expiring.
			s.reg.Touch(id)
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(w, ev); err != nil {
				return
			}
		}
		flusher.Flush()
	}
}

func writeEvent(w http.ResponseWriter, ev session.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, data)
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
