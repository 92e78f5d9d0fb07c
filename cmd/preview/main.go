// Package main is a local development server for previewing rendered cards.
//
// It exposes the same classify → extract → render pipeline the Lambda
// functions run, but returns the rendered payload instead of posting it to a
// webhook, so card layouts can be checked against captured SNS records
// without a live channel.
//
// Usage:
//
//	POST /render/{vendor}   vendor ∈ {slack, teams}
//	{
//	  "subject": "...",
//	  "message": "...",
//	  "messageAttributes": {...},
//	  "topicArn": "arn:aws:sns:eu-west-1:111122223333:ops"
//	}
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"awsnotify/internal/app"
	"awsnotify/internal/render"
	"awsnotify/internal/types"
)

const defaultAddr = ":8080"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// The preview server renders cards without delivering them; satisfy the
	// required webhook setting so the shared bootstrap can run locally.
	if os.Getenv("WEBHOOK_URL") == "" {
		os.Setenv("WEBHOOK_URL", "http://localhost/unused")
	}

	rt, err := app.Bootstrap(context.Background())
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	renderers := map[string]render.Renderer{
		string(types.VendorSlack): render.NewSlack(rt.Config.Slack.Channel, rt.Config.Slack.Username, rt.Config.Slack.Emoji),
		string(types.VendorTeams): render.NewTeams(),
	}

	srv := &previewServer{runtime: rt, renderers: renderers}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Post("/render/{vendor}", srv.handleRender)

	addr := os.Getenv("PREVIEW_ADDR")
	if addr == "" {
		addr = defaultAddr
	}

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		rt.Logger.Info("preview server listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-stop:
		rt.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}

type previewServer struct {
	runtime   *app.Runtime
	renderers map[string]render.Renderer
}

// previewRequest mirrors the fields of one SNS record the pipeline reads.
type previewRequest struct {
	Subject           string         `json:"subject"`
	Message           string         `json:"message"`
	MessageAttributes map[string]any `json:"messageAttributes"`
	TopicArn          string         `json:"topicArn"`
}

func (s *previewServer) handleRender(w http.ResponseWriter, r *http.Request) {
	renderer, ok := s.renderers[chi.URLParam(r, "vendor")]
	if !ok {
		http.Error(w, "unknown vendor", http.StatusNotFound)
		return
	}

	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	topicRegion := s.runtime.Config.AWS.Region
	if parts := strings.Split(req.TopicArn, ":"); len(parts) > 3 {
		topicRegion = parts[3]
	}

	result, err := s.runtime.Parser.Parse(req.Message, topicRegion, req.MessageAttributes, req.Subject)
	if err != nil {
		http.Error(w, fmt.Sprintf("parse failed: %v", err), http.StatusUnprocessableEntity)
		return
	}

	payload, err := renderer.Render(result.Fact, result.Original, req.Subject)
	if err != nil {
		http.Error(w, fmt.Sprintf("render failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Action", string(result.Action))
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}
