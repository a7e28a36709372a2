package main

import (
	"os"
	"path/filepath"

	"policylens/internal/assistant"
	"policylens/internal/client"
	"policylens/internal/config"
	"policylens/internal/logger"
	"policylens/internal/probe"
	"policylens/internal/request"
	"policylens/internal/session"
	"policylens/internal/transfer"
	"policylens/pkg/policytypes"
)

// diskSaver writes downloaded files into a local downloads directory,
// standing in for the browser's save prompt.
type diskSaver struct {
	dir string
}

func newDiskSaver(dir string) *diskSaver {
	return &diskSaver{dir: dir}
}

func (s *diskSaver) Save(fileName, content string) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		logger.Error("Failed to create download directory", "path", s.dir, "error", err)
		return
	}
	path := filepath.Join(s.dir, filepath.Base(fileName))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		logger.Error("Failed to save file", "path", path, "error", err)
		return
	}
	logger.Info("Saved file", "path", path)
}

// buildAssistant wires the engine from configuration: one backend client
// shared across the chat transport, file operations, and the analysis
// endpoints.
func buildAssistant(cfg *config.Config, sink assistant.Sink) (*assistant.Assistant, *probe.Prober) {
	backend := client.New(cfg.BaseURL)

	a := assistant.New(assistant.Options{
		Sessions:   session.NewStore(cfg.HistoryCapacity, cfg),
		Controller: request.NewController(backend, cfg.AskTimeout),
		Transfers: transfer.NewCoordinator(backend, newDiskSaver("downloads")).
			WithInterval(cfg.DownloadInterval),
		Files:    backend,
		Analysis: backend,
		Actor:    cfg.Actor,
		Mode:     cfg,
		Sink:     sink,
	})

	prober := probe.New(backend, func(connected bool) {
		if sink == nil {
			return
		}
		sink(policytypes.ConnectivityChanged{Connected: connected})
	}).WithInterval(cfg.ProbeInterval)

	return a, prober
}
