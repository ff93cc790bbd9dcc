package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/apex/log"
	"github.com/apex/log/handlers/text"

	"github.com/aoeboard/aoeboard/internal/config"
	"github.com/aoeboard/aoeboard/internal/watcher"
)

func main() {
	log.SetHandler(text.Default)

	cfgPath := flag.String("config", "config.yml", "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.WithError(err).Fatal("loading config failed")
	}

	dirs := cfg.Watcher.ReplayDirectories
	if len(dirs) == 0 {
		dirs = watcher.CandidateDirectories()
	}
	if len(dirs) == 0 {
		log.Fatal("no replay directories found; set watcher.replay_directories in the config")
	}
	for _, d := range dirs {
		log.WithField("dir", d).Info("watching directory")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	w := watcher.New(cfg.Watcher.ServerURL, dirs, cfg.Watcher.PollingInterval)
	if cfg.Watcher.Polling() {
		w.RunPolling(ctx)
		return
	}
	if err := w.RunEvents(ctx); err != nil {
		log.WithError(err).Fatal("watcher stopped")
	}
}
