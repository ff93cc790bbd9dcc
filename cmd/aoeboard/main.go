package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/apex/log"
	"github.com/apex/log/handlers/text"

	"github.com/aoeboard/aoeboard/internal/config"
	"github.com/aoeboard/aoeboard/internal/poller"
	"github.com/aoeboard/aoeboard/internal/server"
	"github.com/aoeboard/aoeboard/internal/store"
)

func main() {
	log.SetHandler(text.Default)

	var (
		cfgPath   = flag.String("config", "config.yml", "path to YAML config")
		templates = flag.String("templates", "templates/*", "template glob")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.WithError(err).Fatal("loading config failed")
	}
	if os.Getenv("ADDRESS") == "" && cfg.Address == config.Default().Address {
		log.Warnf("Environment variable \"ADDRESS\" not set. Using default address %s", cfg.Address)
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.WithError(err).WithField("path", cfg.DatabasePath).Fatal("opening stats database failed")
	}
	defer st.Close()

	p := poller.New(cfg.StatsURL, cfg.PollInterval)
	done := make(chan struct{})
	go p.Run(done)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		close(done)
	}()

	log.WithFields(log.Fields{
		"address":   cfg.Address,
		"stats_url": cfg.StatsURL,
		"interval":  cfg.PollInterval.String(),
	}).Info("starting aoeboard")

	s := server.New(st, p, *templates)
	if err := s.Run(cfg.Address); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
