package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bash586/paytrackbot/internal/config"
	"github.com/bash586/paytrackbot/internal/repository"
	"github.com/bash586/paytrackbot/internal/services"
	"github.com/bash586/paytrackbot/pkg/logger"
	"github.com/bash586/paytrackbot/pkg/pg"
	"github.com/bash586/paytrackbot/pkg/prom"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// The archiver periodically moves action-log rows past the retention window
// into the archive table, keeping the live log small enough for the undo
// lookups that scan it.
func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	var hostname string
	hostname, err = os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	err = prom.Create(hostname, config.Get().AppEnv, config.Get().PromNamespace)
	if err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
	}

	go func() {
		prom.ListenAndServer(":9101", "/metrics")
	}()

	actionRepo := repository.NewActionRepository(db)
	archive := services.NewArchiveService(actionRepo, config.Get().ArchiveRetentionDays)

	interval := config.Get().ArchiveInterval
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	run := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		moved, err := archive.Run(ctx)
		if err != nil {
			logger.Error("archive run failed", "error", err)
			return
		}
		logger.Info("archive run finished", "moved", moved)
	}

	run()
	for {
		select {
		case <-ticker.C:
			run()
		case <-c:
			logger.Info("archiver shutting down")
			return
		}
	}
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
