package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"lbpress/internal/config"
	"lbpress/internal/render"
	"lbpress/internal/storage"
	"lbpress/internal/wordpress"
)

// commandContext carries the flag values and lazily-built dependencies
// shared by all subcommands.
type commandContext struct {
	configPath string
	dryRun     bool

	cfg *config.Config
	log *slog.Logger
}

func (c *commandContext) setup() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.log = newLogger(cfg.LogLevel)
	return nil
}

func (c *commandContext) openStore() (*storage.SQLite, error) {
	if dir := filepath.Dir(c.cfg.Local.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create data directory %s: %w", dir, err)
		}
	}
	store, err := storage.NewSQLite(c.cfg.Local.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", c.cfg.Local.DBPath, err)
	}
	return store, nil
}

func (c *commandContext) remoteClient() *wordpress.Client {
	wp := c.cfg.WordPress
	return wordpress.New(http.DefaultClient, wp.URL, wp.User, wp.Key, c.log)
}

func (c *commandContext) renderOptions() render.Options {
	wp := c.cfg.WordPress
	return render.Options{
		Categories: wp.Categories,
		Tags:       wp.Tags,
		CiteStyle:  wp.CiteStyle,
	}
}

const dateFlagLayout = "2006-01-02"

func parseDateRange(start, end string) (time.Time, time.Time, error) {
	s, err := time.Parse(dateFlagLayout, start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	var e time.Time
	if end == "" {
		now := time.Now().UTC()
		e = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	} else {
		e, err = time.Parse(dateFlagLayout, end)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q: %w", end, err)
		}
	}
	if e.Before(s) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s is before start date %s", end, start)
	}
	return s, e, nil
}
