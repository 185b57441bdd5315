// Package app wires configuration, logging, storage and the reconstruction
// pipeline into one runnable unit behind the CLI.
package app

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"ostk/internal/config"
	"ostk/internal/logging"
	"ostk/internal/store/sqlite"
	"ostk/internal/trajectory"
)

// App holds the long-lived collaborators of one CLI invocation.
type App struct {
	Config *config.Config
	Log    *logrus.Logger
	Store  *sqlite.Store
}

// New loads the configuration, builds the logger and opens the message
// archive. dbPath and verbose, when set, override the file configuration.
func New(cfgPath, dbPath string, verbose bool) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Storage.SQLitePath = dbPath
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	log := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	st, err := sqlite.New(cfg.Storage.SQLitePath, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open message archive: %w", err)
	}

	return &App{Config: cfg, Log: log, Store: st}, nil
}

// Close releases the archive handle.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// Rebuilder builds the reconstruction pipeline from the loaded
// configuration.
func (a *App) Rebuilder() *trajectory.Rebuilder {
	return trajectory.NewRebuilder(a.Store, a.Log, a.Options())
}

// Options translates the decode configuration into pipeline options.
func (a *App) Options() trajectory.Options {
	d := a.Config.Decode
	return trajectory.Options{
		PairingWindow:         secs(d.PairingWindowSecs),
		MaxSpeedKt:            d.MaxSpeedKt,
		LocalMaxSpeedKt:       d.LocalMaxSpeedKt,
		MaxConsecutiveRejects: d.MaxConsecutiveRejects,
		VelocityTolerance:     secs(d.VelocityToleranceSecs),
		ReferenceLat:          d.ReferenceLat,
		ReferenceLon:          d.ReferenceLon,
	}
}

func secs(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
