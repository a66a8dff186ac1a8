// Package cli wires configuration into the services the commands use.
package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/aayushdutt/mcinstall/internal/api"
	"github.com/aayushdutt/mcinstall/internal/config"
	"github.com/aayushdutt/mcinstall/internal/download"
	"github.com/aayushdutt/mcinstall/internal/install"
	"github.com/aayushdutt/mcinstall/internal/storage"
	"github.com/aayushdutt/mcinstall/internal/versions"
)

// App holds the services shared by every command
type App struct {
	Config    *config.Config
	Log       *log.Logger
	Out       io.Writer
	Store     *storage.Store
	Client    *download.Client
	Catalog   *api.MojangClient
	Resolver  *versions.Resolver
	Installer *install.Installer
}

// NewApp validates cfg and builds the services. Logs go to errOut,
// command output to out.
func NewApp(cfg *config.Config, out, errOut io.Writer) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := NewLogger(errOut, cfg.Level())
	store := storage.New(cfg.InstallRoot)

	client := download.NewClient(download.Options{
		Timeout:           time.Duration(cfg.HTTPTimeout),
		RetryMax:          cfg.RetryMax,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Logger:            logger,
	})
	catalog := api.NewMojangClient(client, cfg.ManifestURL, time.Duration(cfg.ManifestTTL))
	resolver := versions.NewResolver(store, client, catalog, logger.WithPrefix("resolve"))

	installer := install.New(install.Options{
		Store:        store,
		Resolver:     resolver,
		Fetcher:      client,
		Downloader:   client,
		Platform:     cfg.TargetPlatform(),
		Workers:      cfg.Workers,
		ResourcesURL: cfg.ResourcesURL,
		Logger:       logger.WithPrefix("install"),
	})

	return &App{
		Config:    cfg,
		Log:       logger,
		Out:       out,
		Store:     store,
		Client:    client,
		Catalog:   catalog,
		Resolver:  resolver,
		Installer: installer,
	}, nil
}

// NewLogger builds the leveled logger used across the program
func NewLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: level <= log.DebugLevel,
		TimeFormat:      time.TimeOnly,
	})
}
