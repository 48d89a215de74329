package cli

import (
	"fmt"
	"log/slog"

	"github.com/ppiankov/biomap/internal/cache"
	"github.com/ppiankov/biomap/internal/model"
	"github.com/ppiankov/biomap/internal/registry"
	"github.com/ppiankov/biomap/internal/store"
	"github.com/ppiankov/biomap/internal/xref"
)

// app bundles the collaborators every command builds from config
type app struct {
	cfg      *model.Config
	logger   *slog.Logger
	registry *registry.Registry
	store    *store.Store
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)

	reg, err := registry.Load(cfg.Registry.Path)
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}

	s := store.New(cfg.Repository, store.WithRegistry(reg), store.WithLogger(logger))
	return &app{cfg: cfg, logger: logger, registry: reg, store: s}, nil
}

// provider builds the configured xref provider, or nil when none is set.
// A local directory wins over a remote mirror.
func (a *app) provider() xref.Provider {
	var p xref.Provider
	var namespace string
	switch {
	case a.cfg.Xrefs.Dir != "":
		p = xref.NewDirProvider(a.cfg.Xrefs.Dir)
		namespace = "dir:" + a.cfg.Xrefs.Dir
	case a.cfg.Xrefs.BaseURL != "":
		p = xref.NewHTTPProvider(a.cfg.Xrefs, a.logger)
		namespace = a.cfg.Xrefs.BaseURL
	default:
		return nil
	}

	p = xref.Normalizing(p, a.registry, a.logger)
	if a.cfg.Cache.Enabled {
		p = xref.NewCachingProvider(p, cache.Open(a.cfg.Cache), namespace, a.cfg.Cache.DiskTTL, a.logger)
	}
	return p
}

func (a *app) curators() ([]store.Curator, error) {
	return store.LoadCurators(a.cfg.Repository.CuratorsPath())
}

func (a *app) currentCurator() (model.Reference, error) {
	return store.CurrentCurator(a.cfg.Repository.CuratorsPath(), a.cfg.Curator.User)
}
