package main

import (
	"time"

	"github.com/livetemplate/pageforge/internal/cache"
	"github.com/livetemplate/pageforge/internal/pages"
	"github.com/livetemplate/pageforge/internal/render"
	"github.com/livetemplate/pageforge/internal/store"
)

// backend is the store and pages service shared by the commands that touch
// persisted pages.
type backend struct {
	store    store.Store
	pages    *pages.Service
	renderer *render.Renderer
	cache    *cache.MemoryCache
}

func openBackend() (*backend, error) {
	st, err := store.Open(cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	r := render.New(render.WithLogger(logger), render.WithUtilityClasses(cfg.Render.UtilityClasses))
	mc := cache.NewMemoryCache(time.Minute)
	svc := pages.NewService(st,
		pages.WithRenderer(r),
		pages.WithCache(mc, cfg.Render.GetCacheTTL()),
		pages.WithLogger(logger),
	)
	return &backend{store: st, pages: svc, renderer: r, cache: mc}, nil
}

func (b *backend) Close() error {
	b.cache.Stop()
	return b.store.Close()
}
