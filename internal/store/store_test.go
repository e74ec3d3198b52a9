package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livetemplate/pageforge/internal/config"
)

var nopLog = zerolog.Nop()

func storageConfig(driver, dir string) config.StorageConfig {
	return config.StorageConfig{
		Driver: driver,
		Path:   filepath.Join(dir, "pages.db"),
		Dir:    filepath.Join(dir, "pages"),
	}
}

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newPage(id, slug, owner string, updated int) *Page {
	return &Page{
		ID:          id,
		Title:       "Page " + id,
		Description: "About " + id,
		Slug:        slug,
		MetaTags:    MetaTags{Title: "Meta " + id, Keywords: "a,b"},
		Content:     `{"elements":[]}`,
		ContentHTML: `<div class="page-content"></div>`,
		Status:      StatusDraft,
		CreatedBy:   owner,
		CreatedAt:   epoch,
		UpdatedAt:   epoch.Add(time.Duration(updated) * time.Minute),
	}
}

// drivers returns every store implementation that can run locally.
func drivers(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()
	d := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"sqlite": func(t *testing.T) Store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "pages.db"))
			require.NoError(t, err)
			return s
		},
		"file": func(t *testing.T) Store {
			s, err := NewFileStore(filepath.Join(t.TempDir(), "pages"))
			require.NoError(t, err)
			return s
		},
	}
	if dsn := os.Getenv("PAGEFORGE_TEST_POSTGRES_DSN"); dsn != "" {
		d["postgres"] = func(t *testing.T) Store {
			s, err := NewPostgresStore(dsn)
			require.NoError(t, err)
			truncate(t, s)
			return s
		}
	}
	return d
}

func truncate(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	pages, err := s.List(ctx, ListOptions{})
	require.NoError(t, err)
	for _, p := range pages {
		require.NoError(t, s.Delete(ctx, p.ID, ""))
	}
}

func forEachDriver(t *testing.T, fn func(t *testing.T, s Store)) {
	for name, open := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			t.Cleanup(func() { s.Close() })
			fn(t, s)
		})
	}
}

func TestStoreCreateGet(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		want := newPage("p1", "home", "alice", 0)
		require.NoError(t, s.Create(ctx, want))

		got, err := s.Get(ctx, "p1", "alice")
		require.NoError(t, err)
		assert.Equal(t, want.Title, got.Title)
		assert.Equal(t, want.Description, got.Description)
		assert.Equal(t, want.Slug, got.Slug)
		assert.Equal(t, want.MetaTags, got.MetaTags)
		assert.Equal(t, want.Content, got.Content)
		assert.Equal(t, want.ContentHTML, got.ContentHTML)
		assert.Equal(t, StatusDraft, got.Status)
		assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "createdAt %v", got.CreatedAt)

		bySlug, err := s.GetBySlug(ctx, "home")
		require.NoError(t, err)
		assert.Equal(t, "p1", bySlug.ID)

		_, err = s.GetBySlug(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStoreOwnerScoping(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Create(ctx, newPage("p1", "home", "alice", 0)))

		_, err := s.Get(ctx, "p1", "bob")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = s.Get(ctx, "p1", "")
		assert.NoError(t, err)

		foreign := newPage("p1", "home", "bob", 1)
		foreign.Title = "Stolen"
		assert.ErrorIs(t, s.Update(ctx, foreign), ErrNotFound)

		assert.ErrorIs(t, s.Delete(ctx, "p1", "bob"), ErrNotFound)

		got, err := s.Get(ctx, "p1", "alice")
		require.NoError(t, err)
		assert.Equal(t, "Page p1", got.Title)
	})
}

func TestStoreSlugUniqueness(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Create(ctx, newPage("p1", "home", "alice", 0)))
		require.NoError(t, s.Create(ctx, newPage("p2", "about", "alice", 0)))

		assert.ErrorIs(t, s.Create(ctx, newPage("p3", "home", "bob", 0)), ErrSlugTaken)

		clash := newPage("p2", "home", "alice", 1)
		assert.ErrorIs(t, s.Update(ctx, clash), ErrSlugTaken)

		// Keeping its own slug is not a clash.
		same := newPage("p2", "about", "alice", 2)
		assert.NoError(t, s.Update(ctx, same))
	})
}

func TestStoreUpdatePreservesCreation(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Create(ctx, newPage("p1", "home", "alice", 0)))

		next := newPage("p1", "welcome", "", 5)
		next.Title = "Welcome"
		next.Status = StatusPublished
		next.CreatedAt = epoch.Add(time.Hour)
		require.NoError(t, s.Update(ctx, next))

		got, err := s.Get(ctx, "p1", "alice")
		require.NoError(t, err)
		assert.Equal(t, "Welcome", got.Title)
		assert.Equal(t, "welcome", got.Slug)
		assert.Equal(t, StatusPublished, got.Status)
		assert.Equal(t, "alice", got.CreatedBy)
		assert.True(t, epoch.Equal(got.CreatedAt))
		assert.True(t, next.UpdatedAt.Equal(got.UpdatedAt))

		assert.ErrorIs(t, s.Update(ctx, newPage("nope", "x", "", 0)), ErrNotFound)
	})
}

func TestStoreDelete(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Create(ctx, newPage("p1", "home", "alice", 0)))
		require.NoError(t, s.Delete(ctx, "p1", "alice"))

		_, err := s.Get(ctx, "p1", "")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "p1", ""), ErrNotFound)

		// The slug is free again.
		assert.NoError(t, s.Create(ctx, newPage("p2", "home", "bob", 0)))
	})
}

func TestStoreList(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		pages := []*Page{
			newPage("a", "a", "alice", 1),
			newPage("b", "b", "alice", 3),
			newPage("c", "c", "bob", 2),
			newPage("d", "d", "alice", 3),
		}
		pages[0].Title = "Pricing 100%"
		pages[2].Status = StatusPublished
		pages[3].Description = "All about PRICING"
		for _, p := range pages {
			require.NoError(t, s.Create(ctx, p))
		}

		tests := []struct {
			name string
			opts ListOptions
			want []string
		}{
			{"all newest first", ListOptions{}, []string{"b", "d", "c", "a"}},
			{"owner", ListOptions{Owner: "alice"}, []string{"b", "d", "a"}},
			{"status", ListOptions{Status: StatusPublished}, []string{"c"}},
			{"search title or description", ListOptions{Search: "pricing"}, []string{"d", "a"}},
			{"search escapes wildcards", ListOptions{Search: "100%"}, []string{"a"}},
			{"search underscore literal", ListOptions{Search: "_"}, nil},
			{"limit", ListOptions{Limit: 2}, []string{"b", "d"}},
			{"offset", ListOptions{Offset: 3}, []string{"a"}},
			{"limit and offset", ListOptions{Limit: 1, Offset: 1}, []string{"d"}},
			{"offset past end", ListOptions{Offset: 10}, nil},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := s.List(ctx, tt.opts)
				require.NoError(t, err)
				ids := []string{}
				for _, p := range got {
					ids = append(ids, p.ID)
				}
				if tt.want == nil {
					tt.want = []string{}
				}
				assert.Equal(t, tt.want, ids)
			})
		}
	})
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	p := newPage("p1", "home", "alice", 0)
	require.NoError(t, s.Create(ctx, p))

	p.Title = "mutated after create"
	got, err := s.Get(ctx, "p1", "")
	require.NoError(t, err)
	assert.Equal(t, "Page p1", got.Title)

	got.Title = "mutated after get"
	again, err := s.Get(ctx, "p1", "")
	require.NoError(t, err)
	assert.Equal(t, "Page p1", again.Title)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		driver  string
		wantErr bool
	}{
		{"default sqlite", "", false},
		{"memory", "memory", false},
		{"file", "file", false},
		{"unknown", "cassandra", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := storageConfig(tt.driver, dir)
			s, err := Open(cfg, nopLog)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer s.Close()
			_, isRetrying := s.(*retrying)
			assert.True(t, isRetrying, "Open should wrap drivers with retries")
		})
	}
}

func TestOpenWithoutRetries(t *testing.T) {
	cfg := storageConfig("memory", t.TempDir())
	cfg.Retry = &config.RetryConfig{MaxRetries: 0}
	s, err := Open(cfg, nopLog)
	require.NoError(t, err)
	_, isMemory := s.(*MemoryStore)
	assert.True(t, isMemory)
}
