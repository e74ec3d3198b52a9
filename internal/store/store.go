// Package store persists pages. Drivers: sqlite, postgres, file and memory.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/livetemplate/pageforge/internal/config"
)

// Status is the publication state of a page.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Valid reports whether s is draft or published.
func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// MetaTags are the document-level meta values of a published page.
type MetaTags struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Keywords    string `json:"keywords,omitempty"`
}

// Page is the persisted record of one page. Content is the serialized page
// document; ContentHTML is derived from it and never edited directly.
type Page struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Slug        string    `json:"slug"`
	MetaTags    MetaTags  `json:"metaTags"`
	Content     string    `json:"content"`
	ContentHTML string    `json:"contentHtml"`
	Status      Status    `json:"status"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Clone returns a copy that shares nothing mutable with p.
func (p *Page) Clone() *Page {
	c := *p
	return &c
}

// ListOptions filter and page List results.
type ListOptions struct {
	Owner  string // Only pages created by this user; empty lists all
	Search string // Case-insensitive match on title or description
	Status Status // Empty means any status
	Limit  int    // 0 means no limit
	Offset int
}

// Store is the persistence contract for pages. Owner arguments scope reads
// and writes to one user; an empty owner is unscoped.
type Store interface {
	// Create inserts a page. A duplicate slug fails with ErrSlugTaken.
	Create(ctx context.Context, p *Page) error
	// Get returns the page with id owned by owner.
	Get(ctx context.Context, id, owner string) (*Page, error)
	// GetBySlug returns the page with the given slug regardless of owner.
	GetBySlug(ctx context.Context, slug string) (*Page, error)
	// Update replaces the page with p.ID owned by p.CreatedBy.
	Update(ctx context.Context, p *Page) error
	// Delete removes the page with id owned by owner.
	Delete(ctx context.Context, id, owner string) error
	// List returns matching pages, most recently updated first.
	List(ctx context.Context, opts ListOptions) ([]*Page, error)
	// Close releases the driver's resources.
	Close() error
}

// Open creates the store selected by cfg.Driver, wrapped with retries for
// transient failures. SQL drivers also get a circuit breaker beneath the
// retries.
func Open(cfg config.StorageConfig, log zerolog.Logger) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case config.DriverSQLite, "":
		s, err = NewSQLiteStore(cfg.GetPath())
	case config.DriverPostgres:
		s, err = NewPostgresStore(cfg.GetDSN())
	case config.DriverFile:
		s, err = NewFileStore(cfg.GetDir())
	case config.DriverMemory:
		s = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if sqlDriver(cfg.Driver) && cfg.GetCircuitFailureThreshold() > 0 {
		cc := DefaultCircuitConfig()
		cc.FailureThreshold = cfg.GetCircuitFailureThreshold()
		cc.Timeout = cfg.GetCircuitTimeout()
		name := cfg.Driver
		if name == "" {
			name = config.DriverSQLite
		}
		s = WithCircuitBreaker(s, NewCircuitBreaker(name, cc, log))
	}
	if cfg.GetRetryMaxRetries() == 0 {
		return s, nil
	}
	return WithRetries(s, RetryConfig{
		MaxRetries: cfg.GetRetryMaxRetries(),
		BaseDelay:  cfg.GetRetryBaseDelay(),
		MaxDelay:   cfg.GetRetryMaxDelay(),
		Multiplier: 2.0,
	}, log), nil
}

func sqlDriver(driver string) bool {
	return driver == "" || driver == config.DriverSQLite || driver == config.DriverPostgres
}

// matches applies opts to p for drivers that filter in Go.
func (o ListOptions) matches(p *Page) bool {
	if o.Owner != "" && p.CreatedBy != o.Owner {
		return false
	}
	if o.Status != "" && p.Status != o.Status {
		return false
	}
	if o.Search != "" {
		q := strings.ToLower(o.Search)
		if !strings.Contains(strings.ToLower(p.Title), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) {
			return false
		}
	}
	return true
}

// window applies Offset and Limit.
func (o ListOptions) window(pages []*Page) []*Page {
	if o.Offset > 0 {
		if o.Offset >= len(pages) {
			return []*Page{}
		}
		pages = pages[o.Offset:]
	}
	if o.Limit > 0 && len(pages) > o.Limit {
		pages = pages[:o.Limit]
	}
	return pages
}
