// Package pages implements page management on top of a store: validation,
// slug normalization, ownership, contentHtml generation and the published
// view.
package pages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/livetemplate/pageforge"
	"github.com/livetemplate/pageforge/internal/cache"
	"github.com/livetemplate/pageforge/internal/render"
	"github.com/livetemplate/pageforge/internal/store"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
)

// CreateInput is the payload for a new page.
type CreateInput struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Slug        string         `json:"slug"`
	MetaTags    store.MetaTags `json:"metaTags"`
	Content     string         `json:"content"`
	Status      store.Status   `json:"status"`
}

// UpdateInput is a partial update. Nil fields are left unchanged.
type UpdateInput struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Slug        *string         `json:"slug"`
	MetaTags    *store.MetaTags `json:"metaTags"`
	Content     *string         `json:"content"`
	Status      *store.Status   `json:"status"`
}

// Service manages pages for their owners.
type Service struct {
	store    store.Store
	renderer *render.Renderer
	cache    cache.Cache
	ttl      time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithRenderer sets the renderer used for contentHtml and the public view.
func WithRenderer(r *render.Renderer) Option {
	return func(s *Service) { s.renderer = r }
}

// WithCache caches published documents for ttl. A zero ttl disables caching.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.ttl = ttl
	}
}

// WithLogger sets the service logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithClock overrides the time source for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service over st.
func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:    st,
		renderer: render.New(),
		cache:    cache.Nop{},
		log:      zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ttl <= 0 {
		s.cache = cache.Nop{}
	}
	return s
}

// NormalizeSlug trims and lowercases a slug.
func NormalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

// Create validates in and stores a new draft (or published) page owned by
// owner.
func (s *Service) Create(ctx context.Context, owner string, in CreateInput) (*store.Page, error) {
	now := s.now().UTC().Truncate(time.Microsecond)
	p := &store.Page{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Slug:        NormalizeSlug(in.Slug),
		MetaTags:    in.MetaTags,
		Content:     in.Content,
		Status:      in.Status,
		CreatedBy:   owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.Status == "" {
		p.Status = store.StatusDraft
	}
	if err := validate(p); err != nil {
		return nil, err
	}
	if err := s.regenerate(p); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, translate(err)
	}
	s.log.Info().Str("page", p.ID).Str("slug", p.Slug).Str("owner", owner).Msg("page created")
	return p, nil
}

// Get returns owner's page with id.
func (s *Service) Get(ctx context.Context, owner, id string) (*store.Page, error) {
	p, err := s.store.Get(ctx, id, owner)
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

// List returns owner's pages, most recently updated first. An unknown
// status is ignored.
func (s *Service) List(ctx context.Context, owner string, opts store.ListOptions) ([]*store.Page, error) {
	opts.Owner = owner
	if !opts.Status.Valid() {
		opts.Status = ""
	}
	opts.Search = strings.TrimSpace(opts.Search)
	pages, err := s.store.List(ctx, opts)
	if err != nil {
		return nil, translate(err)
	}
	return pages, nil
}

// Update applies in to owner's page. Changing the content regenerates
// contentHtml.
func (s *Service) Update(ctx context.Context, owner, id string, in UpdateInput) (*store.Page, error) {
	cur, err := s.store.Get(ctx, id, owner)
	if err != nil {
		return nil, translate(err)
	}
	next := cur.Clone()
	if in.Title != nil {
		next.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		next.Description = *in.Description
	}
	if in.Slug != nil {
		next.Slug = NormalizeSlug(*in.Slug)
	}
	if in.MetaTags != nil {
		next.MetaTags = *in.MetaTags
	}
	if in.Status != nil {
		next.Status = *in.Status
	}
	if err := validate(next); err != nil {
		return nil, err
	}
	if in.Content != nil {
		next.Content = *in.Content
		if err := s.regenerate(next); err != nil {
			return nil, err
		}
	}
	return s.save(ctx, cur, next)
}

// Publish makes owner's page visible at its slug.
func (s *Service) Publish(ctx context.Context, owner, id string) (*store.Page, error) {
	status := store.StatusPublished
	return s.Update(ctx, owner, id, UpdateInput{Status: &status})
}

// Unpublish returns owner's page to draft.
func (s *Service) Unpublish(ctx context.Context, owner, id string) (*store.Page, error) {
	status := store.StatusDraft
	return s.Update(ctx, owner, id, UpdateInput{Status: &status})
}

// Delete removes owner's page.
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	cur, err := s.store.Get(ctx, id, owner)
	if err != nil {
		return translate(err)
	}
	if err := s.store.Delete(ctx, id, owner); err != nil {
		return translate(err)
	}
	s.cache.Invalidate(cur.Slug)
	s.log.Info().Str("page", id).Str("owner", owner).Msg("page deleted")
	return nil
}

// SaveContent stores editor content for the page, scoped to the owner in
// ctx. It lets a Service act as the editor's saver.
func (s *Service) SaveContent(ctx context.Context, pageID, content string) error {
	_, err := s.Update(ctx, Owner(ctx), pageID, UpdateInput{Content: &content})
	return err
}

// ViewBySlug returns the published page with slug. Drafts are not found.
func (s *Service) ViewBySlug(ctx context.Context, slug string) (*store.Page, error) {
	p, err := s.store.GetBySlug(ctx, NormalizeSlug(slug))
	if err != nil {
		return nil, translate(err)
	}
	if p.Status != store.StatusPublished {
		return nil, ErrNotFound
	}
	if p.ContentHTML == "" && pageforge.HasElements(p.Content) {
		if err := s.regenerate(p); err != nil {
			s.log.Warn().Err(err).Str("page", p.ID).Msg("published content does not parse")
		}
	}
	return p, nil
}

// RenderPage returns the complete HTML document of the published page with
// slug, served from the cache while fresh.
func (s *Service) RenderPage(ctx context.Context, slug string) (*cache.Entry, error) {
	slug = NormalizeSlug(slug)
	if entry, ok := s.cache.Get(slug); ok {
		return entry, nil
	}
	p, err := s.ViewBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	title := p.MetaTags.Title
	if title == "" {
		title = p.Title
	}
	description := p.MetaTags.Description
	if description == "" {
		description = p.Description
	}
	body := p.ContentHTML
	if body == "" {
		body = s.renderer.Render(nil)
	}
	doc, err := render.Document(render.PageMeta{
		Title:       title,
		Description: description,
		Keywords:    p.MetaTags.Keywords,
	}, body)
	if err != nil {
		return nil, err
	}
	return s.cache.Set(slug, doc, s.ttl), nil
}

// Preview renders document content without storing it.
func (s *Service) Preview(content string) (string, error) {
	doc, err := pageforge.ParseDocumentString(content)
	if err != nil {
		return "", err
	}
	return s.renderer.Render(doc.Elements), nil
}

// Invalidate drops cached documents after pages changed outside the
// service. Cache keys are slugs, and the old slug of a changed file is
// unknown, so everything goes.
func (s *Service) Invalidate(id string) {
	s.log.Debug().Str("page", id).Msg("page changed externally")
	s.cache.InvalidateAll()
}

func (s *Service) save(ctx context.Context, cur, next *store.Page) (*store.Page, error) {
	next.UpdatedAt = s.now().UTC().Truncate(time.Microsecond)
	if !next.UpdatedAt.After(cur.UpdatedAt) {
		next.UpdatedAt = cur.UpdatedAt.Add(time.Microsecond)
	}
	if err := s.store.Update(ctx, next); err != nil {
		return nil, translate(err)
	}
	s.cache.Invalidate(cur.Slug)
	s.cache.Invalidate(next.Slug)
	return next, nil
}

// regenerate derives contentHtml from content. Content without an elements
// array has no HTML.
func (s *Service) regenerate(p *store.Page) error {
	if !pageforge.HasElements(p.Content) {
		p.ContentHTML = ""
		return nil
	}
	doc, err := pageforge.ParseDocumentString(p.Content)
	if err != nil {
		return &ValidationError{Field: "content", Message: err.Error()}
	}
	p.ContentHTML = s.renderer.Render(doc.Elements)
	return nil
}

func validate(p *store.Page) error {
	switch {
	case p.Title == "":
		return invalid("title", "Title is required")
	case utf8.RuneCountInString(p.Title) > MaxTitleLength:
		return invalid("title", "Title cannot be more than %d characters", MaxTitleLength)
	case utf8.RuneCountInString(p.Description) > MaxDescriptionLength:
		return invalid("description", "Description cannot be more than %d characters", MaxDescriptionLength)
	case p.Slug == "":
		return invalid("slug", "Slug is required")
	case strings.ContainsAny(p.Slug, "/?#% \t\n"):
		return invalid("slug", "Slug cannot contain spaces or URL delimiters")
	case !p.Status.Valid():
		return invalid("status", "Status must be draft or published")
	}
	return nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrSlugTaken):
		return ErrConflict
	}
	return fmt.Errorf("page store: %w", err)
}
