package pages

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livetemplate/pageforge"
	"github.com/livetemplate/pageforge/internal/cache"
	"github.com/livetemplate/pageforge/internal/editor"
	"github.com/livetemplate/pageforge/internal/store"
)

const headingContent = `{"elements":[{"id":"h1","type":"heading","name":"Title","styles":{},"content":"Hello","level":1}]}`

// tick returns a clock that advances one second per call.
func tick() func() time.Time {
	t := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newService(t *testing.T, opts ...Option) (*Service, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	return NewService(st, append([]Option{WithClock(tick())}, opts...)...), st
}

func TestCreate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, "alice", CreateInput{
		Title:   "  Landing  ",
		Slug:    "  Spring-Sale ",
		Content: headingContent,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Landing", p.Title)
	assert.Equal(t, "spring-sale", p.Slug)
	assert.Equal(t, store.StatusDraft, p.Status)
	assert.Equal(t, "alice", p.CreatedBy)
	assert.Equal(t, `<div class="page-content"><h1>Hello</h1></div>`, p.ContentHTML)
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		in    CreateInput
		field string
	}{
		{"missing title", CreateInput{Slug: "a"}, "title"},
		{"blank title", CreateInput{Title: "   ", Slug: "a"}, "title"},
		{"long title", CreateInput{Title: strings.Repeat("x", 101), Slug: "a"}, "title"},
		{"long description", CreateInput{Title: "t", Slug: "a", Description: strings.Repeat("é", 501)}, "description"},
		{"missing slug", CreateInput{Title: "t", Slug: "  "}, "slug"},
		{"slug with path", CreateInput{Title: "t", Slug: "a/b"}, "slug"},
		{"bad status", CreateInput{Title: "t", Slug: "a", Status: "archived"}, "status"},
		{"malformed elements", CreateInput{Title: "t", Slug: "a", Content: `{"elements":[{"id":1}]}`}, "content"},
		{"null element", CreateInput{Title: "t", Slug: "a", Content: `{"elements":[null]}`}, "content"},
		{"duplicate ids", CreateInput{Title: "t", Slug: "a", Content: `{"elements":[{"id":"x","type":"text","name":"A","styles":{}},{"id":"x","type":"text","name":"B","styles":{}}]}`}, "content"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, "alice", tt.in)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	// Limits count characters, not bytes.
	_, err := svc.Create(ctx, "alice", CreateInput{Title: strings.Repeat("é", 100), Slug: "ok"})
	assert.NoError(t, err)
}

func TestCreateSlugConflict(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", CreateInput{Title: "One", Slug: "home"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "bob", CreateInput{Title: "Two", Slug: "HOME"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCreateWithoutElements(t *testing.T) {
	svc, _ := newService(t)
	p, err := svc.Create(context.Background(), "alice", CreateInput{Title: "Plain", Slug: "plain", Content: "just words"})
	require.NoError(t, err)
	assert.Equal(t, "just words", p.Content)
	assert.Empty(t, p.ContentHTML)
}

func TestOwnership(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, "alice", CreateInput{Title: "Mine", Slug: "mine"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, "bob", p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	title := "Hijacked"
	_, err = svc.Update(ctx, "bob", p.ID, UpdateInput{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, "bob", p.ID), ErrNotFound)

	list, err := svc.List(ctx, "bob", store.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdatePatch(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, "alice", CreateInput{Title: "Draft", Description: "keep me", Slug: "draft", Content: headingContent})
	require.NoError(t, err)

	slug := " Final "
	next, err := svc.Update(ctx, "alice", p.ID, UpdateInput{Slug: &slug})
	require.NoError(t, err)
	assert.Equal(t, "final", next.Slug)
	assert.Equal(t, "Draft", next.Title)
	assert.Equal(t, "keep me", next.Description)
	assert.Equal(t, p.ContentHTML, next.ContentHTML)
	assert.True(t, next.UpdatedAt.After(p.UpdatedAt))
	assert.Equal(t, p.CreatedAt, next.CreatedAt)

	content := `{"elements":[{"id":"t1","type":"text","name":"T","styles":{},"content":"Bye"}]}`
	next, err = svc.Update(ctx, "alice", p.ID, UpdateInput{Content: &content})
	require.NoError(t, err)
	assert.Equal(t, `<div class="page-content"><p>Bye</p></div>`, next.ContentHTML)

	empty := ""
	_, err = svc.Update(ctx, "alice", p.ID, UpdateInput{Title: &empty})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestUpdateSlugConflict(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", CreateInput{Title: "A", Slug: "a"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, "alice", CreateInput{Title: "B", Slug: "b"})
	require.NoError(t, err)

	slug := "a"
	_, err = svc.Update(ctx, "alice", b.ID, UpdateInput{Slug: &slug})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestListFilters(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, "alice", CreateInput{Title: "Pricing", Slug: "pricing"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "alice", CreateInput{Title: "About", Slug: "about"})
	require.NoError(t, err)
	_, err = svc.Publish(ctx, "alice", a.ID)
	require.NoError(t, err)

	all, err := svc.List(ctx, "alice", store.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "pricing", all[0].Slug, "most recently updated first")

	published, err := svc.List(ctx, "alice", store.ListOptions{Status: store.StatusPublished})
	require.NoError(t, err)
	require.Len(t, published, 1)

	// An unknown status filter is ignored rather than matching nothing.
	ignored, err := svc.List(ctx, "alice", store.ListOptions{Status: "archived"})
	require.NoError(t, err)
	assert.Len(t, ignored, 2)

	found, err := svc.List(ctx, "alice", store.ListOptions{Search: " ABOUT "})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "about", found[0].Slug)
}

func TestViewBySlug(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, "alice", CreateInput{Title: "Launch", Slug: "launch", Content: headingContent})
	require.NoError(t, err)

	_, err = svc.ViewBySlug(ctx, "launch")
	assert.ErrorIs(t, err, ErrNotFound, "drafts are private")

	_, err = svc.Publish(ctx, "alice", p.ID)
	require.NoError(t, err)

	view, err := svc.ViewBySlug(ctx, "Launch")
	require.NoError(t, err)
	assert.Equal(t, p.ID, view.ID)
	assert.Contains(t, view.ContentHTML, "<h1>Hello</h1>")

	_, err = svc.Unpublish(ctx, "alice", p.ID)
	require.NoError(t, err)
	_, err = svc.ViewBySlug(ctx, "launch")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestViewBySlugRendersMissingHTML(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	// Imported records may carry content without contentHtml.
	require.NoError(t, st.Create(ctx, &store.Page{
		ID: "legacy", Title: "Legacy", Slug: "legacy", Content: headingContent, Status: store.StatusPublished,
	}))

	view, err := svc.ViewBySlug(ctx, "legacy")
	require.NoError(t, err)
	assert.Equal(t, `<div class="page-content"><h1>Hello</h1></div>`, view.ContentHTML)
}

func TestRenderPageCache(t *testing.T) {
	mc := cache.NewMemoryCache(time.Minute)
	defer mc.Stop()
	svc, _ := newService(t, WithCache(mc, time.Minute))
	ctx := context.Background()

	p, err := svc.Create(ctx, "alice", CreateInput{
		Title:    "Launch",
		Slug:     "launch",
		Content:  headingContent,
		Status:   store.StatusPublished,
		MetaTags: store.MetaTags{Title: "Launch day", Keywords: "go,pages"},
	})
	require.NoError(t, err)

	entry, err := svc.RenderPage(ctx, "launch")
	require.NoError(t, err)
	assert.Contains(t, entry.HTML, "<title>Launch day</title>")
	assert.Contains(t, entry.HTML, `<meta name="keywords" content="go,pages">`)
	assert.Contains(t, entry.HTML, "<h1>Hello</h1>")
	assert.NotEmpty(t, entry.ETag)
	assert.Equal(t, 1, mc.Len())

	again, err := svc.RenderPage(ctx, "launch")
	require.NoError(t, err)
	assert.Same(t, entry, again)

	content := `{"elements":[{"id":"t1","type":"text","name":"T","styles":{},"content":"Changed"}]}`
	_, err = svc.Update(ctx, "alice", p.ID, UpdateInput{Content: &content})
	require.NoError(t, err)
	assert.Equal(t, 0, mc.Len(), "updates invalidate the cached document")

	fresh, err := svc.RenderPage(ctx, "launch")
	require.NoError(t, err)
	assert.Contains(t, fresh.HTML, "<p>Changed</p>")
	assert.NotEqual(t, entry.ETag, fresh.ETag)

	require.NoError(t, svc.Delete(ctx, "alice", p.ID))
	_, err = svc.RenderPage(ctx, "launch")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveContentAsEditorSaver(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, "alice", CreateInput{Title: "Edit me", Slug: "edit"})
	require.NoError(t, err)

	sess := editor.NewSession(p.ID, nil, editor.WithSaver(svc))
	_, err = sess.AddTemplate(pageforge.TypeHeading, "")
	require.NoError(t, err)

	require.NoError(t, sess.Save(WithOwner(ctx, "alice")))

	saved, err := svc.Get(ctx, "alice", p.ID)
	require.NoError(t, err)
	assert.Contains(t, saved.Content, `"type":"heading"`)
	assert.Contains(t, saved.ContentHTML, "<h2")

	// Another user's session cannot write the page.
	err = sess.Save(WithOwner(ctx, "mallory"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPreview(t *testing.T) {
	svc, _ := newService(t)
	html, err := svc.Preview(headingContent)
	require.NoError(t, err)
	assert.Equal(t, `<div class="page-content"><h1>Hello</h1></div>`, html)

	_, err = svc.Preview("{")
	assert.Error(t, err)
}
