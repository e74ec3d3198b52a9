package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dialect captures what differs between the SQL drivers.
type dialect struct {
	name     string
	numbered bool // $1, $2 placeholders instead of ?
	isUnique func(error) bool
}

// sqlStore implements Store over database/sql.
type sqlStore struct {
	db *sql.DB
	d  dialect
}

const schema = `CREATE TABLE IF NOT EXISTS pages (
	id               TEXT PRIMARY KEY,
	title            TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	slug             TEXT NOT NULL UNIQUE,
	meta_title       TEXT NOT NULL DEFAULT '',
	meta_description TEXT NOT NULL DEFAULT '',
	meta_keywords    TEXT NOT NULL DEFAULT '',
	content          TEXT NOT NULL DEFAULT '',
	content_html     TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL DEFAULT 'draft',
	created_by       TEXT NOT NULL DEFAULT '',
	created_at       BIGINT NOT NULL,
	updated_at       BIGINT NOT NULL
)`

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS pages_created_by ON pages (created_by)`,
	`CREATE INDEX IF NOT EXISTS pages_updated_at ON pages (updated_at)`,
}

const pageColumns = `id, title, description, slug, meta_title, meta_description, meta_keywords,
	content, content_html, status, created_by, created_at, updated_at`

func (s *sqlStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%s store: create schema: %w", s.d.name, err)
	}
	for _, stmt := range indexes {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s store: create index: %w", s.d.name, err)
		}
	}
	return nil
}

// rebind converts ? placeholders for dialects that number them.
func (s *sqlStore) rebind(query string) string {
	if !s.d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrSlugTaken) {
		return err
	}
	if s.d.isUnique(err) {
		return ErrSlugTaken
	}
	return NewStoreError(s.d.name, op, err)
}

func (s *sqlStore) Create(ctx context.Context, p *Page) error {
	query := s.rebind(`INSERT INTO pages (` + pageColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.Title, p.Description, p.Slug,
		p.MetaTags.Title, p.MetaTags.Description, p.MetaTags.Keywords,
		p.Content, p.ContentHTML, string(p.Status), p.CreatedBy,
		p.CreatedAt.UnixMicro(), p.UpdatedAt.UnixMicro())
	return s.wrap("create", err)
}

func (s *sqlStore) Get(ctx context.Context, id, owner string) (*Page, error) {
	query := `SELECT ` + pageColumns + ` FROM pages WHERE id = ?`
	args := []any{id}
	if owner != "" {
		query += ` AND created_by = ?`
		args = append(args, owner)
	}
	p, err := scanPage(s.db.QueryRowContext(ctx, s.rebind(query), args...))
	return p, s.wrap("get", err)
}

func (s *sqlStore) GetBySlug(ctx context.Context, slug string) (*Page, error) {
	query := s.rebind(`SELECT ` + pageColumns + ` FROM pages WHERE slug = ?`)
	p, err := scanPage(s.db.QueryRowContext(ctx, query, slug))
	return p, s.wrap("get by slug", err)
}

func (s *sqlStore) Update(ctx context.Context, p *Page) error {
	query := `UPDATE pages SET title = ?, description = ?, slug = ?, meta_title = ?,
		meta_description = ?, meta_keywords = ?, content = ?, content_html = ?,
		status = ?, updated_at = ? WHERE id = ?`
	args := []any{
		p.Title, p.Description, p.Slug, p.MetaTags.Title,
		p.MetaTags.Description, p.MetaTags.Keywords, p.Content, p.ContentHTML,
		string(p.Status), p.UpdatedAt.UnixMicro(), p.ID,
	}
	if p.CreatedBy != "" {
		query += ` AND created_by = ?`
		args = append(args, p.CreatedBy)
	}
	res, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		return s.wrap("update", err)
	}
	return s.wrap("update", affected(res))
}

func (s *sqlStore) Delete(ctx context.Context, id, owner string) error {
	query := `DELETE FROM pages WHERE id = ?`
	args := []any{id}
	if owner != "" {
		query += ` AND created_by = ?`
		args = append(args, owner)
	}
	res, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		return s.wrap("delete", err)
	}
	return s.wrap("delete", affected(res))
}

func (s *sqlStore) List(ctx context.Context, opts ListOptions) ([]*Page, error) {
	var (
		where []string
		args  []any
	)
	if opts.Owner != "" {
		where = append(where, "created_by = ?")
		args = append(args, opts.Owner)
	}
	if opts.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(opts.Status))
	}
	if opts.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(opts.Search)) + "%"
		where = append(where, `(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	query := `SELECT ` + pageColumns + ` FROM pages`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY updated_at DESC, id ASC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	} else if opts.Offset > 0 && !s.d.numbered {
		// SQLite only accepts OFFSET after a LIMIT.
		query += ` LIMIT -1`
	}
	if opts.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, s.wrap("list", err)
	}
	defer rows.Close()

	pages := []*Page{}
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, s.wrap("list", err)
		}
		pages = append(pages, p)
	}
	return pages, s.wrap("list", rows.Err())
}

func (s *sqlStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPage(row scanner) (*Page, error) {
	var (
		p                Page
		status           string
		created, updated int64
	)
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Slug,
		&p.MetaTags.Title, &p.MetaTags.Description, &p.MetaTags.Keywords,
		&p.Content, &p.ContentHTML, &status, &p.CreatedBy, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Status = Status(status)
	p.CreatedAt = time.UnixMicro(created).UTC()
	p.UpdatedAt = time.UnixMicro(updated).UTC()
	return &p, nil
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
