package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const tempFilePrefix = ".pageforge-tmp-"

// FileStore keeps one JSON file per page in a directory, so pages can be
// versioned and edited alongside other files.
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFileStore uses dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file store: create directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory holding the page files.
func (f *FileStore) Dir() string { return f.dir }

func (f *FileStore) path(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("file store: invalid page id %q", id)
	}
	return filepath.Join(f.dir, id+".json"), nil
}

func (f *FileStore) Create(_ context.Context, p *Page) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	path, err := f.path(p.ID)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return NewStoreError("file", "create", fmt.Errorf("page %q already exists", p.ID))
	}
	all, err := f.readAll()
	if err != nil {
		return err
	}
	if slugTaken(all, p.Slug, p.ID) {
		return ErrSlugTaken
	}
	return f.write(path, p)
}

func (f *FileStore) Get(_ context.Context, id, owner string) (*Page, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	path, err := f.path(id)
	if err != nil {
		return nil, ErrNotFound
	}
	p, err := readPage(path)
	if err != nil {
		return nil, err
	}
	if owner != "" && p.CreatedBy != owner {
		return nil, ErrNotFound
	}
	return p, nil
}

func (f *FileStore) GetBySlug(_ context.Context, slug string) (*Page, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	all, err := f.readAll()
	if err != nil {
		return nil, err
	}
	for _, p := range all {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

func (f *FileStore) Update(_ context.Context, p *Page) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	path, err := f.path(p.ID)
	if err != nil {
		return ErrNotFound
	}
	cur, err := readPage(path)
	if err != nil {
		return err
	}
	if p.CreatedBy != "" && cur.CreatedBy != p.CreatedBy {
		return ErrNotFound
	}
	all, err := f.readAll()
	if err != nil {
		return err
	}
	if slugTaken(all, p.Slug, p.ID) {
		return ErrSlugTaken
	}
	next := p.Clone()
	next.CreatedBy = cur.CreatedBy
	next.CreatedAt = cur.CreatedAt
	return f.write(path, next)
}

func (f *FileStore) Delete(_ context.Context, id, owner string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	path, err := f.path(id)
	if err != nil {
		return ErrNotFound
	}
	cur, err := readPage(path)
	if err != nil {
		return err
	}
	if owner != "" && cur.CreatedBy != owner {
		return ErrNotFound
	}
	if err := os.Remove(path); err != nil {
		return NewStoreError("file", "delete", err)
	}
	return nil
}

func (f *FileStore) List(_ context.Context, opts ListOptions) ([]*Page, error) {
	f.mu.RLock()
	all, err := f.readAll()
	f.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	out := make([]*Page, 0, len(all))
	for _, p := range all {
		if opts.matches(p) {
			out = append(out, p)
		}
	}
	sortByUpdated(out)
	return opts.window(out), nil
}

func (f *FileStore) Close() error { return nil }

// Watch reports the id of every page file created, changed or removed
// outside the store until ctx is done. Bursts of events for one file are
// coalesced.
func (f *FileStore) Watch(ctx context.Context, onChange func(id string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("file store: failed to create watcher: %w", err)
	}
	if err := watcher.Add(f.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("file store: watch %s: %w", f.dir, err)
	}

	go func() {
		defer watcher.Close()
		const debounce = 50 * time.Millisecond
		pending := map[string]bool{}
		timer := time.NewTimer(debounce)
		timer.Stop()

		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				id, ok := pageID(event.Name)
				if !ok {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				pending[id] = true
				timer.Reset(debounce)
			case <-timer.C:
				for id := range pending {
					onChange(id)
				}
				pending = map[string]bool{}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return nil
}

func pageID(name string) (string, bool) {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") || !strings.HasSuffix(base, ".json") {
		return "", false
	}
	return strings.TrimSuffix(base, ".json"), true
}

func (f *FileStore) readAll() ([]*Page, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, NewStoreError("file", "list", err)
	}
	pages := make([]*Page, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := pageID(e.Name()); !ok {
			continue
		}
		p, err := readPage(filepath.Join(f.dir, e.Name()))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue // removed between ReadDir and read
			}
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, nil
}

func readPage(path string) (*Page, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, NewStoreError("file", "read", err)
	}
	var p Page
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, NewStoreError("file", "decode", fmt.Errorf("%s: %w", filepath.Base(path), err))
	}
	return &p, nil
}

func (f *FileStore) write(path string, p *Page) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return NewStoreError("file", "encode", err)
	}
	if err := writeFileAtomic(path, append(data, '\n'), 0o644); err != nil {
		return NewStoreError("file", "write", err)
	}
	return nil
}

// writeFileAtomic writes data to a temp file in the same directory and
// renames it over filename.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(filename), tempFilePrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name()) // Clean up if we fail before rename

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpFile.Name(), perm); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmpFile.Name(), filename); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", filename, err)
	}
	return nil
}

func slugTaken(pages []*Page, slug, exceptID string) bool {
	for _, p := range pages {
		if p.ID != exceptID && p.Slug == slug {
			return true
		}
	}
	return false
}
