// Package editor holds the interactive side of the page builder: the drag
// state machine, the property editor and the session that owns one page's
// working tree.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/livetemplate/pageforge"
)

// Panel is the active side panel of the builder.
type Panel string

const (
	PanelElements Panel = "elements"
	PanelLayers   Panel = "layers"
	PanelStyles   Panel = "styles"
	PanelSettings Panel = "settings"
)

// Valid reports whether p is a known panel.
func (p Panel) Valid() bool {
	switch p {
	case PanelElements, PanelLayers, PanelStyles, PanelSettings:
		return true
	}
	return false
}

// Saver persists serialized page content.
type Saver interface {
	SaveContent(ctx context.Context, pageID, content string) error
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(ctx context.Context, pageID, content string) error

// SaveContent calls f.
func (f SaverFunc) SaveContent(ctx context.Context, pageID, content string) error {
	return f(ctx, pageID, content)
}

// State is a point-in-time view of a session.
type State struct {
	PageID   string               `json:"pageId"`
	Elements []*pageforge.Element `json:"elements"`
	Selected string               `json:"selected,omitempty"`
	Panel    Panel                `json:"panel"`
	Dragging bool                 `json:"dragging"`
	CanUndo  bool                 `json:"canUndo"`
	CanRedo  bool                 `json:"canRedo"`
	Notice   string               `json:"notice,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// Option configures a Session.
type Option func(*Session)

// WithSaver sets the persistence collaborator used by Save.
func WithSaver(s Saver) Option {
	return func(sess *Session) { sess.saver = s }
}

// WithHistoryLimit bounds the undo stack.
func WithHistoryLimit(n int) Option {
	return func(sess *Session) { sess.history = NewHistory(n) }
}

// WithLogger sets the session logger.
func WithLogger(l zerolog.Logger) Option {
	return func(sess *Session) { sess.log = l }
}

// Session owns the working tree of one page. All tree changes go through
// apply, which records history; methods are safe for concurrent use.
type Session struct {
	mu       sync.Mutex
	pageID   string
	forest   []*pageforge.Element
	selected string
	panel    Panel
	drag     Dragger
	history  *History
	notice   string
	lastErr  string
	saver    Saver
	log      zerolog.Logger
}

// NewSession creates a session for pageID starting from forest.
func NewSession(pageID string, forest []*pageforge.Element, opts ...Option) *Session {
	if forest == nil {
		forest = []*pageforge.Element{}
	}
	s := &Session{
		pageID:  pageID,
		forest:  forest,
		panel:   PanelElements,
		history: NewHistory(DefaultHistoryLimit),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("page", pageID).Logger()
	return s
}

// Load replaces the tree with parsed content. Content that does not parse
// leaves an empty tree and a notice, and the parse error is returned.
func (s *Session) Load(content string) error {
	doc, err := pageforge.ParseDocumentString(content)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.abortDrag("reload")
	s.history.Reset()
	s.selected = ""
	s.lastErr = ""
	if err != nil {
		s.log.Warn().Err(err).Msg("falling back to empty page")
		s.forest = []*pageforge.Element{}
		s.notice = UserFriendlyMessage(err)
		return err
	}
	s.forest = doc.Elements
	s.notice = ""
	return nil
}

// Elements returns the committed tree.
func (s *Session) Elements() []*pageforge.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forest
}

// Selected returns the selected element id, or "".
func (s *Session) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Select selects id; an empty id clears the selection.
func (s *Session) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" {
		if _, ok := pageforge.FindByID(s.forest, id); !ok {
			return s.fail(&pageforge.NotFoundError{Op: "select", ID: id})
		}
	}
	s.selected = id
	return nil
}

// SetPanel switches the side panel.
func (s *Session) SetPanel(p Panel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !p.Valid() {
		return s.fail(fmt.Errorf("panel %q: %w", p, ErrInvalidValue))
	}
	s.panel = p
	return nil
}

// DragStart begins a drag. Dragging an element selects it; dragging a
// template clears the selection.
func (s *Session) DragStart(src DragSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.drag.Start(src, s.forest); err != nil {
		return s.fail(err)
	}
	s.selected = src.ElementID
	return nil
}

// DragOver updates the drag preview.
func (s *Session) DragOver(target DropTarget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.drag.Over(target); err != nil {
		return s.fail(err)
	}
	return nil
}

// DragEnd completes the drag. A created element becomes selected and the
// styles panel opens.
func (s *Session) DragEnd(target DropTarget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.drag.End(target)
	if err != nil {
		s.log.Debug().Err(err).Msg("drop rejected")
		return s.fail(err)
	}
	if !res.Changed {
		return nil
	}
	s.apply(res.Forest)
	if res.Created != nil {
		s.selected = res.Created.ID
		s.panel = PanelStyles
	}
	return nil
}

// DragCancel abandons the drag.
func (s *Session) DragCancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drag.Active() {
		s.drag.Cancel()
	}
}

// AddTemplate instantiates the palette template for kind and appends it at
// top level, or into containerID when set. The new element is selected.
func (s *Session) AddTemplate(kind pageforge.ElementType, containerID string) (*pageforge.Element, error) {
	elem, ok := pageforge.NewElement(kind)
	if !ok {
		return nil, fmt.Errorf("template %q: %w", kind, ErrInvalidValue)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var (
		next []*pageforge.Element
		err  error
	)
	if containerID == "" {
		next, err = pageforge.InsertTopLevel(s.forest, elem, -1)
	} else {
		next, err = pageforge.InsertInto(s.forest, containerID, elem, -1)
	}
	if err != nil {
		return nil, s.fail(err)
	}
	s.apply(next)
	s.selected = elem.ID
	s.panel = PanelStyles
	return elem, nil
}

// Duplicate copies id next to itself and selects the copy.
func (s *Session) Duplicate(id string) (*pageforge.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, dup, err := pageforge.Duplicate(s.forest, id)
	if err != nil {
		return nil, s.fail(err)
	}
	s.apply(next)
	s.selected = dup.ID
	return dup, nil
}

// Delete removes id and its subtree. The selection clears when it was
// inside the removed subtree.
func (s *Session) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed, ok := pageforge.FindByID(s.forest, id)
	if !ok {
		return s.fail(&pageforge.NotFoundError{Op: "delete", ID: id})
	}
	next, err := pageforge.RemoveByID(s.forest, id)
	if err != nil {
		return s.fail(err)
	}
	if s.selected != "" && pageforge.Contains(removed, s.selected) {
		s.selected = ""
	}
	s.apply(next)
	return nil
}

// StyleChange sets a style on id, or on the selection when id is empty.
func (s *Session) StyleChange(id, property, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		id = s.selected
	}
	next, err := ApplyStyleChange(s.forest, id, property, value)
	if err != nil {
		return s.fail(err)
	}
	s.apply(next)
	return nil
}

// PropertyChange sets a variant field on id, or on the selection when id
// is empty.
func (s *Session) PropertyChange(id, property, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		id = s.selected
	}
	next, err := ApplyPropertyChange(s.forest, id, property, value)
	if err != nil {
		return s.fail(err)
	}
	s.apply(next)
	return nil
}

// Undo restores the previous tree. It reports whether anything changed.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.history.Undo(s.forest)
	if ok {
		s.abortDrag("undo")
		s.forest = prev
		s.dropStaleSelection()
	}
	return ok
}

// Redo reapplies an undone change.
func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, ok := s.history.Redo(s.forest)
	if ok {
		s.abortDrag("redo")
		s.forest = next
		s.dropStaleSelection()
	}
	return ok
}

// Snapshot returns the current state. While dragging, Elements is the drag
// preview.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	elements := s.forest
	if s.drag.Active() {
		elements = s.drag.Preview()
	}
	return State{
		PageID:   s.pageID,
		Elements: elements,
		Selected: s.selected,
		Panel:    s.panel,
		Dragging: s.drag.Active(),
		CanUndo:  s.history.CanUndo(),
		CanRedo:  s.history.CanRedo(),
		Notice:   s.notice,
		Error:    s.lastErr,
	}
}

// Content serializes the committed tree as a page document.
func (s *Session) Content() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pageforge.EncodeForest(s.forest)
}

// Save serializes the tree as it is now and hands it to the saver. The
// tree is never modified by a save; a failure is recorded and returned as a
// *pageforge.PersistenceError.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	content, err := pageforge.EncodeForest(s.forest)
	saver := s.saver
	s.mu.Unlock()
	if err != nil {
		return s.recordSave(&pageforge.PersistenceError{PageID: s.pageID, Err: err})
	}
	if saver == nil {
		return s.recordSave(&pageforge.PersistenceError{PageID: s.pageID, Err: errors.New("no saver configured")})
	}

	if err := saver.SaveContent(ctx, s.pageID, content); err != nil {
		return s.recordSave(&pageforge.PersistenceError{PageID: s.pageID, Err: err})
	}
	s.log.Debug().Int("bytes", len(content)).Msg("page saved")
	return s.recordSave(nil)
}

func (s *Session) recordSave(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		s.lastErr = ""
		s.notice = "saved"
		return nil
	}
	s.log.Error().Err(err).Msg("save failed")
	s.lastErr = UserFriendlyMessage(err)
	return err
}

// apply is the single assignment point for tree changes.
// apply commits next as the tree. Any drag still in flight was computed
// against the old tree, so it is cancelled rather than allowed to overwrite
// the change on drop.
func (s *Session) apply(next []*pageforge.Element) {
	s.abortDrag("edit")
	s.history.Push(s.forest)
	s.forest = next
	s.lastErr = ""
}

func (s *Session) abortDrag(cause string) {
	if !s.drag.Active() {
		return
	}
	s.drag.Cancel()
	s.log.Debug().Str("cause", cause).Msg("drag cancelled")
}

func (s *Session) fail(err error) error {
	s.lastErr = UserFriendlyMessage(err)
	return err
}

func (s *Session) dropStaleSelection() {
	if s.selected == "" {
		return
	}
	if _, ok := pageforge.FindByID(s.forest, s.selected); !ok {
		s.selected = ""
	}
}
