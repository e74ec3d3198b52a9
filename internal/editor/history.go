package editor

import "github.com/livetemplate/pageforge"

// DefaultHistoryLimit bounds the undo stack when no limit is configured.
const DefaultHistoryLimit = 100

// History keeps forest snapshots for undo and redo. Forests are never
// mutated in place, so a snapshot is just the slice header of a prior tree.
type History struct {
	past   [][]*pageforge.Element
	future [][]*pageforge.Element
	limit  int
}

// NewHistory creates a history holding at most limit undo steps.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// Push records prev as the state before a new change and drops any redo
// steps.
func (h *History) Push(prev []*pageforge.Element) {
	h.past = append(h.past, prev)
	if len(h.past) > h.limit {
		h.past = h.past[len(h.past)-h.limit:]
	}
	h.future = nil
}

// Undo returns the previous forest, remembering current for Redo.
func (h *History) Undo(current []*pageforge.Element) ([]*pageforge.Element, bool) {
	if len(h.past) == 0 {
		return current, false
	}
	prev := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	h.future = append(h.future, current)
	return prev, true
}

// Redo reapplies the most recently undone forest.
func (h *History) Redo(current []*pageforge.Element) ([]*pageforge.Element, bool) {
	if len(h.future) == 0 {
		return current, false
	}
	next := h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	h.past = append(h.past, current)
	return next, true
}

// CanUndo reports whether an undo step exists.
func (h *History) CanUndo() bool { return len(h.past) > 0 }

// CanRedo reports whether a redo step exists.
func (h *History) CanRedo() bool { return len(h.future) > 0 }

// Reset clears both stacks.
func (h *History) Reset() {
	h.past = nil
	h.future = nil
}
