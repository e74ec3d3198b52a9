package editor

import (
	"errors"

	"github.com/livetemplate/pageforge"
)

var (
	// ErrDragInProgress is returned by Start while another drag is active.
	ErrDragInProgress = errors.New("drag already in progress")
	// ErrNotDragging is returned by Over and End without an active drag.
	ErrNotDragging = errors.New("no drag in progress")
)

// DragSource is what is being dragged: an existing element or a palette
// template. Exactly one of the fields is set.
type DragSource struct {
	ElementID string
	Template  *pageforge.Template
}

// FromElement drags an existing element.
func FromElement(id string) DragSource { return DragSource{ElementID: id} }

// FromTemplate drags a palette template.
func FromTemplate(t *pageforge.Template) DragSource { return DragSource{Template: t} }

// TargetKind classifies a drop target.
type TargetKind int

const (
	// TargetNone means the pointer is over nothing droppable.
	TargetNone TargetKind = iota
	// TargetCanvas is the page root.
	TargetCanvas
	// TargetElement is a specific element.
	TargetElement
)

// DropTarget is where the pointer is during a drag.
type DropTarget struct {
	Kind      TargetKind
	ElementID string
}

// Canvas targets the page root.
func Canvas() DropTarget { return DropTarget{Kind: TargetCanvas} }

// OnElement targets an element.
func OnElement(id string) DropTarget { return DropTarget{Kind: TargetElement, ElementID: id} }

// DropResult is the outcome of End.
type DropResult struct {
	Forest []*pageforge.Element
	// Created is the element materialized from a template, nil for moves.
	Created *pageforge.Element
	// Changed is false when the drop restored the pre-drag forest.
	Changed bool
}

// Dragger is the drag-and-drop state machine: Idle until Start, Dragging
// until End or Cancel. Every preview is computed from the forest captured at
// Start, so hovering never compounds placements.
type Dragger struct {
	active  bool
	source  DragSource
	base    []*pageforge.Element
	preview []*pageforge.Element
	created *pageforge.Element
}

// Active reports whether a drag is in progress.
func (d *Dragger) Active() bool { return d.active }

// Source returns the dragged item.
func (d *Dragger) Source() DragSource { return d.source }

// Preview returns the forest as it would look if dropped at the last valid
// hover target.
func (d *Dragger) Preview() []*pageforge.Element { return d.preview }

// Start begins dragging src over forest.
func (d *Dragger) Start(src DragSource, forest []*pageforge.Element) error {
	if d.active {
		return ErrDragInProgress
	}
	if src.Template == nil {
		if _, ok := pageforge.FindByID(forest, src.ElementID); !ok {
			return &pageforge.NotFoundError{Op: "drag", ID: src.ElementID}
		}
	}
	*d = Dragger{active: true, source: src, base: forest, preview: forest}
	return nil
}

// Over updates the preview for the hovered target. Only containers that can
// accept the dragged item change the preview; any other target keeps the
// last placement.
func (d *Dragger) Over(target DropTarget) ([]*pageforge.Element, error) {
	if !d.active {
		return nil, ErrNotDragging
	}
	if target.Kind != TargetElement || !d.accepts(target.ElementID) {
		return d.preview, nil
	}
	if next, err := d.placeInto(target.ElementID); err == nil {
		d.preview = next
	}
	return d.preview, nil
}

// End drops the dragged item on target and returns to Idle.
func (d *Dragger) End(target DropTarget) (DropResult, error) {
	if !d.active {
		return DropResult{}, ErrNotDragging
	}
	defer d.reset()

	restore := DropResult{Forest: d.base}
	var (
		next []*pageforge.Element
		err  error
	)
	switch target.Kind {
	case TargetCanvas:
		if d.source.Template != nil {
			next, err = pageforge.InsertTopLevel(d.base, d.materialize(), -1)
		} else {
			next, err = pageforge.MoveToTopLevel(d.base, d.source.ElementID, -1)
		}
	case TargetElement:
		next, err = d.dropOnElement(target.ElementID)
	default:
		return restore, nil
	}
	if err != nil {
		return restore, err
	}
	if next == nil {
		return restore, nil
	}
	res := DropResult{Forest: next, Changed: true}
	if d.source.Template != nil {
		res.Created = d.created
	}
	return res, nil
}

// Cancel abandons the drag and returns the pre-drag forest.
func (d *Dragger) Cancel() []*pageforge.Element {
	base := d.base
	d.reset()
	return base
}

func (d *Dragger) reset() { *d = Dragger{} }

func (d *Dragger) dropOnElement(id string) ([]*pageforge.Element, error) {
	if d.source.Template == nil && id == d.source.ElementID {
		return nil, nil
	}
	if d.created != nil && id == d.created.ID {
		// Dropped on its own preview: keep that placement.
		return d.preview, nil
	}
	target, ok := pageforge.FindByID(d.base, id)
	if !ok {
		return nil, &pageforge.NotFoundError{Op: "drop", ID: id}
	}
	if target.IsContainer() && d.accepts(id) {
		return d.placeInto(id)
	}
	if d.source.Template == nil {
		return pageforge.MoveBefore(d.base, d.source.ElementID, id)
	}

	parent, index, _ := pageforge.ParentOf(d.base, id)
	if parent == nil {
		return pageforge.InsertTopLevel(d.base, d.materialize(), index)
	}
	return pageforge.InsertInto(d.base, parent.ID, d.materialize(), index)
}

// accepts reports whether id names a container that may receive the
// dragged item.
func (d *Dragger) accepts(id string) bool {
	target, ok := pageforge.FindByID(d.base, id)
	if !ok || !target.IsContainer() {
		return false
	}
	if d.source.Template != nil {
		return true
	}
	src, ok := pageforge.FindByID(d.base, d.source.ElementID)
	return ok && !pageforge.Contains(src, id)
}

func (d *Dragger) placeInto(containerID string) ([]*pageforge.Element, error) {
	if d.source.Template != nil {
		return pageforge.InsertInto(d.base, containerID, d.materialize(), -1)
	}
	return pageforge.Move(d.base, d.source.ElementID, containerID)
}

// materialize instantiates the dragged template once per drag so every
// preview and the final drop share one id.
func (d *Dragger) materialize() *pageforge.Element {
	if d.created == nil {
		d.created = d.source.Template.Instantiate()
	}
	return d.created
}
