package pageforge

import "fmt"

// The functions in this file never modify their input. They return a new
// forest that shares every untouched branch with the old one, so callers can
// swap their working tree for the result in a single assignment. When an
// operation cannot be applied the input forest is returned together with a
// *NotFoundError or *StructuralError.

// FindByID searches the forest depth first, visiting each element before
// its children and siblings in order.
func FindByID(forest []*Element, id string) (*Element, bool) {
	for _, e := range forest {
		if e == nil {
			continue
		}
		if e.ID == id {
			return e, true
		}
		if found, ok := FindByID(e.Children, id); ok {
			return found, true
		}
	}
	return nil, false
}

// Walk calls fn for every element in pre-order with its parent (nil at top
// level). Returning false from fn stops the walk. Nil entries are skipped.
func Walk(forest []*Element, fn func(e, parent *Element) bool) {
	walk(forest, nil, fn)
}

func walk(list []*Element, parent *Element, fn func(e, parent *Element) bool) bool {
	for _, e := range list {
		if e == nil {
			continue
		}
		if !fn(e, parent) {
			return false
		}
		if !walk(e.Children, e, fn) {
			return false
		}
	}
	return true
}

// IDs returns every element id in pre-order.
func IDs(forest []*Element) []string {
	var ids []string
	Walk(forest, func(e, _ *Element) bool {
		ids = append(ids, e.ID)
		return true
	})
	return ids
}

// Count returns the number of elements in the forest.
func Count(forest []*Element) int {
	n := 0
	Walk(forest, func(_, _ *Element) bool {
		n++
		return true
	})
	return n
}

// Contains reports whether root or one of its descendants has the given id.
func Contains(root *Element, id string) bool {
	if root == nil {
		return false
	}
	if root.ID == id {
		return true
	}
	_, ok := FindByID(root.Children, id)
	return ok
}

// ParentOf locates id and returns its parent (nil at top level) and its
// index within the parent's sibling list.
func ParentOf(forest []*Element, id string) (parent *Element, index int, ok bool) {
	for i, e := range forest {
		if e.ID == id {
			return nil, i, true
		}
	}
	Walk(forest, func(e, _ *Element) bool {
		for i, child := range e.Children {
			if child.ID == id {
				parent, index, ok = e, i, true
				return false
			}
		}
		return true
	})
	return parent, index, ok
}

// IsTopLevel reports whether id is a root of the forest.
func IsTopLevel(forest []*Element, id string) bool {
	return indexOf(forest, id) >= 0
}

// UpdateByID applies fn to a copy of the element with the given id.
func UpdateByID(forest []*Element, id string, fn func(*Element)) ([]*Element, error) {
	out, ok := updateIn(forest, id, fn)
	if !ok {
		return forest, &NotFoundError{Op: "update", ID: id}
	}
	return out, nil
}

func updateIn(list []*Element, id string, fn func(*Element)) ([]*Element, bool) {
	for i, e := range list {
		if e.ID == id {
			c := e.Clone()
			fn(c)
			return replaceAt(list, i, c), true
		}
		if len(e.Children) == 0 {
			continue
		}
		if kids, ok := updateIn(e.Children, id, fn); ok {
			c := *e
			c.Children = kids
			return replaceAt(list, i, &c), true
		}
	}
	return list, false
}

// RemoveByID removes the element with the given id and its subtree.
func RemoveByID(forest []*Element, id string) ([]*Element, error) {
	out, _, ok := removeIn(forest, id)
	if !ok {
		return forest, &NotFoundError{Op: "remove", ID: id}
	}
	return out, nil
}

// Detach removes an element and returns it, for moves.
func Detach(forest []*Element, id string) ([]*Element, *Element, error) {
	out, removed, ok := removeIn(forest, id)
	if !ok {
		return forest, nil, &NotFoundError{Op: "detach", ID: id}
	}
	return out, removed, nil
}

func removeIn(list []*Element, id string) ([]*Element, *Element, bool) {
	for i, e := range list {
		if e.ID == id {
			out := make([]*Element, 0, len(list)-1)
			out = append(out, list[:i]...)
			out = append(out, list[i+1:]...)
			return out, e, true
		}
		if len(e.Children) == 0 {
			continue
		}
		if kids, removed, ok := removeIn(e.Children, id); ok {
			c := *e
			c.Children = kids
			return replaceAt(list, i, &c), removed, true
		}
	}
	return list, nil, false
}

// InsertInto places elem among the children of the container containerID at
// position. A negative or out of range position appends.
func InsertInto(forest []*Element, containerID string, elem *Element, position int) ([]*Element, error) {
	target, ok := FindByID(forest, containerID)
	if !ok {
		return forest, &NotFoundError{Op: "insert", ID: containerID}
	}
	if !target.IsContainer() {
		return forest, &StructuralError{Op: "insert", ID: elem.ID, Target: containerID, Reason: "target is not a container"}
	}
	if Contains(elem, containerID) {
		return forest, &StructuralError{Op: "insert", ID: elem.ID, Target: containerID, Reason: "element cannot contain itself"}
	}
	if err := checkFreshIDs(forest, elem, "insert", containerID); err != nil {
		return forest, err
	}
	out, _ := updateShallow(forest, containerID, func(c *Element) {
		c.Children = insertAt(c.Children, elem, position)
	})
	return out, nil
}

// InsertTopLevel places elem in the top-level sequence at position. A
// negative or out of range position appends.
func InsertTopLevel(forest []*Element, elem *Element, position int) ([]*Element, error) {
	if err := checkFreshIDs(forest, elem, "insert", ""); err != nil {
		return forest, err
	}
	return insertAt(forest, elem, position), nil
}

// Duplicate deep copies the element with the given id, gives the copy and
// all its descendants fresh ids, names it "<name> (Copy)" and inserts it
// right after the original in the same parent.
func Duplicate(forest []*Element, id string) ([]*Element, *Element, error) {
	orig, ok := FindByID(forest, id)
	if !ok {
		return forest, nil, &NotFoundError{Op: "duplicate", ID: id}
	}
	dup := orig.Clone()
	reassignIDs(dup)
	dup.Name = orig.Name + " (Copy)"

	parent, index, _ := ParentOf(forest, id)
	if parent == nil {
		return insertAt(forest, dup, index+1), dup, nil
	}
	out, _ := updateShallow(forest, parent.ID, func(c *Element) {
		c.Children = insertAt(c.Children, dup, index+1)
	})
	return out, dup, nil
}

func reassignIDs(e *Element) {
	e.ID = NewID()
	for i := range e.Fields {
		e.Fields[i].ID = NewID()
	}
	for _, child := range e.Children {
		reassignIDs(child)
	}
}

// Reorder moves a top-level element to newIndex, keeping the relative order
// of all other elements.
func Reorder(forest []*Element, id string, newIndex int) ([]*Element, error) {
	from := indexOf(forest, id)
	if from < 0 {
		return forest, &NotFoundError{Op: "reorder", ID: id}
	}
	return arrayMove(forest, from, newIndex), nil
}

// Move detaches an element and appends it to the children of containerID.
// Moving an element into itself or its own subtree is rejected.
func Move(forest []*Element, id, containerID string) ([]*Element, error) {
	src, ok := FindByID(forest, id)
	if !ok {
		return forest, &NotFoundError{Op: "move", ID: id}
	}
	target, ok := FindByID(forest, containerID)
	if !ok {
		return forest, &NotFoundError{Op: "move", ID: containerID}
	}
	if !target.IsContainer() {
		return forest, &StructuralError{Op: "move", ID: id, Target: containerID, Reason: "target is not a container"}
	}
	if Contains(src, containerID) {
		return forest, &StructuralError{Op: "move", ID: id, Target: containerID, Reason: "cannot move an element into its own subtree"}
	}
	rest, elem, err := Detach(forest, id)
	if err != nil {
		return forest, err
	}
	return InsertInto(rest, containerID, elem, -1)
}

// MoveToTopLevel detaches an element and places it in the top-level
// sequence at position (append when negative).
func MoveToTopLevel(forest []*Element, id string, position int) ([]*Element, error) {
	if from := indexOf(forest, id); from >= 0 {
		if position < 0 || position >= len(forest) {
			position = len(forest) - 1
		}
		return arrayMove(forest, from, position), nil
	}
	rest, elem, err := Detach(forest, id)
	if err != nil {
		return forest, err
	}
	return insertAt(rest, elem, position), nil
}

// MoveBefore moves an element to the position of targetID within the
// target's sibling list. Siblings follow array-move semantics: the source is
// removed and spliced in at the target's index.
func MoveBefore(forest []*Element, id, targetID string) ([]*Element, error) {
	if id == targetID {
		return forest, nil
	}
	src, ok := FindByID(forest, id)
	if !ok {
		return forest, &NotFoundError{Op: "move", ID: id}
	}
	if _, ok := FindByID(forest, targetID); !ok {
		return forest, &NotFoundError{Op: "move", ID: targetID}
	}
	if Contains(src, targetID) {
		return forest, &StructuralError{Op: "move", ID: id, Target: targetID, Reason: "cannot move an element into its own subtree"}
	}

	parent, index, _ := ParentOf(forest, targetID)
	rest, elem, err := Detach(forest, id)
	if err != nil {
		return forest, err
	}
	if parent == nil {
		return insertAt(rest, elem, index), nil
	}
	return InsertInto(rest, parent.ID, elem, index)
}

// ValidateForest reports structural problems: unknown types, children on
// non-containers, missing or duplicate ids, heading levels out of range.
func ValidateForest(forest []*Element) []error {
	var errs []error
	for _, at := range nullPaths(forest, "elements") {
		errs = append(errs, fmt.Errorf("%s is null", at))
	}
	seen := make(map[string]bool)
	Walk(forest, func(e, _ *Element) bool {
		switch {
		case e.ID == "":
			errs = append(errs, fmt.Errorf("element %q (%s) has no id", e.Name, e.Type))
		case seen[e.ID]:
			errs = append(errs, fmt.Errorf("duplicate element id %q", e.ID))
		}
		seen[e.ID] = true
		if !e.Type.Known() {
			errs = append(errs, fmt.Errorf("element %q has unknown type %q", e.ID, e.Type))
		}
		if !e.IsContainer() && len(e.Children) > 0 {
			errs = append(errs, fmt.Errorf("element %q of type %s cannot have children", e.ID, e.Type))
		}
		if e.Type == TypeHeading && (e.Level < 1 || e.Level > 6) {
			errs = append(errs, fmt.Errorf("heading %q has level %d outside 1..6", e.ID, e.Level))
		}
		return true
	})
	return errs
}

func nullPaths(list []*Element, path string) []string {
	var out []string
	for i, e := range list {
		at := fmt.Sprintf("%s[%d]", path, i)
		if e == nil {
			out = append(out, at)
			continue
		}
		out = append(out, nullPaths(e.Children, at+".children")...)
	}
	return out
}

// checkShape reports the first null element or repeated id. Either one makes
// lookups by id unsafe, so decoded content carrying them is rejected.
func checkShape(forest []*Element) error {
	if nulls := nullPaths(forest, "elements"); len(nulls) > 0 {
		return fmt.Errorf("%s is null", nulls[0])
	}
	seen := make(map[string]bool)
	var dup string
	Walk(forest, func(e, _ *Element) bool {
		if e.ID == "" {
			return true
		}
		if seen[e.ID] {
			dup = e.ID
			return false
		}
		seen[e.ID] = true
		return true
	})
	if dup != "" {
		return fmt.Errorf("duplicate element id %q", dup)
	}
	return nil
}

// updateShallow rebuilds the path to id without cloning the match itself;
// fn may only replace fields of the copy it receives.
func updateShallow(list []*Element, id string, fn func(*Element)) ([]*Element, bool) {
	for i, e := range list {
		if e.ID == id {
			c := *e
			fn(&c)
			return replaceAt(list, i, &c), true
		}
		if len(e.Children) == 0 {
			continue
		}
		if kids, ok := updateShallow(e.Children, id, fn); ok {
			c := *e
			c.Children = kids
			return replaceAt(list, i, &c), true
		}
	}
	return list, false
}

func checkFreshIDs(forest []*Element, elem *Element, op, target string) error {
	var dup string
	Walk([]*Element{elem}, func(e, _ *Element) bool {
		if _, ok := FindByID(forest, e.ID); ok {
			dup = e.ID
			return false
		}
		return true
	})
	if dup != "" {
		return &StructuralError{Op: op, ID: dup, Target: target, Reason: "id already present in the forest"}
	}
	return nil
}

func indexOf(list []*Element, id string) int {
	for i, e := range list {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func replaceAt(list []*Element, i int, e *Element) []*Element {
	out := make([]*Element, len(list))
	copy(out, list)
	out[i] = e
	return out
}

func insertAt(list []*Element, e *Element, position int) []*Element {
	if position < 0 || position > len(list) {
		position = len(list)
	}
	out := make([]*Element, 0, len(list)+1)
	out = append(out, list[:position]...)
	out = append(out, e)
	out = append(out, list[position:]...)
	return out
}

func arrayMove(list []*Element, from, to int) []*Element {
	if to < 0 {
		to = 0
	}
	if to >= len(list) {
		to = len(list) - 1
	}
	out := make([]*Element, 0, len(list))
	out = append(out, list[:from]...)
	out = append(out, list[from+1:]...)
	return insertAt(out, list[from], to)
}
