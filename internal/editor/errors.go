package editor

import (
	"errors"

	"github.com/livetemplate/pageforge"
)

// UserFriendlyMessage maps an editor error to the notice shown to the user.
func UserFriendlyMessage(err error) string {
	if err == nil {
		return ""
	}

	var parseErr *pageforge.ParseError
	if errors.As(err, &parseErr) {
		return "failed to load content"
	}

	var persistErr *pageforge.PersistenceError
	if errors.As(err, &persistErr) {
		return "Could not save the page. Your changes are kept; try again."
	}

	var structErr *pageforge.StructuralError
	if errors.As(err, &structErr) {
		return "That element cannot be placed there."
	}

	var notFound *pageforge.NotFoundError
	if errors.As(err, &notFound) {
		return "The element no longer exists."
	}

	switch {
	case errors.Is(err, ErrUnknownProperty):
		return "That property does not apply to this element."
	case errors.Is(err, ErrInvalidValue):
		return "Invalid value."
	case errors.Is(err, ErrDragInProgress), errors.Is(err, ErrNotDragging):
		return "Drag interrupted."
	}
	return "Something went wrong."
}
