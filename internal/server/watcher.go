package server

import (
	"context"
	"errors"

	"github.com/livetemplate/pageforge/internal/store"
)

// ErrNotWatchable is returned by WatchStore for drivers without change
// notifications.
var ErrNotWatchable = errors.New("store does not support watching")

// watchable is implemented by stores that report external changes.
type watchable interface {
	Watch(ctx context.Context, onChange func(id string)) error
}

// WatchStore follows changes made to st outside the server, such as page
// files edited by hand. Changed pages drop out of the publication cache and
// open editors reload them. Watching stops when ctx is done.
func (s *Server) WatchStore(ctx context.Context, st store.Store) error {
	w, ok := store.Unwrap(st).(watchable)
	if !ok {
		return ErrNotWatchable
	}
	return w.Watch(ctx, func(id string) {
		s.log.Info().Str("page", id).Msg("page changed on disk")
		s.pages.Invalidate(id)

		// Ownership is not known here; the store lookup is unscoped.
		p, err := st.Get(ctx, id, "")
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				s.hub.drop(id)
				return
			}
			s.log.Warn().Err(err).Str("page", id).Msg("reload changed page")
			return
		}
		s.hub.reload(p.ID, p.Content, true)
	})
}

