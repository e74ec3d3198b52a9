package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/livetemplate/pageforge"
	"github.com/livetemplate/pageforge/internal/editor"
	"github.com/livetemplate/pageforge/internal/pages"
	"github.com/livetemplate/pageforge/internal/store"
)

const (
	writeWait   = 10 * time.Second
	saveTimeout = 10 * time.Second
)

// MessageEnvelope is one websocket message in either direction.
type MessageEnvelope struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// StateMessage is the data of a "state" envelope.
type StateMessage struct {
	editor.State
	HTML string `json:"html"`
}

type idData struct {
	ID string `json:"id"`
}

type panelData struct {
	Panel editor.Panel `json:"panel"`
}

type dragStartData struct {
	ElementID string                `json:"elementId"`
	Template  pageforge.ElementType `json:"template"`
}

type targetData struct {
	Target    string `json:"target"` // "canvas" or "element"
	ElementID string `json:"elementId"`
}

type addData struct {
	Template    pageforge.ElementType `json:"template"`
	ContainerID string                `json:"containerId"`
}

type changeData struct {
	ID       string `json:"id"`
	Property string `json:"property"`
	Value    string `json:"value"`
}

// errProtocol marks messages the session never saw.
var errProtocol = errors.New("invalid message")

// client is one websocket connection. Writes are serialized per client.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(env MessageEnvelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(env)
}

// room is the editing session of one page shared by its connections.
type room struct {
	pageID  string
	session *editor.Session
	mu      sync.Mutex
	clients map[*client]struct{}
}

func (rm *room) members() []*client {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	out := make([]*client, 0, len(rm.clients))
	for c := range rm.clients {
		out = append(out, c)
	}
	return out
}

// hub keeps one room per page being edited.
type hub struct {
	s        *Server
	upgrader websocket.Upgrader
	mu       sync.Mutex
	rooms    map[string]*room
}

func newHub(s *Server) *hub {
	h := &hub{s: s, rooms: make(map[string]*room)}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

// checkOrigin accepts same-host pages and configured CORS origins.
func (h *hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, o := range h.s.cfg.API.GetCORSOrigins() {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// serve upgrades the request and runs the read loop for one connection.
func (h *hub) serve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := pages.Owner(ctx)
	p, err := h.s.pages.Get(ctx, owner, mux.Vars(r)["id"])
	if err != nil {
		h.s.writeServiceError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxRequestBodySize)

	c := &client{conn: conn}
	rm := h.join(p, c)
	defer h.leave(rm, c)

	log := h.s.log.With().Str("page", p.ID).Str("owner", owner).Logger()
	log.Debug().Msg("editor connected")

	if err := c.send(h.state(rm)); err != nil {
		return
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}

		var env MessageEnvelope
		if err := json.Unmarshal(message, &env); err != nil {
			_ = c.send(errorEnvelope(fmt.Errorf("%w: %v", errProtocol, err)))
			continue
		}
		if err := h.dispatch(ctx, rm, env); err != nil {
			if errors.Is(err, errProtocol) {
				_ = c.send(errorEnvelope(err))
				continue
			}
			log.Debug().Err(err).Str("action", env.Action).Msg("editor action rejected")
		}
		h.broadcast(rm)
	}
}

// dispatch applies one action to the room's session. Errors wrapping
// errProtocol are malformed messages; other errors are already recorded
// in the session state.
func (h *hub) dispatch(ctx context.Context, rm *room, env MessageEnvelope) error {
	sess := rm.session
	switch env.Action {
	case "select":
		var d idData
		if err := decodeData(env, &d); err != nil {
			return err
		}
		return sess.Select(d.ID)

	case "panel":
		var d panelData
		if err := decodeData(env, &d); err != nil {
			return err
		}
		return sess.SetPanel(d.Panel)

	case "dragStart":
		var d dragStartData
		if err := decodeData(env, &d); err != nil {
			return err
		}
		if d.Template != "" {
			tpl, ok := pageforge.TemplateFor(d.Template)
			if !ok {
				return fmt.Errorf("%w: unknown template %q", errProtocol, d.Template)
			}
			return sess.DragStart(editor.FromTemplate(tpl))
		}
		return sess.DragStart(editor.FromElement(d.ElementID))

	case "dragOver", "dragEnd":
		var d targetData
		if err := decodeData(env, &d); err != nil {
			return err
		}
		target, err := d.dropTarget()
		if err != nil {
			return err
		}
		if env.Action == "dragOver" {
			return sess.DragOver(target)
		}
		return sess.DragEnd(target)

	case "dragCancel":
		sess.DragCancel()
		return nil

	case "add":
		var d addData
		if err := decodeData(env, &d); err != nil {
			return err
		}
		_, err := sess.AddTemplate(d.Template, d.ContainerID)
		return err

	case "duplicate":
		var d idData
		if err := decodeData(env, &d); err != nil {
			return err
		}
		_, err := sess.Duplicate(d.ID)
		return err

	case "delete":
		var d idData
		if err := decodeData(env, &d); err != nil {
			return err
		}
		return sess.Delete(d.ID)

	case "style", "property":
		var d changeData
		if err := decodeData(env, &d); err != nil {
			return err
		}
		if env.Action == "style" {
			return sess.StyleChange(d.ID, d.Property, d.Value)
		}
		return sess.PropertyChange(d.ID, d.Property, d.Value)

	case "undo":
		sess.Undo()
		return nil

	case "redo":
		sess.Redo()
		return nil

	case "save":
		saveCtx, cancel := context.WithTimeout(ctx, saveTimeout)
		defer cancel()
		return sess.Save(saveCtx)
	}
	return fmt.Errorf("%w: unknown action %q", errProtocol, env.Action)
}

func (d targetData) dropTarget() (editor.DropTarget, error) {
	switch d.Target {
	case "canvas":
		return editor.Canvas(), nil
	case "element":
		return editor.OnElement(d.ElementID), nil
	case "", "none":
		return editor.DropTarget{}, nil
	}
	return editor.DropTarget{}, fmt.Errorf("%w: unknown drop target %q", errProtocol, d.Target)
}

func decodeData(env MessageEnvelope, v any) error {
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("%w: %s data: %v", errProtocol, env.Action, err)
	}
	return nil
}

func errorEnvelope(err error) MessageEnvelope {
	data, _ := json.Marshal(map[string]string{"error": err.Error()})
	return MessageEnvelope{Action: "error", Data: data}
}

// state builds the state envelope of rm.
func (h *hub) state(rm *room) MessageEnvelope {
	snap := rm.session.Snapshot()
	data, err := json.Marshal(StateMessage{State: snap, HTML: h.s.renderer.Render(snap.Elements)})
	if err != nil {
		return errorEnvelope(err)
	}
	return MessageEnvelope{Action: "state", Data: data}
}

// broadcast sends the current state to every connection of rm.
func (h *hub) broadcast(rm *room) {
	env := h.state(rm)
	for _, c := range rm.members() {
		if err := c.send(env); err != nil {
			h.s.log.Debug().Err(err).Str("page", rm.pageID).Msg("state send failed")
		}
	}
}

func (h *hub) join(p *store.Page, c *client) *room {
	h.mu.Lock()
	defer h.mu.Unlock()
	rm, ok := h.rooms[p.ID]
	if !ok {
		rm = &room{
			pageID:  p.ID,
			session: h.newSession(p),
			clients: make(map[*client]struct{}),
		}
		h.rooms[p.ID] = rm
	}
	rm.mu.Lock()
	rm.clients[c] = struct{}{}
	rm.mu.Unlock()
	return rm
}

func (h *hub) newSession(p *store.Page) *editor.Session {
	sess := editor.NewSession(p.ID, nil,
		editor.WithSaver(h.s.pages),
		editor.WithHistoryLimit(h.s.cfg.Editor.GetHistoryLimit()),
		editor.WithLogger(h.s.log),
	)
	if strings.TrimSpace(p.Content) != "" {
		_ = sess.Load(p.Content)
	}
	return sess
}

func (h *hub) leave(rm *room, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	rm.mu.Lock()
	delete(rm.clients, c)
	empty := len(rm.clients) == 0
	rm.mu.Unlock()
	if empty && h.rooms[rm.pageID] == rm {
		delete(h.rooms, rm.pageID)
	}
}

// reload replaces an open session's tree after the page content changed
// through the REST API.
func (h *hub) reload(pageID, content string, changed bool) {
	if !changed {
		return
	}
	h.mu.Lock()
	rm, ok := h.rooms[pageID]
	h.mu.Unlock()
	if !ok {
		return
	}
	if cur, err := rm.session.Content(); err == nil && cur == content {
		return // the session's own save coming back
	}
	_ = rm.session.Load(content)
	h.broadcast(rm)
}

// drop disconnects the editors of a deleted page.
func (h *hub) drop(pageID string) {
	h.mu.Lock()
	rm, ok := h.rooms[pageID]
	delete(h.rooms, pageID)
	h.mu.Unlock()
	if ok {
		closeClients(rm, "page deleted")
	}
}

// closeAll disconnects every editor.
func (h *hub) closeAll() {
	h.mu.Lock()
	rooms := h.rooms
	h.rooms = make(map[string]*room)
	h.mu.Unlock()
	for _, rm := range rooms {
		closeClients(rm, "server shutting down")
	}
}

func closeClients(rm *room, reason string) {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, reason)
	for _, c := range rm.members() {
		c.mu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		_ = c.conn.Close()
		c.mu.Unlock()
	}
}
