package web

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rook-computer/certmaker/internal/notice"
	"github.com/rook-computer/certmaker/internal/state"
)

const (
	eventWriteWait  = 5 * time.Second
	eventPongWait   = 60 * time.Second
	eventPingPeriod = eventPongWait * 9 / 10
	eventBuffer     = 32
)

// Event is one message on the /events stream.
type Event struct {
	Type     string         `json:"type"`
	Revision uint64         `json:"revision,omitempty"`
	Changes  []string       `json:"changes,omitempty"`
	Notice   *notice.Notice `json:"notice,omitempty"`
}

var changeNames = []struct {
	flag state.Change
	name string
}{
	{state.ChangeData, "data"},
	{state.ChangeElements, "elements"},
	{state.ChangeImages, "images"},
	{state.ChangeBackground, "background"},
	{state.ChangeWatermark, "watermark"},
	{state.ChangeView, "view"},
	{state.ChangeSelection, "selection"},
}

// ChangeNames lists the names of the flags set in c.
func ChangeNames(c state.Change) []string {
	var out []string
	for _, n := range changeNames {
		if c.Has(n.flag) {
			out = append(out, n.name)
		}
	}
	return out
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Origins are checked by the dev CORS layer, not here.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleEvents streams store changes and notices over a websocket until the
// client goes away. Slow clients drop events rather than block the store.
func (a *api) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.deps.Logger.Errorf("events", "upgrade: %v", err)
		return
	}
	defer conn.Close()

	events := make(chan Event, eventBuffer)
	unsubscribe := a.deps.Store.Subscribe(func(c state.Change, snap state.State) {
		select {
		case events <- Event{Type: "state", Revision: snap.Revision, Changes: ChangeNames(c)}:
		default:
		}
	})
	defer unsubscribe()
	notices, cancel := a.deps.Notices.Subscribe(eventBuffer)
	defer cancel()

	// The reader only watches for close frames and keeps the pong deadline.
	closed := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(eventPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(eventPongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(eventPingPeriod)
	defer ping.Stop()

	hello := Event{Type: "hello", Revision: a.deps.Store.Snapshot().Revision}
	if err := writeEvent(conn, hello); err != nil {
		return
	}
	for {
		var ev Event
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case ev = <-events:
		case n, ok := <-notices:
			if !ok {
				return
			}
			ev = Event{Type: "notice", Notice: &n}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			continue
		}
		if err := writeEvent(conn, ev); err != nil {
			a.deps.Logger.Errorf("events", "write: %v", err)
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, ev Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
	return conn.WriteJSON(ev)
}
