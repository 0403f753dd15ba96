package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/calltime/slate/pkg/core"
	"github.com/calltime/slate/pkg/dispatch"
	"github.com/calltime/slate/pkg/rank"
	"github.com/calltime/slate/pkg/search"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// CORS policy is wide open, same as the REST endpoints.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	writeWait  = 10 * time.Second
)

// liveMessage is an inbound frame: a keystroke's worth of query text, or a
// cursor movement ("next", "prev", "reset").
type liveMessage struct {
	Type   string `json:"type"`
	Query  string `json:"q"`
	Action string `json:"action"`
}

// liveUpdate is an outbound frame: the debounced, deduplicated state of the
// results panel. Cursor is the selected row, -1 when the panel is empty.
type liveUpdate struct {
	Type    string        `json:"type"`
	Seq     uint64        `json:"seq"`
	Query   string        `json:"query"`
	Results []core.Result `json:"results"`
	Open    bool          `json:"open"`
	Cursor  int           `json:"cursor"`
}

// liveCursor is an outbound frame acknowledging a cursor movement.
type liveCursor struct {
	Type string `json:"type"`
	Pos  int    `json:"pos"`
}

// backendFunc adapts a closure to the dispatch.Backend interface.
type backendFunc func(ctx context.Context, req dispatch.Request) ([]core.Result, error)

func (f backendFunc) Search(ctx context.Context, req dispatch.Request) ([]core.Result, error) {
	return f(ctx, req)
}

// HandleLiveSearch upgrades to a WebSocket and runs a per-connection
// debounced dispatcher. The client sends {"type":"query","q":"..."} frames
// as the user types; the server answers with {"type":"results",...} frames
// after the quiet period, never out of order. Facet filters are fixed per
// connection from the upgrade request's query string.
func (s *Server) HandleLiveSearch(w http.ResponseWriter, r *http.Request) {
	params, err := search.ParseParams(r.URL.Query())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid parameters", err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("websocket upgrade failed: %v", err)
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			s.logger.Debugf("closing websocket: %v", err)
		}
	}()

	backend := backendFunc(func(ctx context.Context, req dispatch.Request) ([]core.Result, error) {
		p := params
		p.Query = req.Query
		p.Limit = req.Limit
		results, err := s.searcher.Search(ctx, p)
		if err != nil {
			return nil, err
		}
		return results.Results, nil
	})

	d := dispatch.New(backend, dispatch.Options{
		Quiet:          time.Duration(s.quietMs) * time.Millisecond,
		MinQueryLength: s.minQueryLength,
		Limit:          s.limit,
	})
	defer d.Close()

	// The cursor is shared between the writer (reset on each new result
	// set) and the reader (movement frames). Both goroutines also write
	// frames, and gorilla connections allow one writer at a time.
	var cursorMu, writeMu sync.Mutex
	cursor := rank.NewCursor(0)

	writeFrame := func(frame any) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return err
		}
		return conn.WriteJSON(frame)
	}

	// Keepalive: ping on a timer, extend the read deadline on every pong.
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		s.logger.Debugf("setting read deadline: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	pingDone := make(chan struct{})
	defer close(pingDone)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				writeMu.Lock()
				err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
				writeMu.Unlock()
				if err != nil {
					return
				}
			case <-pingDone:
				return
			}
		}
	}()

	// Writer: forward dispatcher updates until it closes.
	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		for u := range d.Updates() {
			cursorMu.Lock()
			cursor.Reset(len(u.Results))
			pos := cursor.Pos()
			cursorMu.Unlock()

			frame := liveUpdate{
				Type:    "results",
				Seq:     u.Seq,
				Query:   u.Query,
				Results: u.Results,
				Open:    u.Panel == dispatch.PanelResults,
				Cursor:  pos,
			}
			if err := writeFrame(frame); err != nil {
				s.logger.Debugf("websocket write failed: %v", err)
				return
			}
		}
	}()

	// Reader: feed keystrokes until the client goes away.
	for {
		var msg liveMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debugf("websocket read failed: %v", err)
			}
			break
		}
		switch msg.Type {
		case "query":
			d.Type(msg.Query)
		case "cursor":
			cursorMu.Lock()
			switch msg.Action {
			case "next":
				cursor.Next()
			case "prev":
				cursor.Prev()
			case "reset":
				cursor.Reset(cursor.Size())
			}
			pos := cursor.Pos()
			cursorMu.Unlock()

			if err := writeFrame(liveCursor{Type: "cursor", Pos: pos}); err != nil {
				s.logger.Debugf("websocket write failed: %v", err)
			}
		}
	}

	d.Close()
	<-writeDone
}
