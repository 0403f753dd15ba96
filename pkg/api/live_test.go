package api

import (
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func wsDial(t *testing.T, ts *httptest.Server, rawQuery string) *websocket.Conn {
	t.Helper()
	u, _ := url.Parse(ts.URL)
	u.Scheme = "ws"
	u.Path = "/api/search/live"
	u.RawQuery = rawQuery

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendQuery(t *testing.T, conn *websocket.Conn, q string) {
	t.Helper()
	if err := conn.WriteJSON(liveMessage{Type: "query", Query: q}); err != nil {
		t.Fatalf("write query %q: %v", q, err)
	}
}

func readUpdate(t *testing.T, conn *websocket.Conn) liveUpdate {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatal(err)
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read update: %v", err)
	}
	var u liveUpdate
	if err := json.Unmarshal(data, &u); err != nil {
		t.Fatalf("unmarshal update: %v", err)
	}
	if u.Type != "results" {
		t.Fatalf("expected results frame, got %q", u.Type)
	}
	return u
}

func TestLiveSearchShortQueryCloses(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := wsDial(t, ts, "")

	sendQuery(t, conn, "s")
	u := readUpdate(t, conn)
	if u.Open || len(u.Results) != 0 {
		t.Fatalf("short query must clear and close the panel: %+v", u)
	}
}

func TestLiveSearchDebouncedResults(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := wsDial(t, ts, "")

	// Simulated typing: intermediate queries may or may not produce frames
	// depending on timing, but the final one always does, last.
	for _, q := range []string{"sa", "sar", "sarah"} {
		sendQuery(t, conn, q)
	}

	var u liveUpdate
	deadline := time.Now().Add(2 * time.Second)
	for {
		u = readUpdate(t, conn)
		if u.Query == "sarah" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("never saw results for final query, last frame %+v", u)
		}
	}
	if !u.Open || len(u.Results) == 0 {
		t.Fatalf("expected open panel with results: %+v", u)
	}
	for i := 1; i < len(u.Results); i++ {
		if u.Results[i].Relevance > u.Results[i-1].Relevance {
			t.Error("live results not ordered by relevance")
		}
	}
}

func TestLiveSearchNoMatchClosesPanel(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := wsDial(t, ts, "")

	sendQuery(t, conn, "zebra unicorns")
	u := readUpdate(t, conn)
	if u.Open {
		t.Fatalf("panel must close on empty match: %+v", u)
	}
	if u.Results == nil {
		t.Error("results must be empty, not absent")
	}
}

func readCursor(t *testing.T, conn *websocket.Conn) int {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatal(err)
	}
	var c liveCursor
	if err := conn.ReadJSON(&c); err != nil {
		t.Fatalf("read cursor frame: %v", err)
	}
	if c.Type != "cursor" {
		t.Fatalf("expected cursor frame, got %q", c.Type)
	}
	return c.Pos
}

func sendCursor(t *testing.T, conn *websocket.Conn, action string) {
	t.Helper()
	if err := conn.WriteJSON(liveMessage{Type: "cursor", Action: action}); err != nil {
		t.Fatalf("write cursor %q: %v", action, err)
	}
}

func TestLiveSearchCursorClampsAndResets(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := wsDial(t, ts, "")

	sendQuery(t, conn, "sarah")
	var u liveUpdate
	deadline := time.Now().Add(2 * time.Second)
	for {
		u = readUpdate(t, conn)
		if u.Query == "sarah" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("never saw results frame, last %+v", u)
		}
	}
	if len(u.Results) == 0 {
		t.Fatal("need results to move the cursor over")
	}
	if u.Cursor != 0 {
		t.Fatalf("new result set must start at the first row, got %d", u.Cursor)
	}

	last := len(u.Results) - 1
	for i := 0; i < len(u.Results)+3; i++ {
		sendCursor(t, conn, "next")
		pos := readCursor(t, conn)
		if pos > last {
			t.Fatalf("cursor moved past the end: %d > %d", pos, last)
		}
	}

	sendCursor(t, conn, "prev")
	if pos := readCursor(t, conn); last > 0 && pos != last-1 {
		t.Fatalf("prev from the end should land on %d, got %d", last-1, pos)
	}

	sendCursor(t, conn, "reset")
	if pos := readCursor(t, conn); pos != 0 {
		t.Fatalf("reset should return to the first row, got %d", pos)
	}
}

func TestLiveSearchConnectionFilters(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := wsDial(t, ts, "resolution=4K")

	sendQuery(t, conn, "sarah")
	u := readUpdate(t, conn)
	if len(u.Results) != 1 || u.Results[0].ID != "a1" {
		t.Fatalf("connection filters not applied: %+v", u.Results)
	}
}

func TestLiveSearchBadFilterParams(t *testing.T) {
	ts, _ := newTestServer(t)

	u, _ := url.Parse(ts.URL)
	u.Scheme = "ws"
	u.Path = "/api/search/live"
	u.RawQuery = "start_date=junk"

	_, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err == nil {
		t.Fatal("expected upgrade to fail on invalid parameters")
	}
	if resp == nil || resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %+v", resp)
	}
}
