package server

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial error: %v", err)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, frame ClientFrame) {
	t.Helper()
	if err := conn.WriteJSON(frame); err != nil {
		t.Fatalf("WriteJSON error: %v", err)
	}
}

func readFrame(t *testing.T, conn *websocket.Conn) viewJSON {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var v viewJSON
	if err := conn.ReadJSON(&v); err != nil {
		t.Fatalf("ReadJSON error: %v", err)
	}
	return v
}

func expectSnapshot(t *testing.T, conn *websocket.Conn, wantPath, wantCrumbs string, wantLoading bool) {
	t.Helper()
	v := readFrame(t, conn)
	if v.Type != FrameSnapshot {
		t.Fatalf("frame type = %q (%+v), want snapshot", v.Type, v)
	}
	if v.Path != wantPath {
		t.Errorf("path = %q, want %q", v.Path, wantPath)
	}
	if got := pathnames(v.Crumbs); got != wantCrumbs {
		t.Errorf("crumbs = %q, want %q", got, wantCrumbs)
	}
	if v.Loading != wantLoading {
		t.Errorf("loading = %v, want %v", v.Loading, wantLoading)
	}
}

func expectError(t *testing.T, conn *websocket.Conn, code string) {
	t.Helper()
	v := readFrame(t, conn)
	if v.Type != FrameError || v.Error == nil || v.Error.Code != code {
		t.Fatalf("frame = %+v, want error %s", v, code)
	}
}

func TestLiveSessionNavigation(t *testing.T) {
	release := make(chan struct{})
	srv := New(newTestTable(t, release), nil)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	conn := dial(t, ts)
	defer conn.Close()

	send(t, conn, ClientFrame{Type: FrameNavigate, Path: "/users"})
	expectSnapshot(t, conn, "/users", "/,/users", false)

	// The fetched crumb keeps the trail loading until it settles.
	send(t, conn, ClientFrame{Type: FrameNavigate, Path: "/users/7"})
	expectSnapshot(t, conn, "/users/7", "/,/users", true)
	close(release)
	expectSnapshot(t, conn, "/users/7", "/,/users,/users/7", false)

	// Same path: no pass, the current trail is echoed.
	send(t, conn, ClientFrame{Type: FrameNavigate, Path: "/users/7/"})
	expectSnapshot(t, conn, "/users/7", "/,/users,/users/7", false)

	// Back up the tree: the deeper crumb is evicted, the rest reused.
	send(t, conn, ClientFrame{Type: FrameNavigate, Path: "/users"})
	expectSnapshot(t, conn, "/users", "/,/users", false)

	send(t, conn, ClientFrame{Type: FrameNavigate, Path: "/nope"})
	expectError(t, conn, "B022")
	expectSnapshot(t, conn, "/nope", "", false)

	send(t, conn, ClientFrame{Type: FrameNavigate, Path: "/a\\b"})
	expectError(t, conn, "B024")
}

func TestLiveSessionControlFrames(t *testing.T) {
	srv := New(newTestTable(t, nil), nil)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	conn := dial(t, ts)
	defer conn.Close()

	send(t, conn, ClientFrame{Type: FramePing})
	if v := readFrame(t, conn); v.Type != FramePong {
		t.Errorf("frame type = %q, want pong", v.Type)
	}

	send(t, conn, ClientFrame{Type: "teleport"})
	expectError(t, conn, "B061")

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatal(err)
	}
	expectError(t, conn, "B061")
}

func TestLiveSessionFetchError(t *testing.T) {
	srv := New(newTestTable(t, nil), nil)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	conn := dial(t, ts)
	defer conn.Close()

	send(t, conn, ClientFrame{Type: FrameNavigate, Path: "/broken"})
	expectSnapshot(t, conn, "/broken", "", true)
	expectSnapshot(t, conn, "/broken", "", false)
	expectError(t, conn, "B001")
}

func TestLiveSessionShutdown(t *testing.T) {
	srv := New(newTestTable(t, nil), nil)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	conn := dial(t, ts)
	defer conn.Close()

	send(t, conn, ClientFrame{Type: FrameNavigate, Path: "/"})
	expectSnapshot(t, conn, "/", "/", false)
	if n := srv.SessionCount(); n != 1 {
		t.Fatalf("SessionCount = %d, want 1", n)
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown error: %v", err)
	}
	if n := srv.SessionCount(); n != 0 {
		t.Errorf("SessionCount after shutdown = %d, want 0", n)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("ReadMessage error = %v, want normal close", err)
	}
}
