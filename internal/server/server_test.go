package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/ritsu/mindustry-notifier/internal/detect"
)

type fakeProvider struct {
	status  detect.Status
	entries []detect.Entry
	events  chan detect.Entry

	lastSeconds int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		status: detect.Status{State: "other", Since: time.Now(), Ticks: 42},
		events: make(chan detect.Entry, 10),
	}
}

func (p *fakeProvider) Status() detect.Status { return p.status }

func (p *fakeProvider) History(seconds int) []detect.Entry {
	p.lastSeconds = seconds
	return p.entries
}

func (p *fakeProvider) Events() <-chan detect.Entry { return p.events }

func TestStatusEndpoint(t *testing.T) {
	p := newFakeProvider()
	srv := httptest.NewServer(New(p).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var got detect.Status
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.State != "other" || got.Ticks != 42 {
		t.Errorf("status = %+v", got)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	p := newFakeProvider()
	p.entries = []detect.Entry{
		{Timestamp: time.Now(), State: "boss-wave", Notified: true},
	}
	srv := httptest.NewServer(New(p).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/history?seconds=60")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if p.lastSeconds != 60 {
		t.Errorf("History called with %d seconds, want 60", p.lastSeconds)
	}

	var got []detect.Entry
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].State != "boss-wave" {
		t.Errorf("history = %+v", got)
	}
}

func TestHistoryEndpointDefaultWindow(t *testing.T) {
	p := newFakeProvider()
	srv := httptest.NewServer(New(p).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/history")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if p.lastSeconds != DefaultHistorySeconds {
		t.Errorf("History called with %d seconds, want default %d", p.lastSeconds, DefaultHistorySeconds)
	}

	// Empty histories serialize as an empty array, not null.
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(raw)) != "[]" {
		t.Errorf("body = %q, want empty array", raw)
	}
}

func TestHistoryEndpointRejectsBadSeconds(t *testing.T) {
	srv := httptest.NewServer(New(newFakeProvider()).Handler())
	defer srv.Close()

	for _, q := range []string{"abc", "-5", "0"} {
		resp, err := http.Get(srv.URL + "/api/history?seconds=" + q)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("seconds=%q: status = %d, want 400", q, resp.StatusCode)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := httptest.NewServer(New(newFakeProvider()).Handler())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/status", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("preflight status = %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS allow-origin header")
	}
}

func TestWebSocketBroadcast(t *testing.T) {
	p := newFakeProvider()
	srv := httptest.NewServer(New(p).Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Let the server register the connection before emitting an event.
	time.Sleep(100 * time.Millisecond)
	entry := detect.Entry{Timestamp: time.Now(), State: "boss-wave", Notified: true}
	p.events <- entry

	var msg TransitionMessage
	if err := wsjson.Read(ctx, conn, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "transition" {
		t.Errorf("Type = %q, want transition", msg.Type)
	}
	if msg.State != "boss-wave" || !msg.Notified {
		t.Errorf("message = %+v", msg)
	}
}
