package deliveries

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/chatbridge/internal/logging"
)

func TestFeedPublish(t *testing.T) {
	f := NewFeed()
	a, unsubA := f.Subscribe(1)
	_, unsubB := f.Subscribe(0)
	defer unsubA()

	f.Publish(Entry{ID: "1"})
	f.Publish(Entry{ID: "2"}) // a's buffer is full; dropped

	if got := <-a; got.ID != "1" {
		t.Errorf("got %q, want 1", got.ID)
	}
	select {
	case e := <-a:
		t.Errorf("unexpected entry %q", e.ID)
	default:
	}

	unsubB()
	unsubB()
	if n := f.Subscribers(); n != 1 {
		t.Errorf("Subscribers() = %d, want 1", n)
	}
}

func TestStoreLogPublishes(t *testing.T) {
	store := setupStore(t)
	ch, unsub := store.Feed().Subscribe(4)
	defer unsub()

	long := strings.Repeat("x", 500)
	if err := store.Log(context.Background(), Entry{Kind: "echo", Status: StatusSent, Preview: long}); err != nil {
		t.Fatal(err)
	}
	select {
	case e := <-ch:
		if e.ID == "" || len([]rune(e.Preview)) != previewRunes+1 {
			t.Errorf("unexpected published entry: id=%q preview=%d runes", e.ID, len([]rune(e.Preview)))
		}
	case <-time.After(time.Second):
		t.Fatal("entry not published")
	}
}

func TestStreamRoute(t *testing.T) {
	store := setupStore(t)
	r := chi.NewRouter()
	RegisterStreamRoutes(r, store, logging.Discard())
	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/deliveries?status=failed"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	store.Log(ctx, Entry{ID: "ok", Kind: "echo", Status: StatusSent})
	store.Log(ctx, Entry{ID: "bad", Kind: "ai", Status: StatusFailed, Reason: ReasonRejected, StatusCode: 400})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Entry
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.ID != "bad" || got.Reason != ReasonRejected || got.StatusCode != 400 {
		t.Errorf("unexpected streamed entry: %+v", got)
	}
}

func TestStreamUnsubscribesOnClose(t *testing.T) {
	store := setupStore(t)
	r := chi.NewRouter()
	RegisterStreamRoutes(r, store, logging.Discard())
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/deliveries", nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	if n := store.Feed().Subscribers(); n != 1 {
		t.Fatalf("Subscribers() = %d, want 1", n)
	}
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for store.Feed().Subscribers() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber not removed after close")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
