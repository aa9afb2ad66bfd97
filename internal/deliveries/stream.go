package deliveries

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const (
	streamBuffer = 32
	writeWait    = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// RegisterStreamRoutes mounts the live delivery feed at /ws/deliveries.
// Each new entry is sent as one JSON text message; ?status= filters by
// outcome. The route must not sit behind a request timeout.
func RegisterStreamRoutes(r chi.Router, store *Store, logger *slog.Logger) {
	r.Get("/ws/deliveries", handleStream(store.Feed(), logger.With("component", "deliveries.stream")))
}

func handleStream(feed *Feed, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := Status(r.URL.Query().Get("status"))

		// Subscribe before the handshake completes so nothing logged after
		// the client sees 101 is missed.
		entries, unsubscribe := feed.Subscribe(streamBuffer)
		defer unsubscribe()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
						logger.Debug("websocket read", "error", err)
					}
					return
				}
			}
		}()

		for {
			select {
			case <-closed:
				return
			case <-r.Context().Done():
				return
			case e := <-entries:
				if status != "" && e.Status != status {
					continue
				}
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(e); err != nil {
					logger.Debug("websocket write", "error", err)
					return
				}
			}
		}
	}
}
