package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"
)

// handleWSFeed streams the same events as the SSE feed over a WebSocket.
// Client messages are ignored; the connection closes when the client does.
func handleWSFeed(logger *slog.Logger, broker *Broker, lookup feedLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, snap, err := lookup(r)
		if err != nil {
			writeGameError(w, err)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ch := broker.Subscribe(id)
		defer broker.Unsubscribe(id, ch)

		ctx := conn.CloseRead(r.Context())

		initial, _ := json.Marshal(feedEvent{Type: "snapshot", Snapshot: snap})
		if err := writeFrame(ctx, conn, initial); err != nil {
			logger.Debug("websocket write failed", "error", err)
			return
		}

		for {
			select {
			case <-ctx.Done():
				conn.Close(websocket.StatusNormalClosure, "")
				return
			case data := <-ch:
				if err := writeFrame(ctx, conn, data); err != nil {
					logger.Debug("websocket write failed", "error", err)
					return
				}
			}
		}
	}
}

func writeFrame(ctx context.Context, conn *websocket.Conn, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}
