package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// feedLookup resolves the feed a request may follow and its current
// snapshot.
type feedLookup func(r *http.Request) (id string, snapshot any, err error)

func sessionFeed(g *games) feedLookup {
	return func(r *http.Request) (string, any, error) {
		sess, err := g.session(chi.URLParam(r, "id"), playerFrom(r))
		if err != nil {
			return "", nil, err
		}
		return sess.id, sess.ctrl.Snapshot(), nil
	}
}

func runFeed(g *games) feedLookup {
	return func(r *http.Request) (string, any, error) {
		run, err := g.run(chi.URLParam(r, "id"), playerFrom(r))
		if err != nil {
			return "", nil, err
		}
		return run.ID, run.Snapshot(), nil
	}
}

type feedEvent struct {
	Type     string `json:"type"`
	Snapshot any    `json:"snapshot"`
}

func handleEvents(broker *Broker, lookup feedLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, snap, err := lookup(r)
		if err != nil {
			writeGameError(w, err)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		ch := broker.Subscribe(id)
		defer broker.Unsubscribe(id, ch)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		initial, _ := json.Marshal(feedEvent{Type: "snapshot", Snapshot: snap})
		fmt.Fprintf(w, "event: state\ndata: %s\n\n", initial)
		flusher.Flush()

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case data := <-ch:
				fmt.Fprintf(w, "event: state\ndata: %s\n\n", data)
				flusher.Flush()
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}
