package api

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Progress is one phase notification for a game's running turn.
type Progress struct {
	Step  int     `json:"step"`
	Pct   float64 `json:"pct"`
	Phase string  `json:"phase"`
}

// errWatcherBehind is returned by Publish when a watcher's buffer was full
// and the message was dropped for it.
var errWatcherBehind = errors.New("progress watcher behind")

const (
	watcherBuffer = 32
	writeWait     = 5 * time.Second
)

// progressHub fans out turn progress to websocket watchers, per game token.
type progressHub struct {
	mu       sync.Mutex
	watchers map[string]map[chan Progress]struct{}
}

func newProgressHub() *progressHub {
	return &progressHub{watchers: make(map[string]map[chan Progress]struct{})}
}

// Subscribe registers a watcher for token. Call cancel to unregister.
func (h *progressHub) Subscribe(token string) (<-chan Progress, func()) {
	ch := make(chan Progress, watcherBuffer)

	h.mu.Lock()
	set, ok := h.watchers[token]
	if !ok {
		set = make(map[chan Progress]struct{})
		h.watchers[token] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(set, ch)
			if len(set) == 0 {
				delete(h.watchers, token)
			}
		})
	}
}

// Publish never blocks; slow watchers miss messages.
func (h *progressHub) Publish(token string, p Progress) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var err error
	for ch := range h.watchers[token] {
		select {
		case ch <- p:
		default:
			err = errWatcherBehind
		}
	}
	return err
}

// Watchers returns the number of connected watchers across all games.
func (h *progressHub) Watchers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, set := range h.watchers {
		n += len(set)
	}
	return n
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleProgress streams turn progress for one game until the client leaves.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if _, err := s.DB.LoadGame(token); err != nil {
		writeStoreError(w, err)
		return
	}

	// Subscribed before the handshake completes so no phase is missed.
	msgs, cancel := s.hub.Subscribe(token)
	defer cancel()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("progress upgrade failed", "token", token, "error", err)
		return
	}
	defer conn.Close()

	// Reads only detect the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	slog.Debug("progress watcher joined", "token", token)
	for {
		select {
		case <-closed:
			slog.Debug("progress watcher left", "token", token)
			return
		case p := <-msgs:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(p); err != nil {
				slog.Debug("progress write failed", "token", token, "error", err)
				return
			}
		}
	}
}
