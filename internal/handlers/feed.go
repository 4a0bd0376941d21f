package handlers

import (
	"net/http"
	"time"

	"github.com/AnshRaj112/journal-backend/internal/logger"
	"github.com/AnshRaj112/journal-backend/internal/metrics"
	"github.com/AnshRaj112/journal-backend/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const (
	feedWriteWait  = 10 * time.Second
	feedPongWait   = 90 * time.Second
	feedPingPeriod = 30 * time.Second
)

var feedUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are checked by the CORS middleware
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// JournalFeed streams journal events of one user over a websocket.
type JournalFeed struct {
	hub     *services.EventHub
	metrics *metrics.Metrics
}

func NewJournalFeed(hub *services.EventHub, m *metrics.Metrics) *JournalFeed {
	return &JournalFeed{hub: hub, metrics: m}
}

// Serve handles GET /ws/journal/{userName}. Client messages are ignored.
func (f *JournalFeed) Serve(w http.ResponseWriter, r *http.Request) {
	userName := chi.URLParam(r, "userName")
	log := logger.FromContext(logger.ContextWithUser(r.Context(), userName))

	// subscribe first so no event published after the handshake is missed
	sub := f.hub.Subscribe(userName)
	defer sub.Close()

	conn, err := feedUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	f.metrics.FeedConnected(1)
	defer f.metrics.FeedConnected(-1)
	log.Info("live feed connected")

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = conn.SetReadDeadline(time.Now().Add(feedPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(feedPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(feedPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			log.Info("live feed disconnected")
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := conn.WriteJSON(event); err != nil {
				log.WithError(err).Warn("failed to write journal event")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(feedWriteWait)); err != nil {
				return
			}
		}
	}
}
