package api

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/ydssx/ai-video-maker/internal/progress"
)

// ProgressSocket upgrades GET /ws/progress to a websocket and hands the
// connection to the broadcaster. Origin checking is left to the CORS layer;
// the socket carries job progress only.
type ProgressSocket struct {
	broadcaster *progress.Broadcaster
	upgrader    websocket.Upgrader
}

func NewProgressSocket(b *progress.Broadcaster) *ProgressSocket {
	return &ProgressSocket{
		broadcaster: b,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (s *ProgressSocket) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Progress] Upgrade failed: %v", err)
		return
	}
	s.broadcaster.ServeConn(conn)
}
