package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"oneridetho/pkg/logger"
)

const maxMessageSize = 512

type Config struct {
	ReadBufferSize    int
	WriteBufferSize   int
	HandshakeTimeout  time.Duration
	PingInterval      time.Duration
	PongTimeout       time.Duration
	WriteTimeout      time.Duration
	EnableCompression bool
	AllowedOrigins    []string
}

type Message struct {
	Type      string      `json:"type"`
	RideID    string      `json:"ride_id,omitempty"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Source produces the messages for one connection. It must close the
// returned channel once ctx is done or the stream has nothing more to say.
type Source func(ctx context.Context) <-chan Message

// Streamer pushes server-side updates to a websocket client. Clients only
// read; anything they send is discarded apart from control frames.
type Streamer struct {
	upgrader websocket.Upgrader
	config   Config
	logger   *logger.Logger
}

func NewStreamer(cfg Config, log *logger.Logger) *Streamer {
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = 60 * time.Second
	}
	if cfg.PingInterval <= 0 || cfg.PingInterval >= cfg.PongTimeout {
		cfg.PingInterval = (cfg.PongTimeout * 9) / 10
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	s := &Streamer{config: cfg, logger: log}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:    cfg.ReadBufferSize,
		WriteBufferSize:   cfg.WriteBufferSize,
		HandshakeTimeout:  cfg.HandshakeTimeout,
		EnableCompression: cfg.EnableCompression,
		CheckOrigin:       s.checkOrigin,
	}
	return s
}

func (s *Streamer) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.config.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// Serve upgrades the request and blocks until the source is exhausted or the
// client goes away.
func (s *Streamer) Serve(w http.ResponseWriter, r *http.Request, source Source) error {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go s.readPump(conn, cancel)
	s.writePump(ctx, conn, source(ctx))
	return nil
}

func (s *Streamer) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(s.config.PongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.config.PongTimeout))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.WithError(err).Warn("Ride stream read failed")
			}
			return
		}
	}
}

func (s *Streamer) writePump(ctx context.Context, conn *websocket.Conn, messages <-chan Message) {
	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-messages:
			conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stream finished"))
				return
			}
			if message.Timestamp == 0 {
				message.Timestamp = getCurrentTimestamp()
			}
			if err := conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		}
	}
}

func getCurrentTimestamp() int64 {
	return time.Now().Unix()
}
