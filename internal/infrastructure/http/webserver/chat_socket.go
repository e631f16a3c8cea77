package webserver

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/medihort/medihort-ai/internal/domain/chat"
	"go.uber.org/zap"
)

const (
	socketWriteWait  = 10 * time.Second
	socketPongWait   = 60 * time.Second
	socketPingPeriod = (socketPongWait * 9) / 10
	socketReadLimit  = 16 * 1024
)

// Socket frame types
const (
	frameMessage = "message"
	frameError   = "error"
	frameBusy    = "busy"
)

// socketFrame is one JSON frame of the consultant socket
type socketFrame struct {
	Type    string    `json:"type"`
	Role    chat.Role `json:"role,omitempty"`
	Content string    `json:"content,omitempty"`
	Message string    `json:"message,omitempty"`
}

// consultantConn serializes writes to one socket
type consultantConn struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	logger *zap.Logger
}

func (c *consultantConn) send(frame socketFrame) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
	if err := c.conn.WriteJSON(frame); err != nil {
		c.logger.Debug("Failed to write consultant frame", zap.Error(err))
	}
}

func (c *consultantConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(socketWriteWait))
}

// handleConsultantSocket carries the conversation of the session over a
// websocket. Replies are generated while the socket keeps reading, so a
// message sent during a reply is answered with a busy frame.
func (s *WebServer) handleConsultantSocket(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	conn := &consultantConn{conn: ws, logger: s.logger}
	var transcript *chat.Transcript

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
		ws.Close()
	}()

	ws.SetReadLimit(socketReadLimit)
	_ = ws.SetReadDeadline(time.Now().Add(socketPongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(socketPongWait))
	})

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(socketPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := conn.ping(); err != nil {
					return
				}
			}
		}
	}()

	s.logger.Debug("Consultant socket connected", zap.String("remote_addr", r.RemoteAddr))

	for {
		var frame socketFrame
		if err := ws.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("Consultant socket closed", zap.Error(err))
			}
			return
		}
		if frame.Type != frameMessage {
			continue
		}
		if _, err := chat.NormalizeInput(frame.Content); err != nil {
			continue
		}
		if transcript == nil {
			transcript, err = s.sessions.Transcript(session)
			if err != nil {
				conn.send(socketFrame{Type: frameError, Message: "Your session has expired, reload the page"})
				continue
			}
		}

		message, history, err := transcript.Begin(frame.Content)
		switch {
		case errors.Is(err, chat.ErrEmptyMessage):
			continue
		case errors.Is(err, chat.ErrBusy):
			conn.send(socketFrame{Type: frameBusy, Message: "A reply is still being generated"})
			continue
		case err != nil:
			conn.send(socketFrame{Type: frameError, Message: err.Error()})
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.consult(ctx, conn, transcript, message, history)
		}()
	}
}

func (s *WebServer) consult(ctx context.Context, conn *consultantConn, transcript *chat.Transcript, message string, history []chat.Message) {
	reply, err := s.api.Consult(ctx, message, history)
	if err != nil {
		transcript.Fail()
		if ctx.Err() == nil {
			s.logger.Error("Consultant request failed", zap.Error(err))
			conn.send(socketFrame{Type: frameError, Message: ErrorMessage(err, ConsultFailed)})
		}
		return
	}

	transcript.Complete(reply)
	conn.send(socketFrame{Type: frameMessage, Role: chat.RoleAssistant, Content: reply})
}
