package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"areasigns.ai/internal/protocol"
	"areasigns.ai/internal/sim/engine"
)

// Engine is the part of the engine the transport needs.
type Engine interface {
	Submit(ctx context.Context, sig engine.Signal) (engine.Result, error)
	Post(sig engine.Signal) bool
	Ready() bool
}

type Config struct {
	// Token, when set, must match HELLO auth.token.
	Token         string
	QueueSize     int
	SubmitTimeout time.Duration
}

type Server struct {
	eng       Engine
	hub       *Hub
	validator *protocol.Validator
	log       *log.Logger
	cfg       Config

	upgrader websocket.Upgrader
}

func NewServer(eng Engine, hub *Hub, logger *log.Logger, cfg Config) (*Server, error) {
	v, err := protocol.NewValidator()
	if err != nil {
		return nil, err
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = 5 * time.Second
	}
	s := &Server{
		eng:       eng,
		hub:       hub,
		validator: v,
		log:       logger,
		cfg:       cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	return s, nil
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sess, ok := s.handshake(conn)
		if !ok {
			return
		}
		out := make(chan []byte, s.cfg.QueueSize)
		s.hub.Register(sess.actor, sess.id, out)
		defer s.leave(sess)
		s.log.Printf("session %s opened for %s", sess.id, sess.actor)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			s.handle(ctx, sess, msg, out)
		}
		s.log.Printf("session %s closed", sess.id)
	}
}

func (s *Server) leave(sess session) {
	if s.hub.Unregister(sess.actor, sess.id) && !s.eng.Post(engine.ActorLeft{Actor: sess.actor}) {
		s.log.Printf("engine inbox full, dropped leave for %s", sess.actor)
	}
}

func (s *Server) handle(ctx context.Context, sess session, msg []byte, out chan []byte) {
	base, err := s.validator.Validate(msg)
	if err != nil {
		s.reply(out, errorMsg(base.ReqID, protocol.ErrProtoBadRequest, err))
		return
	}
	if base.ProtocolVersion != protocol.Version {
		s.reply(out, errorMsg(base.ReqID, protocol.ErrProtoBadRequest, errors.New("bad protocol_version")))
		return
	}
	sig, err := sess.toSignal(base.Type, msg)
	if err != nil {
		s.reply(out, errorMsg(base.ReqID, protocol.ErrProtoBadRequest, err))
		return
	}
	sctx, cancel := context.WithTimeout(ctx, s.cfg.SubmitTimeout)
	defer cancel()
	res, err := s.eng.Submit(sctx, sig)
	if err != nil {
		s.reply(out, errorMsg(base.ReqID, protocol.ErrBusy, err))
		return
	}
	s.reply(out, resultMsg(base.ReqID, res))
}

func (s *Server) reply(out chan []byte, msg protocol.ResultMsg) {
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	s.hub.offer(out, b)
}

func (s *Server) handshake(conn *websocket.Conn) (session, bool) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return session{}, false
	}

	base, err := s.validator.Validate(msg)
	if err != nil || base.Type != protocol.TypeHello {
		reject(conn, base.ReqID, "expected HELLO")
		return session{}, false
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		reject(conn, "", "malformed HELLO")
		return session{}, false
	}
	if hello.ProtocolVersion != protocol.Version {
		reject(conn, "", "bad protocol_version")
		return session{}, false
	}
	if s.cfg.Token != "" {
		token := ""
		if hello.Auth != nil {
			token = strings.TrimSpace(hello.Auth.Token)
		}
		if token != s.cfg.Token {
			reject(conn, "", "bad token")
			return session{}, false
		}
	}
	if hello.ActorName == "" {
		hello.ActorName = hello.Actor
	}

	sess := session{id: uuid.NewString(), actor: hello.Actor, actorName: hello.ActorName}
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sess.id,
		Actor:           sess.actor,
		Ready:           s.eng.Ready(),
	}
	if err := writeJSON(conn, welcome); err != nil {
		return session{}, false
	}
	return sess, true
}

// reject answers a failed handshake with a RESULT before closing.
func reject(conn *websocket.Conn, reqID, reason string) {
	_ = writeJSON(conn, errorMsg(reqID, protocol.ErrProtoHandshake, errors.New(reason)))
	closeWith(conn, reason)
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
