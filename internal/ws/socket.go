package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/kiliankoe/cdrintake/internal/delivery"
	"github.com/kiliankoe/cdrintake/internal/intake"
	"github.com/rs/zerolog/log"
)

type ConnCtx struct {
	SessionID string
}

type Server struct {
	SM *intake.Manager
	D  *delivery.Dispatcher

	mu      sync.Mutex
	members map[string]map[string]socketio.Conn // sessionID -> socketID -> Conn
}

func New(sm *intake.Manager, d *delivery.Dispatcher) *Server {
	return &Server{SM: sm, D: d, members: make(map[string]map[string]socketio.Conn)}
}

type valuePayload struct {
	Value string `json:"value"`
}

type selectorPayload struct {
	Open  *bool   `json:"open"`
	Query *string `json:"query"`
}

// Mount attaches the Socket.IO server with intake handlers to the given Gin engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(nil)

	io.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext(&ConnCtx{})
		log.Info().Str("sid", s.ID()).Msg("socket connected")
		return nil
	})

	io.OnEvent("/", "intake:open", func(s socketio.Conn) map[string]any {
		sess := srv.SM.Create()
		srv.attach(s, sess.ID)
		log.Info().Str("sid", s.ID()).Str("session", sess.ID).Msg("intake:open")
		srv.emitState(sess.ID, sess.Snapshot())
		return map[string]any{"sessionId": sess.ID}
	})

	io.OnEvent("/", "intake:resume", func(s socketio.Conn, payload struct {
		SessionID string `json:"sessionId"`
	}) map[string]any {
		sess, err := srv.SM.Get(payload.SessionID)
		if err != nil {
			return srv.err(s, err)
		}
		srv.attach(s, sess.ID)
		log.Info().Str("sid", s.ID()).Str("session", sess.ID).Msg("intake:resume")
		s.Emit("intake:state", sess.Snapshot())
		return map[string]any{"ok": true}
	})

	io.OnEvent("/", "intake:scratch", func(s socketio.Conn, payload valuePayload) map[string]any {
		return srv.apply(s, func(sess *intake.Session) error { return sess.UpdateScratch(payload.Value) })
	})

	io.OnEvent("/", "intake:override", func(s socketio.Conn, payload valuePayload) map[string]any {
		return srv.apply(s, func(sess *intake.Session) error { return sess.UpdateOverride(payload.Value) })
	})

	io.OnEvent("/", "intake:country", func(s socketio.Conn, payload struct {
		Code string `json:"code"`
	}) map[string]any {
		return srv.apply(s, func(sess *intake.Session) error { return sess.SelectCountry(payload.Code) })
	})

	io.OnEvent("/", "intake:selector", func(s socketio.Conn, payload selectorPayload) map[string]any {
		return srv.apply(s, func(sess *intake.Session) error {
			if payload.Open != nil {
				var err error
				if *payload.Open {
					_, err = sess.OpenSelector()
				} else {
					_, err = sess.CloseSelector()
				}
				if err != nil {
					return err
				}
			}
			if payload.Query != nil {
				_, err := sess.SetSelectorQuery(*payload.Query)
				return err
			}
			return nil
		})
	})

	io.OnEvent("/", "intake:advance", func(s socketio.Conn) map[string]any {
		sess, err := srv.current(s)
		if err != nil {
			return srv.err(s, err)
		}
		snap, err := sess.Advance()
		if err != nil {
			return srv.err(s, err)
		}
		log.Info().Str("session", sess.ID).Int("step", snap.StepIndex).Bool("complete", snap.Complete).Msg("intake:advance")
		srv.emitState(sess.ID, snap)
		if srv.D != nil {
			done, err := srv.D.Complete(context.Background(), snap)
			if err != nil {
				log.Error().Err(err).Str("session", sess.ID).Msg("failed to deliver submission")
				s.Emit("error", map[string]any{"code": "delivery_failed", "message": err.Error()})
				return map[string]any{"error": err.Error()}
			}
			if done {
				srv.broadcast(sess.ID, "intake:submitted", map[string]any{"submissionId": snap.Submission.ID})
			}
		}
		return map[string]any{"ok": true}
	})

	io.OnEvent("/", "intake:submit", func(s socketio.Conn) map[string]any {
		sess, err := srv.current(s)
		if err != nil {
			return srv.err(s, err)
		}
		return srv.resubmit(s, sess)
	})

	io.OnEvent("/", "intake:retreat", func(s socketio.Conn) map[string]any {
		sess, err := srv.current(s)
		if err != nil {
			return srv.err(s, err)
		}
		snap, err := sess.Retreat()
		if err != nil {
			return srv.err(s, err)
		}
		srv.emitState(sess.ID, snap)
		return map[string]any{"ok": true}
	})

	io.OnEvent("/", "intake:reset", func(s socketio.Conn) map[string]any {
		sess, err := srv.current(s)
		if err != nil {
			return srv.err(s, err)
		}
		srv.emitState(sess.ID, sess.Reset())
		return map[string]any{"ok": true}
	})

	io.OnEvent("/", "intake:close", func(s socketio.Conn) map[string]any {
		ctx, _ := s.Context().(*ConnCtx)
		if ctx != nil && ctx.SessionID != "" {
			srv.SM.Close(ctx.SessionID)
			srv.removeMember(ctx.SessionID, s)
			log.Info().Str("sid", s.ID()).Str("session", ctx.SessionID).Msg("intake:close")
			ctx.SessionID = ""
		}
		return map[string]any{"ok": true}
	})

	io.OnError("/", func(s socketio.Conn, e error) {
		log.Error().Err(e).Msg("socket error")
	})
	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		if ctx, ok := s.Context().(*ConnCtx); ok && ctx.SessionID != "" {
			srv.removeMember(ctx.SessionID, s)
		}
		log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
	})

	go func() {
		if err := io.Serve(); err != nil {
			log.Error().Err(err).Msg("socket.io serve stopped")
		}
	}()

	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))

	r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Status(http.StatusNoContent)
	})

	return io
}

func (srv *Server) current(s socketio.Conn) (*intake.Session, error) {
	ctx, _ := s.Context().(*ConnCtx)
	if ctx == nil || ctx.SessionID == "" {
		return nil, intake.ErrSessionNotFound
	}
	return srv.SM.Get(ctx.SessionID)
}

// apply runs a mutation on the connection's session and pushes the new state.
func (srv *Server) apply(s socketio.Conn, fn func(*intake.Session) error) map[string]any {
	sess, err := srv.current(s)
	if err != nil {
		return srv.err(s, err)
	}
	if err := fn(sess); err != nil {
		return srv.err(s, err)
	}
	srv.emitState(sess.ID, sess.Snapshot())
	return map[string]any{"ok": true}
}

func (srv *Server) resubmit(s socketio.Conn, sess *intake.Session) map[string]any {
	if srv.D == nil {
		return map[string]any{"error": "delivery_disabled"}
	}
	sub, dispatched, err := srv.D.Resubmit(context.Background(), sess)
	if errors.Is(err, intake.ErrNotComplete) {
		return srv.err(s, err)
	}
	if err != nil {
		log.Error().Err(err).Str("session", sess.ID).Msg("failed to deliver submission")
		s.Emit("error", map[string]any{"code": "delivery_failed", "message": err.Error()})
		return map[string]any{"error": "delivery_failed"}
	}
	if dispatched {
		srv.broadcast(sess.ID, "intake:submitted", map[string]any{"submissionId": sub.ID})
	}
	return map[string]any{"ok": true, "submissionId": sub.ID, "dispatched": dispatched}
}

func (srv *Server) attach(s socketio.Conn, sessionID string) {
	if ctx, ok := s.Context().(*ConnCtx); ok && ctx.SessionID != "" && ctx.SessionID != sessionID {
		srv.removeMember(ctx.SessionID, s)
	}
	s.SetContext(&ConnCtx{SessionID: sessionID})
	srv.addMember(sessionID, s)
}

func (srv *Server) addMember(id string, c socketio.Conn) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.members[id] == nil {
		srv.members[id] = make(map[string]socketio.Conn)
	}
	srv.members[id][c.ID()] = c
}

func (srv *Server) removeMember(id string, c socketio.Conn) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if m := srv.members[id]; m != nil {
		delete(m, c.ID())
		if len(m) == 0 {
			delete(srv.members, id)
		}
	}
}

func (srv *Server) conns(id string) []socketio.Conn {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	out := make([]socketio.Conn, 0, len(srv.members[id]))
	for _, c := range srv.members[id] {
		out = append(out, c)
	}
	return out
}

// emitState pushes the snapshot to every connection attached to the session,
// so a second tab on the same session stays in sync.
func (srv *Server) emitState(id string, snap intake.Snapshot) {
	srv.broadcast(id, "intake:state", snap)
}

func (srv *Server) broadcast(id, event string, payload any) {
	for _, c := range srv.conns(id) {
		c.Emit(event, payload)
	}
}

func (srv *Server) err(s socketio.Conn, err error) map[string]any {
	code := intake.ErrorCode(err)
	s.Emit("error", map[string]any{"code": code, "message": err.Error()})
	return map[string]any{"error": code}
}
