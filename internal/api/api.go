// Package api exposes intake sessions over a JSON REST interface.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kiliankoe/cdrintake/internal/delivery"
	"github.com/kiliankoe/cdrintake/internal/intake"
	"github.com/rs/zerolog/log"
)

type Server struct {
	SM *intake.Manager
	D  *delivery.Dispatcher
}

func New(sm *intake.Manager, d *delivery.Dispatcher) *Server {
	return &Server{SM: sm, D: d}
}

// Mount registers the intake routes. admin, when non-nil, guards the
// submissions listing.
func (srv *Server) Mount(r *gin.Engine, admin gin.HandlerFunc) {
	g := r.Group("/api/intake")
	g.GET("/steps", srv.steps)
	g.GET("/countries", srv.countries)
	g.POST("/sessions", srv.createSession)

	s := g.Group("/sessions/:id", srv.loadSession)
	s.GET("", srv.getSession)
	s.DELETE("", srv.closeSession)
	s.PUT("/scratch", srv.updateScratch)
	s.PUT("/override", srv.updateOverride)
	s.POST("/advance", srv.advance)
	s.POST("/retreat", srv.retreat)
	s.POST("/reset", srv.reset)
	s.POST("/submit", srv.submit)
	s.PUT("/selector", srv.selector)
	s.POST("/country", srv.selectCountry)

	if admin != nil {
		r.GET("/api/admin/submissions", admin, srv.listSubmissions)
	}
}

type valueReq struct {
	Value string `json:"value"`
}

type countryReq struct {
	Code string `json:"code" binding:"required,len=2"`
}

type selectorReq struct {
	Open  *bool   `json:"open"`
	Query *string `json:"query"`
}

const sessionKey = "intakeSession"

func (srv *Server) loadSession(c *gin.Context) {
	sess, err := srv.SM.Get(c.Param("id"))
	if err != nil {
		fail(c, err, nil)
		c.Abort()
		return
	}
	c.Set(sessionKey, sess)
	c.Next()
}

func session(c *gin.Context) *intake.Session {
	return c.MustGet(sessionKey).(*intake.Session)
}

func (srv *Server) steps(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"steps": srv.SM.Steps()})
}

func (srv *Server) countries(c *gin.Context) {
	dir := srv.SM.Directory()
	c.JSON(http.StatusOK, gin.H{
		"countries": dir.Filter(c.Query("q")),
		"default":   dir.Default(),
	})
}

func (srv *Server) createSession(c *gin.Context) {
	sess := srv.SM.Create()
	log.Info().Str("session", sess.ID).Msg("intake session created")
	c.JSON(http.StatusCreated, sess.Snapshot())
}

func (srv *Server) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, session(c).Snapshot())
}

func (srv *Server) closeSession(c *gin.Context) {
	srv.SM.Close(session(c).ID)
	c.Status(http.StatusNoContent)
}

func (srv *Server) updateScratch(c *gin.Context) {
	var req valueReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sess := session(c)
	if err := sess.UpdateScratch(req.Value); err != nil {
		fail(c, err, sess)
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (srv *Server) updateOverride(c *gin.Context) {
	var req valueReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sess := session(c)
	if err := sess.UpdateOverride(req.Value); err != nil {
		fail(c, err, sess)
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (srv *Server) advance(c *gin.Context) {
	sess := session(c)
	snap, err := sess.Advance()
	if err != nil {
		fail(c, err, sess)
		return
	}
	log.Info().Str("session", sess.ID).Int("step", snap.StepIndex).Bool("complete", snap.Complete).Msg("intake advance")
	if srv.D != nil {
		if _, err := srv.D.Complete(c.Request.Context(), snap); err != nil {
			log.Error().Err(err).Str("session", sess.ID).Msg("failed to deliver submission")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "delivery_failed", "message": err.Error(), "state": snap})
			return
		}
	}
	c.JSON(http.StatusOK, snap)
}

// submit retries delivery of a completed session whose submission never
// reached the store.
func (srv *Server) submit(c *gin.Context) {
	sess := session(c)
	if srv.D == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "delivery_disabled"})
		return
	}
	sub, dispatched, err := srv.D.Resubmit(c.Request.Context(), sess)
	if errors.Is(err, intake.ErrNotComplete) {
		fail(c, err, sess)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("session", sess.ID).Msg("failed to deliver submission")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delivery_failed", "message": err.Error(), "state": sess.Snapshot()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissionId": sub.ID, "dispatched": dispatched, "state": sess.Snapshot()})
}

func (srv *Server) retreat(c *gin.Context) {
	sess := session(c)
	snap, err := sess.Retreat()
	if err != nil {
		fail(c, err, sess)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (srv *Server) reset(c *gin.Context) {
	c.JSON(http.StatusOK, session(c).Reset())
}

func (srv *Server) selector(c *gin.Context) {
	var req selectorReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sess := session(c)
	var (
		view intake.SelectorView
		err  error
	)
	if req.Open != nil {
		if *req.Open {
			view, err = sess.OpenSelector()
		} else {
			view, err = sess.CloseSelector()
		}
	}
	if err == nil && req.Query != nil {
		view, err = sess.SetSelectorQuery(*req.Query)
	}
	if err != nil {
		fail(c, err, sess)
		return
	}
	if req.Open == nil && req.Query == nil {
		view = sess.Snapshot().Selector
	}
	c.JSON(http.StatusOK, view)
}

func (srv *Server) selectCountry(c *gin.Context) {
	var req countryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sess := session(c)
	if err := sess.SelectCountry(req.Code); err != nil {
		fail(c, err, sess)
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (srv *Server) listSubmissions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	subs, err := srv.D.Store().ListSubmissions(c.Request.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to list submissions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": subs})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, intake.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, intake.ErrInvalidStepValue):
		return http.StatusUnprocessableEntity
	case errors.Is(err, intake.ErrOutOfRange), errors.Is(err, intake.ErrReadOnly), errors.Is(err, intake.ErrNotComplete):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func fail(c *gin.Context, err error, sess *intake.Session) {
	body := gin.H{"error": intake.ErrorCode(err), "message": err.Error()}
	if sess != nil {
		body["state"] = sess.Snapshot()
	}
	c.JSON(statusFor(err), body)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
}
