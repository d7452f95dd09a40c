package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"auramythos/archive"
	"auramythos/generator"
	"auramythos/logx"
)

type continueReq struct {
	NewInput            string                       `json:"newInput"`
	PreviousContext     string                       `json:"previousContext"`
	Format              string                       `json:"format"`
	ConversationHistory []generator.ConversationTurn `json:"conversationHistory"`
	OnGenerationError   string                       `json:"onGenerationError"`
}

type sessionCreateReq struct {
	Format string `json:"format"`
}

type sessionContinueReq struct {
	NewInput          string `json:"newInput"`
	OnGenerationError string `json:"onGenerationError"`
}

type sessionContinueResp struct {
	SessionID string `json:"sessionId"`
	generator.ContinuationResult
}

type formatResp struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "demo": !s.svc.Live()})
}

func (s *Server) handleFormats(c *gin.Context) {
	list := s.svc.Formats().List()
	out := make([]formatResp, 0, len(list))
	for _, f := range list {
		out = append(out, formatResp{ID: f.ID, Name: f.Name})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleContinue(c *gin.Context) {
	var req continueReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	input, err := generator.ValidateInput(req.NewInput)
	if err != nil {
		s.fail(c, err)
		return
	}
	policy, err := generator.ParseErrorPolicy(req.OnGenerationError, s.policy)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	history := req.ConversationHistory
	if history == nil {
		history = []generator.ConversationTurn{}
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	creq := generator.ContinueRequest{
		NewInput:        input,
		PreviousContext: req.PreviousContext,
		Format:          req.Format,
		History:         history,
	}
	res, err := s.svc.Continue(ctx, creq)
	res, err = policy.Apply(s.svc, creq, res, err)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleSessionCreate(c *gin.Context) {
	var req sessionCreateReq
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	sess := generator.NewSession(uuid.NewString(), req.Format, s.svc)
	snap := sess.Snapshot()
	if err := s.sessions.Save(c.Request.Context(), snap); err != nil {
		s.fail(c, err)
		return
	}
	logx.Info().Str("session_id", snap.ID).Str("format", snap.Format).Msg("session created")
	c.JSON(http.StatusCreated, snap)
}

func (s *Server) handleSessionGet(c *gin.Context) {
	snap, err := s.sessions.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleSessionDelete(c *gin.Context) {
	id := c.Param("id")
	unlock := s.locks.Lock(id)
	defer unlock()
	if err := s.sessions.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSessionContinue(c *gin.Context) {
	var req sessionContinueReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	input, err := generator.ValidateInput(req.NewInput)
	if err != nil {
		s.fail(c, err)
		return
	}
	policy, err := generator.ParseErrorPolicy(req.OnGenerationError, s.policy)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	id := c.Param("id")
	unlock := s.locks.Lock(id)
	defer unlock()

	ctx, cancel := s.requestContext(c)
	defer cancel()

	snap, err := s.sessions.Load(ctx, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	sess := generator.RestoreSession(snap, s.svc)
	res, err := sess.Continue(ctx, input, policy)
	if err != nil {
		s.fail(c, err)
		return
	}
	// The save gets its own deadline; generation may have used up the request's.
	saveCtx, saveCancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer saveCancel()
	if err := s.sessions.Save(saveCtx, sess.Snapshot()); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionContinueResp{SessionID: id, ContinuationResult: res})
}

func (s *Server) handleStorySave(c *gin.Context) {
	var req archive.Story
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := generator.ValidateInput(req.Text); err != nil {
		writeError(c, http.StatusBadRequest, "story must not be empty")
		return
	}
	entry, err := s.archive.Save(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (s *Server) handleStoryGet(c *gin.Context) {
	doc, err := s.archive.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *Server) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), s.timeout)
}

func (s *Server) fail(c *gin.Context, err error) {
	status, msg := classify(err)
	ev := logx.Warn()
	if status >= http.StatusInternalServerError {
		ev = logx.Error()
	}
	ev.Err(err).Str("request_id", c.GetString(requestIDKey)).Int("status", status).Msg("request failed")
	writeError(c, status, msg)
}
