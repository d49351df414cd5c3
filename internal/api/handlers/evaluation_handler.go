package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/hireview/internal/services"
	"github.com/yoockh/hireview/internal/utils"
)

type EvaluationHandler struct {
	evals    services.EvaluationService
	sessions services.SessionService
}

func NewEvaluationHandler(evals services.EvaluationService, sessions services.SessionService) *EvaluationHandler {
	return &EvaluationHandler{evals: evals, sessions: sessions}
}

// Get returns the evaluation for a session, or 404 while the pipeline has
// not produced one yet.
func (h *EvaluationHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sessionID := c.Param("session_id")
	sess, err := h.sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	if sess.CandidateID != userID {
		writeError(c, utils.E(utils.CodeForbidden, "EvaluationHandler.Get", "forbidden", nil))
		return
	}

	eval, err := h.evals.GetBySessionID(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, eval)
}
