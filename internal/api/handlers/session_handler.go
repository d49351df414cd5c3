package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/hireview/internal/models"
	"github.com/yoockh/hireview/internal/services"
	"github.com/yoockh/hireview/internal/utils"
)

type SessionHandler struct {
	svc services.SessionService
}

func NewSessionHandler(svc services.SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

type StartInterviewRequest struct {
	Mode              string                      `json:"mode"`
	Duration          int                         `json:"duration"` // minutes
	VoiceMode         *bool                       `json:"voice_mode"`
	JobPostingID      *string                     `json:"job_posting_id"`
	SelectedQuestions []services.SelectedQuestion `json:"selected_questions"`
	CustomQuestions   []string                    `json:"custom_questions"`
}

type StartInterviewResponse struct {
	SessionID     string                `json:"session_id"`
	Mode          string                `json:"mode"`
	Duration      int64                 `json:"duration"` // seconds
	QuestionCount int                   `json:"question_count"`
	Questions     []models.QuestionSlot `json:"questions"`
}

func (h *SessionHandler) Start(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req StartInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SessionHandler.Start", "invalid request body", err))
		return
	}

	sess, plan, err := h.svc.Start(c.Request.Context(), userID, services.StartSessionInput{
		Mode:            req.Mode,
		DurationMinutes: req.Duration,
		VoiceMode:       req.VoiceMode,
		JobPostingID:    req.JobPostingID,
		Selected:        req.SelectedQuestions,
		Custom:          req.CustomQuestions,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, StartInterviewResponse{
		SessionID:     sess.ID,
		Mode:          sess.Mode,
		Duration:      sess.TimeLimitSeconds,
		QuestionCount: sess.QuestionCount,
		Questions:     plan.Questions,
	})
}

func (h *SessionHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sess, err := h.svc.Get(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if sess.CandidateID != userID {
		writeError(c, utils.E(utils.CodeForbidden, "SessionHandler.Get", "forbidden", nil))
		return
	}

	c.JSON(http.StatusOK, sess)
}

func (h *SessionHandler) Messages(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sessionID := c.Param("session_id")
	sess, err := h.svc.Get(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	if sess.CandidateID != userID {
		writeError(c, utils.E(utils.CodeForbidden, "SessionHandler.Messages", "forbidden", nil))
		return
	}

	msgs, err := h.svc.Messages(c.Request.Context(), sessionID, 0)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "messages": msgs})
}

type CompleteInterviewRequest struct {
	ElapsedSeconds *int64 `json:"elapsed_seconds"`
}

func (h *SessionHandler) Complete(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sessionID := c.Param("session_id")
	sess, err := h.svc.Get(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	if sess.CandidateID != userID {
		writeError(c, utils.E(utils.CodeForbidden, "SessionHandler.Complete", "forbidden", nil))
		return
	}

	var req CompleteInterviewRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	if err := h.svc.Complete(c.Request.Context(), sessionID, req.ElapsedSeconds); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"message":    "interview completed, evaluation in progress",
	})
}
