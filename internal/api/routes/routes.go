package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/hireview/internal/api/handlers"
	"github.com/yoockh/hireview/internal/api/middleware"
)

type Deps struct {
	Session    *handlers.SessionHandler
	Evaluation *handlers.EvaluationHandler
	WS         *handlers.WSHandler
	Logger     *logrus.Logger
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(middleware.RequestLogger(d.Logger))

	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth())

	candidate := auth.Group("/")
	candidate.Use(middleware.RequireRole("candidate"))

	candidate.POST("/interview/start", d.Session.Start)
	candidate.GET("/interview/:session_id", d.Session.Get)
	candidate.GET("/interview/:session_id/messages", d.Session.Messages)
	candidate.PUT("/interview/:session_id/complete", d.Session.Complete)

	candidate.GET("/evaluation/:session_id", d.Evaluation.Get)

	// WebSocket
	candidate.GET("/ws/interview/:session_id", d.WS.InterviewWS)
}
