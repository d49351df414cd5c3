package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/hireview/internal/models"
	"github.com/yoockh/hireview/internal/providers/stt"
	mongorepo "github.com/yoockh/hireview/internal/repositories/mongo"
	"github.com/yoockh/hireview/internal/services"
	"github.com/yoockh/hireview/internal/storage"
	"github.com/yoockh/hireview/internal/utils"
)

type WSHandler struct {
	sessions services.SessionService
	engine   services.InterviewService
	events   mongorepo.EventRepository
	speech   stt.Provider
	store    storage.Uploader
	log      *logrus.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(sessions services.SessionService, engine services.InterviewService, events mongorepo.EventRepository, speech stt.Provider, store storage.Uploader, log *logrus.Logger) *WSHandler {
	return &WSHandler{
		sessions: sessions,
		engine:   engine,
		events:   events,
		speech:   speech,
		store:    store,
		log:      log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type wsClientMsg struct {
	Type        string `json:"type"` // start | message | end
	Content     string `json:"content"`
	AudioBase64 string `json:"audio_base64"`
	Language    string `json:"language"`
}

type wsServerMsg struct {
	Type       string `json:"type"` // question | ended | error
	MessageID  string `json:"message_id,omitempty"`
	Content    string `json:"content,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	IsFollowUp bool   `json:"is_follow_up,omitempty"`
	Finished   bool   `json:"finished,omitempty"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (h *WSHandler) InterviewWS(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sessionID := c.Param("session_id")
	if sessionID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "WSHandler.InterviewWS", "missing session_id", nil))
		return
	}

	// authorize session ownership before upgrading
	sess, err := h.sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	if sess.CandidateID != userID {
		writeError(c, utils.E(utils.CodeForbidden, "WSHandler.InterviewWS", "forbidden", nil))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	log := h.log.WithFields(logrus.Fields{"session_id": sessionID, "user_id": userID})

	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	for {
		_, data, rerr := conn.ReadMessage()
		if rerr != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))

		var msg wsClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = wc.writeJSON(wsServerMsg{Type: "error", Code: string(utils.CodeInvalidArgument), Message: "invalid json"})
			continue
		}

		h.audit(ctx, sessionID, "in", msg.Type, string(data))

		switch msg.Type {
		case "start":
			first, err := h.engine.Begin(ctx, sessionID)
			if err != nil {
				h.writeErr(ctx, wc, sessionID, err)
				continue
			}
			h.send(ctx, wc, sessionID, wsServerMsg{
				Type:      "question",
				MessageID: first.ID,
				Content:   first.Content,
			})

		case "message":
			content := msg.Content
			var audioURL *string

			if msg.AudioBase64 != "" && sess.VoiceMode {
				transcript, storedPath, terr := h.transcribe(ctx, sessionID, msg.AudioBase64, msg.Language)
				if terr != nil {
					h.writeErr(ctx, wc, sessionID, terr)
					continue
				}
				content = transcript
				if storedPath != "" {
					audioURL = &storedPath
				}
			}
			if content == "" {
				_ = wc.writeJSON(wsServerMsg{Type: "error", Code: string(utils.CodeInvalidArgument), Message: "content or audio_base64 required"})
				continue
			}

			contentType := models.ContentText
			if audioURL != nil {
				contentType = models.ContentAudio
			}

			res, err := h.engine.Step(ctx, sessionID, content, contentType, audioURL)
			if err != nil {
				h.writeErr(ctx, wc, sessionID, err)
				continue
			}
			h.send(ctx, wc, sessionID, wsServerMsg{
				Type:       "question",
				MessageID:  res.Message.ID,
				Content:    res.Message.Content,
				Transcript: contentIfAudio(content, audioURL),
				IsFollowUp: res.IsFollowUp,
				Finished:   res.Finished,
			})

		case "end":
			if err := h.sessions.Complete(ctx, sessionID, nil); err != nil {
				h.writeErr(ctx, wc, sessionID, err)
				continue
			}
			h.send(ctx, wc, sessionID, wsServerMsg{
				Type:    "ended",
				Message: "interview completed, evaluation in progress",
			})
			log.Info("interview ended over websocket")
			return

		default:
			_ = wc.writeJSON(wsServerMsg{Type: "error", Code: string(utils.CodeInvalidArgument), Message: "unknown message type"})
		}
	}
}

// transcribe stores the raw audio and turns it into text. The stored path is
// kept on the message so the transcript can be audited against the recording.
func (h *WSHandler) transcribe(ctx context.Context, sessionID, audioBase64, language string) (string, string, error) {
	const op = "WSHandler.transcribe"

	if h.speech == nil {
		return "", "", utils.E(utils.CodeInvalidArgument, op, "voice mode is not available", nil)
	}

	raw, err := base64.StdEncoding.DecodeString(audioBase64)
	if err != nil {
		return "", "", utils.E(utils.CodeInvalidArgument, op, "invalid audio_base64", err)
	}

	var storedPath string
	if h.store != nil {
		objectName := "interviews/" + sessionID + "/" + uuid.NewString() + ".webm"
		storedPath, err = h.store.Upload(ctx, objectName, "audio/webm", bytes.NewReader(raw))
		if err != nil {
			// recording upload is best-effort; transcription still proceeds
			h.log.WithError(err).WithField("session_id", sessionID).Warn("audio upload failed")
			storedPath = ""
		}
	}

	if language == "" {
		language = "en-US"
	}
	text, _, err := h.speech.Transcribe(ctx, raw, language)
	if err != nil {
		return "", "", utils.E(utils.CodeUnavailable, op, "transcription failed", err)
	}
	if text == "" {
		return "", "", utils.E(utils.CodeInvalidArgument, op, "no speech recognized", nil)
	}
	return text, storedPath, nil
}

func (h *WSHandler) send(ctx context.Context, wc *wsConn, sessionID string, out wsServerMsg) {
	if err := wc.writeJSON(out); err != nil {
		h.log.WithError(err).WithField("session_id", sessionID).Debug("websocket write failed")
		return
	}
	b, _ := json.Marshal(out)
	h.audit(ctx, sessionID, "out", out.Type, string(b))
}

func (h *WSHandler) writeErr(ctx context.Context, wc *wsConn, sessionID string, err error) {
	code := utils.CodeInternal
	msg := "internal error"

	var ae *utils.AppError
	if errors.As(err, &ae) {
		code = ae.Code
		msg = ae.Message
	}

	h.send(ctx, wc, sessionID, wsServerMsg{Type: "error", Code: string(code), Message: msg})
}

// audit is fire-and-forget: the event log never blocks or fails the protocol.
func (h *WSHandler) audit(ctx context.Context, sessionID, direction, typ, payload string) {
	if h.events == nil {
		return
	}
	if err := h.events.Append(ctx, &models.SessionEvent{
		SessionID: sessionID,
		Direction: direction,
		Type:      typ,
		Payload:   payload,
	}); err != nil {
		h.log.WithError(err).WithField("session_id", sessionID).Debug("event audit append failed")
	}
}

func contentIfAudio(content string, audioURL *string) string {
	if audioURL != nil {
		return content
	}
	return ""
}
