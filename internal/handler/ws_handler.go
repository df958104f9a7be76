package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/examprep-backend/internal/model"
	"github.com/stemsi/examprep-backend/internal/response"
	ws "github.com/stemsi/examprep-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// EventSource streams server-side events for one session.
type EventSource interface {
	Subscribe(ctx context.Context, examID uuid.UUID, userID int) (<-chan []byte, func() error)
}

// WSHandler runs the exam session over a WebSocket. Every action maps onto the same
// service call as its REST endpoint; server-side events (auto-submit) are pushed too.
type WSHandler struct {
	sessions ExamSessions
	events   EventSource
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessions ExamSessions, events EventSource, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessions: sessions,
		events:   events,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// ExamStream godoc
// WS /ws/v1/exams/:exam_id/stream
// Requires a live session (start or resume first).
func (h *WSHandler) ExamStream(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	// Reject before upgrading so the client gets a normal error envelope.
	view, err := h.sessions.State(c.Request.Context(), userID, examID)
	if err != nil {
		fail(c, err)
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.NewConn(raw)
	defer conn.Close()

	wsLog := h.log.With().Int("user_id", userID).Str("exam_id", examID.String()).Logger()
	wsLog.Info().Msg("Learner connected")

	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))
	defer cancel()

	events, closeEvents := h.events.Subscribe(ctx, examID, userID)
	defer func() { _ = closeEvents() }()
	go h.forward(ctx, conn, events, wsLog)

	_ = conn.Send(ws.EventSession, view)

	for {
		var req ws.Request
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}
		if done := h.dispatch(ctx, conn, userID, examID, &req, wsLog); done {
			return
		}
	}
}

// forward relays pushed session events until the stream ends.
func (h *WSHandler) forward(ctx context.Context, conn *ws.Conn, events <-chan []byte, log zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-events:
			if !ok {
				return
			}
			var ev model.SessionEvent
			if err := json.Unmarshal(payload, &ev); err != nil {
				log.Warn().Err(err).Msg("Dropping malformed session event")
				continue
			}
			if err := conn.Send(ws.Event(ev.Type), ev); err != nil {
				return
			}
		}
	}
}

// dispatch runs one client action. It returns true when the stream should close.
func (h *WSHandler) dispatch(ctx context.Context, conn *ws.Conn, userID int, examID uuid.UUID, req *ws.Request, log zerolog.Logger) bool {
	var (
		view *model.ExamSessionView
		err  error
	)
	switch req.Action {
	case ws.ActionPing:
		_ = conn.Send(ws.EventPong, nil)
		return false
	case ws.ActionState:
		view, err = h.sessions.State(ctx, userID, examID)
	case ws.ActionSelect:
		view, err = h.sessions.SelectAnswer(ctx, userID, examID, req.QuestionID, req.OptionIDs)
	case ws.ActionNext:
		view, err = h.sessions.Next(ctx, userID, examID, req.OptionIDs)
	case ws.ActionPrevious:
		view, err = h.sessions.Previous(ctx, userID, examID, req.OptionIDs)
	case ws.ActionFlag:
		view, err = h.sessions.Flag(ctx, userID, examID, req.QuestionID)
	case ws.ActionUnflag:
		view, err = h.sessions.Unflag(ctx, userID, examID, req.QuestionID)
	case ws.ActionFinish:
		result, err := h.sessions.Finish(ctx, userID, examID, false)
		if err != nil {
			h.writeErr(conn, err, log)
			return false
		}
		log.Info().Int("score", result.ScorePercentage).Msg("Exam submitted over stream")
		_ = conn.Send(ws.EventResult, result)
		return true
	default:
		_ = conn.WriteError(string(response.ErrInvalidPayload), "unknown action: "+string(req.Action))
		return false
	}

	if err != nil {
		h.writeErr(conn, err, log)
		return false
	}
	_ = conn.Send(ws.EventSession, view)
	return false
}

func (h *WSHandler) writeErr(conn *ws.Conn, err error, log zerolog.Logger) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("Stream action failed")
	}
	_ = conn.WriteError(string(code), response.GetMessage(code))
}
