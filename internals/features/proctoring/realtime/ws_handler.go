package realtime

import (
	"context"
	"log"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"proctorx_backend/internals/constants"
	examModel "proctorx_backend/internals/features/exams/model"
	helperAuth "proctorx_backend/internals/helpers/auth"
)

const (
	EventJoinExam          = "join-exam"
	EventViolationDetected = "violation-detected"
	EventAttemptSuspended  = "attempt-suspended"
	EventError             = "error"
	EventJoined            = "joined-exam"
)

// client-reported violation events relayed to the attempt room
var violationEvents = map[string]struct{}{
	"focus-lost":     {},
	"tab-switch":     {},
	"multiple-faces": {},
	"no-face":        {},
}

type AttemptLookup interface {
	FindAttempt(ctx context.Context, id uuid.UUID) (*examModel.ExamAttemptModel, error)
}

type inbound struct {
	Event string `json:"event"`
	Data  struct {
		ExamAttemptID uuid.UUID `json:"exam_attempt_id"`
	} `json:"data"`
}

type Handler struct {
	Hub      *Hub
	Attempts AttemptLookup
}

// Serve runs one authenticated socket; the auth middleware has already set the locals.
func (h *Handler) Serve(conn *websocket.Conn) {
	raw, _ := conn.Locals(helperAuth.LocUserID).(string)
	userID, err := uuid.Parse(raw)
	if err != nil {
		_ = conn.Close()
		return
	}
	role, _ := conn.Locals(helperAuth.LocRole).(string)
	client := NewClient(userID, role, 64)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range client.Outbox() {
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		h.handle(client, data)
	}

	h.Hub.Leave(client)
	<-done
}

func (h *Handler) reply(c *Client, event string, data any) {
	payload, err := sonic.Marshal(Message{Event: event, Data: data})
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

func (h *Handler) handle(c *Client, data []byte) {
	var msg inbound
	if err := sonic.Unmarshal(data, &msg); err != nil {
		h.reply(c, EventError, map[string]string{"message": "Invalid message"})
		return
	}

	switch {
	case msg.Event == EventJoinExam:
		attempt, ok := h.attemptFor(c, msg.Data.ExamAttemptID, true)
		if !ok {
			h.reply(c, EventError, map[string]string{"message": constants.ErrAccessDenied})
			return
		}
		room := RoomForAttempt(attempt.ID)
		h.Hub.Join(c, room)
		h.reply(c, EventJoined, map[string]string{"room": room})

	default:
		if _, isViolation := violationEvents[msg.Event]; !isViolation {
			return
		}
		attempt, ok := h.attemptFor(c, msg.Data.ExamAttemptID, false)
		if !ok {
			return
		}
		h.Hub.Broadcast(RoomForAttempt(attempt.ID), EventViolationDetected, map[string]any{
			"type":      msg.Event,
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
			"userId":    c.UserID,
		}, c.ID)
	}
}

// attemptFor loads the attempt if c owns it (or, when staffMayAccess, is staff).
func (h *Handler) attemptFor(c *Client, id uuid.UUID, staffMayAccess bool) (*examModel.ExamAttemptModel, bool) {
	if id == uuid.Nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a, err := h.Attempts.FindAttempt(ctx, id)
	if err != nil {
		log.Printf("[REALTIME] attempt %s lookup: %v", id, err)
		return nil, false
	}
	if a.UserID == c.UserID || (staffMayAccess && constants.IsStaff(c.Role)) {
		return a, true
	}
	return nil, false
}
