package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// TokenVerifier resolves a bearer credential to a user id.
type TokenVerifier func(token string) (string, error)

type clientEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type serverEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type errorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type locationPayload struct {
	SessionID string   `json:"sessionId"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Timestamp int64    `json:"timestamp"`
}

type finishPayload struct {
	SessionID string  `json:"sessionId"`
	Metrics   Metrics `json:"metrics"`
}

// RegisterRoutes mounts the realtime tracking channel. The handshake verifies
// the bearer credential before the upgrade; the connection then carries the
// owner identity for every event it emits.
func RegisterRoutes(r fiber.Router, svc *Service, verify TokenVerifier) {
	r.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		userID, err := verify(connToken(c))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		c.Locals("user_id", userID)
		return c.Next()
	})

	r.Get("/ws", websocket.New(func(c *websocket.Conn) {
		userID, _ := c.Locals("user_id").(string)
		connID := uuid.NewString()
		svc.Connect(userID, connID)
		defer svc.Disconnect(userID, connID)

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}
			reply := HandleEvent(context.Background(), svc, userID, msg)
			if reply == nil {
				continue
			}
			payload, err := json.Marshal(reply)
			if err != nil {
				continue
			}
			if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
				break
			}
		}
	}))
}

func connToken(c *fiber.Ctx) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	parts := strings.SplitN(c.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

// HandleEvent decodes one client event and runs it through the lifecycle.
// The returned server event is nil when no reply is owed (successful
// location updates are acknowledged by silence).
func HandleEvent(ctx context.Context, svc *Service, userID string, raw []byte) *serverEvent {
	var evt clientEvent
	if err := json.Unmarshal(raw, &evt); err != nil {
		return errorEvent(errors.New("malformed event"))
	}

	switch evt.Event {
	case "start_tracking":
		sessionID, err := svc.StartTracking(ctx, userID)
		if err != nil {
			log.Printf("start tracking for user %s: %v", userID, err)
			return errorEvent(errors.New("failed to start tracking"))
		}
		return &serverEvent{Event: "session_id", Data: fiber.Map{"sessionId": sessionID}}

	case "location_update":
		var p locationPayload
		if err := json.Unmarshal(evt.Data, &p); err != nil {
			return errorEvent(errors.New("malformed event"))
		}
		if p.Latitude == nil || p.Longitude == nil {
			return errorEvent(ErrMissingCoordinates)
		}
		point := GeoPoint{Latitude: *p.Latitude, Longitude: *p.Longitude}
		if p.Timestamp > 0 {
			point.Timestamp = time.UnixMilli(p.Timestamp)
		}
		if err := svc.LocationUpdate(ctx, userID, p.SessionID, point); err != nil {
			return errorEvent(err)
		}
		return nil

	case "finish_tracking":
		var p finishPayload
		if err := json.Unmarshal(evt.Data, &p); err != nil {
			return errorEvent(errors.New("malformed event"))
		}
		summary, err := svc.FinishTracking(ctx, userID, p.SessionID, p.Metrics)
		if errors.Is(err, ErrAlreadyClosed) {
			// Duplicate finish or a race lost to the sweeper: benign.
			return &serverEvent{Event: "tracking_completed", Data: Summary{
				Message:   "Session already closed",
				SessionID: p.SessionID,
			}}
		}
		if err != nil {
			if errors.Is(err, ErrMissingSessionID) || errors.Is(err, ErrInvalidSession) {
				return errorEvent(err)
			}
			log.Printf("finish tracking session %s: %v", p.SessionID, err)
			return errorEvent(errors.New("failed to complete tracking session"))
		}
		return &serverEvent{Event: "tracking_completed", Data: summary}

	case "get_session_id":
		sessionID, err := svc.CurrentSessionID(ctx, userID)
		if err != nil {
			return errorEvent(err)
		}
		return &serverEvent{Event: "session_id", Data: fiber.Map{"sessionId": sessionID}}

	default:
		return errorEvent(errors.New("unknown event: " + evt.Event))
	}
}

func errorEvent(err error) *serverEvent {
	return &serverEvent{Event: "error", Data: errorPayload{
		Message: err.Error(),
		Code:    ErrorCode(err),
	}}
}
