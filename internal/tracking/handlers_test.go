package tracking

import (
	"context"
	"encoding/json"
	"testing"
)

func startedSession(t *testing.T, svc *Service, userID string) string {
	t.Helper()
	sessionID, err := svc.StartTracking(context.Background(), userID)
	if err != nil {
		t.Fatalf("start tracking: %v", err)
	}
	return sessionID
}

func TestHandleEventStartTracking(t *testing.T) {
	svc := newTestService(newFakeGateway("u1"))

	reply := HandleEvent(context.Background(), svc, "u1", []byte(`{"event":"start_tracking","data":{}}`))
	if reply == nil || reply.Event != "session_id" {
		t.Fatalf("expected session_id reply, got %+v", reply)
	}
}

func TestHandleEventStartTrackingUnknownUser(t *testing.T) {
	svc := newTestService(newFakeGateway())

	reply := HandleEvent(context.Background(), svc, "ghost", []byte(`{"event":"start_tracking","data":{}}`))
	if reply == nil || reply.Event != "error" {
		t.Fatalf("expected error reply, got %+v", reply)
	}
}

func TestHandleEventLocationUpdate(t *testing.T) {
	svc := newTestService(newFakeGateway("u1"))
	sessionID := startedSession(t, svc, "u1")

	msg, _ := json.Marshal(map[string]any{
		"event": "location_update",
		"data": map[string]any{
			"sessionId": sessionID,
			"latitude":  43.65,
			"longitude": -79.38,
			"timestamp": 1700000000000,
		},
	})

	if reply := HandleEvent(context.Background(), svc, "u1", msg); reply != nil {
		t.Fatalf("successful update must not reply, got %+v", reply)
	}

	sess, _ := svc.store.Get(sessionID)
	if len(sess.Route) != 1 {
		t.Fatalf("expected point appended")
	}
	if sess.Route[0].Timestamp.UnixMilli() != 1700000000000 {
		t.Fatalf("expected client timestamp preserved")
	}
}

func TestHandleEventLocationUpdateMissingCoordinates(t *testing.T) {
	svc := newTestService(newFakeGateway("u1"))
	sessionID := startedSession(t, svc, "u1")

	msg := []byte(`{"event":"location_update","data":{"sessionId":"` + sessionID + `","latitude":43.65}}`)
	reply := HandleEvent(context.Background(), svc, "u1", msg)
	if reply == nil || reply.Event != "error" {
		t.Fatalf("expected error reply, got %+v", reply)
	}
	payload := reply.Data.(errorPayload)
	if payload.Message != ErrMissingCoordinates.Error() {
		t.Fatalf("unexpected error message: %s", payload.Message)
	}
}

func TestHandleEventLocationUpdateStaleCode(t *testing.T) {
	svc := newTestService(newFakeGateway("u1"))
	startedSession(t, svc, "u1")

	msg := []byte(`{"event":"location_update","data":{"sessionId":"old-id","latitude":1,"longitude":2}}`)
	reply := HandleEvent(context.Background(), svc, "u1", msg)
	if reply == nil || reply.Event != "error" {
		t.Fatalf("expected error reply, got %+v", reply)
	}
	if reply.Data.(errorPayload).Code != "STALE_SESSION" {
		t.Fatalf("expected STALE_SESSION code, got %+v", reply.Data)
	}
}

func TestHandleEventLocationUpdateInvalidCode(t *testing.T) {
	svc := newTestService(newFakeGateway("u1"))

	msg := []byte(`{"event":"location_update","data":{"sessionId":"nope","latitude":1,"longitude":2}}`)
	reply := HandleEvent(context.Background(), svc, "u1", msg)
	if reply == nil || reply.Data.(errorPayload).Code != "INVALID_SESSION" {
		t.Fatalf("expected INVALID_SESSION code, got %+v", reply)
	}
}

func TestHandleEventFinishTracking(t *testing.T) {
	svc := newTestService(newFakeGateway("u1"))
	sessionID := startedSession(t, svc, "u1")

	msg, _ := json.Marshal(map[string]any{
		"event": "finish_tracking",
		"data": map[string]any{
			"sessionId": sessionID,
			"metrics":   map[string]any{"points": 10, "litters": 2, "litterDetails": map[string]int{"bottle": 2}},
		},
	})

	reply := HandleEvent(context.Background(), svc, "u1", msg)
	if reply == nil || reply.Event != "tracking_completed" {
		t.Fatalf("expected tracking_completed, got %+v", reply)
	}
	summary := reply.Data.(Summary)
	if summary.Points != 10 || summary.SessionID != sessionID {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestHandleEventFinishTrackingAlreadyClosed(t *testing.T) {
	svc := newTestService(newFakeGateway("u1"))

	msg := []byte(`{"event":"finish_tracking","data":{"sessionId":"gone"}}`)
	reply := HandleEvent(context.Background(), svc, "u1", msg)
	if reply == nil || reply.Event != "tracking_completed" {
		t.Fatalf("duplicate finish must be benign, got %+v", reply)
	}
	if reply.Data.(Summary).Message != "Session already closed" {
		t.Fatalf("unexpected message: %+v", reply.Data)
	}
}

func TestHandleEventFinishTrackingForeignSession(t *testing.T) {
	gw := newFakeGateway("u1", "u2")
	svc := newTestService(gw)
	sessionID := startedSession(t, svc, "u1")

	msg := []byte(`{"event":"finish_tracking","data":{"sessionId":"` + sessionID + `"}}`)
	reply := HandleEvent(context.Background(), svc, "u2", msg)
	if reply == nil || reply.Event != "error" {
		t.Fatalf("expected error reply, got %+v", reply)
	}
	if reply.Data.(errorPayload).Code != "INVALID_SESSION" {
		t.Fatalf("expected INVALID_SESSION code, got %+v", reply.Data)
	}

	if _, ok := svc.store.Get(sessionID); !ok {
		t.Fatalf("session must survive a foreign finish attempt")
	}
}

func TestHandleEventGetSessionID(t *testing.T) {
	gw := newFakeGateway("u1")
	gw.pointers["u1"] = "durable-session"
	svc := newTestService(gw)

	reply := HandleEvent(context.Background(), svc, "u1", []byte(`{"event":"get_session_id","data":{}}`))
	if reply == nil || reply.Event != "session_id" {
		t.Fatalf("expected session_id reply, got %+v", reply)
	}
}

func TestHandleEventGetSessionIDNone(t *testing.T) {
	svc := newTestService(newFakeGateway("u1"))

	reply := HandleEvent(context.Background(), svc, "u1", []byte(`{"event":"get_session_id","data":{}}`))
	if reply == nil || reply.Event != "error" {
		t.Fatalf("expected error reply, got %+v", reply)
	}
}

func TestHandleEventMalformed(t *testing.T) {
	svc := newTestService(newFakeGateway("u1"))

	reply := HandleEvent(context.Background(), svc, "u1", []byte(`{`))
	if reply == nil || reply.Event != "error" {
		t.Fatalf("expected error for malformed json, got %+v", reply)
	}
}

func TestHandleEventUnknown(t *testing.T) {
	svc := newTestService(newFakeGateway("u1"))

	reply := HandleEvent(context.Background(), svc, "u1", []byte(`{"event":"warp_drive","data":{}}`))
	if reply == nil || reply.Event != "error" {
		t.Fatalf("expected error for unknown event, got %+v", reply)
	}
}
