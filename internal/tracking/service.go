package tracking

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/utmgdsc/PlogGo/internal/shared/geo"

	"github.com/google/uuid"
)

// Broadcaster fans live session updates out to spectators.
type Broadcaster interface {
	Broadcast(sessionID string, payload []byte)
}

// BadgeAwarder grants badges once a session's steps are known.
type BadgeAwarder interface {
	AwardForSteps(ctx context.Context, userID string, steps int) error
}

type Service struct {
	gw         Gateway
	store      *Store
	registry   *Registry
	hub        Broadcaster
	badges     BadgeAwarder
	inactivity time.Duration
	now        func() time.Time
}

func NewService(gw Gateway, hub Broadcaster, badges BadgeAwarder, inactivity time.Duration) *Service {
	if inactivity <= 0 {
		inactivity = 30 * time.Minute
	}
	return &Service{
		gw:         gw,
		store:      NewStore(),
		registry:   NewRegistry(),
		hub:        hub,
		badges:     badges,
		inactivity: inactivity,
		now:        time.Now,
	}
}

func (s *Service) Store() *Store       { return s.store }
func (s *Service) Registry() *Registry { return s.registry }

// Connect records an authenticated websocket connection for the user.
func (s *Service) Connect(userID, connID string) {
	s.registry.Add(userID, connID)
}

// Disconnect unregisters the connection. When the user's last connection
// drops, their live session is flagged abandoned but kept in memory so a
// reconnect can resume it before the sweeper closes it.
func (s *Service) Disconnect(userID, connID string) {
	remaining := s.registry.Remove(userID, connID)
	if remaining > 0 {
		return
	}
	if sessionID, ok := s.store.ActiveByUser(userID); ok {
		s.store.Update(sessionID, func(sess *Session) {
			if sess.FinishedAt.IsZero() {
				sess.Abandoned = true
			}
		})
		log.Printf("user %s disconnected with active session %s, marked abandoned", userID, sessionID)
	}
}

// StartTracking begins (or idempotently resumes) the user's session. The
// durable active-session pointer is the arbiter: a retry or a second device
// reuses the existing id instead of minting a duplicate.
func (s *Service) StartTracking(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", ErrNotAuthenticated
	}

	sessionID, err := s.gw.ClaimActiveSession(ctx, userID, uuid.NewString())
	if err != nil {
		return "", err
	}

	now := s.now()
	isNew := !s.store.Update(sessionID, func(sess *Session) {
		sess.LastActivity = now
		if sess.Abandoned {
			log.Printf("resuming previously abandoned session %s", sessionID)
			sess.Abandoned = false
		}
	})
	if isNew {
		s.store.Put(&Session{
			SessionID:    sessionID,
			UserID:       userID,
			Route:        []GeoPoint{},
			StartedAt:    now,
			LastActivity: now,
		})
		if err := s.gw.UpsertSessionStub(ctx, sessionID, userID, now); err != nil {
			// Stub creation is best-effort: finalize upserts the full record.
			log.Printf("create session stub %s: %v", sessionID, err)
		}
	}

	return sessionID, nil
}

// LocationUpdate appends a GPS point and accumulates distance and steps. A
// session unknown to memory is rehydrated from the durable pointer, so a
// process restart does not strand a client mid-session.
func (s *Service) LocationUpdate(ctx context.Context, userID, sessionID string, point GeoPoint) error {
	if sessionID == "" {
		return ErrMissingSessionID
	}
	if userID == "" {
		return ErrNotAuthenticated
	}

	if _, ok := s.store.Get(sessionID); !ok {
		if activeID, ok := s.store.ActiveByUser(userID); ok && activeID != sessionID {
			return ErrStaleSession
		}
		if err := s.rehydrate(ctx, userID, sessionID); err != nil {
			return err
		}
	}

	if point.Timestamp.IsZero() {
		point.Timestamp = s.now()
	}

	var update []byte
	ok := s.store.Update(sessionID, func(sess *Session) {
		sess.Route = append(sess.Route, point)
		if n := len(sess.Route); n > 1 {
			prev := sess.Route[n-2]
			delta := geo.HaversineM(prev.Latitude, prev.Longitude, point.Latitude, point.Longitude)
			sess.DistanceM += delta
			sess.Steps += geo.EstimateSteps(delta)
		}
		sess.LastActivity = s.now()
		sess.Abandoned = false

		update, _ = json.Marshal(map[string]any{
			"session_id": sess.SessionID,
			"latitude":   point.Latitude,
			"longitude":  point.Longitude,
			"timestamp":  point.Timestamp,
			"distance_m": sess.DistanceM,
			"steps":      sess.Steps,
		})
	})
	if !ok {
		// Closed between rehydrate and mutation, e.g. by the sweeper.
		return ErrInvalidSession
	}

	if s.hub != nil {
		s.hub.Broadcast(sessionID, update)
	}
	return nil
}

// rehydrate recreates an in-memory session for an id the durable pointer
// still owns. Route and totals restart from zero; the durable record keeps
// whatever was checkpointed before memory was lost.
func (s *Service) rehydrate(ctx context.Context, userID, sessionID string) error {
	u, err := s.gw.GetUser(ctx, userID)
	if err != nil {
		return ErrInvalidSession
	}
	if u.ActiveSessionID != sessionID {
		return ErrInvalidSession
	}

	now := s.now()
	s.store.Put(&Session{
		SessionID:    sessionID,
		UserID:       userID,
		Route:        []GeoPoint{},
		StartedAt:    now,
		LastActivity: now,
	})
	log.Printf("rehydrated session %s for user %s", sessionID, userID)
	return nil
}

// FinishTracking closes the session with the client's reported metrics. A
// duplicate finish (or a race lost to the sweeper) returns ErrAlreadyClosed
// and performs no further writes.
func (s *Service) FinishTracking(ctx context.Context, userID, sessionID string, m Metrics) (Summary, error) {
	if sessionID == "" {
		return Summary{}, ErrMissingSessionID
	}

	// Ownership never changes after start, so checking before the claim is
	// race-free: a foreign caller must not be able to close someone else's
	// session.
	if live, ok := s.store.Get(sessionID); ok && live.UserID != userID {
		return Summary{}, ErrInvalidSession
	}

	sess, ok := s.store.Remove(sessionID)
	if !ok {
		return Summary{}, ErrAlreadyClosed
	}

	litter := litterDelta(m)
	litterCount := m.Litters
	if litterCount == 0 {
		for _, n := range litter {
			litterCount += n
		}
	}

	summary, err := s.finalize(ctx, sess, litter, litterCount, m.Points)
	if err != nil {
		return Summary{}, err
	}

	if s.badges != nil {
		if err := s.badges.AwardForSteps(ctx, sess.UserID, sess.Steps); err != nil {
			log.Printf("award badges for user %s: %v", sess.UserID, err)
		}
	}
	if s.hub != nil {
		payload, _ := json.Marshal(summary)
		s.hub.Broadcast(sessionID, payload)
	}
	return summary, nil
}

// finalize is the single path that moves a session to its terminal persisted
// state; both finish and the sweeper run through it. The in-memory record is
// already claimed by the caller, so this runs at most once per session. On a
// persistence failure the active pointer is still cleared so the user can
// start a new session.
func (s *Service) finalize(ctx context.Context, sess *Session, litter map[string]int, litterCount, points int) (Summary, error) {
	sess.FinishedAt = s.now()
	elapsed := int64(sess.FinishedAt.Sub(sess.StartedAt).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}

	rec := FinalRecord{
		SessionID: sess.SessionID,
		UserID:    sess.UserID,
		StartedAt: sess.StartedAt,
		EndedAt:   sess.FinishedAt,
		ElapsedS:  elapsed,
		Route:     sess.Route,
		DistanceM: sess.DistanceM,
		Steps:     sess.Steps,
		Litter:    litter,
		Points:    points,
	}

	if err := s.persistFinal(ctx, rec, litterCount); err != nil {
		s.clearPointer(ctx, sess.UserID, sess.SessionID)
		return Summary{}, err
	}

	if err := s.gw.ClearActiveSession(ctx, sess.UserID, sess.SessionID); err != nil {
		log.Printf("clear active session for user %s: %v", sess.UserID, err)
	}

	return Summary{
		Message:    "Tracking session completed successfully",
		DurationS:  elapsed,
		DistanceKm: sess.DistanceM / 1000,
		Steps:      sess.Steps,
		Litters:    litterCount,
		Points:     points,
		SessionID:  sess.SessionID,
	}, nil
}

func (s *Service) persistFinal(ctx context.Context, rec FinalRecord, litterCount int) error {
	if err := s.gw.UpsertSessionFinal(ctx, rec); err != nil {
		return err
	}

	u, err := s.gw.GetUser(ctx, rec.UserID)
	if err != nil {
		return err
	}
	merged := mergeLitter(u.CollectedLitters, rec.Litter)

	return s.gw.IncrementUserTotals(ctx, rec.UserID, Totals{
		Steps:       rec.Steps,
		DistanceM:   rec.DistanceM,
		Seconds:     rec.ElapsedS,
		Points:      rec.Points,
		LitterCount: litterCount,
		Litter:      merged,
	})
}

func (s *Service) clearPointer(ctx context.Context, userID, sessionID string) {
	if err := s.gw.ClearActiveSession(ctx, userID, sessionID); err != nil {
		log.Printf("clear active session for user %s after failure: %v", userID, err)
	}
}

// CurrentSessionID resolves the user's active session, rehydrating it into
// memory if needed.
func (s *Service) CurrentSessionID(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", ErrNotAuthenticated
	}
	u, err := s.gw.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if u.ActiveSessionID == "" {
		return "", ErrNoActiveSession
	}
	if _, ok := s.store.Get(u.ActiveSessionID); !ok {
		if err := s.rehydrate(ctx, userID, u.ActiveSessionID); err != nil {
			return "", err
		}
	}
	return u.ActiveSessionID, nil
}

// litterDelta normalizes client metrics into a per-type count map. A bare
// count without details lands under the generic "litter" key.
func litterDelta(m Metrics) map[string]int {
	if len(m.LitterDetails) > 0 {
		out := make(map[string]int, len(m.LitterDetails))
		for k, v := range m.LitterDetails {
			out[k] = v
		}
		return out
	}
	if m.Litters > 0 {
		return map[string]int{"litter": m.Litters}
	}
	return map[string]int{}
}

// mergeLitter adds delta into base, creating keys as needed. Merges are
// additive, so the lifecycle guarantees each delta is applied exactly once.
func mergeLitter(base, delta map[string]int) map[string]int {
	out := make(map[string]int, len(base)+len(delta))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range delta {
		out[k] += v
	}
	return out
}
