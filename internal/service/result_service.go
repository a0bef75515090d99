package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"surveyforge/internal/cache"
	"surveyforge/internal/logger"
	"surveyforge/internal/model"
	"surveyforge/internal/result"
)

var ErrSessionNotFound = errors.New("result session not found")

const cacheWriteTimeout = 2 * time.Second

// resultSession is one respondent's presentation session on this instance.
// mu serializes update fan-out with Close so nothing is written after it.
type resultSession struct {
	id         string
	surveyID   string
	responseID string
	store      *result.Store
	cancel     context.CancelFunc
	done       chan struct{}
	createdAt  time.Time

	mu     sync.Mutex
	closed bool
}

// ResultService owns live result sessions: it runs generation for each one,
// mirrors state to Redis and pushes updates to websocket viewers.
type ResultService struct {
	registry    *result.Registry
	orch        *result.Orchestrator
	cache       cache.ResultCache
	broadcaster Broadcaster
	instanceID  string
	ttl         time.Duration
	log         zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*resultSession
}

// NewResultService creates a result service. resultCache may be nil.
func NewResultService(registry *result.Registry, orch *result.Orchestrator, resultCache cache.ResultCache, ttl time.Duration) *ResultService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ResultService{
		registry:   registry,
		orch:       orch,
		cache:      resultCache,
		instanceID: uuid.NewString(),
		ttl:        ttl,
		log:        logger.For("result_service"),
		sessions:   make(map[string]*resultSession),
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *ResultService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// InstanceID identifies this process in relayed updates
func (s *ResultService) InstanceID() string {
	return s.instanceID
}

// Start creates a session for a submitted response and starts generating in
// the background. The returned session ID is valid immediately; components
// render as loading until their generation resolves.
func (s *ResultService) Start(survey *model.Survey, response *model.Response) (string, error) {
	rc, err := resultContextOf(survey)
	if err != nil {
		return "", err
	}
	comps, err := result.Prepare(s.registry, rc.Components)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithCancel(context.Background())
	sess := &resultSession{
		id:         uuid.NewString(),
		surveyID:   survey.ID,
		responseID: response.ID,
		store:      result.NewStore(comps),
		cancel:     cancel,
		done:       make(chan struct{}),
		createdAt:  time.Now(),
	}
	sess.store.Subscribe(func(u result.Update) { s.onUpdate(sess, u) })

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.persist(sess)

	qc := result.Context{Questions: rc.Questions, Answers: response.Answers}
	go func() {
		defer close(sess.done)
		if err := s.orch.Run(ctx, sess.store, qc); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, result.ErrStoreClosed) {
			s.log.Error().Err(err).Str("sessionId", sess.id).Msg("result generation stopped")
		}
	}()

	s.log.Info().Str("sessionId", sess.id).Str("surveyId", survey.ID).Int("components", len(comps)).Msg("result session started")
	return sess.id, nil
}

// Snapshot returns the ordered view models of a session, from this instance
// when it owns the session, else from Redis.
func (s *ResultService) Snapshot(ctx context.Context, sessionID string) (*model.ResultSnapshot, error) {
	if sess := s.get(sessionID); sess != nil {
		return s.snapshotOf(sess), nil
	}
	if s.cache == nil {
		return nil, ErrSessionNotFound
	}
	snap, err := s.cache.GetSnapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, ErrSessionNotFound
	}
	return snap, nil
}

// LocalSnapshot returns the snapshot of a session owned by this instance
// without touching Redis
func (s *ResultService) LocalSnapshot(sessionID string) (*model.ResultSnapshot, bool) {
	sess := s.get(sessionID)
	if sess == nil {
		return nil, false
	}
	return s.snapshotOf(sess), true
}

// Wait blocks until the session's generation run has finished
func (s *ResultService) Wait(ctx context.Context, sessionID string) error {
	sess := s.get(sessionID)
	if sess == nil {
		return ErrSessionNotFound
	}
	select {
	case <-sess.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close tears a session down. In-flight calls are cancelled and anything that
// still arrives is dropped by the closed store. A session owned by another
// instance is removed from Redis and its owner told to close it.
func (s *ResultService) Close(ctx context.Context, sessionID string) error {
	if s.closeLocal(sessionID) {
		if s.cache == nil {
			return nil
		}
		return s.cache.Delete(ctx, sessionID)
	}

	if s.cache == nil {
		return ErrSessionNotFound
	}
	snap, err := s.cache.GetSnapshot(ctx, sessionID)
	if err != nil {
		return err
	}
	if snap == nil {
		return ErrSessionNotFound
	}
	if err := s.cache.Delete(ctx, sessionID); err != nil {
		return err
	}
	if err := s.cache.PublishClose(ctx, s.instanceID, sessionID); err != nil {
		return fmt.Errorf("publish close: %w", err)
	}
	s.notifyClosed(sessionID)
	return nil
}

// closeLocal closes a session owned by this instance. It waits for any
// update fan-out in progress, so no snapshot is written once it returns.
func (s *ResultService) closeLocal(sessionID string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if !ok {
		return false
	}

	sess.mu.Lock()
	sess.closed = true
	sess.store.Close()
	sess.cancel()
	s.notifyClosed(sessionID)
	sess.mu.Unlock()

	s.log.Info().Str("sessionId", sessionID).Msg("result session closed")
	return true
}

func (s *ResultService) notifyClosed(sessionID string) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.BroadcastToSession(sessionID, MsgResultClosed, map[string]string{"sessionId": sessionID})
	s.broadcaster.DisconnectSession(sessionID)
}

// Sweep closes sessions older than the TTL and returns how many were closed
func (s *ResultService) Sweep(ctx context.Context, now time.Time) int {
	var expired []string
	s.mu.RLock()
	for id, sess := range s.sessions {
		if now.Sub(sess.createdAt) > s.ttl {
			expired = append(expired, id)
		}
	}
	s.mu.RUnlock()

	for _, id := range expired {
		if err := s.Close(ctx, id); err != nil && !errors.Is(err, ErrSessionNotFound) {
			s.log.Warn().Err(err).Str("sessionId", id).Msg("failed to close expired session")
		}
	}
	return len(expired)
}

// RunJanitor sweeps expired sessions every interval until ctx ends
func (s *ResultService) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.Sweep(ctx, now); n > 0 {
				s.log.Debug().Int("expired", n).Msg("swept result sessions")
			}
		}
	}
}

// RelayRemote applies an event published by another instance: updates go to
// local viewers, a close tears down the session if this instance owns it.
func (s *ResultService) RelayRemote(event *cache.RelayedEvent) {
	if event == nil || event.Origin == s.instanceID {
		return
	}
	switch event.Kind {
	case cache.EventClose:
		if !s.closeLocal(event.SessionID) {
			s.notifyClosed(event.SessionID)
			return
		}
		if s.cache == nil {
			return
		}
		// the owner may have persisted again before the close arrived
		ctx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
		defer cancel()
		if err := s.cache.Delete(ctx, event.SessionID); err != nil {
			s.log.Warn().Err(err).Str("sessionId", event.SessionID).Msg("failed to delete closed session snapshot")
		}
	case cache.EventUpdate:
		if s.broadcaster != nil && event.Update != nil {
			s.broadcaster.BroadcastToSession(event.SessionID, MsgComponentUpdate, event.Update)
		}
	}
}

// Shutdown closes every live session
func (s *ResultService) Shutdown(ctx context.Context) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	for _, id := range ids {
		_ = s.Close(ctx, id)
	}
}

func (s *ResultService) get(sessionID string) *resultSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[sessionID]
}

func (s *ResultService) snapshotOf(sess *resultSession) *model.ResultSnapshot {
	return &model.ResultSnapshot{
		SessionID:  sess.id,
		SurveyID:   sess.surveyID,
		ResponseID: sess.responseID,
		Done:       sess.store.Done(),
		Components: sess.store.Snapshot(),
		UpdatedAt:  time.Now(),
	}
}

// onUpdate runs on the orchestrator goroutine after every state change. The
// snapshot is taken under sess.mu, so concurrent updates persist in order and
// a closed session is never written back.
func (s *ResultService) onUpdate(sess *resultSession, u result.Update) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return
	}

	var vm model.ViewModel
	for _, c := range sess.store.Components() {
		if c.ID == u.ComponentID {
			st := u.State
			vm = result.Render(c, &st)
			break
		}
	}
	update := &model.ComponentUpdate{SessionID: sess.id, Component: vm, Done: u.Done}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToSession(sess.id, MsgComponentUpdate, update)
	}
	if s.cache == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
	defer cancel()
	if err := s.cache.PublishUpdate(ctx, s.instanceID, update); err != nil {
		s.log.Warn().Err(err).Str("sessionId", sess.id).Msg("failed to publish component update")
	}
	s.persistLocked(ctx, sess)
}

func (s *ResultService) persist(sess *resultSession) {
	if s.cache == nil {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
	defer cancel()
	s.persistLocked(ctx, sess)
}

// persistLocked writes the current snapshot; sess.mu must be held
func (s *ResultService) persistLocked(ctx context.Context, sess *resultSession) {
	if err := s.cache.SetSnapshot(ctx, s.snapshotOf(sess)); err != nil {
		s.log.Warn().Err(err).Str("sessionId", sess.id).Msg("failed to cache result snapshot")
	}
}
