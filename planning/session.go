package planning

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// MaintenanceSession holds the operator-scoped state of one planning session:
// the latest blocker scan plus the per-host selections made so far.
type MaintenanceSession struct {
	ID          string
	CreatedAt   time.Time
	Analyses    map[string]HostBlockerAnalysis
	Resolutions map[string]*HostResolutionSelection
}

// SessionStore manages maintenance sessions. Selections are keyed, additive
// state: a refreshed scan merges by host identity and never replaces the
// resolution map, so decisions the operator already made survive re-scans
// that add or update hosts.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*MaintenanceSession
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*MaintenanceSession)}
}

// StartSession creates a session seeded with the initial scan. Every scanned
// host gets an empty selection.
func (s *SessionStore) StartSession(analyses map[string]HostBlockerAnalysis) *MaintenanceSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := &MaintenanceSession{
		ID:          uuid.New().String(),
		CreatedAt:   time.Now().UTC(),
		Analyses:    make(map[string]HostBlockerAnalysis, len(analyses)),
		Resolutions: make(map[string]*HostResolutionSelection, len(analyses)),
	}
	for hostID, analysis := range analyses {
		session.Analyses[hostID] = analysis
		session.Resolutions[hostID] = NewHostResolutionSelection()
	}
	s.sessions[session.ID] = session

	log.WithFields(log.Fields{
		"session_id": session.ID,
		"hosts":      len(analyses),
	}).Info("Started maintenance planning session")

	return session
}

// GetSession returns a session by id.
func (s *SessionStore) GetSession(sessionID string) (*MaintenanceSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	return session, nil
}

// Refresh merges a new blocker scan into the session. Analyses are replaced
// per host (the scan is authoritative for facts); resolutions are unioned by
// host id so no key the operator touched is ever dropped.
func (s *SessionStore) Refresh(sessionID string, analyses map[string]HostBlockerAnalysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session not found: %s", sessionID)
	}

	added := 0
	for hostID, analysis := range analyses {
		session.Analyses[hostID] = analysis
		if _, exists := session.Resolutions[hostID]; !exists {
			session.Resolutions[hostID] = NewHostResolutionSelection()
			added++
		}
	}

	log.WithFields(log.Fields{
		"session_id":  sessionID,
		"hosts":       len(analyses),
		"hosts_added": added,
	}).Debug("Refreshed session blocker scan")

	return nil
}

// MarkPowerOff records or clears the decision to power a VM off for its host.
func (s *SessionStore) MarkPowerOff(sessionID, hostID, vmID string, on bool) error {
	return s.mutate(sessionID, hostID, func(sel *HostResolutionSelection) {
		if on {
			sel.PowerOffVMs[vmID] = true
		} else {
			delete(sel.PowerOffVMs, vmID)
		}
	})
}

// MarkAcknowledged records or clears an acknowledgment for a VM blocker.
func (s *SessionStore) MarkAcknowledged(sessionID, hostID, vmID string, on bool) error {
	return s.mutate(sessionID, hostID, func(sel *HostResolutionSelection) {
		if on {
			sel.AcknowledgedVMs[vmID] = true
		} else {
			delete(sel.AcknowledgedVMs, vmID)
		}
	})
}

// SetSkipHost marks a host as excluded from the update sequence.
func (s *SessionStore) SetSkipHost(sessionID, hostID string, skip bool) error {
	return s.mutate(sessionID, hostID, func(sel *HostResolutionSelection) {
		sel.SkipHost = skip
	})
}

func (s *SessionStore) mutate(sessionID, hostID string, fn func(*HostResolutionSelection)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	sel, ok := session.Resolutions[hostID]
	if !ok {
		return fmt.Errorf("host not part of session %s: %s", sessionID, hostID)
	}
	fn(sel)
	return nil
}

// Scores recomputes the fleet priority ordering from the session's current
// state. Cheap enough to run on every selection change.
func (s *SessionStore) Scores(sessionID string) ([]HostPriorityScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	return ScoreAll(session.Analyses, session.Resolutions), nil
}

// Commit builds the immutable resolution payloads from the session's current
// state and removes the session.
func (s *SessionStore) Commit(sessionID string) (map[string]HostResolutionPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}

	payloads := BuildResolutionPayloads(session.Resolutions, session.Analyses)
	delete(s.sessions, sessionID)

	log.WithFields(log.Fields{
		"session_id": sessionID,
		"payloads":   len(payloads),
	}).Info("Committed maintenance planning session")

	return payloads, nil
}

// Discard drops a session without committing it.
func (s *SessionStore) Discard(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}
