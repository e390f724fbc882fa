// Package pending holds extraction results staged for user confirmation.
// Entries live only in process memory; an in-flight confirmation is lost
// on restart.
package pending

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"nutrition-bot/internal/models"
)

type Store struct {
	mu      sync.RWMutex
	entries map[int64]map[string]*models.PendingAnalysis
}

func NewStore() *Store {
	return &Store{
		entries: make(map[int64]map[string]*models.PendingAnalysis),
	}
}

// Stage records an analysis awaiting the user's decision and returns its
// identifier. Multiple analyses may be pending for the same user at once.
func (s *Store) Stage(userID int64, analysis models.FoodAnalysis) string {
	entry := &models.PendingAnalysis{
		ID:          uuid.NewString(),
		UserID:      userID,
		Description: strings.Join(analysis.FoodItems, ", "),
		Analysis:    analysis,
		CreatedAt:   time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entries[userID] == nil {
		s.entries[userID] = make(map[string]*models.PendingAnalysis)
	}
	s.entries[userID][entry.ID] = entry

	return entry.ID
}

func (s *Store) Get(userID int64, id string) (*models.PendingAnalysis, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[userID][id]
	return entry, ok
}

// Replace swaps the staged analysis for an existing id, keeping the id
// stable across refinements. Returns false if the entry no longer exists.
func (s *Store) Replace(userID int64, id string, analysis models.FoodAnalysis) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[userID][id]
	if !ok {
		return false
	}

	entry.Analysis = analysis
	entry.Description = strings.Join(analysis.FoodItems, ", ")
	return true
}

// Remove deletes the entry and returns it. Removing an id that was already
// confirmed or cancelled returns false, which callers treat as a no-op to
// tolerate duplicate button taps.
func (s *Store) Remove(userID int64, id string) (*models.PendingAnalysis, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[userID][id]
	if !ok {
		return nil, false
	}

	delete(s.entries[userID], id)
	return entry, true
}

// RemoveAll discards every pending entry for the user.
func (s *Store) RemoveAll(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, userID)
}
