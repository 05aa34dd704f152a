// Package store persists completed intake submissions.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/kiliankoe/cdrintake/internal/intake"
)

var ErrNotFound = errors.New("submission not found")

type Store interface {
	SaveSubmission(ctx context.Context, sub intake.Submission) error
	GetSubmission(ctx context.Context, id string) (intake.Submission, error)
	// ListSubmissions returns the newest submissions first. limit <= 0 means all.
	ListSubmissions(ctx context.Context, limit int) ([]intake.Submission, error)
	Close() error
}

// MemoryStore keeps submissions for the lifetime of the process.
type MemoryStore struct {
	mu   sync.RWMutex
	subs map[string]intake.Submission
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[string]intake.Submission)}
}

func (s *MemoryStore) SaveSubmission(_ context.Context, sub intake.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.ID] = copySubmission(sub)
	return nil
}

func (s *MemoryStore) GetSubmission(_ context.Context, id string) (intake.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subs[id]
	if !ok {
		return intake.Submission{}, ErrNotFound
	}
	return copySubmission(sub), nil
}

func (s *MemoryStore) ListSubmissions(_ context.Context, limit int) ([]intake.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]intake.Submission, 0, len(s.subs))
	for _, sub := range s.subs {
		out = append(out, copySubmission(sub))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

func copySubmission(sub intake.Submission) intake.Submission {
	answers := make(map[string]string, len(sub.Answers))
	for k, v := range sub.Answers {
		answers[k] = v
	}
	sub.Answers = answers
	return sub
}

// Open returns a SQLite store for path, or a MemoryStore when path is empty.
func Open(path string) (Store, error) {
	if path == "" {
		return NewMemoryStore(), nil
	}
	return NewSQLiteStore(path)
}
