// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"slices"
	"sync"

	"github.com/mszylkowski/reactionsbackend/models"
)

// slots holds the voters of each option
type slots [MaxOptions]map[string]struct{}

// MemoryStore keeps polls in process memory behind a single lock
type MemoryStore struct {
	mu    sync.Mutex
	polls map[string]*slots
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		polls: make(map[string]*slots),
	}
}

func (s *MemoryStore) Ensure(_ context.Context, pollID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, created := s.ensure(pollID)
	return created, nil
}

func (s *MemoryStore) CastVote(_ context.Context, pollID, clientID string, option int) (VoteOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, _ := s.ensure(pollID)
	outcome := VoteAccepted
	switch {
	case p.choice(clientID) >= 0:
		outcome = VoteDuplicate
	case !ValidOption(option):
		outcome = VoteOutOfRange
	default:
		p[option][clientID] = struct{}{}
	}
	logOutcome(pollID, option, outcome)
	return outcome, nil
}

func (s *MemoryStore) Snapshot(_ context.Context, pollID, clientID string) (models.PollSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, _ := s.ensure(pollID)
	return buildSnapshot(p.counts(), p.choice(clientID)), nil
}

func (s *MemoryStore) Polls(_ context.Context) ([]models.PollSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.polls))
	for id := range s.polls {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]models.PollSummary, 0, len(ids))
	for _, id := range ids {
		counts := s.polls[id].counts()
		out = append(out, models.PollSummary{ID: id, Counts: counts[:]})
	}
	return out, nil
}

func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.polls {
		for i := range p {
			n := fakeVoteCount()
			p[i] = make(map[string]struct{}, n)
			for j := 0; j < n; j++ {
				p[i][SyntheticClientID(i, j)] = struct{}{}
			}
		}
	}
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// ensure must be called with mu held
func (s *MemoryStore) ensure(pollID string) (*slots, bool) {
	if p, ok := s.polls[pollID]; ok {
		return p, false
	}
	p := &slots{}
	for i := range p {
		p[i] = make(map[string]struct{})
	}
	s.polls[pollID] = p
	logCreated(pollID)
	return p, true
}

// choice returns the option clientID voted for, or -1
func (p *slots) choice(clientID string) int {
	for i, voters := range p {
		if _, ok := voters[clientID]; ok {
			return i
		}
	}
	return -1
}

func (p *slots) counts() [MaxOptions]int {
	var c [MaxOptions]int
	for i, voters := range p {
		c[i] = len(voters)
	}
	return c
}
