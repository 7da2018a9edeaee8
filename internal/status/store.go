package status

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Store is the persistence the synchronizer reads and writes through.
type Store interface {
	// ActiveTournaments returns every tournament not yet completed.
	ActiveTournaments(ctx context.Context) ([]Tournament, error)
	SetMatchStatus(ctx context.Context, tournamentID, matchID string, s MatchStatus) error
	SetTournamentStatus(ctx context.Context, tournamentID string, s TournamentStatus) error
}

// MemoryStore is a Store held in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu          sync.Mutex
	tournaments []Tournament
	writes      int
}

// NewMemoryStore returns a store holding copies of tournaments.
func NewMemoryStore(tournaments []Tournament) *MemoryStore {
	s := &MemoryStore{}
	for _, t := range tournaments {
		s.tournaments = append(s.tournaments, clone(t))
	}
	return s
}

func clone(t Tournament) Tournament {
	t.Matches = append([]Match(nil), t.Matches...)
	return t
}

func (s *MemoryStore) ActiveTournaments(ctx context.Context) ([]Tournament, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Tournament
	for _, t := range s.tournaments {
		if t.Status != TournamentCompleted {
			out = append(out, clone(t))
		}
	}
	return out, nil
}

func (s *MemoryStore) SetMatchStatus(ctx context.Context, tournamentID, matchID string, st MatchStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.find(tournamentID)
	if err != nil {
		return err
	}
	for i := range t.Matches {
		if t.Matches[i].ID == matchID {
			t.Matches[i].Status = st
			s.writes++
			return nil
		}
	}
	return fmt.Errorf("tournament %s has no match %s", tournamentID, matchID)
}

func (s *MemoryStore) SetTournamentStatus(ctx context.Context, tournamentID string, st TournamentStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.find(tournamentID)
	if err != nil {
		return err
	}
	t.Status = st
	s.writes++
	return nil
}

// find must be called with mu held.
func (s *MemoryStore) find(id string) (*Tournament, error) {
	for i := range s.tournaments {
		if s.tournaments[i].ID == id {
			return &s.tournaments[i], nil
		}
	}
	return nil, fmt.Errorf("unknown tournament %s", id)
}

// Put adds t, replacing any tournament with the same ID.
func (s *MemoryStore) Put(t Tournament) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tournaments {
		if s.tournaments[i].ID == t.ID {
			s.tournaments[i] = clone(t)
			return
		}
	}
	s.tournaments = append(s.tournaments, clone(t))
}

// Tournaments returns a copy of every tournament, completed or not.
func (s *MemoryStore) Tournaments() []Tournament {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Tournament, len(s.tournaments))
	for i, t := range s.tournaments {
		out[i] = clone(t)
	}
	return out
}

// Writes returns how many status writes the store has accepted.
func (s *MemoryStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// State is the YAML state file the CLI sweeps.
type State struct {
	Tournaments []Tournament `yaml:"tournaments"`
}

// LoadState reads a state file into a MemoryStore.
func LoadState(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading state: %w", err)
	}
	var st State
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parsing state: %w", err)
	}
	return NewMemoryStore(st.Tournaments), nil
}

// SaveState writes the store back to path.
func SaveState(path string, s *MemoryStore) error {
	data, err := yaml.Marshal(State{Tournaments: s.Tournaments()})
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	return nil
}
