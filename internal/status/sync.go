package status

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds how many tournaments a sweep handles at once.
const DefaultConcurrency = 4

// MatchTransition records one match status change.
type MatchTransition struct {
	TournamentID string
	MatchID      string
	From, To     MatchStatus
}

// TournamentTransition records one tournament status change.
type TournamentTransition struct {
	TournamentID string
	From, To     TournamentStatus
}

// Report summarises one sweep.
type Report struct {
	Checked     int
	Matches     []MatchTransition
	Tournaments []TournamentTransition
}

// Writes is the number of status writes the sweep made.
func (r Report) Writes() int {
	return len(r.Matches) + len(r.Tournaments)
}

// Synchronizer applies due status transitions.
type Synchronizer struct {
	store       Store
	log         logrus.FieldLogger
	concurrency int
}

// NewSynchronizer returns a synchronizer over store. A nil logger discards
// output and a concurrency below one uses DefaultConcurrency.
func NewSynchronizer(store Store, log logrus.FieldLogger, concurrency int) *Synchronizer {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Synchronizer{store: store, log: log, concurrency: concurrency}
}

// Tick evaluates every active tournament at now and writes the transitions
// that are due. Tournaments are handled concurrently, the matches of one
// tournament sequentially. A second call with the same now writes nothing.
func (s *Synchronizer) Tick(ctx context.Context, now time.Time) (Report, error) {
	tournaments, err := s.store.ActiveTournaments(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("listing tournaments: %w", err)
	}

	var (
		mu     sync.Mutex
		report = Report{Checked: len(tournaments)}
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, t := range tournaments {
		t := t
		g.Go(func() error {
			matches, tt, err := s.sync(gCtx, t, now)
			mu.Lock()
			defer mu.Unlock()
			report.Matches = append(report.Matches, matches...)
			if tt != nil {
				report.Tournaments = append(report.Tournaments, *tt)
			}
			return err
		})
	}
	err = g.Wait()

	sort.SliceStable(report.Matches, func(i, j int) bool {
		return report.Matches[i].TournamentID < report.Matches[j].TournamentID
	})
	sort.Slice(report.Tournaments, func(i, j int) bool {
		return report.Tournaments[i].TournamentID < report.Tournaments[j].TournamentID
	})

	s.log.WithFields(logrus.Fields{
		"checked":     report.Checked,
		"matches":     len(report.Matches),
		"tournaments": len(report.Tournaments),
	}).Info("status sweep finished")
	return report, err
}

// sync handles one tournament. It returns the transitions written before
// any error.
func (s *Synchronizer) sync(ctx context.Context, t Tournament, now time.Time) ([]MatchTransition, *TournamentTransition, error) {
	log := s.log.WithField("tournament", t.ID)

	live := t.due(now)
	var done []MatchTransition
	for _, m := range live {
		if err := s.store.SetMatchStatus(ctx, t.ID, m.ID, MatchLive); err != nil {
			return done, nil, fmt.Errorf("tournament %s match %s: %w", t.ID, m.ID, err)
		}
		log.WithField("match", m.ID).Debug("match live")
		done = append(done, MatchTransition{TournamentID: t.ID, MatchID: m.ID, From: m.Status, To: MatchLive})
	}

	current := t.Status
	if current == "" {
		current = TournamentOpen
	}
	target := t.next(now, live)
	if target == current {
		return done, nil, nil
	}
	if err := s.store.SetTournamentStatus(ctx, t.ID, target); err != nil {
		return done, nil, fmt.Errorf("tournament %s: %w", t.ID, err)
	}
	log.WithFields(logrus.Fields{"from": current, "to": target}).Info("tournament status changed")
	return done, &TournamentTransition{TournamentID: t.ID, From: current, To: target}, nil
}

// Run calls Tick immediately and then every interval until ctx is done.
// Sweep errors are logged, not returned.
func (s *Synchronizer) Run(ctx context.Context, interval time.Duration, clock func() time.Time) error {
	if clock == nil {
		clock = time.Now
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Tick(ctx, clock()); err != nil {
			s.log.WithError(err).Error("status sweep failed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
