package question

import (
	"context"
	"sync"

	"github.com/gokatarajesh/skill-assessment/internal/apperr"
)

// Bank is the read side of the item bank.
type Bank interface {
	// QuestionsForTrackAndBand returns questions in load order. An empty band
	// returns every band.
	QuestionsForTrackAndBand(ctx context.Context, track Track, band Band) ([]Question, error)
	QuestionByID(ctx context.Context, id string) (Question, error)
}

// Writer upserts question records, keeping the original load position of
// records that already exist.
type Writer interface {
	UpsertQuestions(ctx context.Context, questions []Question) (int, error)
}

// StatsProvider summarises the bank for admin tooling.
type StatsProvider interface {
	BankStats(ctx context.Context) (Stats, error)
}

// Stats counts questions by track and difficulty.
type Stats struct {
	Total        int           `json:"total"`
	ByTrack      map[Track]int `json:"byTrack"`
	ByDifficulty map[Band]int  `json:"byDifficulty"`
}

// NewStats returns Stats with every known track and band present at zero.
func NewStats() Stats {
	s := Stats{ByTrack: map[Track]int{}, ByDifficulty: map[Band]int{}}
	for _, t := range KnownTracks {
		s.ByTrack[t] = 0
	}
	for _, b := range Bands {
		s.ByDifficulty[b] = 0
	}
	return s
}

// Add counts one question.
func (s *Stats) Add(q Question) {
	s.Total++
	s.ByTrack[q.Track]++
	s.ByDifficulty[q.Difficulty]++
}

// MemoryBank holds the item bank in process, preserving load order.
type MemoryBank struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]Question
}

var (
	_ Bank          = (*MemoryBank)(nil)
	_ Writer        = (*MemoryBank)(nil)
	_ StatsProvider = (*MemoryBank)(nil)
)

// NewMemoryBank builds a bank from questions in the given order.
func NewMemoryBank(questions ...Question) *MemoryBank {
	b := &MemoryBank{byID: make(map[string]Question)}
	_, _ = b.UpsertQuestions(context.Background(), questions)
	return b
}

func (b *MemoryBank) QuestionsForTrackAndBand(_ context.Context, track Track, band Band) ([]Question, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Question, 0)
	for _, id := range b.order {
		q := b.byID[id]
		if q.Track != track {
			continue
		}
		if band != "" && q.Difficulty != band {
			continue
		}
		out = append(out, q.Clone())
	}
	return out, nil
}

func (b *MemoryBank) QuestionByID(_ context.Context, id string) (Question, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	q, ok := b.byID[id]
	if !ok {
		return Question{}, apperr.NotFound("question not found: %s", id)
	}
	return q.Clone(), nil
}

func (b *MemoryBank) UpsertQuestions(_ context.Context, questions []Question) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, q := range questions {
		if _, exists := b.byID[q.ID]; !exists {
			b.order = append(b.order, q.ID)
		}
		b.byID[q.ID] = q.Clone()
	}
	return len(questions), nil
}

func (b *MemoryBank) BankStats(_ context.Context) (Stats, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stats := NewStats()
	for _, id := range b.order {
		stats.Add(b.byID[id])
	}
	return stats, nil
}

// Len returns the number of loaded questions.
func (b *MemoryBank) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.order)
}
