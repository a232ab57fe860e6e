package session

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// Entry is one submitted high score.
type Entry struct {
	Name string
	// Score is the final game score.
	Score int
	// Seconds is the total encounter time of the run.
	Seconds     int
	SubmittedAt time.Time
}

// Leaderboard stores high scores. Persistent implementations live outside
// this package.
type Leaderboard interface {
	// Submit records a finished run.
	Submit(name string, score, seconds int) error
	// Top returns at most n entries, best first.
	Top(n int) []Entry
}

// MemoryLeaderboard keeps scores in process memory.
// All methods are safe for concurrent use.
type MemoryLeaderboard struct {
	mu      sync.RWMutex
	entries []Entry
	now     func() time.Time
}

// NewMemoryLeaderboard returns an empty leaderboard.
func NewMemoryLeaderboard() *MemoryLeaderboard {
	return &MemoryLeaderboard{now: time.Now}
}

// Submit records a run.
//
// Precondition: name must be non-empty; seconds >= 0.
// Postcondition: entries remain ordered by score descending, earlier
// submissions first among equal scores.
func (l *MemoryLeaderboard) Submit(name string, score, seconds int) error {
	if name == "" {
		return errors.New("leaderboard: name must not be empty")
	}
	if seconds < 0 {
		return errors.New("leaderboard: seconds must not be negative")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{Name: name, Score: score, Seconds: seconds, SubmittedAt: l.now()})
	sort.SliceStable(l.entries, func(i, j int) bool { return l.entries[i].Score > l.entries[j].Score })
	return nil
}

// Top returns up to n best entries. n <= 0 returns every entry.
func (l *MemoryLeaderboard) Top(n int) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Entry, n)
	copy(out, l.entries[:n])
	return out
}
