package scheduler

import (
	"sync"
	"time"
)

// Ledger remembers which reminders were already dispatched so overlapping
// look-ahead windows deliver each one once. Entries are keyed by
// medication/reminder pair and stamped with the reminder's due time.
type Ledger struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

// NewLedger returns an empty ledger
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[string]time.Time)}
}

// LedgerKey identifies a reminder across sweeps
func LedgerKey(medicationID, reminderID string) string {
	return medicationID + "_" + reminderID
}

// Seen reports whether key was dispatched and not yet pruned or forgotten
func (l *Ledger) Seen(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.entries[key]
	return ok
}

// Mark records key as dispatched for a reminder due at due
func (l *Ledger) Mark(key string, due time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[key] = due
}

// Forget drops key so the reminder can be dispatched again
func (l *Ledger) Forget(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
}

// Prune drops every entry due before cutoff and returns how many went
func (l *Ledger) Prune(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for key, due := range l.entries {
		if due.Before(cutoff) {
			delete(l.entries, key)
			n++
		}
	}
	return n
}

// Len returns the number of tracked reminders
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
