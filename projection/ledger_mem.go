package projection

import (
	"context"
	"sync"
)

// MemLedger is an in-memory Ledger for tests.
type MemLedger struct {
	mu   sync.Mutex
	done map[string]struct{}
}

// NewMemLedger builds an empty MemLedger.
func NewMemLedger() *MemLedger {
	return &MemLedger{done: make(map[string]struct{})}
}

func (l *MemLedger) key(task, eventID string) string { return task + "\x00" + eventID }

func (l *MemLedger) AlreadyProcessed(_ context.Context, task, eventID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.done[l.key(task, eventID)]
	return ok, nil
}

func (l *MemLedger) MarkProcessed(_ context.Context, task, eventID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.done[l.key(task, eventID)] = struct{}{}
	return nil
}

var _ Ledger = (*MemLedger)(nil)
