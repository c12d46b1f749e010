// Package memory is an in-process remote store used for local development
// and tests, where no spreadsheet backend is available.
package memory

import (
	"context"
	"fmt"
	"sync"

	"tally/internal/core"
	"tally/internal/remote"
)

type Store struct {
	mu        sync.Mutex
	txRows    []txRow
	habitRows []habitRow
}

type txRow struct {
	periodKey core.PeriodKey
	tx        core.Transaction
}

type habitRow struct {
	habitName string
	log       core.HabitLog
}

var _ remote.Store = (*Store)(nil)

func New() *Store {
	return &Store{}
}

func (s *Store) AppendTransaction(_ context.Context, periodKey core.PeriodKey, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txRows = append(s.txRows, txRow{periodKey: periodKey, tx: tx})
	return fmt.Sprintf("mem:tx:%d", len(s.txRows)), nil
}

func (s *Store) AppendHabitLog(_ context.Context, habitName string, log core.HabitLog) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.habitRows = append(s.habitRows, habitRow{habitName: habitName, log: log})
	return fmt.Sprintf("mem:log:%d", len(s.habitRows)), nil
}

// TransactionCount reports how many transaction rows were appended.
func (s *Store) TransactionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.txRows)
}

// HabitLogCount reports how many habit log rows were appended.
func (s *Store) HabitLogCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.habitRows)
}
