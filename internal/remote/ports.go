package remote

import (
	"context"

	"tally/internal/core"
)

// Ports for outbound adapters. The sync worker pushes locally stored rows
// through these; handlers never call them directly.
type (
	TransactionWriter interface {
		AppendTransaction(ctx context.Context, periodKey core.PeriodKey, tx core.Transaction) (rowRef string, err error)
	}

	HabitLogWriter interface {
		AppendHabitLog(ctx context.Context, habitName string, log core.HabitLog) (rowRef string, err error)
	}

	// Store is the full remote surface the sync worker needs.
	Store interface {
		TransactionWriter
		HabitLogWriter
	}
)
