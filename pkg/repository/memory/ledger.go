package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/tonecheck/pkg/domain/interfaces"
	"github.com/secmon-lab/tonecheck/pkg/domain/model"
	"github.com/secmon-lab/tonecheck/pkg/domain/types"
)

// Ledger keeps evaluation rows in process memory. It is meant for development
// and tests; rows are lost on restart.
type Ledger struct {
	mu   sync.RWMutex
	rows []*model.LedgerRow
}

var _ interfaces.LedgerRepository = &Ledger{}

// New creates an empty in-memory ledger
func New() *Ledger {
	return &Ledger{}
}

func (l *Ledger) Lookup(ctx context.Context, ticketID types.TicketID, day time.Time) (*model.LedgerRow, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for i := len(l.rows) - 1; i >= 0; i-- {
		row := l.rows[i]
		if row.TicketID == ticketID && row.SameDay(day) {
			return copyRow(row), nil
		}
	}
	return nil, nil
}

func (l *Ledger) Append(ctx context.Context, row *model.LedgerRow) error {
	if row == nil || row.Result == nil {
		return goerr.New("ledger row requires a result")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	stored := copyRow(row)
	if stored.ID == "" {
		stored.ID = model.NewLedgerRowID()
	}
	l.rows = append(l.rows, stored)
	return nil
}

func (l *Ledger) Ping(ctx context.Context) error {
	return nil
}

func (l *Ledger) URL() string {
	return ""
}

func (l *Ledger) Close() error {
	return nil
}

// Rows returns a snapshot of every row in append order
func (l *Ledger) Rows() []*model.LedgerRow {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rows := make([]*model.LedgerRow, len(l.rows))
	for i, row := range l.rows {
		rows[i] = copyRow(row)
	}
	return rows
}

func copyRow(row *model.LedgerRow) *model.LedgerRow {
	cloned := *row
	cloned.Result = row.Result.Clone()
	return &cloned
}
