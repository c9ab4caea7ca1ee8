package usecase

import (
	"time"

	"github.com/secmon-lab/tonecheck/pkg/domain/interfaces"
	"github.com/secmon-lab/tonecheck/pkg/service/dedup"
)

const (
	DefaultMaxEvaluations = 4
	DefaultEngineTimeout  = 60 * time.Second
)

type UseCases struct {
	tickets        interfaces.TicketSource
	engine         interfaces.Evaluator
	coordinator    *dedup.Coordinator
	ledgerRepo     interfaces.LedgerRepository
	rules          *ClassifierRules
	maxEvaluations int64
	engineTimeout  time.Duration
	now            func() time.Time

	Evaluation *EvaluationUseCase
	Ledger     *LedgerCache
}

type Option func(*UseCases)

func WithLedger(repo interfaces.LedgerRepository) Option {
	return func(uc *UseCases) {
		uc.ledgerRepo = repo
	}
}

func WithClassifierRules(rules *ClassifierRules) Option {
	return func(uc *UseCases) {
		uc.rules = rules
	}
}

// WithMaxEvaluations bounds the number of concurrent engine calls
func WithMaxEvaluations(n int64) Option {
	return func(uc *UseCases) {
		uc.maxEvaluations = n
	}
}

func WithEngineTimeout(d time.Duration) Option {
	return func(uc *UseCases) {
		uc.engineTimeout = d
	}
}

// WithClock replaces the clock deciding "today" for ledger rows
func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

// New wires the use cases. coordinator is shared; it must be created once per process.
func New(tickets interfaces.TicketSource, engine interfaces.Evaluator, coordinator *dedup.Coordinator, opts ...Option) *UseCases {
	uc := &UseCases{
		tickets:        tickets,
		engine:         engine,
		coordinator:    coordinator,
		maxEvaluations: DefaultMaxEvaluations,
		engineTimeout:  DefaultEngineTimeout,
		now:            time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Ledger = NewLedgerCache(uc.ledgerRepo, uc.now)
	uc.Evaluation = NewEvaluationUseCase(tickets, engine, coordinator, uc.Ledger, uc.rules, uc.maxEvaluations, uc.engineTimeout)

	return uc
}
