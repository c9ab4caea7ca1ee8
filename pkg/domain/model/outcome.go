package model

import "github.com/secmon-lab/tonecheck/pkg/domain/types"

// OutcomeKind tells the renderer which view to produce
type OutcomeKind string

const (
	OutcomeScorecard  OutcomeKind = "scorecard"
	OutcomeProcessing OutcomeKind = "processing"
	OutcomeNotice     OutcomeKind = "notice"
)

// ResultSource records which tier produced a scorecard
type ResultSource string

const (
	SourceMemory   ResultSource = "memory"
	SourceLedger   ResultSource = "ledger"
	SourceComputed ResultSource = "computed"
)

// WebhookOutcome is what the orchestrator hands to the HTTP layer
type WebhookOutcome struct {
	Kind         OutcomeKind
	TicketID     types.TicketID
	TicketNumber int64
	Agent        Agent
	Key          CacheKey
	Result       *EvaluationResult
	Source       ResultSource
	Notice       string
}
