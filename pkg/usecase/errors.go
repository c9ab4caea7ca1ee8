package usecase

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for use case layer
var (
	// ErrUpstreamFetch means the ticket source could not provide the conversation
	ErrUpstreamFetch = goerr.New("failed to fetch conversation")
	// ErrNoAgentResponse means the conversation has no agent reply to evaluate
	ErrNoAgentResponse = goerr.New("no agent response in conversation")
)

// Context keys for error values
const (
	TicketIDKey = "ticket_id"
	CacheKeyKey = "cache_key"
)
