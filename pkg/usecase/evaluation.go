package usecase

import (
	"bytes"
	"context"
	_ "embed"
	"text/template"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/tonecheck/pkg/domain/interfaces"
	"github.com/secmon-lab/tonecheck/pkg/domain/model"
	"github.com/secmon-lab/tonecheck/pkg/service/dedup"
	"github.com/secmon-lab/tonecheck/pkg/utils/errutil"
	"github.com/secmon-lab/tonecheck/pkg/utils/htmltext"
	"github.com/secmon-lab/tonecheck/pkg/utils/logging"
	"golang.org/x/sync/semaphore"
)

//go:embed prompt/evaluation_system.md
var evaluationSystemPrompt string

//go:embed prompt/evaluation_user.md
var evaluationUserPromptTmpl string

var evaluationUserPrompt = template.Must(template.New("evaluation_user").Parse(evaluationUserPromptTmpl))

const (
	// NoticeUpstreamFailure is shown when the conversation cannot be fetched
	NoticeUpstreamFailure = "Unable to load this conversation from Help Scout right now. Please try again in a moment."
	// NoticeNoAgentResponse is shown when there is no agent reply to score
	NoticeNoAgentResponse = "There is no agent reply to evaluate in this conversation yet."
	// NoticeNoEngine is shown when no evaluation engine is configured
	NoticeNoEngine = "No evaluation engine is configured."
)

type evaluationPromptData struct {
	ContextNote  string
	TicketNumber int64
	Subject      string
	Conversation string
	Response     string
}

// EvaluationUseCase turns webhook notifications into scorecards
type EvaluationUseCase struct {
	tickets       interfaces.TicketSource
	engine        interfaces.Evaluator
	coordinator   *dedup.Coordinator
	ledger        *LedgerCache
	rules         *ClassifierRules
	sem           *semaphore.Weighted
	engineTimeout time.Duration
}

// NewEvaluationUseCase creates an EvaluationUseCase. engine may be nil, in which
// case every request gets a notice.
func NewEvaluationUseCase(tickets interfaces.TicketSource, engine interfaces.Evaluator, coordinator *dedup.Coordinator, ledger *LedgerCache, rules *ClassifierRules, maxEvaluations int64, engineTimeout time.Duration) *EvaluationUseCase {
	if rules == nil {
		rules = DefaultClassifierRules()
	}
	if maxEvaluations <= 0 {
		maxEvaluations = DefaultMaxEvaluations
	}
	if engineTimeout <= 0 {
		engineTimeout = DefaultEngineTimeout
	}
	if ledger == nil {
		ledger = NewLedgerCache(nil, nil)
	}
	return &EvaluationUseCase{
		tickets:       tickets,
		engine:        engine,
		coordinator:   coordinator,
		ledger:        ledger,
		rules:         rules,
		sem:           semaphore.NewWeighted(maxEvaluations),
		engineTimeout: engineTimeout,
	}
}

// HandleWebhook resolves the scorecard of the latest agent reply of the ticket.
// Failures of the ticket source, the engine and the ledger never surface as
// errors; they become notices or failed results.
func (uc *EvaluationUseCase) HandleWebhook(ctx context.Context, payload *model.WebhookPayload) (*model.WebhookOutcome, error) {
	if payload == nil {
		return nil, goerr.New("payload is required")
	}
	ticketID := payload.Ticket.ID
	logger := logging.From(ctx).With(TicketIDKey, ticketID)
	ctx = logging.With(ctx, logger)

	outcome := &model.WebhookOutcome{
		TicketID:     ticketID,
		TicketNumber: payload.Ticket.Number,
	}

	if uc.engine == nil {
		outcome.Kind = model.OutcomeNotice
		outcome.Notice = NoticeNoEngine
		return outcome, nil
	}

	ticket, err := uc.tickets.GetTicket(ctx, ticketID)
	if err != nil {
		_ = errutil.Handle(ctx, goerr.Wrap(ErrUpstreamFetch, "ticket source failed",
			goerr.V(TicketIDKey, ticketID), goerr.V("error", err.Error())), "failed to fetch ticket")
		outcome.Kind = model.OutcomeNotice
		outcome.Notice = NoticeUpstreamFailure
		return outcome, nil
	}
	outcome.TicketNumber = ticket.Number

	reply, ok := ticket.LatestAgentResponse()
	if !ok {
		logger.Info("no agent response to evaluate", "error", ErrNoAgentResponse)
		outcome.Kind = model.OutcomeNotice
		outcome.Notice = NoticeNoAgentResponse
		return outcome, nil
	}
	outcome.Agent = model.AgentOf(reply)

	key := model.DeriveCacheKey(ticket.ID, reply.Body)
	outcome.Key = key
	ctx = logging.With(ctx, logger.With(CacheKeyKey, key))

	if result, ok := uc.coordinator.Get(key); ok {
		logging.From(ctx).Debug("memory cache hit")
		outcome.Kind = model.OutcomeScorecard
		outcome.Source = model.SourceMemory
		outcome.Result = result
		return outcome, nil
	}

	if row := uc.ledger.Lookup(ctx, ticket.ID); row != nil {
		if row.CacheKey() == key {
			logging.From(ctx).Info("ledger cache hit")
			uc.coordinator.Store(key, row.Result)
			outcome.Kind = model.OutcomeScorecard
			outcome.Source = model.SourceLedger
			outcome.Result = row.Result
			return outcome, nil
		}
		logging.From(ctx).Debug("ledger row is for an older reply", "row_key", row.CacheKey())
	}

	agent := outcome.Agent
	responseText := reply.Body
	result, status := uc.coordinator.Resolve(ctx, key, func(ctx context.Context) (*model.EvaluationResult, error) {
		result := uc.evaluate(ctx, ticket, responseText)
		uc.ledger.Append(ctx, ticket, agent, responseText, result)
		return result, nil
	})

	if status == dedup.StatusReady {
		outcome.Kind = model.OutcomeScorecard
		outcome.Source = model.SourceComputed
		outcome.Result = result
		return outcome, nil
	}

	outcome.Kind = model.OutcomeProcessing
	return outcome, nil
}

// evaluate runs one engine call. It always returns a result; failures become a
// minimum-score result carrying the error.
func (uc *EvaluationUseCase) evaluate(ctx context.Context, ticket *model.Ticket, responseText string) *model.EvaluationResult {
	logger := logging.From(ctx)
	started := time.Now()

	text := htmltext.ToText(responseText)
	classification := uc.rules.Classify(ticket.Tags, ticket.Subject, text)

	prompt, err := buildEvaluationPrompt(ticket, text, classification)
	if err != nil {
		_ = errutil.Handle(ctx, err, "failed to build evaluation prompt")
		return model.NewFailedResult(err)
	}

	if err := uc.sem.Acquire(ctx, 1); err != nil {
		return model.NewFailedResult(goerr.Wrap(err, "evaluation slot unavailable"))
	}
	out, err := uc.callEngine(ctx, prompt)
	uc.sem.Release(1)

	if err != nil {
		_ = errutil.Handle(ctx, err, "evaluation engine failed")
		return model.NewFailedResult(err)
	}

	result, err := buildResult(out, classification)
	if err != nil {
		_ = errutil.Handle(ctx, err, "unusable evaluation output")
		return model.NewFailedResult(err)
	}

	logger.Info("evaluation completed",
		"engine", uc.engine.Name(),
		"class", classification.Class.String(),
		"structured", out.Structured,
		"overall_score", result.OverallScore,
		"duration", time.Since(started).String(),
	)
	return result
}

func (uc *EvaluationUseCase) callEngine(ctx context.Context, prompt model.EvaluationPrompt) (*model.EvaluationOutput, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.engineTimeout)
	defer cancel()

	out, err := uc.engine.Evaluate(ctx, prompt)
	if err != nil {
		return nil, goerr.Wrap(err, "evaluation engine failed",
			goerr.V("engine", uc.engine.Name()), goerr.V("timeout", uc.engineTimeout.String()))
	}
	return out, nil
}

// buildResult normalizes engine output through the structured or the loose path
func buildResult(out *model.EvaluationOutput, classification Classification) (*model.EvaluationResult, error) {
	if out.Structured {
		if result, err := model.DecodeStructuredResult([]byte(out.Text)); err == nil {
			return ApplyClassPolicy(result, classification.Class), nil
		}
	}

	result, err := model.ParseLooseResult(out.Text)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse evaluation output")
	}
	return PostProcess(result, classification.Class), nil
}

func buildEvaluationPrompt(ticket *model.Ticket, responseText string, classification Classification) (model.EvaluationPrompt, error) {
	data := evaluationPromptData{
		ContextNote:  classification.Note,
		TicketNumber: ticket.Number,
		Subject:      ticket.Subject,
		Conversation: buildContextWindow(ticket),
		Response:     responseText,
	}

	var buf bytes.Buffer
	if err := evaluationUserPrompt.Execute(&buf, data); err != nil {
		return model.EvaluationPrompt{}, goerr.Wrap(err, "failed to render evaluation prompt")
	}

	return model.EvaluationPrompt{
		System: evaluationSystemPrompt,
		User:   buf.String(),
	}, nil
}
