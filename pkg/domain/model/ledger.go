package model

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/tonecheck/pkg/domain/types"
)

// LedgerColumns is the number of fields in a persisted ledger row
const LedgerColumns = 16

const improvementSeparator = "; "

// LedgerHeader is the header row of the ledger sheet
var LedgerHeader = []string{
	"Timestamp", "Ticket ID", "Agent ID", "Agent Name", "Overall Score",
	"Tone & Empathy", "Clarity & Completeness", "Standard of English", "Problem Resolution",
	"Key Improvements", "Response Text", "Ticket Number",
	"Tone & Empathy Feedback", "Clarity & Completeness Feedback",
	"Standard of English Feedback", "Problem Resolution Feedback",
}

// LedgerRowID identifies a row in backends that need a document id
type LedgerRowID string

// NewLedgerRowID generates a new UUID v4 LedgerRowID
func NewLedgerRowID() LedgerRowID {
	return LedgerRowID(uuid.New().String())
}

// LedgerRow is one append-only evaluation record
type LedgerRow struct {
	ID           LedgerRowID
	Timestamp    time.Time
	TicketID     types.TicketID
	TicketNumber int64
	Agent        Agent
	ResponseText string
	Result       *EvaluationResult
}

// CacheKey derives the key of the evaluated reply
func (r *LedgerRow) CacheKey() CacheKey {
	return DeriveCacheKey(r.TicketID, r.ResponseText)
}

// SameDay reports whether the row was appended on day's calendar date in day's location
func (r *LedgerRow) SameDay(day time.Time) bool {
	ty, tm, td := r.Timestamp.In(day.Location()).Date()
	dy, dm, dd := day.Date()
	return ty == dy && tm == dm && td == dd
}

// ToRecord flattens the row into the 16 ledger columns
func (r *LedgerRow) ToRecord() []string {
	record := make([]string, 0, LedgerColumns)
	record = append(record,
		r.Timestamp.Format(time.RFC3339),
		r.TicketID.String(),
		r.Agent.ID.String(),
		r.Agent.Name,
		FormatScore(r.Result.OverallScore),
	)
	for _, c := range types.AllCategories() {
		record = append(record, strconv.Itoa(r.Result.Category(c).Score))
	}
	record = append(record,
		strings.Join(r.Result.KeyImprovements, improvementSeparator),
		r.ResponseText,
		strconv.FormatInt(r.TicketNumber, 10),
	)
	for _, c := range types.AllCategories() {
		record = append(record, r.Result.Category(c).Feedback)
	}
	return record
}

// ParseLedgerRecord rebuilds a row from ledger columns. Trailing empty columns
// may be omitted by the store and are treated as empty strings.
func ParseLedgerRecord(record []string) (*LedgerRow, error) {
	if len(record) < 12 {
		return nil, goerr.New("ledger record too short", goerr.V("columns", len(record)))
	}
	col := func(i int) string {
		if i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	ts, err := time.Parse(time.RFC3339, col(0))
	if err != nil {
		return nil, goerr.Wrap(err, "invalid ledger timestamp", goerr.V("value", col(0)))
	}
	ticketID, err := types.ParseTicketID(col(1))
	if err != nil {
		return nil, err
	}

	row := &LedgerRow{
		Timestamp:    ts,
		TicketID:     ticketID,
		Agent:        Agent{Name: col(3)},
		ResponseText: record[10],
		Result: &EvaluationResult{
			Categories:      make(map[types.CategoryID]CategoryScore, len(types.AllCategories())),
			KeyImprovements: []string{},
		},
	}
	if v := col(2); v != "" {
		agentID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid agent ID", goerr.V("value", v))
		}
		row.Agent.ID = types.AgentID(agentID)
	}

	overall, err := strconv.ParseFloat(col(4), 64)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid overall score", goerr.V("value", col(4)))
	}
	row.Result.OverallScore = overall

	for i, c := range types.AllCategories() {
		score, err := strconv.Atoi(col(5 + i))
		if err != nil {
			return nil, goerr.Wrap(err, "invalid category score", goerr.V("category", c), goerr.V("value", col(5+i)))
		}
		row.Result.Categories[c] = CategoryScore{Score: score, Feedback: col(12 + i)}
	}

	if v := col(9); v != "" {
		row.Result.KeyImprovements = strings.Split(v, improvementSeparator)
	}
	if v := col(11); v != "" {
		if row.TicketNumber, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, goerr.Wrap(err, "invalid ticket number", goerr.V("value", v))
		}
	}

	return row, nil
}
