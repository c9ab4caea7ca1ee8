package firestore

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/tonecheck/pkg/domain/interfaces"
	"github.com/secmon-lab/tonecheck/pkg/domain/model"
	"github.com/secmon-lab/tonecheck/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// EvaluationsCollection is the collection name of ledger rows without prefix
const EvaluationsCollection = "evaluations"

type Ledger struct {
	client           *firestore.Client
	projectID        string
	databaseID       string
	collectionPrefix string
}

var _ interfaces.LedgerRepository = &Ledger{}

type Option func(*Ledger)

func WithCollectionPrefix(prefix string) Option {
	return func(l *Ledger) {
		l.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Ledger, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID), goerr.V("databaseID", databaseID))
	}

	l := &Ledger{
		client:     client,
		projectID:  projectID,
		databaseID: databaseID,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// CollectionName returns the ledger collection including the prefix
func (l *Ledger) CollectionName() string {
	return CollectionName(l.collectionPrefix)
}

// CollectionName returns the ledger collection for prefix
func CollectionName(prefix string) string {
	if prefix != "" {
		return prefix + "_" + EvaluationsCollection
	}
	return EvaluationsCollection
}

type categoryDocument struct {
	Score    int    `firestore:"score"`
	Feedback string `firestore:"feedback"`
}

type evaluationDocument struct {
	ID              string                      `firestore:"id"`
	TicketID        int64                       `firestore:"ticket_id"`
	TicketNumber    int64                       `firestore:"ticket_number"`
	AgentID         int64                       `firestore:"agent_id"`
	AgentName       string                      `firestore:"agent_name"`
	ResponseText    string                      `firestore:"response_text"`
	OverallScore    float64                     `firestore:"overall_score"`
	Categories      map[string]categoryDocument `firestore:"categories"`
	KeyImprovements []string                    `firestore:"key_improvements"`
	Error           string                      `firestore:"error,omitempty"`
	CreatedAt       time.Time                   `firestore:"created_at"`
}

func rowToDocument(row *model.LedgerRow) *evaluationDocument {
	doc := &evaluationDocument{
		ID:              string(row.ID),
		TicketID:        int64(row.TicketID),
		TicketNumber:    row.TicketNumber,
		AgentID:         int64(row.Agent.ID),
		AgentName:       row.Agent.Name,
		ResponseText:    row.ResponseText,
		OverallScore:    row.Result.OverallScore,
		Categories:      make(map[string]categoryDocument, len(row.Result.Categories)),
		KeyImprovements: row.Result.KeyImprovements,
		Error:           row.Result.Error,
		CreatedAt:       row.Timestamp.UTC(),
	}
	for c, cs := range row.Result.Categories {
		doc.Categories[string(c)] = categoryDocument{Score: cs.Score, Feedback: cs.Feedback}
	}
	return doc
}

func documentToRow(doc *evaluationDocument) *model.LedgerRow {
	row := &model.LedgerRow{
		ID:           model.LedgerRowID(doc.ID),
		Timestamp:    doc.CreatedAt,
		TicketID:     types.TicketID(doc.TicketID),
		TicketNumber: doc.TicketNumber,
		Agent:        model.Agent{ID: types.AgentID(doc.AgentID), Name: doc.AgentName},
		ResponseText: doc.ResponseText,
		Result: &model.EvaluationResult{
			OverallScore:    doc.OverallScore,
			Categories:      make(map[types.CategoryID]model.CategoryScore, len(doc.Categories)),
			KeyImprovements: doc.KeyImprovements,
			Error:           doc.Error,
		},
	}
	if row.Result.KeyImprovements == nil {
		row.Result.KeyImprovements = []string{}
	}
	for c, cs := range doc.Categories {
		row.Result.Categories[types.CategoryID(c)] = model.CategoryScore{Score: cs.Score, Feedback: cs.Feedback}
	}
	return row
}

func (l *Ledger) Lookup(ctx context.Context, ticketID types.TicketID, day time.Time) (*model.LedgerRow, error) {
	y, m, d := day.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	iter := l.client.Collection(l.CollectionName()).
		Where("ticket_id", "==", int64(ticketID)).
		Where("created_at", ">=", start).
		Where("created_at", "<", end).
		OrderBy("created_at", firestore.Desc).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		if status.Code(err) == codes.FailedPrecondition {
			return nil, goerr.Wrap(err, "ledger index is missing, run `tonecheck migrate`",
				goerr.V("collection", l.CollectionName()))
		}
		return nil, goerr.Wrap(err, "failed to query ledger", goerr.V("ticket_id", ticketID))
	}

	var doc evaluationDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal ledger row", goerr.V("doc_id", snap.Ref.ID))
	}
	return documentToRow(&doc), nil
}

func (l *Ledger) Append(ctx context.Context, row *model.LedgerRow) error {
	if row == nil || row.Result == nil {
		return goerr.New("ledger row requires a result")
	}
	if row.ID == "" {
		row.ID = model.NewLedgerRowID()
	}

	doc := rowToDocument(row)
	if _, err := l.client.Collection(l.CollectionName()).Doc(doc.ID).Create(ctx, doc); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return goerr.Wrap(err, "ledger row already exists", goerr.V("id", doc.ID))
		}
		return goerr.Wrap(err, "failed to append ledger row", goerr.V("ticket_id", row.TicketID))
	}
	return nil
}

func (l *Ledger) Ping(ctx context.Context) error {
	iter := l.client.Collection(l.CollectionName()).Limit(1).Documents(ctx)
	defer iter.Stop()

	if _, err := iter.Next(); err != nil && err != iterator.Done {
		return goerr.Wrap(err, "failed to reach firestore", goerr.V("collection", l.CollectionName()))
	}
	return nil
}

func (l *Ledger) URL() string {
	return fmt.Sprintf("https://console.cloud.google.com/firestore/databases/%s/data/panel/%s?project=%s",
		url.PathEscape(l.databaseID), url.PathEscape(l.CollectionName()), url.QueryEscape(l.projectID))
}

func (l *Ledger) Close() error {
	if l.client != nil {
		return l.client.Close()
	}
	return nil
}
