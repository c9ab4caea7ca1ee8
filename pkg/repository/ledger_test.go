package repository_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/tonecheck/pkg/domain/interfaces"
	"github.com/secmon-lab/tonecheck/pkg/domain/model"
	"github.com/secmon-lab/tonecheck/pkg/domain/types"
	"github.com/secmon-lab/tonecheck/pkg/repository/firestore"
	"github.com/secmon-lab/tonecheck/pkg/repository/memory"
	"github.com/secmon-lab/tonecheck/pkg/repository/sheets"
	"google.golang.org/api/option"
)

func newTestResult(tone int, feedback string) *model.EvaluationResult {
	return &model.EvaluationResult{
		OverallScore: 7.5,
		Categories: map[types.CategoryID]model.CategoryScore{
			types.CategoryToneEmpathy:         {Score: tone, Feedback: feedback},
			types.CategoryClarityCompleteness: {Score: 8, Feedback: "Steps are easy to follow."},
			types.CategoryStandardOfEnglish:   {Score: 9, Feedback: "No grammar issues."},
			types.CategoryProblemResolution:   {Score: 6, Feedback: "Workaround only."},
		},
		KeyImprovements: []string{"Confirm the fix with the customer.", "Link the relevant help article."},
	}
}

// uniqueTicketID keeps rows of separate runs apart on shared backends
func uniqueTicketID() types.TicketID {
	return types.TicketID(time.Now().UnixNano()/1000%1_000_000_000_000 + 1)
}

func runLedgerRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.LedgerRepository) {
	t.Helper()

	t.Run("Append then Lookup on the same day returns the row", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		now := time.Now().UTC().Truncate(time.Second)
		ticketID := uniqueTicketID()

		row := &model.LedgerRow{
			Timestamp:    now,
			TicketID:     ticketID,
			TicketNumber: 321,
			Agent:        model.Agent{ID: 77, Name: "Jordan Blake"},
			ResponseText: "Hi there,\nthe invoice is attached.",
			Result:       newTestResult(8, "Friendly and warm."),
		}
		gt.NoError(t, repo.Append(ctx, row)).Required()

		got, err := repo.Lookup(ctx, ticketID, now)
		gt.NoError(t, err).Required()
		gt.Value(t, got).NotNil()
		gt.Value(t, got.TicketID).Equal(ticketID)
		gt.Value(t, got.TicketNumber).Equal(int64(321))
		gt.Value(t, got.Agent.Name).Equal("Jordan Blake")
		gt.Value(t, got.ResponseText).Equal(row.ResponseText)
		gt.Value(t, got.Result.OverallScore).Equal(7.5)
		gt.Value(t, got.Result.KeyImprovements).Equal(row.Result.KeyImprovements)
		for _, c := range types.AllCategories() {
			gt.Value(t, got.Result.Category(c)).Equal(row.Result.Category(c))
		}
		gt.Value(t, got.CacheKey()).Equal(row.CacheKey())
	})

	t.Run("Lookup returns the most recently appended row", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		now := time.Now().UTC().Truncate(time.Second)
		ticketID := uniqueTicketID()

		for i, tone := range []int{4, 6, 9} {
			gt.NoError(t, repo.Append(ctx, &model.LedgerRow{
				Timestamp:    now.Add(time.Duration(i) * time.Second),
				TicketID:     ticketID,
				ResponseText: fmt.Sprintf("reply %d", i),
				Result:       newTestResult(tone, "note"),
			})).Required()
		}

		got, err := repo.Lookup(ctx, ticketID, now)
		gt.NoError(t, err).Required()
		gt.Value(t, got).NotNil()
		gt.Number(t, got.Result.Category(types.CategoryToneEmpathy).Score).Equal(9)
		gt.Value(t, got.ResponseText).Equal("reply 2")
	})

	t.Run("Lookup ignores rows of other days", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		now := time.Now().UTC()
		ticketID := uniqueTicketID()

		gt.NoError(t, repo.Append(ctx, &model.LedgerRow{
			Timestamp:    now.AddDate(0, 0, -1),
			TicketID:     ticketID,
			ResponseText: "yesterday",
			Result:       newTestResult(5, "old"),
		})).Required()

		got, err := repo.Lookup(ctx, ticketID, now)
		gt.NoError(t, err).Required()
		gt.Value(t, got).Nil()
	})

	t.Run("Lookup ignores other tickets", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		now := time.Now().UTC()
		ticketID := uniqueTicketID()

		gt.NoError(t, repo.Append(ctx, &model.LedgerRow{
			Timestamp:    now,
			TicketID:     ticketID,
			ResponseText: "someone else",
			Result:       newTestResult(5, "other"),
		})).Required()

		got, err := repo.Lookup(ctx, ticketID+1, now)
		gt.NoError(t, err).Required()
		gt.Value(t, got).Nil()
	})

	t.Run("Ping succeeds", func(t *testing.T) {
		repo := newRepo(t)
		gt.NoError(t, repo.Ping(context.Background()))
	})
}

func TestMemoryLedgerRepository(t *testing.T) {
	runLedgerRepositoryTest(t, func(t *testing.T) interfaces.LedgerRepository {
		return memory.New()
	})
}

// fakeSheets serves the subset of the Sheets v4 API used by the ledger
type fakeSheets struct {
	mu            sync.Mutex
	rows          [][]any
	appendQueries []string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":append"):
		var vr struct {
			Values [][]any `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.rows = append(f.rows, vr.Values...)
		f.appendQueries = append(f.appendQueries, r.URL.RawQuery)
		_ = json.NewEncoder(w).Encode(map[string]any{"updates": map[string]any{"updatedRows": len(vr.Values)}})

	case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
		var vr struct {
			Values [][]any `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if len(f.rows) == 0 {
			f.rows = append(f.rows, vr.Values...)
		} else {
			f.rows[0] = vr.Values[0]
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"updatedRows": 1})

	case r.Method == http.MethodGet && strings.Contains(path, "/values/"):
		rows := f.rows
		if strings.HasSuffix(path, "1:P1") {
			rows = rows[:min(1, len(rows))]
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"values": rows})

	case r.Method == http.MethodGet && strings.HasPrefix(path, "/v4/spreadsheets/"):
		_ = json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": strings.TrimPrefix(path, "/v4/spreadsheets/")})

	default:
		http.NotFound(w, r)
	}
}

func newSheetsLedger(t *testing.T, fake *fakeSheets) *sheets.Ledger {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	ledger, err := sheets.New(context.Background(), "test-spreadsheet",
		sheets.WithSheetName("Ledger"),
		sheets.WithClientOptions(option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication()),
	)
	gt.NoError(t, err).Required()
	return ledger
}

func TestSheetsLedgerRepository(t *testing.T) {
	runLedgerRepositoryTest(t, func(t *testing.T) interfaces.LedgerRepository {
		ledger := newSheetsLedger(t, &fakeSheets{})
		_, err := ledger.EnsureHeader(context.Background())
		gt.NoError(t, err).Required()
		return ledger
	})
}

func TestSheetsLedger_WithoutHeader(t *testing.T) {
	fake := &fakeSheets{}
	ledger := newSheetsLedger(t, fake)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	gt.NoError(t, ledger.Append(ctx, &model.LedgerRow{
		Timestamp:    now,
		TicketID:     42,
		ResponseText: "first row of a fresh sheet",
		Result:       newTestResult(8, "Warm."),
	})).Required()

	fake.mu.Lock()
	gt.Array(t, fake.rows).Length(1)
	fake.mu.Unlock()

	got, err := ledger.Lookup(ctx, 42, now)
	gt.NoError(t, err).Required()
	gt.Value(t, got).NotNil()
	gt.Value(t, got.ResponseText).Equal("first row of a fresh sheet")
}

func TestSheetsLedger_Layout(t *testing.T) {
	fake := &fakeSheets{}
	ledger := newSheetsLedger(t, fake)
	ctx := context.Background()

	created, err := ledger.EnsureHeader(ctx)
	gt.NoError(t, err).Required()
	gt.Bool(t, created).True()

	created, err = ledger.EnsureHeader(ctx)
	gt.NoError(t, err).Required()
	gt.Bool(t, created).False()

	gt.NoError(t, ledger.Append(ctx, &model.LedgerRow{
		Timestamp:    time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		TicketID:     555,
		TicketNumber: 12,
		Agent:        model.Agent{ID: 3, Name: "Kai"},
		ResponseText: "=SUM(A1:A2) is not a formula here",
		Result:       newTestResult(8, "Kind."),
	})).Required()

	fake.mu.Lock()
	defer fake.mu.Unlock()
	gt.Array(t, fake.rows).Length(2)
	gt.Array(t, fake.rows[1]).Length(model.LedgerColumns)
	gt.Value(t, fake.rows[0][0]).Equal(any("Timestamp"))
	gt.Value(t, fake.rows[1][9]).Equal(any("Confirm the fix with the customer.; Link the relevant help article."))
	gt.Array(t, fake.appendQueries).Length(1)
	gt.String(t, fake.appendQueries[0]).Contains("valueInputOption=RAW")
	gt.String(t, fake.appendQueries[0]).Contains("insertDataOption=INSERT_ROWS")
}

func TestSheetsLedger_SkipsMalformedRows(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	good := (&model.LedgerRow{
		Timestamp:    now,
		TicketID:     900,
		ResponseText: "valid",
		Result:       newTestResult(7, "ok"),
	}).ToRecord()

	fake := &fakeSheets{rows: [][]any{
		{"Timestamp", "Ticket ID"},
		toAny(good),
		{now.Format(time.RFC3339), "900", "", "", "not-a-score"},
	}}
	ledger := newSheetsLedger(t, fake)

	got, err := ledger.Lookup(context.Background(), 900, now)
	gt.NoError(t, err).Required()
	gt.Value(t, got).NotNil()
	gt.Value(t, got.ResponseText).Equal("valid")
}

func toAny(record []string) []any {
	values := make([]any, len(record))
	for i, v := range record {
		values[i] = v
	}
	return values
}

func newFirestoreLedger(t *testing.T) interfaces.LedgerRepository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}

	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	if databaseID == "" {
		t.Skip("TEST_FIRESTORE_DATABASE_ID not set")
	}

	ctx := context.Background()
	repo, err := firestore.New(ctx, projectID, databaseID, firestore.WithCollectionPrefix("test"))
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})
	return repo
}

func TestFirestoreLedgerRepository(t *testing.T) {
	runLedgerRepositoryTest(t, newFirestoreLedger)
}
