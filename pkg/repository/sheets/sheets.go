// Package sheets stores ledger rows in a Google Sheets spreadsheet. Each
// evaluation is one appended row of 16 columns; the first row holds headers.
package sheets

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/tonecheck/pkg/domain/interfaces"
	"github.com/secmon-lab/tonecheck/pkg/domain/model"
	"github.com/secmon-lab/tonecheck/pkg/domain/types"
	"github.com/secmon-lab/tonecheck/pkg/utils/logging"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// DefaultSheetName is the tab used when none is configured
const DefaultSheetName = "Sheet1"

// lastColumn is the column letter of the 16th ledger field
const lastColumn = "P"

type Ledger struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	sheetName     string

	email         string
	privateKey    string
	clientOptions []option.ClientOption
}

var _ interfaces.LedgerRepository = &Ledger{}

type Option func(*Ledger)

// WithSheetName selects the tab holding the ledger
func WithSheetName(name string) Option {
	return func(l *Ledger) {
		if name != "" {
			l.sheetName = name
		}
	}
}

// WithServiceAccount authenticates with a service account key. Literal "\n"
// sequences in privateKey are turned into newlines, as keys copied into
// environment variables usually carry them escaped.
func WithServiceAccount(email, privateKey string) Option {
	return func(l *Ledger) {
		l.email = email
		l.privateKey = privateKey
	}
}

// WithClientOptions passes options to the Sheets API client
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(l *Ledger) {
		l.clientOptions = append(l.clientOptions, opts...)
	}
}

func New(ctx context.Context, spreadsheetID string, opts ...Option) (*Ledger, error) {
	if spreadsheetID == "" {
		return nil, goerr.New("spreadsheet ID is required")
	}

	l := &Ledger{
		spreadsheetID: spreadsheetID,
		sheetName:     DefaultSheetName,
	}
	for _, opt := range opts {
		opt(l)
	}

	clientOpts := append([]option.ClientOption{}, l.clientOptions...)
	if l.email != "" && l.privateKey != "" {
		conf := &jwt.Config{
			Email:      l.email,
			PrivateKey: []byte(strings.ReplaceAll(l.privateKey, `\n`, "\n")),
			Scopes:     []string{sheetsapi.SpreadsheetsScope},
			TokenURL:   google.JWTTokenURL,
		}
		clientOpts = append(clientOpts, option.WithHTTPClient(conf.Client(ctx)))
	}

	svc, err := sheetsapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create sheets client", goerr.V("spreadsheet_id", spreadsheetID))
	}
	l.svc = svc

	return l, nil
}

func (l *Ledger) fullRange() string {
	return fmt.Sprintf("%s!A:%s", quoteSheetName(l.sheetName), lastColumn)
}

func (l *Ledger) headerRange() string {
	return fmt.Sprintf("%s!A1:%s1", quoteSheetName(l.sheetName), lastColumn)
}

func (l *Ledger) Lookup(ctx context.Context, ticketID types.TicketID, day time.Time) (*model.LedgerRow, error) {
	resp, err := l.svc.Spreadsheets.Values.Get(l.spreadsheetID, l.fullRange()).Context(ctx).Do()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read ledger", goerr.V("range", l.fullRange()))
	}

	want := ticketID.String()
	for i := len(resp.Values) - 1; i >= 0; i-- {
		record := toStrings(resp.Values[i])
		if len(record) < 2 || strings.TrimSpace(record[1]) != want {
			continue
		}

		row, err := model.ParseLedgerRecord(record)
		if err != nil {
			logging.From(ctx).Debug("skipping malformed ledger row", "row", i+1, "error", err)
			continue
		}
		if row.SameDay(day) {
			return row, nil
		}
	}
	return nil, nil
}

func (l *Ledger) Append(ctx context.Context, row *model.LedgerRow) error {
	if row == nil || row.Result == nil {
		return goerr.New("ledger row requires a result")
	}

	vr := &sheetsapi.ValueRange{Values: [][]any{toValues(row.ToRecord())}}
	_, err := l.svc.Spreadsheets.Values.Append(l.spreadsheetID, l.fullRange(), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return goerr.Wrap(err, "failed to append ledger row", goerr.V("ticket_id", row.TicketID))
	}
	return nil
}

// EnsureHeader writes the column headers when the first row is empty
func (l *Ledger) EnsureHeader(ctx context.Context) (bool, error) {
	resp, err := l.svc.Spreadsheets.Values.Get(l.spreadsheetID, l.headerRange()).Context(ctx).Do()
	if err != nil {
		return false, goerr.Wrap(err, "failed to read ledger header")
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return false, nil
	}

	vr := &sheetsapi.ValueRange{Values: [][]any{toValues(model.LedgerHeader)}}
	if _, err := l.svc.Spreadsheets.Values.Update(l.spreadsheetID, l.headerRange(), vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do(); err != nil {
		return false, goerr.Wrap(err, "failed to write ledger header")
	}
	return true, nil
}

func (l *Ledger) Ping(ctx context.Context) error {
	if _, err := l.svc.Spreadsheets.Get(l.spreadsheetID).Fields("spreadsheetId").Context(ctx).Do(); err != nil {
		return goerr.Wrap(err, "failed to reach spreadsheet", goerr.V("spreadsheet_id", l.spreadsheetID))
	}
	return nil
}

func (l *Ledger) URL() string {
	return "https://docs.google.com/spreadsheets/d/" + url.PathEscape(l.spreadsheetID)
}

func (l *Ledger) Close() error {
	return nil
}

func quoteSheetName(name string) string {
	if strings.ContainsAny(name, " '!") {
		return "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	return name
}

func toValues(record []string) []any {
	values := make([]any, len(record))
	for i, v := range record {
		values[i] = v
	}
	return values
}

func toStrings(values []any) []string {
	record := make([]string, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		record[i] = fmt.Sprint(v)
	}
	return record
}
