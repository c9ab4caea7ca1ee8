package sheets_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/tonecheck/pkg/repository/sheets"
	"google.golang.org/api/option"
)

func TestQuoteSheetName(t *testing.T) {
	gt.Value(t, sheets.QuoteSheetName("Sheet1")).Equal("Sheet1")
	gt.Value(t, sheets.QuoteSheetName("Tone Log")).Equal("'Tone Log'")
	gt.Value(t, sheets.QuoteSheetName("Sam's")).Equal("'Sam''s'")
}

func TestToStrings(t *testing.T) {
	got := sheets.ToStrings([]any{"2026-01-01T00:00:00Z", float64(42), nil, "x"})
	gt.Value(t, got).Equal([]string{"2026-01-01T00:00:00Z", "42", "", "x"})
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	_, err := sheets.New(ctx, "")
	gt.Value(t, err).NotNil()

	l, err := sheets.New(ctx, "sheet-123",
		sheets.WithSheetName("Tone Log"),
		sheets.WithClientOptions(option.WithoutAuthentication(), option.WithEndpoint("http://127.0.0.1:1/")),
	)
	gt.NoError(t, err).Required()
	gt.Value(t, l.FullRange()).Equal("'Tone Log'!A:P")
	gt.Value(t, l.URL()).Equal("https://docs.google.com/spreadsheets/d/sheet-123")
}
