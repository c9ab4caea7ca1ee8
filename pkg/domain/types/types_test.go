package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/tonecheck/pkg/domain/types"
)

func TestCategoryID_IsValid(t *testing.T) {
	for _, c := range types.AllCategories() {
		gt.B(t, c.IsValid()).True()
		gt.String(t, c.Label()).NotEqual(c.String())
	}
	gt.B(t, types.CategoryID("humor").IsValid()).False()
	gt.B(t, types.CategoryID("").IsValid()).False()
}

func TestParseCategoryID(t *testing.T) {
	c, err := types.ParseCategoryID("problem_resolution")
	gt.NoError(t, err)
	gt.Value(t, c).Equal(types.CategoryProblemResolution)

	_, err = types.ParseCategoryID("speed")
	gt.Value(t, err).NotNil()
}

func TestClampScore(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{name: "below range", in: 0, want: 1},
		{name: "negative", in: -4, want: 1},
		{name: "in range", in: 7, want: 7},
		{name: "above range", in: 12, want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Number(t, types.ClampScore(tt.in)).Equal(tt.want)
		})
	}
}

func TestParseTicketID(t *testing.T) {
	id, err := types.ParseTicketID("123456")
	gt.NoError(t, err)
	gt.Value(t, id).Equal(types.TicketID(123456))
	gt.Value(t, id.String()).Equal("123456")

	_, err = types.ParseTicketID("0")
	gt.Value(t, err).NotNil()

	_, err = types.ParseTicketID("abc")
	gt.Value(t, err).NotNil()
}

func TestTicketClass_String(t *testing.T) {
	gt.Value(t, types.TicketClassNone.String()).Equal("none")
	gt.Value(t, types.TicketClassServices.String()).Equal("services")
}
