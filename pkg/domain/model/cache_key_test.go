package model_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/tonecheck/pkg/domain/model"
	"github.com/secmon-lab/tonecheck/pkg/domain/types"
)

func TestDeriveCacheKey(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a := model.DeriveCacheKey(42, "Hello, I reset your password.")
		b := model.DeriveCacheKey(42, "Hello, I reset your password.")
		gt.Value(t, a).Equal(b)
	})

	t.Run("format is ticket id and 16 hex chars", func(t *testing.T) {
		key := model.DeriveCacheKey(987, "reply").String()
		prefix, fp, ok := strings.Cut(key, "_")
		gt.Bool(t, ok).True()
		gt.Value(t, prefix).Equal("987")
		gt.Number(t, len(fp)).Equal(16)
	})

	t.Run("any edit changes the key", func(t *testing.T) {
		base := "Thanks for your patience while we looked into this."
		seen := map[model.CacheKey]string{}
		for i := 0; i < 200; i++ {
			text := fmt.Sprintf("%s %d", base, i)
			key := model.DeriveCacheKey(7, text)
			_, dup := seen[key]
			gt.Bool(t, dup).False()
			seen[key] = text
		}
		gt.Value(t, model.DeriveCacheKey(7, base)).NotEqual(model.DeriveCacheKey(7, base+" "))
	})

	t.Run("ticket id is part of the key", func(t *testing.T) {
		gt.Value(t, model.DeriveCacheKey(types.TicketID(1), "same")).
			NotEqual(model.DeriveCacheKey(types.TicketID(2), "same"))
	})
}
