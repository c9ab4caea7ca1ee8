package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"
	httpctrl "github.com/secmon-lab/tonecheck/pkg/controller/http"
	"github.com/secmon-lab/tonecheck/pkg/domain/model"
)

const testSecret = "test-webhook-secret"

func TestVerifyHelpScoutSignature(t *testing.T) {
	body := []byte(`{"ticket":{"id":123,"number":45}}`)
	valid := httpctrl.ComputeHelpScoutSignature(testSecret, body)

	t.Run("valid signature", func(t *testing.T) {
		gt.NoError(t, httpctrl.VerifyHelpScoutSignature(testSecret, valid, body))
	})

	t.Run("known vector", func(t *testing.T) {
		// HMAC-SHA1("key", "The quick brown fox jumps over the lazy dog")
		err := httpctrl.VerifyHelpScoutSignature("key", "3nybhbi3iqa8ino29wqQcBydtNk=",
			[]byte("The quick brown fox jumps over the lazy dog"))
		gt.NoError(t, err)
	})

	t.Run("single byte mutation", func(t *testing.T) {
		mutated := bytes.Clone(body)
		mutated[len(mutated)-2] = '9'
		err := httpctrl.VerifyHelpScoutSignature(testSecret, valid, mutated)
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, httpctrl.ErrInvalidSignature)).True()
	})

	t.Run("wrong secret", func(t *testing.T) {
		sig := httpctrl.ComputeHelpScoutSignature("other-secret", body)
		gt.Error(t, httpctrl.VerifyHelpScoutSignature(testSecret, sig, body))
	})

	t.Run("length mismatch", func(t *testing.T) {
		gt.Error(t, httpctrl.VerifyHelpScoutSignature(testSecret, "short", body))
		gt.Error(t, httpctrl.VerifyHelpScoutSignature(testSecret, valid+"AAAA", body))
	})

	t.Run("missing secret fails closed", func(t *testing.T) {
		gt.Error(t, httpctrl.VerifyHelpScoutSignature("", valid, body))
	})

	t.Run("missing signature", func(t *testing.T) {
		gt.Error(t, httpctrl.VerifyHelpScoutSignature(testSecret, "", body))
	})
}

func TestSignatureVerifier(t *testing.T) {
	ctx := context.Background()
	body := []byte(`{"ticket":{"id":1}}`)

	t.Run("disabled accepts anything", func(t *testing.T) {
		v := httpctrl.NewSignatureVerifier("", true)
		gt.Bool(t, v.Verify(ctx, body, "")).True()
		gt.Bool(t, v.Verify(ctx, body, "garbage")).True()
	})

	t.Run("enabled", func(t *testing.T) {
		v := httpctrl.NewSignatureVerifier(testSecret, false)
		gt.Bool(t, v.Verify(ctx, body, httpctrl.ComputeHelpScoutSignature(testSecret, body))).True()
		gt.Bool(t, v.Verify(ctx, body, "garbage")).False()
	})

	t.Run("no secret rejects", func(t *testing.T) {
		v := httpctrl.NewSignatureVerifier("", false)
		gt.Bool(t, v.Verify(ctx, body, httpctrl.ComputeHelpScoutSignature("", body))).False()
	})
}

func TestHelpScoutSignatureMiddleware(t *testing.T) {
	body := []byte(`{"ticket":{"id":1}}`)

	var received []byte
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	})
	handler := httpctrl.HelpScoutSignatureMiddleware(httpctrl.NewSignatureVerifier(testSecret, false))(next)

	t.Run("valid signature passes body through", func(t *testing.T) {
		received = nil
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
		req.Header.Set("X-HelpScout-Signature", httpctrl.ComputeHelpScoutSignature(testSecret, body))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		gt.Number(t, rec.Code).Equal(http.StatusOK)
		gt.Array(t, received).Equal(body)
	})

	t.Run("invalid signature is 401 JSON", func(t *testing.T) {
		received = nil
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
		req.Header.Set("X-HelpScout-Signature", "bad")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		gt.Number(t, rec.Code).Equal(http.StatusUnauthorized)
		gt.Array(t, received).Length(0)

		var resp map[string]string
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
		gt.String(t, resp["error"]).Equal("invalid signature")
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		gt.Number(t, rec.Code).Equal(http.StatusUnauthorized)
	})
}

func TestRenderOutcome(t *testing.T) {
	t.Run("scorecard escapes feedback", func(t *testing.T) {
		result := model.NewFailedResult(errors.New("<script>boom</script>"))
		html, err := httpctrl.RenderOutcome(&model.WebhookOutcome{
			Kind:         model.OutcomeScorecard,
			TicketNumber: 42,
			Agent:        model.Agent{ID: 7, Name: "Sam Lee"},
			Result:       result,
		})
		gt.NoError(t, err).Required()
		gt.String(t, html).Contains("#42")
		gt.String(t, html).Contains("Sam Lee")
		gt.String(t, html).Contains("Tone &amp; Empathy")
		gt.String(t, html).Contains("Evaluation failed")
		gt.String(t, html).NotContains("<script>")
	})

	t.Run("processing", func(t *testing.T) {
		html, err := httpctrl.RenderOutcome(&model.WebhookOutcome{Kind: model.OutcomeProcessing, TicketNumber: 9})
		gt.NoError(t, err).Required()
		gt.String(t, html).Contains("Evaluating")
	})

	t.Run("notice", func(t *testing.T) {
		html, err := httpctrl.RenderOutcome(&model.WebhookOutcome{Kind: model.OutcomeNotice, Notice: "Nothing to score"})
		gt.NoError(t, err).Required()
		gt.String(t, html).Contains("Nothing to score")
	})

	t.Run("scorecard without result", func(t *testing.T) {
		_, err := httpctrl.RenderOutcome(&model.WebhookOutcome{Kind: model.OutcomeScorecard})
		gt.Error(t, err)
	})
}
