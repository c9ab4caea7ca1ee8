package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // Help Scout signs webhooks with HMAC-SHA1
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/tonecheck/pkg/domain/model"
	"github.com/secmon-lab/tonecheck/pkg/utils/errutil"
	"github.com/secmon-lab/tonecheck/pkg/utils/logging"
	"github.com/secmon-lab/tonecheck/pkg/utils/safe"
)

const (
	signatureHeader    = "X-HelpScout-Signature"
	maxWebhookBodySize = 1 << 20
	signaturePrefixLen = 8
)

// ErrInvalidSignature is returned when a webhook signature does not verify
var ErrInvalidSignature = goerr.New("invalid webhook signature")

func computeHelpScoutSignature(secret string, body []byte) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(body) //nolint:errcheck // hash.Hash never returns an error
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// verifyHelpScoutSignature checks signature against the HMAC-SHA1 of the raw
// body. A missing secret always fails.
func verifyHelpScoutSignature(secret, signature string, body []byte) error {
	if secret == "" {
		return goerr.Wrap(ErrInvalidSignature, "webhook secret is not configured")
	}
	if signature == "" {
		return goerr.Wrap(ErrInvalidSignature, "missing signature")
	}

	expected := computeHelpScoutSignature(secret, body)
	if len(expected) != len(signature) {
		return goerr.Wrap(ErrInvalidSignature, "signature length mismatch",
			goerr.V("expected_length", len(expected)), goerr.V("actual_length", len(signature)))
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
		return goerr.Wrap(ErrInvalidSignature, "signature mismatch")
	}
	return nil
}

// SignatureVerifier authenticates Help Scout webhook deliveries
type SignatureVerifier struct {
	secret   string
	disabled bool
}

// NewSignatureVerifier creates a verifier. With disabled set every request is
// accepted; this is for local development only.
func NewSignatureVerifier(secret string, disabled bool) *SignatureVerifier {
	return &SignatureVerifier{secret: secret, disabled: disabled}
}

// Verify reports whether signature authenticates body and writes an audit log entry
func (v *SignatureVerifier) Verify(ctx context.Context, body []byte, signature string) bool {
	logger := logging.From(ctx)

	if v.disabled {
		logger.Warn("webhook signature validation is DISABLED, accepting request without verification")
		return true
	}

	if err := verifyHelpScoutSignature(v.secret, signature, body); err != nil {
		attrs := []any{
			"error", err.Error(),
			"provided_prefix", prefix(signature),
			"body_size", len(body),
		}
		if v.secret != "" {
			attrs = append(attrs, "expected_prefix", prefix(computeHelpScoutSignature(v.secret, body)))
		}
		logger.Warn("webhook signature rejected", attrs...)
		return false
	}

	logger.Info("webhook signature verified", "body_size", len(body))
	return true
}

func prefix(s string) string {
	if len(s) > signaturePrefixLen {
		return s[:signaturePrefixLen]
	}
	return s
}

// HelpScoutSignatureMiddleware rejects requests whose signature header does not
// match the raw body. The body is restored for the next handler.
func HelpScoutSignatureMiddleware(verifier *SignatureVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodySize))
			if err != nil {
				errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest, "invalid request body")
				return
			}
			safe.Close(ctx, r.Body)

			if !verifier.Verify(ctx, body, r.Header.Get(signatureHeader)) {
				errutil.HandleHTTP(ctx, w, ErrInvalidSignature, http.StatusUnauthorized, "invalid signature")
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}

type webhookResponse struct {
	HTML string `json:"html"`
}

func webhookHandler(uc WebhookUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		body, err := io.ReadAll(r.Body)
		if err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest, "invalid request body")
			return
		}

		payload, err := model.ParseWebhookPayload(body)
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest, "invalid payload: "+err.Error())
			return
		}

		outcome, err := uc.HandleWebhook(ctx, payload)
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError, "internal error")
			return
		}

		html, err := renderOutcome(outcome)
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError, "internal error")
			return
		}

		logging.From(ctx).Info("webhook handled",
			"ticket_id", outcome.TicketID,
			"kind", string(outcome.Kind),
			"source", string(outcome.Source),
		)
		writeJSON(ctx, w, http.StatusOK, webhookResponse{HTML: html})
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(ctx, w, data)
}
