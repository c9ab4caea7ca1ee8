package config

import (
	"context"
	"log/slog"

	httpctrl "github.com/secmon-lab/tonecheck/pkg/controller/http"
	"github.com/secmon-lab/tonecheck/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Webhook holds the Help Scout webhook authentication settings
type Webhook struct {
	secret            string
	disableValidation bool
}

func (x *Webhook) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "webhook-secret",
			Usage:       "Shared secret of the Help Scout dynamic app",
			Category:    "Webhook",
			Sources:     cli.EnvVars("TONECHECK_WEBHOOK_SECRET", "HELPSCOUT_WEBHOOK_SECRET", "HELPSCOUT_SECRET"),
			Destination: &x.secret,
		},
		&cli.BoolFlag{
			Name:        "disable-signature-validation",
			Usage:       "Accept webhooks without verifying the signature (development only)",
			Category:    "Webhook",
			Sources:     cli.EnvVars("TONECHECK_DISABLE_SIGNATURE_VALIDATION", "DISABLE_SIGNATURE_VALIDATION"),
			Destination: &x.disableValidation,
		},
	}
}

func (x Webhook) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("secret.len", len(x.secret)),
		slog.Bool("disable_validation", x.disableValidation),
	)
}

// Configure returns the signature verifier. A missing secret is not an error:
// every webhook is then rejected, which is logged loudly.
func (x *Webhook) Configure(ctx context.Context) *httpctrl.SignatureVerifier {
	logger := logging.From(ctx)
	switch {
	case x.disableValidation:
		logger.Warn("webhook signature validation is DISABLED, never use this in production")
	case x.secret == "":
		logger.Error("webhook secret is not configured, all webhook requests will be rejected")
	}
	return httpctrl.NewSignatureVerifier(x.secret, x.disableValidation)
}

// HasSecret reports whether a shared secret is set
func (x *Webhook) HasSecret() bool {
	return x.secret != ""
}

// ValidationDisabled reports whether signature validation is turned off
func (x *Webhook) ValidationDisabled() bool {
	return x.disableValidation
}
