package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/tonecheck/pkg/cli/config"
	"github.com/secmon-lab/tonecheck/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const checkPingTimeout = 10 * time.Second

type checkLevel int

const (
	checkOK checkLevel = iota
	checkWarn
	checkFail
)

type checkResult struct {
	name   string
	level  checkLevel
	detail string
}

func cmdCheck() *cli.Command {
	var serverCfg config.Server
	var webhookCfg config.Webhook
	var helpscoutCfg config.HelpScout
	var engineCfg config.Engine
	var ledgerCfg config.Ledger

	var flags []cli.Flag
	flags = append(flags, serverCfg.Flags()...)
	flags = append(flags, webhookCfg.Flags()...)
	flags = append(flags, helpscoutCfg.Flags()...)
	flags = append(flags, engineCfg.Flags()...)
	flags = append(flags, ledgerCfg.Flags()...)

	return &cli.Command{
		Name:    "check",
		Aliases: []string{"c"},
		Usage:   "Report whether the configuration is ready to serve",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = logging.With(ctx, logging.Default())

			results := []checkResult{
				checkServer(&serverCfg),
				checkWebhook(&webhookCfg),
				checkHelpScout(&helpscoutCfg),
				checkEngine(ctx, &engineCfg),
				checkLedger(ctx, &ledgerCfg),
			}

			if failed := printCheckReport(color.Output, results); failed > 0 {
				return goerr.New("configuration is not ready", goerr.V("failed", failed))
			}
			return nil
		},
	}
}

func checkServer(cfg *config.Server) checkResult {
	r := checkResult{name: "server"}
	if err := cfg.Validate(); err != nil {
		r.level, r.detail = checkFail, err.Error()
		return r
	}
	if _, err := cfg.UseCaseOptions(); err != nil {
		r.level, r.detail = checkFail, err.Error()
		return r
	}
	r.detail = "listening on " + cfg.Addr()
	return r
}

func checkWebhook(cfg *config.Webhook) checkResult {
	r := checkResult{name: "webhook signature"}
	switch {
	case cfg.ValidationDisabled():
		r.level, r.detail = checkWarn, "validation disabled, development only"
	case !cfg.HasSecret():
		r.level, r.detail = checkFail, "no secret, every webhook would be rejected"
	default:
		r.detail = "secret configured"
	}
	return r
}

func checkHelpScout(cfg *config.HelpScout) checkResult {
	r := checkResult{name: "help scout"}
	if !cfg.Configure().Configured() {
		r.level, r.detail = checkWarn, "no credentials, webhooks would get a notice"
		return r
	}
	r.detail = "credentials configured"
	return r
}

func checkEngine(ctx context.Context, cfg *config.Engine) checkResult {
	r := checkResult{name: "evaluation engine"}
	engine, err := cfg.Configure(ctx)
	switch {
	case err != nil:
		r.level, r.detail = checkFail, err.Error()
	case engine == nil:
		r.level, r.detail = checkWarn, cfg.Kind()+" has no credentials, webhooks would get a notice"
	default:
		r.detail = cfg.Kind()
	}
	return r
}

func checkLedger(ctx context.Context, cfg *config.Ledger) checkResult {
	r := checkResult{name: "ledger"}
	if missing := cfg.Missing(); len(missing) > 0 {
		r.level, r.detail = checkFail, "missing "+strings.Join(missing, ", ")
		return r
	}

	repo, err := cfg.Configure(ctx)
	if err != nil {
		r.level, r.detail = checkFail, err.Error()
		return r
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logging.From(ctx).Warn("failed to close ledger", "error", err)
		}
	}()

	pingCtx, cancel := context.WithTimeout(ctx, checkPingTimeout)
	defer cancel()
	if err := repo.Ping(pingCtx); err != nil {
		r.level, r.detail = checkFail, cfg.Backend()+" unreachable: "+err.Error()
		return r
	}

	r.detail = cfg.Backend()
	if u := repo.URL(); u != "" {
		r.detail += " " + u
	}
	return r
}

// printCheckReport writes one line per result and returns the number of failures
func printCheckReport(w io.Writer, results []checkResult) int {
	ok := color.New(color.FgGreen, color.Bold)
	warn := color.New(color.FgYellow, color.Bold)
	fail := color.New(color.FgRed, color.Bold)
	name := color.New(color.Bold)

	failed := 0
	for _, r := range results {
		switch r.level {
		case checkOK:
			_, _ = ok.Fprint(w, "[ OK ] ")
		case checkWarn:
			_, _ = warn.Fprint(w, "[WARN] ")
		default:
			_, _ = fail.Fprint(w, "[FAIL] ")
			failed++
		}
		_, _ = name.Fprintf(w, "%-18s", r.name)
		_, _ = fmt.Fprintln(w, r.detail)
	}

	if failed > 0 {
		_, _ = fail.Fprintf(w, "\n%d check(s) failed\n", failed)
	} else {
		_, _ = ok.Fprintln(w, "\nready to serve")
	}
	return failed
}
