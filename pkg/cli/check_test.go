package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/m-mizutani/gt"
	"github.com/urfave/cli/v3"

	tcli "github.com/secmon-lab/tonecheck/pkg/cli"
	"github.com/secmon-lab/tonecheck/pkg/cli/config"
)

// parseFlags runs a throwaway command so that flag defaults and values land in
// the config structs.
func parseFlags(t *testing.T, flags []cli.Flag, args ...string) {
	t.Helper()
	cmd := &cli.Command{
		Name:   "test",
		Flags:  flags,
		Action: func(context.Context, *cli.Command) error { return nil },
	}
	gt.NoError(t, cmd.Run(t.Context(), append([]string{"test"}, args...))).Required()
}

func TestPrintCheckReport(t *testing.T) {
	color.NoColor = true

	t.Run("all passing", func(t *testing.T) {
		var buf bytes.Buffer
		failed := tcli.PrintCheckReport(&buf, []tcli.CheckResult{
			tcli.NewCheckResult("server", tcli.CheckOK, "listening on :3000"),
			tcli.NewCheckResult("help scout", tcli.CheckWarn, "no credentials"),
		})
		gt.Number(t, failed).Equal(0)
		gt.String(t, buf.String()).Contains("[ OK ] server")
		gt.String(t, buf.String()).Contains("[WARN] help scout")
		gt.String(t, buf.String()).Contains("ready to serve")
	})

	t.Run("failures are counted", func(t *testing.T) {
		var buf bytes.Buffer
		failed := tcli.PrintCheckReport(&buf, []tcli.CheckResult{
			tcli.NewCheckResult("webhook signature", tcli.CheckFail, "no secret"),
			tcli.NewCheckResult("ledger", tcli.CheckFail, "missing google-sheet-id"),
		})
		gt.Number(t, failed).Equal(2)
		gt.String(t, buf.String()).Contains("[FAIL] ledger")
		gt.String(t, buf.String()).Contains("2 check(s) failed")
		gt.String(t, buf.String()).NotContains("ready to serve")
	})
}

func TestCheckLedger(t *testing.T) {
	t.Run("memory backend is reachable", func(t *testing.T) {
		var cfg config.Ledger
		parseFlags(t, cfg.Flags(), "--ledger-backend", "memory")

		r := tcli.CheckLedger(t.Context(), &cfg)
		gt.Value(t, r.Level()).Equal(tcli.CheckOK)
		gt.String(t, r.Detail()).Equal("memory")
	})

	t.Run("sheets without credentials fails", func(t *testing.T) {
		var cfg config.Ledger
		parseFlags(t, cfg.Flags(), "--ledger-backend", "sheets", "--google-sheet-id", "sheet-1")

		r := tcli.CheckLedger(t.Context(), &cfg)
		gt.Value(t, r.Level()).Equal(tcli.CheckFail)
		gt.String(t, r.Detail()).Contains("google-service-account-email")
	})
}

func TestCheckServer(t *testing.T) {
	t.Run("defaults pass", func(t *testing.T) {
		var cfg config.Server
		parseFlags(t, cfg.Flags(), "--port", "8080")

		r := tcli.CheckServer(&cfg)
		gt.Value(t, r.Level()).Equal(tcli.CheckOK)
		gt.String(t, r.Detail()).Equal("listening on :8080")
	})

	t.Run("missing rules file fails", func(t *testing.T) {
		var cfg config.Server
		parseFlags(t, cfg.Flags(), "--classifier-rules", filepath.Join(t.TempDir(), "none.toml"))

		r := tcli.CheckServer(&cfg)
		gt.Value(t, r.Level()).Equal(tcli.CheckFail)
	})
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		gt.NoError(t, tcli.LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
	})

	t.Run("variables are loaded without overriding", func(t *testing.T) {
		t.Setenv("TONECHECK_TEST_KEPT", "from-env")
		t.Setenv("TONECHECK_TEST_LOADED", "")
		gt.NoError(t, os.Unsetenv("TONECHECK_TEST_LOADED"))

		path := filepath.Join(t.TempDir(), ".env")
		gt.NoError(t, os.WriteFile(path, []byte("TONECHECK_TEST_KEPT=from-file\nTONECHECK_TEST_LOADED=loaded\n"), 0o600)).Required()

		gt.NoError(t, tcli.LoadDotEnv(path)).Required()
		gt.String(t, os.Getenv("TONECHECK_TEST_KEPT")).Equal("from-env")
		gt.String(t, os.Getenv("TONECHECK_TEST_LOADED")).Equal("loaded")
	})
}
