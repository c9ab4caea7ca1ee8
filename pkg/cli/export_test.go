package cli

import (
	"context"
	"io"

	"github.com/secmon-lab/tonecheck/pkg/cli/config"
)

type CheckResult = checkResult

const (
	CheckOK   = checkOK
	CheckWarn = checkWarn
	CheckFail = checkFail
)

func NewCheckResult(name string, level checkLevel, detail string) CheckResult {
	return checkResult{name: name, level: level, detail: detail}
}

func (r CheckResult) Level() checkLevel {
	return r.level
}

func (r CheckResult) Detail() string {
	return r.detail
}

func PrintCheckReport(w io.Writer, results []CheckResult) int {
	return printCheckReport(w, results)
}

func CheckLedger(ctx context.Context, cfg *config.Ledger) CheckResult {
	return checkLedger(ctx, cfg)
}

func CheckServer(cfg *config.Server) CheckResult {
	return checkServer(cfg)
}

var LoadDotEnv = loadDotEnv
