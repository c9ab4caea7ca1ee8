package cli

import (
	"context"
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/tonecheck/pkg/cli/config"
	"github.com/secmon-lab/tonecheck/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const dotEnvFile = ".env"

func Run(ctx context.Context, args []string, version string) error {
	var loggerCfg config.Logger
	var closer func()

	// Environment variables are read while parsing flags, so .env must be
	// loaded before the command runs. Existing variables take precedence.
	if err := loadDotEnv(dotEnvFile); err != nil {
		logging.Default().Error("failed to load .env", "error", err)
		return err
	}

	app := &cli.Command{
		Name:    "tonecheck",
		Usage:   "Tone scorecard for Help Scout support replies",
		Version: version,
		Flags:   loggerCfg.Flags(),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			f, err := loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closer = f

			logging.Default().Info("Starting tonecheck", "version", version, "logger", loggerCfg)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if closer != nil {
				closer()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdServe(version),
			cmdMigrate(),
			cmdCheck(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		logging.Default().Error("failed to run app", "error", err)
		return err
	}

	return nil
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return goerr.Wrap(err, "failed to parse env file", goerr.V("path", path))
	}
	return nil
}
