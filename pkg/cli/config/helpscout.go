package config

import (
	"log/slog"

	"github.com/secmon-lab/tonecheck/pkg/service/helpscout"
	"github.com/urfave/cli/v3"
)

// HelpScout holds Help Scout API credentials
type HelpScout struct {
	appID       string
	appSecret   string
	accessToken string
}

func (x *HelpScout) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "helpscout-app-id",
			Usage:       "Help Scout OAuth2 application ID",
			Category:    "Help Scout",
			Sources:     cli.EnvVars("TONECHECK_HELPSCOUT_APP_ID", "HELPSCOUT_APP_ID"),
			Destination: &x.appID,
		},
		&cli.StringFlag{
			Name:        "helpscout-app-secret",
			Usage:       "Help Scout OAuth2 application secret",
			Category:    "Help Scout",
			Sources:     cli.EnvVars("TONECHECK_HELPSCOUT_APP_SECRET", "HELPSCOUT_APP_SECRET"),
			Destination: &x.appSecret,
		},
		&cli.StringFlag{
			Name:        "helpscout-access-token",
			Usage:       "Static Help Scout access token, used instead of the app credentials",
			Category:    "Help Scout",
			Sources:     cli.EnvVars("TONECHECK_HELPSCOUT_ACCESS_TOKEN", "HELPSCOUT_ACCESS_TOKEN"),
			Destination: &x.accessToken,
		},
	}
}

func (x HelpScout) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("app-id.len", len(x.appID)),
		slog.Int("app-secret.len", len(x.appSecret)),
		slog.Int("access-token.len", len(x.accessToken)),
	)
}

// Configure creates the Help Scout client. It is returned even without
// credentials so that requests fail with a notice rather than at startup.
func (x *HelpScout) Configure() *helpscout.Client {
	var opts []helpscout.Option
	if x.appID != "" && x.appSecret != "" {
		opts = append(opts, helpscout.WithClientCredentials(x.appID, x.appSecret))
	}
	if x.accessToken != "" {
		opts = append(opts, helpscout.WithAccessToken(x.accessToken))
	}
	return helpscout.New(opts...)
}
