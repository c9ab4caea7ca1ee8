package config

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/tonecheck/pkg/service/dedup"
	"github.com/secmon-lab/tonecheck/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Server holds the HTTP listener and evaluation pipeline settings
type Server struct {
	port            int
	requestTimeout  time.Duration
	engineTimeout   time.Duration
	cacheSize       int
	cacheTTL        time.Duration
	maxEvaluations  int
	classifierRules string
}

func (x *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "port",
			Aliases:     []string{"p"},
			Usage:       "HTTP listen port",
			Value:       3000,
			Sources:     cli.EnvVars("TONECHECK_PORT", "PORT"),
			Destination: &x.port,
		},
		&cli.DurationFlag{
			Name:        "request-timeout",
			Usage:       "Deadline for handling one webhook request",
			Value:       30 * time.Second,
			Sources:     cli.EnvVars("TONECHECK_REQUEST_TIMEOUT"),
			Destination: &x.requestTimeout,
		},
		&cli.DurationFlag{
			Name:        "engine-timeout",
			Usage:       "Deadline for one evaluation engine call",
			Value:       usecase.DefaultEngineTimeout,
			Sources:     cli.EnvVars("TONECHECK_ENGINE_TIMEOUT"),
			Destination: &x.engineTimeout,
		},
		&cli.IntFlag{
			Name:        "cache-size",
			Usage:       "Maximum number of scorecards kept in memory",
			Value:       dedup.DefaultMaxEntries,
			Sources:     cli.EnvVars("TONECHECK_CACHE_SIZE"),
			Destination: &x.cacheSize,
		},
		&cli.DurationFlag{
			Name:        "cache-ttl",
			Usage:       "How long an unread scorecard stays in memory",
			Value:       dedup.DefaultTTL,
			Sources:     cli.EnvVars("TONECHECK_CACHE_TTL"),
			Destination: &x.cacheTTL,
		},
		&cli.IntFlag{
			Name:        "max-evaluations",
			Usage:       "Maximum concurrent evaluation engine calls",
			Value:       usecase.DefaultMaxEvaluations,
			Sources:     cli.EnvVars("TONECHECK_MAX_EVALUATIONS"),
			Destination: &x.maxEvaluations,
		},
		&cli.StringFlag{
			Name:        "classifier-rules",
			Usage:       "TOML file overriding the built-in ticket classifier rules",
			Sources:     cli.EnvVars("TONECHECK_CLASSIFIER_RULES"),
			Destination: &x.classifierRules,
		},
	}
}

func (x *Server) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.Int("port", x.port),
		slog.String("request_timeout", x.requestTimeout.String()),
		slog.String("engine_timeout", x.engineTimeout.String()),
		slog.Int("cache_size", x.cacheSize),
		slog.String("cache_ttl", x.cacheTTL.String()),
		slog.Int("max_evaluations", x.maxEvaluations),
		slog.String("classifier_rules", x.classifierRules),
	}
}

// Validate checks numeric settings
func (x *Server) Validate() error {
	if x.port <= 0 || x.port > 65535 {
		return goerr.Wrap(ErrInvalidConfig, "port out of range", goerr.V(FlagKey, "port"), goerr.V("value", x.port))
	}
	for name, d := range map[string]time.Duration{
		"request-timeout": x.requestTimeout,
		"engine-timeout":  x.engineTimeout,
		"cache-ttl":       x.cacheTTL,
	} {
		if d <= 0 {
			return goerr.Wrap(ErrInvalidConfig, "duration must be positive", goerr.V(FlagKey, name), goerr.V("value", d.String()))
		}
	}
	if x.cacheSize <= 0 {
		return goerr.Wrap(ErrInvalidConfig, "cache size must be positive", goerr.V(FlagKey, "cache-size"))
	}
	if x.maxEvaluations <= 0 {
		return goerr.Wrap(ErrInvalidConfig, "max evaluations must be positive", goerr.V(FlagKey, "max-evaluations"))
	}
	return nil
}

// Addr returns the listen address
func (x *Server) Addr() string {
	return ":" + strconv.Itoa(x.port)
}

func (x *Server) RequestTimeout() time.Duration {
	return x.requestTimeout
}

// Coordinator creates the process-wide dedup coordinator
func (x *Server) Coordinator() *dedup.Coordinator {
	return dedup.New(dedup.WithMaxEntries(x.cacheSize), dedup.WithTTL(x.cacheTTL))
}

// UseCaseOptions returns the evaluation pipeline options, loading the
// classifier rules file when one is set
func (x *Server) UseCaseOptions() ([]usecase.Option, error) {
	opts := []usecase.Option{
		usecase.WithEngineTimeout(x.engineTimeout),
		usecase.WithMaxEvaluations(int64(x.maxEvaluations)),
	}
	if x.classifierRules != "" {
		rules, err := usecase.LoadClassifierRules(x.classifierRules)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to load classifier rules", goerr.V(FlagKey, "classifier-rules"))
		}
		opts = append(opts, usecase.WithClassifierRules(rules))
	}
	return opts, nil
}
