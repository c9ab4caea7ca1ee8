package config

import "time"

// NewGeminiForTest creates a Gemini config for testing purposes
func NewGeminiForTest(projectID, location, model string) *Gemini {
	return &Gemini{
		projectID: projectID,
		location:  location,
		model:     model,
	}
}

// NewServerForTest creates a Server config for testing purposes
func NewServerForTest(port int, cacheSize, maxEvaluations int, ttl time.Duration, rulesPath string) *Server {
	return &Server{
		port:            port,
		requestTimeout:  30 * time.Second,
		engineTimeout:   60 * time.Second,
		cacheSize:       cacheSize,
		cacheTTL:        ttl,
		maxEvaluations:  maxEvaluations,
		classifierRules: rulesPath,
	}
}

// NewEngineForTest creates an Engine config for testing purposes
func NewEngineForTest(kind, openaiAPIKey string) *Engine {
	return &Engine{
		kind:             kind,
		openaiAPIKey:     openaiAPIKey,
		openaiModel:      "gpt-5-mini",
		openaiMaxTokens:  1000,
		openaiStructured: true,
	}
}

// NewLedgerForTest creates a Ledger config for testing purposes
func NewLedgerForTest(backend, sheetID, email, privateKey, projectID string) *Ledger {
	return &Ledger{
		backend:             backend,
		sheetID:             sheetID,
		serviceAccountEmail: email,
		privateKey:          privateKey,
		sheetName:           "Sheet1",
		projectID:           projectID,
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}

// ParseLogLevel is exported for testing
var ParseLogLevel = parseLogLevel
