package usecase

// BuildContextWindow is exported for testing
var BuildContextWindow = buildContextWindow

// BuildResult is exported for testing
var BuildResult = buildResult

// BuildEvaluationPrompt is exported for testing
var BuildEvaluationPrompt = buildEvaluationPrompt

// CleanImprovements is exported for testing
var CleanImprovements = cleanImprovements
