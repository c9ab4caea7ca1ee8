package types

import "fmt"

// CategoryID identifies one scored dimension of an agent reply
type CategoryID string

const (
	CategoryToneEmpathy         CategoryID = "tone_empathy"
	CategoryClarityCompleteness CategoryID = "clarity_completeness"
	CategoryStandardOfEnglish   CategoryID = "standard_of_english"
	CategoryProblemResolution   CategoryID = "problem_resolution"
)

// AllCategories returns every scored category in ledger column order
func AllCategories() []CategoryID {
	return []CategoryID{
		CategoryToneEmpathy,
		CategoryClarityCompleteness,
		CategoryStandardOfEnglish,
		CategoryProblemResolution,
	}
}

// IsValid checks if the category is one of the fixed set
func (c CategoryID) IsValid() bool {
	switch c {
	case CategoryToneEmpathy,
		CategoryClarityCompleteness,
		CategoryStandardOfEnglish,
		CategoryProblemResolution:
		return true
	default:
		return false
	}
}

// Label returns a human readable name for scorecards
func (c CategoryID) Label() string {
	switch c {
	case CategoryToneEmpathy:
		return "Tone & Empathy"
	case CategoryClarityCompleteness:
		return "Clarity & Completeness"
	case CategoryStandardOfEnglish:
		return "Standard of English"
	case CategoryProblemResolution:
		return "Problem Resolution"
	default:
		return string(c)
	}
}

// String returns the string representation of CategoryID
func (c CategoryID) String() string {
	return string(c)
}

// ParseCategoryID parses a string into a CategoryID
func ParseCategoryID(s string) (CategoryID, error) {
	c := CategoryID(s)
	if !c.IsValid() {
		return "", fmt.Errorf("invalid category: %s", s)
	}
	return c, nil
}

const (
	// MinScore is the lowest score a category or the overall result can hold
	MinScore = 1
	// MaxScore is the highest score a category or the overall result can hold
	MaxScore = 10
)

// ClampScore bounds v to [MinScore, MaxScore]
func ClampScore(v int) int {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}
