// Package chat implements the conversational expense interpreter: it turns
// the assistant's template-constrained replies into structured intents and
// executes them against the expense domain.
package chat

import (
	"regexp"
	"strings"
)

// Intent identifies which template family the assistant's reply matched.
type Intent int

const (
	// IntentUnclassified means the reply matched neither template family.
	// It is not an error: the reply is a general conversational answer and
	// passes through to the user verbatim.
	IntentUnclassified Intent = iota
	// IntentExpenseCreation means the reply confirms a recorded expense.
	IntentExpenseCreation
	// IntentExpenseQuery means the reply is a spending question template.
	IntentExpenseQuery
)

func (i Intent) String() string {
	switch i {
	case IntentExpenseCreation:
		return "expense_creation"
	case IntentExpenseQuery:
		return "expense_query"
	default:
		return "unclassified"
	}
}

// AllCategories is the category name used when a query carries no explicit
// category.
const AllCategories = "all categories"

// ClassifiedIntent is the structured result of classifying one reply.
// Produced transiently per conversation turn.
type ClassifiedIntent struct {
	Kind         Intent
	CategoryName string
	RawAmount    string // creation only, uncleaned
	Period       Period // query only
}

const periodAlternation = `(last week|last month|this month|this year|yesterday|today)`

var (
	// The assistant confirms expense creation with the literal phrase
	// "I've recorded your <category> expense of $<amount>". The amount run
	// may carry a single trailing "." or "!" from sentence punctuation.
	creationPattern = regexp.MustCompile(`I've recorded your (.*) expense of \$([\d.]+)[.!]?`)

	// Query phrasings, tried in fixed priority order; first match wins.
	// The amount slot in the no-category forms is non-capturing so the
	// group count alone distinguishes period-only matches.
	queryPatterns = []*regexp.Regexp{
		regexp.MustCompile(`Based on your records, you spent \$\[amount\] on (.*) ` + periodAlternation),
		regexp.MustCompile(`Based on your records, you spent \$([\d.]+|\[amount\]) on (.*) ` + periodAlternation),
		regexp.MustCompile(`Based on your records, you spent \$\[amount\] ` + periodAlternation),
		regexp.MustCompile(`Based on your records, you spent \$(?:[\d.]+|\[amount\]) ` + periodAlternation),
	}
)

// Classifier matches assistant replies against the fixed reply templates.
// The strict template matching is deliberately isolated behind this type so a
// structured-output contract could replace it without touching the model-call
// logic.
type Classifier struct{}

// NewClassifier creates a template classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify determines whether reply is an expense-creation confirmation, one
// of the query templates, or neither. The creation template takes precedence
// over the query templates.
func (c *Classifier) Classify(reply string) ClassifiedIntent {
	if m := creationPattern.FindStringSubmatch(reply); m != nil {
		return ClassifiedIntent{
			Kind:         IntentExpenseCreation,
			CategoryName: strings.TrimSpace(m[1]),
			RawAmount:    trimTrailingPunct(strings.TrimSpace(m[2])),
		}
	}

	for _, pattern := range queryPatterns {
		m := pattern.FindStringSubmatch(reply)
		if m == nil {
			continue
		}

		groups := m[1:]
		switch len(groups) {
		case 1:
			// Period-only form: no category was named.
			return ClassifiedIntent{
				Kind:         IntentExpenseQuery,
				CategoryName: AllCategories,
				Period:       periodLabels[groups[0]],
			}
		case 2:
			// Both the with-category and no-category regexes can yield two
			// groups, so the first group is disambiguated by content: if it
			// is itself a period label this is the no-category form.
			first := strings.TrimSpace(groups[0])
			if IsPeriodLabel(first) {
				return ClassifiedIntent{
					Kind:         IntentExpenseQuery,
					CategoryName: AllCategories,
					Period:       periodLabels[first],
				}
			}
			return ClassifiedIntent{
				Kind:         IntentExpenseQuery,
				CategoryName: first,
				Period:       periodLabels[strings.TrimSpace(groups[1])],
			}
		case 3:
			// Amount (numeric or placeholder), category, period.
			return ClassifiedIntent{
				Kind:         IntentExpenseQuery,
				CategoryName: strings.TrimSpace(groups[1]),
				Period:       periodLabels[strings.TrimSpace(groups[2])],
			}
		}
	}

	return ClassifiedIntent{Kind: IntentUnclassified}
}

// trimTrailingPunct drops at most one trailing "." or "!" that the greedy
// amount capture may have swallowed from sentence punctuation.
func trimTrailingPunct(s string) string {
	if strings.HasSuffix(s, ".") || strings.HasSuffix(s, "!") {
		return s[:len(s)-1]
	}
	return s
}
