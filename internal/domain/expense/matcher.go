package expense

import (
	"sort"
	"strings"

	"github.com/cloudflare/ahocorasick"
	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// MatchCategoriesContaining returns the IDs of the categories whose name
// contains needle, case-insensitive. The needle is compiled into an
// Aho-Corasick matcher once and run over every candidate name.
func MatchCategoriesContaining(categories []Category, needle string) []uuid.UUID {
	needle = strings.ToUpper(strings.TrimSpace(needle))
	if needle == "" || len(categories) == 0 {
		return nil
	}

	matcher := ahocorasick.NewMatcher([][]byte{[]byte(needle)})

	var ids []uuid.UUID
	for _, c := range categories {
		if len(matcher.Match([]byte(strings.ToUpper(c.Name)))) > 0 {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// CategorySuggestion is a fuzzy category-name match with its rank distance.
type CategorySuggestion struct {
	Category Category
	Distance int // Levenshtein distance, lower is closer
}

// SuggestCategories ranks the user's categories against a free-form query
// using fuzzy matching. Useful for typo-tolerant category pickers; the
// conversational query path deliberately does not use it (exact contains
// semantics only).
func SuggestCategories(categories []Category, query string, limit int) []CategorySuggestion {
	query = strings.TrimSpace(query)
	if query == "" || len(categories) == 0 {
		return nil
	}

	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name
	}

	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Sort(ranks)

	suggestions := make([]CategorySuggestion, 0, len(ranks))
	for _, r := range ranks {
		suggestions = append(suggestions, CategorySuggestion{
			Category: categories[r.OriginalIndex],
			Distance: r.Distance,
		})
		if limit > 0 && len(suggestions) >= limit {
			break
		}
	}
	return suggestions
}
