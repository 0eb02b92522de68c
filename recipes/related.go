package recipes

import (
	"context"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"

	"feastfleet/models"
)

var (
	queryNoise      = regexp.MustCompile(`(?i)recipe|how to|make|prepare|cook`)
	relatedCuisines = []string{"Italian", "Mexican", "Indian", "Thai", "Mediterranean"}
	// desserts and raita are not stripped from related queries
	relatedIndianTerms = indianTerms[:18]
	popularIndian      = []string{"butter chicken", "chicken tikka masala", "vegetable biryani",
		"paneer tikka", "aloo gobi", "palak paneer", "chicken korma", "chana masala", "dal makhani"}
)

// RelatedQueries derives alternative searches from query, in no particular order.
func RelatedQueries(query string) []string {
	core := cleanText(queryNoise.ReplaceAllString(query, ""))
	var out []string

	switch {
	case isIndianQuery(query, relatedIndianTerms):
		main := strings.ToLower(core)
		for _, t := range relatedIndianTerms {
			main = strings.ReplaceAll(main, t, "")
		}
		main = cleanText(main)
		if main == "" {
			out = append(out, popularIndian...)
			break
		}
		for _, f := range []string{"%s curry", "%s masala", "%s korma", "%s tikka", "%s biryani",
			"tandoori %s", "%s paratha", "%s with rice", "%s sabzi"} {
			out = append(out, fmt.Sprintf(f, main))
		}
	case len(strings.Fields(core)) <= 2:
		for _, f := range []string{"%s pasta", "%s soup", "%s salad", "%s curry", "grilled %s",
			"roasted %s", "%s stir fry", "%s with rice", "%s casserole"} {
			out = append(out, fmt.Sprintf(f, core))
		}
	default:
		for _, c := range relatedCuisines {
			out = append(out, c+" "+core)
		}
	}

	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Related runs the top hit of each derived query until limit distinct
// recipes (by name) are found.
func (s *Scraper) Related(ctx context.Context, query string, limit int) []models.RecipeSummary {
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}
	out := []models.RecipeSummary{}
	seen := map[string]bool{}
	for _, q := range RelatedQueries(query) {
		if len(out) >= limit || ctx.Err() != nil {
			break
		}
		for _, r := range s.Search(ctx, q, 1) {
			if len(out) >= limit {
				break
			}
			if !seen[r.Name] {
				seen[r.Name] = true
				out = append(out, r)
			}
		}
	}
	return out
}
