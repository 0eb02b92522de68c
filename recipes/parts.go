package recipes

import (
	"regexp"
	"strings"
)

// Parts is what can be recovered from the plain text of a recipe page
type Parts struct {
	Name         string   `json:"name"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	PrepTime     string   `json:"prep_time"`
	CookTime     string   `json:"cook_time"`
	Servings     string   `json:"servings"`
	Calories     string   `json:"calories"`
	CuisineType  string   `json:"cuisine_type"`
}

const stepHeadings = `Directions|DIRECTIONS|Instructions|INSTRUCTIONS|Method|STEPS|Steps|Preparation`

var (
	whitespace         = regexp.MustCompile(`\s+`)
	ingredientsSection = regexp.MustCompile(`(?s)(?:Ingredients|INGREDIENTS)[:\s]+(.+?)(?:` + stepHeadings + `)`)
	stepsSection       = regexp.MustCompile(`(?s)(?:` + stepHeadings + `)[:\s]+(.+)`)
	ingredientBreak    = regexp.MustCompile(`\n|•|\*`)
	stepMarker         = regexp.MustCompile(`(?m)(?:Step\s*\d+[:.]?|^\d+[:.)])`)
	blankLines         = regexp.MustCompile(`\n\n+`)

	prepTime = regexp.MustCompile(`(?i)(?:Prep[aration]*\s*Time|Prep)[:\s]+([^\n.]+)`)
	cookTime = regexp.MustCompile(`(?i)(?:Cook[ing]*\s*Time|Cook)[:\s]+([^\n.]+)`)
	servings = regexp.MustCompile(`(?i)(?:Servings|Serves|Yield)[:\s]+([^\n.]+)`)
	calories = regexp.MustCompile(`(?i)(?:Calories|Kcal)[:\s]+([^\n.]+)`)
)

type cuisinePattern struct {
	name string
	re   *regexp.Regexp
}

var cuisinePatterns = func() []cuisinePattern {
	names := []string{"Italian", "Mexican", "Chinese", "Indian", "French", "Thai",
		"Japanese", "Greek", "Spanish", "Lebanese", "Korean", "Vietnamese",
		"American", "Mediterranean", "Turkish"}
	out := make([]cuisinePattern, len(names))
	for i, n := range names {
		out[i] = cuisinePattern{name: n, re: regexp.MustCompile(`(?i)\b` + n + `\b`)}
	}
	return out
}()

func cleanText(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// ExtractParts pulls a recipe out of page text. Every field is optional.
func ExtractParts(text string) Parts {
	p := Parts{Ingredients: []string{}, Instructions: []string{}}

	first, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	first, _, _ = strings.Cut(first, ".")
	p.Name = strings.TrimSpace(first)

	if m := ingredientsSection.FindStringSubmatch(text); m != nil {
		for _, item := range ingredientBreak.Split(strings.TrimSpace(m[1]), -1) {
			item = cleanText(strings.TrimLeft(strings.TrimSpace(item), "-"))
			if item != "" {
				p.Ingredients = append(p.Ingredients, item)
			}
		}
	}

	if m := stepsSection.FindStringSubmatch(text); m != nil {
		p.Instructions = splitSteps(strings.TrimSpace(m[1]))
	}

	p.PrepTime = firstGroup(prepTime, text)
	p.CookTime = firstGroup(cookTime, text)
	p.Servings = firstGroup(servings, text)
	p.Calories = firstGroup(calories, text)

	for _, c := range cuisinePatterns {
		if c.re.MatchString(text) {
			p.CuisineType = c.name
			break
		}
	}
	return p
}

// splitSteps prefers numbered steps ("Step 2:", "3."), each running to the
// next marker or the end of its line; then blank-line paragraphs; then the
// whole text as one step.
func splitSteps(text string) []string {
	var steps []string
	marks := stepMarker.FindAllStringIndex(text, -1)
	for i, m := range marks {
		end := len(text)
		if i+1 < len(marks) {
			end = marks[i+1][0]
		}
		body, _, _ := strings.Cut(text[m[1]:end], "\n")
		if body = cleanText(body); body != "" {
			steps = append(steps, body)
		}
	}
	if len(steps) > 0 {
		return steps
	}
	for _, para := range blankLines.Split(text, -1) {
		if para = cleanText(para); para != "" {
			steps = append(steps, para)
		}
	}
	if len(steps) > 0 {
		return steps
	}
	if whole := cleanText(text); whole != "" {
		return []string{whole}
	}
	return []string{}
}

func firstGroup(re *regexp.Regexp, text string) string {
	if m := re.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// Difficulty grades a recipe by how much there is to it
func Difficulty(ingredients, steps int) string {
	switch {
	case ingredients <= 5 && steps <= 3:
		return "Easy"
	case ingredients <= 10 && steps <= 7:
		return "Medium"
	default:
		return "Hard"
	}
}
