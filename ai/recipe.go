package ai

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

type NutritionalInfo struct {
	Calories string `json:"calories"`
	Protein  string `json:"protein"`
	Carbs    string `json:"carbs"`
	Fat      string `json:"fat"`
}

type RelatedRecipe struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	CookingTime     string   `json:"cooking_time"`
	MainIngredients []string `json:"main_ingredients"`
	Difficulty      string   `json:"difficulty"`
}

// Recipe is what the model is asked to return. Servings is left loose
// because the model answers with either a number or a string.
type Recipe struct {
	Name            string          `json:"name"`
	Cuisine         string          `json:"cuisine"`
	DietaryInfo     string          `json:"dietary_info"`
	Ingredients     []string        `json:"ingredients"`
	Instructions    []string        `json:"instructions"`
	CookingTime     string          `json:"cooking_time"`
	Servings        any             `json:"servings"`
	Difficulty      string          `json:"difficulty"`
	NutritionalInfo NutritionalInfo `json:"nutritional_info"`
	RelatedRecipes  []RelatedRecipe `json:"related_recipes"`
}

// ErrNoJSON is returned by ExtractJSON when no strategy yields valid JSON
var ErrNoJSON = errors.New("could not extract valid JSON from AI response")

var fencedJSON = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// ExtractJSON decodes the JSON in a model answer into v, trying in order:
// the whole text, the first fenced code block, then the span from the first
// '{' to the last '}'.
func ExtractJSON(text string, v any) error {
	if json.Unmarshal([]byte(text), v) == nil {
		return nil
	}
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		if json.Unmarshal([]byte(m[1]), v) == nil {
			return nil
		}
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if json.Unmarshal([]byte(text[start:end+1]), v) == nil {
			return nil
		}
	}
	return ErrNoJSON
}
