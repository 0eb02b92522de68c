package ai

import (
	"fmt"
	"strings"
)

const recipeShape = `{
    "name": "%s",
    "cuisine": "Cuisine Type",
    "dietary_info": "Dietary information if any",
    "ingredients": ["ingredient 1 with quantity", "ingredient 2 with quantity", ...],
    "instructions": ["step 1", "step 2", ...],
    "cooking_time": "Time in minutes",
    "servings": Number of servings,
    "difficulty": "Easy/Medium/Hard",
    "nutritional_info": {
        "calories": "X kcal",
        "protein": "X g",
        "carbs": "X g",
        "fat": "X g"
    },
    "related_recipes": [
        {
            "name": "Related Recipe 1",
            "description": "Brief description",
            "cooking_time": "Time in minutes",
            "main_ingredients": ["ingredient 1", "ingredient 2", ...],
            "difficulty": "Easy/Medium/Hard"
        }
    ]
}`

func scanPrompt(documentType string) string {
	return fmt.Sprintf(`Extract all relevant information from this %s document image.
Analyze the image carefully and identify all key fields, values, and data points.

Format the response as a detailed JSON object with appropriate field names and values.
Include all information visible in the document such as names, dates, numbers, addresses, etc.

Return ONLY the JSON response without any additional text or explanations.`, documentType)
}

// cuisineOr maps the UI's "Any" (or nothing) to fallback
func cuisineOr(cuisine, fallback string) string {
	if cuisine == "" || cuisine == "Any" {
		return fallback
	}
	return cuisine
}

func dietClause(diet string) string {
	if diet == "" || diet == "None" {
		return ""
	}
	return fmt.Sprintf("suitable for %s diet", diet)
}

func recipeByNamePrompt(name, cuisine, diet string) string {
	return fmt.Sprintf(`Create a detailed recipe for "%s".
Make it an authentic %s style recipe.
%s

The recipe should include:
1. Complete list of ingredients with measurements
2. Step-by-step cooking instructions
3. Cooking time, difficulty level, and number of servings
4. Nutritional information (calories, protein, carbs, fat)
5. Also suggest 2-3 variations or related recipes

Return the response in valid JSON format with the following structure:
%s`, name, cuisineOr(cuisine, "traditional"), dietClause(diet), fmt.Sprintf(recipeShape, name))
}

func recipeByIngredientsPrompt(ingredients []string, cuisine, diet string) string {
	return fmt.Sprintf(`Create a detailed recipe using these ingredients: %s.
Cuisine type: %s.
%s

The recipe should include:
1. A creative name for the dish
2. Complete list of ingredients with measurements
3. Step-by-step cooking instructions
4. Cooking time, difficulty level, and number of servings
5. Nutritional information (calories, protein, carbs, fat)
6. Also suggest 2-3 variations or related recipes using similar ingredients

Return the response in valid JSON format with the following structure:
%s`, strings.Join(ingredients, ", "), cuisineOr(cuisine, "any cuisine"), dietClause(diet), fmt.Sprintf(recipeShape, "Recipe Name"))
}

func relatedPrompt(mainIngredients []string, cuisine, diet string) string {
	if len(mainIngredients) > 3 {
		mainIngredients = mainIngredients[:3]
	}
	return fmt.Sprintf(`Generate 2-3 related recipe suggestions based on these main ingredients: %s.
Consider %s cuisine style.
%s

Return the response in valid JSON format as an array of recipe objects with this structure:
[
    {
        "name": "Related Recipe Name",
        "description": "Brief description (1-2 sentences)",
        "cooking_time": "Time in minutes",
        "main_ingredients": ["ingredient 1", "ingredient 2", ...],
        "difficulty": "Easy/Medium/Hard"
    }
]`, strings.Join(mainIngredients, ", "), cuisineOr(cuisine, "any cuisine"), dietClause(diet))
}
