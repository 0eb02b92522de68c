package models

// RecipeSummary is one search hit from a recipe site. Every field except
// Name and URL may be empty depending on the source.
type RecipeSummary struct {
	Name            string  `json:"name"`
	URL             string  `json:"url"`
	Image           string  `json:"image,omitempty"`
	Rating          string  `json:"rating,omitempty"`
	Reviews         string  `json:"reviews,omitempty"`
	Likes           string  `json:"likes,omitempty"`
	Source          string  `json:"source,omitempty"`
	PopularityScore float64 `json:"popularity_score"`
}

type RecipeRatings struct {
	Stars   string `json:"stars,omitempty"`
	Reviews string `json:"reviews,omitempty"`
}

// RecipeDetails is the scraped content of a single recipe page
type RecipeDetails struct {
	URL          string        `json:"url"`
	Name         string        `json:"name,omitempty"`
	Ingredients  []string      `json:"ingredients"`
	Instructions []string      `json:"instructions"`
	Ratings      RecipeRatings `json:"ratings"`
	CookingTime  string        `json:"cooking_time"`
}

// Video is an entry in the curated recipe video catalog
type Video struct {
	Title     string `json:"title"`
	VideoID   string `json:"video_id"`
	Channel   string `json:"channel"`
	Duration  string `json:"duration"`
	Views     string `json:"views"`
	URL       string `json:"url,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
	EmbedURL  string `json:"embed_url,omitempty"`
}
