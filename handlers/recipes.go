package handlers

import (
	"net/http"
	"strings"

	"feastfleet/recipes"

	"github.com/gin-gonic/gin"
)

func requiredQuery(c *gin.Context, key string) (string, bool) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter '" + key + "' is required"})
		return "", false
	}
	return v, true
}

// SearchRecipes looks the dish up on the recipe sites
func (h *Handler) SearchRecipes(c *gin.Context) {
	q, ok := requiredQuery(c, "q")
	if !ok {
		return
	}
	found := h.Recipes.Search(c.Request.Context(), q, intQuery(c, "limit", recipes.DefaultSearchLimit))
	c.JSON(http.StatusOK, gin.H{"query": q, "count": len(found), "recipes": found})
}

// RecipeDetails scrapes one recipe page from a supported site
func (h *Handler) RecipeDetails(c *gin.Context) {
	raw, ok := requiredQuery(c, "url")
	if !ok {
		return
	}
	if !h.Recipes.Allowed(raw) {
		respondError(c, recipes.ErrSiteNotAllowed)
		return
	}
	details, err := h.Recipes.Details(c.Request.Context(), raw)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipe": details})
}

// RelatedRecipes suggests other dishes close to the query
func (h *Handler) RelatedRecipes(c *gin.Context) {
	q, ok := requiredQuery(c, "q")
	if !ok {
		return
	}
	found := h.Recipes.Related(c.Request.Context(), q, intQuery(c, "limit", recipes.DefaultRelatedLimit))
	c.JSON(http.StatusOK, gin.H{"query": q, "count": len(found), "recipes": found})
}

// RecipeVideos returns curated cooking videos for the query
func (h *Handler) RecipeVideos(c *gin.Context) {
	q, ok := requiredQuery(c, "q")
	if !ok {
		return
	}
	videos := recipes.SearchVideos(q, intQuery(c, "max", recipes.DefaultMaxVideos))
	c.JSON(http.StatusOK, gin.H{"query": q, "count": len(videos), "videos": videos})
}
