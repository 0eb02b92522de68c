package handlers

import (
	"io"
	"net/http"
	"strings"

	"feastfleet/ai"
	"feastfleet/recipes"

	"github.com/gin-gonic/gin"
)

// MaxScanBytes caps the uploaded document photo
const MaxScanBytes = 10 << 20

var scanTypes = map[string]bool{"image/jpeg": true, "image/png": true}

// ScanDocument extracts the fields of an uploaded document photo
func (h *Handler) ScanDocument(c *gin.Context) {
	if !h.AI.Configured() {
		respondError(c, ai.ErrNotConfigured)
		return
	}
	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "An image file is required (form field 'image')"})
		return
	}
	if fh.Size > MaxScanBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Image is too large"})
		return
	}
	mime := fh.Header.Get("Content-Type")
	if mime == "" {
		mime = "image/jpeg"
	}
	if !scanTypes[mime] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only JPEG and PNG images are supported"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read the uploaded image"})
		return
	}
	defer f.Close()
	image, err := io.ReadAll(io.LimitReader(f, MaxScanBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read the uploaded image"})
		return
	}

	docType := c.DefaultPostForm("document_type", "Generic Document")
	res, err := h.AI.ScanDocument(c.Request.Context(), image, mime, docType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type GenerateRecipeRequest struct {
	Name        string   `json:"name"`
	Ingredients []string `json:"ingredients"`
	Cuisine     string   `json:"cuisine"`
	Diet        string   `json:"diet"`
}

// GenerateRecipe writes a recipe for a dish name, or from ingredients when
// no name is given, and attaches related dishes and videos.
func (h *Handler) GenerateRecipe(c *gin.Context) {
	var req GenerateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ingredients := make([]string, 0, len(req.Ingredients))
	for _, in := range req.Ingredients {
		if in = strings.TrimSpace(in); in != "" {
			ingredients = append(ingredients, in)
		}
	}
	name := strings.TrimSpace(req.Name)
	if name == "" && len(ingredients) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Provide a dish name or at least one ingredient"})
		return
	}

	ctx := c.Request.Context()
	var (
		recipe ai.Recipe
		err    error
	)
	if name != "" {
		recipe, err = h.AI.GenerateRecipeByName(ctx, name, req.Cuisine, req.Diet)
	} else {
		recipe, err = h.AI.GenerateRecipe(ctx, ingredients, req.Cuisine, req.Diet)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	if len(recipe.RelatedRecipes) == 0 {
		main := recipe.Ingredients
		if len(main) == 0 {
			main = ingredients
		}
		recipe.RelatedRecipes = h.AI.RelatedRecipes(ctx, main, req.Cuisine, req.Diet)
	}

	query := recipe.Name
	if query == "" {
		query = strings.Join(ingredients, " ")
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"recipe":  recipe,
		"videos":  recipes.SearchVideos(query, recipes.DefaultMaxVideos),
	})
}
