package ai

import (
	"context"
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	reply    string
	err      error
	messages []llms.MessageContent
	opts     llms.CallOptions
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, o := range options {
		o(&f.opts)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		text string
		want map[string]any
	}{
		{"plain", `{"a": 1}`, map[string]any{"a": float64(1)}},
		{"fenced", "Here you go:\n```json\n{\"a\": 2}\n```\nEnjoy", map[string]any{"a": float64(2)}},
		{"unlabelled fence", "```\n{\"a\": 3}\n```", map[string]any{"a": float64(3)}},
		{"braces in prose", `Sure! {"a": {"b": 4}} hope that helps`, map[string]any{"a": map[string]any{"b": float64(4)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]any
			require.NoError(t, ExtractJSON(tt.text, &got))
			assert.Equal(t, tt.want, got)
		})
	}

	var v any
	assert.ErrorIs(t, ExtractJSON("no json here", &v), ErrNoJSON)
	assert.ErrorIs(t, ExtractJSON("{broken", &v), ErrNoJSON)
}

func TestNotConfigured(t *testing.T) {
	c, err := NewDeepSeek(Options{}, quietLogger())
	require.NoError(t, err)
	assert.False(t, c.Configured())

	_, err = c.GenerateRecipeByName(context.Background(), "Dosa", "", "")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = c.ScanDocument(context.Background(), []byte{1}, "image/png", "receipt")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Empty(t, c.RelatedRecipes(context.Background(), []string{"rice"}, "", ""))
}

func TestGenerateRecipeByName(t *testing.T) {
	m := &fakeModel{reply: "```json\n" + `{
		"name": "Masala Dosa",
		"cuisine": "South Indian",
		"ingredients": ["2 cups rice", "1 cup urad dal"],
		"instructions": ["Soak", "Grind", "Ferment"],
		"cooking_time": "40 minutes",
		"servings": 4,
		"difficulty": "Medium",
		"nutritional_info": {"calories": "250 kcal", "protein": "6 g", "carbs": "40 g", "fat": "7 g"},
		"related_recipes": [{"name": "Rava Dosa", "main_ingredients": ["semolina"]}]
	}` + "\n```"}
	c := New(m, nil, quietLogger())

	r, err := c.GenerateRecipeByName(context.Background(), "Masala Dosa", "Any", "None")
	require.NoError(t, err)
	assert.Equal(t, "Masala Dosa", r.Name)
	assert.Len(t, r.Instructions, 3)
	assert.Equal(t, float64(4), r.Servings)
	assert.Equal(t, "250 kcal", r.NutritionalInfo.Calories)
	require.Len(t, r.RelatedRecipes, 1)
	assert.Equal(t, "Rava Dosa", r.RelatedRecipes[0].Name)

	require.Len(t, m.messages, 1)
	prompt := m.messages[0].Parts[0].(llms.TextContent).Text
	assert.Contains(t, prompt, `Create a detailed recipe for "Masala Dosa".`)
	assert.Contains(t, prompt, "authentic traditional style")
	assert.NotContains(t, prompt, "suitable for")
	assert.Equal(t, 2048, m.opts.MaxTokens)
	assert.Equal(t, 0.7, m.opts.Temperature)
}

func TestGenerateRecipeFailures(t *testing.T) {
	c := New(&fakeModel{err: errors.New("status code: 401")}, nil, quietLogger())
	_, err := c.GenerateRecipe(context.Background(), []string{"rice"}, "Indian", "Vegan")
	assert.ErrorIs(t, err, ErrUpstream)

	c = New(&fakeModel{reply: "I cannot help with that"}, nil, quietLogger())
	_, err = c.GenerateRecipe(context.Background(), []string{"rice"}, "Indian", "Vegan")
	assert.ErrorIs(t, err, ErrUpstream)

	_, err = c.GenerateRecipe(context.Background(), nil, "", "")
	assert.Error(t, err)
}

func TestGenerateRecipePrompt(t *testing.T) {
	m := &fakeModel{reply: `{"name": "Veg Pulao"}`}
	c := New(m, nil, quietLogger())
	_, err := c.GenerateRecipe(context.Background(), []string{"rice", "peas"}, "Indian", "Vegan")
	require.NoError(t, err)

	prompt := m.messages[0].Parts[0].(llms.TextContent).Text
	assert.Contains(t, prompt, "using these ingredients: rice, peas.")
	assert.Contains(t, prompt, "Cuisine type: Indian.")
	assert.Contains(t, prompt, "suitable for Vegan diet")
}

func TestRelatedRecipes(t *testing.T) {
	m := &fakeModel{reply: "```json\n[{\"name\": \"Jeera Rice\", \"difficulty\": \"Easy\"}]\n```"}
	c := New(m, nil, quietLogger())

	got := c.RelatedRecipes(context.Background(), []string{"rice", "cumin", "ghee", "salt"}, "", "")
	require.Len(t, got, 1)
	assert.Equal(t, "Jeera Rice", got[0].Name)
	assert.Equal(t, 1024, m.opts.MaxTokens)

	prompt := m.messages[0].Parts[0].(llms.TextContent).Text
	assert.Contains(t, prompt, "main ingredients: rice, cumin, ghee.")

	// an object instead of an array is not a list of suggestions
	c = New(&fakeModel{reply: `{"name": "x"}`}, nil, quietLogger())
	assert.Empty(t, c.RelatedRecipes(context.Background(), []string{"rice"}, "", ""))
}

func TestScanDocument(t *testing.T) {
	m := &fakeModel{reply: `{"license_number": "FSSAI-123", "holder": "Spice Route"}`}
	c := New(nil, m, quietLogger())

	res, err := c.ScanDocument(context.Background(), []byte("fake-image"), "", "food license")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "food license", res.DocumentType)
	assert.Equal(t, "FSSAI-123", res.ExtractedData.(map[string]any)["license_number"])

	parts := m.messages[0].Parts
	require.Len(t, parts, 2)
	assert.Contains(t, parts[0].(llms.TextContent).Text, "this food license document image")
	assert.Equal(t, "data:image/jpeg;base64,ZmFrZS1pbWFnZQ==", parts[1].(llms.ImageURLContent).URL)
	assert.Equal(t, 2048, m.opts.MaxTokens)

	_, err = c.ScanDocument(context.Background(), nil, "", "receipt")
	assert.Error(t, err)
}
