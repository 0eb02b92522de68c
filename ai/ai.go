// Package ai wraps the language model used for document scanning and recipe
// generation.
package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

var (
	// ErrNotConfigured means no API key was provided; there is no fallback
	ErrNotConfigured = errors.New("AI API key is not configured")
	// ErrUpstream wraps any failure talking to the model or reading its answer
	ErrUpstream = errors.New("AI request failed")
)

const (
	scanMaxTokens    = 2048
	recipeMaxTokens  = 2048
	relatedMaxTokens = 1024
	temperature      = 0.7

	requestTimeout        = 30 * time.Second
	relatedRequestTimeout = 20 * time.Second
)

type Client struct {
	chat   llms.Model
	vision llms.Model
	log    logrus.FieldLogger
}

// New builds a client on top of already constructed models. Either may be
// nil, in which case the operations that need it return ErrNotConfigured.
func New(chat, vision llms.Model, log logrus.FieldLogger) *Client {
	return &Client{chat: chat, vision: vision, log: log}
}

type Options struct {
	APIKey      string
	BaseURL     string
	ChatModel   string
	VisionModel string
}

// NewDeepSeek talks to DeepSeek's OpenAI-compatible endpoint. An empty API
// key yields a client on which every call returns ErrNotConfigured.
func NewDeepSeek(opts Options, log logrus.FieldLogger) (*Client, error) {
	if opts.APIKey == "" {
		log.Warn("DEEPSEEK_API_KEY not set, AI features disabled")
		return New(nil, nil, log), nil
	}
	chat, err := openai.New(
		openai.WithToken(opts.APIKey),
		openai.WithBaseURL(opts.BaseURL),
		openai.WithModel(opts.ChatModel),
	)
	if err != nil {
		return nil, errors.Wrap(err, "creating chat model")
	}
	vision, err := openai.New(
		openai.WithToken(opts.APIKey),
		openai.WithBaseURL(opts.BaseURL),
		openai.WithModel(opts.VisionModel),
	)
	if err != nil {
		return nil, errors.Wrap(err, "creating vision model")
	}
	return New(chat, vision, log), nil
}

func (c *Client) Configured() bool {
	return c.chat != nil
}

type ScanResult struct {
	Success       bool   `json:"success"`
	DocumentType  string `json:"document_type"`
	ExtractedData any    `json:"extracted_data"`
}

// ScanDocument asks the vision model to pull every field out of a document
// photo and returns them as decoded JSON.
func (c *Client) ScanDocument(ctx context.Context, image []byte, mimeType, documentType string) (ScanResult, error) {
	if c.vision == nil {
		return ScanResult{}, ErrNotConfigured
	}
	if len(image) == 0 {
		return ScanResult{}, errors.New("no image provided")
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	msg := llms.MessageContent{
		Role: llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{
			llms.TextContent{Text: scanPrompt(documentType)},
			llms.ImageURLContent{URL: dataURL},
		},
	}
	text, err := c.generate(ctx, c.vision, requestTimeout, msg, llms.WithMaxTokens(scanMaxTokens))
	if err != nil {
		return ScanResult{}, err
	}
	var data any
	if err := ExtractJSON(text, &data); err != nil {
		return ScanResult{}, errors.Wrapf(ErrUpstream, "couldn't parse API response as JSON: %v", err)
	}
	c.log.WithField("document_type", documentType).Info("document scanned")
	return ScanResult{Success: true, DocumentType: documentType, ExtractedData: data}, nil
}

// GenerateRecipeByName writes a full recipe for a dish name.
func (c *Client) GenerateRecipeByName(ctx context.Context, name, cuisine, diet string) (Recipe, error) {
	return c.recipe(ctx, recipeByNamePrompt(name, cuisine, diet))
}

// GenerateRecipe invents a dish from the ingredients at hand.
func (c *Client) GenerateRecipe(ctx context.Context, ingredients []string, cuisine, diet string) (Recipe, error) {
	if len(ingredients) == 0 {
		return Recipe{}, errors.New("no ingredients provided")
	}
	return c.recipe(ctx, recipeByIngredientsPrompt(ingredients, cuisine, diet))
}

func (c *Client) recipe(ctx context.Context, prompt string) (Recipe, error) {
	if c.chat == nil {
		return Recipe{}, ErrNotConfigured
	}
	text, err := c.generate(ctx, c.chat, requestTimeout, llms.TextParts(llms.ChatMessageTypeHuman, prompt),
		llms.WithTemperature(temperature), llms.WithMaxTokens(recipeMaxTokens))
	if err != nil {
		return Recipe{}, err
	}
	var r Recipe
	if err := ExtractJSON(text, &r); err != nil {
		return Recipe{}, errors.Wrapf(ErrUpstream, "couldn't parse API response as JSON: %v", err)
	}
	return r, nil
}

// RelatedRecipes suggests a few dishes built on the first three main
// ingredients. Any failure, including a missing key, yields an empty list.
func (c *Client) RelatedRecipes(ctx context.Context, mainIngredients []string, cuisine, diet string) []RelatedRecipe {
	out := []RelatedRecipe{}
	if c.chat == nil || len(mainIngredients) == 0 {
		return out
	}
	text, err := c.generate(ctx, c.chat, relatedRequestTimeout,
		llms.TextParts(llms.ChatMessageTypeHuman, relatedPrompt(mainIngredients, cuisine, diet)),
		llms.WithTemperature(temperature), llms.WithMaxTokens(relatedMaxTokens))
	if err != nil {
		return out
	}
	var related []RelatedRecipe
	if err := ExtractJSON(text, &related); err != nil {
		c.log.WithError(err).Debug("related recipes not parseable")
		return out
	}
	return related
}

func (c *Client) generate(ctx context.Context, model llms.Model, timeout time.Duration, msg llms.MessageContent, opts ...llms.CallOption) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := model.GenerateContent(ctx, []llms.MessageContent{msg}, opts...)
	if err != nil {
		c.log.WithError(err).Error("AI API call failed")
		return "", errors.Wrapf(ErrUpstream, "error calling AI API: %v", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.Wrap(ErrUpstream, "empty response from AI API")
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}
