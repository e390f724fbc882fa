// internal/gpt/client.go
package gpt

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"nutrition-bot/internal/models"
)

const analysisPrompt = `You are a nutrition expert. Analyze the food in the provided input and estimate its nutritional content.

If the input is NOT food, set "is_food" to false.

IMPORTANT: Respond with valid JSON only, in this exact format:
{
    "is_food": true/false,
    "food_items": ["item1", "item2"],
    "nutrition": {
        "calories": number,
        "protein": number,
        "carbs": number,
        "fat": number,
        "fiber": number
    },
    "confidence": "high/medium/low",
    "comment": "short encouraging comment about the food choice"
}`

type Client struct {
	client *openai.Client
	model  string
}

func NewClient(apiKey string) *Client {
	return &Client{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4o,
	}
}

func (c *Client) WithModel(model string) *Client {
	c.model = model
	return c
}

// AnalyzeImage extracts nutrition data from a food photo. The returned
// result is always well-formed; failures come back as IsFood=false with
// Err set.
func (c *Client) AnalyzeImage(ctx context.Context, image []byte) models.FoodAnalysis {
	parts := []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: analysisPrompt},
		imagePart(image),
	}

	raw, err := c.complete(ctx, parts)
	if err != nil {
		return failure("failed to analyze image")
	}

	return parseAnalysis(raw)
}

// AnalyzeText extracts nutrition data from a free-text meal description.
func (c *Client) AnalyzeText(ctx context.Context, description string) models.FoodAnalysis {
	prompt := fmt.Sprintf("%s\n\nThe meal description is: %q", analysisPrompt, description)
	parts := []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: prompt},
	}

	raw, err := c.complete(ctx, parts)
	if err != nil {
		return failure("failed to analyze description")
	}

	return parseAnalysis(raw)
}

// Refine re-runs extraction with the prior result and the user's
// correction, instructing the model to adjust the existing numbers rather
// than re-derive them. An optional new image may accompany the correction.
func (c *Client) Refine(ctx context.Context, prior models.FoodAnalysis, correction string, image []byte) models.FoodAnalysis {
	priorJSON, err := json.Marshal(prior)
	if err != nil {
		return failure("failed to encode prior analysis")
	}

	prompt := fmt.Sprintf(
		"%s\n\nA previous analysis produced:\n%s\n\nThe user corrected it with: %q\n\n"+
			"Adjust the nutritional values of the previous analysis based on the correction. "+
			"Do not re-derive them from scratch.",
		analysisPrompt, priorJSON, correction,
	)

	parts := []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: prompt},
	}
	if len(image) > 0 {
		parts = append(parts, imagePart(image))
	}

	raw, err := c.complete(ctx, parts)
	if err != nil {
		return failure("failed to refine analysis")
	}

	return parseAnalysis(raw)
}

func (c *Client) complete(ctx context.Context, parts []openai.ChatMessagePart) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: parts,
			},
		},
		MaxTokens:   1000,
		Temperature: 0.2,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from model")
	}

	return resp.Choices[0].Message.Content, nil
}

func imagePart(image []byte) openai.ChatMessagePart {
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)
	return openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeImageURL,
		ImageURL: &openai.ChatMessageImageURL{
			URL:    dataURL,
			Detail: openai.ImageURLDetailAuto,
		},
	}
}

// parseAnalysis turns the model's untrusted response text into a
// normalized FoodAnalysis. Markdown fences are stripped before parsing;
// anything that still fails to parse becomes a non-food failure result.
// Numeric fields the model omitted stay at zero.
func parseAnalysis(raw string) models.FoodAnalysis {
	cleaned := stripFences(raw)

	var analysis models.FoodAnalysis
	if err := json.Unmarshal([]byte(cleaned), &analysis); err != nil {
		return failure("could not parse nutritional analysis")
	}

	analysis.Err = ""
	return analysis
}

func stripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}
	return strings.TrimSpace(text)
}

func failure(reason string) models.FoodAnalysis {
	return models.FoodAnalysis{
		IsFood: false,
		Err:    reason,
	}
}
