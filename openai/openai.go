package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"civic-complaint-service/classifier"
	"civic-complaint-service/parser"
)

const openAIEndpoint = "https://api.openai.com/v1/chat/completions"

const promptCompareText = `You compare two citizen complaint descriptions and decide whether they report the same real-world civic issue.
Respond with a single JSON object and nothing else:
{
  "score": <0.0-1.0 similarity>,
  "reasoning": "<1-2 sentences>",
  "problem_match": <true|false, same kind of problem>,
  "severity_match": <true|false, comparable severity>,
  "infrastructure_match": <true|false, same piece of infrastructure>
}`

const promptCompareImages = `You compare two photos of reported civic issues and decide whether they show the same real-world issue.
Respond with a single JSON object and nothing else:
{
  "score": <0.0-1.0 similarity>,
  "reasoning": "<1-2 sentences>",
  "same_location": <true|false>,
  "same_problem": <true|false>
}`

const promptCompareCategory = `You compare two civic issue categories and decide whether they describe the same type of issue.
Respond with a single JSON object and nothing else:
{"score": <0.0-1.0>, "same_type": <true|false>}`

const promptAnalyzeIntent = `You classify an inbound citizen message for a municipal complaint system.
Respond with a single JSON object and nothing else:
{
  "intent": "<complaint|location|status_query|cancellation|greeting|other>",
  "context": "<short summary of what the message is about>",
  "state": "<new|follow_up>",
  "confidence": <0.0-1.0>
}`

const promptDepartment = `Name the single municipal department responsible for the following civic issue. Choose from: Water Supply, Electricity, Roads & Infrastructure, Waste Management, Street Lighting, Drainage & Sewerage, Building & Planning, Parks & Recreation, Public Health, General Administration. Respond with the department name only.`

const promptPriority = `Assess the priority of the following civic issue. Respond with exactly one of: emergency, high, medium, low.`

const promptCategory = `Name a short category for the following civic issue (e.g. "Water Leakage", "Pothole", "Garbage Dumping", "Street Light Outage", "General Services"). Respond with the category name only.`

type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type TextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type ImageContent struct {
	Type     string   `json:"type"`
	ImageURL ImageURL `json:"image_url"`
}

type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content any `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client is an OpenAI-backed implementation of classifier.Client.
type Client struct {
	apiKey string
	model  string
	client *http.Client
}

// NewClient creates a new OpenAI classifier client.
func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// SourceName identifies this provider in logs.
func (c *Client) SourceName() string {
	return "ChatGPT"
}

// chat sends a chat completion request and returns the raw text content.
func (c *Client) chat(ctx context.Context, messages []Message) (string, error) {
	reqBody := ChatRequest{
		Model:    c.model,
		Messages: messages,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", openAIEndpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	content := chatResp.Choices[0].Message.Content
	if contentStr, ok := content.(string); ok {
		return contentStr, nil
	}

	// If content is not a string, marshal it back to JSON.
	contentJSON, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("failed to marshal content: %w", err)
	}
	return string(contentJSON), nil
}

func (c *Client) textPrompt(ctx context.Context, system, user string) (string, error) {
	return c.chat(ctx, []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	})
}

// AnalyzeIntent classifies a raw inbound message.
func (c *Client) AnalyzeIntent(ctx context.Context, text string) (*classifier.IntentResult, error) {
	raw, err := c.textPrompt(ctx, promptAnalyzeIntent, text)
	if err != nil {
		return nil, err
	}
	return parser.ParseIntent(raw)
}

// CompareText scores two complaint descriptions for similarity.
func (c *Client) CompareText(ctx context.Context, a, b string) (*classifier.TextComparison, error) {
	user := fmt.Sprintf("Description A:\n%s\n\nDescription B:\n%s", a, b)
	raw, err := c.textPrompt(ctx, promptCompareText, user)
	if err != nil {
		return nil, err
	}
	return parser.ParseTextComparison(raw)
}

// CompareImages scores two report photos for similarity using the vision API.
// Refs are image URLs or data URLs.
func (c *Client) CompareImages(ctx context.Context, refA, refB string) (*classifier.ImageComparison, error) {
	raw, err := c.chat(ctx, []Message{
		{
			Role:    "system",
			Content: []any{TextContent{Type: "text", Text: promptCompareImages}},
		},
		{
			Role: "user",
			Content: []any{
				ImageContent{Type: "image_url", ImageURL: ImageURL{URL: refA}},
				ImageContent{Type: "image_url", ImageURL: ImageURL{URL: refB}},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	return parser.ParseImageComparison(raw)
}

// CompareCategory scores two issue categories for similarity.
func (c *Client) CompareCategory(ctx context.Context, a, b string) (*classifier.CategoryComparison, error) {
	user := fmt.Sprintf("Category A: %s\nCategory B: %s", a, b)
	raw, err := c.textPrompt(ctx, promptCompareCategory, user)
	if err != nil {
		return nil, err
	}
	return parser.ParseCategoryComparison(raw)
}

// CategorizeDepartment maps a description to a municipal department name.
func (c *Client) CategorizeDepartment(ctx context.Context, text string) (string, error) {
	raw, err := c.textPrompt(ctx, promptDepartment, text)
	if err != nil {
		return "", err
	}
	return parser.ParseLabel(raw)
}

// AssessPriority maps a description to one of emergency/high/medium/low.
func (c *Client) AssessPriority(ctx context.Context, text string) (string, error) {
	raw, err := c.textPrompt(ctx, promptPriority, text)
	if err != nil {
		return "", err
	}
	label, err := parser.ParseLabel(raw)
	if err != nil {
		return "", err
	}
	return strings.ToLower(label), nil
}

// CategorizeType maps a description to an issue category name.
func (c *Client) CategorizeType(ctx context.Context, text string) (string, error) {
	raw, err := c.textPrompt(ctx, promptCategory, text)
	if err != nil {
		return "", err
	}
	return parser.ParseLabel(raw)
}
