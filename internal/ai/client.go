package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// MaxReplyLength caps every generated text by truncation, never by failure.
const MaxReplyLength = 4000

// SystemRules is the fixed preamble for mention replies.
const SystemRules = "You are a helpful and respectful AI assistant. Never use profanity, sexual content, or slurs. Keep replies polite, concise, and under 4000 characters."

const questionPrompt = "Give a unique, thought-provoking question of the day for a Discord community."

// Client wraps the Gemini backend behind the "generate text from prompt
// parts" capability.
type Client struct {
	client *genai.Client
	model  string
}

func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{client: client, model: model}, nil
}

// Generate sends prompt parts to the backend and returns the text, trimmed
// and truncated to MaxReplyLength.
func (c *Client) Generate(ctx context.Context, parts ...string) (string, error) {
	contents := make([]*genai.Content, 0, len(parts))
	for _, part := range parts {
		contents = append(contents, genai.NewContentFromText(part, genai.RoleUser))
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return Truncate(strings.TrimSpace(result.Text()), MaxReplyLength), nil
}

// Reply answers a user query under the fixed system rules.
func (c *Client) Reply(ctx context.Context, systemRules, userQuery string) (string, error) {
	return c.Generate(ctx, systemRules, userQuery)
}

// Question generates a question-of-the-day prompt.
func (c *Client) Question(ctx context.Context) (string, error) {
	return c.Generate(ctx, questionPrompt)
}

// Truncate cuts text to at most max runes without splitting a rune.
func Truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
