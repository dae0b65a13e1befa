// Package llm is the generative fallback composer: when retrieval finds
// nothing, callers ask an OpenAI-compatible chat endpoint to invent a
// suggestion instead.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/findfood/engine/pkg/findfood/catalog"
	"github.com/findfood/engine/pkg/findfood/taste"
)

// Client calls an OpenAI-compatible chat completion endpoint.
type Client struct {
	BaseURL string
	APIKey  string
	Model   string

	HTTPClient *http.Client
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SuggestRequest carries the context a no-match fallback can lean on.
type SuggestRequest struct {
	Kind     catalog.Kind
	Category taste.Category
	City     string
	Query    string // the user's original phrase, if any
}

var categoryLabels = map[taste.Category]string{
	taste.Sweet:   "something sweet",
	taste.Salty:   "something hearty",
	taste.Spicy:   "something spicy",
	taste.Healthy: "something healthy",
}

// Suggest composes a single dish or venue suggestion for a request the
// catalog could not answer.
func (c *Client) Suggest(ctx context.Context, req SuggestRequest) (string, error) {
	system := "You are FindFood, a friendly culinary assistant. " +
		"Suggest exactly one option in three short paragraphs: " +
		"1) an emoji and the name, 2) what it is made of or why it is worth it, " +
		"3) one short tip. No markdown. If the request is not about food, " +
		"gently steer the user back to dishes and places to eat."
	return c.Chat(ctx, system, buildPrompt(req))
}

// Chat sends one system+user message pair and returns the reply text.
func (c *Client) Chat(ctx context.Context, system, user string) (string, error) {
	if c.BaseURL == "" || c.Model == "" {
		return "", fmt.Errorf("llm: base URL and model required")
	}
	messages := []chatMessage{{Role: "system", Content: system}, {Role: "user", Content: user}}
	payload, err := c.send(ctx, messages)
	if err != nil {
		return "", err
	}
	if len(payload.Choices) == 0 {
		return "", fmt.Errorf("llm: empty response")
	}
	return payload.Choices[0].Message.Content, nil
}

func (c *Client) send(ctx context.Context, messages []chatMessage) (*chatResponse, error) {
	reqBody, err := json.Marshal(chatRequest{Model: c.Model, Messages: messages})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var payload chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if payload.Error != nil {
		return nil, fmt.Errorf("llm error: %s", payload.Error.Message)
	}
	return &payload, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 15 * time.Second}
}

func buildPrompt(req SuggestRequest) string {
	var buf bytes.Buffer

	label := "something tasty"
	if l, ok := categoryLabels[req.Category]; ok {
		label = l
	}
	city := req.City
	if city == "" {
		city = "their city"
	}

	switch req.Kind {
	case catalog.KindVenue:
		fmt.Fprintf(&buf, "The user is in %s and wants a place to eat %s.", city, label)
	default:
		fmt.Fprintf(&buf, "The user from %s wants a home recipe for %s.", city, label)
	}
	if req.Query != "" {
		fmt.Fprintf(&buf, " They mentioned: %q.", req.Query)
	}
	return buf.String()
}
