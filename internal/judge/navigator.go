// Package judge talks to the external text-evaluation service over its
// OpenAI-compatible chat-completions API. The engine treats everything
// returned here as untrusted text.
package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/clin-sim/clinsim-grader/internal/grading"
)

const (
	defaultBaseURL = "https://api.ai.it.ufl.edu"
	// grading calls tolerate more latency than interactive requests
	defaultTimeout = 90 * time.Second

	rubricTemperature = 0.4
)

type Client struct {
	baseURL string
	apiKey  string
	model   string
	httpc   *http.Client
}

// NewClient builds a judge client. baseURL falls back to the hosted
// default; timeout <= 0 falls back to 90s.
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpc:   &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// EvaluateRubric sends one batched rubric-evaluation prompt and returns
// the raw completion text. Implements grading.Judge.
func (c *Client) EvaluateRubric(ctx context.Context, req grading.JudgeRequest) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("judge api key is not set")
	}
	if c.model == "" {
		return "", errors.New("judge model is not set")
	}

	payload := chatRequest{
		Model:       c.model,
		Temperature: rubricTemperature,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("judge api error %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("judge api decode: %w", err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", errors.New("judge api returned no message")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
