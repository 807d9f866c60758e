package assistant

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var ErrGatewayUnavailable = errors.New("chat gateway unavailable")

// Apology is shown to the user when the upstream gateway fails mid-chat.
const Apology = "I apologize, but I'm having trouble connecting right now. Please try again in a moment."

const streamDone = "[DONE]"

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type chunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Client proxies chat conversations to an OpenAI-style completions gateway.
type Client struct {
	url    string
	apiKey string
	http   *http.Client
}

func NewClient(url, apiKey string) *Client {
	return &Client{
		url:    url,
		apiKey: apiKey,
		http:   &http.Client{Timeout: 2 * time.Minute},
	}
}

// Configured reports whether a gateway URL was provided; without one the
// transport falls back to the scripted responder.
func (c *Client) Configured() bool {
	return c != nil && c.url != ""
}

// StreamChat posts the conversation upstream with stream=true and invokes
// onDelta for every content fragment, returning the assembled reply.
// Malformed SSE lines are skipped, matching the client the web app shipped.
func (c *Client) StreamChat(ctx context.Context, messages []Message, onDelta func(string) error) (string, error) {
	body, err := json.Marshal(chatRequest{Messages: messages, Stream: true})
	if err != nil {
		return "", fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrGatewayUnavailable, resp.StatusCode)
	}

	var assembled strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")
		if payload == streamDone {
			break
		}

		var ch chunk
		if err := json.Unmarshal([]byte(payload), &ch); err != nil {
			continue
		}
		if len(ch.Choices) == 0 {
			continue
		}
		content := ch.Choices[0].Delta.Content
		if content == "" {
			continue
		}

		assembled.WriteString(content)
		if onDelta != nil {
			if err := onDelta(content); err != nil {
				return assembled.String(), err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return assembled.String(), fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	return assembled.String(), nil
}
