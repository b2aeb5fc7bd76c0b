package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultResendBaseURL = "https://api.resend.com"

// ResendSender sends emails through the Resend HTTP API.
type ResendSender struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewResendSender(baseURL, apiKey string) *ResendSender {
	if baseURL == "" {
		baseURL = DefaultResendBaseURL
	}
	return &ResendSender{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message,omitempty"`
}

func (s *ResendSender) Send(ctx context.Context, msg Message) (string, error) {
	body, err := json.Marshal(resendRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal resend request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build resend request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("resend: %v: %w", err, ErrTransport)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("resend: failed to read response: %v: %w", err, ErrTransport)
	}

	var out resendResponse
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &out); err != nil && resp.StatusCode < 300 {
			return "", fmt.Errorf("resend: failed to parse response: %v: %w", err, ErrTransport)
		}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", fmt.Errorf("resend: status %d %s: %w", resp.StatusCode, out.Message, ErrTransport)
	case resp.StatusCode >= 300:
		return "", fmt.Errorf("resend: status %d %s: %w", resp.StatusCode, out.Message, ErrRejected)
	case out.ID == "":
		return "", fmt.Errorf("resend: accepted without message id: %w", ErrRejected)
	}

	return out.ID, nil
}

var _ Sender = (*ResendSender)(nil)
