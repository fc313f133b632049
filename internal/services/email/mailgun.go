// Copyright 2025 The Brewlog Authors
// Licensed under the EUPL-1.2

package email

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"codeberg.org/brewlog/brewlog/internal/config"
)

// DefaultMailgunEndpoint is the production Mailgun API base URL.
const DefaultMailgunEndpoint = "https://api.mailgun.net"

// MailgunSender posts messages to the Mailgun HTTP API with basic auth.
type MailgunSender struct {
	apiKey   string
	domain   string
	from     string
	endpoint string
	client   *http.Client
}

// NewMailgunSender creates a Mailgun API sender from configuration.
func NewMailgunSender(cfg *config.EmailConfig) (*MailgunSender, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("email API key is required")
	}
	if cfg.Domain == "" {
		return nil, fmt.Errorf("email domain is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("email from address is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultMailgunEndpoint
	}

	return &MailgunSender{
		apiKey:   cfg.APIKey,
		domain:   cfg.Domain,
		from:     cfg.From,
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Send posts the message to the domain's messages endpoint. There are no
// retries; the error is surfaced to the caller.
func (s *MailgunSender) Send(ctx context.Context, msg Message) error {
	form := url.Values{}
	form.Set("from", s.from)
	form.Set("to", msg.To)
	form.Set("subject", msg.Subject)
	form.Set("text", msg.Text)
	form.Set("html", msg.HTML)

	target := fmt.Sprintf("%s/v3/%s/messages", s.endpoint, s.domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth("api", s.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("mailgun send failed with status %d", resp.StatusCode)
	}
	return nil
}
