// Copyright 2025 The Brewlog Authors
// Licensed under the EUPL-1.2

// Package email sends transactional mail for account flows.
package email

import (
	"context"
	"fmt"
	"strings"

	"codeberg.org/brewlog/brewlog/internal/config"
)

// Message is one outbound transactional email.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a message. Failures are returned to the caller and
// never retried.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Service builds and sends the account emails (confirmation, reset).
type Service struct {
	sender  Sender
	baseURL string
}

// NewService creates the email service for the configured driver.
func NewService(cfg *config.EmailConfig, baseURL string) (*Service, error) {
	var sender Sender
	switch cfg.Driver {
	case "smtp":
		s, err := NewSMTPSender(cfg)
		if err != nil {
			return nil, err
		}
		sender = s
	case "mailgun", "":
		s, err := NewMailgunSender(cfg)
		if err != nil {
			return nil, err
		}
		sender = s
	default:
		return nil, fmt.Errorf("unknown email driver %q", cfg.Driver)
	}

	return &Service{
		sender:  sender,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// NewServiceWithSender wires a custom sender, for tests.
func NewServiceWithSender(sender Sender, baseURL string) *Service {
	return &Service{sender: sender, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// SendConfirmation sends the email-confirmation message with the given token.
func (s *Service) SendConfirmation(ctx context.Context, toEmail, token string) error {
	link := fmt.Sprintf("%s/auth/verify-email?token=%s", s.baseURL, token)

	return s.sender.Send(ctx, Message{
		To:      toEmail,
		Subject: "Confirm your email",
		Text:    fmt.Sprintf("Confirm your email address to start logging coffees: %s", link),
		HTML:    fmt.Sprintf(`<p>Confirm your email address to start logging coffees:</p><p><a href="%s">Confirm Email</a></p>`, link),
	})
}

// SendPasswordReset sends the password-reset message with the given token.
func (s *Service) SendPasswordReset(ctx context.Context, toEmail, token string) error {
	link := fmt.Sprintf("%s/auth/reset-password?token=%s", s.baseURL, token)

	return s.sender.Send(ctx, Message{
		To:      toEmail,
		Subject: "Reset your password",
		Text:    fmt.Sprintf("Reset your password: %s\n\nThe link expires in 5 minutes.", link),
		HTML:    fmt.Sprintf(`<p><a href="%s">Reset your password</a></p><p>The link expires in 5 minutes.</p>`, link),
	})
}
