// Package mail delivers transactional emails through a configurable provider.
package mail

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"backoffice/internal/config"

	"go.uber.org/zap"
)

// Message is a single outgoing email
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers messages
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New returns the sender selected by cfg.Provider; unknown or unset providers log instead of sending
func New(cfg config.MailConfig, logger *zap.Logger) (Sender, error) {
	switch cfg.Provider {
	case "sendgrid":
		if cfg.SendgridAPIKey == "" {
			return nil, fmt.Errorf("mail provider sendgrid requires SENDGRID_API_KEY")
		}
		return NewSendgridSender(cfg.SendgridAPIKey, cfg.FromName, cfg.FromAddress), nil
	case "resend":
		if cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("mail provider resend requires RESEND_API_KEY")
		}
		return NewResendSender(cfg.ResendAPIKey, cfg.FromName, cfg.FromAddress), nil
	default:
		return NewLogSender(logger), nil
	}
}

// VerificationEmail builds the message confirming a new account's address
func VerificationEmail(baseURL, to, token string) Message {
	link := tokenLink(baseURL, "/auth/new-verification", token)
	return Message{
		To:      to,
		Subject: "Confirm your email",
		Text:    "Confirm your email by opening " + link,
		HTML:    `<p>Click <a href="` + link + `">here</a> to confirm your email.</p>`,
	}
}

// PasswordResetEmail builds the message carrying a password reset link
func PasswordResetEmail(baseURL, to, token string) Message {
	link := tokenLink(baseURL, "/auth/new-password", token)
	return Message{
		To:      to,
		Subject: "Reset your password",
		Text:    "Reset your password by opening " + link,
		HTML:    `<p>Click <a href="` + link + `">here</a> to reset your password.</p>`,
	}
}

func tokenLink(baseURL, path, token string) string {
	return strings.TrimRight(baseURL, "/") + path + "?token=" + url.QueryEscape(token)
}
