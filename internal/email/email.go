// Package email sends transactional mail through a hosted delivery API.
package email

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrMissingRecipient = errors.New("email has no recipient")
	ErrMissingSubject   = errors.New("email has no subject")
	ErrMissingBody      = errors.New("email has no body")
)

// Email is one outbound message.
type Email struct {
	To      []string
	Subject string
	HTML    string
	Text    string
	ReplyTo string
}

// Validate checks the message is sendable.
func (e *Email) Validate() error {
	if len(e.To) == 0 {
		return ErrMissingRecipient
	}
	for _, addr := range e.To {
		if addr == "" {
			return fmt.Errorf("%w: empty address", ErrMissingRecipient)
		}
	}
	if e.Subject == "" {
		return ErrMissingSubject
	}
	if e.HTML == "" && e.Text == "" {
		return ErrMissingBody
	}
	return nil
}

// Provider delivers messages.
type Provider interface {
	Send(ctx context.Context, email *Email) error
}
