// Package mail delivers transactional emails through a pluggable provider.
package mail

import (
	"context"
	"errors"
)

var (
	// ErrRejected means the provider refused the message. Retrying it unchanged will not help.
	ErrRejected = errors.New("email rejected by provider")
	// ErrTransport means the provider could not be reached or did not answer in time.
	ErrTransport = errors.New("email transport failure")
)

type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Sender sends one message and returns the provider's message id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}
