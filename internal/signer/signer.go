// Package signer produces the connection URL the transport dials.
//
// A Signer returns a fully pre-signed, directly usable URL. Credentials and
// signing material stay behind this boundary.
package signer

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrEmptyURL means the signer returned no URL.
	ErrEmptyURL = errors.New("signer returned an empty url")
	// ErrSignerUnavailable means the signer is refusing calls after repeated failures.
	ErrSignerUnavailable = errors.New("signer unavailable")
)

// Signer produces a connection URL. It may be called once per connection
// attempt and must be safe for concurrent use.
type Signer interface {
	SignURL(ctx context.Context) (string, error)
}

// Static returns the same URL every time.
type Static string

func (s Static) SignURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(string(s)) == "" {
		return "", ErrEmptyURL
	}
	return string(s), nil
}

// Func adapts a function to Signer.
type Func func(ctx context.Context) (string, error)

func (f Func) SignURL(ctx context.Context) (string, error) {
	return f(ctx)
}
