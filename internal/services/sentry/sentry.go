// Package sentry reports unexpected failures to Sentry. When SENTRY_DSN is
// unset the service degrades to a no-op so local and test runs need no setup.
package sentry

import (
	"log"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
)

// Aliases so callers can tag events without importing the client directly.
type (
	Level = sentry.Level
	Scope = sentry.Scope
)

const (
	LevelWarning = sentry.LevelWarning
	LevelError   = sentry.LevelError
)

type Service struct {
	initialized bool
}

// New initializes the Sentry client from the environment.
func New() *Service {
	dsn := os.Getenv("SENTRY_DSN")
	if dsn == "" {
		log.Println("SENTRY_DSN not set, Sentry disabled")
		return &Service{initialized: false}
	}

	environment := os.Getenv("SENTRY_ENVIRONMENT")
	if environment == "" {
		environment = "development"
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		TracesSampleRate: 1.0,
		EnableTracing:    true,
	})
	if err != nil {
		log.Printf("Sentry initialization failed: %v", err)
		return &Service{initialized: false}
	}

	return &Service{initialized: true}
}

// CaptureException sends an error to Sentry.
func (s *Service) CaptureException(err error) {
	if !s.initialized {
		return
	}
	sentry.CaptureException(err)
}

// CaptureMessage sends a plain message to Sentry.
func (s *Service) CaptureMessage(message string) {
	if !s.initialized {
		return
	}
	sentry.CaptureMessage(message)
}

// WithScope runs fn with a fresh scope, for attaching request context.
func (s *Service) WithScope(fn func(scope *sentry.Scope)) {
	if !s.initialized {
		return
	}
	sentry.WithScope(fn)
}

// Flush waits for buffered events to be delivered.
func (s *Service) Flush(timeout time.Duration) bool {
	if !s.initialized {
		return true
	}
	return sentry.Flush(timeout)
}

// Close flushes and shuts down the client.
func (s *Service) Close() {
	s.Flush(2 * time.Second)
}
