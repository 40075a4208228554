// Package translator provides the translation collaborators: pluggable
// text-to-text services and the Engine that guards the single shared
// translation resource for a run.
package translator

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Request is a single source-language text to translate.
type Request struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

// Result carries one service's translation.
type Result struct {
	ServiceName    string        `json:"service_name"`
	TranslatedText string        `json:"translated_text"`
	Confidence     float64       `json:"confidence"`
	Latency        time.Duration `json:"latency"`
}

// Service is a black-box text-to-text translation backend.
type Service interface {
	Name() string
	Translate(ctx context.Context, req Request) (*Result, error)
	IsAvailable(ctx context.Context) error
}

// TranslationError reports a failed translation call. Transient marks
// conditions worth retrying (timeouts, temporary unavailability, rate
// limits); everything else is permanent.
type TranslationError struct {
	Service   string
	Transient bool
	Err       error
}

func (e *TranslationError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("translator: %s: %s: %v", e.Service, kind, e.Err)
}

func (e *TranslationError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a retryable translation failure.
func IsTransient(err error) bool {
	var te *TranslationError
	if errors.As(err, &te) {
		return te.Transient
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// transientf and permanentf build classified service errors.
func transientf(service, format string, args ...any) error {
	return &TranslationError{Service: service, Transient: true, Err: fmt.Errorf(format, args...)}
}

func permanentf(service, format string, args ...any) error {
	return &TranslationError{Service: service, Transient: false, Err: fmt.Errorf(format, args...)}
}
