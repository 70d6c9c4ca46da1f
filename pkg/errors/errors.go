package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeFetch represents network or browser failures reaching a page or API
	ErrorTypeFetch ErrorType = "fetch"
	// ErrorTypeExtraction represents a required field the selector resolver could
	// not locate after exhausting every strategy
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypeFieldDefaulted represents a non-fatal fallback, e.g. price defaulted to 0
	ErrorTypeFieldDefaulted ErrorType = "field_defaulted"
	// ErrorTypeCacheCorrupt represents unreadable persisted cache state
	ErrorTypeCacheCorrupt ErrorType = "cache_corrupt"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// MarketError represents a pipeline-specific error
type MarketError struct {
	Type    ErrorType
	Source  string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *MarketError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Source, e.Message)
}

// Unwrap returns the underlying error
func (e *MarketError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is worth a single retry.
// Only fetch failures are retried; everything else is absorbed or degraded.
func (e *MarketError) IsRetryable() bool {
	return e.Type == ErrorTypeFetch
}

// New creates a new MarketError
func New(errType ErrorType, source, message string, err error) *MarketError {
	return &MarketError{
		Type:    errType,
		Source:  source,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewFetch creates a new fetch error
func NewFetch(source, message string, err error) *MarketError {
	return New(ErrorTypeFetch, source, message, err)
}

// NewExtraction creates a new extraction error
func NewExtraction(source, message string) *MarketError {
	return New(ErrorTypeExtraction, source, message, nil)
}

// NewFieldDefaulted creates a new field-defaulted error
func NewFieldDefaulted(source, field string) *MarketError {
	return New(ErrorTypeFieldDefaulted, source, fmt.Sprintf("field %q defaulted", field), nil)
}

// NewCacheCorrupt creates a new cache corruption error
func NewCacheCorrupt(message string, err error) *MarketError {
	return New(ErrorTypeCacheCorrupt, "", message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *MarketError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// TypeOf reports the taxonomy type of err, or an empty string when err is
// not a MarketError.
func TypeOf(err error) ErrorType {
	var me *MarketError
	if errors.As(err, &me) {
		return me.Type
	}
	return ""
}
