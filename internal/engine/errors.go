package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zuo-Peng/chatlyze/internal/parse"
)

type Kind string

const (
	KindUnrecognizedFormat Kind = "unrecognized_format"
	KindEmptyInput         Kind = "empty_input"
	KindInvalidOptions     Kind = "invalid_options"
	KindCanceled           Kind = "canceled"
)

// Error is the only failure type Analyze returns.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	var ee *Error
	if errors.As(err, &ee) {
		return err
	}
	switch {
	case errors.Is(err, parse.ErrUnrecognizedFormat):
		return &Error{Kind: KindUnrecognizedFormat, Err: err}
	case errors.Is(err, parse.ErrEmptyInput):
		return &Error{Kind: KindEmptyInput, Err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindCanceled, Err: err}
	default:
		return &Error{Kind: KindInvalidOptions, Err: err}
	}
}

// KindOf returns the failure kind of err, or "" for foreign errors.
func KindOf(err error) Kind {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return ""
}

// UserMessage renders a failure for people rather than logs.
func UserMessage(err error) string {
	var ee *Error
	if !errors.As(err, &ee) {
		if err == nil {
			return ""
		}
		return err.Error()
	}
	switch ee.Kind {
	case KindUnrecognizedFormat:
		return "Could not parse file - check format"
	case KindEmptyInput:
		return "The file is empty"
	case KindInvalidOptions:
		return "Invalid analysis settings: " + ee.Err.Error()
	case KindCanceled:
		return "Analysis was canceled"
	default:
		return err.Error()
	}
}
