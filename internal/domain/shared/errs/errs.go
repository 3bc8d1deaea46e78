// Package errs is the engine's error taxonomy. Every failure that reaches a
// caller is one of three kinds: the input was malformed, the request collided
// with existing state, or the target does not exist.
package errs

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

type Kind string

const (
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindNotFound   Kind = "not_found"
	KindInternal   Kind = "internal"
)

const (
	CodeInvalidRange         = "INVALID_RANGE"
	CodeInvalidInput         = "INVALID_INPUT"
	CodeOccupancyExceeded    = "OCCUPANCY_EXCEEDED"
	CodeDateRangeUnavailable = "DATE_RANGE_UNAVAILABLE"
	CodeBulkEditRejected     = "BULK_EDIT_REJECTED"
	CodeConcurrentWrite      = "CONCURRENT_WRITE"
	CodeRoomNotFound         = "ROOM_NOT_FOUND"
	CodeReservationNotFound  = "RESERVATION_NOT_FOUND"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	// Dates lists the calendar days responsible for a conflict, ascending.
	Dates []time.Time
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(code, message string, err error) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message, Err: err}
}

func Conflict(code, message string, dates []time.Time, err error) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message, Dates: sortedCopy(dates), Err: err}
}

func NotFound(code, message string, err error) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message, Err: err}
}

// KindOf reports the taxonomy kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the error code or an empty string for foreign errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// DatesOf returns the conflicting dates carried by err, if any.
func DatesOf(err error) []time.Time {
	var e *Error
	if errors.As(err, &e) {
		return e.Dates
	}
	return nil
}

func IsConflict(err error) bool { return KindOf(err) == KindConflict }

func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

func IsValidation(err error) bool { return KindOf(err) == KindValidation }

func sortedCopy(dates []time.Time) []time.Time {
	if len(dates) == 0 {
		return nil
	}
	out := append([]time.Time(nil), dates...)
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
