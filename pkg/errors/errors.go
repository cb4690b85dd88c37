// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Excalibur Contributors

package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeStoreStateNotFound      Code = "store.state.not_found"
	CodeStoreStateIntegrity     Code = "store.state.integrity"
	CodeStoreLockHeld           Code = "store.lock.held"
	CodeStoreWriteFailure       Code = "store.write.failure"
	CodeStoreDatabaseFailure    Code = "store.database.failure"
	CodeStoreBackendUnsupported Code = "store.backend.unsupported"
	CodeStoreInvalidInput       Code = "store.invalid_input"

	CodeSchedulerWeightsInvalid Code = "scheduler.weights.invalid"
	CodeSchedulerElapsedInvalid Code = "scheduler.elapsed.invalid_input"

	CodeDeckManifestReadFailure Code = "deck.manifest.read.failure"
	CodeDeckManifestInvalid     Code = "deck.manifest.parse.invalid_format"
	CodeDeckCardNotFound        Code = "deck.card.not_found"

	CodeQueueBuildFailure Code = "queue.build.failure"

	CodeReviewRatingInvalid Code = "review.rating.invalid"
	CodeReviewPhaseInvalid  Code = "review.phase.invalid"
	CodeReviewSessionDone   Code = "review.session.terminal"

	CodeConfigLoadReadFailure      Code = "config.load.read.failure"
	CodeConfigValidateInvalidValue Code = "config.validate.invalid_value"

	CodeCLISetupFailure Code = "cli.setup.failure"
	CodeCLIInputInvalid Code = "cli.input.invalid"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// Field creates a structured error field.
func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

func FieldCardID(value string) Attr {
	return Field("card_id", value)
}

func FieldRating(value string) Attr {
	return Field("rating", value)
}

func FieldTag(value string) Attr {
	return Field("tag", value)
}

func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).Wrapf(err, format, args...)
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	if code, ok := oopsErr.Code().(Code); ok {
		return code
	}

	if code, ok := oopsErr.Code().(string); ok {
		return Code(code)
	}

	return Code(fmt.Sprintf("%v", oopsErr.Code()))
}

func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}

	return oopsErr.Context()
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

func IsNotFound(err error) bool {
	return reason(CodeOf(err)) == "not_found"
}

func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid" || r == "invalid_input" || r == "invalid_value" || r == "invalid_format"
}

// IsIntegrity reports whether the error marks a stored record that failed
// invariant checks. Such records are excluded from scheduling until
// repaired, never silently defaulted.
func IsIntegrity(err error) bool {
	return reason(CodeOf(err)) == "integrity"
}

// IsLocked reports whether the error marks a refused second concurrent
// writer on the scheduling store.
func IsLocked(err error) bool {
	return reason(CodeOf(err)) == "held"
}

// IsWriteFailure reports whether a commit failed before any partial write
// became visible. The caller may retry the same operation with the same
// inputs.
func IsWriteFailure(err error) bool {
	code := CodeOf(err)
	return strings.Contains(string(code), "write") && reason(code) == "failure"
}

func Join(errs ...error) error {
	return oops.Code(CodeStoreDatabaseFailure).Wrap(stderrors.Join(errs...))
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}

func reason(code Code) string {
	if code == "" {
		return ""
	}

	raw := string(code)
	idx := strings.LastIndex(raw, ".")
	if idx == -1 || idx == len(raw)-1 {
		return raw
	}
	return raw[idx+1:]
}
