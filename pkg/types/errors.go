// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies document-level failures. Each kind has its own exit code.
type ErrorKind string

const (
	KindDocumentInvalid   ErrorKind = "document_invalid"
	KindDocumentProtected ErrorKind = "document_protected"
	KindPageRangeInvalid  ErrorKind = "page_range_invalid"
	KindExtractionFailed  ErrorKind = "extraction_failed"
	KindOutputWriteFailed ErrorKind = "output_write_failed"
)

// Sentinel errors, one per kind. An *Error matches the sentinel of its kind
// under errors.Is.
var (
	ErrDocumentInvalid   = errors.New("document invalid")
	ErrDocumentProtected = errors.New("document protected")
	ErrPageRangeInvalid  = errors.New("page range invalid")
	ErrExtractionFailed  = errors.New("extraction failed")
	ErrOutputWriteFailed = errors.New("output write failed")
)

var sentinels = map[ErrorKind]error{
	KindDocumentInvalid:   ErrDocumentInvalid,
	KindDocumentProtected: ErrDocumentProtected,
	KindPageRangeInvalid:  ErrPageRangeInvalid,
	KindExtractionFailed:  ErrExtractionFailed,
	KindOutputWriteFailed: ErrOutputWriteFailed,
}

// Stage names the pipeline step where an error occurred.
type Stage string

const (
	StageValidation Stage = "validation"
	StageOpen       Stage = "open"
	StageExtract    Stage = "extract"
	StageImages     Stage = "images"
	StageSave       Stage = "save"
)

// Error is a fatal, document-level failure.
type Error struct {
	Kind  ErrorKind
	Path  string
	Stage Stage

	// Attempted lists the strategies that ran before an extraction failure.
	Attempted []Method

	Err error
}

// NewError builds an *Error of the given kind.
func NewError(kind ErrorKind, path string, stage Stage, err error) *Error {
	return &Error{Kind: kind, Path: path, Stage: stage, Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Path, e.Kind)
	if e.Stage != "" {
		fmt.Fprintf(&b, " during %s", e.Stage)
	}
	if len(e.Attempted) > 0 {
		names := make([]string, len(e.Attempted))
		for i, m := range e.Attempted {
			names[i] = string(m)
		}
		fmt.Fprintf(&b, " (attempted: %s)", strings.Join(names, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel error of e's kind.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// KindOf returns the kind of the first *Error or sentinel in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	for kind, s := range sentinels {
		if errors.Is(err, s) {
			return kind, true
		}
	}
	return "", false
}

// Exit codes for the CLI.
const (
	ExitOK                = 0
	ExitUsage             = 1
	ExitDocumentInvalid   = 2
	ExitDocumentProtected = 3
	ExitPageRangeInvalid  = 4
	ExitExtractionFailed  = 5
	ExitOutputWriteFailed = 6
)

// ExitCode maps err to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	kind, ok := KindOf(err)
	if !ok {
		return ExitUsage
	}
	switch kind {
	case KindDocumentInvalid:
		return ExitDocumentInvalid
	case KindDocumentProtected:
		return ExitDocumentProtected
	case KindPageRangeInvalid:
		return ExitPageRangeInvalid
	case KindExtractionFailed:
		return ExitExtractionFailed
	case KindOutputWriteFailed:
		return ExitOutputWriteFailed
	}
	return ExitUsage
}
