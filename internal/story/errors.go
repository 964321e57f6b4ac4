package story

import (
	"errors"
	"fmt"
)

// Load-time failures. Any of these prevents producing a usable Document.
var (
	ErrMalformedDocument = errors.New("malformed document")
	ErrMalformedNode     = errors.New("malformed node")
	ErrDuplicateNodeID   = errors.New("duplicate node id")
	ErrStartNodeMissing  = errors.New("start node missing")
)

// LoadError carries the context of a load-time failure. It unwraps to one of
// the sentinel errors above.
type LoadError struct {
	Kind    error
	Chapter int // zero-based chapter index, -1 when unknown
	NodeID  string
	Detail  string
}

func (e *LoadError) Error() string {
	msg := e.Kind.Error()
	if e.Chapter >= 0 {
		msg += fmt.Sprintf(": chapter %d", e.Chapter+1)
	}
	if e.NodeID != "" {
		msg += fmt.Sprintf(": node %q", e.NodeID)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Kind
}

func malformedDocument(format string, args ...any) error {
	return &LoadError{Kind: ErrMalformedDocument, Chapter: -1, Detail: fmt.Sprintf(format, args...)}
}

func malformedNode(id string, format string, args ...any) error {
	return &LoadError{Kind: ErrMalformedNode, Chapter: -1, NodeID: id, Detail: fmt.Sprintf(format, args...)}
}
