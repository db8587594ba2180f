package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies budget pipeline failures.
type ErrorKind string

const (
	KindInvalidAttachmentType ErrorKind = "invalid_attachment_type"
	KindDocumentParse         ErrorKind = "document_parse"
	KindContentNotReady       ErrorKind = "content_not_ready"
	KindStorage               ErrorKind = "storage"
	KindPersistence           ErrorKind = "persistence"
)

// PipelineError carries the kind of failure plus a message fit for the user.
type PipelineError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

func NewPipelineError(kind ErrorKind, message string, err error) *PipelineError {
	return &PipelineError{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

func InvalidAttachmentTypeError(contentType string) *PipelineError {
	return NewPipelineError(KindInvalidAttachmentType, fmt.Sprintf("attachment must be a PDF, got %q", contentType), nil)
}

func DocumentParseError(message string, err error) *PipelineError {
	return NewPipelineError(KindDocumentParse, message, err)
}

func ContentNotReadyError(message string) *PipelineError {
	return NewPipelineError(KindContentNotReady, message, nil)
}

func StorageError(message string, err error) *PipelineError {
	return NewPipelineError(KindStorage, message, err)
}

func PersistenceError(message string, err error) *PipelineError {
	return NewPipelineError(KindPersistence, message, err)
}

// KindOf returns the kind of the first PipelineError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries a PipelineError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
