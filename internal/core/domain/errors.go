package domain

import (
	"errors"
	"fmt"
)

var (
	ErrReceiptNotFound = errors.New("receipt not found")
	ErrBatchNotFound   = errors.New("batch not found")
	ErrInvalidInput    = errors.New("invalid input")

	// ErrOcrFailure marks text extraction problems. Processing recovers from
	// it by treating the receipt as having no text.
	ErrOcrFailure = errors.New("text extraction failure")

	// ErrClassificationFailure marks entity-analysis problems. Processing
	// recovers from it by classifying on keywords alone.
	ErrClassificationFailure = errors.New("classification failure")

	// ErrRenameConflict means the rename target already exists in storage.
	ErrRenameConflict = errors.New("rename target exists")

	ErrTemporary = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
