package model

import (
	"errors"
	"fmt"
)

// AuthError means the credential refresh for a target failed. It aborts the
// current publish or edit, never the process.
type AuthError struct {
	TargetID int64
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth failed for target %d: %v", e.TargetID, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// TransferErrorKind enumerates per-attachment failure classes.
type TransferErrorKind string

const (
	TransferOversized       TransferErrorKind = "oversized_file"
	TransferUnsupportedType TransferErrorKind = "unsupported_type"
	TransferDownloadFailed  TransferErrorKind = "download_failed"
	TransferUploadFailed    TransferErrorKind = "upload_failed"
)

// TransferError is a recoverable media-transfer failure; the router decides
// between fallback and skip.
type TransferError struct {
	Kind   TransferErrorKind
	FileID string
	Err    error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer %s (file %s): %v", e.Kind, e.FileID, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// IsTransferKind reports whether err is a TransferError of the given kind.
func IsTransferKind(err error, kind TransferErrorKind) bool {
	var te *TransferError
	return errors.As(err, &te) && te.Kind == kind
}

// PublishError means the destination API exhausted its retries. The message
// stays un-published and no mapping is written.
type PublishError struct {
	Err error
}

func (e *PublishError) Error() string { return fmt.Sprintf("publish failed: %v", e.Err) }

func (e *PublishError) Unwrap() error { return e.Err }

// EditErrorKind enumerates edit-propagation failure classes.
type EditErrorKind string

const (
	EditMappingNotFound EditErrorKind = "mapping_not_found"
	EditFailed          EditErrorKind = "edit_failed"
)

// EditError is a reported, non-fatal edit failure.
type EditError struct {
	Kind      EditErrorKind
	MessageID int64
	Err       error
}

func (e *EditError) Error() string {
	return fmt.Sprintf("edit %s (message %d): %v", e.Kind, e.MessageID, e.Err)
}

func (e *EditError) Unwrap() error { return e.Err }
