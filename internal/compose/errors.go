package compose

import (
	"errors"
	"fmt"
)

// Error is returned by Compose and Publish.
//
// Errors carry a code for programmatic handling and wrap the underlying cause,
// so errors.Is and errors.As reach through to collaborator errors.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Field names the offending input field, when there is one.
	Field string

	// Err is the underlying cause.
	Err error
}

// ErrorCode categorizes composition and publishing errors.
type ErrorCode string

const (
	// ErrCodeInvalidInput indicates missing or malformed required fields.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrCodeUnknownUrgency indicates an urgency outside Low, Medium, High.
	ErrCodeUnknownUrgency ErrorCode = "UNKNOWN_URGENCY"

	// ErrCodeLayout indicates a layout block broke the cursor contract.
	ErrCodeLayout ErrorCode = "LAYOUT_FAILED"

	// ErrCodeRender indicates the surface could not be finalized.
	ErrCodeRender ErrorCode = "RENDER_FAILED"

	// ErrCodeUpload indicates the content-addressed upload failed.
	ErrCodeUpload ErrorCode = "UPLOAD_FAILED"

	// ErrCodeRecord indicates the metadata record could not be written.
	ErrCodeRecord ErrorCode = "RECORD_FAILED"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Field != "" {
		msg = fmt.Sprintf("%s (field=%s)", msg, e.Field)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsValidationError returns true if err rejects the input itself.
// Uses errors.As to handle wrapped errors.
func IsValidationError(err error) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeInvalidInput || ce.Code == ErrCodeUnknownUrgency
	}
	return false
}

// IsUploadError returns true if err is an upload failure.
func IsUploadError(err error) bool {
	return hasCode(err, ErrCodeUpload)
}

// IsRecordError returns true if err is a metadata record failure.
func IsRecordError(err error) bool {
	return hasCode(err, ErrCodeRecord)
}

// CodeOf returns the code of the first Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

func hasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
