// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"errors"
	"fmt"
	"net/http"
)

// MatrixError represents a structured error response from the Matrix homeserver.
// Callers can use errors.As to extract the structured information:
//
//	var matrixErr *MatrixError
//	if errors.As(err, &matrixErr) {
//	    if matrixErr.Code == ErrCodeForbidden { ... }
//	}
type MatrixError struct {
	// Code is the Matrix error code (e.g., "M_FORBIDDEN", "M_UNKNOWN_TOKEN").
	Code string `json:"errcode"`
	// Message is the human-readable error description from the server.
	Message string `json:"error"`
	// SoftLogout is set by the homeserver when the token expired but the
	// device may log in again without losing its keys.
	SoftLogout bool `json:"soft_logout,omitempty"`
	// StatusCode is the HTTP status code of the response.
	StatusCode int `json:"-"`
}

func (e *MatrixError) Error() string {
	return fmt.Sprintf("matrix: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// Standard Matrix error codes.
const (
	ErrCodeForbidden     = "M_FORBIDDEN"
	ErrCodeUnknownToken  = "M_UNKNOWN_TOKEN"
	ErrCodeMissingToken  = "M_MISSING_TOKEN"
	ErrCodeNotFound      = "M_NOT_FOUND"
	ErrCodeLimitExceeded = "M_LIMIT_EXCEEDED"
	ErrCodeUnrecognized  = "M_UNRECOGNIZED"
	ErrCodeUnknown       = "M_UNKNOWN"
	ErrCodeInvalidParam  = "M_INVALID_PARAM"
	ErrCodeMissingParam  = "M_MISSING_PARAM"
)

// ErrReauthRequired marks errors caused by a missing, expired, or
// revoked access token. The session that produced it is unusable; the
// caller must obtain a new one.
var ErrReauthRequired = errors.New("messaging: reauthentication required")

// IsMatrixError checks whether err is a *MatrixError with the given error code.
func IsMatrixError(err error, code string) bool {
	var matrixErr *MatrixError
	if errors.As(err, &matrixErr) {
		return matrixErr.Code == code
	}
	return false
}

// reauthError is a token rejection. It matches both ErrReauthRequired
// and the underlying *MatrixError.
type reauthError struct {
	matrixErr *MatrixError
}

func (e *reauthError) Error() string {
	return e.matrixErr.Error() + " (reauthentication required)"
}

func (e *reauthError) Unwrap() []error {
	return []error{ErrReauthRequired, e.matrixErr}
}

// classifyError returns the error doRequest reports for a parsed error
// response. Token errors on a 401 also match ErrReauthRequired.
func classifyError(matrixErr *MatrixError) error {
	if matrixErr.StatusCode == http.StatusUnauthorized &&
		(matrixErr.Code == ErrCodeUnknownToken || matrixErr.Code == ErrCodeMissingToken) {
		return &reauthError{matrixErr: matrixErr}
	}
	return matrixErr
}
