package inventory

// error_messages.go maps technical errors to messages safe to show end users.
//
// # Error Codes Reference
//
// File errors:
//
//	FILE001 - File too large: the upload exceeds the configured size limit
//	FILE002 - Invalid file: the file could not be parsed
//	FILE004 - No file: the request carried no file part
//	FILE005 - Empty file: the file has no header row
//	FILE006 - Unsupported format: the extension is not .csv, .txt, .xlsx or .xls
//
// Write errors:
//
//	UPL002 - System busy: another ingest or delete is in progress
//	UPL004 - Request cancelled
//	UPL005 - Request timed out
//
// Other:
//
//	RATE001 - Too many requests
//	ERR000  - Fallback; check the logs for the technical error
//
// Typed errors (ParseError, UnsupportedFormatError, ErrConcurrentWrite) are
// checked with errors.Is/As first. Everything else falls through to
// case-insensitive substring patterns, first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

var (
	msgFileTooLarge = UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Remove unused rows or columns and try again",
		Code:    "FILE001",
	}
	msgInvalidFile = UserMessage{
		Message: "The file could not be read",
		Action:  "Check that the file is a valid CSV or Excel workbook",
		Code:    "FILE002",
	}
	msgNoFile = UserMessage{
		Message: "No file was selected",
		Action:  "Please select an inventory file to upload",
		Code:    "FILE004",
	}
	msgEmptyFile = UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Please upload a file with a header row",
		Code:    "FILE005",
	}
	msgUnsupported = UserMessage{
		Message: "This file type is not supported",
		Action:  "Upload a .csv, .txt, .xlsx or .xls file",
		Code:    "FILE006",
	}
	msgBusy = UserMessage{
		Message: "Another upload is being processed",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}
	msgTimeout = UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "UPL005",
	}
	msgRateLimited = UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}
)

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns catches errors that cross package boundaries as plain text
// (http.MaxBytesError, multipart errors, middleware rejections).
var errorPatterns = []errorPattern{
	{pattern: "request body too large", msg: msgFileTooLarge},
	{pattern: "file too large", msg: msgFileTooLarge},
	{pattern: "no file provided", msg: msgNoFile},
	{pattern: "no such file", msg: msgNoFile},
	{pattern: "empty file", msg: msgEmptyFile},
	{pattern: "unsupported file format", msg: msgUnsupported},
	{pattern: "invalid csv", msg: msgInvalidFile},
	{pattern: "invalid spreadsheet", msg: msgInvalidFile},
	{pattern: "too many uploads", msg: msgBusy},
	{pattern: "rate limit", msg: msgRateLimited},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	switch {
	case errors.Is(err, ErrConcurrentWrite):
		return msgBusy
	case errors.Is(err, ErrNoHeader):
		return msgEmptyFile
	case IsUnsupportedFormat(err):
		return msgUnsupported
	case IsParseError(err):
		return msgInvalidFile
	case errors.Is(err, context.Canceled):
		return msgCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something other than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error (for logs) with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
