package core

// error_messages.go maps errors to user-facing messages with support codes.
//
// # Error Codes Reference
//
// When users see an error they can quote its code to support staff for
// faster diagnosis. Codes are grouped by category:
//
// # Load Errors (LOAD001-LOAD099)
//
//	LOAD001 - Empty identifier: No vendor code or URL was entered
//	LOAD002 - Network: The scrape backend could not be reached
//	LOAD003 - Backend: The backend rejected the request
//	LOAD004 - Parse: A platform's menu table is malformed
//	LOAD005 - Stale: A newer load or reset replaced this attempt
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Empty category name
//	VAL002 - Duplicate category name
//	VAL003 - Invalid 24-hour time
//	VAL004 - Unknown field
//	VAL005 - Invalid field value
//	VAL006 - Unknown platform
//
// # Editing Errors (EDIT001-EDIT099)
//
//	EDIT001 - Item not found
//	EDIT002 - Topping group not found
//	EDIT003 - Topping not found
//	EDIT004 - No item open in the topping editor
//	EDIT005 - Platform has no toppings
//	EDIT006 - Deletion not confirmed
//	EDIT007 - Id loaded from the source is read-only
//	EDIT008 - Day is disabled in the schedule
//	EDIT009 - Shift row not found
//	EDIT010 - Schedule editor not open
//	EDIT011 - Category not found
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Nothing to export
//	EXP002 - Column layout unknown
//	EXP003 - Serialization failed
//
// # Request Errors (REQ001-REQ099)
//
// Matched on error text when no sentinel applies:
//
//	REQ001 - Request cancelled ("context canceled")
//	REQ002 - Request timed out ("context deadline exceeded")
//	REQ003 - Rate limited ("rate limit")
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: check application logs for the technical error
//
// # Matching
//
// Sentinels are matched with errors.Is in table order, so wrapped errors
// map to the code of the innermost known sentinel listed first. Text
// patterns are matched case-insensitively with strings.Contains afterwards.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorSentinel maps a sentinel error to its user message.
type errorSentinel struct {
	err error
	msg UserMessage
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorSentinels is checked first. Stale loads come before network errors
// because a stale attempt may also carry the transport failure.
var errorSentinels = []errorSentinel{
	// =========================================================================
	// Load Errors (LOAD001-LOAD005)
	// =========================================================================
	{ErrEmptyIdentifier, UserMessage{
		Message: "Please enter a Vendor Code or URL",
		Action:  "Type a vendor code or paste a vendor page URL",
		Code:    "LOAD001",
	}},
	{ErrStaleLoad, UserMessage{
		Message: "A newer load replaced this one",
		Action:  "Wait for the latest load to finish",
		Code:    "LOAD005",
	}},
	{ErrNetwork, UserMessage{
		Message: "Could not connect to backend",
		Action:  "Check that the scrape service is running and try again",
		Code:    "LOAD002",
	}},
	{ErrBackend, UserMessage{
		Message: "Failed to fetch data from backend",
		Action:  "Check the vendor code and try again",
		Code:    "LOAD003",
	}},
	{ErrParse, UserMessage{
		Message: "Menu data could not be parsed",
		Action:  "The other platform is unaffected; try loading again",
		Code:    "LOAD004",
	}},

	// =========================================================================
	// Validation Errors (VAL001-VAL006)
	// =========================================================================
	{ErrEmptyCategory, UserMessage{
		Message: "Category name cannot be empty",
		Action:  "Enter a name for the category",
		Code:    "VAL001",
	}},
	{ErrDuplicateCategory, UserMessage{
		Message: "Category already exists",
		Action:  "Choose a different name",
		Code:    "VAL002",
	}},
	{ErrInvalidTime, UserMessage{
		Message: "Invalid time",
		Action:  "Use 24-hour HH:MM, for example 09:30",
		Code:    "VAL003",
	}},
	{ErrUnknownField, UserMessage{
		Message: "Unknown field",
		Action:  "Refresh the page and try again",
		Code:    "VAL004",
	}},
	{ErrInvalidValue, UserMessage{
		Message: "Invalid value",
		Action:  "Check the value and try again",
		Code:    "VAL005",
	}},
	{ErrUnknownPlatform, UserMessage{
		Message: "Unknown platform",
		Action:  "Use sf or tf",
		Code:    "VAL006",
	}},

	// =========================================================================
	// Editing Errors (EDIT001-EDIT011)
	// =========================================================================
	{ErrItemNotFound, UserMessage{
		Message: "Menu item not found",
		Action:  "The item may have been deleted. Refresh the menu",
		Code:    "EDIT001",
	}},
	{ErrGroupNotFound, UserMessage{
		Message: "Topping group not found",
		Action:  "Reopen the toppings editor",
		Code:    "EDIT002",
	}},
	{ErrToppingNotFound, UserMessage{
		Message: "Topping not found",
		Action:  "Reopen the toppings editor",
		Code:    "EDIT003",
	}},
	{ErrNotEditing, UserMessage{
		Message: "No item is open in the toppings editor",
		Action:  "Open the toppings of an item first",
		Code:    "EDIT004",
	}},
	{ErrToppingsUnsupported, UserMessage{
		Message: "This platform has no toppings",
		Action:  "Toppings can only be edited for SnappFood items",
		Code:    "EDIT005",
	}},
	{ErrNotConfirmed, UserMessage{
		Message: "Deletion was not confirmed",
		Action:  "Confirm the deletion to proceed",
		Code:    "EDIT006",
	}},
	{ErrReadOnlyID, UserMessage{
		Message: "This id came from the source and cannot be changed",
		Action:  "Add a new group or topping to use a custom id",
		Code:    "EDIT007",
	}},
	{ErrDayDisabled, UserMessage{
		Message: "This day is disabled",
		Action:  "Enable the day before editing its shifts",
		Code:    "EDIT008",
	}},
	{ErrRowNotFound, UserMessage{
		Message: "Shift row not found",
		Action:  "Reopen the shifts editor",
		Code:    "EDIT009",
	}},
	{ErrScheduleNotOpen, UserMessage{
		Message: "The shifts editor is not open",
		Action:  "Open the shifts editor first",
		Code:    "EDIT010",
	}},
	{ErrCategoryNotFound, UserMessage{
		Message: "Category not found",
		Action:  "Refresh the menu",
		Code:    "EDIT011",
	}},

	// =========================================================================
	// Export Errors (EXP001-EXP003)
	// =========================================================================
	{ErrNothingToExport, UserMessage{
		Message: "No data to generate",
		Action:  "Load or add some data first",
		Code:    "EXP001",
	}},
	{ErrNoHeaders, UserMessage{
		Message: "Cannot determine CSV structure",
		Action:  "Load data or fill in the vendor info first",
		Code:    "EXP002",
	}},
	{ErrSerialize, UserMessage{
		Message: "Error generating CSV",
		Action:  "Please try again or contact support",
		Code:    "EXP003",
	}},
}

// errorPatterns maps technical error text (case-insensitive) to user messages
// for errors that carry no sentinel. The first matching pattern wins.
var errorPatterns = []errorPattern{
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Please try again or check your connection",
			Code:    "REQ002",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "REQ003",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "Request is too large",
			Action:  "Send a smaller request",
			Code:    "REQ004",
		},
	},
	{
		pattern: "too many concurrent loads",
		msg: UserMessage{
			Message: "Too many loads in progress",
			Action:  "Please wait a moment and load again",
			Code:    "REQ005",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Known sentinels are matched first, then text patterns. If nothing
// matches, a generic fallback message with code ERR000 is returned.
//
// Example:
//
//	err := fmt.Errorf("%w: %q for SF", ErrDuplicateCategory, "Drinks")
//	msg := MapError(err)
//	// msg.Code == "VAL002"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var ue *UserError
	if errors.As(err, &ue) {
		return ue.User
	}

	for _, es := range errorSentinels {
		if errors.Is(err, es.err) {
			return es.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than the
// generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError creates a UserError by mapping a technical error to a
// user-friendly message. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
