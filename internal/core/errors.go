package core

import "errors"

// Load errors.
var (
	ErrEmptyIdentifier = errors.New("empty identifier")
	ErrNetwork         = errors.New("network failure")
	ErrBackend         = errors.New("backend reported failure")
	ErrParse           = errors.New("invalid csv")
	ErrStaleLoad       = errors.New("stale load result")
)

// Validation errors.
var (
	ErrEmptyCategory     = errors.New("category name cannot be empty")
	ErrDuplicateCategory = errors.New("category already exists")
	ErrInvalidTime       = errors.New("invalid time")
	ErrUnknownField      = errors.New("unknown field")
	ErrInvalidValue      = errors.New("invalid value")
	ErrUnknownPlatform   = errors.New("unknown platform")
)

// Editing errors.
var (
	ErrItemNotFound        = errors.New("item not found")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrGroupNotFound       = errors.New("topping group not found")
	ErrToppingNotFound     = errors.New("topping not found")
	ErrNotEditing          = errors.New("no item is being edited")
	ErrToppingsUnsupported = errors.New("toppings not supported for platform")
	ErrNotConfirmed        = errors.New("deletion not confirmed")
	ErrReadOnlyID          = errors.New("id is read-only")
	ErrDayDisabled         = errors.New("day is disabled")
	ErrRowNotFound         = errors.New("shift row not found")
	ErrScheduleNotOpen     = errors.New("schedule editor is not open")
)

// Export errors.
var (
	ErrNothingToExport = errors.New("no data to generate")
	ErrNoHeaders       = errors.New("cannot determine csv structure")
	ErrSerialize       = errors.New("error generating csv")
)
