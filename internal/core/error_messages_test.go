package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "empty identifier",
			err:         ErrEmptyIdentifier,
			wantCode:    "LOAD001",
			wantMessage: "Please enter a Vendor Code or URL",
		},
		{
			name:        "wrapped network failure",
			err:         fmt.Errorf("%w: dial tcp: connection refused", ErrNetwork),
			wantCode:    "LOAD002",
			wantMessage: "Could not connect to backend",
		},
		{
			name:        "stale wins over network",
			err:         fmt.Errorf("%w: %w", ErrStaleLoad, ErrNetwork),
			wantCode:    "LOAD005",
			wantMessage: "A newer load replaced this one",
		},
		{
			name:        "parse error inside load error",
			err:         &LoadError{Platform: SF, Err: fmt.Errorf("%w at line 3", ErrParse)},
			wantCode:    "LOAD004",
			wantMessage: "Menu data could not be parsed",
		},
		{
			name:        "duplicate category",
			err:         fmt.Errorf("%w: %q for SF", ErrDuplicateCategory, "Drinks"),
			wantCode:    "VAL002",
			wantMessage: "Category already exists",
		},
		{
			name:        "invalid time",
			err:         fmt.Errorf("%w: %q", ErrInvalidTime, "9:00"),
			wantCode:    "VAL003",
			wantMessage: "Invalid time",
		},
		{
			name:        "read-only id",
			err:         ErrReadOnlyID,
			wantCode:    "EDIT007",
			wantMessage: "This id came from the source and cannot be changed",
		},
		{
			name:        "nothing to export",
			err:         fmt.Errorf("%w for SF", ErrNothingToExport),
			wantCode:    "EXP001",
			wantMessage: "No data to generate",
		},
		{
			name:        "context canceled pattern",
			err:         fmt.Errorf("scrape: %w", context.Canceled),
			wantCode:    "REQ001",
			wantMessage: "Request was cancelled",
		},
		{
			name:        "case insensitive pattern",
			err:         errors.New("RATE LIMIT exceeded"),
			wantCode:    "REQ003",
			wantMessage: "Too many requests",
		},
		{
			name:        "oversized body pattern",
			err:         errors.New("http: request body too large"),
			wantCode:    "REQ004",
			wantMessage: "Request is too large",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() Code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() Message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestEverySentinelHasUniqueCode(t *testing.T) {
	seen := make(map[string]error)
	for _, es := range errorSentinels {
		if prev, ok := seen[es.msg.Code]; ok {
			t.Errorf("code %s used by both %v and %v", es.msg.Code, prev, es.err)
		}
		seen[es.msg.Code] = es.err
		if es.msg.Action == "" {
			t.Errorf("%s has no action", es.msg.Code)
		}
	}
}

func TestFormatUserError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "nil error returns empty",
			err:  nil,
			want: "",
		},
		{
			name: "known error formats correctly",
			err:  ErrEmptyCategory,
			want: "Category name cannot be empty (Code: VAL001). Enter a name for the category",
		},
		{
			name: "unknown error formats with default",
			err:  errors.New("something weird"),
			want: "An unexpected error occurred (Code: ERR000). Please try again or contact support",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatUserError(tt.err); got != tt.want {
				t.Errorf("FormatUserError() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"known sentinel", ErrItemNotFound, true},
		{"known pattern", context.DeadlineExceeded, true},
		{"unknown error", errors.New("random internal error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	if NewUserError(nil) != nil {
		t.Error("NewUserError(nil) should return nil")
	}

	technical := fmt.Errorf("%w: group-new-3", ErrGroupNotFound)
	ue := NewUserError(technical)

	if ue.Error() != "Topping group not found" {
		t.Errorf("Error() = %q", ue.Error())
	}
	if ue.User.Code != "EDIT002" {
		t.Errorf("Code = %q, want EDIT002", ue.User.Code)
	}
	if !errors.Is(ue, ErrGroupNotFound) {
		t.Error("UserError does not unwrap to the technical error")
	}

	// A UserError keeps its mapped message when wrapped again.
	wrapped := fmt.Errorf("handler: %w", ue)
	if got := MapError(wrapped); got.Code != "EDIT002" {
		t.Errorf("MapError(wrapped) = %q, want EDIT002", got.Code)
	}
}
