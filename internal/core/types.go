package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/JonMunkholm/MenuEditor/internal/tabular"
)

// Platform identifies one of the supported food-delivery data sources.
type Platform string

const (
	SF Platform = "sf"
	TF Platform = "tf"
)

// Platforms lists every platform in display order.
var Platforms = []Platform{SF, TF}

// ParsePlatform converts a route or form value to a Platform.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case SF:
		return SF, nil
	case TF:
		return TF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, s)
}

// Upper returns the platform key in upper case for messages ("SF", "TF").
func (p Platform) Upper() string {
	return strings.ToUpper(string(p))
}

// UncategorizedName is the category assigned to rows without one.
const UncategorizedName = "Uncategorized"

// SourcedID is an identifier that may have been captured from source data.
//
// Original holds the id exactly as it appeared in the source JSON (a number
// or a string) and is nil for entities created in the session. Editable is
// the user-visible id field. Resolve applies the precedence rule shared by
// the topping editor and the exporter.
type SourcedID struct {
	Original json.RawMessage `json:"original,omitempty"`
	Editable string          `json:"editable"`
}

// SourcedFrom captures an id from source JSON. The editable id starts out
// equal to the original.
func SourcedFrom(raw json.RawMessage) SourcedID {
	var buf bytes.Buffer
	if len(bytes.TrimSpace(raw)) > 0 && json.Compact(&buf, raw) == nil {
		raw = buf.Bytes()
	} else {
		raw = nil
	}
	return SourcedID{Original: raw, Editable: tabular.ScalarText(raw)}
}

// IsSourced reports whether an original id is present and non-blank.
// Sourced ids are read-only in the editing surface.
func (id SourcedID) IsSourced() bool {
	if len(id.Original) == 0 {
		return false
	}
	trimmed := bytes.TrimSpace(id.Original)
	if bytes.Equal(trimmed, []byte("null")) {
		return false
	}
	return strings.TrimSpace(tabular.ScalarText(trimmed)) != ""
}

// Resolve returns the id to serialize: the original if sourced, otherwise
// the editable id as a JSON string, otherwise "".
func (id SourcedID) Resolve() json.RawMessage {
	if id.IsSourced() {
		return id.Original
	}
	b, _ := json.Marshal(id.Editable)
	return b
}

// String returns the resolved id as display text.
func (id SourcedID) String() string {
	return tabular.ScalarText(id.Resolve())
}

// edit applies a user edit to the editable id. Entities created in the
// session lose any original id for good.
func (id *SourcedID) edit(value string, synthetic bool) error {
	if id.IsSourced() {
		return ErrReadOnlyID
	}
	id.Editable = value
	if synthetic {
		id.Original = nil
	}
	return nil
}

// Topping is one selectable option inside a ToppingGroup (SF only).
type Topping struct {
	DomID       string    `json:"domId"`
	ID          SourcedID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Selected    bool      `json:"selected"`
}

// ToppingGroup is a named set of toppings with selection bounds (SF only).
type ToppingGroup struct {
	DomID    string    `json:"domId"`
	ID       SourcedID `json:"id"`
	Title    string    `json:"title"`
	MinCount float64   `json:"minCount"`
	MaxCount float64   `json:"maxCount"`
	Selected bool      `json:"selected"`
	Toppings []Topping `json:"toppings"`
}

// Clone returns a deep copy of the group.
func (g ToppingGroup) Clone() ToppingGroup {
	c := g
	c.ID.Original = cloneRaw(g.ID.Original)
	c.Toppings = make([]Topping, len(g.Toppings))
	for i, t := range g.Toppings {
		t.ID.Original = cloneRaw(t.ID.Original)
		c.Toppings[i] = t
	}
	return c
}

// MenuItem is one editable menu row.
type MenuItem struct {
	DomID       string         `json:"domId"`
	Platform    Platform       `json:"platform"`
	Selected    bool           `json:"selected"`
	ItemID      string         `json:"itemId"`
	Title       string         `json:"itemTitle"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	Rating      float64        `json:"rating"`
	Category    string         `json:"categoryName"`
	Toppings    []ToppingGroup `json:"productToppings"`
	Synthetic   bool           `json:"synthetic"`

	// OriginalRow is the verbatim source row used as an export template.
	OriginalRow tabular.Row `json:"-"`
}

// Clone returns a deep copy of the item.
func (m MenuItem) Clone() MenuItem {
	c := m
	c.OriginalRow = m.OriginalRow.Clone()
	c.Toppings = cloneGroups(m.Toppings)
	return c
}

// SelectedGroupCount returns the number of selected topping groups.
func (m MenuItem) SelectedGroupCount() int {
	n := 0
	for _, g := range m.Toppings {
		if g.Selected {
			n++
		}
	}
	return n
}

func cloneGroups(groups []ToppingGroup) []ToppingGroup {
	out := make([]ToppingGroup, len(groups))
	for i, g := range groups {
		out[i] = g.Clone()
	}
	return out
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	return append(json.RawMessage(nil), raw...)
}

// ShiftEntry is one opening interval on an external weekday code.
type ShiftEntry struct {
	Weekday   int    `json:"weekday"`
	AllDay    bool   `json:"allDay"`
	StartHour string `json:"startHour"`
	StopHour  string `json:"stopHour"`
}

// UnmarshalJSON accepts weekday codes written as numbers or numeric strings.
func (s *ShiftEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Weekday   json.RawMessage `json:"weekday"`
		AllDay    json.RawMessage `json:"allDay"`
		StartHour json.RawMessage `json:"startHour"`
		StopHour  json.RawMessage `json:"stopHour"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	weekday, err := strconv.Atoi(strings.TrimSpace(tabular.ScalarText(raw.Weekday)))
	if err != nil && len(raw.Weekday) > 0 {
		return fmt.Errorf("shift weekday %s: %w", raw.Weekday, err)
	}

	*s = ShiftEntry{
		Weekday:   weekday,
		AllDay:    strings.EqualFold(tabular.ScalarText(raw.AllDay), "true"),
		StartHour: tabular.ScalarText(raw.StartHour),
		StopHour:  tabular.ScalarText(raw.StopHour),
	}
	return nil
}

// VendorForm is the editable vendor-level form state of one platform.
type VendorForm struct {
	// Text holds text inputs (including the comma-separated tag input)
	// keyed by column name.
	Text tabular.Row `json:"text"`

	// Flags holds checkbox inputs keyed by column name.
	Flags map[string]bool `json:"flags"`
}

// Clone returns a deep copy of the form.
func (f VendorForm) Clone() VendorForm {
	c := VendorForm{Text: f.Text.Clone(), Flags: make(map[string]bool, len(f.Flags))}
	for k, v := range f.Flags {
		c.Flags[k] = v
	}
	return c
}

// VendorRecord is the vendor-level state of one platform.
type VendorRecord struct {
	// Info is the vendor-level mapping as received, plus sticky keys
	// (external vendor ids, ratings) that the form does not edit.
	Info tabular.Row `json:"info"`

	Form VendorForm `json:"form"`

	// OriginalHeaders is the column order of the loaded table.
	OriginalHeaders []string `json:"originalHeaders"`

	// OriginalData is the first loaded row.
	OriginalData tabular.Row `json:"-"`

	Shifts []ShiftEntry `json:"shifts"`

	// sourceShifts is the loaded shifts cell. It is exported as is until
	// the schedule editor replaces Shifts, so keys ShiftEntry does not
	// model survive.
	sourceShifts string

	OriginalIdentifier string `json:"originalIdentifier,omitempty"`
}

// Clone returns a deep copy of the record.
func (v VendorRecord) Clone() VendorRecord {
	c := v
	c.Info = v.Info.Clone()
	c.Form = v.Form.Clone()
	c.OriginalHeaders = append([]string(nil), v.OriginalHeaders...)
	c.OriginalData = v.OriginalData.Clone()
	c.Shifts = append([]ShiftEntry(nil), v.Shifts...)
	return c
}

// StatusLevel classifies a status message.
type StatusLevel string

const (
	StatusIdle       StatusLevel = "idle"
	StatusLoading    StatusLevel = "loading"
	StatusProcessing StatusLevel = "processing"
	StatusSuccess    StatusLevel = "success"
	StatusError      StatusLevel = "error"
)

// Status is the user-visible status indicator.
type Status struct {
	Message string      `json:"message"`
	Level   StatusLevel `json:"level"`
}
