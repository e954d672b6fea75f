package core

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/JonMunkholm/MenuEditor/internal/tabular"
)

// newVendorRecord builds the vendor-level state of a platform from a
// vendor-info mapping. Headers and the original row are set by the caller.
func newVendorRecord(def PlatformDefinition, info tabular.Row, originalIdentifier string) VendorRecord {
	v := emptyVendorRecord()
	v.Info = info.Clone()
	v.OriginalIdentifier = originalIdentifier
	v.Form = populateForm(def, info)
	v.Shifts, v.sourceShifts = parseShifts(def.Key, info.Value("shifts"))
	return v
}

// populateForm copies vendor-info values into the editable form.
func populateForm(def PlatformDefinition, info tabular.Row) VendorForm {
	form := VendorForm{Flags: make(map[string]bool)}
	for _, f := range def.FormFields {
		raw := info.Value(f.Key)
		switch f.Kind {
		case FieldFlag:
			form.Flags[f.Key] = ParseFlag(raw)
		case FieldTags:
			form.Text.Set(f.Key, TagsToText(raw))
		default:
			form.Text.Set(f.Key, raw)
		}
	}
	return form
}

// parseShifts decodes a shifts cell. The trimmed cell is returned with the
// entries when it decodes, and "" otherwise.
func parseShifts(p Platform, cell string) ([]ShiftEntry, string) {
	shifts := []ShiftEntry{}
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return shifts, ""
	}
	if err := json.Unmarshal([]byte(cell), &shifts); err != nil {
		slog.Warn("invalid shifts cell, using empty schedule",
			"platform", p,
			"error", err,
		)
		return []ShiftEntry{}, ""
	}
	return shifts, cell
}

// IsBlank reports whether nothing has been entered in the vendor form:
// every text field is blank, every flag is off, and there are no shifts.
func (v VendorRecord) IsBlank() bool {
	for _, k := range v.Form.Text.Keys() {
		if strings.TrimSpace(v.Form.Text.Value(k)) != "" {
			return false
		}
	}
	for _, on := range v.Form.Flags {
		if on {
			return false
		}
	}
	return len(v.Shifts) == 0
}

// exportValues renders the vendor form as export cells: flags become
// "True"/"False", tags a JSON array, shifts a JSON string. Sticky keys
// from the loaded vendor info are included. Blank values take the field's
// export default.
func (v VendorRecord) exportValues(def PlatformDefinition) (tabular.Row, error) {
	var out tabular.Row
	for _, f := range def.FormFields {
		switch f.Kind {
		case FieldFlag:
			out.Set(f.Key, FormatFlag(v.Form.Flags[f.Key]))
		case FieldTags:
			out.Set(f.Key, TagsToJSON(v.Form.Text.Value(f.Key)))
		default:
			out.Set(f.Key, orDefault(v.Form.Text.Value(f.Key), f.ExportDefault))
		}
	}

	cell := v.sourceShifts
	if cell == "" {
		shifts := v.Shifts
		if shifts == nil {
			shifts = []ShiftEntry{}
		}
		var err error
		if cell, err = encodeJSON(shifts); err != nil {
			return tabular.Row{}, fmt.Errorf("encode shifts: %w", err)
		}
	}
	out.Set("shifts", cell)

	for _, k := range def.StickyKeys {
		out.Set(k.Key, orDefault(v.Info.Value(k.Key), k.ExportDefault))
	}
	return out, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// VendorField is one form field as presented for editing.
type VendorField struct {
	Key         string `json:"key"`
	Kind        string `json:"kind"`
	Value       string `json:"value,omitempty"`
	Checked     bool   `json:"checked,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	RTL         bool   `json:"rtl,omitempty"`
}

// VendorView is the editable vendor form of one platform.
type VendorView struct {
	Platform Platform      `json:"platform"`
	Label    string        `json:"label"`
	Fields   []VendorField `json:"fields"`
	Shifts   []ShiftEntry  `json:"shifts"`

	// OriginalIdentifier is set when the lookup identifier differs from
	// the vendor code that was found.
	OriginalIdentifier string `json:"originalIdentifier,omitempty"`
}

// VendorView returns the platform's vendor form for editing.
func (m *Menu) VendorView(p Platform) (VendorView, error) {
	def, err := Definition(p)
	if err != nil {
		return VendorView{}, err
	}
	v, err := m.store.Vendor(p)
	if err != nil {
		return VendorView{}, err
	}

	view := VendorView{Platform: p, Label: def.Label, Shifts: v.Shifts}
	for _, f := range def.FormFields {
		field := VendorField{Key: f.Key, Kind: f.Kind.String(), Placeholder: f.ExportDefault}
		if f.Kind == FieldFlag {
			field.Checked = v.Form.Flags[f.Key]
		} else {
			field.Value = v.Form.Text.Value(f.Key)
			field.RTL = IsProbablyRTL(field.Value)
		}
		view.Fields = append(view.Fields, field)
	}

	code := v.Form.Text.Value("vendor_code")
	if v.OriginalIdentifier != "" && code != "" && !strings.EqualFold(v.OriginalIdentifier, code) {
		view.OriginalIdentifier = v.OriginalIdentifier
	}
	return view, nil
}

// UpdateVendorField writes one vendor form edit. Flag fields accept
// boolean text ("true", "false", "on", "1").
func (m *Menu) UpdateVendorField(p Platform, key, value string) error {
	def, err := Definition(p)
	if err != nil {
		return err
	}
	f, ok := def.Field(key)
	if !ok {
		return fmt.Errorf("%w: %s vendor field %q", ErrUnknownField, p.Upper(), key)
	}

	return m.store.UpdateVendor(p, func(v *VendorRecord) error {
		if f.Kind == FieldFlag {
			on, err := parseCheckbox(value)
			if err != nil {
				return err
			}
			if v.Form.Flags == nil {
				v.Form.Flags = make(map[string]bool)
			}
			v.Form.Flags[key] = on
			return nil
		}
		v.Form.Text.Set(key, value)
		return nil
	})
}

// parseCheckbox converts checkbox input to a boolean.
func parseCheckbox(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "yes":
		return true, nil
	case "", "off", "no":
		return false, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, fmt.Errorf("%w: %q is not a boolean", ErrInvalidValue, s)
	}
	return b, nil
}
