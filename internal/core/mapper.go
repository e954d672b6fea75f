package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JonMunkholm/MenuEditor/internal/tabular"
)

// PlatformData is the raw input of one platform load.
type PlatformData struct {
	CSV string

	// VendorInfo holds explicit vendor-level fields. When empty the first
	// parsed row is used instead.
	VendorInfo tabular.Row

	OriginalIdentifier string
}

// LoadResult summarizes a successful platform load.
type LoadResult struct {
	Platform Platform
	Items    int
	Headers  []string
	Message  string
}

// LoadError reports a platform whose data could not be mapped.
type LoadError struct {
	Platform Platform
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %v", e.Platform.Upper(), e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadPlatform replaces platform p's state with the mapping of data.CSV.
//
// A malformed table leaves the platform empty but still fills the vendor
// form from the explicit vendor info; the returned *LoadError wraps
// ErrParse. An empty table is a successful, itemless load. Manually added
// categories of the platform are cleared either way.
func LoadPlatform(s *Store, p Platform, data PlatformData) (LoadResult, error) {
	def, err := Definition(p)
	if err != nil {
		return LoadResult{}, err
	}

	table, err := tabular.Parse(data.CSV)
	if err != nil {
		slog.Warn("csv parse failed", "platform", p, "error", err)

		msg := fmt.Sprintf("Error parsing %s CSV.", p.Upper())
		vendor := newVendorRecord(def, data.VendorInfo, data.OriginalIdentifier)
		if rerr := s.ReplacePlatform(p, vendor, nil, LoadState{Error: msg}); rerr != nil {
			return LoadResult{}, rerr
		}

		var pe *tabular.ParseError
		if errors.As(err, &pe) {
			err = fmt.Errorf("%w at line %d: %w", ErrParse, pe.Line, pe.Err)
		} else {
			err = fmt.Errorf("%w: %w", ErrParse, err)
		}
		return LoadResult{}, &LoadError{Platform: p, Err: err}
	}

	info := data.VendorInfo
	if info.Len() == 0 && len(table.Rows) > 0 {
		info = table.Rows[0]
	}

	vendor := newVendorRecord(def, info, data.OriginalIdentifier)
	vendor.OriginalHeaders = append([]string{}, table.Headers...)
	if len(table.Rows) > 0 {
		vendor.OriginalData = table.Rows[0].Clone()
	}

	items := make([]MenuItem, len(table.Rows))
	for i, row := range table.Rows {
		items[i] = mapRow(def, i, row)
	}

	if err := s.ReplacePlatform(p, vendor, items, LoadState{Loaded: true}); err != nil {
		return LoadResult{}, err
	}

	result := LoadResult{Platform: p, Items: len(items), Headers: vendor.OriginalHeaders}
	if len(items) == 0 {
		result.Message = fmt.Sprintf("%s menu is empty. Vendor info processed.", p.Upper())
	} else {
		result.Message = fmt.Sprintf("%s menu processed successfully.", p.Upper())
	}

	slog.Info("platform loaded",
		"platform", p,
		"items", len(items),
		"columns", len(vendor.OriginalHeaders),
	)
	return result, nil
}

// LoadVendorInfo replaces platform p's state with vendor info only, as for
// a load that produced no menu table.
func LoadVendorInfo(s *Store, p Platform, info tabular.Row, originalIdentifier string, load LoadState) error {
	def, err := Definition(p)
	if err != nil {
		return err
	}
	return s.ReplacePlatform(p, newVendorRecord(def, info, originalIdentifier), nil, load)
}

func mapRow(def PlatformDefinition, idx int, row tabular.Row) MenuItem {
	description := row.Value("description")
	if description == "" {
		description = row.Value("item_description")
	}
	category := row.Value("category_name")
	if category == "" {
		category = UncategorizedName
	}

	item := MenuItem{
		DomID:       fmt.Sprintf("item-src-%s-%d", def.Key, idx),
		Platform:    def.Key,
		Selected:    true,
		ItemID:      row.Value("item_id"),
		Title:       row.Value("item_title"),
		Description: description,
		Price:       ParseNonNegative(row.Value("price")),
		Rating:      ParseRating(row.Value("rating")),
		Category:    category,
		Toppings:    []ToppingGroup{},
		OriginalRow: row.Clone(),
	}

	if def.Toppings {
		item.Toppings = parseToppings(def.Key, idx, row.Value("product_toppings"))
	}
	return item
}

// sourceGroup and sourceTopping mirror the embedded topping JSON. Fields are
// kept raw so that numbers written as strings (and the reverse) still map.
type sourceGroup struct {
	ID       json.RawMessage `json:"id"`
	Title    json.RawMessage `json:"title"`
	MinCount json.RawMessage `json:"minCount"`
	MaxCount json.RawMessage `json:"maxCount"`
	Toppings json.RawMessage `json:"toppings"`
}

type sourceTopping struct {
	ID          json.RawMessage `json:"id"`
	Title       json.RawMessage `json:"title"`
	Description json.RawMessage `json:"description"`
	Price       json.RawMessage `json:"price"`
}

// parseToppings maps a product_toppings cell. Malformed JSON degrades to no
// toppings for the row; entries that are not objects are skipped.
func parseToppings(p Platform, idx int, cell string) []ToppingGroup {
	groups := []ToppingGroup{}
	if strings.TrimSpace(cell) == "" {
		return groups
	}

	var list []json.RawMessage
	if err := json.Unmarshal([]byte(cell), &list); err != nil {
		slog.Warn("invalid product_toppings, using none",
			"platform", p,
			"row", idx,
			"error", err,
		)
		return groups
	}

	for gi, rawGroup := range list {
		var sg sourceGroup
		if err := json.Unmarshal(rawGroup, &sg); err != nil {
			slog.Warn("skipping malformed topping group",
				"platform", p,
				"row", idx,
				"group", gi,
				"error", err,
			)
			continue
		}

		g := ToppingGroup{
			DomID:    fmt.Sprintf("group-src-%s-%d-%d", p, idx, gi),
			ID:       SourcedFrom(sg.ID),
			Title:    tabular.ScalarText(sg.Title),
			MinCount: ParseNonNegative(tabular.ScalarText(sg.MinCount)),
			MaxCount: ParseNonNegative(tabular.ScalarText(sg.MaxCount)),
			Selected: true,
			Toppings: []Topping{},
		}

		// A non-array toppings value is treated as no toppings.
		var toppings []json.RawMessage
		if len(sg.Toppings) > 0 && string(sg.Toppings) != "null" {
			if err := json.Unmarshal(sg.Toppings, &toppings); err != nil {
				slog.Warn("topping group toppings is not an array, using none",
					"platform", p,
					"row", idx,
					"group", gi,
					"error", err,
				)
			}
		}

		for ti, rawTopping := range toppings {
			var st sourceTopping
			if err := json.Unmarshal(rawTopping, &st); err != nil {
				slog.Warn("skipping malformed topping",
					"platform", p,
					"row", idx,
					"group", gi,
					"topping", ti,
					"error", err,
				)
				continue
			}
			g.Toppings = append(g.Toppings, Topping{
				DomID:       fmt.Sprintf("topping-src-%s-%d-%d-%d", p, idx, gi, ti),
				ID:          SourcedFrom(st.ID),
				Title:       tabular.ScalarText(st.Title),
				Description: tabular.ScalarText(st.Description),
				Price:       ParseNonNegative(tabular.ScalarText(st.Price)),
				Selected:    true,
			})
		}
		groups = append(groups, g)
	}
	return groups
}
