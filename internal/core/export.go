package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/MenuEditor/internal/tabular"
)

// ExportFile is a generated download.
type ExportFile struct {
	Platform Platform
	Name     string
	Headers  []string
	Rows     []tabular.Row

	// Content is the UTF-8 BOM followed by the serialized table.
	Content []byte
}

// Exporter rebuilds column-faithful tables from the Store.
type Exporter struct {
	store *Store

	// Now supplies the date in the file name. Defaults to time.Now.
	Now func() time.Time
}

// NewExporter creates an exporter over s.
func NewExporter(s *Store) *Exporter {
	return &Exporter{store: s, Now: time.Now}
}

// exportedGroup and exportedTopping define the product_toppings cell.
type exportedGroup struct {
	ID       json.RawMessage   `json:"id"`
	Title    string            `json:"title"`
	MaxCount float64           `json:"maxCount"`
	MinCount float64           `json:"minCount"`
	Toppings []exportedTopping `json:"toppings"`
}

type exportedTopping struct {
	ID          json.RawMessage `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       float64         `json:"price"`
}

// Export builds the platform's download.
//
// Selected items become one row each: blank cells for every header, then
// the item's source row (not for items created in session), then the
// vendor form, then the item fields. With no selected items but a filled
// vendor form, a single vendor-only row is emitted. Export is refused if
// there is nothing to emit or no column order can be determined. A failed
// serialization leaves the Store untouched. Without loaded headers the
// platform's default column order is used.
func (e *Exporter) Export(p Platform) (*ExportFile, error) {
	def, err := Definition(p)
	if err != nil {
		return nil, err
	}
	vendor, err := e.store.Vendor(p)
	if err != nil {
		return nil, err
	}
	items, err := e.store.Items(p)
	if err != nil {
		return nil, err
	}

	selected := items[:0]
	for _, it := range items {
		if it.Selected {
			selected = append(selected, it)
		}
	}

	if len(selected) == 0 && vendor.IsBlank() {
		return nil, fmt.Errorf("%w for %s: load or add some data first", ErrNothingToExport, p.Upper())
	}

	headers := vendor.OriginalHeaders
	if len(headers) == 0 {
		if len(def.DefaultHeaders) == 0 {
			return nil, fmt.Errorf("%w for %s: no loaded or default headers", ErrNoHeaders, p.Upper())
		}
		headers = def.DefaultHeaders
		slog.Warn("no original headers, using platform defaults", "platform", p)
	}
	headers = append([]string{}, headers...)

	vendorValues, err := vendor.exportValues(def)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialize, err)
	}

	rows := make([]tabular.Row, 0, len(selected))
	for _, it := range selected {
		row, err := itemRow(def, headers, vendorValues, it)
		if err != nil {
			return nil, fmt.Errorf("%w: item %s: %w", ErrSerialize, it.DomID, err)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		row := tabular.BlankRow(headers)
		row.Overlay(vendorValues)
		rows = append(rows, row.Project(headers))
	}

	var buf bytes.Buffer
	if err := tabular.Write(&buf, headers, rows, tabular.WriteOptions{BOM: true}); err != nil {
		return nil, fmt.Errorf("%w for %s: %w", ErrSerialize, p.Upper(), err)
	}

	file := &ExportFile{
		Platform: p,
		Name:     e.fileName(p, vendor),
		Headers:  headers,
		Rows:     rows,
		Content:  buf.Bytes(),
	}

	e.store.SetStatus(fmt.Sprintf("Generated %s CSV.", p.Upper()), StatusSuccess)
	slog.Info("csv generated",
		"platform", p,
		"file", file.Name,
		"rows", len(rows),
	)
	return file, nil
}

func itemRow(def PlatformDefinition, headers []string, vendorValues tabular.Row, it MenuItem) (tabular.Row, error) {
	row := tabular.BlankRow(headers)
	if !it.Synthetic {
		row.Overlay(it.OriginalRow)
	}
	row.Overlay(vendorValues)

	row.Set("category_name", categoryOf(it))
	row.Set("item_id", it.ItemID)
	row.Set("item_title", it.Title)
	row.Set("description", it.Description)
	row.Set("price", FormatNumber(it.Price))
	row.Set("rating", FormatNumber(it.Rating))

	if def.Toppings {
		cell, err := toppingsCell(it.Toppings)
		if err != nil {
			return tabular.Row{}, err
		}
		row.Set("product_toppings", cell)
	} else {
		row.Set("product_toppings", "[]")
	}

	return row.Project(headers), nil
}

// toppingsCell encodes selected groups with their selected toppings as
// minified JSON, each id resolved by source precedence.
func toppingsCell(groups []ToppingGroup) (string, error) {
	out := []exportedGroup{}
	for _, g := range groups {
		if !g.Selected {
			continue
		}
		eg := exportedGroup{
			ID:       g.ID.Resolve(),
			Title:    g.Title,
			MaxCount: g.MaxCount,
			MinCount: g.MinCount,
			Toppings: []exportedTopping{},
		}
		for _, t := range g.Toppings {
			if !t.Selected {
				continue
			}
			eg.Toppings = append(eg.Toppings, exportedTopping{
				ID:          t.ID.Resolve(),
				Title:       t.Title,
				Description: t.Description,
				Price:       t.Price,
			})
		}
		out = append(out, eg)
	}

	return encodeJSON(out)
}

func (e *Exporter) fileName(p Platform, vendor VendorRecord) string {
	code := vendor.Form.Text.Value("vendor_code")
	if code == "" {
		code = "export"
	}
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	return fmt.Sprintf("edited_%s_menu_%s_%s.csv", p, sanitizeFileToken(code), now().UTC().Format("2006-01-02"))
}
