package core

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/MenuEditor/internal/tabular"
)

// Confirmer asks the user to approve a destructive edit.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(prompt string) bool

// Confirm calls f(prompt).
func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Confirmed is a Confirmer with a fixed answer.
type Confirmed bool

// Confirm returns the fixed answer.
func (c Confirmed) Confirm(string) bool { return bool(c) }

// Menu derives the category-grouped view of a platform and applies item,
// category, and vendor form edits to the Store.
type Menu struct {
	store *Store
}

// NewMenu creates a menu controller over s.
func NewMenu(s *Store) *Menu {
	return &Menu{store: s}
}

// Section is one category with its items in stored order.
type Section struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Collapsed bool       `json:"collapsed"`
	Manual    bool       `json:"manual"`
	RTL       bool       `json:"rtl,omitempty"`
	Items     []MenuItem `json:"items"`
}

// MenuView is the full presentation model of one platform.
type MenuView struct {
	Platform      Platform  `json:"platform"`
	Label         string    `json:"label"`
	Toppings      bool      `json:"toppings"`
	Sections      []Section `json:"sections"`
	ExportEnabled bool      `json:"exportEnabled"`
	Load          LoadState `json:"load"`
}

// Categories returns the sorted set-union of item categories and manually
// added categories. It is recomputed on every call.
func Categories(items []MenuItem, manual []string) []string {
	seen := make(map[string]struct{}, len(items)+len(manual))
	for _, it := range items {
		seen[categoryOf(it)] = struct{}{}
	}
	for _, name := range manual {
		seen[name] = struct{}{}
	}
	return sortedKeys(seen)
}

func categoryOf(it MenuItem) string {
	if it.Category == "" {
		return UncategorizedName
	}
	return it.Category
}

// Sections groups the platform's items by category, sorted by name.
func (m *Menu) Sections(p Platform) ([]Section, error) {
	items, err := m.store.Items(p)
	if err != nil {
		return nil, err
	}
	manual, err := m.store.ManualCategories(p)
	if err != nil {
		return nil, err
	}
	manualSet := make(map[string]bool, len(manual))
	for _, name := range manual {
		manualSet[name] = true
	}

	grouped := make(map[string][]MenuItem)
	for _, it := range items {
		c := categoryOf(it)
		grouped[c] = append(grouped[c], it)
	}

	names := Categories(items, manual)
	sections := make([]Section, 0, len(names))
	for _, name := range names {
		id := SectionID(p, name)
		sec := Section{
			ID:        id,
			Name:      name,
			Collapsed: m.store.IsCollapsed(p, id),
			Manual:    manualSet[name],
			RTL:       IsProbablyRTL(name),
			Items:     grouped[name],
		}
		if sec.Items == nil {
			sec.Items = []MenuItem{}
		}
		sections = append(sections, sec)
	}
	return sections, nil
}

// View returns the presentation model of the platform.
func (m *Menu) View(p Platform) (MenuView, error) {
	def, err := Definition(p)
	if err != nil {
		return MenuView{}, err
	}
	sections, err := m.Sections(p)
	if err != nil {
		return MenuView{}, err
	}
	return MenuView{
		Platform:      p,
		Label:         def.Label,
		Toppings:      def.Toppings,
		Sections:      sections,
		ExportEnabled: m.ExportEnabled(p),
		Load:          m.store.LoadState(p),
	}, nil
}

// ExportEnabled reports whether the platform has at least one item or at
// least one manually added category.
func (m *Menu) ExportEnabled(p Platform) bool {
	items, err := m.store.Items(p)
	if err != nil {
		return false
	}
	if len(items) > 0 {
		return true
	}
	manual, err := m.store.ManualCategories(p)
	return err == nil && len(manual) > 0
}

// Editable item fields.
const (
	FieldItemTitle   = "itemTitle"
	FieldDescription = "description"
	FieldPrice       = "price"
	FieldRating      = "rating"
	FieldSelected    = "selected"
)

// UpdateItemField writes one field edit into the stored item. Numeric
// fields fall back to 0 on unparseable input.
func (m *Menu) UpdateItemField(p Platform, domID, field, value string) error {
	return m.store.UpdateItem(p, domID, func(it *MenuItem) error {
		switch field {
		case FieldItemTitle:
			it.Title = value
		case FieldDescription:
			it.Description = value
		case FieldPrice:
			it.Price = ParseNonNegative(value)
		case FieldRating:
			it.Rating = ParseRating(value)
		case FieldSelected:
			on, err := parseCheckbox(value)
			if err != nil {
				return err
			}
			it.Selected = on
		default:
			return fmt.Errorf("%w: item field %q", ErrUnknownField, field)
		}
		return nil
	})
}

// DeleteItem removes an item after confirmation. A category left without
// items disappears unless it was added manually.
func (m *Menu) DeleteItem(p Platform, domID string, c Confirmer) error {
	it, err := m.store.Item(p, domID)
	if err != nil {
		return err
	}

	title := it.Title
	if title == "" {
		title = "new item"
	}
	if !c.Confirm(fmt.Sprintf("Delete %q from %s?", title, p.Upper())) {
		return ErrNotConfirmed
	}
	return m.store.RemoveItem(p, domID)
}

// AddItemToCategory appends a new, empty item to a category. Its row
// template carries the current vendor form values. A collapsed section is
// expanded so the new item is visible.
func (m *Menu) AddItemToCategory(p Platform, category string) (MenuItem, error) {
	def, err := Definition(p)
	if err != nil {
		return MenuItem{}, err
	}
	if strings.TrimSpace(category) == "" {
		return MenuItem{}, ErrEmptyCategory
	}

	vendor, err := m.store.Vendor(p)
	if err != nil {
		return MenuItem{}, err
	}
	template, err := newItemTemplate(def, vendor, category)
	if err != nil {
		return MenuItem{}, err
	}

	n, err := m.store.NextItemID(p)
	if err != nil {
		return MenuItem{}, err
	}
	item := MenuItem{
		DomID:       fmt.Sprintf("item-new-%s-%d", p, n),
		Platform:    p,
		Selected:    true,
		Category:    category,
		Toppings:    []ToppingGroup{},
		Synthetic:   true,
		OriginalRow: template,
	}

	if err := m.store.AppendItem(p, item); err != nil {
		return MenuItem{}, err
	}
	if err := m.store.SetCollapsed(p, SectionID(p, category), false); err != nil {
		return MenuItem{}, err
	}
	return item, nil
}

// newItemTemplate builds the row template of an item created in session.
func newItemTemplate(def PlatformDefinition, vendor VendorRecord, category string) (tabular.Row, error) {
	headers := vendor.OriginalHeaders
	if len(headers) == 0 {
		headers = def.DefaultHeaders
	}
	row := tabular.BlankRow(headers)

	values, err := vendor.exportValues(def)
	if err != nil {
		return tabular.Row{}, err
	}
	row.Overlay(values)
	row.Set("category_name", category)
	row.Set("price", "0")
	row.Set("rating", "0")
	row.Set("product_toppings", "[]")
	if row.Has("item_description") {
		row.Set("item_description", "")
	}
	return row, nil
}

// AddCategory records a new, empty category. The name is trimmed and must
// not match an existing category exactly.
func (m *Menu) AddCategory(p Platform, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyCategory
	}

	items, err := m.store.Items(p)
	if err != nil {
		return "", err
	}
	manual, err := m.store.ManualCategories(p)
	if err != nil {
		return "", err
	}
	for _, c := range Categories(items, manual) {
		if c == name {
			return "", fmt.Errorf("%w: %q for %s", ErrDuplicateCategory, name, p.Upper())
		}
	}

	if err := m.store.AddManualCategory(p, name); err != nil {
		return "", err
	}
	return name, nil
}

// UndoManualCategory forgets a manually added category. The category stays
// visible while items still reference it.
func (m *Menu) UndoManualCategory(p Platform, name string) error {
	ok, err := m.store.RemoveManualCategory(p, name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrCategoryNotFound, name)
	}
	return nil
}

// ToggleSection flips a section between collapsed and expanded and returns
// the new state.
func (m *Menu) ToggleSection(p Platform, sectionID string) (bool, error) {
	return m.store.ToggleCollapsed(p, sectionID)
}

// FocusSection expands a section, as when navigating to it.
func (m *Menu) FocusSection(p Platform, sectionID string) error {
	return m.store.SetCollapsed(p, sectionID, false)
}
