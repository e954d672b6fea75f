package core

import (
	"errors"
	"reflect"
	"testing"

	"github.com/JonMunkholm/MenuEditor/internal/tabular"
)

func loadedMenu(t *testing.T, p Platform, text string) (*Store, *Menu) {
	t.Helper()
	s := NewStore()
	if _, err := LoadPlatform(s, p, PlatformData{CSV: text}); err != nil {
		t.Fatalf("LoadPlatform: %v", err)
	}
	return s, NewMenu(s)
}

const tfMenuCSV = `vendor_code,item_id,item_title,price,category_name
v1,1,Burger,100,Mains
v1,2,Cola,20,Drinks
v1,3,Fries,30,Mains
`

func TestCategories(t *testing.T) {
	items := []MenuItem{{Category: "b"}, {Category: "a"}, {Category: ""}, {Category: "b"}}
	got := Categories(items, []string{"c", "a"})
	want := []string{UncategorizedName, "a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Categories = %v, want %v", got, want)
	}
}

func TestMenu_Sections(t *testing.T) {
	s, m := loadedMenu(t, TF, tfMenuCSV)
	_ = s.SetCollapsed(TF, SectionID(TF, "Drinks"), true)

	sections, err := m.Sections(TF)
	if err != nil {
		t.Fatalf("Sections: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(sections))
	}

	drinks, mains := sections[0], sections[1]
	if drinks.Name != "Drinks" || !drinks.Collapsed || len(drinks.Items) != 1 {
		t.Errorf("drinks = %+v", drinks)
	}
	if mains.Name != "Mains" || mains.Collapsed || len(mains.Items) != 2 {
		t.Errorf("mains = %+v", mains)
	}
	if mains.Items[0].Title != "Burger" || mains.Items[1].Title != "Fries" {
		t.Errorf("mains items out of stored order: %s, %s", mains.Items[0].Title, mains.Items[1].Title)
	}
	if mains.ID != "category-section-tf-mains" {
		t.Errorf("section id = %q", mains.ID)
	}
}

func TestMenu_UpdateItemField(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		value   string
		check   func(MenuItem) bool
		wantErr error
	}{
		{name: "title", field: FieldItemTitle, value: "Big Burger", check: func(it MenuItem) bool { return it.Title == "Big Burger" }},
		{name: "description", field: FieldDescription, value: "Juicy", check: func(it MenuItem) bool { return it.Description == "Juicy" }},
		{name: "price", field: FieldPrice, value: "250", check: func(it MenuItem) bool { return it.Price == 250 }},
		{name: "unparseable price", field: FieldPrice, value: "abc", check: func(it MenuItem) bool { return it.Price == 0 }},
		{name: "rating clamped", field: FieldRating, value: "8", check: func(it MenuItem) bool { return it.Rating == 5 }},
		{name: "deselect", field: FieldSelected, value: "false", check: func(it MenuItem) bool { return !it.Selected }},
		{name: "bad checkbox", field: FieldSelected, value: "maybe", wantErr: ErrInvalidValue},
		{name: "unknown field", field: "color", value: "red", wantErr: ErrUnknownField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, m := loadedMenu(t, TF, tfMenuCSV)
			err := m.UpdateItemField(TF, "item-src-tf-0", tt.field, tt.value)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("UpdateItemField: %v", err)
			}
			it, _ := s.Item(TF, "item-src-tf-0")
			if !tt.check(it) {
				t.Errorf("item after edit = %+v", it)
			}
		})
	}
}

func TestMenu_DeleteItem(t *testing.T) {
	s, m := loadedMenu(t, TF, tfMenuCSV)

	var prompt string
	decline := ConfirmFunc(func(p string) bool { prompt = p; return false })
	if err := m.DeleteItem(TF, "item-src-tf-1", decline); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("declined delete = %v, want ErrNotConfirmed", err)
	}
	if prompt != `Delete "Cola" from TF?` {
		t.Errorf("prompt = %q", prompt)
	}

	if err := m.DeleteItem(TF, "item-src-tf-1", Confirmed(true)); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	items, _ := s.Items(TF)
	if len(items) != 2 {
		t.Errorf("items = %d, want 2", len(items))
	}

	// The emptied category disappears.
	sections, _ := m.Sections(TF)
	for _, sec := range sections {
		if sec.Name == "Drinks" {
			t.Error("Drinks section still present after its last item was deleted")
		}
	}

	if err := m.DeleteItem(TF, "item-src-tf-1", Confirmed(true)); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("second delete = %v, want ErrItemNotFound", err)
	}
}

func TestMenu_AddCategory(t *testing.T) {
	_, m := loadedMenu(t, TF, tfMenuCSV)

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "new category trimmed", input: "  Desserts ", want: "Desserts"},
		{name: "empty", input: "   ", wantErr: ErrEmptyCategory},
		{name: "duplicate of item category", input: "Mains", wantErr: ErrDuplicateCategory},
		{name: "duplicate of manual category", input: "Desserts", wantErr: ErrDuplicateCategory},
		{name: "case sensitive", input: "mains", want: "mains"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.AddCategory(TF, tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("AddCategory(%q) = %q, %v, want %q", tt.input, got, err, tt.want)
			}
		})
	}

	if !m.ExportEnabled(TF) {
		t.Error("ExportEnabled = false, want true")
	}
}

func TestMenu_ManualCategoryLifecycle(t *testing.T) {
	s := NewStore()
	m := NewMenu(s)

	if m.ExportEnabled(SF) {
		t.Error("ExportEnabled on empty platform = true")
	}
	if _, err := m.AddCategory(SF, "Drinks"); err != nil {
		t.Fatalf("AddCategory: %v", err)
	}
	if !m.ExportEnabled(SF) {
		t.Error("ExportEnabled with manual category = false")
	}

	sections, _ := m.Sections(SF)
	if len(sections) != 1 || !sections[0].Manual || len(sections[0].Items) != 0 {
		t.Fatalf("sections = %+v", sections)
	}

	// A manual category that gains an item survives deleting that item.
	it, err := m.AddItemToCategory(SF, "Drinks")
	if err != nil {
		t.Fatalf("AddItemToCategory: %v", err)
	}
	if err := m.DeleteItem(SF, it.DomID, Confirmed(true)); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	sections, _ = m.Sections(SF)
	if len(sections) != 1 {
		t.Errorf("sections after delete = %d, want 1", len(sections))
	}

	if err := m.UndoManualCategory(SF, "Drinks"); err != nil {
		t.Fatalf("UndoManualCategory: %v", err)
	}
	if err := m.UndoManualCategory(SF, "Drinks"); !errors.Is(err, ErrCategoryNotFound) {
		t.Errorf("second undo = %v, want ErrCategoryNotFound", err)
	}
	if sections, _ = m.Sections(SF); len(sections) != 0 {
		t.Errorf("sections after undo = %d, want 0", len(sections))
	}
}

func TestMenu_AddItemToCategory(t *testing.T) {
	s, m := loadedMenu(t, TF, tfMenuCSV)
	_ = m.UpdateVendorField(TF, "vendor_name", "Edited Vendor")
	_ = s.SetCollapsed(TF, SectionID(TF, "Breakfast"), true)

	before := Categories(mustItems(t, s, TF), nil)

	it, err := m.AddItemToCategory(TF, "Breakfast")
	if err != nil {
		t.Fatalf("AddItemToCategory: %v", err)
	}
	if it.DomID != "item-new-tf-0" || !it.Synthetic || !it.Selected || it.ItemID != "" {
		t.Errorf("new item = %+v", it)
	}

	after := Categories(mustItems(t, s, TF), nil)
	if len(after) != len(before)+1 {
		t.Fatalf("categories %v -> %v, want exactly one more", before, after)
	}
	want := []string{"Breakfast", "Drinks", "Mains"}
	if !reflect.DeepEqual(after, want) {
		t.Errorf("categories = %v, want %v", after, want)
	}

	if s.IsCollapsed(TF, SectionID(TF, "Breakfast")) {
		t.Error("section still collapsed after adding an item")
	}

	tmpl := it.OriginalRow
	if got := tmpl.Value("vendor_name"); got != "Edited Vendor" {
		t.Errorf("template vendor_name = %q", got)
	}
	if tmpl.Value("category_name") != "Breakfast" || tmpl.Value("price") != "0" || tmpl.Value("product_toppings") != "[]" {
		t.Errorf("template = %v", tmpl.Values(tmpl.Keys()))
	}

	second, _ := m.AddItemToCategory(TF, "Breakfast")
	if second.DomID != "item-new-tf-1" {
		t.Errorf("second DomID = %q, want item-new-tf-1", second.DomID)
	}

	if _, err := m.AddItemToCategory(TF, " "); !errors.Is(err, ErrEmptyCategory) {
		t.Errorf("blank category = %v, want ErrEmptyCategory", err)
	}
}

func TestMenu_VendorFields(t *testing.T) {
	s := NewStore()
	m := NewMenu(s)
	info := tabular.NewRow(
		"vendor_code", "abc",
		"vendor_name", "رستوران",
		"tag_names", `["pizza","burger"]`,
		"is_express", "True",
	)
	if err := LoadVendorInfo(s, SF, info, "ABC-lookup", LoadState{Loaded: true}); err != nil {
		t.Fatalf("LoadVendorInfo: %v", err)
	}

	view, err := m.VendorView(SF)
	if err != nil {
		t.Fatalf("VendorView: %v", err)
	}
	fields := make(map[string]VendorField)
	for _, f := range view.Fields {
		fields[f.Key] = f
	}
	if !fields["vendor_name"].RTL {
		t.Error("vendor_name RTL = false")
	}
	if fields["tag_names"].Value != "pizza, burger" {
		t.Errorf("tag_names = %q", fields["tag_names"].Value)
	}
	if !fields["is_express"].Checked || fields["is_pro"].Checked {
		t.Errorf("flags express=%v pro=%v", fields["is_express"].Checked, fields["is_pro"].Checked)
	}
	if fields["min_order"].Placeholder != "0" {
		t.Errorf("min_order placeholder = %q", fields["min_order"].Placeholder)
	}
	if view.OriginalIdentifier != "ABC-lookup" {
		t.Errorf("OriginalIdentifier = %q", view.OriginalIdentifier)
	}

	if err := m.UpdateVendorField(SF, "is_pro", "on"); err != nil {
		t.Fatalf("UpdateVendorField(flag): %v", err)
	}
	if err := m.UpdateVendorField(SF, "vendor_name", "New"); err != nil {
		t.Fatalf("UpdateVendorField(text): %v", err)
	}
	if err := m.UpdateVendorField(SF, "snappfood_vendor_id", "x"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("sticky key edit = %v, want ErrUnknownField", err)
	}
	if err := m.UpdateVendorField(TF, "is_pro", "on"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("TF flag edit = %v, want ErrUnknownField", err)
	}

	v, _ := s.Vendor(SF)
	if !v.Form.Flags["is_pro"] || v.Form.Text.Value("vendor_name") != "New" {
		t.Errorf("form = %+v", v.Form)
	}
}

func TestMenu_OriginalIdentifierHiddenWhenSame(t *testing.T) {
	s := NewStore()
	m := NewMenu(s)
	info := tabular.NewRow("vendor_code", "abc")
	_ = LoadVendorInfo(s, TF, info, "ABC", LoadState{Loaded: true})

	view, _ := m.VendorView(TF)
	if view.OriginalIdentifier != "" {
		t.Errorf("OriginalIdentifier = %q, want hidden", view.OriginalIdentifier)
	}
}

func mustItems(t *testing.T, s *Store, p Platform) []MenuItem {
	t.Helper()
	items, err := s.Items(p)
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	return items
}
