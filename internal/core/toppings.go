package core

import (
	"fmt"
	"strings"
)

const (
	newGroupPrefix   = "toppinggroup-new-"
	newToppingPrefix = "topping-new-"
)

// Toppings edits the topping tree of one item at a time. The item being
// edited is held by the Store; every edit writes through to it directly.
type Toppings struct {
	store *Store
}

// NewToppings creates a topping editor over s.
func NewToppings(s *Store) *Toppings {
	return &Toppings{store: s}
}

// ToppingView is one topping as presented for editing.
type ToppingView struct {
	DomID       string  `json:"domId"`
	ID          string  `json:"id"`
	IDReadOnly  bool    `json:"idReadOnly"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Selected    bool    `json:"selected"`
}

// GroupView is one topping group as presented for editing.
type GroupView struct {
	DomID      string        `json:"domId"`
	ID         string        `json:"id"`
	IDReadOnly bool          `json:"idReadOnly"`
	Title      string        `json:"title"`
	MinCount   float64       `json:"minCount"`
	MaxCount   float64       `json:"maxCount"`
	Selected   bool          `json:"selected"`
	Toppings   []ToppingView `json:"toppings"`
}

// ToppingTree is the editing surface of one item's toppings.
type ToppingTree struct {
	Platform Platform    `json:"platform"`
	ItemID   string      `json:"itemDomId"`
	Label    string      `json:"label"`
	Groups   []GroupView `json:"groups"`
}

func newToppingTree(def PlatformDefinition, it MenuItem) ToppingTree {
	title := it.Title
	if title == "" {
		if it.Synthetic {
			title = "New " + def.Label + " Item"
		} else {
			title = "Unnamed " + def.Label + " Item"
		}
	}

	tree := ToppingTree{
		Platform: it.Platform,
		ItemID:   it.DomID,
		Label:    "Toppings: " + title,
		Groups:   make([]GroupView, 0, len(it.Toppings)),
	}
	for _, g := range it.Toppings {
		gv := GroupView{
			DomID:      g.DomID,
			ID:         g.ID.Editable,
			IDReadOnly: g.ID.IsSourced(),
			Title:      g.Title,
			MinCount:   g.MinCount,
			MaxCount:   g.MaxCount,
			Selected:   g.Selected,
			Toppings:   make([]ToppingView, 0, len(g.Toppings)),
		}
		if gv.IDReadOnly {
			gv.ID = g.ID.String()
		}
		for _, t := range g.Toppings {
			tv := ToppingView{
				DomID:       t.DomID,
				ID:          t.ID.Editable,
				IDReadOnly:  t.ID.IsSourced(),
				Title:       t.Title,
				Description: t.Description,
				Price:       t.Price,
				Selected:    t.Selected,
			}
			if tv.IDReadOnly {
				tv.ID = t.ID.String()
			}
			gv.Toppings = append(gv.Toppings, tv)
		}
		tree.Groups = append(tree.Groups, gv)
	}
	return tree
}

// Open starts editing the toppings of one item.
func (t *Toppings) Open(p Platform, domID string) (ToppingTree, error) {
	def, err := Definition(p)
	if err != nil {
		return ToppingTree{}, err
	}
	if !def.Toppings {
		return ToppingTree{}, fmt.Errorf("%w: %s", ErrToppingsUnsupported, p.Upper())
	}

	it, err := t.store.Item(p, domID)
	if err != nil {
		return ToppingTree{}, err
	}
	t.store.SetEditingItem(p, domID)
	return newToppingTree(def, it), nil
}

// Current returns the tree of the item being edited.
func (t *Toppings) Current() (ToppingTree, error) {
	p, domID := t.store.EditingItem()
	if domID == "" {
		return ToppingTree{}, ErrNotEditing
	}
	def, err := Definition(p)
	if err != nil {
		return ToppingTree{}, err
	}
	it, err := t.store.Item(p, domID)
	if err != nil {
		return ToppingTree{}, err
	}
	return newToppingTree(def, it), nil
}

// edit applies fn to the item being edited.
func (t *Toppings) edit(fn func(*MenuItem) error) error {
	p, domID := t.store.EditingItem()
	if domID == "" {
		return ErrNotEditing
	}
	return t.store.UpdateItem(p, domID, fn)
}

// AddGroup appends a new, selected group with an empty title and zero
// bounds. Its id starts empty and has no source.
func (t *Toppings) AddGroup() (string, error) {
	if _, domID := t.store.EditingItem(); domID == "" {
		return "", ErrNotEditing
	}

	groupID := fmt.Sprintf("%s%d", newGroupPrefix, t.store.NextToppingGroupID())
	err := t.edit(func(it *MenuItem) error {
		it.Toppings = append(it.Toppings, ToppingGroup{
			DomID:    groupID,
			Selected: true,
			Toppings: []Topping{},
		})
		return nil
	})
	if err != nil {
		return "", err
	}
	return groupID, nil
}

// AddTopping appends a new, selected topping to a group.
func (t *Toppings) AddTopping(groupDomID string) (string, error) {
	if _, domID := t.store.EditingItem(); domID == "" {
		return "", ErrNotEditing
	}
	if _, err := t.findGroup(groupDomID); err != nil {
		return "", err
	}

	toppingID := fmt.Sprintf("%s%d", newToppingPrefix, t.store.NextToppingID())
	err := t.edit(func(it *MenuItem) error {
		g := groupIn(it, groupDomID)
		if g == nil {
			return fmt.Errorf("%w: %s", ErrGroupNotFound, groupDomID)
		}
		g.Toppings = append(g.Toppings, Topping{DomID: toppingID, Selected: true})
		return nil
	})
	if err != nil {
		return "", err
	}
	return toppingID, nil
}

func (t *Toppings) findGroup(groupDomID string) (ToppingGroup, error) {
	p, domID := t.store.EditingItem()
	it, err := t.store.Item(p, domID)
	if err != nil {
		return ToppingGroup{}, err
	}
	if g := groupIn(&it, groupDomID); g != nil {
		return *g, nil
	}
	return ToppingGroup{}, fmt.Errorf("%w: %s", ErrGroupNotFound, groupDomID)
}

func groupIn(it *MenuItem, groupDomID string) *ToppingGroup {
	for i := range it.Toppings {
		if it.Toppings[i].DomID == groupDomID {
			return &it.Toppings[i]
		}
	}
	return nil
}

func toppingIn(g *ToppingGroup, toppingDomID string) *Topping {
	for i := range g.Toppings {
		if g.Toppings[i].DomID == toppingDomID {
			return &g.Toppings[i]
		}
	}
	return nil
}

// UpdateGroupField writes one group field: selected, title, id, minCount
// or maxCount. Editing the id of a group created in session drops any
// source id for good; a sourced id is read-only.
func (t *Toppings) UpdateGroupField(groupDomID, field, value string) error {
	return t.edit(func(it *MenuItem) error {
		g := groupIn(it, groupDomID)
		if g == nil {
			return fmt.Errorf("%w: %s", ErrGroupNotFound, groupDomID)
		}
		switch field {
		case "selected":
			on, err := parseCheckbox(value)
			if err != nil {
				return err
			}
			g.Selected = on
		case "title":
			g.Title = value
		case "id":
			return g.ID.edit(value, strings.HasPrefix(g.DomID, newGroupPrefix))
		case "minCount":
			g.MinCount = ParseNonNegative(value)
		case "maxCount":
			g.MaxCount = ParseNonNegative(value)
		default:
			return fmt.Errorf("%w: topping group field %q", ErrUnknownField, field)
		}
		return nil
	})
}

// UpdateToppingField writes one topping field: selected, title,
// description, id or price. Id edits follow the group rule.
func (t *Toppings) UpdateToppingField(groupDomID, toppingDomID, field, value string) error {
	return t.edit(func(it *MenuItem) error {
		g := groupIn(it, groupDomID)
		if g == nil {
			return fmt.Errorf("%w: %s", ErrGroupNotFound, groupDomID)
		}
		tp := toppingIn(g, toppingDomID)
		if tp == nil {
			return fmt.Errorf("%w: %s", ErrToppingNotFound, toppingDomID)
		}
		switch field {
		case "selected":
			on, err := parseCheckbox(value)
			if err != nil {
				return err
			}
			tp.Selected = on
		case "title":
			tp.Title = value
		case "description":
			tp.Description = value
		case "id":
			return tp.ID.edit(value, strings.HasPrefix(tp.DomID, newToppingPrefix))
		case "price":
			tp.Price = ParseNonNegative(value)
		default:
			return fmt.Errorf("%w: topping field %q", ErrUnknownField, field)
		}
		return nil
	})
}

// DeleteGroup removes a group and its toppings after confirmation.
func (t *Toppings) DeleteGroup(groupDomID string, c Confirmer) error {
	if _, domID := t.store.EditingItem(); domID == "" {
		return ErrNotEditing
	}
	if _, err := t.findGroup(groupDomID); err != nil {
		return err
	}
	if !c.Confirm("Delete this topping group and all its toppings?") {
		return ErrNotConfirmed
	}

	return t.edit(func(it *MenuItem) error {
		kept := it.Toppings[:0]
		for _, g := range it.Toppings {
			if g.DomID != groupDomID {
				kept = append(kept, g)
			}
		}
		it.Toppings = kept
		return nil
	})
}

// DeleteTopping removes one topping after confirmation.
func (t *Toppings) DeleteTopping(groupDomID, toppingDomID string, c Confirmer) error {
	if _, domID := t.store.EditingItem(); domID == "" {
		return ErrNotEditing
	}
	g, err := t.findGroup(groupDomID)
	if err != nil {
		return err
	}
	if toppingIn(&g, toppingDomID) == nil {
		return fmt.Errorf("%w: %s", ErrToppingNotFound, toppingDomID)
	}
	if !c.Confirm("Delete this topping?") {
		return ErrNotConfirmed
	}

	return t.edit(func(it *MenuItem) error {
		g := groupIn(it, groupDomID)
		if g == nil {
			return fmt.Errorf("%w: %s", ErrGroupNotFound, groupDomID)
		}
		kept := g.Toppings[:0]
		for _, tp := range g.Toppings {
			if tp.DomID != toppingDomID {
				kept = append(kept, tp)
			}
		}
		g.Toppings = kept
		return nil
	})
}

// Confirm closes the editor and returns the number of selected groups of
// the edited item, as shown in its summary.
func (t *Toppings) Confirm() (int, error) {
	p, domID := t.store.EditingItem()
	if domID == "" {
		return 0, ErrNotEditing
	}
	t.store.SetEditingItem("", "")

	it, err := t.store.Item(p, domID)
	if err != nil {
		return 0, err
	}
	return it.SelectedGroupCount(), nil
}
