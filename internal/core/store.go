package core

import (
	"fmt"
	"sort"
	"sync"
)

// LoadState records the outcome of the last load for one platform.
type LoadState struct {
	Loaded bool   `json:"loaded"`
	Error  string `json:"error,omitempty"`
}

// partition is the state of one platform. Partitions never share mutable
// values; everything crossing the Store boundary is deep-copied.
type partition struct {
	vendor     VendorRecord
	items      []MenuItem
	manual     map[string]struct{}
	collapsed  map[string]struct{}
	nextItemID int
	load       LoadState
}

func newPartition() *partition {
	return &partition{
		vendor:    emptyVendorRecord(),
		manual:    make(map[string]struct{}),
		collapsed: make(map[string]struct{}),
	}
}

func emptyVendorRecord() VendorRecord {
	return VendorRecord{
		Form:            VendorForm{Flags: make(map[string]bool)},
		OriginalHeaders: []string{},
		Shifts:          []ShiftEntry{},
	}
}

func (pt *partition) indexOf(domID string) int {
	for i := range pt.items {
		if pt.items[i].DomID == domID {
			return i
		}
	}
	return -1
}

// Store is the per-session state holder for both platforms. It is safe for
// concurrent use; every getter returns a copy that callers may modify freely.
type Store struct {
	mu sync.RWMutex

	parts map[Platform]*partition

	// Topping ids are issued from session-wide counters.
	nextGroupID   int
	nextToppingID int

	editing   itemRef
	schedules map[Platform]*WeekSchedule
	status    Status
	loadSeq   uint64
}

// NewStore creates an empty session store.
func NewStore() *Store {
	s := &Store{}
	s.resetLocked()
	return s
}

func (s *Store) resetLocked() {
	s.parts = make(map[Platform]*partition, len(Platforms))
	for _, p := range Platforms {
		s.parts[p] = newPartition()
	}
	s.nextGroupID = 0
	s.nextToppingID = 0
	s.editing = itemRef{}
	s.schedules = nil
	s.status = Status{Level: StatusIdle}
}

func (s *Store) part(p Platform) (*partition, error) {
	pt, ok := s.parts[p]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, p)
	}
	return pt, nil
}

// Reset clears both platforms, all category bookkeeping and every id counter.
// Any load in flight is invalidated.
func (s *Store) Reset() {
	s.BeginLoad()
}

// BeginLoad resets the session and issues the sequence number of a new
// load attempt. Only the attempt holding the latest number may apply.
func (s *Store) BeginLoad() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	s.loadSeq++
	return s.loadSeq
}

// LoadSeq returns the sequence number of the latest load attempt.
func (s *Store) LoadSeq() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadSeq
}

// Vendor returns a copy of the platform's vendor record.
func (s *Store) Vendor(p Platform) (VendorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pt, err := s.part(p)
	if err != nil {
		return VendorRecord{}, err
	}
	return pt.vendor.Clone(), nil
}

// ReplaceVendor swaps the platform's vendor record wholesale.
func (s *Store) ReplaceVendor(p Platform, v VendorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pt, err := s.part(p)
	if err != nil {
		return err
	}
	pt.vendor = v.Clone()
	return nil
}

// UpdateVendor applies fn to the stored vendor record under the write lock.
// The record is left unchanged if fn returns an error.
func (s *Store) UpdateVendor(p Platform, fn func(*VendorRecord) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pt, err := s.part(p)
	if err != nil {
		return err
	}
	v := pt.vendor.Clone()
	if err := fn(&v); err != nil {
		return err
	}
	pt.vendor = v
	return nil
}

// Items returns a copy of the platform's item collection in stored order.
func (s *Store) Items(p Platform) ([]MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pt, err := s.part(p)
	if err != nil {
		return nil, err
	}
	out := make([]MenuItem, len(pt.items))
	for i, it := range pt.items {
		out[i] = it.Clone()
	}
	return out, nil
}

// Item returns a copy of one item.
func (s *Store) Item(p Platform, domID string) (MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pt, err := s.part(p)
	if err != nil {
		return MenuItem{}, err
	}
	i := pt.indexOf(domID)
	if i < 0 {
		return MenuItem{}, fmt.Errorf("%w: %s", ErrItemNotFound, domID)
	}
	return pt.items[i].Clone(), nil
}

// ReplaceItems swaps the platform's item collection wholesale.
func (s *Store) ReplaceItems(p Platform, items []MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pt, err := s.part(p)
	if err != nil {
		return err
	}
	pt.items = cloneItems(items)
	return nil
}

// UpdateItem applies fn to one stored item under the write lock.
// The item is left unchanged if fn returns an error.
func (s *Store) UpdateItem(p Platform, domID string, fn func(*MenuItem) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pt, err := s.part(p)
	if err != nil {
		return err
	}
	i := pt.indexOf(domID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrItemNotFound, domID)
	}
	it := pt.items[i].Clone()
	if err := fn(&it); err != nil {
		return err
	}
	pt.items[i] = it
	return nil
}

// AppendItem adds an item to the end of the platform's collection.
func (s *Store) AppendItem(p Platform, item MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pt, err := s.part(p)
	if err != nil {
		return err
	}
	pt.items = append(pt.items, item.Clone())
	return nil
}

// RemoveItem splices one item out of the platform's collection.
func (s *Store) RemoveItem(p Platform, domID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pt, err := s.part(p)
	if err != nil {
		return err
	}
	i := pt.indexOf(domID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrItemNotFound, domID)
	}
	pt.items = append(pt.items[:i], pt.items[i+1:]...)
	if s.editing == (itemRef{p, domID}) {
		s.editing = itemRef{}
	}
	return nil
}

// ReplacePlatform swaps a platform's vendor record and items in one step
// and clears its manually added categories.
func (s *Store) ReplacePlatform(p Platform, v VendorRecord, items []MenuItem, load LoadState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pt, err := s.part(p)
	if err != nil {
		return err
	}
	pt.vendor = v.Clone()
	pt.items = cloneItems(items)
	pt.manual = make(map[string]struct{})
	pt.load = load
	return nil
}

// NextItemID issues the next per-platform counter value for a new item.
func (s *Store) NextItemID(p Platform) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pt, err := s.part(p)
	if err != nil {
		return 0, err
	}
	n := pt.nextItemID
	pt.nextItemID++
	return n, nil
}

// NextToppingGroupID issues the next session-wide counter value for a new
// topping group.
func (s *Store) NextToppingGroupID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.nextGroupID
	s.nextGroupID++
	return n
}

// NextToppingID issues the next session-wide counter value for a new topping.
func (s *Store) NextToppingID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.nextToppingID
	s.nextToppingID++
	return n
}

// ManualCategories returns the platform's manually added categories, sorted.
func (s *Store) ManualCategories(p Platform) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pt, err := s.part(p)
	if err != nil {
		return nil, err
	}
	return sortedKeys(pt.manual), nil
}

// AddManualCategory records a category created without items.
func (s *Store) AddManualCategory(p Platform, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pt, err := s.part(p)
	if err != nil {
		return err
	}
	pt.manual[name] = struct{}{}
	return nil
}

// RemoveManualCategory forgets a manually added category. Reports whether
// it was present.
func (s *Store) RemoveManualCategory(p Platform, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pt, err := s.part(p)
	if err != nil {
		return false, err
	}
	_, ok := pt.manual[name]
	delete(pt.manual, name)
	return ok, nil
}

// IsCollapsed reports whether a category section is collapsed.
func (s *Store) IsCollapsed(p Platform, sectionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pt, err := s.part(p)
	if err != nil {
		return false
	}
	_, ok := pt.collapsed[sectionID]
	return ok
}

// SetCollapsed marks a category section collapsed or expanded.
func (s *Store) SetCollapsed(p Platform, sectionID string, collapsed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pt, err := s.part(p)
	if err != nil {
		return err
	}
	if collapsed {
		pt.collapsed[sectionID] = struct{}{}
	} else {
		delete(pt.collapsed, sectionID)
	}
	return nil
}

// ToggleCollapsed flips a category section and returns its new state.
func (s *Store) ToggleCollapsed(p Platform, sectionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pt, err := s.part(p)
	if err != nil {
		return false, err
	}
	if _, ok := pt.collapsed[sectionID]; ok {
		delete(pt.collapsed, sectionID)
		return false, nil
	}
	pt.collapsed[sectionID] = struct{}{}
	return true, nil
}

// CollapsedSections returns the platform's collapsed section ids, sorted.
func (s *Store) CollapsedSections(p Platform) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pt, err := s.part(p)
	if err != nil {
		return nil, err
	}
	return sortedKeys(pt.collapsed), nil
}

// LoadState returns the outcome of the platform's last load.
func (s *Store) LoadState(p Platform) LoadState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pt, err := s.part(p)
	if err != nil {
		return LoadState{}
	}
	return pt.load
}

// SetLoadState records the outcome of the platform's last load.
func (s *Store) SetLoadState(p Platform, load LoadState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pt, err := s.part(p)
	if err != nil {
		return err
	}
	pt.load = load
	return nil
}

// itemRef locates one item across partitions.
type itemRef struct {
	Platform Platform
	DomID    string
}

// EditingItem returns the item open in the topping editor. The display id
// is "" if none is open.
func (s *Store) EditingItem() (Platform, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.editing.Platform, s.editing.DomID
}

// SetEditingItem records the item open in the topping editor. An empty
// display id clears it.
func (s *Store) SetEditingItem(p Platform, domID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if domID == "" {
		s.editing = itemRef{}
		return
	}
	s.editing = itemRef{Platform: p, DomID: domID}
}

// Status returns the last status message.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// SetStatus replaces the status message.
func (s *Store) SetStatus(message string, level StatusLevel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = Status{Message: message, Level: level}
}

func cloneItems(items []MenuItem) []MenuItem {
	out := make([]MenuItem, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
