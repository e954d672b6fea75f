package core

import (
	"fmt"
	"strings"
)

// Weekday codes used by the platforms in shift entries.
var weekdays = []struct {
	Name string
	Code int
}{
	{"Saturday", 1},
	{"Sunday", 2},
	{"Monday", 3},
	{"Tuesday", 4},
	{"Wednesday", 5},
	{"Thursday", 6},
	{"Friday", 7},
}

// Default times of a row added to a day.
const (
	DefaultShiftStart = "09:00"
	DefaultShiftStop  = "17:00"
)

// ShiftRow is one editable time range. Empty times are allowed while
// editing; such rows are dropped on Collect.
type ShiftRow struct {
	Start string `json:"start"`
	Stop  string `json:"stop"`
}

// DaySchedule is the editable rows of one weekday. Disabling a day keeps
// its rows but excludes them from Collect.
type DaySchedule struct {
	Name    string     `json:"name"`
	Weekday int        `json:"weekday"`
	Enabled bool       `json:"enabled"`
	Rows    []ShiftRow `json:"rows"`
}

// WeekSchedule is the per-weekday view of a platform's shift entries,
// ordered Saturday through Friday.
type WeekSchedule struct {
	Days []DaySchedule `json:"days"`
}

// RenderSchedule groups entries by weekday code. A day is enabled iff it
// has at least one entry. Stored times are normalized to "HH:MM"; malformed
// values become 00:00 for a start and 23:59 for a stop. Entries with a
// weekday code outside 1-7 are not shown.
func RenderSchedule(entries []ShiftEntry) *WeekSchedule {
	byCode := make(map[int][]ShiftRow)
	for _, e := range entries {
		byCode[e.Weekday] = append(byCode[e.Weekday], ShiftRow{
			Start: NormalizeClock(e.StartHour, DefaultStartClock),
			Stop:  NormalizeClock(e.StopHour, DefaultStopClock),
		})
	}

	w := &WeekSchedule{Days: make([]DaySchedule, len(weekdays))}
	for i, d := range weekdays {
		rows := byCode[d.Code]
		if rows == nil {
			rows = []ShiftRow{}
		}
		w.Days[i] = DaySchedule{
			Name:    d.Name,
			Weekday: d.Code,
			Enabled: len(rows) > 0,
			Rows:    rows,
		}
	}
	return w
}

// Clone returns a deep copy of the schedule.
func (w *WeekSchedule) Clone() *WeekSchedule {
	c := &WeekSchedule{Days: make([]DaySchedule, len(w.Days))}
	for i, d := range w.Days {
		d.Rows = append([]ShiftRow{}, d.Rows...)
		c.Days[i] = d
	}
	return c
}

func (w *WeekSchedule) day(weekday int) (*DaySchedule, error) {
	for i := range w.Days {
		if w.Days[i].Weekday == weekday {
			return &w.Days[i], nil
		}
	}
	return nil, fmt.Errorf("%w: weekday %d", ErrInvalidValue, weekday)
}

func (w *WeekSchedule) enabledDay(weekday int) (*DaySchedule, error) {
	d, err := w.day(weekday)
	if err != nil {
		return nil, err
	}
	if !d.Enabled {
		return nil, fmt.Errorf("%w: %s", ErrDayDisabled, d.Name)
	}
	return d, nil
}

// SetDayEnabled turns a day on or off. Enabling a day without rows adds a
// default 09:00-17:00 row.
func (w *WeekSchedule) SetDayEnabled(weekday int, enabled bool) error {
	d, err := w.day(weekday)
	if err != nil {
		return err
	}
	d.Enabled = enabled
	if enabled && len(d.Rows) == 0 {
		d.Rows = append(d.Rows, ShiftRow{Start: DefaultShiftStart, Stop: DefaultShiftStop})
	}
	return nil
}

// AddRow appends a default 09:00-17:00 row to an enabled day.
func (w *WeekSchedule) AddRow(weekday int) error {
	d, err := w.enabledDay(weekday)
	if err != nil {
		return err
	}
	d.Rows = append(d.Rows, ShiftRow{Start: DefaultShiftStart, Stop: DefaultShiftStop})
	return nil
}

// RemoveRow deletes one row of an enabled day.
func (w *WeekSchedule) RemoveRow(weekday, row int) error {
	d, err := w.enabledDay(weekday)
	if err != nil {
		return err
	}
	if row < 0 || row >= len(d.Rows) {
		return fmt.Errorf("%w: %s row %d", ErrRowNotFound, d.Name, row)
	}
	d.Rows = append(d.Rows[:row], d.Rows[row+1:]...)
	return nil
}

// SetRowTimes replaces the times of one row of an enabled day. Each time
// must be empty or a 24-hour "HH:MM" value.
func (w *WeekSchedule) SetRowTimes(weekday, row int, start, stop string) error {
	d, err := w.enabledDay(weekday)
	if err != nil {
		return err
	}
	if row < 0 || row >= len(d.Rows) {
		return fmt.Errorf("%w: %s row %d", ErrRowNotFound, d.Name, row)
	}

	start, stop = strings.TrimSpace(start), strings.TrimSpace(stop)
	for _, t := range []string{start, stop} {
		if t != "" && !ValidClock(t) {
			return fmt.Errorf("%w: %q, want HH:MM", ErrInvalidTime, t)
		}
	}
	d.Rows[row] = ShiftRow{Start: start, Stop: stop}
	return nil
}

// Collect reads the schedule back into shift entries: rows of enabled days
// whose times are both set, in day order. AllDay is always false.
func (w *WeekSchedule) Collect() []ShiftEntry {
	out := []ShiftEntry{}
	for _, d := range w.Days {
		if !d.Enabled {
			continue
		}
		for _, r := range d.Rows {
			if r.Start == "" || r.Stop == "" {
				continue
			}
			out = append(out, ShiftEntry{
				Weekday:   d.Weekday,
				AllDay:    false,
				StartHour: r.Start,
				StopHour:  r.Stop,
			})
		}
	}
	return out
}

// OpenSchedules renders a draft schedule for every platform from its
// stored shifts, replacing any open drafts.
func (s *Store) OpenSchedules() map[Platform]*WeekSchedule {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.schedules = make(map[Platform]*WeekSchedule, len(s.parts))
	out := make(map[Platform]*WeekSchedule, len(s.parts))
	for _, p := range Platforms {
		draft := RenderSchedule(s.parts[p].vendor.Shifts)
		s.schedules[p] = draft
		out[p] = draft.Clone()
	}
	return out
}

// Schedules returns copies of the open drafts.
func (s *Store) Schedules() (map[Platform]*WeekSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.schedules == nil {
		return nil, ErrScheduleNotOpen
	}
	out := make(map[Platform]*WeekSchedule, len(s.schedules))
	for p, w := range s.schedules {
		out[p] = w.Clone()
	}
	return out, nil
}

// EditSchedule applies fn to the open draft of platform p. The draft is
// left unchanged if fn returns an error.
func (s *Store) EditSchedule(p Platform, fn func(*WeekSchedule) error) (*WeekSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedules == nil {
		return nil, ErrScheduleNotOpen
	}
	w, ok := s.schedules[p]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, p)
	}

	draft := w.Clone()
	if err := fn(draft); err != nil {
		return nil, err
	}
	s.schedules[p] = draft
	return draft.Clone(), nil
}

// ConfirmSchedules writes the collected drafts of both platforms into their
// vendor records and closes the editor. No other field is touched.
func (s *Store) ConfirmSchedules() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedules == nil {
		return ErrScheduleNotOpen
	}
	for p, w := range s.schedules {
		s.parts[p].vendor.Shifts = w.Collect()
		s.parts[p].vendor.sourceShifts = ""
	}
	s.schedules = nil
	s.status = Status{Message: "Shifts updated in memory.", Level: StatusSuccess}
	return nil
}

// CloseSchedules discards the open drafts.
func (s *Store) CloseSchedules() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules = nil
}
