package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/JonMunkholm/MenuEditor/internal/tabular"
)

// Scraper fetches the per-platform data of one vendor.
//
// Implementations return an error wrapping ErrNetwork when no usable
// response was received. A response the backend rejected is returned with
// OK or Success false and a nil error.
type Scraper interface {
	Scrape(ctx context.Context, identifier string) (*ScrapeResponse, error)
}

// ScraperFunc adapts a function to the Scraper interface.
type ScraperFunc func(ctx context.Context, identifier string) (*ScrapeResponse, error)

// Scrape calls f(ctx, identifier).
func (f ScraperFunc) Scrape(ctx context.Context, identifier string) (*ScrapeResponse, error) {
	return f(ctx, identifier)
}

// PlatformBlock is one platform's part of a scrape response.
type PlatformBlock struct {
	DataLoaded         bool        `json:"data_loaded"`
	Error              string      `json:"error,omitempty"`
	OriginalIdentifier string      `json:"original_identifier,omitempty"`
	CSVData            string      `json:"csv_data,omitempty"`
	VendorInfo         tabular.Row `json:"vendor_info"`
}

// ScrapeResponse is the decoded body of a scrape request.
type ScrapeResponse struct {
	// OK reports a 2xx transport status. It is set by the Scraper, not
	// decoded from the body.
	OK bool `json:"-"`

	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	// Blocks holds the platform blocks present in the response, keyed by
	// platform. An absent block leaves that platform untouched.
	Blocks map[Platform]*PlatformBlock `json:"-"`
}

// UnmarshalJSON decodes the top-level fields and every block whose key is
// the response key of a registered platform.
func (r *ScrapeResponse) UnmarshalJSON(data []byte) error {
	var head struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	r.Success = head.Success
	r.Error = head.Error
	r.Blocks = make(map[Platform]*PlatformBlock)
	for _, def := range All() {
		raw, ok := fields[def.ResponseKey]
		if !ok || string(raw) == "null" {
			continue
		}
		var b PlatformBlock
		if err := json.Unmarshal(raw, &b); err != nil {
			return fmt.Errorf("%s block: %w", def.ResponseKey, err)
		}
		r.Blocks[def.Key] = &b
	}
	return nil
}

// MarshalJSON encodes the response in the scrape wire shape.
func (r ScrapeResponse) MarshalJSON() ([]byte, error) {
	out := map[string]any{"success": r.Success}
	if r.Error != "" {
		out["error"] = r.Error
	}
	for p, b := range r.Blocks {
		def, err := Definition(p)
		if err != nil {
			return nil, err
		}
		out[def.ResponseKey] = b
	}
	return json.Marshal(out)
}

// PlatformOutcome reports how one platform fared in a load.
type PlatformOutcome struct {
	Platform      Platform `json:"platform"`
	Present       bool     `json:"present"`
	Loaded        bool     `json:"loaded"`
	Error         string   `json:"error,omitempty"`
	Items         int      `json:"items"`
	ExportEnabled bool     `json:"exportEnabled"`
	Message       string   `json:"message,omitempty"`
}

// LoadReport is the result of one load attempt.
type LoadReport struct {
	Seq    uint64 `json:"seq"`
	Status Status `json:"status"`

	// Alert is set when the failure must also be shown as a blocking
	// dialog.
	Alert string `json:"alert,omitempty"`

	Platforms []PlatformOutcome `json:"platforms"`
}

// Orchestrator drives loads for one session.
//
// Every attempt resets the Store and receives a sequence number. When the
// scrape returns, the result is applied only if no newer attempt or reset
// started in the meantime; otherwise it is discarded with ErrStaleLoad.
type Orchestrator struct {
	store   *Store
	scraper Scraper

	// mu orders resets against applies so a stale check and the apply it
	// guards cannot interleave with another attempt.
	mu sync.Mutex
}

// NewOrchestrator creates an orchestrator loading into s through scraper.
func NewOrchestrator(s *Store, scraper Scraper) *Orchestrator {
	return &Orchestrator{store: s, scraper: scraper}
}

// Reset clears the session and invalidates any load in flight.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.store.Reset()
	o.store.SetStatus("Editor reset.", StatusIdle)
}

// Load fetches identifier and applies the result to the Store.
//
// A blank identifier is rejected without touching state. A transport
// failure returns an error wrapping ErrNetwork together with a report
// carrying the alert text. A rejected response is reported in the status
// with an error wrapping ErrBackend; the Store stays reset.
func (o *Orchestrator) Load(ctx context.Context, identifier string) (*LoadReport, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		o.store.SetStatus("Please enter a Vendor Code or URL.", StatusError)
		return &LoadReport{Status: o.store.Status()}, ErrEmptyIdentifier
	}

	attempt := uuid.NewString()

	o.mu.Lock()
	seq := o.store.BeginLoad()
	o.store.SetStatus("Fetching data...", StatusLoading)
	o.mu.Unlock()

	log := slog.With("identifier", identifier, "load_seq", seq, "attempt", attempt)
	log.Info("load started")

	resp, err := o.scraper.Scrape(ctx, identifier)

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.store.LoadSeq() != seq {
		log.Warn("discarding stale load result", "current_seq", o.store.LoadSeq())
		return &LoadReport{Seq: seq, Status: o.store.Status()}, fmt.Errorf("%w: attempt %d", ErrStaleLoad, seq)
	}

	if err != nil {
		log.Error("scrape request failed", "error", err)
		o.store.SetStatus("Network Error or Server Down. Check console.", StatusError)
		report := &LoadReport{
			Seq:    seq,
			Status: o.store.Status(),
			Alert:  "Could not connect to backend or critical error occurred.\nError: " + err.Error(),
		}
		if !errors.Is(err, ErrNetwork) {
			err = fmt.Errorf("%w: %w", ErrNetwork, err)
		}
		return report, err
	}

	if resp == nil || !resp.OK || !resp.Success {
		msg := "Failed to fetch data from backend."
		if resp != nil && resp.Error != "" {
			msg = resp.Error
		}
		log.Warn("backend rejected load", "error", msg)
		o.store.SetStatus("Error: "+msg, StatusError)
		return &LoadReport{Seq: seq, Status: o.store.Status()}, fmt.Errorf("%w: %s", ErrBackend, msg)
	}

	report := &LoadReport{Seq: seq}
	var messages []string
	anyLoaded := false
	for _, def := range All() {
		outcome := o.apply(def, resp.Blocks[def.Key])
		if outcome.Message != "" {
			messages = append(messages, outcome.Message)
		}
		anyLoaded = anyLoaded || outcome.Loaded
		report.Platforms = append(report.Platforms, outcome)
	}

	level := StatusSuccess
	if !anyLoaded {
		level = StatusError
	}
	o.store.SetStatus(strings.Join(messages, " "), level)
	report.Status = o.store.Status()

	log.Info("load finished", "message", report.Status.Message)
	return report, nil
}

// apply maps one platform block into the Store. The caller holds o.mu.
func (o *Orchestrator) apply(def PlatformDefinition, block *PlatformBlock) PlatformOutcome {
	outcome := PlatformOutcome{Platform: def.Key}
	if block == nil {
		return outcome
	}
	outcome.Present = true

	target := block.OriginalIdentifier
	if target == "" {
		target = "vendor"
	}

	switch {
	case block.DataLoaded && block.CSVData != "":
		result, err := LoadPlatform(o.store, def.Key, PlatformData{
			CSV:                block.CSVData,
			VendorInfo:         block.VendorInfo,
			OriginalIdentifier: block.OriginalIdentifier,
		})
		if err != nil {
			outcome.Error = o.store.LoadState(def.Key).Error
			if outcome.Error == "" {
				outcome.Error = err.Error()
			}
			outcome.Message = fmt.Sprintf("%s: %s", def.Key.Upper(), outcome.Error)
			return outcome
		}
		outcome.Loaded = true
		outcome.Items = result.Items
		outcome.Message = fmt.Sprintf("%s data for %s loaded.", def.Label, target)

	case block.DataLoaded:
		if err := LoadVendorInfo(o.store, def.Key, block.VendorInfo, block.OriginalIdentifier, LoadState{Loaded: true}); err != nil {
			outcome.Error = err.Error()
			return outcome
		}
		outcome.Loaded = true
		outcome.Message = fmt.Sprintf("%s data for %s loaded.", def.Label, target)

	default:
		msg := block.Error
		if msg == "" {
			msg = fmt.Sprintf("Failed to load %s data.", def.Label)
		}
		if err := LoadVendorInfo(o.store, def.Key, block.VendorInfo, block.OriginalIdentifier, LoadState{Error: msg}); err != nil {
			slog.Warn("vendor info not applied", "platform", def.Key, "error", err)
		}
		outcome.Error = msg
		outcome.Message = fmt.Sprintf("%s: %s", def.Key.Upper(), msg)
	}

	outcome.ExportEnabled = outcome.Loaded && NewMenu(o.store).ExportEnabled(def.Key)
	return outcome
}
