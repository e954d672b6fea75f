// Package core provides the editing model for vendor menu data.
//
// This package holds all domain logic independent of any UI or transport
// layer. It can be driven by the web handlers, a CLI, or tests without
// modification.
//
// # Architecture
//
// The package is organized around a per-session [Store] that owns two
// independent platform partitions (SF and TF). Everything else reads and
// mutates state through it:
//
//   - Entity Mapper: [LoadPlatform] turns scraped CSV text into a
//     [VendorRecord] and [MenuItem] collection.
//   - Menu controller: [Menu] derives category sections and applies item,
//     category and vendor form edits.
//   - Topping editor: [Toppings] edits the topping tree of one SF item.
//   - Schedule editor: [WeekSchedule] maps shift entries to per-weekday rows.
//   - Export: [Exporter] rebuilds column-faithful CSV for download.
//   - Fetch: [Orchestrator] drives a load through a [Scraper] and reconciles
//     partial success across platforms.
//
// # Platform Registry
//
// Platforms are registered at init time using [Register]. Each
// [PlatformDefinition] carries the schema quirks of one source:
//
//	core.Register(PlatformDefinition{
//	    Key:         SF,
//	    Label:       "SnappFood",
//	    ResponseKey: "snappfood",
//	    Toppings:    true,
//	    DefaultHeaders: []string{"vendor_code", ...},
//	})
//
// # Identifiers
//
// Entities loaded from a source keep the id they arrived with as an
// original id; entities created in the session get a synthetic display id
// and no original id. [SourcedID] applies the single precedence rule used by
// the editor and the exporter.
//
// # Error Handling
//
// Operations return sentinel errors wrapped with context. [MapError] maps
// them to user-facing messages with support codes:
//
//   - LOAD001-LOAD005: Load errors (identifier, network, backend, parse, stale)
//   - VAL001-VAL006: Validation errors (category names, times, fields, platforms)
//   - EDIT001-EDIT011: Editing errors (missing entities, read-only ids, schedule)
//   - EXP001-EXP003: Export errors (nothing to export, no columns, serialization)
//   - REQ001-REQ005: Request errors matched on text (cancel, timeout, rate
//     limit, oversized body, busy scrape slots)
package core
