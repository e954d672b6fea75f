package core

import (
	"fmt"
	"sync"
)

var (
	registry   = make(map[Platform]PlatformDefinition)
	registryMu sync.RWMutex
)

// FieldKind is the input type of a vendor form field.
type FieldKind int

const (
	FieldText FieldKind = iota
	FieldFlag
	FieldTags
)

func (k FieldKind) String() string {
	switch k {
	case FieldFlag:
		return "flag"
	case FieldTags:
		return "tags"
	default:
		return "text"
	}
}

// FormField describes one editable vendor form field.
type FormField struct {
	Key  string
	Kind FieldKind

	// ExportDefault is written when the field is blank at export time.
	ExportDefault string
}

// StickyKey is a vendor-info key carried from the scrape response into the
// export without being editable.
type StickyKey struct {
	Key           string
	ExportDefault string
}

// PlatformDefinition holds the schema quirks of one platform.
type PlatformDefinition struct {
	Key   Platform
	Label string

	// ResponseKey is the name of the platform block in a scrape response.
	ResponseKey string

	// Toppings reports whether items carry an editable topping tree.
	Toppings bool

	// DefaultHeaders is the export column order used when nothing was loaded.
	DefaultHeaders []string

	FormFields []FormField
	StickyKeys []StickyKey
}

// Field returns the form field with the given key.
func (d PlatformDefinition) Field(key string) (FormField, bool) {
	for _, f := range d.FormFields {
		if f.Key == key {
			return f, true
		}
	}
	return FormField{}, false
}

// Register adds a platform definition to the registry.
// Panics if the platform is already registered.
func Register(def PlatformDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Key]; exists {
		panic(fmt.Sprintf("platform already registered: %s", def.Key))
	}
	registry[def.Key] = def
}

// Get returns a platform definition by key.
// Returns false if not found.
func Get(p Platform) (PlatformDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[p]
	return def, ok
}

// Definition returns the definition of p or an ErrUnknownPlatform error.
func Definition(p Platform) (PlatformDefinition, error) {
	def, ok := Get(p)
	if !ok {
		return PlatformDefinition{}, fmt.Errorf("%w: %q", ErrUnknownPlatform, p)
	}
	return def, nil
}

// All returns all registered definitions in display order.
func All() []PlatformDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]PlatformDefinition, 0, len(registry))
	for _, p := range Platforms {
		if def, ok := registry[p]; ok {
			result = append(result, def)
		}
	}
	return result
}

// PlatformCount returns the number of registered platforms.
func PlatformCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}
