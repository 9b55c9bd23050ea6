// Package schema defines the static grouping of questionnaire items into
// categories and types, and the lookup used by the scoring engine.
package schema

import (
	"fmt"

	"github.com/maumcare/pulse/internal/domain/model"
)

// Method determines how item values are combined into an average.
type Method string

// Scoring methods used by the study instruments.
const (
	// MethodMean is the arithmetic mean of item values.
	MethodMean Method = "mean"
	// MethodScaled is the converted score used by the occupational
	// stress and emotional-labor instruments:
	// ((sum - n) / (n*max - n)) * 100.
	MethodScaled Method = "scaled"
)

// Type is a named sub-dimension within a category, e.g. "정서적 조절".
type Type struct {
	Name  string   `koanf:"name"`
	Items []string `koanf:"items"`
}

// Category is a top-level construct composed of one or more types.
type Category struct {
	Name  string `koanf:"name"`
	Types []Type `koanf:"types"`
}

// Instrument describes one questionnaire: its value range, scoring method
// and the category/type grouping of its items.
type Instrument struct {
	Name     model.Instrument `koanf:"name"`
	MinValue float64          `koanf:"min_value"`
	MaxValue float64          `koanf:"max_value"`
	Method   Method           `koanf:"method"`
	// AnswerScores maps Likert answer labels to numeric values at the
	// ingestion boundary. Optional; numeric answers pass through as-is.
	AnswerScores map[string]float64 `koanf:"answer_scores"`
	Categories   []Category         `koanf:"categories"`
}

// InRange reports whether a raw value lies inside the declared item range.
func (in Instrument) InRange(value float64) bool {
	return value >= in.MinValue && value <= in.MaxValue
}

// ItemKey is the typed composite key locating an item inside an instrument.
// Using a struct key instead of free-form nested map access removes lookup
// typos as a class of bug.
type ItemKey struct {
	Category string
	Type     string
}

// Registry holds validated instrument schemas and answers item lookups.
type Registry struct {
	instruments map[model.Instrument]Instrument
	lookup      map[model.Instrument]map[string]ItemKey
}

// NewRegistry builds a registry from instrument definitions.
// Every item must belong to exactly one (category, type) pair of its
// instrument; violations return ErrInvalidSchema.
func NewRegistry(defs ...Instrument) (*Registry, error) {
	r := &Registry{
		instruments: make(map[model.Instrument]Instrument, len(defs)),
		lookup:      make(map[model.Instrument]map[string]ItemKey, len(defs)),
	}
	for _, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("%w: instrument without a name", ErrInvalidSchema)
		}
		if _, dup := r.instruments[def.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate instrument %q", ErrInvalidSchema, def.Name)
		}
		if def.MaxValue <= def.MinValue {
			return nil, fmt.Errorf("%w: instrument %q has empty value range [%v, %v]",
				ErrInvalidSchema, def.Name, def.MinValue, def.MaxValue)
		}
		switch def.Method {
		case MethodMean, MethodScaled:
		default:
			return nil, fmt.Errorf("%w: instrument %q has unknown method %q",
				ErrInvalidSchema, def.Name, def.Method)
		}
		items := make(map[string]ItemKey)
		for _, cat := range def.Categories {
			for _, typ := range cat.Types {
				for _, item := range typ.Items {
					if prev, seen := items[item]; seen {
						return nil, fmt.Errorf("%w: item %q of %q mapped to both %v and (%s, %s)",
							ErrInvalidSchema, item, def.Name, prev, cat.Name, typ.Name)
					}
					items[item] = ItemKey{Category: cat.Name, Type: typ.Name}
				}
			}
		}
		if len(items) == 0 {
			return nil, fmt.Errorf("%w: instrument %q has no items", ErrInvalidSchema, def.Name)
		}
		r.instruments[def.Name] = def
		r.lookup[def.Name] = items
	}
	return r, nil
}

// Instrument returns the definition for an instrument name.
func (r *Registry) Instrument(name model.Instrument) (Instrument, error) {
	def, ok := r.instruments[name]
	if !ok {
		return Instrument{}, fmt.Errorf("%w: %q", ErrUnknownInstrument, name)
	}
	return def, nil
}

// Locate returns the (category, type) pair owning itemID within instrument.
// A miss is a hard SchemaMismatch, never a silent skip.
func (r *Registry) Locate(instrument model.Instrument, itemID string) (ItemKey, error) {
	items, ok := r.lookup[instrument]
	if !ok {
		return ItemKey{}, fmt.Errorf("%w: %q", ErrUnknownInstrument, instrument)
	}
	key, ok := items[itemID]
	if !ok {
		return ItemKey{}, &MismatchError{Instrument: instrument, ItemID: itemID}
	}
	return key, nil
}

// ItemCount returns the number of items declared for an instrument.
func (r *Registry) ItemCount(instrument model.Instrument) int {
	return len(r.lookup[instrument])
}

// Names returns the registered instrument names in model order, followed by
// any instruments outside the built-in set.
func (r *Registry) Names() []model.Instrument {
	names := make([]model.Instrument, 0, len(r.instruments))
	for _, name := range model.Instruments() {
		if _, ok := r.instruments[name]; ok {
			names = append(names, name)
		}
	}
	for name := range r.instruments {
		if !isBuiltin(name) {
			names = append(names, name)
		}
	}
	return names
}

func isBuiltin(name model.Instrument) bool {
	for _, builtin := range model.Instruments() {
		if name == builtin {
			return true
		}
	}
	return false
}
