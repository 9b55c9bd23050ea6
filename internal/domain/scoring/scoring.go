// Package scoring computes category and type averages for a single
// participant-week from raw item values.
package scoring

import (
	"context"
	"fmt"
	"sort"

	"github.com/maumcare/pulse/internal/domain/model"
	"github.com/maumcare/pulse/internal/domain/schema"
)

// Scorer computes a week score from a participant's raw responses.
// Findings are non-fatal per-record anomalies (schema mismatches, invalid
// values); the returned error is reserved for cancellation.
type Scorer interface {
	Score(ctx context.Context, set model.ResponseSet) (model.WeekScore, []error, error)
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithRegistry sets the instrument schema registry.
func WithRegistry(registry *schema.Registry) Option {
	return func(e *Engine) {
		if registry != nil {
			e.registry = registry
		}
	}
}

// Engine implements Scorer against a schema registry. It is a pure function
// of its inputs and safe for concurrent use.
type Engine struct {
	registry *schema.Registry
}

// New creates an Engine with configuration options. Without options the
// built-in study instruments are used.
func New(opts ...Option) *Engine {
	e := &Engine{registry: schema.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// accumulator collects a running sum of valid item values.
type accumulator struct {
	sum   float64
	count int
}

func (a *accumulator) add(v float64) {
	a.sum += v
	a.count++
}

// Score groups the raw answers by schema, validates values and computes the
// averages for each category and each type within it.
//
// An item id with no schema entry fails that whole instrument for this
// record (the partial figures are discarded and the mismatch is reported).
// An out-of-range value is excluded from averaging and reported. Zero valid
// values for a category or type yield no entry at all, never a zero.
func (e *Engine) Score(ctx context.Context, set model.ResponseSet) (model.WeekScore, []error, error) {
	if err := ctx.Err(); err != nil {
		return model.WeekScore{}, nil, fmt.Errorf("scoring cancelled: %w", err)
	}

	score := model.WeekScore{
		ParticipantID:    set.Identity.ParticipantID,
		Week:             set.Week,
		CategoryAverages: make(map[string]float64),
		TypeAverages:     make(map[string]map[string]float64),
	}
	var findings []error

	for _, name := range instrumentsOf(set) {
		def, err := e.registry.Instrument(name)
		if err != nil {
			findings = append(findings, err)
			continue
		}
		mismatches := e.locateAll(name, set.Items[name])
		if len(mismatches) > 0 {
			findings = append(findings, mismatches...)
			continue
		}

		byCategory := make(map[string]*accumulator)
		byType := make(map[schema.ItemKey]*accumulator)
		for _, itemID := range sortedItems(set.Items[name]) {
			value := set.Items[name][itemID]
			if !def.InRange(value) {
				findings = append(findings, &InvalidValueError{
					Instrument: name,
					ItemID:     itemID,
					Value:      value,
					Min:        def.MinValue,
					Max:        def.MaxValue,
				})
				continue
			}
			key, _ := e.registry.Locate(name, itemID)
			if byCategory[key.Category] == nil {
				byCategory[key.Category] = &accumulator{}
			}
			byCategory[key.Category].add(value)
			if byType[key] == nil {
				byType[key] = &accumulator{}
			}
			byType[key].add(value)
		}

		for category, acc := range byCategory {
			if avg, ok := average(def, acc); ok {
				score.CategoryAverages[category] = avg
			}
		}
		for key, acc := range byType {
			avg, ok := average(def, acc)
			if !ok {
				continue
			}
			if score.TypeAverages[key.Category] == nil {
				score.TypeAverages[key.Category] = make(map[string]float64)
			}
			score.TypeAverages[key.Category][key.Type] = avg
		}
	}

	return score, findings, nil
}

// locateAll checks every answered item against the schema up front, so a
// mismatch never leaves a half-scored instrument behind.
func (e *Engine) locateAll(name model.Instrument, items map[string]float64) []error {
	var mismatches []error
	for _, itemID := range sortedItems(items) {
		if _, err := e.registry.Locate(name, itemID); err != nil {
			mismatches = append(mismatches, err)
		}
	}
	return mismatches
}

// average applies the instrument's scoring method to an accumulator.
// Returns ok=false when no valid values were collected.
func average(def schema.Instrument, acc *accumulator) (float64, bool) {
	if acc == nil || acc.count == 0 {
		return 0, false
	}
	switch def.Method {
	case schema.MethodScaled:
		n := float64(acc.count)
		denominator := n*def.MaxValue - n
		if denominator <= 0 {
			return 0, false
		}
		return (acc.sum - n) / denominator * 100, true
	default:
		return acc.sum / float64(acc.count), true
	}
}

func instrumentsOf(set model.ResponseSet) []model.Instrument {
	names := make([]model.Instrument, 0, len(set.Items))
	for name := range set.Items {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

func sortedItems(items map[string]float64) []string {
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
