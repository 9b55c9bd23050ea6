package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/maumcare/pulse/internal/cohort"
	"github.com/maumcare/pulse/pkg/metrics"
)

// The exported document is the sole contract the rendering collaborator
// depends on. Field names and the week-label keys ("0주차", ...) must not
// change without coordinating a renderer release.

// WeekDoc is one week's averages. Missing combinations are omitted keys,
// never zeroes: a renderer must treat "no data" differently from a lowest
// score.
type WeekDoc struct {
	CategoryAverages map[string]float64            `json:"category_averages"`
	TypeAverages     map[string]map[string]float64 `json:"type_averages"`
}

// ParticipantDoc is one participant's identity plus their weekly analysis.
type ParticipantDoc struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	Team     string             `json:"team"`
	Role     string             `json:"role"`
	Gender   string             `json:"gender,omitempty"`
	Phone    string             `json:"phone,omitempty"`
	Analysis map[string]WeekDoc `json:"analysis"`
}

// GroupDoc is one cohort's weekly baselines.
type GroupDoc struct {
	Analysis         map[string]WeekDoc `json:"analysis"`
	ParticipantCount int                `json:"participant_count"`
}

// Document is the full analysis store serialization.
type Document struct {
	Participants []ParticipantDoc    `json:"participants"`
	Groups       map[string]GroupDoc `json:"groups"`
}

// Export snapshots a store into its serializable document. Averages round
// to two decimals here; computation upstream keeps full precision.
func Export(ctx context.Context, store Store) Document {
	start := time.Now()
	defer func() {
		metrics.RecordStoreExport()
		metrics.RecordStoreExportLatency(float64(time.Since(start).Milliseconds()))
	}()

	doc := Document{
		Participants: make([]ParticipantDoc, 0, store.Count(ctx)),
		Groups:       make(map[string]GroupDoc),
	}

	for _, h := range store.Histories(ctx) {
		p := ParticipantDoc{
			ID:       h.Identity.ParticipantID,
			Name:     h.Identity.Name,
			Team:     h.Identity.Team,
			Role:     h.Identity.Role,
			Gender:   string(h.Identity.Gender),
			Phone:    h.Identity.Phone,
			Analysis: make(map[string]WeekDoc, len(h.Analysis)),
		}
		for label, score := range h.Analysis {
			p.Analysis[label] = WeekDoc{
				CategoryAverages: roundMap(score.CategoryAverages),
				TypeAverages:     roundNested(score.TypeAverages),
			}
		}
		doc.Participants = append(doc.Participants, p)
	}

	for _, group := range store.Groups(ctx) {
		g := GroupDoc{
			Analysis:         make(map[string]WeekDoc, len(group.Analysis)),
			ParticipantCount: group.ParticipantCount,
		}
		for label, baseline := range group.Analysis {
			g.Analysis[label] = WeekDoc{
				CategoryAverages: roundMap(baseline.CategoryAverages),
				TypeAverages:     roundNested(baseline.TypeAverages),
			}
		}
		doc.Groups[group.Name] = g
	}

	return doc
}

// WriteFile exports a store as indented JSON at path.
func WriteFile(ctx context.Context, store Store, path string) error {
	doc := Export(ctx, store)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// Round2 rounds to two decimals, the precision of the reporting contract.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func roundMap(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = Round2(v)
	}
	return out
}

func roundNested(in map[string]map[string]float64) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(in))
	for k, v := range in {
		out[k] = roundMap(v)
	}
	return out
}

// GroupsByName indexes group analyses for lookup in tests and consumers.
func GroupsByName(groups []cohort.GroupAnalysis) map[string]cohort.GroupAnalysis {
	out := make(map[string]cohort.GroupAnalysis, len(groups))
	for _, g := range groups {
		out[g.Name] = g
	}
	return out
}
