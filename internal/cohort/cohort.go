// Package cohort computes group-wide baselines from participant histories.
// Baselines are means of participant means, so a participant who answered
// fewer items carries the same weight as everyone else.
package cohort

import (
	"sort"

	"github.com/maumcare/pulse/internal/domain/model"
	"github.com/maumcare/pulse/internal/history"
)

// CompanyGroupName labels the all-participants group at the serialization
// boundary.
const CompanyGroupName = "회사"

// Baseline holds the aggregated averages for one group and week.
// Missing combinations are absent from the maps, never zero.
type Baseline struct {
	Week             int
	CategoryAverages map[string]float64
	TypeAverages     map[string]map[string]float64
}

// GroupAnalysis is the full aggregation result for one group, keyed by week
// label like participant histories.
type GroupAnalysis struct {
	Name             string
	ParticipantCount int
	Analysis         map[string]Baseline
}

// Group selects the participants included in a baseline.
type Group struct {
	Name  string
	Match func(model.Identity) bool
}

// CompanyGroup includes every participant.
func CompanyGroup() Group {
	return Group{Name: CompanyGroupName, Match: func(model.Identity) bool { return true }}
}

// TeamGroup includes participants of a single team.
func TeamGroup(team string) Group {
	return Group{Name: team, Match: func(id model.Identity) bool { return id.Team == team }}
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithGroups replaces the aggregated groups. The default is the company
// group plus one group per team observed in the histories.
func WithGroups(groups ...Group) Option {
	return func(a *Aggregator) {
		if len(groups) > 0 {
			a.groups = groups
		}
	}
}

// WithCategories sets the categories every baseline is expected to cover.
// Combinations without data are reported as insufficient. The default is
// the union of categories observed across all histories.
func WithCategories(categories ...string) Option {
	return func(a *Aggregator) {
		if len(categories) > 0 {
			a.categories = categories
		}
	}
}

// Aggregator computes baselines for a set of groups.
type Aggregator struct {
	groups     []Group
	categories []string
}

// New creates an Aggregator with configuration options.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AggregateWeek computes one group's baseline for a target week. Every
// participant holding a score for that week contributes; participants
// missing the week are excluded, not treated as zero. Inclusion is decided
// per category: a participant lacking category c is excluded from c's mean
// only. Findings report expected categories with no contributors.
func (a *Aggregator) AggregateWeek(histories []*history.ParticipantHistory, group Group, week int) (Baseline, []error) {
	baseline := Baseline{
		Week:             week,
		CategoryAverages: make(map[string]float64),
		TypeAverages:     make(map[string]map[string]float64),
	}

	categorySums := make(map[string]*meanAcc)
	typeSums := make(map[string]map[string]*meanAcc)
	for _, h := range histories {
		if group.Match != nil && !group.Match(h.Identity) {
			continue
		}
		score, ok := h.Score(week)
		if !ok {
			continue
		}
		for category, value := range score.CategoryAverages {
			if categorySums[category] == nil {
				categorySums[category] = &meanAcc{}
			}
			categorySums[category].add(value)
		}
		for category, types := range score.TypeAverages {
			if typeSums[category] == nil {
				typeSums[category] = make(map[string]*meanAcc)
			}
			for typeName, value := range types {
				if typeSums[category][typeName] == nil {
					typeSums[category][typeName] = &meanAcc{}
				}
				typeSums[category][typeName].add(value)
			}
		}
	}

	for category, acc := range categorySums {
		baseline.CategoryAverages[category] = acc.mean()
	}
	for category, types := range typeSums {
		baseline.TypeAverages[category] = make(map[string]float64, len(types))
		for typeName, acc := range types {
			baseline.TypeAverages[category][typeName] = acc.mean()
		}
	}

	var findings []error
	for _, category := range a.expectedCategories(histories) {
		if _, ok := baseline.CategoryAverages[category]; !ok {
			findings = append(findings, &InsufficientDataError{
				Group:    group.Name,
				Week:     week,
				Category: category,
			})
		}
	}
	return baseline, findings
}

// Aggregate computes baselines for every group over the given weeks.
// Weeks where a group has no participants at all yield no analysis entry.
func (a *Aggregator) Aggregate(histories []*history.ParticipantHistory, weeks []int) ([]GroupAnalysis, []error) {
	groups := a.groups
	if len(groups) == 0 {
		groups = defaultGroups(histories)
	}

	var findings []error
	out := make([]GroupAnalysis, 0, len(groups))
	for _, group := range groups {
		analysis := GroupAnalysis{
			Name:     group.Name,
			Analysis: make(map[string]Baseline),
		}
		for _, h := range histories {
			if group.Match == nil || group.Match(h.Identity) {
				analysis.ParticipantCount++
			}
		}
		for _, week := range weeks {
			baseline, weekFindings := a.AggregateWeek(histories, group, week)
			findings = append(findings, weekFindings...)
			if len(baseline.CategoryAverages) == 0 && len(baseline.TypeAverages) == 0 {
				continue
			}
			analysis.Analysis[model.WeekLabel(week)] = baseline
		}
		out = append(out, analysis)
	}
	return out, findings
}

// expectedCategories returns the configured category list, or the union of
// categories observed anywhere in the histories.
func (a *Aggregator) expectedCategories(histories []*history.ParticipantHistory) []string {
	if len(a.categories) > 0 {
		return a.categories
	}
	seen := make(map[string]struct{})
	for _, h := range histories {
		for _, score := range h.Analysis {
			for category := range score.CategoryAverages {
				seen[category] = struct{}{}
			}
		}
	}
	categories := make([]string, 0, len(seen))
	for category := range seen {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}

// defaultGroups is the company group plus one group per observed team.
func defaultGroups(histories []*history.ParticipantHistory) []Group {
	teams := make(map[string]struct{})
	for _, h := range histories {
		if h.Identity.Team != "" {
			teams[h.Identity.Team] = struct{}{}
		}
	}
	names := make([]string, 0, len(teams))
	for team := range teams {
		names = append(names, team)
	}
	sort.Strings(names)

	groups := make([]Group, 0, len(names)+1)
	groups = append(groups, CompanyGroup())
	for _, team := range names {
		groups = append(groups, TeamGroup(team))
	}
	return groups
}

type meanAcc struct {
	sum   float64
	count int
}

func (m *meanAcc) add(v float64) {
	m.sum += v
	m.count++
}

func (m *meanAcc) mean() float64 {
	return m.sum / float64(m.count)
}
