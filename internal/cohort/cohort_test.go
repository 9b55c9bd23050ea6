package cohort_test

import (
	"errors"
	"testing"

	cohort "github.com/maumcare/pulse/internal/cohort"
	model "github.com/maumcare/pulse/internal/domain/model"
	history "github.com/maumcare/pulse/internal/history"
	. "github.com/smartystreets/goconvey/convey"
)

const floatTolerance = 1e-9

func buildHistories(merges ...func(*history.Builder)) []*history.ParticipantHistory {
	b := history.NewBuilder()
	for _, m := range merges {
		m(b)
	}
	return b.Histories()
}

func merge(identity model.Identity, week int, categories map[string]float64) func(*history.Builder) {
	return func(b *history.Builder) {
		b.Merge(identity, model.WeekScore{
			ParticipantID:    identity.ParticipantID,
			Week:             week,
			CategoryAverages: categories,
		})
	}
}

func TestCompanyBaseline(t *testing.T) {
	Convey("Given two participants with week 0 stress scores", t, func() {
		kim := model.Identity{ParticipantID: "김_a팀", Team: "a팀"}
		lee := model.Identity{ParticipantID: "이_b팀", Team: "b팀"}
		histories := buildHistories(
			merge(kim, 0, map[string]float64{"stress": 25}),
			merge(lee, 0, map[string]float64{"stress": 65}),
		)

		agg := cohort.New()

		Convey("When aggregating the company group for week 0", func() {
			baseline, findings := agg.AggregateWeek(histories, cohort.CompanyGroup(), 0)

			Convey("Then the baseline is the mean of participant means", func() {
				So(findings, ShouldBeEmpty)
				So(baseline.CategoryAverages["stress"], ShouldAlmostEqual, 45.0, floatTolerance)
			})
		})
	})
}

func TestPerCategoryInclusion(t *testing.T) {
	Convey("Given participants with uneven category coverage", t, func() {
		kim := model.Identity{ParticipantID: "김_a팀", Team: "a팀"}
		lee := model.Identity{ParticipantID: "이_a팀", Team: "a팀"}
		histories := buildHistories(
			merge(kim, 0, map[string]float64{"stress": 30, "BAT_primary": 2.0}),
			merge(lee, 0, map[string]float64{"stress": 50}),
		)

		agg := cohort.New()
		baseline, findings := agg.AggregateWeek(histories, cohort.CompanyGroup(), 0)

		Convey("Then inclusion is decided per category", func() {
			So(findings, ShouldBeEmpty)
			So(baseline.CategoryAverages["stress"], ShouldAlmostEqual, 40.0, floatTolerance)
			// Only one participant carries BAT_primary; their mean stands alone.
			So(baseline.CategoryAverages["BAT_primary"], ShouldAlmostEqual, 2.0, floatTolerance)
		})
	})
}

func TestMissingWeekExclusion(t *testing.T) {
	Convey("Given a participant who skipped a round", t, func() {
		kim := model.Identity{ParticipantID: "김_a팀", Team: "a팀"}
		lee := model.Identity{ParticipantID: "이_a팀", Team: "a팀"}
		histories := buildHistories(
			merge(kim, 0, map[string]float64{"stress": 30}),
			merge(kim, 4, map[string]float64{"stress": 60}),
			merge(lee, 0, map[string]float64{"stress": 50}),
		)

		agg := cohort.New()

		Convey("When aggregating the week they skipped", func() {
			baseline, _ := agg.AggregateWeek(histories, cohort.CompanyGroup(), 4)

			Convey("Then they are excluded, not counted as zero", func() {
				So(baseline.CategoryAverages["stress"], ShouldAlmostEqual, 60.0, floatTolerance)
			})
		})
	})
}

func TestInsufficientDataFinding(t *testing.T) {
	Convey("Given an expected category no participant holds", t, func() {
		kim := model.Identity{ParticipantID: "김_a팀", Team: "a팀"}
		histories := buildHistories(
			merge(kim, 0, map[string]float64{"stress": 30}),
		)

		agg := cohort.New(cohort.WithCategories("stress", "BAT_primary"))
		baseline, findings := agg.AggregateWeek(histories, cohort.CompanyGroup(), 0)

		Convey("Then the gap is reported and the entry stays absent", func() {
			So(findings, ShouldHaveLength, 1)
			So(errors.Is(findings[0], cohort.ErrInsufficientData), ShouldBeTrue)
			So(baseline.CategoryAverages, ShouldNotContainKey, "BAT_primary")
		})
	})
}

func TestGroupAggregation(t *testing.T) {
	Convey("Given participants across two teams", t, func() {
		kim := model.Identity{ParticipantID: "김_a팀", Team: "a팀"}
		lee := model.Identity{ParticipantID: "이_a팀", Team: "a팀"}
		park := model.Identity{ParticipantID: "박_b팀", Team: "b팀"}
		histories := buildHistories(
			merge(kim, 0, map[string]float64{"stress": 20}),
			merge(lee, 0, map[string]float64{"stress": 40}),
			merge(park, 0, map[string]float64{"stress": 90}),
		)

		agg := cohort.New()

		Convey("When aggregating with the default groups", func() {
			groups, findings := agg.Aggregate(histories, []int{0})
			So(findings, ShouldBeEmpty)

			byName := make(map[string]cohort.GroupAnalysis, len(groups))
			for _, g := range groups {
				byName[g.Name] = g
			}

			Convey("Then the company group covers everyone", func() {
				company := byName[cohort.CompanyGroupName]
				So(company.ParticipantCount, ShouldEqual, 3)
				So(company.Analysis["0주차"].CategoryAverages["stress"], ShouldAlmostEqual, 50.0, floatTolerance)
			})

			Convey("And each team gets its own baseline", func() {
				So(byName["a팀"].ParticipantCount, ShouldEqual, 2)
				So(byName["a팀"].Analysis["0주차"].CategoryAverages["stress"], ShouldAlmostEqual, 30.0, floatTolerance)
				So(byName["b팀"].ParticipantCount, ShouldEqual, 1)
				So(byName["b팀"].Analysis["0주차"].CategoryAverages["stress"], ShouldAlmostEqual, 90.0, floatTolerance)
			})
		})

		Convey("When a week has no data at all", func() {
			groups, _ := agg.Aggregate(histories, []int{0, 8})

			Convey("Then that week yields no analysis entry", func() {
				for _, g := range groups {
					So(g.Analysis, ShouldNotContainKey, "8주차")
				}
			})
		})
	})
}
