package report_test

import (
	"testing"

	model "github.com/maumcare/pulse/internal/domain/model"
	threshold "github.com/maumcare/pulse/internal/domain/threshold"
	history "github.com/maumcare/pulse/internal/history"
	report "github.com/maumcare/pulse/internal/report"
	. "github.com/smartystreets/goconvey/convey"
)

func participantAt(id string, gender model.Gender, week int, category string, value float64) *history.ParticipantHistory {
	return &history.ParticipantHistory{
		Identity: model.Identity{ParticipantID: id, Gender: gender},
		Analysis: map[string]model.WeekScore{
			model.WeekLabel(week): {
				ParticipantID:    id,
				Week:             week,
				CategoryAverages: map[string]float64{category: value},
			},
		},
	}
}

func TestRiskCounts(t *testing.T) {
	Convey("Given cutoffs and a scored cohort", t, func() {
		cuts := threshold.Set{
			Categories: map[string]threshold.Thresholds{
				"stress": {
					Female: threshold.Cutoffs{30, 60},
					Male:   threshold.Cutoffs{40, 70},
				},
			},
		}
		histories := []*history.ParticipantHistory{
			participantAt("a", model.GenderFemale, 0, "stress", 25),
			participantAt("b", model.GenderFemale, 0, "stress", 45),
			participantAt("c", model.GenderMale, 0, "stress", 65),
			participantAt("d", model.GenderFemale, 0, "stress", 80),
			participantAt("e", model.GenderFemale, 4, "stress", 90),
			participantAt("f", model.GenderFemale, 0, "uncut", 10),
		}

		Convey("When tallying week 0", func() {
			overview := report.RiskCounts(histories, cuts, 0)

			Convey("Then bands follow the gendered cutoffs", func() {
				So(overview["stress"]["정상"], ShouldEqual, 1)
				// 45 is borderline for women; 65 is borderline for men.
				So(overview["stress"]["준위험"], ShouldEqual, 2)
				So(overview["stress"]["위험"], ShouldEqual, 1)
			})

			Convey("And other weeks and uncut categories stay out", func() {
				total := 0
				for _, n := range overview["stress"] {
					total += n
				}
				So(total, ShouldEqual, 4)
				So(overview, ShouldNotContainKey, "uncut")
			})
		})

		Convey("When tallying a week nobody answered", func() {
			So(report.RiskCounts(histories, cuts, 8), ShouldBeEmpty)
		})
	})
}
