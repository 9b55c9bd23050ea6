package threshold_test

import (
	"testing"

	model "github.com/maumcare/pulse/internal/domain/model"
	threshold "github.com/maumcare/pulse/internal/domain/threshold"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCutoffsClassify(t *testing.T) {
	Convey("Given a two-boundary cutoff pair", t, func() {
		c := threshold.Cutoffs{2.58, 3.01}

		Convey("Then values at or below the first boundary are normal", func() {
			So(c.Classify(1.0), ShouldEqual, threshold.Normal)
			So(c.Classify(2.58), ShouldEqual, threshold.Normal)
		})

		Convey("Then values at or below the second boundary are borderline", func() {
			So(c.Classify(2.59), ShouldEqual, threshold.Borderline)
			So(c.Classify(3.01), ShouldEqual, threshold.Borderline)
		})

		Convey("Then values above the last boundary are at risk", func() {
			So(c.Classify(3.02), ShouldEqual, threshold.AtRisk)
			So(c.Classify(5.0), ShouldEqual, threshold.AtRisk)
		})
	})

	Convey("Given a single-boundary cutoff", t, func() {
		c := threshold.Cutoffs{63.88}

		Convey("Then there is no borderline band", func() {
			So(c.Classify(63.88), ShouldEqual, threshold.Normal)
			So(c.Classify(63.89), ShouldEqual, threshold.AtRisk)
		})
	})

	Convey("Given no cutoffs at all", t, func() {
		So(threshold.Cutoffs{}.Classify(99), ShouldEqual, threshold.Normal)
	})
}

func TestBandLabels(t *testing.T) {
	Convey("Given the report band labels", t, func() {
		So(threshold.Normal.Label(), ShouldEqual, "정상")
		So(threshold.Borderline.Label(), ShouldEqual, "준위험")
		So(threshold.AtRisk.Label(), ShouldEqual, "위험")
	})
}

func TestGenderedThresholds(t *testing.T) {
	Convey("Given the default study cutoffs", t, func() {
		set := threshold.Default()

		Convey("When classifying a stress category average", func() {
			Convey("Then the male and female boundaries differ", func() {
				band, ok := set.ClassifyCategory(string(model.Stress), model.GenderFemale, 49.0)
				So(ok, ShouldBeTrue)
				So(band, ShouldEqual, threshold.Normal)

				band, ok = set.ClassifyCategory(string(model.Stress), model.GenderMale, 49.0)
				So(ok, ShouldBeTrue)
				So(band, ShouldEqual, threshold.Borderline)
			})
		})

		Convey("When the gender is unknown", func() {
			Convey("Then the female boundaries apply", func() {
				band, ok := set.ClassifyCategory(string(model.Stress), model.GenderUnknown, 49.0)
				So(ok, ShouldBeTrue)
				So(band, ShouldEqual, threshold.Normal)
			})
		})

		Convey("When classifying burnout type averages", func() {
			band, ok := set.ClassifyType(string(model.BATPrimary), "탈진", model.GenderFemale, 3.2)
			So(ok, ShouldBeTrue)
			So(band, ShouldEqual, threshold.Borderline)
		})

		Convey("When classifying an emotional-labor type average", func() {
			Convey("Then only normal and at-risk exist", func() {
				band, ok := set.ClassifyType(string(model.EmotionalLabor), "감정부조화 및 손상", model.GenderFemale, 63.88)
				So(ok, ShouldBeTrue)
				So(band, ShouldEqual, threshold.Normal)

				band, ok = set.ClassifyType(string(model.EmotionalLabor), "감정부조화 및 손상", model.GenderMale, 69.44)
				So(ok, ShouldBeTrue)
				So(band, ShouldEqual, threshold.AtRisk)
			})
		})

		Convey("When no thresholds exist for a name", func() {
			_, ok := set.ClassifyCategory("unknown", model.GenderFemale, 1.0)
			So(ok, ShouldBeFalse)

			_, ok = set.ClassifyType(string(model.Stress), "unknown", model.GenderFemale, 1.0)
			So(ok, ShouldBeFalse)
		})

		Convey("Then BAT primary has no male variant and falls back", func() {
			t2, ok := set.Category(string(model.BATPrimary))
			So(ok, ShouldBeTrue)
			So(t2.For(model.GenderMale), ShouldResemble, t2.Female)
		})
	})
}
