package ingest_test

import (
	"testing"

	model "github.com/maumcare/pulse/internal/domain/model"
	ingest "github.com/maumcare/pulse/internal/ingest"
	. "github.com/smartystreets/goconvey/convey"
)

func TestResolver(t *testing.T) {
	Convey("Given a resolver with registered participants", t, func() {
		r := ingest.NewResolver()
		r.Register(model.Identity{
			Name: "홍길동", Team: "개발팀", Role: "사원",
			Email: "hong@example.com", Phone: "0042",
		})
		r.Register(model.Identity{
			Name: "김철수", Team: "운영팀",
			Email: "kim@example.com", Phone: "1111",
		})
		So(r.Count(), ShouldEqual, 2)

		Convey("When a partial identity carries the full team", func() {
			got, ok := r.Resolve(model.Identity{Name: "홍길동", Team: "개발팀"})
			So(ok, ShouldBeTrue)
			So(got.ParticipantID, ShouldEqual, "홍길동_개발팀")
			So(got.Role, ShouldEqual, "사원")
		})

		Convey("When only name and phone are known", func() {
			got, ok := r.Resolve(model.Identity{Name: "홍길동", Phone: "0042"})
			So(ok, ShouldBeTrue)
			So(got.Team, ShouldEqual, "개발팀")
		})

		Convey("When the name is unique on its own", func() {
			got, ok := r.Resolve(model.Identity{Name: "김철수"})
			So(ok, ShouldBeTrue)
			So(got.ParticipantID, ShouldEqual, "김철수_운영팀")
		})

		Convey("When two participants share a name", func() {
			r.Register(model.Identity{
				Name: "김철수", Team: "상담팀",
				Email: "kim2@example.com", Phone: "2222",
			})

			Convey("Then a bare name no longer resolves", func() {
				_, ok := r.Resolve(model.Identity{Name: "김철수"})
				So(ok, ShouldBeFalse)
			})

			Convey("Then the email breaks the tie", func() {
				got, ok := r.Resolve(model.Identity{Name: "김철수", Email: "kim2@example.com"})
				So(ok, ShouldBeTrue)
				So(got.Team, ShouldEqual, "상담팀")
			})

			Convey("Then the phone breaks the tie", func() {
				got, ok := r.Resolve(model.Identity{Name: "김철수", Phone: "1111"})
				So(ok, ShouldBeTrue)
				So(got.Team, ShouldEqual, "운영팀")
			})
		})

		Convey("When nothing matches", func() {
			got, ok := r.Resolve(model.Identity{Name: "이영희", Phone: "9999"})
			So(ok, ShouldBeFalse)
			So(got.ParticipantID, ShouldEqual, "이영희_Unknown")
		})

		Convey("When re-registering fills in missing attributes", func() {
			r.Register(model.Identity{
				Name: "홍길동", Team: "개발팀", Gender: model.GenderMale,
			})
			got, ok := r.Resolve(model.Identity{Name: "홍길동", Team: "개발팀"})
			So(ok, ShouldBeTrue)
			So(got.Gender, ShouldEqual, model.GenderMale)
			So(got.Email, ShouldEqual, "hong@example.com")
		})
	})
}
