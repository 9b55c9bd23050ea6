package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	repository "github.com/maumcare/pulse/internal/adapters/repository"
	service "github.com/maumcare/pulse/internal/app"
	cohort "github.com/maumcare/pulse/internal/cohort"
	model "github.com/maumcare/pulse/internal/domain/model"
	schema "github.com/maumcare/pulse/internal/domain/schema"
	report "github.com/maumcare/pulse/internal/report"
	"github.com/maumcare/pulse/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logger.InitWithWriter(io.Discard)
	os.Exit(m.Run())
}

// stressOnlyRegistry scores a four-item block by plain mean so the cohort
// arithmetic in the assertions stays readable.
func stressOnlyRegistry() *schema.Registry {
	r, err := schema.NewRegistry(schema.Instrument{
		Name:     model.Stress,
		MinValue: 0,
		MaxValue: 100,
		Method:   schema.MethodMean,
		Categories: []schema.Category{{
			Name: "stress",
			Types: []schema.Type{
				{Name: "직무 요구", Items: []string{"Q1", "Q2", "Q3", "Q4"}},
			},
		}},
	})
	if err != nil {
		panic(err)
	}
	return r
}

const roundHeader = "타임스탬프,성명,소속,직무,설문 결과 전송을 위한 이메일 주소 (오타 주의),휴대폰 번호 뒷자리 (4자리),Q1,Q2,Q3,Q4\n"

func writeRound(dir, name, rows string) string {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(roundHeader+rows), 0o600); err != nil {
		panic(err)
	}
	return path
}

func TestRunPipeline(t *testing.T) {
	Convey("Given one round with two participants", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		round := writeRound(dir, "0주차.csv",
			"2026-01-05,김,a팀,사원,kim@example.com,1111,10,20,30,40\n"+
				"2026-01-05,이,b팀,대리,lee@example.com,2222,50,60,70,80\n")
		out := filepath.Join(dir, "analysis.json")
		summaryPath := filepath.Join(dir, "summary.json")

		svc := service.New(
			service.WithRegistry(stressOnlyRegistry()),
			service.WithWorkerCount(2),
			service.WithOutputFile(out),
			service.WithSummaryFile(summaryPath),
		)

		Convey("When the run completes", func() {
			summary, err := svc.Run(ctx, []service.Round{{Week: 0, Path: round}})
			So(err, ShouldBeNil)
			defer svc.Stop()

			Convey("Then both participants are scored", func() {
				So(summary.Participants, ShouldEqual, 2)
				So(summary.ResponsesScored, ShouldEqual, 2)
				So(summary.Anomalies, ShouldBeEmpty)
				So(summary.Weeks, ShouldResemble, []int{0})

				h, err := svc.Store().Participant(ctx, "김_a팀")
				So(err, ShouldBeNil)
				So(h.Analysis["0주차"].CategoryAverages["stress"], ShouldEqual, 25)

				h, err = svc.Store().Participant(ctx, "이_b팀")
				So(err, ShouldBeNil)
				So(h.Analysis["0주차"].CategoryAverages["stress"], ShouldEqual, 65)
			})

			Convey("And the company baseline averages the participant means", func() {
				groups := svc.Store().Groups(ctx)
				byName := make(map[string]cohort.GroupAnalysis, len(groups))
				for _, g := range groups {
					byName[g.Name] = g
				}

				company := byName[cohort.CompanyGroupName]
				So(company.ParticipantCount, ShouldEqual, 2)
				So(company.Analysis["0주차"].CategoryAverages["stress"], ShouldEqual, 45)

				So(byName["a팀"].Analysis["0주차"].CategoryAverages["stress"], ShouldEqual, 25)
				So(byName["b팀"].Analysis["0주차"].CategoryAverages["stress"], ShouldEqual, 65)
			})

			Convey("And the analysis document lands on disk", func() {
				data, err := os.ReadFile(out)
				So(err, ShouldBeNil)

				var doc repository.Document
				So(json.Unmarshal(data, &doc), ShouldBeNil)
				So(doc.Participants, ShouldHaveLength, 2)
				So(doc.Groups, ShouldContainKey, cohort.CompanyGroupName)
			})

			Convey("And the run summary lands on disk", func() {
				data, err := os.ReadFile(summaryPath)
				So(err, ShouldBeNil)

				var got report.Summary
				So(json.Unmarshal(data, &got), ShouldBeNil)
				So(got.RunID, ShouldEqual, summary.RunID)
				So(got.Participants, ShouldEqual, 2)
			})
		})
	})
}

func TestRunAcrossRounds(t *testing.T) {
	Convey("Given rounds across weeks with a returning participant", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		week0 := writeRound(dir, "0주차.csv",
			"2026-01-05,김,a팀,사원,kim@example.com,1111,10,20,30,40\n")

		// Week 2 exports drop the team and role columns.
		week2Path := filepath.Join(dir, "2주차.csv")
		week2 := "타임스탬프,성명,휴대폰 번호 뒷자리 (4자리),Q1,Q2,Q3,Q4\n" +
			"2026-01-19,김,1111,20,30,40,50\n"
		So(os.WriteFile(week2Path, []byte(week2), 0o600), ShouldBeNil)

		svc := service.New(
			service.WithRegistry(stressOnlyRegistry()),
			service.WithOutputFile(filepath.Join(dir, "analysis.json")),
			service.WithSummaryFile(""),
		)

		Convey("When both rounds run", func() {
			summary, err := svc.Run(ctx, []service.Round{
				{Week: 0, Path: week0},
				{Week: 2, Path: week2Path},
			})
			So(err, ShouldBeNil)
			defer svc.Stop()

			Convey("Then the weeks accumulate under one participant", func() {
				So(summary.Participants, ShouldEqual, 1)
				So(summary.ResponsesScored, ShouldEqual, 2)

				h, err := svc.Store().Participant(ctx, "김_a팀")
				So(err, ShouldBeNil)
				So(h.Weeks(), ShouldResemble, []int{0, 2})
				So(h.Analysis["2주차"].CategoryAverages["stress"], ShouldEqual, 35)
			})
		})
	})
}

func TestRunAnomalies(t *testing.T) {
	Convey("Given a round with a short row", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		round := writeRound(dir, "0주차.csv",
			"2026-01-05,김,a팀,사원,kim@example.com,1111,10,20\n")

		svc := service.New(
			service.WithRegistry(stressOnlyRegistry()),
			service.WithOutputFile(filepath.Join(dir, "analysis.json")),
			service.WithSummaryFile(""),
		)

		Convey("When the run completes", func() {
			summary, err := svc.Run(ctx, []service.Round{{Week: 0, Path: round}})
			So(err, ShouldBeNil)
			defer svc.Stop()

			Convey("Then the gap is an anomaly, not a failure", func() {
				So(summary.Anomalies, ShouldNotBeEmpty)
				So(summary.CountByKind()[report.KindSchemaMismatch], ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestRunMissingFile(t *testing.T) {
	Convey("Given a round path that does not exist", t, func() {
		ctx := context.Background()
		dir := t.TempDir()

		svc := service.New(
			service.WithRegistry(stressOnlyRegistry()),
			service.WithOutputFile(filepath.Join(dir, "analysis.json")),
			service.WithSummaryFile(""),
		)

		Convey("When the run starts", func() {
			_, err := svc.Run(ctx, []service.Round{{Week: 0, Path: filepath.Join(dir, "nope.csv")}})
			defer svc.Stop()

			Convey("Then the run fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestIngestBeforeStart(t *testing.T) {
	Convey("Given a service that has not started", t, func() {
		svc := service.New()

		Convey("When a round is ingested", func() {
			_, err := svc.IngestRound(context.Background(), service.Round{Week: 0, Path: "x.csv"})

			Convey("Then it refuses with ErrNotStarted", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})
}
