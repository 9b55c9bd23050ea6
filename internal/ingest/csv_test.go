package ingest_test

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	model "github.com/maumcare/pulse/internal/domain/model"
	schema "github.com/maumcare/pulse/internal/domain/schema"
	ingest "github.com/maumcare/pulse/internal/ingest"
	"github.com/maumcare/pulse/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logger.InitWithWriter(io.Discard)
	os.Exit(m.Run())
}

// recordingReporter collects anomalies for assertions.
type recordingReporter struct {
	mu     sync.Mutex
	errors []error
}

func (r *recordingReporter) AddError(_ string, _ int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, err)
}

func (r *recordingReporter) collected() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]error, len(r.errors))
	copy(out, r.errors)
	return out
}

// testRegistry keeps the fixtures small: one instrument, three items.
func testRegistry() *schema.Registry {
	r, err := schema.NewRegistry(schema.Instrument{
		Name:     "custom",
		MinValue: 1,
		MaxValue: 5,
		Method:   schema.MethodMean,
		AnswerScores: map[string]float64{
			"하": 1, "중": 3, "상": 5,
		},
		Categories: []schema.Category{{
			Name: "custom",
			Types: []schema.Type{
				{Name: "t1", Items: []string{"Q1", "Q2"}},
				{Name: "t2", Items: []string{"Q3"}},
			},
		}},
	})
	if err != nil {
		panic(err)
	}
	return r
}

const firstRoundHeader = "타임스탬프,성명,소속,직무,설문 결과 전송을 위한 이메일 주소 (오타 주의),휴대폰 번호 뒷자리 (4자리),Q1,Q2,Q3\n"

const laterRoundHeader = "타임스탬프,성명,휴대폰 번호 뒷자리 (4자리),Q1,Q2,Q3\n"

func newReader(rep ingest.Reporter) *ingest.Reader {
	return ingest.New(
		ingest.WithRegistry(testRegistry()),
		ingest.WithReporter(rep),
	)
}

func TestReadFirstRound(t *testing.T) {
	Convey("Given a week 0 CSV export", t, func() {
		rep := &recordingReporter{}
		r := newReader(rep)

		Convey("When a fully answered row is read", func() {
			csv := firstRoundHeader +
				"2026-01-05,홍길동,개발팀,사원,hong@example.com,42,하,중,상\n"
			sets, err := r.Read(context.Background(), strings.NewReader(csv), 0)

			Convey("Then the identity and answers come through", func() {
				So(err, ShouldBeNil)
				So(rep.collected(), ShouldBeEmpty)
				So(sets, ShouldHaveLength, 1)

				set := sets[0]
				So(set.Week, ShouldEqual, 0)
				So(set.Identity.ParticipantID, ShouldEqual, "홍길동_개발팀")
				So(set.Identity.Role, ShouldEqual, "사원")
				So(set.Identity.Email, ShouldEqual, "hong@example.com")
				So(set.Items["custom"]["Q1"], ShouldEqual, 1)
				So(set.Items["custom"]["Q2"], ShouldEqual, 3)
				So(set.Items["custom"]["Q3"], ShouldEqual, 5)
			})

			Convey("And the phone digits are zero-padded", func() {
				So(err, ShouldBeNil)
				So(sets[0].Identity.Phone, ShouldEqual, "0042")
			})
		})

		Convey("When a name arrives in decomposed Hangul", func() {
			csv := firstRoundHeader +
				"2026-01-05,한,개발팀,사원,h@example.com,1234,하,중,상\n"
			sets, err := r.Read(context.Background(), strings.NewReader(csv), 0)

			Convey("Then NFC normalization makes it match the composed form", func() {
				So(err, ShouldBeNil)
				So(sets[0].Identity.Name, ShouldEqual, "한")
				So(sets[0].Identity.ParticipantID, ShouldEqual, "한_개발팀")
			})
		})

		Convey("When an answer cell is empty", func() {
			csv := firstRoundHeader +
				"2026-01-05,홍길동,개발팀,사원,h@example.com,1234,하,,상\n"
			sets, err := r.Read(context.Background(), strings.NewReader(csv), 0)

			Convey("Then the item is absent, never zero", func() {
				So(err, ShouldBeNil)
				So(rep.collected(), ShouldBeEmpty)
				So(sets[0].Items["custom"], ShouldNotContainKey, "Q2")
				So(sets[0].Items["custom"], ShouldHaveLength, 2)
			})
		})

		Convey("When an answer label has no mapping", func() {
			csv := firstRoundHeader +
				"2026-01-05,홍길동,개발팀,사원,h@example.com,1234,모름,중,상\n"
			sets, err := r.Read(context.Background(), strings.NewReader(csv), 0)

			Convey("Then the item is dropped and reported", func() {
				So(err, ShouldBeNil)
				findings := rep.collected()
				So(findings, ShouldHaveLength, 1)
				So(errors.Is(findings[0], ingest.ErrUnknownAnswer), ShouldBeTrue)
				So(sets[0].Items["custom"], ShouldNotContainKey, "Q1")
			})
		})

		Convey("When an answer is already numeric", func() {
			csv := firstRoundHeader +
				"2026-01-05,홍길동,개발팀,사원,h@example.com,1234,4,중,상\n"
			sets, err := r.Read(context.Background(), strings.NewReader(csv), 0)

			Convey("Then it passes through as-is", func() {
				So(err, ShouldBeNil)
				So(sets[0].Items["custom"]["Q1"], ShouldEqual, 4)
			})
		})

		Convey("When a row ends before the item block", func() {
			csv := firstRoundHeader +
				"2026-01-05,홍길동,개발팀,사원,h@example.com,1234,하\n"
			sets, err := r.Read(context.Background(), strings.NewReader(csv), 0)

			Convey("Then the gap is reported and the row keeps what it has", func() {
				So(err, ShouldBeNil)
				findings := rep.collected()
				So(findings, ShouldHaveLength, 1)
				So(errors.Is(findings[0], ingest.ErrMalformedRow), ShouldBeTrue)
				So(sets, ShouldHaveLength, 1)
				So(sets[0].Items, ShouldBeEmpty)
			})
		})

		Convey("When a row has no name", func() {
			csv := firstRoundHeader +
				"2026-01-05,,개발팀,사원,h@example.com,1234,하,중,상\n"
			sets, err := r.Read(context.Background(), strings.NewReader(csv), 0)

			Convey("Then the row is dropped and reported", func() {
				So(err, ShouldBeNil)
				So(sets, ShouldBeEmpty)
				findings := rep.collected()
				So(findings, ShouldHaveLength, 1)
				So(errors.Is(findings[0], ingest.ErrMalformedRow), ShouldBeTrue)
			})
		})

		Convey("When the header lacks the name column", func() {
			csv := "타임스탬프,휴대폰 번호 뒷자리 (4자리),Q1,Q2,Q3\n"
			_, err := r.Read(context.Background(), strings.NewReader(csv), 0)

			Convey("Then the whole file is rejected", func() {
				So(errors.Is(err, ingest.ErrBadHeader), ShouldBeTrue)
			})
		})
	})
}

func TestReadLaterRound(t *testing.T) {
	Convey("Given a resolver seeded by the week 0 round", t, func() {
		rep := &recordingReporter{}
		resolver := ingest.NewResolver()
		r := ingest.New(
			ingest.WithRegistry(testRegistry()),
			ingest.WithReporter(rep),
			ingest.WithResolver(resolver),
		)

		week0 := firstRoundHeader +
			"2026-01-05,홍길동,개발팀,사원,hong@example.com,0042,하,중,상\n"
		_, err := r.Read(context.Background(), strings.NewReader(week0), 0)
		So(err, ShouldBeNil)

		Convey("When week 2 drops the team and role columns", func() {
			week2 := laterRoundHeader +
				"2026-01-19,홍길동,42,중,중,중\n"
			sets, err := r.Read(context.Background(), strings.NewReader(week2), 2)

			Convey("Then the row resolves to the registered participant", func() {
				So(err, ShouldBeNil)
				So(sets, ShouldHaveLength, 1)
				So(sets[0].Identity.ParticipantID, ShouldEqual, "홍길동_개발팀")
				So(sets[0].Identity.Team, ShouldEqual, "개발팀")
				So(sets[0].Week, ShouldEqual, 2)
			})
		})

		Convey("When a week 2 respondent was never seen before", func() {
			week2 := laterRoundHeader +
				"2026-01-19,신입,7777,하,하,하\n"
			sets, err := r.Read(context.Background(), strings.NewReader(week2), 2)

			Convey("Then they are tracked with an unknown team", func() {
				So(err, ShouldBeNil)
				So(sets[0].Identity.ParticipantID, ShouldEqual, "신입_Unknown")
			})
		})
	})
}

func TestDuplicateDetection(t *testing.T) {
	Convey("Given one participant submitting twice in a round", t, func() {
		rep := &recordingReporter{}
		r := newReader(rep)

		csv := firstRoundHeader +
			"2026-01-05,홍길동,개발팀,사원,h@example.com,1234,하,중,상\n" +
			"2026-01-05,홍길동,개발팀,사원,h@example.com,1234,상,중,하\n"
		sets, err := r.Read(context.Background(), strings.NewReader(csv), 0)

		Convey("Then both rows parse and every repeat is reported", func() {
			So(err, ShouldBeNil)
			So(sets, ShouldHaveLength, 2)

			findings := rep.collected()
			So(findings, ShouldHaveLength, 3)
			for _, finding := range findings {
				So(errors.Is(finding, ingest.ErrDuplicateAnswer), ShouldBeTrue)
			}
		})

		Convey("And the later submission carries its own values", func() {
			So(err, ShouldBeNil)
			So(sets[1].Items["custom"]["Q1"], ShouldEqual, 5)
		})
	})
}

func TestStressSkippedOffFullRounds(t *testing.T) {
	Convey("Given the built-in instruments", t, func() {
		rep := &recordingReporter{}
		r := ingest.New(ingest.WithReporter(rep))

		Convey("When reading a week 2 file", func() {
			// Week 2 carries only the two BAT blocks: 23 + 10 items.
			row := []string{"2026-01-19", "홍길동", "1234"}
			for i := 0; i < 33; i++ {
				row = append(row, "가끔 있다")
			}
			header := []string{"타임스탬프", "성명", "휴대폰 번호 뒷자리 (4자리)"}
			for i := 0; i < 33; i++ {
				header = append(header, "문항")
			}
			csv := strings.Join(header, ",") + "\n" + strings.Join(row, ",") + "\n"

			sets, err := r.Read(context.Background(), strings.NewReader(csv), 2)

			Convey("Then stress and emotional labor are not expected", func() {
				So(err, ShouldBeNil)
				So(rep.collected(), ShouldBeEmpty)
				So(sets, ShouldHaveLength, 1)
				So(sets[0].Items, ShouldContainKey, model.BATPrimary)
				So(sets[0].Items, ShouldContainKey, model.BATSecondary)
				So(sets[0].Items, ShouldNotContainKey, model.Stress)
				So(sets[0].Items, ShouldNotContainKey, model.EmotionalLabor)
			})
		})
	})
}
