package schema

import (
	"strconv"

	"github.com/maumcare/pulse/internal/domain/model"
)

// Likert answer labels used by the spreadsheet exports.
var (
	frequencyScores = map[string]float64{
		"전혀 없다": 1, "거의 없다": 2, "가끔 있다": 3, "자주 있다": 4, "항상 있다": 5,
	}
	agreementScores = map[string]float64{
		"전혀 그렇지 않다": 1, "그렇지 않다": 2, "그렇다": 3, "매우 그렇다": 4,
	}
)

// Default returns a registry holding the four study questionnaires.
// Item ids follow the spreadsheet column order (Q1, Q2, ...).
func Default() *Registry {
	r, err := NewRegistry(DefaultInstruments()...)
	if err != nil {
		// The built-in definitions are constants; a failure here is a bug.
		panic(err)
	}
	return r
}

// DefaultInstruments returns the built-in instrument definitions.
func DefaultInstruments() []Instrument {
	return []Instrument{
		{
			Name:         model.BATPrimary,
			MinValue:     1,
			MaxValue:     5,
			Method:       MethodMean,
			AnswerScores: frequencyScores,
			Categories: []Category{{
				Name: string(model.BATPrimary),
				Types: []Type{
					{Name: "탈진", Items: seqItems(1, 8)},
					{Name: "심적 거리", Items: seqItems(9, 13)},
					{Name: "인지적 조절", Items: seqItems(14, 18)},
					{Name: "정서적 조절", Items: seqItems(19, 23)},
				},
			}},
		},
		{
			Name:         model.BATSecondary,
			MinValue:     1,
			MaxValue:     5,
			Method:       MethodMean,
			AnswerScores: frequencyScores,
			Categories: []Category{{
				Name: string(model.BATSecondary),
				Types: []Type{
					{Name: "심리적 호소", Items: seqItems(1, 5)},
					{Name: "신체적 호소", Items: seqItems(6, 10)},
				},
			}},
		},
		{
			Name:         model.EmotionalLabor,
			MinValue:     1,
			MaxValue:     4,
			Method:       MethodScaled,
			AnswerScores: agreementScores,
			Categories: []Category{{
				Name: string(model.EmotionalLabor),
				Types: []Type{
					{Name: "감정조절의 노력 및 다양성", Items: seqItems(1, 5)},
					{Name: "고객응대의 과부하 및 갈등", Items: seqItems(6, 8)},
					{Name: "감정부조화 및 손상", Items: seqItems(9, 14)},
					{Name: "조직의 감시 및 모니터링", Items: seqItems(15, 17)},
					{Name: "조직의 지지 및 보호체계", Items: seqItems(18, 24)},
				},
			}},
		},
		{
			Name:         model.Stress,
			MinValue:     1,
			MaxValue:     4,
			Method:       MethodScaled,
			AnswerScores: agreementScores,
			Categories: []Category{{
				Name: string(model.Stress),
				Types: []Type{
					{Name: "직무 요구", Items: seqItems(1, 4)},
					{Name: "직무 자율", Items: seqItems(5, 8)},
					{Name: "관계 갈등", Items: seqItems(9, 11)},
					{Name: "직무 불안", Items: seqItems(12, 13)},
					{Name: "조직 체계", Items: seqItems(14, 17)},
					{Name: "보상 부적절", Items: seqItems(18, 20)},
					{Name: "직장 문화", Items: seqItems(21, 24)},
				},
			}},
		},
	}
}

// seqItems builds ["Qfrom", ..., "Qto"], inclusive.
func seqItems(from, to int) []string {
	items := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		items = append(items, "Q"+strconv.Itoa(i))
	}
	return items
}
