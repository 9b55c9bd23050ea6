package threshold

import (
	"github.com/maumcare/pulse/internal/domain/model"
)

// Default returns the cutoff values used by the study.
//
// Burnout cutoffs come from the BAT manual and carry a
// [normal-borderline, borderline-risk] pair. Emotional-labor subscales use a
// single risk boundary per type, and the occupational stress cutoffs differ
// by gender.
func Default() Set {
	bat := string(model.BATPrimary)
	batSecondary := string(model.BATSecondary)
	labor := string(model.EmotionalLabor)
	stress := string(model.Stress)

	return Set{
		Categories: map[string]Thresholds{
			bat:          {Female: Cutoffs{2.58, 3.01}},
			batSecondary: {Female: Cutoffs{2.84, 3.34}},
			stress: {
				Female: Cutoffs{50.0, 55.6},
				Male:   Cutoffs{48.4, 54.7},
			},
		},
		Types: map[string]map[string]Thresholds{
			bat: {
				"탈진":     {Female: Cutoffs{3.05, 3.30}},
				"심적 거리":  {Female: Cutoffs{2.09, 3.29}},
				"인지적 조절": {Female: Cutoffs{2.69, 3.09}},
				"정서적 조절": {Female: Cutoffs{2.29, 2.89}},
			},
			labor: {
				"감정조절의 노력 및 다양성": {Female: Cutoffs{76.66}, Male: Cutoffs{83.32}},
				"고객응대의 과부하 및 갈등": {Female: Cutoffs{72.21}, Male: Cutoffs{83.32}},
				"감정부조화 및 손상":      {Female: Cutoffs{63.88}, Male: Cutoffs{69.43}},
				"조직의 감시 및 모니터링":   {Female: Cutoffs{49.99}, Male: Cutoffs{61.10}},
				"조직의 지지 및 보호체계":   {Female: Cutoffs{45.23}, Male: Cutoffs{49.99}},
			},
			stress: {
				"직무 요구":  {Female: Cutoffs{58.3, 66.6}, Male: Cutoffs{50.0, 58.3}},
				"직무 자율":  {Female: Cutoffs{58.3, 60.0}, Male: Cutoffs{50.0, 66.6}},
				"관계 갈등":  {Female: Cutoffs{33.3, 44.4}, Male: Cutoffs{33.3, 44.4}},
				"직무 불안":  {Female: Cutoffs{33.3, 50.0}, Male: Cutoffs{50.0, 66.6}},
				"조직 체계":  {Female: Cutoffs{50.0, 66.6}, Male: Cutoffs{50.0, 66.6}},
				"보상 부적절": {Female: Cutoffs{55.5, 66.6}, Male: Cutoffs{55.5, 66.6}},
				"직장 문화":  {Female: Cutoffs{41.6, 50.0}, Male: Cutoffs{41.6, 50.0}},
			},
		},
	}
}
