// Package sampledata produces synthetic survey CSV exports for local
// end-to-end runs. The generated files follow the spreadsheet layout,
// including the reduced identity columns of later rounds.
package sampledata

import (
	"context"
	"crypto/rand"
	"encoding/csv"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/maumcare/pulse/internal/domain/model"
	"github.com/maumcare/pulse/internal/domain/schema"
	"github.com/maumcare/pulse/pkg/logger"
)

const (
	randomFloatDivisor = 1000000
	phoneDivisor       = 10000
)

// Config controls a generation run.
type Config struct {
	// Participants is the roster size.
	Participants int

	// Weeks are the survey rounds to generate, e.g. 0, 2, 4.
	Weeks []int

	// OutDir receives one "<week>주차.csv" file per round.
	OutDir string

	// MissingRate is the probability of an unanswered item, 0..1.
	MissingRate float64

	// DropoutRate is the per-round probability that a participant skips
	// the round entirely, 0..1. Rounds after the first only.
	DropoutRate float64
}

// Generator produces rosters and round CSVs.
type Generator struct {
	registry *schema.Registry

	logger logger.Logger
}

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithRegistry sets the instrument schema registry.
func WithRegistry(r *schema.Registry) Option {
	return func(g *Generator) {
		if r != nil {
			g.registry = r
		}
	}
}

// WithLogger sets a custom logger for the generator.
func WithLogger(l logger.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// New creates a generator with configuration options.
func New(opts ...Option) *Generator {
	g := &Generator{
		registry: schema.Default(),
		logger:   logger.Get().Named("sampledata"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Roster creates n synthetic participants spread over the sample teams.
func (g *Generator) Roster(n int) []model.Identity {
	teams := []string{"개발팀", "운영팀", "상담팀"}
	roles := []string{"사원", "주임", "대리", "과장"}
	genders := []model.Gender{model.GenderFemale, model.GenderMale}

	roster := make([]model.Identity, n)
	for i := range roster {
		name := fmt.Sprintf("참가자%02d", i+1)
		team := teams[i%len(teams)]
		phone, _ := rand.Int(rand.Reader, big.NewInt(phoneDivisor))
		roster[i] = model.Identity{
			ParticipantID: model.ParticipantID(name, team),
			Name:          name,
			Team:          team,
			Role:          roles[i%len(roles)],
			Gender:        genders[i%len(genders)],
			Email:         fmt.Sprintf("p%02d@example.com", i+1),
			Phone:         fmt.Sprintf("%04d", phone.Int64()),
		}
	}
	return roster
}

// WriteAll generates one CSV per configured week under cfg.OutDir.
func (g *Generator) WriteAll(ctx context.Context, cfg Config) error {
	if cfg.Participants < 1 {
		return fmt.Errorf("roster size must be positive, got %d", cfg.Participants)
	}
	if err := os.MkdirAll(cfg.OutDir, 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	roster := g.Roster(cfg.Participants)
	for i, week := range cfg.Weeks {
		path := filepath.Join(cfg.OutDir, model.WeekLabel(week)+".csv")
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create round file: %w", err)
		}

		round := roster
		if i > 0 {
			round = sampleRoster(roster, cfg.DropoutRate)
		}
		err = g.WriteRound(ctx, f, round, week, cfg.MissingRate)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("write week %d: %w", week, err)
		}

		g.logger.Info(ctx, "round generated",
			logger.Int("week", week),
			logger.Int("respondents", len(round)),
			logger.String("path", path),
		)
	}
	return nil
}

// WriteRound writes one round's CSV. Rounds from week 2 on drop the team,
// role and email columns, matching the live spreadsheet exports.
func (g *Generator) WriteRound(ctx context.Context, w io.Writer, roster []model.Identity, week int, missingRate float64) error {
	cw := csv.NewWriter(w)
	laterRound := week >= 2

	instruments := g.instrumentsFor(week)
	header := identityHeader(laterRound)
	for _, name := range instruments {
		for i := 0; i < g.registry.ItemCount(name); i++ {
			header = append(header, fmt.Sprintf("%s Q%d", name, i+1))
		}
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, identity := range roster {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		record := identityRecord(identity, laterRound)
		for _, name := range instruments {
			def, err := g.registry.Instrument(name)
			if err != nil {
				return err
			}
			labels := sortedLabels(def.AnswerScores)
			for i := 0; i < g.registry.ItemCount(name); i++ {
				if randomFloat() < missingRate {
					record = append(record, "")
					continue
				}
				record = append(record, pickLabel(labels))
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func (g *Generator) instrumentsFor(week int) []model.Instrument {
	names := g.registry.Names()
	if model.IsFullRound(week) {
		return names
	}
	out := names[:0:0]
	for _, name := range names {
		if name == model.Stress || name == model.EmotionalLabor {
			continue
		}
		out = append(out, name)
	}
	return out
}

func identityHeader(laterRound bool) []string {
	if laterRound {
		return []string{"타임스탬프", "성명", "휴대폰 번호 뒷자리 (4자리)"}
	}
	return []string{
		"타임스탬프",
		"성명",
		"소속",
		"직무",
		"설문 결과 전송을 위한 이메일 주소 (오타 주의)",
		"휴대폰 번호 뒷자리 (4자리)",
	}
}

func identityRecord(identity model.Identity, laterRound bool) []string {
	ts := time.Now().UTC().Format(time.RFC3339)
	if laterRound {
		return []string{ts, identity.Name, identity.Phone}
	}
	return []string{ts, identity.Name, identity.Team, identity.Role, identity.Email, identity.Phone}
}

// sampleRoster keeps each participant with probability 1-dropoutRate.
func sampleRoster(roster []model.Identity, dropoutRate float64) []model.Identity {
	if dropoutRate <= 0 {
		return roster
	}
	kept := make([]model.Identity, 0, len(roster))
	for _, identity := range roster {
		if randomFloat() >= dropoutRate {
			kept = append(kept, identity)
		}
	}
	if len(kept) == 0 {
		// A round with zero respondents never happens in practice.
		kept = roster[:1]
	}
	return kept
}

func sortedLabels(scores map[string]float64) []string {
	labels := make([]string, 0, len(scores))
	for label := range scores {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

func pickLabel(labels []string) string {
	if len(labels) == 0 {
		// Instruments without label mappings take numeric answers.
		return strconv.Itoa(1 + int(randomFloat()*4))
	}
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(labels))))
	return labels[n.Int64()]
}

// randomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func randomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}
