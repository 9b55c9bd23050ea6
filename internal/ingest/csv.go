// Package ingest turns spreadsheet CSV exports into response sets. One CSV
// file holds one survey round; each row is one participant's full
// submission for that week.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/maumcare/pulse/internal/domain/dedupe"
	"github.com/maumcare/pulse/internal/domain/model"
	"github.com/maumcare/pulse/internal/domain/schema"
	"github.com/maumcare/pulse/pkg/logger"
)

// Identity column headers as exported by the survey spreadsheet.
const (
	headerName   = "성명"
	headerTeam   = "소속"
	headerRole   = "직무"
	headerGender = "성별"
	headerPhone  = "휴대폰 번호 뒷자리 (4자리)"
	headerEmail  = "이메일" // matched as a substring; the real header is verbose
)

// Item block offsets. Rounds from week 2 on drop the team, role and email
// columns, so their item block starts earlier.
const (
	itemStartFirstRounds = 6
	itemStartLaterRounds = 3
)

const phoneDigits = 4

// Reporter collects per-record ingestion anomalies.
type Reporter interface {
	AddError(participantID string, week int, err error)
}

// Reader parses survey CSV exports.
type Reader struct {
	registry *schema.Registry
	tracker  dedupe.Tracker
	resolver *Resolver
	reporter Reporter

	logger logger.Logger
}

// New creates a reader with configuration options.
func New(opts ...Option) *Reader {
	r := &Reader{
		registry: schema.Default(),
		tracker:  dedupe.NewInMemoryTracker(),
		resolver: NewResolver(),
		reporter: discardReporter{},
		logger:   logger.Get().Named("ingest"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// ReadFile parses one round's CSV file into response sets.
func (r *Reader) ReadFile(ctx context.Context, path string, week int) ([]model.ResponseSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open survey csv: %w", err)
	}
	defer f.Close()
	return r.Read(ctx, f, week)
}

// Read parses one round's CSV stream into response sets. Record-level
// problems go to the reporter and never abort the round; only an unreadable
// header does.
func (r *Reader) Read(ctx context.Context, src io.Reader, week int) ([]model.ResponseSet, error) {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read survey header: %w", err)
	}
	layout, err := resolveLayout(header, week)
	if err != nil {
		return nil, err
	}

	var sets []model.ResponseSet
	for row := 2; ; row++ {
		select {
		case <-ctx.Done():
			return sets, ctx.Err()
		default:
		}

		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			r.reporter.AddError("", week, fmt.Errorf("%w: row %d: %v", ErrMalformedRow, row, err))
			continue
		}

		set, ok := r.parseRow(ctx, layout, record, week, row)
		if !ok {
			continue
		}
		sets = append(sets, set)
	}

	r.logger.Info(ctx, "round ingested",
		logger.Int("week", week),
		logger.Int("participants", len(sets)),
	)
	return sets, nil
}

func (r *Reader) parseRow(ctx context.Context, layout rowLayout, record []string, week, row int) (model.ResponseSet, bool) {
	identity, ok := r.identityOf(layout, record, week, row)
	if !ok {
		return model.ResponseSet{}, false
	}

	set := model.ResponseSet{Identity: identity, Week: week}
	col := layout.itemStart
	for _, name := range r.instrumentsFor(week) {
		def, err := r.registry.Instrument(name)
		if err != nil {
			r.reporter.AddError(identity.ParticipantID, week, err)
			continue
		}
		count := r.registry.ItemCount(name)
		if col+count > len(record) {
			r.reporter.AddError(identity.ParticipantID, week,
				fmt.Errorf("%w: row %d ends before the %s block (%d columns short)",
					ErrMalformedRow, row, name, col+count-len(record)))
			break
		}
		for i := 0; i < count; i++ {
			itemID := "Q" + strconv.Itoa(i+1)
			r.parseAnswer(ctx, &set, def, itemID, record[col+i])
		}
		col += count
	}
	return set, true
}

// parseAnswer converts one cell into a raw answer. An empty cell is a
// missing answer and leaves the item absent; it never becomes a zero.
func (r *Reader) parseAnswer(ctx context.Context, set *model.ResponseSet, def schema.Instrument, itemID, cell string) {
	label := clean(cell)
	if label == "" {
		return
	}

	value, ok := def.AnswerScores[label]
	if !ok {
		parsed, err := strconv.ParseFloat(label, 64)
		if err != nil {
			r.reporter.AddError(set.Identity.ParticipantID, set.Week,
				&UnknownAnswerError{Instrument: string(def.Name), ItemID: itemID, Label: label})
			return
		}
		value = parsed
	}

	key := dedupe.Key{
		ParticipantID: set.Identity.ParticipantID,
		Week:          set.Week,
		Instrument:    def.Name,
		ItemID:        itemID,
	}
	if r.tracker.SeenAndRecord(ctx, key) {
		r.reporter.AddError(set.Identity.ParticipantID, set.Week,
			fmt.Errorf("%w: %s", ErrDuplicateAnswer, key))
	}
	set.Add(def.Name, itemID, value)
}

func (r *Reader) identityOf(layout rowLayout, record []string, week, row int) (model.Identity, bool) {
	name := clean(field(record, layout.name))
	if name == "" {
		r.reporter.AddError("", week, fmt.Errorf("%w: row %d has no participant name", ErrMalformedRow, row))
		return model.Identity{}, false
	}

	partial := model.Identity{
		Name:  name,
		Phone: padPhone(field(record, layout.phone)),
	}
	if !layout.laterRound {
		partial.Team = clean(field(record, layout.team))
		partial.Role = clean(field(record, layout.role))
		partial.Email = clean(field(record, layout.email))
		partial.Gender = parseGender(field(record, layout.gender))
		partial.ParticipantID = model.ParticipantID(partial.Name, partial.Team)
		r.resolver.Register(partial)
		return partial, true
	}

	identity, matched := r.resolver.Resolve(partial)
	if !matched {
		r.resolver.Register(identity)
	}
	return identity, true
}

// instrumentsFor returns the instruments administered on week, in column
// order. The stress and emotional-labor questionnaires only appear on full
// rounds.
func (r *Reader) instrumentsFor(week int) []model.Instrument {
	names := r.registry.Names()
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

// rowLayout holds the column indices resolved from one file's header.
// Identity columns are found by name; item blocks are positional.
type rowLayout struct {
	laterRound bool
	itemStart  int

	name   int
	team   int
	role   int
	gender int
	phone  int
	email  int
}

func resolveLayout(header []string, week int) (rowLayout, error) {
	layout := rowLayout{
		laterRound: week >= 2,
		itemStart:  itemStartFirstRounds,
		name:       -1,
		team:       -1,
		role:       -1,
		gender:     -1,
		phone:      -1,
		email:      -1,
	}
	if layout.laterRound {
		layout.itemStart = itemStartLaterRounds
	}

	for i, h := range header {
		switch clean(h) {
		case headerName:
			layout.name = i
		case headerTeam:
			layout.team = i
		case headerRole:
			layout.role = i
		case headerGender:
			layout.gender = i
		case headerPhone:
			layout.phone = i
		default:
			if strings.Contains(h, headerEmail) {
				layout.email = i
			}
		}
	}

	if layout.name < 0 {
		return layout, fmt.Errorf("%w: no %q column", ErrBadHeader, headerName)
	}
	return layout, nil
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}

// clean trims a cell and normalizes it to NFC. Spreadsheet exports mix
// composed and decomposed Hangul, which would otherwise split participants.
func clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// padPhone left-pads the digit suffix to 4, restoring zeros the spreadsheet
// stripped.
func padPhone(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for len(s) < phoneDigits {
		s = "0" + s
	}
	return s
}

func parseGender(s string) model.Gender {
	switch clean(s) {
	case string(model.GenderFemale):
		return model.GenderFemale
	case string(model.GenderMale):
		return model.GenderMale
	default:
		return model.GenderUnknown
	}
}

type discardReporter struct{}

func (discardReporter) AddError(string, int, error) {}
