package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/maumcare/pulse/internal/domain/model"
	"github.com/maumcare/pulse/internal/sampledata"
	"github.com/maumcare/pulse/pkg/logger"
)

// Default configuration constants.
const (
	defaultParticipants = 30
	defaultMissingRate  = 0.02
	defaultDropoutRate  = 0.1
)

func main() {
	var (
		participants = flag.Int("participants", defaultParticipants, "Roster size")
		weeksFlag    = flag.String("weeks", "", "Comma-separated weeks to generate (default: the full biweekly study)")
		outDir       = flag.String("out", "data/csv", "Output directory for the round CSVs")
		missingRate  = flag.Float64("missing", defaultMissingRate, "Probability of an unanswered item")
		dropoutRate  = flag.Float64("dropout", defaultDropoutRate, "Per-round probability of a participant skipping")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	weeks, err := parseWeeks(*weeksFlag)
	if err != nil {
		logger.Get().Error(ctx, "invalid weeks flag", logger.Error(err))
		os.Exit(1)
	}

	gen := sampledata.New()
	err = gen.WriteAll(ctx, sampledata.Config{
		Participants: *participants,
		Weeks:        weeks,
		OutDir:       *outDir,
		MissingRate:  *missingRate,
		DropoutRate:  *dropoutRate,
	})
	if err != nil {
		logger.Get().Error(ctx, "generation failed", logger.Error(err))
		os.Exit(1)
	}

	logger.Get().Info(ctx, "sample data written",
		logger.String("dir", *outDir),
		logger.Int("participants", *participants),
		logger.Int("rounds", len(weeks)),
	)
}

func parseWeeks(s string) ([]int, error) {
	if s == "" {
		return model.StudyWeeks(), nil
	}
	var weeks []int
	for _, part := range strings.Split(s, ",") {
		week, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		weeks = append(weeks, week)
	}
	return weeks, nil
}
