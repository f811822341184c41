package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/Freeeeeet/lesson_slots/internal/app"
	"github.com/Freeeeeet/lesson_slots/internal/config"
	"github.com/Freeeeeet/lesson_slots/internal/controller/render"
	"github.com/Freeeeeet/lesson_slots/internal/export"
	"github.com/Freeeeeet/lesson_slots/internal/notify"
	"github.com/Freeeeeet/lesson_slots/internal/service"
	"github.com/Freeeeeet/lesson_slots/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// weekreport сохраняет неделю тренера картинкой и таблицей xlsx
func main() {
	coachFlag := flag.String("coach", "", "coach UUID")
	dayFlag := flag.String("day", "", "any day of the week, YYYY-MM-DD (default: today)")
	outFlag := flag.String("out", ".", "output directory")
	flag.Parse()

	if err := run(*coachFlag, *dayFlag, *outFlag); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run(coachRaw, dayRaw, outDir string) error {
	coachID, err := uuid.Parse(coachRaw)
	if err != nil {
		return fmt.Errorf("-coach must be a UUID: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	day := time.Now().In(cfg.DisplayTZ)
	if dayRaw != "" {
		if day, err = time.ParseInLocation(time.DateOnly, dayRaw, cfg.DisplayTZ); err != nil {
			return fmt.Errorf("-day: %w", err)
		}
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	st, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	coach, err := service.NewCoachService(st.Coaches, logger).Get(ctx, coachID)
	if err != nil {
		return err
	}

	publisher := service.NewSlotPublisher(st.Slots, st.Clients, st.Coaches, notify.NewLogDispatcher(logger), cfg.PublicBaseURL, cfg.DisplayTZ, logger)
	weekStart, slots, err := publisher.WeekSlots(ctx, coachID, day)
	if err != nil {
		return err
	}

	img, err := render.WeekImage(weekStart, cfg.DisplayTZ, slots, time.Now())
	if err != nil {
		return err
	}
	xlsx, err := export.WeekSchedule(coach.Name, weekStart, cfg.DisplayTZ, slots)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	pngPath := filepath.Join(outDir, fmt.Sprintf("week_%s.png", weekStart.Format(time.DateOnly)))
	if err := os.WriteFile(pngPath, img, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	xlsxPath := filepath.Join(outDir, export.FileName(weekStart))
	if err := os.WriteFile(xlsxPath, xlsx, 0o644); err != nil {
		return fmt.Errorf("write schedule: %w", err)
	}

	logger.Info("✅ Week report saved",
		zap.String("coach", coach.Name),
		zap.Int("slots", len(slots)),
		zap.String("image", pngPath),
		zap.String("schedule", xlsxPath),
	)
	return nil
}
