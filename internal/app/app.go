package app

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	slackapi "github.com/slack-go/slack"

	"pulsebot/internal/config"
	"pulsebot/internal/httpx"
	"pulsebot/internal/storage/sqlite"
)

func Main() {
	cfg := config.LoadConfig()
	appliedHTTPTimeout := httpx.ConfigureExternalHTTPClient(cfg.ExternalHTTPTimeoutSeconds)
	log.Printf(
		"Config loaded. Product=%s MaxThemes=%d BatchSize=%d SampleSize=%d TopThemes=%d Actions=%d Weeks=%d Timezone=%s ExternalHTTPTimeout=%s",
		cfg.ProductName,
		cfg.MaxThemes,
		cfg.LLMBatchSize,
		cfg.DiscoverySample,
		cfg.TopThemeCount,
		cfg.ActionCount,
		cfg.WeeksToAnalyze,
		cfg.Timezone,
		appliedHTTPTimeout,
	)

	db, err := sqlite.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	defer db.Close()

	if err := os.MkdirAll(cfg.PulseOutputDir, 0755); err != nil {
		log.Fatalf("Failed to create pulse output dir '%s': %v", cfg.PulseOutputDir, err)
	}

	var api *slackapi.Client
	if cfg.SlackBotToken != "" {
		api = slackapi.New(cfg.SlackBotToken)
	}

	runner := NewRunner(cfg, db, api)

	schedule := strings.TrimSpace(cfg.PulseSchedule)
	if schedule == "" {
		log.Println("No pulse_schedule set, running once")
		if err := runner.Run(); err != nil {
			log.Fatalf("Pulse run failed: %v", err)
		}
		return
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		log.Fatalf("Invalid pulse_schedule '%s': %v", schedule, err)
	}
	log.Printf("Pulse scheduled (cron: %s)", schedule)

	for {
		now := time.Now().In(cfg.Location)
		next := sched.Next(now)
		wait := next.Sub(now)
		log.Printf("Next pulse at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

		time.Sleep(wait)

		if err := runner.Run(); err != nil {
			log.Printf("Pulse run error: %v", err)
		}
	}
}
