package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	slackapi "github.com/slack-go/slack"

	"pulsebot/internal/config"
	"pulsebot/internal/domain"
	"pulsebot/internal/httpx"
	slackbot "pulsebot/internal/integrations/slack"
	"pulsebot/internal/llm"
	"pulsebot/internal/pulse"
	"pulsebot/internal/redact"
	"pulsebot/internal/report"
	"pulsebot/internal/storage/sqlite"
	"pulsebot/internal/themer"
)

// Runner executes one full analysis over the configured window: load corpus,
// redact, discover themes, classify, aggregate, select quotes, synthesize
// actions, assemble, persist, render, deliver. Stages run synchronously in
// that order.
type Runner struct {
	cfg    config.Config
	db     *sql.DB
	api    *slackapi.Client
	client *llm.Client
}

func NewRunner(cfg config.Config, db *sql.DB, api *slackapi.Client) *Runner {
	client := llm.NewClient(llm.Options{
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		Model:           cfg.LLMModel,
		HTTPClient:      httpx.ExternalHTTPClient(),
	})
	return &Runner{cfg: cfg, db: db, api: api, client: client}
}

func (r *Runner) Run() error {
	if !r.client.Configured() {
		return llm.ErrNotConfigured
	}
	ctx := context.Background()

	periodStart, periodEnd := domain.PeriodRange(time.Now(), r.cfg.WeeksToAnalyze)
	items, err := sqlite.ItemsSince(r.db, periodStart)
	if err != nil {
		return fmt.Errorf("loading feedback items: %w", err)
	}
	if len(items) == 0 {
		log.Printf("pulse run: no feedback items since %s, nothing to do", periodStart.Format("2006-01-02"))
		return nil
	}
	log.Printf("pulse run: %d feedback items since %s", len(items), periodStart.Format("2006-01-02"))

	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = redact.Text(item.Text)
	}

	th := themer.New(r.client, themer.Options{
		Product:    r.cfg.ProductName,
		MaxThemes:  r.cfg.MaxThemes,
		BatchSize:  r.cfg.LLMBatchSize,
		SampleSize: r.cfg.DiscoverySample,
	})

	themes := th.DiscoverThemes(ctx, texts)
	result := th.Classify(ctx, texts, themes)
	if result.DegradedBatches > 0 || result.FailedBatches > 0 {
		log.Printf("pulse run quality: batches=%d degraded=%d failed=%d", result.Batches, result.DegradedBatches, result.FailedBatches)
	}

	if updated, err := sqlite.UpdateClassifications(r.db, items, result.Records); err != nil {
		log.Printf("pulse run: classification write-back failed: %v", err)
	} else {
		log.Printf("pulse run: wrote back %d/%d classifications", updated, len(result.Records))
	}

	stats := themer.Aggregate(result.Records, items, themes)
	top := themer.TopThemes(stats, r.cfg.TopThemeCount)

	quotesByTheme := make(map[string][]domain.Quote, len(top))
	for _, stat := range top {
		quotesByTheme[stat.Name] = pulse.SelectQuotes(stat.Name, result.Records, items, pulse.DefaultQuoteLimit)
	}

	actions := pulse.SynthesizeActions(ctx, r.client, r.cfg.ProductName, top, quotesByTheme, r.cfg.ActionCount)

	summary := pulse.Assemble(result.Records, top, quotesByTheme, actions, periodStart, periodEnd)
	if err := sqlite.InsertSummary(r.db, summary); err != nil {
		log.Printf("pulse run: summary persistence failed: %v", err)
	}

	markdown := report.RenderMarkdown(r.cfg.ProductName, summary)
	if path, err := report.WritePulseFile(markdown, r.cfg.PulseOutputDir, summary.GeneratedAt); err != nil {
		log.Printf("pulse run: writing pulse file failed: %v", err)
	} else {
		log.Printf("pulse run: wrote %s", path)
	}
	subject := report.EmailSubject(r.cfg.ProductName, summary)
	if path, err := report.WriteEmailDraftFile(markdown, r.cfg.PulseOutputDir, subject, summary.GeneratedAt); err != nil {
		log.Printf("pulse run: writing email draft failed: %v", err)
	} else {
		log.Printf("pulse run: wrote %s", path)
	}

	if err := slackbot.PostPulse(r.api, r.cfg.PulseChannelID, markdown, summary); err != nil {
		log.Printf("pulse run: slack post failed: %v", err)
	}

	usage := r.client.Usage()
	log.Printf("pulse run complete: themes=%d issue_items=%d actions=%d tokens=%d", len(summary.ThemeStats), summary.IssueItems, len(summary.Actions), usage.TotalTokens())
	return nil
}
