package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go-jobpilot-automation/internal/ai"
	"go-jobpilot-automation/internal/apply"
	"go-jobpilot-automation/internal/cache"
	"go-jobpilot-automation/internal/config"
	"go-jobpilot-automation/internal/driver"
	"go-jobpilot-automation/internal/filter"
	"go-jobpilot-automation/internal/ledger"
	"go-jobpilot-automation/internal/loader"
	"go-jobpilot-automation/internal/pacing"
	"go-jobpilot-automation/internal/pipeline"
	"go-jobpilot-automation/internal/reporter"
	"go-jobpilot-automation/internal/scheduler"
	"go-jobpilot-automation/internal/site/boss"
	"go-jobpilot-automation/internal/stability"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	//load config
	cfg := config.Load(*configPath)
	log.Printf("🔧 Config loaded. Keywords: %v, Cities: %v", cfg.Keywords, cfg.CityCodes)

	//init telegram reporter (optional, best effort)
	var tg *reporter.TelegramReporter
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		r, err := reporter.NewTelegramReporter(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Printf("⚠️ Telegram reporter disabled: %v", err)
		} else {
			tg = r
			log.Println("🤖 Telegram reporter initialized.")
		}
	}

	//operator cancellation: checked between postings and loader iterations
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//init submission ledger
	var led ledger.Ledger
	var err error
	switch cfg.LedgerBackend {
	case "postgres":
		led, err = ledger.NewPostgresLedger(ctx, cfg.PostgresURL)
	default:
		led, err = ledger.NewFileLedger(cfg.LedgerPath)
	}
	if err != nil {
		log.Fatalf("❌ Failed to open submission ledger: %v", err)
	}
	defer led.Close()

	//optional listing snapshot cache
	var snapshots *cache.Cache
	if cfg.RedisURL != "" {
		c, err := cache.New(cfg.RedisURL, time.Duration(cfg.CacheTTLHours)*time.Hour)
		if err != nil {
			log.Printf("⚠️ Snapshot cache disabled: %v", err)
		} else {
			snapshots = c
			defer c.Close()
		}
	}

	//load login cookies
	cookies, err := driver.LoadCookies(filepath.Join(cfg.CookiesPath, "cookies-boss.json"))
	if err != nil {
		log.Printf("⚠️ Could not load cookies: %v. Continuing.", err)
	} else {
		log.Printf("🍪 Loaded %d cookies", len(cookies))
	}

	//init playwright
	pm, err := driver.NewPlaywright(cfg.Headless, cookies)
	if err != nil {
		log.Fatalf("❌ Failed to init Playwright: %v", err)
	}
	defer pm.Close()

	sess, err := pm.NewSession()
	if err != nil {
		log.Fatalf("❌ Failed to create browser session: %v", err)
	}
	defer sess.Close()
	log.Println("✅ Browser initialized successfully!")

	//compose the pipeline
	adapter := boss.New(cfg.DeadStatus)
	rate := pacing.NewController(cfg.DailyCap, cfg.MaxConsecutiveFailures, cfg.DelayMinSeconds, cfg.DelayMaxSeconds)

	var classifier ai.Client
	if cfg.EnableAI {
		classifier = ai.NewOpenAIClient(cfg.AIAPIKey, cfg.AIModel, cfg.AIBaseURL)
	}

	machine := apply.NewMachine(adapter, led, rate, classifier, apply.Options{
		DefaultGreeting:   cfg.SayHi,
		Introduction:      cfg.Introduction,
		EnableAI:          cfg.EnableAI,
		StrictAIFilter:    cfg.StrictAIFilter,
		RecordFailedSends: cfg.RecordFailedSends,
		FilterDeadHR:      cfg.FilterDeadHR,
		SendResumeImage:   cfg.SendImgResume,
		ResumeImagePath:   cfg.ResumeImagePath,
	})

	p := pipeline.New(pipeline.Deps{
		Config:   cfg,
		Adapter:  adapter,
		Session:  sess,
		Machine:  machine,
		Rate:     rate,
		Filter:   filter.NewEngine(cfg.Blacklist.Companies, cfg.Blacklist.Recruiters, cfg.Blacklist.Jobs, filter.BandFromSlice(cfg.ExpectedSalary)),
		Detector: stability.NewDetector(adapter.IsChallenge),
		Loader:   loader.New(),
		Cache:    snapshots,
	})

	runOnce := func() {
		summary, err := p.Run(ctx)
		if err != nil {
			log.Printf("🛑 Run ended early: %v", err)
			if tg != nil {
				if sendErr := tg.SendError(err); sendErr != nil {
					log.Printf("⚠️ Failed to send error to Telegram: %v", sendErr)
				}
			}
		}

		log.Printf("🏁 Run %s: sent %d, filtered %d, elapsed %s",
			summary.RunID, len(summary.Contacted), summary.Filtered, summary.Elapsed.Round(time.Second))
		saveSummary(summary)

		if tg != nil {
			if err := tg.SendSummary(summary); err != nil {
				log.Printf("⚠️ Failed to send summary to Telegram: %v", err)
			}
		}
	}

	if cfg.Schedule != "" {
		sched := scheduler.New(cfg.Schedule, runOnce)
		if err := sched.Start(); err != nil {
			log.Fatalf("❌ Failed to start scheduler: %v", err)
		}
		<-ctx.Done()
		sched.Stop()
		return
	}

	runOnce()
}

// saveSummary writes the run result under logs/ for later inspection.
func saveSummary(s *pipeline.Summary) {
	logDir := "logs"
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Printf("⚠️ Failed to create logs directory: %v", err)
		return
	}

	//gen filename: run-YYYY-MM-DD_HH-MM-SS.json
	filename := fmt.Sprintf("run-%s.json", s.StartedAt.Format("2006-01-02_15-04-05"))
	filePath := filepath.Join(logDir, filename)

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		log.Printf("⚠️ Failed to marshal run summary: %v", err)
		return
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		log.Printf("⚠️ Failed to write run summary: %v", err)
		return
	}

	log.Printf("📁 Run summary saved to %s", filePath)
}
