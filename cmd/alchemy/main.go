package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/albot-dev/alchemy/app/api"
	"github.com/albot-dev/alchemy/app/cfg"
	"github.com/albot-dev/alchemy/app/collector"
	"github.com/albot-dev/alchemy/app/config"
	"github.com/albot-dev/alchemy/app/curator"
	"github.com/albot-dev/alchemy/app/database"
	"github.com/albot-dev/alchemy/app/digest"
	"github.com/albot-dev/alchemy/app/feedback"
	"github.com/albot-dev/alchemy/app/notion"
	"github.com/albot-dev/alchemy/app/slack"
	"github.com/albot-dev/alchemy/app/tasks"
)

const usage = "usage: alchemy [flags] <daily|weekend|weekly|server>"

func main() {
	c, rest, err := cfg.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if c == nil {
		// Help was requested.
		return
	}

	setupLogging(c.Debug)

	if len(rest) != 1 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	command := rest[0]

	slog.Info("Starting Alchemy", "version", c.Version, "command", command)

	app, err := buildApp(c)
	if err != nil {
		slog.Error("Startup failed", "error", err)
		os.Exit(1)
	}
	defer app.db.Close()

	switch command {
	case "daily":
		err = app.orchestrator.RunDaily(context.Background())
	case "weekend":
		err = app.orchestrator.RunWeekend(context.Background())
	case "weekly":
		err = app.orchestrator.RunWeekly(context.Background())
	case "server":
		err = runServer(c, app)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		slog.Error("Command failed", "command", command, "error", err)
		os.Exit(1)
	}
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// application bundles the wired components behind the subcommands.
type application struct {
	db           *database.DB
	orchestrator *digest.Orchestrator
	slackClient  *slack.Client
	ingester     *feedback.Ingester
}

func buildApp(c *cfg.Cfg) (*application, error) {
	reference, err := config.NewLoader(c.ConfigDir).Load()
	if err != nil {
		return nil, fmt.Errorf("load reference config: %w", err)
	}
	slog.Info("Reference configuration loaded",
		"axes", len(reference.Axes),
		"sources", len(reference.Sources),
		"keywords", len(reference.NewsKeywords))

	db, err := database.NewConnection(c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("Database ready", "path", c.DBPath, "migration_version", version, "dirty", dirty)

	cards := database.NewCardRepository(db)
	news := database.NewNewsRepository(db)
	feedbackRepo := database.NewFeedbackRepository(db)
	history := database.NewHistoryRepository(db)

	httpClient := &http.Client{Timeout: 30 * time.Second}
	articles := collector.NewArticleCollector(reference.Sources, httpClient,
		c.FetchWorkers, time.Duration(c.FetchHours)*time.Hour)
	newsCollector := collector.NewNewsCollector(c.NewsAPIKey, reference.NewsKeywords, httpClient)

	modelTimeout := time.Duration(c.ModelTimeout) * time.Second
	chatClient := curator.NewGroqClient(c.GroqEndpoint, c.GroqModel, c.GroqAPIKey, modelTimeout)
	prompts := curator.NewPromptBuilder(reference.Profile, reference.Axes)
	pipeline := curator.NewPipeline(chatClient, prompts, modelTimeout)

	dedup := curator.NewDeduplicator(history, c.DedupWindowDays)
	prefs := curator.NewPreferenceEngine(c.ExclusionThreshold)

	slackClient := slack.NewClient(c.SlackBotToken, 15*time.Second)
	vault := notion.NewClient(c.NotionAPIKey, c.NotionDBID, 15*time.Second)
	ingester := feedback.NewIngester(cards, news, feedbackRepo, vault)

	orchestrator := digest.NewOrchestrator(
		articles, newsCollector,
		dedup, prefs, pipeline,
		cards, news, feedbackRepo,
		slackClient,
		digest.Channels{
			Daily:   c.ChannelDaily,
			Weekend: c.ChannelWeekend,
			Report:  c.ChannelReport,
		},
		digest.Counts{
			DailyNews:       c.DailyNewsCount,
			DailyArticles:   c.DailyArticleCount,
			WeekendArticles: c.WeekendArticleCount,
		},
	)

	return &application{
		db:           db,
		orchestrator: orchestrator,
		slackClient:  slackClient,
		ingester:     ingester,
	}, nil
}

func runServer(c *cfg.Cfg, app *application) error {
	scheduler := tasks.NewScheduler(app.orchestrator, time.Duration(c.TickInterval)*time.Second)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(app.ingester, app.slackClient, app.orchestrator, c.SlackSigningToken)
	server := api.NewServer(handler)

	httpServer := &http.Server{
		Addr:         ":" + c.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", c.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	return nil
}
