package main

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/deusflow/dealwatch/internal/app"
	"github.com/deusflow/dealwatch/internal/config"
	"github.com/deusflow/dealwatch/internal/logger"
	"github.com/deusflow/dealwatch/internal/news"
)

const recentCount = 5

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ config: %v", err)
	}
	logger.Init(cfg.LogLevel, cfg.Debug)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	fmt.Printf("🔌 Opening %s archive (%s)...\n", cfg.ArchiveDriver, target(cfg))
	archive, err := app.OpenArchive(ctx, cfg, logger.Logger)
	if err != nil {
		log.Fatalf("❌ Failed to open archive: %v", err)
	}
	defer archive.Close()

	articles, err := archive.ReadAll(ctx)
	if err != nil {
		log.Fatalf("❌ Failed to read archive: %v", err)
	}
	fmt.Printf("✅ Archive holds %d articles\n", len(articles))

	fmt.Printf("\n📰 Most recent (%d):\n", recentCount)
	recent := mostRecent(articles, recentCount)
	if len(recent) == 0 {
		fmt.Println("  (archive is empty)")
	}
	for i, a := range recent {
		fmt.Printf("  %d. %s\n", i+1, news.Headline(a.Title))
		fmt.Printf("     %s | %s | %s\n", news.DisplaySource(a.SourceID), news.LongDate(a.Published), a.Link)
	}
}

func mostRecent(articles []news.Article, n int) []news.Annotated {
	list := make([]news.Annotated, 0, len(articles))
	for _, a := range articles {
		published, _ := news.ParsePublished(a.PubDate)
		list = append(list, news.Annotated{Article: a, Published: published})
	}
	news.SortNewestFirst(list)
	if len(list) > n {
		list = list[:n]
	}
	return list
}

// target describes the archive location with credentials masked.
func target(cfg *config.Config) string {
	switch cfg.ArchiveDriver {
	case "file":
		return cfg.ArchiveFilePath
	case "postgres":
		return redact(cfg.DatabaseURL)
	case "mongo":
		return redact(cfg.MongoURI)
	default:
		return "disabled"
	}
}

func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}
