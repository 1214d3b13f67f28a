package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/maman/internal/clock/system"
	"github.com/JakeFAU/maman/internal/config"
	"github.com/JakeFAU/maman/internal/crawler"
	collyfetcher "github.com/JakeFAU/maman/internal/fetcher/colly"
	"github.com/JakeFAU/maman/internal/id/uuid"
	"github.com/JakeFAU/maman/internal/version"
)

// crawlArgs are the positional arguments of one invocation.
type crawlArgs struct {
	baseURL   *url.URL
	limit     int
	mimeTypes []string
}

// parseArgs reads URL [LIMIT] [MIME_TYPES...]. A LIMIT that is not a
// non-negative integer means unbounded. Every argument after LIMIT is split
// on whitespace into MIME types.
func parseArgs(args []string) (crawlArgs, error) {
	if len(args) == 0 {
		return crawlArgs{}, fmt.Errorf("%w: URL is required", errUsage)
	}
	base, err := crawler.NormalizeURL(args[0])
	if err != nil {
		return crawlArgs{}, fmt.Errorf("%w: %w", errUsage, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return crawlArgs{}, fmt.Errorf("%w: unsupported scheme %q", errUsage, base.Scheme)
	}

	parsed := crawlArgs{baseURL: base}
	if len(args) > 1 {
		parsed.limit = parseLimit(args[1])
	}
	if len(args) > 2 {
		for _, arg := range args[2:] {
			parsed.mimeTypes = append(parsed.mimeTypes, strings.Fields(arg)...)
		}
	}
	return parsed, nil
}

func parseLimit(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func runCrawl(cmd *cobra.Command, args []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	parsed, err := parseArgs(args)
	if err != nil {
		return err
	}

	logger := appInstance.GetLogger()
	spider, err := buildSpider(appInstance.GetConfig(), parsed, appInstance, logger)
	if err != nil {
		return err
	}

	appInstance.StartMetrics(cmd.Context())

	logger.Info("crawl started",
		zap.String("url", parsed.baseURL.String()),
		zap.Int("limit", parsed.limit),
		zap.Strings("mime_types", parsed.mimeTypes),
	)
	stats, err := spider.Crawl(cmd.Context())
	logger.Info("crawl finished",
		zap.Int("visited", stats.Visited),
		zap.Int("skipped", stats.Skipped),
		zap.Int("denied", stats.Denied),
		zap.Int("push_failures", stats.PushFailures),
	)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("crawl interrupted")
			return nil
		}
		return fmt.Errorf("run crawler: %w", err)
	}
	return nil
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

func buildSpider(cfg config.Config, parsed crawlArgs, appInstance App, logger *zap.Logger) (*crawler.Spider, error) {
	userAgent := cfg.UserAgent()
	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: userAgent,
		Timeout:   cfg.Crawler.Timeout,
	})
	robots := crawler.NewRobotsEnforcer(
		&http.Client{Timeout: cfg.Crawler.Timeout},
		version.Name,
		userAgent,
		logger,
	)

	spider, err := crawler.NewSpider(
		cfg.CrawlConfig(parsed.baseURL, parsed.limit, parsed.mimeTypes),
		fetcher,
		robots,
		appInstance.GetQueue(),
		uuid.New(),
		system.New(),
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("init spider: %w", err)
	}
	return spider, nil
}
