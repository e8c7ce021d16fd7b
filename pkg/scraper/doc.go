// Package scraper orchestrates crawl cycles for one subreddit.
//
// A cycle checks that the subreddit exists, makes sure the image folder is
// there, opens the shared dedup store and walks the hot and top listings
// through the downloader, in that order. The store is closed when the cycle
// ends, whatever the outcome.
//
// Usage:
//
//	s := scraper.New(cfg, cfg.Scrapers[0], scraper.Dependencies{
//		Feed:    feedClient,
//		Fetcher: fetch.NewFromConfig(cfg, log),
//		Opener:  cache.NewOpener(cfg.Cache.Backend, log),
//	})
//	summary, err := s.Crawl(ctx)
//
// Start runs a first cycle right away, then registers the scraper with a
// shared scheduler so later cycles repeat on the configured cadence. Errors
// from scheduled cycles are logged and never stop the scheduler.
package scraper
