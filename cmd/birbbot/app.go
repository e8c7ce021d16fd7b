package main

import (
	"fmt"
	"io"

	"github.com/Zoidster/BirbBot/pkg/auth"
	"github.com/Zoidster/BirbBot/pkg/cache"
	"github.com/Zoidster/BirbBot/pkg/config"
	"github.com/Zoidster/BirbBot/pkg/feed"
	"github.com/Zoidster/BirbBot/pkg/fetch"
	"github.com/Zoidster/BirbBot/pkg/logger"
	"github.com/Zoidster/BirbBot/pkg/progress"
	"github.com/Zoidster/BirbBot/pkg/scraper"
)

// credentialSource looks up stored reddit accounts
type credentialSource interface {
	Retrieve(username string) (*auth.Account, error)
	RetrieveDefault() (*auth.Account, error)
}

// app holds the components every scraper of a process shares
type app struct {
	cfg     *config.Config
	log     logger.Logger
	feed    feed.Client
	fetcher *fetch.Client
	opener  *cache.Opener
}

func newApp(cfg *config.Config, log logger.Logger) (*app, error) {
	client, err := feed.New(cfg.Reddit, cfg.RateLimit, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create reddit client: %w", err)
	}

	return &app{
		cfg:     cfg,
		log:     log,
		feed:    client,
		fetcher: fetch.NewFromConfig(cfg, log),
		opener:  cache.NewOpener(cfg.Cache.Backend, log),
	}, nil
}

// reporter builds the progress sink: markers on w unless quiet, plus a
// debug log line per post.
func (a *app) reporter(w io.Writer, quiet, color bool) progress.Reporter {
	var markers progress.Reporter
	if !quiet {
		markers = progress.NewMarkerWriter(w, color)
	}
	return progress.Multi(markers, progress.NewLogReporter(a.log))
}

// scrapers creates one scraper per configured subreddit
func (a *app) scrapers(reporter progress.Reporter, onCycle func(scraper.Summary, error)) []*scraper.Scraper {
	out := make([]*scraper.Scraper, 0, len(a.cfg.Scrapers))
	for _, sc := range a.cfg.Scrapers {
		out = append(out, scraper.New(a.cfg, sc, scraper.Dependencies{
			Feed:     a.feed,
			Fetcher:  a.fetcher,
			Opener:   a.opener,
			Reporter: reporter,
			Logger:   a.log,
			OnCycle:  onCycle,
		}))
	}
	return out
}

// resolveCredentials fills missing api-mode credentials from a stored
// account. Other modes are left untouched.
func resolveCredentials(cfg *config.RedditConfig, src credentialSource, account string) error {
	if cfg.Mode != config.ModeAPI {
		return nil
	}
	if account == "" && cfg.ClientID != "" && cfg.ClientSecret != "" && cfg.Username != "" && cfg.Password != "" {
		return nil
	}

	var (
		stored *auth.Account
		err    error
	)
	if account != "" {
		stored, err = src.Retrieve(account)
	} else {
		stored, err = src.RetrieveDefault()
	}
	if err != nil {
		return fmt.Errorf("no reddit credentials available (run 'birbbot auth login'): %w", err)
	}

	stored.ApplyTo(cfg)
	return nil
}

// prepare loads config, resolves credentials and builds the app
func prepare(extra map[string]interface{}) (*app, error) {
	cfg, log, err := loadConfig(extra)
	if err != nil {
		return nil, err
	}

	if cfg.Reddit.Mode == config.ModeAPI {
		manager, err := auth.NewManager()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize credential manager: %w", err)
		}
		if err := resolveCredentials(&cfg.Reddit, manager, accountName); err != nil {
			return nil, err
		}
	}

	return newApp(cfg, log)
}
