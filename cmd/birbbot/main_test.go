package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zoidster/BirbBot/internal/downloader"
	"github.com/Zoidster/BirbBot/pkg/auth"
	"github.com/Zoidster/BirbBot/pkg/cache"
	"github.com/Zoidster/BirbBot/pkg/config"
	"github.com/Zoidster/BirbBot/pkg/logger"
	"github.com/Zoidster/BirbBot/pkg/progress"
	"github.com/Zoidster/BirbBot/pkg/scraper"
	"github.com/Zoidster/BirbBot/pkg/ui"
)

func storedAccount() *auth.Account {
	return &auth.Account{
		Username:     "birbfan",
		Password:     "pw-1234567890",
		ClientID:     "stored-id",
		ClientSecret: "stored-secret-value",
	}
}

func TestResolveCredentialsSkipsOtherModes(t *testing.T) {
	src, _ := auth.NewMockManager()
	cfg := config.RedditConfig{Mode: config.ModePublic}

	require.NoError(t, resolveCredentials(&cfg, src, ""))
	assert.Empty(t, cfg.ClientID)
}

func TestResolveCredentialsFillsFromStore(t *testing.T) {
	src, _ := auth.NewMockManager()
	require.NoError(t, src.Store(storedAccount()))

	cfg := config.RedditConfig{Mode: config.ModeAPI, UserAgent: "birbbot/test"}
	require.NoError(t, resolveCredentials(&cfg, src, ""))

	assert.Equal(t, "stored-id", cfg.ClientID)
	assert.Equal(t, "birbfan", cfg.Username)
	assert.Equal(t, "birbbot/test", cfg.UserAgent)
}

func TestResolveCredentialsNamedAccount(t *testing.T) {
	src, _ := auth.NewMockManager()

	cfg := config.RedditConfig{Mode: config.ModeAPI}
	err := resolveCredentials(&cfg, src, "nobody")
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrCredentialsNotFound)
}

func TestResolveCredentialsKeepsCompleteConfig(t *testing.T) {
	src, store := auth.NewMockManager()
	store.RetrieveError = assert.AnError

	cfg := config.RedditConfig{
		Mode:         config.ModeAPI,
		ClientID:     "cfg-id",
		ClientSecret: "cfg-secret",
		Username:     "cfg-user",
		Password:     "cfg-pass",
	}
	require.NoError(t, resolveCredentials(&cfg, src, ""))
	assert.Equal(t, "cfg-id", cfg.ClientID)
}

func TestCrawlFlags(t *testing.T) {
	crawlFolder, crawlNamespace, crawlLimit = "./Parrots", "", 10
	defer func() { crawlFolder, crawlNamespace, crawlLimit = "", "", 0 }()

	flags := crawlFlags([]string{"parrots"})
	assert.Equal(t, "parrots", flags["subreddit"])
	assert.Equal(t, "./Parrots", flags["folder"])
	assert.Equal(t, 10, flags["listing-limit"])

	flags = crawlFlags(nil)
	assert.NotContains(t, flags, "subreddit")
}

func TestMaskedConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Reddit.ClientSecret = "abcdefghijklmnop"
	cfg.Reddit.Password = "short"

	display := maskedConfig(cfg)
	assert.Equal(t, "abcd...mnop", display.Reddit.ClientSecret)
	assert.Equal(t, "***", display.Reddit.Password)
	assert.Equal(t, "abcdefghijklmnop", cfg.Reddit.ClientSecret)
}

func TestAppCrawlsInMockMode(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Reddit.Mode = config.ModeMock
	cfg.Cache.StorePath = filepath.Join(dir, "birbbot.db")
	cfg.Scrapers = []config.ScraperConfig{
		{Subreddit: "birbs", Folder: filepath.Join(dir, "Birbs"), NamespaceKey: "birbs"},
		{Subreddit: "owls", Folder: filepath.Join(dir, "Owls"), NamespaceKey: "owls"},
	}

	a, err := newApp(cfg, logger.NewTestLogger())
	require.NoError(t, err)

	var out bytes.Buffer
	var summaries []scraper.Summary
	scrapers := a.scrapers(a.reporter(&out, false, false), func(s scraper.Summary, err error) {
		assert.NoError(t, err)
		summaries = append(summaries, s)
	})
	require.Len(t, scrapers, 2)

	for _, s := range scrapers {
		s.RunCycle(context.Background())
	}

	require.Len(t, summaries, 2)
	assert.Equal(t, 10, summaries[0].Unsupported)
	assert.Equal(t, "----------\n----------\n", out.String())
	assert.DirExists(t, filepath.Join(dir, "Owls"))
}

func TestCycleRecorder(t *testing.T) {
	tracker := ui.NewStatusTracker()
	var out bytes.Buffer

	record := cycleRecorder(tracker, &out, false)
	record(scraper.Summary{Feed: "birbs", Result: downloader.Result{New: 2}}, nil)
	record(scraper.Summary{Feed: "owls"}, errors.New("feed unavailable"))

	assert.Contains(t, out.String(), "r/birbs: 2 new | total 2 over 1 cycles")
	assert.Contains(t, out.String(), "r/owls: feed unavailable")
	assert.Equal(t, 2, tracker.FeedTotal("birbs"))
	assert.Equal(t, 1, tracker.FailedCycles)
}

func TestCycleRecorderQuiet(t *testing.T) {
	tracker := ui.NewStatusTracker()
	var out bytes.Buffer

	cycleRecorder(tracker, &out, true)(scraper.Summary{Feed: "birbs", Result: downloader.Result{New: 3}}, nil)

	assert.Empty(t, out.String())
	assert.Equal(t, 3, tracker.FeedTotal("birbs"))
	assert.Equal(t, 1, tracker.Cycles)
}

func TestAppReporterQuiet(t *testing.T) {
	a := &app{log: logger.NewTestLogger()}

	var out bytes.Buffer
	r := a.reporter(&out, true, false)
	r.Report(progress.Event{Kind: progress.New, Feed: "birbs"})
	progress.Finish(r)
	assert.Empty(t, out.String())
}

func TestNewAppRejectsIncompleteAPIMode(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Reddit.Mode = config.ModeAPI

	_, err := newApp(cfg, logger.NewTestLogger())
	assert.Error(t, err)
}

func TestPrintEntries(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printEntries(&out, map[string]string{"b.png": "Second", "a.jpg": "First"}))

	text := out.String()
	assert.Contains(t, text, "FILE")
	assert.Less(t, bytes.Index(out.Bytes(), []byte("a.jpg")), bytes.Index(out.Bytes(), []byte("b.png")))
}

func TestPrintNamespaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "birbbot.db")
	h, err := cache.NewOpener(cache.BackendBolt, nil).Open(path)
	require.NoError(t, err)
	defer h.Close()

	require.NoError(t, h.PutNamespace("birbs", map[string]string{"a.jpg": "A", "b.jpg": "B"}))
	require.NoError(t, h.PutNamespace("owls", map[string]string{"c.jpg": "C"}))

	var out bytes.Buffer
	require.NoError(t, printNamespaces(&out, h))
	assert.Regexp(t, `birbs\s+2`, out.String())
	assert.Regexp(t, `owls\s+1`, out.String())
}

func TestPrintAccountsMasksSecrets(t *testing.T) {
	a := storedAccount()
	a.LastModified = time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)

	var out bytes.Buffer
	require.NoError(t, printAccounts(&out, []*auth.Account{a}))
	assert.Contains(t, out.String(), "birbfan")
	assert.Contains(t, out.String(), "2024-03-01 06:00")
	assert.NotContains(t, out.String(), "stored-secret-value")
}
