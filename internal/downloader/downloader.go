package downloader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Zoidster/BirbBot/pkg/classify"
	errs "github.com/Zoidster/BirbBot/pkg/errors"
	"github.com/Zoidster/BirbBot/pkg/logger"
	"github.com/Zoidster/BirbBot/pkg/models"
	"github.com/Zoidster/BirbBot/pkg/progress"
)

// ImageFetcher fetches image bytes
type ImageFetcher interface {
	GetBytes(ctx context.Context, url string) ([]byte, error)
}

// ImageStorage stores images in a folder
type ImageStorage interface {
	Exists(filename string) bool
	Save(r io.Reader, filename string) error
}

// NamespaceStore persists a namespace mapping
type NamespaceStore interface {
	PutNamespace(key string, entries map[string]string) error
}

// Outcome of a single image download
type Outcome int

const (
	// Downloaded means the image was fetched, written and recorded
	Downloaded Outcome = iota
	// SkippedExists means the file was already in the folder
	SkippedExists
)

func (o Outcome) String() string {
	if o == SkippedExists {
		return "skipped_exists"
	}
	return "downloaded"
}

// Result tallies what happened to a listing
type Result struct {
	New         int
	Duplicates  int
	Skipped     int
	Unsupported int
	Failed      int
}

// Add sums two results
func (r Result) Add(o Result) Result {
	return Result{
		New:         r.New + o.New,
		Duplicates:  r.Duplicates + o.Duplicates,
		Skipped:     r.Skipped + o.Skipped,
		Unsupported: r.Unsupported + o.Unsupported,
		Failed:      r.Failed + o.Failed,
	}
}

// Options configures a Downloader
type Options struct {
	Feed         string
	NamespaceKey string
	Fetcher      ImageFetcher
	Folder       ImageStorage
	Cache        NamespaceStore
	// Entries is the namespace mapping loaded at the start of the cycle
	Entries  map[string]string
	Reporter progress.Reporter
	Logger   logger.Logger
}

// Downloader handles the posts of one crawl cycle, one at a time and in
// listing order.
type Downloader struct {
	feed      string
	namespace string
	fetcher   ImageFetcher
	folder    ImageStorage
	cache     NamespaceStore
	entries   map[string]string
	reporter  progress.Reporter
	logger    logger.Logger
	listing   models.Listing
}

// New creates a downloader for one cycle
func New(opts Options) *Downloader {
	entries := opts.Entries
	if entries == nil {
		entries = make(map[string]string)
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = progress.Nop
	}
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	return &Downloader{
		feed:      opts.Feed,
		namespace: opts.NamespaceKey,
		fetcher:   opts.Fetcher,
		folder:    opts.Folder,
		cache:     opts.Cache,
		entries:   entries,
		reporter:  reporter,
		logger:    log.WithFields(map[string]interface{}{"component": "downloader", "subreddit": opts.Feed}),
	}
}

// Entries returns the number of entries in the in-memory namespace mapping
func (d *Downloader) Entries() int {
	return len(d.entries)
}

// Download classifies and handles every post of a listing in order.
// Fetch and write failures are contained per post; the returned error is set
// only when the context is cancelled or the cache can no longer be written.
func (d *Downloader) Download(ctx context.Context, listing models.Listing, posts []models.Post) (Result, error) {
	d.listing = listing
	var result Result

	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		target := classify.Classify(post.URL)
		switch target.Kind {
		case classify.Skip:
			result.Skipped++
			d.emit(progress.Skipped, post, "", nil)
			continue
		case classify.Unsupported:
			result.Unsupported++
			d.emit(progress.Unsupported, post, "", nil)
			continue
		case classify.IndirectImage:
			d.emit(progress.Indirect, post, classify.Filename(post.ID, classify.NoIndex, target.Extension), nil)
		}

		outcome, err := d.DownloadOne(ctx, target, post, classify.NoIndex)
		if err != nil {
			if errors.Is(err, errs.ErrStorageUnavailable) {
				// the image is on disk; only the record is missing
				result.New++
				return result, err
			}
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.Failed++
			continue
		}

		switch outcome {
		case Downloaded:
			result.New++
		case SkippedExists:
			result.Duplicates++
		}
	}

	return result, nil
}

// DownloadOne stores the image of target under the post's derived filename
// unless a file of that name already exists.
func (d *Downloader) DownloadOne(ctx context.Context, target classify.Classification, post models.Post, index int) (Outcome, error) {
	if !target.Kind.Downloadable() {
		return SkippedExists, fmt.Errorf("post %s: %s target is not downloadable", post.ID, target.Kind)
	}

	filename := classify.Filename(post.ID, index, target.Extension)
	if d.folder.Exists(filename) {
		d.emit(progress.Duplicate, post, filename, nil)
		return SkippedExists, nil
	}

	start := time.Now()
	data, err := d.fetcher.GetBytes(ctx, target.FetchURL)
	if err != nil {
		if !errors.Is(err, errs.ErrFetchFailed) {
			err = errs.FetchFailed(target.FetchURL, 0, err)
		}
		d.fail(post, filename, target.FetchURL, err)
		return Downloaded, err
	}

	if err := d.folder.Save(bytes.NewReader(data), filename); err != nil {
		if !errors.Is(err, errs.ErrWriteFailed) {
			err = errs.WriteFailed(filename, err)
		}
		d.fail(post, filename, target.FetchURL, err)
		return Downloaded, err
	}

	d.entries[filename] = post.Title
	if err := d.cache.PutNamespace(d.namespace, d.entries); err != nil {
		d.logger.ErrorWithFields("Failed to record download", map[string]interface{}{
			"filename":  filename,
			"namespace": d.namespace,
			"error":     err.Error(),
		})
		if !errors.Is(err, errs.ErrStorageUnavailable) {
			err = errs.StorageUnavailable(d.namespace, err)
		}
		return Downloaded, err
	}

	d.logger.DebugWithFields("Image downloaded", map[string]interface{}{
		"post_id":  post.ID,
		"filename": filename,
		"bytes":    len(data),
		"duration": time.Since(start),
	})

	if target.Kind == classify.DirectImage {
		d.emitURL(progress.New, post, filename, target.FetchURL, nil)
	}

	return Downloaded, nil
}

func (d *Downloader) fail(post models.Post, filename, url string, err error) {
	d.logger.WarnWithFields("Image download failed", map[string]interface{}{
		"post_id":  post.ID,
		"filename": filename,
		"url":      url,
		"error":    err.Error(),
	})
	d.emitURL(progress.Failed, post, filename, url, err)
}

func (d *Downloader) emit(kind progress.Kind, post models.Post, filename string, err error) {
	d.emitURL(kind, post, filename, post.URL, err)
}

func (d *Downloader) emitURL(kind progress.Kind, post models.Post, filename, url string, err error) {
	d.reporter.Report(progress.Event{
		Kind:     kind,
		Feed:     d.feed,
		Listing:  d.listing,
		PostID:   post.ID,
		URL:      url,
		Filename: filename,
		Err:      err,
	})
}
