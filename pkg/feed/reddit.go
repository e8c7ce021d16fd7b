package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/loganintech/go-reddit/v2/reddit"

	errs "github.com/Zoidster/BirbBot/pkg/errors"
	"github.com/Zoidster/BirbBot/pkg/logger"
	"github.com/Zoidster/BirbBot/pkg/models"
	"github.com/Zoidster/BirbBot/pkg/ratelimit"
)

// topTimeFilter is the time window used for the top listing
const topTimeFilter = "all"

// subredditService is the part of go-reddit's subreddit API the client uses
type subredditService interface {
	Get(ctx context.Context, name string) (*reddit.Subreddit, *reddit.Response, error)
	HotPosts(ctx context.Context, subreddit string, opts *reddit.ListOptions) ([]*reddit.Post, *reddit.Response, error)
	TopPosts(ctx context.Context, subreddit string, opts *reddit.ListPostOptions) ([]*reddit.Post, *reddit.Response, error)
}

// RedditClient implements Client on top of go-reddit
type RedditClient struct {
	subreddits subredditService
	limiter    ratelimit.Limiter
	logger     logger.Logger
	// timeout bounds each API request; zero leaves only the caller's deadline
	timeout time.Duration
}

// Credentials for an authenticated Reddit script app
type Credentials struct {
	ID        string
	Secret    string
	Username  string
	Password  string
	UserAgent string
}

// NewAPIClient creates an authenticated client
func NewAPIClient(creds Credentials, limiter ratelimit.Limiter, log logger.Logger) (*RedditClient, error) {
	client, err := reddit.NewClient(reddit.Credentials{
		ID:       creds.ID,
		Secret:   creds.Secret,
		Username: creds.Username,
		Password: creds.Password,
	}, reddit.WithUserAgent(creds.UserAgent))
	if err != nil {
		return nil, fmt.Errorf("failed to create reddit client: %w", err)
	}

	return newRedditClient(client.Subreddit, limiter, log), nil
}

// NewPublicClient creates a read-only client that needs no credentials
func NewPublicClient(userAgent string, limiter ratelimit.Limiter, log logger.Logger) (*RedditClient, error) {
	client, err := reddit.NewReadonlyClient(reddit.WithUserAgent(userAgent))
	if err != nil {
		return nil, fmt.Errorf("failed to create read-only reddit client: %w", err)
	}

	return newRedditClient(client.Subreddit, limiter, log), nil
}

func newRedditClient(svc subredditService, limiter ratelimit.Limiter, log logger.Logger) *RedditClient {
	if limiter == nil {
		limiter = ratelimit.Noop{}
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &RedditClient{
		subreddits: svc,
		limiter:    limiter,
		logger:     log.WithField("component", "feed"),
	}
}

// SetRequestTimeout bounds every Reddit API request. Zero disables the bound.
func (c *RedditClient) SetRequestTimeout(d time.Duration) {
	c.timeout = d
}

func (c *RedditClient) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// Exists looks the subreddit up by name
func (c *RedditClient) Exists(ctx context.Context, name string) (Existence, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return TransientError, err
	}

	reqCtx, cancel := c.requestContext(ctx)
	defer cancel()

	sr, resp, err := c.subreddits.Get(reqCtx, name)
	if err != nil {
		code := statusCode(resp, err)
		if code == http.StatusNotFound || code == http.StatusForbidden {
			c.logger.DebugWithFields("Subreddit not found", map[string]interface{}{
				"subreddit": name,
				"status":    code,
			})
			return NotFound, nil
		}
		return TransientError, errs.Wrap(errs.ErrFeedUnavailable, errs.TypeForStatusCode(code),
			fmt.Sprintf("lookup r/%s", name), err)
	}

	// unknown names can come back as an empty listing rather than a 404
	if sr == nil || sr.Name == "" {
		return NotFound, nil
	}

	return Found, nil
}

// Hot returns the hot listing
func (c *RedditClient) Hot(ctx context.Context, name string, limit int) ([]models.Post, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqCtx, cancel := c.requestContext(ctx)
	defer cancel()

	posts, resp, err := c.subreddits.HotPosts(reqCtx, name, &reddit.ListOptions{Limit: limit})
	if err != nil {
		return nil, c.listError(name, models.ListingHot, resp, err)
	}

	return convertPosts(posts, limit), nil
}

// Top returns the all-time top listing
func (c *RedditClient) Top(ctx context.Context, name string, limit int) ([]models.Post, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqCtx, cancel := c.requestContext(ctx)
	defer cancel()

	posts, resp, err := c.subreddits.TopPosts(reqCtx, name, &reddit.ListPostOptions{
		ListOptions: reddit.ListOptions{Limit: limit},
		Time:        topTimeFilter,
	})
	if err != nil {
		return nil, c.listError(name, models.ListingTop, resp, err)
	}

	return convertPosts(posts, limit), nil
}

func (c *RedditClient) listError(name string, listing models.Listing, resp *reddit.Response, err error) error {
	code := statusCode(resp, err)
	c.logger.WarnWithFields("Listing request failed", map[string]interface{}{
		"subreddit": name,
		"listing":   string(listing),
		"status":    code,
		"error":     err.Error(),
	})
	return &errs.Error{
		Kind:    errs.ErrFeedUnavailable,
		Type:    errs.TypeForStatusCode(code),
		Message: fmt.Sprintf("list %s r/%s", listing, name),
		Code:    code,
		Err:     err,
	}
}

func statusCode(resp *reddit.Response, err error) int {
	var errResp *reddit.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return errResp.Response.StatusCode
	}
	if resp != nil && resp.Response != nil {
		return resp.StatusCode
	}
	return 0
}

func convertPosts(posts []*reddit.Post, limit int) []models.Post {
	result := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if p == nil {
			continue
		}
		post := models.Post{
			ID:        p.ID,
			Title:     p.Title,
			URL:       p.URL,
			Subreddit: p.SubredditNamePrefixed,
			Author:    p.Author,
			Score:     p.Score,
		}
		if p.Created != nil {
			post.CreatedUTC = float64(p.Created.Time.Unix())
		}
		result = append(result, post)
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}
