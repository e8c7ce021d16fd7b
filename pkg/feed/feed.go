// Package feed lists posts from a subreddit.
//
// Client is the capability the crawler depends on: an existence check and
// the two ranked listings it walks. RedditClient talks to Reddit through
// go-reddit, MockClient serves in-memory fixtures.
package feed

import (
	"context"

	"github.com/Zoidster/BirbBot/pkg/models"
)

// Existence is the outcome of a feed lookup
type Existence int

const (
	// Found means the feed exists and can be listed
	Found Existence = iota
	// NotFound means the feed does not exist or is not accessible
	NotFound
	// TransientError means the lookup failed and may succeed later
	TransientError
)

func (e Existence) String() string {
	switch e {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	default:
		return "transient_error"
	}
}

// Client lists posts from a named feed
type Client interface {
	// Exists checks whether the feed exists. The error is set only for
	// TransientError.
	Exists(ctx context.Context, name string) (Existence, error)
	// Hot returns up to limit posts from the hot listing, in rank order
	Hot(ctx context.Context, name string, limit int) ([]models.Post, error)
	// Top returns up to limit posts from the all-time top listing, in rank order
	Top(ctx context.Context, name string, limit int) ([]models.Post, error)
}

// List fetches the named listing from c
func List(ctx context.Context, c Client, listing models.Listing, name string, limit int) ([]models.Post, error) {
	switch listing {
	case models.ListingTop:
		return c.Top(ctx, name, limit)
	default:
		return c.Hot(ctx, name, limit)
	}
}
