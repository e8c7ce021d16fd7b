package feed

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/loganintech/go-reddit/v2/reddit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zoidster/BirbBot/pkg/config"
	errs "github.com/Zoidster/BirbBot/pkg/errors"
	"github.com/Zoidster/BirbBot/pkg/logger"
	"github.com/Zoidster/BirbBot/pkg/models"
)

type fakeSubreddits struct {
	subreddit *reddit.Subreddit
	posts     []*reddit.Post
	status    int

	hotOpts *reddit.ListOptions
	topOpts *reddit.ListPostOptions

	// hang blocks every call until its context ends
	hang      bool
	deadlines []time.Time
}

// begin records the request deadline and, when hanging, waits for ctx
func (f *fakeSubreddits) begin(ctx context.Context) error {
	if d, ok := ctx.Deadline(); ok {
		f.deadlines = append(f.deadlines, d)
	}
	if f.hang {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (f *fakeSubreddits) failure(path string) (*reddit.Response, error) {
	req, _ := http.NewRequest(http.MethodGet, "https://oauth.reddit.com"+path, nil)
	resp := &http.Response{StatusCode: f.status, Status: http.StatusText(f.status), Request: req}
	return &reddit.Response{Response: resp}, &reddit.ErrorResponse{Response: resp, Message: "boom"}
}

func (f *fakeSubreddits) Get(ctx context.Context, name string) (*reddit.Subreddit, *reddit.Response, error) {
	if err := f.begin(ctx); err != nil {
		return nil, nil, err
	}
	if f.status != 0 {
		resp, err := f.failure("/r/" + name + "/about")
		return nil, resp, err
	}
	return f.subreddit, nil, nil
}

func (f *fakeSubreddits) HotPosts(ctx context.Context, subreddit string, opts *reddit.ListOptions) ([]*reddit.Post, *reddit.Response, error) {
	f.hotOpts = opts
	if err := f.begin(ctx); err != nil {
		return nil, nil, err
	}
	if f.status != 0 {
		resp, err := f.failure("/r/" + subreddit + "/hot")
		return nil, resp, err
	}
	return f.posts, nil, nil
}

func (f *fakeSubreddits) TopPosts(ctx context.Context, subreddit string, opts *reddit.ListPostOptions) ([]*reddit.Post, *reddit.Response, error) {
	f.topOpts = opts
	if err := f.begin(ctx); err != nil {
		return nil, nil, err
	}
	if f.status != 0 {
		resp, err := f.failure("/r/" + subreddit + "/top")
		return nil, resp, err
	}
	return f.posts, nil, nil
}

func TestRedditClientExists(t *testing.T) {
	tests := []struct {
		name      string
		svc       *fakeSubreddits
		want      Existence
		wantError bool
	}{
		{"found", &fakeSubreddits{subreddit: &reddit.Subreddit{Name: "birbs"}}, Found, false},
		{"empty listing", &fakeSubreddits{subreddit: &reddit.Subreddit{}}, NotFound, false},
		{"nil subreddit", &fakeSubreddits{}, NotFound, false},
		{"404", &fakeSubreddits{status: http.StatusNotFound}, NotFound, false},
		{"403", &fakeSubreddits{status: http.StatusForbidden}, NotFound, false},
		{"503", &fakeSubreddits{status: http.StatusServiceUnavailable}, TransientError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newRedditClient(tt.svc, nil, logger.NewTestLogger())

			got, err := client.Exists(context.Background(), "birbs")
			assert.Equal(t, tt.want, got)
			if tt.wantError {
				require.Error(t, err)
				assert.ErrorIs(t, err, errs.ErrFeedUnavailable)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRedditClientListings(t *testing.T) {
	created := time.Date(2016, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := &fakeSubreddits{posts: []*reddit.Post{
		{ID: "a1", Title: "First", URL: "https://i.redd.it/a1.jpg", SubredditNamePrefixed: "r/birbs", Author: "u1", Score: 10, Created: &reddit.Timestamp{Time: created}},
		nil,
		{ID: "a2", Title: "Second", URL: "http://i.imgur.com/a2.png"},
		{ID: "a3", Title: "Third", URL: "https://i.redd.it/a3.png"},
	}}
	client := newRedditClient(svc, nil, logger.NewTestLogger())

	hot, err := client.Hot(context.Background(), "birbs", 30)
	require.NoError(t, err)
	require.Len(t, hot, 3)
	assert.Equal(t, models.Post{
		ID:         "a1",
		Title:      "First",
		URL:        "https://i.redd.it/a1.jpg",
		Subreddit:  "r/birbs",
		Author:     "u1",
		Score:      10,
		CreatedUTC: float64(created.Unix()),
	}, hot[0])
	assert.Equal(t, 30, svc.hotOpts.Limit)

	top, err := client.Top(context.Background(), "birbs", 2)
	require.NoError(t, err)
	assert.Len(t, top, 2)
	assert.Equal(t, "all", svc.topOpts.Time)
	assert.Equal(t, 2, svc.topOpts.Limit)
}

func TestRedditClientListingFailure(t *testing.T) {
	client := newRedditClient(&fakeSubreddits{status: http.StatusBadGateway}, nil, logger.NewTestLogger())

	_, err := client.Hot(context.Background(), "birbs", 30)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrFeedUnavailable)

	var typed *errs.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, http.StatusBadGateway, typed.Code)
	assert.Equal(t, errs.ErrorTypeServerError, typed.Type)
}

func TestRedditClientRequestTimeout(t *testing.T) {
	svc := &fakeSubreddits{subreddit: &reddit.Subreddit{Name: "birbs"}}
	client := newRedditClient(svc, nil, logger.NewTestLogger())

	_, err := client.Exists(context.Background(), "birbs")
	require.NoError(t, err)
	assert.Empty(t, svc.deadlines, "no deadline without a request timeout")

	client.SetRequestTimeout(time.Minute)
	before := time.Now()
	_, err = client.Exists(context.Background(), "birbs")
	require.NoError(t, err)
	_, err = client.Hot(context.Background(), "birbs", 5)
	require.NoError(t, err)
	_, err = client.Top(context.Background(), "birbs", 5)
	require.NoError(t, err)

	require.Len(t, svc.deadlines, 3)
	for _, d := range svc.deadlines {
		assert.WithinDuration(t, before.Add(time.Minute), d, 5*time.Second)
	}
}

func TestRedditClientAbandonsHungRequest(t *testing.T) {
	client := newRedditClient(&fakeSubreddits{hang: true}, nil, logger.NewTestLogger())
	client.SetRequestTimeout(20 * time.Millisecond)

	_, err := client.Hot(context.Background(), "birbs", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrFeedUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	existence, err := client.Exists(context.Background(), "birbs")
	assert.Equal(t, TransientError, existence)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMockClient(t *testing.T) {
	m := NewMockClient()
	m.AddFeed("birbs", &MockFeed{
		Hot: []models.Post{{ID: "h1"}, {ID: "h2"}},
		Top: []models.Post{{ID: "t1"}},
	})
	ctx := context.Background()

	got, err := m.Exists(ctx, "birbs")
	require.NoError(t, err)
	assert.Equal(t, Found, got)

	got, err = m.Exists(ctx, "nope")
	require.NoError(t, err)
	assert.Equal(t, NotFound, got)

	hot, err := List(ctx, m, models.ListingHot, "birbs", 1)
	require.NoError(t, err)
	assert.Equal(t, []models.Post{{ID: "h1"}}, hot)

	top, err := List(ctx, m, models.ListingTop, "birbs", 30)
	require.NoError(t, err)
	assert.Equal(t, []models.Post{{ID: "t1"}}, top)

	assert.Equal(t, []string{"exists:birbs", "exists:nope", "hot:birbs", "top:birbs"}, m.Calls())
}

func TestMockClientTransientExists(t *testing.T) {
	m := NewMockClient()
	m.ExistsErr = errors.New("reddit is down")

	got, err := m.Exists(context.Background(), "birbs")
	assert.Equal(t, TransientError, got)
	assert.Error(t, err)
}

func TestMockClientGenerate(t *testing.T) {
	m := NewMockClient()
	m.Generate = true

	got, err := m.Exists(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, Found, got)

	posts, err := m.Hot(context.Background(), "anything", 30)
	require.NoError(t, err)
	assert.Len(t, posts, 5)
}

func TestNew(t *testing.T) {
	rl := config.DefaultConfig().RateLimit

	client, err := New(config.RedditConfig{Mode: config.ModeMock}, rl, nil)
	require.NoError(t, err)
	assert.IsType(t, &MockClient{}, client)

	client, err = New(config.RedditConfig{Mode: config.ModePublic, UserAgent: "birbbot/1.0", RequestTimeout: time.Second}, rl, nil)
	require.NoError(t, err)
	require.IsType(t, &RedditClient{}, client)
	assert.Equal(t, time.Second, client.(*RedditClient).timeout)

	_, err = New(config.RedditConfig{Mode: config.ModePublic}, rl, nil)
	assert.Error(t, err)

	_, err = New(config.RedditConfig{Mode: config.ModeAPI, UserAgent: "birbbot/1.0"}, rl, nil)
	assert.Error(t, err)

	_, err = New(config.RedditConfig{Mode: "scrape"}, rl, nil)
	assert.Error(t, err)
}

func TestExistenceString(t *testing.T) {
	assert.Equal(t, "found", Found.String())
	assert.Equal(t, "not_found", NotFound.String())
	assert.Equal(t, "transient_error", TransientError.String())
}
