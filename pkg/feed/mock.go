package feed

import (
	"context"
	"fmt"
	"sync"

	"github.com/Zoidster/BirbBot/pkg/models"
)

// MockFeed is the fixture data for one feed
type MockFeed struct {
	Hot    []models.Post
	Top    []models.Post
	HotErr error
	TopErr error
}

// MockClient implements Client with in-memory fixtures
type MockClient struct {
	mu    sync.Mutex
	feeds map[string]*MockFeed
	calls []string

	// ExistsErr makes every Exists call report a transient failure
	ExistsErr error
	// Generate serves synthetic feeds for unknown names
	Generate bool
}

// NewMockClient creates an empty mock client
func NewMockClient() *MockClient {
	return &MockClient{feeds: make(map[string]*MockFeed)}
}

// AddFeed registers fixture data for name
func (m *MockClient) AddFeed(name string, f *MockFeed) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feeds[name] = f
}

// Calls returns the requests made so far, as "exists:name", "hot:name" or
// "top:name"
func (m *MockClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockClient) Exists(ctx context.Context, name string) (Existence, error) {
	m.record("exists", name)
	if err := ctx.Err(); err != nil {
		return TransientError, err
	}
	if m.ExistsErr != nil {
		return TransientError, m.ExistsErr
	}
	if _, ok := m.feed(name); !ok {
		return NotFound, nil
	}
	return Found, nil
}

func (m *MockClient) Hot(ctx context.Context, name string, limit int) ([]models.Post, error) {
	m.record("hot", name)
	f, ok := m.feed(name)
	if !ok {
		return nil, fmt.Errorf("mock feed %q not registered", name)
	}
	if f.HotErr != nil {
		return nil, f.HotErr
	}
	return capPosts(f.Hot, limit), ctx.Err()
}

func (m *MockClient) Top(ctx context.Context, name string, limit int) ([]models.Post, error) {
	m.record("top", name)
	f, ok := m.feed(name)
	if !ok {
		return nil, fmt.Errorf("mock feed %q not registered", name)
	}
	if f.TopErr != nil {
		return nil, f.TopErr
	}
	return capPosts(f.Top, limit), ctx.Err()
}

func (m *MockClient) feed(name string) (*MockFeed, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.feeds[name]
	if !ok && m.Generate {
		f = generatedFeed(name)
		m.feeds[name] = f
		ok = true
	}
	return f, ok
}

func (m *MockClient) record(op, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, op+":"+name)
}

func capPosts(posts []models.Post, limit int) []models.Post {
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return append([]models.Post(nil), posts...)
}

// generatedFeed fabricates posts whose links classify as unsupported, so a
// mock run exercises the pipeline without downloading anything.
func generatedFeed(name string) *MockFeed {
	posts := func(listing string) []models.Post {
		var out []models.Post
		for i := 0; i < 5; i++ {
			out = append(out, models.Post{
				ID:        fmt.Sprintf("mock_%s_%s_%d", name, listing, i),
				Title:     fmt.Sprintf("[%s] Simulated %s post #%d", name, listing, i),
				URL:       "http://localhost/mock-url",
				Subreddit: "r/" + name,
				Author:    "simulated_user",
			})
		}
		return out
	}
	return &MockFeed{Hot: posts("hot"), Top: posts("top")}
}
