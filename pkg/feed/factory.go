package feed

import (
	"fmt"

	"github.com/Zoidster/BirbBot/pkg/config"
	"github.com/Zoidster/BirbBot/pkg/logger"
	"github.com/Zoidster/BirbBot/pkg/ratelimit"
)

// New selects the client implementation for cfg.Mode
func New(cfg config.RedditConfig, rl config.RateLimitConfig, log logger.Logger) (Client, error) {
	limiter := ratelimit.NewPerMinute(rl.FeedRequestsPerMinute, 1)

	switch cfg.Mode {
	case config.ModeAPI:
		if cfg.ClientID == "" || cfg.ClientSecret == "" {
			return nil, fmt.Errorf("client id and secret are required for api mode")
		}
		if cfg.Username == "" || cfg.Password == "" {
			return nil, fmt.Errorf("username and password are required for api mode")
		}
		c, err := NewAPIClient(Credentials{
			ID:        cfg.ClientID,
			Secret:    cfg.ClientSecret,
			Username:  cfg.Username,
			Password:  cfg.Password,
			UserAgent: cfg.UserAgent,
		}, limiter, log)
		if err != nil {
			return nil, err
		}
		c.SetRequestTimeout(cfg.RequestTimeout)
		return c, nil
	case config.ModePublic, "":
		if cfg.UserAgent == "" {
			return nil, fmt.Errorf("user agent is required for public mode")
		}
		c, err := NewPublicClient(cfg.UserAgent, limiter, log)
		if err != nil {
			return nil, err
		}
		c.SetRequestTimeout(cfg.RequestTimeout)
		return c, nil
	case config.ModeMock:
		m := NewMockClient()
		m.Generate = true
		return m, nil
	default:
		return nil, fmt.Errorf("unknown reddit mode: %s (use 'api', 'public', or 'mock')", cfg.Mode)
	}
}
