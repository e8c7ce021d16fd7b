package models

// Post is a single submission returned by a feed listing
type Post struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Subreddit  string  `json:"subreddit,omitempty"`
	Author     string  `json:"author,omitempty"`
	Score      int     `json:"score,omitempty"`
	CreatedUTC float64 `json:"created_utc,omitempty"`
}

// Listing names a ranked, bounded sequence of posts
type Listing string

const (
	ListingHot Listing = "hot"
	ListingTop Listing = "top"
)
