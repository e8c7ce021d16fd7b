// Package classify maps post URLs to downloadable image targets.
package classify

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind is the classification of a post URL
type Kind int

const (
	Unsupported Kind = iota
	Skip
	DirectImage
	IndirectImage
)

func (k Kind) String() string {
	switch k {
	case Skip:
		return "skip"
	case DirectImage:
		return "direct"
	case IndirectImage:
		return "indirect"
	default:
		return "unsupported"
	}
}

// Downloadable reports whether the kind carries a fetch URL
func (k Kind) Downloadable() bool {
	return k == DirectImage || k == IndirectImage
}

// Classification is the result of classifying a URL. FetchURL and Extension
// are only set for DirectImage and IndirectImage.
type Classification struct {
	Kind      Kind
	FetchURL  string
	Extension string
}

// NoIndex marks a filename without an image index suffix
const NoIndex = -1

const (
	imgurHost    = "i.imgur.com/"
	imgurBaseURL = "http://i.imgur.com/"
)

var imgurPattern = regexp.MustCompile(`(http://i\.imgur\.com/(.*))(\?.*)?`)

// Classify maps a post URL to a Classification. Matching is positional and
// case-sensitive: only the trailing characters are inspected.
func Classify(url string) Classification {
	ext := tail(url, 3)
	if tail(url, 4) == "gifv" || ext == "gif" {
		return Classification{Kind: Skip}
	}

	if ext == "jpg" || ext == "png" {
		return Classification{Kind: DirectImage, FetchURL: url, Extension: ext}
	}

	if strings.Contains(url, imgurHost) {
		return classifyImgur(url)
	}

	return Classification{Kind: Unsupported}
}

func classifyImgur(url string) Classification {
	m := imgurPattern.FindStringSubmatch(url)
	if m == nil {
		// host matched but not the canonical http form
		return Classification{Kind: Unsupported}
	}

	name := m[2]
	if i := strings.IndexByte(name, '?'); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return Classification{Kind: Unsupported}
	}

	// ".jpg" -> "jpg", "jpeg" -> "jpeg"
	ext := strings.TrimPrefix(tail(name, 4), ".")
	if ext == "" || strings.ContainsRune(ext, '/') {
		// a path segment, not an extension
		return Classification{Kind: Unsupported}
	}

	return Classification{
		Kind:      IndirectImage,
		FetchURL:  imgurBaseURL + name,
		Extension: ext,
	}
}

// Filename derives the on-disk name for an image of a post:
// {id}.{ext} or {id}_{index}.{ext}.
func Filename(postID string, index int, ext string) string {
	var b strings.Builder
	b.WriteString(postID)
	if index != NoIndex {
		b.WriteByte('_')
		b.WriteString(strconv.Itoa(index))
	}
	b.WriteByte('.')
	b.WriteString(ext)
	return b.String()
}

// tail returns the last n bytes of s, or s itself when shorter
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
