// Package cache persists the dedup record of downloaded images.
//
// A store file holds one namespace per scraper instance; each namespace maps
// an image filename to the title of the post it came from. Scrapers open the
// store at the start of a crawl, read their namespace once, write it back
// after every successful download and close the store when the crawl ends.
//
// Two backends are available:
//
//   - bolt: a boltdb file with one bucket per namespace (default)
//   - json: a single JSON document rewritten atomically on every update
//
// An Opener serialises access to each store path, so several scrapers sharing
// one file take turns rather than colliding on the file lock:
//
//	opener := cache.NewOpener(cache.BackendBolt, log)
//	h, err := opener.Open("./birbbot.db")
//	if err != nil {
//		return err // wraps errors.ErrStorageUnavailable
//	}
//	defer h.Close()
//	seen, err := h.Namespace("birbs")
package cache
