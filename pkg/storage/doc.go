// Package storage manages the per-scraper image folder.
//
// The folder is created lazily by Ensure, so a crawl that aborts before
// downloading leaves no trace on disk. Save writes through a ".part" file in
// the same directory, syncs it and renames it into place, so an image only
// ever appears under its final name once it is complete. Exists is the
// source of truth for "already downloaded"; the dedup cache is advisory.
//
// Usage:
//
//	folder := storage.NewManager("./Birbs/")
//	if err := folder.Ensure(); err != nil {
//		return err
//	}
//	if !folder.Exists("abc123.jpg") {
//		err = folder.Save(bytes.NewReader(data), "abc123.jpg")
//	}
package storage
