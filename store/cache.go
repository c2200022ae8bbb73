package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketDirScan = []byte("dirscan_by_path")

// DirCache is an optional accelerator: it remembers the result of a prior
// directory walk (relative path, size, mtime) keyed by the scanned
// directory, so the next publisher start with the same --dir skips the
// filesystem walk. A cached listing is reused as stored: files added,
// removed or modified since then are not detected. It never stores wire
// bytes, signatures, or
// content objects -- only the filesystem listing that feeds the walk.
type DirCache struct {
	db *bolt.DB
}

// OpenDirCache opens (creating if necessary) a bbolt file at path for use
// as a directory-scan cache.
func OpenDirCache(path string) (*DirCache, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open dir cache: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketDirScan)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: init dir cache: %w", err)
	}
	return &DirCache{db: db}, nil
}

func (c *DirCache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

type cachedEntry struct {
	RelPath string `json:"rel_path"`
	Size    int64  `json:"size"`
	ModTime int64  `json:"mod_time"`
}

type cachedListing struct {
	Entries  []cachedEntry `json:"entries"`
	Checksum uint64        `json:"checksum"`
}

// Load returns a previously cached directory listing for dir. The stored
// checksum is recomputed over the stored entries to catch corruption; a
// checksum mismatch or decode failure is treated as a cache miss, forcing
// a fresh walk rather than serving bad data. The listing is not compared
// with the directory's current contents.
func (c *DirCache) Load(dir string) ([]dirEntry, bool) {
	if c == nil || c.db == nil {
		return nil, false
	}
	var listing cachedListing
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketDirScan).Get([]byte(dir))
		if v == nil {
			return fmt.Errorf("miss")
		}
		return json.Unmarshal(v, &listing)
	})
	if err != nil {
		return nil, false
	}
	if checksum(listing.Entries) != listing.Checksum {
		return nil, false
	}
	out := make([]dirEntry, len(listing.Entries))
	for i, e := range listing.Entries {
		out[i] = dirEntry{relPath: e.RelPath, size: e.Size, modTime: e.ModTime}
	}
	return out, true
}

// Store saves dir's directory listing for a later Load.
func (c *DirCache) Store(dir string, entries []dirEntry) error {
	if c == nil || c.db == nil {
		return nil
	}
	cached := make([]cachedEntry, len(entries))
	for i, e := range entries {
		cached[i] = cachedEntry{RelPath: e.relPath, Size: e.size, ModTime: e.modTime}
	}
	listing := cachedListing{Entries: cached, Checksum: checksum(cached)}
	b, err := json.Marshal(listing)
	if err != nil {
		return fmt.Errorf("store: marshal dir cache entry: %w", err)
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDirScan).Put([]byte(dir), b)
	})
}

// checksum is a simple FNV-1a fold over the listing, good enough to detect
// truncated or hand-edited cache entries; it is not a security boundary.
func checksum(entries []cachedEntry) uint64 {
	h := uint64(14695981039346656037)
	var buf [8]byte
	for _, e := range entries {
		for _, b := range []byte(e.RelPath) {
			h ^= uint64(b)
			h *= 1099511628211
		}
		binary.LittleEndian.PutUint64(buf[:], uint64(e.Size))
		for _, b := range buf {
			h ^= uint64(b)
			h *= 1099511628211
		}
		binary.LittleEndian.PutUint64(buf[:], uint64(e.ModTime))
		for _, b := range buf {
			h ^= uint64(b)
			h *= 1099511628211
		}
	}
	return h
}
