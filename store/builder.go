package store

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/parc-ccnx/ccnx-go/ccnx"
)

// BuildFromDir walks dir, builds a manifest tree for every regular file it
// finds (a signed root manifest named prefix/<relative-path>/CHUNK=0, with
// unsigned internal manifests and data chunks referenced from it by hash),
// and returns a frozen ContentStore holding every object of every tree,
// ready for concurrent lookup. chunkSize is the byte budget of each content
// object in a tree.
func BuildFromDir(dir string, prefix ccnx.Name, signer ccnx.Signer, chunkSize int, cache *DirCache) (*ContentStore, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("store: chunk_size must be > 0")
	}
	keyID, err := signer.KeyID()
	if err != nil {
		return nil, fmt.Errorf("store: signer key id: %w", err)
	}
	store := NewContentStore(keyID)

	entries, err := scanDir(dir, cache)
	if err != nil {
		return nil, fmt.Errorf("store: scan %s: %w", dir, err)
	}

	for _, entry := range entries {
		name, err := nameForPath(prefix, entry.relPath)
		if err != nil {
			return nil, fmt.Errorf("store: name for %s: %w", entry.relPath, err)
		}
		objs, err := buildManifestTree(dir, entry.relPath, name, signer, chunkSize)
		if err != nil {
			return nil, fmt.Errorf("store: sign %s: %w", entry.relPath, err)
		}
		for _, co := range objs {
			if err := store.Add(co); err != nil {
				return nil, err
			}
		}
	}
	return store, nil
}

type dirEntry struct {
	relPath string
	size    int64
	modTime int64
}

// scanDir walks dir for regular files. If cache is non-nil and holds a
// listing for dir, that listing is returned without walking; it is not
// compared with the directory's current contents.
func scanDir(dir string, cache *DirCache) ([]dirEntry, error) {
	if cache != nil {
		if cached, ok := cache.Load(dir); ok {
			return cached, nil
		}
	}

	var entries []dirEntry
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		entries = append(entries, dirEntry{
			relPath: filepath.ToSlash(rel),
			size:    info.Size(),
			modTime: info.ModTime().UnixNano(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].relPath < entries[j].relPath })

	if cache != nil {
		if err := cache.Store(dir, entries); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func nameForPath(prefix ccnx.Name, relPath string) (ccnx.Name, error) {
	name := ccnx.NewName(prefix.Segments())
	for _, seg := range strings.Split(relPath, "/") {
		if seg == "" {
			continue
		}
		name.AddSegment(ccnx.TNameSeg, []byte(seg))
	}
	return name, nil
}

// buildManifestTree signs and chunks one served file into a full manifest
// tree (root manifest at CHUNK=0, signed; internal manifests and data
// chunks beneath it, hash-referenced per §4.6) and returns every content
// object in the tree for the caller to index.
func buildManifestTree(dir, relPath string, name ccnx.Name, signer ccnx.Signer, chunkSize int) ([]*ccnx.Message, error) {
	path := filepath.Join(dir, filepath.FromSlash(relPath))
	if filepath.Base(path) == "" || strings.Contains(relPath, "..") {
		return nil, fmt.Errorf("invalid relative path %q", relPath)
	}
	data, err := os.ReadFile(path) // #nosec G304 -- relPath is produced by our own directory walk of an operator-controlled --dir, not external input.
	if err != nil {
		return nil, err
	}

	tree := ccnx.NewManifestTreeForName(name, data, chunkSize, signer)
	root, err := tree.CreateTree()
	if err != nil {
		return nil, fmt.Errorf("build manifest tree: %w", err)
	}
	return tree.AllContentObjects(root)
}
