package knowledge

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultMaxFileSize is the largest knowledge file indexed (1 MB).
const DefaultMaxFileSize int64 = 1 << 20

// File is a knowledge file selected for indexing.
type File struct {
	Path        string // absolute path on disk
	RelPath     string // slash-separated path relative to the root
	Size        int64
	ContentHash string
}

// WalkOptions controls which files Walk returns.
type WalkOptions struct {
	Root        string
	Include     []string // empty includes everything
	Exclude     []string
	MaxFileSize int64
}

// Walk returns the text files under opts.Root that match the include
// patterns and none of the exclude patterns. Binary and oversized files
// are skipped.
func Walk(opts WalkOptions) ([]File, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("knowledge: resolve root: %w", err)
	}
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("knowledge: %w", err)
	}

	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	var files []File
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Skip entries we cannot read instead of aborting.
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if relPath != "." && dirExcluded(relPath, opts.Exclude) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		if len(opts.Include) > 0 && !matchesAny(relPath, opts.Include) {
			return nil
		}
		if matchesAny(relPath, opts.Exclude) {
			return nil
		}

		info, err := d.Info()
		if err != nil || info.Size() > maxSize {
			return nil
		}
		if isBinary(path) {
			return nil
		}

		hash, err := hashFile(path)
		if err != nil {
			return nil
		}

		files = append(files, File{
			Path:        path,
			RelPath:     relPath,
			Size:        info.Size(),
			ContentHash: hash,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("knowledge: traversal: %w", err)
	}
	return files, nil
}

// matchesAny reports whether relPath matches any doublestar pattern, either
// as a full path or by its base name.
func matchesAny(relPath string, patterns []string) bool {
	base := filepath.Base(relPath)
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		if ok, err := doublestar.Match(pattern, relPath); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}

// dirExcluded reports whether every file under dir would be excluded, so
// the walk can skip the subtree. "vendor/**" excludes "vendor".
func dirExcluded(dir string, patterns []string) bool {
	sample := dir + "/_"
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(filepath.ToSlash(pattern), sample); err == nil && ok && strings.HasSuffix(pattern, "/**") {
			return true
		}
	}
	return false
}

// isBinary checks the first 512 bytes for NUL.
func isBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return true
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return true
	}
	for _, b := range buf[:n] {
		if b == 0 {
			return true
		}
	}
	return false
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
