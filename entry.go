package bucketkit

import (
	"path"
	"time"
)

// EntryType distinguishes the two FileEntry variants.
type EntryType string

const (
	// EntryFile marks a regular file entry.
	EntryFile EntryType = "file"
	// EntryDirectory marks a directory entry.
	EntryDirectory EntryType = "directory"
)

// FileEntry describes one file or directory inside a bucket. Entries are
// value objects rehydrated on every call, never cached: the Exists flag is
// authoritative only immediately after the call that produced it.
type FileEntry struct {
	Path        string
	Name        string
	Exists      bool
	Type        EntryType
	Size        int64  // files only
	ContentType string // files only
	ModTime     time.Time
	Bucket      *Bucket
}

// IsDir reports whether the entry is a directory.
func (e *FileEntry) IsDir() bool {
	return e.Type == EntryDirectory
}

// StoragePath implements PathRef.
func (e *FileEntry) StoragePath() string {
	return e.Path
}

// URI returns the canonical file URI for this entry, or "" when the entry
// is not attached to a bucket.
func (e *FileEntry) URI() string {
	if e.Bucket == nil {
		return ""
	}
	return e.Bucket.URI(e.Path)
}

// PathRef addresses an entry either by plain path or by a previously
// hydrated FileEntry; every public operation accepts either form and
// normalizes to a path internally.
type PathRef interface {
	StoragePath() string
}

// Path is the plain-string PathRef.
type Path string

// StoragePath implements PathRef.
func (p Path) StoragePath() string {
	return string(p)
}

// refPath extracts the raw path from a PathRef, tolerating nil.
func refPath(ref PathRef) string {
	if ref == nil {
		return ""
	}
	return ref.StoragePath()
}

// refBucket returns the bucket a PathRef is pinned to, or nil for plain
// paths. A FileEntry carrying a bucket back-reference addresses that
// bucket, which is how cross-bucket destinations are expressed.
func refBucket(ref PathRef) *Bucket {
	if e, ok := ref.(*FileEntry); ok {
		return e.Bucket
	}
	return nil
}

// entryName returns the last path segment, "" for the root.
func entryName(p string) string {
	if p == "" {
		return ""
	}
	return path.Base(p)
}

// parentDir returns the parent directory of p, "" for top-level paths.
func parentDir(p string) string {
	d := path.Dir(p)
	if d == "." || d == "/" {
		return ""
	}
	return d
}

// joinPath joins two normalized paths, treating "" as the root.
func joinPath(base, rel string) string {
	switch {
	case base == "":
		return rel
	case rel == "":
		return base
	default:
		return base + "/" + rel
	}
}
