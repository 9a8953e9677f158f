package sync

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/gifttotost1449/huggingface-sync/pkg/errors"
	"github.com/gifttotost1449/huggingface-sync/pkg/hub"
)

// Mocked out for unit testing.
var fs = afero.NewOsFs()

// FileAttributes contains the metadata used to compare whether the local
// and remote copy of a file are equal.
type FileAttributes struct {
	// Size is the file size in bytes.
	Size int64

	// ContentsHash identifies the file contents. For regular files it is
	// the git blob id; for LFS entries it is the sha256 of the contents.
	ContentsHash string

	// LFS marks entries stored in large-file storage. It selects which
	// hash is computed for the local copy and is not part of equality.
	LFS bool
}

// Equal returns whether the two files are equal, i.e. whether a sync of
// this path is necessary.
func (f FileAttributes) Equal(other FileAttributes) bool {
	return f.Size == other.Size && f.ContentsHash == other.ContentsHash
}

// RemoteSnapshot is the current remote file tree, keyed by relative path.
type RemoteSnapshot map[string]FileAttributes

// LocalSnapshot is the state of the on-disk mirror, keyed by relative path.
type LocalSnapshot map[string]FileAttributes

// SnapshotRemote converts a tree listing into a RemoteSnapshot. Non-file
// entries are dropped.
func SnapshotRemote(entries []hub.TreeEntry) RemoteSnapshot {
	snapshot := RemoteSnapshot{}
	for _, entry := range entries {
		if entry.Type != "file" {
			continue
		}

		attrs := FileAttributes{Size: entry.Size, ContentsHash: entry.OID}
		if entry.LFS != nil {
			attrs = FileAttributes{
				Size:         entry.LFS.Size,
				ContentsHash: entry.LFS.OID,
				LFS:          true,
			}
		}
		snapshot[filepath.ToSlash(entry.Path)] = attrs
	}
	return snapshot
}

// SnapshotLocal walks the mirror directory at dir and hashes each file the
// same way the remote identifies it, so that the two snapshots are directly
// comparable. A missing directory yields an empty snapshot, which is how a
// first-time sync presents itself.
func SnapshotLocal(dir string, remote RemoteSnapshot) (LocalSnapshot, error) {
	snapshot := LocalSnapshot{}

	exists, err := afero.DirExists(fs, dir)
	if err != nil {
		return nil, errors.WithContext(err, "check mirror directory")
	}
	if !exists {
		return snapshot, nil
	}

	err = afero.Walk(fs, dir, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}

		relativePath, err := filepath.Rel(dir, path)
		if err != nil {
			return errors.WithContext(err, "normalize path")
		}
		relativePath = filepath.ToSlash(relativePath)

		contentsHash, err := HashFile(path, fi.Size(), remote[relativePath].LFS)
		if err != nil {
			return err
		}

		snapshot[relativePath] = FileAttributes{
			Size:         fi.Size(),
			ContentsHash: contentsHash,
			LFS:          remote[relativePath].LFS,
		}
		return nil
	})
	if err != nil {
		return nil, errors.WithContext(err, "walk mirror directory")
	}
	return snapshot, nil
}

// Diff returns the file operations needed to make the local mirror match
// the remote tree. Both lists are sorted so that apply order, and therefore
// partial-failure state, is deterministic.
func (remote RemoteSnapshot) Diff(local LocalSnapshot) (toWrite, toRemove []string) {
	for path, exp := range remote {
		if curr, ok := local[path]; !ok || !curr.Equal(exp) {
			toWrite = append(toWrite, path)
		}
	}

	for path := range local {
		if _, ok := remote[path]; !ok {
			toRemove = append(toRemove, path)
		}
	}

	sort.Strings(toWrite)
	sort.Strings(toRemove)
	return
}

// HashFile hashes the file at path the way the Hub identifies it: as a git
// blob for regular files, or as a plain sha256 for LFS contents.
func HashFile(path string, size int64, lfs bool) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", errors.WithContext(err, "open")
	}
	defer f.Close()

	var hasher hash.Hash
	if lfs {
		hasher = sha256.New()
	} else {
		hasher = sha1.New()
		fmt.Fprintf(hasher, "blob %d\x00", size)
	}

	if _, err := io.Copy(hasher, f); err != nil {
		return "", errors.WithContext(err, "read")
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
