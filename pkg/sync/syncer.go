package sync

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/gifttotost1449/huggingface-sync/pkg/errors"
	"github.com/gifttotost1449/huggingface-sync/pkg/hub"
)

// A Syncer mirrors one space at a time into its local directory.
type Syncer struct {
	Hub hub.Client
}

// Sync brings the mirror directory for the space up to date with the
// remote tree and reports what it changed. A returned error means the
// directory may be partially updated; the next run's diff reconciles it.
func (s Syncer) Sync(ctx context.Context, token string, space hub.Space, dir string) (
	Result, error) {

	entries, err := s.Hub.ListTree(ctx, token, space)
	if err != nil {
		return Result{}, errors.WithContext(err, "list tree")
	}
	remote := SnapshotRemote(entries)

	firstSync, err := afero.DirExists(fs, dir)
	if err != nil {
		return Result{}, errors.WithContext(err, "check mirror directory")
	}
	firstSync = !firstSync

	local, err := SnapshotLocal(dir, remote)
	if err != nil {
		return Result{}, err
	}

	toWrite, toRemove := remote.Diff(local)
	res := Result{FirstSync: firstSync}

	if err := fs.MkdirAll(dir, 0755); err != nil {
		return res, errors.WithContext(err, "make mirror directory")
	}

	for _, path := range toWrite {
		written, err := s.writeFile(ctx, token, space, dir, path, remote[path])
		if err != nil {
			return res, errors.WithContext(err, fmt.Sprintf("write %s", path))
		}
		res.FilesWritten++
		res.BytesWritten += written
	}

	for _, path := range toRemove {
		if err := removeFile(dir, path); err != nil {
			return res, errors.WithContext(err, fmt.Sprintf("remove %s", path))
		}
		res.FilesRemoved++
	}

	if res.FilesWritten > 0 || res.FilesRemoved > 0 {
		log.WithFields(log.Fields{
			"space":   space.ID(),
			"written": res.FilesWritten,
			"removed": res.FilesRemoved,
		}).Info("Synced space")
	}
	return res, nil
}

// writeFile downloads one file into place. The contents are staged in a
// temporary file in the destination directory and renamed over the final
// path, so a crash mid-download never leaves a truncated file behind.
func (s Syncer) writeFile(ctx context.Context, token string, space hub.Space,
	dir, path string, expected FileAttributes) (int64, error) {

	dst := filepath.Join(dir, filepath.FromSlash(path))
	parent := filepath.Dir(dst)
	if err := fs.MkdirAll(parent, 0755); err != nil {
		return 0, errors.WithContext(err, "make parent")
	}

	body, err := s.Hub.Download(ctx, token, space, path)
	if err != nil {
		return 0, errors.WithContext(err, "download")
	}
	defer body.Close()

	staged, err := afero.TempFile(fs, parent, ".hfsync-")
	if err != nil {
		return 0, errors.WithContext(err, "stage")
	}

	written, err := io.Copy(staged, body)
	closeErr := staged.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		removeStaged(staged.Name())
		return 0, errors.WithContext(err, "copy contents")
	}

	// Verify what actually hit the disk. A mismatch means the file changed
	// on the remote between the tree listing and the download, so the
	// caller should retry with a fresh listing.
	actual, err := HashFile(staged.Name(), expected.Size, expected.LFS)
	if err != nil {
		removeStaged(staged.Name())
		return 0, err
	}
	if written != expected.Size || actual != expected.ContentsHash {
		removeStaged(staged.Name())
		return 0, errors.ErrContentChanged
	}

	if err := fs.Rename(staged.Name(), dst); err != nil {
		removeStaged(staged.Name())
		return 0, errors.WithContext(err, "move into place")
	}
	return written, nil
}

func removeStaged(path string) {
	if err := fs.Remove(path); err != nil {
		log.WithError(err).WithField("path", path).Warn(
			"Failed to clean up staged file. This won't affect future syncs.")
	}
}

// removeFile deletes an obsolete mirror file and prunes any directories
// that become empty, up to (but not including) the space directory.
func removeFile(dir, path string) error {
	if err := fs.Remove(filepath.Join(dir, filepath.FromSlash(path))); err != nil {
		return err
	}

	for parent := filepath.Dir(filepath.Join(dir, filepath.FromSlash(path))); parent != dir; {
		empty, err := afero.IsEmpty(fs, parent)
		if err != nil || !empty {
			break
		}
		if err := fs.Remove(parent); err != nil {
			break
		}
		parent = filepath.Dir(parent)
	}
	return nil
}
