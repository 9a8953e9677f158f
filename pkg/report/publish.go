package report

import (
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/gifttotost1449/huggingface-sync/pkg/errors"
)

// Mocked out for unit testing.
var fs = afero.NewOsFs()

// Publish writes the rendered report to path, replacing any previous
// report. The document is staged next to the final path and renamed into
// place so readers never observe a half-written report.
func Publish(r Report, path string) error {
	parent := filepath.Dir(path)
	if err := fs.MkdirAll(parent, 0755); err != nil {
		return errors.WithContext(err, "make report directory")
	}

	staged, err := afero.TempFile(fs, parent, ".report-")
	if err != nil {
		return errors.WithContext(err, "stage report")
	}

	_, err = staged.WriteString(r.Render())
	closeErr := staged.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		fs.Remove(staged.Name())
		return errors.WithContext(err, "write report")
	}

	if err := fs.Rename(staged.Name(), path); err != nil {
		fs.Remove(staged.Name())
		return errors.WithContext(err, "move report into place")
	}
	return nil
}
