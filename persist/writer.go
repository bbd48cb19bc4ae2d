// Package persist writes approved images to the host application's
// backgrounds directory. Writes go through a temp file and a rename so a
// crash mid-write never leaves a partial image behind, and the whole package
// honors dry-run mode by simulating the write instead of performing it.
package persist

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"bgforge/core"
	"bgforge/logging"
)

// tempPrefix marks in-progress writes so leftover temp files from a crashed
// run can be found and removed on the next start.
const tempPrefix = "temp_"

// imageFileMode is the permission for saved images. World-readable: these are
// wallpaper files, not secrets.
const imageFileMode = 0o644

// SaveResult reports where an image ended up.
type SaveResult struct {
	Path   string // final absolute path (simulated path in dry-run)
	Size   int64  // bytes written (length of data in dry-run)
	DryRun bool
}

// Writer persists image bytes into a target directory.
type Writer struct {
	dir    string
	dryRun bool
	logger *logging.Logger
}

// NewWriter creates a Writer targeting dir. When dryRun is set, Save performs
// no filesystem operations at all.
func NewWriter(dir string, dryRun bool, logger *logging.Logger) *Writer {
	return &Writer{dir: dir, dryRun: dryRun, logger: logger.Named("persist")}
}

// Dir returns the target directory.
func (w *Writer) Dir() string { return w.dir }

// Save writes data to filename inside the target directory. The bytes land in
// a temp file first and are renamed into place only after a successful write
// and sync, so readers of the directory never observe a partial image.
//
// In dry-run mode Save returns the path the image would have been written to
// without touching the filesystem.
func (w *Writer) Save(filename string, data []byte) (*SaveResult, error) {
	finalPath := filepath.Join(w.dir, filename)

	if w.dryRun {
		w.logger.Info("dry-run: skipping image write",
			zap.String("path", finalPath),
			zap.Int("size", len(data)))
		return &SaveResult{Path: finalPath, Size: int64(len(data)), DryRun: true}, nil
	}

	if info, err := os.Stat(w.dir); err != nil {
		return nil, core.ErrTargetDirMissing(w.dir, err)
	} else if !info.IsDir() {
		return nil, core.ErrTargetDirMissing(w.dir, fmt.Errorf("not a directory"))
	}

	tempPath := filepath.Join(w.dir, tempPrefix+filename)
	if err := w.writeTemp(tempPath, data); err != nil {
		// Leave nothing behind; the original error is what the caller sees.
		os.Remove(tempPath)
		return nil, err
	}

	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return nil, &core.FilesystemError{
			Op:     "rename",
			Path:   finalPath,
			Action: "Check permissions on the backgrounds directory",
			Err:    err,
		}
	}

	w.logger.Info("image saved",
		zap.String("path", finalPath),
		zap.Int("size", len(data)))
	return &SaveResult{Path: finalPath, Size: int64(len(data))}, nil
}

// writeTemp writes data to tempPath and syncs it to stable storage.
func (w *Writer) writeTemp(tempPath string, data []byte) error {
	f, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, imageFileMode)
	if err != nil {
		return &core.FilesystemError{
			Op:     "create",
			Path:   tempPath,
			Action: "Check permissions on the backgrounds directory",
			Err:    err,
		}
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return &core.FilesystemError{Op: "write", Path: tempPath, Err: err}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return &core.FilesystemError{Op: "sync", Path: tempPath, Err: err}
	}
	if err := f.Close(); err != nil {
		return &core.FilesystemError{Op: "close", Path: tempPath, Err: err}
	}
	return nil
}

// TempPattern returns the glob that matches in-progress write files in dir.
// Used by shutdown cleanup.
func TempPattern(dir string) string {
	return filepath.Join(dir, tempPrefix+"*")
}
