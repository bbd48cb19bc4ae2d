package shutdown

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"bgforge/logging"
	"bgforge/persist"
)

// CleanupTempFiles returns a cleanup function that removes leftover
// in-progress write files from the backgrounds directory. A crash between
// temp write and rename is the only way such files appear.
//
// Individual removal failures are logged and do not block shutdown.
func CleanupTempFiles(logger *logging.Logger, dir string) CleanupFunc {
	return func(ctx context.Context) error {
		matches, err := filepath.Glob(persist.TempPattern(dir))
		if err != nil {
			logger.Warn("temp file scan failed", zap.Error(err))
			return nil
		}
		for _, path := range matches {
			select {
			case <-ctx.Done():
				logger.Warn("cleanup deadline reached, leaving remaining temp files")
				return nil
			default:
			}
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				logger.Warn("failed to remove temp file",
					zap.String("path", path), zap.Error(err))
				continue
			}
			logger.Debug("removed temp file", zap.String("path", path))
		}
		return nil
	}
}
