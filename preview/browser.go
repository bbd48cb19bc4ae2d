// Package preview shows a generated image to the user before they approve
// it. The image never touches its final destination at this stage: it is
// embedded into a throwaway HTML page under the system temp directory and
// opened with the platform browser launcher.
package preview

import (
	"encoding/base64"
	"fmt"
	"html/template"
	"os"
	"os/exec"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"bgforge/imagegen"
	"bgforge/logging"
)

var previewPage = template.Must(template.New("preview").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Preview: {{.Prompt}}</title>
<style>
body { margin: 0; background: #1e1e1e; color: #ddd; font-family: sans-serif; }
header { padding: 12px 16px; font-size: 14px; }
img { display: block; max-width: 100vw; max-height: 85vh; margin: 0 auto; }
</style>
</head>
<body>
<header>{{.Service}} &mdash; {{.Prompt}}{{if .Dimensions}} ({{.Dimensions}}){{end}}</header>
<img src="data:{{.MIME}};base64,{{.Data}}" alt="generated image">
</body>
</html>
`))

// Browser previews images by writing a temp HTML page and launching the
// system browser at it.
type Browser struct {
	logger *logging.Logger

	mu    sync.Mutex
	files []string
}

// NewBrowser creates a browser-based previewer.
func NewBrowser(logger *logging.Logger) *Browser {
	return &Browser{logger: logger.Named("preview")}
}

// Show renders the result into a temp HTML page and opens it. The page file
// is tracked for Cleanup. Failure to launch a browser is returned to the
// caller, who may treat the preview as best-effort.
func (b *Browser) Show(res *imagegen.Result) error {
	path, err := b.writePage(res)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.files = append(b.files, path)
	b.mu.Unlock()

	b.logger.Debug("opening preview", zap.String("path", path))
	return openInBrowser(path)
}

// writePage renders the preview HTML to a unique temp file.
func (b *Browser) writePage(res *imagegen.Result) (string, error) {
	f, err := os.CreateTemp("", "bgforge_preview_*.html")
	if err != nil {
		return "", fmt.Errorf("preview: create temp page: %w", err)
	}

	data := struct {
		Prompt     string
		Service    string
		Dimensions string
		MIME       string
		Data       string
	}{
		Prompt:  res.Metadata.Prompt,
		Service: res.Metadata.Service,
		MIME:    mimeForFormat(res.Metadata.Format),
		Data:    base64.StdEncoding.EncodeToString(res.Bytes),
	}
	if res.Metadata.Width > 0 {
		data.Dimensions = fmt.Sprintf("%dx%d", res.Metadata.Width, res.Metadata.Height)
	}

	if err := previewPage.Execute(f, data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("preview: render page: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("preview: close page: %w", err)
	}
	return f.Name(), nil
}

// Cleanup removes every preview page written so far. Safe to call more than
// once.
func (b *Browser) Cleanup() {
	b.mu.Lock()
	files := b.files
	b.files = nil
	b.mu.Unlock()

	for _, f := range files {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			b.logger.Warn("failed to remove preview page",
				zap.String("path", f), zap.Error(err))
		}
	}
}

// mimeForFormat maps a decoded format name to a data-URI MIME type.
func mimeForFormat(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "image/png"
	}
}

// openInBrowser launches the platform's default handler for path.
func openInBrowser(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("preview: launch browser: %w", err)
	}
	// Detach; the browser outlives this process's interest in it.
	go cmd.Wait()
	return nil
}

// PageCount reports how many preview pages are awaiting cleanup.
func (b *Browser) PageCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.files)
}
