package imagegen

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"bgforge/core"
)

// maxDownloadBytes caps how much image data a URL download will accept.
const maxDownloadBytes = 64 << 20 // 64 MiB

// DownloadBytes fetches the content behind url, typically a short-lived image
// URL handed back by a provider. Failures are classified through the shared
// error taxonomy so the retry policy treats them like any other attempt
// failure.
func DownloadBytes(ctx context.Context, client *http.Client, service, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("imagegen: build download request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, core.ClassifyTransport(service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, core.ClassifyHTTPStatus(service, resp.StatusCode,
			fmt.Sprintf("image download failed: %s", truncateText(string(body), 200)),
			parseRetryAfter(resp.Header))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, core.ClassifyTransport(service, err)
	}
	if len(data) > maxDownloadBytes {
		return nil, fmt.Errorf("imagegen: downloaded image exceeds %d bytes", maxDownloadBytes)
	}
	if len(data) == 0 {
		return nil, &core.NetworkError{Service: service, Message: "image download returned no data"}
	}
	return data, nil
}
