package imagegen

import (
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// maxFilenameStem bounds the prompt-derived portion of a generated filename.
const maxFilenameStem = 48

// SanitizeFilename derives a safe filename stem from prompt text. Letters and
// digits are kept, runs of anything else collapse to a single underscore, and
// the result is lowercased and truncated. An empty or fully-stripped prompt
// yields "image".
func SanitizeFilename(prompt string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range prompt {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
		if b.Len() >= maxFilenameStem {
			break
		}
	}
	stem := strings.Trim(b.String(), "_")
	if stem == "" {
		return "image"
	}
	return stem
}

// ExtensionForFormat maps a decoded image format name to a file extension,
// defaulting to ".png" when the format is unknown.
func ExtensionForFormat(format string) string {
	switch format {
	case "jpeg":
		return ".jpg"
	case "png", "gif", "webp":
		return "." + format
	default:
		return ".png"
	}
}

// extensionFromContentType maps an HTTP Content-Type to a file extension.
func extensionFromContentType(contentType string) string {
	mediaType := contentType
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = mediaType[:i]
	}
	switch strings.TrimSpace(strings.ToLower(mediaType)) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

// truncateText shortens s for log output, appending an ellipsis when cut.
func truncateText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// parseRetryAfter interprets a Retry-After response header as a wait
// duration. Both delta-seconds and HTTP-date forms are accepted; zero is
// returned when the header is absent or malformed.
func parseRetryAfter(h http.Header) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if when, err := http.ParseTime(v); err == nil {
		if d := time.Until(when); d > 0 {
			return d
		}
	}
	return 0
}
