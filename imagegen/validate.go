package imagegen

import (
	"bytes"
	"image"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// DescribeImage decodes the image header and fills in the format and
// dimension metadata on a result. Undecodable bytes are not an error; the
// providers occasionally return formats the registry does not cover, and the
// image is still worth saving. The Format field is left empty in that case.
func DescribeImage(res *Result) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(res.Bytes))
	if err != nil {
		return
	}
	res.Metadata.Format = format
	res.Metadata.Width = cfg.Width
	res.Metadata.Height = cfg.Height
}

// SuggestFilename builds a filename for a result from its prompt and decoded
// format, with a timestamp to keep successive saves distinct.
func SuggestFilename(res *Result) string {
	stem := SanitizeFilename(res.Metadata.Prompt)
	ts := res.Metadata.GeneratedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return stem + "_" + ts.Format("20060102_150405") + ExtensionForFormat(res.Metadata.Format)
}
