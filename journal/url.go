package journal

import (
	"mime"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rpupo63/our-little-infinity/errs"
	"github.com/rpupo63/our-little-infinity/models"
	"github.com/rpupo63/our-little-infinity/storage"
)

// MaxFileSize is the largest upload accepted for a file block.
const MaxFileSize int64 = 20 << 20

var schemePrefix = regexp.MustCompile(`^[a-zA-Z][a-zA-Z\d+\-.]*://`)

// hostSchemes are the schemes whose URLs are invalid without a host.
// Others, file:///path for one, may leave it empty.
var hostSchemes = map[string]bool{"http": true, "https": true, "ftp": true, "ws": true, "wss": true}

// NormalizeURL trims raw, prepends https:// when it has no scheme and checks
// that the result is an absolute URL.
func NormalizeURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errs.NewInvalidURLError(raw)
	}

	if !schemePrefix.MatchString(trimmed) {
		trimmed = "https://" + trimmed
	}

	u, err := url.Parse(trimmed)
	if err != nil || !u.IsAbs() || (hostSchemes[strings.ToLower(u.Scheme)] && u.Host == "") {
		return "", errs.NewInvalidURLError(raw)
	}
	return trimmed, nil
}

// StoragePathFromURL returns the media bucket key of a public file URL.
func StoragePathFromURL(rawURL string) (string, bool) {
	return storage.KeyFromURL(rawURL, storage.DefaultBucket)
}

// CheckFileSize rejects uploads above MaxFileSize.
func CheckFileSize(size int64) error {
	if size > MaxFileSize {
		return errs.NewFileTooLargeError(size, MaxFileSize)
	}
	return nil
}

// BlockKindForUpload picks the block type for an uploaded file: image/* is
// an image, application/pdf or a .pdf name is a pdf.
func BlockKindForUpload(filename, contentType string) (models.BlockType, error) {
	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = parsed
	}

	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return models.BlockTypeImage, nil
	case mediaType == "application/pdf", strings.EqualFold(filepath.Ext(filename), ".pdf"):
		return models.BlockTypePDF, nil
	default:
		return "", errs.NewUnsupportedMediaTypeError(contentType, []string{"image/*", "application/pdf"})
	}
}

func uploadExtension(filename string) string {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ext == "" {
		return "bin"
	}
	return strings.ToLower(ext)
}

func optionalText(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

func trimmedOptional(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
