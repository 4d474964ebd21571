package artifact

import (
	"path/filepath"
	"strings"
)

var mimeByExtension = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".wav":  "audio/wav",
	".txt":  "text/plain",
	".json": "application/json",
	".pdf":  "application/pdf",
}

// MimeTypeForName maps a file name to a MIME type by extension,
// falling back to application/octet-stream.
func MimeTypeForName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if mime, ok := mimeByExtension[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}
