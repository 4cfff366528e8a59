package bucketkit

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// Extensions whose MIME type the stdlib tables handle poorly or not at
// all across platforms.
var extensionToMIME = map[string]string{
	".txt":   "text/plain",
	".md":    "text/markdown",
	".csv":   "text/csv",
	".json":  "application/json",
	".xml":   "application/xml",
	".yaml":  "application/yaml",
	".yml":   "application/yaml",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".png":   "image/png",
	".gif":   "image/gif",
	".svg":   "image/svg+xml",
	".webp":  "image/webp",
	".mp3":   "audio/mpeg",
	".mp4":   "video/mp4",
	".webm":  "video/webm",
	".pdf":   "application/pdf",
	".zip":   "application/zip",
	".gz":    "application/gzip",
	".tar":   "application/x-tar",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".ttf":   "font/ttf",
}

// GuessContentType determines a file's MIME type from its extension,
// falling back to content sniffing when the extension is unknown.
// Drivers use it when a write carries no explicit content type.
func GuessContentType(path string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(path))
	if contentType, ok := extensionToMIME[ext]; ok {
		return contentType
	}
	if contentType := mime.TypeByExtension(ext); contentType != "" {
		return contentType
	}
	if len(data) > 0 {
		return http.DetectContentType(data)
	}
	return "application/octet-stream"
}
