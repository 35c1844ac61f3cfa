package constants

import "strings"

// MediaTypePDF is the only media type the pipeline accepts.
const MediaTypePDF = "application/pdf"

// AllowedExtensions holds the default file extensions picked up by batch ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// MediaTypeForExt maps a file extension to the media type declared to the extractor.
func MediaTypeForExt(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return MediaTypePDF
	default:
		return ""
	}
}
