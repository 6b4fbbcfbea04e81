package recordstore

import (
	"net/url"
	"strings"
)

// Files resolves fetchable URLs for file fields.
type Files struct {
	BaseURL string
}

// URL returns {base}/api/files/{collection}/{id}/{filename}, or "" when the
// record has no file.
func (f Files) URL(rec Record, filename string) string {
	if filename == "" || rec.ID == "" {
		return ""
	}
	base := strings.TrimRight(f.BaseURL, "/")
	return base + "/api/files/" + url.PathEscape(rec.Collection) + "/" + url.PathEscape(rec.ID) + "/" + url.PathEscape(filename)
}
