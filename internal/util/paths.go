package util

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GetUploadPath returns the storage key for a new upload:
// <dir>/<unix-ms>-<uuid><ext>
func GetUploadPath(dir string, at time.Time, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return path.Join(dir, fmt.Sprintf("%d-%s%s", at.UnixMilli(), uuid.NewString(), strings.ToLower(ext)))
}

// FormatOf returns the lowercase extension of a storage key without the dot
func FormatOf(key string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(key), "."))
}
