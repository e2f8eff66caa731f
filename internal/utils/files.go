package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TimestampLayout is the suffix format of downloaded artifacts.
const TimestampLayout = "20060102_150405"

// ArtifactName builds "{artifact}_{YYYYMMDD_HHMMSS}.{ext}".
func ArtifactName(artifact, ext string, t time.Time) string {
	return fmt.Sprintf("%s_%s.%s", artifact, t.Format(TimestampLayout), strings.TrimPrefix(ext, "."))
}

// SafeWriteFile writes data to a temp file and atomically renames it into place.
// Missing parent directories are created.
func SafeWriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}

// PrettyJSON marshals a value as indented JSON.
func PrettyJSON(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return b, nil
}

// UniqueName returns base+ext, or base__2+ext, base__3+ext and so on when the
// name is already in use. The chosen name is recorded in used.
func UniqueName(base, ext string, used map[string]int) string {
	key := base + ext
	n := used[key]
	used[key] = n + 1
	if n == 0 {
		return key
	}
	name := fmt.Sprintf("%s__%d%s", base, n+1, ext)
	for used[name] > 0 {
		n++
		name = fmt.Sprintf("%s__%d%s", base, n+1, ext)
	}
	used[name] = 1
	return name
}
