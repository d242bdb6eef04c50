package browser

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lflfm/pys3b/s3/s3types"
)

// sizeUnitFactors maps size unit names to byte multipliers.
var sizeUnitFactors = map[string]int64{
	"B":  1,
	"KB": 1024,
	"MB": 1024 * 1024,
	"GB": 1024 * 1024 * 1024,
}

// FormatSize renders a byte count for display, e.g. "512 B" or "1.2 MB".
// Negative sizes render as zero.
func FormatSize(size int64) string {
	suffixes := []string{"B", "KB", "MB", "GB", "TB"}
	value := float64(size)
	if value < 0 {
		value = 0
	}
	for i, suffix := range suffixes {
		if value < 1024 || i == len(suffixes)-1 {
			if suffix == "B" {
				return fmt.Sprintf("%d %s", int64(value), suffix)
			}
			return fmt.Sprintf("%.1f %s", value, suffix)
		}
		value /= 1024
	}
	return fmt.Sprintf("%d B", size)
}

// SplitSizeBytes decomposes a byte count into the largest unit that divides
// it evenly, for populating amount/unit input pairs. Non-positive sizes
// yield the "1 MB" placeholder.
func SplitSizeBytes(size int64) (string, string) {
	if size <= 0 {
		return "1", "MB"
	}
	for _, unit := range []string{"GB", "MB", "KB"} {
		factor := sizeUnitFactors[unit]
		if size >= factor && size%factor == 0 {
			return strconv.FormatInt(size/factor, 10), unit
		}
	}
	return strconv.FormatInt(size, 10), "B"
}

// ParseSizeBytes converts an amount/unit input pair into bytes.
// Returns an error for non-numeric or non-positive amounts and unknown units.
func ParseSizeBytes(value, unit string) (int64, error) {
	amount, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, errors.New("browser: size must be a whole number")
	}
	if amount <= 0 {
		return 0, errors.New("browser: size must be greater than zero")
	}
	factor, ok := sizeUnitFactors[strings.ToUpper(strings.TrimSpace(unit))]
	if !ok {
		return 0, fmt.Errorf("browser: unknown size unit %q", unit)
	}
	return amount * factor, nil
}

// FormatLastModified renders an object timestamp for display.
// The zero time renders as "-".
func FormatLastModified(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05 MST")
}

// ComposeKey joins a prefix and an object name into a full key.
// The prefix loses leading slashes and gains a trailing one; the name must
// be non-empty after trimming.
func ComposeKey(prefix, name string) (string, error) {
	keyName := strings.TrimSpace(name)
	if keyName == "" {
		return "", errors.New("browser: object name cannot be empty")
	}
	cleaned := strings.TrimLeft(strings.TrimSpace(prefix), "/")
	if cleaned != "" && !strings.HasSuffix(cleaned, "/") {
		cleaned += "/"
	}
	return cleaned + keyName, nil
}

// SuggestFilename derives a local file name from an object key,
// falling back to "local-file" for keys that are all prefix.
func SuggestFilename(key string) string {
	cleaned := strings.TrimRight(strings.TrimSpace(key), "/")
	if cleaned == "" {
		return "local-file"
	}
	if idx := strings.LastIndex(cleaned, "/"); idx >= 0 {
		cleaned = cleaned[idx+1:]
	}
	if cleaned == "" {
		return "local-file"
	}
	return cleaned
}

// SignedURLCommands builds wget and curl command lines for using a
// presigned URL. POST has no wget form and returns only curl, with the key
// field first and the remaining form fields sorted.
type SignedURLCommands struct {
	Wget string
	Curl string
}

// CommandsForPresign renders shell commands for the given presign result.
// filename is the suggested local file for GET and the source file for PUT.
func CommandsForPresign(
	method s3types.PresignMethod,
	result *s3types.PresignResult,
	filename, contentType, contentDisposition string,
) SignedURLCommands {
	switch method {
	case s3types.PresignGet:
		return SignedURLCommands{
			Wget: fmt.Sprintf("wget %q -O %q", result.URL, filename),
			Curl: fmt.Sprintf("curl -L %q -o %q", result.URL, filename),
		}

	case s3types.PresignPost:
		parts := []string{"curl", "-X", "POST"}
		for _, key := range orderedPostFields(result.Fields) {
			parts = append(parts, fmt.Sprintf("-F %q", key+"="+result.Fields[key]))
		}
		parts = append(parts, `-F "file=@PATH_TO_FILE"`, fmt.Sprintf("%q", result.URL))
		return SignedURLCommands{Curl: strings.Join(parts, " ")}

	default: // PUT
		var headers [][2]string
		if contentType != "" {
			headers = append(headers, [2]string{"Content-Type", contentType})
		}
		if contentDisposition != "" {
			headers = append(headers, [2]string{"Content-Disposition", contentDisposition})
		}

		wgetParts := []string{"wget", "--method=PUT", fmt.Sprintf("--body-file=%q", filename)}
		curlParts := []string{"curl", fmt.Sprintf("-T %q", filename)}
		for _, h := range headers {
			wgetParts = append(wgetParts, fmt.Sprintf("--header=%q", h[0]+": "+h[1]))
			curlParts = append(curlParts, fmt.Sprintf("-H %q", h[0]+": "+h[1]))
		}
		wgetParts = append(wgetParts, fmt.Sprintf("%q", result.URL))
		curlParts = append(curlParts, fmt.Sprintf("%q", result.URL))
		return SignedURLCommands{
			Wget: strings.Join(wgetParts, " "),
			Curl: strings.Join(curlParts, " "),
		}
	}
}

// orderedPostFields returns field names with "key" first and the rest sorted.
func orderedPostFields(fields map[string]string) []string {
	ordered := make([]string, 0, len(fields))
	if _, ok := fields["key"]; ok {
		ordered = append(ordered, "key")
	}
	rest := make([]string, 0, len(fields))
	for name := range fields {
		if name != "key" {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(ordered, rest...)
}
