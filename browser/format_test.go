package browser

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lflfm/pys3b/s3/s3types"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		name string
		size int64
		want string
	}{
		{"zero", 0, "0 B"},
		{"negative", -5, "0 B"},
		{"bytes", 512, "512 B"},
		{"kilobytes", 2048, "2.0 KB"},
		{"megabytes", 5 * 1024 * 1024, "5.0 MB"},
		{"fractional_megabytes", 1536 * 1024, "1.5 MB"},
		{"gigabytes", 3 * 1024 * 1024 * 1024, "3.0 GB"},
		{"terabytes", 2 * 1024 * 1024 * 1024 * 1024, "2.0 TB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatSize(tt.size))
		})
	}
}

func TestSplitSizeBytes(t *testing.T) {
	tests := []struct {
		name       string
		size       int64
		wantAmount string
		wantUnit   string
	}{
		{"zero_placeholder", 0, "1", "MB"},
		{"negative_placeholder", -1, "1", "MB"},
		{"exact_gigabytes", 2 * 1024 * 1024 * 1024, "2", "GB"},
		{"exact_megabytes", 100 * 1024 * 1024, "100", "MB"},
		{"exact_kilobytes", 64 * 1024, "64", "KB"},
		{"odd_bytes", 1000, "1000", "B"},
		{"just_over_a_megabyte", 1024*1024 + 1, "1048577", "B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, unit := SplitSizeBytes(tt.size)
			assert.Equal(t, tt.wantAmount, amount)
			assert.Equal(t, tt.wantUnit, unit)
		})
	}
}

func TestParseSizeBytes(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		unit    string
		want    int64
		wantErr bool
	}{
		{"megabytes", "100", "MB", 100 * 1024 * 1024, false},
		{"kilobytes_with_spaces", " 64 ", "KB", 64 * 1024, false},
		{"lowercase_unit", "1", "gb", 1024 * 1024 * 1024, false},
		{"bytes", "123", "B", 123, false},
		{"not_a_number", "abc", "MB", 0, true},
		{"zero", "0", "MB", 0, true},
		{"negative", "-5", "MB", 0, true},
		{"unknown_unit", "1", "PB", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSizeBytes(tt.value, tt.unit)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSizeBytes_RoundTripsSplit(t *testing.T) {
	for _, size := range []int64{1024, 5 * 1024 * 1024, 3 * 1024 * 1024 * 1024, 999} {
		amount, unit := SplitSizeBytes(size)
		got, err := ParseSizeBytes(amount, unit)
		require.NoError(t, err)
		assert.Equal(t, size, got)
	}
}

func TestFormatLastModified(t *testing.T) {
	assert.Equal(t, "-", FormatLastModified(time.Time{}))

	ts := time.Date(2024, 6, 15, 9, 30, 5, 0, time.UTC)
	assert.Equal(t, "2024-06-15 09:30:05 UTC", FormatLastModified(ts))
}

func TestComposeKey(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		keyName string
		want    string
		wantErr bool
	}{
		{"no_prefix", "", "file.txt", "file.txt", false},
		{"prefix_without_slash", "photos", "cat.jpg", "photos/cat.jpg", false},
		{"prefix_with_slash", "photos/", "cat.jpg", "photos/cat.jpg", false},
		{"leading_slashes_stripped", "/photos/", "cat.jpg", "photos/cat.jpg", false},
		{"whitespace_trimmed", " photos ", " cat.jpg ", "photos/cat.jpg", false},
		{"empty_name", "photos/", "", "", true},
		{"whitespace_only_name", "photos/", "   ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComposeKey(tt.prefix, tt.keyName)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSuggestFilename(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{"plain_key", "report.pdf", "report.pdf"},
		{"nested_key", "docs/2024/report.pdf", "report.pdf"},
		{"trailing_slash", "docs/report.pdf/", "report.pdf"},
		{"prefix_only", "docs/", "docs"},
		{"empty", "", "local-file"},
		{"slashes_only", "///", "local-file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SuggestFilename(tt.key))
		})
	}
}

func TestCommandsForPresign(t *testing.T) {
	t.Run("get has wget and curl forms", func(t *testing.T) {
		result := &s3types.PresignResult{URL: "https://example.com/signed"}

		commands := CommandsForPresign(s3types.PresignGet, result, "report.pdf", "", "")
		assert.Equal(t, `wget "https://example.com/signed" -O "report.pdf"`, commands.Wget)
		assert.Equal(t, `curl -L "https://example.com/signed" -o "report.pdf"`, commands.Curl)
	})

	t.Run("post is curl only with key field first", func(t *testing.T) {
		result := &s3types.PresignResult{
			URL: "https://bucket.example.com",
			Fields: map[string]string{
				"x-amz-signature": "sig",
				"key":             "uploads/file.txt",
				"policy":          "base64",
			},
		}

		commands := CommandsForPresign(s3types.PresignPost, result, "", "", "")
		assert.Empty(t, commands.Wget)
		assert.Contains(t, commands.Curl, `-F "key=uploads/file.txt"`)
		assert.Contains(t, commands.Curl, `-F "policy=base64"`)
		assert.Contains(t, commands.Curl, `-F "file=@PATH_TO_FILE"`)

		// The key field must precede the rest.
		keyIdx := strings.Index(commands.Curl, `-F "key=`)
		policyIdx := strings.Index(commands.Curl, `-F "policy=`)
		sigIdx := strings.Index(commands.Curl, `-F "x-amz-signature=`)
		assert.Less(t, keyIdx, policyIdx)
		assert.Less(t, keyIdx, sigIdx)
	})

	t.Run("put includes header flags", func(t *testing.T) {
		result := &s3types.PresignResult{URL: "https://example.com/signed-put"}

		commands := CommandsForPresign(s3types.PresignPut, result, "local.bin", "application/octet-stream", "attachment")
		assert.Contains(t, commands.Wget, "--method=PUT")
		assert.Contains(t, commands.Wget, `--body-file="local.bin"`)
		assert.Contains(t, commands.Wget, "Content-Type: application/octet-stream")
		assert.Contains(t, commands.Curl, `-T "local.bin"`)
		assert.Contains(t, commands.Curl, "Content-Disposition: attachment")
	})
}
