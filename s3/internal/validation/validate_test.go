package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/lflfm/pys3b/s3/s3types"
)

func TestValidateBucketName(t *testing.T) {
	tests := []struct {
		name      string
		bucket    string
		wantError bool
		errMsg    string
	}{
		// Valid bucket names
		{"valid_simple", "my-bucket", false, ""},
		{"valid_with_numbers", "my-bucket123", false, ""},
		{"valid_with_dots", "my.bucket", false, ""},
		{"valid_min_length", "abc", false, ""},
		{"valid_max_length", strings.Repeat("a", 63), false, ""},

		// Invalid bucket names
		{"empty", "", true, "bucket name cannot be empty"},
		{"too_short", "ab", true, "bucket name must be between 3 and 63 characters long"},
		{
			"too_long",
			strings.Repeat("a", 64),
			true,
			"bucket name must be between 3 and 63 characters long",
		},
		{
			"starts_with_hyphen",
			"-bucket",
			true,
			"bucket name cannot start or end with a hyphen or dot",
		},
		{
			"ends_with_dot",
			"bucket.",
			true,
			"bucket name cannot start or end with a hyphen or dot",
		},
		{
			"contains_uppercase",
			"MyBucket",
			true,
			"bucket name can only contain lowercase letters, numbers, dots, and hyphens",
		},
		{
			"contains_underscore",
			"my_bucket",
			true,
			"bucket name can only contain lowercase letters, numbers, dots, and hyphens",
		},
		{"ip_address", "192.168.1.1", true, "bucket name cannot be formatted as an IP address"},
		{
			"double_dots",
			"my..bucket",
			true,
			"bucket name cannot contain two adjacent periods or hyphens",
		},
		{
			"double_hyphens",
			"my--bucket",
			true,
			"bucket name cannot contain two adjacent periods or hyphens",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBucketName(tt.bucket)
			if tt.wantError {
				if err == nil {
					t.Errorf("ValidateBucketName(%q) expected error, got nil", tt.bucket)
				} else if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("ValidateBucketName(%q) error = %q, want to contain %q", tt.bucket, err.Error(), tt.errMsg)
				}
			} else if err != nil {
				t.Errorf("ValidateBucketName(%q) expected no error, got %q", tt.bucket, err)
			}
		})
	}
}

func TestValidateObjectKey(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		wantError bool
		errMsg    string
	}{
		// Valid object keys
		{"valid_simple", "my-file.txt", false, ""},
		{"valid_with_path", "folder/subfolder/file.txt", false, ""},
		{"valid_unicode", "файл.txt", false, ""},
		{"valid_spaces", "file with spaces.txt", false, ""},
		{"valid_max_length", strings.Repeat("a", 1024), false, ""},

		// Invalid object keys
		{"empty", "", true, "object key cannot be empty"},
		{"traversal_dots", "../etc/passwd", true, "path traversal"},
		{"traversal_embedded", "folder/../../etc/passwd", true, "path traversal"},
		{"absolute_path", "/etc/passwd", true, "path traversal"},
		{"too_long", strings.Repeat("a", 1025), true, "object key cannot exceed 1024 characters"},
		{"control_chars", "file\x00name.txt", true, "control characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateObjectKey(tt.key)
			if tt.wantError {
				if err == nil {
					t.Errorf("ValidateObjectKey(%q) expected error, got nil", tt.key)
				} else if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("ValidateObjectKey(%q) error = %q, want to contain %q", tt.key, err.Error(), tt.errMsg)
				}
			} else if err != nil {
				t.Errorf("ValidateObjectKey(%q) expected no error, got %q", tt.key, err)
			}
		})
	}
}

func TestValidateExpiry(t *testing.T) {
	tests := []struct {
		name      string
		expires   time.Duration
		wantError bool
	}{
		{"one_minute", time.Minute, false},
		{"one_hour", time.Hour, false},
		{"seven_days", 7 * 24 * time.Hour, false},
		{"zero", 0, true},
		{"negative", -time.Hour, true},
		{"over_seven_days", 7*24*time.Hour + time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateExpiry(tt.expires)
			if tt.wantError && err == nil {
				t.Errorf("ValidateExpiry(%v) expected error, got nil", tt.expires)
			}
			if !tt.wantError && err != nil {
				t.Errorf("ValidateExpiry(%v) expected no error, got %q", tt.expires, err)
			}
		})
	}
}

func TestValidatePresignMethod(t *testing.T) {
	for _, method := range []s3types.PresignMethod{s3types.PresignGet, s3types.PresignPut, s3types.PresignPost} {
		if err := ValidatePresignMethod(method); err != nil {
			t.Errorf("ValidatePresignMethod(%q) expected no error, got %q", method, err)
		}
	}

	if err := ValidatePresignMethod("delete"); err == nil {
		t.Error("ValidatePresignMethod(\"delete\") expected error, got nil")
	}
}

func TestValidatePostPolicy(t *testing.T) {
	tests := []struct {
		name      string
		keyMode   s3types.PostKeyMode
		maxSize   int64
		wantError bool
	}{
		{"single_mode", s3types.PostKeySingle, 1024, false},
		{"prefix_mode", s3types.PostKeyPrefix, 1024, false},
		{"unknown_mode", s3types.PostKeyMode("glob"), 1024, true},
		{"zero_max_size", s3types.PostKeySingle, 0, true},
		{"negative_max_size", s3types.PostKeySingle, -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePostPolicy(tt.keyMode, tt.maxSize)
			if tt.wantError && err == nil {
				t.Errorf("ValidatePostPolicy(%q, %d) expected error, got nil", tt.keyMode, tt.maxSize)
			}
			if !tt.wantError && err != nil {
				t.Errorf("ValidatePostPolicy(%q, %d) expected no error, got %q", tt.keyMode, tt.maxSize, err)
			}
		})
	}
}

func TestValidateMetadata(t *testing.T) {
	tests := []struct {
		name      string
		metadata  map[string]string
		wantError bool
		errMsg    string
	}{
		{"nil_metadata", nil, false, ""},
		{"valid", map[string]string{"author": "someone", "env": "test"}, false, ""},
		{"empty_key", map[string]string{"": "value"}, true, "metadata key cannot be empty"},
		{
			"reserved_aws_prefix",
			map[string]string{"aws:tag": "value"},
			true,
			"reserved prefix",
		},
		{
			"reserved_amz_prefix",
			map[string]string{"x-amz-meta": "value"},
			true,
			"reserved prefix",
		},
		{
			"key_too_long",
			map[string]string{strings.Repeat("k", 129): "value"},
			true,
			"metadata key cannot exceed 128 characters",
		},
		{
			"value_too_long",
			map[string]string{"key": strings.Repeat("v", 2049)},
			true,
			"metadata value cannot exceed 2048 characters",
		},
		{
			"non_ascii_key",
			map[string]string{"kéy": "value"},
			true,
			"printable ASCII",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMetadata(tt.metadata)
			if tt.wantError {
				if err == nil {
					t.Errorf("ValidateMetadata(%v) expected error, got nil", tt.metadata)
				} else if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("ValidateMetadata(%v) error = %q, want to contain %q", tt.metadata, err.Error(), tt.errMsg)
				}
			} else if err != nil {
				t.Errorf("ValidateMetadata(%v) expected no error, got %q", tt.metadata, err)
			}
		})
	}
}

func TestValidateContentType(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		wantError   bool
	}{
		{"empty_allowed", "", false},
		{"simple", "text/plain", false},
		{"with_parameters", "text/plain; charset=utf-8", false},
		{"vendor_tree", "application/vnd.api+json", false},
		{"missing_subtype", "text", true},
		{"spaces", "not a mime type", true},
		{"leading_slash", "/plain", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateContentType(tt.contentType)
			if tt.wantError && err == nil {
				t.Errorf("ValidateContentType(%q) expected error, got nil", tt.contentType)
			}
			if !tt.wantError && err != nil {
				t.Errorf("ValidateContentType(%q) expected no error, got %q", tt.contentType, err)
			}
		})
	}
}
