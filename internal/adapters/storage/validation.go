package storage

import (
	"fmt"
	"strings"
)

// AllowedContentTypes are the MIME types accepted for listing sources.
// Buckets often store CSV uploads as generic binary.
var AllowedContentTypes = map[string]bool{
	"text/csv":                 true,
	"text/plain":               true,
	"application/csv":          true,
	"application/vnd.ms-excel": true,
	"application/octet-stream": true,
	"binary/octet-stream":      true,
}

// ValidateContentType checks if the content type is allowed. An empty
// content type is accepted.
func ValidateContentType(contentType string) error {
	normalized := strings.Split(contentType, ";")[0]
	normalized = strings.TrimSpace(strings.ToLower(normalized))
	if normalized == "" {
		return nil
	}

	if !AllowedContentTypes[normalized] {
		return fmt.Errorf("content type %q is not allowed", contentType)
	}
	return nil
}

// ValidateSize checks if the object size is within limits.
func ValidateSize(sizeBytes, maxBytes int64) error {
	if sizeBytes <= 0 {
		return fmt.Errorf("object is empty")
	}
	if maxBytes > 0 && sizeBytes > maxBytes {
		return fmt.Errorf("object size %d bytes exceeds maximum allowed size of %d bytes", sizeBytes, maxBytes)
	}
	return nil
}

// ValidateObject applies both checks to object metadata.
func ValidateObject(info ObjectInfo, maxBytes int64) error {
	if err := ValidateContentType(info.ContentType); err != nil {
		return err
	}
	return ValidateSize(info.Size, maxBytes)
}
