package storage

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// AssetPurpose captures high-level intent for storage layout decisions.
type AssetPurpose string

const (
	PurposeProductImage AssetPurpose = "product-image"
)

// PathParams provide required identifiers to compose storage object keys.
type PathParams struct {
	UploadedAtMillis int64
	Disambiguator    string
	FileName         string
}

// PathBuilder composes the object path for a given asset purpose.
type PathBuilder func(PathParams) (string, error)

var (
	pathBuilders = map[AssetPurpose]PathBuilder{
		PurposeProductImage: buildProductImagePath,
	}
	pathBuildersMu sync.RWMutex

	whitespaceRun = regexp.MustCompile(`\s+`)
)

// RegisterPathBuilder overrides or registers a builder for a specific purpose.
func RegisterPathBuilder(purpose AssetPurpose, builder PathBuilder) {
	pathBuildersMu.Lock()
	defer pathBuildersMu.Unlock()
	if builder == nil {
		delete(pathBuilders, purpose)
		return
	}
	pathBuilders[purpose] = builder
}

// BuildObjectPath resolves the storage object path for the given purpose.
func BuildObjectPath(purpose AssetPurpose, params PathParams) (string, error) {
	pathBuildersMu.RLock()
	builder, ok := pathBuilders[purpose]
	pathBuildersMu.RUnlock()
	if !ok {
		return "", fmt.Errorf("storage: unsupported asset purpose %q", purpose)
	}
	return builder(params)
}

// SanitizeFileName collapses whitespace runs into underscores so the original
// file name survives as a readable path segment.
func SanitizeFileName(name string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(name), "_")
}

func buildProductImagePath(params PathParams) (string, error) {
	if params.UploadedAtMillis <= 0 {
		return "", fmt.Errorf("storage: uploadedAtMillis is required")
	}
	disambiguator, err := validateSegment("disambiguator", params.Disambiguator)
	if err != nil {
		return "", err
	}
	fileName, err := validateFileName(SanitizeFileName(params.FileName))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("productos/%d_%s_%s", params.UploadedAtMillis, disambiguator, fileName), nil
}

func validateSegment(name, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("storage: %s is required", name)
	}
	if strings.ContainsAny(value, "/\\") {
		return "", fmt.Errorf("storage: %s contains invalid path characters", name)
	}
	if strings.Contains(value, "..") {
		return "", fmt.Errorf("storage: %s contains invalid traversal sequence", name)
	}
	return value, nil
}

func validateFileName(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("storage: fileName is required")
	}
	if strings.ContainsAny(value, "/\\") {
		return "", fmt.Errorf("storage: fileName contains invalid path characters")
	}
	if strings.Contains(value, "..") {
		return "", fmt.Errorf("storage: fileName contains invalid traversal sequence")
	}
	return value, nil
}
