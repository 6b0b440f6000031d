package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// FilterAction defines the action to take on matched metadata fields
type FilterAction string

const (
	FilterActionRemove FilterAction = "remove"
	FilterActionHash   FilterAction = "hash"
	FilterActionMask   FilterAction = "mask"
)

// Credential material that must never be persisted in audit metadata.
var defaultSensitiveFields = map[string]FilterAction{
	"password":      FilterActionRemove,
	"password_hash": FilterActionRemove,
	"secret":        FilterActionRemove,
	"mfa_secret":    FilterActionRemove,
	"totp_code":     FilterActionRemove,
	"otp":           FilterActionRemove,
	"code":          FilterActionRemove,
	"token":         FilterActionRemove,
	"access_token":  FilterActionRemove,
	"refresh_token": FilterActionRemove,
	"magic_link":    FilterActionRemove,
	"api_key":       FilterActionRemove,
	"phone":         FilterActionMask,
	"phone_number":  FilterActionMask,
	"ip":            FilterActionHash,
}

// MetadataFilter scrubs sensitive values out of event metadata.
type MetadataFilter struct {
	rules    map[string]FilterAction
	allowed  map[string]bool
	defaults bool
}

// FilterOption configures MetadataFilter behavior
type FilterOption func(*MetadataFilter)

// NewMetadataFilter creates a filter with the default credential rules enabled.
func NewMetadataFilter(opts ...FilterOption) *MetadataFilter {
	f := &MetadataFilter{
		rules:    make(map[string]FilterAction),
		allowed:  make(map[string]bool),
		defaults: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// WithFieldRule adds a rule for a metadata key. Matching is case-insensitive.
func WithFieldRule(field string, action FilterAction) FilterOption {
	return func(f *MetadataFilter) {
		f.rules[strings.ToLower(field)] = action
	}
}

// WithAllowedField lets a field pass through even if a default rule matches it.
func WithAllowedField(field string) FilterOption {
	return func(f *MetadataFilter) {
		f.allowed[strings.ToLower(field)] = true
	}
}

// WithoutDefaultRules disables the built-in credential rules.
func WithoutDefaultRules() FilterOption {
	return func(f *MetadataFilter) {
		f.defaults = false
	}
}

// Filter returns a filtered copy of metadata. The input map is not modified.
func (f *MetadataFilter) Filter(metadata map[string]any) map[string]any {
	if metadata == nil {
		return nil
	}

	filtered := make(map[string]any, len(metadata))
	for key, value := range metadata {
		lower := strings.ToLower(key)

		if f.allowed[lower] {
			filtered[key] = value
			continue
		}

		action, ok := f.rules[lower]
		if !ok && f.defaults {
			action, ok = defaultSensitiveFields[lower]
		}
		if !ok {
			filtered[key] = value
			continue
		}

		switch action {
		case FilterActionRemove:
		case FilterActionHash:
			filtered[key] = hashValue(value)
		case FilterActionMask:
			filtered[key] = maskValue(value)
		default:
			filtered[key] = value
		}
	}

	return filtered
}

func hashValue(value any) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%v", value))
	return hex.EncodeToString(sum[:])
}

// maskValue keeps the first and last two characters of longer values.
func maskValue(value any) string {
	str := fmt.Sprintf("%v", value)
	n := len(str)

	switch {
	case n <= 4:
		return strings.Repeat("*", n)
	case n <= 8:
		return str[:1] + strings.Repeat("*", n-2) + str[n-1:]
	default:
		return str[:2] + strings.Repeat("*", n-4) + str[n-2:]
	}
}
