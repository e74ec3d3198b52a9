// Package security provides shared URL safety checks for rendered output.
package security

import (
	"fmt"
	"net/url"
	"strings"
)

// Fallback replaces URLs that fail validation.
const Fallback = "#"

// ValidateLinkURL rejects URLs that would execute script when followed.
// Relative URLs, fragments, http(s), mailto and tel are allowed.
func ValidateLinkURL(rawURL string) error {
	return validate(rawURL, []string{"http", "https", "mailto", "tel"})
}

// ValidateMediaURL rejects media sources that are not http(s), relative, or
// data: images and videos.
func ValidateMediaURL(rawURL string) error {
	if err := validate(rawURL, []string{"http", "https", "data"}); err != nil {
		return err
	}
	lower := strings.ToLower(strings.TrimSpace(rawURL))
	if strings.HasPrefix(lower, "data:") &&
		!strings.HasPrefix(lower, "data:image/") && !strings.HasPrefix(lower, "data:video/") {
		return fmt.Errorf("data URL must be an image or video")
	}
	if strings.HasPrefix(lower, "data:image/svg") {
		return fmt.Errorf("inline SVG data URLs are not allowed")
	}
	return nil
}

// SafeLink returns rawURL when it passes ValidateLinkURL, otherwise Fallback.
func SafeLink(rawURL string) string {
	if ValidateLinkURL(rawURL) != nil {
		return Fallback
	}
	return rawURL
}

// SafeMedia returns rawURL when it passes ValidateMediaURL, otherwise "".
func SafeMedia(rawURL string) string {
	if ValidateMediaURL(rawURL) != nil {
		return ""
	}
	return rawURL
}

func validate(rawURL string, schemes []string) error {
	// Browsers ignore control characters and whitespace inside schemes,
	// so "java\tscript:" must be caught before parsing.
	cleaned := strings.Map(func(r rune) rune {
		if r <= ' ' || r == 0x7f {
			return -1
		}
		return r
	}, rawURL)

	parsed, err := url.Parse(cleaned)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" {
		if strings.Contains(strings.SplitN(cleaned, "/", 2)[0], ":") {
			return fmt.Errorf("URL has an unparseable scheme")
		}
		return nil
	}

	scheme := strings.ToLower(parsed.Scheme)
	for _, s := range schemes {
		if scheme == s {
			return nil
		}
	}
	return fmt.Errorf("URL scheme %q is not allowed", parsed.Scheme)
}
