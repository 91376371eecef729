// Package classifier normalizes raw href/src strings found on a rendered page
// and decides which pipeline each one enters. It is pure: it never consults
// the visited registry, so duplicates are the caller's concern.
package classifier

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/user/site-mirror/internal/entity"
	"github.com/user/site-mirror/pkg/utils"
)

var (
	ErrEmpty             = errors.New("empty url")
	ErrMalformedURL      = errors.New("malformed url")
	ErrMailto            = errors.New("mailto link")
	ErrUnsupportedScheme = errors.New("unsupported scheme")
	ErrPDF               = errors.New("pdf resource")
	ErrOutOfScope        = errors.New("out of scope")
)

// Discovery is a classified URL ready to be claimed.
type Discovery struct {
	Raw      string
	Role     entity.Role
	Category entity.ResourceCategory
	URL      string
}

// ClassifyError explains why a raw string was skipped.
type ClassifyError struct {
	Raw  string
	Role entity.Role
	Err  error
}

func (e *ClassifyError) Error() string {
	return fmt.Sprintf("classify %s %q: %v", e.Role, e.Raw, e.Err)
}

func (e *ClassifyError) Unwrap() error { return e.Err }

// IsOutOfScope reports whether err is a scope rejection rather than an invalid URL.
func IsOutOfScope(err error) bool {
	return errors.Is(err, ErrOutOfScope)
}

// Classify resolves raw against base (the page it was found on) and returns the
// normalized URL and category, or a *ClassifyError.
func Classify(raw string, role entity.Role, base *url.URL, scope entity.ScopeConfig) (Discovery, error) {
	skip := func(err error) (Discovery, error) {
		return Discovery{Raw: raw, Role: role, Category: entity.CategorySkip}, &ClassifyError{Raw: raw, Role: role, Err: err}
	}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return skip(ErrEmpty)
	}

	u, err := utils.ToAbsoluteURL(base, trimmed)
	if err != nil {
		return skip(fmt.Errorf("%w: %v", ErrMalformedURL, err))
	}

	scheme := strings.ToLower(u.Scheme)
	if strings.HasPrefix(strings.ToLower(trimmed), "mailto") || scheme == "mailto" {
		return skip(ErrMailto)
	}
	if scheme != "http" && scheme != "https" {
		return skip(ErrUnsupportedScheme)
	}
	if u.Host == "" {
		return skip(fmt.Errorf("%w: missing host", ErrMalformedURL))
	}
	if strings.HasSuffix(strings.ToLower(u.Path), ".pdf") {
		return skip(ErrPDF)
	}

	var normalized string
	if role == entity.RolePageLink {
		normalized = NormalizePage(u)
	} else {
		normalized = normalizeAsset(u)
	}

	if !InScope(normalized, role, scope.OnlyHost) {
		return skip(ErrOutOfScope)
	}

	return Discovery{
		Raw:      raw,
		Role:     role,
		Category: entity.CategoryForRole(role),
		URL:      normalized,
	}, nil
}

// NormalizePage reduces a page URL to origin + pathname. Query and fragment
// are dropped so variants of one page share a single visited entry.
func NormalizePage(u *url.URL) string {
	return utils.Origin(u) + utils.Pathname(u)
}

func normalizeAsset(u *url.URL) string {
	c := *u
	c.Fragment = ""
	c.RawFragment = ""
	c.Scheme = strings.ToLower(c.Scheme)
	c.Host = strings.ToLower(c.Host)
	return c.String()
}

// InScope applies the host restriction. The check is a loose substring test:
// page links must contain onlyHost somewhere after index 0, scripts anywhere,
// and stylesheets, images and videos are never restricted. A host such as
// notexample.com therefore matches example.com.
func InScope(normalized string, role entity.Role, onlyHost string) bool {
	if onlyHost == "" {
		return true
	}
	switch role {
	case entity.RolePageLink:
		return strings.Index(normalized, onlyHost) > 0
	case entity.RoleScript:
		return strings.Contains(normalized, onlyHost)
	default:
		return true
	}
}

// IsStylesheetRel reports whether a <link> rel value marks a stylesheet.
func IsStylesheetRel(rel string) bool {
	for _, token := range strings.Fields(strings.ToLower(rel)) {
		if token == "stylesheet" {
			return true
		}
	}
	return false
}
