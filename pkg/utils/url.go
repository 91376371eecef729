package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// HashURL creates a SHA256 hash of a URL string.
// This is useful for creating consistent, safe keys for Redis.
func HashURL(rawURL string) string {
	h := sha256.New()
	h.Write([]byte(rawURL))
	return hex.EncodeToString(h.Sum(nil))
}

// ToAbsoluteURL resolves ref against base. A nil base requires ref to be absolute already.
func ToAbsoluteURL(base *url.URL, ref string) (*url.URL, error) {
	relURL, err := url.Parse(ref)
	if err != nil {
		return nil, err
	}
	if base == nil {
		return relURL, nil
	}
	return base.ResolveReference(relURL), nil
}

// Origin returns scheme://host with the scheme and host lower-cased and the
// default port for the scheme dropped, matching the browser's URL.origin.
func Origin(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	switch {
	case scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}
	return scheme + "://" + host
}

// Pathname returns the escaped path of u, or "/" when it is empty.
func Pathname(u *url.URL) string {
	p := u.EscapedPath()
	if p == "" {
		return "/"
	}
	return p
}
