package query

import (
	"net/url"
	"strings"
)

// Key addresses one cached result: a resource name followed by every
// parameter that changes the result set, e.g. ["course-modules", "c1"].
type Key []string

// NewKey builds a key from a resource name and its parameters.
func NewKey(resource string, params ...string) Key {
	k := make(Key, 0, len(params)+1)
	k = append(k, resource)
	return append(k, params...)
}

// ParseKey is the inverse of Key.String.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(strings.Trim(s, "/"), "/")
	k := make(Key, 0, len(parts))
	for _, p := range parts {
		u, err := url.PathUnescape(p)
		if err != nil {
			return nil, err
		}
		k = append(k, u)
	}
	return k, nil
}

// Resource returns the first element of the key.
func (k Key) Resource() string {
	if len(k) == 0 {
		return ""
	}
	return k[0]
}

// String renders the key with path-escaped elements joined by "/".
func (k Key) String() string {
	parts := make([]string, len(k))
	for i, p := range k {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// HasPrefix reports whether k starts with every element of prefix.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) == 0 || len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

func matchesAny(k Key, prefixes []Key) bool {
	for _, p := range prefixes {
		if k.HasPrefix(p) {
			return true
		}
	}
	return false
}
