package client

import (
	"maps"
	"net/url"
	"slices"
	"strings"
)

// QueryPart is a single key/value appended to a URL by [BuildURL].
type QueryPart struct {
	Key   string
	Value string
}

// SortedQuery turns m into parts ordered by key.
func SortedQuery(m map[string]string) []QueryPart {
	parts := make([]QueryPart, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		parts = append(parts, QueryPart{Key: k, Value: m[k]})
	}

	return parts
}

// BuildURL appends parts to base in order. A base ending in '?' gets
// query pairs "k=v&k=v"; any other base gets path segments "k/v/k/v",
// separated from base by exactly one '/'. Values are escaped, keys are
// used verbatim.
func BuildURL(base string, parts []QueryPart) string {
	if len(parts) == 0 {
		return base
	}

	var b strings.Builder
	b.WriteString(base)

	if strings.HasSuffix(base, "?") {
		for i, p := range parts {
			if i > 0 {
				b.WriteByte('&')
			}
			b.WriteString(p.Key)
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(p.Value))
		}

		return b.String()
	}

	if !strings.HasSuffix(base, "/") {
		b.WriteByte('/')
	}
	for i, p := range parts {
		if i > 0 {
			b.WriteByte('/')
		}
		b.WriteString(p.Key)
		b.WriteByte('/')
		b.WriteString(url.PathEscape(p.Value))
	}

	return b.String()
}
