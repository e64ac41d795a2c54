package message

import (
	"sort"
	"strings"
)

const (
	NameValueSeparator = '\x01'
	PropertySeparator  = '\x02'
)

// StringToProperties parses "k\x01v\x02k\x01v\x02". Pairs without a separator
// or with an empty key are skipped.
func StringToProperties(s string) map[string]string {
	m := make(map[string]string)
	for len(s) > 0 {
		var pair string
		pair, s, _ = strings.Cut(s, string(PropertySeparator))
		k, v, ok := strings.Cut(pair, string(NameValueSeparator))
		if !ok || k == "" {
			continue
		}
		m[k] = v
	}
	return m
}

// PropertiesToString is the inverse of StringToProperties. Keys are sorted so
// the output is stable.
func PropertiesToString(m map[string]string) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteByte(NameValueSeparator)
		sb.WriteString(m[k])
		sb.WriteByte(PropertySeparator)
	}
	return sb.String()
}
