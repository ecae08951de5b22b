package dedup

import "net/url"

// BaseURL reduces a raw URL to its grouping key: scheme, host, and path,
// with the query string and fragment stripped. Malformed or non-absolute
// input is returned unchanged, so two malformed strings only group together
// when byte-identical. BaseURL never fails.
func BaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return raw
	}
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}
