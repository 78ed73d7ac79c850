package core

import (
	"net/url"
	"sort"
	"strings"

	"github.com/JonMunkholm/therafind/internal/dataset"
)

// SearchRequest maps a field key (see [Fields]) to a search term.
// A missing key, an empty term, or a whitespace-only term places no
// constraint on that field. Unknown keys are ignored.
type SearchRequest map[string]string

// Term returns the trimmed term for key.
func (r SearchRequest) Term(key string) string {
	return strings.TrimSpace(r[key])
}

// Active returns the known fields that carry a non-empty term, keyed by
// search key. Used for logging.
func (r SearchRequest) Active() map[string]string {
	active := make(map[string]string)
	for _, f := range fields {
		if t := r.Term(f.Key); t != "" {
			active[f.Key] = t
		}
	}
	return active
}

// IsEmpty reports whether the request constrains no field.
func (r SearchRequest) IsEmpty() bool {
	return len(r.Active()) == 0
}

// String renders the active terms in a stable order.
func (r SearchRequest) String() string {
	active := r.Active()
	keys := make([]string, 0, len(active))
	for k := range active {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + active[k]
	}
	return strings.Join(parts, "&")
}

// Query encodes the active terms as a URL query string.
func (r SearchRequest) Query() string {
	values := url.Values{}
	for k, t := range r.Active() {
		values.Set(k, t)
	}
	return values.Encode()
}

// SearchResult is the outcome of a search.
type SearchResult struct {
	// Columns lists the columns to display: the base columns followed by any
	// optional columns present in Rows.
	Columns []string `json:"columns"`

	// Rows are the matching rows in source order.
	Rows []dataset.Row `json:"results"`

	MatchedRows int `json:"matched_rows"`
	TotalRows   int `json:"total_rows"`
}
