package etim

import (
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Cache keys are derived from query descriptors only: derivation is pure,
// performs no I/O, and omits absent optional parameters entirely rather than
// encoding placeholders. Each kind has a fixed prefix and a fixed parameter
// order.
const (
	keySep       = ":"
	keyFilterSep = "|"
	keyListSep   = ","

	keyAllowedLanguages = "languages:allowed"
	keyAllLanguages     = "languages:all"
	keyReleases         = "releases"
)

func joinKey(parts ...string) string {
	return strings.Join(parts, keySep)
}

// filterToken renders a filter list order-independently: filters sorted by
// code, values sorted within each filter.
func filterToken(filters []Filter) string {
	rendered := make([]string, 0, len(filters))
	for _, f := range filters {
		values := slices.Clone(f.Values)
		sort.Strings(values)
		rendered = append(rendered, f.Code+keySep+strings.Join(values, keyListSep))
	}
	sort.Strings(rendered)
	return strings.Join(rendered, keyFilterSep)
}

// classRefToken renders a batch of class references in caller-supplied
// order: the response array mirrors the request order, so a reordered batch
// is a different cache entry.
func classRefToken(classes []ClassRef) string {
	rendered := make([]string, 0, len(classes))
	for _, c := range classes {
		version := "latest"
		if c.Version != nil {
			version = strconv.Itoa(*c.Version)
		}
		rendered = append(rendered, c.Code+keySep+version)
	}
	return strings.Join(rendered, keyListSep)
}

func (q ClassSearch) key() string {
	parts := []string{"search:class", q.Text, q.Language}
	if q.Modelling != nil {
		parts = append(parts, strconv.FormatBool(*q.Modelling))
	}
	if len(q.Filters) > 0 {
		parts = append(parts, filterToken(q.Filters))
	}
	parts = append(parts, strconv.Itoa(q.From), strconv.Itoa(q.Size))
	return joinKey(parts...)
}

func searchKey(prefix string, q Search) string {
	return joinKey(prefix, q.Text, q.Language, strconv.Itoa(q.From), strconv.Itoa(q.Size))
}

func deprecableSearchKey(prefix string, q DeprecableSearch) string {
	return joinKey(prefix, q.Text, q.Language,
		strconv.FormatBool(q.Deprecated), strconv.Itoa(q.From), strconv.Itoa(q.Size))
}

func (q ClassDetailsQuery) key() string {
	parts := []string{"class", q.Code}
	if q.Version != nil {
		parts = append(parts, strconv.Itoa(*q.Version))
	}
	parts = append(parts, q.Language, strconv.FormatBool(q.IncludeFeatures))
	return joinKey(parts...)
}

func (q ClassManyQuery) key() string {
	return joinKey("class:many", classRefToken(q.Classes), q.Language,
		strconv.FormatBool(q.IncludeFeatures))
}

func (q ClassVersionsQuery) key() string {
	return joinKey("class:allversions", q.Code, q.Language,
		strconv.FormatBool(q.IncludeFeatures))
}

func (q ClassReleaseQuery) key() string {
	return joinKey("class:release", q.Code, q.Release, q.Language,
		strconv.FormatBool(q.IncludeFeatures))
}

func (q ClassDiffQuery) key() string {
	return joinKey("class:diff", q.Code, strconv.Itoa(q.Version), q.Language)
}

func detailsKey(prefix string, q DetailsQuery) string {
	return joinKey(prefix, q.Code, q.Language)
}

func (q GroupDetailsQuery) key() string {
	return joinKey("group", q.Code, q.Language, strconv.FormatBool(q.IncludeReleases))
}
