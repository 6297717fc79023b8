package etim

import "fmt"

// Filter narrows a class search by a coded dimension (Release, Group, Class,
// Feature, Value). Two filter lists are equivalent for caching purposes iff
// they contain the same (code, value-set) pairs, irrespective of order.
type Filter struct {
	Code   string   `json:"code"`
	Values []string `json:"values"`
}

// ClassSearch describes a class search query. Modelling and Filters are
// optional; a query with an omitted option is distinct from one where the
// option is supplied.
type ClassSearch struct {
	Text      string
	Language  string
	From      int
	Size      int
	Modelling *bool
	Filters   []Filter
}

// Search describes a plain text search (features, groups, feature groups).
type Search struct {
	Text     string
	Language string
	From     int
	Size     int
}

// DeprecableSearch describes a search over entities that can be deprecated
// (values, units).
type DeprecableSearch struct {
	Text       string
	Language   string
	From       int
	Size       int
	Deprecated bool
}

// ClassRef identifies a class, optionally pinned to a version. A nil Version
// means the latest version.
type ClassRef struct {
	Code    string
	Version *int
}

// ClassDetailsQuery describes a single class detail lookup.
type ClassDetailsQuery struct {
	Code            string
	Version         *int
	Language        string
	IncludeFeatures bool
}

// ClassManyQuery describes a batch detail lookup. The response array mirrors
// the request order, so the batch identity is position-sensitive: the same
// set in a different order is a different query.
type ClassManyQuery struct {
	Classes         []ClassRef
	Language        string
	IncludeFeatures bool
}

// ClassVersionsQuery describes a lookup of every version of a class.
type ClassVersionsQuery struct {
	Code            string
	Language        string
	IncludeFeatures bool
}

// ClassReleaseQuery describes a class detail lookup pinned to an ETIM
// release (e.g. "ETIM-9.0" or "DYNAMIC").
type ClassReleaseQuery struct {
	Code            string
	Release         string
	Language        string
	IncludeFeatures bool
}

// ClassDiffQuery describes a class detail lookup with changes relative to
// the previous version.
type ClassDiffQuery struct {
	Code     string
	Version  int
	Language string
}

// DetailsQuery describes a detail lookup by entity code (features, values,
// units, feature groups).
type DetailsQuery struct {
	Code     string
	Language string
}

// GroupDetailsQuery describes a product group detail lookup.
type GroupDetailsQuery struct {
	Code            string
	Language        string
	IncludeReleases bool
}

func validateSearch(text string, from, size int) error {
	if text == "" {
		return &ValidationError{Reason: "search text must not be empty"}
	}
	if from < 0 {
		return &ValidationError{Reason: "pagination offset must not be negative"}
	}
	if size <= 0 {
		return &ValidationError{Reason: "page size must be positive"}
	}
	return nil
}

func validateFilters(filters []Filter) error {
	for _, f := range filters {
		if f.Code == "" {
			return &ValidationError{Reason: "filter code must not be empty"}
		}
		if len(f.Values) == 0 {
			return &ValidationError{Reason: fmt.Sprintf("filter %q has no values", f.Code)}
		}
		for _, v := range f.Values {
			if v == "" {
				return &ValidationError{Reason: fmt.Sprintf("filter %q contains an empty value", f.Code)}
			}
		}
	}
	return nil
}

func validateCode(code string) error {
	if code == "" {
		return &ValidationError{Reason: "entity code must not be empty"}
	}
	return nil
}

func (q ClassSearch) Validate() error {
	if err := validateSearch(q.Text, q.From, q.Size); err != nil {
		return err
	}
	return validateFilters(q.Filters)
}

func (q Search) Validate() error {
	return validateSearch(q.Text, q.From, q.Size)
}

func (q DeprecableSearch) Validate() error {
	return validateSearch(q.Text, q.From, q.Size)
}

func (q ClassDetailsQuery) Validate() error {
	return validateCode(q.Code)
}

func (q ClassManyQuery) Validate() error {
	if len(q.Classes) == 0 {
		return &ValidationError{Reason: "batch lookup requires at least one class"}
	}
	for _, c := range q.Classes {
		if err := validateCode(c.Code); err != nil {
			return err
		}
	}
	return nil
}

func (q ClassVersionsQuery) Validate() error {
	return validateCode(q.Code)
}

func (q ClassReleaseQuery) Validate() error {
	if err := validateCode(q.Code); err != nil {
		return err
	}
	if q.Release == "" {
		return &ValidationError{Reason: "release must not be empty"}
	}
	return nil
}

func (q ClassDiffQuery) Validate() error {
	if err := validateCode(q.Code); err != nil {
		return err
	}
	if q.Version < 1 {
		return &ValidationError{Reason: "version must be positive"}
	}
	return nil
}

func (q DetailsQuery) Validate() error {
	return validateCode(q.Code)
}

func (q GroupDetailsQuery) Validate() error {
	return validateCode(q.Code)
}
