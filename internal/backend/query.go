package backend

import "github.com/goccy/go-json"

// Query methods understood by every driver.
const (
	MethodEqual     = "equal"
	MethodOrderDesc = "orderDesc"
	MethodOrderAsc  = "orderAsc"
	MethodLimit     = "limit"
	MethodSearch    = "search"
)

// System attributes present on every document.
const (
	AttrID        = "$id"
	AttrCreatedAt = "$createdAt"
	AttrUpdatedAt = "$updatedAt"
)

// Query is one list filter, ordering or paging directive.
type Query struct {
	Method    string `json:"method"`
	Attribute string `json:"attribute,omitempty"`
	Values    []any  `json:"values,omitempty"`
}

// Equal matches documents whose attribute equals one of the values.
func Equal(attribute string, values ...any) Query {
	return Query{Method: MethodEqual, Attribute: attribute, Values: values}
}

// OrderDesc sorts by attribute, largest first.
func OrderDesc(attribute string) Query {
	return Query{Method: MethodOrderDesc, Attribute: attribute}
}

// OrderAsc sorts by attribute, smallest first.
func OrderAsc(attribute string) Query {
	return Query{Method: MethodOrderAsc, Attribute: attribute}
}

// Limit caps the number of returned documents.
func Limit(n int) Query {
	return Query{Method: MethodLimit, Values: []any{n}}
}

// Search runs a full-text match of term against attribute.
func Search(attribute, term string) Query {
	return Query{Method: MethodSearch, Attribute: attribute, Values: []any{term}}
}

// String renders the query in the JSON form accepted by the hosted API.
func (q Query) String() string {
	out, err := json.Marshal(q)
	if err != nil {
		return ""
	}
	return string(out)
}

// LimitValue reports the limit carried by a limit query.
func (q Query) LimitValue() (int, bool) {
	if q.Method != MethodLimit || len(q.Values) == 0 {
		return 0, false
	}
	switch v := q.Values[0].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}
