package listing

import (
	"fmt"
	"strings"
)

// Ordering is the server-side sort key of the movie list. The empty value
// keeps the server default.
type Ordering string

const (
	OrderDefault     Ordering = ""
	OrderYearAsc     Ordering = "year"
	OrderYearDesc    Ordering = "-year"
	OrderRuntimeAsc  Ordering = "runtime_minutes"
	OrderRuntimeDesc Ordering = "-runtime_minutes"
	OrderTitleAsc    Ordering = "title"
	OrderTitleDesc   Ordering = "-title"
)

// Orderings lists every supported ordering in menu order.
func Orderings() []Ordering {
	return []Ordering{
		OrderDefault,
		OrderYearAsc,
		OrderYearDesc,
		OrderRuntimeAsc,
		OrderRuntimeDesc,
		OrderTitleAsc,
		OrderTitleDesc,
	}
}

func (o Ordering) Label() string {
	switch o {
	case OrderDefault:
		return "Default"
	case OrderYearAsc:
		return "Year (oldest first)"
	case OrderYearDesc:
		return "Year (newest first)"
	case OrderRuntimeAsc:
		return "Runtime (shortest first)"
	case OrderRuntimeDesc:
		return "Runtime (longest first)"
	case OrderTitleAsc:
		return "Title (A-Z)"
	case OrderTitleDesc:
		return "Title (Z-A)"
	}
	return string(o)
}

// Next cycles to the following ordering, wrapping around to the default.
func (o Ordering) Next() Ordering {
	all := Orderings()
	for i, candidate := range all {
		if candidate == o {
			return all[(i+1)%len(all)]
		}
	}
	return OrderDefault
}

// ParseOrdering accepts a server key ("-year") or a label, case-insensitively.
func ParseOrdering(value string) (Ordering, error) {
	value = strings.TrimSpace(value)
	for _, o := range Orderings() {
		if strings.EqualFold(value, string(o)) || strings.EqualFold(value, o.Label()) {
			return o, nil
		}
	}
	return OrderDefault, fmt.Errorf("unknown ordering %q", value)
}
