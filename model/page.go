package model

// Page is the envelope the API wraps around every paginated collection.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

func (p Page[T]) NextURL() string {
	if p.Next == nil {
		return ""
	}
	return *p.Next
}

func (p Page[T]) PreviousURL() string {
	if p.Previous == nil {
		return ""
	}
	return *p.Previous
}
