package listing

import "testing"

func TestCriteriaQuery_OmitsUnsetFields(t *testing.T) {
	var c Criteria
	if q := c.Query(); len(q) != 0 {
		t.Fatalf("expected empty query, got %v", q)
	}

	rating := 7.5
	c = Criteria{Country: "France", YearFrom: 1990, YearTo: 2000, RuntimeTo: 120, RatingFrom: &rating}
	c.ToggleGenre("Drama")
	c.ToggleGenre("Comedy")

	q := c.Query()
	if got := q.Get("genres"); got != "Comedy,Drama" {
		t.Fatalf("expected sorted CSV genres, got %q", got)
	}
	if q.Get("published_from") != "1990" || q.Get("published_to") != "2000" {
		t.Fatalf("unexpected year bounds: %v", q)
	}
	if q.Get("runtime_minutes_to") != "120" || q.Has("runtime_minutes_from") {
		t.Fatalf("unexpected runtime bounds: %v", q)
	}
	if q.Get("imdb_rating_from") != "7.5" || q.Get("country") != "France" {
		t.Fatalf("unexpected query: %v", q)
	}
}

func TestCriteria_ToggleGenreAndEqual(t *testing.T) {
	var a, b Criteria
	a.ToggleGenre("Comedy")
	if !a.HasGenre("Comedy") {
		t.Fatal("expected Comedy selected")
	}
	if a.Equal(b) {
		t.Fatal("expected criteria to differ")
	}
	b.ToggleGenre("Comedy")
	if !a.Equal(b) {
		t.Fatal("expected criteria to be equal")
	}
	a.ToggleGenre("Comedy")
	if a.HasGenre("Comedy") || !a.IsZero() {
		t.Fatalf("expected toggle to remove genre, got %+v", a)
	}
}

func TestCriteria_CloneIsIndependent(t *testing.T) {
	var a Criteria
	a.ToggleGenre("Horror")
	b := a.Clone()
	b.ToggleGenre("Horror")
	if !a.HasGenre("Horror") {
		t.Fatal("expected original criteria untouched")
	}
}

func TestCriteriaValidate(t *testing.T) {
	low, high, ok := -0.1, 10.1, 10.0
	if err := (Criteria{RatingFrom: &low}).Validate(); err == nil {
		t.Fatal("expected error for negative rating")
	}
	if err := (Criteria{RatingFrom: &high}).Validate(); err == nil {
		t.Fatal("expected error for rating above 10")
	}
	if err := (Criteria{RatingFrom: &ok}).Validate(); err != nil {
		t.Fatalf("expected rating 10 to be valid, got %v", err)
	}
	if err := (Criteria{YearFrom: 2001, YearTo: 2000}).Validate(); err == nil {
		t.Fatal("expected error for inverted year range")
	}
}

func TestParseOrdering(t *testing.T) {
	cases := map[string]Ordering{
		"title":                   OrderTitleAsc,
		"-YEAR":                   OrderYearDesc,
		"Runtime (longest first)": OrderRuntimeDesc,
		"":                        OrderDefault,
	}
	for input, want := range cases {
		got, err := ParseOrdering(input)
		if err != nil {
			t.Fatalf("%q: expected nil error, got %v", input, err)
		}
		if got != want {
			t.Fatalf("%q: expected %q, got %q", input, want, got)
		}
	}
	if _, err := ParseOrdering("rating"); err == nil {
		t.Fatal("expected error for unknown ordering")
	}
	if OrderTitleDesc.Next() != OrderDefault {
		t.Fatal("expected ordering cycle to wrap")
	}
}
