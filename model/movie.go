package model

// PosterUnavailable is the sentinel the API stores when a movie has no poster.
const PosterUnavailable = "N/A"

type Movie struct {
	ID             int      `json:"id"`
	IMDbID         string   `json:"imdb_id"`
	Title          string   `json:"title"`
	Year           int      `json:"year"`
	PosterURL      string   `json:"url_poster"`
	Plot           string   `json:"plot"`
	Genres         []string `json:"genres"`
	RuntimeMinutes *int     `json:"runtime_minutes"`
	Country        string   `json:"country"`
	IMDbRating     float64  `json:"imdb_rating"`
}

func (m Movie) HasPoster() bool {
	return m.PosterURL != "" && m.PosterURL != PosterUnavailable
}

func (m Movie) HasPlot() bool {
	return m.Plot != "" && m.Plot != PosterUnavailable
}

func (m Movie) HasCountry() bool {
	return m.Country != "" && m.Country != PosterUnavailable
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
