package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"movienight-cli/listing"
	"movienight-cli/model"
	"movienight-cli/service"
	"movienight-cli/store"
	"movienight-cli/tui"
)

var moviesCmd = &cobra.Command{
	Use:   "movies",
	Short: "List movies, filtered and sorted",
	RunE: func(cmd *cobra.Command, args []string) error {
		criteria, err := criteriaFromFlags(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		orderFlag, _ := cmd.Flags().GetString("order")
		ordering, err := listing.ParseOrdering(orderFlag)
		if err != nil {
			return err
		}
		pages, _ := cmd.Flags().GetInt("pages")
		if pages < 1 {
			pages = 1
		}

		var snap listing.Snapshot
		err = current.authed(cmd.Context(), func(ctx context.Context) error {
			if err := current.listing.Configure(ctx, criteria, ordering); err != nil {
				return err
			}
			for i := 1; i < pages; i++ {
				more, err := current.listing.LoadMore(ctx)
				if err != nil {
					return err
				}
				if !more {
					break
				}
			}
			snap = current.listing.Snapshot()
			return nil
		})
		if err != nil {
			return err
		}

		renderMovies(snap.Results)
		if snap.HasMore {
			fmt.Printf("More results available: use --pages %d\n", pages+1)
		}
		return nil
	},
}

var movieCmd = &cobra.Command{
	Use:   "movie <id>",
	Short: "Show one movie and your movie nights for it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return current.authed(cmd.Context(), func(ctx context.Context) error {
			movie, err := current.client.GetMovie(ctx, id)
			if err != nil {
				return err
			}
			nights, err := current.widget.ListForMovie(ctx, id)
			if err != nil {
				return err
			}
			fmt.Println(tui.MovieDetail(movie))
			if len(nights) > 0 {
				fmt.Println()
				renderNights(nights)
			}
			return nil
		})
	},
}

var genresCmd = &cobra.Command{
	Use:   "genres",
	Short: "List the known genres",
	RunE: func(cmd *cobra.Command, args []string) error {
		refresh, _ := cmd.Flags().GetBool("refresh")
		genres, err := loadGenres(cmd.Context(), refresh)
		if err != nil {
			return err
		}
		for _, genre := range genres {
			fmt.Println(genre.Name)
		}
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [term]",
	Short: "Search movies by title; without a term, show the last search",
	RunE: func(cmd *cobra.Command, args []string) error {
		term := strings.TrimSpace(strings.Join(args, " "))
		page, _ := cmd.Flags().GetInt("page")

		return current.authed(cmd.Context(), func(ctx context.Context) error {
			if term == "" {
				shown, err := current.search.Open(ctx, "")
				if err != nil {
					return err
				}
				if !shown {
					if recent := current.search.RecentTerms(); len(recent) > 0 {
						fmt.Printf("Recent searches: %s\n", strings.Join(recent, ", "))
					}
					return fmt.Errorf("no recent search; pass a term")
				}
			} else if err := current.search.Submit(ctx, term); err != nil {
				return err
			}

			for i := 1; i < page; i++ {
				moved, err := current.search.Next(ctx)
				if err != nil {
					return err
				}
				if !moved {
					break
				}
			}

			snap := current.search.Snapshot()
			fmt.Printf("Results for %q\n", snap.Term)
			renderMovies(snap.Results)
			if snap.HasNext() {
				fmt.Println("More results available: use --page to go further")
			}
			return nil
		})
	},
}

func criteriaFromFlags(ctx context.Context, cmd *cobra.Command) (listing.Criteria, error) {
	flags := cmd.Flags()
	var c listing.Criteria
	genres, _ := flags.GetStringSlice("genre")
	for _, genre := range genres {
		if genre = strings.TrimSpace(genre); genre != "" && !c.HasGenre(genre) {
			c.ToggleGenre(genre)
		}
	}
	c.Country, _ = flags.GetString("country")
	if strings.EqualFold(strings.TrimSpace(c.Country), "auto") {
		country, err := service.DetectCountry(ctx, &http.Client{Timeout: current.cfg.HTTPTimeout})
		if err != nil {
			return c, fmt.Errorf("detect country: %w", err)
		}
		current.log.WithField("country", country).Debug("country detected")
		c.Country = country
	}
	c.Title, _ = flags.GetString("title")
	c.Year, _ = flags.GetInt("year")
	c.YearFrom, _ = flags.GetInt("year-from")
	c.YearTo, _ = flags.GetInt("year-to")
	c.RuntimeFrom, _ = flags.GetInt("runtime-from")
	c.RuntimeTo, _ = flags.GetInt("runtime-to")
	if flags.Changed("min-rating") {
		rating, _ := flags.GetFloat64("min-rating")
		c.RatingFrom = &rating
	}
	return c, c.Validate()
}

// loadGenres serves the cached genre list while it is fresh.
func loadGenres(ctx context.Context, refresh bool) ([]model.Genre, error) {
	if !refresh {
		if cached, fresh, err := store.LoadGenreCache(current.cfg.GenreCacheTTL); err == nil && fresh && len(cached) > 0 {
			return cached, nil
		}
	}
	var genres []model.Genre
	err := current.authed(ctx, func(ctx context.Context) error {
		var err error
		genres, err = current.client.ListGenres(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := store.SaveGenreCache(genres); err != nil {
		current.log.WithError(err).Warn("could not cache genres")
	}
	return genres, nil
}

func renderMovies(movies []model.Movie) {
	if len(movies) == 0 {
		fmt.Println("No movies found.")
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"ID", "Title", "Year", "Genres", "Runtime", "IMDb", "Country"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 40},
		{Number: 4, WidthMax: 30},
	})
	for _, movie := range movies {
		runtime := ""
		if movie.RuntimeMinutes != nil && *movie.RuntimeMinutes > 0 {
			runtime = fmt.Sprintf("%d min", *movie.RuntimeMinutes)
		}
		rating := ""
		if movie.IMDbRating > 0 {
			rating = strconv.FormatFloat(movie.IMDbRating, 'f', 1, 64)
		}
		country := ""
		if movie.HasCountry() {
			country = movie.Country
		}
		t.AppendRow(table.Row{movie.ID, movie.Title, movie.Year, strings.Join(movie.Genres, ", "), runtime, rating, country})
	}
	t.Render()
}

func parseID(value string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", value)
	}
	return id, nil
}

func init() {
	flags := moviesCmd.Flags()
	flags.StringSlice("genre", nil, "genre to include (repeatable)")
	flags.String("country", "", `country of production; "auto" guesses it from your network`)
	flags.String("title", "", "title contains")
	flags.Int("year", 0, "release year")
	flags.Int("year-from", 0, "released in or after")
	flags.Int("year-to", 0, "released in or before")
	flags.Int("runtime-from", 0, "minimum runtime in minutes")
	flags.Int("runtime-to", 0, "maximum runtime in minutes")
	flags.Float64("min-rating", 0, "minimum IMDb rating (0-10)")
	flags.String("order", "", "sort key: year, -year, runtime_minutes, -runtime_minutes, title, -title")
	flags.Int("pages", 1, "number of pages to load")

	genresCmd.Flags().Bool("refresh", false, "ignore the cached list")
	searchCmd.Flags().Int("page", 1, "result page to show")

	rootCmd.AddCommand(moviesCmd, movieCmd, genresCmd, searchCmd)
}
