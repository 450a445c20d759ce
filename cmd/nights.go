package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"movienight-cli/model"
	"movienight-cli/movienight"
	"movienight-cli/tui"
)

const startLayout = "2006-01-02 15:04"

var nightsCmd = &cobra.Command{
	Use:   "nights",
	Short: "Schedule and manage movie nights",
}

var nightsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the movie nights you created",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := mineFilterFromFlags(cmd)
		if err != nil {
			return err
		}
		return current.authed(cmd.Context(), func(ctx context.Context) error {
			nights, err := current.widget.ListMine(ctx, filter)
			if err != nil {
				return err
			}
			renderNights(nights)
			return nil
		})
	},
}

var nightsCreateCmd = &cobra.Command{
	Use:   "create <movie-id>",
	Short: "Schedule a movie night for a movie",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		movieID, err := parseID(args[0])
		if err != nil {
			return err
		}
		startFlag, _ := cmd.Flags().GetString("start")
		start, err := parseStart(startFlag)
		if err != nil {
			return err
		}
		notifyFlag, _ := cmd.Flags().GetString("notify")
		notifyBefore, err := pickNotifyBefore(notifyFlag)
		if err != nil {
			return err
		}
		return current.authed(cmd.Context(), func(ctx context.Context) error {
			night, err := current.widget.Create(ctx, movieID, start, notifyBefore)
			if err != nil {
				return err
			}
			fmt.Printf("Movie night %d created.\n\n", night.ID)
			fmt.Println(tui.NightDetail(night, time.Now()))
			return nil
		})
	},
}

var nightsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a movie night",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withNight(cmd, args[0], func(ctx context.Context, night model.MovieNight) error {
			fmt.Println(tui.NightDetail(night, time.Now()))
			return nil
		})
	},
}

var nightsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change the start time of a movie night you created",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		startFlag, _ := cmd.Flags().GetString("start")
		start, err := parseStart(startFlag)
		if err != nil {
			return err
		}
		return withNight(cmd, args[0], func(ctx context.Context, _ model.MovieNight) error {
			updated, err := current.widget.Update(ctx, start)
			if err != nil {
				return err
			}
			fmt.Println(tui.NightDetail(updated, time.Now()))
			return nil
		})
	},
}

var nightsInviteCmd = &cobra.Command{
	Use:   "invite <id> <email>",
	Short: "Invite someone to a movie night you created",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := strings.TrimSpace(args[1])
		return withNight(cmd, args[0], func(ctx context.Context, _ model.MovieNight) error {
			if err := current.widget.Invite(ctx, email); err != nil {
				return err
			}
			fmt.Printf("Invitation sent to %s.\n", email)
			return nil
		})
	},
}

var nightsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a movie night you created",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		return withNight(cmd, args[0], func(ctx context.Context, night model.MovieNight) error {
			if !night.IsCreator {
				return movienight.ErrNotCreator
			}
			if !yes {
				prompt := promptui.Prompt{
					Label:     fmt.Sprintf("Delete the movie night on %s", night.StartTime.Local().Format(startLayout)),
					IsConfirm: true,
				}
				if _, err := prompt.Run(); err != nil {
					fmt.Println("Nothing deleted.")
					return nil
				}
			}
			movieID, err := current.widget.Delete(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Movie night deleted. See `%s movie %d` for the movie.\n", appName, movieID)
			return nil
		})
	},
}

var nightsRespondCmd = &cobra.Command{
	Use:   "respond <id>",
	Short: "Accept or decline an invitation to a movie night",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		invitationID, _ := cmd.Flags().GetInt("invitation")
		accept, _ := cmd.Flags().GetBool("accept")
		decline, _ := cmd.Flags().GetBool("decline")
		if accept == decline {
			return errors.New("pass exactly one of --accept or --decline")
		}
		if invitationID <= 0 {
			return errors.New("--invitation is required; `notifications list` shows it for invite notifications")
		}
		return withNight(cmd, args[0], func(ctx context.Context, _ model.MovieNight) error {
			if err := current.widget.Respond(ctx, invitationID, accept); err != nil {
				return err
			}
			night, _ := current.widget.Current()
			fmt.Println(tui.NightDetail(night, time.Now()))
			return nil
		})
	},
}

// withNight loads the movie night named by rawID into the widget and runs fn.
func withNight(cmd *cobra.Command, rawID string, fn func(context.Context, model.MovieNight) error) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	return current.authed(cmd.Context(), func(ctx context.Context) error {
		night, err := current.widget.Load(ctx, id)
		if err != nil {
			return err
		}
		return fn(ctx, night)
	})
}

func mineFilterFromFlags(cmd *cobra.Command) (movienight.MineFilter, error) {
	var filter movienight.MineFilter
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	var err error
	if from != "" {
		if filter.StartFrom, err = parseStart(from); err != nil {
			return filter, err
		}
	}
	if to != "" {
		if filter.StartTo, err = parseStart(to); err != nil {
			return filter, err
		}
	}
	filter.Ordering, _ = cmd.Flags().GetString("order")
	filter.Movie, _ = cmd.Flags().GetInt("movie")
	return filter, nil
}

func parseStart(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("--start is required")
	}
	if t, err := time.ParseInLocation(startLayout, value, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q: use %q or RFC 3339", value, startLayout)
}

// pickNotifyBefore resolves --notify, asking interactively when it is empty.
func pickNotifyBefore(value string) (movienight.NotifyBefore, error) {
	if value != "" {
		option, ok := movienight.ParseNotifyBefore(value)
		if !ok {
			return movienight.NotifyNone, fmt.Errorf("unknown reminder %q", value)
		}
		return option, nil
	}
	options := movienight.NotifyBeforeOptions()
	labels := make([]string, 0, len(options))
	for _, option := range options {
		labels = append(labels, option.Label())
	}
	prompt := promptui.Select{
		Label: "Reminder",
		Items: labels,
	}
	index, _, err := prompt.Run()
	if err != nil {
		return movienight.NotifyNone, err
	}
	return options[index], nil
}

func renderNights(nights []model.MovieNight) {
	if len(nights) == 0 {
		fmt.Println("No movie nights.")
		return
	}
	now := time.Now()
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"ID", "Movie", "Starts", "In", "Host", "Going", "Pending"})
	for _, night := range nights {
		t.AppendRow(table.Row{
			night.ID,
			night.Movie,
			night.StartTime.Local().Format(startLayout),
			movienight.FormatCountdown(movienight.Countdown(night.StartTime, now)),
			night.Creator,
			len(night.Participants),
			len(night.PendingInvitees),
		})
	}
	t.Render()
}

func init() {
	nightsListCmd.Flags().String("from", "", "only nights starting at or after this time")
	nightsListCmd.Flags().String("to", "", "only nights starting at or before this time")
	nightsListCmd.Flags().String("order", "start_time", "sort key: start_time or -start_time")
	nightsListCmd.Flags().Int("movie", 0, "only nights for this movie id")

	nightsCreateCmd.Flags().String("start", "", "start time, "+startLayout)
	nightsCreateCmd.Flags().String("notify", "", "reminder: none, 15m, 30m, 1h, 2h, 6h, 12h, 24h (asked when empty)")

	nightsUpdateCmd.Flags().String("start", "", "new start time, "+startLayout)

	nightsDeleteCmd.Flags().Bool("yes", false, "do not ask for confirmation")

	nightsRespondCmd.Flags().Int("invitation", 0, "invitation id")
	nightsRespondCmd.Flags().Bool("accept", false, "accept the invitation")
	nightsRespondCmd.Flags().Bool("decline", false, "decline the invitation")

	nightsCmd.AddCommand(nightsListCmd, nightsCreateCmd, nightsShowCmd, nightsUpdateCmd, nightsInviteCmd, nightsDeleteCmd, nightsRespondCmd)
	rootCmd.AddCommand(nightsCmd)
}
