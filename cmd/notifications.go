package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"movienight-cli/model"
	"movienight-cli/notify"
	"movienight-cli/tui"
)

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"notif"},
	Short:   "Read your notifications",
}

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notifications, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := notificationFilterFromFlags(cmd)
		if err != nil {
			return err
		}
		return current.authed(cmd.Context(), func(ctx context.Context) error {
			state, err := current.poller.SetFilter(ctx, filter)
			if err != nil {
				return err
			}
			renderNotifications(state, time.Now())
			return nil
		})
	},
}

var notificationsOpenCmd = &cobra.Command{
	Use:   "open <id>",
	Short: "Mark a notification read and show what it points to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return current.authed(cmd.Context(), func(ctx context.Context) error {
			state, err := current.poller.Refresh(ctx)
			if err != nil {
				return err
			}
			var found *model.Notification
			for i := range state.Notifications {
				if state.Notifications[i].ID == id {
					found = &state.Notifications[i]
					break
				}
			}
			if found == nil {
				return fmt.Errorf("notification %d not found", id)
			}

			fmt.Println(found.Message)
			dest := current.poller.Open(ctx, *found)
			if dest.Kind != notify.DestinationMovieNight {
				if dest.Message != "" {
					fmt.Println(dest.Message)
				}
				return nil
			}
			night, err := current.widget.Load(ctx, dest.MovieNightID)
			if err != nil {
				return err
			}
			fmt.Println()
			fmt.Println(tui.NightDetail(night, time.Now()))
			if pending, ok := current.poller.Slot().Peek(night.ID); ok && !pending.AttendanceConfirmed {
				fmt.Printf("\nAnswer with `%s nights respond %d --invitation %d --accept` (or --decline).\n",
					appName, night.ID, pending.InvitationID)
			}
			return nil
		})
	},
}

var notificationsSeenCmd = &cobra.Command{
	Use:   "mark-all-seen",
	Short: "Clear the unread badge",
	RunE: func(cmd *cobra.Command, args []string) error {
		return current.authed(cmd.Context(), func(ctx context.Context) error {
			if err := current.poller.MarkAllSeen(ctx); err != nil {
				return err
			}
			fmt.Println("All notifications marked as seen.")
			return nil
		})
	},
}

var notificationsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll for notifications and print the unread count when it changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !current.session.IsAuthenticated() {
			return errNotLoggedIn
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		last := -1
		seen := map[int]bool{}
		current.poller.OnChange(func(state notify.State) {
			if state.Err != nil {
				fmt.Fprintln(os.Stderr, errorText(state.Err))
				return
			}
			for i := len(state.Notifications) - 1; i >= 0; i-- {
				n := state.Notifications[i]
				if seen[n.ID] {
					continue
				}
				seen[n.ID] = true
				if last >= 0 && !n.IsRead {
					fmt.Printf("%s  %-12s %s\n", n.Timestamp.Local().Format("15:04"), n.Type.Label(), n.Message)
				}
			}
			if state.Unread != last {
				fmt.Printf("%d unread\n", state.Unread)
				last = state.Unread
			}
		})
		fmt.Printf("Checking every %s. Press ctrl+c to stop.\n", current.poller.Interval())
		return current.poller.Run(ctx)
	},
}

func notificationFilterFromFlags(cmd *cobra.Command) (notify.Filter, error) {
	var filter notify.Filter
	unread, _ := cmd.Flags().GetBool("unread")
	read, _ := cmd.Flags().GetBool("read")
	switch {
	case unread && read:
		return filter, fmt.Errorf("--unread and --read cannot be combined")
	case unread:
		filter.Read = notify.ReadUnread
	case read:
		filter.Read = notify.ReadOnly
	}
	kind, _ := cmd.Flags().GetString("type")
	kind = strings.ToUpper(strings.TrimSpace(kind))
	switch model.NotificationType(kind) {
	case "", model.NotificationInvite, model.NotificationReminder, model.NotificationResponse,
		model.NotificationUpdate, model.NotificationCancellation:
		filter.Type = model.NotificationType(kind)
	default:
		return filter, fmt.Errorf("unknown notification type %q: use INV, REM, RES, UPD or CAN", kind)
	}
	return filter, nil
}

func renderNotifications(state notify.State, now time.Time) {
	if len(state.Notifications) == 0 {
		fmt.Println("No notifications.")
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"", "ID", "When", "Type", "Message", "Invitation"})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 5, WidthMax: 60}})
	for _, group := range notify.GroupByDay(state.Notifications, now) {
		t.AppendSeparator()
		t.AppendRow(table.Row{group.Label})
		for _, n := range group.Notifications {
			marker := ""
			if !n.IsRead {
				marker = "•"
			}
			invitation := ""
			if n.Type == model.NotificationInvite {
				if inv, err := n.Invitation(); err == nil {
					invitation = fmt.Sprint(inv.ID)
				}
			}
			t.AppendRow(table.Row{marker, n.ID, n.Timestamp.Local().Format("Jan 02 15:04"), n.Type.Label(), n.Message, invitation})
		}
	}
	t.Render()
	fmt.Printf("%d unread\n", state.Unread)
}

func init() {
	notificationsListCmd.Flags().Bool("unread", false, "only unread notifications")
	notificationsListCmd.Flags().Bool("read", false, "only read notifications")
	notificationsListCmd.Flags().String("type", "", "only this type: INV, REM, RES, UPD, CAN")

	notificationsCmd.AddCommand(notificationsListCmd, notificationsOpenCmd, notificationsSeenCmd, notificationsWatchCmd)
	rootCmd.AddCommand(notificationsCmd)
}
