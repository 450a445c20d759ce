package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type MovieNight struct {
	ID                      int       `json:"id"`
	Movie                   int       `json:"movie"`
	StartTime               time.Time `json:"start_time"`
	Creator                 string    `json:"creator"`
	StartNotificationSent   bool      `json:"start_notification_sent"`
	StartNotificationBefore string    `json:"start_notification_before"`
	Participants            []string  `json:"participants"`
	PendingInvitees         []string  `json:"pending_invitees"`
	IsCreator               bool      `json:"is_creator"`
}

// NotifyBefore parses the server's duration representation ("[D ]HH:MM:SS[.ffffff]").
func (n MovieNight) NotifyBefore() time.Duration {
	d, err := ParseDuration(n.StartNotificationBefore)
	if err != nil {
		return 0
	}
	return d
}

type NewMovieNight struct {
	Movie                   int       `json:"movie"`
	StartTime               time.Time `json:"start_time"`
	StartNotificationBefore int       `json:"start_notification_before"`
}

type Invitation struct {
	ID                  int    `json:"id"`
	Invitee             string `json:"invitee"`
	MovieNight          int    `json:"movie_night"`
	AttendanceConfirmed bool   `json:"attendance_confirmed"`
	IsAttending         bool   `json:"is_attending"`
	MovieNightID        int    `json:"movie_night_id,omitempty"`
}

type InvitationResponse struct {
	IsAttending         bool `json:"is_attending"`
	AttendanceConfirmed bool `json:"attendance_confirmed"`
}

// ParseDuration accepts "HH:MM:SS", "D HH:MM:SS", optional fractional seconds, or a plain
// number of seconds.
func ParseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}

	var days int
	if before, after, ok := strings.Cut(value, " "); ok {
		d, err := strconv.Atoi(before)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", value)
		}
		days = d
		value = strings.TrimSpace(after)
	}

	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid duration %q", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", value)
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", value)
	}

	total := time.Duration(days)*24*time.Hour +
		time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds*float64(time.Second))
	return total, nil
}
