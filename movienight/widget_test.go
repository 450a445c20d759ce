package movienight

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"movienight-cli/service"
)

const nightJSON = `{"id":4,"movie":9,"start_time":"2030-01-01T20:00:00Z","creator":"host@x.io",` +
	`"start_notification_sent":false,"start_notification_before":"02:00:00",` +
	`"participants":[],"pending_invitees":["me@x.io"],"is_creator":%s}`

func newTestWidget(t *testing.T, isCreator bool, handler http.HandlerFunc) *Widget {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/movie-nights/4/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			flag := "false"
			if isCreator {
				flag = "true"
			}
			_, _ = w.Write([]byte(strings.Replace(nightJSON, "%s", flag, 1)))
			return
		}
		handler(w, r)
	})
	mux.HandleFunc("/", handler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := service.NewClient(server.Client(), server.URL)
	widget := NewWidget(client, func() string { return "me@x.io" })
	if _, err := widget.Load(context.Background(), 4); err != nil {
		t.Fatalf("load: %v", err)
	}
	return widget
}

func TestSeconds(t *testing.T) {
	cases := map[string]int{
		"2 hours before":    7200,
		"15 minutes before": 900,
		"2h":                7200,
		"24 hours before":   86400,
		"none":              0,
		"3 fortnights":      0,
		"":                  0,
	}
	for input, want := range cases {
		if got := Seconds(input); got != want {
			t.Fatalf("%q: expected %d, got %d", input, want, got)
		}
	}
	if NotifyBefore("bogus").Seconds() != 0 {
		t.Fatal("expected unknown option to yield 0")
	}
}

func TestCreate_SendsNotifyBeforeSeconds(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/my-movie-nights/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":1,"movie":9,"start_time":"2030-01-01T20:00:00Z","is_creator":true}`))
	}))
	defer server.Close()

	widget := NewWidget(service.NewClient(server.Client(), server.URL), nil)
	start := time.Date(2030, 1, 1, 20, 0, 0, 0, time.UTC)
	night, err := widget.Create(context.Background(), 9, start, Notify2h)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if body["start_notification_before"] != float64(7200) || body["movie"] != float64(9) {
		t.Fatalf("unexpected body: %+v", body)
	}
	if night.ID != 1 {
		t.Fatalf("unexpected night: %+v", night)
	}
	if current, ok := widget.Current(); !ok || current.ID != 1 {
		t.Fatalf("expected created night loaded, got %+v", current)
	}
}

func TestRespond_AcceptIsIdempotent(t *testing.T) {
	calls := 0
	widget := newTestWidget(t, false, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/movienight-invitations/21/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		calls++
		_, _ = w.Write([]byte(`{"id":21,"attendance_confirmed":true,"is_attending":true}`))
	})

	for i := 0; i < 2; i++ {
		if err := widget.Respond(context.Background(), 21, true); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
	}

	night, _ := widget.Current()
	if len(night.Participants) != 1 || night.Participants[0] != "me@x.io" {
		t.Fatalf("expected responder once in participants, got %v", night.Participants)
	}
	if len(night.PendingInvitees) != 0 {
		t.Fatalf("expected responder removed from pending, got %v", night.PendingInvitees)
	}
	if calls != 2 {
		t.Fatalf("expected 2 requests, got %d", calls)
	}
}

func TestRespond_DeclineRemovesFromBothLists(t *testing.T) {
	widget := newTestWidget(t, false, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":21}`))
	})

	_ = widget.Respond(context.Background(), 21, true)
	if err := widget.Respond(context.Background(), 21, false); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	night, _ := widget.Current()
	if len(night.Participants) != 0 || len(night.PendingInvitees) != 0 {
		t.Fatalf("expected responder in neither list, got %+v", night)
	}
}

func TestRespond_CreatorIsRejected(t *testing.T) {
	widget := newTestWidget(t, true, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	})
	if err := widget.Respond(context.Background(), 21, true); !errors.Is(err, ErrCreator) {
		t.Fatalf("expected ErrCreator, got %v", err)
	}
}

func TestInvite_DuplicateMapsToAlreadyInvited(t *testing.T) {
	invited := map[string]bool{}
	widget := newTestWidget(t, true, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		email, _ := body["invitee"].(string)
		if invited[email] {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"non_field_errors":["The fields invitee, movie_night must make a unique set."]}`))
			return
		}
		invited[email] = true
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":1,"invitee":"` + email + `","movie_night":4}`))
	})

	if err := widget.Invite(context.Background(), "friend@x.io"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	err := widget.Invite(context.Background(), "friend@x.io")
	if !errors.Is(err, ErrAlreadyInvited) {
		t.Fatalf("expected ErrAlreadyInvited, got %v", err)
	}
	if err.Error() != "You have already invited this person." {
		t.Fatalf("unexpected message %q", err.Error())
	}

	night, _ := widget.Current()
	count := 0
	for _, p := range night.PendingInvitees {
		if p == "friend@x.io" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected invitee pending once, got %v", night.PendingInvitees)
	}
}

func TestUpdate_SurfacesStartTimeMessage(t *testing.T) {
	widget := newTestWidget(t, true, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"start_time":["Start time cannot be in the past."]}`))
	})

	_, err := widget.Update(context.Background(), time.Now().Add(-time.Hour))
	if err == nil || err.Error() != "Start time cannot be in the past." {
		t.Fatalf("expected server message verbatim, got %v", err)
	}
	if !errors.Is(err, service.ErrValidation) {
		t.Fatalf("expected validation kind, got %v", err)
	}
}

func TestUpdate_NonCreatorIsRejected(t *testing.T) {
	widget := newTestWidget(t, false, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	})
	if _, err := widget.Update(context.Background(), time.Now().Add(time.Hour)); !errors.Is(err, ErrNotCreator) {
		t.Fatalf("expected ErrNotCreator, got %v", err)
	}
}

func TestDelete_ReturnsParentMovie(t *testing.T) {
	widget := newTestWidget(t, true, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("unexpected method %s", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	movieID, err := widget.Delete(context.Background())
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if movieID != 9 {
		t.Fatalf("expected movie 9, got %d", movieID)
	}
	if _, ok := widget.Current(); ok {
		t.Fatal("expected no movie night after delete")
	}
}

func TestLoad_ParsesNotifyBefore(t *testing.T) {
	widget := newTestWidget(t, true, func(http.ResponseWriter, *http.Request) {})
	night, _ := widget.Current()
	if night.NotifyBefore() != 2*time.Hour {
		t.Fatalf("expected 2h, got %v", night.NotifyBefore())
	}
}

func TestForDuration(t *testing.T) {
	option, ok := ForDuration(30 * time.Minute)
	if !ok || option != Notify30m {
		t.Fatalf("expected %q, got %q", Notify30m, option)
	}
	if _, ok := ForDuration(7 * time.Minute); ok {
		t.Fatal("expected no option for an unlisted lead time")
	}
}

func TestFormatCountdown(t *testing.T) {
	if got := FormatCountdown(26*time.Hour + 3*time.Minute + 4*time.Second); got != "1d 02h 03m 04s" {
		t.Fatalf("unexpected countdown %q", got)
	}
	if got := FormatCountdown(0); got != "Started" {
		t.Fatalf("expected Started, got %q", got)
	}
	start := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	if Countdown(start, start.Add(time.Minute)) != 0 {
		t.Fatal("expected zero countdown after start")
	}
}
