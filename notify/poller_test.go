package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"movienight-cli/model"
)

type fakeClient struct {
	mu       sync.Mutex
	queries  []url.Values
	list     func(ctx context.Context, query url.Values) (model.NotificationList, error)
	marked   []int
	markErr  error
	seenCall int32
}

func (f *fakeClient) ListNotifications(ctx context.Context, query url.Values) (model.NotificationList, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	return f.list(ctx, query)
}

func (f *fakeClient) MarkNotificationRead(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, id)
	return f.markErr
}

func (f *fakeClient) MarkAllNotificationsSeen(context.Context) error {
	atomic.AddInt32(&f.seenCall, 1)
	return nil
}

func (f *fakeClient) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func intPtr(v int) *int { return &v }

func TestFilterQuery(t *testing.T) {
	q := Filter{}.Query()
	if q.Get("ordering") != "-timestamp" || q.Has("is_read") || q.Has("notification_type") {
		t.Fatalf("unexpected query for all: %v", q)
	}
	q = Filter{Read: ReadUnread, Type: model.NotificationInvite}.Query()
	if q.Get("is_read") != "false" || q.Get("notification_type") != "INV" {
		t.Fatalf("unexpected query: %v", q)
	}
	if got := (Filter{Read: ReadOnly}).Query().Get("is_read"); got != "true" {
		t.Fatalf("expected is_read=true, got %q", got)
	}
}

func TestRefresh_CoalescesConcurrentCalls(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	client := &fakeClient{list: func(context.Context, url.Values) (model.NotificationList, error) {
		once.Do(func() { close(started) })
		<-release
		return model.NotificationList{UnseenCount: intPtr(2)}, nil
	}}
	poller := NewPoller(client, time.Minute, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = poller.Refresh(context.Background())
		}()
		if i == 0 {
			<-started
		}
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := client.queryCount(); got != 1 {
		t.Fatalf("expected 1 request, got %d", got)
	}
	if poller.State().Unread != 2 {
		t.Fatalf("expected unread 2, got %d", poller.State().Unread)
	}
}

func TestRefresh_UnreadFallsBackToLocalCount(t *testing.T) {
	client := &fakeClient{list: func(context.Context, url.Values) (model.NotificationList, error) {
		return model.NotificationList{Results: []model.Notification{
			{ID: 1, IsRead: false},
			{ID: 2, IsRead: true},
			{ID: 3, IsRead: false},
		}}, nil
	}}
	poller := NewPoller(client, time.Minute, nil, nil)

	state, err := poller.Refresh(context.Background())
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if state.Unread != 2 {
		t.Fatalf("expected 2 unread, got %d", state.Unread)
	}
}

func TestRefresh_ErrorKeepsNotifications(t *testing.T) {
	fail := false
	client := &fakeClient{list: func(context.Context, url.Values) (model.NotificationList, error) {
		if fail {
			return model.NotificationList{}, errors.New("down")
		}
		return model.NotificationList{Results: []model.Notification{{ID: 1}}}, nil
	}}
	poller := NewPoller(client, time.Minute, nil, nil)
	_, _ = poller.Refresh(context.Background())

	fail = true
	state, err := poller.Refresh(context.Background())
	if err == nil || state.Err == nil {
		t.Fatal("expected refresh error")
	}
	if len(state.Notifications) != 1 {
		t.Fatalf("expected notifications kept, got %d", len(state.Notifications))
	}
}

func TestSetFilter_RefreshesWithNewQuery(t *testing.T) {
	client := &fakeClient{list: func(context.Context, url.Values) (model.NotificationList, error) {
		return model.NotificationList{}, nil
	}}
	poller := NewPoller(client, time.Minute, nil, nil)

	state, err := poller.SetFilter(context.Background(), Filter{Read: ReadUnread, Type: model.NotificationReminder})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if state.Filter.Type != model.NotificationReminder {
		t.Fatalf("expected filter stored, got %+v", state.Filter)
	}
	q := client.queries[0]
	if q.Get("is_read") != "false" || q.Get("notification_type") != "REM" {
		t.Fatalf("unexpected query: %v", q)
	}
}

func TestOpen_RoutesByType(t *testing.T) {
	client := &fakeClient{markErr: errors.New("boom")}
	slot := &InvitationSlot{}
	poller := NewPoller(client, time.Minute, slot, nil)
	ctx := context.Background()

	dest := poller.Open(ctx, model.Notification{ID: 1, Type: model.NotificationReminder, ObjectID: intPtr(10)})
	if dest.Kind != DestinationMovieNight || dest.MovieNightID != 10 {
		t.Fatalf("unexpected reminder destination: %+v", dest)
	}

	dest = poller.Open(ctx, model.Notification{ID: 2, Type: model.NotificationUpdate, ObjectID: intPtr(11), IsRead: true})
	if dest.MovieNightID != 11 {
		t.Fatalf("unexpected update destination: %+v", dest)
	}

	dest = poller.Open(ctx, model.Notification{ID: 3, Type: model.NotificationCancellation, ObjectID: intPtr(12)})
	if dest.Kind != DestinationNone || dest.Message != CancelledMessage {
		t.Fatalf("unexpected cancellation destination: %+v", dest)
	}

	content, _ := json.Marshal(map[string]any{"id": 5, "movie_night_id": 13, "attendance_confirmed": true, "is_attending": true})
	dest = poller.Open(ctx, model.Notification{ID: 4, Type: model.NotificationResponse, ObjectID: intPtr(5), ContentObject: content})
	if dest.Kind != DestinationMovieNight || dest.MovieNightID != 13 {
		t.Fatalf("unexpected response destination: %+v", dest)
	}
	if _, ok := slot.Take(13); ok {
		t.Fatal("expected response notification not to fill the invitation slot")
	}

	content, _ = json.Marshal(map[string]any{"movie_night_id": 14, "attendance_confirmed": false, "is_attending": false})
	dest = poller.Open(ctx, model.Notification{ID: 5, Type: model.NotificationInvite, ObjectID: intPtr(77), ContentObject: content})
	if dest.MovieNightID != 14 {
		t.Fatalf("unexpected invite destination: %+v", dest)
	}
	pending, ok := slot.Take(14)
	if !ok || pending.InvitationID != 77 || pending.AttendanceConfirmed {
		t.Fatalf("unexpected slot content: %+v ok=%v", pending, ok)
	}

	if len(client.marked) != 4 {
		t.Fatalf("expected unread notifications marked despite errors, got %v", client.marked)
	}
}

func TestOpen_FlipsLocalCopyToRead(t *testing.T) {
	client := &fakeClient{
		markErr: errors.New("boom"),
		list: func(context.Context, url.Values) (model.NotificationList, error) {
			return model.NotificationList{Results: []model.Notification{
				{ID: 1, Type: model.NotificationReminder, ObjectID: intPtr(3)},
			}}, nil
		},
	}
	poller := NewPoller(client, time.Minute, nil, nil)
	state, _ := poller.Refresh(context.Background())

	poller.Open(context.Background(), state.Notifications[0])

	state = poller.State()
	if !state.Notifications[0].IsRead || state.Unread != 0 {
		t.Fatalf("expected local copy read, got %+v unread=%d", state.Notifications[0], state.Unread)
	}
}

func TestMarkAllSeen_ResetsServerCount(t *testing.T) {
	client := &fakeClient{list: func(context.Context, url.Values) (model.NotificationList, error) {
		return model.NotificationList{UnseenCount: intPtr(3), Results: []model.Notification{{ID: 1}}}, nil
	}}
	poller := NewPoller(client, time.Minute, nil, nil)
	_, _ = poller.Refresh(context.Background())

	if err := poller.MarkAllSeen(context.Background()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	state := poller.State()
	if state.Unread != 0 || !state.Notifications[0].IsSeen {
		t.Fatalf("unexpected state after mark all seen: %+v", state)
	}
}

func TestGroupByDay(t *testing.T) {
	now := time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)
	notifications := []model.Notification{
		{ID: 1, Timestamp: now.Add(-time.Hour)},
		{ID: 2, Timestamp: now.Add(-20 * time.Hour)},
		{ID: 3, Timestamp: now.Add(-48 * time.Hour)},
	}
	groups := GroupByDay(notifications, now)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Label != "Today" || len(groups[0].Notifications) != 1 {
		t.Fatalf("unexpected today group: %+v", groups[0])
	}
	if groups[1].Label != "Earlier" || len(groups[1].Notifications) != 2 {
		t.Fatalf("unexpected earlier group: %+v", groups[1])
	}
}

func TestRun_PollsUntilCancelled(t *testing.T) {
	var calls int32
	client := &fakeClient{list: func(context.Context, url.Values) (model.NotificationList, error) {
		atomic.AddInt32(&calls, 1)
		return model.NotificationList{}, nil
	}}
	poller := NewPoller(client, 5*time.Millisecond, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&calls) < 3 {
		select {
		case <-deadline:
			t.Fatal("expected at least 3 polls")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestInvitationSlot_TakeOnlyMatching(t *testing.T) {
	var slot InvitationSlot
	slot.Save(PendingInvitation{InvitationID: 1, MovieNightID: 2})
	if _, ok := slot.Take(3); ok {
		t.Fatal("expected no match for other movie night")
	}
	if _, ok := slot.Take(2); !ok {
		t.Fatal("expected match")
	}
	if _, ok := slot.Take(2); ok {
		t.Fatal("expected slot consumed")
	}
}

func TestInvitationSlot_PeekKeepsContent(t *testing.T) {
	var slot InvitationSlot
	slot.Save(PendingInvitation{InvitationID: 5, MovieNightID: 8, IsAttending: true})
	if got, ok := slot.Peek(8); !ok || got.InvitationID != 5 {
		t.Fatalf("expected invitation 5, got %+v (ok=%v)", got, ok)
	}
	if _, ok := slot.Take(8); !ok {
		t.Fatal("expected peek to leave the slot in place")
	}
}
