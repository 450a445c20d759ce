// Package notify keeps the signed-in user's notifications fresh and routes a
// selected notification to the view it refers to.
package notify

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"movienight-cli/model"
)

// CancelledMessage is shown instead of navigating for cancellation notices.
const CancelledMessage = "This movie night has been cancelled."

const defaultInterval = 30 * time.Second

// Client is the part of the API client the poller needs.
type Client interface {
	ListNotifications(ctx context.Context, query url.Values) (model.NotificationList, error)
	MarkNotificationRead(ctx context.Context, id int) error
	MarkAllNotificationsSeen(ctx context.Context) error
}

type ReadFilter int

const (
	ReadAll ReadFilter = iota
	ReadUnread
	ReadOnly
)

func (r ReadFilter) Label() string {
	switch r {
	case ReadUnread:
		return "Unread"
	case ReadOnly:
		return "Read"
	default:
		return "All"
	}
}

// Filter narrows the listed notifications. An empty Type means every type.
type Filter struct {
	Read ReadFilter
	Type model.NotificationType
}

func (f Filter) Query() url.Values {
	q := url.Values{}
	q.Set("ordering", "-timestamp")
	switch f.Read {
	case ReadUnread:
		q.Set("is_read", "false")
	case ReadOnly:
		q.Set("is_read", "true")
	}
	if f.Type != "" {
		q.Set("notification_type", string(f.Type))
	}
	return q
}

// State is a copy of the poller's view of the notifications.
type State struct {
	Notifications []model.Notification
	Unread        int
	Filter        Filter
	Err           error
	UpdatedAt     time.Time
}

// Group is a display bucket of notifications.
type Group struct {
	Label         string
	Notifications []model.Notification
}

type DestinationKind int

const (
	// DestinationNone means the notification opens nothing; Message may explain why.
	DestinationNone DestinationKind = iota
	DestinationMovieNight
)

type Destination struct {
	Kind         DestinationKind
	MovieNightID int
	Message      string
}

// Poller fetches notifications on a timer and on demand. Concurrent refreshes
// for the same filter share one request.
type Poller struct {
	client   Client
	interval time.Duration
	slot     *InvitationSlot
	logger   *logrus.Logger
	group    singleflight.Group

	mu            sync.RWMutex
	filter        Filter
	notifications []model.Notification
	unread        int
	serverCount   bool
	err           error
	updatedAt     time.Time
	onChange      func(State)
}

func NewPoller(client Client, interval time.Duration, slot *InvitationSlot, logger *logrus.Logger) *Poller {
	if interval <= 0 {
		interval = defaultInterval
	}
	if slot == nil {
		slot = &InvitationSlot{}
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Poller{client: client, interval: interval, slot: slot, logger: logger}
}

// OnChange registers a callback invoked after every completed refresh.
func (p *Poller) OnChange(fn func(State)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = fn
}

func (p *Poller) Slot() *InvitationSlot {
	return p.slot
}

func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Refresh fetches the notifications for the current filter.
func (p *Poller) Refresh(ctx context.Context) (State, error) {
	p.mu.RLock()
	filter := p.filter
	p.mu.RUnlock()

	query := filter.Query()
	key := query.Encode()
	_, err, _ := p.group.Do(key, func() (any, error) {
		list, err := p.client.ListNotifications(ctx, query)
		p.apply(filter, list, err)
		return nil, err
	})
	return p.State(), err
}

// Run refreshes immediately and then on every tick until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if _, err := p.Refresh(ctx); err != nil && ctx.Err() == nil {
			p.logger.WithError(err).Warn("notification poll failed")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// SetFilter stores the filter and refreshes under it.
func (p *Poller) SetFilter(ctx context.Context, filter Filter) (State, error) {
	p.mu.Lock()
	p.filter = filter
	p.mu.Unlock()
	return p.Refresh(ctx)
}

func (p *Poller) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	notifications := make([]model.Notification, len(p.notifications))
	copy(notifications, p.notifications)
	return State{
		Notifications: notifications,
		Unread:        p.unread,
		Filter:        p.filter,
		Err:           p.err,
		UpdatedAt:     p.updatedAt,
	}
}

// Groups splits the current notifications into today and earlier, relative
// to now's calendar day.
func (p *Poller) Groups(now time.Time) []Group {
	return GroupByDay(p.State().Notifications, now)
}

func GroupByDay(notifications []model.Notification, now time.Time) []Group {
	today := Group{Label: "Today"}
	earlier := Group{Label: "Earlier"}
	y, m, d := now.Date()
	for _, n := range notifications {
		ny, nm, nd := n.Timestamp.In(now.Location()).Date()
		if ny == y && nm == m && nd == d {
			today.Notifications = append(today.Notifications, n)
		} else {
			earlier.Notifications = append(earlier.Notifications, n)
		}
	}
	var groups []Group
	if len(today.Notifications) > 0 {
		groups = append(groups, today)
	}
	if len(earlier.Notifications) > 0 {
		groups = append(groups, earlier)
	}
	return groups
}

// Open marks n read when needed and returns where it leads. Mark-as-read
// failures are logged and otherwise ignored.
func (p *Poller) Open(ctx context.Context, n model.Notification) Destination {
	if !n.IsRead {
		if err := p.client.MarkNotificationRead(ctx, n.ID); err != nil {
			p.logger.WithError(err).WithField("notification_id", n.ID).Warn("mark as read failed")
		}
		p.markLocalRead(n.ID)
	}

	switch n.Type {
	case model.NotificationReminder, model.NotificationUpdate:
		if n.ObjectID == nil {
			return Destination{}
		}
		return Destination{Kind: DestinationMovieNight, MovieNightID: *n.ObjectID}
	case model.NotificationCancellation:
		return Destination{Message: CancelledMessage}
	case model.NotificationResponse:
		inv, err := n.Invitation()
		if err != nil {
			p.logger.WithError(err).WithField("notification_id", n.ID).Warn("response notification without invitation")
			return Destination{}
		}
		return Destination{Kind: DestinationMovieNight, MovieNightID: movieNightOf(inv)}
	case model.NotificationInvite:
		inv, err := n.Invitation()
		if err != nil {
			p.logger.WithError(err).WithField("notification_id", n.ID).Warn("invite notification without invitation")
			return Destination{}
		}
		pending := PendingInvitation{
			InvitationID:        inv.ID,
			MovieNightID:        movieNightOf(inv),
			AttendanceConfirmed: inv.AttendanceConfirmed,
			IsAttending:         inv.IsAttending,
		}
		if n.ObjectID != nil {
			pending.InvitationID = *n.ObjectID
		}
		p.slot.Save(pending)
		return Destination{Kind: DestinationMovieNight, MovieNightID: pending.MovieNightID}
	}
	return Destination{}
}

// MarkAllSeen clears the unseen badge on the server and locally.
func (p *Poller) MarkAllSeen(ctx context.Context) error {
	if err := p.client.MarkAllNotificationsSeen(ctx); err != nil {
		return err
	}
	p.mu.Lock()
	for i := range p.notifications {
		p.notifications[i].IsSeen = true
	}
	if p.serverCount {
		p.unread = 0
	}
	p.mu.Unlock()
	return nil
}

func (p *Poller) apply(filter Filter, list model.NotificationList, err error) {
	p.mu.Lock()
	if p.filter != filter {
		p.mu.Unlock()
		return
	}
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			p.err = err
		}
		p.mu.Unlock()
		return
	}
	p.err = nil
	p.notifications = list.Results
	p.updatedAt = time.Now()
	switch {
	case list.UnseenCount != nil:
		p.unread, p.serverCount = *list.UnseenCount, true
	case list.UnreadCount != nil:
		p.unread, p.serverCount = *list.UnreadCount, true
	default:
		p.unread, p.serverCount = countUnread(list.Results), false
	}
	onChange := p.onChange
	p.mu.Unlock()

	if onChange != nil {
		onChange(p.State())
	}
}

func (p *Poller) markLocalRead(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.notifications {
		if p.notifications[i].ID == id && !p.notifications[i].IsRead {
			p.notifications[i].IsRead = true
			if !p.serverCount && p.unread > 0 {
				p.unread--
			}
		}
	}
}

func countUnread(notifications []model.Notification) int {
	count := 0
	for _, n := range notifications {
		if !n.IsRead {
			count++
		}
	}
	return count
}

func movieNightOf(inv model.Invitation) int {
	if inv.MovieNightID != 0 {
		return inv.MovieNightID
	}
	return inv.MovieNight
}
