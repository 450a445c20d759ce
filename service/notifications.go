package service

import (
	"context"
	"errors"
	"net/url"

	"movienight-cli/model"
)

// ListNotifications fetches the signed-in user's notifications.
// Supported query keys: ordering, is_read, notification_type.
func (c *Client) ListNotifications(ctx context.Context, query url.Values) (model.NotificationList, error) {
	var list model.NotificationList
	if err := c.Get(ctx, apiPath("notifications/"), query, &list); err != nil {
		return model.NotificationList{}, err
	}
	return list, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, id int) error {
	if id <= 0 {
		return errors.New("notification id is required")
	}
	return c.Patch(ctx, apiPath("notifications/%d/mark-read/", id), nil, nil)
}

func (c *Client) MarkAllNotificationsSeen(ctx context.Context) error {
	return c.Post(ctx, apiPath("notifications/mark-all-seen/"), nil, nil)
}
