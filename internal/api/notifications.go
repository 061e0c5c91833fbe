package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/and161185/homeservices/internal/model"
)

// NotificationQuery narrows GET /notifications.
type NotificationQuery struct {
	UnreadOnly bool
	Limit      int
}

// NotificationList is the GET /notifications payload.
type NotificationList struct {
	Notifications []model.Notification `json:"notifications"`
	UnreadCount   int                  `json:"unread_count"`
}

// ListNotifications returns the caller's notifications, newest first.
func (c *Client) ListNotifications(ctx context.Context, q NotificationQuery) (NotificationList, error) {
	v := url.Values{}
	if q.UnreadOnly {
		v.Set("unread_only", "true")
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	var out NotificationList
	err := c.do(ctx, http.MethodGet, "/notifications", v, nil, &out)
	return out, err
}

// MarkNotificationRead flags one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPut, idPath("/notifications", id), nil, struct{}{}, nil)
}

// MarkAllNotificationsRead flags every notification as read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPut, "/notifications", nil, nil, nil)
}

// DeleteNotification removes one notification.
func (c *Client) DeleteNotification(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/notifications", id), nil, nil, nil)
}
