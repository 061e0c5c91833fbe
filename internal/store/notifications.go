package store

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/and161185/homeservices/internal/api"
	"github.com/and161185/homeservices/internal/model"
)

// NotificationAPI is the notification part of the backend.
type NotificationAPI interface {
	ListNotifications(ctx context.Context, q api.NotificationQuery) (api.NotificationList, error)
	MarkNotificationRead(ctx context.Context, id int64) error
	MarkAllNotificationsRead(ctx context.Context) error
	DeleteNotification(ctx context.Context, id int64) error
}

// NotificationFilters narrow the notification list.
type NotificationFilters struct {
	UnreadOnly bool
	Type       string
	Search     string
}

// NotificationFilterPatch is merged into NotificationFilters; nil fields are kept.
type NotificationFilterPatch struct {
	UnreadOnly *bool
	Type       *string
	Search     *string
}

func notificationMatches(n model.Notification, f NotificationFilters) bool {
	if f.UnreadOnly && n.IsRead {
		return false
	}
	if f.Type != "" && n.Type != f.Type {
		return false
	}
	if f.Search != "" {
		return containsFold(f.Search, n.Message)
	}
	return true
}

// NotificationCache caches the caller's notifications and the unread counter.
// The counter is seeded by the backend and then maintained by MarkRead,
// MarkAllRead and Remove only.
type NotificationCache struct {
	*Cache[model.Notification, NotificationFilters]
	api NotificationAPI

	unread int // guarded by Cache.mu
}

func NewNotificationCache(a NotificationAPI, log *zap.Logger) *NotificationCache {
	return &NotificationCache{
		Cache: newCache("notifications", func(n model.Notification) int64 { return n.ID }, NotificationFilters{}, notificationMatches, log),
		api:   a,
	}
}

// SetFilters merges p into the active filters.
func (c *NotificationCache) SetFilters(p NotificationFilterPatch) {
	c.updateFilters(func(f *NotificationFilters) {
		if p.UnreadOnly != nil {
			f.UnreadOnly = *p.UnreadOnly
		}
		if p.Type != nil {
			f.Type = *p.Type
		}
		if p.Search != nil {
			f.Search = *p.Search
		}
	})
}

// Reset also zeroes the unread counter.
func (c *NotificationCache) Reset() {
	c.Cache.Reset()
	c.mu.Lock()
	c.unread = 0
	c.mu.Unlock()
}

// UnreadCount returns the tracked number of unread notifications.
func (c *NotificationCache) UnreadCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.unread
}

// FetchAll replaces the notifications and takes the unread count from the backend.
func (c *NotificationCache) FetchAll(ctx context.Context, q api.NotificationQuery) ([]model.Notification, error) {
	res, err := run(ctx, c.Cache, "fetch_all", "Failed to fetch notifications",
		func(ctx context.Context) (api.NotificationList, error) { return c.api.ListNotifications(ctx, q) },
		func(l api.NotificationList) {
			c.replaceAll(l.Notifications)
			c.unread = max(0, l.UnreadCount)
		})
	return res.Notifications, err
}

// MarkRead flags a notification read. The counter drops by one unless the
// notification is cached and was already read.
func (c *NotificationCache) MarkRead(ctx context.Context, id int64) error {
	return exec(ctx, c.Cache, "mark_read", "Failed to mark notification as read",
		func(ctx context.Context) error { return c.api.MarkNotificationRead(ctx, id) },
		func() {
			if i := c.index(id); i >= 0 {
				if c.items[i].IsRead {
					return
				}
				c.items[i].IsRead = true
			}
			c.unread = max(0, c.unread-1)
		})
}

// MarkAllRead flags every notification read and zeroes the counter.
func (c *NotificationCache) MarkAllRead(ctx context.Context) error {
	return exec(ctx, c.Cache, "mark_all_read", "Failed to mark all notifications as read",
		c.api.MarkAllNotificationsRead,
		func() {
			for i := range c.items {
				c.items[i].IsRead = true
			}
			c.unread = 0
		})
}

// Remove deletes a notification. The counter drops by one only if it was unread.
func (c *NotificationCache) Remove(ctx context.Context, id int64) (bool, error) {
	err := exec(ctx, c.Cache, "remove", "Failed to delete notification",
		func(ctx context.Context) error { return c.api.DeleteNotification(ctx, id) },
		func() {
			if i := c.index(id); i >= 0 && !c.items[i].IsRead {
				c.unread = max(0, c.unread-1)
			}
			c.remove(id)
		})
	return err == nil, err
}

// Unread returns the unread notifications in cache order.
func (c *NotificationCache) Unread() []model.Notification {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []model.Notification
	for _, n := range c.items {
		if !n.IsRead {
			out = append(out, n)
		}
	}
	return out
}

// Sorted returns the notifications newest first.
func (c *NotificationCache) Sorted() []model.Notification {
	out := c.Items()
	slices.SortStableFunc(out, func(a, b model.Notification) int {
		return b.CreatedAt.Compare(a.CreatedAt.Time)
	})
	return out
}
