package unrot

import (
	"context"
)

// endpoint: GET /api/notifications

const (
	NotificationLike    = "like"
	NotificationComment = "comment"
	NotificationFollow  = "follow"
	NotificationMention = "mention"
)

type NotificationActor struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
}

type Notification struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	FromUser  NotificationActor `json:"fromUser"`
	PostID    *string           `json:"postId,omitempty"`
	Message   string            `json:"message"`
	CreatedAt string            `json:"createdAt"`
	IsRead    bool              `json:"isRead"`
}

func NotificationsList(ctx context.Context, c RestClient, page, size int) (*Page[*Notification], error) {
	var out Page[*Notification]

	params := PageParams{Page: page, Size: size}.Values()
	if err := c.RestDo(ctx, Query, "/api/notifications", params, nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}
