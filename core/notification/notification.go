package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/masomo-lms/core"
)

// Notification kinds
const (
	KindNewQuiz    = "new_quiz"
	KindQuizGraded = "quiz_graded"
	KindMessage    = "message"
)

var ErrNotFound = errors.New("notification not found")

type (
	Notification struct {
		ID        string    `json:"id"`
		UserID    string    `json:"user_id"`
		Kind      string    `json:"kind"`
		Message   string    `json:"message"`
		Link      string    `json:"link,omitempty"`
		IsRead    bool      `json:"is_read"`
		CreatedAt time.Time `json:"created_at"`
	}

	NewNotification struct {
		UserID  string
		Kind    string
		Message string
		Link    string
	}

	UnreadCount struct {
		Count int `json:"count"`
	}

	Repository interface {
		CreateNotification(ctx context.Context, n Notification) (Notification, error)
		// QueryNotifications returns the notifications of a user, newest first.
		QueryNotifications(ctx context.Context, userID string, unreadOnly bool) ([]Notification, error)
		CountUnread(ctx context.Context, userID string) (int, error)
		// MarkRead returns ErrNotFound unless notification `id` belongs to `userID`.
		MarkRead(ctx context.Context, userID, id string) (Notification, error)
		MarkAllRead(ctx context.Context, userID string) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Notify(ctx context.Context, nn NewNotification) (Notification, error) {
	return svc.repo.CreateNotification(ctx, Notification{
		ID:        uuid.New().String(),
		UserID:    nn.UserID,
		Kind:      nn.Kind,
		Message:   core.CleanString(nn.Message),
		Link:      nn.Link,
		CreatedAt: time.Now().UTC(),
	})
}

func (svc *Service) List(ctx context.Context, userID string, unreadOnly bool) ([]Notification, error) {
	return svc.repo.QueryNotifications(ctx, userID, unreadOnly)
}

func (svc *Service) UnreadCount(ctx context.Context, userID string) (UnreadCount, error) {
	count, err := svc.repo.CountUnread(ctx, userID)
	if err != nil {
		return UnreadCount{}, err
	}
	return UnreadCount{Count: count}, nil
}

func (svc *Service) MarkRead(ctx context.Context, userID, id string) (Notification, error) {
	return svc.repo.MarkRead(ctx, userID, id)
}

// MarkAllRead returns the number of notifications that were unread.
func (svc *Service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return svc.repo.MarkAllRead(ctx, userID)
}
