package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/culturekart/marketplace-backend/internal/models"
)

// NotificationStore persists in-app notifications.
type NotificationStore interface {
	Create(ctx context.Context, userID uuid.UUID, kind string, payload json.RawMessage) (*models.Notification, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
}

// NotificationPusher delivers a stored notification to a live connection.
type NotificationPusher interface {
	PushNotification(userID uuid.UUID, n *models.Notification)
}

// NotificationService stores notifications and pushes them to connected
// clients. Delivery failures never propagate to the calling flow: an order
// must not fail because a websocket write did.
type NotificationService struct {
	store  NotificationStore
	pusher NotificationPusher
}

func NewNotificationService(store NotificationStore, pusher NotificationPusher) *NotificationService {
	return &NotificationService{store: store, pusher: pusher}
}

func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, kind string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		logrus.WithError(err).WithField("kind", kind).Warn("notification: marshal payload failed")
		return
	}
	n, err := s.store.Create(ctx, userID, kind, raw)
	if err != nil {
		logrus.WithError(err).WithField("kind", kind).Warn("notification: store failed")
		return
	}
	if s.pusher != nil {
		s.pusher.PushNotification(userID, n)
	}
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Notification, error) {
	return s.store.ListForUser(ctx, userID, limit, offset)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.store.MarkRead(ctx, userID, id)
}
