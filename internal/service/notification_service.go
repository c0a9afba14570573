package service

import (
	"context"

	"github.com/josealejferFB/krizo-backend/internal/logger"
	"github.com/josealejferFB/krizo-backend/internal/model"
	"github.com/josealejferFB/krizo-backend/internal/repository"
)

const (
	NotifyRequestCreated   = "request_created"
	NotifyRequestDecided   = "request_decided"
	NotifyRequestExpired   = "request_expired"
	NotifyQuoteSubmitted   = "quote_submitted"
	NotifyQuoteAnswered    = "quote_answered"
	NotifyPaymentSubmitted = "payment_submitted"
	NotifyPaymentDecided   = "payment_decided"
)

// NotificationRef points a notification at the entities it is about.
type NotificationRef struct {
	RequestID *uint64
	QuoteID   *uint64
	SessionID *uint64
	PaymentID *uint64
}

type NotificationService interface {
	Notify(ctx context.Context, userUID, typ, title, body string, ref NotificationRef)
	List(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, int64, error)
	MarkAllRead(ctx context.Context, userUID string) error
	MarkBySession(ctx context.Context, userUID string, sessionID uint64) error
}

type notificationService struct {
	repo repository.NotificationRepository
	log  logger.ILogger
}

func NewNotificationService(repo repository.NotificationRepository, log logger.ILogger) NotificationService {
	return &notificationService{repo: repo, log: log}
}

// Notify is best-effort; failures are logged and never returned.
func (s *notificationService) Notify(ctx context.Context, userUID, typ, title, body string, ref NotificationRef) {
	if userUID == "" || typ == "" {
		return
	}
	ctx, cancel := withShortDeadline(ctx)
	defer cancel()
	n := &model.Notification{
		UserUID:   userUID,
		Type:      typ,
		Title:     title,
		Body:      body,
		RequestID: ref.RequestID,
		QuoteID:   ref.QuoteID,
		SessionID: ref.SessionID,
		PaymentID: ref.PaymentID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		ctxLog(ctx, s.log).Warning("notification not stored", logger.String("user", userUID), logger.String("type", typ), logger.Error(err))
	}
}

func (s *notificationService) List(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, int64, error) {
	if userUID == "" {
		return nil, 0, nil
	}
	list, err := s.repo.ListByUser(ctx, userUID, unreadOnly, limit)
	if err != nil {
		return nil, 0, err
	}
	cnt, err := s.repo.CountUnread(ctx, userUID)
	if err != nil {
		return list, 0, err
	}
	return list, cnt, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userUID string) error {
	if userUID == "" {
		return nil
	}
	return s.repo.MarkAllRead(ctx, userUID)
}

func (s *notificationService) MarkBySession(ctx context.Context, userUID string, sessionID uint64) error {
	if userUID == "" || sessionID == 0 {
		return nil
	}
	return s.repo.MarkBySession(ctx, userUID, sessionID)
}
