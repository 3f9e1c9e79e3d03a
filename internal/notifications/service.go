package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/kevmwangi/shoplink-backend/pkg/db/models"
	"github.com/kevmwangi/shoplink-backend/pkg/enums"
	pkgerrors "github.com/kevmwangi/shoplink-backend/pkg/errors"
	"github.com/kevmwangi/shoplink-backend/pkg/pagination"
)

// Service writes and reads in-app notifications. Order workflows write rows
// inside their own transaction so a notification never outlives a rolled
// back order.
type Service struct {
	repo   Repository
	logger *zerolog.Logger
}

// NewService wires a notifications service.
func NewService(repo Repository, logger *zerolog.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications service requires a repository")
	}
	if logger == nil {
		return nil, fmt.Errorf("notifications service requires a logger")
	}
	return &Service{repo: repo, logger: logger}, nil
}

// NotifyOrderCreated records an order-created notification inside tx.
func (s *Service) NotifyOrderCreated(ctx context.Context, tx *gorm.DB, userID, orderID uuid.UUID, title, message string) error {
	return s.write(ctx, tx, models.Notification{
		UserID:  userID,
		Type:    enums.NotificationOrderCreated,
		Title:   title,
		Message: message,
		OrderID: &orderID,
	})
}

// NotifyStatusChanged records a status-change notification inside tx.
func (s *Service) NotifyStatusChanged(ctx context.Context, tx *gorm.DB, userID, orderID uuid.UUID, title, message string) error {
	return s.write(ctx, tx, models.Notification{
		UserID:  userID,
		Type:    enums.NotificationStatusChanged,
		Title:   title,
		Message: message,
		OrderID: &orderID,
	})
}

func (s *Service) write(ctx context.Context, tx *gorm.DB, notification models.Notification) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "notification write requires an active transaction")
	}
	if err := s.repo.WithTx(tx).Create(ctx, &notification); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to create notification")
	}
	return nil
}

// List returns a page of the user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID, params pagination.Params, unreadOnly bool) ([]models.Notification, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.List(ctx, ListParams{
		UserID:     userID,
		Limit:      params.Limit,
		Cursor:     cursor,
		UnreadOnly: unreadOnly,
	})
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list notifications")
	}
	return rows, next, nil
}

// MarkRead marks one notification read.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	err := s.repo.MarkRead(ctx, userID, notificationID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to mark notification read")
	}
	return nil
}

// MarkAllRead marks every unread notification read and returns how many.
func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	updated, err := s.repo.MarkAllRead(ctx, userID, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to mark notifications read")
	}
	return updated, nil
}

// CountUnread returns the user's unread badge count.
func (s *Service) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to count unread notifications")
	}
	return count, nil
}
