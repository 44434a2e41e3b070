package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platebite/platebite-backend/pkg/db/models"
	pkgerrors "github.com/platebite/platebite-backend/pkg/errors"
	"github.com/platebite/platebite-backend/pkg/pagination"
)

// Repository stores and reads per-recipient notifications.
type Repository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListForRecipient(ctx context.Context, recipientID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Notification, error)
	// MarkRead stamps read_at once; marking an already-read notification
	// reports false.
	MarkRead(ctx context.Context, recipientID, id uuid.UUID, at time.Time) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository wires the notification repository to a GORM handle.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, notification *models.Notification) error {
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}
	return nil
}

func (r *repository) ListForRecipient(ctx context.Context, recipientID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Notification, error) {
	query := r.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID)
	if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Notification
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	return rows, nil
}

func (r *repository) MarkRead(ctx context.Context, recipientID, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ? AND read_at IS NULL", id, recipientID).
		Update("read_at", at)
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "mark notification read")
	}
	return res.RowsAffected > 0, nil
}
