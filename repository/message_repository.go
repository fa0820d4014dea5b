package repository

import (
	"context"

	"github.com/ekoru/gateway/models"
)

// MessageRepository, mesaj store erişim interface'i.
type MessageRepository interface {
	// Append, yeni bir mesajı store'a yazar. ID ve CreatedAt çağıran
	// tarafından atanmış olmalıdır — store olduğu gibi saklar, böylece
	// broadcast edilen form persist edilen formla birebir aynıdır.
	Append(ctx context.Context, message *models.Message) error

	// GetByID, mesajı id ile getirir (reactions hariç).
	// Yoksa pkg.ErrNotFound döner.
	GetByID(ctx context.Context, id string) (*models.Message, error)

	// Recent, kanalın en yeni `limit` mesajını reaction gruplarıyla
	// birlikte, görüntüleme sırasıyla (en eski başta) döner.
	Recent(ctx context.Context, channelID string, limit int) ([]models.Message, error)
}
