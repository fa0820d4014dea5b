package repository

import (
	"context"

	"github.com/ekoru/gateway/models"
)

// ReactionRepository, reaction mutasyon interface'i.
//
// Her iki operasyon da mutasyon sonrası emoji'nin güncel grubunu döner —
// mutasyon ve grup okuması tek transaction içinde yapılır, böylece
// broadcast edilen snapshot tam olarak bu mutasyonu yansıtır.
type ReactionRepository interface {
	// Add, kullanıcının reaction'ını ekler.
	// Kullanıcı aynı emojiyi zaten eklemişse pkg.ErrAlreadyExists döner.
	Add(ctx context.Context, messageID, userID, emoji string) (*models.ReactionGroup, error)

	// Remove, kullanıcının reaction'ını kaldırır.
	// Böyle bir reaction yoksa pkg.ErrNotFound döner.
	// Grubun son üyesi kaldırıldıysa nil grup döner — entry tamamen silinir.
	Remove(ctx context.Context, messageID, userID, emoji string) (*models.ReactionGroup, error)
}
