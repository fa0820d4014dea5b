package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ekoru/gateway/database"
	"github.com/ekoru/gateway/models"
	"github.com/ekoru/gateway/pkg"
)

// sqliteReactionRepo, ReactionRepository interface'inin SQLite implementasyonu.
//
// Diğer repolardan farklı olarak *sql.DB tutar — mutasyon ve grup okuması
// database.WithTx ile tek transaction'da yapılır ki dönen snapshot araya
// giren başka bir mutasyonu değil, tam olarak bu mutasyonu yansıtsın.
type sqliteReactionRepo struct {
	db *sql.DB
}

// NewSQLiteReactionRepo, constructor — interface döner.
func NewSQLiteReactionRepo(db *sql.DB) ReactionRepository {
	return &sqliteReactionRepo{db: db}
}

func (r *sqliteReactionRepo) Add(ctx context.Context, messageID, userID, emoji string) (*models.ReactionGroup, error) {
	var group *models.ReactionGroup

	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO reactions (id, message_id, user_id, emoji)
			VALUES (?, ?, ?, ?)`

		if _, err := tx.ExecContext(ctx, query, uuid.NewString(), messageID, userID, emoji); err != nil {
			// UNIQUE(message_id, user_id, emoji) — kullanıcı bu emojiyi zaten eklemiş
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: already reacted", pkg.ErrAlreadyExists)
			}
			return fmt.Errorf("failed to add reaction: %w", err)
		}

		var err error
		group, err = groupFor(ctx, tx, messageID, emoji)
		return err
	})
	if err != nil {
		return nil, err
	}

	return group, nil
}

func (r *sqliteReactionRepo) Remove(ctx context.Context, messageID, userID, emoji string) (*models.ReactionGroup, error) {
	var group *models.ReactionGroup

	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			"DELETE FROM reactions WHERE message_id = ? AND user_id = ? AND emoji = ?",
			messageID, userID, emoji)
		if err != nil {
			return fmt.Errorf("failed to remove reaction: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check reaction removal: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("%w: reaction", pkg.ErrNotFound)
		}

		group, err = groupFor(ctx, tx, messageID, emoji)
		return err
	})
	if err != nil {
		return nil, err
	}

	// Son üye kaldırıldıysa group nil'dir — entry tamamen silinmiştir
	return group, nil
}

// groupFor, (messageID, emoji) çiftinin güncel grubunu döner.
// Hiç reaction kalmamışsa (nil, nil) döner.
func groupFor(ctx context.Context, q database.TxQuerier, messageID, emoji string) (*models.ReactionGroup, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT user_id FROM reactions WHERE message_id = ? AND emoji = ? ORDER BY created_at",
		messageID, emoji)
	if err != nil {
		return nil, fmt.Errorf("failed to get reaction group: %w", err)
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan reaction group row: %w", err)
		}
		userIDs = append(userIDs, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reaction group rows: %w", err)
	}

	if len(userIDs) == 0 {
		return nil, nil
	}

	return &models.ReactionGroup{
		Emoji:   emoji,
		Count:   len(userIDs),
		UserIDs: userIDs,
	}, nil
}

// isUniqueViolation, SQLite UNIQUE constraint hatasını tespit eder.
// modernc.org/sqlite typed error export etmez — mesaj kontrolü yapılır.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
