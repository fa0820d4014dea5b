package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ekoru/gateway/database"
	"github.com/ekoru/gateway/models"
	"github.com/ekoru/gateway/pkg"
)

// sqliteMessageRepo, MessageRepository interface'inin SQLite implementasyonu.
type sqliteMessageRepo struct {
	db database.TxQuerier
}

// NewSQLiteMessageRepo, constructor — interface döner.
func NewSQLiteMessageRepo(db database.TxQuerier) MessageRepository {
	return &sqliteMessageRepo{db: db}
}

func (r *sqliteMessageRepo) Append(ctx context.Context, message *models.Message) error {
	query := `
		INSERT INTO messages (id, channel_id, author_id, content, message_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		message.ID,
		message.ChannelID,
		message.AuthorID,
		message.Content,
		message.MessageType,
		message.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}

	return nil
}

func (r *sqliteMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	// LEFT JOIN — kullanıcı silinmiş olsa bile mesaj görünür.
	query := `
		SELECT m.id, m.channel_id, m.author_id, m.content, m.message_type, m.created_at,
		       COALESCE(u.display_name, u.username, ''), COALESCE(u.avatar_url, '')
		FROM messages m
		LEFT JOIN users u ON m.author_id = u.id
		WHERE m.id = ?`

	msg := &models.Message{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&msg.ID, &msg.ChannelID, &msg.AuthorID, &msg.Content, &msg.MessageType, &msg.CreatedAt,
		&msg.AuthorName, &msg.AuthorAvatar,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message by id: %w", err)
	}

	return msg, nil
}

// Recent, kanalın en yeni `limit` mesajını getirir ve görüntüleme
// sırasına çevirir (en eski başta). Reaction grupları tek bir ek
// sorguyla toplanıp mesajlara dağıtılır.
func (r *sqliteMessageRepo) Recent(ctx context.Context, channelID string, limit int) ([]models.Message, error) {
	query := `
		SELECT m.id, m.channel_id, m.author_id, m.content, m.message_type, m.created_at,
		       COALESCE(u.display_name, u.username, ''), COALESCE(u.avatar_url, '')
		FROM messages m
		LEFT JOIN users u ON m.author_id = u.id
		WHERE m.channel_id = ?
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, channelID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent messages: %w", err)
	}
	defer rows.Close()

	// Boş kanal [] döner, null değil — join yanıtı doğrudan serialize edilir.
	messages := []models.Message{}
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(
			&msg.ID, &msg.ChannelID, &msg.AuthorID, &msg.Content, &msg.MessageType, &msg.CreatedAt,
			&msg.AuthorName, &msg.AuthorAvatar,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		msg.Reactions = []models.ReactionGroup{}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}

	// DESC geldi — görüntüleme sırası için ters çevir
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	if err := r.attachReactions(ctx, messages); err != nil {
		return nil, err
	}

	return messages, nil
}

// attachReactions, verilen mesajların reaction gruplarını tek sorguda
// toplar ve ilgili mesajlara dağıtır.
func (r *sqliteMessageRepo) attachReactions(ctx context.Context, messages []models.Message) error {
	if len(messages) == 0 {
		return nil
	}

	placeholders := make([]string, len(messages))
	args := make([]any, len(messages))
	index := make(map[string]int, len(messages))
	for i := range messages {
		placeholders[i] = "?"
		args[i] = messages[i].ID
		index[messages[i].ID] = i
	}

	query := fmt.Sprintf(`
		SELECT message_id, emoji, user_id
		FROM reactions
		WHERE message_id IN (%s)
		ORDER BY message_id, emoji, created_at`, strings.Join(placeholders, ","))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to get reactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var messageID, emoji, userID string
		if err := rows.Scan(&messageID, &emoji, &userID); err != nil {
			return fmt.Errorf("failed to scan reaction row: %w", err)
		}

		i, ok := index[messageID]
		if !ok {
			continue
		}

		msg := &messages[i]
		groups := msg.Reactions
		if n := len(groups); n > 0 && groups[n-1].Emoji == emoji {
			groups[n-1].UserIDs = append(groups[n-1].UserIDs, userID)
			groups[n-1].Count = len(groups[n-1].UserIDs)
		} else {
			msg.Reactions = append(groups, models.ReactionGroup{
				Emoji:   emoji,
				Count:   1,
				UserIDs: []string{userID},
			})
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating reaction rows: %w", err)
	}

	return nil
}
