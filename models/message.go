package models

import "time"

// MessageType, bir mesajın içerik türü. Şimdilik düz metin ve sistem
// mesajları ayrımı için kullanılır; client gönderirken boş bırakırsa
// "text" varsayılır.
type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeSystem MessageType = "system"
)

// Message, store'a yazılan bir chat mesajını temsil eder.
// Sadece Message Relay oluşturur; Reactions dışında immutable'dır.
// CreatedAt ve ID server tarafından atanır — client'ın optimistic
// kopyası broadcast'teki canonical form ile reconcile edilir.
type Message struct {
	ID          string          `json:"id"`
	ChannelID   string          `json:"channel_id"`
	AuthorID    string          `json:"author_id"`
	Content     string          `json:"content"`
	MessageType MessageType     `json:"message_type"`
	CreatedAt   time.Time       `json:"created_at"`
	Reactions   []ReactionGroup `json:"reactions"`

	// Principal'dan çözülen yazar görünüm alanları — JOIN ile doldurulur,
	// broadcast'te client'ın ayrıca kullanıcı fetch'i yapmaması için taşınır.
	AuthorName   string `json:"author_name,omitempty"`
	AuthorAvatar string `json:"author_avatar,omitempty"`
}

// ReactionGroup, bir mesajdaki aynı emojinin toplu görünümü.
//
// Invariant: Count == len(UserIDs) ve bir kullanıcı aynı emoji için
// UserIDs'te en fazla bir kez görünür. UserIDs boşaldığında grup
// tamamen silinir — boş placeholder tutulmaz.
type ReactionGroup struct {
	Emoji   string   `json:"emoji"`
	Count   int      `json:"count"`
	UserIDs []string `json:"user_ids"`
}
