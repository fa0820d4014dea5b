package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ekoru/gateway/models"
	"github.com/ekoru/gateway/repository"
	"github.com/ekoru/gateway/ws"
)

// MessageService, chat mesajlarının tek yazarıdır: doğrular, kalıcılaştırır
// ve kalıcılaşan canonical formu yayınlar.
type MessageService struct {
	gw       Gateway
	rooms    *RoomService
	messages repository.MessageRepository
}

// NewMessageService, yeni bir MessageService oluşturur.
func NewMessageService(gw Gateway, rooms *RoomService, messages repository.MessageRepository) *MessageService {
	return &MessageService{gw: gw, rooms: rooms, messages: messages}
}

// Send, bir chat mesajını işler.
//
// Broadcast her zaman store yazımından SONRA yapılır: hiçbir üye, daha
// sonra kaybolabilecek kalıcılaşmamış bir mesaj görmez. Gönderen de
// broadcast'i alır — client optimistic kopyasını server'ın atadığı id ve
// timestamp'le reconcile eder.
func (s *MessageService) Send(ctx context.Context, p models.Principal, connID, channelID, content, messageType string) {
	content = strings.TrimSpace(content)
	if content == "" {
		s.gw.SendToConn(connID, ws.ErrorEvent("message cannot be empty"))
		return
	}

	msgType := models.MessageType(messageType)
	if msgType == "" {
		msgType = models.MessageTypeText
	}
	if msgType != models.MessageTypeText && msgType != models.MessageTypeSystem {
		s.gw.SendToConn(connID, ws.ErrorEvent("invalid message type"))
		return
	}

	// Self-healing join: üye olmayan gönderici önce sessizce katılır.
	if !s.rooms.EnsureMember(p, connID, channelID) {
		return
	}

	message := &models.Message{
		ID:           uuid.NewString(),
		ChannelID:    channelID,
		AuthorID:     p.UserID,
		Content:      content,
		MessageType:  msgType,
		CreatedAt:    time.Now().UTC(),
		Reactions:    []models.ReactionGroup{},
		AuthorName:   p.DisplayName,
		AuthorAvatar: p.AvatarURL,
	}

	if err := s.messages.Append(ctx, message); err != nil {
		log.Printf("[message] failed to persist message in channel %s: %v", channelID, err)
		s.gw.SendToConn(connID, ws.ErrorEvent("failed to save message"))
		return
	}

	s.gw.BroadcastToRoom(ws.RoomText, channelID, ws.Event{Op: ws.OpChatMessage, Data: message})
}
