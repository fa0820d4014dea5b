package services

import (
	"context"
	"errors"
	"log"

	"github.com/ekoru/gateway/models"
	"github.com/ekoru/gateway/pkg"
	"github.com/ekoru/gateway/repository"
	"github.com/ekoru/gateway/ws"
)

// ReactionService, mesaj reaction'larını mutasyona uğratır ve sonucu
// mesajın kanalına yayınlar.
type ReactionService struct {
	gw        Gateway
	messages  repository.MessageRepository
	reactions repository.ReactionRepository
}

// NewReactionService, yeni bir ReactionService oluşturur.
func NewReactionService(gw Gateway, messages repository.MessageRepository, reactions repository.ReactionRepository) *ReactionService {
	return &ReactionService{gw: gw, messages: messages, reactions: reactions}
}

// Add, mesaja reaction ekler. Aynı kullanıcının aynı emojiyi tekrar
// eklemesi hatadır: sadece isteyene error envelope'u gider, broadcast
// çıkmaz ve sayaç değişmez.
func (s *ReactionService) Add(ctx context.Context, p models.Principal, connID, messageID, emoji string) {
	message, ok := s.lookupMessage(ctx, connID, messageID)
	if !ok {
		return
	}

	group, err := s.reactions.Add(ctx, messageID, p.UserID, emoji)
	if err != nil {
		if errors.Is(err, pkg.ErrAlreadyExists) {
			s.gw.SendToConn(connID, ws.ErrorEvent("alreadyReacted"))
			return
		}
		log.Printf("[reaction] failed to add reaction to message %s: %v", messageID, err)
		s.gw.SendToConn(connID, ws.ErrorEvent("failed to add reaction"))
		return
	}

	s.broadcast(ws.OpReactionAdded, message, emoji, p.UserID, group)
}

// Remove, kullanıcının reaction'ını kaldırır. Reaction yoksa sadece
// isteyene error envelope'u gider. Grubun son üyesi kalkıyorsa broadcast
// payload'ında reaction null gider ve client grubu tamamen düşürür.
func (s *ReactionService) Remove(ctx context.Context, p models.Principal, connID, messageID, emoji string) {
	message, ok := s.lookupMessage(ctx, connID, messageID)
	if !ok {
		return
	}

	group, err := s.reactions.Remove(ctx, messageID, p.UserID, emoji)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			s.gw.SendToConn(connID, ws.ErrorEvent("reactionNotFound"))
			return
		}
		log.Printf("[reaction] failed to remove reaction from message %s: %v", messageID, err)
		s.gw.SendToConn(connID, ws.ErrorEvent("failed to remove reaction"))
		return
	}

	s.broadcast(ws.OpReactionRemoved, message, emoji, p.UserID, group)
}

// lookupMessage, hedef mesajı çözer; yoksa isteyene messageNotFound döner.
// Mesajın kanalı broadcast hedefini belirlediği için mutasyondan önce
// mesajın varlığı doğrulanır.
func (s *ReactionService) lookupMessage(ctx context.Context, connID, messageID string) (*models.Message, bool) {
	message, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			s.gw.SendToConn(connID, ws.ErrorEvent("messageNotFound"))
			return nil, false
		}
		log.Printf("[reaction] failed to load message %s: %v", messageID, err)
		s.gw.SendToConn(connID, ws.ErrorEvent("failed to load message"))
		return nil, false
	}
	return message, true
}

func (s *ReactionService) broadcast(op string, message *models.Message, emoji, userID string, group *models.ReactionGroup) {
	s.gw.BroadcastToRoom(ws.RoomText, message.ChannelID, ws.Event{
		Op: op,
		Data: ws.ReactionUpdateData{
			MessageID: message.ID,
			Emoji:     emoji,
			UserID:    userID,
			Reaction:  group,
		},
	})
}
