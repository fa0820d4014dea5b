package services

import (
	"context"
	"log"

	"github.com/ekoru/gateway/models"
	"github.com/ekoru/gateway/repository"
	"github.com/ekoru/gateway/ws"
)

// recentMessageLimit: join yanıtında gönderilen geçmiş mesaj sayısı.
const recentMessageLimit = 50

// RoomService, room'lara katılma ve ayrılma geçişlerini yönetir.
// Üyelik state'i Hub'dadır; bu servis geçişin yan etkilerini
// (bildirimler, roster ve history yanıtları) üretir.
type RoomService struct {
	gw       Gateway
	messages repository.MessageRepository
}

// NewRoomService, yeni bir RoomService oluşturur.
func NewRoomService(gw Gateway, messages repository.MessageRepository) *RoomService {
	return &RoomService{gw: gw, messages: messages}
}

// Join, bağlantıyı hedef room'a geçirir ve yan etkileri yayınlar:
//
//  1. Aynı kind'da önceki bir room terk edildiyse oraya leave bildirimi
//  2. Üyelik gerçekten değiştiyse yeni room'a join bildirimi (self hariç)
//  3. Katılana roster (+ text için history) yanıtları
//
// Re-join idempotent'tir: bildirim çıkmaz ama roster ve history yine
// gönderilir — client reconnect sonrası state'ini bununla tazeler.
func (s *RoomService) Join(ctx context.Context, p models.Principal, connID, channelID string, kind ws.RoomKind) {
	res, ok := s.gw.JoinRoom(connID, kind, channelID)
	if !ok {
		// Bağlantı geçiş tamamlanamadan öldü.
		return
	}

	if res.Prev != "" {
		s.gw.BroadcastToRoom(kind, res.Prev, ws.UserLeftEvent(kind, p, connID, res.Prev))
	}
	if !res.Already {
		s.gw.BroadcastToRoomExcept(kind, channelID, connID, ws.UserJoinedEvent(kind, p, connID, channelID))
	}

	if kind == ws.RoomVoice {
		s.gw.SendToConn(connID, ws.Event{
			Op: ws.OpVoiceChannelUsers,
			Data: ws.VoiceChannelUsersData{
				ChannelID: channelID,
				Users:     s.gw.VoiceRoster(channelID),
			},
		})
		return
	}

	s.gw.SendToConn(connID, ws.Event{
		Op: ws.OpChannelUsers,
		Data: ws.ChannelUsersData{
			ChannelID: channelID,
			Users:     s.gw.ChannelUsers(channelID),
		},
	})

	// History fetch hatası join'i bozmaz; katılan boş listeyle devam eder.
	messages, err := s.messages.Recent(ctx, channelID, recentMessageLimit)
	if err != nil {
		log.Printf("[room] failed to load recent messages for channel %s: %v", channelID, err)
		messages = []models.Message{}
	}
	s.gw.SendToConn(connID, ws.Event{
		Op: ws.OpRecentMessages,
		Data: ws.RecentMessagesData{
			ChannelID: channelID,
			Messages:  messages,
		},
	})
}

// LeaveVoice, bağlantıyı voice room'dan çıkarır ve kalan üyelere bildirir.
// Bağlantı o room'da değilse sessizce no-op.
func (s *RoomService) LeaveVoice(p models.Principal, connID, channelID string) {
	if !s.gw.LeaveRoom(connID, ws.RoomVoice, channelID) {
		return
	}
	s.gw.BroadcastToRoom(ws.RoomVoice, channelID, ws.UserLeftEvent(ws.RoomVoice, p, connID, channelID))
}

// EnsureMember, self-healing join: bağlantı kanalın text room'unda değilse
// sessizce katar. Normal join'den farkı, katılana roster ve history
// yanıtlarının gönderilmemesidir — talep edilmemiş state client'a itilmez.
// Üyelik bildirimleri yine çıkar; roster'lar tutarlı kalmalı.
func (s *RoomService) EnsureMember(p models.Principal, connID, channelID string) bool {
	if s.gw.IsRoomMember(connID, ws.RoomText, channelID) {
		return true
	}

	res, ok := s.gw.JoinRoom(connID, ws.RoomText, channelID)
	if !ok {
		return false
	}
	if res.Prev != "" {
		s.gw.BroadcastToRoom(ws.RoomText, res.Prev, ws.UserLeftEvent(ws.RoomText, p, connID, res.Prev))
	}
	if !res.Already {
		s.gw.BroadcastToRoomExcept(ws.RoomText, channelID, connID, ws.UserJoinedEvent(ws.RoomText, p, connID, channelID))
	}
	return true
}
