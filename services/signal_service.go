package services

import (
	"github.com/ekoru/gateway/models"
	"github.com/ekoru/gateway/ws"
)

// SignalService, WebRTC signaling mesajlarını (offer/answer/ICE) hedef
// bağlantıya relay eder. Payload'ın içine bakmaz; media akışı server'a
// hiç uğramaz, sadece handshake metadata'sı taşınır.
type SignalService struct {
	gw Gateway
}

// NewSignalService, yeni bir SignalService oluşturur.
func NewSignalService(gw Gateway) *SignalService {
	return &SignalService{gw: gw}
}

// Relay, signal'i data.To bağlantısına iletir.
//
// Gönderen, hedefin beklediği voice room'un üyesi olmalıdır. Routing
// başarısızlıkları (üye olmayan gönderen, ölü hedef) sessizce düşürülür:
// ICE negotiation sırasında kaybolan peer'ler olağandır ve gönderen ICE
// failure path'iyle zaten başa çıkar, error envelope'u gürültü olur.
//
// Kimlik alanları server tarafından damgalanır: alıcının gördüğü from,
// from_user_id ve from_username değerleri gönderenin doğrulanmış
// principal'ından gelir, client beyanından değil.
func (s *SignalService) Relay(p models.Principal, connID string, kind ws.SignalKind, data ws.SignalData) {
	if data.To == "" || data.ChannelID == "" {
		return
	}
	if !s.gw.IsRoomMember(connID, ws.RoomVoice, data.ChannelID) {
		return
	}

	s.gw.SendToConn(data.To, ws.Event{
		Op: ws.ReceiveOp(kind),
		Data: ws.SignalRelayData{
			Offer:        data.Offer,
			Answer:       data.Answer,
			Candidate:    data.Candidate,
			ChannelID:    data.ChannelID,
			From:         connID,
			FromUserID:   p.UserID,
			FromUsername: p.Username,
		},
	})
}
