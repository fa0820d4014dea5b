package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/ekoru/gateway/models"
	"github.com/ekoru/gateway/repository"
	"github.com/ekoru/gateway/ws"
)

// PresenceService, kullanıcının kalıcı (durable) presence status'unu
// yönetir ve disconnect sonrası temizliği yapar.
//
// Grace window: bağlantı koptuğunda status hemen offline yapılmaz;
// userID başına iptal edilebilir bir timer kurulur. Kullanıcı pencere
// içinde yeniden bağlanırsa timer iptal edilir ve status hiç oynamaz —
// sayfa yenilemeleri görünür durumu titretmez.
type PresenceService struct {
	gw       Gateway
	userRepo repository.UserRepository
	grace    time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer // userID → bekleyen offline timer'ı
}

// NewPresenceService, verilen grace window süresiyle bir PresenceService
// oluşturur.
func NewPresenceService(gw Gateway, userRepo repository.UserRepository, grace time.Duration) *PresenceService {
	return &PresenceService{
		gw:       gw,
		userRepo: userRepo,
		grace:    grace,
		timers:   make(map[string]*time.Timer),
	}
}

// HandleRegister, yeni bir bağlantı kaydolduğunda çağrılır: bekleyen
// offline timer'ı iptal eder, durable status'u online'a çeker ve değişikliği
// herkese duyurur.
func (s *PresenceService) HandleRegister(p models.Principal, connID string) {
	s.cancelTimer(p.UserID)

	if err := s.userRepo.UpdateStatus(context.Background(), p.UserID, models.UserStatusOnline); err != nil {
		log.Printf("[presence] failed to mark user %s online: %v", p.UserID, err)
	}
	s.gw.BroadcastToAll(ws.Event{
		Op:   ws.OpUserStatusUpdate,
		Data: ws.UserStatusData{UserID: p.UserID, Status: string(models.UserStatusOnline)},
	})
}

// HandleDisconnect, bir bağlantı koptuğunda çağrılır. Room temizliği
// Hub'da senkron tamamlanmıştır; burada terk edilen room'lara leave
// bildirimleri yayınlanır ve gerekiyorsa offline timer'ı kurulur.
//
// stillRegistered true ise kullanıcının daha yeni bir bağlantısı registry'de
// duruyor demektir (last-connect-wins); status'a dokunulmaz.
func (s *PresenceService) HandleDisconnect(p models.Principal, connID string, left []ws.RoomRef, stillRegistered bool) {
	for _, ref := range left {
		s.gw.BroadcastToRoom(ref.Kind, ref.ChannelID, ws.UserLeftEvent(ref.Kind, p, connID, ref.ChannelID))
	}

	if stillRegistered {
		return
	}
	s.scheduleOffline(p.UserID)
}

// scheduleOffline, grace window sonunda kullanıcıyı offline işaretleyecek
// timer'ı kurar. Mevcut bir timer varsa yenisiyle değiştirilir.
func (s *PresenceService) scheduleOffline(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[userID]; ok {
		t.Stop()
	}
	s.timers[userID] = time.AfterFunc(s.grace, func() {
		s.mu.Lock()
		delete(s.timers, userID)
		s.mu.Unlock()

		// Timer iptaliyle yarışan reconnect'e karşı son kontrol:
		// registry'de canlı bağlantı belirdiyse offline yazılmaz.
		if s.gw.LookupConnection(userID) != "" {
			return
		}

		if err := s.userRepo.UpdateStatus(context.Background(), userID, models.UserStatusOffline); err != nil {
			log.Printf("[presence] failed to mark user %s offline: %v", userID, err)
		}
		s.gw.BroadcastToAll(ws.Event{
			Op:   ws.OpUserStatusUpdate,
			Data: ws.UserStatusData{UserID: userID, Status: string(models.UserStatusOffline)},
		})
	})
}

func (s *PresenceService) cancelTimer(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[userID]; ok {
		t.Stop()
		delete(s.timers, userID)
	}
}

// UpdateStatus, updateStatus event'ini işler: status'u doğrular,
// kalıcılaştırır ve bağlantının işgal ettiği room'lara duyurur.
func (s *PresenceService) UpdateStatus(p models.Principal, connID, status string) {
	st := models.UserStatus(status)
	if !st.Valid() {
		s.gw.SendToConn(connID, ws.ErrorEvent("invalid status"))
		return
	}

	if err := s.userRepo.UpdateStatus(context.Background(), p.UserID, st); err != nil {
		log.Printf("[presence] failed to update status for user %s: %v", p.UserID, err)
		s.gw.SendToConn(connID, ws.ErrorEvent("failed to update status"))
		return
	}

	event := ws.Event{
		Op:   ws.OpUserStatusUpdate,
		Data: ws.UserStatusData{UserID: p.UserID, Status: status},
	}
	for _, ref := range s.gw.RoomsOf(connID) {
		s.gw.BroadcastToRoom(ref.Kind, ref.ChannelID, event)
	}
}

// Stop, bekleyen tüm timer'ları iptal eder (graceful shutdown).
func (s *PresenceService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for uid, t := range s.timers {
		t.Stop()
		delete(s.timers, uid)
	}
}
