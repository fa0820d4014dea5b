package ws

import (
	"encoding/json"
	"log"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/ekoru/gateway/models"
)

// JoinResult, bir JoinRoom geçişinin sonucu.
type JoinResult struct {
	// Prev, aynı kind'daki önceki room'un channel id'si — geçiş sırasında
	// terk edildiyse dolu, yoksa boş.
	Prev string
	// Already true ise bağlantı zaten bu room'daydı; üyelik ve presence
	// değişmedi (idempotent re-join).
	Already bool
}

// Hub, tüm WebSocket bağlantılarını ve paylaşılan index'leri yöneten
// merkezi yapıdır. Üç paylaşılan index'in tek sahibi budur:
//
//   - clients: userID → canlı bağlantı (Connection Registry; last-connect-wins)
//   - rooms:   (kind, channelId) → üye bağlantı seti
//   - presence: channelId → userID seti (Channel Presence Index)
//
// Tüm index mutasyonları tek mutex altında senkron tamamlanır; mutex
// hiçbir zaman bir I/O çağrısı boyunca tutulmaz. Store'a giden işler
// service katmanındadır ve Hub'a sadece mutasyon/broadcast için döner.
type Hub struct {
	mu sync.RWMutex

	// clients: Connection Registry. Aynı kullanıcı için yeni bir bağlantı
	// entry'yi koşulsuz ezer; eski transport kapatılmaz, kendi disconnect'i
	// geldiğinde lazy temizlenir.
	clients map[string]*Client

	// conns: connectionID → Client (signaling hedef çözümü için).
	conns map[string]*Client

	// rooms: yapısal (kind, channelId) anahtarıyla üye setleri.
	rooms map[RoomKey]map[*Client]struct{}

	// presence: channelId → userID seti. Son üye çıktığında kanal
	// entry'si tamamen silinir — boş set tutulmaz.
	presence map[string]map[string]struct{}

	// principals: userID → handshake'te çözülen kimlik (roster'lar için).
	principals map[string]models.Principal

	register   chan *Client
	unregister chan *Client

	// seq: her outbound event'e verilen artan sayaç.
	seq atomic.Int64

	// Callback'ler — main.go'da service katmanına bağlanır. Hub service'lere
	// bağımlı olmaz (Dependency Inversion).
	onRegister   func(p models.Principal, connID string)
	onDisconnect func(p models.Principal, connID string, left []RoomRef, stillRegistered bool)
	onJoin       func(p models.Principal, connID, channelID string, kind RoomKind)
	onLeaveVoice func(p models.Principal, connID, channelID string)
	onChat       func(p models.Principal, connID, channelID, content, messageType string)
	onReaction   func(p models.Principal, connID, messageID, emoji string, add bool)
	onSignal     func(p models.Principal, connID string, kind SignalKind, data SignalData)
	onStatus     func(p models.Principal, connID, status string)
}

// NewHub, yeni bir Hub oluşturur.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		conns:      make(map[string]*Client),
		rooms:      make(map[RoomKey]map[*Client]struct{}),
		presence:   make(map[string]map[string]struct{}),
		principals: make(map[string]models.Principal),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Callback setter'ları — main.go wire-up'ta, Run'dan önce çağrılır.

func (h *Hub) OnRegister(fn func(p models.Principal, connID string)) { h.onRegister = fn }

func (h *Hub) OnDisconnect(fn func(p models.Principal, connID string, left []RoomRef, stillRegistered bool)) {
	h.onDisconnect = fn
}

func (h *Hub) OnJoin(fn func(p models.Principal, connID, channelID string, kind RoomKind)) {
	h.onJoin = fn
}

func (h *Hub) OnLeaveVoice(fn func(p models.Principal, connID, channelID string)) {
	h.onLeaveVoice = fn
}

func (h *Hub) OnChat(fn func(p models.Principal, connID, channelID, content, messageType string)) {
	h.onChat = fn
}

func (h *Hub) OnReaction(fn func(p models.Principal, connID, messageID, emoji string, add bool)) {
	h.onReaction = fn
}

func (h *Hub) OnSignal(fn func(p models.Principal, connID string, kind SignalKind, data SignalData)) {
	h.onSignal = fn
}

func (h *Hub) OnStatus(fn func(p models.Principal, connID, status string)) { h.onStatus = fn }

// Run, Hub'ın ana event loop'udur. main.go'da `go hub.Run()` ile başlatılır.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

// addClient, yeni bir bağlantıyı registry'ye kaydeder.
// Aynı kullanıcının önceki entry'si koşulsuz ezilir (last-connect-wins);
// eski transport'a dokunulmaz.
func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	h.conns[c.connID] = c
	h.clients[c.principal.UserID] = c
	h.principals[c.principal.UserID] = c.principal
	h.mu.Unlock()

	log.Printf("[ws] client connected: user=%s conn=%s", c.principal.UserID, c.connID)

	// Callback Lock dışında ve ayrı goroutine'de — içinde broadcast
	// (RLock) yapabilir.
	if h.onRegister != nil {
		go h.onRegister(c.principal, c.connID)
	}
}

// removeClient, bir bağlantıyı tüm index'lerden çıkarır.
//
// Registry entry'si sadece hâlâ bu bağlantıyı gösteriyorsa silinir —
// aynı kullanıcının az önce kaydolmuş daha yeni bağlantısı, geciken bir
// disconnect handler tarafından devrilmez.
func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()

	if _, ok := h.conns[c.connID]; !ok {
		// Zaten çıkarılmış (ör. slow-client eviction + read pump kapanışı)
		h.mu.Unlock()
		return
	}
	delete(h.conns, c.connID)

	var left []RoomRef
	if c.textRoom != "" {
		left = append(left, RoomRef{Kind: RoomText, ChannelID: c.textRoom})
		h.removeFromRoomLocked(c, RoomText, c.textRoom)
	}
	if c.voiceRoom != "" {
		left = append(left, RoomRef{Kind: RoomVoice, ChannelID: c.voiceRoom})
		h.removeFromRoomLocked(c, RoomVoice, c.voiceRoom)
	}

	uid := c.principal.UserID
	stillRegistered := false
	if cur, ok := h.clients[uid]; ok {
		if cur == c {
			delete(h.clients, uid)
		} else {
			stillRegistered = true
		}
	}

	if !h.anyConnOfUserLocked(uid) {
		delete(h.principals, uid)
	}

	close(c.send)
	h.mu.Unlock()

	log.Printf("[ws] client disconnected: user=%s conn=%s rooms_left=%d", uid, c.connID, len(left))

	if h.onDisconnect != nil {
		go h.onDisconnect(c.principal, c.connID, left, stillRegistered)
	}
}

// anyConnOfUserLocked, kullanıcının (superseded dahil) herhangi bir canlı
// bağlantısı kalıp kalmadığını döner. h.mu tutulurken çağrılır.
func (h *Hub) anyConnOfUserLocked(userID string) bool {
	for _, c := range h.conns {
		if c.principal.UserID == userID {
			return true
		}
	}
	return false
}

// JoinRoom, bağlantıyı hedef room'a geçirir.
//
// Geçiş kuralı: bağlantı aynı kind'da başka bir room'daysa önce oradan
// çıkarılır (üyelik + presence tek kilit altında güncellenir). Bildirimler
// çağıranın sorumluluğundadır — dönen JoinResult neyin değiştiğini söyler.
// Bağlantı artık yaşamıyorsa ok=false döner.
func (h *Hub) JoinRoom(connID string, kind RoomKind, channelID string) (JoinResult, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[connID]
	if !ok {
		return JoinResult{}, false
	}

	cur := c.roomFor(kind)
	if cur == channelID {
		return JoinResult{Already: true}, true
	}

	var res JoinResult
	if cur != "" {
		h.removeFromRoomLocked(c, kind, cur)
		res.Prev = cur
	}

	key := RoomKey{Kind: kind, ChannelID: channelID}
	members, ok := h.rooms[key]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[key] = members
	}
	members[c] = struct{}{}
	c.setRoom(kind, channelID)

	users, ok := h.presence[channelID]
	if !ok {
		users = make(map[string]struct{})
		h.presence[channelID] = users
	}
	users[c.principal.UserID] = struct{}{}

	return res, true
}

// LeaveRoom, bağlantıyı belirtilen room'dan çıkarır.
// Bağlantı o room'da değilse false döner.
func (h *Hub) LeaveRoom(connID string, kind RoomKind, channelID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[connID]
	if !ok || c.roomFor(kind) != channelID {
		return false
	}

	h.removeFromRoomLocked(c, kind, channelID)
	return true
}

// removeFromRoomLocked, üyelik ve presence'ı tek adımda düşürür.
// h.mu tutulurken çağrılır.
//
// Presence user-id seviyesindedir: aynı kullanıcının superseded bir
// bağlantısı hâlâ bu kanalın bir room'unda oturuyor olabilir — userID
// sadece kanalda hiçbir bağlantısı kalmadığında silinir.
func (h *Hub) removeFromRoomLocked(c *Client, kind RoomKind, channelID string) {
	key := RoomKey{Kind: kind, ChannelID: channelID}
	if members, ok := h.rooms[key]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, key)
		}
	}
	c.setRoom(kind, "")

	uid := c.principal.UserID
	if !h.userInChannelLocked(channelID, uid) {
		if users, ok := h.presence[channelID]; ok {
			delete(users, uid)
			if len(users) == 0 {
				delete(h.presence, channelID)
			}
		}
	}
}

// userInChannelLocked, kullanıcının kanalın text veya voice room'unda
// herhangi bir bağlantısı kalıp kalmadığını kontrol eder.
func (h *Hub) userInChannelLocked(channelID, userID string) bool {
	for _, kind := range []RoomKind{RoomText, RoomVoice} {
		for member := range h.rooms[RoomKey{Kind: kind, ChannelID: channelID}] {
			if member.principal.UserID == userID {
				return true
			}
		}
	}
	return false
}

// IsRoomMember, bağlantının belirtilen room'un üyesi olup olmadığını döner.
func (h *Hub) IsRoomMember(connID string, kind RoomKind, channelID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.conns[connID]
	return ok && c.roomFor(kind) == channelID
}

// RoomsOf, bağlantının işgal ettiği room'ları döner.
func (h *Hub) RoomsOf(connID string) []RoomRef {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.conns[connID]
	if !ok {
		return nil
	}

	var refs []RoomRef
	if c.textRoom != "" {
		refs = append(refs, RoomRef{Kind: RoomText, ChannelID: c.textRoom})
	}
	if c.voiceRoom != "" {
		refs = append(refs, RoomRef{Kind: RoomVoice, ChannelID: c.voiceRoom})
	}
	return refs
}

// ChannelUsers, kanalın roster'ını döner. IsOnline alanı Connection
// Registry'den read-time'da çözülür — store'da tutulmaz.
func (h *Hub) ChannelUsers(channelID string) []models.ChannelUser {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]models.ChannelUser, 0, len(h.presence[channelID]))
	for uid := range h.presence[channelID] {
		p := h.principals[uid]
		_, online := h.clients[uid]
		users = append(users, models.ChannelUser{
			UserID:      uid,
			DisplayName: p.DisplayName,
			AvatarURL:   p.AvatarURL,
			IsOnline:    online,
		})
	}

	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })
	return users
}

// VoiceRoster, voice room'un üyelerini connection id'leriyle döner.
// Client'lar signaling hedeflerini bu listeden öğrenir.
func (h *Hub) VoiceRoster(channelID string) []VoiceRosterEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	key := RoomKey{Kind: RoomVoice, ChannelID: channelID}
	entries := make([]VoiceRosterEntry, 0, len(h.rooms[key]))
	for member := range h.rooms[key] {
		entries = append(entries, VoiceRosterEntry{
			UserID:      member.principal.UserID,
			ConnID:      member.connID,
			DisplayName: member.principal.DisplayName,
			AvatarURL:   member.principal.AvatarURL,
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].ConnID < entries[j].ConnID })
	return entries
}

// LookupConnection, kullanıcının registry'deki canlı bağlantısının
// connection id'sini döner; yoksa boş string.
func (h *Hub) LookupConnection(userID string) string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if c, ok := h.clients[userID]; ok {
		return c.connID
	}
	return ""
}

// BroadcastToRoom, event'i room'un tüm üyelerine gönderir.
func (h *Hub) BroadcastToRoom(kind RoomKind, channelID string, event Event) {
	h.broadcastRoom(kind, channelID, "", event)
}

// BroadcastToRoomExcept, event'i belirtilen bağlantı hariç tüm room
// üyelerine gönderir (typing, join bildirimi gibi self'e gitmeyecek event'ler).
func (h *Hub) BroadcastToRoomExcept(kind RoomKind, channelID, exceptConnID string, event Event) {
	h.broadcastRoom(kind, channelID, exceptConnID, event)
}

func (h *Hub) broadcastRoom(kind RoomKind, channelID, exceptConnID string, event Event) {
	data, ok := h.marshalEvent(event)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for member := range h.rooms[RoomKey{Kind: kind, ChannelID: channelID}] {
		if member.connID == exceptConnID {
			continue
		}
		h.sendLocked(member, data)
	}
}

// BroadcastToAll, event'i registry'deki tüm bağlantılara gönderir.
// Presence status değişiklikleri gibi global event'ler için.
func (h *Hub) BroadcastToAll(event Event) {
	data, ok := h.marshalEvent(event)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		h.sendLocked(c, data)
	}
}

// SendToConn, event'i tek bir bağlantıya gönderir.
// Bağlantı yoksa false döner — signaling relay bunu sessizce düşürmek
// için kullanır.
func (h *Hub) SendToConn(connID string, event Event) bool {
	data, ok := h.marshalEvent(event)
	if !ok {
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	c, exists := h.conns[connID]
	if !exists {
		return false
	}
	h.sendLocked(c, data)
	return true
}

// marshalEvent, seq damgalayıp JSON'a çevirir.
func (h *Hub) marshalEvent(event Event) ([]byte, bool) {
	event.Seq = h.seq.Add(1)

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal event %s: %v", event.Op, err)
		return nil, false
	}
	return data, true
}

// sendLocked, event'i client'ın send buffer'ına bırakır.
// Buffer doluysa client yavaştır — bağlantı düşürülür.
func (h *Hub) sendLocked(c *Client, data []byte) {
	select {
	case c.send <- data:
	default:
		go func() { h.unregister <- c }()
	}
}

// Shutdown, tüm client bağlantılarını kapatır (graceful shutdown).
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.conns {
		close(c.send)
	}
	h.clients = make(map[string]*Client)
	h.conns = make(map[string]*Client)
	h.rooms = make(map[RoomKey]map[*Client]struct{})
	h.presence = make(map[string]map[string]struct{})
	h.principals = make(map[string]models.Principal)
	log.Println("[ws] hub shut down, all connections closed")
}
