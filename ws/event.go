// Package ws, WebSocket bağlantı yönetimi ve gerçek zamanlı event dağıtımını sağlar.
//
// Mimari:
// - Hub: Connection Registry + Channel Presence Index + room üyeliğinin tek sahibi
// - Client: Her WebSocket bağlantısını temsil eder (read/write pump çifti)
// - Event: Client-server arası iletilen mesaj zarfı
//
// Event akışı:
// 1. Client bir event gönderir → ReadPump parse eder
// 2. Dispatch, payload'ı typed struct'a çözer ve ilgili callback'i çağırır
// 3. Service katmanı store'a gider, sonra Hub'ın broadcast metotlarını çağırır
// 4. Hedef room üyelerinin WritePump'ları event'i WebSocket'e yazar
package ws

import (
	"encoding/json"

	"github.com/ekoru/gateway/models"
)

// Event, WebSocket üzerinden giden bir mesajı temsil eder.
//
// Op: Event adı — "chatMessage", "userJoinedChannel" vb.
// Data: Event'e özgü payload.
// Seq: Her outbound event'e verilen artan sayı — client eksik event
// tespiti için takip eder.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// inboundEvent, client'tan gelen ham event. Payload, op'a göre typed
// struct'a çözülene kadar raw bırakılır — bilinmeyen veya bozuk şekiller
// iş mantığına ulaşmadan reddedilir.
type inboundEvent struct {
	Op   string          `json:"op"`
	Data json.RawMessage `json:"d"`
}

// Client → Server operasyonları
const (
	OpHeartbeat         = "heartbeat"          // Bağlantı canlılık sinyali
	OpJoinChannel       = "joinChannel"        // Text kanal room'una katıl
	OpTyping            = "typing"             // Yazıyor göstergesi
	OpAddReaction       = "addReaction"        // Mesaja emoji reaction ekle
	OpRemoveReaction    = "removeReaction"     // Mesajdan emoji reaction kaldır
	OpJoinVoiceChannel  = "joinVoiceChannel"   // Voice kanal room'una katıl
	OpLeaveVoiceChannel = "leaveVoiceChannel"  // Voice kanal room'undan ayrıl
	OpSendOffer         = "send-offer"         // WebRTC SDP offer relay isteği
	OpSendAnswer        = "send-answer"        // WebRTC SDP answer relay isteği
	OpSendICECandidate  = "send-ice-candidate" // WebRTC ICE candidate relay isteği
	OpUpdateStatus      = "updateStatus"       // Durable presence status değişikliği
)

// OpChatMessage iki yönlüdür: client gönderir, server canonical persist
// edilmiş formu aynı op ile room'a broadcast eder.
const OpChatMessage = "chatMessage"

// Server → Client operasyonları
const (
	OpHeartbeatAck        = "heartbeat_ack"         // Heartbeat yanıtı
	OpRecentMessages      = "recentMessages"        // Join yanıtı: kanalın son mesajları
	OpUserJoinedChannel   = "userJoinedChannel"     // Text room'a kullanıcı katıldı
	OpUserLeftChannel     = "userLeftChannel"       // Text room'dan kullanıcı ayrıldı
	OpVoiceUserJoined     = "user-joined"           // Voice room'a kullanıcı katıldı
	OpVoiceUserLeft       = "user-left"             // Voice room'dan kullanıcı ayrıldı
	OpChannelUsers        = "channelUsers"          // Join yanıtı: text roster
	OpVoiceChannelUsers   = "voiceChannelUsers"     // Join yanıtı: voice roster (conn id'li)
	OpUserTyping          = "userTyping"            // Bir kullanıcı yazıyor/bıraktı
	OpReactionAdded       = "reactionAdded"         // Reaction eklendi, güncel grup snapshot'ı ile
	OpReactionRemoved     = "reactionRemoved"       // Reaction kaldırıldı, kalan grup veya null ile
	OpReceiveOffer        = "receive-offer"         // Relay edilen SDP offer
	OpReceiveAnswer       = "receive-answer"        // Relay edilen SDP answer
	OpReceiveICECandidate = "receive-ice-candidate" // Relay edilen ICE candidate
	OpUserStatusUpdate    = "userStatusUpdate"      // Durable presence status değişti
	OpError               = "error"                 // Sadece isteği yapan bağlantıya giden hata
)

// RoomKind, bir room'un türü. Room anahtarı baştan sona yapısal
// (kind, channelId) çiftidir — string prefix parse edilmez.
type RoomKind string

const (
	RoomText  RoomKind = "text"
	RoomVoice RoomKind = "voice"
)

// RoomKey, Hub'ın room index'inin composite anahtarı.
type RoomKey struct {
	Kind      RoomKind
	ChannelID string
}

// RoomRef, bir bağlantının işgal ettiği room'a referans.
// Disconnect reconciler'a ve status broadcast'ine geçirilir.
type RoomRef struct {
	Kind      RoomKind
	ChannelID string
}

// SignalKind, relay edilen WebRTC signaling mesajının türü.
type SignalKind string

const (
	SignalOffer  SignalKind = "offer"
	SignalAnswer SignalKind = "answer"
	SignalICE    SignalKind = "ice"
)

// ─── Client → Server payload'ları ───

// JoinChannelData, joinChannel / joinVoiceChannel / leaveVoiceChannel payload'ı.
type JoinChannelData struct {
	ChannelID string `json:"channel_id"`
}

// ChatMessageData, chatMessage event'inin inbound payload'ı.
type ChatMessageData struct {
	ChannelID   string `json:"channel_id"`
	Message     string `json:"message"`
	MessageType string `json:"message_type,omitempty"`
}

// TypingData, typing event'inin payload'ı.
type TypingData struct {
	ChannelID string `json:"channel_id"`
	IsTyping  bool   `json:"is_typing"`
}

// ReactionData, addReaction / removeReaction payload'ı.
type ReactionData struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

// SignalData, send-offer / send-answer / send-ice-candidate payload'ı.
// Offer/Answer/Candidate içeriği yorumlanmadan raw taşınır — relay
// payload'a bakmaz. To, hedef bağlantının connection id'sidir; client'lar
// peer connection id'lerini join/leave roster bildirimlerinden öğrenir.
type SignalData struct {
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
	To        string          `json:"to"`
	ChannelID string          `json:"channel_id"`
}

// UpdateStatusData, updateStatus event'inin payload'ı.
type UpdateStatusData struct {
	Status string `json:"status"`
}

// ─── Server → Client payload'ları ───

// RoomUserData, user joined/left bildirimlerinin payload'ı.
// ConnID, voice peer'lerinin signaling hedefi olarak kullanılır.
type RoomUserData struct {
	UserID      string `json:"user_id"`
	ConnID      string `json:"conn_id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	ChannelID   string `json:"channel_id"`
}

// ChannelUsersData, channelUsers event'inin payload'ı (text roster).
type ChannelUsersData struct {
	ChannelID string               `json:"channel_id"`
	Users     []models.ChannelUser `json:"users"`
}

// VoiceRosterEntry, voice roster'ındaki tek bir üye.
// Signaling için connection id taşır.
type VoiceRosterEntry struct {
	UserID      string `json:"user_id"`
	ConnID      string `json:"conn_id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// VoiceChannelUsersData, voiceChannelUsers event'inin payload'ı.
type VoiceChannelUsersData struct {
	ChannelID string             `json:"channel_id"`
	Users     []VoiceRosterEntry `json:"users"`
}

// RecentMessagesData, recentMessages event'inin payload'ı.
// Mesajlar görüntüleme sırasıyladır (en eski başta).
type RecentMessagesData struct {
	ChannelID string           `json:"channel_id"`
	Messages  []models.Message `json:"messages"`
}

// UserTypingData, userTyping event'inin payload'ı (broadcast edilen).
type UserTypingData struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	ChannelID   string `json:"channel_id"`
	IsTyping    bool   `json:"is_typing"`
}

// ReactionUpdateData, reactionAdded / reactionRemoved payload'ı.
// Reaction, mutasyon sonrası grubun snapshot'ıdır; grup tamamen
// silindiyse null gider.
type ReactionUpdateData struct {
	MessageID string                `json:"message_id"`
	Emoji     string                `json:"emoji"`
	UserID    string                `json:"user_id"`
	Reaction  *models.ReactionGroup `json:"reaction"`
}

// SignalRelayData, receive-* event'lerinin payload'ı.
// Gönderenin kimlik alanları server tarafından damgalanır — alıcı,
// client'ın beyan ettiği kimliğe güvenmek zorunda kalmaz.
type SignalRelayData struct {
	Offer        json.RawMessage `json:"offer,omitempty"`
	Answer       json.RawMessage `json:"answer,omitempty"`
	Candidate    json.RawMessage `json:"candidate,omitempty"`
	ChannelID    string          `json:"channel_id"`
	From         string          `json:"from"`
	FromUserID   string          `json:"from_user_id"`
	FromUsername string          `json:"from_username"`
}

// UserStatusData, userStatusUpdate event'inin payload'ı.
type UserStatusData struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

// ErrorData, error event'inin payload'ı.
// Sadece isteği yapan bağlantıya gönderilir.
type ErrorData struct {
	Message string `json:"message"`
}

// ErrorEvent, verilen mesajla bir error envelope'u oluşturur.
func ErrorEvent(message string) Event {
	return Event{Op: OpError, Data: ErrorData{Message: message}}
}

// UserJoinedEvent, kind'a uygun isimle bir joined bildirimi oluşturur.
func UserJoinedEvent(kind RoomKind, p models.Principal, connID, channelID string) Event {
	op := OpUserJoinedChannel
	if kind == RoomVoice {
		op = OpVoiceUserJoined
	}
	return Event{Op: op, Data: RoomUserData{
		UserID:      p.UserID,
		ConnID:      connID,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
		ChannelID:   channelID,
	}}
}

// UserLeftEvent, kind'a uygun isimle bir left bildirimi oluşturur.
func UserLeftEvent(kind RoomKind, p models.Principal, connID, channelID string) Event {
	op := OpUserLeftChannel
	if kind == RoomVoice {
		op = OpVoiceUserLeft
	}
	return Event{Op: op, Data: RoomUserData{
		UserID:      p.UserID,
		ConnID:      connID,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
		ChannelID:   channelID,
	}}
}

// ReceiveOp, relay edilen signal türünün outbound event adını döner.
func ReceiveOp(kind SignalKind) string {
	switch kind {
	case SignalOffer:
		return OpReceiveOffer
	case SignalAnswer:
		return OpReceiveAnswer
	default:
		return OpReceiveICECandidate
	}
}
