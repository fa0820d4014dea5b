// Package services, event handler'ların arkasındaki iş mantığını içerir.
//
// Service'ler Hub'a doğrudan değil Gateway interface'i üzerinden bağlanır;
// Hub da service'lere callback'lerle bağlanır (main.go'da wire edilir).
// Böylece iki katman birbirinin concrete tipine bağımlı olmaz ve
// service'ler recorder mock'larla test edilebilir.
package services

import (
	"github.com/ekoru/gateway/models"
	"github.com/ekoru/gateway/ws"
)

// Gateway, service katmanının ihtiyaç duyduğu Hub yüzeyi.
// *ws.Hub bunu sağlar.
type Gateway interface {
	JoinRoom(connID string, kind ws.RoomKind, channelID string) (ws.JoinResult, bool)
	LeaveRoom(connID string, kind ws.RoomKind, channelID string) bool
	IsRoomMember(connID string, kind ws.RoomKind, channelID string) bool
	RoomsOf(connID string) []ws.RoomRef
	ChannelUsers(channelID string) []models.ChannelUser
	VoiceRoster(channelID string) []ws.VoiceRosterEntry
	LookupConnection(userID string) string

	BroadcastToRoom(kind ws.RoomKind, channelID string, event ws.Event)
	BroadcastToRoomExcept(kind ws.RoomKind, channelID, exceptConnID string, event ws.Event)
	BroadcastToAll(event ws.Event)
	SendToConn(connID string, event ws.Event) bool
}
