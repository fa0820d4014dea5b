package ws

import (
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ekoru/gateway/models"
)

const (
	// writeWait: bir yazma işleminin tamamlanması için tanınan süre.
	writeWait = 10 * time.Second

	// pongWait: client'tan heartbeat/pong beklenen maksimum süre.
	// Süre dolarsa bağlantı ölü sayılır ve read pump kapanır.
	pongWait = 90 * time.Second

	// pingPeriod: server'ın ping gönderme aralığı. pongWait'ten kısa olmalı.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize: inbound frame limiti (byte).
	maxMessageSize = 64 * 1024

	// sendBufferSize: client başına outbound buffer. Dolarsa client yavaş
	// demektir ve bağlantı düşürülür.
	sendBufferSize = 256
)

// Client, tek bir WebSocket bağlantısını temsil eder.
//
// textRoom ve voiceRoom alanları hub.mu tarafından korunur; Client kendi
// room state'ini asla doğrudan değiştirmez.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	connID string

	// principal: handshake'te doğrulanan kimlik. Bağlantı ömrü boyunca
	// değişmez.
	principal models.Principal

	// Bağlantının işgal ettiği room'lar ("" = yok). hub.mu altında.
	textRoom  string
	voiceRoom string
}

// NewClient, register edilmemiş bir client oluşturur. Handler register
// ettikten sonra pump'ları başlatır.
func NewClient(hub *Hub, conn *websocket.Conn, connID string, principal models.Principal) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
		connID:    connID,
		principal: principal,
	}
}

func (c *Client) roomFor(kind RoomKind) string {
	if kind == RoomVoice {
		return c.voiceRoom
	}
	return c.textRoom
}

func (c *Client) setRoom(kind RoomKind, channelID string) {
	if kind == RoomVoice {
		c.voiceRoom = channelID
	} else {
		c.textRoom = channelID
	}
}

// ReadPump, bağlantıdan gelen event'leri okur ve sırayla işler.
// Her bağlantı için tek goroutine; event'ler geliş sırasıyla, bir
// öncekinin etkileri tamamlanmadan bir sonrakine geçilmeden işlenir.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read error user=%s conn=%s: %v", c.principal.UserID, c.connID, err)
			}
			return
		}
		c.handleEvent(raw)
	}
}

// WritePump, send buffer'ındaki event'leri bağlantıya yazar ve periyodik
// ping gönderir. Kanal kapandığında (Hub bağlantıyı düşürdüğünde) CloseMessage
// yazar ve döner.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
				return
			}

			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleEvent, tek bir inbound event'i decode edip ilgili callback'e
// senkron olarak iletir. Senkron dispatch, per-connection event sırasını
// garanti eder.
func (c *Client) handleEvent(raw []byte) {
	var ev inboundEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		c.sendError("malformed payload")
		return
	}

	switch ev.Op {
	case OpJoinChannel:
		var data JoinChannelData
		if !c.decode(ev.Data, &data) {
			return
		}
		if data.ChannelID == "" {
			c.sendError("channel id is required")
			return
		}
		if c.hub.onJoin != nil {
			c.hub.onJoin(c.principal, c.connID, data.ChannelID, RoomText)
		}

	case OpChatMessage:
		var data ChatMessageData
		if !c.decode(ev.Data, &data) {
			return
		}
		if data.ChannelID == "" {
			c.sendError("channel id is required")
			return
		}
		if c.hub.onChat != nil {
			c.hub.onChat(c.principal, c.connID, data.ChannelID, data.Message, data.MessageType)
		}

	case OpTyping:
		var data TypingData
		if !c.decode(ev.Data, &data) {
			return
		}
		c.handleTyping(data)

	case OpAddReaction, OpRemoveReaction:
		var data ReactionData
		if !c.decode(ev.Data, &data) {
			return
		}
		if data.MessageID == "" || data.Emoji == "" {
			c.sendError("message id and emoji are required")
			return
		}
		if c.hub.onReaction != nil {
			c.hub.onReaction(c.principal, c.connID, data.MessageID, data.Emoji, ev.Op == OpAddReaction)
		}

	case OpJoinVoiceChannel:
		var data JoinChannelData
		if !c.decode(ev.Data, &data) {
			return
		}
		if data.ChannelID == "" {
			c.sendError("channel id is required")
			return
		}
		if c.hub.onJoin != nil {
			c.hub.onJoin(c.principal, c.connID, data.ChannelID, RoomVoice)
		}

	case OpLeaveVoiceChannel:
		var data JoinChannelData
		if !c.decode(ev.Data, &data) {
			return
		}
		if c.hub.onLeaveVoice != nil {
			c.hub.onLeaveVoice(c.principal, c.connID, data.ChannelID)
		}

	case OpSendOffer, OpSendAnswer, OpSendICECandidate:
		var data SignalData
		if !c.decode(ev.Data, &data) {
			return
		}
		if c.hub.onSignal != nil {
			c.hub.onSignal(c.principal, c.connID, signalKindOf(ev.Op), data)
		}

	case OpUpdateStatus:
		var data UpdateStatusData
		if !c.decode(ev.Data, &data) {
			return
		}
		if c.hub.onStatus != nil {
			c.hub.onStatus(c.principal, c.connID, data.Status)
		}

	case OpHeartbeat:
		c.sendEvent(Event{Op: OpHeartbeatAck})

	default:
		c.sendError("unknown event: " + ev.Op)
	}
}

// handleTyping, typing bildirimini üyelik kontrolüyle yayınlar.
// Store'a dokunmadığı için service katmanına inmez; Hub state'i yeterli.
func (c *Client) handleTyping(data TypingData) {
	if data.ChannelID == "" {
		return
	}
	if !c.hub.IsRoomMember(c.connID, RoomText, data.ChannelID) {
		// Üyesi olmadığı kanala typing yayınlanmaz, hata da dönülmez.
		return
	}

	c.hub.BroadcastToRoomExcept(RoomText, data.ChannelID, c.connID, Event{
		Op: OpUserTyping,
		Data: UserTypingData{
			UserID:      c.principal.UserID,
			DisplayName: c.principal.DisplayName,
			ChannelID:   data.ChannelID,
			IsTyping:    data.IsTyping,
		},
	})
}

func (c *Client) decode(raw json.RawMessage, v any) bool {
	if err := json.Unmarshal(raw, v); err != nil {
		c.sendError("malformed payload")
		return false
	}
	return true
}

// sendEvent, event'i bu bağlantıya Hub üzerinden gönderir (seq damgası
// Hub'da vurulur).
func (c *Client) sendEvent(event Event) {
	c.hub.SendToConn(c.connID, event)
}

func (c *Client) sendError(message string) {
	c.sendEvent(ErrorEvent(message))
}

func signalKindOf(op string) SignalKind {
	switch {
	case strings.HasSuffix(op, "offer"):
		return SignalOffer
	case strings.HasSuffix(op, "answer"):
		return SignalAnswer
	default:
		return SignalICE
	}
}
