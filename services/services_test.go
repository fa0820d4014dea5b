package services

import (
	"context"
	"sync"

	"github.com/ekoru/gateway/models"
	"github.com/ekoru/gateway/pkg"
	"github.com/ekoru/gateway/ws"
)

// Bu dosya service testlerinin paylaştığı fake'leri içerir.
// Gateway ve repository interface'leri küçük olduğu için mock framework
// yerine elle yazılmış recorder'lar kullanılır.

type sentEvent struct {
	ConnID string
	Event  ws.Event
}

type roomEvent struct {
	Kind      ws.RoomKind
	ChannelID string
	Except    string
	Event     ws.Event
}

// fakeGateway, Gateway çağrılarını kaydeden test double'ı.
type fakeGateway struct {
	mu sync.Mutex

	joinResult ws.JoinResult
	joinOK     bool
	leaveOK    bool
	members    map[string]bool // "connID|kind|channelID" → üyelik
	lookups    map[string]string
	rooms      map[string][]ws.RoomRef
	roster     []models.ChannelUser
	voice      []ws.VoiceRosterEntry
	deadConns  map[string]bool

	joins      []roomEvent // JoinRoom çağrıları (Event boş)
	sent       []sentEvent
	broadcasts []roomEvent
	global     []ws.Event
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		joinOK:    true,
		leaveOK:   true,
		members:   make(map[string]bool),
		lookups:   make(map[string]string),
		rooms:     make(map[string][]ws.RoomRef),
		deadConns: make(map[string]bool),
	}
}

func memberKey(connID string, kind ws.RoomKind, channelID string) string {
	return connID + "|" + string(kind) + "|" + channelID
}

func (g *fakeGateway) JoinRoom(connID string, kind ws.RoomKind, channelID string) (ws.JoinResult, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.joins = append(g.joins, roomEvent{Kind: kind, ChannelID: channelID, Except: connID})
	if g.joinOK {
		g.members[memberKey(connID, kind, channelID)] = true
	}
	return g.joinResult, g.joinOK
}

func (g *fakeGateway) LeaveRoom(connID string, kind ws.RoomKind, channelID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.members, memberKey(connID, kind, channelID))
	return g.leaveOK
}

func (g *fakeGateway) IsRoomMember(connID string, kind ws.RoomKind, channelID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.members[memberKey(connID, kind, channelID)]
}

func (g *fakeGateway) RoomsOf(connID string) []ws.RoomRef { return g.rooms[connID] }

func (g *fakeGateway) ChannelUsers(channelID string) []models.ChannelUser { return g.roster }

func (g *fakeGateway) VoiceRoster(channelID string) []ws.VoiceRosterEntry { return g.voice }

func (g *fakeGateway) LookupConnection(userID string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lookups[userID]
}

func (g *fakeGateway) BroadcastToRoom(kind ws.RoomKind, channelID string, event ws.Event) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.broadcasts = append(g.broadcasts, roomEvent{Kind: kind, ChannelID: channelID, Event: event})
}

func (g *fakeGateway) BroadcastToRoomExcept(kind ws.RoomKind, channelID, exceptConnID string, event ws.Event) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.broadcasts = append(g.broadcasts, roomEvent{Kind: kind, ChannelID: channelID, Except: exceptConnID, Event: event})
}

func (g *fakeGateway) BroadcastToAll(event ws.Event) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.global = append(g.global, event)
}

func (g *fakeGateway) SendToConn(connID string, event ws.Event) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.deadConns[connID] {
		return false
	}
	g.sent = append(g.sent, sentEvent{ConnID: connID, Event: event})
	return true
}

func (g *fakeGateway) sentEvents() []sentEvent {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]sentEvent(nil), g.sent...)
}

func (g *fakeGateway) roomBroadcasts() []roomEvent {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]roomEvent(nil), g.broadcasts...)
}

func (g *fakeGateway) globalBroadcasts() []ws.Event {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]ws.Event(nil), g.global...)
}

// errorMessages, isteyene giden error envelope mesajlarını toplar.
func (g *fakeGateway) errorMessages() []string {
	var msgs []string
	for _, s := range g.sentEvents() {
		if s.Event.Op == ws.OpError {
			msgs = append(msgs, s.Event.Data.(ws.ErrorData).Message)
		}
	}
	return msgs
}

// ─── Repository fake'leri ───

type fakeUserRepo struct {
	mu       sync.Mutex
	users    map[string]*models.User
	statuses map[string]models.UserStatus
	err      error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:    make(map[string]*models.User),
		statuses: make(map[string]models.UserStatus),
	}
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) UpdateStatus(ctx context.Context, userID string, status models.UserStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.statuses[userID] = status
	return nil
}

func (r *fakeUserRepo) statusOf(userID string) (models.UserStatus, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.statuses[userID]
	return st, ok
}

type fakeMessageRepo struct {
	mu        sync.Mutex
	appended  []*models.Message
	byID      map[string]*models.Message
	recent    []models.Message
	appendErr error
	recentErr error
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{byID: make(map[string]*models.Message)}
}

func (r *fakeMessageRepo) Append(ctx context.Context, message *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return r.appendErr
	}
	r.appended = append(r.appended, message)
	r.byID[message.ID] = message
	return nil
}

func (r *fakeMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	return m, nil
}

func (r *fakeMessageRepo) Recent(ctx context.Context, channelID string, limit int) ([]models.Message, error) {
	if r.recentErr != nil {
		return nil, r.recentErr
	}
	return r.recent, nil
}

type fakeReactionRepo struct {
	group     *models.ReactionGroup
	addErr    error
	removeErr error
}

func (r *fakeReactionRepo) Add(ctx context.Context, messageID, userID, emoji string) (*models.ReactionGroup, error) {
	if r.addErr != nil {
		return nil, r.addErr
	}
	return r.group, nil
}

func (r *fakeReactionRepo) Remove(ctx context.Context, messageID, userID, emoji string) (*models.ReactionGroup, error) {
	if r.removeErr != nil {
		return nil, r.removeErr
	}
	return r.group, nil
}

func testPrincipal(userID string) models.Principal {
	return models.Principal{
		UserID:      userID,
		Username:    userID,
		DisplayName: userID + " display",
	}
}
