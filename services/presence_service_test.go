package services

import (
	"testing"
	"time"

	"github.com/ekoru/gateway/models"
	"github.com/ekoru/gateway/ws"
)

const testGrace = 20 * time.Millisecond

func waitForStatus(t *testing.T, repo *fakeUserRepo, userID string, want models.UserStatus) {
	t.Helper()
	deadline := time.Now().Add(50 * testGrace)
	for time.Now().Before(deadline) {
		if st, ok := repo.statusOf(userID); ok && st == want {
			return
		}
		time.Sleep(testGrace / 4)
	}
	st, _ := repo.statusOf(userID)
	t.Fatalf("user %s never reached status %q (last: %q)", userID, want, st)
}

func TestRegisterMarksOnlineAndBroadcasts(t *testing.T) {
	gw := newFakeGateway()
	repo := newFakeUserRepo()
	svc := NewPresenceService(gw, repo, testGrace)

	svc.HandleRegister(testPrincipal("u1"), "conn-1")

	if st, _ := repo.statusOf("u1"); st != models.UserStatusOnline {
		t.Fatalf("expected online status, got %q", st)
	}
	global := gw.globalBroadcasts()
	if len(global) != 1 || global[0].Op != ws.OpUserStatusUpdate {
		t.Fatalf("expected global status broadcast, got %+v", global)
	}
	data := global[0].Data.(ws.UserStatusData)
	if data.UserID != "u1" || data.Status != "online" {
		t.Fatalf("unexpected status payload: %+v", data)
	}
}

func TestDisconnectAfterGraceMarksOffline(t *testing.T) {
	gw := newFakeGateway()
	repo := newFakeUserRepo()
	svc := NewPresenceService(gw, repo, testGrace)
	defer svc.Stop()

	svc.HandleDisconnect(testPrincipal("u1"), "conn-1", nil, false)

	waitForStatus(t, repo, "u1", models.UserStatusOffline)
	global := gw.globalBroadcasts()
	if len(global) != 1 || global[0].Data.(ws.UserStatusData).Status != "offline" {
		t.Fatalf("expected offline broadcast, got %+v", global)
	}
}

func TestReconnectWithinGraceKeepsStatus(t *testing.T) {
	gw := newFakeGateway()
	repo := newFakeUserRepo()
	svc := NewPresenceService(gw, repo, testGrace)
	defer svc.Stop()

	svc.HandleDisconnect(testPrincipal("u1"), "conn-1", nil, false)
	svc.HandleRegister(testPrincipal("u1"), "conn-2")

	// Grace window'un fazlasıyla geçmesini bekle; offline yazılmamalı.
	time.Sleep(4 * testGrace)
	if st, _ := repo.statusOf("u1"); st != models.UserStatusOnline {
		t.Fatalf("reconnect within grace must keep user online, got %q", st)
	}
}

func TestTimerRechecksRegistryBeforeOffline(t *testing.T) {
	gw := newFakeGateway()
	// Timer tetiklendiğinde registry'de canlı bağlantı var: offline yazılmaz.
	gw.lookups["u1"] = "conn-2"
	repo := newFakeUserRepo()
	svc := NewPresenceService(gw, repo, testGrace)
	defer svc.Stop()

	svc.HandleDisconnect(testPrincipal("u1"), "conn-1", nil, false)

	time.Sleep(4 * testGrace)
	if _, ok := repo.statusOf("u1"); ok {
		t.Fatal("status must not change while a live connection exists")
	}
}

func TestDisconnectWhileStillRegisteredSkipsTimer(t *testing.T) {
	gw := newFakeGateway()
	repo := newFakeUserRepo()
	svc := NewPresenceService(gw, repo, testGrace)
	defer svc.Stop()

	// Superseded bağlantının disconnect'i: yeni bağlantı registry'de duruyor.
	svc.HandleDisconnect(testPrincipal("u1"), "conn-old", nil, true)

	time.Sleep(4 * testGrace)
	if _, ok := repo.statusOf("u1"); ok {
		t.Fatal("superseded disconnect must not touch durable status")
	}
}

func TestDisconnectNotifiesLeftRooms(t *testing.T) {
	gw := newFakeGateway()
	repo := newFakeUserRepo()
	svc := NewPresenceService(gw, repo, testGrace)
	defer svc.Stop()

	left := []ws.RoomRef{
		{Kind: ws.RoomText, ChannelID: "chan-a"},
		{Kind: ws.RoomVoice, ChannelID: "chan-b"},
	}
	svc.HandleDisconnect(testPrincipal("u1"), "conn-1", left, true)

	bcasts := gw.roomBroadcasts()
	if len(bcasts) != 2 {
		t.Fatalf("expected 2 leave notifications, got %+v", bcasts)
	}
	if bcasts[0].Event.Op != ws.OpUserLeftChannel || bcasts[0].ChannelID != "chan-a" {
		t.Fatalf("unexpected text leave: %+v", bcasts[0])
	}
	if bcasts[1].Event.Op != ws.OpVoiceUserLeft || bcasts[1].ChannelID != "chan-b" {
		t.Fatalf("unexpected voice leave: %+v", bcasts[1])
	}
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	gw := newFakeGateway()
	repo := newFakeUserRepo()
	svc := NewPresenceService(gw, repo, testGrace)

	svc.UpdateStatus(testPrincipal("u1"), "conn-1", "invisible")

	msgs := gw.errorMessages()
	if len(msgs) != 1 || msgs[0] != "invalid status" {
		t.Fatalf("expected validation error, got %+v", msgs)
	}
	if _, ok := repo.statusOf("u1"); ok {
		t.Fatal("invalid status must not be persisted")
	}
}

func TestUpdateStatusBroadcastsToOccupiedRooms(t *testing.T) {
	gw := newFakeGateway()
	gw.rooms["conn-1"] = []ws.RoomRef{
		{Kind: ws.RoomText, ChannelID: "chan-a"},
		{Kind: ws.RoomVoice, ChannelID: "chan-b"},
	}
	repo := newFakeUserRepo()
	svc := NewPresenceService(gw, repo, testGrace)

	svc.UpdateStatus(testPrincipal("u1"), "conn-1", "dnd")

	if st, _ := repo.statusOf("u1"); st != models.UserStatusDND {
		t.Fatalf("expected dnd persisted, got %q", st)
	}
	bcasts := gw.roomBroadcasts()
	if len(bcasts) != 2 {
		t.Fatalf("expected broadcast per occupied room, got %+v", bcasts)
	}
	for _, b := range bcasts {
		if b.Event.Op != ws.OpUserStatusUpdate {
			t.Fatalf("unexpected op %q", b.Event.Op)
		}
		if b.Event.Data.(ws.UserStatusData).Status != "dnd" {
			t.Fatalf("unexpected payload: %+v", b.Event.Data)
		}
	}
}
