package services

import (
	"context"
	"errors"
	"testing"

	"github.com/ekoru/gateway/models"
	"github.com/ekoru/gateway/ws"
)

func newMessageService(gw *fakeGateway, repo *fakeMessageRepo) *MessageService {
	rooms := NewRoomService(gw, repo)
	return NewMessageService(gw, rooms, repo)
}

func TestSendEmptyMessageRejected(t *testing.T) {
	gw := newFakeGateway()
	repo := newFakeMessageRepo()
	svc := newMessageService(gw, repo)

	svc.Send(context.Background(), testPrincipal("u1"), "conn-1", "chan-a", "   \n\t ", "")

	msgs := gw.errorMessages()
	if len(msgs) != 1 || msgs[0] != "message cannot be empty" {
		t.Fatalf("expected validation error, got %+v", msgs)
	}
	if len(repo.appended) != 0 {
		t.Fatal("empty message must not be persisted")
	}
	if len(gw.roomBroadcasts()) != 0 {
		t.Fatal("empty message must not be broadcast")
	}
}

func TestSendPersistsThenBroadcasts(t *testing.T) {
	gw := newFakeGateway()
	gw.members[memberKey("conn-1", ws.RoomText, "chan-a")] = true
	repo := newFakeMessageRepo()
	svc := newMessageService(gw, repo)

	svc.Send(context.Background(), testPrincipal("u1"), "conn-1", "chan-a", "  hello  ", "")

	if len(repo.appended) != 1 {
		t.Fatalf("expected 1 persisted message, got %d", len(repo.appended))
	}
	stored := repo.appended[0]
	if stored.ID == "" || stored.CreatedAt.IsZero() {
		t.Fatalf("server must assign id and timestamp: %+v", stored)
	}
	if stored.Content != "hello" {
		t.Fatalf("content not trimmed: %q", stored.Content)
	}
	if stored.AuthorID != "u1" || stored.MessageType != models.MessageTypeText {
		t.Fatalf("unexpected stored message: %+v", stored)
	}

	bcasts := gw.roomBroadcasts()
	if len(bcasts) != 1 || bcasts[0].Event.Op != ws.OpChatMessage {
		t.Fatalf("expected chatMessage broadcast, got %+v", bcasts)
	}
	// Except boş: gönderen de broadcast'i alır ve optimistic kopyasını
	// canonical formla reconcile eder.
	if bcasts[0].Except != "" {
		t.Fatal("sender must receive its own chatMessage broadcast")
	}
	sentMsg := bcasts[0].Event.Data.(*models.Message)
	if sentMsg.ID != stored.ID {
		t.Fatal("broadcast must carry the persisted canonical message")
	}
}

func TestSendSelfHealingJoin(t *testing.T) {
	gw := newFakeGateway()
	repo := newFakeMessageRepo()
	svc := newMessageService(gw, repo)

	svc.Send(context.Background(), testPrincipal("u1"), "conn-1", "chan-a", "hi", "")

	if len(gw.joins) != 1 || gw.joins[0].ChannelID != "chan-a" {
		t.Fatalf("expected implicit join, got %+v", gw.joins)
	}

	// Join bildirimi + chatMessage, roster/history yanıtı yok.
	bcasts := gw.roomBroadcasts()
	if len(bcasts) != 2 {
		t.Fatalf("expected join notification and chatMessage, got %+v", bcasts)
	}
	if bcasts[0].Event.Op != ws.OpUserJoinedChannel || bcasts[1].Event.Op != ws.OpChatMessage {
		t.Fatalf("unexpected broadcast order: %q then %q", bcasts[0].Event.Op, bcasts[1].Event.Op)
	}
	if len(gw.sentEvents()) != 0 {
		t.Fatalf("self-healing join must not push roster/history: %+v", gw.sentEvents())
	}
}

func TestSendPersistFailure(t *testing.T) {
	gw := newFakeGateway()
	gw.members[memberKey("conn-1", ws.RoomText, "chan-a")] = true
	repo := newFakeMessageRepo()
	repo.appendErr = errors.New("disk full")
	svc := newMessageService(gw, repo)

	svc.Send(context.Background(), testPrincipal("u1"), "conn-1", "chan-a", "hello", "")

	msgs := gw.errorMessages()
	if len(msgs) != 1 || msgs[0] != "failed to save message" {
		t.Fatalf("expected persistence error envelope, got %+v", msgs)
	}
	if len(gw.roomBroadcasts()) != 0 {
		t.Fatal("unpersisted message must never be broadcast")
	}
}

func TestSendInvalidMessageType(t *testing.T) {
	gw := newFakeGateway()
	repo := newFakeMessageRepo()
	svc := newMessageService(gw, repo)

	svc.Send(context.Background(), testPrincipal("u1"), "conn-1", "chan-a", "hello", "gif")

	msgs := gw.errorMessages()
	if len(msgs) != 1 || msgs[0] != "invalid message type" {
		t.Fatalf("expected type validation error, got %+v", msgs)
	}
	if len(repo.appended) != 0 {
		t.Fatal("invalid message must not be persisted")
	}
}
