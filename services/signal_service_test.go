package services

import (
	"encoding/json"
	"testing"

	"github.com/ekoru/gateway/ws"
)

func TestRelayStampsVerifiedSender(t *testing.T) {
	gw := newFakeGateway()
	gw.members[memberKey("conn-1", ws.RoomVoice, "chan-a")] = true
	svc := NewSignalService(gw)

	offer := json.RawMessage(`{"type":"offer","sdp":"v=0"}`)
	svc.Relay(testPrincipal("u1"), "conn-1", ws.SignalOffer, ws.SignalData{
		Offer:     offer,
		To:        "conn-2",
		ChannelID: "chan-a",
	})

	sent := gw.sentEvents()
	if len(sent) != 1 {
		t.Fatalf("expected 1 relayed event, got %+v", sent)
	}
	if sent[0].ConnID != "conn-2" || sent[0].Event.Op != ws.OpReceiveOffer {
		t.Fatalf("unexpected routing: %+v", sent[0])
	}

	data := sent[0].Event.Data.(ws.SignalRelayData)
	if string(data.Offer) != string(offer) {
		t.Fatal("offer payload must pass through untouched")
	}
	// Kimlik client beyanından değil doğrulanmış principal'dan gelir.
	if data.From != "conn-1" || data.FromUserID != "u1" || data.FromUsername != "u1" {
		t.Fatalf("sender not stamped from verified identity: %+v", data)
	}
}

func TestRelayAnswerAndCandidateOps(t *testing.T) {
	gw := newFakeGateway()
	gw.members[memberKey("conn-1", ws.RoomVoice, "chan-a")] = true
	svc := NewSignalService(gw)

	svc.Relay(testPrincipal("u1"), "conn-1", ws.SignalAnswer, ws.SignalData{
		Answer: json.RawMessage(`{}`), To: "conn-2", ChannelID: "chan-a",
	})
	svc.Relay(testPrincipal("u1"), "conn-1", ws.SignalICE, ws.SignalData{
		Candidate: json.RawMessage(`{}`), To: "conn-2", ChannelID: "chan-a",
	})

	sent := gw.sentEvents()
	if len(sent) != 2 {
		t.Fatalf("expected 2 relayed events, got %+v", sent)
	}
	if sent[0].Event.Op != ws.OpReceiveAnswer || sent[1].Event.Op != ws.OpReceiveICECandidate {
		t.Fatalf("unexpected ops: %q, %q", sent[0].Event.Op, sent[1].Event.Op)
	}
}

func TestRelayDropsNonMemberSender(t *testing.T) {
	gw := newFakeGateway()
	svc := NewSignalService(gw)

	svc.Relay(testPrincipal("u1"), "conn-1", ws.SignalOffer, ws.SignalData{
		Offer: json.RawMessage(`{}`), To: "conn-2", ChannelID: "chan-a",
	})

	// Sessiz düşürme: ne relay ne error envelope'u.
	if len(gw.sentEvents()) != 0 {
		t.Fatalf("expected silent drop, got %+v", gw.sentEvents())
	}
}

func TestRelayDropsMissingTargetSilently(t *testing.T) {
	gw := newFakeGateway()
	gw.members[memberKey("conn-1", ws.RoomVoice, "chan-a")] = true
	gw.deadConns["conn-ghost"] = true
	svc := NewSignalService(gw)

	svc.Relay(testPrincipal("u1"), "conn-1", ws.SignalOffer, ws.SignalData{
		Offer: json.RawMessage(`{}`), To: "conn-ghost", ChannelID: "chan-a",
	})

	if msgs := gw.errorMessages(); len(msgs) != 0 {
		t.Fatalf("routing miss must not produce error envelope: %+v", msgs)
	}
}

func TestRelayRequiresTargetAndChannel(t *testing.T) {
	gw := newFakeGateway()
	gw.members[memberKey("conn-1", ws.RoomVoice, "chan-a")] = true
	svc := NewSignalService(gw)

	svc.Relay(testPrincipal("u1"), "conn-1", ws.SignalOffer, ws.SignalData{ChannelID: "chan-a"})
	svc.Relay(testPrincipal("u1"), "conn-1", ws.SignalOffer, ws.SignalData{To: "conn-2"})

	if len(gw.sentEvents()) != 0 {
		t.Fatalf("incomplete signal must be dropped, got %+v", gw.sentEvents())
	}
}
