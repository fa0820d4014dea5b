package ws

import (
	"context"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ekoru/gateway/models"
	"github.com/ekoru/gateway/pkg"
)

// IdentityVerifier, handshake token'ını doğrular ve bağlanan kullanıcının
// kimliğini çözer. Başarısızlıkta pkg.AuthError döner.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (models.Principal, error)
}

// Handler, HTTP isteğini WebSocket'e upgrade eder ve client yaşam
// döngüsünü başlatır.
type Handler struct {
	hub      *Hub
	verifier IdentityVerifier
	upgrader websocket.Upgrader
}

// NewHandler, izin verilen origin listesiyle bir WebSocket handler kurar.
func NewHandler(hub *Hub, verifier IdentityVerifier, allowedOrigins []string) *Handler {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}

	return &Handler{
		hub:      hub,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					// Origin'siz istekler (native client, test) kabul edilir.
					return true
				}
				_, ok := origins[origin]
				return ok
			},
		},
	}
}

// ServeHTTP, GET /ws endpoint'i. Token query parametresiyle gelir
// (browser WebSocket API'si custom header taşıyamaz).
//
// Kimlik doğrulama upgrade'den ÖNCE yapılır: geçersiz token'lı bir
// istek hiçbir zaman kayıtlı bir bağlantıya dönüşmez.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		log.Printf("[ws] connection refused: %s", pkg.AuthMissing)
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	principal, err := h.verifier.Verify(r.Context(), token)
	if err != nil {
		log.Printf("[ws] connection refused: %s", pkg.AuthReasonOf(err))
		http.Error(w, "authentication failed", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade kendi hata cevabını yazar.
		log.Printf("[ws] upgrade failed for user=%s: %v", principal.UserID, err)
		return
	}

	client := NewClient(h.hub, conn, uuid.NewString(), principal)
	h.hub.register <- client

	go client.WritePump()
	go client.ReadPump()
}
