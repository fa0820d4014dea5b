// Package main, gateway uygulamasının giriş noktasıdır.
//
// Bu dosyanın görevi — Dependency Injection "wire-up":
//  1. Config'i yükle
//  2. Database'i başlat (embedded migration'larla)
//  3. Repository'leri oluştur (DB bağlantısı ile)
//  4. WebSocket Hub'ı başlat
//  5. Service'leri oluştur (repository'ler + hub ile)
//  6. Hub callback'lerini service'lere bağla
//  7. HTTP router'ı kur, CORS yapılandır
//  8. HTTP Server'ı başlat
//  9. Graceful shutdown
//
// Global değişken YOK — her şey bu fonksiyonda oluşturulup birbirine bağlanıyor.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/ekoru/gateway/config"
	"github.com/ekoru/gateway/database"
	"github.com/ekoru/gateway/models"
	"github.com/ekoru/gateway/repository"
	"github.com/ekoru/gateway/services"
	"github.com/ekoru/gateway/ws"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[main] gateway starting...")

	// ─── 1. Config ───
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}
	log.Printf("[main] config loaded (port=%d grace=%s)", cfg.Server.Port, cfg.Presence.OfflineGrace)

	// ─── 2. Database ───
	migrations, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	if err != nil {
		log.Fatalf("[main] failed to open embedded migrations: %v", err)
	}

	db, err := database.New(cfg.Database.Path, migrations)
	if err != nil {
		log.Fatalf("[main] failed to initialize database: %v", err)
	}
	defer db.Close()

	// ─── 3. Repository Layer ───
	userRepo := repository.NewSQLiteUserRepo(db.Conn)
	messageRepo := repository.NewSQLiteMessageRepo(db.Conn)
	reactionRepo := repository.NewSQLiteReactionRepo(db.Conn)

	// ─── 4. WebSocket Hub ───
	//
	// Hub, tüm bağlantıları ve paylaşılan index'leri (registry, room'lar,
	// presence) yöneten merkezi yapıdır. `go hub.Run()` ayrı goroutine'de
	// register/unregister event loop'unu başlatır.
	hub := ws.NewHub()

	// ─── 5. Service Layer ───
	authService := services.NewAuthService(userRepo, cfg.JWT.Secret)
	roomService := services.NewRoomService(hub, messageRepo)
	messageService := services.NewMessageService(hub, roomService, messageRepo)
	reactionService := services.NewReactionService(hub, messageRepo, reactionRepo)
	signalService := services.NewSignalService(hub)
	presenceService := services.NewPresenceService(hub, userRepo, cfg.Presence.OfflineGrace)

	// ─── 6. Hub Callback'leri ───
	//
	// Neden burada (main.go'da)? Hub ws paketinde yaşıyor, ama store
	// erişimi service katmanında. Hub'ın service'lere bağımlı olmasını
	// istemiyoruz (Dependency Inversion) — main.go wire-up noktasıdır.
	hub.OnRegister(presenceService.HandleRegister)
	hub.OnDisconnect(presenceService.HandleDisconnect)
	hub.OnJoin(func(p models.Principal, connID, channelID string, kind ws.RoomKind) {
		roomService.Join(context.Background(), p, connID, channelID, kind)
	})
	hub.OnLeaveVoice(roomService.LeaveVoice)
	hub.OnChat(func(p models.Principal, connID, channelID, content, messageType string) {
		messageService.Send(context.Background(), p, connID, channelID, content, messageType)
	})
	hub.OnReaction(func(p models.Principal, connID, messageID, emoji string, add bool) {
		if add {
			reactionService.Add(context.Background(), p, connID, messageID, emoji)
		} else {
			reactionService.Remove(context.Background(), p, connID, messageID, emoji)
		}
	})
	hub.OnSignal(signalService.Relay)
	hub.OnStatus(presenceService.UpdateStatus)

	go hub.Run()

	// ─── 7. HTTP Router ───
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","service":"gateway"}`)
	})

	// WebSocket — token query parameter ile authenticate edilir.
	// Tarayıcılar upgrade isteğinde custom header gönderemediği için
	// JWT, ws://server/ws?token=JWT şeklinde taşınır; handler upgrade'den
	// önce kendi doğrulamasını yapar.
	wsHandler := ws.NewHandler(hub, authService, cfg.Server.AllowedOrigins)
	mux.Handle("GET /ws", wsHandler)

	// CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	// ─── 8. HTTP Server ───
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      corsHandler.Handler(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ─── 9. Graceful Shutdown ───
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("[main] server listening on %s", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	<-done
	log.Println("[main] shutdown signal received")

	presenceService.Stop()
	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[main] server shutdown error: %v", err)
	}
	log.Println("[main] gateway stopped")
}
