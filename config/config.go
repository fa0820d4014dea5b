// Package config, uygulamanın tüm konfigürasyonunu merkezi olarak yönetir.
// Environment variable'lardan okur, .env dosyasını da destekler.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config, gateway'in tüm konfigürasyon değerlerini taşır.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Presence PresenceConfig
}

// ServerConfig, HTTP/WebSocket server ayarları.
type ServerConfig struct {
	Host string
	Port int
	// AllowedOrigins, hem CORS hem WebSocket upgrade origin kontrolünde
	// kullanılır. "*" tüm origin'lere izin verir (development).
	AllowedOrigins []string
}

// DatabaseConfig, SQLite database ayarları.
type DatabaseConfig struct {
	Path string // SQLite dosya yolu (ör: ./data/gateway.db)
}

// JWTConfig, identity token doğrulama ayarları.
// Gateway token üretmez — sadece credential servisinin imzasını doğrular.
type JWTConfig struct {
	Secret string
}

// PresenceConfig, disconnect reconciler ayarları.
type PresenceConfig struct {
	// OfflineGrace, bağlantı koptuktan sonra kullanıcıyı durable offline
	// işaretlemeden önce beklenen süre. Hızlı reconnect'lerde (sayfa
	// yenileme) görünür status'un titremesini önler.
	OfflineGrace time.Duration
}

// Load, environment variable'lardan Config oluşturur.
// .env dosyası varsa önce onu yükler (development kolaylığı için).
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "9090"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	graceSeconds, err := strconv.Atoi(getEnv("OFFLINE_GRACE_SECONDS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid OFFLINE_GRACE_SECONDS: %w", err)
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           port,
			AllowedOrigins: splitOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/gateway.db"),
		},
		JWT: JWTConfig{
			Secret: jwtSecret,
		},
		Presence: PresenceConfig{
			OfflineGrace: time.Duration(graceSeconds) * time.Second,
		},
	}

	return cfg, nil
}

// Addr, server'ın dinleyeceği adresi döner (ör: "0.0.0.0:9090").
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// splitOrigins, virgülle ayrılmış origin listesini parse eder.
func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// getEnv, environment variable'ı okur, yoksa fallback değeri döner.
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
