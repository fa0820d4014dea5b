// Package repository, document store erişim katmanıdır.
//
// Gateway store'u üç dar interface üzerinden tüketir: kullanıcı lookup +
// status güncelleme, mesaj append + history fetch, reaction mutasyonu.
// Interface'ler burada, SQLite implementasyonları sqlite_*.go dosyalarında.
package repository

import (
	"context"

	"github.com/ekoru/gateway/models"
)

// UserRepository, kullanıcı kayıtlarına erişim interface'i.
//
// Kayıt oluşturma/silme credential servisinin işidir — gateway sadece
// Identity Verifier için lookup yapar ve durable presence status'u yazar.
type UserRepository interface {
	// GetByID, kullanıcıyı id ile getirir. Yoksa pkg.ErrNotFound döner.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// UpdateStatus, kullanıcının durable status alanını günceller.
	UpdateStatus(ctx context.Context, userID string, status models.UserStatus) error
}
