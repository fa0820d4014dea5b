// Package pkg, projede paylaşılan utility'leri barındırır.
// Bu dosya domain-level error tanımlarını içerir.
//
// Sentinel error'lar errors.Is ile karşılaştırılır:
//
//	if errors.Is(err, pkg.ErrNotFound) { ... }
//
// Event handler katmanı bu error'ları client'a giden "error" envelope'una
// çevirir — diğer bağlantılar başkasının hatasını asla görmez.
package pkg

import (
	"errors"
	"fmt"
)

// Domain-level error'lar.
// Service katmanı bunları döner, event handler boundary'si yakalar.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrBadRequest    = errors.New("bad request")
	ErrInternal      = errors.New("internal error")
)

// AuthReason, bir kimlik doğrulama hatasının nedenini sınıflandırır.
type AuthReason string

const (
	AuthMissing      AuthReason = "missing"        // Handshake'te credential hiç gönderilmemiş
	AuthMalformed    AuthReason = "malformed"      // Token parse edilemedi
	AuthExpired      AuthReason = "expired"        // Token süresi dolmuş
	AuthInvalid      AuthReason = "invalid"        // İmza geçersiz veya claims bozuk
	AuthUserNotFound AuthReason = "user_not_found" // Token geçerli ama kullanıcı store'da yok
)

// AuthError, bağlantı seviyesinde fatal bir kimlik doğrulama hatası.
// Bu error döndüğünde bağlantı hiçbir room'a katılmadan ve presence
// kaydı oluşmadan reddedilir.
type AuthError struct {
	Reason AuthReason
	Err    error // Altta yatan neden — opsiyonel
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("auth: %s", e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

// NewAuthError, verilen nedenle bir AuthError oluşturur.
func NewAuthError(reason AuthReason, err error) *AuthError {
	return &AuthError{Reason: reason, Err: err}
}

// AuthReasonOf, err bir AuthError ise nedenini döner; değilse boş string.
func AuthReasonOf(err error) AuthReason {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Reason
	}
	return ""
}
