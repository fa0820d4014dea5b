package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims, identity token'ın payload'ı.
//
// Token imzalama (issuance) bu sistemin dışındadır — credential servisi
// HMAC ile imzalar, gateway sadece doğrular. Claims'teki UserID store
// lookup'ının anahtarıdır; Username sadece log'larda kullanılır, görünüm
// alanları her zaman store'daki güncel kayıttan çözülür.
type TokenClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
