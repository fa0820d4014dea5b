package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ekoru/gateway/models"
	"github.com/ekoru/gateway/pkg"
	"github.com/ekoru/gateway/repository"
)

// AuthService, handshake token'ını doğrular ve Principal'ı çözer.
// Token issuance bu servisin işi değildir; sadece doğrular.
type AuthService struct {
	userRepo  repository.UserRepository
	jwtSecret []byte
}

// NewAuthService, yeni bir AuthService oluşturur.
func NewAuthService(userRepo repository.UserRepository, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
	}
}

// Verify, token'ı doğrular ve kullanıcıyı store'dan çözerek Principal döner.
// Her başarısızlık pkg.AuthError olarak sınıflandırılır; çağıran (ws handler)
// bağlantıyı register etmeden reddeder.
func (s *AuthService) Verify(ctx context.Context, tokenString string) (models.Principal, error) {
	claims := &models.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return models.Principal{}, pkg.NewAuthError(pkg.AuthExpired, err)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return models.Principal{}, pkg.NewAuthError(pkg.AuthMalformed, err)
		default:
			return models.Principal{}, pkg.NewAuthError(pkg.AuthInvalid, err)
		}
	}
	if !token.Valid || claims.UserID == "" {
		return models.Principal{}, pkg.NewAuthError(pkg.AuthInvalid, nil)
	}

	// Token geçerli olsa bile kullanıcı store'da yaşıyor olmalı —
	// silinmiş bir hesabın token'ı bağlantı açamaz.
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return models.Principal{}, pkg.NewAuthError(pkg.AuthUserNotFound, err)
		}
		return models.Principal{}, err
	}

	return principalOf(user), nil
}

// principalOf, User kaydından wire'da taşınacak kimlik görünümünü üretir.
func principalOf(user *models.User) models.Principal {
	p := models.Principal{
		UserID:      user.ID,
		Username:    user.Username,
		DisplayName: user.Username,
		Email:       user.Email,
	}
	if user.DisplayName != nil && *user.DisplayName != "" {
		p.DisplayName = *user.DisplayName
	}
	if user.AvatarURL != nil {
		p.AvatarURL = *user.AvatarURL
	}
	return p
}
