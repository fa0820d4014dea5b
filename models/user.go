// Package models, uygulamanın domain modellerini tanımlar.
//
// JSON tag'leri WebSocket event payload'larında ve API response'larında,
// alan isimleri DB sorgularında kullanılır. Birden fazla katman (services,
// ws, repository) models'e bağımlıdır — circular dependency'yi önlemek için
// bu paket hiçbir iç pakete bağımlı değildir.
package models

import "time"

// UserStatus, kullanıcının kalıcı (durable) çevrimiçi durumunu temsil eder.
type UserStatus string

// İzin verilen UserStatus değerleri.
const (
	UserStatusOnline  UserStatus = "online"
	UserStatusIdle    UserStatus = "idle"
	UserStatusDND     UserStatus = "dnd"
	UserStatusOffline UserStatus = "offline"
)

// Valid, s'in bilinen bir status değeri olup olmadığını döner.
func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusOnline, UserStatusIdle, UserStatusDND, UserStatusOffline:
		return true
	}
	return false
}

// User, document store'daki bir kullanıcı kaydını temsil eder.
type User struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	DisplayName *string    `json:"display_name"` // nil → Username gösterilir
	AvatarURL   *string    `json:"avatar_url"`
	Email       string     `json:"-"` // Wire'a asla çıkmaz
	Status      UserStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Principal, handshake'te bir kez çözülen ve bağlantı ömrü boyunca
// değişmeyen kimlik bilgisi. Her broadcast'te store'a gitmemek için
// Hub bunu bağlantı bazında cache'ler.
type Principal struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	Email       string `json:"-"`
}

// ChannelUser, bir kanalın roster'ında görünen kullanıcı kaydı.
// IsOnline read-time'da Connection Registry'den çözülür — store'da
// tutulan bir alan değildir, her zaman güncel bağlantı durumunu yansıtır.
type ChannelUser struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	IsOnline    bool   `json:"is_online"`
}
