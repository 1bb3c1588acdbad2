package models

import (
	"time"

	"reachable.link/configs"
)

// Link türleri. Ayrı tablolar/sınıflar yerine tek tablo + kind ayrıştırıcı.
const (
	LinkKindAccess       = "ACCESS"       // form görüntüleme + gönderim yetkisi
	LinkKindConfirmation = "CONFIRMATION" // sahibin e-posta kontrolünü kanıtlar
	LinkKindDisable      = "DISABLE"      // formu kimlik doğrulamasız kapatır
	LinkKindLogin        = "LOGIN"        // kısa ömürlü oturum açma linki
)

// Link ömürleri. Login linkleri güvenlik gereği çok daha kısa yaşar.
const (
	LinkDefaultTTL = 180 * 24 * time.Hour
	LinkLoginTTL   = 30 * time.Minute
)

// KeyMaxLength bir link anahtarının URL'e sığacak üst sınırı.
const KeyMaxLength = 128

// Link benzersiz bir 'Key'i bir hedefe bağlayan capability URL kaydıdır.
// Token'ın kendisi yetkilendirmedir; ayrıca bir oturum aranmaz.
//
// Kind'a göre hedef referansı değişir:
//
//	ACCESS       -> FormID
//	CONFIRMATION -> ParentID (bağlı olduğu ACCESS linki)
//	DISABLE      -> ParentID (bağlı olduğu ACCESS linki)
//	LOGIN        -> UserID
type Link struct {
	BaseModel
	Key  string `gorm:"type:varchar(128);uniqueIndex;not null"`
	Kind string `gorm:"type:varchar(20);not null;index"`

	FormID   *uint `gorm:"index"`
	ParentID *uint `gorm:"index"`
	UserID   *uint `gorm:"index"`

	// ExpiresAt sonrasında link geçersizdir. Karşılaştırma strict'tir:
	// tam expiry anında link hâlâ geçerlidir.
	ExpiresAt time.Time `gorm:"not null;index;type:timestamptz"`

	// GORM İlişkileri
	Form   *Form `gorm:"foreignKey:FormID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Parent *Link `gorm:"foreignKey:ParentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	User   *User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// IsExpired verilen ana göre linkin süresinin dolup dolmadığını söyler.
// Link, expiry anı dahil olmak üzere geçerlidir; ancak sonrasında dolar.
func (l *Link) IsExpired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

// URL linkin insan ya da API yüzünde çözüleceği adresi üretir.
// Base adresler başlangıçta yüklenen Config'den gelir.
func (l *Link) URL(cfg *configs.Config) string {
	switch l.Kind {
	case LinkKindConfirmation:
		return cfg.APIBaseURL + "/forms/confirm/" + l.Key
	case LinkKindDisable:
		return cfg.APIBaseURL + "/forms/disable/" + l.Key
	case LinkKindLogin:
		return cfg.ClientBaseURL + "/login/" + l.Key
	default:
		return cfg.ClientBaseURL + "/form/" + l.Key
	}
}

// ShareURL bir ACCESS linkinin, onay sonrası yönlendirilen paylaşım
// varyantını üretir.
func (l *Link) ShareURL(cfg *configs.Config) string {
	return cfg.ClientBaseURL + "/form/" + l.Key + "/share"
}
