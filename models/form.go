package models

import "time"

// Form alanlarının üst sınırları. Aşımı validasyon hatasıdır.
const (
	FormNameMaxLength        = 256
	FormDescriptionMaxLength = 1024
)

// Form tek bir online formun ana kaydıdır. İsim, sahibi olan kullanıcı
// içinde benzersizdir (composite unique index).
//
// Durum makinesi:
//
//	Pending   (Confirmed == nil, Disabled == false)
//	Confirmed (Confirmed != nil, Disabled == false)
//	Disabled  (Disabled == true, her iki durumdan erişilebilir, geri dönüşü yok)
type Form struct {
	BaseModel
	UserID      uint   `gorm:"not null;index;uniqueIndex:idx_form_user_name"`
	Name        string `gorm:"type:varchar(256);not null;uniqueIndex:idx_form_user_name"`
	Description string `gorm:"type:varchar(1024)"`

	// Confirmed onay linki süresi dolmadan takip edildiğinde bir kez set edilir.
	Confirmed *time.Time `gorm:"type:timestamptz"`

	// Disabled sadece true yönünde değişir; enable endpoint'i yoktur.
	Disabled bool `gorm:"default:false;index"`

	// GORM İlişkileri
	User   User    `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Inputs []Input `gorm:"foreignKey:FormID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Links  []Link  `gorm:"foreignKey:FormID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// IsConfirmed formun paylaşılabilir olup olmadığı.
func (f *Form) IsConfirmed() bool {
	return f.Confirmed != nil
}
