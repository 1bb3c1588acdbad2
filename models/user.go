package models

import "time"

// EmailMaxLength RFC 5321'in izin verdiği en uzun adres.
const EmailMaxLength = 320

// User formların sahibini temsil eder. Şifre yoktur; sahiplik e-posta
// doğrulama linkiyle kanıtlanır. Kayıt, e-posta ilk kez form oluştururken
// görüldüğünde tembel (lazy) olarak açılır.
type User struct {
	BaseModel
	Email string `gorm:"type:varchar(320);uniqueIndex;not null"`

	// Verified ilk formu onaylandığında bir kez set edilir, asla geri alınmaz.
	Verified *time.Time `gorm:"type:timestamptz"`

	// GORM İlişkileri
	Forms []Form `gorm:"foreignKey:UserID"`
}

// IsVerified kullanıcının e-posta sahipliğinin kanıtlanıp kanıtlanmadığı.
func (u *User) IsVerified() bool {
	return u.Verified != nil
}
