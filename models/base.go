package models

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel tüm entity'lere gömülen ortak alanlar.
// Kalıtım yerine composition: her model bu struct'ı embed eder.
type BaseModel struct {
	ID        uint           `gorm:"primarykey"`
	CreatedAt time.Time      `gorm:"index"`
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}
