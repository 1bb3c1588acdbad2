package repositories

import "errors"

// ErrNotFound aranan kayıt bulunamadığında tüm repository'lerin döndürdüğü
// ortak hata. Servis katmanı gorm.ErrRecordNotFound yerine buna bakar.
var ErrNotFound = errors.New("kayıt bulunamadı")
