// Package linkkey capability link'leri için kriptografik olarak rastgele,
// URL-safe anahtarlar üretir.
//
// Üretici tek başına global benzersizlik garanti etmez; sadece ihmal
// edilebilir çakışma olasılığı sağlar. Kesin benzersizlik, servis
// katmanındaki store kontrolü + unique index ile sağlanır.
package linkkey

import (
	"crypto/rand"
	"encoding/binary"
)

// URL-safe base64 alfabesi (RFC 4648 §5).
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// Anahtar uzunluğu [MinLength, MaxLength) aralığından uniform seçilir.
// Değişken uzunluk, token uzunluğunun bir side-channel olmasını engeller.
const (
	MinLength = 16
	MaxLength = 128
)

// Generate yeni bir rastgele link anahtarı döndürür.
// Entropi kaynağı crypto/rand'dir; kaynak okunamazsa panic'ler, çünkü
// tahmin edilebilir bir anahtar üretmek sessizce devam etmekten kötüdür.
func Generate() string {
	length := MinLength + randInt(MaxLength-MinLength)

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		panic("linkkey: rastgele kaynak okunamadı: " + err.Error())
	}

	key := make([]byte, length)
	for i, b := range buf {
		key[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(key)
}

// randInt [0, n) aralığında kriptografik rastgele bir sayı döndürür.
func randInt(n int) int {
	var raw [8]byte
	if _, err := rand.Read(raw[:]); err != nil {
		panic("linkkey: rastgele kaynak okunamadı: " + err.Error())
	}
	return int(binary.BigEndian.Uint64(raw[:]) % uint64(n))
}
