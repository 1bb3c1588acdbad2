// Package mailtemplate transactional e-postaların HTML gövdesini üretir.
//
// Şablon dosyası process başlangıcında BİR KEZ okunur ve referans ile
// taşınır; import anında ya da ilk kullanımda dosya okuyan gizli bir
// global yoktur.
package mailtemplate

import (
	"fmt"
	"os"
	"strings"
)

// Template diskten yüklenmiş, {{anahtar}} yer tutucuları içeren bir
// HTML e-posta şablonu.
type Template struct {
	html string
}

// Load verilen yoldaki şablon dosyasını okur.
func Load(path string) (*Template, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mail şablonu okunamadı (%s): %w", path, err)
	}
	return &Template{html: string(raw)}, nil
}

// New hazır bir şablon string'inden Template oluşturur. Testlerde ve
// gömülü varsayılan şablonda kullanılır.
func New(html string) *Template {
	return &Template{html: html}
}

// Render tüm {{anahtar}} yer tutucularını verilen değerlerle değiştirir
// ve sonucu döndürür. Şablonun kendisi değişmez; aynı Template eşzamanlı
// kullanıma uygundur.
func (t *Template) Render(values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for key, value := range values {
		pairs = append(pairs, "{{"+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(t.html)
}
