package models

// Input alanlarının üst sınırları.
const (
	InputNameMaxLength  = 256
	InputLabelMaxLength = 512
	InputHintMaxLength  = 512
)

// Input bir formun tek bir alanını temsil eder. İsim, form içinde
// benzersizdir. Type alanı sunum katmanının yorumladığı serbest bir
// etikettir ("text", "textarea" vb.), backend için opak bir string'dir.
type Input struct {
	BaseModel
	FormID uint   `gorm:"not null;index;uniqueIndex:idx_input_form_name"`
	Name   string `gorm:"type:varchar(256);not null;uniqueIndex:idx_input_form_name"`

	// Görüntüleme metadata'sı; ikisi de opsiyonel.
	Label string `gorm:"type:varchar(512)"`
	Hint  string `gorm:"type:varchar(512)"`

	Required bool   `gorm:"default:false"`
	Type     string `gorm:"type:varchar(50);default:'text'"`
}

// DisplayLabel yanıt e-postalarında kullanılacak etiket; Label boşsa
// alan ismine düşer.
func (i *Input) DisplayLabel() string {
	if i.Label != "" {
		return i.Label
	}
	return i.Name
}
