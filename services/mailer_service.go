package services

import (
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"reachable.link/configs"
	"reachable.link/configs/configslog"
	"reachable.link/models"
	"reachable.link/pkg/mailtemplate"

	"go.uber.org/zap"
)

// MailServiceError özel servis hataları
type MailServiceError string

func (e MailServiceError) Error() string { return string(e) }

const (
	ErrMailDeliveryFailed MailServiceError = "e-posta gönderilemedi"
)

// LabeledAnswer bir form yanıtındaki tek bir cevabı, input'un görüntüleme
// etiketiyle birlikte taşır.
type LabeledAnswer struct {
	Label string
	Text  string
}

// IMailerService dışa giden bildirimler için arayüz. Çekirdek yaşam
// döngüsü bu arayüzü tüketir; SMTP ayrıntıları onu ilgilendirmez.
type IMailerService interface {
	SendFormConfirmation(user *models.User, form *models.Form, confirmURL, disableURL string) error
	SendFormResponse(user *models.User, form *models.Form, answers []LabeledAnswer, disableURL string) error
	SendLoginLink(user *models.User, loginURL string) error
}

// SMTPMailer IMailerService'in SMTP üzerinden çalışan uygulaması.
type SMTPMailer struct {
	cfg      *configs.Config
	template *mailtemplate.Template
}

// NewSMTPMailer yeni bir SMTPMailer örneği oluşturur. Şablon, process
// başlangıcında yüklenmiş olmalıdır.
func NewSMTPMailer(cfg *configs.Config, template *mailtemplate.Template) IMailerService {
	return &SMTPMailer{cfg: cfg, template: template}
}

// SendFormConfirmation yeni oluşturulan bir form için onay e-postası yollar.
// Mail, onay ve devre dışı bırakma URL'lerinin ikisini de içerir.
func (m *SMTPMailer) SendFormConfirmation(user *models.User, form *models.Form, confirmURL, disableURL string) error {
	content := fmt.Sprintf(
		"Click the button to start accepting new submissions for your brand new '%s' form.",
		form.Name,
	)

	html := m.template.Render(map[string]string{
		"preheader":    content,
		"title_text":   "Congratulations on creating your new form!",
		"title_link":   confirmURL,
		"content":      content,
		"button_text":  "CONFIRM FORM",
		"button_link":  confirmURL,
		"disable_link": disableURL,
		"home_link":    m.cfg.ClientBaseURL,
	})

	text := "Congratulations on creating your new form!\n\n" +
		content + "\n\n" + confirmURL +
		"\n\nGreetings,\nYour friends @ Reachable" +
		"\n\nP.S. Don't want to receive responses from this form?" +
		" You can disable it by clicking the following link:\n" + disableURL

	subject := fmt.Sprintf("Confirm your new '%s' form.", form.Name)
	return m.send(user.Email, subject, text, html)
}

// SendFormResponse bir form gönderimini form sahibine iletir. Yanıtlarla
// birlikte her seferinde taze bir disable URL'i eklenir; sahibin istenmeyen
// gönderimleri tek tıkla durdurabilmesi gerekir.
func (m *SMTPMailer) SendFormResponse(user *models.User, form *models.Form, answers []LabeledAnswer, disableURL string) error {
	var htmlAnswers strings.Builder
	for _, answer := range answers {
		htmlAnswers.WriteString(answer.Label)
		htmlAnswers.WriteString("<br/>")
		htmlAnswers.WriteString(answer.Text)
		htmlAnswers.WriteString("<br/><br/>")
	}

	html := m.template.Render(map[string]string{
		"preheader": fmt.Sprintf("You just received a new submission for your '%s' form!", form.Name),
		"title_text": "Hey there, form builder!",
		"title_link": m.cfg.ClientBaseURL,
		"content": fmt.Sprintf("You just received a new submission for your '%s' form:<br/><br/>%s",
			form.Name, htmlAnswers.String()),
		"button_text":  "TRY CUSTOM FORM",
		"button_link":  m.cfg.ClientBaseURL + "/form/custom",
		"disable_link": disableURL,
		"home_link":    m.cfg.ClientBaseURL,
	})

	text := fmt.Sprintf("Hey there, form builder!\n\nYou just received a new submission for your '%s' form:\n\n", form.Name)
	lines := make([]string, 0, len(answers))
	for _, answer := range answers {
		lines = append(lines, answer.Label+"\n"+answer.Text)
	}
	text += strings.Join(lines, "\n\n")
	text += "\n\nGreetings,\nYour friends @ Reachable"
	text += "\n\nP.S. No longer want to receive responses from this form?" +
		" You can disable this form by clicking the following link:\n" + disableURL

	subject := fmt.Sprintf("Form submission for the '%s' form.", form.Name)
	return m.send(user.Email, subject, text, html)
}

// SendLoginLink kısa ömürlü oturum açma linkini yollar.
func (m *SMTPMailer) SendLoginLink(user *models.User, loginURL string) error {
	content := "Click the button to log in to your Reachable account." +
		" This link is valid for 30 minutes."

	html := m.template.Render(map[string]string{
		"preheader":    content,
		"title_text":   "Your login link is here!",
		"title_link":   loginURL,
		"content":      content,
		"button_text":  "LOG IN",
		"button_link":  loginURL,
		"disable_link": m.cfg.ClientBaseURL,
		"home_link":    m.cfg.ClientBaseURL,
	})

	text := "Your login link is here!\n\n" + content + "\n\n" + loginURL +
		"\n\nGreetings,\nYour friends @ Reachable"

	return m.send(user.Email, "Your Reachable login link.", text, html)
}

// send text + HTML gövdeli multipart bir mesajı SMTP ile teslim eder.
func (m *SMTPMailer) send(to, subject, text, html string) error {
	if m.cfg.MailHost == "" {
		// SMTP yapılandırılmamış; geliştirme ortamında mail içeriğini
		// kaybetmek yerine logluyoruz.
		configslog.SLog.Infow("SMTP yapılandırılmadı, e-posta loglandı",
			"to", to, "subject", subject)
		return nil
	}

	const boundary = "reachable-mail-boundary"
	var msg strings.Builder
	msg.WriteString("From: " + m.cfg.MailFrom + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: multipart/alternative; boundary=" + boundary + "\r\n\r\n")
	msg.WriteString("--" + boundary + "\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(text + "\r\n")
	msg.WriteString("--" + boundary + "\r\n")
	msg.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	msg.WriteString(html + "\r\n")
	msg.WriteString("--" + boundary + "--\r\n")

	addr := m.cfg.MailHost + ":" + m.cfg.MailPort
	var auth smtp.Auth
	if m.cfg.MailUser != "" {
		auth = smtp.PlainAuth("", m.cfg.MailUser, m.cfg.MailPass, m.cfg.MailHost)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.MailFrom, []string{to}, []byte(msg.String())); err != nil {
		configslog.Log.Error("SMTP gönderimi başarısız", zap.String("subject", subject), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrMailDeliveryFailed, err)
	}
	return nil
}

// Arayüz uyumluluğu kontrolü
var _ IMailerService = (*SMTPMailer)(nil)
