package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"reachable.link/models"

	"gorm.io/gorm"
)

// createBundle testler için ortak kısayol.
func createBundle(t *testing.T, service *FormService, email, name string) (*models.Form, *models.Link) {
	t.Helper()
	form, access, err := service.CreateFormBundle(context.Background(), email, name, "")
	if err != nil {
		t.Fatalf("form bundle oluşturulamadı: %v", err)
	}
	return form, access
}

// linkOfKind formun verilen türdeki linkini veritabanından okur.
func linkOfKind(t *testing.T, db *gorm.DB, formID uint, kind string) *models.Link {
	t.Helper()
	var link models.Link
	if err := db.Where("form_id = ? AND kind = ?", formID, kind).Order("id ASC").First(&link).Error; err != nil {
		t.Fatalf("%s linki bulunamadı: %v", kind, err)
	}
	return &link
}

// expireLink linkin süresini geçmişe çeker.
func expireLink(t *testing.T, db *gorm.DB, key string) {
	t.Helper()
	past := time.Now().UTC().Add(-time.Second)
	if err := db.Model(&models.Link{}).Where("key = ?", key).Update("expires_at", past).Error; err != nil {
		t.Fatalf("link süresi değiştirilemedi: %v", err)
	}
}

func TestCreateFormBundle(t *testing.T) {
	db := newTestDB(t)
	service, mailer := newTestFormService(t, db)

	form, access, err := service.CreateFormBundle(context.Background(), "alice@example.com", "Feedback", "Site feedback form")
	if err != nil {
		t.Fatalf("beklenmeyen hata: %v", err)
	}

	// Form Pending durumunda başlar.
	if form.IsConfirmed() {
		t.Error("yeni form onaylanmamış olmalı")
	}
	if form.Disabled {
		t.Error("yeni form devre dışı olmamalı")
	}

	// Varsayılan zorunlu "message" input'u.
	if len(form.Inputs) != 1 {
		t.Fatalf("tek bir varsayılan input bekleniyordu, %d bulundu", len(form.Inputs))
	}
	if form.Inputs[0].Name != "message" || !form.Inputs[0].Required {
		t.Errorf("varsayılan input 'message'/required olmalı: %+v", form.Inputs[0])
	}

	// Üç link: ACCESS + CONFIRMATION + DISABLE.
	var count int64
	if err := db.Model(&models.Link{}).Where("form_id = ?", form.ID).Count(&count).Error; err != nil {
		t.Fatalf("link sayısı okunamadı: %v", err)
	}
	if count != 3 {
		t.Errorf("3 link bekleniyordu, %d bulundu", count)
	}
	if access.Kind != models.LinkKindAccess {
		t.Errorf("dönen link ACCESS olmalı, %s bulundu", access.Kind)
	}
	confirmation := linkOfKind(t, db, form.ID, models.LinkKindConfirmation)
	disable := linkOfKind(t, db, form.ID, models.LinkKindDisable)
	if confirmation.ParentID == nil || *confirmation.ParentID != access.ID {
		t.Error("onay linki erişim linkine bağlı olmalı")
	}
	if disable.ParentID == nil || *disable.ParentID != access.ID {
		t.Error("disable linki erişim linkine bağlı olmalı")
	}

	// Tam olarak bir bildirim, iki URL ile.
	if len(mailer.confirmations) != 1 {
		t.Fatalf("tek bir onay e-postası bekleniyordu, %d bulundu", len(mailer.confirmations))
	}
	mail := mailer.confirmations[0]
	if mail.To != "alice@example.com" {
		t.Errorf("e-posta sahibine gitmeli, %s bulundu", mail.To)
	}
	if !strings.Contains(mail.ConfirmURL, "/forms/confirm/") {
		t.Errorf("onay URL'i hatalı: %s", mail.ConfirmURL)
	}
	if !strings.Contains(mail.DisableURL, "/forms/disable/") {
		t.Errorf("disable URL'i hatalı: %s", mail.DisableURL)
	}
}

func TestCreateFormBundleLazyUser(t *testing.T) {
	db := newTestDB(t)
	service, _ := newTestFormService(t, db)

	createBundle(t, service, "new@example.com", "First")
	createBundle(t, service, "new@example.com", "Second")

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", "new@example.com").Count(&count).Error; err != nil {
		t.Fatalf("kullanıcı sayısı okunamadı: %v", err)
	}
	if count != 1 {
		t.Errorf("aynı e-posta tek kullanıcı açmalı, %d bulundu", count)
	}
}

func TestCreateFormBundleNameCollision(t *testing.T) {
	db := newTestDB(t)
	service, _ := newTestFormService(t, db)

	first, _ := createBundle(t, service, "bob@example.com", "Contact")
	second, _ := createBundle(t, service, "bob@example.com", "Contact")
	third, _ := createBundle(t, service, "bob@example.com", "Contact")

	if first.Name != "Contact" {
		t.Errorf("ilk form 'Contact' olmalı, %q bulundu", first.Name)
	}
	if second.Name != "Contact(1)" {
		t.Errorf("ikinci form 'Contact(1)' olmalı, %q bulundu", second.Name)
	}
	if third.Name != "Contact(2)" {
		t.Errorf("üçüncü form 'Contact(2)' olmalı, %q bulundu", third.Name)
	}

	// Farklı kullanıcı aynı ismi kullanabilir.
	other, _ := createBundle(t, service, "carol@example.com", "Contact")
	if other.Name != "Contact" {
		t.Errorf("başka kullanıcının formu 'Contact' kalmalı, %q bulundu", other.Name)
	}
}

func TestBumpNameSuffix(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Contact", "Contact(1)"},
		{"Contact(1)", "Contact(2)"},
		{"Contact(9)", "Contact(10)"},
		{"My (best) form", "My (best) form(1)"},
		{"My (best) form(2)", "My (best) form(3)"},
	}
	for _, c := range cases {
		if got := bumpNameSuffix(c.in); got != c.want {
			t.Errorf("bumpNameSuffix(%q) = %q, %q bekleniyordu", c.in, got, c.want)
		}
	}
}

func TestCreateFormBundleValidation(t *testing.T) {
	db := newTestDB(t)
	service, mailer := newTestFormService(t, db)
	ctx := context.Background()

	if _, _, err := service.CreateFormBundle(ctx, "not-an-email", "Form", ""); !errors.Is(err, ErrFormInvalidInput) {
		t.Errorf("geçersiz e-posta reddedilmeli, %v bulundu", err)
	}
	longName := strings.Repeat("a", models.FormNameMaxLength+1)
	if _, _, err := service.CreateFormBundle(ctx, "a@example.com", longName, ""); !errors.Is(err, ErrFormInvalidInput) {
		t.Errorf("uzun isim reddedilmeli, %v bulundu", err)
	}
	longDesc := strings.Repeat("d", models.FormDescriptionMaxLength+1)
	if _, _, err := service.CreateFormBundle(ctx, "a@example.com", "Form", longDesc); !errors.Is(err, ErrFormInvalidInput) {
		t.Errorf("uzun açıklama reddedilmeli, %v bulundu", err)
	}

	// Reddedilen isteklerden geriye ne form ne bildirim kalır.
	var count int64
	db.Model(&models.Form{}).Count(&count)
	if count != 0 {
		t.Errorf("validasyon hatası form bırakmamalı, %d bulundu", count)
	}
	if len(mailer.confirmations) != 0 {
		t.Error("validasyon hatası bildirim göndermemeli")
	}
}

func TestMailFailureDoesNotRollBackCreation(t *testing.T) {
	db := newTestDB(t)
	service, mailer := newTestFormService(t, db)
	mailer.failWith = ErrMailDeliveryFailed

	form, access, err := service.CreateFormBundle(context.Background(), "alice@example.com", "Feedback", "")
	if err != nil {
		t.Fatalf("mail hatası oluşturmayı başarısız yapmamalı: %v", err)
	}
	if form.ID == 0 || access.ID == 0 {
		t.Error("form ve link kalıcı olmalı")
	}
	var count int64
	db.Model(&models.Form{}).Where("id = ?", form.ID).Count(&count)
	if count != 1 {
		t.Error("form veritabanında kalmalı")
	}
}

func TestResolveConfirmationLinkIdempotent(t *testing.T) {
	db := newTestDB(t)
	service, _ := newTestFormService(t, db)
	ctx := context.Background()

	form, access := createBundle(t, service, "alice@example.com", "Feedback")
	confirmation := linkOfKind(t, db, form.ID, models.LinkKindConfirmation)

	shareURL, err := service.ResolveConfirmationLink(ctx, confirmation.Key)
	if err != nil {
		t.Fatalf("onay başarısız: %v", err)
	}
	if want := "https://client.test/form/" + access.Key + "/share"; shareURL != want {
		t.Errorf("paylaşım URL'i %q olmalı, %q bulundu", want, shareURL)
	}

	var confirmed models.Form
	if err := db.First(&confirmed, form.ID).Error; err != nil {
		t.Fatalf("form okunamadı: %v", err)
	}
	if !confirmed.IsConfirmed() {
		t.Fatal("form onaylanmış olmalı")
	}
	firstConfirmedAt := *confirmed.Confirmed

	// Sahip de doğrulanır.
	var owner models.User
	if err := db.First(&owner, form.UserID).Error; err != nil {
		t.Fatalf("kullanıcı okunamadı: %v", err)
	}
	if !owner.IsVerified() {
		t.Error("ilk onay kullanıcıyı doğrulamalı")
	}

	// İkinci tıklama: hata yok, aynı yönlendirme, zaman damgası değişmez.
	shareURL2, err := service.ResolveConfirmationLink(ctx, confirmation.Key)
	if err != nil {
		t.Fatalf("tekrar onay hata vermemeli: %v", err)
	}
	if shareURL2 != shareURL {
		t.Error("tekrar onay aynı URL'e yönlendirmeli")
	}
	if err := db.First(&confirmed, form.ID).Error; err != nil {
		t.Fatalf("form okunamadı: %v", err)
	}
	if !confirmed.Confirmed.Equal(firstConfirmedAt) {
		t.Error("onay zaman damgası tekrar tıklamada değişmemeli")
	}
}

func TestResolveConfirmationLinkExpired(t *testing.T) {
	db := newTestDB(t)
	service, _ := newTestFormService(t, db)
	ctx := context.Background()

	form, _ := createBundle(t, service, "alice@example.com", "Feedback")
	confirmation := linkOfKind(t, db, form.ID, models.LinkKindConfirmation)
	expireLink(t, db, confirmation.Key)

	if _, err := service.ResolveConfirmationLink(ctx, confirmation.Key); !errors.Is(err, ErrLinkExpired) {
		t.Fatalf("ErrLinkExpired bekleniyordu, %v bulundu", err)
	}

	// Süresi dolmuş onay yan etki bırakmaz.
	var fresh models.Form
	if err := db.First(&fresh, form.ID).Error; err != nil {
		t.Fatalf("form okunamadı: %v", err)
	}
	if fresh.IsConfirmed() {
		t.Error("süresi dolmuş link formu onaylamamalı")
	}
}

func TestResolveAccessLink(t *testing.T) {
	db := newTestDB(t)
	service, _ := newTestFormService(t, db)
	ctx := context.Background()

	form, access := createBundle(t, service, "alice@example.com", "Feedback")

	// Onaylanmamış form: link gerçek ama paylaşılabilir değil.
	if _, err := service.ResolveAccessLink(ctx, access.Key); !errors.Is(err, ErrFormNotConfirmed) {
		t.Fatalf("ErrFormNotConfirmed bekleniyordu, %v bulundu", err)
	}

	confirmation := linkOfKind(t, db, form.ID, models.LinkKindConfirmation)
	if _, err := service.ResolveConfirmationLink(ctx, confirmation.Key); err != nil {
		t.Fatalf("onay başarısız: %v", err)
	}

	view, err := service.ResolveAccessLink(ctx, access.Key)
	if err != nil {
		t.Fatalf("erişim linki çözülemedi: %v", err)
	}
	if view.Name != "Feedback" || !view.Confirmed || view.Disabled {
		t.Errorf("görünüm hatalı: %+v", view)
	}
	if len(view.Inputs) != 1 || view.Inputs[0].Name != "message" {
		t.Errorf("görünüm input'ları hatalı: %+v", view.Inputs)
	}
}

func TestResolveAccessLinkSanitizesUserStrings(t *testing.T) {
	db := newTestDB(t)
	service, _ := newTestFormService(t, db)
	ctx := context.Background()

	form, access, err := service.CreateFormBundle(ctx, "alice@example.com", "<script>alert(1)</script>", "desc & <b>more</b>")
	if err != nil {
		t.Fatalf("form oluşturulamadı: %v", err)
	}
	confirmation := linkOfKind(t, db, form.ID, models.LinkKindConfirmation)
	if _, err := service.ResolveConfirmationLink(ctx, confirmation.Key); err != nil {
		t.Fatalf("onay başarısız: %v", err)
	}

	view, err := service.ResolveAccessLink(ctx, access.Key)
	if err != nil {
		t.Fatalf("erişim linki çözülemedi: %v", err)
	}
	if strings.Contains(view.Name, "<script>") {
		t.Errorf("form adı escape edilmeli: %q", view.Name)
	}
	if strings.Contains(view.Description, "<b>") {
		t.Errorf("açıklama escape edilmeli: %q", view.Description)
	}
}

func TestResolveAccessLinkExpiry(t *testing.T) {
	db := newTestDB(t)
	service, _ := newTestFormService(t, db)
	ctx := context.Background()

	form, access := createBundle(t, service, "alice@example.com", "Feedback")
	confirmation := linkOfKind(t, db, form.ID, models.LinkKindConfirmation)
	if _, err := service.ResolveConfirmationLink(ctx, confirmation.Key); err != nil {
		t.Fatalf("onay başarısız: %v", err)
	}

	// Expiry anı sabitlenir; sınır anında link hâlâ geçerli, bir saniye
	// sonrasında geçersizdir.
	expiresAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if err := db.Model(&models.Link{}).Where("key = ?", access.Key).Update("expires_at", expiresAt).Error; err != nil {
		t.Fatalf("link süresi ayarlanamadı: %v", err)
	}

	service.now = func() time.Time { return expiresAt.Add(-time.Second) }
	if _, err := service.ResolveAccessLink(ctx, access.Key); err != nil {
		t.Errorf("expiry öncesinde link geçerli olmalı: %v", err)
	}

	service.now = func() time.Time { return expiresAt }
	if _, err := service.ResolveAccessLink(ctx, access.Key); err != nil {
		t.Errorf("tam expiry anında link geçerli olmalı: %v", err)
	}

	service.now = func() time.Time { return expiresAt.Add(time.Second) }
	if _, err := service.ResolveAccessLink(ctx, access.Key); !errors.Is(err, ErrLinkExpired) {
		t.Errorf("expiry sonrasında ErrLinkExpired bekleniyordu, %v bulundu", err)
	}
}

func TestResolveDisableLink(t *testing.T) {
	db := newTestDB(t)
	service, _ := newTestFormService(t, db)
	ctx := context.Background()

	form, access := createBundle(t, service, "alice@example.com", "Feedback")
	disable := linkOfKind(t, db, form.ID, models.LinkKindDisable)

	accessURL, err := service.ResolveDisableLink(ctx, disable.Key)
	if err != nil {
		t.Fatalf("disable başarısız: %v", err)
	}
	if want := "https://client.test/form/" + access.Key; accessURL != want {
		t.Errorf("erişim URL'i %q olmalı, %q bulundu", want, accessURL)
	}

	var fresh models.Form
	if err := db.First(&fresh, form.ID).Error; err != nil {
		t.Fatalf("form okunamadı: %v", err)
	}
	if !fresh.Disabled {
		t.Fatal("form devre dışı kalmalı")
	}

	// Tekrar tıklama zararsız.
	if _, err := service.ResolveDisableLink(ctx, disable.Key); err != nil {
		t.Errorf("tekrar disable hata vermemeli: %v", err)
	}
}

func TestDisableLinkIgnoresExpiry(t *testing.T) {
	db := newTestDB(t)
	service, _ := newTestFormService(t, db)
	ctx := context.Background()

	form, _ := createBundle(t, service, "alice@example.com", "Feedback")
	disable := linkOfKind(t, db, form.ID, models.LinkKindDisable)
	expireLink(t, db, disable.Key)

	// Disable bir emniyet supabıdır; süresi dolmuş olsa da çalışır.
	if _, err := service.ResolveDisableLink(ctx, disable.Key); err != nil {
		t.Fatalf("süresi dolmuş disable linki yine de çalışmalı: %v", err)
	}
	var fresh models.Form
	if err := db.First(&fresh, form.ID).Error; err != nil {
		t.Fatalf("form okunamadı: %v", err)
	}
	if !fresh.Disabled {
		t.Error("form devre dışı kalmalı")
	}
}

func TestDisableIsSticky(t *testing.T) {
	db := newTestDB(t)
	service, _ := newTestFormService(t, db)
	ctx := context.Background()

	form, access := createBundle(t, service, "alice@example.com", "Feedback")
	confirmation := linkOfKind(t, db, form.ID, models.LinkKindConfirmation)
	disable := linkOfKind(t, db, form.ID, models.LinkKindDisable)

	if _, err := service.ResolveConfirmationLink(ctx, confirmation.Key); err != nil {
		t.Fatalf("onay başarısız: %v", err)
	}
	if _, err := service.ResolveDisableLink(ctx, disable.Key); err != nil {
		t.Fatalf("disable başarısız: %v", err)
	}

	// Onaylı olsa bile kapalı form yanıt kabul etmez.
	err := service.SubmitResponse(ctx, access.Key, map[string]string{"message": "hello"})
	if !errors.Is(err, ErrFormDisabled) {
		t.Errorf("ErrFormDisabled bekleniyordu, %v bulundu", err)
	}

	// Erişim görünümü de kapalı formu göstermez.
	if _, err := service.ResolveAccessLink(ctx, access.Key); !errors.Is(err, ErrFormDisabled) {
		t.Errorf("ErrFormDisabled bekleniyordu, %v bulundu", err)
	}

	// Onay linkine tekrar tıklamak formu geri açamaz.
	if _, err := service.ResolveConfirmationLink(ctx, confirmation.Key); err != nil {
		t.Fatalf("onay linki hata vermemeli: %v", err)
	}
	var fresh models.Form
	if err := db.First(&fresh, form.ID).Error; err != nil {
		t.Fatalf("form okunamadı: %v", err)
	}
	if !fresh.Disabled {
		t.Error("hiçbir işlem Disabled'ı geri alamamalı")
	}
}

func TestSubmitResponseLifecycle(t *testing.T) {
	db := newTestDB(t)
	service, mailer := newTestFormService(t, db)
	ctx := context.Background()

	form, access := createBundle(t, service, "alice@example.com", "Feedback")
	answers := map[string]string{"message": "hello there"}

	// Pending form yanıt kabul etmez.
	if err := service.SubmitResponse(ctx, access.Key, answers); !errors.Is(err, ErrFormNotConfirmed) {
		t.Fatalf("ErrFormNotConfirmed bekleniyordu, %v bulundu", err)
	}

	confirmation := linkOfKind(t, db, form.ID, models.LinkKindConfirmation)
	if _, err := service.ResolveConfirmationLink(ctx, confirmation.Key); err != nil {
		t.Fatalf("onay başarısız: %v", err)
	}

	// Aynı gönderim onaydan sonra kabul edilir.
	if err := service.SubmitResponse(ctx, access.Key, answers); err != nil {
		t.Fatalf("onaylı form yanıtı kabul etmeli: %v", err)
	}

	if len(mailer.responses) != 1 {
		t.Fatalf("tek bir yanıt e-postası bekleniyordu, %d bulundu", len(mailer.responses))
	}
	mail := mailer.responses[0]
	if mail.To != "alice@example.com" {
		t.Errorf("yanıt sahibine gitmeli, %s bulundu", mail.To)
	}
	if len(mail.Answers) != 1 || mail.Answers[0].Text != "hello there" {
		t.Errorf("yanıt içeriği hatalı: %+v", mail.Answers)
	}
	// Cevap input'un görüntüleme etiketiyle işaretlenir.
	if mail.Answers[0].Label != "Add a message to send to the form's owner." {
		t.Errorf("cevap etiketi hatalı: %q", mail.Answers[0].Label)
	}
	// Her yanıt e-postası taze bir disable linki taşır.
	if !strings.Contains(mail.DisableURL, "/forms/disable/") {
		t.Errorf("yanıt e-postasında disable URL'i olmalı: %q", mail.DisableURL)
	}
}

func TestSubmitResponseValidation(t *testing.T) {
	db := newTestDB(t)
	service, _ := newTestFormService(t, db)
	ctx := context.Background()

	form, access := createBundle(t, service, "alice@example.com", "Feedback")
	confirmation := linkOfKind(t, db, form.ID, models.LinkKindConfirmation)
	if _, err := service.ResolveConfirmationLink(ctx, confirmation.Key); err != nil {
		t.Fatalf("onay başarısız: %v", err)
	}

	// Zorunlu alan eksik.
	if err := service.SubmitResponse(ctx, access.Key, map[string]string{}); !errors.Is(err, ErrFormInvalidInput) {
		t.Errorf("eksik zorunlu alan reddedilmeli, %v bulundu", err)
	}
	// Zorunlu alan boş.
	if err := service.SubmitResponse(ctx, access.Key, map[string]string{"message": ""}); !errors.Is(err, ErrFormInvalidInput) {
		t.Errorf("boş zorunlu alan reddedilmeli, %v bulundu", err)
	}
	// Bilinmeyen alan.
	err := service.SubmitResponse(ctx, access.Key, map[string]string{"message": "x", "bogus": "y"})
	if !errors.Is(err, ErrFormInvalidInput) {
		t.Errorf("bilinmeyen alan reddedilmeli, %v bulundu", err)
	}
	// Bilinmeyen anahtar 404 eşleniği.
	if err := service.SubmitResponse(ctx, "missing-key-0123456789abcd", map[string]string{}); !errors.Is(err, ErrLinkNotFound) {
		t.Errorf("ErrLinkNotFound bekleniyordu, %v bulundu", err)
	}
}

func TestAddInput(t *testing.T) {
	db := newTestDB(t)
	service, _ := newTestFormService(t, db)
	ctx := context.Background()

	form, _ := createBundle(t, service, "alice@example.com", "Feedback")

	input, err := service.AddInput(ctx, form.ID, models.Input{
		Name: "email", Label: "Your e-mail address", Hint: "So the owner can reply.", Required: false,
	})
	if err != nil {
		t.Fatalf("input eklenemedi: %v", err)
	}
	if input.Type != "text" {
		t.Errorf("tip verilmezse 'text' olmalı, %q bulundu", input.Type)
	}

	// Aynı isim form içinde ikinci kez kullanılamaz.
	if _, err := service.AddInput(ctx, form.ID, models.Input{Name: "email"}); !errors.Is(err, ErrInputNameTaken) {
		t.Errorf("ErrInputNameTaken bekleniyordu, %v bulundu", err)
	}
	// Ama varsayılan "message" ismi başka formda serbesttir.
	other, _ := createBundle(t, service, "alice@example.com", "Other")
	if _, err := service.AddInput(ctx, other.ID, models.Input{Name: "email"}); err != nil {
		t.Errorf("farklı formda aynı isim serbest olmalı: %v", err)
	}
}

func TestDeleteFormCascades(t *testing.T) {
	db := newTestDB(t)
	service, _ := newTestFormService(t, db)
	ctx := context.Background()

	form, access := createBundle(t, service, "alice@example.com", "Feedback")

	if err := service.DeleteForm(ctx, form.ID); err != nil {
		t.Fatalf("form silinemedi: %v", err)
	}

	// Linkler ve input'lar formla birlikte gider.
	if _, err := service.ResolveAccessLink(ctx, access.Key); !errors.Is(err, ErrLinkNotFound) {
		t.Errorf("silinen formun linki çözülmemeli, %v bulundu", err)
	}
	var inputs int64
	db.Model(&models.Input{}).Where("form_id = ?", form.ID).Count(&inputs)
	if inputs != 0 {
		t.Errorf("input'lar silinmeliydi, %d kaldı", inputs)
	}
	if err := service.DeleteForm(ctx, form.ID); !errors.Is(err, ErrFormNotFound) {
		t.Errorf("silinen form tekrar silinemez, %v bulundu", err)
	}
}
