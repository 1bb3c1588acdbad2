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

func newTestAuthService(t *testing.T, db *gorm.DB) (*AuthService, *recordingMailer) {
	t.Helper()
	mailer := &recordingMailer{}
	service := NewAuthService(db, newTestConfig(), mailer).(*AuthService)
	service.async = false
	return service, mailer
}

func TestRequestLoginLinkUnknownEmail(t *testing.T) {
	db := newTestDB(t)
	service, mailer := newTestAuthService(t, db)

	// Bilinmeyen adres de başarı döner; kayıtlı adresler ele verilmez.
	if err := service.RequestLoginLink(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("bilinmeyen e-posta hata döndürmemeli: %v", err)
	}
	if len(mailer.logins) != 0 {
		t.Error("bilinmeyen e-postaya mail gitmemeli")
	}
	var count int64
	db.Model(&models.Link{}).Where("kind = ?", models.LinkKindLogin).Count(&count)
	if count != 0 {
		t.Error("bilinmeyen e-posta için link üretilmemeli")
	}
}

func TestRequestLoginLinkInvalidEmail(t *testing.T) {
	db := newTestDB(t)
	service, _ := newTestAuthService(t, db)

	if err := service.RequestLoginLink(context.Background(), "not-an-email"); !errors.Is(err, ErrUserInvalidEmail) {
		t.Errorf("ErrUserInvalidEmail bekleniyordu, %v bulundu", err)
	}
}

func TestLoginLinkRoundTrip(t *testing.T) {
	db := newTestDB(t)
	service, mailer := newTestAuthService(t, db)
	ctx := context.Background()

	user := &models.User{Email: "alice@example.com"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("kullanıcı oluşturulamadı: %v", err)
	}

	if err := service.RequestLoginLink(ctx, "alice@example.com"); err != nil {
		t.Fatalf("login linki istenemedi: %v", err)
	}
	if len(mailer.logins) != 1 {
		t.Fatalf("tek bir login e-postası bekleniyordu, %d bulundu", len(mailer.logins))
	}
	mail := mailer.logins[0]
	if mail.To != "alice@example.com" {
		t.Errorf("e-posta alice'e gitmeli, %s bulundu", mail.To)
	}
	const prefix = "https://client.test/login/"
	if !strings.HasPrefix(mail.LoginURL, prefix) {
		t.Fatalf("login URL'i %q ile başlamalı: %s", prefix, mail.LoginURL)
	}

	key := strings.TrimPrefix(mail.LoginURL, prefix)
	resolved, err := service.ResolveLoginLink(ctx, key)
	if err != nil {
		t.Fatalf("login linki çözülemedi: %v", err)
	}
	if resolved.ID != user.ID || resolved.Email != user.Email {
		t.Errorf("yanlış kullanıcı çözüldü: %+v", resolved)
	}
}

func TestResolveLoginLinkExpired(t *testing.T) {
	db := newTestDB(t)
	service, mailer := newTestAuthService(t, db)
	ctx := context.Background()

	if err := db.Create(&models.User{Email: "alice@example.com"}).Error; err != nil {
		t.Fatalf("kullanıcı oluşturulamadı: %v", err)
	}
	if err := service.RequestLoginLink(ctx, "alice@example.com"); err != nil {
		t.Fatalf("login linki istenemedi: %v", err)
	}
	key := strings.TrimPrefix(mailer.logins[0].LoginURL, "https://client.test/login/")

	// Login linkleri 30 dakika yaşar.
	service.now = func() time.Time { return time.Now().UTC().Add(models.LinkLoginTTL + time.Second) }
	if _, err := service.ResolveLoginLink(ctx, key); !errors.Is(err, ErrLinkExpired) {
		t.Errorf("ErrLinkExpired bekleniyordu, %v bulundu", err)
	}
}

func TestResolveLoginLinkWrongKind(t *testing.T) {
	db := newTestDB(t)
	authService, _ := newTestAuthService(t, db)
	formService, _ := newTestFormService(t, db)
	ctx := context.Background()

	// Bir erişim anahtarı login anahtarı olarak kullanılamaz.
	_, access := createBundle(t, formService, "alice@example.com", "Feedback")
	if _, err := authService.ResolveLoginLink(ctx, access.Key); !errors.Is(err, ErrLinkNotFound) {
		t.Errorf("ErrLinkNotFound bekleniyordu, %v bulundu", err)
	}
}
