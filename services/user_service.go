package services

import (
	"context"
	"errors"
	"net/mail"
	"time"

	"reachable.link/configs/configslog"
	"reachable.link/models"
	"reachable.link/repositories"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserServiceError özel servis hataları
type UserServiceError string

func (e UserServiceError) Error() string { return string(e) }

const (
	ErrUserNotFound       UserServiceError = "kullanıcı bulunamadı"
	ErrUserInvalidEmail   UserServiceError = "geçersiz e-posta adresi"
	ErrUserCreationFailed UserServiceError = "kullanıcı oluşturulamadı"
)

// IUserService kullanıcı işlemleri için arayüz.
type IUserService interface {
	GetOrCreateUser(ctx context.Context, email string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	VerifyUser(ctx context.Context, userID uint, now time.Time) error
}

// UserService IUserService arayüzünü uygular.
type UserService struct {
	repo repositories.IUserRepository
}

// NewUserService yeni bir UserService örneği oluşturur.
func NewUserService(db *gorm.DB) IUserService {
	return &UserService{repo: repositories.NewUserRepository(db)}
}

// ValidateEmail adresin şeklini ve uzunluğunu kontrol eder.
// Adres normalize EDİLMEZ; e-posta kimliği case-sensitive'dir.
func ValidateEmail(email string) error {
	if email == "" || len(email) > models.EmailMaxLength {
		return ErrUserInvalidEmail
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrUserInvalidEmail
	}
	return nil
}

// GetOrCreateUser e-postaya göre kullanıcıyı bulur; yoksa oluşturur.
// Kullanıcılar ilk form oluşturma anında tembel olarak açılır.
func (s *UserService) GetOrCreateUser(ctx context.Context, email string) (*models.User, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	user = &models.User{Email: email}
	if err := s.repo.Create(ctx, user); err != nil {
		// Eşzamanlı iki istek aynı e-postayı açmaya çalışmış olabilir;
		// unique index kazananı belirler, kaybeden mevcut kaydı okur.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.repo.FindByEmail(ctx, email)
		}
		configslog.Log.Error("Kullanıcı oluşturulurken repository hatası", zap.Error(err))
		return nil, ErrUserCreationFailed
	}

	configslog.SLog.Infof("Yeni kullanıcı oluşturuldu: ID %d", user.ID)
	return user, nil
}

// GetUserByEmail e-posta ile kullanıcıyı bulur.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// VerifyUser kullanıcının Verified alanını bir kez set eder.
// Zaten doğrulanmış kullanıcı için no-op'tur; zaman damgası monotoniktir,
// asla geri alınmaz veya üzerine yazılmaz.
func (s *UserService) VerifyUser(ctx context.Context, userID uint, now time.Time) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.IsVerified() {
		return nil
	}
	if err := s.repo.UpdateFields(ctx, userID, map[string]interface{}{"verified": now}); err != nil {
		return err
	}
	configslog.SLog.Infof("Kullanıcı doğrulandı: ID %d", userID)
	return nil
}

// Arayüz uyumluluğu kontrolü
var _ IUserService = (*UserService)(nil)
