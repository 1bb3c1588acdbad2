package services

import (
	"context"
	"errors"
	"time"

	"reachable.link/configs"
	"reachable.link/configs/configslog"
	"reachable.link/models"
	"reachable.link/repositories"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// IAuthService şifresiz oturum açma akışı için arayüz. Kimlik kanıtı
// e-postaya gönderilen kısa ömürlü bir capability linkidir; oturumun
// kendisi (cookie vb.) bu servisin dışındadır.
type IAuthService interface {
	RequestLoginLink(ctx context.Context, email string) error
	ResolveLoginLink(ctx context.Context, key string) (*models.User, error)
}

// AuthService IAuthService arayüzünü uygular.
type AuthService struct {
	cfg         *configs.Config
	userRepo    repositories.IUserRepository
	linkService ILinkService
	mailer      IMailerService
	now         func() time.Time
	async       bool
}

// NewAuthService yeni bir AuthService örneği oluşturur.
func NewAuthService(db *gorm.DB, cfg *configs.Config, mailer IMailerService) IAuthService {
	return &AuthService{
		cfg:         cfg,
		userRepo:    repositories.NewUserRepository(db),
		linkService: NewLinkService(db),
		mailer:      mailer,
		now:         time.Now,
		async:       true,
	}
}

// RequestLoginLink kullanıcıya 30 dakika geçerli bir login linki yollar.
// Bilinmeyen e-postalar için de başarı döner; endpoint hangi adreslerin
// kayıtlı olduğunu ele vermemelidir.
func (s *AuthService) RequestLoginLink(ctx context.Context, email string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			configslog.SLog.Infow("Login linki istendi, kullanıcı kayıtlı değil")
			return nil
		}
		return err
	}

	link, err := s.linkService.CreateLoginLink(ctx, user.ID)
	if err != nil {
		return err
	}

	loginURL := link.URL(s.cfg)
	deliver := func() {
		if err := s.mailer.SendLoginLink(user, loginURL); err != nil {
			configslog.Log.Warn("Login linki gönderilemedi", zap.Uint("user_id", user.ID), zap.Error(err))
		}
	}
	if s.async {
		go deliver()
	} else {
		deliver()
	}
	return nil
}

// ResolveLoginLink login anahtarını kullanıcıya çözer. Süresi dolmuş
// anahtarlar ErrLinkExpired ile reddedilir; oturum açma mekaniği çağırana
// bırakılır.
func (s *AuthService) ResolveLoginLink(ctx context.Context, key string) (*models.User, error) {
	link, err := s.linkService.GetLinkByKeyAndKind(ctx, key, models.LinkKindLogin)
	if err != nil {
		return nil, err
	}
	if link.IsExpired(s.now().UTC()) {
		return nil, ErrLinkExpired
	}
	if link.UserID == nil {
		configslog.Log.Error("Login linkinin kullanıcı referansı yok", zap.Uint("link_id", link.ID))
		return nil, ErrLinkNotFound
	}

	user, err := s.userRepo.FindByID(ctx, *link.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Arayüz uyumluluğu kontrolü
var _ IAuthService = (*AuthService)(nil)
