package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"reachable.link/configs/configslog"
	"reachable.link/models"
	"reachable.link/pkg/linkkey"
	"reachable.link/repositories"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LinkServiceError özel servis hataları
type LinkServiceError string

func (e LinkServiceError) Error() string { return string(e) }

const (
	ErrLinkNotFound            LinkServiceError = "link bulunamadı"
	ErrLinkExpired             LinkServiceError = "linkin süresi dolmuş"
	ErrLinkCreationFailed      LinkServiceError = "link oluşturulamadı"
	ErrLinkKeyGenerationFailed LinkServiceError = "benzersiz link anahtarı üretilemedi"
	ErrLinkInvalidInput        LinkServiceError = "geçersiz link girdisi"
)

// maxKeyAttempts benzersiz anahtar üretme denemelerinin üst sınırı.
// Anahtar uzayının boyutu düşünüldüğünde bu sınıra ulaşmak pratikte
// imkânsızdır; ulaşılırsa entropi kaynağı bozuk demektir.
const maxKeyAttempts = 32

// ILinkService link oluşturma ve çözme işlemleri için arayüz.
type ILinkService interface {
	CreateAccessLink(ctx context.Context, formID uint) (*models.Link, error)
	CreateConfirmationLink(ctx context.Context, accessLink *models.Link) (*models.Link, error)
	CreateDisableLink(ctx context.Context, accessLink *models.Link) (*models.Link, error)
	CreateLoginLink(ctx context.Context, userID uint) (*models.Link, error)
	GetLinkByKey(ctx context.Context, key string) (*models.Link, error)
	GetLinkByKeyAndKind(ctx context.Context, key, kind string) (*models.Link, error)
}

// LinkService ILinkService arayüzünü uygular.
type LinkService struct {
	repo repositories.ILinkRepository

	// generate test sırasında çakışma enjekte edebilmek için alan olarak
	// tutulur; üretimde her zaman linkkey.Generate'tir.
	generate func() string

	now func() time.Time
}

// NewLinkService yeni bir LinkService örneği oluşturur.
func NewLinkService(db *gorm.DB) ILinkService {
	return &LinkService{
		repo:     repositories.NewLinkRepository(db),
		generate: linkkey.Generate,
		now:      time.Now,
	}
}

// createLink verilen türde, benzersiz anahtarlı bir link oluşturur.
//
// Benzersizlik iki katmanlıdır: KeyExists ön kontrolü sadece gereksiz
// insert denemelerini eler; asıl otorite veritabanındaki unique index'tir.
// Çakışma durumunda (ön kontrolde ya da insert'te) yeni anahtar üretilir;
// geçici bir çakışma asla çağırana hata olarak yansımaz.
func (s *LinkService) createLink(ctx context.Context, link *models.Link) (*models.Link, error) {
	for attempt := 0; attempt < maxKeyAttempts; attempt++ {
		link.Key = s.generate()

		exists, err := s.repo.KeyExists(ctx, link.Key)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		err = s.repo.Create(ctx, link)
		if err == nil {
			configslog.SLog.Infof("Link oluşturuldu: ID %d, tür %s", link.ID, link.Kind)
			return link, nil
		}
		// Eşzamanlı bir istek aynı anahtarı bizden önce yazmış olabilir;
		// unique index'e güvenip yeni anahtarla tekrar deniyoruz.
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(err.Error(), "duplicate key value violates unique constraint") ||
			strings.Contains(err.Error(), "UNIQUE constraint failed") {
			link.ID = 0
			continue
		}
		configslog.Log.Error("Link oluşturulurken repository hatası",
			zap.String("kind", link.Kind), zap.Error(err))
		return nil, ErrLinkCreationFailed
	}

	// Buraya ulaşmak konfigürasyon/entropi arızası demektir.
	configslog.Log.Error("Benzersiz link anahtarı üretilemedi, deneme sınırı aşıldı",
		zap.String("kind", link.Kind), zap.Int("attempts", maxKeyAttempts))
	return nil, ErrLinkKeyGenerationFailed
}

// CreateAccessLink bir form için erişim (paylaşım) linki oluşturur.
func (s *LinkService) CreateAccessLink(ctx context.Context, formID uint) (*models.Link, error) {
	if formID == 0 {
		return nil, fmt.Errorf("%w: geçersiz form ID", ErrLinkInvalidInput)
	}
	return s.createLink(ctx, &models.Link{
		Kind:      models.LinkKindAccess,
		FormID:    &formID,
		ExpiresAt: s.now().UTC().Add(models.LinkDefaultTTL),
	})
}

// CreateConfirmationLink bir erişim linkine bağlı onay linki oluşturur.
func (s *LinkService) CreateConfirmationLink(ctx context.Context, accessLink *models.Link) (*models.Link, error) {
	if accessLink == nil || accessLink.ID == 0 || accessLink.Kind != models.LinkKindAccess {
		return nil, fmt.Errorf("%w: onay linki bir erişim linkine bağlanmalı", ErrLinkInvalidInput)
	}
	parentID := accessLink.ID
	return s.createLink(ctx, &models.Link{
		Kind:      models.LinkKindConfirmation,
		ParentID:  &parentID,
		FormID:    accessLink.FormID,
		ExpiresAt: s.now().UTC().Add(models.LinkDefaultTTL),
	})
}

// CreateDisableLink bir erişim linkine bağlı devre dışı bırakma linki oluşturur.
func (s *LinkService) CreateDisableLink(ctx context.Context, accessLink *models.Link) (*models.Link, error) {
	if accessLink == nil || accessLink.ID == 0 || accessLink.Kind != models.LinkKindAccess {
		return nil, fmt.Errorf("%w: disable linki bir erişim linkine bağlanmalı", ErrLinkInvalidInput)
	}
	parentID := accessLink.ID
	return s.createLink(ctx, &models.Link{
		Kind:      models.LinkKindDisable,
		ParentID:  &parentID,
		FormID:    accessLink.FormID,
		ExpiresAt: s.now().UTC().Add(models.LinkDefaultTTL),
	})
}

// CreateLoginLink bir kullanıcı için kısa ömürlü oturum açma linki oluşturur.
func (s *LinkService) CreateLoginLink(ctx context.Context, userID uint) (*models.Link, error) {
	if userID == 0 {
		return nil, fmt.Errorf("%w: geçersiz kullanıcı ID", ErrLinkInvalidInput)
	}
	return s.createLink(ctx, &models.Link{
		Kind:      models.LinkKindLogin,
		UserID:    &userID,
		ExpiresAt: s.now().UTC().Add(models.LinkLoginTTL),
	})
}

// GetLinkByKey public anahtar ile linki alır. Expiry kontrolü YAPMAZ;
// sürenin anlamı linkin türüne göre değiştiğinden (disable linkleri
// süresi dolsa da çalışır) o karar çağırana aittir.
func (s *LinkService) GetLinkByKey(ctx context.Context, key string) (*models.Link, error) {
	if key == "" || len(key) > models.KeyMaxLength {
		return nil, ErrLinkNotFound
	}
	link, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return link, nil
}

// GetLinkByKeyAndKind anahtarla linki alır ve türünü doğrular.
// Yanlış türdeki bir anahtar, var olmayan bir anahtarla aynı cevabı alır;
// anahtarın başka bir türde mevcut olduğu bilgisi sızdırılmaz.
func (s *LinkService) GetLinkByKeyAndKind(ctx context.Context, key, kind string) (*models.Link, error) {
	link, err := s.GetLinkByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if link.Kind != kind {
		return nil, ErrLinkNotFound
	}
	return link, nil
}

// Arayüz uyumluluğu kontrolü
var _ ILinkService = (*LinkService)(nil)
