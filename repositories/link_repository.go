package repositories

import (
	"context"
	"errors"

	"reachable.link/configs/configslog"
	"reachable.link/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ILinkRepository link veritabanı işlemleri için arayüz.
// Key alanındaki unique index TÜM link türleri için ortaktır; key uzayı
// türe göre bölünmez.
type ILinkRepository interface {
	Create(ctx context.Context, link *models.Link) error
	FindByID(ctx context.Context, id uint) (*models.Link, error)
	FindByKey(ctx context.Context, key string) (*models.Link, error)
	KeyExists(ctx context.Context, key string) (bool, error)
	FindByFormAndKind(ctx context.Context, formID uint, kind string) (*models.Link, error)
	Delete(ctx context.Context, link *models.Link) error
	DeleteByFormID(ctx context.Context, formID uint) error
}

// LinkRepository ILinkRepository arayüzünü uygular.
type LinkRepository struct {
	db *gorm.DB
}

// NewLinkRepository yeni bir LinkRepository örneği oluşturur.
func NewLinkRepository(db *gorm.DB) ILinkRepository {
	return &LinkRepository{db: db}
}

// Context ile çalışan DB örneği döndüren yardımcı fonksiyon
func (r *LinkRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value("tx").(*gorm.DB); ok && tx != nil {
		return tx // Eğer context'te transaction varsa onu kullan
	}
	return r.db.WithContext(ctx)
}

// Create yeni bir link kaydı oluşturur. Key'in benzersizliğini veritabanındaki
// unique index garanti eder; çakışmada gorm.ErrDuplicatedKey döner ve servis
// katmanındaki retry döngüsü yeni bir anahtar dener.
func (r *LinkRepository) Create(ctx context.Context, link *models.Link) error {
	if link == nil {
		return errors.New("oluşturulacak link nil olamaz")
	}
	if link.Key == "" || link.Kind == "" {
		return errors.New("link key ve kind boş olamaz")
	}
	return r.getDB(ctx).Create(link).Error
}

// FindByID ID ile bir link kaydını bulur.
func (r *LinkRepository) FindByID(ctx context.Context, id uint) (*models.Link, error) {
	if id == 0 {
		return nil, errors.New("geçersiz Link ID")
	}
	var link models.Link
	err := r.getDB(ctx).First(&link, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		configslog.Log.Error("LinkRepository.FindByID: DB error", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return &link, nil
}

// FindByKey benzersiz anahtar ile bir link kaydını bulur.
// Key birincil erişim yoludur; lookup unique index üzerinden çalışır.
func (r *LinkRepository) FindByKey(ctx context.Context, key string) (*models.Link, error) {
	if key == "" {
		return nil, errors.New("aranacak link key'i boş olamaz")
	}
	var link models.Link
	err := r.getDB(ctx).Where("key = ?", key).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		configslog.Log.Error("LinkRepository.FindByKey: DB error", zap.Error(err))
		return nil, err
	}
	return &link, nil
}

// KeyExists belirli bir anahtarın zaten kullanımda olup olmadığını kontrol
// eder. Bu sadece bir ön kontrol/optimizasyondur; kesin karar unique index'indir.
func (r *LinkRepository) KeyExists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("kontrol edilecek link key'i boş olamaz")
	}
	var count int64
	err := r.getDB(ctx).Model(&models.Link{}).Where("key = ?", key).Count(&count).Error
	if err != nil {
		configslog.Log.Error("LinkRepository.KeyExists: DB error", zap.Error(err))
		return false, err
	}
	return count > 0, nil
}

// FindByFormAndKind bir forma bağlı, verilen türdeki en yeni linki bulur.
func (r *LinkRepository) FindByFormAndKind(ctx context.Context, formID uint, kind string) (*models.Link, error) {
	if formID == 0 || kind == "" {
		return nil, errors.New("geçersiz form ID veya link türü")
	}
	var link models.Link
	err := r.getDB(ctx).
		Where("form_id = ? AND kind = ?", formID, kind).
		Order("created_at DESC").
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		configslog.Log.Error("LinkRepository.FindByFormAndKind: DB error",
			zap.Uint("form_id", formID), zap.String("kind", kind), zap.Error(err))
		return nil, err
	}
	return &link, nil
}

// Delete bir link kaydını siler (soft delete).
func (r *LinkRepository) Delete(ctx context.Context, link *models.Link) error {
	if link == nil || link.ID == 0 {
		return errors.New("silinecek link geçerli değil")
	}
	result := r.getDB(ctx).Delete(link)
	if result.Error != nil {
		configslog.Log.Error("LinkRepository.Delete: DB error", zap.Uint("id", link.ID), zap.Error(result.Error))
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByFormID bir forma bağlı tüm linkleri siler. CONFIRMATION ve
// DISABLE linkleri ACCESS linkine ParentID ile bağlı olduğundan önce
// çocuklar, sonra form linkleri silinir.
func (r *LinkRepository) DeleteByFormID(ctx context.Context, formID uint) error {
	if formID == 0 {
		return errors.New("geçersiz Form ID")
	}
	db := r.getDB(ctx)

	childSub := db.Session(&gorm.Session{NewDB: true}).
		Model(&models.Link{}).Select("id").Where("form_id = ?", formID)
	if err := db.Where("parent_id IN (?)", childSub).Delete(&models.Link{}).Error; err != nil {
		configslog.Log.Error("LinkRepository.DeleteByFormID: çocuk linkler silinemedi",
			zap.Uint("form_id", formID), zap.Error(err))
		return err
	}
	if err := db.Where("form_id = ?", formID).Delete(&models.Link{}).Error; err != nil {
		configslog.Log.Error("LinkRepository.DeleteByFormID: form linkleri silinemedi",
			zap.Uint("form_id", formID), zap.Error(err))
		return err
	}
	return nil
}

// Arayüz uyumluluğu kontrolü
var _ ILinkRepository = (*LinkRepository)(nil)

// Transaction'lı Repository için yardımcı constructor
func NewLinkRepositoryTx(tx *gorm.DB) ILinkRepository {
	return &LinkRepository{db: tx}
}
