package repositories

import (
	"context"
	"errors"

	"reachable.link/configs/configslog"
	"reachable.link/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// IFormRepository form veritabanı işlemleri için arayüz.
// Form adının kullanıcı başına benzersizliği hem burada (ön kontrol)
// hem de composite unique index ile korunur; isim çakışması çözme
// politikası commit'ten ÖNCE çalışabilsin diye ön kontrol şarttır.
type IFormRepository interface {
	Create(ctx context.Context, form *models.Form) error
	FindByID(ctx context.Context, id uint) (*models.Form, error)
	FindByUserAndName(ctx context.Context, userID uint, name string) (*models.Form, error)
	NameExists(ctx context.Context, userID uint, name string) (bool, error)
	UpdateFields(ctx context.Context, id uint, data map[string]interface{}) error
	Delete(ctx context.Context, form *models.Form) error
	CountByUserID(ctx context.Context, userID uint) (int64, error)
	CountConfirmedByUserID(ctx context.Context, userID uint) (int64, error)
}

// FormRepository IFormRepository arayüzünü uygular.
type FormRepository struct {
	db *gorm.DB
}

// NewFormRepository yeni bir FormRepository örneği oluşturur.
func NewFormRepository(db *gorm.DB) IFormRepository {
	return &FormRepository{db: db}
}

// Context ile çalışan DB örneği döndüren yardımcı fonksiyon
func (r *FormRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value("tx").(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

// Create yeni bir formu, varsa ilişkili Input ve Link kayıtlarıyla oluşturur.
func (r *FormRepository) Create(ctx context.Context, form *models.Form) error {
	if form == nil || form.UserID == 0 {
		return errors.New("geçersiz veya sahibi olmayan form oluşturulamaz")
	}
	return r.getDB(ctx).Create(form).Error
}

// FindByID belirli bir ID'ye sahip formu input'ları ve sahibiyle birlikte bulur.
func (r *FormRepository) FindByID(ctx context.Context, id uint) (*models.Form, error) {
	if id == 0 {
		return nil, errors.New("geçersiz Form ID")
	}
	var form models.Form
	err := r.getDB(ctx).Preload("Inputs").Preload("User").First(&form, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		configslog.Log.Error("FormRepository.FindByID: DB error", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return &form, nil
}

// FindByUserAndName kullanıcı + isim ikilisi ile formu bulur.
func (r *FormRepository) FindByUserAndName(ctx context.Context, userID uint, name string) (*models.Form, error) {
	if userID == 0 || name == "" {
		return nil, errors.New("geçersiz kullanıcı ID veya form adı")
	}
	var form models.Form
	err := r.getDB(ctx).Where("user_id = ? AND name = ?", userID, name).First(&form).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		configslog.Log.Error("FormRepository.FindByUserAndName: DB error",
			zap.Uint("user_id", userID), zap.String("name", name), zap.Error(err))
		return nil, err
	}
	return &form, nil
}

// NameExists verilen ismin kullanıcının formları arasında kullanımda olup
// olmadığını kontrol eder.
func (r *FormRepository) NameExists(ctx context.Context, userID uint, name string) (bool, error) {
	if userID == 0 || name == "" {
		return false, errors.New("geçersiz kullanıcı ID veya form adı")
	}
	var count int64
	err := r.getDB(ctx).Model(&models.Form{}).
		Where("user_id = ? AND name = ?", userID, name).Count(&count).Error
	if err != nil {
		configslog.Log.Error("FormRepository.NameExists: DB error",
			zap.Uint("user_id", userID), zap.String("name", name), zap.Error(err))
		return false, err
	}
	return count > 0, nil
}

// UpdateFields belirli bir formun verilen alanlarını günceller.
// Confirmed/Disabled geçişleri idempotent olmalıdır: RowsAffected == 0
// kayıt yoksa hatadır, değişiklik yoksa değildir.
func (r *FormRepository) UpdateFields(ctx context.Context, id uint, data map[string]interface{}) error {
	if id == 0 {
		return errors.New("güncellenecek form ID'si geçersiz")
	}
	if len(data) == 0 {
		return errors.New("güncellenecek veri boş olamaz")
	}
	db := r.getDB(ctx)

	result := db.Model(&models.Form{}).Where("id = ?", id).Updates(data)
	if result.Error != nil {
		configslog.Log.Error("FormRepository.UpdateFields: DB error", zap.Uint("id", id), zap.Error(result.Error))
		return result.Error
	}
	if result.RowsAffected == 0 {
		var exists int64
		countErr := db.Model(&models.Form{}).Where("id = ?", id).Count(&exists).Error
		if countErr == nil && exists == 0 {
			return ErrNotFound
		}
		configslog.SLog.Debugf("FormRepository.UpdateFields: satır etkilenmedi (muhtemelen veri aynı), form ID %d", id)
	}
	return nil
}

// Delete formu siler (soft delete). İlişkili Input ve Link kayıtlarının
// silinmesi servis katmanındaki transaction'ın sorumluluğundadır.
func (r *FormRepository) Delete(ctx context.Context, form *models.Form) error {
	if form == nil || form.ID == 0 {
		return errors.New("silinecek form geçerli değil")
	}
	result := r.getDB(ctx).Delete(form)
	if result.Error != nil {
		configslog.Log.Error("FormRepository.Delete: DB error", zap.Uint("id", form.ID), zap.Error(result.Error))
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByUserID kullanıcıya ait form sayısını döndürür.
func (r *FormRepository) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	if userID == 0 {
		return 0, errors.New("geçersiz kullanıcı ID")
	}
	var count int64
	err := r.getDB(ctx).Model(&models.Form{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// CountConfirmedByUserID kullanıcının onaylanmış form sayısını döndürür.
// Kullanıcının Verified geçişi "ilk onaylanan form" kuralına bağlıdır.
func (r *FormRepository) CountConfirmedByUserID(ctx context.Context, userID uint) (int64, error) {
	if userID == 0 {
		return 0, errors.New("geçersiz kullanıcı ID")
	}
	var count int64
	err := r.getDB(ctx).Model(&models.Form{}).
		Where("user_id = ? AND confirmed IS NOT NULL", userID).Count(&count).Error
	return count, err
}

// Arayüz uyumluluğu kontrolü
var _ IFormRepository = (*FormRepository)(nil)

// Transaction'lı Repository için yardımcı constructor
func NewFormRepositoryTx(tx *gorm.DB) IFormRepository {
	return &FormRepository{db: tx}
}
