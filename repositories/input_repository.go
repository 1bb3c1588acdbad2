package repositories

import (
	"context"
	"errors"

	"reachable.link/configs/configslog"
	"reachable.link/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// IInputRepository input veritabanı işlemleri için arayüz.
// Input adı form içinde benzersizdir; ön kontrol + composite unique index.
type IInputRepository interface {
	Create(ctx context.Context, input *models.Input) error
	FindByID(ctx context.Context, id uint) (*models.Input, error)
	FindAllByFormID(ctx context.Context, formID uint) ([]models.Input, error)
	NameExists(ctx context.Context, formID uint, name string) (bool, error)
	Delete(ctx context.Context, input *models.Input) error
	DeleteByFormID(ctx context.Context, formID uint) error
}

// InputRepository IInputRepository arayüzünü uygular.
type InputRepository struct {
	db *gorm.DB
}

// NewInputRepository yeni bir InputRepository örneği oluşturur.
func NewInputRepository(db *gorm.DB) IInputRepository {
	return &InputRepository{db: db}
}

// Context ile çalışan DB örneği döndüren yardımcı fonksiyon
func (r *InputRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value("tx").(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

// Create yeni bir input kaydı oluşturur.
func (r *InputRepository) Create(ctx context.Context, input *models.Input) error {
	if input == nil || input.FormID == 0 || input.Name == "" {
		return errors.New("geçersiz input kaydı oluşturulamaz")
	}
	return r.getDB(ctx).Create(input).Error
}

// FindByID ID ile bir input kaydını bulur.
func (r *InputRepository) FindByID(ctx context.Context, id uint) (*models.Input, error) {
	if id == 0 {
		return nil, errors.New("geçersiz Input ID")
	}
	var input models.Input
	err := r.getDB(ctx).First(&input, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		configslog.Log.Error("InputRepository.FindByID: DB error", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return &input, nil
}

// FindAllByFormID bir formun tüm input'larını oluşturulma sırasıyla döndürür.
func (r *InputRepository) FindAllByFormID(ctx context.Context, formID uint) ([]models.Input, error) {
	if formID == 0 {
		return nil, errors.New("geçersiz Form ID")
	}
	var inputs []models.Input
	err := r.getDB(ctx).Where("form_id = ?", formID).Order("id ASC").Find(&inputs).Error
	if err != nil {
		configslog.Log.Error("InputRepository.FindAllByFormID: DB error", zap.Uint("form_id", formID), zap.Error(err))
		return nil, err
	}
	return inputs, nil
}

// NameExists verilen ismin form içinde kullanımda olup olmadığını kontrol eder.
func (r *InputRepository) NameExists(ctx context.Context, formID uint, name string) (bool, error) {
	if formID == 0 || name == "" {
		return false, errors.New("geçersiz form ID veya input adı")
	}
	var count int64
	err := r.getDB(ctx).Model(&models.Input{}).
		Where("form_id = ? AND name = ?", formID, name).Count(&count).Error
	if err != nil {
		configslog.Log.Error("InputRepository.NameExists: DB error",
			zap.Uint("form_id", formID), zap.String("name", name), zap.Error(err))
		return false, err
	}
	return count > 0, nil
}

// Delete bir input kaydını siler (soft delete).
func (r *InputRepository) Delete(ctx context.Context, input *models.Input) error {
	if input == nil || input.ID == 0 {
		return errors.New("silinecek input geçerli değil")
	}
	result := r.getDB(ctx).Delete(input)
	if result.Error != nil {
		configslog.Log.Error("InputRepository.Delete: DB error", zap.Uint("id", input.ID), zap.Error(result.Error))
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByFormID bir forma ait tüm input'ları siler.
func (r *InputRepository) DeleteByFormID(ctx context.Context, formID uint) error {
	if formID == 0 {
		return errors.New("geçersiz Form ID")
	}
	err := r.getDB(ctx).Where("form_id = ?", formID).Delete(&models.Input{}).Error
	if err != nil {
		configslog.Log.Error("InputRepository.DeleteByFormID: DB error", zap.Uint("form_id", formID), zap.Error(err))
	}
	return err
}

// Arayüz uyumluluğu kontrolü
var _ IInputRepository = (*InputRepository)(nil)

// Transaction'lı Repository için yardımcı constructor
func NewInputRepositoryTx(tx *gorm.DB) IInputRepository {
	return &InputRepository{db: tx}
}
