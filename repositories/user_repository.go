package repositories

import (
	"context"
	"errors"

	"reachable.link/configs/configslog"
	"reachable.link/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// IUserRepository kullanıcı veritabanı işlemleri için arayüz.
type IUserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateFields(ctx context.Context, id uint, data map[string]interface{}) error
}

// UserRepository IUserRepository arayüzünü uygular.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository yeni bir UserRepository örneği oluşturur.
func NewUserRepository(db *gorm.DB) IUserRepository {
	return &UserRepository{db: db}
}

// Context ile çalışan DB örneği döndüren yardımcı fonksiyon
func (r *UserRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value("tx").(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

// Create yeni bir kullanıcı kaydı oluşturur.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user == nil || user.Email == "" {
		return errors.New("e-postası olmayan kullanıcı oluşturulamaz")
	}
	return r.getDB(ctx).Create(user).Error
}

// FindByID ID ile bir kullanıcıyı bulur.
func (r *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	if id == 0 {
		return nil, errors.New("geçersiz User ID")
	}
	var user models.User
	err := r.getDB(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		configslog.Log.Error("UserRepository.FindByID: DB error", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return &user, nil
}

// FindByEmail e-posta adresi ile bir kullanıcıyı bulur.
// E-posta karşılaştırması case-sensitive'dir; normalizasyon yapılmaz.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if email == "" {
		return nil, errors.New("aranacak e-posta boş olamaz")
	}
	var user models.User
	err := r.getDB(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		configslog.Log.Error("UserRepository.FindByEmail: DB error", zap.Error(err))
		return nil, err
	}
	return &user, nil
}

// UpdateFields belirli bir kullanıcının verilen alanlarını günceller.
func (r *UserRepository) UpdateFields(ctx context.Context, id uint, data map[string]interface{}) error {
	if id == 0 {
		return errors.New("güncellenecek kullanıcı ID'si geçersiz")
	}
	if len(data) == 0 {
		return errors.New("güncellenecek veri boş olamaz")
	}
	result := r.getDB(ctx).Model(&models.User{}).Where("id = ?", id).Updates(data)
	if result.Error != nil {
		configslog.Log.Error("UserRepository.UpdateFields: DB error", zap.Uint("id", id), zap.Error(result.Error))
		return result.Error
	}
	if result.RowsAffected == 0 {
		var exists int64
		countErr := r.getDB(ctx).Model(&models.User{}).Where("id = ?", id).Count(&exists).Error
		if countErr == nil && exists == 0 {
			return ErrNotFound
		}
	}
	return nil
}

// Arayüz uyumluluğu kontrolü
var _ IUserRepository = (*UserRepository)(nil)

// Transaction'lı Repository için yardımcı constructor
func NewUserRepositoryTx(tx *gorm.DB) IUserRepository {
	return &UserRepository{db: tx}
}
