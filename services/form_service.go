package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"time"

	"reachable.link/configs"
	"reachable.link/configs/configslog"
	"reachable.link/models"
	"reachable.link/repositories"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FormServiceError özel servis hataları
type FormServiceError string

func (e FormServiceError) Error() string { return string(e) }

const (
	ErrFormNotFound        FormServiceError = "form bulunamadı"
	ErrFormInvalidInput    FormServiceError = "geçersiz girdi verisi"
	ErrFormCreationFailed  FormServiceError = "form oluşturulamadı"
	ErrFormDeletionFailed  FormServiceError = "form silinemedi"
	ErrFormDisabled        FormServiceError = "form devre dışı bırakılmış"
	ErrFormNotConfirmed    FormServiceError = "form henüz onaylanmamış"
	ErrInputNameTaken      FormServiceError = "bu isimde bir input zaten var"
	ErrInputCreationFailed FormServiceError = "input oluşturulamadı"
)

// InputView bir input'un sanitize edilmiş, render'a hazır görünümü.
type InputView struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Hint     string `json:"hint"`
	Required bool   `json:"required"`
	Type     string `json:"type"`
}

// FormView bir erişim linki çözüldüğünde dönen görünüm. Kullanıcıdan
// gelen her string, render bağlamına güvenle gömülebilsin diye
// HTML-escape edilmiştir.
type FormView struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Disabled    bool        `json:"disabled"`
	Confirmed   bool        `json:"confirmed"`
	Inputs      []InputView `json:"inputs"`
}

// IFormService form yaşam döngüsü işlemleri için arayüz.
type IFormService interface {
	CreateFormBundle(ctx context.Context, email, name, description string) (*models.Form, *models.Link, error)
	ResolveAccessLink(ctx context.Context, key string) (*FormView, error)
	ResolveConfirmationLink(ctx context.Context, key string) (string, error)
	ResolveDisableLink(ctx context.Context, key string) (string, error)
	SubmitResponse(ctx context.Context, accessKey string, answers map[string]string) error
	AddInput(ctx context.Context, formID uint, input models.Input) (*models.Input, error)
	DeleteForm(ctx context.Context, formID uint) error
}

// FormService IFormService arayüzünü uygular.
type FormService struct {
	db          *gorm.DB
	cfg         *configs.Config
	repo        repositories.IFormRepository
	inputRepo   repositories.IInputRepository
	linkRepo    repositories.ILinkRepository
	userService IUserService
	linkService ILinkService
	mailer      IMailerService
	now         func() time.Time

	// async kapalıyken bildirimler senkron gönderilir; testler sıralamaya
	// güvenebilsin diye.
	async bool
}

// NewFormService yeni bir FormService örneği oluşturur (DI ile).
func NewFormService(db *gorm.DB, cfg *configs.Config, mailer IMailerService) IFormService {
	return &FormService{
		db:          db,
		cfg:         cfg,
		repo:        repositories.NewFormRepository(db),
		inputRepo:   repositories.NewInputRepository(db),
		linkRepo:    repositories.NewLinkRepository(db),
		userService: NewUserService(db),
		linkService: NewLinkService(db),
		mailer:      mailer,
		now:         time.Now,
		async:       true,
	}
}

// --- Yardımcı Fonksiyonlar ---

// contextWithTx transaction'ı context'e koyar; repository'lerin getDB'si
// bunu görüp tx üzerinden çalışır.
func contextWithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, "tx", tx) //nolint:staticcheck // repo sözleşmesi string key bekler
}

// validateFormFields isim ve açıklama sınırlarını kontrol eder.
func validateFormFields(name, description string) error {
	if name == "" {
		return fmt.Errorf("%w: form adı zorunludur", ErrFormInvalidInput)
	}
	if len(name) > models.FormNameMaxLength {
		return fmt.Errorf("%w: form adı en fazla %d karakter olabilir", ErrFormInvalidInput, models.FormNameMaxLength)
	}
	if len(description) > models.FormDescriptionMaxLength {
		return fmt.Errorf("%w: açıklama en fazla %d karakter olabilir", ErrFormInvalidInput, models.FormDescriptionMaxLength)
	}
	return nil
}

// nameSuffixPattern "İsim(3)" şeklindeki çakışma son eklerini yakalar.
var nameSuffixPattern = regexp.MustCompile(`^(.*)\((\d+)\)$`)

// bumpNameSuffix isim "(k)" ile bitiyorsa k'yı artırır, bitmiyorsa "(1)" ekler.
func bumpNameSuffix(name string) string {
	if match := nameSuffixPattern.FindStringSubmatch(name); match != nil {
		k, err := strconv.Atoi(match[2])
		if err == nil {
			return fmt.Sprintf("%s(%d)", match[1], k+1)
		}
	}
	return name + "(1)"
}

// resolveNameCollision istenen isim kullanıcıda doluysa boş bir varyant
// bulana kadar son eki artırır.
func (s *FormService) resolveNameCollision(ctx context.Context, repo repositories.IFormRepository, userID uint, name string) (string, error) {
	for {
		taken, err := repo.NameExists(ctx, userID, name)
		if err != nil {
			return "", err
		}
		if !taken {
			return name, nil
		}
		bumped := bumpNameSuffix(name)
		if len(bumped) > models.FormNameMaxLength {
			return "", fmt.Errorf("%w: form adı çakışma çözümü sınırı aşıyor", ErrFormInvalidInput)
		}
		name = bumped
	}
}

// dispatch bildirimi arka planda gönderir. Mail teslimi çekirdek işlemin
// başarısını ASLA geri almaz; hata sadece loglanır.
func (s *FormService) dispatch(what string, send func() error) {
	deliver := func() {
		if err := send(); err != nil {
			configslog.Log.Warn("Bildirim gönderilemedi", zap.String("mail", what), zap.Error(err))
		}
	}
	if s.async {
		go deliver()
		return
	}
	deliver()
}

// --- Servis Metodları ---

// CreateFormBundle yeni bir formu tüm parçalarıyla birlikte oluşturur:
// kullanıcı (yoksa), form, varsayılan "message" input'u, bir ACCESS + bir
// CONFIRMATION + bir DISABLE linki. Hepsi tek transaction'dadır; linki
// olmayan yarım bir form asla commit edilmez.
func (s *FormService) CreateFormBundle(ctx context.Context, email, name, description string) (*models.Form, *models.Link, error) {
	if name == "" {
		name = "Form"
	}
	if err := validateFormFields(name, description); err != nil {
		return nil, nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrFormInvalidInput, err)
	}

	var (
		createdForm *models.Form
		accessLink  *models.Link
		owner       *models.User
		confirmURL  string
		disableURL  string
	)

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		txCtx := contextWithTx(ctx, tx)
		formRepoTx := repositories.NewFormRepositoryTx(tx)
		inputRepoTx := repositories.NewInputRepositoryTx(tx)

		// a. Kullanıcıyı bul veya oluştur
		user, err := s.userService.GetOrCreateUser(txCtx, email)
		if err != nil {
			return err
		}

		// b. İsim çakışmasını çöz
		finalName, err := s.resolveNameCollision(txCtx, formRepoTx, user.ID, name)
		if err != nil {
			return err
		}

		// c. Formu Pending durumunda oluştur
		form := models.Form{
			UserID:      user.ID,
			Name:        finalName,
			Description: description,
		}
		if err := formRepoTx.Create(txCtx, &form); err != nil {
			configslog.Log.Error("Form oluşturulurken repository hatası", zap.Error(err))
			return ErrFormCreationFailed
		}

		// d. Varsayılan zorunlu "message" input'u
		input := models.Input{
			FormID:   form.ID,
			Name:     "message",
			Label:    "Add a message to send to the form's owner.",
			Required: true,
			Type:     "textarea",
		}
		if err := inputRepoTx.Create(txCtx, &input); err != nil {
			configslog.Log.Error("Varsayılan input oluşturulamadı", zap.Uint("form_id", form.ID), zap.Error(err))
			return ErrFormCreationFailed
		}

		// e. Link üçlüsü: erişim + onay + devre dışı bırakma
		access, err := s.linkService.CreateAccessLink(txCtx, form.ID)
		if err != nil {
			return err
		}
		confirmation, err := s.linkService.CreateConfirmationLink(txCtx, access)
		if err != nil {
			return err
		}
		disable, err := s.linkService.CreateDisableLink(txCtx, access)
		if err != nil {
			return err
		}

		form.Inputs = []models.Input{input}
		createdForm = &form
		accessLink = access
		owner = user
		confirmURL = confirmation.URL(s.cfg)
		disableURL = disable.URL(s.cfg)
		return nil // Commit
	})
	if txErr != nil {
		return nil, nil, txErr
	}

	configslog.SLog.Infof("Form bundle oluşturuldu: form ID %d, isim %q", createdForm.ID, createdForm.Name)

	// Onay e-postası: teslim hatası oluşturmayı geri aldırmaz.
	formForMail := *createdForm
	s.dispatch("form_confirmation", func() error {
		return s.mailer.SendFormConfirmation(owner, &formForMail, confirmURL, disableURL)
	})

	return createdForm, accessLink, nil
}

// ResolveAccessLink bir erişim anahtarını sanitize edilmiş form görünümüne
// çözer. Süresi dolmuş linkler yan etkisiz şekilde reddedilir.
func (s *FormService) ResolveAccessLink(ctx context.Context, key string) (*FormView, error) {
	link, err := s.linkService.GetLinkByKeyAndKind(ctx, key, models.LinkKindAccess)
	if err != nil {
		return nil, err
	}
	if link.IsExpired(s.now().UTC()) {
		return nil, ErrLinkExpired
	}

	form, err := s.repo.FindByID(ctx, *link.FormID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}

	if form.Disabled {
		return nil, ErrFormDisabled
	}
	if !form.IsConfirmed() {
		// Link gerçek ama form henüz paylaşılabilir değil.
		return nil, ErrFormNotConfirmed
	}

	view := &FormView{
		Name:        html.EscapeString(form.Name),
		Description: html.EscapeString(form.Description),
		Disabled:    form.Disabled,
		Confirmed:   true,
		Inputs:      make([]InputView, 0, len(form.Inputs)),
	}
	for _, input := range form.Inputs {
		view.Inputs = append(view.Inputs, InputView{
			Name:     html.EscapeString(input.Name),
			Label:    html.EscapeString(input.Label),
			Hint:     html.EscapeString(input.Hint),
			Required: input.Required,
			Type:     html.EscapeString(input.Type),
		})
	}
	return view, nil
}

// ResolveConfirmationLink onay anahtarını işler: süresi geçmemişse formu
// Confirmed'a, sahibini Verified'a idempotent şekilde geçirir ve erişim
// linkinin paylaşım URL'ini döndürür. Aynı linke tekrar tıklamak zararsızdır;
// mail istemcilerinin link prefetch'i bunu gerçekçi biçimde tetikler.
func (s *FormService) ResolveConfirmationLink(ctx context.Context, key string) (string, error) {
	link, err := s.linkService.GetLinkByKeyAndKind(ctx, key, models.LinkKindConfirmation)
	if err != nil {
		return "", err
	}
	if link.IsExpired(s.now().UTC()) {
		return "", ErrLinkExpired
	}

	accessLink, err := s.parentAccessLink(ctx, link)
	if err != nil {
		return "", err
	}

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		txCtx := contextWithTx(ctx, tx)
		formRepoTx := repositories.NewFormRepositoryTx(tx)

		form, err := formRepoTx.FindByID(txCtx, *accessLink.FormID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrFormNotFound
			}
			return err
		}

		now := s.now().UTC()
		if !form.IsConfirmed() {
			if err := formRepoTx.UpdateFields(txCtx, form.ID, map[string]interface{}{"confirmed": now}); err != nil {
				return err
			}
			configslog.SLog.Infof("Form onaylandı: ID %d", form.ID)
		}

		// Sahibin ilk onaylanan formu kullanıcıyı da doğrular; sonrakiler no-op.
		return s.userService.VerifyUser(txCtx, form.UserID, now)
	})
	if txErr != nil {
		return "", txErr
	}

	// Geçiş olsun olmasın her zaman paylaşım sayfasına yönlendirilir.
	return accessLink.ShareURL(s.cfg), nil
}

// ResolveDisableLink formu koşulsuz devre dışı bırakır ve erişim URL'ini
// döndürür. Expiry kontrolü BİLEREK yoktur: disable bir emniyet supabıdır,
// nominal süre dolsa da çalışmalıdır. İşlem idempotenttir.
func (s *FormService) ResolveDisableLink(ctx context.Context, key string) (string, error) {
	link, err := s.linkService.GetLinkByKeyAndKind(ctx, key, models.LinkKindDisable)
	if err != nil {
		return "", err
	}

	accessLink, err := s.parentAccessLink(ctx, link)
	if err != nil {
		return "", err
	}

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		txCtx := contextWithTx(ctx, tx)
		formRepoTx := repositories.NewFormRepositoryTx(tx)

		form, err := formRepoTx.FindByID(txCtx, *accessLink.FormID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrFormNotFound
			}
			return err
		}
		if form.Disabled {
			return nil // Zaten kapalı; tekrar tıklama zararsız.
		}
		if err := formRepoTx.UpdateFields(txCtx, form.ID, map[string]interface{}{"disabled": true}); err != nil {
			return err
		}
		configslog.SLog.Infof("Form devre dışı bırakıldı: ID %d", form.ID)
		return nil
	})
	if txErr != nil {
		return "", txErr
	}

	return accessLink.URL(s.cfg), nil
}

// SubmitResponse bir erişim anahtarı üzerinden gelen yanıtı işler ve form
// sahibine e-posta ile iletir. Onaylanmamış ya da devre dışı formlar yanıt
// kabul etmez.
func (s *FormService) SubmitResponse(ctx context.Context, accessKey string, answers map[string]string) error {
	link, err := s.linkService.GetLinkByKeyAndKind(ctx, accessKey, models.LinkKindAccess)
	if err != nil {
		return err
	}
	if link.IsExpired(s.now().UTC()) {
		return ErrLinkExpired
	}

	form, err := s.repo.FindByID(ctx, *link.FormID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrFormNotFound
		}
		return err
	}
	if form.Disabled {
		return ErrFormDisabled
	}
	if !form.IsConfirmed() {
		return ErrFormNotConfirmed
	}

	// Cevaplar form tanımına göre doğrulanır: bilinmeyen alan reddedilir,
	// zorunlu alan boş bırakılamaz.
	known := make(map[string]models.Input, len(form.Inputs))
	for _, input := range form.Inputs {
		known[input.Name] = input
	}
	for name := range answers {
		if _, ok := known[name]; !ok {
			return fmt.Errorf("%w: bilinmeyen alan %q", ErrFormInvalidInput, name)
		}
	}
	labeled := make([]LabeledAnswer, 0, len(form.Inputs))
	for _, input := range form.Inputs {
		text, ok := answers[input.Name]
		if input.Required && (!ok || text == "") {
			return fmt.Errorf("%w: zorunlu alan %q boş", ErrFormInvalidInput, input.Name)
		}
		if !ok {
			continue
		}
		labeled = append(labeled, LabeledAnswer{Label: input.DisplayLabel(), Text: text})
	}

	// Her yanıt e-postasına taze bir disable linki iliştirilir.
	disable, err := s.linkService.CreateDisableLink(ctx, link)
	if err != nil {
		return err
	}

	owner := form.User
	formForMail := *form
	disableURL := disable.URL(s.cfg)
	s.dispatch("form_response", func() error {
		return s.mailer.SendFormResponse(&owner, &formForMail, labeled, disableURL)
	})

	configslog.SLog.Infof("Form yanıtı alındı: form ID %d, %d alan", form.ID, len(labeled))
	return nil
}

// AddInput mevcut bir forma yeni bir alan ekler.
func (s *FormService) AddInput(ctx context.Context, formID uint, input models.Input) (*models.Input, error) {
	if formID == 0 || input.Name == "" {
		return nil, fmt.Errorf("%w: form ID ve input adı zorunludur", ErrFormInvalidInput)
	}
	if len(input.Name) > models.InputNameMaxLength ||
		len(input.Label) > models.InputLabelMaxLength ||
		len(input.Hint) > models.InputHintMaxLength {
		return nil, fmt.Errorf("%w: input alanları uzunluk sınırını aşıyor", ErrFormInvalidInput)
	}

	if _, err := s.repo.FindByID(ctx, formID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}

	taken, err := s.inputRepo.NameExists(ctx, formID, input.Name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrInputNameTaken
	}

	input.FormID = formID
	if input.Type == "" {
		input.Type = "text"
	}
	if err := s.inputRepo.Create(ctx, &input); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrInputNameTaken
		}
		configslog.Log.Error("Input oluşturulurken repository hatası",
			zap.Uint("form_id", formID), zap.Error(err))
		return nil, ErrInputCreationFailed
	}
	return &input, nil
}

// DeleteForm bir formu input'ları ve linkleriyle birlikte siler.
func (s *FormService) DeleteForm(ctx context.Context, formID uint) error {
	if formID == 0 {
		return fmt.Errorf("%w: geçersiz form ID", ErrFormInvalidInput)
	}

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		txCtx := contextWithTx(ctx, tx)
		formRepoTx := repositories.NewFormRepositoryTx(tx)
		inputRepoTx := repositories.NewInputRepositoryTx(tx)
		linkRepoTx := repositories.NewLinkRepositoryTx(tx)

		form, err := formRepoTx.FindByID(txCtx, formID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrFormNotFound
			}
			return err
		}

		if err := linkRepoTx.DeleteByFormID(txCtx, form.ID); err != nil {
			return ErrFormDeletionFailed
		}
		if err := inputRepoTx.DeleteByFormID(txCtx, form.ID); err != nil {
			return ErrFormDeletionFailed
		}
		if err := formRepoTx.Delete(txCtx, form); err != nil {
			return ErrFormDeletionFailed
		}
		return nil // Commit
	})
	if txErr != nil {
		configslog.Log.Error("DeleteForm transaction failed", zap.Uint("id", formID), zap.Error(txErr))
		return txErr
	}

	configslog.SLog.Infof("Form ve ilişkili kayıtları silindi: ID %d", formID)
	return nil
}

// parentAccessLink bir CONFIRMATION/DISABLE linkinin bağlı olduğu erişim
// linkini yükler. Veri tutarsızlığı (parent'sız çocuk link) NotFound sayılır.
func (s *FormService) parentAccessLink(ctx context.Context, link *models.Link) (*models.Link, error) {
	if link.ParentID == nil {
		configslog.Log.Error("Çocuk linkin parent referansı yok", zap.Uint("link_id", link.ID))
		return nil, ErrLinkNotFound
	}
	parent, err := s.linkRepo.FindByID(ctx, *link.ParentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	if parent.FormID == nil {
		configslog.Log.Error("Erişim linkinin form referansı yok", zap.Uint("link_id", parent.ID))
		return nil, ErrLinkNotFound
	}
	return parent, nil
}

// Arayüz uyumluluğu kontrolü
var _ IFormService = (*FormService)(nil)
