package handlers

import (
	"errors"

	"reachable.link/configs/configslog"
	"reachable.link/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// FormHandler form oluşturma ve yanıt gönderme isteklerini yönetir.
type FormHandler struct {
	formService services.IFormService
}

// NewFormHandler yeni bir FormHandler örneği oluşturur.
func NewFormHandler(formService services.IFormService) *FormHandler {
	return &FormHandler{formService: formService}
}

// createFormRequest POST /forms gövdesi.
type createFormRequest struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// submitResponseRequest POST /forms/response gövdesi.
type submitResponseRequest struct {
	Link   string            `json:"link"`
	Inputs map[string]string `json:"inputs"`
}

// CreateForm (POST /forms) yeni bir form bundle'ı oluşturur ve erişim
// anahtarını döndürür. Onay e-postasının akıbeti yanıtı etkilemez.
func (h *FormHandler) CreateForm(c *fiber.Ctx) error {
	var req createFormRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": []string{"geçersiz istek gövdesi"}})
	}

	_, accessLink, err := h.formService.CreateFormBundle(c.UserContext(), req.Email, req.Name, req.Description)
	if err != nil {
		if errors.Is(err, services.ErrFormInvalidInput) || errors.Is(err, services.ErrUserInvalidEmail) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": []string{err.Error()}})
		}
		configslog.Log.Error("CreateForm: beklenmeyen hata", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"errors": []string{"form oluşturulamadı"}})
	}

	return c.JSON(fiber.Map{"key": accessLink.Key})
}

// SubmitResponse (POST /forms/response) bir erişim anahtarı üzerinden
// gelen yanıtı işler. Onaylanmamış, devre dışı ya da süresi dolmuş formlar
// için gövde `false` döner; anahtar hiç yoksa 404.
func (h *FormHandler) SubmitResponse(c *fiber.Ctx) error {
	var req submitResponseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": []string{"geçersiz istek gövdesi"}})
	}

	err := h.formService.SubmitResponse(c.UserContext(), req.Link, req.Inputs)
	switch {
	case err == nil:
		return c.JSON(true)
	case errors.Is(err, services.ErrLinkNotFound):
		return c.SendStatus(fiber.StatusNotFound)
	case errors.Is(err, services.ErrFormNotFound):
		return c.SendStatus(fiber.StatusNotFound)
	case errors.Is(err, services.ErrFormDisabled),
		errors.Is(err, services.ErrFormNotConfirmed),
		errors.Is(err, services.ErrLinkExpired):
		return c.JSON(false)
	case errors.Is(err, services.ErrFormInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": []string{err.Error()}})
	default:
		configslog.Log.Error("SubmitResponse: beklenmeyen hata", zap.Error(err))
		return c.SendStatus(fiber.StatusInternalServerError)
	}
}
