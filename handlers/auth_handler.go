package handlers

import (
	"errors"

	"reachable.link/configs/configslog"
	"reachable.link/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthHandler şifresiz oturum açma isteklerini yönetir.
type AuthHandler struct {
	authService services.IAuthService
}

// NewAuthHandler yeni bir AuthHandler örneği oluşturur.
func NewAuthHandler(authService services.IAuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type loginRequest struct {
	Email string `json:"email"`
}

// RequestLogin (POST /auth/login) e-postaya login linki yollar.
// Adresin kayıtlı olup olmadığı yanıttan anlaşılamaz.
func (h *AuthHandler) RequestLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": []string{"geçersiz istek gövdesi"}})
	}

	if err := h.authService.RequestLoginLink(c.UserContext(), req.Email); err != nil {
		if errors.Is(err, services.ErrUserInvalidEmail) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": []string{err.Error()}})
		}
		configslog.Log.Error("RequestLogin: beklenmeyen hata", zap.Error(err))
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return c.JSON(true)
}

// ResolveLogin (GET /auth/login/:key) login anahtarını kullanıcıya çözer.
// Süresi dolmuş anahtar 410 döner; oturum kurulumu istemcinin işidir.
func (h *AuthHandler) ResolveLogin(c *fiber.Ctx) error {
	key := c.Params("key")

	user, err := h.authService.ResolveLoginLink(c.UserContext(), key)
	switch {
	case err == nil:
		return c.JSON(fiber.Map{"email": user.Email})
	case errors.Is(err, services.ErrLinkExpired):
		return c.SendStatus(fiber.StatusGone)
	case errors.Is(err, services.ErrLinkNotFound), errors.Is(err, services.ErrUserNotFound):
		return c.SendStatus(fiber.StatusNotFound)
	default:
		configslog.Log.Error("ResolveLogin: beklenmeyen hata", zap.Error(err))
		return c.SendStatus(fiber.StatusInternalServerError)
	}
}
