package handlers

import (
	"errors"

	"reachable.link/configs"
	"reachable.link/configs/configslog"
	"reachable.link/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// LinkHandler public capability link isteklerini yönetir: form görüntüleme,
// onay ve devre dışı bırakma. Token'ın kendisi yetkidir; başka kimlik
// doğrulaması yapılmaz.
type LinkHandler struct {
	formService services.IFormService
	cfg         *configs.Config
}

// NewLinkHandler yeni bir LinkHandler örneği oluşturur.
func NewLinkHandler(formService services.IFormService, cfg *configs.Config) *LinkHandler {
	return &LinkHandler{formService: formService, cfg: cfg}
}

// expiredPageURL istemci tarafındaki "linkin süresi doldu" sayfası.
func (h *LinkHandler) expiredPageURL() string {
	return h.cfg.ClientBaseURL + "/error/expired"
}

// ResolveLink (GET /forms/link/:key) erişim anahtarını sanitize edilmiş
// form görünümüne çözer. Süresi dolmuşsa istemcinin hata sayfasına
// yönlendirir; form henüz onaylanmamış ya da kapatılmışsa gövde `false` olur.
func (h *LinkHandler) ResolveLink(c *fiber.Ctx) error {
	key := c.Params("key")

	view, err := h.formService.ResolveAccessLink(c.UserContext(), key)
	switch {
	case err == nil:
		return c.JSON(view)
	case errors.Is(err, services.ErrLinkExpired):
		return c.Redirect(h.expiredPageURL(), fiber.StatusFound)
	case errors.Is(err, services.ErrLinkNotFound), errors.Is(err, services.ErrFormNotFound):
		return h.renderNotFound(c, "Link Bulunamadı")
	case errors.Is(err, services.ErrFormNotConfirmed), errors.Is(err, services.ErrFormDisabled):
		return c.JSON(false)
	default:
		configslog.Log.Error("ResolveLink: beklenmeyen hata", zap.Error(err))
		return c.SendStatus(fiber.StatusInternalServerError)
	}
}

// ConfirmLink (GET /forms/confirm/:key) formu onaylar ve paylaşım
// sayfasına yönlendirir. Tekrar tıklamalar aynı yönlendirmeyi alır.
func (h *LinkHandler) ConfirmLink(c *fiber.Ctx) error {
	key := c.Params("key")

	shareURL, err := h.formService.ResolveConfirmationLink(c.UserContext(), key)
	switch {
	case err == nil:
		return c.Redirect(shareURL, fiber.StatusFound)
	case errors.Is(err, services.ErrLinkExpired):
		return c.Redirect(h.expiredPageURL(), fiber.StatusFound)
	case errors.Is(err, services.ErrLinkNotFound), errors.Is(err, services.ErrFormNotFound):
		return h.renderNotFound(c, "Link Bulunamadı")
	default:
		configslog.Log.Error("ConfirmLink: beklenmeyen hata", zap.Error(err))
		return c.SendStatus(fiber.StatusInternalServerError)
	}
}

// DisableLink (GET /forms/disable/:key) formu koşulsuz kapatır ve erişim
// URL'ine yönlendirir. Expiry kontrolü yoktur; bkz. servis katmanı.
func (h *LinkHandler) DisableLink(c *fiber.Ctx) error {
	key := c.Params("key")

	accessURL, err := h.formService.ResolveDisableLink(c.UserContext(), key)
	switch {
	case err == nil:
		return c.Redirect(accessURL, fiber.StatusFound)
	case errors.Is(err, services.ErrLinkNotFound), errors.Is(err, services.ErrFormNotFound):
		return h.renderNotFound(c, "Link Bulunamadı")
	default:
		configslog.Log.Error("DisableLink: beklenmeyen hata", zap.Error(err))
		return c.SendStatus(fiber.StatusInternalServerError)
	}
}

// renderNotFound standart 404 sayfasını render eder; JSON isteyen
// istemciler JSON alır.
func (h *LinkHandler) renderNotFound(c *fiber.Ctx, message string) error {
	if c.Accepts("text/html", "application/json") == "application/json" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": message})
	}
	return c.Status(fiber.StatusNotFound).Render("errors/404", fiber.Map{
		"Title":   "Bulunamadı",
		"Message": message,
	}, "layouts/error_layout")
}
