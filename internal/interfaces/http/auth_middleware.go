package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-core/internal/application/dto"
	"github.com/jhoicas/retail-core/internal/domain/tenant"
	"github.com/jhoicas/retail-core/pkg/jwt"
)

// Locals keys para UserID y OrgID en Fiber.
const (
	LocalUserID = "user_id"
	LocalOrgID  = "org_id"
)

// AuthMiddleware valida el Bearer Token JWT y deja UserID y OrgID en c.Locals
// y el tenant en el UserContext.
func AuthMiddleware(jwtSecret, issuer string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		userID, orgID, err := jwt.Parse(jwtSecret, issuer, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		org, err := tenant.Parse(orgID)
		if err != nil {
			return writeError(c, err)
		}
		c.Locals(LocalUserID, userID)
		c.Locals(LocalOrgID, org.String())
		c.SetUserContext(tenant.WithID(c.UserContext(), org))
		return c.Next()
	}
}

// UserID devuelve el usuario autenticado (vacío si no hay).
func UserID(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalUserID).(string)
	return s
}

// OrgID resuelve la organización de la petición; ErrMissingTenantContext si no hay.
func OrgID(c *fiber.Ctx) (tenant.ID, error) {
	s, _ := c.Locals(LocalOrgID).(string)
	return tenant.Parse(s)
}
