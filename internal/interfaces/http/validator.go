package http

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-core/internal/application/dto"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// parseBody decodifica el JSON y aplica las etiquetas validate.
// Si falla ya escribió la respuesta 400 y devuelve ok=false.
func parseBody(c *fiber.Ctx, out any) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	return validateStruct(c, out)
}

func validateStruct(c *fiber.Ctx, v any) (bool, error) {
	if err := validate.Struct(v); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: validationMessage(err)})
	}
	return true, nil
}

func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return "datos de entrada inválidos"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s: %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return "campos inválidos: " + strings.Join(parts, ", ")
}

// parsePage lee limit/offset del query string.
func parsePage(c *fiber.Ctx) (dto.PageRequest, bool, error) {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return page, false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	if ok, err := validateStruct(c, &page); !ok {
		return page, false, err
	}
	page.DefaultPage()
	return page, true, nil
}
