package http

import (
	"os"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
)

// DocsPath ruta de la UI de Swagger: http://localhost:<port>/docs
const DocsPath = "docs"

// MountDocs monta la UI de Swagger sobre el swagger.json generado con swag.
// swagger.New aborta el proceso si el archivo no existe, por eso se verifica antes; devuelve false si no se montó.
func MountDocs(app *fiber.App, filePath, title string) bool {
	if filePath == "" {
		return false
	}
	if _, err := os.Stat(filePath); err != nil {
		return false
	}
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: filePath,
		Path:     DocsPath,
		Title:    title,
	}))
	return true
}
