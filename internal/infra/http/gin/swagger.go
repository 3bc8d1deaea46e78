package ginserver

import (
	_ "embed"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"
)

const openAPIPath = "/swagger/doc.json"

var (
	//go:embed swagger/openapi.json
	openAPIDocument []byte

	//go:embed swagger/index.html
	swaggerPage string
)

// registerSwaggerRoutes serves the OpenAPI document of /api/v1 and a
// Swagger UI page pointing at it.
func registerSwaggerRoutes(router gin.IRoutes) {
	page := []byte(strings.ReplaceAll(swaggerPage, "{{DOC_URL}}", openAPIPath))

	router.GET(openAPIPath, func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", openAPIDocument)
	})
	router.GET("/swagger", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
	})
}
