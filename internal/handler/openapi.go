package handler

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/deppfellow/storefront-api/internal/server"
	"github.com/deppfellow/storefront-api/static"
	"github.com/labstack/echo/v4"
)

const docsPage = "openapi.html"

// OpenAPIHandler serves the docs page, which renders /static/openapi.json.
type OpenAPIHandler struct {
	Handler
	files fs.FS
}

func NewOpenAPIHandler(s *server.Server) *OpenAPIHandler {
	return &OpenAPIHandler{
		Handler: NewHandler(s),
		files:   static.Files,
	}
}

// ServeOpenAPIUI tags the page with a content hash so browsers revalidate
// and get 304 while it is unchanged.
func (h *OpenAPIHandler) ServeOpenAPIUI(c echo.Context) error {
	page, err := fs.ReadFile(h.files, docsPage)
	if err != nil {
		return fmt.Errorf("reading docs page: %w", err)
	}

	sum := sha256.Sum256(page)
	header := c.Response().Header()
	header.Set("Cache-Control", "no-cache")
	header.Set("ETag", `"`+hex.EncodeToString(sum[:8])+`"`)

	http.ServeContent(c.Response(), c.Request(), docsPage, time.Time{}, bytes.NewReader(page))
	return nil
}
