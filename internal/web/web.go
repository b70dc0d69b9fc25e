package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gofiber/template/html/v2"
)

//go:embed templates/*.html
var templateFS embed.FS

// Engine 내장 템플릿을 쓰는 Fiber 뷰 엔진
func Engine() *html.Engine {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err)
	}
	return html.NewFileSystem(http.FS(sub), ".html")
}
