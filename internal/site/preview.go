package site

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/ryosukesatoh/daily-hot/internal/render"
)

// PreviewServer serves the Markdown output directory as HTML without the
// external generator.
type PreviewServer struct {
	addr   string
	docs   fs.FS
	files  http.Handler
	server *http.Server
	ln     net.Listener
	logger *slog.Logger
}

func NewPreviewServer(addr, docsDir string, logger *slog.Logger) *PreviewServer {
	docs := os.DirFS(docsDir)
	ps := &PreviewServer{
		addr:   addr,
		docs:   docs,
		files:  http.FileServer(http.FS(docs)),
		logger: logger.With("component", "site.preview"),
	}
	ps.server = &http.Server{Addr: addr, Handler: ps}
	return ps
}

// Start begins serving HTTP in the background. Call Shutdown to stop.
func (ps *PreviewServer) Start() error {
	ln, err := net.Listen("tcp", ps.addr)
	if err != nil {
		return fmt.Errorf("site: failed to listen on %s: %w", ps.addr, err)
	}
	ps.ln = ln
	go func() {
		ps.logger.Info("Preview server listening", "url", "http://"+ln.Addr().String())
		if err := ps.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			ps.logger.Error("Preview server error", "error", err)
		}
	}()
	return nil
}

// Addr is the bound address once started.
func (ps *PreviewServer) Addr() string {
	if ps.ln == nil {
		return ps.addr
	}
	return ps.ln.Addr().String()
}

// Shutdown gracefully shuts down the HTTP server.
func (ps *PreviewServer) Shutdown(ctx context.Context) error {
	return ps.server.Shutdown(ctx)
}

// ServeHTTP renders .md pages and serves anything else as a static file.
// "/" maps to index.md and "/name/" or "/name" to name.md.
func (ps *PreviewServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.Trim(path.Clean("/"+r.URL.Path), "/")
	switch {
	case name == "":
		name = "index.md"
	case strings.HasSuffix(name, ".md"):
	default:
		if _, err := fs.Stat(ps.docs, name+".md"); err == nil {
			name += ".md"
		} else {
			ps.files.ServeHTTP(w, r)
			return
		}
	}

	doc, err := fs.ReadFile(ps.docs, name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	title, body, err := render.HTML(doc)
	if err != nil {
		ps.logger.Error("Failed to render page", "page", name, "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!DOCTYPE html><html><head><meta charset="utf-8"><title>%s</title><style>
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'PingFang SC', sans-serif; max-width: 860px; margin: 0 auto; padding: 20px; color: #333; }
table { border-collapse: collapse; } td, th { border: 1px solid #ddd; padding: 4px 10px; }
blockquote { color: #666; border-left: 4px solid #ddd; margin: 0; padding-left: 12px; }
</style></head><body>`, html.EscapeString(title))
	w.Write(body)
	fmt.Fprint(w, `</body></html>`)
}
