package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"autosave/pkg/logger"
)

const (
	notFoundPage    = "<html><body><h1>404 Not Found</h1></body></html>"
	serverErrorPage = "<html><body><h1>500 Server Error</h1></body></html>"
)

var contentTypes = map[string]string{
	".html": "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".json": "application/json",
}

// StaticHandler serves files from Root. "/" maps to index.html.
type StaticHandler struct {
	Root string
}

func NewStaticHandler(root string) (*StaticHandler, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &StaticHandler{Root: abs}, nil
}

func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Path
	if name == "/" || name == "" {
		name = "/index.html"
	}

	fullPath, err := h.resolve(name)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Sugar.Debugf("Static file not found: %s", r.URL.Path)
		writeHTML(w, http.StatusNotFound, notFoundPage)
		return
	} else if err != nil {
		logger.Sugar.Errorf("Error resolving %s: %v", r.URL.Path, err)
		writeHTML(w, http.StatusInternalServerError, serverErrorPage)
		return
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		logger.Sugar.Errorf("Error serving file %s: %v", fullPath, err)
		writeHTML(w, http.StatusInternalServerError, serverErrorPage)
		return
	}

	w.Header().Set("Content-Type", ContentType(fullPath))
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}

// resolve maps a URL path onto a regular file under Root. Anything that
// would land outside Root, symlinks included, and any dot file or dot
// directory (.env, atomic-write temp files) is reported as not found.
func (h *StaticHandler) resolve(urlPath string) (string, error) {
	joined := filepath.Join(h.Root, filepath.FromSlash(urlPath))
	if !within(h.Root, joined) || hidden(h.Root, joined) {
		return "", fs.ErrNotExist
	}

	root, err := filepath.EvalSymlinks(h.Root)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(joined)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return "", fs.ErrNotExist
		}
		return "", err
	}
	if !within(root, resolved) || hidden(root, resolved) {
		return "", fs.ErrNotExist
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", fs.ErrNotExist
	}
	return resolved, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// hidden reports whether any element of path below root starts with a dot.
func hidden(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return true
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if strings.HasPrefix(part, ".") && part != "." {
			return true
		}
	}
	return false
}

// ContentType picks the response type from the file extension.
func ContentType(path string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return ct
	}
	return "application/octet-stream"
}

func writeHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(status)
	w.Write([]byte(body))
}
