package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ambit-search/ambit/internal/clientpool"
)

var (
	ErrProxyDisabled          = errors.New("httpapi: image proxy disabled")
	ErrUnsupportedContentType = errors.New("httpapi: unsupported content type")
	ErrResponseTooLarge       = errors.New("httpapi: response exceeds configured size limit")
)

var allowedImageSubtypes = map[string]struct{}{
	"apng": {}, "avif": {}, "gif": {}, "jpeg": {}, "png": {}, "webp": {},
}

// handleImageProxy streams a remote image back to the browser so the page
// never leaks the visitor's IP to the image's origin. Policy is enforced
// per spec: the feature must be enabled, the upstream Content-Type must be
// a recognized image subtype, and the body must fit under the configured
// size ceiling.
func (h *Handler) handleImageProxy(w http.ResponseWriter, r *http.Request) {
	cfg := h.Config()
	if !cfg.ImageSearch.Enabled || !cfg.ImageSearch.Proxy.Enabled {
		http.Error(w, ErrProxyDisabled.Error(), http.StatusForbidden)
		return
	}

	remote := r.URL.Query().Get("url")
	if remote == "" {
		http.Error(w, "missing url parameter", http.StatusBadRequest)
		return
	}

	req, err := clientpool.NewRequest(http.MethodGet, remote)
	if err != nil {
		http.Error(w, "invalid url", http.StatusBadRequest)
		return
	}

	resp, err := clientpool.Client().Do(req.WithContext(r.Context()))
	if err != nil {
		http.Error(w, "upstream fetch failed", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if !isAllowedImageContentType(contentType) {
		http.Error(w, ErrUnsupportedContentType.Error(), http.StatusUnsupportedMediaType)
		return
	}

	limit := int64(cfg.ImageSearch.Proxy.MaxDownloadSize)
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		http.Error(w, "upstream read failed", http.StatusBadGateway)
		return
	}
	if int64(len(body)) > limit {
		http.Error(w, ErrResponseTooLarge.Error(), http.StatusRequestEntityTooLarge)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Disposition", "attachment")
	_, _ = w.Write(body)
}

func isAllowedImageContentType(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	mediaType = strings.TrimSpace(mediaType)
	subtype, ok := strings.CutPrefix(mediaType, "image/")
	if !ok {
		return false
	}
	_, allowed := allowedImageSubtypes[subtype]
	return allowed
}
