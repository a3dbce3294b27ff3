package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/KSD554/imagekit/internal/api"
	"github.com/KSD554/imagekit/internal/model"
	"github.com/KSD554/imagekit/internal/transform"
)

// transformResponse is the body of GET /api/transform.
type transformResponse struct {
	URL             string            `json:"url"`
	Original        string            `json:"original"`
	Transformations []model.Directive `json:"transformations"`
	Cost            int               `json:"cost"`
}

// Transformations handles GET /api/transformations.
func (h *Handler) Transformations(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, transform.Options())
}

// DemoImages handles GET /api/demo-images.
func (h *Handler) DemoImages(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, transform.DemoImages())
}

// Transform handles GET /api/transform?url=&preset=&tr=. Presets are
// applied first, raw directives after, both in query order.
func (h *Handler) Transform(w http.ResponseWriter, r *http.Request) {
	base, directives, presets, ok := h.parseTransformQuery(w, r)
	if !ok {
		return
	}

	api.WriteJSON(w, http.StatusOK, transformResponse{
		URL:             h.build(base, directives),
		Original:        base,
		Transformations: directives,
		Cost:            transform.Cost(presets),
	})
}

// Preview handles GET /api/preview and redirects to the transformed URL.
// Only URLs on a configured CDN host are redirected to.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	base, directives, _, ok := h.parseTransformQuery(w, r)
	if !ok {
		return
	}
	target := h.build(base, directives)
	if !h.cdnURL(target) {
		api.BadRequest(w, "url is not an image on the configured CDN")
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// cdnURL reports whether raw is an absolute http(s) URL whose host is the
// host of the demo or tenant endpoint.
func (h *Handler) cdnURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}
	for _, endpoint := range []string{h.Config.DemoEndpoint, h.Config.TenantEndpoint} {
		e, err := url.Parse(endpoint)
		if err == nil && e.Host != "" && strings.EqualFold(e.Host, u.Host) {
			return true
		}
	}
	return false
}

func (h *Handler) parseTransformQuery(w http.ResponseWriter, r *http.Request) (string, []model.Directive, []string, bool) {
	q := r.URL.Query()
	base := strings.TrimSpace(q.Get("url"))
	if base == "" {
		api.BadRequest(w, "missing required query parameter: url")
		return "", nil, nil, false
	}

	presets := q["preset"]
	directives, err := transform.Resolve(presets)
	if err != nil {
		if errors.Is(err, transform.ErrUnknownPreset) {
			api.BadRequest(w, err.Error())
			return "", nil, nil, false
		}
		api.InternalError(w, "failed to resolve presets")
		return "", nil, nil, false
	}
	for _, d := range q["tr"] {
		if d = strings.TrimSpace(d); d != "" {
			directives = append(directives, d)
		}
	}
	return base, directives, presets, true
}

// build records the bucket layout of base and returns the transformed URL.
// Unparseable URLs are passed through unchanged.
func (h *Handler) build(base string, directives []model.Directive) string {
	bucket := "invalid"
	if ref, err := h.Builder.Classify(base); err == nil {
		bucket = string(ref.Kind)
	}
	h.Metrics.URLsBuilt.WithLabelValues(bucket).Inc()
	return h.Builder.Build(base, directives)
}
