package serve

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"scalesite/internal/app"
	"scalesite/internal/cms"
	"scalesite/internal/domain/content"
	domainerr "scalesite/internal/domain/errors"
	"scalesite/internal/form"
	"scalesite/internal/query"
	"scalesite/internal/render"
)

const maxBodyBytes = 1 << 20

type listResponse struct {
	Items       []content.Content  `json:"items"`
	Pagination  content.Pagination `json:"pagination"`
	HasNextPage bool               `json:"hasNextPage"`
	Links       app.Links          `json:"links"`
}

type detailResponse struct {
	Item content.Content  `json:"item"`
	HTML string           `json:"html"`
	TOC  []render.Heading `json:"toc"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) variant(w http.ResponseWriter, r *http.Request) (content.Variant, bool) {
	v, ok := content.ParseVariant(chi.URLParam(r, "collection"))
	if !ok {
		notFound(w, "unknown collection")
	}
	return v, ok
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	v, ok := s.variant(w, r)
	if !ok {
		return
	}
	st := s.state()
	req := query.FromValues(r.URL.Query(), v, st.cfg.Site.DefaultPageSize)

	page, err := st.backend.List(r.Context(), req)
	if err != nil {
		s.upstreamError(w, "list", err)
		return
	}
	if page.Items == nil {
		page.Items = []content.Content{}
	}
	writeJSON(w, http.StatusOK, listResponse{
		Items:       page.Items,
		Pagination:  page.Pagination,
		HasNextPage: page.Pagination.HasNextPage(),
		Links:       s.routes.ListLinks(req, page.Pagination),
	})
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	v, ok := s.variant(w, r)
	if !ok {
		return
	}
	st := s.state()
	item, err := st.backend.GetBySlug(r.Context(), v, chi.URLParam(r, "slug"))
	if errors.Is(err, cms.ErrNotFound) {
		notFound(w, "not found")
		return
	}
	if err != nil {
		s.upstreamError(w, "detail", err)
		return
	}
	res, err := st.render.Body(item.Body)
	if err != nil {
		s.log.Error("render body", zap.String("slug", item.Slug), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to render content")
		return
	}
	writeJSON(w, http.StatusOK, detailResponse{Item: item, HTML: res.HTML, TOC: res.TOC})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	v, ok := s.variant(w, r)
	if !ok {
		return
	}
	n, err := s.state().backend.IncrementView(r.Context(), v, chi.URLParam(r, "documentId"))
	if errors.Is(err, cms.ErrNotFound) || domainerr.IsStatus(err, http.StatusNotFound) {
		notFound(w, "not found")
		return
	}
	if err != nil {
		s.upstreamError(w, "view", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"viewCount": n})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.state().backend.Categories(r.Context())
	if err != nil {
		s.upstreamError(w, "categories", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": cats})
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.state().backend.Tags(r.Context())
	if err != nil {
		s.upstreamError(w, "tags", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": tags})
}

func (s *Server) handleComment(w http.ResponseWriter, r *http.Request) {
	var cm cms.Comment
	if err := decode(w, r, &cm); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	ref, err := s.state().backend.SubmitComment(r.Context(), cm)
	var ve domainerr.ValidationError
	if errors.As(err, &ve) {
		validationError(w, ve.Fields())
		return
	}
	if err != nil {
		s.upstreamError(w, "comment", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"reference": ref})
}

func (s *Server) handleCollaboration(w http.ResponseWriter, r *http.Request) {
	var d form.Draft
	if err := decode(w, r, &d); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	var ve domainerr.ValidationError
	if err := form.Validate(d); errors.As(err, &ve) {
		validationError(w, ve.Fields())
		return
	}
	lead := d.Payload(uuid.NewString())
	if err := s.state().backend.SubmitLead(r.Context(), lead); err != nil {
		s.log.Warn("lead submission failed", zap.String("reference", lead.Reference), zap.Error(err))
		writeError(w, http.StatusBadGateway, "submission failed, please try again")
		return
	}
	s.log.Info("lead submitted", zap.String("reference", lead.Reference))
	writeJSON(w, http.StatusCreated, map[string]string{"reference": lead.Reference})
}

// upstreamError logs the CMS failure and answers with a generic message.
func (s *Server) upstreamError(w http.ResponseWriter, op string, err error) {
	fields := []zap.Field{zap.String("op", op), zap.Error(err)}
	var apiErr *domainerr.APIError
	if errors.As(err, &apiErr) {
		fields = append(fields, zap.Int("status", apiErr.Status))
	}
	s.log.Warn("cms request failed", fields...)
	writeError(w, http.StatusBadGateway, "failed to load")
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func notFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, message)
}

func validationError(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":  "validation failed",
		"fields": fields,
	})
}
