package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/inkcircle/backend/internal/access"
	"github.com/inkcircle/backend/internal/blogs"
	"github.com/inkcircle/backend/internal/logging"
	"github.com/inkcircle/backend/internal/models"
	"github.com/inkcircle/backend/internal/slug"
)

// maxCoverBytes bounds cover image uploads.
const maxCoverBytes = 10 << 20

// BlogHandler implements the content endpoints.
type BlogHandler struct {
	Blogs    BlogService
	Sessions SessionManager
	Covers   ImageStore
	Limiter  RateLimiter
}

// Handle routes GET and POST /api/v1/blogs.
func (h BlogHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h BlogHandler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !allowRequest(h.Limiter, r, "content") {
		errorJSON(ctx, w, http.StatusTooManyRequests, "too many requests")
		return
	}

	actorID, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	var req createBlogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("invalid blog payload", "error", err)
		errorJSON(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	blog, err := h.Blogs.Create(ctx, actorID, req.Title, req.Body, models.PrivacyTier(strings.TrimSpace(req.Privacy)))
	if err != nil {
		respondBlogError(ctx, w, err, "create blog")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, newBlogResponse(blog))
}

func (h BlogHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	authorID := strings.TrimSpace(r.URL.Query().Get("authorId"))
	if authorID == "" {
		errorJSON(ctx, w, http.StatusBadRequest, "authorId is required")
		return
	}

	page, limit := pageParams(r)
	visible, err := h.Blogs.ListByAuthor(ctx, viewerID(r, h.Sessions), authorID, page, limit)
	if err != nil {
		respondBlogError(ctx, w, err, "list blogs")
		return
	}

	out := make([]blogResponse, 0, len(visible))
	for _, blog := range visible {
		out = append(out, newBlogResponse(blog))
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"blogs": out})
}

// View handles GET /api/v1/blogs/view?slug=. Anonymous readers are allowed;
// the privacy decision determines the response.
func (h BlogHandler) View(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	blogSlug := strings.TrimSpace(r.URL.Query().Get("slug"))
	if blogSlug == "" {
		errorJSON(ctx, w, http.StatusBadRequest, "slug is required")
		return
	}

	blog, decision, err := h.Blogs.View(ctx, viewerID(r, h.Sessions), blogSlug)
	if err != nil {
		respondBlogError(ctx, w, err, "view blog")
		return
	}
	if !decision.Allowed {
		status := http.StatusForbidden
		if decision.Reason == access.ReasonAuthRequired {
			status = http.StatusUnauthorized
		}
		respondJSON(ctx, w, status, map[string]string{"error": "access denied", "reason": string(decision.Reason)})
		return
	}

	respondJSON(ctx, w, http.StatusOK, newBlogResponse(blog))
}

// Update handles POST /api/v1/blogs/update.
func (h BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	actorID, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	var req updateBlogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("invalid blog payload", "error", err)
		errorJSON(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.BlogID) == "" {
		errorJSON(ctx, w, http.StatusBadRequest, "blogId is required")
		return
	}

	upd := blogs.Update{Title: req.Title, Body: req.Body}
	if req.Privacy != nil {
		tier := models.PrivacyTier(strings.TrimSpace(*req.Privacy))
		upd.Privacy = &tier
	}

	blog, err := h.Blogs.UpdateBlog(ctx, actorID, req.BlogID, upd)
	if err != nil {
		respondBlogError(ctx, w, err, "update blog")
		return
	}

	respondJSON(ctx, w, http.StatusOK, newBlogResponse(blog))
}

// Delete handles POST /api/v1/blogs/delete.
func (h BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	actorID, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	var req blogIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("invalid blog payload", "error", err)
		errorJSON(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.BlogID) == "" {
		errorJSON(ctx, w, http.StatusBadRequest, "blogId is required")
		return
	}

	if err := h.Blogs.Delete(ctx, actorID, req.BlogID); err != nil {
		respondBlogError(ctx, w, err, "delete blog")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadCover handles POST /api/v1/blogs/cover multipart uploads. The stored
// location is applied to the blog's cover field.
func (h BlogHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	actorID, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	if h.Covers == nil {
		logger.Error("cover storage unavailable")
		errorJSON(ctx, w, http.StatusInternalServerError, "cover uploads unavailable")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCoverBytes)
	if err := r.ParseMultipartForm(maxCoverBytes); err != nil {
		logger.Warn("invalid cover upload", "error", err)
		errorJSON(ctx, w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	blogID := strings.TrimSpace(r.FormValue("blogId"))
	if blogID == "" {
		errorJSON(ctx, w, http.StatusBadRequest, "blogId is required")
		return
	}

	file, header, err := r.FormFile("cover")
	if err != nil {
		errorJSON(ctx, w, http.StatusBadRequest, "cover file is required")
		return
	}
	defer file.Close()

	name := fmt.Sprintf("%s%s", uuid.NewString(), strings.ToLower(filepath.Ext(header.Filename)))
	location, err := h.Covers.Save(ctx, name, file)
	if err != nil {
		logger.Error("store cover image", "error", err, "blogId", blogID)
		errorJSON(ctx, w, http.StatusInternalServerError, "failed to store cover image")
		return
	}

	blog, err := h.Blogs.UpdateBlog(ctx, actorID, blogID, blogs.Update{CoverURL: &location})
	if err != nil {
		respondBlogError(ctx, w, err, "apply cover image")
		return
	}

	respondJSON(ctx, w, http.StatusOK, newBlogResponse(blog))
}

// Comments handles GET and POST /api/v1/blogs/comments.
func (h BlogHandler) Comments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listComments(w, r)
	case http.MethodPost:
		h.comment(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h BlogHandler) listComments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	blogID := strings.TrimSpace(r.URL.Query().Get("blogId"))
	if blogID == "" {
		errorJSON(ctx, w, http.StatusBadRequest, "blogId is required")
		return
	}

	page, limit := pageParams(r)
	comments, err := h.Blogs.Comments(ctx, viewerID(r, h.Sessions), blogID, page, limit)
	if err != nil {
		respondBlogError(ctx, w, err, "list comments")
		return
	}

	out := make([]commentResponse, 0, len(comments))
	for _, comment := range comments {
		out = append(out, newCommentResponse(comment))
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"comments": out})
}

func (h BlogHandler) comment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("invalid comment payload", "error", err)
		errorJSON(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.BlogID) == "" || strings.TrimSpace(req.Body) == "" {
		errorJSON(ctx, w, http.StatusBadRequest, "blogId and body are required")
		return
	}

	comment, err := h.Blogs.Comment(ctx, actorID, req.BlogID, req.Body)
	if err != nil {
		respondBlogError(ctx, w, err, "create comment")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, newCommentResponse(comment))
}

// Likes handles POST and DELETE /api/v1/blogs/likes.
func (h BlogHandler) Likes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	var req blogIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("invalid like payload", "error", err)
		errorJSON(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.BlogID) == "" {
		errorJSON(ctx, w, http.StatusBadRequest, "blogId is required")
		return
	}

	var err error
	switch r.Method {
	case http.MethodPost:
		err = h.Blogs.Like(ctx, actorID, req.BlogID)
	case http.MethodDelete:
		err = h.Blogs.Unlike(ctx, actorID, req.BlogID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err != nil {
		respondBlogError(ctx, w, err, "toggle like")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type createBlogRequest struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	Privacy string `json:"privacy"`
}

type updateBlogRequest struct {
	BlogID  string  `json:"blogId"`
	Title   *string `json:"title"`
	Body    *string `json:"body"`
	Privacy *string `json:"privacy"`
}

type blogIDRequest struct {
	BlogID string `json:"blogId"`
}

type commentRequest struct {
	BlogID string `json:"blogId"`
	Body   string `json:"body"`
}

type blogResponse struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Body      string    `json:"body"`
	CoverURL  string    `json:"coverUrl,omitempty"`
	Privacy   string    `json:"privacy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newBlogResponse(blog models.Blog) blogResponse {
	return blogResponse{
		ID:        blog.ID,
		AuthorID:  blog.AuthorID,
		Title:     blog.Title,
		Slug:      blog.Slug,
		Body:      blog.Body,
		CoverURL:  blog.CoverURL,
		Privacy:   string(blog.Privacy),
		CreatedAt: blog.CreatedAt,
		UpdatedAt: blog.UpdatedAt,
	}
}

type commentResponse struct {
	ID        string    `json:"id"`
	BlogID    string    `json:"blogId"`
	AuthorID  string    `json:"authorId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

func newCommentResponse(comment models.Comment) commentResponse {
	return commentResponse{
		ID:        comment.ID,
		BlogID:    comment.BlogID,
		AuthorID:  comment.AuthorID,
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt,
	}
}

// respondBlogError maps content service errors onto HTTP statuses.
func respondBlogError(ctx context.Context, w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, blogs.ErrNotFound):
		errorJSON(ctx, w, http.StatusNotFound, "blog not found")
	case errors.Is(err, blogs.ErrForbidden):
		errorJSON(ctx, w, http.StatusForbidden, "not the blog author")
	case errors.Is(err, blogs.ErrTitleRequired), errors.Is(err, blogs.ErrInvalidPrivacy):
		errorJSON(ctx, w, http.StatusBadRequest, err.Error())
	case errors.Is(err, slug.ErrExhausted):
		errorJSON(ctx, w, http.StatusConflict, "could not allocate a unique slug")
	default:
		logging.FromContext(ctx).Error(op+" failed", "error", err)
		errorJSON(ctx, w, http.StatusInternalServerError, "internal error")
	}
}
