package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"photoshare/internal/app"
	"photoshare/internal/token"
	"photoshare/internal/util"
	"photoshare/pkg/domain"
	"photoshare/pkg/pipeline"
	"photoshare/pkg/store"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	Tokens         *token.Manager
	MaxUploadBytes int64
}

// Server exposes the HTTP API for the photo gallery.
type Server struct {
	app            *app.App
	tokens         *token.Manager
	mux            *http.ServeMux
	maxUploadBytes int64
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("app required")
	}
	if cfg.Tokens == nil {
		return nil, errors.New("token manager required")
	}
	maxUploadBytes := cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = 20 * 1024 * 1024
	}
	s := &Server{
		app:            cfg.App,
		tokens:         cfg.Tokens,
		mux:            http.NewServeMux(),
		maxUploadBytes: maxUploadBytes,
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithSecurityHeaders(util.WithCORS(s.mux))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// auth
	s.mux.HandleFunc("/api/auth/register", s.handleRegister)
	s.mux.HandleFunc("/api/auth/login", s.handleLogin)

	// photos
	s.mux.Handle("/api/photos", s.withOptionalUser(s.handlePhotos))
	s.mux.Handle("/api/photos/", s.withOptionalUser(s.handlePhotoByID))
	s.mux.Handle("/api/comments/", s.withUser(s.handleCommentByID))
	s.mux.Handle("/api/favorites", s.withUser(s.handleFavorites))
	s.mux.HandleFunc("/api/tags", s.handleTags)

	// ai
	s.mux.Handle("/api/ai/search", s.withUser(s.handleSearch))

	// stored binaries
	s.mux.HandleFunc("/files/", s.handleFile)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// photoResponse decorates a photo with versioned file URLs. The version is
// the update timestamp, so edits invalidate cached copies.
type photoResponse struct {
	domain.Photo
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

type photoDetailResponse struct {
	domain.PhotoDetail
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

func fileURL(key string, version int64) string {
	return "/files/" + key + "?v=" + strconv.FormatInt(version, 10)
}

func toPhotoResponse(p domain.Photo) photoResponse {
	r := photoResponse{Photo: p, URL: fileURL(p.StorageKey, p.UpdatedAt.Unix())}
	if p.ThumbnailKey != "" {
		r.ThumbnailURL = fileURL(p.ThumbnailKey, p.UpdatedAt.Unix())
	}
	return r
}

func toPhotoResponses(photos []domain.Photo) []photoResponse {
	res := make([]photoResponse, 0, len(photos))
	for _, p := range photos {
		res = append(res, toPhotoResponse(p))
	}
	return res
}

func toPhotoDetailResponse(d domain.PhotoDetail) photoDetailResponse {
	r := photoDetailResponse{PhotoDetail: d, URL: fileURL(d.StorageKey, d.UpdatedAt.Unix())}
	if d.ThumbnailKey != "" {
		r.ThumbnailURL = fileURL(d.ThumbnailKey, d.UpdatedAt.Unix())
	}
	return r
}

type userHandler func(http.ResponseWriter, *http.Request, domain.User)

func (s *Server) withUser(next userHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.authenticate(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, user)
	})
}

// withOptionalUser resolves the caller when a valid token is present and
// passes a zero user otherwise, for routes that are readable anonymously.
func (s *Server) withOptionalUser(next userHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := s.authenticate(r)
		next(w, r, user)
	})
}

func (s *Server) authenticate(r *http.Request) (domain.User, bool) {
	tok, ok := bearerToken(r)
	if !ok {
		return domain.User{}, false
	}
	claims, err := s.tokens.Verify(tok)
	if err != nil {
		return domain.User{}, false
	}
	user, err := s.app.GetUser(claims.UserID)
	if err != nil {
		return domain.User{}, false
	}
	return user, true
}

type credentialsRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req credentialsRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, err := s.app.Register(req.Username, req.Email, req.Password)
	if err != nil {
		writeAppError(w, err)
		return
	}
	tok, err := s.tokens.Issue(user.ID, string(user.Role))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user": user, "token": tok})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req credentialsRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, err := s.app.Login(req.Username, req.Password)
	if err != nil {
		writeAppError(w, err)
		return
	}
	tok, err := s.tokens.Issue(user.ID, string(user.Role))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user, "token": tok})
}

func (s *Server) handlePhotos(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		s.handleListPhotos(w, r)
	case http.MethodPost:
		if user.ID == 0 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		s.handleUploadPhoto(w, r, user)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleListPhotos(w http.ResponseWriter, r *http.Request) {
	filter := store.PhotoFilter{
		Tag:     strings.TrimSpace(r.URL.Query().Get("tag")),
		Keyword: strings.TrimSpace(r.URL.Query().Get("q")),
	}
	if owner := strings.TrimSpace(r.URL.Query().Get("owner")); owner != "" {
		id, err := strconv.ParseUint(owner, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid owner id")
			return
		}
		filter.OwnerID = uint(id)
	}
	photos, err := s.app.ListPhotos(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": toPhotoResponses(photos),
		"count": len(photos),
	})
}

func (s *Server) handleUploadPhoto(w http.ResponseWriter, r *http.Request, user domain.User) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required (field: file)")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	tags := app.SplitTagList(r.FormValue("tags"))
	photo, err := s.app.Ingest(r.Context(), user.ID, header.Filename, data,
		r.FormValue("title"), r.FormValue("description"), tags)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPhotoResponse(photo))
}

// /api/photos/{id} plus the {id}/like, {id}/favorite, {id}/edit,
// {id}/comments subresources.
func (s *Server) handlePhotoByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	path := strings.TrimPrefix(r.URL.Path, "/api/photos/")
	parts := strings.SplitN(path, "/", 2)
	id, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil || id == 0 {
		notFound(w, "not found")
		return
	}
	photoID := uint(id)

	if len(parts) == 2 {
		switch parts[1] {
		case "like":
			s.handleLike(w, r, user, photoID)
		case "favorite":
			s.handleFavorite(w, r, user, photoID)
		case "edit":
			s.handleEdit(w, r, user, photoID)
		case "comments":
			s.handleComments(w, r, user, photoID)
		default:
			notFound(w, "not found")
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		detail, err := s.app.GetPhotoDetail(user.ID, photoID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPhotoDetailResponse(detail))
	case http.MethodPatch:
		if user.ID == 0 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		var req struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		photo, err := s.app.UpdatePhotoMeta(user, photoID, req.Title, req.Description)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPhotoResponse(photo))
	case http.MethodDelete:
		if user.ID == 0 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if err := s.app.DeletePhoto(r.Context(), user, photoID); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleLike(w http.ResponseWriter, r *http.Request, user domain.User, photoID uint) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if user.ID == 0 {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	liked, count, err := s.app.ToggleLike(user.ID, photoID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"liked": liked, "likeCount": count})
}

func (s *Server) handleFavorite(w http.ResponseWriter, r *http.Request, user domain.User, photoID uint) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if user.ID == 0 {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	favorited, err := s.app.ToggleFavorite(user.ID, photoID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"favorited": favorited})
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request, user domain.User, photoID uint) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if user.ID == 0 {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var ops pipeline.EditOps
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&ops); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	photo, err := s.app.ApplyEdits(r.Context(), user.ID, photoID, ops)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPhotoResponse(photo))
}

func (s *Server) handleComments(w http.ResponseWriter, r *http.Request, user domain.User, photoID uint) {
	switch r.Method {
	case http.MethodGet:
		comments, err := s.app.ListComments(photoID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": comments,
			"count": len(comments),
		})
	case http.MethodPost:
		if user.ID == 0 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		var req struct {
			Content string `json:"content"`
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		comment, err := s.app.AddComment(user.ID, photoID, req.Content)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, comment)
	default:
		methodNotAllowed(w)
	}
}

// /api/comments/{id}
func (s *Server) handleCommentByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	idStr := strings.TrimPrefix(r.URL.Path, "/api/comments/")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		notFound(w, "not found")
		return
	}
	if err := s.app.DeleteComment(user, uint(id)); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	photos, err := s.app.ListFavorites(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": toPhotoResponses(photos),
		"count": len(photos),
	})
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	tags, err := s.app.ListTags()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": tags,
		"count": len(tags),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Query  string `json:"query"`
		APIKey string `json:"apiKey"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	result, err := s.app.ChatSearch(r.Context(), user.ID, req.Query, req.APIKey)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"answer": result.Answer,
		"photos": toPhotoResponses(result.Photos),
	})
}

// handleFile streams a stored binary. Responses are cacheable forever when
// the client passes a version query, which the API bumps on every edit.
func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	key := strings.TrimPrefix(r.URL.Path, "/files/")
	if key == "" || strings.Contains(key, "/") || strings.Contains(key, "..") {
		notFound(w, "not found")
		return
	}
	data, err := s.app.Blobs().Read(r.Context(), key)
	if err != nil {
		notFound(w, "not found")
		return
	}
	if ct := mime.TypeByExtension(filepath.Ext(key)); ct != "" {
		w.Header().Set("Content-Type", ct)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	if r.URL.Query().Get("v") != "" {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	} else {
		w.Header().Set("Cache-Control", "no-cache")
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func notFound(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusNotFound, msg)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeAppError maps application sentinels onto HTTP statuses.
func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, app.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, app.ErrUsernameTaken),
		errors.Is(err, app.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrTitleRequired),
		errors.Is(err, app.ErrContentRequired),
		errors.Is(err, app.ErrQueryRequired),
		errors.Is(err, app.ErrInvalidCrop):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrUnsupportedImage):
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, app.ErrFileTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, app.ErrAIUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		slog.Error("request failed", "err", err.Error())
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if tok == "" {
		return "", false
	}
	return tok, true
}
