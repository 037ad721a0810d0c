package httpadapter

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gviz-app/gviz-api/internal/app/chat"
	"github.com/gviz-app/gviz-api/internal/app/recommend"
	"github.com/gviz-app/gviz-api/internal/auth"
	"github.com/gviz-app/gviz-api/internal/domain"
	"github.com/gviz-app/gviz-api/internal/observability"
)

type Server struct {
	users         domain.UserStore
	notifications domain.NotificationStore
	issuer        *auth.Issuer
	gate          *auth.Gate
	chat          *chat.Service
	recommend     *recommend.Service
	corsOrigin    string
	now           func() time.Time
}

type Deps struct {
	Users         domain.UserStore
	Notifications domain.NotificationStore
	Issuer        *auth.Issuer
	Gate          *auth.Gate
	Chat          *chat.Service
	Recommend     *recommend.Service
	CORSOrigin    string
}

func NewServer(deps Deps) http.Handler {
	s := &Server{
		users:         deps.Users,
		notifications: deps.Notifications,
		issuer:        deps.Issuer,
		gate:          deps.Gate,
		chat:          deps.Chat,
		recommend:     deps.Recommend,
		corsOrigin:    deps.CORSOrigin,
		now:           time.Now,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/auth/login", s.handleLogin)
	mux.HandleFunc("/api/user/register", s.handleRegister)

	mux.Handle("/api/auth/logout", s.requireAuth(s.handleLogout))
	mux.Handle("/api/user/profile", s.requireAuth(s.handleProfile))
	mux.Handle("/api/user/notifications", s.requireAuth(s.handleNotifications))
	mux.Handle("/api/chat", s.requireAuth(s.handleChat))
	mux.Handle("/api/recommendation/job", s.requireAuth(s.handleJobRecommendations))
	mux.Handle("/api/recommendation/skill", s.requireAuth(s.handleSkillRecommendations))
	mux.Handle("/api/search", s.requireAuth(s.handleSearch))

	return chainMiddlewares(mux, s.withCORS, withLogging, withRequestID)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Msg   string       `json:"msg"`
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar,omitempty"`
}

type userResponse struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Avatar       string    `json:"avatar,omitempty"`
	Role         string    `json:"role,omitempty"`
	Skills       []string  `json:"skills"`
	JobInterests []string  `json:"job_interests"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type updateProfileRequest struct {
	Name         *string   `json:"name"`
	Avatar       *string   `json:"avatar"`
	Skills       *[]string `json:"skills"`
	JobInterests *[]string `json:"job_interests"`
}

type chatRequest struct {
	Message string `json:"message"`
	Image   string `json:"image,omitempty"` // data URL: data:<mime>;base64,<payload>
}

type notificationResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Unread    bool      `json:"unread"`
	Time      string    `json:"time"`
	CreatedAt time.Time `json:"created_at"`
}

// ─────────────────────────────────────────────
// Auth handlers
// ─────────────────────────────────────────────

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		badRequest(w, "email and password are required")
		return
	}

	log := observability.LoggerFromContext(r.Context())

	user, err := s.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			unauthorized(w, "invalid credentials")
			return
		}
		internalError(w, r, err)
		return
	}

	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		unauthorized(w, "invalid credentials")
		return
	}

	token, err := s.issuer.Issue(user.ID)
	if err != nil {
		internalError(w, r, err)
		return
	}

	log.Info("user logged in", "user_id", user.ID)

	writeJSON(w, http.StatusOK, loginResponse{
		Msg:   "Login successful",
		Token: token,
		User:  toUserResponse(user),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	// requireAuth already validated the token; Revoke re-parses to get the
	// jti and records it until the token's natural expiry.
	if err := s.gate.Revoke(bearerToken(r)); err != nil {
		unauthorized(w, "invalid token")
		return
	}

	observability.LoggerFromContext(r.Context()).Info("user logged out",
		"user_id", userIDFromContext(r.Context()))

	writeJSON(w, http.StatusOK, map[string]string{"msg": "Successfully logged out"})
}

// ─────────────────────────────────────────────
// User handlers
// ─────────────────────────────────────────────

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		badRequest(w, "email, password and name are required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		badRequest(w, "password is not usable")
		return
	}

	avatar := req.Avatar
	if avatar == "" {
		avatar = "https://ui-avatars.com/api/?name=" + url.QueryEscape(req.Name)
	}

	user, err := s.users.Create(r.Context(), &domain.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		AvatarURL:    avatar,
		Role:         "user",
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			writeJSON(w, http.StatusConflict, map[string]string{"msg": "Email already registered"})
			return
		}
		internalError(w, r, err)
		return
	}

	// Best effort; registration must not fail on a notification hiccup.
	_ = s.notifications.AppendNotification(r.Context(), &domain.Notification{
		UserID:  user.ID,
		Title:   "Welcome to GViz",
		Message: "Fill in your skills and interests to get personalized recommendations.",
	})

	writeJSON(w, http.StatusCreated, map[string]any{
		"msg":  "User registered successfully",
		"user": toUserResponse(user),
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleGetProfile(w, r)
	case http.MethodPut:
		s.handleUpdateProfile(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.GetByID(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			notFound(w, "User not found")
			return
		}
		internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	user, err := s.users.Update(r.Context(), userIDFromContext(r.Context()), domain.UserUpdate{
		Name:         req.Name,
		AvatarURL:    req.Avatar,
		Skills:       req.Skills,
		JobInterests: req.JobInterests,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			notFound(w, "User not found")
			return
		}
		internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	items, err := s.notifications.ListNotificationsByUser(r.Context(), userIDFromContext(r.Context()), 50)
	if err != nil {
		internalError(w, r, err)
		return
	}

	now := s.now()
	out := make([]notificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, notificationResponse{
			ID:        string(n.ID),
			Title:     n.Title,
			Message:   n.Message,
			Unread:    !n.Read,
			Time:      relativeTime(n.CreatedAt, now),
			CreatedAt: n.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, out)
}

// ─────────────────────────────────────────────
// Chat handler
// ─────────────────────────────────────────────

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		badRequest(w, "Message cannot be empty")
		return
	}

	var image *chat.Image
	if req.Image != "" {
		parsed, err := parseDataURL(req.Image)
		if err != nil {
			badRequest(w, "Invalid image format")
			return
		}
		image = parsed
	}

	result := s.chat.Respond(r.Context(), userIDFromContext(r.Context()), message, image)
	writeJSON(w, http.StatusOK, result)
}

// parseDataURL decodes a "data:<mime>;base64,<payload>" attachment.
func parseDataURL(raw string) (*chat.Image, error) {
	header, payload, ok := strings.Cut(raw, ",")
	if !ok {
		return nil, fmt.Errorf("missing data URL separator")
	}
	if !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("not a base64 data URL")
	}

	mimeType := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	if mimeType == "" {
		return nil, fmt.Errorf("missing MIME type")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding image payload: %w", err)
	}

	return &chat.Image{Data: data, MIMEType: mimeType}, nil
}

// ─────────────────────────────────────────────
// Recommendation handlers
// ─────────────────────────────────────────────

func (s *Server) handleJobRecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	user, err := s.users.GetByID(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			notFound(w, "User not found")
			return
		}
		internalError(w, r, err)
		return
	}

	items := s.recommend.RecommendJobs(r.Context(), user.Skills, user.JobInterests)
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleSkillRecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	user, err := s.users.GetByID(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			notFound(w, "User not found")
			return
		}
		internalError(w, r, err)
		return
	}

	items := s.recommend.RecommendSkills(r.Context(), user.Skills, user.JobInterests)
	writeJSON(w, http.StatusOK, items)
}

// ─────────────────────────────────────────────
// Search handler
// ─────────────────────────────────────────────

type searchItem struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(query) < 2 {
		badRequest(w, "Search query must be at least 2 characters")
		return
	}

	// Catalog search is not wired to a real index yet; the shape matches
	// what the front-end renders.
	writeJSON(w, http.StatusOK, map[string][]searchItem{
		"courses": {
			{ID: 1, Title: fmt.Sprintf("Introduction to Data Visualization with %s", query), Type: "course"},
			{ID: 2, Title: fmt.Sprintf("Advanced %s Techniques", query), Type: "course"},
		},
		"tutorials": {
			{ID: 1, Title: fmt.Sprintf("Creating Your First %s Chart", query), Type: "tutorial"},
			{ID: 2, Title: fmt.Sprintf("How to Use %s Effectively", query), Type: "tutorial"},
		},
	})
}

// ─────────────────────────────────────────────
// Health
// ─────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "GViz API is running",
	})
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

func toUserResponse(u *domain.User) userResponse {
	skills := u.Skills
	if skills == nil {
		skills = []string{}
	}
	interests := u.JobInterests
	if interests == nil {
		interests = []string{}
	}

	return userResponse{
		ID:           string(u.ID),
		Email:        u.Email,
		Name:         u.Name,
		Avatar:       u.AvatarURL,
		Role:         u.Role,
		Skills:       skills,
		JobInterests: interests,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// relativeTime renders "3d ago" style labels for notification lists.
func relativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff >= 24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	case diff >= time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff >= time.Minute:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	default:
		return "Just now"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"msg": msg})
}

func unauthorized(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": msg})
}

func notFound(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusNotFound, map[string]string{"msg": msg})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"msg": "method not allowed"})
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	observability.LoggerFromContext(r.Context()).Error("internal error",
		"path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"msg": "internal server error"})
}
