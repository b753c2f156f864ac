package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	sharedauth "clearance-backend/internal/shared/auth"
	"clearance-backend/internal/shared/server/respond"
	"clearance-backend/internal/shared/telemetry"
	"clearance-backend/internal/students"
)

const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// StudentFinder resolves a signed-in Google account to a student record.
type StudentFinder interface {
	FindByEmail(ctx context.Context, email string) (students.Student, error)
}

// TokenSigner issues bearer tokens.
type TokenSigner interface {
	Sign(subject, role, email, name string) (string, error)
}

// GoogleService signs students in with Google OAuth.
type GoogleService struct {
	oauthConfig *oauth2.Config
	uiRedirect  string
	userInfoURL string
	stateTTL    time.Duration
	stateStore  *stateStore
	students    StudentFinder
	tokens      TokenSigner
}

// NewGoogleService builds a GoogleService.
func NewGoogleService(clientID, clientSecret, redirectURL, uiRedirect string, finder StudentFinder, tokens TokenSigner) *GoogleService {
	return &GoogleService{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		uiRedirect:  uiRedirect,
		userInfoURL: defaultUserInfoURL,
		stateTTL:    5 * time.Minute,
		stateStore:  newStateStore(),
		students:    finder,
		tokens:      tokens,
	}
}

// RegisterRoutes attaches Google auth routes.
func (s *GoogleService) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/auth/google/start", s.start)
	rg.GET("/auth/google/callback", s.callback)
}

func (s *GoogleService) configured() bool {
	return s.oauthConfig.ClientID != "" && s.oauthConfig.ClientSecret != "" && s.oauthConfig.RedirectURL != ""
}

func (s *GoogleService) start(c *gin.Context) {
	if !s.configured() {
		respond.Error(c, http.StatusInternalServerError, "auth_not_configured", "Google auth not configured", nil)
		return
	}

	state := uuid.NewString()
	s.stateStore.put(state, time.Now().Add(s.stateTTL))

	c.Redirect(http.StatusFound, s.oauthConfig.AuthCodeURL(state))
}

var (
	errBadExchange    = errors.New("failed to exchange code")
	errProfile        = errors.New("failed to fetch user profile")
	errUnverified     = errors.New("a verified email is required")
	errUnknownStudent = errors.New("no student record for this account")
)

func (s *GoogleService) callback(c *gin.Context) {
	state, code := c.Query("state"), c.Query("code")
	switch {
	case state == "" || code == "":
		respond.Error(c, http.StatusBadRequest, "invalid_request", "missing state or code", nil)
		return
	case !s.stateStore.consume(state):
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid or expired state", nil)
		return
	}

	st, err := s.signIn(c.Request.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, errBadExchange):
			respond.Error(c, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		case errors.Is(err, errProfile):
			respond.Error(c, http.StatusBadGateway, "auth_failed", err.Error(), nil)
		case errors.Is(err, errUnverified), errors.Is(err, errUnknownStudent):
			respond.Error(c, http.StatusForbidden, "forbidden", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load student", nil)
		}
		return
	}

	token, err := s.tokens.Sign(st.ID, sharedauth.RoleStudent, st.Email, st.Name)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to issue token", nil)
		return
	}
	target, err := appendToken(s.uiRedirect, token)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to redirect", nil)
		return
	}

	telemetry.Info("auth.google.signed_in", map[string]any{"student_id": st.ID})
	c.Redirect(http.StatusFound, target)
}

// signIn trades an authorization code for the matching student record.
func (s *GoogleService) signIn(ctx context.Context, code string) (students.Student, error) {
	oauthToken, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return students.Student{}, fmt.Errorf("%w: %v", errBadExchange, err)
	}
	profile, err := s.fetchUserInfo(ctx, oauthToken)
	if err != nil {
		return students.Student{}, fmt.Errorf("%w: %v", errProfile, err)
	}
	if profile.Email == "" || !profile.VerifiedEmail {
		return students.Student{}, errUnverified
	}

	st, err := s.students.FindByEmail(ctx, profile.Email)
	if errors.Is(err, students.ErrNotFound) {
		telemetry.Warn("auth.google.unknown_student", map[string]any{"email_domain": emailDomain(profile.Email)})
		return students.Student{}, errUnknownStudent
	}
	return st, err
}

type googleUserInfo struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func (s *GoogleService) fetchUserInfo(ctx context.Context, token *oauth2.Token) (googleUserInfo, error) {
	client := s.oauthConfig.Client(ctx, token)
	resp, err := client.Get(s.userInfoURL)
	if err != nil {
		return googleUserInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return googleUserInfo{}, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return googleUserInfo{}, fmt.Errorf("decode userinfo: %w", err)
	}
	info.Email = strings.ToLower(strings.TrimSpace(info.Email))

	return info, nil
}

func appendToken(rawURL, token string) (string, error) {
	if rawURL == "" {
		return "", errors.New("redirect url required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func emailDomain(email string) string {
	if i := strings.LastIndex(email, "@"); i >= 0 {
		return email[i+1:]
	}
	return ""
}
