package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"clearance-backend/internal/shared/auth"
	"clearance-backend/internal/shared/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Env:                    "test",
		RecordStore:            "memory",
		ObjectStoreType:        "local",
		LocalStoreDir:          t.TempDir(),
		JWTSecret:              "bootstrap-test-secret",
		CompletionPolicy:       "all_previously_false",
		BootstrapAdminEmail:    "Registrar@uni.edu",
		BootstrapAdminPassword: "correct-horse",
	}
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestBuildMemoryStack(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app, err := Build(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { app.Close(context.Background()) })

	if app.DB != nil || app.Mongo != nil {
		t.Fatalf("expected no database connections for the memory store")
	}
	if _, err := app.AdminsRepo.GetByEmail(context.Background(), "registrar@uni.edu"); err != nil {
		t.Fatalf("expected bootstrap admin to be seeded: %v", err)
	}

	if resp := doJSON(t, app.Router, http.MethodGet, "/api/v1/health", "", nil); resp.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", resp.Code)
	}

	// Seeding twice is a no-op.
	if err := app.seedAdmin(context.Background()); err != nil {
		t.Fatalf("seedAdmin: %v", err)
	}
}

func TestClearanceFlowOverHTTP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app, err := Build(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	router := app.Router

	if resp := doJSON(t, router, http.MethodGet, "/api/v1/admin/students", "", nil); resp.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous admin call: expected 401, got %d", resp.Code)
	}

	resp := doJSON(t, router, http.MethodPost, "/api/v1/admin/login", "", map[string]string{
		"email":    "registrar@uni.edu",
		"password": "correct-horse",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var login struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil || login.Token == "" {
		t.Fatalf("decode login: %v", err)
	}

	resp = doJSON(t, router, http.MethodPost, "/api/v1/admin/students", login.Token, map[string]string{
		"student_id":  "U2021-042",
		"email":       "ada@uni.edu",
		"roll_number": "CS-42",
		"name":        "Ada",
		"department":  "Computer Science",
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode student: %v", err)
	}

	resp = doJSON(t, router, http.MethodPut, "/api/v1/admin/students/U2021-042/status", login.Token, map[string]any{
		"clearance_status": map[string]bool{
			"dispensary":          true,
			"hostel":              true,
			"due":                 true,
			"library":             true,
			"academic_department": true,
			"alumni":              true,
		},
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("status: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(t, router, http.MethodGet, "/api/v1/students/verify/CS-42", "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("verify: expected 200, got %d", resp.Code)
	}
	var verification struct {
		IsCleared bool `json:"isCleared"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&verification); err != nil {
		t.Fatalf("decode verification: %v", err)
	}
	if !verification.IsCleared {
		t.Fatalf("expected student to verify as cleared")
	}

	studentToken, err := app.Tokens.Sign(created.ID, auth.RoleStudent, "ada@uni.edu", "Ada")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if resp := doJSON(t, router, http.MethodGet, "/api/v1/admin/students", studentToken, nil); resp.Code != http.StatusForbidden {
		t.Fatalf("student on admin route: expected 403, got %d", resp.Code)
	}

	resp = doJSON(t, router, http.MethodGet, "/api/v1/notifications", studentToken, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("notifications: expected 200, got %d", resp.Code)
	}
	var inbox struct {
		Items []struct {
			Type string `json:"type"`
		} `json:"items"`
		Unread int `json:"unread"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&inbox); err != nil {
		t.Fatalf("decode notifications: %v", err)
	}
	if len(inbox.Items) != 2 || inbox.Unread != 2 {
		t.Fatalf("expected status and completion notifications, got %+v", inbox)
	}
	if inbox.Items[0].Type != "clearance_completion" && inbox.Items[1].Type != "clearance_completion" {
		t.Fatalf("expected a completion notification, got %+v", inbox.Items)
	}
}

func TestBuildRejectsS3WithoutBucket(t *testing.T) {
	cfg := testConfig(t)
	cfg.ObjectStoreType = "s3"
	if _, err := Build(context.Background(), cfg); err == nil {
		t.Fatalf("expected error for s3 without bucket")
	}
}
