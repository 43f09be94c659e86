package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/taskboard-dev/taskboard/db"
	"github.com/taskboard-dev/taskboard/internal/auth"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/repositories"
	"github.com/taskboard-dev/taskboard/internal/router"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "password123"

func setupEnv(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "handlers-test-secret")

	if err := auth.InitJWTSecret(); err != nil {
		t.Fatalf("failed to init JWT secret: %v", err)
	}

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := conn.AutoMigrate(&models.User{}, &models.Project{}, &models.Member{}, &models.Task{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db.DB = conn

	return router.NewRouter()
}

// newUser persists a user and returns it with a valid bearer token.
func newUser(t *testing.T, name, email string) (models.User, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}

	if err := repositories.NewUserRepository().Create(&user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	token, err := auth.GenerateJWT(user.ID, user.Email)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	return user, token
}

func doRequest(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
}

func newProject(t *testing.T, r *gin.Engine, token, name string) uint {
	t.Helper()

	w := doRequest(t, r, http.MethodPost, "/api/projects", token, gin.H{"name": name})

	if w.Code != http.StatusCreated {
		t.Fatalf("failed to create project: status %d body %s", w.Code, w.Body.String())
	}

	var created struct {
		ID uint `json:"id"`
	}
	decodeBody(t, w, &created)

	return created.ID
}

func inviteUser(t *testing.T, r *gin.Engine, token string, projectID uint, email string) {
	t.Helper()

	w := doRequest(t, r, http.MethodPost, fmt.Sprintf("/api/projects/%d/invite", projectID), token, gin.H{"email": email})

	if w.Code != http.StatusCreated {
		t.Fatalf("failed to invite %s: status %d body %s", email, w.Code, w.Body.String())
	}
}
