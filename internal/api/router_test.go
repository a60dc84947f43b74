package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"classtrack/internal/app/service"
	"classtrack/internal/common/security"
	"classtrack/internal/domain/repository/inmem"
	"classtrack/internal/platform/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	config.AppConfig = &config.Config{
		JWTKey:             []byte("test-secret"),
		JWTExp:             30 * time.Minute,
		AssignmentCacheTTL: time.Minute,
	}
	security.InitJWT()
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	db := inmem.Open()
	userRepo := inmem.NewUserRepository(db)
	assignmentRepo := inmem.NewAssignmentRepository(db)
	submissionRepo := inmem.NewSubmissionRepository(db)

	// Transaction provider for assignment creation; the repositories
	// themselves are in-memory.
	txDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.MatchExpectationsInOrder(false)
	t.Cleanup(func() { txDB.Close() })

	authService := service.NewAuthService(userRepo)
	userService := service.NewUserService(userRepo)
	assignmentService := service.NewAssignmentService(assignmentRepo, userRepo, txDB, nil)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, userRepo)

	return NewRouter(authService, userService, assignmentService, submissionService), mock
}

func expectTx(mock sqlmock.Sqlmock, n int) {
	for i := 0; i < n; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
}

func do(t *testing.T, h http.Handler, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 {
		// Some endpoints return arrays; those tests decode on their own.
		_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	}
	return rec, decoded
}

func register(t *testing.T, h http.Handler, name, email, role string) (token, userID string) {
	t.Helper()
	rec, body := do(t, h, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": "password123",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	token, _ = body["access_token"].(string)
	user, _ := body["user"].(map[string]interface{})
	userID, _ = user["id"].(string)
	require.NotEmpty(t, token)
	require.NotEmpty(t, userID)
	return token, userID
}

func TestEndToEndAssignmentFlow(t *testing.T) {
	h, mock := newTestServer(t)
	expectTx(mock, 2)

	teacherToken, _ := register(t, h, "Ada", "ada@example.com", "teacher")
	studentToken, studentID := register(t, h, "Grace", "grace@example.com", "student")

	deadline := time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)

	// First assignment targets the wrong student id.
	rec, body := do(t, h, http.MethodPost, "/api/v1/assignments", teacherToken, map[string]interface{}{
		"title":             "Fractions Homework",
		"description":       "Exercises 1-10",
		"subject":           "Math",
		"deadline":          deadline,
		"assigned_students": []string{"someone-else"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	wrongID, _ := body["id"].(string)

	rec, body = do(t, h, http.MethodPost, "/api/v1/assignments/"+wrongID+"/complete", studentToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", body["code"])

	// Second assignment targets the real student.
	rec, body = do(t, h, http.MethodPost, "/api/v1/assignments", teacherToken, map[string]interface{}{
		"title":             "Fractions Homework v2",
		"description":       "Exercises 1-10",
		"subject":           "Math",
		"deadline":          deadline,
		"assigned_students": []string{studentID},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rightID, _ := body["id"].(string)

	rec, body = do(t, h, http.MethodPost, "/api/v1/assignments/"+rightID+"/complete", studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Assignment marked as completed successfully", body["message"])

	// Repeat completion is rejected and stays rejected.
	rec, body = do(t, h, http.MethodPost, "/api/v1/assignments/"+rightID+"/complete", studentToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ALREADY_COMPLETED", body["code"])

	// The student's submission list holds exactly the completed assignment.
	rec, body = do(t, h, http.MethodGet, "/api/v1/submissions/my", studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{rightID}, body["completed_assignments"])

	// The teacher sees one submission on the assignment.
	rec, _ = do(t, h, http.MethodGet, "/api/v1/assignments/"+rightID+"/submissions", teacherToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var subs []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &subs))
	require.Len(t, subs, 1)
	assert.Equal(t, studentID, subs[0]["student_id"])
	assert.Equal(t, "completed", subs[0]["status"])

	// The student's own view lists only assignments they belong to.
	rec, _ = do(t, h, http.MethodGet, "/api/v1/assignments/my", studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, rightID, mine[0]["id"])
}

func TestRoleGates(t *testing.T) {
	h, mock := newTestServer(t)
	expectTx(mock, 1)

	teacherToken, _ := register(t, h, "Ada", "ada@example.com", "teacher")
	studentToken, studentID := register(t, h, "Grace", "grace@example.com", "student")

	deadline := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	rec, body := do(t, h, http.MethodPost, "/api/v1/assignments", teacherToken, map[string]interface{}{
		"title":             "Homework",
		"description":       "d",
		"subject":           "s",
		"deadline":          deadline,
		"assigned_students": []string{studentID},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assignmentID, _ := body["id"].(string)

	studentForbidden := []struct {
		method, path string
		payload      interface{}
	}{
		{http.MethodPost, "/api/v1/assignments", map[string]interface{}{"title": "x", "description": "d", "subject": "s", "deadline": deadline}},
		{http.MethodGet, "/api/v1/users/students", nil},
		{http.MethodGet, "/api/v1/assignments/" + assignmentID + "/submissions", nil},
	}
	for _, tc := range studentForbidden {
		rec, _ := do(t, h, tc.method, tc.path, studentToken, tc.payload)
		assert.Equal(t, http.StatusForbidden, rec.Code, "%s %s as student", tc.method, tc.path)
	}

	teacherForbidden := []struct {
		method, path string
	}{
		{http.MethodPost, "/api/v1/assignments/" + assignmentID + "/complete"},
		{http.MethodGet, "/api/v1/submissions/my"},
	}
	for _, tc := range teacherForbidden {
		rec, _ := do(t, h, tc.method, tc.path, teacherToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code, "%s %s as teacher", tc.method, tc.path)
	}

	// Listing all assignments is open to both roles.
	rec, _ = do(t, h, http.MethodGet, "/api/v1/assignments", studentToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, h, http.MethodGet, "/api/v1/assignments", teacherToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	h, _ := newTestServer(t)

	for _, path := range []string{"/api/v1/users/me", "/api/v1/assignments", "/api/v1/submissions/my"} {
		rec, _ := do(t, h, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec, _ := do(t, h, http.MethodGet, "/api/v1/users/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfileUpdateOverHTTP(t *testing.T) {
	h, _ := newTestServer(t)

	token, _ := register(t, h, "Grace", "grace@example.com", "student")

	rec, body := do(t, h, http.MethodPut, "/api/v1/users/me", token, map[string]string{
		"theme_preference": "dark",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "dark", body["theme_preference"])
	assert.Equal(t, "Grace", body["name"])
	assert.Nil(t, body["password"])

	rec, body = do(t, h, http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dark", body["theme_preference"])
}

func TestDuplicateRegistration(t *testing.T) {
	h, _ := newTestServer(t)

	register(t, h, "Ada", "ada@example.com", "teacher")

	rec, body := do(t, h, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":     "Imposter",
		"email":    "ada@example.com",
		"password": "password123",
		"role":     "student",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "EMAIL_TAKEN", body["code"])
}

func TestLoginOverHTTP(t *testing.T) {
	h, _ := newTestServer(t)

	register(t, h, "Ada", "ada@example.com", "teacher")

	rec, body := do(t, h, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bearer", body["token_type"])
	assert.NotEmpty(t, body["access_token"])

	rec, body = do(t, h, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", body["code"])
}

func TestMalformedDeadlineRejected(t *testing.T) {
	h, _ := newTestServer(t)

	teacherToken, _ := register(t, h, "Ada", "ada@example.com", "teacher")

	rec, _ := do(t, h, http.MethodPost, "/api/v1/assignments", teacherToken, map[string]interface{}{
		"title":       "Bad date",
		"description": "d",
		"subject":     "s",
		"deadline":    "next tuesday",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	h, _ := newTestServer(t)

	rec, _ := do(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}
