package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/uptrace/bun"

	"pipetrak/frontend/login"
	"pipetrak/infrastructure/audit"
	"pipetrak/infrastructure/cache"
	"pipetrak/infrastructure/rbac"
	"pipetrak/infrastructure/sqlite"
)

type integrationEnv struct {
	server *httptest.Server
	db     *sqlite.DB
}

func setupIntegrationServer(t *testing.T) (*integrationEnv, *http.Client) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "server-integration.db")
	db, err := sqlite.OpenDB(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	migrationsDir := filepath.Join(filepath.Dir(file), "..", "sqlite", "migrations")
	if err := sqlite.ApplyMigrations(context.Background(), db, migrationsDir); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	if err := login.UpsertUserPasswordHash(context.Background(), db, "admin", "admin", "Admin123!PipeTrak"); err != nil {
		t.Fatalf("seed admin user: %v", err)
	}
	if err := login.UpsertUserPasswordHash(context.Background(), db, "engineer1", "engineer", "Engineer123!PipeTrak"); err != nil {
		t.Fatalf("seed engineer user: %v", err)
	}
	if err := login.UpsertUserPasswordHash(context.Background(), db, "viewer1", "viewer", "Viewer123!PipeTrak"); err != nil {
		t.Fatalf("seed viewer user: %v", err)
	}
	if err := db.WithWriteTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO projects (name, description, project_date, client_name, code, status, created_at, updated_at)
VALUES ('Integration Default', 'Default project for integration tests', DATE('now'), 'Test Client', 'it-default', 'active', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
`)
		return err
	}); err != nil {
		t.Fatalf("seed default project: %v", err)
	}

	sessionCache := cache.NewUserSessionCache()
	userCache := cache.NewUserCache()
	rbacCache := cache.NewRbacRolesCache()
	rbacSvc := rbac.New(rbacCache)
	auditSvc := audit.NewService()

	s := NewServer("127.0.0.1:0", db, sessionCache, userCache, rbacSvc, rbacCache, auditSvc)
	ts := httptest.NewServer(s.router)
	env := &integrationEnv{server: ts, db: db}
	t.Cleanup(func() {
		env.server.Close()
		_ = env.db.Close()
	})

	return env, newHTTPClient(t)
}

func newHTTPClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func postForm(t *testing.T, client *http.Client, baseURL, path string, data url.Values) *http.Response {
	t.Helper()
	if data == nil {
		data = url.Values{}
	}
	if token := csrfToken(t, client, baseURL); token != "" {
		data.Set("_csrf", token)
	}
	resp, err := client.PostForm(baseURL+path, data)
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	return resp
}

func postJSON(t *testing.T, client *http.Client, baseURL, path string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal json payload: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, baseURL+path, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build json request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := csrfToken(t, client, baseURL); token != "" {
		req.Header.Set("X-CSRF-Token", token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("POST json %s failed: %v", path, err)
	}
	return resp
}

func postMultipartFile(t *testing.T, client *http.Client, baseURL, path, fieldName, fileName string, fileContents []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if token := csrfToken(t, client, baseURL); token != "" {
		if err := writer.WriteField("_csrf", token); err != nil {
			t.Fatalf("write csrf multipart field: %v", err)
		}
	}

	part, err := writer.CreateFormFile(fieldName, fileName)
	if err != nil {
		t.Fatalf("create multipart file field: %v", err)
	}
	if _, err := part.Write(fileContents); err != nil {
		t.Fatalf("write multipart file content: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+path, &body)
	if err != nil {
		t.Fatalf("build multipart request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("POST multipart %s failed: %v", path, err)
	}
	return resp
}

func get(t *testing.T, client *http.Client, baseURL, path string) *http.Response {
	t.Helper()
	resp, err := client.Get(baseURL + path)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	return resp
}

func csrfToken(t *testing.T, client *http.Client, baseURL string) string {
	t.Helper()
	u, err := url.Parse(baseURL)
	if err != nil {
		t.Fatalf("parse base url: %v", err)
	}
	for _, c := range client.Jar.Cookies(u) {
		if c.Name == "X-CSRF-Token" {
			return c.Value
		}
	}
	return ""
}

func loginAs(t *testing.T, client *http.Client, baseURL, username, password string) {
	t.Helper()

	resp := get(t, client, baseURL, "/login")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected login page 200, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	resp = postForm(t, client, baseURL, "/login", url.Values{
		"username": {username},
		"password": {password},
	})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected login 303, got %d", resp.StatusCode)
	}
	location := resp.Header.Get("Location")
	if !strings.Contains(location, "/tasker/drawings") && !strings.Contains(location, "/tasker/projects") {
		t.Fatalf("unexpected login redirect: %s", location)
	}
	_ = resp.Body.Close()
}

func componentIDByCode(t *testing.T, db *sqlite.DB, code string) int64 {
	t.Helper()
	var id int64
	err := db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT id FROM components WHERE code = ? LIMIT 1`, code).Scan(ctx, &id)
	})
	if err != nil {
		t.Fatalf("load component id for code %s: %v", code, err)
	}
	return id
}

func milestoneIDByName(t *testing.T, db *sqlite.DB, componentID int64, name string) int64 {
	t.Helper()
	var id int64
	err := db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT id FROM component_milestones WHERE component_id = ? AND name = ? LIMIT 1`, componentID, name).Scan(ctx, &id)
	})
	if err != nil {
		t.Fatalf("load milestone id for component %d %s: %v", componentID, name, err)
	}
	return id
}

func componentStatus(t *testing.T, db *sqlite.DB, componentID int64) (percent int64, status string) {
	t.Helper()
	err := db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT completion_percent, status FROM components WHERE id = ?`, componentID).Scan(ctx, &percent, &status)
	})
	if err != nil {
		t.Fatalf("load component status: %v", err)
	}
	return percent, status
}

func countExportRunsForUserType(t *testing.T, db *sqlite.DB, username, exportType string) int64 {
	t.Helper()
	var count int64
	err := db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`
SELECT COUNT(*)
FROM export_runs er
JOIN users u ON u.id = er.user_id
WHERE u.username = ? AND er.export_type = ?`, username, exportType).Scan(ctx, &count)
	})
	if err != nil {
		t.Fatalf("count export runs: %v", err)
	}
	return count
}

func viewerProjectGrant(t *testing.T, db *sqlite.DB, username string, projectID int64) {
	t.Helper()
	err := db.WithWriteTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO viewer_project_access (user_id, project_id, created_at)
SELECT id, ?, CURRENT_TIMESTAMP FROM users WHERE username = ?`, projectID, username)
		return err
	})
	if err != nil {
		t.Fatalf("grant viewer project access: %v", err)
	}
}

func importComponentsFixture(t *testing.T, client *http.Client, baseURL string) {
	t.Helper()
	csv := strings.Join([]string{
		"drawing,code,type,workflow,template,quantity,unit",
		"ISO-100,SPOOL-001,Spool,MILESTONE_DISCRETE,Reduced Install,,",
		"ISO-100,SPOOL-002,Spool,MILESTONE_DISCRETE,Reduced Install,,",
	}, "\n")
	resp := postMultipartFile(t, client, baseURL, "/tasker/imports", "file", "components.csv", []byte(csv))
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected import 303, got %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Location"), "/tasker/imports?status=") {
		t.Fatalf("expected import success redirect, got %s", resp.Header.Get("Location"))
	}
	_ = resp.Body.Close()
}

func TestCSRFPostWithoutTokenRejected(t *testing.T) {
	env, client := setupIntegrationServer(t)

	// No GET first: no CSRF token available in cookie or form.
	resp, err := client.PostForm(env.server.URL+"/login", url.Values{
		"username": {"admin"},
		"password": {"Admin123!PipeTrak"},
	})
	if err != nil {
		t.Fatalf("post login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for missing csrf, got %d", resp.StatusCode)
	}
}

func TestCSRFPostWithTokenAccepted(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, "admin", "Admin123!PipeTrak")
}

func TestLoginRedirectsByRole(t *testing.T) {
	env, _ := setupIntegrationServer(t)
	adminClient := newHTTPClient(t)
	viewerClient := newHTTPClient(t)

	resp := get(t, adminClient, env.server.URL, "/login")
	_ = resp.Body.Close()
	resp = postForm(t, adminClient, env.server.URL, "/login", url.Values{
		"username": {"admin"},
		"password": {"Admin123!PipeTrak"},
	})
	if !strings.Contains(resp.Header.Get("Location"), "/tasker/projects") {
		t.Fatalf("expected admin redirect to projects, got %s", resp.Header.Get("Location"))
	}
	_ = resp.Body.Close()

	resp = get(t, viewerClient, env.server.URL, "/login")
	_ = resp.Body.Close()
	resp = postForm(t, viewerClient, env.server.URL, "/login", url.Values{
		"username": {"viewer1"},
		"password": {"Viewer123!PipeTrak"},
	})
	if !strings.Contains(resp.Header.Get("Location"), "/tasker/drawings") {
		t.Fatalf("expected viewer redirect to drawings, got %s", resp.Header.Get("Location"))
	}
	_ = resp.Body.Close()
}

func TestViewerReadOnlyAccess(t *testing.T) {
	env, _ := setupIntegrationServer(t)
	viewerClient := newHTTPClient(t)
	viewerProjectGrant(t, env.db, "viewer1", 1)

	loginAs(t, viewerClient, env.server.URL, "viewer1", "Viewer123!PipeTrak")

	resp := get(t, viewerClient, env.server.URL, "/tasker/drawings")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected viewer drawings 200, got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read viewer drawings body: %v", err)
	}
	_ = resp.Body.Close()
	text := string(body)
	if strings.Contains(text, "New drawing") {
		t.Fatalf("viewer should not see the create drawing form")
	}
	if strings.Contains(text, `/tasker/imports`) || strings.Contains(text, `/tasker/admin/users`) {
		t.Fatalf("viewer navigation should not include edit or admin links")
	}

	resp = postForm(t, viewerClient, env.server.URL, "/tasker/drawings", url.Values{
		"number": {"ISO-VIEWER"},
	})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected viewer create drawing denied 303, got %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Location"), "/login") {
		t.Fatalf("expected viewer create drawing redirect to login, got %s", resp.Header.Get("Location"))
	}
	_ = resp.Body.Close()

	for _, path := range []string{"/tasker/imports", "/tasker/exports", "/tasker/admin/users"} {
		resp = get(t, viewerClient, env.server.URL, path)
		if resp.StatusCode != http.StatusSeeOther {
			t.Fatalf("expected viewer %s denied 303, got %d", path, resp.StatusCode)
		}
		if !strings.Contains(resp.Header.Get("Location"), "/login") {
			t.Fatalf("expected viewer %s redirect to login, got %s", path, resp.Header.Get("Location"))
		}
		_ = resp.Body.Close()
	}
}

func TestEngineerAllowedImportsDeniedAdminScreens(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, "engineer1", "Engineer123!PipeTrak")

	resp := get(t, client, env.server.URL, "/tasker/imports")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected engineer imports 200, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	resp = postForm(t, client, env.server.URL, "/tasker/admin/users", url.Values{
		"username": {"blocked"},
		"password": {"Blocked123!Pass"},
		"role":     {"engineer"},
	})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected engineer create user denied 303, got %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Location"), "/login") {
		t.Fatalf("expected engineer create user redirect to login, got %s", resp.Header.Get("Location"))
	}
	_ = resp.Body.Close()
}

func TestAdminUsersCreateViewerWithProjects(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, "admin", "Admin123!PipeTrak")

	resp := postForm(t, client, env.server.URL, "/tasker/admin/users", url.Values{
		"username":           {"viewer9"},
		"password":           {"Viewer9!StrongPass"},
		"role":               {"viewer"},
		"viewer_project_ids": {"1"},
	})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected create viewer 303, got %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Location"), "/tasker/admin/users?status=") {
		t.Fatalf("expected success redirect, got %s", resp.Header.Get("Location"))
	}
	_ = resp.Body.Close()

	var count int64
	err := env.db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`
SELECT COUNT(*) FROM viewer_project_access
WHERE user_id = (SELECT id FROM users WHERE username = 'viewer9')`).Scan(ctx, &count)
	})
	if err != nil {
		t.Fatalf("count viewer access rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 viewer access row, got %d", count)
	}
}

func TestImportInvalidHeaderShowsErrorMessage(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, "admin", "Admin123!PipeTrak")

	resp := postMultipartFile(
		t,
		client,
		env.server.URL,
		"/tasker/imports",
		"file",
		"invalid.csv",
		[]byte("sku,description\nSKU-A,Alpha\n"),
	)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected invalid import 303, got %d", resp.StatusCode)
	}
	location := resp.Header.Get("Location")
	if !strings.Contains(location, "/tasker/imports?error=") {
		t.Fatalf("expected import redirect with error, got %s", location)
	}
	if !strings.Contains(location, "invalid+CSV+header") {
		t.Fatalf("expected invalid header message in redirect, got %s", location)
	}
	_ = resp.Body.Close()

	resp = get(t, client, env.server.URL, location)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected import page 200, got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read import page body: %v", err)
	}
	_ = resp.Body.Close()
	text := string(body)
	if !strings.Contains(text, "invalid CSV header; expected drawing,code,type,workflow,template,quantity,unit") {
		t.Fatalf("expected invalid header banner on import page")
	}
}

func TestExportRunLogged(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, "admin", "Admin123!PipeTrak")

	resp := get(t, client, env.server.URL, "/tasker/exports/components.csv")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected export status 200, got %d", resp.StatusCode)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	count := countExportRunsForUserType(t, env.db, "admin", "components_csv")
	if count != 1 {
		t.Fatalf("expected 1 export run, got %d", count)
	}
}

func TestServerEndToEndCoreFlow(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, "admin", "Admin123!PipeTrak")

	importComponentsFixture(t, client, env.server.URL)

	resp := get(t, client, env.server.URL, "/tasker/drawings")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected drawings page 200, got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read drawings body: %v", err)
	}
	_ = resp.Body.Close()
	if !strings.Contains(string(body), "ISO-100") {
		t.Fatalf("expected imported drawing listed")
	}

	componentID := componentIDByCode(t, env.db, "SPOOL-001")
	receiveID := milestoneIDByName(t, env.db, componentID, "Receive")
	erectID := milestoneIDByName(t, env.db, componentID, "Erect")

	// Erect before Receive is rejected by the workflow.
	path := "/tasker/api/components/" + strconv.FormatInt(componentID, 10) + "/milestones/" + strconv.FormatInt(erectID, 10)
	resp = postJSON(t, client, env.server.URL, path, map[string]any{"action": "complete"})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected gated milestone 422, got %d", resp.StatusCode)
	}
	var rejected struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rejected); err != nil {
		t.Fatalf("decode rejection: %v", err)
	}
	_ = resp.Body.Close()
	if !strings.HasPrefix(rejected.Error, "not eligible:") {
		t.Fatalf("expected not eligible error, got %q", rejected.Error)
	}

	path = "/tasker/api/components/" + strconv.FormatInt(componentID, 10) + "/milestones/" + strconv.FormatInt(receiveID, 10)
	resp = postJSON(t, client, env.server.URL, path, map[string]any{"action": "complete"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected milestone update 200, got %d", resp.StatusCode)
	}
	var updated struct {
		OK                bool   `json:"ok"`
		CompletionPercent int    `json:"completion_percent"`
		Status            string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		t.Fatalf("decode update: %v", err)
	}
	_ = resp.Body.Close()
	if !updated.OK || updated.CompletionPercent != 10 || updated.Status != "IN_PROGRESS" {
		t.Fatalf("unexpected update response: %+v", updated)
	}

	percent, status := componentStatus(t, env.db, componentID)
	if percent != 10 || status != "IN_PROGRESS" {
		t.Fatalf("expected persisted 10%%/IN_PROGRESS, got %d%%/%s", percent, status)
	}

	resp = get(t, client, env.server.URL, "/tasker/exports/components.csv")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected export 200, got %d", resp.StatusCode)
	}
	csvBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read export body: %v", err)
	}
	_ = resp.Body.Close()
	csvText := string(csvBody)
	if !strings.Contains(csvText, "drawing,code,type,workflow,status,completion_percent") {
		t.Fatalf("missing csv header")
	}
	if !strings.Contains(csvText, "SPOOL-001") {
		t.Fatalf("missing exported component")
	}
}

func TestBulkUpdateFlowWithPartialFailure(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, "admin", "Admin123!PipeTrak")

	importComponentsFixture(t, client, env.server.URL)

	spool1 := componentIDByCode(t, env.db, "SPOOL-001")
	spool2 := componentIDByCode(t, env.db, "SPOOL-002")

	// Complete Receive on SPOOL-001 only, then bulk-complete Erect for
	// both: SPOOL-002 must fail while SPOOL-001 succeeds.
	receiveID := milestoneIDByName(t, env.db, spool1, "Receive")
	path := "/tasker/api/components/" + strconv.FormatInt(spool1, 10) + "/milestones/" + strconv.FormatInt(receiveID, 10)
	resp := postJSON(t, client, env.server.URL, path, map[string]any{"action": "complete"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected receive update 200, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	resp = postForm(t, client, env.server.URL, "/tasker/bulk", url.Values{
		"component_ids":  {strconv.FormatInt(spool1, 10), strconv.FormatInt(spool2, 10)},
		"milestone_name": {"Erect"},
		"action":         {"complete"},
	})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected bulk perform 303, got %d", resp.StatusCode)
	}
	location := resp.Header.Get("Location")
	if !strings.Contains(location, "/tasker/bulk/results/") {
		t.Fatalf("expected bulk result redirect, got %s", location)
	}
	_ = resp.Body.Close()

	resp = get(t, client, env.server.URL, location)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected bulk result page 200, got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read bulk result body: %v", err)
	}
	_ = resp.Body.Close()
	text := string(body)
	if !strings.Contains(text, "SPOOL-002") {
		t.Fatalf("expected failed component listed on result page")
	}
	if !strings.Contains(text, "not eligible") {
		t.Fatalf("expected failure category on result page")
	}

	percent1, _ := componentStatus(t, env.db, spool1)
	percent2, _ := componentStatus(t, env.db, spool2)
	if percent1 != 70 {
		t.Fatalf("expected SPOOL-001 at 70%% after bulk erect, got %d", percent1)
	}
	if percent2 != 0 {
		t.Fatalf("expected SPOOL-002 untouched, got %d", percent2)
	}

	// Fix the gap and retry only the failed item.
	receive2 := milestoneIDByName(t, env.db, spool2, "Receive")
	path = "/tasker/api/components/" + strconv.FormatInt(spool2, 10) + "/milestones/" + strconv.FormatInt(receive2, 10)
	resp = postJSON(t, client, env.server.URL, path, map[string]any{"action": "complete"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected receive update 200, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	retryPath := strings.TrimPrefix(location, env.server.URL) + "/retry"

	// Submitting the retry form with nothing ticked is rejected.
	resp = postForm(t, client, env.server.URL, retryPath, nil)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected empty retry redirect 303, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); !strings.Contains(loc, "error=") {
		t.Fatalf("expected error redirect for empty retry, got %s", loc)
	}
	_ = resp.Body.Close()

	resp = postForm(t, client, env.server.URL, retryPath, url.Values{
		"failure_keys": {strconv.FormatInt(spool2, 10) + "|Erect"},
	})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected bulk retry 303, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	percent2, status2 := componentStatus(t, env.db, spool2)
	if percent2 != 70 || status2 != "IN_PROGRESS" {
		t.Fatalf("expected SPOOL-002 at 70%%/IN_PROGRESS after retry, got %d%%/%s", percent2, status2)
	}
}
