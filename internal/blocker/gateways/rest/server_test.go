package rest

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/adonnan/form-blocker/internal/blocker/common/log"
	"github.com/adonnan/form-blocker/internal/blocker/domain"
	"github.com/adonnan/form-blocker/internal/blocker/repos/blocklist"
	"github.com/adonnan/form-blocker/internal/blocker/repos/blocklist/file"
	"github.com/adonnan/form-blocker/internal/blocker/repos/settings"
	"github.com/adonnan/form-blocker/internal/blocker/services/formcheck"
	"github.com/adonnan/form-blocker/internal/blocker/services/ingest"
)

const (
	testAPIKey     = "kkkkkkkkkkkkkkkkkkkkkkkkkkkkkkkkkkkkkkkk"
	testAdminToken = "admin-token-admin-token-admin-token"
)

type memStore struct{ m map[string]string }

func (s *memStore) Get(key string) (string, error) { return s.m[key], nil }
func (s *memStore) Set(key, value string) error    { s.m[key] = value; return nil }

type fixture struct {
	server   *Server
	lists    *blocklist.Repository
	settings *settings.Service
	kv       *memStore
}

func newFixture(t *testing.T, adminToken string) *fixture {
	t.Helper()

	logger := log.NewNoopLogger()
	store := file.New(filepath.Join(t.TempDir(), "blocklist.json"), logger)
	lists := blocklist.NewRepository(store, blocklist.NewTTLCache(time.Hour), logger)
	kv := &memStore{m: make(map[string]string)}
	settingsSvc := settings.New(kv)

	srv := New(Options{
		Lists:          lists,
		Ingest:         ingest.New(lists, logger),
		Checks:         formcheck.New(lists, settingsSvc),
		Settings:       settingsSvc,
		AdminToken:     adminToken,
		AllowedOrigins: []string{"*"},
		Logger:         logger,
	})

	return &fixture{server: srv, lists: lists, settings: settingsSvc, kv: kv}
}

func (f *fixture) enableAPI(t *testing.T) {
	t.Helper()
	require.NoError(t, f.settings.SetAPIEnabled(true))
	f.kv.m[settings.KeyAPIKey] = testAPIKey
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apiError {
	t.Helper()
	var e apiError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e
}

func TestGetList_DisabledAPIAlwaysForbidden(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"no key", "/api/v1/list"},
		{"valid key", "/api/v1/list?key=" + testAPIKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, testAdminToken)
			f.kv.m[settings.KeyAPIKey] = testAPIKey

			rec := f.do(httptest.NewRequest(http.MethodGet, tt.url, nil))
			require.Equal(t, http.StatusForbidden, rec.Code)
			require.Equal(t, "api_disabled", decodeError(t, rec).Code)
		})
	}
}

func TestGetList_MissingKey(t *testing.T) {
	f := newFixture(t, testAdminToken)
	f.enableAPI(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/list", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "missing_key", decodeError(t, rec).Code)
}

func TestGetList_NoStoredKeyIsServerFault(t *testing.T) {
	f := newFixture(t, testAdminToken)
	require.NoError(t, f.settings.SetAPIEnabled(true))

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/list?key=whatever", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "server_key_not_set", decodeError(t, rec).Code)
}

func TestGetList_InvalidKey(t *testing.T) {
	f := newFixture(t, testAdminToken)
	f.enableAPI(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/list?key=wrong", nil))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "invalid_key", decodeError(t, rec).Code)
}

func TestGetList_Success(t *testing.T) {
	f := newFixture(t, testAdminToken)
	f.enableAPI(t)
	require.NoError(t, f.lists.Replace(domain.Blocklist{
		Domains: []string{"spam.example"},
		Emails:  []string{"bad@good.example"},
	}))

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/list?key="+testAPIKey, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, []string{"spam.example"}, body.Domains)
	require.Equal(t, []string{"bad@good.example"}, body.Emails)
	// Built-in defaults appear when no messages were configured.
	require.Equal(t, settings.DefaultBlockedEmailMessage, body.Messages.BlockedEmail)
	require.Equal(t, settings.DefaultBlockedDomainMessage, body.Messages.BlockedDomain)
}

func TestGetList_ConfiguredMessages(t *testing.T) {
	f := newFixture(t, testAdminToken)
	f.enableAPI(t)
	require.NoError(t, f.settings.SetMessages("custom email msg", "custom domain msg"))

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/list?key="+testAPIKey, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "custom email msg", body.Messages.BlockedEmail)
	require.Equal(t, "custom domain msg", body.Messages.BlockedDomain)
}

func TestValidate_WorksWithAPIDisabled(t *testing.T) {
	f := newFixture(t, testAdminToken)
	f.kv.m[settings.KeyAPIKey] = testAPIKey
	require.NoError(t, f.lists.Replace(domain.Blocklist{
		Domains: []string{"spam.example"},
		Emails:  []string{},
	}))

	payload := `{"fields": [
		{"id": "1", "type": "email", "value": "anyone@spam.example"},
		{"id": "2", "type": "text", "input_type": "email", "value": "ok@good.example"},
		{"id": "3", "type": "text", "value": "hello"}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/validate?key="+testAPIKey, strings.NewReader(payload))
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var result formcheck.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.False(t, result.Valid)
	require.Len(t, result.Failures, 1)
	require.Equal(t, "1", result.Failures[0].FieldID)
	require.Equal(t, settings.DefaultBlockedDomainMessage, result.Failures[0].Message)
}

func TestValidate_RequiresKey(t *testing.T) {
	f := newFixture(t, testAdminToken)
	f.kv.m[settings.KeyAPIKey] = testAPIKey

	req := httptest.NewRequest(http.MethodPost, "/api/v1/validate", strings.NewReader(`{"fields": []}`))
	rec := f.do(req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdmin_AuthMatrix(t *testing.T) {
	tests := []struct {
		name       string
		adminToken string
		header     string
		wantStatus int
		wantCode   string
	}{
		{"token not configured", "", testAdminToken, http.StatusInternalServerError, "admin_token_not_set"},
		{"missing header", testAdminToken, "", http.StatusUnauthorized, "missing_admin_token"},
		{"wrong token", testAdminToken, "nope-nope-nope-nope-nope", http.StatusForbidden, "invalid_admin_token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.adminToken)

			req := httptest.NewRequest(http.MethodGet, "/admin/settings", nil)
			if tt.header != "" {
				req.Header.Set("X-Admin-Token", tt.header)
			}
			rec := f.do(req)
			require.Equal(t, tt.wantStatus, rec.Code)
			require.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}
}

func adminReq(method, target string, body *bytes.Buffer) *http.Request {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, body)
	}
	req.Header.Set("X-Admin-Token", testAdminToken)
	return req
}

func multipartUpload(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestAdmin_UploadReplacesList(t *testing.T) {
	f := newFixture(t, testAdminToken)
	f.enableAPI(t)

	body, contentType := multipartUpload(t, "list.json", `{"domains": ["Example.COM "], "emails": ["User@Example.com", "not-an-email"]}`)
	req := adminReq(http.MethodPost, "/admin/blocklist", body)
	req.Header.Set("Content-Type", contentType)

	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var counts map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &counts))
	require.Equal(t, 1, counts["domains"])
	require.Equal(t, 1, counts["emails"])

	// The public endpoint reflects the new list immediately.
	listRec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/list?key="+testAPIKey, nil))
	var listBody listResponse
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &listBody))
	require.Equal(t, []string{"example.com"}, listBody.Domains)
	require.Equal(t, []string{"user@example.com"}, listBody.Emails)
}

func TestAdmin_UploadRejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name, filename, content string
	}{
		{"wrong extension", "list.txt", `{"domains": []}`},
		{"array root", "list.json", `["a.example"]`},
		{"broken json", "list.json", `{ not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, testAdminToken)

			body, contentType := multipartUpload(t, tt.filename, tt.content)
			req := adminReq(http.MethodPost, "/admin/blocklist", body)
			req.Header.Set("Content-Type", contentType)

			rec := f.do(req)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Equal(t, "invalid_upload", decodeError(t, rec).Code)
		})
	}
}

func TestAdmin_UploadRequiresFilePart(t *testing.T) {
	f := newFixture(t, testAdminToken)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("note", "no file here"))
	require.NoError(t, w.Close())

	req := adminReq(http.MethodPost, "/admin/blocklist", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	rec := f.do(req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "no_file", decodeError(t, rec).Code)
}

func TestAdmin_RawBlocklist(t *testing.T) {
	f := newFixture(t, testAdminToken)
	require.NoError(t, f.lists.Replace(domain.Blocklist{
		Domains: []string{"spam.example"},
		Emails:  []string{},
	}))

	rec := f.do(adminReq(http.MethodGet, "/admin/blocklist", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "spam.example")
}

func TestAdmin_RegenerateAPIKey(t *testing.T) {
	f := newFixture(t, testAdminToken)
	require.NoError(t, f.settings.Init())
	oldKey := f.settings.APIKey()

	rec := f.do(adminReq(http.MethodPost, "/admin/api-key", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body["api_key"], 40)
	require.NotEqual(t, oldKey, body["api_key"])
	require.Equal(t, body["api_key"], f.settings.APIKey())
}

func TestAdmin_UpdateSettings(t *testing.T) {
	f := newFixture(t, testAdminToken)

	payload := bytes.NewBufferString(`{"api_enabled": true, "blocked_email_message": "custom email"}`)
	rec := f.do(adminReq(http.MethodPut, "/admin/settings", payload))
	require.Equal(t, http.StatusOK, rec.Code)

	var body settingsPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.APIEnabled)
	require.True(t, *body.APIEnabled)
	require.NotNil(t, body.BlockedEmailMessage)
	require.Equal(t, "custom email", *body.BlockedEmailMessage)
	// Untouched message keeps its (default) value.
	require.NotNil(t, body.BlockedDomainMessage)
	require.Equal(t, settings.DefaultBlockedDomainMessage, *body.BlockedDomainMessage)

	require.True(t, f.settings.APIEnabled())
	require.Equal(t, "custom email", f.settings.BlockedEmailMessage())
}
