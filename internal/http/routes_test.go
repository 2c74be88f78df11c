package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"earsip/internal/app"
	"earsip/internal/archive"
	"earsip/internal/attachment"
	"earsip/internal/auth"
	"earsip/internal/config"
	"earsip/internal/domain"
	"earsip/internal/services"
)

const testBaseURL = "http://localhost:8080"

var testAdmin = domain.User{Username: "admin", FullName: "Administrator LPSE", Role: domain.RoleAdministrator}

func setupTestServer(t *testing.T) (*gin.Engine, *app.Controller) {
	t.Helper()

	cfg := config.Config{
		Port:            "8080",
		BaseURL:         testBaseURL,
		DataDir:         t.TempDir(),
		StorageDriver:   config.StorageDriverFile,
		StorageSlot:     "earsip_test",
		MaxUploadMB:     1,
		PageSize:        5,
		SummaryProvider: config.SummaryProviderGemini,
		SummaryTimeout:  time.Second,
		SessionSecret:   "session-secret",
		SessionTTL:      time.Hour,
		ShareSecret:     "secret",
		ShareTTL:        time.Minute,
	}

	controller, closeStore, err := app.Open(cfg)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	t.Cleanup(func() { _ = closeStore() })

	directory, err := auth.NewDirectory(auth.DefaultAccounts())
	if err != nil {
		t.Fatalf("directory: %v", err)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	api := NewAPI(controller, directory, auth.NewSessions(cfg.SessionSecret, cfg.SessionTTL), services.NewShareService(cfg))
	registerRoutes(engine, api)

	return engine, controller
}

func login(t *testing.T, engine *gin.Engine, username, password string) string {
	t.Helper()

	payload := fmt.Sprintf(`{"username":%q,"password":%q}`, username, password)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d: %s", username, rec.Code, rec.Body.String())
	}

	var body struct {
		Token string      `json:"token"`
		User  domain.User `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if body.Token == "" {
		t.Fatalf("expected token in login response")
	}
	return body.Token
}

func authorized(method, target, token string, body *bytes.Reader) *http.Request {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, body)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func sampleDraft(subject string) domain.Draft {
	draft := domain.NewDraft(false, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	draft.LetterNumber = "010/LPSE/III/2024"
	draft.Subject = subject
	draft.Counterparty = "Biro Pengadaan"
	return draft
}

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()

	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if ok, exists := body["ok"].(bool); !exists || !ok {
		t.Fatalf("expected ok=true, body=%v", body)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"admin","password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), auth.ErrInvalidCredentials.Error()) {
		t.Fatalf("expected credential error, body=%s", rec.Body.String())
	}
}

func TestLettersRequireSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine, _ := setupTestServer(t)

	for _, header := range []string{"", "Bearer not-a-token"} {
		req := httptest.NewRequest(http.MethodGet, "/api/letters", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()

		engine.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
}

func TestMeReturnsSessionUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine, _ := setupTestServer(t)
	token := login(t, engine, "staf", "staf123")

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, authorized(http.MethodGet, "/api/auth/me", token, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var user domain.User
	if err := json.Unmarshal(rec.Body.Bytes(), &user); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if user.Username != "staf" || user.Role != domain.RoleUser {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestStaffCannotCreateLetter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine, controller := setupTestServer(t)
	token := login(t, engine, "staf", "staf123")

	payload, _ := json.Marshal(sampleDraft("Permohonan Akun SPSE"))
	req := authorized(http.MethodPost, "/api/letters", token, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if got := controller.Stats().Total; got != 1 {
		t.Fatalf("expected only the seed letter, got %d", got)
	}
}

func TestAdminCreateStoresFallbackSummary(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine, controller := setupTestServer(t)
	token := login(t, engine, "admin", "admin123")

	payload, _ := json.Marshal(sampleDraft("  Permohonan Akun SPSE  "))
	req := authorized(http.MethodPost, "/api/letters", token, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var letter domain.Letter
	if err := json.Unmarshal(rec.Body.Bytes(), &letter); err != nil {
		t.Fatalf("decode letter: %v", err)
	}
	if letter.ID == "" {
		t.Fatalf("expected generated id")
	}
	if letter.Subject != "Permohonan Akun SPSE" {
		t.Fatalf("expected trimmed subject, got %q", letter.Subject)
	}
	if letter.Summary != services.SummaryNotConfigured {
		t.Fatalf("expected fallback summary, got %q", letter.Summary)
	}

	page := controller.View(archive.NewViewState())
	if page.Total != 2 || page.Items[0].ID != letter.ID {
		t.Fatalf("expected new letter at the head, got %+v", page.Items)
	}
}

func TestCreateRejectsInvalidDraft(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine, _ := setupTestServer(t)
	token := login(t, engine, "admin", "admin123")

	draft := sampleDraft("   ")
	payload, _ := json.Marshal(draft)
	req := authorized(http.MethodPost, "/api/letters", token, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListLettersPaginatesAndFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine, controller := setupTestServer(t)

	for i := range 6 {
		if _, err := controller.Create(context.Background(), testAdmin, sampleDraft(fmt.Sprintf("Kontrak Paket %d", i))); err != nil {
			t.Fatalf("create letter %d: %v", i, err)
		}
	}
	token := login(t, engine, "staf", "staf123")

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, authorized(http.MethodGet, "/api/letters?page=2", token, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var page struct {
		Items     []domain.Letter `json:"items"`
		Page      int             `json:"page"`
		PageCount int             `json:"pageCount"`
		Total     int             `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.Total != 7 || page.PageCount != 2 || page.Page != 2 || len(page.Items) != 2 {
		t.Fatalf("unexpected page %+v", page)
	}
	if page.Items[1].ID != "1" {
		t.Fatalf("expected seed letter last, got %s", page.Items[1].ID)
	}

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, authorized(http.MethodGet, "/api/letters?scope=incoming&q=kominfo&page=9", token, nil))

	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.Total != 1 || page.Page != 1 || page.Items[0].Counterparty != "Kominfo NTB" {
		t.Fatalf("unexpected filtered page %+v", page)
	}

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, authorized(http.MethodGet, "/api/letters?scope=archive", token, nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown scope, got %d", rec.Code)
	}
}

func TestUpdateUnknownLetterReturnsNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine, _ := setupTestServer(t)
	token := login(t, engine, "admin", "admin123")

	payload, _ := json.Marshal(sampleDraft("Revisi"))
	req := authorized(http.MethodPut, "/api/letters/404", token, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, authorized(http.MethodDelete, "/api/letters/404", token, nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for deleting an unknown id, got %d", rec.Code)
	}
}

func TestRestoreRequiresConfirmation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine, controller := setupTestServer(t)
	token := login(t, engine, "admin", "admin123")

	backupFile := []byte(`[{"id":"a","subject":"Satu","direction":"Incoming","status":"Completed"},{"id":"b","subject":"Dua","direction":"Outgoing","status":"InProgress"}]`)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, authorized(http.MethodPost, "/api/system/restore", token, bytes.NewReader(backupFile)))

	if rec.Code != http.StatusPreconditionRequired {
		t.Fatalf("expected 428, got %d", rec.Code)
	}
	var pending struct {
		Records int `json:"records"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &pending); err != nil {
		t.Fatalf("decode pending restore: %v", err)
	}
	if pending.Records != 2 {
		t.Fatalf("expected 2 records, got %d", pending.Records)
	}
	if got := controller.Stats().Total; got != 1 {
		t.Fatalf("unconfirmed restore changed the archive: %d letters", got)
	}

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, authorized(http.MethodPost, "/api/system/restore?confirm=true", token, bytes.NewReader(backupFile)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	stats := controller.Stats()
	if stats.Total != 2 || stats.Outgoing != 1 || stats.Completed != 1 {
		t.Fatalf("unexpected stats after restore %+v", stats)
	}

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, authorized(http.MethodPost, "/api/system/restore?confirm=true", token, bytes.NewReader([]byte(`{"id":"x"}`))))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-array backup, got %d", rec.Code)
	}
	if got := controller.Stats().Total; got != 2 {
		t.Fatalf("failed restore changed the archive: %d letters", got)
	}
}

func TestBackupIsAdministratorOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine, _ := setupTestServer(t)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, authorized(http.MethodGet, "/api/system/backup", login(t, engine, "staf", "staf123"), nil))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, authorized(http.MethodGet, "/api/system/backup", login(t, engine, "admin", "admin123"), nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "Backup_EArsip_LPSE_NTB.json") {
		t.Fatalf("unexpected disposition %q", rec.Header().Get("Content-Disposition"))
	}

	var letters []domain.Letter
	if err := json.Unmarshal(rec.Body.Bytes(), &letters); err != nil {
		t.Fatalf("decode backup: %v", err)
	}
	if len(letters) != 1 || letters[0].ID != "1" {
		t.Fatalf("unexpected backup %+v", letters)
	}
}

func TestReportRendersPDF(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine, _ := setupTestServer(t)
	token := login(t, engine, "staf", "staf123")

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, authorized(http.MethodGet, "/api/report?scope=outgoing", token, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("expected a PDF body")
	}
}

func uploadRequest(t *testing.T, token, fileName, contentType string, data []byte) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := authorized(http.MethodPost, "/api/attachments", token, bytes.NewReader(body.Bytes()))
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestEncodeAttachment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine, _ := setupTestServer(t)
	token := login(t, engine, "admin", "admin123")

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, uploadRequest(t, token, "catatan.txt", "text/plain", []byte("hello")))

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, uploadRequest(t, token, "scan.png", "image/png", []byte("png-bytes")))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var encoded domain.Attachment
	if err := json.Unmarshal(rec.Body.Bytes(), &encoded); err != nil {
		t.Fatalf("decode attachment: %v", err)
	}
	if encoded.FileName != "scan.png" || encoded.FileType != "image/png" {
		t.Fatalf("unexpected attachment %+v", encoded)
	}
	if !strings.HasPrefix(encoded.FileData, "data:image/png;base64,") {
		t.Fatalf("expected data URL, got %q", encoded.FileData)
	}

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, uploadRequest(t, token, "besar.pdf", "application/pdf", bytes.Repeat([]byte("x"), 1024*1024+1)))

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}

func TestShareLinkValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine, controller := setupTestServer(t)

	draft := sampleDraft("Berita Acara")
	draft.Attachment = &domain.Attachment{
		FileName: "ba.pdf",
		FileType: attachment.MimePDF,
		FileData: attachment.EncodeDataURL(attachment.MimePDF, []byte("%PDF-1.4 berita acara")),
	}
	letter, err := controller.Create(context.Background(), testAdmin, draft)
	if err != nil {
		t.Fatalf("create letter: %v", err)
	}
	token := login(t, engine, "staf", "staf123")

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, authorized(http.MethodPost, "/api/letters/1/share", token, nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a letter without attachment, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, authorized(http.MethodPost, "/api/letters/"+letter.ID+"/share", token, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode share response: %v", err)
	}

	signedPath, ok := strings.CutPrefix(body.URL, testBaseURL)
	if !ok {
		t.Fatalf("expected url under %s, got %q", testBaseURL, body.URL)
	}

	validRec := httptest.NewRecorder()
	engine.ServeHTTP(validRec, httptest.NewRequest(http.MethodGet, signedPath, nil))

	if validRec.Code != http.StatusOK {
		t.Fatalf("expected 200 for signed link, got %d", validRec.Code)
	}
	if validRec.Body.String() != "%PDF-1.4 berita acara" {
		t.Fatalf("unexpected file body %q", validRec.Body.String())
	}

	invalidReq := httptest.NewRequest(http.MethodGet, "/files/"+letter.ID+"?exp=9999999999&sig=invalid", nil)
	invalidRec := httptest.NewRecorder()

	engine.ServeHTTP(invalidRec, invalidReq)

	if invalidRec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for invalid signature, got %d", invalidRec.Code)
	}

	expiredReq := httptest.NewRequest(http.MethodGet, "/files/"+letter.ID+"?exp=1&sig=whatever", nil)
	expiredRec := httptest.NewRecorder()

	engine.ServeHTTP(expiredRec, expiredReq)

	if expiredRec.Code != http.StatusGone {
		t.Fatalf("expected 410 for expired link, got %d", expiredRec.Code)
	}
}

func TestCreateRejectsUngatedAttachment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine, controller := setupTestServer(t)
	token := login(t, engine, "admin", "admin123")

	cases := []struct {
		name string
		att  domain.Attachment
		want int
	}{
		{"executable", domain.Attachment{FileName: "setup.exe", FileType: "application/x-msdownload", FileData: attachment.EncodeDataURL("application/x-msdownload", []byte("MZ"))}, http.StatusUnsupportedMediaType},
		{"oversized pdf", domain.Attachment{FileName: "big.pdf", FileType: attachment.MimePDF, FileData: attachment.EncodeDataURL(attachment.MimePDF, bytes.Repeat([]byte("x"), 1024*1024+1))}, http.StatusRequestEntityTooLarge},
	}
	for _, tc := range cases {
		draft := sampleDraft("Lampiran " + tc.name)
		att := tc.att
		draft.Attachment = &att
		payload, _ := json.Marshal(draft)

		for _, method := range []string{http.MethodPost, http.MethodPut} {
			target := "/api/letters"
			if method == http.MethodPut {
				target = "/api/letters/1"
			}
			req := authorized(method, target, token, bytes.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			engine.ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("%s %s: expected %d, got %d: %s", tc.name, method, tc.want, rec.Code, rec.Body.String())
			}
		}
	}

	if got := controller.Stats().Total; got != 1 {
		t.Fatalf("expected only the seed letter, got %d", got)
	}
	seed, err := controller.Get("1")
	if err != nil {
		t.Fatalf("get seed: %v", err)
	}
	if seed.HasAttachment() {
		t.Fatalf("seed letter must stay without attachment")
	}
}

func TestDownloadUnreadableAttachment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine, _ := setupTestServer(t)
	token := login(t, engine, "admin", "admin123")

	backupFile := []byte(`[{"id":"7","subject":"Lama","fileName":"lama.pdf","fileType":"application/pdf","fileData":"bukan data url"}]`)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, authorized(http.MethodPost, "/api/system/restore?confirm=true", token, bytes.NewReader(backupFile)))

	if rec.Code != http.StatusOK {
		t.Fatalf("restore: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, authorized(http.MethodGet, "/api/letters/7/attachment", token, nil))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unreadable attachment, got %d", rec.Code)
	}
}
