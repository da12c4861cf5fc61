package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharemycard/sharemycard-backend/internal/api/middleware"
	"github.com/sharemycard/sharemycard-backend/internal/config"
	"github.com/sharemycard/sharemycard-backend/internal/notification"
	"github.com/sharemycard/sharemycard-backend/internal/ratelimit"
	"github.com/sharemycard/sharemycard-backend/internal/repository"
	"github.com/sharemycard/sharemycard-backend/internal/service"
	"github.com/sharemycard/sharemycard-backend/internal/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router        *gin.Engine
	repos         *repository.Repositories
	ownerToken    string
	strangerToken string
	card          *repository.BusinessCard
	deadCard      *repository.BusinessCard
	qr            *repository.CustomQRCode
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	cfg := &config.Config{
		JWTSecret:        "test-secret",
		JWTExpiry:        1,
		RefreshExpiry:    1,
		PublicBaseURL:    "https://sharemycard.app",
		DemoAccountEmail: "demo@sharemycard.app",
	}
	repos := repository.NewInMemoryRepositories()
	services := service.NewServices(&service.ServiceDeps{
		Config:   cfg,
		Repos:    repos,
		NotifSvc: notification.NewService(repos.NotificationRepo),
	})

	r := gin.New()
	RegisterRoutes(r.Group("/api"), NewHandlers(services),
		middleware.AuthMiddleware(services.Auth),
		middleware.RateLimit(ratelimit.NewMemoryLimiter(10, time.Minute)))

	owner, ownerTokens, err := services.Auth.Register(ctx, "Sam Owner", "owner@example.com", "password123")
	require.NoError(t, err)
	_, strangerTokens, err := services.Auth.Register(ctx, "Stranger", "stranger@example.com", "password123")
	require.NoError(t, err)

	card := &repository.BusinessCard{UserID: owner.ID, FirstName: "Sam", LastName: "Owner", IsActive: true}
	require.NoError(t, repos.SourceRepo.CreateCard(ctx, card))
	deadCard := &repository.BusinessCard{UserID: owner.ID, FirstName: "Old", LastName: "Card", IsActive: false}
	require.NoError(t, repos.SourceRepo.CreateCard(ctx, deadCard))
	qr := &repository.CustomQRCode{UserID: owner.ID, Type: types.QRTypeURL, Status: types.QRStatusActive}
	require.NoError(t, repos.SourceRepo.CreateQRCode(ctx, qr))

	return &testEnv{
		router:        r,
		repos:         repos,
		ownerToken:    ownerTokens.AccessToken,
		strangerToken: strangerTokens.AccessToken,
		card:          card,
		deadCard:      deadCard,
		qr:            qr,
	}
}

func (e *testEnv) capture(form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/leads/capture", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "test-agent")
	req.RemoteAddr = "203.0.113.50:5555"
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func janeForm(key, id string) url.Values {
	return url.Values{
		"first_name":    {"Jane"},
		"last_name":     {"Doe"},
		"email_primary": {"jane@x.com"},
		"city":          {"  "},
		key:             {id},
	}
}

func TestCaptureConvertListScenario(t *testing.T) {
	e := newTestEnv(t)

	w := e.capture(janeForm("business_card_id", e.card.ID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Thank you for your interest! We'll be in touch soon.", body["message"])
	leadID := int64(body["lead_id"].(float64))
	assert.Positive(t, leadID)

	w = e.do(http.MethodPost, "/api/leads/convert", e.ownerToken, gin.H{"lead_id": leadID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body = decode(t, w)
	assert.Equal(t, "Lead converted to contact successfully", body["message"])
	contactID := body["data"].(map[string]interface{})["contact_id"].(float64)
	assert.Positive(t, contactID)

	w = e.do(http.MethodGet, "/api/contacts/", e.ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	data := body["data"].([]interface{})
	require.Len(t, data, 1)
	contact := data[0].(map[string]interface{})
	assert.Equal(t, "jane@x.com", contact["email_primary"])
	assert.Equal(t, float64(leadID), contact["id_lead"])
	assert.Equal(t, "203.0.113.50", contact["ip_address"])
	assert.Nil(t, contact["city"])

	// Second conversion of the same lead.
	w = e.do(http.MethodPost, "/api/leads/convert", e.ownerToken, gin.H{"lead_id": fmt.Sprint(leadID)})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])
}

func TestCaptureFromQRCode(t *testing.T) {
	e := newTestEnv(t)

	w := e.capture(janeForm("qr_id", e.qr.ID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(http.MethodGet, "/api/leads/", e.ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(1), body["count"])
	lead := body["data"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, types.SourceCustomQRCode, lead["source_type"])
	assert.Equal(t, e.qr.ID, lead["id_custom_qr_code"])
	assert.Nil(t, lead["id_business_card"])
	assert.Equal(t, types.LeadNew, lead["status"])
}

func TestCaptureValidation(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		name    string
		form    url.Values
		status  int
		message string
	}{
		{
			name:    "no source",
			form:    url.Values{"first_name": {"Jane"}, "last_name": {"Doe"}, "email_primary": {"j@x.com"}},
			status:  http.StatusBadRequest,
			message: "Business card ID or QR ID is required",
		},
		{
			name: "both sources",
			form: url.Values{"first_name": {"Jane"}, "last_name": {"Doe"}, "email_primary": {"j@x.com"},
				"business_card_id": {e.card.ID}, "qr_id": {e.qr.ID}},
			status:  http.StatusBadRequest,
			message: "Provide either business_card_id or qr_id, not both",
		},
		{
			name:    "missing last name",
			form:    url.Values{"first_name": {"Jane"}, "email_primary": {"j@x.com"}, "business_card_id": {e.card.ID}},
			status:  http.StatusBadRequest,
			message: "Last name is required",
		},
		{
			name:    "deactivated card",
			form:    janeForm("business_card_id", e.deadCard.ID),
			status:  http.StatusNotFound,
			message: "Business card not found",
		},
		{
			name:    "unknown qr",
			form:    janeForm("qr_id", "00000000-0000-0000-0000-000000000000"),
			status:  http.StatusNotFound,
			message: "QR code not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.capture(tt.form)
			assert.Equal(t, tt.status, w.Code)
			body := decode(t, w)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.message, body["message"])
		})
	}
}

func TestCaptureRateLimited(t *testing.T) {
	e := newTestEnv(t)

	for i := 0; i < 10; i++ {
		w := e.capture(janeForm("business_card_id", e.card.ID))
		require.Equal(t, http.StatusOK, w.Code, "capture %d", i+1)
	}
	w := e.capture(janeForm("business_card_id", e.card.ID))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestOwnerRoutesRequireAuth(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodGet, "/api/leads/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])

	w = e.do(http.MethodGet, "/api/contacts/", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestConvertForeignLeadIsNotFound(t *testing.T) {
	e := newTestEnv(t)
	leadID := decode(t, e.capture(janeForm("business_card_id", e.card.ID)))["lead_id"]

	w := e.do(http.MethodPost, "/api/leads/convert", e.strangerToken, gin.H{"lead_id": leadID})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Lead not found", decode(t, w)["message"])

	w = e.do(http.MethodPost, "/api/leads/convert", e.ownerToken, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLeadUpdateAndDelete(t *testing.T) {
	e := newTestEnv(t)
	leadID := decode(t, e.capture(janeForm("business_card_id", e.card.ID)))["lead_id"]

	w := e.do(http.MethodPut, "/api/leads/", e.ownerToken, gin.H{"id": leadID, "last_name": "Smith", "bogus": "x"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Lead updated successfully", decode(t, w)["message"])

	w = e.do(http.MethodGet, fmt.Sprintf("/api/leads/%v", leadID), e.ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	lead := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "Jane Smith", lead["full_name"])

	w = e.do(http.MethodPut, "/api/leads/", e.ownerToken, gin.H{"id": leadID, "bogus": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No valid fields to update", decode(t, w)["message"])

	w = e.do(http.MethodDelete, fmt.Sprintf("/api/leads/?id=%v", leadID), e.strangerToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(http.MethodDelete, fmt.Sprintf("/api/leads/?id=%v", leadID), e.ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Lead deleted successfully", decode(t, w)["message"])

	w = e.do(http.MethodGet, fmt.Sprintf("/api/leads/%v", leadID), e.ownerToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteConvertedLeadRejected(t *testing.T) {
	e := newTestEnv(t)
	leadID := decode(t, e.capture(janeForm("business_card_id", e.card.ID)))["lead_id"]
	require.Equal(t, http.StatusOK, e.do(http.MethodPost, "/api/leads/convert", e.ownerToken, gin.H{"lead_id": leadID}).Code)

	w := e.do(http.MethodDelete, fmt.Sprintf("/api/leads/?id=%v", leadID), e.ownerToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Cannot delete lead that has been converted to contact", decode(t, w)["message"])
}

func TestContactLifecycle(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodPost, "/api/contacts/", e.ownerToken, gin.H{
		"first_name":    "Ada",
		"last_name":     "Lovelace",
		"email_primary": "ada@example.com",
		"job_title":     "Analyst",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)["data"].(map[string]interface{})
	id := created["id"]
	assert.Equal(t, types.ContactSourceManual, created["source"])
	assert.Nil(t, created["id_lead"])

	w = e.do(http.MethodPost, "/api/contacts/", e.ownerToken, gin.H{"first_name": "A", "last_name": "B", "email_primary": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid email format", decode(t, w)["message"])

	w = e.do(http.MethodGet, fmt.Sprintf("/api/contacts/?id=%v", id), e.ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ada Lovelace", decode(t, w)["data"].(map[string]interface{})["full_name"])

	w = e.do(http.MethodGet, fmt.Sprintf("/api/contacts/%v", id), e.strangerToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Contact not found", decode(t, w)["message"])

	w = e.do(http.MethodPut, "/api/contacts/", e.ownerToken, gin.H{"id": id, "organization_name": "Analytical Engines"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(http.MethodGet, fmt.Sprintf("/api/contacts/%v/vcf", id), e.ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/vcard; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="Ada-Lovelace.vcf"`)
	assert.Contains(t, w.Body.String(), "ORG:Analytical Engines\r\n")

	w = e.do(http.MethodDelete, fmt.Sprintf("/api/contacts/?id=%v", id), e.ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["reverted_to_lead"])
	assert.Equal(t, "Contact deleted successfully", body["message"])
}

func TestDeleteConvertedContactRevertsLead(t *testing.T) {
	e := newTestEnv(t)
	leadID := decode(t, e.capture(janeForm("business_card_id", e.card.ID)))["lead_id"]
	w := e.do(http.MethodPost, "/api/leads/convert", e.ownerToken, gin.H{"lead_id": leadID})
	contactID := decode(t, w)["data"].(map[string]interface{})["contact_id"]

	w = e.do(http.MethodDelete, fmt.Sprintf("/api/contacts/?id=%v", contactID), e.ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["reverted_to_lead"])
	assert.Equal(t, leadID, body["lead_id"])
	assert.Equal(t, "Contact reverted to lead successfully", body["message"])

	w = e.do(http.MethodGet, fmt.Sprintf("/api/leads/%v", leadID), e.ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, types.LeadNew, decode(t, w)["data"].(map[string]interface{})["status"])
}

func TestConvertedContactMatchesLeadFieldForField(t *testing.T) {
	e := newTestEnv(t)

	form := url.Values{
		"business_card_id":   {e.card.ID},
		"first_name":         {"Grace"},
		"last_name":          {"Hopper"},
		"email_primary":      {"grace@navy.example"},
		"work_phone":         {"+1 555 0100"},
		"mobile_phone":       {"+1 555 0199"},
		"street_address":     {"1 Compiler Way"},
		"city":               {"Arlington"},
		"state":              {"VA"},
		"zip_code":           {"22201"},
		"country":            {"USA"},
		"organization_name":  {"US Navy"},
		"job_title":          {"Rear Admiral"},
		"birthdate":          {"1906-12-09"},
		"website_url":        {"https://cobol.example"},
		"photo_url":          {"https://img.example/grace.png"},
		"comments_from_lead": {"Loved the talk on bugs"},
	}
	w := e.capture(form)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	leadID := decode(t, w)["lead_id"]

	w = e.do(http.MethodGet, fmt.Sprintf("/api/leads/%v", leadID), e.ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	lead := decode(t, w)["data"].(map[string]interface{})

	w = e.do(http.MethodPost, "/api/leads/convert", e.ownerToken, gin.H{"lead_id": leadID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	contactID := decode(t, w)["data"].(map[string]interface{})["contact_id"]

	w = e.do(http.MethodGet, fmt.Sprintf("/api/contacts/%v", contactID), e.ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	contact := decode(t, w)["data"].(map[string]interface{})

	for key := range form {
		if key == "business_card_id" {
			continue
		}
		assert.Equal(t, form.Get(key), contact[key], key)
	}
	for _, key := range []string{
		"first_name", "last_name", "full_name", "email_primary", "work_phone", "mobile_phone",
		"street_address", "city", "state", "zip_code", "country", "organization_name",
		"job_title", "birthdate", "website_url", "photo_url", "comments_from_lead",
		"ip_address", "user_agent", "referrer",
	} {
		assert.Equal(t, lead[key], contact[key], key)
	}
	assert.Equal(t, leadID, contact["id_lead"])
	assert.Equal(t, types.ContactSourceConverted, contact["source"])
}

func (e *testEnv) postForm(path, token string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "scanner-app/1.0")
	req.Header.Set("Referer", "https://sharemycard.app/scan")
	req.RemoteAddr = "198.51.100.20:4444"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestCreateContactFromQRScan(t *testing.T) {
	e := newTestEnv(t)

	form := url.Values{
		"first_name":     {"Alan"},
		"last_name":      {"Turing"},
		"email_primary":  {"alan@example.com"},
		"job_title":      {"Mathematician"},
		"device_type":    {"mobile"},
		"scan_timestamp": {"2026-10-01T09:30:00Z"},
	}
	w := e.postForm("/api/contacts/from-qr", e.ownerToken, form)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Contact created successfully from QR scan", body["message"])
	assert.Equal(t, "Alan Turing", body["contact_name"])
	assert.Equal(t, types.ContactSourceQRScan, body["source"])
	meta := body["metadata"].(map[string]interface{})
	assert.Equal(t, "2026-10-01T09:30:00Z", meta["scan_timestamp"])
	assert.Equal(t, "mobile", meta["device_type"])
	assert.Equal(t, "unknown", meta["camera_used"])
	assert.Equal(t, "198.51.100.20", meta["ip_address"])
	assert.Equal(t, "scanner-app/1.0", meta["user_agent"])
	assert.Equal(t, "https://sharemycard.app/scan", meta["referrer"])

	w = e.do(http.MethodGet, fmt.Sprintf("/api/contacts/%v", body["contact_id"]), e.ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	contact := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, types.ContactSourceQRScan, contact["source"])
	assert.Nil(t, contact["id_lead"])
	assert.Equal(t, "198.51.100.20", contact["ip_address"])
	assert.Equal(t, "Mathematician", contact["job_title"])
	assert.Equal(t, "mobile", contact["source_metadata"].(map[string]interface{})["device_type"])

	form.Del("email_primary")
	w = e.postForm("/api/contacts/from-qr", e.ownerToken, form)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email is required", decode(t, w)["message"])

	form.Set("email_primary", "alan@")
	w = e.postForm("/api/contacts/from-qr", e.ownerToken, form)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid email format", decode(t, w)["message"])

	w = e.postForm("/api/contacts/from-qr", "", form)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestContactUpdateMayClearEmail(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodPost, "/api/contacts/", e.ownerToken, gin.H{
		"first_name": "Ada", "last_name": "Lovelace", "email_primary": "ada@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode(t, w)["data"].(map[string]interface{})["id"]

	w = e.do(http.MethodPut, "/api/contacts/", e.ownerToken, gin.H{"id": id, "email_primary": nil})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(http.MethodGet, fmt.Sprintf("/api/contacts/%v", id), e.ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", decode(t, w)["data"].(map[string]interface{})["email_primary"])

	w = e.do(http.MethodPut, "/api/contacts/", e.ownerToken, gin.H{"id": id, "last_name": nil})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Last name is required", decode(t, w)["message"])
}

func TestBulkDeleteContacts(t *testing.T) {
	e := newTestEnv(t)

	var ids []interface{}
	for _, name := range []string{"One", "Two"} {
		w := e.do(http.MethodPost, "/api/contacts/", e.ownerToken, gin.H{"first_name": name, "last_name": "X"})
		require.Equal(t, http.StatusCreated, w.Code)
		ids = append(ids, decode(t, w)["data"].(map[string]interface{})["id"])
	}

	w := e.do(http.MethodPost, "/api/contacts/bulk-delete", e.ownerToken, gin.H{"contact_ids": []interface{}{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No contact IDs provided", decode(t, w)["message"])

	w = e.do(http.MethodPost, "/api/contacts/bulk-delete", e.ownerToken,
		gin.H{"contact_ids": []interface{}{ids[0], fmt.Sprint(ids[1]), 999999}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["deleted_count"])
	assert.Empty(t, data["reverted_leads"])

	w = e.do(http.MethodGet, "/api/contacts/", e.ownerToken, nil)
	assert.Equal(t, float64(0), decode(t, w)["count"])
}

func TestNotificationsForCapturedLead(t *testing.T) {
	e := newTestEnv(t)
	require.Equal(t, http.StatusOK, e.capture(janeForm("qr_id", e.qr.ID)).Code)

	w := e.do(http.MethodGet, "/api/notifications", e.ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, notification.TypeLeadCaptured, list[0]["type"])

	id := list[0]["id"].(string)
	w = e.do(http.MethodPut, "/api/notifications/"+id+"/read", e.strangerToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(http.MethodPut, "/api/notifications/"+id+"/read", e.ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodGet, "/api/notifications/count", e.ownerToken, nil)
	assert.JSONEq(t, `{"total":1,"unread":0}`, w.Body.String())
}

func TestAuthFlow(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodPost, "/api/auth/register", "", gin.H{"name": "Sam", "email": "OWNER@example.com", "password": "password123"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "owner@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "owner@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	refresh := body["refreshToken"].(string)

	w = e.do(http.MethodPost, "/api/auth/refresh", "", gin.H{"refreshToken": refresh})
	require.Equal(t, http.StatusOK, w.Code)

	// Refresh tokens rotate.
	w = e.do(http.MethodPost, "/api/auth/refresh", "", gin.H{"refreshToken": refresh})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodGet, "/api/auth/me", body["accessToken"].(string), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "owner@example.com", decode(t, w)["email"])
}
