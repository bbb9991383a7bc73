package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Habiburrehman10/DialogflowCX-Jobber-GraphQL/internal/port/crmapi"
	"github.com/Habiburrehman10/DialogflowCX-Jobber-GraphQL/internal/service"
)

type fakeCRM struct {
	lookup    service.ClientLookup
	created   service.CreatedClient
	request   service.CreatedRequest
	err       error
	gotPhone  string
	gotClient service.ClientCreateInput
	gotReq    service.ServiceRequestInput
}

func (f *fakeCRM) FindClientByPhone(_ context.Context, phone string) (service.ClientLookup, error) {
	f.gotPhone = phone
	return f.lookup, f.err
}

func (f *fakeCRM) CreateClient(_ context.Context, input service.ClientCreateInput) (service.CreatedClient, error) {
	f.gotClient = input
	return f.created, f.err
}

func (f *fakeCRM) CreateServiceRequest(_ context.Context, input service.ServiceRequestInput) (service.CreatedRequest, error) {
	f.gotReq = input
	return f.request, f.err
}

func webhookBody(t *testing.T, params map[string]any) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"sessionInfo": map[string]any{
			"session":    "projects/p/locations/l/agents/a/sessions/s1",
			"parameters": params,
		},
	})
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return bytes.NewReader(body)
}

func doRequest(t *testing.T, handler http.HandlerFunc, body *bytes.Reader) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook/test", body)
	rec := httptest.NewRecorder()
	handler(rec, req)

	var resp struct {
		SessionInfo struct {
			Parameters map[string]any `json:"parameters"`
		} `json:"sessionInfo"`
	}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal response: %v (%s)", err, rec.Body.String())
		}
	}
	return rec, resp.SessionInfo.Parameters
}

func TestFindClientFound(t *testing.T) {
	crm := &fakeCRM{lookup: service.ClientLookup{Exists: true, ClientID: "Z2lk", ClientName: "Jane Roy"}}
	h := &Handlers{CRM: crm}

	rec, params := doRequest(t, h.FindClient, webhookBody(t, map[string]any{
		"phone_number": "5145551234",
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if crm.gotPhone != "5145551234" {
		t.Errorf("phone = %q", crm.gotPhone)
	}
	if params["clientExists"] != true {
		t.Errorf("clientExists = %v", params["clientExists"])
	}
	if params["clientId"] != "Z2lk" || params["clientName"] != "Jane Roy" {
		t.Errorf("unexpected params: %v", params)
	}
}

func TestFindClientNotFound(t *testing.T) {
	h := &Handlers{CRM: &fakeCRM{lookup: service.ClientLookup{Exists: false}}}

	rec, params := doRequest(t, h.FindClient, webhookBody(t, map[string]any{
		"phone_number": "5145550000",
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for a clean miss", rec.Code)
	}
	if params["clientExists"] != false {
		t.Errorf("clientExists = %v, want false", params["clientExists"])
	}
	if _, ok := params["clientId"]; ok {
		t.Error("clientId should be absent when no client matched")
	}
}

func TestFindClientMissingPhone(t *testing.T) {
	h := &Handlers{CRM: &fakeCRM{}}

	rec, _ := doRequest(t, h.FindClient, webhookBody(t, map[string]any{}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestFindClientNumericPhoneCoerced(t *testing.T) {
	crm := &fakeCRM{}
	h := &Handlers{CRM: crm}

	doRequest(t, h.FindClient, webhookBody(t, map[string]any{
		"phone_number": 5145551234,
	}))

	if crm.gotPhone != "5145551234" {
		t.Errorf("phone = %q, want numeric value coerced to string", crm.gotPhone)
	}
}

func TestFindClientTransportError(t *testing.T) {
	h := &Handlers{CRM: &fakeCRM{err: errors.New("connection refused")}}

	rec, _ := doRequest(t, h.FindClient, webhookBody(t, map[string]any{
		"phone_number": "5145551234",
	}))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502 for transport failure", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Error("internal error detail leaked to the caller")
	}
}

func TestCreateClientMapsParameters(t *testing.T) {
	crm := &fakeCRM{created: service.CreatedClient{ClientID: "abc", ClientName: "Marc Tremblay"}}
	h := &Handlers{CRM: crm}

	rec, params := doRequest(t, h.CreateClient, webhookBody(t, map[string]any{
		"first-name":     "Marc",
		"last-name":      "Tremblay",
		"business-name":  "Tremblay Inc",
		"email":          "marc@example.com",
		"phone_number":   "4385551234",
		"street_address": "12 Rue Principale",
		"city":           "Laval",
		"province":       "QC",
		"country":        "Canada",
		"postalcode":     "H7A 1B2",
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	got := crm.gotClient
	if got.FirstName != "Marc" || got.LastName != "Tremblay" || got.CompanyName != "Tremblay Inc" {
		t.Errorf("name fields not mapped: %+v", got)
	}
	if got.Address.City != "Laval" || got.Address.PostalCode != "H7A 1B2" {
		t.Errorf("address not mapped: %+v", got.Address)
	}
	if params["clientId"] != "abc" || params["clientExists"] != true {
		t.Errorf("unexpected params: %v", params)
	}
}

func TestCreateClientMissingRequired(t *testing.T) {
	h := &Handlers{CRM: &fakeCRM{}}

	rec, _ := doRequest(t, h.CreateClient, webhookBody(t, map[string]any{
		"first-name": "Marc",
		// last-name and phone_number absent
	}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreateClientUserErrorStays200(t *testing.T) {
	h := &Handlers{CRM: &fakeCRM{err: crmapi.UserErrors{
		{Message: "Email is invalid", Path: []string{"client", "emails"}},
	}}}

	rec, params := doRequest(t, h.CreateClient, webhookBody(t, map[string]any{
		"first-name":   "Marc",
		"last-name":    "Tremblay",
		"phone_number": "4385551234",
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for a CRM rejection", rec.Code)
	}
	if params["status"] != "error" {
		t.Errorf("status param = %v, want error", params["status"])
	}
	if msg, _ := params["message"].(string); !strings.Contains(msg, "Email is invalid") {
		t.Errorf("message = %v, want the CRM text verbatim", params["message"])
	}
}

func TestCreateRequestSuccess(t *testing.T) {
	crm := &fakeCRM{request: service.CreatedRequest{RequestID: "req1", Title: "Pruning", Status: "new"}}
	h := &Handlers{CRM: crm}

	rec, params := doRequest(t, h.CreateRequest, webhookBody(t, map[string]any{
		"clientId":      "abc",
		"service":       "Pruning",
		"work_location": "Front yard",
		"work_plan":     "Spring",
		"assessment":    "No",
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if crm.gotReq.ClientID != "abc" || crm.gotReq.Service != "Pruning" {
		t.Errorf("input not mapped: %+v", crm.gotReq)
	}
	if crm.gotReq.TreeCuttingPermit != "" {
		t.Errorf("permit = %q, want empty for non tree cutting service", crm.gotReq.TreeCuttingPermit)
	}
	if params["requestId"] != "req1" || params["requestStatus"] != "new" {
		t.Errorf("unexpected params: %v", params)
	}
}

func TestCreateRequestTreeCuttingReadsPermit(t *testing.T) {
	crm := &fakeCRM{}
	h := &Handlers{CRM: crm}

	doRequest(t, h.CreateRequest, webhookBody(t, map[string]any{
		"clientId":          "abc",
		"service":           "Tree Cutting",
		"treecuttingpermit": "Yes",
	}))

	if crm.gotReq.TreeCuttingPermit != "Yes" {
		t.Errorf("permit = %q, want Yes", crm.gotReq.TreeCuttingPermit)
	}
}

func TestCreateRequestMissingClientID(t *testing.T) {
	h := &Handlers{CRM: &fakeCRM{}}

	rec, _ := doRequest(t, h.CreateRequest, webhookBody(t, map[string]any{
		"service": "Pruning",
	}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestInvalidJSONBody(t *testing.T) {
	h := &Handlers{CRM: &fakeCRM{}}

	req := httptest.NewRequest(http.MethodPost, "/webhook/find-client", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.FindClient(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
