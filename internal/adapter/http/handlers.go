package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Habiburrehman10/DialogflowCX-Jobber-GraphQL/internal/adapter/otel"
	"github.com/Habiburrehman10/DialogflowCX-Jobber-GraphQL/internal/logger"
	"github.com/Habiburrehman10/DialogflowCX-Jobber-GraphQL/internal/port/crmapi"
	"github.com/Habiburrehman10/DialogflowCX-Jobber-GraphQL/internal/service"
)

// CRMService is the use-case surface the webhook handlers depend on.
type CRMService interface {
	FindClientByPhone(ctx context.Context, phone string) (service.ClientLookup, error)
	CreateClient(ctx context.Context, input service.ClientCreateInput) (service.CreatedClient, error)
	CreateServiceRequest(ctx context.Context, input service.ServiceRequestInput) (service.CreatedRequest, error)
}

// Handlers holds the webhook handler dependencies.
type Handlers struct {
	CRM     CRMService
	Metrics *otel.Metrics
}

// FindClient handles the lookup-by-phone webhook. A client that does not
// exist is a successful outcome with clientExists=false, never an error.
func (h *Handlers) FindClient(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[WebhookRequest](w, r)
	if !ok {
		return
	}
	ctx := h.observe(r.Context(), req, "find_client")

	phone := stringParam(req.SessionInfo.Parameters, "phone_number")
	if !requireParam(w, phone, "phone_number") {
		return
	}

	lookup, err := h.CRM.FindClientByPhone(ctx, phone)
	if err != nil {
		h.fail(ctx, w, "find client", err)
		return
	}

	params := map[string]any{
		"status":       "success",
		"clientExists": lookup.Exists,
	}
	if lookup.Exists {
		params["clientId"] = lookup.ClientID
		params["clientName"] = lookup.ClientName
	}
	writeJSON(w, http.StatusOK, sessionResponse(params))
}

// CreateClient handles the create-client webhook.
func (h *Handlers) CreateClient(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[WebhookRequest](w, r)
	if !ok {
		return
	}
	ctx := h.observe(r.Context(), req, "create_client")

	params := req.SessionInfo.Parameters
	input := service.ClientCreateInput{
		FirstName:   stringParam(params, "first-name"),
		LastName:    stringParam(params, "last-name"),
		CompanyName: stringParam(params, "business-name"),
		Email:       stringParam(params, "email"),
		Phone:       stringParam(params, "phone_number"),
		Address: service.Address{
			Street:     stringParam(params, "street_address"),
			City:       stringParam(params, "city"),
			Province:   stringParam(params, "province"),
			PostalCode: stringParam(params, "postalcode"),
			Country:    stringParam(params, "country"),
		},
	}
	if !requireParam(w, input.FirstName, "first-name") ||
		!requireParam(w, input.LastName, "last-name") ||
		!requireParam(w, input.Phone, "phone_number") {
		return
	}

	created, err := h.CRM.CreateClient(ctx, input)
	if err != nil {
		h.fail(ctx, w, "create client", err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse(map[string]any{
		"status":       "success",
		"clientExists": true,
		"clientId":     created.ClientID,
		"clientName":   created.ClientName,
	}))
}

// CreateRequest handles the create-service-request webhook. The cutting
// permit answer is only collected for tree cutting; for other services it is
// forwarded empty so the intake form keeps its shape.
func (h *Handlers) CreateRequest(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[WebhookRequest](w, r)
	if !ok {
		return
	}
	ctx := h.observe(r.Context(), req, "create_request")

	params := req.SessionInfo.Parameters
	input := service.ServiceRequestInput{
		ClientID:     stringParam(params, "clientId"),
		Service:      stringParam(params, "service"),
		WorkLocation: stringParam(params, "work_location"),
		WorkPlan:     stringParam(params, "work_plan"),
		Assessment:   stringParam(params, "assessment"),
	}
	if input.Service == "Tree Cutting" {
		input.TreeCuttingPermit = stringParam(params, "treecuttingpermit")
	}
	if !requireParam(w, input.ClientID, "clientId") ||
		!requireParam(w, input.Service, "service") {
		return
	}

	created, err := h.CRM.CreateServiceRequest(ctx, input)
	if err != nil {
		h.fail(ctx, w, "create request", err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse(map[string]any{
		"status":        "success",
		"requestId":     created.RequestID,
		"requestTitle":  created.Title,
		"requestStatus": created.Status,
	}))
}

// observe tags the context with the session and counts the webhook event.
func (h *Handlers) observe(ctx context.Context, req WebhookRequest, operation string) context.Context {
	if req.SessionInfo.Session != "" {
		ctx = logger.WithSession(ctx, req.SessionInfo.Session)
	}
	if h.Metrics != nil {
		h.Metrics.CountWebhookEvent(ctx, operation)
	}
	return ctx
}

// fail writes the failure outcome. CRM domain rejections stay HTTP 200 with
// the message text preserved so the dialogue can branch on it and read it
// back to the caller; transport and auth faults become a 502.
func (h *Handlers) fail(ctx context.Context, w http.ResponseWriter, what string, err error) {
	var ue crmapi.UserErrors
	if errors.As(err, &ue) {
		writeJSON(w, http.StatusOK, sessionResponse(map[string]any{
			"status":  "error",
			"message": strings.Join(ue.Messages(), "; "),
		}))
		return
	}

	var ge crmapi.ErrorsError
	if errors.As(err, &ge) {
		writeJSON(w, http.StatusOK, sessionResponse(map[string]any{
			"status":  "error",
			"message": strings.Join(ge.Messages(), "; "),
		}))
		return
	}

	slog.ErrorContext(ctx, what+" failed",
		"error", err,
		"session", logger.Session(ctx),
		"request_id", logger.RequestID(ctx),
	)
	writeError(w, http.StatusBadGateway, "CRM request failed")
}
