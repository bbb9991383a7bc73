package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Habiburrehman10/DialogflowCX-Jobber-GraphQL/internal/port/crmapi"
)

// ServiceRequestInput holds the answers for the fixed intake questionnaire.
// Optional answers may be empty; they are still sent so the form keeps its
// shape.
type ServiceRequestInput struct {
	ClientID          string
	Service           string
	WorkLocation      string
	WorkPlan          string
	TreeCuttingPermit string
	Assessment        string
}

// CreatedRequest is the normalized result of a successful request creation.
type CreatedRequest struct {
	RequestID string
	Title     string
	Status    string
}

// The intake form reproduces a fixed bilingual questionnaire. The label
// order is significant and must match the form configured in the CRM.
const (
	questionService    = "Quel type de service avez vous de besoin?/What kind of service do you need?"
	questionLocation   = "Indiquer où se situe le ou les arbres et si possible son essence/Please indicate the location of the tree or trees And if possible, its species"
	questionPermit     = "Si c'est pour un abattage, avez-vous déjà votre permis d'abattre?/If it is for a tree removal, do you already have your permit issued by the city?"
	questionTiming     = "Quand prévoyez-vous effectuer les travaux?/When do you plan to carry out the work?"
	questionAssessment = "Est-il possible de faire la soumission en votre absence?/Is it possible to do the submission in your absence?"
)

const createRequestMutation = `mutation CreateRequest($input: RequestCreateInput!) {
  requestCreate(input: $input) {
    request {
      id
      title
      requestStatus
      createdAt
      client {
        id
      }
    }
    userErrors {
      message
      path
    }
  }
}`

// CreateServiceRequest files a request against the given client with a
// single "Service Details" form section. The five answers are always sent in
// the fixed question order; empty answers are forwarded as empty text, never
// omitted, so the ordering cannot shift.
func (s *CRMService) CreateServiceRequest(ctx context.Context, input ServiceRequestInput) (CreatedRequest, error) {
	items := []map[string]any{
		{"label": questionService, "answerText": input.Service},
		{"label": questionLocation, "answerText": input.WorkLocation},
		{"label": questionPermit, "answerText": input.TreeCuttingPermit},
		{"label": questionTiming, "answerText": input.WorkPlan},
		{"label": questionAssessment, "answerText": input.Assessment},
	}

	op := crmapi.Operation{
		Query: createRequestMutation,
		Variables: map[string]any{
			"input": map[string]any{
				"clientId": input.ClientID,
				"title":    input.Service,
				"requestDetails": map[string]any{
					"form": map[string]any{
						"sections": []map[string]any{
							{"label": "Service Details", "items": items},
						},
					},
				},
			},
		},
	}

	resp, err := s.exec.Execute(ctx, op)
	if err != nil {
		return CreatedRequest{}, fmt.Errorf("create request: %w", err)
	}
	if len(resp.Errors) > 0 {
		return CreatedRequest{}, crmapi.ErrorsError(resp.Errors)
	}

	var payload struct {
		RequestCreate struct {
			Request *struct {
				ID            string `json:"id"`
				Title         string `json:"title"`
				RequestStatus string `json:"requestStatus"`
			} `json:"request"`
			UserErrors crmapi.UserErrors `json:"userErrors"`
		} `json:"requestCreate"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return CreatedRequest{}, fmt.Errorf("create request: parse data: %w", err)
	}

	if len(payload.RequestCreate.UserErrors) > 0 {
		return CreatedRequest{}, payload.RequestCreate.UserErrors
	}
	if payload.RequestCreate.Request == nil {
		return CreatedRequest{}, fmt.Errorf("create request: response missing request")
	}

	r := payload.RequestCreate.Request
	return CreatedRequest{
		RequestID: r.ID,
		Title:     r.Title,
		Status:    r.RequestStatus,
	}, nil
}
