// Package service implements the CRM use cases exposed through the webhook:
// client lookup by phone, client creation, and service request creation.
// Each operation builds a GraphQL operation, executes it through the
// always-authenticated crmapi.Executor, and normalizes the response.
package service

import (
	"github.com/Habiburrehman10/DialogflowCX-Jobber-GraphQL/internal/port/crmapi"
)

// CRMService translates webhook inputs into CRM operations.
type CRMService struct {
	exec crmapi.Executor
}

// NewCRMService creates a CRMService backed by the given executor.
func NewCRMService(exec crmapi.Executor) *CRMService {
	return &CRMService{exec: exec}
}
