package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Habiburrehman10/DialogflowCX-Jobber-GraphQL/internal/port/crmapi"
)

// ClientLookup is the outcome of a phone-number lookup. A missing client is
// an expected result, not an error: Exists reports it explicitly.
type ClientLookup struct {
	Exists     bool
	ClientID   string
	ClientName string
}

// Address is a single property address attached to a new client.
type Address struct {
	Street     string
	City       string
	Province   string
	PostalCode string
	Country    string
}

// ClientCreateInput holds the fields for creating one client with one
// primary email, one primary phone, and one property address. Presence is
// the only validation done here; malformed values surface as CRM user
// errors.
type ClientCreateInput struct {
	FirstName   string
	LastName    string
	CompanyName string
	Email       string
	Phone       string
	Address     Address
}

// CreatedClient is the normalized result of a successful client creation.
type CreatedClient struct {
	ClientID   string
	ClientName string
}

const findClientQuery = `query FindClientByPhone($searchTerm: String) {
  clients(searchTerm: $searchTerm) {
    nodes {
      id
      name
      firstName
      phones {
        number
      }
      billingAddress {
        street
        city
        province
        postalCode
        country
      }
    }
  }
}`

const createClientMutation = `mutation CreateClient($input: ClientCreateInput!) {
  clientCreate(input: $input) {
    client {
      id
      firstName
      lastName
      companyName
    }
    userErrors {
      message
      path
    }
  }
}`

// FindClientByPhone searches the CRM with the phone number as a free-text
// term and filters the candidates for an exact phone match. The CRM search
// is fuzzy over several fields and can return unrelated clients.
func (s *CRMService) FindClientByPhone(ctx context.Context, phone string) (ClientLookup, error) {
	op := crmapi.Operation{
		Query:     findClientQuery,
		Variables: map[string]any{"searchTerm": phone},
	}

	resp, err := s.exec.Execute(ctx, op)
	if err != nil {
		return ClientLookup{}, fmt.Errorf("find client: %w", err)
	}
	if len(resp.Errors) > 0 {
		return ClientLookup{}, crmapi.ErrorsError(resp.Errors)
	}

	var payload struct {
		Clients struct {
			Nodes []struct {
				ID     string `json:"id"`
				Name   string `json:"name"`
				Phones []struct {
					Number string `json:"number"`
				} `json:"phones"`
			} `json:"nodes"`
		} `json:"clients"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return ClientLookup{}, fmt.Errorf("find client: parse data: %w", err)
	}

	for _, node := range payload.Clients.Nodes {
		for _, p := range node.Phones {
			if p.Number == phone {
				return ClientLookup{Exists: true, ClientID: node.ID, ClientName: node.Name}, nil
			}
		}
	}

	return ClientLookup{Exists: false}, nil
}

// CreateClient creates one client with exactly one primary email, one
// primary phone, and one property address. CRM user errors are returned as
// crmapi.UserErrors with the messages preserved verbatim.
func (s *CRMService) CreateClient(ctx context.Context, input ClientCreateInput) (CreatedClient, error) {
	op := crmapi.Operation{
		Query: createClientMutation,
		Variables: map[string]any{
			"input": map[string]any{
				"firstName":   input.FirstName,
				"lastName":    input.LastName,
				"companyName": input.CompanyName,
				"emails": []map[string]any{
					{"description": "MAIN", "primary": true, "address": input.Email},
				},
				"phones": []map[string]any{
					{"description": "MAIN", "primary": true, "number": input.Phone},
				},
				"properties": []map[string]any{
					{"address": map[string]any{
						"street1":    input.Address.Street,
						"city":       input.Address.City,
						"province":   input.Address.Province,
						"postalCode": input.Address.PostalCode,
						"country":    input.Address.Country,
					}},
				},
			},
		},
	}

	resp, err := s.exec.Execute(ctx, op)
	if err != nil {
		return CreatedClient{}, fmt.Errorf("create client: %w", err)
	}
	if len(resp.Errors) > 0 {
		return CreatedClient{}, crmapi.ErrorsError(resp.Errors)
	}

	var payload struct {
		ClientCreate struct {
			Client *struct {
				ID        string `json:"id"`
				FirstName string `json:"firstName"`
				LastName  string `json:"lastName"`
			} `json:"client"`
			UserErrors crmapi.UserErrors `json:"userErrors"`
		} `json:"clientCreate"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return CreatedClient{}, fmt.Errorf("create client: parse data: %w", err)
	}

	if len(payload.ClientCreate.UserErrors) > 0 {
		return CreatedClient{}, payload.ClientCreate.UserErrors
	}
	if payload.ClientCreate.Client == nil {
		return CreatedClient{}, fmt.Errorf("create client: response missing client")
	}

	c := payload.ClientCreate.Client
	return CreatedClient{
		ClientID:   c.ID,
		ClientName: c.FirstName + " " + c.LastName,
	}, nil
}
