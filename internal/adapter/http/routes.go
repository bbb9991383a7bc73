package http

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes attaches the webhook endpoints to the router. One route per
// Dialogflow fulfillment, mirroring the three CRM use cases.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/webhook", func(r chi.Router) {
		r.Post("/find-client", h.FindClient)
		r.Post("/create-client", h.CreateClient)
		r.Post("/create-request", h.CreateRequest)
	})
}
