package server

import (
	"ritech/internal/engine"
)

// Request payloads

type DevLoginRequest struct {
	ActorID string `json:"actor_id"`
}

type CreateClientRequest struct {
	Name string `json:"name"`
}

type UpdateClientRequest struct {
	Name *string `json:"name,omitempty"`
}

type CreateSiteRequest struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
}

type UpdateSiteRequest struct {
	Name *string `json:"name,omitempty"`
}

type CreateJobRequest struct {
	SiteID          string  `json:"site_id"`
	Type            string  `json:"type,omitempty" enum:"cctv,alarm,access,electric"`
	Status          string  `json:"status,omitempty" enum:"quote_needed,quote_done,order_material,waiting_material,material_ordered,todo,progress,suspended,done,cancelled"`
	Description     string  `json:"description"`
	OfferRef        *string `json:"offer_ref,omitempty"`
	TechnicianNotes *string `json:"technician_notes,omitempty"`
	IsPriority      bool    `json:"is_priority,omitempty"`
	StartDate       *string `json:"start_date,omitempty" format:"date"`
	EndDate         *string `json:"end_date,omitempty" format:"date"`
}

type UpdateJobRequest struct {
	Type            *string `json:"type,omitempty" enum:"cctv,alarm,access,electric"`
	Status          *string `json:"status,omitempty" enum:"quote_needed,quote_done,order_material,waiting_material,material_ordered,todo,progress,suspended,done,cancelled"`
	Description     *string `json:"description,omitempty"`
	OfferRef        *string `json:"offer_ref,omitempty"`
	TechnicianNotes *string `json:"technician_notes,omitempty"`
	IsPriority      *bool   `json:"is_priority,omitempty"`
	StartDate       *string `json:"start_date,omitempty" format:"date"`
	EndDate         *string `json:"end_date,omitempty" format:"date"`
}

type SetJobStatusRequest struct {
	Status string `json:"status" enum:"quote_needed,quote_done,order_material,waiting_material,material_ordered,todo,progress,suspended,done,cancelled"`
}

// Response payloads

type DevLoginResponse struct {
	Token string `json:"token"`
}

type DashboardResponse struct {
	OpenJobs     int              `json:"open_jobs"`
	ValidSites   int              `json:"valid_sites"`
	PriorityJobs []engine.JobView `json:"priority_jobs"`
}

type DeleteResponse struct {
	Result engine.CascadeResult `json:"result"`
}
