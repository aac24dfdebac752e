// Package transport defines request/response DTOs for the leads module.
package transport

import "time"

// CreateLeadRequest registers a new prospect.
type CreateLeadRequest struct {
	CompanyName string `json:"companyName" binding:"required" validate:"required,min=1,max=200"`
	Sector      string `json:"sector,omitempty" validate:"omitempty,max=100"`
	Priority    string `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
}

// UpdateLeadRequest carries a partial lead update; omitted fields are left
// untouched.
type UpdateLeadRequest struct {
	CompanyName *string `json:"companyName,omitempty" validate:"omitempty,min=1,max=200"`
	Sector      *string `json:"sector,omitempty" validate:"omitempty,max=100"`
	Status      *string `json:"status,omitempty" validate:"omitempty,oneof=open won lost"`
	Stage       *string `json:"stage,omitempty" validate:"omitempty,oneof=prospect contacted qualified negotiation"`
	Priority    *string `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
}

// ListLeadsRequest paginates the lead list.
type ListLeadsRequest struct {
	Page     int `form:"page"`
	PageSize int `form:"pageSize"`
}

// LeadResponse is the API representation of a lead.
type LeadResponse struct {
	ID            string     `json:"id"`
	CompanyName   string     `json:"companyName"`
	Sector        string     `json:"sector,omitempty"`
	Status        string     `json:"status"`
	Stage         string     `json:"stage"`
	Priority      string     `json:"priority,omitempty"`
	LastContacted *time.Time `json:"lastContacted,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// LeadListResponse is a paginated list of leads.
type LeadListResponse struct {
	Items    []LeadResponse `json:"items"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}
