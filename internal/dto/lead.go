package dto

type CreateLeadRequest struct {
	OrganizationID string `json:"organization_id"`
	ConversationID string `json:"conversation_id,omitempty"`
	Name           string `json:"name,omitempty"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Company        string `json:"company,omitempty"`
	Message        string `json:"message,omitempty"`
	UTMSource      string `json:"utm_source,omitempty"`
	UTMMedium      string `json:"utm_medium,omitempty"`
	UTMCampaign    string `json:"utm_campaign,omitempty"`
}

type CreateLeadResponse struct {
	LeadID string `json:"lead_id"`
	Status string `json:"status"`
}

type LeadResponse struct {
	LeadID         string `json:"lead_id"`
	OrganizationID string `json:"organization_id"`
	ConversationID string `json:"conversation_id,omitempty"`
	Name           string `json:"name,omitempty"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Company        string `json:"company,omitempty"`
	Message        string `json:"message,omitempty"`
	UTMSource      string `json:"utm_source,omitempty"`
	UTMMedium      string `json:"utm_medium,omitempty"`
	UTMCampaign    string `json:"utm_campaign,omitempty"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
}

type ListLeadsResponse struct {
	Leads []LeadResponse `json:"leads"`
}
