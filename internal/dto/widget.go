package dto

type WidgetConfigResponse struct {
	ChatbotID         string   `json:"chatbot_id"`
	OrganizationID    string   `json:"organization_id"`
	Name              string   `json:"name"`
	WelcomeMessage    string   `json:"welcome_message,omitempty"`
	ThemeColor        string   `json:"theme_color,omitempty"`
	Position          string   `json:"position,omitempty"`
	LeadCaptureFields []string `json:"lead_capture_fields,omitempty"`
}

type UpdateWidgetSettingsRequest struct {
	WelcomeMessage    *string  `json:"welcome_message,omitempty"`
	ThemeColor        *string  `json:"theme_color,omitempty"`
	Position          *string  `json:"position,omitempty"`
	LeadCaptureFields []string `json:"lead_capture_fields,omitempty"`
}
