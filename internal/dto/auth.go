package dto

type RegisterRequest struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	Name             string `json:"name,omitempty"`
	OrganizationName string `json:"organization_name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthResponse struct {
	AccessToken    string `json:"access_token"`
	RefreshToken   string `json:"refresh_token,omitempty"`
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id"`
}

type ChatbotResponse struct {
	ChatbotID      string `json:"chatbot_id"`
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`
	CreatedAt      string `json:"created_at"`
}

type CreateChatbotRequest struct {
	Name               string `json:"name"`
	WelcomeMessage     string `json:"welcome_message,omitempty"`
	AllowedResponses   string `json:"allowed_responses,omitempty"`
	ForbiddenResponses string `json:"forbidden_responses,omitempty"`
}

type ListChatbotsResponse struct {
	Chatbots []ChatbotResponse `json:"chatbots"`
}
