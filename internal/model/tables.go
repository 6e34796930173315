package model

import "fmt"

const (
	OrganizationsTable = "Organizations"
	ChatbotsTable      = "Chatbots"
	UsersTable         = "Users"
	ConversationsTable = "Conversations"
	MessagesTable      = "Messages"
	VisitorsTable      = "Visitors"
	LeadsTable         = "Leads"
	KnowledgeTable     = "Knowledge"
)

type OrganizationItem struct {
	OrganizationID string `dynamodbav:"organizationId"`
	Name           string `dynamodbav:"name"`
	Plan           string `dynamodbav:"plan"`
	CreatedAt      string `dynamodbav:"createdAt"`
}

type ChatbotItem struct {
	ChatbotID          string             `dynamodbav:"chatbotId"`
	OrganizationID     string             `dynamodbav:"organizationId"`
	Name               string             `dynamodbav:"name"`
	WelcomeMessage     string             `dynamodbav:"welcomeMessage,omitempty"`
	AllowedResponses   string             `dynamodbav:"allowedResponses,omitempty"`
	ForbiddenResponses string             `dynamodbav:"forbiddenResponses,omitempty"`
	Widget             WidgetSettingsItem `dynamodbav:"widget"`
	CreatedAt          string             `dynamodbav:"createdAt"`
	UpdatedAt          string             `dynamodbav:"updatedAt"`
}

type WidgetSettingsItem struct {
	ThemeColor        string   `dynamodbav:"themeColor,omitempty"`
	Position          string   `dynamodbav:"position,omitempty"`
	LeadCaptureFields []string `dynamodbav:"leadCaptureFields,omitempty"`
}

type UserItem struct {
	PK             string `dynamodbav:"pk"`
	OrganizationID string `dynamodbav:"organizationId"`
	UserID         string `dynamodbav:"userId"`
	Email          string `dynamodbav:"email"`
	Name           string `dynamodbav:"name"`
	Role           string `dynamodbav:"role"`
	PasswordHash   string `dynamodbav:"passwordHash"`
	CreatedAt      string `dynamodbav:"createdAt"`
}

type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
)

type LeadItem struct {
	PK             string     `dynamodbav:"pk"`
	LeadID         string     `dynamodbav:"leadId"`
	OrganizationID string     `dynamodbav:"organizationId"`
	ConversationID string     `dynamodbav:"conversationId,omitempty"`
	Name           string     `dynamodbav:"name,omitempty"`
	Email          string     `dynamodbav:"email,omitempty"`
	Phone          string     `dynamodbav:"phone,omitempty"`
	Company        string     `dynamodbav:"company,omitempty"`
	Message        string     `dynamodbav:"message,omitempty"`
	UTMSource      string     `dynamodbav:"utmSource,omitempty"`
	UTMMedium      string     `dynamodbav:"utmMedium,omitempty"`
	UTMCampaign    string     `dynamodbav:"utmCampaign,omitempty"`
	Status         LeadStatus `dynamodbav:"status"`
	CreatedAt      string     `dynamodbav:"createdAt"`
}

// KnowledgeItem is a curated question/answer pair a chatbot answers from
// before falling back to the model.
type KnowledgeItem struct {
	ChatbotID      string `dynamodbav:"chatbotId"`
	KnowledgeID    string `dynamodbav:"knowledgeId"`
	OrganizationID string `dynamodbav:"organizationId"`
	Question       string `dynamodbav:"question"`
	Answer         string `dynamodbav:"answer"`
	CreatedAt      string `dynamodbav:"createdAt"`
}

func OrgScopedPK(organizationID, entityID string) string {
	return fmt.Sprintf("%s#%s", organizationID, entityID)
}

func LeadPK(organizationID, leadID string) string {
	return fmt.Sprintf("%s#%s", organizationID, leadID)
}
