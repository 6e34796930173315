package model

import "fmt"

type ConversationStatus string

const (
	ConversationStatusActive ConversationStatus = "active"
	ConversationStatusEnded  ConversationStatus = "ended"
)

const (
	SenderHuman = "human"
	SenderBot   = "bot"
)

func ConversationPK(organizationID, conversationID string) string {
	return fmt.Sprintf("%s#%s", organizationID, conversationID)
}

func MessagePK(conversationID, messageID string) string {
	return fmt.Sprintf("%s#%s", conversationID, messageID)
}

func VisitorPK(organizationID, visitorID string) string {
	return fmt.Sprintf("%s#%s", organizationID, visitorID)
}

type ConversationItem struct {
	PK             string             `dynamodbav:"pk"`
	ConversationID string             `dynamodbav:"conversationId"`
	OrganizationID string             `dynamodbav:"organizationId"`
	ChatbotID      string             `dynamodbav:"chatbotId"`
	VisitorID      string             `dynamodbav:"visitorId"`
	Status         ConversationStatus `dynamodbav:"status"`
	UTMSource      string             `dynamodbav:"utmSource,omitempty"`
	UTMMedium      string             `dynamodbav:"utmMedium,omitempty"`
	UTMCampaign    string             `dynamodbav:"utmCampaign,omitempty"`
	ReferrerURL    string             `dynamodbav:"referrerUrl,omitempty"`
	CreatedAt      string             `dynamodbav:"createdAt"`
	UpdatedAt      string             `dynamodbav:"updatedAt"`
	LastMessageAt  string             `dynamodbav:"lastMessageAt"`
	EndedAt        string             `dynamodbav:"endedAt,omitempty"`
}

type MessageItem struct {
	PK             string `dynamodbav:"pk"`
	OrganizationID string `dynamodbav:"organizationId"`
	ConversationID string `dynamodbav:"conversationId"`
	MessageID      string `dynamodbav:"messageId"`
	Sender         string `dynamodbav:"sender"`
	Content        string `dynamodbav:"content"`
	CreatedAt      string `dynamodbav:"createdAt"`
}

type VisitorItem struct {
	PK             string `dynamodbav:"pk"`
	OrganizationID string `dynamodbav:"organizationId"`
	VisitorID      string `dynamodbav:"visitorId"`
	FirstSeenAt    string `dynamodbav:"firstSeenAt"`
	LastSeenAt     string `dynamodbav:"lastSeenAt"`
}
