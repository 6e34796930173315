package dto

type StartConversationRequest struct {
	ChatbotID   string `json:"chatbot_id"`
	VisitorID   string `json:"visitor_id,omitempty"`
	UTMSource   string `json:"utm_source,omitempty"`
	UTMMedium   string `json:"utm_medium,omitempty"`
	UTMCampaign string `json:"utm_campaign,omitempty"`
	Referrer    string `json:"referrer,omitempty"`
}

type StartConversationResponse struct {
	ConversationID string `json:"conversation_id"`
	Status         string `json:"status"`
}

type PostMessageRequest struct {
	Content string `json:"content"`
}

type MessageResponse struct {
	MessageID      string `json:"message_id"`
	ConversationID string `json:"conversation_id"`
	Sender         string `json:"sender"`
	Content        string `json:"content"`
	CreatedAt      string `json:"created_at"`
}

type PostMessageResponse struct {
	Human MessageResponse `json:"human"`
	Bot   MessageResponse `json:"bot"`
}

type EndConversationResponse struct {
	ConversationID string `json:"conversation_id"`
	Status         string `json:"status"`
}

type ConversationMetadata struct {
	ConversationID string `json:"conversation_id"`
	ChatbotID      string `json:"chatbot_id"`
	VisitorID      string `json:"visitor_id"`
	Status         string `json:"status"`
	UTMSource      string `json:"utm_source,omitempty"`
	UTMMedium      string `json:"utm_medium,omitempty"`
	UTMCampaign    string `json:"utm_campaign,omitempty"`
	Referrer       string `json:"referrer,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
	LastMessageAt  string `json:"last_message_at"`
}

type ListConversationsResponse struct {
	Conversations []ConversationMetadata `json:"conversations"`
}

type ListMessagesResponse struct {
	Conversation ConversationMetadata `json:"conversation"`
	Messages     []MessageResponse    `json:"messages"`
}
