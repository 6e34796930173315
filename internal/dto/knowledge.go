package dto

type CreateKnowledgeItemRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type KnowledgeItemResponse struct {
	KnowledgeID string `json:"knowledge_id"`
	ChatbotID   string `json:"chatbot_id"`
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	CreatedAt   string `json:"created_at"`
}

type ListKnowledgeResponse struct {
	Items []KnowledgeItemResponse `json:"items"`
}
