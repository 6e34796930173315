package conversation

import (
	"clai-chat/internal/database"
	"clai-chat/internal/model"
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var ErrNotFound = errors.New("conversation repository: not found")

type Repository interface {
	GetChatbot(ctx context.Context, chatbotID string) (model.ChatbotItem, error)
	GetUser(ctx context.Context, organizationID, userID string) (model.UserItem, error)
	GetVisitor(ctx context.Context, organizationID, visitorID string) (model.VisitorItem, error)
	PutVisitor(ctx context.Context, visitor model.VisitorItem) error
	CreateConversation(ctx context.Context, conversation model.ConversationItem) error
	GetConversation(ctx context.Context, organizationID, conversationID string) (model.ConversationItem, error)
	GetConversationByID(ctx context.Context, conversationID string) (model.ConversationItem, error)
	UpdateConversationActivity(ctx context.Context, organizationID, conversationID, updatedAt, lastMessageAt string) error
	EndConversation(ctx context.Context, organizationID, conversationID, endedAt string) error
	ListConversations(ctx context.Context, organizationID string, limit int) ([]model.ConversationItem, error)
	CreateMessage(ctx context.Context, message model.MessageItem) error
	ListMessages(ctx context.Context, conversationID string, limit int) ([]model.MessageItem, error)
	ListKnowledge(ctx context.Context, chatbotID string) ([]model.KnowledgeItem, error)
}

type DynamoRepository struct {
	db *database.Database
}

func NewDynamoRepository(db *database.Database) Repository {
	return &DynamoRepository{db: db}
}

func (r *DynamoRepository) GetChatbot(ctx context.Context, chatbotID string) (model.ChatbotItem, error) {
	var chatbot model.ChatbotItem
	err := r.db.Client.GetItem(
		ctx,
		model.ChatbotsTable,
		map[string]types.AttributeValue{
			"chatbotId": &types.AttributeValueMemberS{Value: chatbotID},
		},
		&chatbot,
	)
	if err != nil {
		if isNotFound(err) {
			return model.ChatbotItem{}, ErrNotFound
		}
		return model.ChatbotItem{}, err
	}
	return chatbot, nil
}

func (r *DynamoRepository) GetUser(ctx context.Context, organizationID, userID string) (model.UserItem, error) {
	var user model.UserItem
	err := r.db.Client.GetItem(
		ctx,
		model.UsersTable,
		map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: model.OrgScopedPK(organizationID, userID)},
		},
		&user,
	)
	if err != nil {
		if isNotFound(err) {
			return model.UserItem{}, ErrNotFound
		}
		return model.UserItem{}, err
	}
	return user, nil
}

func (r *DynamoRepository) GetVisitor(ctx context.Context, organizationID, visitorID string) (model.VisitorItem, error) {
	var visitor model.VisitorItem
	err := r.db.Client.GetItem(
		ctx,
		model.VisitorsTable,
		map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: model.VisitorPK(organizationID, visitorID)},
		},
		&visitor,
	)
	if err != nil {
		if isNotFound(err) {
			return model.VisitorItem{}, ErrNotFound
		}
		return model.VisitorItem{}, err
	}
	return visitor, nil
}

func (r *DynamoRepository) PutVisitor(ctx context.Context, visitor model.VisitorItem) error {
	return r.db.Client.PutItem(ctx, model.VisitorsTable, visitor)
}

func (r *DynamoRepository) CreateConversation(ctx context.Context, conversation model.ConversationItem) error {
	return r.db.Client.PutItem(ctx, model.ConversationsTable, conversation)
}

func (r *DynamoRepository) GetConversation(ctx context.Context, organizationID, conversationID string) (model.ConversationItem, error) {
	var conversation model.ConversationItem
	err := r.db.Client.GetItem(
		ctx,
		model.ConversationsTable,
		map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: model.ConversationPK(organizationID, conversationID)},
		},
		&conversation,
	)
	if err != nil {
		if isNotFound(err) {
			return model.ConversationItem{}, ErrNotFound
		}
		return model.ConversationItem{}, err
	}
	return conversation, nil
}

// GetConversationByID resolves a conversation from its bare identifier, which
// is all the public widget endpoints carry. Queries the byConversation GSI and
// falls back to a filtered scan when the index is missing.
func (r *DynamoRepository) GetConversationByID(ctx context.Context, conversationID string) (model.ConversationItem, error) {
	items, err := r.db.Client.QueryItems(
		ctx,
		model.ConversationsTable,
		aws.String("byConversation"),
		"conversationId = :conversationId",
		map[string]types.AttributeValue{
			":conversationId": &types.AttributeValueMemberS{Value: conversationID},
		},
		nil,
		nil,
	)
	if err != nil && !isIndexNotFound(err) {
		return model.ConversationItem{}, err
	}

	if (err != nil && isIndexNotFound(err)) || len(items) == 0 {
		items, err = r.db.Client.ScanItems(
			ctx,
			model.ConversationsTable,
			"conversationId = :conversationId",
			map[string]types.AttributeValue{
				":conversationId": &types.AttributeValueMemberS{Value: conversationID},
			},
			nil,
		)
		if err != nil {
			return model.ConversationItem{}, err
		}
	}

	if len(items) == 0 {
		return model.ConversationItem{}, ErrNotFound
	}

	var conversation model.ConversationItem
	if err := attributevalue.UnmarshalMap(items[0], &conversation); err != nil {
		return model.ConversationItem{}, err
	}
	return conversation, nil
}

func (r *DynamoRepository) UpdateConversationActivity(ctx context.Context, organizationID, conversationID, updatedAt, lastMessageAt string) error {
	return r.db.Client.UpdateItem(
		ctx,
		model.ConversationsTable,
		map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: model.ConversationPK(organizationID, conversationID)},
		},
		"SET #updatedAt = :updatedAt, #lastMessageAt = :lastMessageAt",
		map[string]types.AttributeValue{
			":updatedAt":     &types.AttributeValueMemberS{Value: updatedAt},
			":lastMessageAt": &types.AttributeValueMemberS{Value: lastMessageAt},
		},
		map[string]string{
			"#updatedAt":     "updatedAt",
			"#lastMessageAt": "lastMessageAt",
		},
		nil,
	)
}

func (r *DynamoRepository) EndConversation(ctx context.Context, organizationID, conversationID, endedAt string) error {
	return r.db.Client.UpdateItem(
		ctx,
		model.ConversationsTable,
		map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: model.ConversationPK(organizationID, conversationID)},
		},
		"SET #status = :status, #endedAt = :endedAt, #updatedAt = :endedAt",
		map[string]types.AttributeValue{
			":status":  &types.AttributeValueMemberS{Value: string(model.ConversationStatusEnded)},
			":endedAt": &types.AttributeValueMemberS{Value: endedAt},
		},
		map[string]string{
			"#status":    "status",
			"#endedAt":   "endedAt",
			"#updatedAt": "updatedAt",
		},
		nil,
	)
}

func (r *DynamoRepository) ListConversations(ctx context.Context, organizationID string, limit int) ([]model.ConversationItem, error) {
	scanForward := false
	items, err := r.db.Client.QueryItems(
		ctx,
		model.ConversationsTable,
		aws.String("byOrganization"),
		"organizationId = :organizationId",
		map[string]types.AttributeValue{
			":organizationId": &types.AttributeValueMemberS{Value: organizationID},
		},
		nil,
		&scanForward,
	)
	if err != nil && !isIndexNotFound(err) {
		return nil, err
	}

	if (err != nil && isIndexNotFound(err)) || items == nil {
		items, err = r.db.Client.ScanItems(
			ctx,
			model.ConversationsTable,
			"organizationId = :organizationId",
			map[string]types.AttributeValue{
				":organizationId": &types.AttributeValueMemberS{Value: organizationID},
			},
			nil,
		)
		if err != nil {
			return nil, err
		}
	}

	conversations := make([]model.ConversationItem, 0, len(items))
	for _, item := range items {
		var conversation model.ConversationItem
		if err := attributevalue.UnmarshalMap(item, &conversation); err != nil {
			return nil, err
		}
		conversations = append(conversations, conversation)
	}

	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].LastMessageAt > conversations[j].LastMessageAt
	})

	if limit > 0 && len(conversations) > limit {
		conversations = conversations[:limit]
	}

	return conversations, nil
}

func (r *DynamoRepository) CreateMessage(ctx context.Context, message model.MessageItem) error {
	return r.db.Client.PutItem(ctx, model.MessagesTable, message)
}

func (r *DynamoRepository) ListMessages(ctx context.Context, conversationID string, limit int) ([]model.MessageItem, error) {
	scanForward := true
	items, err := r.db.Client.QueryItems(
		ctx,
		model.MessagesTable,
		aws.String("byConversation"),
		"conversationId = :conversationId",
		map[string]types.AttributeValue{
			":conversationId": &types.AttributeValueMemberS{Value: conversationID},
		},
		nil,
		&scanForward,
	)
	if err != nil && !isIndexNotFound(err) {
		return nil, err
	}

	if (err != nil && isIndexNotFound(err)) || items == nil {
		items, err = r.db.Client.ScanItems(
			ctx,
			model.MessagesTable,
			"conversationId = :conversationId",
			map[string]types.AttributeValue{
				":conversationId": &types.AttributeValueMemberS{Value: conversationID},
			},
			nil,
		)
		if err != nil {
			return nil, err
		}
	}

	messages := make([]model.MessageItem, 0, len(items))
	for _, item := range items {
		var message model.MessageItem
		if err := attributevalue.UnmarshalMap(item, &message); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}

	sort.SliceStable(messages, func(i, j int) bool {
		ti := parseTime(messages[i].CreatedAt)
		tj := parseTime(messages[j].CreatedAt)
		return ti.Before(tj)
	})

	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}

	return messages, nil
}

func (r *DynamoRepository) ListKnowledge(ctx context.Context, chatbotID string) ([]model.KnowledgeItem, error) {
	items, err := r.db.Client.QueryItems(
		ctx,
		model.KnowledgeTable,
		nil,
		"chatbotId = :chatbotId",
		map[string]types.AttributeValue{
			":chatbotId": &types.AttributeValueMemberS{Value: chatbotID},
		},
		nil,
		nil,
	)
	if err != nil {
		return nil, err
	}

	knowledge := make([]model.KnowledgeItem, 0, len(items))
	for _, item := range items {
		var entry model.KnowledgeItem
		if err := attributevalue.UnmarshalMap(item, &entry); err != nil {
			return nil, err
		}
		knowledge = append(knowledge, entry)
	}

	return knowledge, nil
}

func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "item not found")
}

func isIndexNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "index") && strings.Contains(msg, "not") && strings.Contains(msg, "found")
}

func parseTime(ts string) time.Time {
	if ts == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return time.Time{}
	}
	return t
}
