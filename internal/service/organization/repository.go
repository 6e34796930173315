package organization

import (
	"context"
	"errors"
	"sort"
	"strings"

	"clai-chat/internal/database"
	"clai-chat/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var ErrNotFound = errors.New("organization repository: not found")

type Repository interface {
	GetOrganization(ctx context.Context, organizationID string) (model.OrganizationItem, error)
	CreateChatbot(ctx context.Context, chatbot model.ChatbotItem) error
	PutChatbot(ctx context.Context, chatbot model.ChatbotItem) error
	GetChatbot(ctx context.Context, chatbotID string) (model.ChatbotItem, error)
	ListChatbots(ctx context.Context, organizationID string) ([]model.ChatbotItem, error)
	PutKnowledge(ctx context.Context, item model.KnowledgeItem) error
	ListKnowledge(ctx context.Context, chatbotID string) ([]model.KnowledgeItem, error)
}

type DynamoRepository struct {
	db *database.Database
}

func NewDynamoRepository(db *database.Database) Repository {
	return &DynamoRepository{db: db}
}

func (r *DynamoRepository) GetOrganization(ctx context.Context, organizationID string) (model.OrganizationItem, error) {
	var org model.OrganizationItem
	err := r.db.Client.GetItem(
		ctx,
		model.OrganizationsTable,
		map[string]types.AttributeValue{
			"organizationId": &types.AttributeValueMemberS{Value: organizationID},
		},
		&org,
	)
	if err != nil {
		if isNotFound(err) {
			return model.OrganizationItem{}, ErrNotFound
		}
		return model.OrganizationItem{}, err
	}
	return org, nil
}

func (r *DynamoRepository) CreateChatbot(ctx context.Context, chatbot model.ChatbotItem) error {
	return r.db.Client.PutItem(ctx, model.ChatbotsTable, chatbot)
}

func (r *DynamoRepository) PutChatbot(ctx context.Context, chatbot model.ChatbotItem) error {
	return r.db.Client.PutItem(ctx, model.ChatbotsTable, chatbot)
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

func (r *DynamoRepository) ListChatbots(ctx context.Context, organizationID string) ([]model.ChatbotItem, error) {
	items, err := r.db.Client.QueryItems(
		ctx,
		model.ChatbotsTable,
		aws.String("byOrganization"),
		"organizationId = :organizationId",
		map[string]types.AttributeValue{
			":organizationId": &types.AttributeValueMemberS{Value: organizationID},
		},
		nil,
		nil,
	)
	if err != nil && !isIndexNotFound(err) {
		return nil, err
	}

	if (err != nil && isIndexNotFound(err)) || items == nil {
		items, err = r.db.Client.ScanItems(
			ctx,
			model.ChatbotsTable,
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

	chatbots := make([]model.ChatbotItem, 0, len(items))
	for _, item := range items {
		var chatbot model.ChatbotItem
		if err := attributevalue.UnmarshalMap(item, &chatbot); err != nil {
			return nil, err
		}
		chatbots = append(chatbots, chatbot)
	}

	sort.Slice(chatbots, func(i, j int) bool {
		return chatbots[i].CreatedAt < chatbots[j].CreatedAt
	})

	return chatbots, nil
}

func (r *DynamoRepository) PutKnowledge(ctx context.Context, item model.KnowledgeItem) error {
	return r.db.Client.PutItem(ctx, model.KnowledgeTable, item)
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

	sort.Slice(knowledge, func(i, j int) bool {
		return knowledge[i].CreatedAt < knowledge[j].CreatedAt
	})

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
