package auth

import (
	"context"
	"errors"
	"strings"

	"clai-chat/internal/database"
	"clai-chat/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var ErrNotFound = errors.New("auth repository: not found")

type Repository interface {
	CreateOrganization(ctx context.Context, org model.OrganizationItem) error
	CreateUser(ctx context.Context, user model.UserItem) error
	GetUserByEmail(ctx context.Context, email string) (model.UserItem, error)
}

type DynamoRepository struct {
	db *database.Database
}

func NewDynamoRepository(db *database.Database) Repository {
	return &DynamoRepository{db: db}
}

func (r *DynamoRepository) CreateOrganization(ctx context.Context, org model.OrganizationItem) error {
	return r.db.Client.PutItem(ctx, model.OrganizationsTable, org)
}

func (r *DynamoRepository) CreateUser(ctx context.Context, user model.UserItem) error {
	return r.db.Client.PutItem(ctx, model.UsersTable, user)
}

func (r *DynamoRepository) GetUserByEmail(ctx context.Context, email string) (model.UserItem, error) {
	items, err := r.db.Client.QueryItems(
		ctx,
		model.UsersTable,
		aws.String("byEmail"),
		"email = :email",
		map[string]types.AttributeValue{
			":email": &types.AttributeValueMemberS{Value: email},
		},
		nil,
		nil,
	)
	if err != nil && !isIndexNotFound(err) {
		return model.UserItem{}, err
	}

	if (err != nil && isIndexNotFound(err)) || len(items) == 0 {
		items, err = r.db.Client.ScanItems(
			ctx,
			model.UsersTable,
			"email = :email",
			map[string]types.AttributeValue{
				":email": &types.AttributeValueMemberS{Value: email},
			},
			nil,
		)
		if err != nil {
			return model.UserItem{}, err
		}
	}

	if len(items) == 0 {
		return model.UserItem{}, ErrNotFound
	}

	var user model.UserItem
	if err := attributevalue.UnmarshalMap(items[0], &user); err != nil {
		return model.UserItem{}, err
	}
	return user, nil
}

func isIndexNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "index") && strings.Contains(msg, "not") && strings.Contains(msg, "found")
}
