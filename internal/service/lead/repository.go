package lead

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

var ErrNotFound = errors.New("lead repository: not found")

type Repository interface {
	CreateLead(ctx context.Context, lead model.LeadItem) error
	GetLead(ctx context.Context, organizationID, leadID string) (model.LeadItem, error)
	ListLeads(ctx context.Context, organizationID string, limit int) ([]model.LeadItem, error)
	UpdateLeadStatus(ctx context.Context, organizationID, leadID string, status model.LeadStatus) (model.LeadItem, error)
}

type DynamoRepository struct {
	db *database.Database
}

func NewDynamoRepository(db *database.Database) Repository {
	return &DynamoRepository{db: db}
}

func (r *DynamoRepository) CreateLead(ctx context.Context, lead model.LeadItem) error {
	return r.db.Client.PutItem(ctx, model.LeadsTable, lead)
}

func (r *DynamoRepository) GetLead(ctx context.Context, organizationID, leadID string) (model.LeadItem, error) {
	var lead model.LeadItem
	err := r.db.Client.GetItem(
		ctx,
		model.LeadsTable,
		map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: model.LeadPK(organizationID, leadID)},
		},
		&lead,
	)
	if err != nil {
		if isNotFound(err) {
			return model.LeadItem{}, ErrNotFound
		}
		return model.LeadItem{}, err
	}
	return lead, nil
}

func (r *DynamoRepository) ListLeads(ctx context.Context, organizationID string, limit int) ([]model.LeadItem, error) {
	scanForward := false
	items, err := r.db.Client.QueryItems(
		ctx,
		model.LeadsTable,
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
			model.LeadsTable,
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

	leads := make([]model.LeadItem, 0, len(items))
	for _, item := range items {
		var lead model.LeadItem
		if err := attributevalue.UnmarshalMap(item, &lead); err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}

	sort.Slice(leads, func(i, j int) bool {
		return leads[i].CreatedAt > leads[j].CreatedAt
	})

	if limit > 0 && len(leads) > limit {
		leads = leads[:limit]
	}

	return leads, nil
}

func (r *DynamoRepository) UpdateLeadStatus(ctx context.Context, organizationID, leadID string, status model.LeadStatus) (model.LeadItem, error) {
	// Verify the lead exists first; an unconditional update on a missing key
	// would create a half-empty item.
	if _, err := r.GetLead(ctx, organizationID, leadID); err != nil {
		return model.LeadItem{}, err
	}

	var lead model.LeadItem
	err := r.db.Client.UpdateItem(
		ctx,
		model.LeadsTable,
		map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: model.LeadPK(organizationID, leadID)},
		},
		"SET #status = :status",
		map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(status)},
		},
		map[string]string{
			"#status": "status",
		},
		&lead,
	)
	if err != nil {
		return model.LeadItem{}, err
	}
	return lead, nil
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
