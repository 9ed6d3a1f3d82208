package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/beeline-social/engagement-core/internal/domain"
)

// ddbInteraction is the DynamoDB shape of an interaction row. GSI2 projects it
// into its target content's partition ordered by creation time; replies are
// additionally projected into their parent comment's partition via GSI3.
type ddbInteraction struct {
	PK              string `dynamodbav:"PK"`
	SK              string `dynamodbav:"SK"`
	InteractionID   string `dynamodbav:"InteractionID"`
	Kind            string `dynamodbav:"Kind"`
	ActorID         string `dynamodbav:"ActorID"`
	TargetContentID string `dynamodbav:"TargetContentID"`
	Body            string `dynamodbav:"Body,omitempty"`
	ParentID        string `dynamodbav:"ParentID,omitempty"`
	CreatedAt       string `dynamodbav:"CreatedAt"`
	GSI2PK          string `dynamodbav:"GSI2PK"`
	GSI2SK          string `dynamodbav:"GSI2SK"`
	GSI3PK          string `dynamodbav:"GSI3PK,omitempty"`
	GSI3SK          string `dynamodbav:"GSI3SK,omitempty"`
}

func (d ddbInteraction) toDomain() domain.Interaction {
	createdAt, _ := time.Parse(tsFormat, d.CreatedAt)
	return domain.Interaction{
		InteractionID:   d.InteractionID,
		Kind:            domain.InteractionKind(d.Kind),
		ActorID:         d.ActorID,
		TargetContentID: d.TargetContentID,
		Body:            d.Body,
		ParentID:        d.ParentID,
		CreatedAt:       createdAt,
	}
}

// counterAttr maps an interaction kind to the content counter it drives.
func counterAttr(kind domain.InteractionKind) string {
	switch kind {
	case domain.KindLike:
		return "LikeCount"
	case domain.KindComment:
		return "CommentCount"
	default:
		return "ShareCount"
	}
}

// DynamoInteractionRepository implements InteractionRepository.
type DynamoInteractionRepository struct {
	client *dynamodb.Client
	cfg    Config
}

// NewDynamoInteractionRepository creates a DynamoDB-backed interaction repository.
func NewDynamoInteractionRepository(client *dynamodb.Client, cfg Config) *DynamoInteractionRepository {
	return &DynamoInteractionRepository{client: client, cfg: cfg}
}

// Insert appends the interaction row and bumps the owning content's counter in
// a single TransactWriteItems call: both apply or neither does. The row put is
// conditional on the id being new (retried likes/shares carry deterministic
// ids, so a replay cancels here); the counter update is conditional on the
// content still existing.
func (r *DynamoInteractionRepository) Insert(ctx context.Context, in *domain.Interaction) error {
	sortKey := tsSortKey(in.CreatedAt, in.InteractionID)
	record := ddbInteraction{
		PK:              interactionPK(in.InteractionID),
		SK:              skMeta,
		InteractionID:   in.InteractionID,
		Kind:            string(in.Kind),
		ActorID:         in.ActorID,
		TargetContentID: in.TargetContentID,
		Body:            in.Body,
		ParentID:        in.ParentID,
		CreatedAt:       in.CreatedAt.UTC().Format(tsFormat),
		GSI2PK:          targetKey(in.TargetContentID),
		GSI2SK:          sortKey,
	}
	if in.ParentID != "" {
		record.GSI3PK = parentKey(in.ParentID)
		record.GSI3SK = sortKey
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("marshal interaction: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.callTimeout())
	defer cancel()

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           aws.String(r.cfg.TableName),
					Item:                item,
					ConditionExpression: aws.String("attribute_not_exists(PK)"),
				},
			},
			{
				Update: &types.Update{
					TableName:           aws.String(r.cfg.TableName),
					Key:                 itemKey(contentPK(in.TargetContentID), skMeta),
					UpdateExpression:    aws.String("ADD #c :one"),
					ConditionExpression: aws.String("attribute_exists(PK)"),
					ExpressionAttributeNames: map[string]string{
						"#c": counterAttr(in.Kind),
					},
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":one": numAttr(1),
					},
				},
			},
		},
	})
	if err != nil {
		var tcx *types.TransactionCanceledException
		if errors.As(err, &tcx) && len(tcx.CancellationReasons) == 2 {
			// Item order matches TransactItems: [0]=row put, [1]=counter update.
			if conditionFailed(tcx.CancellationReasons[0]) {
				return fmt.Errorf("interaction %s exists: %w", in.InteractionID, domain.ErrConflict)
			}
			if conditionFailed(tcx.CancellationReasons[1]) {
				return fmt.Errorf("content %s: %w", in.TargetContentID, domain.ErrNotFound)
			}
		}
		return translateErr(err, "insert interaction")
	}
	return nil
}

func conditionFailed(reason types.CancellationReason) bool {
	return reason.Code != nil && *reason.Code == "ConditionalCheckFailed"
}

func (r *DynamoInteractionRepository) Get(ctx context.Context, interactionID string) (*domain.Interaction, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.callTimeout())
	defer cancel()

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.cfg.TableName),
		Key:       itemKey(interactionPK(interactionID), skMeta),
	})
	if err != nil {
		return nil, translateErr(err, "get interaction")
	}
	if out.Item == nil {
		return nil, fmt.Errorf("interaction %s: %w", interactionID, domain.ErrNotFound)
	}

	var record ddbInteraction
	if err := attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		return nil, fmt.Errorf("unmarshal interaction: %w", err)
	}
	in := record.toDomain()
	return &in, nil
}

// Delete removes the row and reverses the counter in one transaction. The
// counter condition floors it at zero: if the content is already gone or the
// counter already zero, the transaction cancels and the row is deleted alone.
func (r *DynamoInteractionRepository) Delete(ctx context.Context, in *domain.Interaction) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.callTimeout())
	defer cancel()

	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Delete: &types.Delete{
					TableName:           aws.String(r.cfg.TableName),
					Key:                 itemKey(interactionPK(in.InteractionID), skMeta),
					ConditionExpression: aws.String("attribute_exists(PK)"),
				},
			},
			{
				Update: &types.Update{
					TableName:           aws.String(r.cfg.TableName),
					Key:                 itemKey(contentPK(in.TargetContentID), skMeta),
					UpdateExpression:    aws.String("ADD #c :negOne"),
					ConditionExpression: aws.String("attribute_exists(PK) AND #c > :zero"),
					ExpressionAttributeNames: map[string]string{
						"#c": counterAttr(in.Kind),
					},
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":negOne": numAttr(-1),
						":zero":   numAttr(0),
					},
				},
			},
		},
	})
	if err == nil {
		return nil
	}

	var tcx *types.TransactionCanceledException
	if errors.As(err, &tcx) && len(tcx.CancellationReasons) == 2 {
		if conditionFailed(tcx.CancellationReasons[0]) {
			return fmt.Errorf("interaction %s: %w", in.InteractionID, domain.ErrNotFound)
		}
		if conditionFailed(tcx.CancellationReasons[1]) {
			// Counter already at zero or content deleted concurrently. Drop
			// the row on its own rather than leaving it behind.
			_, delErr := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
				TableName: aws.String(r.cfg.TableName),
				Key:       itemKey(interactionPK(in.InteractionID), skMeta),
			})
			if delErr != nil {
				return translateErr(delErr, "delete interaction row")
			}
			return nil
		}
	}
	return translateErr(err, "delete interaction")
}

func (r *DynamoInteractionRepository) ListForTarget(ctx context.Context, targetContentID string, kind domain.InteractionKind, limit int32, cursor string) (*domain.InteractionPage, error) {
	input := &dynamodb.QueryInput{
		IndexName:              aws.String(TargetIndex),
		KeyConditionExpression: aws.String("GSI2PK = :target"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":target": strAttr(targetKey(targetContentID)),
		},
	}
	if kind != "" {
		input.FilterExpression = aws.String("#k = :kind")
		input.ExpressionAttributeNames = map[string]string{"#k": "Kind"}
		input.ExpressionAttributeValues[":kind"] = strAttr(string(kind))
	}
	return r.queryPage(ctx, input, limit, cursor, "list interactions")
}

func (r *DynamoInteractionRepository) ListReplies(ctx context.Context, parentID string, limit int32, cursor string) (*domain.InteractionPage, error) {
	input := &dynamodb.QueryInput{
		IndexName:              aws.String(ReplyIndex),
		KeyConditionExpression: aws.String("GSI3PK = :parent"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":parent": strAttr(parentKey(parentID)),
		},
	}
	return r.queryPage(ctx, input, limit, cursor, "list replies")
}

// queryPage runs one descending, limited query and wraps the resume position
// in a cursor. Newest-first comes free from the range key ordering.
func (r *DynamoInteractionRepository) queryPage(ctx context.Context, input *dynamodb.QueryInput, limit int32, cursor, op string) (*domain.InteractionPage, error) {
	startKey, err := DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.callTimeout())
	defer cancel()

	input.TableName = aws.String(r.cfg.TableName)
	input.ScanIndexForward = aws.Bool(false)
	input.Limit = aws.Int32(limit)
	input.ExclusiveStartKey = startKey

	out, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, translateErr(err, op)
	}

	page := &domain.InteractionPage{Items: make([]domain.Interaction, 0, len(out.Items))}
	for _, raw := range out.Items {
		var record ddbInteraction
		if err := attributevalue.UnmarshalMap(raw, &record); err != nil {
			return nil, fmt.Errorf("unmarshal interaction: %w", err)
		}
		page.Items = append(page.Items, record.toDomain())
	}

	next, err := EncodeCursor(out.LastEvaluatedKey)
	if err != nil {
		return nil, err
	}
	page.NextCursor = next
	return page, nil
}

var _ InteractionRepository = (*DynamoInteractionRepository)(nil)
