package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/beeline-social/engagement-core/internal/domain"
)

// ddbContent is the DynamoDB shape of a content item. GSI1 projects each item
// into its owner's newest-first partition for the timeline fan-out.
type ddbContent struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	ContentID    string `dynamodbav:"ContentID"`
	OwnerID      string `dynamodbav:"OwnerID"`
	Caption      string `dynamodbav:"Caption,omitempty"`
	MediaURL     string `dynamodbav:"MediaURL,omitempty"`
	LikeCount    int64  `dynamodbav:"LikeCount"`
	CommentCount int64  `dynamodbav:"CommentCount"`
	ShareCount   int64  `dynamodbav:"ShareCount"`
	CreatedAt    string `dynamodbav:"CreatedAt"`
	GSI1PK       string `dynamodbav:"GSI1PK"`
	GSI1SK       string `dynamodbav:"GSI1SK"`
}

func (d ddbContent) toDomain() domain.ContentItem {
	createdAt, _ := time.Parse(tsFormat, d.CreatedAt)
	return domain.ContentItem{
		ContentID:    d.ContentID,
		OwnerID:      d.OwnerID,
		Caption:      d.Caption,
		MediaURL:     d.MediaURL,
		LikeCount:    d.LikeCount,
		CommentCount: d.CommentCount,
		ShareCount:   d.ShareCount,
		CreatedAt:    createdAt,
	}
}

// DynamoContentRepository implements ContentRepository on the single table.
type DynamoContentRepository struct {
	client *dynamodb.Client
	cfg    Config
}

// NewDynamoContentRepository creates a DynamoDB-backed content repository.
func NewDynamoContentRepository(client *dynamodb.Client, cfg Config) *DynamoContentRepository {
	return &DynamoContentRepository{client: client, cfg: cfg}
}

func (r *DynamoContentRepository) Create(ctx context.Context, item *domain.ContentItem) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.callTimeout())
	defer cancel()

	record, err := attributevalue.MarshalMap(ddbContent{
		PK:        contentPK(item.ContentID),
		SK:        skMeta,
		ContentID: item.ContentID,
		OwnerID:   item.OwnerID,
		Caption:   item.Caption,
		MediaURL:  item.MediaURL,
		CreatedAt: item.CreatedAt.UTC().Format(tsFormat),
		GSI1PK:    ownerKey(item.OwnerID),
		GSI1SK:    tsSortKey(item.CreatedAt, item.ContentID),
	})
	if err != nil {
		return fmt.Errorf("marshal content: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.cfg.TableName),
		Item:                record,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		return translateErr(err, "create content")
	}
	return nil
}

func (r *DynamoContentRepository) Get(ctx context.Context, contentID string) (*domain.ContentItem, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.callTimeout())
	defer cancel()

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.cfg.TableName),
		Key:       itemKey(contentPK(contentID), skMeta),
	})
	if err != nil {
		return nil, translateErr(err, "get content")
	}
	if out.Item == nil {
		return nil, fmt.Errorf("content %s: %w", contentID, domain.ErrNotFound)
	}

	var record ddbContent
	if err := attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		return nil, fmt.Errorf("unmarshal content: %w", err)
	}
	item := record.toDomain()
	return &item, nil
}

func (r *DynamoContentRepository) Delete(ctx context.Context, contentID, ownerID string) error {
	existing, err := r.Get(ctx, contentID)
	if err != nil {
		return err
	}
	if existing.OwnerID != ownerID {
		return fmt.Errorf("content %s: %w", contentID, domain.ErrForbidden)
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.callTimeout())
	defer cancel()

	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.cfg.TableName),
		Key:                 itemKey(contentPK(contentID), skMeta),
		ConditionExpression: aws.String("OwnerID = :owner"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": strAttr(ownerID),
		},
	})
	if err != nil {
		return translateErr(err, "delete content")
	}
	return nil
}

// ListByOwner queries the owner's GSI1 partition newest-first. The partition
// is pre-sorted by the range key, so a descending query needs no re-sort.
func (r *DynamoContentRepository) ListByOwner(ctx context.Context, ownerID string, limit int32, cursor string) (*domain.ContentPage, error) {
	startKey, err := DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.callTimeout())
	defer cancel()

	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.cfg.TableName),
		IndexName:              aws.String(OwnerTimelineIndex),
		KeyConditionExpression: aws.String("GSI1PK = :owner"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": strAttr(ownerKey(ownerID)),
		},
		ScanIndexForward:  aws.Bool(false),
		Limit:             aws.Int32(limit),
		ExclusiveStartKey: startKey,
	})
	if err != nil {
		return nil, translateErr(err, "list content by owner")
	}

	page := &domain.ContentPage{Items: make([]domain.ContentItem, 0, len(out.Items))}
	for _, raw := range out.Items {
		var record ddbContent
		if err := attributevalue.UnmarshalMap(raw, &record); err != nil {
			return nil, fmt.Errorf("unmarshal content: %w", err)
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

var _ ContentRepository = (*DynamoContentRepository)(nil)
