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

// ddbNotification lives in its recipient's partition. The notification id is
// time-prefixed, so the NOTIF# range key sorts the inbox chronologically and
// still addresses a single entry for MarkRead and Delete.
type ddbNotification struct {
	PK              string `dynamodbav:"PK"`
	SK              string `dynamodbav:"SK"`
	NotificationID  string `dynamodbav:"NotificationID"`
	RecipientID     string `dynamodbav:"RecipientID"`
	ActorID         string `dynamodbav:"ActorID"`
	Kind            string `dynamodbav:"Kind"`
	TargetContentID string `dynamodbav:"TargetContentID,omitempty"`
	Message         string `dynamodbav:"Message,omitempty"`
	Read            bool   `dynamodbav:"Read"`
	CreatedAt       string `dynamodbav:"CreatedAt"`
}

func (d ddbNotification) toDomain() domain.Notification {
	createdAt, _ := time.Parse(tsFormat, d.CreatedAt)
	return domain.Notification{
		NotificationID:  d.NotificationID,
		RecipientID:     d.RecipientID,
		ActorID:         d.ActorID,
		Kind:            domain.NotificationKind(d.Kind),
		TargetContentID: d.TargetContentID,
		Message:         d.Message,
		Read:            d.Read,
		CreatedAt:       createdAt,
	}
}

// DynamoNotificationRepository implements NotificationRepository.
type DynamoNotificationRepository struct {
	client *dynamodb.Client
	cfg    Config
}

// NewDynamoNotificationRepository creates a DynamoDB-backed notification repository.
func NewDynamoNotificationRepository(client *dynamodb.Client, cfg Config) *DynamoNotificationRepository {
	return &DynamoNotificationRepository{client: client, cfg: cfg}
}

func (r *DynamoNotificationRepository) Insert(ctx context.Context, n *domain.Notification) error {
	record := ddbNotification{
		PK:              userPK(n.RecipientID),
		SK:              notifSortKey(n.NotificationID),
		NotificationID:  n.NotificationID,
		RecipientID:     n.RecipientID,
		ActorID:         n.ActorID,
		Kind:            string(n.Kind),
		TargetContentID: n.TargetContentID,
		Message:         n.Message,
		Read:            n.Read,
		CreatedAt:       n.CreatedAt.UTC().Format(tsFormat),
	}
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.callTimeout())
	defer cancel()

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.cfg.TableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(SK)"),
	})
	if err != nil {
		return translateErr(err, "insert notification")
	}
	return nil
}

// List pages through the recipient's inbox newest-first. The NOTIF# prefix
// keeps profile rows out of the query.
func (r *DynamoNotificationRepository) List(ctx context.Context, recipientID string, limit int32, cursor string) (*domain.NotificationPage, error) {
	startKey, err := DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.callTimeout())
	defer cancel()

	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.cfg.TableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     strAttr(userPK(recipientID)),
			":prefix": strAttr("NOTIF#"),
		},
		ScanIndexForward:  aws.Bool(false),
		Limit:             aws.Int32(limit),
		ExclusiveStartKey: startKey,
	})
	if err != nil {
		return nil, translateErr(err, "list notifications")
	}

	page := &domain.NotificationPage{Items: make([]domain.Notification, 0, len(out.Items))}
	for _, raw := range out.Items {
		var record ddbNotification
		if err := attributevalue.UnmarshalMap(raw, &record); err != nil {
			return nil, fmt.Errorf("unmarshal notification: %w", err)
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

// CountUnread pages through the inbox partition counting unread entries.
func (r *DynamoNotificationRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.callTimeout())
	defer cancel()

	var total int64
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.cfg.TableName),
			KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
			FilterExpression:       aws.String("#r = :false"),
			ExpressionAttributeNames: map[string]string{
				"#r": "Read",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk":     strAttr(userPK(recipientID)),
				":prefix": strAttr("NOTIF#"),
				":false":  &types.AttributeValueMemberBOOL{Value: false},
			},
			Select:            types.SelectCount,
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return 0, translateErr(err, "count unread notifications")
		}
		total += int64(out.Count)
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return total, nil
}

func (r *DynamoNotificationRepository) MarkRead(ctx context.Context, recipientID, notificationID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.callTimeout())
	defer cancel()

	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.cfg.TableName),
		Key:                 itemKey(userPK(recipientID), notifSortKey(notificationID)),
		UpdateExpression:    aws.String("SET #r = :true"),
		ConditionExpression: aws.String("attribute_exists(SK)"),
		ExpressionAttributeNames: map[string]string{
			"#r": "Read",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":true": &types.AttributeValueMemberBOOL{Value: true},
		},
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		if errors.Is(translateErr(err, ""), domain.ErrConflict) {
			return false, fmt.Errorf("notification %s: %w", notificationID, domain.ErrNotFound)
		}
		return false, translateErr(err, "mark notification read")
	}

	alreadyRead := false
	if attr, ok := out.Attributes["Read"].(*types.AttributeValueMemberBOOL); ok {
		alreadyRead = attr.Value
	}
	return alreadyRead, nil
}

func (r *DynamoNotificationRepository) Delete(ctx context.Context, recipientID, notificationID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.callTimeout())
	defer cancel()

	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.cfg.TableName),
		Key:                 itemKey(userPK(recipientID), notifSortKey(notificationID)),
		ConditionExpression: aws.String("attribute_exists(SK)"),
	})
	if err != nil {
		if errors.Is(translateErr(err, ""), domain.ErrConflict) {
			return fmt.Errorf("notification %s: %w", notificationID, domain.ErrNotFound)
		}
		return translateErr(err, "delete notification")
	}
	return nil
}

var _ NotificationRepository = (*DynamoNotificationRepository)(nil)
