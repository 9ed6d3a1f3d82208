package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/beeline-social/engagement-core/internal/domain"
)

// DynamoRateWindowStore keeps one item per (identity, route) pair holding the
// current fixed window's hit count. Window turnover is a conditional
// overwrite, so replicas racing into a fresh window converge on one winner
// and the losers fall back to incrementing. Items carry a TTL of twice the
// window so stale counters age out on their own.
type DynamoRateWindowStore struct {
	client *dynamodb.Client
	cfg    Config
}

// NewDynamoRateWindowStore creates a DynamoDB-backed rate window store.
func NewDynamoRateWindowStore(client *dynamodb.Client, cfg Config) *DynamoRateWindowStore {
	return &DynamoRateWindowStore{client: client, cfg: cfg}
}

// Hit records one hit in the window beginning at windowStart and returns the
// window's running total.
func (s *DynamoRateWindowStore) Hit(ctx context.Context, identity, route string, windowStart time.Time, window time.Duration) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.callTimeout())
	defer cancel()

	ws := windowStart.UTC().Format(tsFormat)

	count, err := s.increment(ctx, identity, route, ws)
	if err == nil {
		return count, nil
	}
	if !errors.Is(err, domain.ErrConflict) {
		return 0, err
	}

	// No counter for this window yet. Open it, or lose the race and
	// increment the winner's counter.
	if err := s.openWindow(ctx, identity, route, ws, windowStart, window); err == nil {
		return 1, nil
	} else if !errors.Is(err, domain.ErrConflict) {
		return 0, err
	}
	return s.increment(ctx, identity, route, ws)
}

func (s *DynamoRateWindowStore) increment(ctx context.Context, identity, route, windowStart string) (int64, error) {
	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.cfg.TableName),
		Key:                 itemKey(rateKey(identity, route), skWindow),
		UpdateExpression:    aws.String("ADD HitCount :one"),
		ConditionExpression: aws.String("WindowStart = :ws"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": numAttr(1),
			":ws":  strAttr(windowStart),
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		return 0, translateErr(err, "increment rate window")
	}

	attr, ok := out.Attributes["HitCount"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("rate window missing HitCount attribute")
	}
	count, err := strconv.ParseInt(attr.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse HitCount: %w", err)
	}
	return count, nil
}

func (s *DynamoRateWindowStore) openWindow(ctx context.Context, identity, route, ws string, windowStart time.Time, window time.Duration) error {
	expiresAt := windowStart.Add(2 * window).Unix()
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.cfg.TableName),
		Item: map[string]types.AttributeValue{
			"PK":          strAttr(rateKey(identity, route)),
			"SK":          strAttr(skWindow),
			"WindowStart": strAttr(ws),
			"HitCount":    numAttr(1),
			"ExpiresAt":   numAttr(expiresAt),
		},
		ConditionExpression: aws.String("attribute_not_exists(PK) OR WindowStart <> :ws"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ws": strAttr(ws),
		},
	})
	if err != nil {
		return translateErr(err, "open rate window")
	}
	return nil
}
