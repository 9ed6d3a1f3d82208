package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/beeline-social/engagement-core/internal/domain"
)

// DynamoGraphRepository stores each user's follow graph as two string-set
// attributes on the user item. Set ADD/DELETE are atomic and idempotent, so
// every half of a follow/unfollow is safe to retry or re-apply.
type DynamoGraphRepository struct {
	client *dynamodb.Client
	cfg    Config
}

// NewDynamoGraphRepository creates a DynamoDB-backed graph repository.
func NewDynamoGraphRepository(client *dynamodb.Client, cfg Config) *DynamoGraphRepository {
	return &DynamoGraphRepository{client: client, cfg: cfg}
}

func (r *DynamoGraphRepository) EnsureUser(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.callTimeout())
	defer cancel()

	_, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.cfg.TableName),
		Item:                itemKey(userPK(userID), skProfile),
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil // already exists
		}
		return translateErr(err, "ensure user")
	}
	return nil
}

// mutateSet runs a single ADD or DELETE on one of the follow sets.
func (r *DynamoGraphRepository) mutateSet(ctx context.Context, userID, attr, verb, member string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.callTimeout())
	defer cancel()

	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.cfg.TableName),
		Key:              itemKey(userPK(userID), skProfile),
		UpdateExpression: aws.String(fmt.Sprintf("%s #s :m", verb)),
		ExpressionAttributeNames: map[string]string{
			"#s": attr,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":m": &types.AttributeValueMemberSS{Value: []string{member}},
		},
	})
	if err != nil {
		return translateErr(err, verb+" "+attr)
	}
	return nil
}

func (r *DynamoGraphRepository) AddFollowing(ctx context.Context, followerID, targetID string) error {
	return r.mutateSet(ctx, followerID, "Following", "ADD", targetID)
}

func (r *DynamoGraphRepository) AddFollower(ctx context.Context, targetID, followerID string) error {
	return r.mutateSet(ctx, targetID, "Followers", "ADD", followerID)
}

func (r *DynamoGraphRepository) RemoveFollowing(ctx context.Context, followerID, targetID string) error {
	return r.mutateSet(ctx, followerID, "Following", "DELETE", targetID)
}

func (r *DynamoGraphRepository) RemoveFollower(ctx context.Context, targetID, followerID string) error {
	return r.mutateSet(ctx, targetID, "Followers", "DELETE", followerID)
}

func (r *DynamoGraphRepository) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.callTimeout())
	defer cancel()

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.cfg.TableName),
		Key:       itemKey(userPK(userID), skProfile),
	})
	if err != nil {
		return nil, translateErr(err, "get user")
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}

	user := &domain.User{UserID: userID}
	if ss, ok := out.Item["Following"].(*types.AttributeValueMemberSS); ok {
		user.Following = ss.Value
	}
	if ss, ok := out.Item["Followers"].(*types.AttributeValueMemberSS); ok {
		user.Followers = ss.Value
	}
	return user, nil
}

func (r *DynamoGraphRepository) IsFollowing(ctx context.Context, followerID, targetID string) (bool, error) {
	user, err := r.GetUser(ctx, followerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	for _, id := range user.Following {
		if id == targetID {
			return true, nil
		}
	}
	return false, nil
}

// Ensure interface is satisfied at compile time.
var _ GraphRepository = (*DynamoGraphRepository)(nil)
