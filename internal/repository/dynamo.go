package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/beeline-social/engagement-core/internal/domain"
)

// Single-table layout. All durable engagement state shares one DynamoDB table;
// entities are distinguished by key prefixes and sparse GSI attributes.
const (
	// Secondary indexes.
	OwnerTimelineIndex = "OwnerTimelineIndex" // GSI1: content per owner, newest first
	TargetIndex        = "TargetIndex"        // GSI2: interactions per target content
	ReplyIndex         = "ReplyIndex"         // GSI3: comment replies per parent

	// Fixed-width timestamp used in range keys so lexicographic order is
	// chronological order.
	tsFormat = domain.TimeSortFormat
)

// Config holds DynamoDB connection settings.
type Config struct {
	TableName       string        `mapstructure:"table_name"`
	Region          string        `mapstructure:"region"`
	Endpoint        string        `mapstructure:"endpoint"` // set for dynamodb-local
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	CallTimeout     time.Duration `mapstructure:"call_timeout"`
}

// NewClient creates a DynamoDB client. A custom endpoint and static
// credentials are supported for local development against dynamodb-local.
func NewClient(ctx context.Context, cfg Config) (*dynamodb.Client, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var ddbOpts []func(*dynamodb.Options)
	if cfg.Endpoint != "" {
		ddbOpts = append(ddbOpts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	return dynamodb.NewFromConfig(awsCfg, ddbOpts...), nil
}

// callTimeout returns the configured per-call timeout, defaulting to 3s.
// Every store call runs under one; no operation may hang indefinitely.
func (c Config) callTimeout() time.Duration {
	if c.CallTimeout > 0 {
		return c.CallTimeout
	}
	return 3 * time.Second
}

// Key builders.

func userPK(userID string) string            { return "USER#" + userID }
func contentPK(contentID string) string      { return "CONTENT#" + contentID }
func interactionPK(id string) string         { return "INTERACTION#" + id }
func ownerKey(ownerID string) string         { return "OWNER#" + ownerID }
func targetKey(contentID string) string      { return "TARGET#" + contentID }
func parentKey(parentID string) string       { return "PARENT#" + parentID }
func rateKey(identity, route string) string  { return "RATE#" + identity + "#" + route }
func tsSortKey(t time.Time, id string) string {
	return "TS#" + t.UTC().Format(tsFormat) + "#" + id
}

// notifSortKey relies on notification ids carrying their creation timestamp
// as a prefix, so the inbox range key both sorts chronologically and remains
// addressable by id alone.
func notifSortKey(id string) string { return "NOTIF#" + id }

const (
	skProfile = "PROFILE"
	skMeta    = "META"
	skWindow  = "WINDOW"
)

func strAttr(s string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: s}
}

func numAttr(n int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", n)}
}

func itemKey(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": strAttr(pk),
		"SK": strAttr(sk),
	}
}

// translateErr maps DynamoDB failures onto the domain taxonomy. Conditional
// check failures become ErrConflict; cancelled transactions keep their most
// specific reason; everything else (throttling, network, 5xx) surfaces as
// ErrUpstreamUnavailable so the caller can decide whether to degrade.
func translateErr(err error, op string) error {
	if err == nil {
		return nil
	}

	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("%s: %w", op, domain.ErrConflict)
	}

	var tcx *types.TransactionCanceledException
	if errors.As(err, &tcx) {
		for _, reason := range tcx.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				return fmt.Errorf("%s: %w", op, domain.ErrConflict)
			}
		}
		return fmt.Errorf("%s: transaction canceled: %w", op, domain.ErrUpstreamUnavailable)
	}

	var rnf *types.ResourceNotFoundException
	if errors.As(err, &rnf) {
		return fmt.Errorf("%s: table missing: %w", op, domain.ErrUpstreamUnavailable)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, domain.ErrUpstreamUnavailable)
	}

	return fmt.Errorf("%s: %v: %w", op, err, domain.ErrUpstreamUnavailable)
}
