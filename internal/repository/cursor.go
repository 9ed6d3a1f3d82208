package repository

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/beeline-social/engagement-core/internal/domain"
)

// Pagination cursors wrap the store's resume position (DynamoDB's
// LastEvaluatedKey) in a transport-safe opaque token. Every key attribute in
// the table is a string, so the marker is a flat string map: structured encode
// (JSON) then a text-safe envelope (base64url, no padding). Clients only
// round-trip tokens; they never interpret them.

// EncodeCursor serializes a query's LastEvaluatedKey into an opaque token.
// A nil or empty key yields the empty token, meaning "no more pages".
func EncodeCursor(lastKey map[string]types.AttributeValue) (string, error) {
	if len(lastKey) == 0 {
		return "", nil
	}

	marker := make(map[string]string, len(lastKey))
	for name, av := range lastKey {
		s, ok := av.(*types.AttributeValueMemberS)
		if !ok {
			return "", fmt.Errorf("cursor: unsupported attribute type for %q", name)
		}
		marker[name] = s.Value
	}

	data, err := json.Marshal(marker)
	if err != nil {
		return "", fmt.Errorf("cursor: marshal: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeCursor reverses EncodeCursor. Any malformed or tampered token fails
// with domain.ErrInvalidCursor; internal details never leak to the caller.
// The empty token decodes to nil, meaning "start from the beginning".
func DecodeCursor(token string) (map[string]types.AttributeValue, error) {
	if token == "" {
		return nil, nil
	}

	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, domain.ErrInvalidCursor
	}

	var marker map[string]string
	if err := json.Unmarshal(data, &marker); err != nil {
		return nil, domain.ErrInvalidCursor
	}
	if len(marker) == 0 {
		return nil, domain.ErrInvalidCursor
	}

	lastKey := make(map[string]types.AttributeValue, len(marker))
	for name, value := range marker {
		lastKey[name] = &types.AttributeValueMemberS{Value: value}
	}
	return lastKey, nil
}
