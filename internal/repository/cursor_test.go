package repository

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/beeline-social/engagement-core/internal/domain"
)

func TestCursorRoundTrip(t *testing.T) {
	lastKey := map[string]types.AttributeValue{
		"PK":     &types.AttributeValueMemberS{Value: "CONTENT#c-42"},
		"SK":     &types.AttributeValueMemberS{Value: "META"},
		"GSI1PK": &types.AttributeValueMemberS{Value: "OWNER#u-7"},
		"GSI1SK": &types.AttributeValueMemberS{Value: "TS#2025-06-01T10:00:00.000000000Z#c-42"},
	}

	token, err := EncodeCursor(lastKey)
	if err != nil {
		t.Fatalf("EncodeCursor: %v", err)
	}
	if token == "" {
		t.Fatal("EncodeCursor returned empty token for non-empty key")
	}

	decoded, err := DecodeCursor(token)
	if err != nil {
		t.Fatalf("DecodeCursor: %v", err)
	}
	if len(decoded) != len(lastKey) {
		t.Fatalf("decoded key has %d attributes, want %d", len(decoded), len(lastKey))
	}
	for name, want := range lastKey {
		got, ok := decoded[name].(*types.AttributeValueMemberS)
		if !ok {
			t.Fatalf("attribute %q is not a string member", name)
		}
		if got.Value != want.(*types.AttributeValueMemberS).Value {
			t.Errorf("attribute %q = %q, want %q", name, got.Value, want.(*types.AttributeValueMemberS).Value)
		}
	}
}

func TestCursorEmptyKey(t *testing.T) {
	token, err := EncodeCursor(nil)
	if err != nil {
		t.Fatalf("EncodeCursor(nil): %v", err)
	}
	if token != "" {
		t.Errorf("EncodeCursor(nil) = %q, want empty", token)
	}

	decoded, err := DecodeCursor("")
	if err != nil {
		t.Fatalf("DecodeCursor(empty): %v", err)
	}
	if decoded != nil {
		t.Errorf("DecodeCursor(empty) = %v, want nil", decoded)
	}
}

func TestDecodeCursorGarbage(t *testing.T) {
	cases := []struct {
		name  string
		token string
	}{
		{"not base64", "!!!not-base64!!!"},
		{"base64 but not json", base64.RawURLEncoding.EncodeToString([]byte("garbage"))},
		{"json but wrong shape", base64.RawURLEncoding.EncodeToString([]byte(`[1,2,3]`))},
		{"empty object", base64.RawURLEncoding.EncodeToString([]byte(`{}`))},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeCursor(tc.token)
			if !errors.Is(err, domain.ErrInvalidCursor) {
				t.Errorf("DecodeCursor(%q) error = %v, want ErrInvalidCursor", tc.token, err)
			}
		})
	}
}

func TestEncodeCursorRejectsNonStringKeys(t *testing.T) {
	lastKey := map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberN{Value: "42"},
	}
	if _, err := EncodeCursor(lastKey); err == nil {
		t.Error("EncodeCursor accepted a numeric key attribute")
	}
}
