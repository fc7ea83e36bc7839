package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const validHex = "507f1f77bcf86cd799439011"

func TestIsObjectIDHex(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"valid lowercase", validHex, true},
		{"valid uppercase", "507F1F77BCF86CD799439011", true},
		{"too short", "507f1f77bcf86cd79943901", false},
		{"too long", validHex + "a", false},
		{"non-hex characters", "507f1f77bcf86cd79943901z", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isObjectIDHex(tt.input))
		})
	}
}

func TestCoerceObjectIDs_IdentifierKeys(t *testing.T) {
	oid, err := primitive.ObjectIDFromHex(validHex)
	require.NoError(t, err)

	tests := []struct {
		name  string
		query bson.M
		want  bson.M
	}{
		{
			name:  "_id field converted",
			query: bson.M{"_id": validHex},
			want:  bson.M{"_id": oid},
		},
		{
			name:  "snake_case id suffix converted",
			query: bson.M{"equipment_id": validHex},
			want:  bson.M{"equipment_id": oid},
		},
		{
			name:  "camelCase Id suffix converted",
			query: bson.M{"equipmentId": validHex},
			want:  bson.M{"equipmentId": oid},
		},
		{
			name:  "non-identifier field untouched",
			query: bson.M{"plate": validHex},
			want:  bson.M{"plate": validHex},
		},
		{
			name:  "invalid hex untouched",
			query: bson.M{"_id": "not-an-object-id"},
			want:  bson.M{"_id": "not-an-object-id"},
		},
		{
			name:  "wrong length untouched",
			query: bson.M{"_id": "507f1f77"},
			want:  bson.M{"_id": "507f1f77"},
		},
		{
			name:  "extended json oid unwrapped",
			query: bson.M{"_id": bson.M{"$oid": validHex}},
			want:  bson.M{"_id": oid},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CoerceObjectIDs(tt.query))
		})
	}
}

func TestCoerceObjectIDs_OperatorTrees(t *testing.T) {
	oid, err := primitive.ObjectIDFromHex(validHex)
	require.NoError(t, err)

	t.Run("in operator inside id field", func(t *testing.T) {
		got := CoerceObjectIDs(bson.M{
			"_id": bson.M{"$in": []any{validHex, "not-hex"}},
		})
		assert.Equal(t, bson.M{
			"_id": bson.M{"$in": []any{oid, "not-hex"}},
		}, got)
	})

	t.Run("or operator recurses into branches", func(t *testing.T) {
		got := CoerceObjectIDs(bson.M{
			"$or": []any{
				bson.M{"equipment_id": validHex},
				bson.M{"plate": "X1"},
			},
		})
		assert.Equal(t, bson.M{
			"$or": []any{
				bson.M{"equipment_id": oid},
				bson.M{"plate": "X1"},
			},
		}, got)
	})

	t.Run("nested non-identifier object recurses", func(t *testing.T) {
		got := CoerceObjectIDs(bson.M{
			"meta": bson.M{"owner_id": validHex},
		})
		assert.Equal(t, bson.M{
			"meta": bson.M{"owner_id": oid},
		}, got)
	})

	t.Run("nil query", func(t *testing.T) {
		assert.Nil(t, CoerceObjectIDs(nil))
	})
}

// Conversion must round-trip: the coerced ObjectID renders back to the
// original hex text.
func TestCoerceObjectIDs_RoundTrip(t *testing.T) {
	got := CoerceObjectIDs(bson.M{"_id": validHex})
	oid, ok := got["_id"].(primitive.ObjectID)
	require.True(t, ok, "expected ObjectID, got %T", got["_id"])
	assert.Equal(t, validHex, oid.Hex())
}
