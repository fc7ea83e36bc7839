package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCandidateField(t *testing.T) {
	tests := []struct {
		name       string
		field      string
		collection string
		wantReason MatchReason
		wantMatch  bool
	}{
		{
			name:       "singular snake id",
			field:      "equipment_id",
			collection: "equipments",
			wantReason: MatchSingularID,
			wantMatch:  true,
		},
		{
			name:       "singular camel id",
			field:      "equipmentId",
			collection: "equipments",
			wantReason: MatchSingularID,
			wantMatch:  true,
		},
		{
			name:       "plural snake id",
			field:      "equipments_id",
			collection: "equipments",
			wantReason: MatchPluralID,
			wantMatch:  true,
		},
		{
			name:       "name containment",
			field:      "primaryEquipmentRef",
			collection: "equipments",
			wantReason: MatchNameContain,
			wantMatch:  true,
		},
		{
			name:       "generic id suffix",
			field:      "owner_id",
			collection: "equipments",
			wantReason: MatchGenericID,
			wantMatch:  true,
		},
		{
			name:       "primary id is not a candidate",
			field:      "_id",
			collection: "equipments",
			wantMatch:  false,
		},
		{
			name:       "plain field no match",
			field:      "plate",
			collection: "defects",
			wantMatch:  false,
		},
		{
			name:       "empty field",
			field:      "",
			collection: "defects",
			wantMatch:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason, ok := CandidateField(tt.field, tt.collection)
			assert.Equal(t, tt.wantMatch, ok)
			if tt.wantMatch {
				assert.Equal(t, tt.wantReason, reason)
			}
		})
	}
}
