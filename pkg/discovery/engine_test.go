package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// fixtureSampler serves canned collections; failing collections return an
// error to exercise the degraded path.
type fixtureSampler struct {
	collections map[string][]bson.M
	failing     map[string]bool
	listErr     error
}

func (f *fixtureSampler) ListCollections(ctx context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var names []string
	for name := range f.collections {
		names = append(names, name)
	}
	return names, nil
}

func (f *fixtureSampler) GetSampleData(ctx context.Context, collection string, limit int64, fields []string) ([]bson.M, error) {
	if f.failing[collection] {
		return nil, errors.New("sample failed")
	}
	docs := f.collections[collection]
	if int64(len(docs)) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

func newTestEngine(s Sampler) *Engine {
	return NewEngine(s, zap.NewNop())
}

// The canonical case: defects.equipment_id referencing equipments._id with
// a perfect 1/1 sample match.
func TestFindBetween_PerfectMatch(t *testing.T) {
	sampler := &fixtureSampler{
		collections: map[string][]bson.M{
			"equipments": {
				{"_id": "a1", "plate": "X1"},
			},
			"defects": {
				{"_id": "d1", "equipment_id": "a1"},
			},
		},
	}

	found, err := newTestEngine(sampler).FindBetween(context.Background(), "equipments", "defects")
	require.NoError(t, err)
	require.Len(t, found, 1)

	rel := found[0]
	assert.Equal(t, "defects", rel.FromCollection)
	assert.Equal(t, "equipment_id", rel.FromField)
	assert.Equal(t, "equipments", rel.ToCollection)
	assert.Equal(t, "_id", rel.ToField)
	assert.Equal(t, 1.0, rel.Strength)
	assert.Equal(t, 1, rel.Matched)
	assert.Equal(t, 1, rel.Checked)
	assert.True(t, rel.Strong())
}

func TestFindBetween_StrengthBounds(t *testing.T) {
	// 4 defects, only 1 resolves: strength 0.25 — accepted (> 0.1) but weak.
	sampler := &fixtureSampler{
		collections: map[string][]bson.M{
			"equipments": {
				{"_id": "a1"},
			},
			"defects": {
				{"_id": "d1", "equipment_id": "a1"},
				{"_id": "d2", "equipment_id": "zz"},
				{"_id": "d3", "equipment_id": "zz"},
				{"_id": "d4", "equipment_id": "zz"},
			},
		},
	}

	found, err := newTestEngine(sampler).FindBetween(context.Background(), "equipments", "defects")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 0.25, found[0].Strength)
	assert.False(t, found[0].Strong())
	assert.GreaterOrEqual(t, found[0].Strength, 0.0)
	assert.LessOrEqual(t, found[0].Strength, 1.0)
}

func TestFindBetween_BelowThresholdRejected(t *testing.T) {
	// 1 of 20 resolves: strength 0.05 ≤ 0.1 — rejected.
	defects := make([]bson.M, 20)
	defects[0] = bson.M{"_id": "d0", "equipment_id": "a1"}
	for i := 1; i < 20; i++ {
		defects[i] = bson.M{"_id": "dx", "equipment_id": "missing"}
	}

	sampler := &fixtureSampler{
		collections: map[string][]bson.M{
			"equipments": {{"_id": "a1"}},
			"defects":    defects,
		},
	}

	found, err := newTestEngine(sampler).FindBetween(context.Background(), "equipments", "defects")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestFindBetween_EmptySampleInvalid(t *testing.T) {
	sampler := &fixtureSampler{
		collections: map[string][]bson.M{
			"equipments": {},
			"defects":    {{"_id": "d1", "equipment_id": "a1"}},
		},
	}

	found, err := newTestEngine(sampler).FindBetween(context.Background(), "equipments", "defects")
	require.NoError(t, err)
	assert.Empty(t, found, "empty sample must verify nothing")
}

func TestFindBetween_Symmetric(t *testing.T) {
	// Both directions carry references.
	sampler := &fixtureSampler{
		collections: map[string][]bson.M{
			"equipments": {
				{"_id": "a1", "last_defect_id": "d1"},
			},
			"defects": {
				{"_id": "d1", "equipment_id": "a1"},
			},
		},
	}

	found, err := newTestEngine(sampler).FindBetween(context.Background(), "equipments", "defects")
	require.NoError(t, err)
	require.Len(t, found, 2)

	directions := map[string]bool{}
	for _, rel := range found {
		directions[rel.FromCollection+"->"+rel.ToCollection] = true
	}
	assert.True(t, directions["defects->equipments"])
	assert.True(t, directions["equipments->defects"])
}

func TestDiscoverAll_ReportAndComponents(t *testing.T) {
	sampler := &fixtureSampler{
		collections: map[string][]bson.M{
			"equipments": {{"_id": "a1", "plate": "X1"}},
			"defects":    {{"_id": "d1", "equipment_id": "a1"}},
			"drivers":    {{"_id": "u1", "name": "alex"}},
		},
	}

	report, err := newTestEngine(sampler).DiscoverAll(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Relationships, 1)
	assert.Equal(t, 1, report.StrongCount)
	assert.Equal(t, 0, report.WeakCount)
	assert.False(t, report.Limited)

	// drivers has no accepted relationship, so only one component exists.
	require.Len(t, report.Components, 1)
	assert.Equal(t, []string{"defects", "equipments"}, report.Components[0])
}

func TestDiscoverAll_FailingPairDegrades(t *testing.T) {
	sampler := &fixtureSampler{
		collections: map[string][]bson.M{
			"equipments": {{"_id": "a1"}},
			"defects":    {{"_id": "d1", "equipment_id": "a1"}},
			"broken":     {{"_id": "b1"}},
		},
		failing: map[string]bool{"broken": true},
	}

	report, err := newTestEngine(sampler).DiscoverAll(context.Background())
	require.NoError(t, err, "one failing pair must not abort the run")

	assert.True(t, report.Limited)
	assert.NotEmpty(t, report.NotAnalyzed)
	assert.NotEmpty(t, report.Note)
	// The healthy pair is still analyzed.
	require.Len(t, report.Relationships, 1)
	assert.Equal(t, "defects", report.Relationships[0].FromCollection)
}
