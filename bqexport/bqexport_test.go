package bqexport

import (
	"testing"

	"cloud.google.com/go/bigquery"
	"github.com/carbocation/varmatrix/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"
)

func TestFromStore(t *testing.T) {
	rows := FromStore([]store.AlleleCount{
		{Label: "a", Site: 0, Position: 1.5, State: null.IntFrom(1), Count: 4},
		{Label: "a", Site: 0, Position: 1.5, Count: 2},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, bigquery.NullInt64{Int64: 1, Valid: true}, rows[0].State)
	assert.False(t, rows[1].State.Valid)
	assert.Equal(t, int64(2), rows[1].Count)
	assert.Equal(t, 1.5, rows[1].Position)
}

func TestBatches(t *testing.T) {
	assert.Equal(t, [][2]int{{0, 2}, {2, 4}, {4, 5}}, Batches(5, 2))
	assert.Equal(t, [][2]int{{0, 3}}, Batches(3, 10))
	assert.Empty(t, Batches(0, 10))
	assert.Equal(t, [][2]int{{0, DefaultBatchSize}, {DefaultBatchSize, DefaultBatchSize + 1}}, Batches(DefaultBatchSize+1, 0))
}

func TestSchemaInference(t *testing.T) {
	schema, err := bigquery.InferSchema(AlleleCountRow{})
	require.NoError(t, err)

	names := make([]string, 0, len(schema))
	for _, f := range schema {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"label", "site", "position", "state", "count"}, names)
}
