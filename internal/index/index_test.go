package index_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/riskflow/internal/index"
	"github.com/gyaneshwarpardhi/riskflow/internal/txn"
)

func TestByMerchant_PreservesBatchOrder(t *testing.T) {
	batch := []txn.Transaction{
		{ID: "1", MerchantName: "Amazon"},
		{ID: "2", MerchantName: "Uber"},
		{ID: "3", MerchantName: "Amazon"},
	}
	idx := index.ByMerchant(batch)

	require.Equal(t, 2, idx.Len())
	assert.Equal(t, []string{"Amazon", "Uber"}, idx.Keys())
	got := idx.Get("Amazon")
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)
	assert.Nil(t, idx.Get("Netflix"))
}

func TestByUser_EmptyIDUsesSentinelBucket(t *testing.T) {
	batch := []txn.Transaction{
		{ID: "1", UserID: ""},
		{ID: "2", UserID: "user_1"},
		{ID: "3"},
	}
	idx := index.ByUser(batch)
	assert.Len(t, idx.Get(txn.Unknown), 2)
	assert.Len(t, idx.Get("user_1"), 1)
}

func TestByCategory_EmptyBatch(t *testing.T) {
	idx := index.ByCategory(nil)
	assert.Equal(t, 0, idx.Len())
	assert.Empty(t, idx.Keys())
}
