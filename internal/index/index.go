// Package index builds read-only groupings of a transaction batch.
// An Index is rebuilt per invocation and never shared between jobs.
package index

import "github.com/gyaneshwarpardhi/riskflow/internal/txn"

// Index maps a grouping key to the transactions sharing it, in batch order.
type Index struct {
	groups map[string][]txn.Transaction
	keys   []string // first-appearance order
}

// Build groups batch by keyFn.
func Build(batch []txn.Transaction, keyFn func(txn.Transaction) string) Index {
	idx := Index{groups: make(map[string][]txn.Transaction)}
	for _, t := range batch {
		k := keyFn(t)
		if _, ok := idx.groups[k]; !ok {
			idx.keys = append(idx.keys, k)
		}
		idx.groups[k] = append(idx.groups[k], t)
	}
	return idx
}

// ByMerchant groups by merchant name. Empty names share the txn.Unknown bucket.
func ByMerchant(batch []txn.Transaction) Index {
	return Build(batch, txn.Transaction.MerchantKey)
}

// ByUser groups by user id. Empty ids share the txn.Unknown bucket.
func ByUser(batch []txn.Transaction) Index {
	return Build(batch, txn.Transaction.UserKey)
}

// ByCategory groups by category. Empty categories share the txn.Unknown bucket.
func ByCategory(batch []txn.Transaction) Index {
	return Build(batch, txn.Transaction.CategoryKey)
}

// Get returns the group for key. Callers must not modify the returned slice.
func (x Index) Get(key string) []txn.Transaction {
	return x.groups[key]
}

// Keys returns the keys in first-appearance order.
func (x Index) Keys() []string {
	return x.keys
}

// Len returns the number of distinct keys.
func (x Index) Len() int {
	return len(x.keys)
}
