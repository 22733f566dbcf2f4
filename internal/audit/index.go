package audit

import (
	"sort"
	"strings"

	"github.com/gyeh/billaudit/internal/model"
	"github.com/gyeh/billaudit/internal/normalize"
)

// BillIndex holds the two lookup structures over the invoice. It is built
// once per audit and read-only afterwards.
type BillIndex struct {
	byAmount        map[model.Money][]model.BillItem
	byDescription   map[string][]model.BillItem
	descriptionKeys []string // sorted, non-empty
}

// IndexStats describes the shape of a BillIndex.
type IndexStats struct {
	Items              int
	AmountBuckets      int
	SharedAmounts      int // amounts carried by two or more items
	DescriptionBuckets int
}

// NewBillIndex indexes items by exact total and by folded description.
// Every item lands in exactly one bucket of each map.
func NewBillIndex(items []model.BillItem) *BillIndex {
	ix := &BillIndex{
		byAmount:      make(map[model.Money][]model.BillItem),
		byDescription: make(map[string][]model.BillItem),
	}
	for _, item := range items {
		ix.byAmount[item.Total] = append(ix.byAmount[item.Total], item)
		key := normalize.FoldText(item.Description)
		ix.byDescription[key] = append(ix.byDescription[key], item)
	}
	for key := range ix.byDescription {
		if key != "" {
			ix.descriptionKeys = append(ix.descriptionKeys, key)
		}
	}
	sort.Strings(ix.descriptionKeys)
	return ix
}

// ByAmount returns the items whose total equals amount.
func (ix *BillIndex) ByAmount(amount model.Money) []model.BillItem {
	return ix.byAmount[amount]
}

// ByDescription returns the items whose folded description equals key.
func (ix *BillIndex) ByDescription(key string) []model.BillItem {
	return ix.byDescription[key]
}

// RelatedKey returns the first indexed description (in sorted order) that
// contains key or is contained in it.
func (ix *BillIndex) RelatedKey(key string) (string, bool) {
	if key == "" {
		return "", false
	}
	for _, k := range ix.descriptionKeys {
		if strings.Contains(k, key) || strings.Contains(key, k) {
			return k, true
		}
	}
	return "", false
}

func (ix *BillIndex) Stats() IndexStats {
	st := IndexStats{
		AmountBuckets:      len(ix.byAmount),
		DescriptionBuckets: len(ix.byDescription),
	}
	for _, items := range ix.byAmount {
		st.Items += len(items)
		if len(items) > 1 {
			st.SharedAmounts++
		}
	}
	return st
}
