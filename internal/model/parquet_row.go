package model

// BillItemRow mirrors the Parquet schema the extraction pipeline writes for
// invoice lines. Amounts are int64 whole units.
type BillItemRow struct {
	ItemID      string   `parquet:"item_id"`
	Description string   `parquet:"description"`
	Quantity    *float64 `parquet:"quantity,optional"`
	UnitPrice   *int64   `parquet:"unit_price,optional"`
	Total       int64    `parquet:"total"`
	Code        *string  `parquet:"code,optional"`
}

// AuthorizationRow mirrors the Parquet schema for settlement lines.
// Folios are implied by FolioID.
type AuthorizationRow struct {
	FolioID       string `parquet:"folio_id"`
	LineID        string `parquet:"line_id"`
	Code          string `parquet:"code"`
	Description   string `parquet:"description"`
	TotalValue    int64  `parquet:"total_value"`
	CoveredAmount int64  `parquet:"covered_amount"`
	PatientCopay  int64  `parquet:"patient_copay"`
}

// BillItem converts the row to the canonical record.
func (r *BillItemRow) BillItem() BillItem {
	item := BillItem{
		ID:          r.ItemID,
		Description: r.Description,
		Quantity:    r.Quantity,
		Total:       Money(r.Total),
	}
	if r.UnitPrice != nil {
		p := Money(*r.UnitPrice)
		item.UnitPrice = &p
	}
	if r.Code != nil {
		item.Code = *r.Code
	}
	return item
}

// NewBillItemRow is the inverse of BillItem.
func NewBillItemRow(item BillItem) BillItemRow {
	row := BillItemRow{
		ItemID:      item.ID,
		Description: item.Description,
		Quantity:    item.Quantity,
		Total:       int64(item.Total),
	}
	if item.UnitPrice != nil {
		p := int64(*item.UnitPrice)
		row.UnitPrice = &p
	}
	if item.Code != "" {
		c := item.Code
		row.Code = &c
	}
	return row
}

// AuthorizationLine converts the row to the canonical record.
func (r *AuthorizationRow) AuthorizationLine() AuthorizationLine {
	return AuthorizationLine{
		ID:            r.LineID,
		FolioID:       r.FolioID,
		Code:          r.Code,
		Description:   r.Description,
		TotalValue:    Money(r.TotalValue),
		CoveredAmount: Money(r.CoveredAmount),
		PatientCopay:  Money(r.PatientCopay),
	}
}

// NewAuthorizationRow is the inverse of AuthorizationLine.
func NewAuthorizationRow(l AuthorizationLine) AuthorizationRow {
	return AuthorizationRow{
		FolioID:       l.FolioID,
		LineID:        l.ID,
		Code:          l.Code,
		Description:   l.Description,
		TotalValue:    int64(l.TotalValue),
		CoveredAmount: int64(l.CoveredAmount),
		PatientCopay:  int64(l.PatientCopay),
	}
}

// GroupFolios rebuilds folios from flat lines, in first-appearance order.
func GroupFolios(lines []AuthorizationLine) []Folio {
	return SeedFolios(nil, lines)
}

// SeedFolios starts from the folio ids in ids, in order, and attaches each
// line to its folio. Seeded folios without lines stay empty; lines naming an
// unseeded folio append it in first-appearance order.
func SeedFolios(ids []string, lines []AuthorizationLine) []Folio {
	var folios []Folio
	pos := make(map[string]int)
	for _, id := range ids {
		if _, ok := pos[id]; ok {
			continue
		}
		pos[id] = len(folios)
		folios = append(folios, Folio{FolioID: id, Items: []AuthorizationLine{}})
	}
	for _, l := range lines {
		i, ok := pos[l.FolioID]
		if !ok {
			i = len(folios)
			pos[l.FolioID] = i
			folios = append(folios, Folio{FolioID: l.FolioID})
		}
		folios[i].Items = append(folios[i].Items, l)
	}
	return folios
}
