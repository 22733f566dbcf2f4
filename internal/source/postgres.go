package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/billaudit/internal/db"
	"github.com/gyeh/billaudit/internal/model"
	embedsql "github.com/gyeh/billaudit/internal/sql"
)

// ErrCaseNotFound is returned by LoadCase for an unknown case id.
var ErrCaseNotFound = errors.New("case not found")

var (
	billItemColumns          = []string{"case_id", "position", "item_id", "description", "quantity", "unit_price", "total", "code"}
	authorizationLineColumns = []string{"case_id", "position", "folio_id", "line_id", "code", "description", "total_value", "covered_amount", "patient_copay"}
	contractRuleColumns      = []string{"case_id", "position", "rule_id", "domain", "coverage_percent", "cap", "literal_text"}
	folioColumns             = []string{"case_id", "position", "folio_id"}
)

type folioRecord struct {
	caseID   uuid.UUID
	position int32
	folioID  string
}

func (r folioRecord) CopyValues() []any {
	return []any{r.caseID, r.position, r.folioID}
}

type billItemRecord struct {
	caseID   uuid.UUID
	position int32
	item     model.BillItem
}

func (r billItemRecord) CopyValues() []any {
	row := model.NewBillItemRow(r.item)
	return []any{r.caseID, r.position, row.ItemID, row.Description, row.Quantity, row.UnitPrice, row.Total, row.Code}
}

type authorizationLineRecord struct {
	caseID   uuid.UUID
	position int32
	line     model.AuthorizationLine
}

func (r authorizationLineRecord) CopyValues() []any {
	row := model.NewAuthorizationRow(r.line)
	return []any{r.caseID, r.position, row.FolioID, row.LineID, row.Code, row.Description, row.TotalValue, row.CoveredAmount, row.PatientCopay}
}

type contractRuleRecord struct {
	caseID   uuid.UUID
	position int32
	rule     model.ContractRule
}

func (r contractRuleRecord) CopyValues() []any {
	var capAmount *int64
	if r.rule.Cap != nil {
		c := int64(*r.rule.Cap)
		capAmount = &c
	}
	return []any{r.caseID, r.position, r.rule.ID, string(r.rule.Domain), r.rule.CoveragePercent, capAmount, r.rule.LiteralText}
}

// Store persists audit inputs as cases in Postgres.
type Store struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

func NewStore(pool *pgxpool.Pool, log zerolog.Logger) *Store {
	return &Store{pool: pool, log: log}
}

// FindCase returns the most recent case whose input hashes to sha.
func (s *Store) FindCase(ctx context.Context, sha string) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx, embedsql.FindCaseBySHA, sha).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("find case: %w", err)
	}
	return id, true, nil
}

// SaveCase stores in under a new case id in one transaction.
func (s *Store) SaveCase(ctx context.Context, in model.Input, label string) (uuid.UUID, error) {
	start := time.Now()
	sha, err := InputHash(in)
	if err != nil {
		return uuid.Nil, err
	}
	id := uuid.New()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		threshold *int32
		fraction  *float64
		codes     []string
	)
	if cfg := in.Config; cfg != nil {
		if cfg.OpacityThreshold != nil {
			t := int32(*cfg.OpacityThreshold)
			threshold = &t
		}
		fraction = cfg.SystemicM3Fraction
		codes = cfg.GenericBucketCodes
	}
	if _, err := tx.Exec(ctx, embedsql.InsertCase, id, label, sha, threshold, fraction, codes); err != nil {
		return uuid.Nil, fmt.Errorf("insert case: %w", err)
	}

	bill := make([]billItemRecord, len(in.Bill.Items))
	for i, item := range in.Bill.Items {
		bill[i] = billItemRecord{caseID: id, position: int32(i), item: item}
	}
	folios := make([]folioRecord, len(in.Authorization.Folios))
	for i, f := range in.Authorization.Folios {
		folios[i] = folioRecord{caseID: id, position: int32(i), folioID: f.FolioID}
	}
	lines := in.Authorization.Lines()
	auth := make([]authorizationLineRecord, len(lines))
	for i, l := range lines {
		auth[i] = authorizationLineRecord{caseID: id, position: int32(i), line: l}
	}
	rules := make([]contractRuleRecord, len(in.Contract.Rules))
	for i, r := range in.Contract.Rules {
		rules[i] = contractRuleRecord{caseID: id, position: int32(i), rule: r}
	}

	if _, err := db.CopyRecords(ctx, tx, pgx.Identifier{"audit", "bill_items"}, billItemColumns, bill); err != nil {
		return uuid.Nil, err
	}
	if _, err := db.CopyRecords(ctx, tx, pgx.Identifier{"audit", "folios"}, folioColumns, folios); err != nil {
		return uuid.Nil, err
	}
	if _, err := db.CopyRecords(ctx, tx, pgx.Identifier{"audit", "authorization_lines"}, authorizationLineColumns, auth); err != nil {
		return uuid.Nil, err
	}
	if _, err := db.CopyRecords(ctx, tx, pgx.Identifier{"audit", "contract_rules"}, contractRuleColumns, rules); err != nil {
		return uuid.Nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("commit: %w", err)
	}

	s.log.Info().
		Str("case_id", id.String()).
		Int("bill_items", len(bill)).
		Int("folios", len(folios)).
		Int("lines", len(auth)).
		Int("rules", len(rules)).
		Dur("duration", time.Since(start)).
		Msg("case stored")
	return id, nil
}

// LoadCase reads a stored case back into an Input.
func (s *Store) LoadCase(ctx context.Context, id uuid.UUID) (model.Input, error) {
	var (
		label, sha string
		threshold  *int32
		fraction   *float64
		codes      []string
	)
	err := s.pool.QueryRow(ctx, embedsql.SelectCase, id).Scan(&label, &sha, &threshold, &fraction, &codes)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Input{}, fmt.Errorf("%w: %s", ErrCaseNotFound, id)
	}
	if err != nil {
		return model.Input{}, fmt.Errorf("select case: %w", err)
	}

	var in model.Input
	if threshold != nil || fraction != nil || len(codes) > 0 {
		in.Config = &model.InputConfig{SystemicM3Fraction: fraction, GenericBucketCodes: codes}
		if threshold != nil {
			t := int(*threshold)
			in.Config.OpacityThreshold = &t
		}
	}

	rows, err := s.pool.Query(ctx, embedsql.SelectBillItems, id)
	if err != nil {
		return model.Input{}, fmt.Errorf("select bill items: %w", err)
	}
	in.Bill.Items, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.BillItem, error) {
		var r model.BillItemRow
		err := row.Scan(&r.ItemID, &r.Description, &r.Quantity, &r.UnitPrice, &r.Total, &r.Code)
		return r.BillItem(), err
	})
	if err != nil {
		return model.Input{}, fmt.Errorf("scan bill items: %w", err)
	}

	rows, err = s.pool.Query(ctx, embedsql.SelectFolios, id)
	if err != nil {
		return model.Input{}, fmt.Errorf("select folios: %w", err)
	}
	folioIDs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return model.Input{}, fmt.Errorf("scan folios: %w", err)
	}

	rows, err = s.pool.Query(ctx, embedsql.SelectAuthorizationLines, id)
	if err != nil {
		return model.Input{}, fmt.Errorf("select authorization lines: %w", err)
	}
	lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.AuthorizationLine, error) {
		var r model.AuthorizationRow
		err := row.Scan(&r.FolioID, &r.LineID, &r.Code, &r.Description, &r.TotalValue, &r.CoveredAmount, &r.PatientCopay)
		return r.AuthorizationLine(), err
	})
	if err != nil {
		return model.Input{}, fmt.Errorf("scan authorization lines: %w", err)
	}
	// Cases stored before the folio table carry no ids; grouping by line
	// recovers every non-empty folio.
	in.Authorization.Folios = model.SeedFolios(folioIDs, lines)

	rows, err = s.pool.Query(ctx, embedsql.SelectContractRules, id)
	if err != nil {
		return model.Input{}, fmt.Errorf("select contract rules: %w", err)
	}
	in.Contract.Rules, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.ContractRule, error) {
		var (
			r         model.ContractRule
			domain    string
			capAmount *int64
		)
		if err := row.Scan(&r.ID, &domain, &r.CoveragePercent, &capAmount, &r.LiteralText); err != nil {
			return r, err
		}
		if err := r.Domain.UnmarshalText([]byte(domain)); err != nil {
			return r, err
		}
		if capAmount != nil {
			c := model.Money(*capAmount)
			r.Cap = &c
		}
		return r, nil
	})
	if err != nil {
		return model.Input{}, fmt.Errorf("scan contract rules: %w", err)
	}

	s.log.Debug().Str("case_id", id.String()).Str("label", label).Str("sha256", sha).Msg("case read")
	return in, nil
}
