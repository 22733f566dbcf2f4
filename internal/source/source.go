// Package source loads audit inputs from JSON files, Parquet extractions or
// the Postgres case store.
package source

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyeh/billaudit/internal/config"
	"github.com/gyeh/billaudit/internal/model"
	"github.com/gyeh/billaudit/internal/normalize"
)

// PhaseError wraps an error with the loading phase where it occurred.
type PhaseError struct {
	Phase string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// CaseReader reads a stored case back into an Input.
type CaseReader interface {
	LoadCase(ctx context.Context, id uuid.UUID) (model.Input, error)
}

// Loaded is an input together with where it came from.
type Loaded struct {
	Input  model.Input
	Mode   config.SourceMode
	SHA256 string
	// Files maps each input file path to its SHA-256. Empty for stored cases.
	Files map[string]string
}

// Load reads the input selected by cfg. cases may be nil unless cfg selects
// a stored case.
func Load(ctx context.Context, log zerolog.Logger, cfg *config.Config, cases CaseReader) (*Loaded, error) {
	start := time.Now()
	mode, err := cfg.Mode()
	if err != nil {
		return nil, &PhaseError{Phase: "select", Err: err}
	}

	loaded := &Loaded{Mode: mode, Files: map[string]string{}}
	var paths []string
	switch mode {
	case config.SourceJSON:
		in, err := LoadJSON(cfg.InputPath)
		if err != nil {
			return nil, &PhaseError{Phase: "json", Err: err}
		}
		loaded.Input = in
		paths = []string{cfg.InputPath}

	case config.SourceParquet:
		in, err := LoadParquet(cfg.BillPath, cfg.AuthorizationPath, cfg.ContractPath)
		if err != nil {
			return nil, &PhaseError{Phase: "parquet", Err: err}
		}
		loaded.Input = in
		paths = []string{cfg.BillPath, cfg.AuthorizationPath, cfg.ContractPath}

	case config.SourceCase:
		if cases == nil {
			return nil, &PhaseError{Phase: "case", Err: fmt.Errorf("no case store configured")}
		}
		id, err := uuid.Parse(cfg.CaseID)
		if err != nil {
			return nil, &PhaseError{Phase: "case", Err: fmt.Errorf("parse case id: %w", err)}
		}
		in, err := cases.LoadCase(ctx, id)
		if err != nil {
			return nil, &PhaseError{Phase: "case", Err: err}
		}
		loaded.Input = in
	}

	for _, p := range paths {
		sha, err := normalize.FileHash(p)
		if err != nil {
			return nil, &PhaseError{Phase: "hash", Err: err}
		}
		loaded.Files[p] = sha
	}
	sha, err := InputHash(loaded.Input)
	if err != nil {
		return nil, &PhaseError{Phase: "hash", Err: err}
	}
	loaded.SHA256 = sha

	log.Info().
		Str("source", mode.String()).
		Int("bill_items", len(loaded.Input.Bill.Items)).
		Int("folios", len(loaded.Input.Authorization.Folios)).
		Int("rules", len(loaded.Input.Contract.Rules)).
		Str("sha256", sha).
		Dur("duration", time.Since(start)).
		Msg("input loaded")
	return loaded, nil
}

// InputHash is the SHA-256 of the input's canonical records. Folio grouping
// is flattened so the same lines hash identically from every source.
func InputHash(in model.Input) (string, error) {
	return normalize.ContentHash(struct {
		Bill     model.Bill                `json:"bill"`
		Lines    []model.AuthorizationLine `json:"lines"`
		Contract model.Contract            `json:"contract"`
		Config   *model.InputConfig        `json:"config,omitempty"`
	}{in.Bill, in.Authorization.Lines(), in.Contract, in.Config})
}
