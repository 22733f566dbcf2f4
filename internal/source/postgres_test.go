package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/billaudit/internal/db"
	"github.com/gyeh/billaudit/internal/model"
)

const (
	testPort     = 15433
	testDB       = "billaudit"
	testUser     = "postgres"
	testPassword = "postgres"
)

// testDSN is empty unless BILLAUDIT_PG_TESTS=1 started an embedded server.
var testDSN string

func TestMain(m *testing.M) {
	if os.Getenv("BILLAUDIT_PG_TESTS") != "1" {
		os.Exit(m.Run())
	}

	pg := embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(uint32(testPort)).
			Database(testDB).
			Username(testUser).
			Password(testPassword).
			Version(embeddedpostgres.V16).
			StartTimeout(30 * time.Second),
	)
	if err := pg.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start embedded postgres: %v\n", err)
		os.Exit(1)
	}
	testDSN = fmt.Sprintf("postgresql://%s:%s@localhost:%d/%s?sslmode=disable",
		testUser, testPassword, testPort, testDB)

	code := m.Run()

	if err := pg.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to stop embedded postgres: %v\n", err)
	}
	os.Exit(code)
}

func setupStore(t *testing.T) (*Store, *pgxpool.Pool) {
	t.Helper()
	if testDSN == "" {
		t.Skip("set BILLAUDIT_PG_TESTS=1 to run Postgres tests")
	}
	ctx := context.Background()

	pool, err := db.NewPool(ctx, testDSN)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := pool.Exec(ctx, "DROP SCHEMA IF EXISTS audit CASCADE"); err != nil {
		t.Fatalf("drop schema: %v", err)
	}
	if err := db.ApplyMigrations(ctx, pool, zerolog.Nop()); err != nil {
		pool.Close()
		t.Fatalf("migrations: %v", err)
	}
	t.Cleanup(func() { pool.Close() })
	return NewStore(pool, zerolog.Nop()), pool
}

func TestStore_SaveLoadCase(t *testing.T) {
	store, pool := setupStore(t)
	ctx := context.Background()

	in, err := DecodeInput(strings.NewReader(sampleInput))
	if err != nil {
		t.Fatal(err)
	}
	limit := model.Money(250000)
	in.Contract.Rules[0].Cap = &limit

	id, err := store.SaveCase(ctx, in, "surgery 2026-03")
	if err != nil {
		t.Fatalf("SaveCase: %v", err)
	}

	t.Run("row_counts", func(t *testing.T) {
		for table, want := range map[string]int{
			"audit.bill_items":          2,
			"audit.folios":              1,
			"audit.authorization_lines": 2,
			"audit.contract_rules":      1,
		} {
			var n int
			if err := pool.QueryRow(ctx, "SELECT count(*) FROM "+table+" WHERE case_id = $1", id).Scan(&n); err != nil {
				t.Fatalf("count %s: %v", table, err)
			}
			if n != want {
				t.Errorf("%s: got %d rows, want %d", table, n, want)
			}
		}
	})

	t.Run("round_trip", func(t *testing.T) {
		got, err := store.LoadCase(ctx, id)
		if err != nil {
			t.Fatalf("LoadCase: %v", err)
		}
		want, _ := InputHash(in)
		have, _ := InputHash(got)
		if want != have {
			t.Errorf("stored case differs:\nwant %+v\ngot  %+v", in, got)
		}
	})

	t.Run("find_by_sha", func(t *testing.T) {
		sha, _ := InputHash(in)
		found, ok, err := store.FindCase(ctx, sha)
		if err != nil || !ok || found != id {
			t.Errorf("FindCase = %s, %v, %v; want %s", found, ok, err, id)
		}
		if _, ok, _ := store.FindCase(ctx, "deadbeef"); ok {
			t.Error("FindCase matched an unknown hash")
		}
	})
}

func TestStore_KeepsEmptyFolios(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	in, err := DecodeInput(strings.NewReader(sampleInput))
	if err != nil {
		t.Fatal(err)
	}
	in.Authorization.Folios = append([]model.Folio{{FolioID: "F0", Items: []model.AuthorizationLine{}}}, in.Authorization.Folios...)

	id, err := store.SaveCase(ctx, in, "empty folio")
	if err != nil {
		t.Fatalf("SaveCase: %v", err)
	}
	got, err := store.LoadCase(ctx, id)
	if err != nil {
		t.Fatalf("LoadCase: %v", err)
	}
	folios := got.Authorization.Folios
	if len(folios) != 2 || folios[0].FolioID != "F0" || folios[1].FolioID != "F1" {
		t.Fatalf("folios = %+v, want [F0 F1]", folios)
	}
	if len(folios[0].Items) != 0 || len(folios[1].Items) != 2 {
		t.Errorf("folio items = %d, %d; want 0, 2", len(folios[0].Items), len(folios[1].Items))
	}
}

func TestStore_LoadCaseWithoutFolioRows(t *testing.T) {
	store, pool := setupStore(t)
	ctx := context.Background()

	in, err := DecodeInput(strings.NewReader(sampleInput))
	if err != nil {
		t.Fatal(err)
	}
	id, err := store.SaveCase(ctx, in, "")
	if err != nil {
		t.Fatalf("SaveCase: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM audit.folios WHERE case_id = $1", id); err != nil {
		t.Fatal(err)
	}
	got, err := store.LoadCase(ctx, id)
	if err != nil {
		t.Fatalf("LoadCase: %v", err)
	}
	if len(got.Authorization.Folios) != 1 || len(got.Authorization.Folios[0].Items) != 2 {
		t.Errorf("folios = %+v, want F1 regrouped from lines", got.Authorization.Folios)
	}
}

func TestStore_LoadCaseNotFound(t *testing.T) {
	store, _ := setupStore(t)
	_, err := store.LoadCase(context.Background(), uuid.New())
	if !errors.Is(err, ErrCaseNotFound) {
		t.Errorf("err = %v, want ErrCaseNotFound", err)
	}
}

func TestApplyMigrations_Idempotent(t *testing.T) {
	_, pool := setupStore(t)
	if err := db.ApplyMigrations(context.Background(), pool, zerolog.Nop()); err != nil {
		t.Fatalf("second ApplyMigrations: %v", err)
	}
}
