package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/billaudit/internal/model"
)

const readBatchSize = 1024

var (
	billColumns          = []string{"item_id", "description", "total"}
	authorizationColumns = []string{"folio_id", "line_id", "code", "description", "total_value", "covered_amount", "patient_copay"}
)

// reader wraps a parquet GenericReader over one row type.
type reader[T any] struct {
	file   *os.File
	reader *parquet.GenericReader[T]
}

// openReader opens path and checks its schema before binding it to T.
func openReader[T any](path string, required []string) (*reader[T], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat parquet file: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	if err := validateSchema(pf.Schema(), required); err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &reader[T]{file: f, reader: parquet.NewGenericReader[T](pf)}, nil
}

func (r *reader[T]) Close() error {
	if err := r.reader.Close(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}

// validateSchema checks that the file carries every required column.
func validateSchema(schema *parquet.Schema, required []string) error {
	columns := make(map[string]bool)
	for _, field := range schema.Fields() {
		columns[strings.ToLower(field.Name())] = true
	}
	var missing []string
	for _, col := range required {
		if !columns[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

func readAll[T any](path string, required []string) ([]T, error) {
	r, err := openReader[T](path, required)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	rows := make([]T, 0, r.reader.NumRows())
	buf := make([]T, readBatchSize)
	for {
		n, err := r.reader.Read(buf)
		rows = append(rows, buf[:n]...)
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read parquet rows at %d: %w", len(rows), err)
		}
	}
}

// ReadBillItems reads invoice lines from a Parquet extraction.
func ReadBillItems(path string) (model.Bill, error) {
	rows, err := readAll[model.BillItemRow](path, billColumns)
	if err != nil {
		return model.Bill{}, err
	}
	items := make([]model.BillItem, len(rows))
	for i := range rows {
		items[i] = rows[i].BillItem()
	}
	return model.Bill{Items: items}, nil
}

// ReadAuthorization reads settlement lines and regroups them into folios.
func ReadAuthorization(path string) (model.Authorization, error) {
	rows, err := readAll[model.AuthorizationRow](path, authorizationColumns)
	if err != nil {
		return model.Authorization{}, err
	}
	lines := make([]model.AuthorizationLine, len(rows))
	for i := range rows {
		lines[i] = rows[i].AuthorizationLine()
	}
	return model.Authorization{Folios: model.GroupFolios(lines)}, nil
}

// LoadParquet assembles an Input from the two Parquet extractions and the
// contract YAML.
func LoadParquet(billPath, authorizationPath, contractPath string) (model.Input, error) {
	bill, err := ReadBillItems(billPath)
	if err != nil {
		return model.Input{}, fmt.Errorf("bill: %w", err)
	}
	auth, err := ReadAuthorization(authorizationPath)
	if err != nil {
		return model.Input{}, fmt.Errorf("authorization: %w", err)
	}
	contract, err := LoadContract(contractPath)
	if err != nil {
		return model.Input{}, err
	}
	return model.Input{Bill: bill, Authorization: auth, Contract: contract}, nil
}

// WriteParquet writes rows to path with the schema derived from T.
func WriteParquet[T any](path string, rows []T) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create parquet file: %w", err)
	}
	w := parquet.NewGenericWriter[T](f)
	if _, err := w.Write(rows); err != nil {
		f.Close()
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return f.Close()
}
