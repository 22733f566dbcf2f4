package source

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/pgzip"

	"github.com/gyeh/billaudit/internal/model"
)

// LoadJSON reads an Input document from path. Paths ending in .gz are
// decompressed.
func LoadJSON(path string) (model.Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Input{}, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return model.Input{}, fmt.Errorf("open gzip input: %w", err)
		}
		defer gz.Close()
		r = gz
	}
	return DecodeInput(r)
}

// DecodeInput decodes one Input document. Unknown fields are ignored.
func DecodeInput(r io.Reader) (model.Input, error) {
	var in model.Input
	dec := json.NewDecoder(r)
	if err := dec.Decode(&in); err != nil {
		return model.Input{}, fmt.Errorf("decode input: %w", err)
	}
	return in, nil
}
