package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/pgzip"

	"github.com/gyeh/billaudit/internal/model"
)

// Envelope wraps one audit result with the run's identity.
type Envelope struct {
	RunID       string        `json:"runId"`
	InputSHA256 string        `json:"inputSha256"`
	Result      *model.Output `json:"result"`
}

// WriteJSON writes v as indented JSON to outputPath, "-" meaning stdout.
// Paths ending in .gz are compressed.
func WriteJSON(outputPath string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling output: %w", err)
	}
	data = append(data, '\n')

	if outputPath == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if !strings.HasSuffix(outputPath, ".gz") {
		return os.WriteFile(outputPath, data, 0o644)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	gz := pgzip.NewWriter(f)
	if _, err := gz.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write output: %w", err)
	}
	if err := gz.Close(); err != nil {
		f.Close()
		return fmt.Errorf("close gzip: %w", err)
	}
	return f.Close()
}

// Report file names written by WriteReports.
const (
	ReportFile    = "report.txt"
	ComplaintFile = "complaint.txt"
)

// WriteReports writes the technical report and the complaint letter into dir,
// creating it if needed. It returns the paths written.
func WriteReports(dir string, out *model.Output) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	files := []struct {
		name string
		text string
	}{
		{ReportFile, out.ReportText},
		{ComplaintFile, out.ComplaintText},
	}
	var paths []string
	for _, f := range files {
		if f.text == "" {
			continue
		}
		p := filepath.Join(dir, f.name)
		if err := os.WriteFile(p, []byte(f.text), 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", f.name, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// WriteText writes a plain-text report to w.
func WriteText(w io.Writer, text string) error {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, err := io.WriteString(w, text)
	return err
}
