package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

// ClassResult is the outcome of downloading one class. It is also the
// Parquet row type.
type ClassResult struct {
	Code        string `json:"code" yaml:"code" parquet:"code"`
	Description string `json:"description" yaml:"description" parquet:"description"`
	URLs        int    `json:"urls" yaml:"urls" parquet:"urls"`
	Downloaded  int    `json:"downloaded" yaml:"downloaded" parquet:"downloaded"`
	Failed      int    `json:"failed" yaml:"failed" parquet:"failed"`
	Skipped     bool   `json:"skipped" yaml:"skipped" parquet:"skipped"`
	Interrupted bool   `json:"interrupted,omitempty" yaml:"interrupted,omitempty" parquet:"interrupted"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty" parquet:"error"`
}

// Report summarizes a per-class download run.
type Report struct {
	RunID        string        `json:"runid" yaml:"runid"`
	Host         string        `json:"host" yaml:"host"`
	BaseDir      string        `json:"basedir" yaml:"basedir"`
	SkipExisting bool          `json:"skipexisting" yaml:"skipexisting"`
	StartedAt    string        `json:"startedat" yaml:"startedat"`
	FinishedAt   string        `json:"finishedat,omitempty" yaml:"finishedat,omitempty"`
	Classes      []ClassResult `json:"classes" yaml:"classes"`
}

// New starts a report for a run against host writing into baseDir.
func New(host, baseDir string, skipExisting bool) *Report {
	return &Report{
		RunID:        uuid.NewString(),
		Host:         host,
		BaseDir:      baseDir,
		SkipExisting: skipExisting,
		StartedAt:    time.Now().Format(time.RFC3339),
		Classes:      []ClassResult{},
	}
}

// Add records the result of one class.
func (r *Report) Add(result ClassResult) {
	r.Classes = append(r.Classes, result)
}

// Finish stamps the finish time.
func (r *Report) Finish() {
	r.FinishedAt = time.Now().Format(time.RFC3339)
}

// Totals sums downloaded and failed images and counts classes whose URL list
// could not be fetched.
func (r *Report) Totals() (downloaded, failed, listErrors int) {
	for _, c := range r.Classes {
		downloaded += c.Downloaded
		failed += c.Failed
		if c.Error != "" {
			listErrors++
		}
	}
	return downloaded, failed, listErrors
}

// Save writes the report, choosing the format from the file extension:
// .yaml/.yml or .parquet.
func (r *Report) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return r.saveYAML(path)
	case ".parquet":
		return r.saveParquet(path)
	default:
		return fmt.Errorf("unsupported report format: %s (supported: .yaml, .yml, .parquet)", ext)
	}
}

func (r *Report) saveYAML(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}
	return nil
}

func (r *Report) saveParquet(path string) error {
	if err := parquet.WriteFile(path, r.Classes); err != nil {
		return fmt.Errorf("failed to write parquet file: %w", err)
	}
	return nil
}

// Load reads a report saved by Save. A Parquet file only carries the class
// rows, so the run metadata of the returned Report is empty.
func Load(path string) (*Report, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read report: %w", err)
		}
		var r Report
		if err := yaml.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("failed to parse YAML report: %w", err)
		}
		return &r, nil
	case ".parquet":
		rows, err := parquet.ReadFile[ClassResult](path)
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet report: %w", err)
		}
		return &Report{Classes: rows}, nil
	default:
		return nil, fmt.Errorf("unsupported report format: %s (supported: .yaml, .yml, .parquet)", ext)
	}
}
