package imagenet

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode"
)

// ClassRecord is one line of a class-list (synset) file.
type ClassRecord struct {
	Code        string `json:"code" yaml:"code"`
	Description string `json:"description" yaml:"description"`
}

// ReadClassFile loads the class records from a synset file such as
//
//	n01440764 tench, Tinca tinca
//	n01443537 goldfish, Carassius auratus
func ReadClassFile(path string) ([]ClassRecord, error) {
	slog.Debug("Opening class file", "path", path)

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open class file: %w", err)
	}
	defer file.Close()

	records, err := ParseClasses(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse class file %s: %w", path, err)
	}
	return records, nil
}

// ParseClasses reads one ClassRecord per non-blank line. The code is the first
// whitespace-delimited token and the description is the remainder of the
// line, trimmed.
func ParseClasses(r io.Reader) ([]ClassRecord, error) {
	var records []ClassRecord
	scanner := bufio.NewScanner(r)

	// Some label files carry long WordNet glosses
	const maxCapacity = 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxCapacity)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		records = append(records, parseClassLine(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func parseClassLine(line string) ClassRecord {
	idx := strings.IndexFunc(line, unicode.IsSpace)
	if idx < 0 {
		return ClassRecord{Code: line}
	}
	return ClassRecord{
		Code:        line[:idx],
		Description: strings.TrimSpace(line[idx:]),
	}
}

// FilterClasses keeps the records whose code is in codes, preserving file
// order. An empty codes list keeps everything.
func FilterClasses(records []ClassRecord, codes []string) []ClassRecord {
	if len(codes) == 0 {
		return records
	}
	wanted := make(map[string]bool, len(codes))
	for _, c := range codes {
		wanted[strings.TrimSpace(c)] = true
	}
	filtered := make([]ClassRecord, 0, len(codes))
	for _, rec := range records {
		if wanted[rec.Code] {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}
