package sidechannel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"fantasy_nhl/ingestion/internal/models"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// CSV upload headers
const (
	headerFullName  = "Full Name"
	headerCapHit    = "Cap Hit"
	headerYearsLeft = "Years Left"
)

// SalaryCollector loads the static salary reference table
type SalaryCollector struct {
	path string
}

// NewSalaryCollector creates a collector for the YAML table at path
func NewSalaryCollector(path string) *SalaryCollector {
	return &SalaryCollector{path: path}
}

// Collect returns the salary table keyed by normalized name, or an empty table on failure
func (c *SalaryCollector) Collect(ctx context.Context) models.SalaryTable {
	if c.path == "" {
		return models.SalaryTable{}
	}

	records, err := LoadSalaryFile(c.path)
	if err != nil {
		degrade(ChannelSalaries, err, 0)
		return models.SalaryTable{}
	}

	table := BuildSalaryTable(records)
	log.Debug().Int("count", len(table)).Str("path", c.path).Msg("Salary table loaded")
	return table
}

// BuildSalaryTable keys records by normalized name. Later rows win on duplicate names.
func BuildSalaryTable(records []models.SalaryRecord) models.SalaryTable {
	table := make(models.SalaryTable, len(records))
	for _, r := range records {
		key := models.NormalizeName(r.FullName)
		if key == "" {
			continue
		}
		table[key] = r.Entry()
	}
	return table
}

type salaryFile struct {
	Players []models.SalaryRecord `yaml:"players"`
}

// LoadSalaryFile reads a YAML salary table from disk
func LoadSalaryFile(path string) ([]models.SalaryRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open salary table: %w", err)
	}
	defer f.Close()

	return ParseSalaryYAML(f)
}

// ParseSalaryYAML decodes a salary table document
func ParseSalaryYAML(r io.Reader) ([]models.SalaryRecord, error) {
	var doc salaryFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode salary table: %w", err)
	}
	return doc.Players, nil
}

// ParseSalaryCSV reads an uploaded salary sheet with "Full Name", "Cap Hit" and an
// optional "Years Left" column. Header names are matched after trimming whitespace.
// Rows without a name are dropped.
func ParseSalaryCSV(r io.Reader) ([]models.SalaryRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read salary header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	nameCol, ok := columns[headerFullName]
	if !ok {
		return nil, fmt.Errorf("salary sheet is missing the %q column", headerFullName)
	}
	capCol, ok := columns[headerCapHit]
	if !ok {
		return nil, fmt.Errorf("salary sheet is missing the %q column", headerCapHit)
	}
	yearsCol, hasYears := columns[headerYearsLeft]

	cell := func(row []string, i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	var records []models.SalaryRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read salary row: %w", err)
		}

		rec := models.SalaryRecord{
			FullName: cell(row, nameCol),
			CapHit:   cell(row, capCol),
		}
		if hasYears {
			rec.YearsLeft = cell(row, yearsCol)
		}
		if rec.FullName == "" {
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}
