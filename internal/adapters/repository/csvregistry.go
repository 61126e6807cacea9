package repository

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ffbrank/ffbrank/internal/domain/model"
	"github.com/ffbrank/ffbrank/internal/domain/registry"
	"github.com/ffbrank/ffbrank/pkg/logger"
)

var registryHeader = []string{
	"expert_id",
	"expert_name",
	"site",
	"first_timestamp",
	"latest_timestamp",
	"first_appearance",
	"latest_appearance",
}

// CSVRegistry stores the registry as the master expert list CSV.
type CSVRegistry struct {
	path string
	settings
}

// NewCSVRegistry returns a store for the CSV file at path.
func NewCSVRegistry(path string, opts ...Option) *CSVRegistry {
	return &CSVRegistry{path: path, settings: newSettings("csv_registry", opts)}
}

// Path returns the file the store reads and writes.
func (s *CSVRegistry) Path() string { return s.path }

// Load reads every entry. A missing file is an empty registry; anything
// unreadable is a data integrity error.
func (s *CSVRegistry) Load(ctx context.Context) ([]model.RegistryEntry, error) {
	header, records, err := readCSV(s.path)
	if err != nil {
		return nil, registry.Integrity("unreadable registry "+s.path, nil, err)
	}
	if header == nil {
		s.log.Debug(ctx, "no registry yet", logger.String("path", s.path))
		return []model.RegistryEntry{}, nil
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, h := range registryHeader {
		if _, ok := col[h]; !ok {
			return nil, registry.Integrity("registry column "+h+" missing", nil, nil)
		}
	}

	out := make([]model.RegistryEntry, 0, len(records))
	for n, rec := range records {
		e, err := s.parse(rec, col)
		if err != nil {
			return nil, registry.Integrity(fmt.Sprintf("registry row %d", n+2), nil, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *CSVRegistry) parse(rec []string, col map[string]int) (model.RegistryEntry, error) {
	field := func(name string) string { return rec[col[name]] }

	// pandas may have written ids as floats
	idText := strings.TrimSuffix(strings.TrimSpace(field("expert_id")), ".0")
	id, err := strconv.Atoi(idText)
	if err != nil {
		return model.RegistryEntry{}, fmt.Errorf("expert_id %q: %w", field("expert_id"), err)
	}
	first, err := time.ParseInLocation(TimestampLayout, strings.TrimSpace(field("first_timestamp")), s.location)
	if err != nil {
		return model.RegistryEntry{}, fmt.Errorf("first_timestamp: %w", err)
	}
	last, err := time.ParseInLocation(TimestampLayout, strings.TrimSpace(field("latest_timestamp")), s.location)
	if err != nil {
		return model.RegistryEntry{}, fmt.Errorf("latest_timestamp: %w", err)
	}
	return model.RegistryEntry{
		ExpertID:        id,
		ExpertName:      field("expert_name"),
		Site:            field("site"),
		FirstSeen:       first,
		LastSeen:        last,
		FirstAppearance: field("first_appearance"),
		LastAppearance:  field("latest_appearance"),
	}, nil
}

// Save replaces the file with entries.
func (s *CSVRegistry) Save(ctx context.Context, entries []model.RegistryEntry) error {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.Itoa(e.ExpertID),
			e.ExpertName,
			e.Site,
			e.FirstSeen.In(s.location).Format(TimestampLayout),
			e.LastSeen.In(s.location).Format(TimestampLayout),
			e.FirstAppearance,
			e.LastAppearance,
		})
	}
	if err := writeCSV(s.path, os.FileMode(s.perm), registryHeader, rows); err != nil {
		return err
	}
	s.log.Debug(ctx, "registry written", logger.String("path", s.path), logger.Int("entries", len(entries)))
	return nil
}
