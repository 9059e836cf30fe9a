package sources

import (
	"context"
	"fmt"

	"crosscheck/internal/config"
	"crosscheck/internal/incident"
)

// LoadReference reads the reference CSV described by cfg.
func LoadReference(ctx context.Context, cfg config.Reference) ([]incident.ReferenceRecord, error) {
	t, err := readTable(cfg.Path)
	if err != nil {
		return nil, err
	}
	return referenceRecords(ctx, t, cfg.Columns)
}

func referenceRecords(ctx context.Context, t *table, cols config.Columns) ([]incident.ReferenceRecord, error) {
	get, err := t.bind(cols)
	if err != nil {
		return nil, err
	}

	records := make([]incident.ReferenceRecord, 0, len(t.rows))
	seen := make(map[string]struct{}, len(t.rows))
	for i, row := range t.rows {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec := incident.ReferenceRecord{
			ID:      get.id(row),
			Agency:  get.agency(row),
			State:   get.state(row),
			Date:    get.date(row),
			Address: get.address(row),
			Zip:     get.zip(row),
			City:    get.city(row),
			Name:    get.name(row),
			Race:    get.race(row),
			Gender:  get.gender(row),
			Age:     get.age(row),
			Fields:  t.fields(row),
		}
		if rec.ID == "" {
			rec.ID = syntheticID(rec.State, rec.Date, rec.Address, rec.Zip, rec.Name, rec.Race, rec.Gender, rec.Age)
		}
		if _, dup := seen[rec.ID]; dup {
			continue
		}
		seen[rec.ID] = struct{}{}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: no reference rows", t.path)
	}
	return records, nil
}
