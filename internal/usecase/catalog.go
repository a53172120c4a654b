package usecase

import (
	"context"
	"fmt"

	"dumpfleet/internal/domain"
)

// Enumerator resolves which databases a run will back up.
type Enumerator struct {
	db domain.Database
}

func NewEnumerator(db domain.Database) *Enumerator {
	return &Enumerator{db: db}
}

// Enumerate matches the requested names against the live catalog, in
// request order, and reports names that do not exist on the server.
// With no request it selects every non-system database in catalog order.
// An empty selection is an error either way.
func (e *Enumerator) Enumerate(ctx context.Context, requested []string) ([]domain.Target, []string, error) {
	infos, err := e.db.ListDatabases(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list databases: %w", err)
	}

	var (
		targets []domain.Target
		missing []string
	)

	if len(requested) == 0 {
		for _, info := range infos {
			if info.System {
				continue
			}
			targets = append(targets, domain.Target{Name: info.Name, SizeBytes: info.SizeBytes})
		}
	} else {
		byName := make(map[string]domain.DatabaseInfo, len(infos))
		for _, info := range infos {
			byName[info.Name] = info
		}

		seen := make(map[string]bool, len(requested))
		for _, name := range requested {
			if seen[name] {
				continue
			}
			seen[name] = true

			info, ok := byName[name]
			if !ok {
				missing = append(missing, name)
				continue
			}
			targets = append(targets, domain.Target{Name: info.Name, SizeBytes: info.SizeBytes})
		}
	}

	if len(targets) == 0 {
		return nil, missing, &domain.EmptyCatalogError{Requested: requested}
	}

	return targets, missing, nil
}
