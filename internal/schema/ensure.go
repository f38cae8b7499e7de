// Package schema makes sure a target table exists before anything is loaded.
package schema

import (
	"context"
	"fmt"
	"log"
	"strings"

	"csvwarehouse/internal/etlerr"
	"csvwarehouse/internal/warehouse"
)

// Outcome reports what Ensure found.
type Outcome int

const (
	AlreadyExists Outcome = iota
	Created
)

func (o Outcome) String() string {
	if o == Created {
		return "created"
	}
	return "already exists"
}

// Ensure creates t when the catalog does not know it. An existing table must
// carry exactly the declared columns: reconciliation compares rows on the
// declared set, so a missing or an undeclared column is a DDL conflict.
func Ensure(ctx context.Context, db warehouse.DB, d warehouse.Dialect, t warehouse.Table) (Outcome, error) {
	if err := t.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %v", etlerr.ErrSchema, err)
	}
	exists, err := warehouse.TableExists(ctx, db, d, t)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", etlerr.ErrSchema, err)
	}
	if !exists {
		if _, err := db.Exec(ctx, d.CreateTableSQL(t)); err != nil {
			return 0, fmt.Errorf("%w: create %s: %v", etlerr.ErrSchema, t, err)
		}
		log.Printf("schema: table %s has been created", t)
		return Created, nil
	}

	have, err := warehouse.ListColumns(ctx, db, d, t)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", etlerr.ErrSchema, err)
	}
	haveSet := make(map[string]bool, len(have))
	for _, c := range have {
		haveSet[strings.ToLower(c)] = true
	}
	var missing, extra []string
	declared := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		declared[strings.ToLower(c.Name)] = true
		if !haveSet[strings.ToLower(c.Name)] {
			missing = append(missing, c.Name)
		}
	}
	if len(missing) > 0 {
		return 0, fmt.Errorf("%w: %w: %s lacks column(s) %s", etlerr.ErrSchema, etlerr.ErrDDLConflict, t, strings.Join(missing, ", "))
	}
	for _, c := range have {
		if !declared[strings.ToLower(c)] {
			extra = append(extra, c)
		}
	}
	if len(extra) > 0 {
		return 0, fmt.Errorf("%w: %w: %s has undeclared column(s) %s", etlerr.ErrSchema, etlerr.ErrDDLConflict, t, strings.Join(extra, ", "))
	}
	log.Printf("schema: table %s already exists", t)
	return AlreadyExists, nil
}
