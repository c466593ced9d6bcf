package sqlitestage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/usdinspect/internal/adapters/driven/stage/sqlitestage/migrations"
	"github.com/custodia-labs/usdinspect/internal/core/domain"
	"github.com/custodia-labs/usdinspect/internal/core/ports/driven"
	"github.com/custodia-labs/usdinspect/internal/logger"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

var bundleLog = logger.For("sqlitestage")

// Loader opens stage bundles read-only.
type Loader struct{}

// NewLoader creates a bundle loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Open opens the bundle at location. The bundle must exist and carry the
// current schema version; it is never migrated or written.
func (l *Loader) Open(ctx context.Context, location string) (driven.ComposedDocument, error) {
	done := bundleLog.Timed("open " + location)
	defer done()

	path, err := filepath.Abs(location)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrDocumentUnavailable, location, err)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDocumentUnavailable, err)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", domain.ErrDocumentUnavailable, path, err)
	}

	doc, err := load(ctx, db, path)
	if err != nil {
		db.Close()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrDocumentUnavailable, path, err)
	}
	return doc, nil
}

func load(ctx context.Context, db *sql.DB, path string) (*Document, error) {
	want, err := schemaVersion(migrations.FS)
	if err != nil {
		return nil, err
	}
	got, err := appliedVersion(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("not a stage bundle: %w", err)
	}
	if got != want {
		return nil, fmt.Errorf("bundle schema version %d, expected %d", got, want)
	}

	rows, err := db.QueryContext(ctx,
		"SELECT id, identifier, display_name, arc FROM layers ORDER BY rank")
	if err != nil {
		return nil, fmt.Errorf("reading layers: %w", err)
	}
	defer rows.Close()

	doc := &Document{db: db, path: path, ids: make(map[string]int64)}
	for rows.Next() {
		var (
			id   int64
			spec domain.LayerSpec
			arc  string
		)
		if err := rows.Scan(&id, &spec.Identifier, &spec.DisplayName, &arc); err != nil {
			return nil, fmt.Errorf("reading layers: %w", err)
		}
		spec.Arc = domain.Arc(arc)
		doc.layers = append(doc.layers, spec)
		doc.ids[spec.Identifier] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading layers: %w", err)
	}
	if len(doc.layers) == 0 {
		return nil, fmt.Errorf("bundle has no layers")
	}

	bundleLog.Debug("opened %s with %d layers", path, len(doc.layers))
	return doc, nil
}
