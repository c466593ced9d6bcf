package sqlitestage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/usdinspect/internal/adapters/driven/stage/sqlitestage/migrations"
	"github.com/custodia-labs/usdinspect/internal/core/domain"
	"github.com/custodia-labs/usdinspect/internal/core/ports/driven"
)

// ExportStats summarises a written bundle.
type ExportStats struct {
	Layers     int
	Prims      int
	Properties int
	Samples    int
}

// Export writes every layer of src to a new bundle at path.
// The hierarchy is walked through the composed document, so any loader's
// output can be bundled. An existing file at path is never overwritten.
func Export(ctx context.Context, src driven.ComposedDocument, path string) (ExportStats, error) {
	done := bundleLog.Timed("export " + path)
	defer done()

	if _, err := os.Stat(path); err == nil {
		return ExportStats{}, fmt.Errorf("%w: %s already exists", domain.ErrInvalidInput, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ExportStats{}, fmt.Errorf("creating bundle directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return ExportStats{}, fmt.Errorf("opening bundle: %w", err)
	}

	stats, err := export(ctx, db, src)
	if closeErr := db.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("closing bundle: %w", closeErr)
	}
	if err != nil {
		os.Remove(path)
		return ExportStats{}, err
	}
	return stats, nil
}

func export(ctx context.Context, db *sql.DB, src driven.ComposedDocument) (ExportStats, error) {
	if err := migrate(ctx, db, migrations.FS); err != nil {
		return ExportStats{}, fmt.Errorf("running migrations: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return ExportStats{}, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	w := &writer{ctx: ctx, tx: tx, src: src, ids: make(map[string]int64)}
	if err := w.layers(); err != nil {
		return ExportStats{}, err
	}
	if err := w.timeRange(); err != nil {
		return ExportStats{}, err
	}
	if err := w.walk(domain.RootPath); err != nil {
		return ExportStats{}, err
	}

	if err := tx.Commit(); err != nil {
		return ExportStats{}, fmt.Errorf("committing bundle: %w", err)
	}
	w.stats.Layers = len(w.specs)
	bundleLog.Debug("exported %d layers, %d prim specs, %d properties, %d samples",
		w.stats.Layers, w.stats.Prims, w.stats.Properties, w.stats.Samples)
	return w.stats, nil
}

// writer copies one composed document into an open transaction.
type writer struct {
	ctx   context.Context
	tx    *sql.Tx
	src   driven.ComposedDocument
	specs []domain.LayerSpec
	ids   map[string]int64
	stats ExportStats
}

func (w *writer) layers() error {
	specs, err := w.src.Layers(w.ctx)
	if err != nil {
		return fmt.Errorf("listing layers: %w", err)
	}
	w.specs = specs
	for rank, spec := range specs {
		res, err := w.tx.ExecContext(w.ctx,
			"INSERT INTO layers (rank, identifier, display_name, arc) VALUES (?, ?, ?, ?)",
			rank, spec.Identifier, spec.DisplayName, string(spec.Arc))
		if err != nil {
			return fmt.Errorf("writing layer %s: %w", spec.Identifier, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("writing layer %s: %w", spec.Identifier, err)
		}
		w.ids[spec.Identifier] = id
	}
	return nil
}

func (w *writer) timeRange() error {
	r, err := w.src.TimeRange(w.ctx)
	if err != nil {
		return fmt.Errorf("reading time range: %w", err)
	}
	_, err = w.tx.ExecContext(w.ctx,
		"INSERT INTO stage (id, start_time, end_time, time_codes_per_second) VALUES (1, ?, ?, ?)",
		float64(r.Start), float64(r.End), r.TimeCodesPerSecond)
	if err != nil {
		return fmt.Errorf("writing time range: %w", err)
	}
	return nil
}

// walk writes the children of parent and recurses depth-first.
// Each layer's rows are ordered by composed child index, which reproduces
// the composed order on read.
func (w *writer) walk(parent domain.Path) error {
	children, err := w.src.Children(w.ctx, parent)
	if err != nil {
		return fmt.Errorf("listing children of %s: %w", parent, err)
	}
	for ord, child := range children {
		if err := w.prim(parent, child, ord); err != nil {
			return err
		}
		if err := w.walk(child); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) prim(parent, path domain.Path, ord int) error {
	props, err := w.src.Properties(w.ctx, path)
	if err != nil {
		return fmt.Errorf("listing properties of %s: %w", path, err)
	}

	// declared tracks properties written by some layer; the rest are
	// declaration-only and land in the strongest layer holding the prim.
	declared := make(map[string]bool)
	strongest := ""

	for _, spec := range w.specs {
		ref, ok, err := w.src.PrimSpec(w.ctx, spec.Identifier, path)
		if err != nil {
			return fmt.Errorf("reading %s in %s: %w", path, spec.Identifier, err)
		}
		if !ok {
			continue
		}
		if strongest == "" {
			strongest = spec.Identifier
		}
		id := w.ids[spec.Identifier]
		_, err = w.tx.ExecContext(w.ctx,
			"INSERT INTO prims (layer_id, path, parent, ord, specifier, type_name) VALUES (?, ?, ?, ?, ?, ?)",
			id, string(path), string(parent), ord, string(ref.Specifier), ref.TypeName)
		if err != nil {
			return fmt.Errorf("writing %s in %s: %w", path, spec.Identifier, err)
		}
		w.stats.Prims++

		md, err := w.src.Metadata(w.ctx, spec.Identifier, path, "")
		if err != nil {
			return fmt.Errorf("reading metadata of %s: %w", path, err)
		}
		if err := w.metadata(id, path, "", md); err != nil {
			return err
		}

		for _, info := range props {
			wrote, err := w.property(spec.Identifier, id, path, info)
			if err != nil {
				return err
			}
			if wrote {
				declared[info.Name] = true
			}
		}
	}

	for _, info := range props {
		if declared[info.Name] || strongest == "" {
			continue
		}
		if err := w.declare(w.ids[strongest], path, info.Name, info.Kind, info.TypeName, nil); err != nil {
			return err
		}
	}
	return nil
}

// property writes one layer's opinion and metadata for a property.
// It reports whether a row was written.
func (w *writer) property(layerID string, id int64, path domain.Path, info domain.PropertyInfo) (bool, error) {
	op, err := w.src.Opinion(w.ctx, layerID, path, info.Name)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return false, fmt.Errorf("reading %s.%s in %s: %w", path, info.Name, layerID, err)
	}
	md, err := w.src.Metadata(w.ctx, layerID, path, info.Name)
	if err != nil {
		return false, fmt.Errorf("reading metadata of %s.%s: %w", path, info.Name, err)
	}
	if op == nil && len(md) == 0 {
		return false, nil
	}

	kind, typeName := info.Kind, info.TypeName
	var def *domain.Value
	if op != nil {
		kind, typeName, def = op.Kind, op.TypeName, op.Default
	}
	if err := w.declare(id, path, info.Name, kind, typeName, def); err != nil {
		return false, err
	}

	if op != nil {
		for _, s := range op.Samples {
			raw, err := encodeValue(s.Value)
			if err != nil {
				return false, fmt.Errorf("%s.%s sample at %s: %w", path, info.Name, s.Time, err)
			}
			_, err = w.tx.ExecContext(w.ctx,
				"INSERT INTO time_samples (layer_id, path, name, time, value) VALUES (?, ?, ?, ?, ?)",
				id, string(path), info.Name, float64(s.Time), raw)
			if err != nil {
				return false, fmt.Errorf("writing sample of %s.%s: %w", path, info.Name, err)
			}
			w.stats.Samples++
		}
	}

	if err := w.metadata(id, path, info.Name, md); err != nil {
		return false, err
	}
	return true, nil
}

func (w *writer) declare(id int64, path domain.Path, name string, kind domain.PropertyKind, typeName string, def *domain.Value) error {
	var raw sql.NullString
	if def != nil {
		encoded, err := encodeValue(*def)
		if err != nil {
			return fmt.Errorf("%s.%s default: %w", path, name, err)
		}
		raw = sql.NullString{String: encoded, Valid: true}
	}
	_, err := w.tx.ExecContext(w.ctx,
		"INSERT INTO properties (layer_id, path, name, kind, type_name, default_value) VALUES (?, ?, ?, ?, ?, ?)",
		id, string(path), name, string(kind), typeName, raw)
	if err != nil {
		return fmt.Errorf("writing %s.%s: %w", path, name, err)
	}
	w.stats.Properties++
	return nil
}

func (w *writer) metadata(id int64, path domain.Path, property string, md domain.Metadata) error {
	for ord, field := range md {
		raw, err := encodeValue(field.Value)
		if err != nil {
			return fmt.Errorf("metadata %s on %s: %w", field.Key, path, err)
		}
		_, err = w.tx.ExecContext(w.ctx,
			"INSERT INTO metadata (layer_id, path, property, key, value, ord) VALUES (?, ?, ?, ?, ?, ?)",
			id, string(path), property, field.Key, raw, ord)
		if err != nil {
			return fmt.Errorf("writing metadata %s on %s: %w", field.Key, path, err)
		}
	}
	return nil
}
