package sqlitestage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/usdinspect/internal/core/domain"
	"github.com/custodia-labs/usdinspect/internal/core/ports/driven"
)

// Ensure Document implements the interface.
var _ driven.ComposedDocument = (*Document)(nil)

// Document is a composed stage read from a bundle.
// The layer table is read once at open; everything else is queried on demand.
type Document struct {
	db     *sql.DB
	path   string
	layers []domain.LayerSpec
	ids    map[string]int64
}

// Path returns the bundle file path.
func (d *Document) Path() string {
	return d.path
}

// Layers returns the layer stack, strongest first.
func (d *Document) Layers(ctx context.Context) ([]domain.LayerSpec, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	specs := make([]domain.LayerSpec, len(d.layers))
	copy(specs, d.layers)
	return specs, nil
}

// HasNode reports whether any layer holds a spec for path.
func (d *Document) HasNode(ctx context.Context, path domain.Path) (bool, error) {
	if path.IsRoot() {
		return true, ctx.Err()
	}
	var exists bool
	err := d.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM prims WHERE path = ?)", string(path)).Scan(&exists)
	if err != nil {
		return false, d.readErr(ctx, err)
	}
	return exists, nil
}

// Node returns the composed prim header at path.
// The type comes from the strongest layer naming one; the specifier is the
// strongest one that is not an over.
func (d *Document) Node(ctx context.Context, path domain.Path) (*domain.Node, error) {
	if err := d.requireNode(ctx, path); err != nil {
		return nil, err
	}
	node := &domain.Node{Path: path}
	if path.IsRoot() {
		return node, nil
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT p.specifier, p.type_name
		FROM prims p JOIN layers l ON l.id = p.layer_id
		WHERE p.path = ?
		ORDER BY l.rank`, string(path))
	if err != nil {
		return nil, d.readErr(ctx, err)
	}
	defer rows.Close()

	for rows.Next() {
		var specifier, typeName string
		if err := rows.Scan(&specifier, &typeName); err != nil {
			return nil, d.readErr(ctx, err)
		}
		if node.TypeName == "" {
			node.TypeName = typeName
		}
		if node.Specifier == "" || node.Specifier == domain.SpecifierOver {
			node.Specifier = domain.Specifier(specifier)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, d.readErr(ctx, err)
	}
	return node, nil
}

// Children returns child paths in strongest-first order of first appearance.
func (d *Document) Children(ctx context.Context, path domain.Path) ([]domain.Path, error) {
	if err := d.requireNode(ctx, path); err != nil {
		return nil, err
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT p.path
		FROM prims p JOIN layers l ON l.id = p.layer_id
		WHERE p.parent = ?
		ORDER BY l.rank, p.ord`, string(path))
	if err != nil {
		return nil, d.readErr(ctx, err)
	}
	defer rows.Close()

	seen := make(map[domain.Path]bool)
	children := []domain.Path{}
	for rows.Next() {
		var child string
		if err := rows.Scan(&child); err != nil {
			return nil, d.readErr(ctx, err)
		}
		if p := domain.Path(child); !seen[p] {
			seen[p] = true
			children = append(children, p)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, d.readErr(ctx, err)
	}
	return children, nil
}

// Properties returns the composed properties of path in dictionary order.
// Kind and type come from the strongest layer declaring each property.
func (d *Document) Properties(ctx context.Context, path domain.Path) ([]domain.PropertyInfo, error) {
	if err := d.requireNode(ctx, path); err != nil {
		return nil, err
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT pr.name, pr.kind, pr.type_name
		FROM properties pr JOIN layers l ON l.id = pr.layer_id
		WHERE pr.path = ?
		ORDER BY pr.name, l.rank`, string(path))
	if err != nil {
		return nil, d.readErr(ctx, err)
	}
	defer rows.Close()

	infos := []domain.PropertyInfo{}
	for rows.Next() {
		var name, kind, typeName string
		if err := rows.Scan(&name, &kind, &typeName); err != nil {
			return nil, d.readErr(ctx, err)
		}
		if n := len(infos); n > 0 && infos[n-1].Name == name {
			continue
		}
		infos = append(infos, domain.PropertyInfo{
			Name:     name,
			Kind:     domain.PropertyKind(kind),
			TypeName: typeName,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, d.readErr(ctx, err)
	}
	return infos, nil
}

// PrimSpec reports the spec a single layer holds for path.
func (d *Document) PrimSpec(ctx context.Context, layerID string, path domain.Path) (domain.PrimSpecRef, bool, error) {
	id, err := d.layerID(layerID)
	if err != nil {
		return domain.PrimSpecRef{}, false, err
	}
	if path.IsRoot() {
		return domain.PrimSpecRef{}, false, ctx.Err()
	}

	var specifier, typeName string
	err = d.db.QueryRowContext(ctx,
		"SELECT specifier, type_name FROM prims WHERE layer_id = ? AND path = ?",
		id, string(path)).Scan(&specifier, &typeName)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PrimSpecRef{}, false, nil
	}
	if err != nil {
		return domain.PrimSpecRef{}, false, d.readErr(ctx, err)
	}
	return domain.PrimSpecRef{
		Path:      path,
		Specifier: domain.Specifier(specifier),
		TypeName:  typeName,
	}, true, nil
}

// HasOpinion reports whether the layer authors a default or samples for
// the property. Declarations alone do not count.
func (d *Document) HasOpinion(ctx context.Context, layerID string, path domain.Path, property string) (bool, error) {
	id, err := d.layerID(layerID)
	if err != nil {
		return false, err
	}

	var has bool
	err = d.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM properties pr
			WHERE pr.layer_id = ? AND pr.path = ? AND pr.name = ?
			AND (pr.default_value IS NOT NULL OR EXISTS(
				SELECT 1 FROM time_samples ts
				WHERE ts.layer_id = pr.layer_id AND ts.path = pr.path AND ts.name = pr.name)))`,
		id, string(path), property).Scan(&has)
	if err != nil {
		return false, d.readErr(ctx, err)
	}
	return has, nil
}

// Opinion returns the layer's authored value(s) for the property.
func (d *Document) Opinion(ctx context.Context, layerID string, path domain.Path, property string) (*domain.Opinion, error) {
	id, err := d.layerID(layerID)
	if err != nil {
		return nil, err
	}

	var (
		kind, typeName string
		def            sql.NullString
	)
	err = d.db.QueryRowContext(ctx,
		"SELECT kind, type_name, default_value FROM properties WHERE layer_id = ? AND path = ? AND name = ?",
		id, string(path), property).Scan(&kind, &typeName, &def)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s.%s in %s", domain.ErrNotFound, path, property, layerID)
	}
	if err != nil {
		return nil, d.readErr(ctx, err)
	}

	op := &domain.Opinion{
		LayerID:  layerID,
		Path:     path,
		Property: property,
		Kind:     domain.PropertyKind(kind),
		TypeName: typeName,
	}
	if def.Valid {
		v, err := decodeValue(def.String)
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s default: %v", domain.ErrDocumentUnavailable, path, property, err)
		}
		op.Default = &v
	}

	op.Samples, err = d.samples(ctx, id, path, property)
	if err != nil {
		return nil, err
	}
	if !op.HasValue() {
		return nil, fmt.Errorf("%w: %s.%s in %s", domain.ErrNotFound, path, property, layerID)
	}
	return op, nil
}

func (d *Document) samples(ctx context.Context, id int64, path domain.Path, property string) ([]domain.TimeSample, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT time, value FROM time_samples WHERE layer_id = ? AND path = ? AND name = ? ORDER BY time",
		id, string(path), property)
	if err != nil {
		return nil, d.readErr(ctx, err)
	}
	defer rows.Close()

	var samples []domain.TimeSample
	for rows.Next() {
		var (
			t   float64
			raw string
		)
		if err := rows.Scan(&t, &raw); err != nil {
			return nil, d.readErr(ctx, err)
		}
		v, err := decodeValue(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s sample at %v: %v", domain.ErrDocumentUnavailable, path, property, t, err)
		}
		samples = append(samples, domain.TimeSample{Time: domain.TimeCode(t), Value: v})
	}
	if err := rows.Err(); err != nil {
		return nil, d.readErr(ctx, err)
	}
	return samples, nil
}

// Metadata returns the metadata a layer authors on a prim or property,
// in authored order.
func (d *Document) Metadata(ctx context.Context, layerID string, path domain.Path, property string) (domain.Metadata, error) {
	id, err := d.layerID(layerID)
	if err != nil {
		return nil, err
	}

	rows, err := d.db.QueryContext(ctx,
		"SELECT key, value FROM metadata WHERE layer_id = ? AND path = ? AND property = ? ORDER BY ord",
		id, string(path), property)
	if err != nil {
		return nil, d.readErr(ctx, err)
	}
	defer rows.Close()

	md := domain.Metadata{}
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, d.readErr(ctx, err)
		}
		v, err := decodeValue(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: metadata %s on %s: %v", domain.ErrDocumentUnavailable, key, path, err)
		}
		md = append(md, domain.Metadatum{Key: key, Value: v, LayerID: layerID})
	}
	if err := rows.Err(); err != nil {
		return nil, d.readErr(ctx, err)
	}
	return md, nil
}

// TimeRange returns the authored playback range.
func (d *Document) TimeRange(ctx context.Context) (domain.TimeRange, error) {
	var start, end, tcps float64
	err := d.db.QueryRowContext(ctx,
		"SELECT start_time, end_time, time_codes_per_second FROM stage WHERE id = 1").Scan(&start, &end, &tcps)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.TimeRange{}, nil
	}
	if err != nil {
		return domain.TimeRange{}, d.readErr(ctx, err)
	}
	return domain.TimeRange{
		Start:              domain.TimeCode(start),
		End:                domain.TimeCode(end),
		TimeCodesPerSecond: tcps,
	}, nil
}

// Close closes the database connection.
func (d *Document) Close() error {
	return d.db.Close()
}

func (d *Document) requireNode(ctx context.Context, path domain.Path) error {
	ok, err := d.HasNode(ctx, path)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, path)
	}
	return nil
}

func (d *Document) layerID(identifier string) (int64, error) {
	id, ok := d.ids[identifier]
	if !ok {
		return 0, fmt.Errorf("%w: layer %s", domain.ErrNotFound, identifier)
	}
	return id, nil
}

// readErr keeps context errors intact and reports everything else as an
// unavailable document.
func (d *Document) readErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrDocumentUnavailable, d.path, err)
}
