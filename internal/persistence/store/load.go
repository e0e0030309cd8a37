package store

import (
	"context"
	"database/sql"
	"fmt"

	"areasigns.ai/internal/sim/binding"
	"areasigns.ai/internal/sim/geom"
	"areasigns.ai/internal/sim/regions"
)

// Regions returns every stored region ordered by name.
func (s *SQLite) Regions(ctx context.Context) ([]*regions.Region, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, world, kind, price, duration, landlord_id, landlord_name FROM regions ORDER BY name_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*regions.Region
	for rows.Next() {
		var (
			name, world, kind     string
			price                 float64
			dur, lordID, lordName sql.NullString
		)
		if err := rows.Scan(&name, &world, &kind, &price, &dur, &lordID, &lordName); err != nil {
			return nil, err
		}
		k, err := regions.ParseKind(kind)
		if err != nil {
			return nil, fmt.Errorf("region %s: %w", name, err)
		}
		r, err := regions.New(k, name, world)
		if err != nil {
			return nil, err
		}
		r.Price = price
		if dur.Valid && dur.String != "" {
			d, err := regions.ParseDuration(dur.String)
			if err != nil {
				return nil, fmt.Errorf("region %s: %w", name, err)
			}
			if err := r.SetDuration(d); err != nil {
				return nil, err
			}
		}
		if lordID.Valid && lordID.String != "" {
			r.SetLandlord(lordID.String, lordName.String)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Signs returns stored bindings, optionally only those of one region.
func (s *SQLite) Signs(ctx context.Context, region string) ([]*binding.Record, error) {
	q := `SELECT world, x, y, z, region, region_world, kind, facing, profile FROM signs`
	var args []any
	if region != "" {
		q += ` WHERE region = ? COLLATE NOCASE`
		args = append(args, region)
	}
	q += ` ORDER BY world, x, y, z`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*binding.Record
	for rows.Next() {
		var (
			world, reg, regWorld, kind, facing string
			x, y, z                            int
			profile                            sql.NullString
		)
		if err := rows.Scan(&world, &x, &y, &z, &reg, &regWorld, &kind, &facing, &profile); err != nil {
			return nil, err
		}
		out = append(out, &binding.Record{
			Loc:     geom.Location{World: world, Pos: geom.Vec3i{X: x, Y: y, Z: z}},
			Kind:    kind,
			Facing:  geom.ParseFacing(facing),
			Profile: profile.String,
			Region:  binding.RegionRef{World: regWorld, Name: reg},
		})
	}
	return out, rows.Err()
}

// LoadAll reads the state needed to rebuild the in-memory indices at boot.
func (s *SQLite) LoadAll(ctx context.Context) ([]*regions.Region, []*binding.Record, error) {
	regs, err := s.Regions(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load regions: %w", err)
	}
	recs, err := s.Signs(ctx, "")
	if err != nil {
		return nil, nil, fmt.Errorf("load signs: %w", err)
	}
	return regs, recs, nil
}
