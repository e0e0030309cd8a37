package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"areasigns.ai/internal/sim/binding"
	"areasigns.ai/internal/sim/geom"
	"areasigns.ai/internal/sim/regions"
)

// SQLite mirrors regions and bindings. Mutations are queued by the engine's
// listeners and applied in order by a single writer goroutine.
type SQLite struct {
	db   *sql.DB
	path string

	ch    chan req
	stmts stmts
	wg    sync.WaitGroup
	once  sync.Once

	closed atomic.Bool

	applied atomic.Uint64
	failed  atomic.Uint64
}

type reqKind int

const (
	reqUpsertRegion reqKind = iota + 1
	reqDeleteRegion
	reqUpsertSign
	reqDeleteSign
)

type req struct {
	kind   reqKind
	region regionRow
	sign   signRow
}

type regionRow struct {
	Key          string
	Name         string
	World        string
	Kind         string
	Price        float64
	Duration     string
	LandlordID   string
	LandlordName string
}

type signRow struct {
	World       string
	X, Y, Z     int
	Region      string
	RegionWorld string
	Kind        string
	Facing      string
	Profile     string
}

type Stats struct {
	Applied       uint64
	Failed        uint64
	QueueDepth    int
	QueueCapacity int
}

func Open(path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	st, err := prepare(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLite{
		db:    db,
		path:  path,
		ch:    make(chan req, 4096),
		stmts: st,
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

type stmts struct {
	upsertRegion *sql.Stmt
	deleteRegion *sql.Stmt
	upsertSign   *sql.Stmt
	deleteSign   *sql.Stmt
}

func (st stmts) close() {
	for _, x := range []*sql.Stmt{st.upsertRegion, st.deleteRegion, st.upsertSign, st.deleteSign} {
		if x != nil {
			_ = x.Close()
		}
	}
}

// prepare compiles the writer's statements up front so a schema mismatch
// fails Open instead of every later write.
func prepare(db *sql.DB) (stmts, error) {
	var st stmts
	var err error
	for _, p := range []struct {
		dst   **sql.Stmt
		query string
	}{
		{&st.upsertRegion, `INSERT OR REPLACE INTO regions(name_key,name,world,kind,price,duration,landlord_id,landlord_name,updated_at) VALUES(?,?,?,?,?,?,?,?,?)`},
		{&st.deleteRegion, `DELETE FROM regions WHERE name_key = ?`},
		{&st.upsertSign, `INSERT OR REPLACE INTO signs(world,x,y,z,region,region_world,kind,facing,profile,updated_at) VALUES(?,?,?,?,?,?,?,?,?,?)`},
		{&st.deleteSign, `DELETE FROM signs WHERE world = ? AND x = ? AND y = ? AND z = ?`},
	} {
		if *p.dst, err = db.Prepare(p.query); err != nil {
			st.close()
			return stmts{}, fmt.Errorf("prepare: %w", err)
		}
	}
	return st, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS regions (
			name_key TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			world TEXT NOT NULL,
			kind TEXT NOT NULL,
			price REAL NOT NULL,
			duration TEXT,
			landlord_id TEXT,
			landlord_name TEXT,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_regions_world ON regions(world);`,
		`CREATE TABLE IF NOT EXISTS signs (
			world TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			region TEXT NOT NULL,
			region_world TEXT NOT NULL,
			kind TEXT NOT NULL,
			facing TEXT NOT NULL,
			profile TEXT,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (world, x, y, z)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_signs_region ON signs(region);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1');`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close drains queued writes and closes the database.
func (s *SQLite) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLite) Path() string { return s.path }

func (s *SQLite) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		Applied:       s.applied.Load(),
		Failed:        s.failed.Load(),
		QueueDepth:    len(s.ch),
		QueueCapacity: cap(s.ch),
	}
}

// enqueue blocks when the queue is full; state writes are never dropped.
func (s *SQLite) enqueue(r req) {
	if s == nil || s.closed.Load() {
		return
	}
	s.ch <- r
}

func (s *SQLite) RegionAdded(r *regions.Region) {
	row := regionRow{
		Key:   strings.ToLower(r.Name),
		Name:  r.Name,
		World: r.World,
		Kind:  string(r.Kind),
		Price: r.Price,
	}
	if r.Rent != nil {
		row.Duration = r.Rent.Duration.String()
	}
	if r.Landlord != nil {
		row.LandlordID = r.Landlord.ID
		row.LandlordName = r.Landlord.Name
	}
	s.enqueue(req{kind: reqUpsertRegion, region: row})
}

func (s *SQLite) RegionRemoved(r *regions.Region) {
	s.enqueue(req{kind: reqDeleteRegion, region: regionRow{Key: strings.ToLower(r.Name)}})
}

func (s *SQLite) OnRegister(rec *binding.Record) {
	s.enqueue(req{kind: reqUpsertSign, sign: signRow{
		World:       rec.Loc.World,
		X:           rec.Loc.Pos.X,
		Y:           rec.Loc.Pos.Y,
		Z:           rec.Loc.Pos.Z,
		Region:      rec.Region.Name,
		RegionWorld: rec.Region.World,
		Kind:        rec.Kind,
		Facing:      string(rec.Facing),
		Profile:     rec.Profile,
	}})
}

func (s *SQLite) OnRemove(rec *binding.Record) {
	s.DeleteSign(rec.Loc)
}

func (s *SQLite) DeleteSign(loc geom.Location) {
	s.enqueue(req{kind: reqDeleteSign, sign: signRow{World: loc.World, X: loc.Pos.X, Y: loc.Pos.Y, Z: loc.Pos.Z}})
}

func (s *SQLite) loop() {
	ctx := context.Background()

	st := s.stmts
	defer st.close()

	var (
		tx          *sql.Tx
		opCount     int
		commitEvery = 500
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
	}
	commit := func() {
		if tx == nil {
			return
		}
		if err := tx.Commit(); err != nil {
			s.failed.Add(uint64(opCount))
		} else {
			s.applied.Add(uint64(opCount))
		}
		tx = nil
		opCount = 0
	}
	exec := func(stmt *sql.Stmt, args ...any) {
		if _, err := tx.Stmt(stmt).Exec(args...); err != nil {
			s.failed.Add(1)
			return
		}
		opCount++
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			s.failed.Add(1)
			continue
		}
		now := time.Now().UTC().Format(time.RFC3339Nano)
		switch r.kind {
		case reqUpsertRegion:
			g := r.region
			exec(st.upsertRegion, g.Key, g.Name, g.World, g.Kind, g.Price, nullable(g.Duration), nullable(g.LandlordID), nullable(g.LandlordName), now)
		case reqDeleteRegion:
			exec(st.deleteRegion, r.region.Key)
		case reqUpsertSign:
			sg := r.sign
			exec(st.upsertSign, sg.World, sg.X, sg.Y, sg.Z, sg.Region, sg.RegionWorld, sg.Kind, sg.Facing, nullable(sg.Profile), now)
		case reqDeleteSign:
			sg := r.sign
			exec(st.deleteSign, sg.World, sg.X, sg.Y, sg.Z)
		}
		// Commit each burst once the queue is drained.
		if opCount >= commitEvery || len(s.ch) == 0 {
			commit()
		}
	}

	commit()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
