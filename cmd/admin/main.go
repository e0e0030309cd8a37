package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	persistlog "areasigns.ai/internal/persistence/log"
	"areasigns.ai/internal/persistence/store"
)

func main() {
	_ = godotenv.Load(".env")

	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "regions":
			regionsCmd(os.Args[2:])
			return
		case "signs":
			signsCmd(os.Args[2:])
			return
		case "audit":
			auditCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		}
	}
	fmt.Fprintln(os.Stderr, "usage: admin regions|signs|audit|state [flags]")
	os.Exit(2)
}

func defaultDataDir() string {
	if v := strings.TrimSpace(os.Getenv("AREASIGNS_DATA")); v != "" {
		return v
	}
	return "./data"
}

func openDB(dataDir, dbPath string) *store.SQLite {
	path := strings.TrimSpace(dbPath)
	if path == "" {
		path = filepath.Join(dataDir, "state", "signs.sqlite")
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	db, err := store.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	return db
}

func regionsCmd(args []string) {
	fs := flag.NewFlagSet("regions", flag.ExitOnError)
	dataDir := fs.String("data", defaultDataDir(), "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	world := fs.String("world", "", "world filter (optional)")
	_ = fs.Parse(args)

	db := openDB(*dataDir, *dbPath)
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	regs, err := db.Regions(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	for _, r := range regs {
		if *world != "" && r.World != *world {
			continue
		}
		row := struct {
			Name     string  `json:"name"`
			World    string  `json:"world"`
			Kind     string  `json:"kind"`
			Price    float64 `json:"price"`
			Duration string  `json:"duration,omitempty"`
			Landlord string  `json:"landlord,omitempty"`
		}{Name: r.Name, World: r.World, Kind: string(r.Kind), Price: r.Price}
		if r.Rent != nil {
			row.Duration = r.Rent.Duration.String()
		}
		if r.Landlord != nil {
			row.Landlord = r.Landlord.Name
		}
		_ = enc.Encode(row)
	}
}

func signsCmd(args []string) {
	fs := flag.NewFlagSet("signs", flag.ExitOnError)
	dataDir := fs.String("data", defaultDataDir(), "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	_ = fs.Parse(args)

	region := ""
	if fs.NArg() > 0 {
		region = strings.TrimSpace(fs.Arg(0))
	}

	db := openDB(*dataDir, *dbPath)
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	recs, err := db.Signs(ctx, region)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	for _, rec := range recs {
		_ = enc.Encode(struct {
			World   string `json:"world"`
			Pos     [3]int `json:"pos"`
			Region  string `json:"region"`
			Kind    string `json:"kind"`
			Facing  string `json:"facing"`
			Profile string `json:"profile,omitempty"`
		}{
			World:   rec.Loc.World,
			Pos:     rec.Loc.Pos.ToArray(),
			Region:  rec.Region.Name,
			Kind:    rec.Kind,
			Facing:  string(rec.Facing),
			Profile: rec.Profile,
		})
	}
}

func auditCmd(args []string) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	dataDir := fs.String("data", defaultDataDir(), "runtime data directory")
	region := fs.String("region", "", "region filter (optional)")
	actor := fs.String("actor", "", "actor filter (optional)")
	_ = fs.Parse(args)

	files, err := persistlog.AuditFiles(*dataDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list:", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	for _, f := range files {
		entries, err := persistlog.ReadAudit(f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read %s: %v\n", filepath.Base(f), err)
		}
		for _, e := range entries {
			if *region != "" && !strings.EqualFold(e.Region, *region) {
				continue
			}
			if *actor != "" && e.Actor != *actor {
				continue
			}
			_ = enc.Encode(e)
		}
	}
}
