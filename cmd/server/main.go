package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	persistlog "areasigns.ai/internal/persistence/log"
	"areasigns.ai/internal/persistence/store"
	"areasigns.ai/internal/sim/binding"
	"areasigns.ai/internal/sim/engine"
	"areasigns.ai/internal/sim/geometry"
	"areasigns.ai/internal/sim/perms"
	"areasigns.ai/internal/sim/regions"
	"areasigns.ai/internal/sim/tuning"
	"areasigns.ai/internal/transport/ws"
)

func main() {
	envFile := ".env"
	for i, a := range os.Args[1:] {
		if a == "-env" && i+2 < len(os.Args) {
			envFile = os.Args[i+2]
		} else if strings.HasPrefix(a, "-env=") {
			envFile = strings.TrimPrefix(a, "-env=")
		}
	}
	_ = godotenv.Load(envFile)

	var (
		_         = flag.String("env", ".env", "dotenv file loaded before flags are parsed")
		addr      = flag.String("addr", envOr("AREASIGNS_ADDR", ":8080"), "http listen address")
		configDir = flag.String("configs", envOr("AREASIGNS_CONFIGS", "./configs"), "config directory")
		dataDir   = flag.String("data", envOr("AREASIGNS_DATA", "./data"), "runtime data directory")
		dbPath    = flag.String("db", envOr("AREASIGNS_DB", ""), "sqlite path (default: <data>/state/signs.sqlite)")
		token     = flag.String("token", envOr("AREASIGNS_TOKEN", ""), "shared token required in HELLO (empty disables)")
		noAudit   = flag.Bool("disable_audit", envBool("AREASIGNS_DISABLE_AUDIT", false), "disable the compressed audit log")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tune, err := tuning.Load(filepath.Join(*configDir, "signs.yaml"))
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("signs.yaml not found; using defaults")
		tune = tuning.Defaults()
	}
	geo, err := geometry.Load(filepath.Join(*configDir, "regions.yaml"))
	if err != nil {
		logger.Fatalf("load regions: %v", err)
	}
	tbl, err := perms.Load(filepath.Join(*configDir, "permissions.yaml"))
	if err != nil {
		logger.Fatalf("load permissions: %v", err)
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "state", "signs.sqlite")
	}
	db, err := store.Open(path)
	if err != nil {
		logger.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	var audit engine.AuditLogger
	if !*noAudit {
		al := persistlog.NewAuditLogger(*dataDir)
		defer al.Close()
		audit = al
	}

	hub := ws.NewHub(tune.Message)
	reg := binding.NewRegistry()
	rs := regions.NewStore()
	eng, err := engine.New(tune, engine.Deps{
		Registry: reg,
		Store:    rs,
		Geometry: geo,
		Perms:    tbl,
		Msg:      hub,
		Renderer: hub,
		Audit:    audit,
		Logger:   log.New(os.Stdout, "[engine] ", log.LstdFlags|log.Lmicroseconds),
	})
	if err != nil {
		logger.Fatalf("engine: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	loadCtx, loadCancel := context.WithTimeout(ctx, 30*time.Second)
	savedRegions, savedSigns, err := db.LoadAll(loadCtx)
	loadCancel()
	if err != nil {
		logger.Fatalf("load state: %v", err)
	}
	dangling, err := eng.Restore(savedRegions, savedSigns)
	if err != nil {
		logger.Fatalf("restore state: %v", err)
	}
	for _, rec := range dangling {
		db.DeleteSign(rec.Loc)
	}
	// The mirror listens only after the restore so loading does not rewrite rows.
	reg.AddListener(db)
	rs.AddListener(db)
	eng.SetReady(true)
	logger.Printf("restored regions=%d signs=%d dangling=%d", len(savedRegions), len(savedSigns)-len(dangling), len(dangling))

	engDone := make(chan struct{})
	go func() {
		defer close(engDone)
		if err := eng.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("engine stopped: %v", err)
		}
	}()

	wsSrv, err := ws.NewServer(eng, hub, logger, ws.Config{Token: strings.TrimSpace(*token)})
	if err != nil {
		logger.Fatalf("ws: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeMetrics(rw, eng.Metrics(), hub, db.Stats())
	})
	mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(struct {
			Ready    bool           `json:"ready"`
			Metrics  engine.Metrics `json:"metrics"`
			Sessions int            `json:"sessions"`
			DB       store.Stats    `json:"db"`
		}{
			Ready:    eng.Ready(),
			Metrics:  eng.Metrics(),
			Sessions: hub.Sessions(),
			DB:       db.Stats(),
		})
	})
	mux.HandleFunc("/v1/ws", wsSrv.Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Printf("ListenAndServe: %v", err)
		cancel()
	}
	<-engDone
	logger.Printf("shutdown complete")
}

func writeMetrics(rw http.ResponseWriter, m engine.Metrics, hub *ws.Hub, st store.Stats) {
	fmt.Fprintf(rw, "# HELP areasigns_regions Registered regions.\n")
	fmt.Fprintf(rw, "# TYPE areasigns_regions gauge\n")
	fmt.Fprintf(rw, "areasigns_regions %d\n", m.Regions)

	fmt.Fprintf(rw, "# HELP areasigns_bindings Live sign bindings.\n")
	fmt.Fprintf(rw, "# TYPE areasigns_bindings gauge\n")
	fmt.Fprintf(rw, "areasigns_bindings %d\n", m.Bindings)

	fmt.Fprintf(rw, "# HELP areasigns_signals_total Signals handled by the engine.\n")
	fmt.Fprintf(rw, "# TYPE areasigns_signals_total counter\n")
	fmt.Fprintf(rw, "areasigns_signals_total %d\n", m.Dispatched)

	fmt.Fprintf(rw, "# HELP areasigns_queue_depth Channel backlog depth.\n")
	fmt.Fprintf(rw, "# TYPE areasigns_queue_depth gauge\n")
	fmt.Fprintf(rw, "areasigns_queue_depth{queue=%q} %d\n", "engine", m.QueueDepth)
	fmt.Fprintf(rw, "areasigns_queue_depth{queue=%q} %d\n", "sqlite", st.QueueDepth)

	fmt.Fprintf(rw, "# HELP areasigns_sessions Connected websocket sessions.\n")
	fmt.Fprintf(rw, "# TYPE areasigns_sessions gauge\n")
	fmt.Fprintf(rw, "areasigns_sessions %d\n", hub.Sessions())

	fmt.Fprintf(rw, "# HELP areasigns_dropped_total Outbound messages dropped on full queues.\n")
	fmt.Fprintf(rw, "# TYPE areasigns_dropped_total counter\n")
	fmt.Fprintf(rw, "areasigns_dropped_total %d\n", hub.Dropped())

	fmt.Fprintf(rw, "# HELP areasigns_sqlite_writes_total Mirror writes by outcome.\n")
	fmt.Fprintf(rw, "# TYPE areasigns_sqlite_writes_total counter\n")
	fmt.Fprintf(rw, "areasigns_sqlite_writes_total{outcome=%q} %d\n", "applied", st.Applied)
	fmt.Fprintf(rw, "areasigns_sqlite_writes_total{outcome=%q} %d\n", "failed", st.Failed)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func isLoopbackRemote(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(strings.TrimSpace(remoteAddr))
	if err != nil {
		host = strings.TrimSpace(remoteAddr)
	}
	ip := net.ParseIP(strings.Trim(host, "[]"))
	return ip != nil && ip.IsLoopback()
}
