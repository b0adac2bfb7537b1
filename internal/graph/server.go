package graph

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hurttlocker/convograph/internal/metrics"
)

const (
	maxPathDepth     = 10
	maxRankingLimit  = 200
	shutdownDeadline = 5 * time.Second
)

// ServerConfig holds settings for the graph API server.
type ServerConfig struct {
	Store *Store
	// Lock guards Store. Writers elsewhere in the process must hold it
	// exclusively; handlers take it shared.
	Lock    *sync.RWMutex
	Addr    string
	Metrics *metrics.Collector
	Logger  *zap.Logger
}

// PathResponse is the payload for /api/path.
type PathResponse struct {
	From  string   `json:"from"`
	To    string   `json:"to"`
	Depth int      `json:"depth"`
	Found bool     `json:"found"`
	Path  []string `json:"path"`
}

// ClustersResponse is the payload for /api/clusters.
type ClustersResponse struct {
	Clusters [][]string `json:"clusters"`
	Count    int        `json:"count"`
}

// NeighborsResponse is the payload for /api/nodes/{id}/neighbors.
type NeighborsResponse struct {
	Node      Node   `json:"node"`
	Degree    int    `json:"degree"`
	Neighbors []Node `json:"neighbors"`
	Edges     []Edge `json:"edges"`
}

type api struct {
	store *Store
	lock  *sync.RWMutex
	log   *zap.Logger
}

// NewRouter builds the read-only HTTP API over cfg.Store.
func NewRouter(cfg ServerConfig) http.Handler {
	a := &api{store: cfg.Store, lock: cfg.Lock, log: cfg.Logger}
	if a.lock == nil {
		a.lock = &sync.RWMutex{}
	}
	if a.log == nil {
		a.log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(a.log))
	if cfg.Metrics != nil {
		r.Use(metricsMiddleware(cfg.Metrics))
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/graph", a.handleGraph)
		r.Get("/stats", a.handleStats)
		r.Get("/nodes", a.handleNodes)
		r.Get("/nodes/{id}", a.handleNode)
		r.Get("/nodes/{id}/neighbors", a.handleNeighbors)
		r.Get("/edges", a.handleEdges)
		r.Get("/path", a.handlePath)
		r.Get("/clusters", a.handleClusters)
		r.Get("/rankings/edges", a.handleStrongest)
		r.Get("/rankings/nodes", a.handleMostConnected)
	})
	return r
}

// Serve runs the API until ctx is cancelled.
func Serve(ctx context.Context, cfg ServerConfig) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownDeadline)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (a *api) handleGraph(w http.ResponseWriter, _ *http.Request) {
	a.lock.RLock()
	snap := a.store.Export()
	a.lock.RUnlock()
	writeJSON(w, http.StatusOK, snap)
}

func (a *api) handleStats(w http.ResponseWriter, _ *http.Request) {
	a.lock.RLock()
	meta := a.store.Metadata()
	clusters := len(a.store.FindClusters())
	a.lock.RUnlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"metadata": meta,
		"clusters": clusters,
	})
}

func (a *api) handleNodes(w http.ResponseWriter, r *http.Request) {
	a.lock.RLock()
	defer a.lock.RUnlock()
	var nodes []Node
	if t := r.URL.Query().Get("type"); t != "" {
		nodes = a.store.NodesByType(t)
	} else {
		nodes = a.store.Nodes()
	}
	writeJSON(w, http.StatusOK, nonNil(nodes))
}

func (a *api) handleEdges(w http.ResponseWriter, r *http.Request) {
	a.lock.RLock()
	defer a.lock.RUnlock()
	var edges []Edge
	if t := r.URL.Query().Get("type"); t != "" {
		edges = a.store.EdgesByType(t)
	} else {
		edges = a.store.Edges()
	}
	writeJSON(w, http.StatusOK, nonNil(edges))
}

func (a *api) handleNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a.lock.RLock()
	n, ok := a.store.GetNode(id)
	a.lock.RUnlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "node not found: " + id})
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (a *api) handleNeighbors(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a.lock.RLock()
	defer a.lock.RUnlock()
	n, ok := a.store.GetNode(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "node not found: " + id})
		return
	}
	writeJSON(w, http.StatusOK, NeighborsResponse{
		Node:      n,
		Degree:    a.store.NodeDegree(id),
		Neighbors: nonNil(a.store.ConnectedNodes(id)),
		Edges:     nonNil(a.store.EdgesForNode(id)),
	})
}

func (a *api) handlePath(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	if from == "" || to == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "from and to parameters required"})
		return
	}
	depth := parseBoundedInt(q.Get("depth"), DefaultMaxPathDepth, 1, maxPathDepth)

	a.lock.RLock()
	path := a.store.FindPath(from, to, depth)
	a.lock.RUnlock()

	writeJSON(w, http.StatusOK, PathResponse{
		From:  from,
		To:    to,
		Depth: depth,
		Found: path != nil,
		Path:  nonNil(path),
	})
}

func (a *api) handleClusters(w http.ResponseWriter, _ *http.Request) {
	a.lock.RLock()
	clusters := a.store.FindClusters()
	a.lock.RUnlock()
	writeJSON(w, http.StatusOK, ClustersResponse{Clusters: nonNil(clusters), Count: len(clusters)})
}

func (a *api) handleStrongest(w http.ResponseWriter, r *http.Request) {
	limit := parseBoundedInt(r.URL.Query().Get("limit"), DefaultRankingLimit, 1, maxRankingLimit)
	a.lock.RLock()
	edges := a.store.StrongestConnections(limit)
	a.lock.RUnlock()
	writeJSON(w, http.StatusOK, nonNil(edges))
}

func (a *api) handleMostConnected(w http.ResponseWriter, r *http.Request) {
	limit := parseBoundedInt(r.URL.Query().Get("limit"), DefaultRankingLimit, 1, maxRankingLimit)
	a.lock.RLock()
	ranked := a.store.MostConnectedNodes(limit)
	a.lock.RUnlock()
	writeJSON(w, http.StatusOK, ranked)
}

// parseBoundedInt parses raw, falling back to def when it is missing or
// not a number and clamping the result to [min, max].
func parseBoundedInt(raw string, def, min, max int) int {
	v, err := strconv.Atoi(raw)
	if raw == "" || err != nil {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func writeJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			)
		})
	}
}

func metricsMiddleware(c *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			// the pattern is only known once routing has happened
			route := "unknown"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			c.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
			c.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}
