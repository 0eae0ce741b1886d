package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rahulmyzone/MiraNext/internal/entity"
	"github.com/rahulmyzone/MiraNext/internal/executor"
	"github.com/rahulmyzone/MiraNext/internal/portfolio"
	"github.com/rahulmyzone/MiraNext/internal/record"
	"github.com/rahulmyzone/MiraNext/internal/result"
	"github.com/rahulmyzone/MiraNext/internal/schema"
	"github.com/rahulmyzone/MiraNext/internal/sqlgen"
)

const maxBodyBytes = 1 << 20

type App struct {
	cfg   Config
	pool  *executor.Pool
	store *entity.Store
}

func newApp(cfg Config, pool *executor.Pool, store *entity.Store) *App {
	return &App{cfg: cfg, pool: pool, store: store}
}

func (a *App) routes() http.Handler {
	mux := http.NewServeMux()
	// Health & meta
	mux.HandleFunc("/healthz", a.handleHealth)
	mux.HandleFunc("/v1/meta", a.handleMeta)

	// Dashboard views
	mux.HandleFunc("/api/v1/brokers", a.withCORS(a.handleBrokers))
	mux.HandleFunc("/api/v1/portfolio/metrics", a.withCORS(a.handlePortfolioMetrics))

	// Generic entity routes
	mux.HandleFunc("/api/v1/{table}", a.withCORS(a.handleEntity))
	mux.HandleFunc("/api/v1/{table}/structure", a.withCORS(a.handleStructure))

	return logRequests(mux)
}

// ============ Handlers ============

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := a.pool.Ping(r.Context()); err != nil {
		jsonOK(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "version": version, "error": err.Error()})
		return
	}
	jsonOK(w, http.StatusOK, map[string]any{"ok": true, "version": version})
}

func (a *App) handleMeta(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"version": version,
		"config":  a.cfg,
		"schema":  a.store.Schema(),
		"now":     time.Now().UTC().Format(time.RFC3339),
	}
	jsonOK(w, http.StatusOK, resp)
}

// GET  /api/v1/{table}?col=val reads rows matching every query parameter.
// POST /api/v1/{table} writes one object, or each element of an array.
func (a *App) handleEntity(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")
	switch r.Method {
	case http.MethodGet:
		env, err := a.store.Read(r.Context(), filterFromQuery(r), table)
		if err != nil {
			jsonErr(w, statusFor(err), err)
			return
		}
		jsonOK(w, http.StatusOK, env)

	case http.MethodPost:
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			jsonErr(w, http.StatusBadRequest, err)
			return
		}
		recs, isList, err := record.DecodeList(body)
		if err != nil {
			jsonErr(w, http.StatusBadRequest, err)
			return
		}
		if !isList {
			env, err := a.store.Write(r.Context(), recs[0], table)
			if err != nil {
				jsonErr(w, statusFor(err), err)
				return
			}
			jsonOK(w, http.StatusOK, env)
			return
		}

		// Each element is written on its own; one failure does not stop the rest.
		out := batchResponse{Stat: result.StatOk, Items: make([]result.Envelope, 0, len(recs))}
		for _, rec := range recs {
			env, err := a.store.Write(r.Context(), rec, table)
			if err != nil {
				env = result.Failure(err)
			}
			out.Items = append(out.Items, env)
		}
		out.Count = len(out.Items)
		jsonOK(w, http.StatusOK, out)

	default:
		jsonErr(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
	}
}

// GET /api/v1/{table}/structure describes the table.
// PUT /api/v1/{table}/structure creates it from a list of column definitions.
func (a *App) handleStructure(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")
	switch r.Method {
	case http.MethodGet:
		env, err := a.store.DescribeStructure(r.Context(), table)
		if err != nil {
			jsonErr(w, statusFor(err), err)
			return
		}
		jsonOK(w, http.StatusOK, env)

	case http.MethodPut:
		var cols []schema.ColumnDefinition
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err := dec.Decode(&cols); err != nil {
			jsonErr(w, http.StatusBadRequest, err)
			return
		}
		env, err := a.store.CreateStructure(r.Context(), table, cols)
		if err != nil {
			jsonErr(w, statusFor(err), err)
			return
		}
		jsonOK(w, http.StatusOK, env)

	default:
		jsonErr(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
	}
}

// GET /api/v1/brokers answers with a bare array.
func (a *App) handleBrokers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
		return
	}
	rows, err := portfolio.Brokers(r.Context(), a.store, a.portfolioConfig())
	if err != nil {
		jsonErr(w, statusFor(err), err)
		return
	}
	jsonOK(w, http.StatusOK, rows)
}

// GET /api/v1/portfolio/metrics?broker=
func (a *App) handlePortfolioMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
		return
	}
	sum, err := portfolio.Compute(r.Context(), a.store, a.portfolioConfig(), r.URL.Query().Get("broker"))
	if err != nil {
		jsonErr(w, statusFor(err), err)
		return
	}
	jsonOK(w, http.StatusOK, sum)
}

func (a *App) portfolioConfig() portfolio.Config {
	return portfolio.Config{DefaultBalance: a.cfg.BrokerDefaultBalance}
}

type batchResponse struct {
	Stat  result.Stat       `json:"stat"`
	Items []result.Envelope `json:"Items"`
	Count int               `json:"count"`
}

var errMethodNotAllowed = errors.New("method not allowed")

// filterFromQuery builds a filter from query parameters in the order they
// appear in the request. Only the first value of a repeated parameter is
// used, and pairs that fail to unescape are dropped as url.ParseQuery does.
func filterFromQuery(r *http.Request) record.Record {
	var filter record.Record
	for _, pair := range strings.Split(r.URL.RawQuery, "&") {
		if pair == "" {
			continue
		}
		rawName, rawValue, _ := strings.Cut(pair, "=")
		name, err := url.QueryUnescape(rawName)
		if err != nil || name == "" {
			continue
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			continue
		}
		if _, seen := filter.Get(name); seen {
			continue
		}
		filter.Set(name, record.Parse(value))
	}
	return filter
}

// statusFor maps layer errors onto HTTP: bad input is the caller's fault,
// anything the store rejected is ours.
func statusFor(err error) int {
	switch {
	case errors.Is(err, sqlgen.ErrInvalidIdentifier),
		errors.Is(err, sqlgen.ErrNothingToUpdate),
		errors.Is(err, sqlgen.ErrMissingID),
		errors.Is(err, schema.ErrInvalidDefinition),
		errors.Is(err, record.ErrNotObject),
		errors.Is(err, record.ErrUnsupportedValue):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
