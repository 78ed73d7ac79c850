package web

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/JonMunkholm/therafind/internal/core"
	"github.com/JonMunkholm/therafind/internal/logging"
	"github.com/JonMunkholm/therafind/internal/web/templates"
	"github.com/samber/lo"
)

// maxBodySize caps POST /search bodies. A search is a handful of short terms.
const maxBodySize = 64 << 10

// endpoints is advertised by the root handler. Only the search API is listed;
// existing clients compare the list exactly.
var endpoints = []string{"/search"}

// handleRoot reports that the API is up and lists the search endpoint.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"message":   "CDx Backend API is running",
		"endpoints": endpoints,
	})
}

// limited is implemented by searchers that bound concurrency.
type limited interface {
	Limiter() *core.SearchLimiter
}

// handleHealth is a liveness probe. It does not touch the data source.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	if l, ok := s.searcher.(limited); ok && l.Limiter() != nil {
		resp["searches"] = l.Limiter().Status()
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// handleSearch runs a search from query parameters (GET) or a JSON object (POST).
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, err := searchRequestFrom(r)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	result, err := s.searcher.Search(r.Context(), req)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

// handleExport streams the matching rows as a CSV download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	req := searchRequestFromQuery(r)

	result, err := s.searcher.Search(r.Context(), req)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("therapies_%s.csv", timestamp)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if err := writeResultCSV(w, result); err != nil {
		logging.FromContext(r.Context()).Error("csv export error", "error", err)
	}
}

// handleSearchPage renders the HTML search form and, when terms are given,
// the matching rows.
func (s *Server) handleSearchPage(w http.ResponseWriter, r *http.Request) {
	req := searchRequestFromQuery(r)

	var errMsg string
	result, err := s.searcher.Search(r.Context(), req)
	if err != nil {
		logging.FromContext(r.Context()).Warn("search page load failed", "error", err)
		errMsg = core.FormatUserError(err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.SearchPage(searchPageView(req, result, errMsg)).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render error", "error", err)
	}
}

// searchRequestFrom reads terms from the body for POST and from the query otherwise.
// Keys that name no search field are dropped in both cases.
func searchRequestFrom(r *http.Request) (core.SearchRequest, error) {
	if r.Method != http.MethodPost {
		return searchRequestFromQuery(r), nil
	}

	var terms map[string]string
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodySize))
	if err := dec.Decode(&terms); err != nil {
		if errors.Is(err, io.EOF) {
			return core.SearchRequest{}, nil
		}
		return nil, fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	known := lo.PickBy(terms, func(key, _ string) bool {
		_, ok := core.FieldByKey(key)
		return ok
	})
	return core.SearchRequest(known), nil
}

// searchRequestFromQuery collects the known search keys from the URL.
// Only the first value of a repeated parameter is used.
func searchRequestFromQuery(r *http.Request) core.SearchRequest {
	query := r.URL.Query()
	keys := lo.Filter(lo.Map(core.Fields(), func(f core.Field, _ int) string {
		return f.Key
	}), func(key string, _ int) bool {
		return query.Has(key)
	})

	req := make(core.SearchRequest, len(keys))
	for _, key := range keys {
		req[key] = query.Get(key)
	}
	return req
}

// writeResultCSV writes the result columns as the header and one record per row.
func writeResultCSV(w io.Writer, result *core.SearchResult) error {
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(result.Columns); err != nil {
		return err
	}

	record := make([]string, len(result.Columns))
	for _, row := range result.Rows {
		for i, col := range result.Columns {
			record[i] = row.Value(col)
		}
		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}
