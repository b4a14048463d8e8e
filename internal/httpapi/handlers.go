package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"littlebird/internal/domain"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeResult(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.DB != nil {
		if err := s.deps.DB.PingContext(r.Context()); err != nil {
			s.logger.Warn("readiness check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	writeResult(w, http.StatusOK, map[string]string{"status": "ready"})
}

type syncRequest struct {
	Action       string `json:"action"`
	Jurisdiction string `json:"jurisdiction"`
	Session      string `json:"session"`
	Query        string `json:"query"`
}

// handleSync runs a sync inside the request. A failed full sync still
// returns whichever half completed alongside the error.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	action, err := domain.ParseSyncAction(req.Action)
	if err != nil {
		writeError(w, http.StatusBadRequest, "action must be one of legislators, bills, sponsors, full")
		return
	}

	result, err := s.deps.Syncer.Run(r.Context(), action, domain.SyncQuery{
		Jurisdiction: req.Jurisdiction,
		Session:      req.Session,
		Query:        req.Query,
	})
	if err != nil {
		s.logger.Error("sync failed", "action", action, "error", err)
		env := envelope{Success: false, Error: err.Error()}
		if full, ok := result.(*domain.FullSyncResult); ok && full != nil {
			env.Result = full
		}
		writeJSON(w, statusFor(err), env)
		return
	}

	writeResult(w, http.StatusOK, result)
}

func (s *Server) handleSyncState(w http.ResponseWriter, r *http.Request) {
	states, err := s.deps.SyncState.List(r.Context())
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeResult(w, http.StatusOK, states)
}

func parseListFilter(r *http.Request) (domain.ListFilter, error) {
	q := r.URL.Query()
	f := domain.ListFilter{
		Query:        strings.TrimSpace(q.Get("q")),
		Session:      q.Get("session"),
		Jurisdiction: q.Get("jurisdiction"),
		Party:        q.Get("party"),
		Chamber:      q.Get("chamber"),
		OrderBy:      q.Get("order_by"),
	}

	switch strings.ToLower(q.Get("order")) {
	case "", "asc":
	case "desc":
		f.Descending = true
	default:
		return f, domain.ErrInvalidInput
	}

	var err error
	if v := q.Get("limit"); v != "" {
		if f.Limit, err = strconv.Atoi(v); err != nil || f.Limit < 0 {
			return f, domain.ErrInvalidInput
		}
	}
	if v := q.Get("offset"); v != "" {
		if f.Offset, err = strconv.Atoi(v); err != nil || f.Offset < 0 {
			return f, domain.ErrInvalidInput
		}
	}
	return f, nil
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	f, err := parseListFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid query parameters")
		return
	}

	bills, err := s.deps.Bills.List(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeResult(w, http.StatusOK, bills)
}

func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bill, err := s.deps.Bills.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeResult(w, http.StatusOK, bill)
}

func (s *Server) handleListLegislators(w http.ResponseWriter, r *http.Request) {
	f, err := parseListFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid query parameters")
		return
	}

	legislators, err := s.deps.Legislators.List(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeResult(w, http.StatusOK, legislators)
}

func (s *Server) handleGetLegislator(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	legislator, err := s.deps.Legislators.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeResult(w, http.StatusOK, legislator)
}

// upstreamQuery reads a single-page search against the upstream API.
func upstreamQuery(r *http.Request) domain.SyncQuery {
	q := r.URL.Query()
	return domain.SyncQuery{
		Jurisdiction: q.Get("jurisdiction"),
		Session:      q.Get("session"),
		Query:        strings.TrimSpace(q.Get("q")),
		MaxPages:     1,
	}
}

func (s *Server) handleUpstreamBills(w http.ResponseWriter, r *http.Request) {
	bills, err := s.deps.Upstream.FetchBills(r.Context(), upstreamQuery(r))
	if err != nil {
		s.logger.Error("upstream search failed", "resource", "bills", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeResult(w, http.StatusOK, bills)
}

func (s *Server) handleUpstreamLegislators(w http.ResponseWriter, r *http.Request) {
	legislators, err := s.deps.Upstream.FetchLegislators(r.Context(), upstreamQuery(r))
	if err != nil {
		s.logger.Error("upstream search failed", "resource", "legislators", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeResult(w, http.StatusOK, legislators)
}
