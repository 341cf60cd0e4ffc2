// servs/s_cas/cas_api/handlers.go
package cas_api

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rskv-p/cas/servs/s_cas/cas_serv"
)

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Info())
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	st := s.store.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"stats":       st,
		"alternation": st.AlternationRatio(),
	})
}

// queryFromURL reads path, low, high and limit from the query string.
func queryFromURL(r *http.Request) (cas_serv.QueryRequest, error) {
	q := r.URL.Query()
	req := cas_serv.QueryRequest{Path: q.Get("path")}
	if q.Has("low") {
		req.Low = q.Get("low")
	}
	if q.Has("high") {
		req.High = q.Get("high")
	}
	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil {
			return req, err
		}
		req.Limit = n
	}
	return req, nil
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var (
		req cas_serv.QueryRequest
		err error
	)
	if r.Method == http.MethodGet {
		req, err = queryFromURL(r)
	} else {
		err = decodeBody(r, &req)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, cached, err := s.query(req)
	if err != nil {
		writeError(w, statusOf(err), err.Error())
		return
	}
	if s.metrics != nil {
		s.metrics.matches.Add(float64(len(res.Matches)))
		if cached {
			s.metrics.cacheHits.Inc()
		}
	}
	if cached {
		w.Header().Set("X-Cache", "hit")
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	var rec cas_serv.Record
	if err := decodeBody(r, &rec); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.store.Insert(rec)
	if err != nil {
		writeError(w, statusOf(err), err.Error())
		return
	}
	zerolog.Ctx(r.Context()).Debug().Str("path", rec.Path).Uint64("did", rec.DID).Msg("inserted")
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var rec cas_serv.Record
	if err := decodeBody(r, &rec); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.store.Delete(rec)
	if err != nil {
		writeError(w, statusOf(err), err.Error())
		return
	}
	if !res.Deleted {
		writeJSON(w, http.StatusNotFound, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleImport reads a path;value;did body. ?bulk=true replaces the index.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	bulk, _ := strconv.ParseBool(r.URL.Query().Get("bulk"))
	n, err := s.store.Import(r.Body, s.delim, bulk)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "keys": n})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"keys": n, "bulk": bulk})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	if err := s.store.Export(w, s.delim); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("export failed")
	}
}

func (s *Server) handleMerge(w http.ResponseWriter, _ *http.Request) {
	s.store.Merge()
	writeJSON(w, http.StatusOK, s.store.Info())
}
