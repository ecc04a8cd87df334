package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/yuuki0xff/ctrace/tracer/chunk"
	"github.com/yuuki0xff/ctrace/tracer/logutil"
	"github.com/yuuki0xff/ctrace/tracer/render"
	"github.com/yuuki0xff/ctrace/tracer/types"
)

type traceInfo struct {
	ID             int     `json:"id"`
	Name           string  `json:"name"`
	Events         int     `json:"events"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	ElapsedCycles  uint64  `json:"elapsed_cycles"`
}

type locationStats struct {
	Name        string `json:"name"`
	File        string `json:"file"`
	Line        int    `json:"line"`
	Samples     int    `json:"samples"`
	TotalCycles uint64 `json:"total_cycles"`
}

func (s *Server) router() *mux.Router {
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/traces", s.handleTraces).Methods(http.MethodGet)
	api.HandleFunc("/traces/{id:[0-9]+}/stats", s.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/traces/{id:[0-9]+}/speedscope", s.handleSpeedscope).Methods(http.MethodGet)
	api.HandleFunc("/traces/{id:[0-9]+}/summary.csv", s.handleCSV).Methods(http.MethodGet)
	api.HandleFunc("/memory", s.handleMemory).Methods(http.MethodGet)
	return router
}

func (s *Server) trace(w http.ResponseWriter, r *http.Request) *types.Trace {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}
	traces := s.Source.Traces()
	if id < 0 || id >= len(traces) {
		http.Error(w, "trace not found", http.StatusNotFound)
		return nil
	}
	return traces[id]
}

func (s *Server) handleTraces(w http.ResponseWriter, r *http.Request) {
	var infos []traceInfo
	for i, t := range s.Source.Traces() {
		infos = append(infos, traceInfo{
			ID:             i,
			Name:           t.Name,
			Events:         len(logutil.ComputeEvents(t)),
			ElapsedSeconds: t.ElapsedSeconds(),
			ElapsedCycles:  t.ElapsedCycles(),
		})
	}
	writeJSON(w, infos)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	t := s.trace(w, r)
	if t == nil {
		return
	}
	var stats []locationStats
	for _, st := range logutil.ComputeLocationStats(t) {
		ls := locationStats{
			Samples:     st.Samples,
			TotalCycles: st.TotalCycles,
		}
		if st.Loc != nil {
			ls.Name = st.Loc.String()
			ls.File = st.Loc.File
			ls.Line = st.Loc.Line
		}
		stats = append(stats, ls)
	}
	writeJSON(w, stats)
}

func (s *Server) handleSpeedscope(w http.ResponseWriter, r *http.Request) {
	t := s.trace(w, r)
	if t == nil {
		return
	}
	w.Header().Add("Content-Type", "application/json")
	if err := render.SpeedscopeJSON(w, t, s.MaxSpeedscopeEvents); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleCSV(w http.ResponseWriter, r *http.Request) {
	t := s.trace(w, r)
	if t == nil {
		return
	}
	w.Header().Add("Content-Type", "text/csv")
	if err := render.SummaryCSV(w, t); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleMemory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]uint64{
		"total_bytes": chunk.TotalMemoryConsumption(),
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Add("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
