package export

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
)

// Status tracks the scheduler's runs for the status endpoint. A nil *Status
// records nothing.
type Status struct {
	mu        sync.Mutex
	running   bool
	runs      int
	failures  int
	last      *Summary
	lastError string
	lastEnd   time.Time
}

// StatusReport is the JSON body of GET /status.
type StatusReport struct {
	Running   bool      `json:"running"`
	Runs      int       `json:"runs"`
	Failures  int       `json:"failures"`
	LastRun   *Summary  `json:"last_run,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	LastEnd   time.Time `json:"last_end,omitempty"`
}

func (s *Status) begin() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
}

func (s *Status) finish(sum Summary, err error) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.runs++
	s.last = &sum
	s.lastEnd = time.Now()
	s.lastError = ""
	if err != nil {
		s.failures++
		s.lastError = err.Error()
	}
}

// Report returns a snapshot of the tracked runs.
func (s *Status) Report() StatusReport {
	if s == nil {
		return StatusReport{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r := StatusReport{
		Running:   s.running,
		Runs:      s.runs,
		Failures:  s.failures,
		LastError: s.lastError,
		LastEnd:   s.lastEnd,
	}
	if s.last != nil {
		last := *s.last
		r.LastRun = &last
	}
	return r
}

// NewStatusRouter serves:
//
//	GET  /healthz  liveness, always 200
//	GET  /status   StatusReport as JSON
//	POST /run      trigger an export now (202)
//
// trigger may be nil, in which case /run is not routed.
func NewStatusRouter(status *Status, trigger func() error) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, status.Report())
	}).Methods(http.MethodGet)

	if trigger != nil {
		r.HandleFunc("/run", func(w http.ResponseWriter, _ *http.Request) {
			if err := trigger(); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusAccepted, map[string]string{"status": "triggered"})
		}).Methods(http.MethodPost)
	}
	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
