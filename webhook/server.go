// ABOUTME: HTTP server receiving provider webhook POSTs
// ABOUTME: Verifies the shared secret, runs the matching adapter, and ingests synchronously
package webhook

import (
	"fmt"
	"log"
	"net/http"
)

// Server exposes POST /webhook/{provider} for each registered adapter.
type Server struct {
	ingestor *Ingestor
	adapters []Adapter
	secret   string
}

// NewServer creates a webhook server. secret, when non-empty, must match
// the X-Webhook-Secret header of every request.
func NewServer(ingestor *Ingestor, adapters []Adapter, secret string) *Server {
	return &Server{
		ingestor: ingestor,
		adapters: adapters,
		secret:   secret,
	}
}

// Routes registers the webhook endpoints on mux.
func (s *Server) Routes(mux *http.ServeMux) {
	for _, adapter := range s.adapters {
		mux.HandleFunc("/webhook/"+adapter.Name(), s.handle(adapter))
	}
}

func (s *Server) Start(port int) error {
	mux := http.NewServeMux()
	s.Routes(mux)

	addr := fmt.Sprintf(":%d", port)
	log.Printf("Starting webhook server at http://localhost%s", addr)
	return http.ListenAndServe(addr, mux)
}

// handle builds the handler for one provider adapter. Ingestion runs
// synchronously and completes before the response is written.
func (s *Server) handle(adapter Adapter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if s.secret != "" && r.Header.Get("X-Webhook-Secret") != s.secret {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		event, err := adapter.Parse(r)
		if err != nil {
			log.Printf("webhook %s: bad payload: %v", adapter.Name(), err)
			http.Error(w, "bad payload", http.StatusBadRequest)
			return
		}

		if err := s.ingestor.Handle(r.Context(), event); err != nil {
			log.Printf("webhook %s: ingest failed: %v", adapter.Name(), err)
			http.Error(w, "ingest failed", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
