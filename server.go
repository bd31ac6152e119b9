package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"i4.energy/across/loragw/rn2483"
)

// Server handles incoming HTTP requests for interacting with the
// configured LoRaWAN module
type Server struct {
	Logger *slog.Logger
	Driver *rn2483.Driver
	Sender *Sender
}

// UplinkRequest is the JSON body of POST /uplink
type UplinkRequest struct {
	Data string `json:"data"`
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /uplink", s.handleUplink)
	mux.HandleFunc("POST /join", s.handleJoin)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.ServeHTTP(w, r)
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	resp := ErrorResponse{Message: message}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)

}

// handleUplink queues one payload for transmission and reports the result
func (s *Server) handleUplink(w http.ResponseWriter, r *http.Request) {
	var req UplinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Data == "" {
		s.sendError(w, "the 'data' field is required", http.StatusBadRequest)
		return
	}

	outcome, err := s.Sender.Enqueue(r.Context(), []byte(req.Data))
	if err != nil {
		s.Logger.Error("Failed to send uplink", "error", err)
		s.sendError(w, err.Error(), s.uplinkStatus(err))
		return
	}

	type UplinkResponse struct {
		Downlink string `json:"downlink,omitempty"`
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(UplinkResponse{Downlink: outcome.Downlink})
}

// uplinkStatus maps transmit errors to HTTP status codes
func (s *Server) uplinkStatus(err error) int {
	var txErr *rn2483.TxError
	if !errors.As(err, &txErr) {
		return http.StatusInternalServerError
	}
	switch txErr.Kind {
	case rn2483.PayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case rn2483.ChannelBusy:
		return http.StatusTooManyRequests
	case rn2483.NotJoined:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

// handleJoin re-runs the OTAA join sequence
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	if err := s.Sender.Join(r.Context()); err != nil {
		s.Logger.Error("Join failed", "error", err)
		s.sendError(w, err.Error(), http.StatusBadGateway)
		return
	}
	s.Logger.Info("Joined network")
	w.WriteHeader(http.StatusOK)
}

// handleStatus reports the driver state and module identity
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	type StatusResponse struct {
		State       string `json:"state"`
		HardwareEUI string `json:"hardware_eui"`
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StatusResponse{
		State:       s.Driver.State().String(),
		HardwareEUI: s.Driver.HardwareEUI(),
	})
}
