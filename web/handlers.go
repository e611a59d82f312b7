package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

// handleConfig handles GET and PUT requests for configuration
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleGetConfig(w, r)
	case http.MethodPut:
		s.handlePutConfig(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleGetConfig returns the current configuration with the API key hidden
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := s.GetConfig()

	sanitized := struct {
		Hotkey      string  `json:"hotkey"`
		Provider    string  `json:"provider"`
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		HasAPIKey   bool    `json:"hasApiKey"`
		WebEnabled  bool    `json:"webEnabled"`
		WebPort     int     `json:"webPort"`
	}{
		Hotkey:      cfg.Hotkey.Combo,
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		HasAPIKey:   cfg.LLM.APIKey != "",
		WebEnabled:  cfg.Web.Enabled,
		WebPort:     cfg.Web.Port,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sanitized)
}

// handlePutConfig updates the configuration
func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Hotkey      *string  `json:"hotkey"`
		Provider    *string  `json:"provider"`
		Model       *string  `json:"model"`
		Temperature *float64 `json:"temperature"`
		APIKey      *string  `json:"apiKey"`
		WebEnabled  *bool    `json:"webEnabled"`
		WebPort     *int     `json:"webPort"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Mutate a copy; the current config is shared with concurrent readers
	// and must only be replaced wholesale.
	cfg := *s.GetConfig()

	if req.Hotkey != nil {
		cfg.Hotkey.Combo = *req.Hotkey
	}
	if req.Provider != nil {
		cfg.LLM.Provider = *req.Provider
	}
	if req.Model != nil {
		cfg.LLM.Model = *req.Model
	}
	if req.Temperature != nil {
		cfg.LLM.Temperature = *req.Temperature
	}
	if req.APIKey != nil && *req.APIKey != "" {
		cfg.LLM.APIKey = *req.APIKey
	}
	if req.WebEnabled != nil {
		cfg.Web.Enabled = *req.WebEnabled
	}
	if req.WebPort != nil {
		cfg.Web.Port = *req.WebPort
	}

	if err := cfg.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := cfg.Save(); err != nil {
		slog.Error("Failed to save config", "error", err)
		http.Error(w, "Failed to save configuration", http.StatusInternalServerError)
		return
	}

	s.UpdateConfig(&cfg)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "success"})
}

// handleStats returns statistics for the specified time range
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	days := 7
	if d, err := strconv.Atoi(r.URL.Query().Get("days")); err == nil && d > 0 {
		days = d
	}

	overall, err := s.db.GetOverallStats(days)
	if err != nil {
		slog.Error("Failed to get overall stats", "error", err)
		http.Error(w, "Failed to get statistics", http.StatusInternalServerError)
		return
	}

	daily, err := s.db.GetDailyStats(days)
	if err != nil {
		slog.Error("Failed to get daily stats", "error", err)
		http.Error(w, "Failed to get statistics", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"overall": overall,
		"daily":   daily,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleHistory returns recorded cycles, newest first
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 50
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 500 {
		limit = l
	}
	offset := 0
	if o, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && o >= 0 {
		offset = o
	}

	cycles, err := s.db.GetCycles(limit, offset)
	if err != nil {
		slog.Error("Failed to get history", "error", err)
		http.Error(w, "Failed to get history", http.StatusInternalServerError)
		return
	}

	total, err := s.db.GetCycleCount()
	if err != nil {
		slog.Error("Failed to count cycles", "error", err)
		http.Error(w, "Failed to get history", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"cycles": cycles,
		"total":  total,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleStatus reports the live session state
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"state":         s.session.State(),
		"undoAvailable": s.undo.Has(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
