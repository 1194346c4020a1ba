package api

import (
	"encoding/json"
	"net/http"

	"github.com/Novanna/doc-verifier/internal/templates"
)

type templateInfo struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Sections []string         `json:"sections"`
	Steps    []templates.Step `json:"steps"`
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	all := s.verifier.Templates()
	out := make([]templateInfo, 0, len(all))
	for _, t := range all {
		out = append(out, templateInfo{
			ID:       t.ID,
			Name:     t.Name,
			Sections: t.Sections,
			Steps:    t.Steps(),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"templates": out})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"runs": s.verifier.Stats(),
	})
}
