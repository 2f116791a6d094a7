package handlers

import (
	"net/http"

	"cvlab/internal/demo"
	"cvlab/internal/logger"
)

// DemoInfo is the JSON form of a catalog entry.
type DemoInfo struct {
	Name    string   `json:"name"`
	Group   string   `json:"group"`
	Summary string   `json:"summary"`
	Inputs  []string `json:"inputs"`
}

// ListDemosHandler lists the demo catalog, optionally one ?group=.
func ListDemosHandler(registry *demo.Registry, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		demos := registry.List()
		if g := r.URL.Query().Get("group"); g != "" {
			demos = registry.Group(g)
		}

		out := make([]DemoInfo, 0, len(demos))
		for _, d := range demos {
			inputs := d.Inputs
			if inputs == nil {
				inputs = []string{}
			}
			out = append(out, DemoInfo{Name: d.Name, Group: d.Group, Summary: d.Summary, Inputs: inputs})
		}
		writeJSON(w, log, http.StatusOK, out)
	}
}
