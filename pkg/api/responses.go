package api

import "github.com/arclinehq/arcline/pkg/narrative"

// HealthResponse is returned by GET /health. §6 specifies the literal
// `{"status":"ok"}` shape on success; Checks carries the per-component
// detail the teacher's health endpoint reports, surfaced only when a
// component is unhealthy.
type HealthResponse struct {
	Status string                 `json:"status"`
	Checks map[string]HealthCheck `json:"checks,omitempty"`
}

// HealthCheck represents the status of a single health check component.
type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ExtractResponse is returned by POST /extract: the narrative frames just
// (re)built for the requested entity (§6).
type ExtractResponse struct {
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Frames     []FrameResponse `json:"frames"`
}

// FrameResponse is the wire shape of a single narrative.Frame.
type FrameResponse struct {
	Label               string                 `json:"label"`
	Description         string                 `json:"description"`
	MoralFrame          string                 `json:"moral_frame"`
	TitleCount          int                    `json:"title_count"`
	TopSources          []narrative.SourceStat `json:"top_sources,omitempty"`
	ProportionalSources []narrative.SourceStat `json:"proportional_sources,omitempty"`
	TopCountries        []string               `json:"top_countries,omitempty"`
	SampleTitles        []string               `json:"sample_titles,omitempty"`
}

func toFrameResponses(frames []narrative.Frame) []FrameResponse {
	out := make([]FrameResponse, 0, len(frames))
	for _, f := range frames {
		out = append(out, FrameResponse{
			Label:               f.Label,
			Description:         f.Description,
			MoralFrame:          f.MoralFrame,
			TitleCount:          f.TitleCount,
			TopSources:          f.TopSources,
			ProportionalSources: f.ProportionalSources,
			TopCountries:        f.TopCountries,
			SampleTitles:        f.SampleTitles,
		})
	}
	return out
}
