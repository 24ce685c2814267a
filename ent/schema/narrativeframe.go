package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// NarrativeFrame holds the schema definition for an editorially-attributed
// interpretation over a set of headlines belonging to an EF, CTM, or epic
// (§3, §4.8). Exclusively owned by C8; refreshed by delete-then-insert.
type NarrativeFrame struct {
	ent.Schema
}

// Fields of the NarrativeFrame.
func (NarrativeFrame) Fields() []ent.Field {
	return []ent.Field{
		field.Enum("entity_type").
			Values("event", "ctm", "epic"),
		field.String("entity_id"),
		field.String("label"),
		field.Text("description").
			Default(""),
		field.String("moral_frame").
			Default(""),
		field.Int("title_count").
			Default(0),
		field.JSON("top_sources", []map[string]any{}).
			Comment("<=10 publishers by over_index"),
		field.JSON("proportional_sources", []map[string]any{}).
			Comment("<=5 publishers near over_index 1.0"),
		field.JSON("top_countries", []string{}).
			Comment("Top 10 iso_codes"),
		field.JSON("sample_titles", []string{}).
			Comment("<=15 publisher-diverse sample"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Indexes of the NarrativeFrame.
func (NarrativeFrame) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("entity_id", "label").
			Unique(),
		index.Fields("entity_type", "entity_id"),
	}
}

func (NarrativeFrame) Annotations() []schema.Annotation {
	return []schema.Annotation{}
}
