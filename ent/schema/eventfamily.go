package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// EventFamily holds the schema definition for a coherent strategic event
// assembled from one or more Titles (§3, §4.5, §4.6).
type EventFamily struct {
	ent.Schema
}

// Fields of the EventFamily.
func (EventFamily) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.Text("title"),
		field.Text("summary").
			Default("").
			Comment("Enriched by C6 Step D; starts as the P3-assembled factual summary"),
		field.JSON("key_actors", []string{}),
		field.String("event_type").
			Default(""),
		field.String("primary_theater").
			Default(""),
		field.Time("event_start").
			Optional().
			Nillable(),
		field.Time("event_end").
			Optional().
			Nillable().
			Comment("event_end >= event_start or null (§3)"),
		field.JSON("source_title_ids", []string{}).
			Comment("Denormalized convenience cache, refreshed on each assign_to_ef (§9)"),
		field.Float("confidence").
			Default(0),
		field.Text("coherence_rationale").
			Default(""),
		field.Enum("status").
			Values("seed", "active").
			Default("seed"),
		field.JSON("tags", []string{}).
			Comment("Exactly 3 when enriched: two thematic, one geographic"),
		field.JSON("ef_context", map[string]any{}).
			Optional().
			Comment("{macro_link?, comparables (<=3), abnormality?}"),
		field.JSON("enrichment_payload", map[string]any{}).
			Optional(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

// Indexes of the EventFamily.
func (EventFamily) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("status"),
		index.Fields("status", "created_at").
			Annotations(entsql.IndexWhere("status = 'seed'")),
	}
}

func (EventFamily) Annotations() []schema.Annotation {
	return []schema.Annotation{}
}
