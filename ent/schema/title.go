package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Title holds the schema definition for the Title entity — one news
// headline, its strategic verdict, and its EF assignment. This schema is
// documentation-of-record for the relational model (§3); pkg/titlestore
// reads and writes these columns directly via pgx, it does not use Ent's
// generated client.
type Title struct {
	ent.Schema
}

// Fields of the Title.
func (Title) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable().
			Comment("Opaque identifier assigned by P1 ingestion"),
		field.Text("display_text"),
		field.Text("normalized_text"),
		field.String("publisher").
			Default(""),
		field.Time("published_at"),
		field.String("language").
			Default(""),
		field.String("iso_country").
			Default(""),
		field.Enum("verdict").
			Values("unfiltered", "strategic", "non-strategic").
			Default("unfiltered"),
		field.String("verdict_reason").
			Default(""),
		field.JSON("actors", []string{}).
			Comment("Extracted actor strings"),
		field.JSON("entities", []map[string]string{}).
			Comment("Extracted {text, type} entities"),
		field.String("action_actor").
			Optional().
			Nillable().
			Comment("Action triple actor — immutable once set (§3)"),
		field.String("action_verb").
			Optional().
			Nillable(),
		field.String("action_target").
			Optional().
			Nillable(),
		field.String("ef_id").
			Optional().
			Nillable().
			Comment("Owning side of the title<->EF relationship (§9)"),
		field.Float("assignment_confidence").
			Optional().
			Nillable(),
		field.String("assignment_rationale").
			Optional().
			Nillable(),
		field.Enum("processing_status").
			Values("pending", "filtered", "assigned", "failed").
			Default("pending"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

// Indexes of the Title.
func (Title) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("verdict", "ef_id", "published_at").
			Annotations(entsql.IndexWhere("verdict = 'strategic' AND ef_id IS NULL")),
		// Single-EF invariant (§4.1): a title may belong to at most one EF.
		index.Fields("id", "ef_id").
			Unique().
			Annotations(entsql.IndexWhere("ef_id IS NOT NULL")),
	}
}

func (Title) Annotations() []schema.Annotation {
	return []schema.Annotation{}
}
