package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ConnectivityCache holds the schema definition for a precomputed pairwise
// similarity score between two unassigned strategic titles (§3, §4.3).
// Exclusively owned by C3; fully rebuilt on each refresh.
type ConnectivityCache struct {
	ent.Schema
}

// Fields of the ConnectivityCache.
func (ConnectivityCache) Fields() []ent.Field {
	return []ent.Field{
		field.String("title_a").
			Comment("Lexicographically smaller of the ordered pair"),
		field.String("title_b"),
		field.Float("entity_jaccard"),
		field.Float("actor_match"),
		field.Float("composite").
			Comment("0.5*jaccard + 0.2*actor_match, dropped below 0.3 (§3)"),
		field.String("shared_actor").
			Optional().
			Nillable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

// Indexes of the ConnectivityCache.
func (ConnectivityCache) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("title_a", "title_b").
			Unique().
			Annotations(entsql.IndexWhere("title_a < title_b")),
	}
}

func (ConnectivityCache) Annotations() []schema.Annotation {
	return []schema.Annotation{}
}
