package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// CTM holds the schema definition for a Centroid x Track x Month
// aggregation bucket (§3). Monotonically accumulates EFs/titles until
// frozen at a month boundary by an external job (out of scope, §1).
type CTM struct {
	ent.Schema
}

// Fields of the CTM.
func (CTM) Fields() []ent.Field {
	return []ent.Field{
		field.String("track"),
		field.Time("month").
			Comment("First-of-month date"),
		field.Int("title_count").
			Default(0),
		field.Bool("is_frozen").
			Default(false),
		field.Text("summary_text").
			Optional().
			Nillable(),
		field.Int("event_count_at_summary").
			Optional().
			Nillable(),
		field.Time("last_summary_at").
			Optional().
			Nillable(),
	}
}

// Edges of the CTM.
func (CTM) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("centroid", Centroid.Type).
			Ref("ctms").
			Unique().
			Required(),
	}
}

// Indexes of the CTM.
func (CTM) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("track", "month").
			Edges("centroid").
			Unique(),
	}
}

func (CTM) Annotations() []schema.Annotation {
	return []schema.Annotation{}
}
