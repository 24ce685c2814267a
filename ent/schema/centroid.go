package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
)

// Centroid holds the schema definition for a predeclared strategic
// storyline used as an aggregation anchor for Event Families (§3, §4.7).
// Immutable configuration, loaded once by pkg/centroid at startup.
type Centroid struct {
	ent.Schema
}

// Fields of the Centroid.
func (Centroid) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable().
			Comment(`e.g. "ARC-UKR"`),
		field.String("label"),
		field.JSON("keywords", []string{}),
		field.JSON("canonical_actors", []string{}),
		field.JSON("theaters", []string{}),
	}
}

// Edges of the Centroid.
func (Centroid) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("ctms", CTM.Type),
	}
}

func (Centroid) Annotations() []schema.Annotation {
	return []schema.Annotation{}
}
