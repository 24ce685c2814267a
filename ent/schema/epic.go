package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
)

// Epic holds the schema definition for a cross-centroid grouping built from
// tag co-occurrence across Event Families in a month (GLOSSARY).
type Epic struct {
	ent.Schema
}

// Fields of the Epic.
func (Epic) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("label").
			Default(""),
		field.Time("month"),
		field.JSON("centroid_ids", []string{}),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

func (Epic) Annotations() []schema.Annotation {
	return []schema.Annotation{}
}
