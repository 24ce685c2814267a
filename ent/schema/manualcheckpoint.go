package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
)

// ManualCheckpoint holds the schema definition for the operator-facing
// mirror of each stage's on-disk JSON checkpoint (§6, §9 Checkpoint). The
// JSON files under logs/checkpoints/ remain the runner's source of truth;
// this table exists for cross-stage dashboards and manual inspection.
type ManualCheckpoint struct {
	ent.Schema
}

// Fields of the ManualCheckpoint.
func (ManualCheckpoint) Fields() []ent.Field {
	return []ent.Field{
		field.String("phase").
			Unique().
			Immutable(),
		field.String("last_item_id").
			Default(""),
		field.Int64("processed_count").
			Default(0),
		field.Int64("succeeded_count").
			Default(0),
		field.Int64("failed_count").
			Default(0),
		field.Time("last_run_at").
			Optional().
			Nillable(),
		field.Text("notes").
			Default(""),
	}
}

func (ManualCheckpoint) Annotations() []schema.Annotation {
	return []schema.Annotation{}
}
