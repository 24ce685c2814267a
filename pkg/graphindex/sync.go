package graphindex

import (
	"context"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/arclinehq/arcline/pkg/titlestore"
)

// SyncTitle upserts the Title node, upserts its Entity nodes, and
// (re)links HAS_ENTITY edges. Best-effort: failures are logged, never
// propagated to C1 (§4.2).
func (c *Client) SyncTitle(ctx context.Context, t *titlestore.Title) {
	_, err := c.withWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, `
			MERGE (t:Title {id: $id})
			SET t.display_text = $display_text,
				t.published_at = $published_at,
				t.verdict = $verdict
		`, map[string]any{
			"id":           t.ID,
			"display_text": t.DisplayText,
			"published_at": t.PublishedAt,
			"verdict":      string(t.Verdict),
		}); err != nil {
			return nil, err
		}

		// Clear stale HAS_ENTITY edges before relinking — entities are
		// immutable once set per §3, but a title may re-sync (e.g. verdict
		// change) before entities are assigned.
		if _, err := tx.Run(ctx, `
			MATCH (t:Title {id: $id})-[r:HAS_ENTITY]->()
			DELETE r
		`, map[string]any{"id": t.ID}); err != nil {
			return nil, err
		}

		for _, e := range t.Entities {
			if _, err := tx.Run(ctx, `
				MERGE (en:Entity {name: $name, type: $type})
				WITH en
				MATCH (t:Title {id: $id})
				MERGE (t)-[:HAS_ENTITY]->(en)
			`, map[string]any{
				"id":   t.ID,
				"name": e.Text,
				"type": e.Type,
			}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	logBestEffort("sync_title", t.ID, err)
}

// SyncActionTriple adds directed Title->Entity edges with role and action.
// No-op if the triple is incomplete (no action or no endpoints) (§4.2).
func (c *Client) SyncActionTriple(ctx context.Context, titleID string, triple *titlestore.ActionTriple) {
	if !triple.IsComplete() {
		slog.Debug("sync_action_triple: incomplete triple, skipping", "title_id", titleID)
		return
	}

	_, err := c.withWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, `
			MATCH (t:Title {id: $id})
			MERGE (actor:Entity {name: $actor, type: 'ACTOR'})
			MERGE (t)-[:HAS_ACTION {action: $action, actor_role: 'actor'}]->(actor)
		`, map[string]any{"id": titleID, "actor": triple.Actor, "action": triple.Action}); err != nil {
			return nil, err
		}
		if _, err := tx.Run(ctx, `
			MATCH (t:Title {id: $id})
			MERGE (target:Entity {name: $target, type: 'TARGET'})
			MERGE (t)-[:HAS_ACTION {action: $action, actor_role: 'target'}]->(target)
		`, map[string]any{"id": titleID, "target": triple.Target, "action": triple.Action}); err != nil {
			return nil, err
		}
		return nil, nil
	})
	logBestEffort("sync_action_triple", titleID, err)
}
