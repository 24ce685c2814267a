package graphindex

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// StrategicNeighbor is one result row of StrategicNeighbors (§4.2).
type StrategicNeighbor struct {
	TitleID     string
	SharedCount int
}

// StrategicNeighbors returns the top-3 strategic titles sharing >= minShared
// entities with titleID within the last `days` days. Used by P2 Stage 2
// (§4.4) to decide promotion.
func (c *Client) StrategicNeighbors(ctx context.Context, titleID string, minShared, days int) ([]StrategicNeighbor, error) {
	res, err := c.withRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (t:Title {id: $id})-[:HAS_ENTITY]->(e:Entity)<-[:HAS_ENTITY]-(other:Title)
			WHERE other.id <> $id
				AND other.verdict = 'strategic'
				AND other.published_at >= $since
			WITH other, count(DISTINCT e) AS shared
			WHERE shared >= $min_shared
			RETURN other.id AS title_id, shared
			ORDER BY shared DESC
			LIMIT 3
		`, map[string]any{
			"id":         titleID,
			"min_shared": minShared,
			"since":      recentWindow(days),
		})
		if err != nil {
			return nil, err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]StrategicNeighbor, 0, len(records))
		for _, r := range records {
			id, _ := r.Get("title_id")
			shared, _ := r.Get("shared")
			out = append(out, StrategicNeighbor{
				TitleID:     fmt.Sprint(id),
				SharedCount: int(toInt64(shared)),
			})
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("strategic_neighbors: %w", err)
	}
	return res.([]StrategicNeighbor), nil
}

// EntityMention is an entity on a title whose strategic-mention count
// meets the caller's threshold (§4.2 entity_centrality).
type EntityMention struct {
	Entity          string
	Type            string
	MentionCount    int
}

// EntityCentrality returns entities on titleID whose strategic-mention
// count meets minStrategicMentions within the time window.
func (c *Client) EntityCentrality(ctx context.Context, titleID string, minStrategicMentions, days int) ([]EntityMention, error) {
	res, err := c.withRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (t:Title {id: $id})-[:HAS_ENTITY]->(e:Entity)
			MATCH (e)<-[:HAS_ENTITY]-(mention:Title)
			WHERE mention.verdict = 'strategic' AND mention.published_at >= $since
			WITH e, count(DISTINCT mention) AS mentions
			WHERE mentions >= $min_mentions
			RETURN e.name AS name, e.type AS type, mentions
			ORDER BY mentions DESC
		`, map[string]any{
			"id":            titleID,
			"min_mentions":  minStrategicMentions,
			"since":         recentWindow(days),
		})
		if err != nil {
			return nil, err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]EntityMention, 0, len(records))
		for _, r := range records {
			name, _ := r.Get("name")
			typ, _ := r.Get("type")
			mentions, _ := r.Get("mentions")
			out = append(out, EntityMention{
				Entity:       fmt.Sprint(name),
				Type:         fmt.Sprint(typ),
				MentionCount: int(toInt64(mentions)),
			})
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("entity_centrality: %w", err)
	}
	return res.([]EntityMention), nil
}

// Neighborhood is the {neighbor_count, density} pair returned by
// StrategicNeighborhood (§4.2).
type Neighborhood struct {
	NeighborCount int
	Density       float64
}

// StrategicNeighborhood returns {neighbor_count, density = neighbors /
// this_title_entity_count} for titleID.
func (c *Client) StrategicNeighborhood(ctx context.Context, titleID string, days int) (Neighborhood, error) {
	res, err := c.withRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (t:Title {id: $id})-[:HAS_ENTITY]->(e:Entity)
			WITH t, count(DISTINCT e) AS entity_count
			OPTIONAL MATCH (t)-[:HAS_ENTITY]->(:Entity)<-[:HAS_ENTITY]-(other:Title)
			WHERE other.id <> $id AND other.verdict = 'strategic' AND other.published_at >= $since
			RETURN entity_count, count(DISTINCT other) AS neighbor_count
		`, map[string]any{"id": titleID, "since": recentWindow(days)})
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return Neighborhood{}, nil //nolint:nilerr // no matching title: density is undefined, treat as zero
		}
		entityCount, _ := record.Get("entity_count")
		neighborCount, _ := record.Get("neighbor_count")
		ec := toInt64(entityCount)
		nc := toInt64(neighborCount)
		density := 0.0
		if ec > 0 {
			density = float64(nc) / float64(ec)
		}
		return Neighborhood{NeighborCount: int(nc), Density: density}, nil
	})
	if err != nil {
		return Neighborhood{}, fmt.Errorf("strategic_neighborhood: %w", err)
	}
	return res.(Neighborhood), nil
}

// OngoingEvent reports whether any entity on titleID participates in a
// temporal sequence of >= minSequenceLength strategic mentions within the
// window (§4.2). A "sequence" is approximated here as the raw strategic
// mention count per entity, ordered by time — sufficient to answer the
// boolean question the spec asks for without materializing timeline state.
func (c *Client) OngoingEvent(ctx context.Context, titleID string, minSequenceLength, days int) (bool, error) {
	res, err := c.withRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (t:Title {id: $id})-[:HAS_ENTITY]->(e:Entity)
			MATCH (e)<-[:HAS_ENTITY]-(mention:Title)
			WHERE mention.verdict = 'strategic' AND mention.published_at >= $since
			WITH e, count(DISTINCT mention) AS sequence_length
			WHERE sequence_length >= $min_len
			RETURN count(e) AS qualifying
		`, map[string]any{"id": titleID, "since": recentWindow(days), "min_len": minSequenceLength})
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return false, nil //nolint:nilerr
		}
		qualifying, _ := record.Get("qualifying")
		return toInt64(qualifying) > 0, nil
	})
	if err != nil {
		return false, fmt.Errorf("ongoing_event: %w", err)
	}
	return res.(bool), nil
}

// RawPair is a cheap raw-count pair of unassigned strategic titles sharing
// >= minShared entities, handed to C3's driver-side Jaccard computation
// (§4.3 step 1 — "the graph contributes only cheap raw counts").
type RawPair struct {
	TitleA      string
	TitleB      string
	SharedCount int
}

// UnassignedStrategicPairs fetches every pair of strategic titles (ordered,
// lower id first) sharing >= minShared entities, capped at limit (§4.3
// step 1). The graph does not track EF assignment (only C1/Postgres does,
// §3 Ownership), so "unassigned" filtering happens in the C3 driver by
// joining this result against C1's unassigned-strategic set (§4.3 step 2).
func (c *Client) UnassignedStrategicPairs(ctx context.Context, minShared, limit int) ([]RawPair, error) {
	res, err := c.withRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (a:Title)-[:HAS_ENTITY]->(e:Entity)<-[:HAS_ENTITY]-(b:Title)
			WHERE a.verdict = 'strategic' AND b.verdict = 'strategic'
				AND a.id < b.id
			WITH a.id AS title_a, b.id AS title_b, count(DISTINCT e) AS shared
			WHERE shared >= $min_shared
			RETURN title_a, title_b, shared
			LIMIT $limit
		`, map[string]any{"min_shared": minShared, "limit": limit})
		if err != nil {
			return nil, err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]RawPair, 0, len(records))
		for _, r := range records {
			a, _ := r.Get("title_a")
			b, _ := r.Get("title_b")
			shared, _ := r.Get("shared")
			out = append(out, RawPair{
				TitleA:      fmt.Sprint(a),
				TitleB:      fmt.Sprint(b),
				SharedCount: int(toInt64(shared)),
			})
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("unassigned_strategic_pairs: %w", err)
	}
	return res.([]RawPair), nil
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}
