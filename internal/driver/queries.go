package driver

// Cards are (:Card) nodes and relationships are [:RELATES_TO] edges. Both are scoped
// by group_id. Timestamps are stored as RFC 3339 strings and edge metadata as a JSON
// string.
const (
	SaveCardsQuery = `
		UNWIND $cards AS card
		MERGE (c:Card {uuid: card.uuid})
		SET c.group_id = card.group_id,
			c.title = card.title,
			c.body = card.body,
			c.tags = card.tags,
			c.type = card.type,
			c.created_at = card.created_at
		RETURN c.uuid AS uuid
	`

	ListCardsQuery = `
		MATCH (c:Card {group_id: $group_id})
		RETURN c.uuid AS uuid, c.group_id AS group_id, c.title AS title, c.body AS body,
			c.tags AS tags, c.type AS type, c.created_at AS created_at
		ORDER BY c.created_at, c.uuid
	`

	SaveRelationshipsQuery = `
		UNWIND $relationships AS rel
		MATCH (source:Card {uuid: rel.source_uuid})
		MATCH (target:Card {uuid: rel.target_uuid})
		MERGE (source)-[e:RELATES_TO {uuid: rel.uuid}]->(target)
		SET e.group_id = rel.group_id,
			e.type = rel.type,
			e.strength = rel.strength,
			e.confidence = rel.confidence,
			e.metadata = rel.metadata,
			e.created_at = rel.created_at,
			e.updated_at = rel.updated_at
		RETURN e.uuid AS uuid
	`

	ListRelationshipsQuery = `
		MATCH (source:Card)-[e:RELATES_TO]->(target:Card)
		WHERE $group_id = "" OR e.group_id = $group_id
		RETURN e.uuid AS uuid, e.group_id AS group_id, source.uuid AS source_uuid,
			target.uuid AS target_uuid, e.type AS type, e.strength AS strength,
			e.confidence AS confidence, e.metadata AS metadata,
			e.created_at AS created_at, e.updated_at AS updated_at
		ORDER BY e.created_at, e.uuid
	`

	DeleteRelationshipsQuery = `
		MATCH ()-[e:RELATES_TO]->()
		WHERE e.uuid IN $uuids
		WITH e, e.uuid AS uuid
		DELETE e
		RETURN uuid
	`
)
