package driver

// IndexQueries use Memgraph's index syntax.
var IndexQueries = []string{
	"CREATE INDEX ON :School(name);",
	"CREATE INDEX ON :Event(id);",
	"CREATE INDEX ON :Event(doc_id);",
	"CREATE INDEX ON :Tag(dimension);",
	"CREATE INDEX ON :Tag(name);",
	"CREATE INDEX ON :Name(entity_type);",
}

const (
	// SaveEventQuery expects $tags as a list of {dimension, name} maps.
	SaveEventQuery = `
		MERGE (e:Event {id: $id})
		SET e.doc_id = $doc_id,
			e.raw_span = $raw_span,
			e.product = $product,
			e.confidence = $confidence,
			e.agreement = $agreement,
			e.status = $status,
			e.occurrence_date = $occurrence_date
		FOREACH (_ IN CASE WHEN $school = '' THEN [] ELSE [1] END |
			MERGE (s:School {name: $school})
			MERGE (s)-[:HAS_EVENT]->(e)
		)
		WITH e
		UNWIND $tags AS tag
		MERGE (t:Tag {dimension: tag.dimension, name: tag.name})
		MERGE (e)-[:TAGGED]->(t)
		RETURN count(t) AS tagged
	`

	SaveTagQuery = `
		MERGE (t:Tag {dimension: $dimension, name: $name})
		SET t.id = $id,
			t.definition = $definition,
			t.status = $status,
			t.freq_7d = $freq_7d,
			t.distinct_schools = $distinct_schools,
			t.consistency_rate = $consistency_rate
		RETURN t.name AS name
	`

	SaveAliasQuery = `
		MERGE (c:Name {entity_type: $entity_type, name: $canonical})
		MERGE (a:Name {entity_type: $entity_type, name: $alias})
		MERGE (a)-[r:ALIAS_OF]->(c)
		SET r.status = $status,
			r.confidence = $confidence,
			r.freq = $freq
		RETURN a.name AS alias
	`

	SaveSuggestionQuery = `
		MATCH (a:Tag {dimension: $dimension, name: $tag})
		MATCH (b:Tag {dimension: $dimension, name: $target})
		MERGE (a)-[r:SIMILAR_TO]->(b)
		SET r.similarity = $similarity, r.source = $source
		RETURN a.name AS tag
	`
)
