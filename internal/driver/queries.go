package driver

import "fmt"

const (
	ParentChunkLabel = "ParentChunk"
	ChildChunkLabel  = "ChildChunk"
	ParentChunkIndex = "parent_chunks"
)

var IndexQueries = []string{
	"CREATE INDEX parent_chunk_id IF NOT EXISTS FOR (n:ParentChunk) ON (n.id)",
	"CREATE INDEX child_chunk_id IF NOT EXISTS FOR (n:ChildChunk) ON (n.id)",
	"CREATE INDEX parent_chunk_source IF NOT EXISTS FOR (n:ParentChunk) ON (n.source)",
}

const (
	SaveParentChunksQuery = `
		UNWIND $rows AS row
		CREATE (c:ParentChunk {id: row.id})
		SET c.text = row.text,
			c.source = row.source,
			c.title = row.title,
			c.chunk_index = row.index,
			c.embedding = row.embedding
		RETURN count(c) AS count
	`

	SaveChildChunksQuery = `
		UNWIND $rows AS row
		MATCH (pc:ParentChunk {id: row.parent_id})
		CREATE (c:ChildChunk {id: row.id})
		SET c.text = row.text,
			c.source = row.source,
			c.chunk_index = row.index
		CREATE (c)-[:CHILD_OF]->(pc)
		RETURN count(c) AS count
	`

	MergeEntitiesQuery = `
		UNWIND $rows AS row
		CALL apoc.merge.node([row.type], {id: row.id}) YIELD node
		RETURN count(node) AS count
	`

	MergeRelationshipsQuery = `
		UNWIND $rows AS row
		CALL apoc.merge.node([row.source_type], {id: row.source_id}) YIELD node AS source
		CALL apoc.merge.node([row.target_type], {id: row.target_id}) YIELD node AS target
		CALL apoc.merge.relationship(source, row.type, {}, {}, target) YIELD rel
		RETURN count(rel) AS count
	`

	VectorSearchQuery = `
		CALL db.index.vector.queryNodes($index_name, $k, $embedding)
		YIELD node, score
		RETURN node.text AS text,
			node.id AS id,
			node.source AS source,
			node.title AS title,
			node.chunk_index AS chunk_index,
			score
		ORDER BY score DESC
	`

	CheckAPOCQuery = `
		SHOW PROCEDURES YIELD name
		WHERE name IN ['apoc.merge.node', 'apoc.merge.relationship']
		RETURN count(name) AS count
	`
)

// VectorIndexQuery builds the index DDL; Cypher does not accept parameters in index options.
func VectorIndexQuery(dimensions int) string {
	return fmt.Sprintf("CREATE VECTOR INDEX %s IF NOT EXISTS FOR (n:%s) ON (n.embedding) "+
		"OPTIONS {indexConfig: {`vector.dimensions`: %d, `vector.similarity_function`: 'cosine'}}",
		ParentChunkIndex, ParentChunkLabel, dimensions)
}

// Float64s converts an embedding for use as a query parameter; Bolt carries floats as 64-bit values.
func Float64s(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}
