package dedupe

import (
	"github.com/tidwall/gjson"

	"github.com/agenthands/docintel/internal/core/model"
)

// Nodes collapses nodes sharing the same (ID, Type) pair, keeping first-seen order.
// Nodes without an ID are dropped and a missing type becomes model.UnknownType.
// The same ID under two different types yields two nodes.
func Nodes(nodes []model.GraphNode) []model.GraphNode {
	seen := make(map[model.GraphNode]struct{}, len(nodes))
	out := make([]model.GraphNode, 0, len(nodes))
	for _, n := range nodes {
		if n.ID == "" {
			continue
		}
		if n.Type == "" {
			n.Type = model.UnknownType
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// NodeFromJSON reads an {id, type} object. ok is false when v is not an object or
// has no usable string id.
func NodeFromJSON(v gjson.Result) (model.GraphNode, bool) {
	if !v.IsObject() {
		return model.GraphNode{}, false
	}
	id := v.Get("id")
	if id.Type != gjson.String || id.Str == "" {
		return model.GraphNode{}, false
	}
	nodeType := model.UnknownType
	if t := v.Get("type"); t.Type == gjson.String && t.Str != "" {
		nodeType = t.Str
	}
	return model.GraphNode{ID: id.Str, Type: nodeType}, true
}

// RelationshipFromJSON validates one raw relationship. Relationships whose endpoints are
// not objects, lack an id, or that have no type are rejected as a whole.
func RelationshipFromJSON(v gjson.Result) (model.GraphRelationship, bool) {
	if !v.IsObject() {
		return model.GraphRelationship{}, false
	}
	source, ok := NodeFromJSON(v.Get("source"))
	if !ok {
		return model.GraphRelationship{}, false
	}
	target, ok := NodeFromJSON(v.Get("target"))
	if !ok {
		return model.GraphRelationship{}, false
	}
	relType := v.Get("type")
	if relType.Type != gjson.String || relType.Str == "" {
		return model.GraphRelationship{}, false
	}
	return model.GraphRelationship{Source: source, Target: target, Type: relType.Str}, true
}
