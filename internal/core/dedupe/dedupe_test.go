package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"

	"github.com/agenthands/docintel/internal/core/model"
)

func TestNodes(t *testing.T) {
	in := []model.GraphNode{
		{ID: "National Insurance", Type: "Organization"},
		{ID: "Arogya Sanjeevani", Type: "Policy"},
		{ID: "National Insurance", Type: "Organization"},
		{ID: "National Insurance", Type: "Company"},
		{ID: "Grace Period", Type: ""},
		{ID: "Grace Period", Type: model.UnknownType},
		{ID: "", Type: "Policy"},
	}

	out := Nodes(in)

	assert.Equal(t, []model.GraphNode{
		{ID: "National Insurance", Type: "Organization"},
		{ID: "Arogya Sanjeevani", Type: "Policy"},
		{ID: "National Insurance", Type: "Company"},
		{ID: "Grace Period", Type: model.UnknownType},
	}, out)
}

func TestNodes_Idempotent(t *testing.T) {
	in := []model.GraphNode{
		{ID: "A", Type: "X"}, {ID: "B"}, {ID: "A", Type: "X"}, {ID: "A", Type: "Y"}, {ID: "B", Type: "Unknown"},
	}

	once := Nodes(in)
	twice := Nodes(once)

	assert.Equal(t, once, twice)
	assert.Len(t, once, 3)
}

func TestNodes_Empty(t *testing.T) {
	assert.Empty(t, Nodes(nil))
}

func TestNodeFromJSON(t *testing.T) {
	n, ok := NodeFromJSON(gjson.Parse(`{"id": "Alice", "type": "Person"}`))
	assert.True(t, ok)
	assert.Equal(t, model.GraphNode{ID: "Alice", Type: "Person"}, n)

	n, ok = NodeFromJSON(gjson.Parse(`{"id": "Alice", "type": null}`))
	assert.True(t, ok)
	assert.Equal(t, model.UnknownType, n.Type)

	_, ok = NodeFromJSON(gjson.Parse(`{"type": "Person"}`))
	assert.False(t, ok)

	_, ok = NodeFromJSON(gjson.Parse(`{"id": 7, "type": "Person"}`))
	assert.False(t, ok)

	_, ok = NodeFromJSON(gjson.Parse(`"Alice"`))
	assert.False(t, ok)
}

func TestRelationshipFromJSON(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		ok   bool
	}{
		{"valid", `{"source": {"id": "A", "type": "Person"}, "target": {"id": "B", "type": "Org"}, "type": "WORKS_AT"}`, true},
		{"missing source", `{"target": {"id": "B"}, "type": "WORKS_AT"}`, false},
		{"missing target", `{"source": {"id": "A"}, "type": "WORKS_AT"}`, false},
		{"missing type", `{"source": {"id": "A"}, "target": {"id": "B"}}`, false},
		{"empty type", `{"source": {"id": "A"}, "target": {"id": "B"}, "type": ""}`, false},
		{"string endpoint", `{"source": "A", "target": {"id": "B"}, "type": "KNOWS"}`, false},
		{"endpoint without id", `{"source": {"type": "Person"}, "target": {"id": "B"}, "type": "KNOWS"}`, false},
		{"not an object", `["A", "B"]`, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := RelationshipFromJSON(gjson.Parse(tc.raw))
			assert.Equal(t, tc.ok, ok)
		})
	}
}

func TestRelationshipFromJSON_UnknownEndpointTypes(t *testing.T) {
	rel, ok := RelationshipFromJSON(gjson.Parse(`{"source": {"id": "A"}, "target": {"id": "B", "type": ""}, "type": "KNOWS"}`))
	assert.True(t, ok)
	assert.Equal(t, model.GraphRelationship{
		Source: model.GraphNode{ID: "A", Type: model.UnknownType},
		Target: model.GraphNode{ID: "B", Type: model.UnknownType},
		Type:   "KNOWS",
	}, rel)
}
