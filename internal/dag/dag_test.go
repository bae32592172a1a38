package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_AddEdge(t *testing.T) {
	g := NewGraph[string]()
	g.AddNode("user", "User")
	g.AddNode("post", "Post")

	require.NoError(t, g.AddEdge("user", "post"))
	require.NoError(t, g.AddEdge("user", "post"), "duplicate edges are ignored")
	assert.Equal(t, []string{"user"}, g.Parents("post"))

	assert.Error(t, g.AddEdge("missing", "post"))
	assert.Error(t, g.AddEdge("user", "missing"))
	assert.Error(t, g.AddEdge("user", "user"))
}

func TestGraph_AddNodeReplacesData(t *testing.T) {
	g := NewGraph[int]()
	g.AddNode("a", 1)
	g.AddNode("a", 2)
	assert.Equal(t, 1, g.Len())

	order, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []int{2}, order)
}

func TestGraph_TopologicalSort(t *testing.T) {
	tests := []struct {
		name  string
		nodes []string
		edges [][2]string
		want  []string
	}{
		{
			name:  "independent nodes are lexical",
			nodes: []string{"c", "a", "b"},
			want:  []string{"a", "b", "c"},
		},
		{
			name:  "dependency before dependent",
			nodes: []string{"comment", "post", "user"},
			edges: [][2]string{{"user", "post"}, {"post", "comment"}, {"user", "comment"}},
			want:  []string{"user", "post", "comment"},
		},
		{
			name:  "diamond",
			nodes: []string{"a", "b", "c", "d"},
			edges: [][2]string{{"d", "b"}, {"d", "c"}, {"b", "a"}, {"c", "a"}},
			want:  []string{"d", "b", "c", "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGraph[string]()
			for _, n := range tt.nodes {
				g.AddNode(n, n)
			}
			for _, e := range tt.edges {
				require.NoError(t, g.AddEdge(e[0], e[1]))
			}

			got, err := g.TopologicalSort()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGraph_Cycle(t *testing.T) {
	g := NewGraph[string]()
	for _, n := range []string{"a", "b", "c"} {
		g.AddNode(n, n)
	}
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("b", "c"))
	require.NoError(t, g.AddEdge("c", "a"))

	hasCycle, path := g.HasCycle()
	assert.True(t, hasCycle)
	assert.NotEmpty(t, path)

	_, err := g.TopologicalSort()
	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Contains(t, err.Error(), "cycle detected")
}
