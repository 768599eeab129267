package match

import (
	_ "embed"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed adjacency.yaml
var adjacencyYAML []byte

var adjacency = loadAdjacency()

func loadAdjacency() map[string][]string {
	table := map[string][]string{}
	if err := yaml.Unmarshal(adjacencyYAML, &table); err != nil {
		zap.L().Warn("adjacency table failed to parse, geo expansion disabled", zap.Error(err))
		return map[string][]string{}
	}
	return table
}

// AdjacentDepartments returns the neighbors of a department code, in table
// order. Overseas departments have none.
func AdjacentDepartments(dept string) []string {
	return adjacency[dept]
}
