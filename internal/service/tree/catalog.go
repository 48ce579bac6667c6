package tree

import "fmt"

// Node is a statically known node of the catalog. ID is what clients select;
// Title is the display name and, for leaf collections, the storage key.
type Node struct {
	ID       string
	Title    string
	Children []Node
}

type category struct {
	Node
	// leafDepth is the depth at which paths of this category address a
	// lesson collection.
	leafDepth int
	// dynamic categories discover their levels from the backend.
	dynamic   bool
	suggested []string
}

func defaultCatalog() []category {
	return []category{
		{
			Node:      Node{ID: "grammar", Title: "Grammar"},
			leafDepth: DepthLevel,
			dynamic:   true,
			suggested: []string{
				"Beginner and Elementary",
				"Pre-Intermediate",
				"Intermediate",
				"Advanced",
			},
		},
		{
			Node: Node{ID: "ielts", Title: "IELTS", Children: []Node{
				level("IELTS LISTENING", numbered("Part", "Listening Part", 4)),
				level("IELTS READING", numbered("Passage", "Reading Passage", 3)),
				level("IELTS SPEAKING", numbered("Part", "Speaking Part", 3)),
				level("IELTS WRITING", numbered("Task", "Writing Task", 2)),
			}},
			leafDepth: DepthSubLevel,
		},
		{
			Node: Node{ID: "multilevel", Title: "Multilevel", Children: []Node{
				level("MULTI LEVEL LISTENING", numbered("Part", "Listening Part", 6)),
				level("MULTI LEVEL READING", numbered("Passage", "Reading Passage", 5)),
				level("MULTI LEVEL SPEAKING", numbered("Part", "Speaking Part", 3)),
				level("MULTI LEVEL WRITING", numbered("Task", "Writing Task", 3)),
			}},
			leafDepth: DepthSubLevel,
		},
	}
}

func level(name string, children []Node) Node {
	return Node{ID: name, Title: name, Children: children}
}

func numbered(idPrefix, titlePrefix string, n int) []Node {
	nodes := make([]Node, 0, n)
	for i := 1; i <= n; i++ {
		nodes = append(nodes, Node{
			ID:    fmt.Sprintf("%s %d", idPrefix, i),
			Title: fmt.Sprintf("%s %d", titlePrefix, i),
		})
	}
	return nodes
}
