package tree

import "strings"

const (
	DepthCategory = 1
	DepthLevel    = 2
	DepthSubLevel = 3
)

// ContentPath addresses a node of the lesson hierarchy:
// category, level, sub-level.
type ContentPath []string

func (p ContentPath) Depth() int {
	return len(p)
}

func (p ContentPath) Category() string {
	if len(p) == 0 {
		return ""
	}
	return p[0]
}

// Key is the registry key of the path. Segments never contain "/".
func (p ContentPath) Key() string {
	return strings.Join(p, "/")
}

func (p ContentPath) String() string {
	return p.Key()
}

func (p ContentPath) Equal(other ContentPath) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Parent returns the path one level up; the root's parent is empty.
func (p ContentPath) Parent() ContentPath {
	if len(p) == 0 {
		return nil
	}
	return append(ContentPath(nil), p[:len(p)-1]...)
}

// ParseKey splits a key produced by Key back into segments.
func ParseKey(key string) ContentPath {
	key = strings.Trim(key, "/")
	if key == "" {
		return nil
	}
	return ContentPath(strings.Split(key, "/"))
}

// MaterialsCollection is the storage prefix of a category:
// grammarMaterials, ieltsMaterials, multilevelMaterials.
func MaterialsCollection(category string) string {
	return strings.ToLower(strings.TrimSpace(category)) + "Materials"
}

// LessonsCollection is the document collection holding the lessons of node.
func LessonsCollection(category, node string) string {
	return MaterialsCollection(category) + "/" + node + "/lessons"
}

// SplitCollection returns the materials root and node of a lessons
// collection path, or ok=false if the path has another shape.
func SplitCollection(collection string) (root, node string, ok bool) {
	parts := strings.Split(collection, "/")
	if len(parts) != 3 || parts[2] != "lessons" || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
