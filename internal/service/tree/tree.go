package tree

import (
	"fmt"
	"strings"

	"github.com/mamadaliyev66/CAM-APP/internal/app_errors"
	"github.com/mamadaliyev66/CAM-APP/internal/models"
)

type QueryKind string

const (
	QueryLevels  QueryKind = "levels"
	QueryLessons QueryKind = "lessons"
)

// Query describes the live query that feeds a dynamic branch.
type Query struct {
	Kind       QueryKind `json:"kind"`
	Collection string    `json:"collection"`
	OrderBy    string    `json:"orderBy"`
	Ascending  bool      `json:"ascending"`
}

// Branch is either a StaticBranch or a DynamicBranch.
type Branch interface {
	Children() []string
	isBranch()
}

// StaticBranch children are known without a backend round-trip.
type StaticBranch struct {
	Nodes []Node
}

func (b StaticBranch) Children() []string {
	ids := make([]string, 0, len(b.Nodes))
	for _, n := range b.Nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

func (StaticBranch) isBranch() {}

// DynamicBranch children come from a live subscription described by Query.
type DynamicBranch struct {
	Query     Query
	Suggested []string
}

func (DynamicBranch) Children() []string {
	return []string{}
}

func (DynamicBranch) isBranch() {}

type Tree struct {
	categories []category
}

func New() *Tree {
	return &Tree{categories: defaultCatalog()}
}

// Resolve maps user selections to a canonical ContentPath. Category names are
// lower-cased and static levels are matched by ID or title, ignoring case.
func (t *Tree) Resolve(selections ...string) (ContentPath, error) {
	if len(selections) == 0 {
		return nil, fmt.Errorf("%w: no selections", app_errors.ErrInvalidSelection)
	}
	segments := make([]string, len(selections))
	for i, s := range selections {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, fmt.Errorf("%w: segment %d is empty", app_errors.ErrInvalidSelection, i)
		}
		if strings.Contains(s, "/") {
			return nil, fmt.Errorf("%w: segment %q contains '/'", app_errors.ErrInvalidSelection, s)
		}
		segments[i] = s
	}

	cat, ok := t.category(segments[0])
	if !ok {
		return nil, fmt.Errorf("%w: unknown category %q", app_errors.ErrInvalidSelection, segments[0])
	}
	if len(segments) > cat.leafDepth {
		return nil, fmt.Errorf("%w: %q has no level below %q", app_errors.ErrInvalidSelection, cat.ID, segments[cat.leafDepth-1])
	}

	path := ContentPath{cat.ID}
	if cat.dynamic {
		return append(path, segments[1:]...), nil
	}

	children := cat.Children
	for _, seg := range segments[1:] {
		node, ok := find(children, seg)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a child of %q", app_errors.ErrInvalidSelection, seg, path.Key())
		}
		path = append(path, node.ID)
		children = node.Children
	}
	return path, nil
}

// ChildrenOf returns the branch below path. The empty path lists categories.
// Lesson collections and the grammar category are dynamic.
func (t *Tree) ChildrenOf(path ContentPath) (Branch, error) {
	if len(path) == 0 {
		nodes := make([]Node, 0, len(t.categories))
		for _, c := range t.categories {
			nodes = append(nodes, Node{ID: c.ID, Title: c.Title})
		}
		return StaticBranch{Nodes: nodes}, nil
	}

	resolved, err := t.Resolve(path...)
	if err != nil {
		return nil, err
	}
	cat, _ := t.category(resolved.Category())

	if len(resolved) == cat.leafDepth {
		collection, err := t.CollectionPath(resolved)
		if err != nil {
			return nil, err
		}
		return DynamicBranch{Query: Query{
			Kind:       QueryLessons,
			Collection: collection,
			OrderBy:    models.FieldCreatedAt,
			Ascending:  true,
		}}, nil
	}

	if cat.dynamic {
		return DynamicBranch{
			Query: Query{
				Kind:       QueryLevels,
				Collection: MaterialsCollection(cat.ID),
				OrderBy:    models.FieldCreatedAt,
				Ascending:  true,
			},
			Suggested: append([]string(nil), cat.suggested...),
		}, nil
	}

	children := cat.Children
	for _, seg := range resolved[1:] {
		node, _ := find(children, seg)
		children = node.Children
	}
	return StaticBranch{Nodes: append([]Node(nil), children...)}, nil
}

// IsCollection reports whether path addresses a lesson collection.
func (t *Tree) IsCollection(path ContentPath) bool {
	resolved, err := t.Resolve(path...)
	if err != nil {
		return false
	}
	cat, _ := t.category(resolved.Category())
	return len(resolved) == cat.leafDepth
}

// CollectionPath maps a lesson-collection path to its storage location,
// e.g. ielts/IELTS READING/Passage 1 -> ieltsMaterials/Reading Passage 1/lessons.
func (t *Tree) CollectionPath(path ContentPath) (string, error) {
	resolved, err := t.Resolve(path...)
	if err != nil {
		return "", err
	}
	cat, _ := t.category(resolved.Category())
	if len(resolved) != cat.leafDepth {
		return "", fmt.Errorf("%w: %q is not a lesson collection", app_errors.ErrInvalidSelection, resolved.Key())
	}
	if cat.dynamic {
		return LessonsCollection(cat.ID, resolved[len(resolved)-1]), nil
	}

	var leaf Node
	children := cat.Children
	for _, seg := range resolved[1:] {
		leaf, _ = find(children, seg)
		children = leaf.Children
	}
	return LessonsCollection(cat.ID, leaf.Title), nil
}

// LevelsRoot is the materials collection a dynamic category lists levels from.
func (t *Tree) LevelsRoot(path ContentPath) (string, error) {
	branch, err := t.ChildrenOf(path)
	if err != nil {
		return "", err
	}
	dyn, ok := branch.(DynamicBranch)
	if !ok || dyn.Query.Kind != QueryLevels {
		return "", fmt.Errorf("%w: %q has no server-driven levels", app_errors.ErrInvalidSelection, path.Key())
	}
	return dyn.Query.Collection, nil
}

func (t *Tree) category(name string) (category, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range t.categories {
		if c.ID == name {
			return c, true
		}
	}
	return category{}, false
}

func find(nodes []Node, selection string) (Node, bool) {
	for _, n := range nodes {
		if strings.EqualFold(n.ID, selection) || strings.EqualFold(n.Title, selection) {
			return n, true
		}
	}
	return Node{}, false
}
