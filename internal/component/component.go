package component

import (
	"fmt"
	"strings"
)

// Type is the kind of a node in the component tree.
// Types are ordered from the root (Project) down to the leaves (File).
type Type int

const (
	Project Type = iota + 1
	Module
	Directory
	File
)

// String returns the upper-case name used in reports and logs.
func (t Type) String() string {
	switch t {
	case Project:
		return "PROJECT"
	case Module:
		return "MODULE"
	case Directory:
		return "DIRECTORY"
	case File:
		return "FILE"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// IsLeaf reports whether components of this type never have children.
func (t Type) IsLeaf() bool {
	return t == File
}

// ParseType converts a type name (case-insensitive) to a Type.
func ParseType(s string) (Type, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PROJECT":
		return Project, nil
	case "MODULE":
		return Module, nil
	case "DIRECTORY", "DIR":
		return Directory, nil
	case "FILE":
		return File, nil
	default:
		return 0, fmt.Errorf("unknown component type %q", s)
	}
}

// Component is a node of the analyzed tree.
type Component struct {
	UUID     string
	Key      string
	Type     Type
	Children []*Component
}

// String returns the component key, which is what error messages refer to.
func (c *Component) String() string {
	return c.Key
}

// NewTree checks the structural rules of a tree rooted at root and returns it.
//
// Rules:
//   - root must be a Project
//   - a child's type is never above its parent's type
//   - files have no children
//   - UUIDs are non-empty and unique across the tree
func NewTree(root *Component) (*Component, error) {
	if root == nil {
		return nil, fmt.Errorf("tree root is nil")
	}
	if root.Type != Project {
		return nil, fmt.Errorf("tree root %q is %s, want %s", root.Key, root.Type, Project)
	}

	seen := make(map[string]string)
	var check func(c *Component) error
	check = func(c *Component) error {
		if c.UUID == "" {
			return fmt.Errorf("component %q has no uuid", c.Key)
		}
		if other, ok := seen[c.UUID]; ok {
			return fmt.Errorf("uuid %q shared by %q and %q", c.UUID, other, c.Key)
		}
		seen[c.UUID] = c.Key

		if c.Type.IsLeaf() && len(c.Children) > 0 {
			return fmt.Errorf("component %q is a %s and cannot have children", c.Key, c.Type)
		}
		for _, child := range c.Children {
			if child == nil {
				return fmt.Errorf("component %q has a nil child", c.Key)
			}
			if child.Type < c.Type {
				return fmt.Errorf("component %q (%s) cannot be a child of %q (%s)", child.Key, child.Type, c.Key, c.Type)
			}
			if err := check(child); err != nil {
				return err
			}
		}
		return nil
	}

	if err := check(root); err != nil {
		return nil, err
	}
	return root, nil
}

// Count returns the number of components in the tree rooted at c.
func (c *Component) Count() int {
	n := 1
	for _, child := range c.Children {
		n += child.Count()
	}
	return n
}
