// Package component models the analyzed component tree (project, modules,
// directories, files) and the depth-limited traversal used by analysis steps.
//
// A tree is built once per analysis run and never mutated afterwards. Steps
// visit it through Walk, which takes a Visitor describing how deep to go,
// in which order, and what to do on each node:
//
//	err := component.Walk(root, component.Visitor{
//	    Limit: component.Leaves,
//	    Order: component.PreOrder,
//	    Fn: func(c *component.Component) error {
//	        // process c
//	        return nil
//	    },
//	})
package component
