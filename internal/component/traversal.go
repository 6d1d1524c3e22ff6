package component

// Order controls whether a node is visited before or after its children.
type Order int

const (
	PreOrder Order = iota
	PostOrder
)

// DepthLimit is the deepest component type a traversal descends to.
// Nodes whose type is below the limit are not visited.
type DepthLimit Type

// Leaves visits the whole tree down to files.
const Leaves = DepthLimit(File)

// Visitor describes a traversal. Fn is called once per visited node; a
// non-nil error stops the traversal and is returned by Walk unchanged.
type Visitor struct {
	Limit DepthLimit
	Order Order
	Fn    func(c *Component) error
}

// Walk traverses the tree rooted at root depth-first.
// Children are visited in slice order. A zero Limit means Leaves.
func Walk(root *Component, v Visitor) error {
	if root == nil || v.Fn == nil {
		return nil
	}
	limit := v.Limit
	if limit == 0 {
		limit = Leaves
	}
	return walk(root, limit, v.Order, v.Fn)
}

func walk(c *Component, limit DepthLimit, order Order, fn func(*Component) error) error {
	if c.Type > Type(limit) {
		return nil
	}

	if order == PreOrder {
		if err := fn(c); err != nil {
			return err
		}
	}

	for _, child := range c.Children {
		if err := walk(child, limit, order, fn); err != nil {
			return err
		}
	}

	if order == PostOrder {
		if err := fn(c); err != nil {
			return err
		}
	}
	return nil
}
