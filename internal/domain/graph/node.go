package graph

// Node is a junction in the road network, identified by a positive integer.
// A node may carry several facility roles at once (a warehouse can share a
// node with a gas station).
type Node struct {
	ID int
	X  float64
	Y  float64

	IsWarehouse  bool
	IsSupplier   bool
	IsStore      bool
	IsGasStation bool
}

// HasFacility reports whether any facility role is assigned to this node
func (n *Node) HasFacility() bool {
	return n.IsWarehouse || n.IsSupplier || n.IsStore || n.IsGasStation
}
