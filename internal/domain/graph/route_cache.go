package graph

// RouteCache memoizes Dijkstra results keyed by (start, end). The task
// planner clears it at the start of every invocation so cached entries can
// never outlive a traffic change; within one invocation lookups are the
// hot path (the planner issues O(tasks^2) shortest-path queries per
// expansion).
//
// A cache instance is owned by a single agent and is not safe for
// concurrent use.
type RouteCache struct {
	entries map[[2]int]*Route
}

// NewRouteCache creates an empty route cache
func NewRouteCache() *RouteCache {
	return &RouteCache{entries: make(map[[2]int]*Route)}
}

// ShortestPath returns the memoized route between two nodes, computing
// and caching it on a miss.
func (c *RouteCache) ShortestPath(g *Graph, from, to int, vehicleWeightKg float64) (*Route, error) {
	key := [2]int{from, to}
	if r, ok := c.entries[key]; ok {
		return r, nil
	}
	r, err := g.ShortestPath(from, to, vehicleWeightKg)
	if err != nil {
		return nil, err
	}
	c.entries[key] = r
	return r, nil
}

// Clear drops every entry
func (c *RouteCache) Clear() {
	c.entries = make(map[[2]int]*Route)
}

// Len returns the number of memoized routes
func (c *RouteCache) Len() int {
	return len(c.entries)
}
