// Package cluster defines the typed snapshot returned by the remote
// FailoverClusters collector and the parser that turns the raw collector
// output into it.
package cluster

// Snapshot is one complete observation of cluster state. It is immutable
// once parsed; evaluation never mutates it.
type Snapshot struct {
	Nodes     []Node     `json:"nodes"`
	Groups    []Group    `json:"groups"`
	Resources []Resource `json:"resources"`
	Quorum    Quorum     `json:"quorum"`
	Events    []Event    `json:"events"`
}

// Node is a cluster member and its liveness state.
type Node struct {
	Name  string `json:"Name"`
	State string `json:"State"`
}

// Group is a logical service group and its current owning node.
type Group struct {
	Name      string `json:"Name"`
	State     string `json:"State"`
	OwnerNode string `json:"OwnerNode"`
}

// Resource is a leaf resource bound to a group. OwnerGroup references a
// group by name only; no referential integrity is assumed.
type Resource struct {
	Name       string `json:"Name"`
	State      string `json:"State"`
	OwnerGroup string `json:"OwnerGroup"`
}

// Quorum is informative only and never affects status. The collector may
// omit it entirely.
type Quorum struct {
	Type     string `json:"type"`
	Resource string `json:"resource"`
}

// Event is a failover-related log entry inside the configured look-back
// window. Filtering happens on the collector side.
type Event struct {
	ID   int    `json:"Id"`
	Time string `json:"Time"`
}
