package core

// --------------------------------------------------------------------------
// Cluster placeholders
// --------------------------------------------------------------------------

// ClusterShardRange describes which shard slice of the cluster a node
// serves. Sharding is future work; the only variant today is a node that
// serves everything. The zero value is the default.
type ClusterShardRange uint8

const (
	// ShardRangeSingleNode means this node holds the full key range.
	ShardRangeSingleNode ClusterShardRange = iota
)

// String returns the symbolic name of the shard range.
func (r ClusterShardRange) String() string {
	return "single-node"
}

// ReplicationStrategy describes how a keyspace is replicated across nodes.
// Replication is future work; the only variant today is no replication.
// The zero value is the default.
type ReplicationStrategy uint8

const (
	// ReplicationNone means a single copy on a single node, no replica sets.
	ReplicationNone ReplicationStrategy = iota
)

// String returns the symbolic name of the strategy.
func (s ReplicationStrategy) String() string {
	return "none"
}
