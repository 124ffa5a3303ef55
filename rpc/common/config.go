package common

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Shard configuration
// --------------------------------------------------------------------------

type ServerShardType string

const (
	ShardTypeMemory ServerShardType = "memory" // lstore
	ShardTypePebble ServerShardType = "pebble" // sstore over pebble
	ShardTypeBolt   ServerShardType = "bolt"   // sstore over bolt
	ShardTypeBTree  ServerShardType = "btree"  // sstore over an in-memory btree
)

// IsPersistent reports whether shards of this type store their data in the data directory
func (t ServerShardType) IsPersistent() bool {
	return t == ShardTypePebble || t == ShardTypeBolt
}

type ServerShard struct {
	// ShardID is the ID of the shard
	ShardID uint64
	// Type selects the store backend of the shard
	Type ServerShardType
}

// ParseShards parses a comma separated list of "<id>=<type>" entries, e.g. "100=memory,200=pebble".
// An entry without type defaults to memory.
func ParseShards(s string) ([]ServerShard, error) {
	var shards []ServerShard
	seen := map[uint64]bool{}
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		idStr, typeStr, found := strings.Cut(entry, "=")
		id, err := strconv.ParseUint(strings.TrimSpace(idStr), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid shard id %q: %w", idStr, err)
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate shard id %d", id)
		}
		seen[id] = true

		shardType := ShardTypeMemory
		if found {
			shardType = ServerShardType(strings.ToLower(strings.TrimSpace(typeStr)))
		}
		switch shardType {
		case ShardTypeMemory, ShardTypePebble, ShardTypeBolt, ShardTypeBTree:
		default:
			return nil, fmt.Errorf("invalid shard type %q for shard %d: must be one of memory, pebble, bolt, btree", typeStr, id)
		}
		shards = append(shards, ServerShard{ShardID: id, Type: shardType})
	}
	if len(shards) == 0 {
		return nil, fmt.Errorf("no shards configured")
	}
	return shards, nil
}

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// ServerTransportConfig holds the settings of the server side transport
type ServerTransportConfig struct {
	Endpoint        string // host:port, or the socket path for the unix transport
	WorkersPerConn  int    // Maximum concurrent requests per connection
	BufferSize      int    // Initial size of pooled frame buffers
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int // Negative = OS default
	WriteBufferSize int // 0 = OS default
	ReadBufferSize  int // 0 = OS default
}

// LogConfig holds the logging configuration
type LogConfig struct {
	Level      string // debug, info, warn, error
	Encoding   string // console or json
	File       string // Empty = stderr
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// ServerConfig holds all configuration parameters of a server.
type ServerConfig struct {
	Shards []ServerShard

	// Storage
	DataDir string
	NoSync  bool

	TimeoutSecond int64

	Transport ServerTransportConfig
	Log       LogConfig

	// Metrics enables the instrumented store wrapper and the /metrics endpoint
	Metrics bool
}

// HasPersistentShard checks if the configuration contains any shard that writes to the data directory
func (c *ServerConfig) HasPersistentShard() bool {
	for _, shard := range c.Shards {
		if shard.Type.IsPersistent() {
			return true
		}
	}
	return false
}

// ShardDir returns the directory (or file) of a persistent shard
func (c *ServerConfig) ShardDir(shardId uint64) string {
	return filepath.Join(c.DataDir, fmt.Sprintf("shard-%d", shardId))
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	addSection, addField := formatHelpers(&sb)

	// RPC settings
	addSection("RPC Server")
	addField("Endpoint", c.Transport.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Workers Per Conn", strconv.Itoa(c.Transport.WorkersPerConn))
	addField("Metrics", strconv.FormatBool(c.Metrics))

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.Log.Level)
	addField("Log Encoding", c.Log.Encoding)
	if c.Log.File != "" {
		addField("Log File", c.Log.File)
		addField("Rotation", fmt.Sprintf("%d MB, %d backups, %d days", c.Log.MaxSizeMB, c.Log.MaxBackups, c.Log.MaxAgeDays))
	}

	// Shards (sorted for consistent output)
	addSection("Shards")
	shards := append([]ServerShard(nil), c.Shards...)
	sort.Slice(shards, func(i, j int) bool { return shards[i].ShardID < shards[j].ShardID })
	for _, shard := range shards {
		addField(strconv.FormatUint(shard.ShardID, 10), string(shard.Type))
	}

	if c.HasPersistentShard() {
		addSection("Storage")
		addField("Data Directory", c.DataDir)
		addField("Sync Writes", strconv.FormatBool(!c.NoSync))
	}
	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientTransportConfig holds the settings of the client side transport
type ClientTransportConfig struct {
	Endpoints              []string
	RetryCount             int
	ConnectionsPerEndpoint int
	TCPNoDelay             bool
	TCPKeepAliveSec        int
	WriteBufferSize        int
	ReadBufferSize         int
}

type ClientConfig struct {
	TimeoutSecond int
	Transport     ClientTransportConfig
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection, addField := formatHelpers(&sb)

	// General Client Settings
	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.Transport.RetryCount))
	addField("Connections Per Endpoint", strconv.Itoa(max(1, c.Transport.ConnectionsPerEndpoint)))

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Transport.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}

// formatHelpers returns helper functions for consistent formatting
func formatHelpers(sb *strings.Builder) (func(string), func(string, string)) {
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}
	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-24s: %s\n", name, value))
	}
	return addSection, addField
}
