package constants

import "time"

// Redis keys
const (
	RedisKeyProfilePrefix = "profiles:"
	RedisKeyProfileIndex  = "profiles:index"
)

// Redis Pub/Sub channels
const (
	PubSubChannelDecisions      = "decisions:all"
	PubSubChannelRejections     = "decisions:rejected"
	PubSubChannelActionTemplate = "decisions:action:%s"
	PubSubPatternActions        = "decisions:action:*"
)

// ClickHouse
const (
	ClickHouseDecisionsTable = "pool_decisions"
)

// API limits
const (
	MaxRequestBodyBytes = 256 << 10
	MaxPayloadHexLen    = 64 << 10
	ValidateRatePerSec  = 20
	ValidateRateBurst   = 40
)

// Timeouts
const (
	AuditWriteTimeout = 3 * time.Second
	ShutdownTimeout   = 10 * time.Second
)
