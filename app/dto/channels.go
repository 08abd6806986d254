package dto

// PlayerChannelFormat is the pubsub channel carrying messages bound for one
// connected page, keyed by player id.
const PlayerChannelFormat = "player:%s"

// PlayerTimeChannelFormat is the pubsub channel carrying playback-time
// updates reported by one connected page, keyed by player id.
const PlayerTimeChannelFormat = "player_time:%s"
