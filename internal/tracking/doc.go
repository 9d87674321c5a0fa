// Package tracking runs one live-timing session per viewer connection.
//
// A Session owns a feed subscription and the per-client State. It resolves
// the tracked driver in every feed event and publishes a lap record to the
// driver's group whenever the current lap changes. The Manager enforces one
// session per client and tears the previous session down before a new one
// subscribes.
package tracking
