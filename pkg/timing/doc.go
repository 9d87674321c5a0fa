// Package timing normalizes raw live-timing feed events into lap records.
//
// A feed event is a flat JSON object whose keys embed an opaque per-driver id
// (for example "r_data_17") and whose values are HTML fragments. The package
// locates a driver's id from a display name, extracts the current lap and lap
// times from whichever fragment family carries them, and decides whether a
// record is new enough to publish.
//
// Everything here is pure: no I/O, no goroutines, no shared state.
package timing
