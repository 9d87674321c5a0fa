package timing

// ShouldPublish reports whether f carries a current lap that differs from
// the last published one. Lap times never count as a change.
func ShouldPublish(last *int, f Fields) bool {
	if f.CurrentLap == nil {
		return false
	}
	return last == nil || *f.CurrentLap != *last
}
