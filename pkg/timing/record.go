package timing

// DriverID is the numeric identifier the provider embeds in event keys.
// It is only meaningful within the feed it was resolved from.
type DriverID string

// Fields holds the normalized values for one driver in one event.
// A nil pointer means the value was absent from every source.
type Fields struct {
	CurrentLap  *int
	LastLapTime *string
	BestLapTime *string
}

// LapRecord is the payload published to viewers on a lap change.
type LapRecord struct {
	DriverName  string  `json:"driverName"`
	CurrentLap  *int    `json:"currentLap"`
	LastLapTime *string `json:"lastLapTime"`
	BestLapTime *string `json:"bestLapTime"`
}

// NewLapRecord builds the record for driverName from resolved fields.
func NewLapRecord(driverName string, f Fields) LapRecord {
	return LapRecord{
		DriverName:  driverName,
		CurrentLap:  f.CurrentLap,
		LastLapTime: f.LastLapTime,
		BestLapTime: f.BestLapTime,
	}
}
