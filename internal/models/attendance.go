package models

// AttendanceAction is the outcome of an attendance toggle.
type AttendanceAction string

const (
	AttendanceJoined AttendanceAction = "joined"
	AttendanceLeft   AttendanceAction = "left"
)

// AttendanceResult is returned to the caller of a toggle.
type AttendanceResult struct {
	EventID   string           `json:"eventId"`
	Action    AttendanceAction `json:"action"`
	Attendees []UserRef        `json:"attendees"`
}
