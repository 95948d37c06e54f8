package session

// Status texts shown in place of the mode label.
const (
	TextConnectionError = "CONNECTION ERROR"
	TextCameraError     = "CAMERA ERROR"
)

// Status is the externally visible session state.
type Status struct {
	Connection  string `json:"connection"`
	Mode        string `json:"mode"`
	ModeText    string `json:"mode_text"`
	Shape       string `json:"shape,omitempty"`
	Drawing     string `json:"drawing"`
	CameraError string `json:"camera_error,omitempty"`
	HandVisible bool   `json:"hand_visible"`

	Segments   uint64 `json:"segments"`
	Packets    int64  `json:"packets"`
	Malformed  int64  `json:"malformed"`
	FramesSent int64  `json:"frames_sent"`
	Dropped    int64  `json:"dropped"`
}

// modeText picks the label for the mode display. A camera failure wins over
// a connection error, which holds until the next mode arrives.
func modeText(label string, connErr bool, camErr error) string {
	switch {
	case camErr != nil:
		return TextCameraError
	case connErr:
		return TextConnectionError
	}
	return label
}
