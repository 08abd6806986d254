package api

type IdMessage interface {
	GetId() string
}

type General struct {
	Error      bool   `json:"error"`
	Msg        string `json:"msg"`
	StatusCode int    `json:"statusCode"`
}

// WsMessage is the envelope for every websocket frame exchanged with a page.
type WsMessage struct {
	Id    string `json:"id,omitempty"`
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

func (m *WsMessage) GetId() string {
	return m.Id
}

// Marker mirrors dto.AdMarker on the wire.
type Marker struct {
	StartPercent float64 `json:"startPercent"`
	WidthPercent float64 `json:"widthPercent"`
}

// SeekData carries the target position of a seek command.
type SeekData struct {
	Seconds float64 `json:"seconds"`
}

// NoticeData carries the countdown of the cancellable pre-skip notice.
type NoticeData struct {
	SecondsLeft float64 `json:"secondsLeft"`
}

// VisibleData toggles an affordance on the page.
type VisibleData struct {
	Visible bool `json:"visible"`
}
