package events

import "time"

// OverlayDTO es el mensaje que viaja por el bus hasta el overlay.
type OverlayDTO struct {
	Type      string         `json:"type"`
	Data      map[string]any `json:"data"`
	Timestamp string         `json:"timestamp"`
}

func NewOverlayDTO(kind string, payload map[string]any) OverlayDTO {
	if payload == nil {
		payload = map[string]any{}
	}
	return OverlayDTO{
		Type:      kind,
		Data:      payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}
