package model

// WSMessageType represents the type of WebSocket message
type WSMessageType string

const (
	MessageTypeScoutPass   WSMessageType = "scout_pass"
	MessageTypeJump        WSMessageType = "jump"
	MessageTypeCoinValues  WSMessageType = "coin_values"
	MessageTypeError       WSMessageType = "error"
	MessageTypeAuthSuccess WSMessageType = "auth_success"
	MessageTypePong        WSMessageType = "pong"
)

// WSMessage is the envelope for all WebSocket messages
type WSMessage struct {
	Type    WSMessageType `json:"type"`
	Payload interface{}   `json:"payload"`
}

// WSAuthRequest is sent by client to authenticate after connection
type WSAuthRequest struct {
	Token string `json:"token"`
}
