package models

import "time"

// Sender identifies who authored a chat message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// ChatMessage is an entry of the conversation log.
type ChatMessage struct {
	From      Sender    `json:"from"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatRequest struct {
	Message       string `json:"message"`
	WalletAddress string `json:"wallet_address,omitempty"`
}
