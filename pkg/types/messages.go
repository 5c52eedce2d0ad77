package types

// Client -> Server over the chat socket. The server echoes an inbound
// chat_message frame back to every member of the room, sender included.
type ChatSend struct {
	Type        string `json:"type"` // always "chat_message"
	RoomID      string `json:"room_id"`
	ClientMsgID string `json:"client_msg_id,omitempty"`
	Sender      string `json:"sender,omitempty"`
	Content     string `json:"content"`
}
