package listener

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"estate-service/event"
	"estate-service/socketio"
)

var (
	ApiChannel = make(chan event.EventChannelData)

	// push delivers a socket event to a user room.
	push = socketio.Emit
)

func Api() {
	for e := range ApiChannel {
		if err := Dispatch(e); err != nil {
			log.Printf("api listener: %v", err)
		}
	}
}

// Dispatch forwards message events to the sockets of the users concerned.
func Dispatch(e event.EventChannelData) error {
	if !e.Out.Send {
		return nil
	}

	switch e.Action {
	case event.MessageSent, event.MessageRead:
		payload := event.MessagePayload{}
		if err := json.Unmarshal(e.Data, &payload); err != nil {
			return fmt.Errorf("decode %s: %w", e.Action, err)
		}
		if e.Action == event.MessageSent {
			push(room(payload.ReceiverID), "message_new", payload)
		} else {
			push(room(payload.SenderID), "message_read", payload)
		}
	}
	return nil
}

func room(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10)
}
