package router

import (
	"log"
	"strconv"

	"estate-service/controller"
	"estate-service/conversation"
	"estate-service/database"
	"estate-service/model"
	"estate-service/socketio"
	"estate-service/utils"

	"github.com/zishang520/socket.io/v2/socket"
)

type ConversationListItem struct {
	conversation.Summary
	Online bool `json:"online"`
}

type SocketError struct {
	Message string `json:"message"`
}

// socketActor resolves the user behind an authenticated socket.
func socketActor(client *socket.Socket) (model.User, bool) {
	user := model.User{}

	claims, ok := client.Data().(*utils.TokenMetadata)
	if !ok {
		return user, false
	}
	id, err := claims.UserID()
	if err != nil {
		return user, false
	}
	if err := database.Postgres.First(&user, id).Error; err != nil {
		return user, false
	}
	return user, true
}

// ConversationList decorates the viewer's conversations with each
// counterparty's presence.
func ConversationList(viewer uint, online func(string) bool) ([]ConversationListItem, error) {
	summaries, err := controller.LoadConversations(viewer)
	if err != nil {
		return nil, err
	}

	items := make([]ConversationListItem, 0, len(summaries))
	for _, summary := range summaries {
		items = append(items, ConversationListItem{
			Summary: summary,
			Online:  online(strconv.FormatUint(uint64(summary.Counterparty.ID), 10)),
		})
	}
	return items, nil
}

func Socket(server *socket.Server) {
	server.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)

		conversations := func(name string) {
			actor, ok := socketActor(client)
			if !ok {
				client.Emit(name, SocketError{Message: "Unauthorized"})
				return
			}

			items, err := ConversationList(actor.ID, socketio.Online)
			if err != nil {
				log.Printf("socket %s: %v", name, err)
				client.Emit(name, SocketError{Message: "Internal server error"})
				return
			}
			client.Emit(name, items)
		}

		client.On("init", func(args ...any) {
			conversations("init")
		})

		client.On("conversation_list", func(args ...any) {
			conversations("conversation_list")
		})

		client.On("message_read", func(args ...any) {
			actor, ok := socketActor(client)
			if !ok || len(args) == 0 {
				return
			}

			id, err := messageID(args[0])
			if err != nil {
				client.Emit("message_read", SocketError{Message: "Invalid id"})
				return
			}

			if _, err := controller.MarkMessageRead(actor, id); err != nil {
				log.Printf("socket message_read: %v", err)
				client.Emit("message_read", SocketError{Message: "Not allowed"})
			}
		})
	})
}

// messageID accepts the id as a JSON number or a string.
func messageID(arg any) (uint, error) {
	switch v := arg.(type) {
	case float64:
		if v > 0 {
			return uint(v), nil
		}
	case string:
		id, err := strconv.ParseUint(v, 10, 64)
		if err == nil && id > 0 {
			return uint(id), nil
		}
	}
	return 0, strconv.ErrSyntax
}
