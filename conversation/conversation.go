// Package conversation derives per-counterparty conversation summaries from
// the flat message log of one user.
package conversation

import (
	"fmt"
	"sort"

	"estate-service/model"
)

// Summary is the computed view of all messages exchanged with one counterparty.
type Summary struct {
	Counterparty model.User    `json:"user"`
	LastMessage  model.Message `json:"lastMessage"`
	UnreadCount  int           `json:"unreadCount"`
}

// summaries keeps counterparties in first-seen order with an id index on the side.
type summaries struct {
	items []Summary
	index map[uint]int
}

func newSummaries(capacity int) *summaries {
	return &summaries{
		items: make([]Summary, 0, capacity),
		index: make(map[uint]int, capacity),
	}
}

func (s *summaries) get(counterparty uint) (*Summary, bool) {
	i, ok := s.index[counterparty]
	if !ok {
		return nil, false
	}
	return &s.items[i], true
}

func (s *summaries) add(summary Summary) *Summary {
	s.index[summary.Counterparty.ID] = len(s.items)
	s.items = append(s.items, summary)
	return &s.items[len(s.items)-1]
}

// Aggregate groups the viewer's messages by counterparty.
//
// messages must be sorted by creation time descending (id descending on
// ties): the first message met for a counterparty becomes its last message
// and is never replaced. Summaries come out in first-seen order.
func Aggregate(messages []model.Message, viewer uint) ([]Summary, error) {
	grouped := newSummaries(len(messages))

	for _, message := range messages {
		counterparty, err := counterpartyOf(message, viewer)
		if err != nil {
			return nil, err
		}

		summary, ok := grouped.get(counterparty.ID)
		if !ok {
			summary = grouped.add(Summary{Counterparty: counterparty, LastMessage: message})
		}

		if unreadBy(message, viewer) {
			summary.UnreadCount++
		}
	}

	return grouped.items, nil
}

// AggregateLatest is Aggregate without the ordering precondition: the last
// message is the maximum by (CreatedAt, ID), and summaries are ordered by
// their last message, newest first.
func AggregateLatest(messages []model.Message, viewer uint) ([]Summary, error) {
	grouped := newSummaries(len(messages))

	for _, message := range messages {
		counterparty, err := counterpartyOf(message, viewer)
		if err != nil {
			return nil, err
		}

		summary, ok := grouped.get(counterparty.ID)
		if !ok {
			summary = grouped.add(Summary{Counterparty: counterparty, LastMessage: message})
		} else if newer(message, summary.LastMessage) {
			summary.LastMessage = message
			summary.Counterparty = counterparty
		}

		if unreadBy(message, viewer) {
			summary.UnreadCount++
		}
	}

	items := grouped.items
	sort.SliceStable(items, func(i, j int) bool {
		return newer(items[i].LastMessage, items[j].LastMessage)
	})
	return items, nil
}

func counterpartyOf(message model.Message, viewer uint) (model.User, error) {
	if err := message.Validate(); err != nil {
		return model.User{}, err
	}

	var user model.User
	switch viewer {
	case message.SenderID:
		user = message.Receiver
		user.ID = message.ReceiverID
	case message.ReceiverID:
		user = message.Sender
		user.ID = message.SenderID
	default:
		return model.User{}, fmt.Errorf("%w: message %d does not involve user %d", model.ErrInvalidRecord, message.ID, viewer)
	}
	return user, nil
}

func unreadBy(message model.Message, viewer uint) bool {
	return message.ReceiverID == viewer && !message.Read
}

func newer(a, b model.Message) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID > b.ID
	}
	return a.CreatedAt.After(b.CreatedAt)
}
