package domain

const (
	EventNameChatCommand   = "chat.command"
	EventNameQuizCompleted = "chat.quiz_completed"
	EventNameWishAdded     = "wish.added"
)

// EventChatCommand is published when a recognized free-text command runs.
type EventChatCommand struct {
	Command string
}

func (EventChatCommand) Name() string { return EventNameChatCommand }

// EventQuizCompleted is published when a user answers the last quiz question.
type EventQuizCompleted struct {
	Username string
	Score    int
	Total    int
}

func (EventQuizCompleted) Name() string { return EventNameQuizCompleted }

type EventWishAdded struct {
	Author string
}

func (EventWishAdded) Name() string { return EventNameWishAdded }
