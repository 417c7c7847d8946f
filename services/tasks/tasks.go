package tasks

import (
	"github.com/hibiken/asynq"
)

// Background task types. All tasks are parameterless triggers; the handlers
// derive everything from the current date and the datastore.
const (
	TypeEventSync         = "event:sync"
	TypeFaqEmbed          = "faq:embed"
	TypeReminderSend      = "reminder:send"
	TypeScheduleBroadcast = "schedule:broadcast"
	TypeThankYouSend      = "thankyou:send"
)

func NewEventSyncTask() *asynq.Task {
	return asynq.NewTask(TypeEventSync, nil)
}

func NewFaqEmbedTask() *asynq.Task {
	return asynq.NewTask(TypeFaqEmbed, nil)
}

func NewReminderTask() *asynq.Task {
	return asynq.NewTask(TypeReminderSend, nil)
}

func NewScheduleBroadcastTask() *asynq.Task {
	return asynq.NewTask(TypeScheduleBroadcast, nil)
}

func NewThankYouTask() *asynq.Task {
	return asynq.NewTask(TypeThankYouSend, nil)
}
