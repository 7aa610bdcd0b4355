package gate

import (
	"github.com/nhle/greenspace-sync/internal/model"
	"github.com/nhle/greenspace-sync/internal/status"
)

// taskTransitions maps a target task status to the statuses it may be
// reached from.
var taskTransitions = map[status.Task][]status.Task{
	status.TaskInstalling:     {status.TaskPending, status.TaskReInstall},
	status.TaskDoneInstalling: {status.TaskInstalling},
}

// timedTargets are the task targets that also require the appointment
// time window to be open.
var timedTargets = map[status.Task]bool{
	status.TaskInstalling: true,
}

// orderTransitions maps a target order status to the statuses it may be
// advanced from in lockstep with its task. Installing is reachable from
// itself because an order with several tasks is already Installing when
// its second task starts.
var orderTransitions = map[status.Order][]status.Order{
	status.OrderInstalling:     {status.OrderPaymentSuccess, status.OrderReInstall, status.OrderInstalling},
	status.OrderDoneInstalling: {status.OrderInstalling},
}

// ValidTaskTransition reports whether a task may move from one status to
// another.
func ValidTaskTransition(from, to status.Task) bool {
	return contains(taskTransitions[to], from)
}

// ValidOrderTransition reports whether an order may move from one status
// to another.
func ValidOrderTransition(from, to status.Order) bool {
	return contains(orderTransitions[to], from)
}

// Next returns the forward transition available for item's current task
// status, together with the order status it is paired with.
func Next(item model.WorkItem) (status.Task, status.Order, bool) {
	switch item.TaskStatus() {
	case status.TaskPending, status.TaskReInstall:
		return status.TaskInstalling, status.OrderInstalling, true
	case status.TaskInstalling:
		return status.TaskDoneInstalling, status.OrderDoneInstalling, true
	default:
		return status.TaskUnknown, status.OrderUnknown, false
	}
}

func contains[T comparable](values []T, value T) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
