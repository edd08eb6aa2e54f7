// Package center implements the notification center: the pending queue,
// the single presentation session and the scheduler that moves records
// from one to the other.
//
// Exactly one banner is on screen at a time. Records are shown in the order
// they were presented. The scheduler is entered only from Present and from
// the end of a session, both under the center's mutex, so a second session
// can never start while one is active.
//
// The banner view is a collaborator. The center suspends only while waiting
// for its animate-in and animate-out completion channels, and it never times
// those waits out: a view that never completes an animation stalls the
// center until it is closed.
package center
