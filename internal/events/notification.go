package events

import "time"

// Kind identifies a row list notification.
type Kind string

const (
	// KindRowsReset means the row list was replaced; row indices are invalid.
	KindRowsReset Kind = "rows.reset"

	// KindValuesChanged means row values may have changed; the list is unchanged.
	KindValuesChanged Kind = "values.changed"
)

// Notification is emitted by the message list after an operation.
type Notification struct {
	// Kind is the notification kind.
	Kind Kind

	// Source names the emitter (e.g. "msglist").
	Source string

	// RowCount is the number of rows after the operation.
	RowCount int

	// Timestamp is when the notification was created.
	Timestamp time.Time
}
