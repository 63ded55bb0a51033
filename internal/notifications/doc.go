// Package notifications pushes ntfy messages when a scheduled render finishes
// or a daily cycle fails. Without a configured topic every call is a no-op.
package notifications
