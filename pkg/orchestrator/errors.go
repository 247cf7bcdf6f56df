package orchestrator

import "errors"

var (
	errNoDeviceFree   = errors.New("no device available and timeout is zero")
	errQueueTimeout   = errors.New("queue wait timeout exceeded")
	errBlockedCommand = errors.New(`command contains the substring "platform shell"`)
)
