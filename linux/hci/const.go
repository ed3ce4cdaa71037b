package hci

import "time"

// Component name used in logs and telemetry records.
const component = "bt_bind_service"

const (
	// Time to wait for the Command Complete event after a command is sent.
	// Must stay under a second; stress tests measured about 60ms between
	// transmit and completion.
	defaultCommandTimeout = 500 * time.Millisecond

	defaultRetryInitial = time.Second
	defaultRetryStep    = time.Second
	defaultRetryMax     = 10 * time.Second
)
