package kernel

import "github.com/tailored-agentic-units/assistant/observability"

// Kernel event types.
const (
	EventBoot                observability.EventType = "kernel.boot"
	EventCommandAccepted     observability.EventType = "kernel.command.accepted"
	EventCommandRejected     observability.EventType = "kernel.command.rejected"
	EventCommandDropped      observability.EventType = "kernel.command.dropped"
	EventResponse            observability.EventType = "kernel.response"
	EventHandlerError        observability.EventType = "kernel.handler.error"
	EventDream               observability.EventType = "kernel.dream"
	EventRAMCleanup          observability.EventType = "kernel.ram.cleanup"
	EventAutosave            observability.EventType = "kernel.autosave"
	EventPersistenceDegraded observability.EventType = "kernel.persistence.degraded"
	EventPeripheral          observability.EventType = "kernel.peripheral.unavailable"
	EventShutdown            observability.EventType = "kernel.shutdown"
)
