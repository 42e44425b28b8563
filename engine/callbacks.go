package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/agentjury/core"
)

// CallbackType defines the lifecycle points of a debate run where callbacks
// can be executed.
//
// Available callback types:
//   - BeforePhase/AfterPhase: Around every phase of the state machine
//   - OnEvent: For every event before it is handed to the consumer
//   - OnError: When a run aborts
//
// Callbacks are executed synchronously. A BeforePhase callback returning an
// error aborts the run. Errors of the other types are logged and ignored.
type CallbackType string

const (
	// CallbackBeforePhase is triggered before a phase starts.
	// Use for validation, quotas or instrumentation.
	CallbackBeforePhase CallbackType = "before_phase"

	// CallbackAfterPhase is triggered after a phase emitted its results.
	// Use for metrics collection or post-processing.
	CallbackAfterPhase CallbackType = "after_phase"

	// CallbackOnEvent is triggered for every emitted event.
	CallbackOnEvent CallbackType = "on_event"

	// CallbackOnError is triggered when a run aborts.
	// Use for alerting or error reporting.
	CallbackOnError CallbackType = "on_error"
)

// CallbackContext provides the information a callback needs to act on a run.
type CallbackContext struct {
	// RunID identifies the debate run.
	RunID string

	// Phase is the current phase. Empty for events emitted outside a phase.
	Phase core.Phase

	// Event is the event being emitted. Only set for CallbackOnEvent.
	Event core.Event

	// Err is the error aborting the run. Only set for CallbackOnError.
	Err error

	// CallbackType indicates which callback type triggered this execution.
	CallbackType CallbackType
}

// Callback defines the interface for run lifecycle hooks.
//
// Implementations should be fast since callbacks block the run while they
// execute. OnEvent callbacks may be invoked concurrently by the workers of a
// phase and must be safe for concurrent use.
type Callback interface {
	// Type returns the callback type this implementation handles.
	Type() CallbackType

	// Execute performs the callback logic with the provided context.
	Execute(ctx context.Context, callbackCtx *CallbackContext) error
}

// FunctionCallback wraps a function as a callback implementation.
//
// Example:
//
//	cb := NewFunctionCallback(
//	    CallbackAfterPhase,
//	    func(ctx context.Context, cc *CallbackContext) error {
//	        metrics.PhaseDone(cc.Phase)
//	        return nil
//	    },
//	)
type FunctionCallback struct {
	callbackType CallbackType
	fn           func(ctx context.Context, callbackCtx *CallbackContext) error
}

// NewFunctionCallback creates a new function-based callback.
func NewFunctionCallback(
	callbackType CallbackType,
	fn func(ctx context.Context, callbackCtx *CallbackContext) error,
) *FunctionCallback {
	return &FunctionCallback{
		callbackType: callbackType,
		fn:           fn,
	}
}

// Type returns the callback type this function handles.
func (c *FunctionCallback) Type() CallbackType {
	return c.callbackType
}

// Execute calls the wrapped function with the provided context.
func (c *FunctionCallback) Execute(ctx context.Context, callbackCtx *CallbackContext) error {
	return c.fn(ctx, callbackCtx)
}

// CallbackManager holds the callbacks of an Engine.
//
// Callbacks are executed in registration order, and any callback returning
// an error stops execution of the remaining callbacks of that type. The
// manager is safe for concurrent registration and execution.
type CallbackManager struct {
	mu        sync.RWMutex
	callbacks map[CallbackType][]Callback
}

// NewCallbackManager creates a new callback manager instance.
func NewCallbackManager() *CallbackManager {
	return &CallbackManager{
		callbacks: make(map[CallbackType][]Callback),
	}
}

// RegisterCallback adds a callback to the manager for its type.
func (cm *CallbackManager) RegisterCallback(callback Callback) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	callbackType := callback.Type()
	cm.callbacks[callbackType] = append(cm.callbacks[callbackType], callback)
}

// ExecuteCallbacks executes all registered callbacks for the specified type
// and returns the first error.
func (cm *CallbackManager) ExecuteCallbacks(
	ctx context.Context,
	callbackType CallbackType,
	callbackCtx *CallbackContext,
) error {
	if cm == nil {
		return nil
	}

	cm.mu.RLock()
	callbacks := cm.callbacks[callbackType]
	cm.mu.RUnlock()

	callbackCtx.CallbackType = callbackType
	for _, callback := range callbacks {
		if err := callback.Execute(ctx, callbackCtx); err != nil {
			return err
		}
	}

	return nil
}

// LoggingCallback forwards lifecycle events to a logging function.
//
// Example:
//
//	callback := NewLoggingCallback(CallbackAfterPhase, func(msg string) {
//	    log.Printf("[JURY] %s", msg)
//	})
type LoggingCallback struct {
	callbackType CallbackType
	logger       func(message string)
}

// NewLoggingCallback creates a new logging callback.
func NewLoggingCallback(callbackType CallbackType, logger func(message string)) *LoggingCallback {
	return &LoggingCallback{
		callbackType: callbackType,
		logger:       logger,
	}
}

// Type returns the callback type this logger handles.
func (c *LoggingCallback) Type() CallbackType {
	return c.callbackType
}

// Execute logs the lifecycle point with run, phase and event details.
func (c *LoggingCallback) Execute(_ context.Context, callbackCtx *CallbackContext) error {
	if c.logger == nil {
		return nil
	}
	message := fmt.Sprintf("[%s] run=%s phase=%s", c.callbackType, callbackCtx.RunID, callbackCtx.Phase)
	if callbackCtx.Event != nil {
		message += fmt.Sprintf(" event=%s", callbackCtx.Event.Type())
	}
	if callbackCtx.Err != nil {
		message += fmt.Sprintf(" error=%v", callbackCtx.Err)
	}
	c.logger(message)
	return nil
}
