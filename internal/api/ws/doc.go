// Package ws streams scheduler trace events over WebSocket.
//
// A client connecting to the stream endpoint receives one "system" frame
// once it is subscribed, then a "trace" frame for every tick observed while
// tracing is enabled:
//
//	{"type":"trace","event":{"tick":42,"counter":7,"policy":1,"live":3,"timestamp":"..."}}
//
// Slow clients miss events rather than stall the clock.
//
// Example Usage:
//
//	handler := ws.NewHandler(state.Events(), logger)
//	router.GET("/scheduler/trace/stream", handler.HandleConnection)
package ws
