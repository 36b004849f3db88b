// Package connection implements the Connection Manager component.
//
// The Connection Manager:
//   - Opens a single WebSocket connection once the authenticated context is active
//   - Authenticates with the stored session token and re-authenticates on request
//   - Reconnects on failure following a fixed backoff schedule
//   - Gives up and reports "needs login" when no credential is stored
//   - Forwards every received frame, in order, to the dispatcher
package connection
