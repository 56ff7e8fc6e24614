// Package device drives an Android device through adb and the on-device
// automation agent.
//
// The agent exposes a JSON-RPC endpoint for input (click, swipe, key
// events) and an endpoint that dumps the current UI hierarchy as XML.
// Connect forwards a local TCP port to the agent, verifies it answers,
// and reads the screen geometry. All lookups are client-side: the driver
// pulls a hierarchy snapshot and matches Selector values against it, so
// a probe never blocks on the device beyond the dump itself.
//
// Element values are snapshots too. They carry the text and bounds seen
// at dump time, and clicking one taps its recorded center point. Callers
// that need fresh state dump again.
//
// All device actions pass through a shared pace.Limiter so the session
// keeps a bounded action rate regardless of which component is driving.
package device
