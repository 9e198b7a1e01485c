// Package handlers defines the fixed response messages used across the HTTP
// layer.
//
// Error bodies carry only a human-readable `error` string. Store failures are
// the one exception to these constants: their message is the raw store error.
//
// Example response:
//
//	{ "error": "Method not allowed" }
package handlers

const (
	MsgMethodNotAllowed = "Method not allowed"
	MsgNotFound         = "Not found"

	// MsgLeadSaved is the success message of the lead endpoint.
	MsgLeadSaved = "Lead guardado y enviado a CAPI"
)
