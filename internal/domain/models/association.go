package models

// Association maps a content model to the datastream that should carry a
// Handle reference and the transform used to embed it. Associations are
// configuration records; this service only ever reads them.
type Association struct {
	ContentModel string
	DatastreamID string
	Transform    string
}

// DerivativeHook describes the datastream-update event that triggered a
// reconciliation request.
type DerivativeHook struct {
	DestinationDSID string `json:"destination_dsid"`
}
