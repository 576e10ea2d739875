package models

// HandleResponse carries the status code and error text reported by the
// handle service for a create or delete call. The reconciler owns the
// policy of which codes count as success; a transport-level failure is a
// separate Go error and never produces a HandleResponse.
type HandleResponse struct {
	Code  int
	Error string
}
