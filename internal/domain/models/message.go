package models

// MessageChannel tells the calling pipeline where a message belongs.
type MessageChannel string

const (
	// ChannelUserNotice marks messages meant for end-user display.
	ChannelUserNotice MessageChannel = "user-notice"
	// ChannelOperationalLog marks messages meant for the operational log.
	ChannelOperationalLog MessageChannel = "operational-log"
)

// Severity grades a message.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Message is the uniform reporting record returned by every reconciler
// operation. Text carries placeholders (e.g. "@pid") resolved through
// Substitutions by whichever channel finally renders it.
type Message struct {
	Text          string            `json:"text"`
	Substitutions map[string]string `json:"substitutions,omitempty"`
	Channel       MessageChannel    `json:"channel"`
	Severity      Severity          `json:"severity"`
}

// NewUserNotice creates a user-facing informational message.
func NewUserNotice(text string, substitutions map[string]string) Message {
	return Message{
		Text:          text,
		Substitutions: substitutions,
		Channel:       ChannelUserNotice,
		Severity:      SeverityInfo,
	}
}

// NewOperationalError creates an error message for the operational log.
func NewOperationalError(text string, substitutions map[string]string) Message {
	return Message{
		Text:          text,
		Substitutions: substitutions,
		Channel:       ChannelOperationalLog,
		Severity:      SeverityError,
	}
}

// Result aggregates the outcome of one reconciler operation.
type Result struct {
	Success  bool      `json:"success"`
	Messages []Message `json:"messages"`
}

// SuccessResult returns a successful result without messages.
func SuccessResult() Result {
	return Result{Success: true}
}

// FailureResult returns a failed result carrying the given messages.
func FailureResult(messages ...Message) Result {
	return Result{Success: false, Messages: messages}
}

// Merge folds another result into r, accumulating messages and keeping
// success only when both sides succeeded.
func (r *Result) Merge(other Result) {
	r.Success = r.Success && other.Success
	r.Messages = append(r.Messages, other.Messages...)
}
