package detection

// Reason identifies which heuristic flagged a message.
type Reason string

const (
	ReasonAccountTooNew    Reason = "ACCOUNT_TOO_NEW"
	ReasonMultiChannelSpam Reason = "MULTI_CHANNEL_SPAM"
	ReasonJoinAndLink      Reason = "JOIN_AND_LINK"
	ReasonSuspiciousDomain Reason = "SUSPICIOUS_DOMAIN"
	ReasonURLShortener     Reason = "URL_SHORTENER"
)

type Confidence string

const (
	ConfidenceLow    Confidence = "LOW"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceHigh   Confidence = "HIGH"
)

// AutoAction is the moderation step recommended to the caller.
type AutoAction string

const (
	ActionNone   AutoAction = "NONE"
	ActionDelete AutoAction = "DELETE"
	ActionWarn   AutoAction = "WARN"
	ActionMute   AutoAction = "MUTE"
	ActionKick   AutoAction = "KICK"
)

// ParseAutoAction maps admin input to an action, defaulting to NONE.
func ParseAutoAction(value string) AutoAction {
	switch AutoAction(value) {
	case ActionDelete, ActionWarn, ActionMute, ActionKick:
		return AutoAction(value)
	default:
		return ActionNone
	}
}

// Result is the verdict for one evaluated message. It is a value object
// created fresh per evaluation.
type Result struct {
	Detected          bool
	Reason            Reason
	Confidence        Confidence
	RecommendedAction AutoAction
	Details           string
}

func NoDetection() Result {
	return Result{RecommendedAction: ActionNone}
}
