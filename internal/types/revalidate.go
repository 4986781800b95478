package types

// RevalidateKind selects the invalidation granularity on the frontend.
type RevalidateKind string

const (
	RevalidatePath RevalidateKind = "path"
	RevalidateTag  RevalidateKind = "tag"
)

// Valid reports whether k is one of the two recognized literals.
func (k RevalidateKind) Valid() bool {
	return k == RevalidatePath || k == RevalidateTag
}

// RevalidateRequest is what an operator submits: the kind and either a URL path or an opaque cache tag.
type RevalidateRequest struct {
	Kind  RevalidateKind `json:"type"`
	Value string         `json:"value"`
}

// RevalidateState tracks a single request as it moves through the gateway.
type RevalidateState int

const (
	StateReceived RevalidateState = iota
	StateValidated
	StateForwarded
	StateSucceeded
	StateFailed
)

var RevalidateStateText = map[RevalidateState]string{
	StateReceived:  "received",
	StateValidated: "validated",
	StateForwarded: "forwarded",
	StateSucceeded: "succeeded",
	StateFailed:    "failed",
}

func (s RevalidateState) String() string {
	return RevalidateStateText[s]
}

// RevalidateResult is the terminal outcome of a gateway call.
// StatusCode is what the HTTP layer should relay: the remote status on a remote failure,
// 400 for a malformed request, 500 for missing configuration or a transport error.
// Err is nil on success and otherwise wraps one of ErrInvalidRequest, ErrNotConfigured or ErrRemote.
type RevalidateResult struct {
	State      RevalidateState
	StatusCode int
	Message    string
	Err        error
}

// Success reports whether the frontend accepted the invalidation.
func (r RevalidateResult) Success() bool {
	return r.State == StateSucceeded
}
