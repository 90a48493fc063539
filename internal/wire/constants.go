package wire

// Message type tags for the submission/result wire format. "execute-shared"
// distinguishes the shared-channel-lookup variant by its own submission tag
// instead of scanning the task body text for a substring.
const (
	TypeExecute       = "execute"
	TypeExecuteShared = "execute-shared"
	TypeRegisterChan  = "register-shared-channel"
	TypeResult        = "result"
	TypeError         = "error"
)
