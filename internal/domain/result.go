package domain

// ErrorReply is an IRC numeric error code
type ErrorReply string

const (
	ErrNoNicknameGiven ErrorReply = "431"
	ErrPasswdMismatch  ErrorReply = "464"
)

// Client-facing messages for the error replies
const (
	MsgNoNicknameGiven  = "No nickname given"
	MsgPasswordMismatch = "Password Incorrect"
)

// ResultKind tags an AuthenticateResult
type ResultKind int

const (
	ResultFailure ResultKind = iota
	ResultSuccess
	ResultContinueSetup
)

func (k ResultKind) String() string {
	switch k {
	case ResultSuccess:
		return "success"
	case ResultContinueSetup:
		return "continue_setup"
	default:
		return "failure"
	}
}

// AuthenticateResult is the single outcome of one authentication attempt.
// User and Identity are set only for ResultSuccess; ErrorCode and Message
// only for ResultFailure.
type AuthenticateResult struct {
	Kind      ResultKind
	User      *RemoteUser
	Identity  *OAuthIdentity
	ErrorCode ErrorReply
	Message   string
}

// Success builds a successful result. identity may be nil.
func Success(user *RemoteUser, identity *OAuthIdentity) AuthenticateResult {
	return AuthenticateResult{Kind: ResultSuccess, User: user, Identity: identity}
}

// ContinueSetup builds a result that hands the connection to interactive setup
func ContinueSetup() AuthenticateResult {
	return AuthenticateResult{Kind: ResultContinueSetup}
}

// Failure builds a rejected result
func Failure(code ErrorReply, message string) AuthenticateResult {
	return AuthenticateResult{Kind: ResultFailure, ErrorCode: code, Message: message}
}

// NoNickname is the rejection for a connection without a nickname
func NoNickname() AuthenticateResult {
	return Failure(ErrNoNicknameGiven, MsgNoNicknameGiven)
}

// PasswordMismatch is the uniform rejection for every credential failure
func PasswordMismatch() AuthenticateResult {
	return Failure(ErrPasswdMismatch, MsgPasswordMismatch)
}

// Err returns the sentinel describing a failed result, or nil
func (r AuthenticateResult) Err() error {
	if r.Kind != ResultFailure {
		return nil
	}
	if r.ErrorCode == ErrNoNicknameGiven {
		return ErrNoNickname
	}
	return ErrCredentialRejected
}
