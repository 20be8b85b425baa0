package services

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

// Precondition errors. They abort the action without touching the transcript.
var (
	ErrBusy              = errors.New("another request is in flight")
	ErrNoActiveSession   = errors.New("no active chat session")
	ErrNoActiveRole      = errors.New("no active role selected")
	ErrMessageNotFound   = errors.New("message not found in active chat")
	ErrNotEditable       = errors.New("only user messages can be edited")
	ErrChatNotFound      = errors.New("chat not found")
	ErrRoleNotFound      = errors.New("role not found")
	ErrCandidateNotFound = errors.New("candidate not found")
	ErrReminderNotFound  = errors.New("reminder not found")
	ErrPlaybookNotFound  = errors.New("playbook not found")
	ErrInvalidStatus     = errors.New("invalid candidate status")
	ErrInvalidPhase      = errors.New("unknown phase")
	ErrCompareSelection  = errors.New("select two or three candidates to compare")
	ErrNothingToExport   = errors.New("no candidates at the required stage")
	ErrEmptyInput        = errors.New("input is empty")
	ErrUnknownExport     = errors.New("unknown export")
)

// ErrMissingCredential means no provider API key is configured. It is a
// configuration problem, never retried.
var ErrMissingCredential = errors.New("missing Gemini API key: set GEMINI_API_KEY")

type FailureKind string

const (
	FailureConfiguration FailureKind = "configuration"
	FailureConnectivity  FailureKind = "connectivity"
	FailureProvider      FailureKind = "provider"
)

// Operation names the orchestrator action a failure happened in; edits carry
// their own generic wording.
type Operation int

const (
	OpSend Operation = iota
	OpEdit
)

// Failure is a classified provider failure. Banner goes to the persistent
// error area, Transcript is appended to the chat as an assistant message.
type Failure struct {
	Kind       FailureKind `json:"kind"`
	Banner     string      `json:"banner"`
	Transcript string      `json:"transcript"`
	Err        error       `json:"-"`
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return string(f.Kind) + ": " + f.Err.Error()
	}
	return string(f.Kind) + ": " + f.Banner
}

func (f *Failure) Unwrap() error { return f.Err }

const (
	bannerOffline       = "You appear to be offline. Please check your internet connection."
	transcriptOffline   = "It seems we've lost connection. Please check your internet and try again."
	bannerBadKey        = "Invalid API Key. Please check your configuration."
	transcriptBadKey    = "There seems to be an issue with my connection credentials. Please ask an administrator to check the API key configuration."
	bannerGeneric       = "An unexpected error occurred. Please try again. If the problem persists, check your network connection or the server logs for details."
	transcriptGeneric   = "I'm sorry, I ran into a technical problem and couldn't complete your request. Could you please try that again?"
	bannerEditGeneric   = "An unexpected error occurred while editing. Please try again."
	transcriptEditError = "I'm sorry, I ran into a problem while processing your edit."

	BannerInitFailed   = "Failed to initialize AI assistant. Please check your API key and refresh the page."
	BannerReinitFailed = "Failed to re-initialize AI assistant for editing."
)

// PreconditionBanner returns the banner text for precondition errors that the
// user can act on, or "" when the error is silently ignored.
func PreconditionBanner(err error) string {
	switch {
	case errors.Is(err, ErrNoActiveSession):
		return "No active chat session. Please start a new chat."
	case errors.Is(err, ErrNoActiveRole):
		return "No active role selected. Please create a role first."
	default:
		return ""
	}
}

// ClassifyFailure maps a provider error to its user-facing texts. online is
// the connectivity probe's verdict taken after the failure.
func ClassifyFailure(err error, online bool, op Operation) *Failure {
	switch {
	case !online || isNetworkError(err):
		return &Failure{Kind: FailureConnectivity, Banner: bannerOffline, Transcript: transcriptOffline, Err: err}
	case isCredentialError(err):
		return &Failure{Kind: FailureConfiguration, Banner: bannerBadKey, Transcript: transcriptBadKey, Err: err}
	case op == OpEdit:
		return &Failure{Kind: FailureProvider, Banner: bannerEditGeneric, Transcript: transcriptEditError, Err: err}
	default:
		return &Failure{Kind: FailureProvider, Banner: bannerGeneric, Transcript: transcriptGeneric, Err: err}
	}
}

func isCredentialError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrMissingCredential) {
		return true
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden {
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "api key not valid")
}

func isNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// ConnectivityProbe answers whether the network is reachable right now.
type ConnectivityProbe interface {
	Online(ctx context.Context) bool
}

// OnlineFunc adapts a function to ConnectivityProbe.
type OnlineFunc func(ctx context.Context) bool

func (f OnlineFunc) Online(ctx context.Context) bool { return f(ctx) }

type netProbe struct {
	addr    string
	timeout time.Duration
}

// NewNetProbe dials addr (host:port) to decide connectivity. An empty addr
// always reports online.
func NewNetProbe(addr string, timeout time.Duration) ConnectivityProbe {
	return &netProbe{addr: addr, timeout: timeout}
}

func (p *netProbe) Online(ctx context.Context) bool {
	if p.addr == "" {
		return true
	}
	d := net.Dialer{Timeout: p.timeout}
	conn, err := d.DialContext(ctx, "tcp", p.addr)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
