package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/stagepay/partner-connect/internal/core/ports/driving"
)

// State of the connection session as seen by the merchant app.
type State string

const (
	StateIdle             State = "idle"
	StateRequestingStatus State = "requesting_status"
	StateConnected        State = "connected"
	StateNotConnected     State = "not_connected"
	StateAuthorizing      State = "authorizing"
	StateError            State = "error"
)

// SessionOutcome is how the browser authorization session ended.
type SessionOutcome int

const (
	// SessionCompleted means the browser returned to the app via the
	// redirect. It signals that the status should be re-queried; it is
	// never itself proof of a connection.
	SessionCompleted SessionOutcome = iota

	// SessionCanceled means the user dismissed the browser.
	SessionCanceled
)

// AuthSession opens the authorization URL in a browser and blocks until the
// session ends. Implementations wrap whatever browser integration the host
// app has.
type AuthSession interface {
	Open(ctx context.Context, authURL string) (SessionOutcome, error)
}

// ConnectAPI is the slice of the backend the orchestrator needs.
type ConnectAPI interface {
	GetAuthURL(ctx context.Context, merchantID string) (*driving.IssueAuthURLResponse, error)
	ConnectionStatus(ctx context.Context, merchantID string) (*driving.StatusResponse, error)
}

// ErrNoSession is returned when BeginConnection is called without an
// AuthSession to open the browser with.
var ErrNoSession = errors.New("no auth session configured")

// Orchestrator drives the merchant-side connection session:
//
//	idle → requesting_status → {connected | not_connected | error}
//	not_connected → authorizing → requesting_status
//
// A canceled authorization returns to not_connected. The orchestrator never
// reports connected without a server-confirmed status.
type Orchestrator struct {
	api        ConnectAPI
	session    AuthSession
	merchantID string
	logger     *slog.Logger

	mu       sync.Mutex
	state    State
	onChange func(State)
}

// OrchestratorConfig holds configuration for the orchestrator.
type OrchestratorConfig struct {
	API        ConnectAPI
	Session    AuthSession
	MerchantID string

	// OnChange is invoked on every state transition, if set.
	OnChange func(State)

	Logger *slog.Logger
}

// NewOrchestrator creates a session orchestrator in the idle state.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		api:        cfg.API,
		session:    cfg.Session,
		merchantID: cfg.MerchantID,
		logger:     logger,
		state:      StateIdle,
		onChange:   cfg.OnChange,
	}
}

// State returns the current session state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	cb := o.onChange
	o.mu.Unlock()

	if cb != nil {
		cb(s)
	}
}

// RefreshStatus queries the backend and settles into connected,
// not_connected or error.
func (o *Orchestrator) RefreshStatus(ctx context.Context) (State, error) {
	o.setState(StateRequestingStatus)

	status, err := o.api.ConnectionStatus(ctx, o.merchantID)
	if err != nil {
		o.logger.Error("status query failed", "merchant_id", o.merchantID, "err", err)
		o.setState(StateError)
		return StateError, err
	}

	if status.IsConnected {
		o.setState(StateConnected)
		return StateConnected, nil
	}
	o.setState(StateNotConnected)
	return StateNotConnected, nil
}

// BeginConnection runs the authorization flow: fetch the authorization URL,
// open the browser session and, when it completes, re-query the status.
// Blocks on the browser session; cancel via ctx.
func (o *Orchestrator) BeginConnection(ctx context.Context) (State, error) {
	if o.session == nil {
		return o.State(), ErrNoSession
	}

	issued, err := o.api.GetAuthURL(ctx, o.merchantID)
	if err != nil {
		o.logger.Error("get auth url failed", "merchant_id", o.merchantID, "err", err)
		o.setState(StateError)
		return StateError, err
	}

	o.setState(StateAuthorizing)

	outcome, err := o.session.Open(ctx, issued.AuthorizeURL)
	if err != nil {
		o.logger.Error("auth session failed", "merchant_id", o.merchantID, "err", err)
		o.setState(StateError)
		return StateError, err
	}

	if outcome == SessionCanceled {
		o.setState(StateNotConnected)
		return StateNotConnected, nil
	}

	// Session completion only means the redirect fired. The stored
	// connection is the single source of truth.
	return o.RefreshStatus(ctx)
}
