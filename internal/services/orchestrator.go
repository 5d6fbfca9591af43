// Package services contains the application core: session orchestration
// and history intelligence. Everything here talks to the outside world
// through ports only.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/doeshing/termflow/internal/domain"
	"github.com/doeshing/termflow/internal/ports"
)

const eventBuffer = 64

// SubmitOptions tweaks one Submit call without touching session
// preferences.
type SubmitOptions struct {
	// Override adjusts the security policy for this sequence only.
	Override *domain.SecurityPolicy
}

// sessionState is the orchestrator's mutable bookkeeping for one session.
// The embedded Session value is what callers see; everything else is
// runtime plumbing.
type sessionState struct {
	session   domain.Session
	active    bool
	cancel    context.CancelFunc
	events    chan domain.SessionEvent
	approvals chan domain.ApprovalRequest
	pending   map[string]chan domain.ApprovalResponse
}

// Orchestrator owns the session registry and drives parsed command
// sequences through approval, execution, analysis, and history.
type Orchestrator struct {
	mu       sync.Mutex
	sessions map[string]*sessionState

	executor  ports.PolicyExecutor
	analyzer  ports.Analyzer
	store     ports.HistoryStore
	observers []ports.HistoryObserver
	clock     ports.Clock
	log       ports.Logger

	approvalTimeout time.Duration
}

// NewOrchestrator wires the orchestrator. A zero approvalTimeout uses the
// default.
func NewOrchestrator(executor ports.PolicyExecutor, analyzer ports.Analyzer, store ports.HistoryStore, clock ports.Clock, log ports.Logger, approvalTimeout time.Duration) *Orchestrator {
	if approvalTimeout <= 0 {
		approvalTimeout = domain.DefaultApprovalTimeout
	}
	return &Orchestrator{
		sessions:        map[string]*sessionState{},
		executor:        executor,
		analyzer:        analyzer,
		store:           store,
		clock:           clock,
		log:             log,
		approvalTimeout: approvalTimeout,
	}
}

// AddObserver registers a history observer. Observers are notified after
// every appended entry, on the submitting goroutine.
func (o *Orchestrator) AddObserver(obs ports.HistoryObserver) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observers = append(o.observers, obs)
}

// CreateSession registers a new isolated execution context.
func (o *Orchestrator) CreateSession(workingDir string, env map[string]string, prefs domain.Preferences) domain.Session {
	now := o.clock.Now()
	session := domain.Session{
		ID:           uuid.NewString(),
		WorkingDir:   workingDir,
		Env:          env,
		Preferences:  prefs,
		Status:       domain.SessionActive,
		CreatedAt:    now,
		LastActivity: now,
	}
	o.mu.Lock()
	o.sessions[session.ID] = &sessionState{
		session:   session,
		events:    make(chan domain.SessionEvent, eventBuffer),
		approvals: make(chan domain.ApprovalRequest, 1),
		pending:   map[string]chan domain.ApprovalResponse{},
	}
	o.mu.Unlock()
	o.log.Info("session created", map[string]interface{}{"session_id": session.ID, "working_dir": workingDir})
	return session
}

// Session returns a snapshot of one session.
func (o *Orchestrator) Session(id string) (domain.Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	st, ok := o.sessions[id]
	if !ok {
		return domain.Session{}, ErrSessionNotFound
	}
	return st.session, nil
}

// Sessions lists all live sessions.
func (o *Orchestrator) Sessions() []domain.Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]domain.Session, 0, len(o.sessions))
	for _, st := range o.sessions {
		out = append(out, st.session)
	}
	return out
}

// UpdateActivity bumps the session's last-activity timestamp.
func (o *Orchestrator) UpdateActivity(id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	st, ok := o.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	st.session.LastActivity = o.clock.Now()
	return nil
}

// DestroySession cancels any in-flight sequence and removes the session.
// History entries already appended survive the session.
func (o *Orchestrator) DestroySession(id string) error {
	o.mu.Lock()
	st, ok := o.sessions[id]
	if !ok {
		o.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(o.sessions, id)
	st.session.Status = domain.SessionInactive
	cancel := st.cancel
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	o.log.Info("session destroyed", map[string]interface{}{"session_id": id})
	return nil
}

// Events exposes the per-session lifecycle event channel. Events are
// dropped, not blocked on, when the consumer falls behind.
func (o *Orchestrator) Events(sessionID string) (<-chan domain.SessionEvent, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	st, ok := o.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return st.events, nil
}

// Approvals exposes the per-session approval request channel.
func (o *Orchestrator) Approvals(sessionID string) (<-chan domain.ApprovalRequest, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	st, ok := o.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return st.approvals, nil
}

// RespondApproval answers an outstanding approval request, correlated by
// command ID.
func (o *Orchestrator) RespondApproval(sessionID, commandID string, approved bool) error {
	o.mu.Lock()
	st, ok := o.sessions[sessionID]
	if !ok {
		o.mu.Unlock()
		return ErrSessionNotFound
	}
	ch, ok := st.pending[commandID]
	if !ok {
		o.mu.Unlock()
		return ErrNoPendingApproval
	}
	delete(st.pending, commandID)
	o.mu.Unlock()

	ch <- domain.ApprovalResponse{SessionID: sessionID, CommandID: commandID, Approved: approved}
	return nil
}

// Submit runs a parsed command sequence in the session, strictly in order.
// It returns the results gathered so far even when the sequence halts
// early. A second Submit while one is active fails with
// ErrExecutionActive.
func (o *Orchestrator) Submit(ctx context.Context, sessionID string, parsed domain.ParsedCommand, opts SubmitOptions) ([]domain.ExecutionResult, error) {
	o.mu.Lock()
	st, ok := o.sessions[sessionID]
	if !ok {
		o.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	if st.active {
		o.mu.Unlock()
		return nil, ErrExecutionActive
	}
	runCtx, cancel := context.WithCancel(ctx)
	st.active = true
	st.cancel = cancel
	st.session.LastActivity = o.clock.Now()
	prefs := st.session.Preferences
	o.mu.Unlock()

	defer func() {
		cancel()
		o.mu.Lock()
		if cur, ok := o.sessions[sessionID]; ok && cur == st {
			cur.active = false
			cur.cancel = nil
			cur.session.LastActivity = o.clock.Now()
		}
		o.mu.Unlock()
	}()

	var results []domain.ExecutionResult
	for _, cmd := range parsed.Commands {
		if err := runCtx.Err(); err != nil {
			o.emit(st, cmd, domain.StateCancelled)
			return results, fmt.Errorf("sequence cancelled: %w", err)
		}
		o.emit(st, cmd, domain.StatePending)

		approved := true
		if o.requiresApproval(cmd, prefs) {
			var err error
			approved, err = o.awaitApproval(runCtx, st, cmd)
			if err != nil && !errors.Is(err, ErrApprovalTimeout) {
				o.emit(st, cmd, domain.StateCancelled)
				return results, err
			}
		}
		if !approved {
			o.emit(st, cmd, domain.StateRejected)
			if prefs.ContinueOnError {
				continue
			}
			return results, nil
		}

		result, runErr := o.runCommand(runCtx, st, cmd, prefs, opts)
		results = append(results, result)
		o.record(st, parsed, cmd, result, approved && o.requiresApproval(cmd, prefs))

		if runErr != nil || !result.Success {
			o.emit(st, cmd, domain.StateFailed)
			if !prefs.ContinueOnError {
				return results, runErr
			}
			continue
		}
		o.emit(st, cmd, domain.StateCompleted)
	}
	return results, nil
}

// requiresApproval decides whether a command pauses for the user. High and
// critical risk always do; elevation does unless the policy allows it;
// medium risk does when the session confirms destructive commands. Dry run
// only skips execution, never this gate.
func (o *Orchestrator) requiresApproval(cmd domain.Command, prefs domain.Preferences) bool {
	if cmd.Risk.Severity() >= domain.RiskHigh.Severity() {
		return true
	}
	if cmd.RequiresElevation && !(prefs.AllowElevation && o.executor.Policy().AllowElevation) {
		return true
	}
	if cmd.Risk == domain.RiskMedium && prefs.ConfirmDestructive {
		return true
	}
	return false
}

// awaitApproval publishes an approval request and waits for the answer.
// No answer within the timeout auto-rejects.
func (o *Orchestrator) awaitApproval(ctx context.Context, st *sessionState, cmd domain.Command) (bool, error) {
	respCh := make(chan domain.ApprovalResponse, 1)
	o.mu.Lock()
	st.pending[cmd.ID] = respCh
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		delete(st.pending, cmd.ID)
		o.mu.Unlock()
	}()

	o.emit(st, cmd, domain.StateApprovalRequested)
	req := domain.ApprovalRequest{
		SessionID: st.session.ID,
		CommandID: cmd.ID,
		Command:   cmd.String(),
		Risk:      cmd.Risk,
		Timeout:   o.approvalTimeout,
	}

	timer := time.NewTimer(o.approvalTimeout)
	defer timer.Stop()

	// Single-flight guarantees at most one outstanding request per session,
	// so on exit any request still buffered is ours and must be drained or
	// the next command's request would find the channel full.
	defer o.drainStaleRequest(st)

	send := st.approvals
	for {
		select {
		case send <- req:
			send = nil
		case resp := <-respCh:
			if resp.Approved {
				o.emit(st, cmd, domain.StateApproved)
				return true, nil
			}
			return false, nil
		case <-timer.C:
			o.log.Warn("approval timed out, rejecting", map[string]interface{}{"command_id": cmd.ID, "command": cmd.String()})
			return false, ErrApprovalTimeout
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}

func (o *Orchestrator) drainStaleRequest(st *sessionState) {
	select {
	case <-st.approvals:
	default:
	}
}

func (o *Orchestrator) runCommand(ctx context.Context, st *sessionState, cmd domain.Command, prefs domain.Preferences, opts SubmitOptions) (domain.ExecutionResult, error) {
	if cmd.WorkingDir == "" {
		cmd.WorkingDir = st.session.WorkingDir
	}
	if len(st.session.Env) > 0 {
		merged := map[string]string{}
		for k, v := range st.session.Env {
			merged[k] = v
		}
		for k, v := range cmd.Env {
			merged[k] = v
		}
		cmd.Env = merged
	}

	if prefs.DryRun {
		now := o.clock.Now()
		o.emit(st, cmd, domain.StateRunning)
		return domain.ExecutionResult{
			CommandID:  cmd.ID,
			StartedAt:  now,
			FinishedAt: now,
			Success:    true,
			DryRun:     true,
			DryRunNote: "dry run: would execute " + cmd.String(),
		}, nil
	}

	o.emit(st, cmd, domain.StateRunning)
	return o.executor.Execute(ctx, ports.ExecRequest{Command: cmd, Override: opts.Override})
}

// record appends the history entry, attaches analysis, and notifies
// observers. Analysis never blocks execution flow; a panic inside the
// analyzer is already absorbed by the analyzer itself.
func (o *Orchestrator) record(st *sessionState, parsed domain.ParsedCommand, cmd domain.Command, result domain.ExecutionResult, userApproved bool) {
	entry := domain.HistoryEntry{
		ID:           uuid.NewString(),
		SessionID:    st.session.ID,
		Query:        parsed.OriginalQuery,
		Command:      cmd,
		Result:       result,
		Risk:         cmd.Risk,
		UserApproved: userApproved,
		Timestamp:    o.clock.Now(),
	}
	if o.analyzer != nil && !result.DryRun {
		analysis := o.analyzer.Analyze(ports.AnalyzeRequest{Command: cmd, Result: result})
		entry.Analysis = &analysis
	}
	o.store.Append(entry)
	o.mu.Lock()
	observers := append([]ports.HistoryObserver(nil), o.observers...)
	o.mu.Unlock()
	for _, obs := range observers {
		obs.Observe(entry)
	}
}

func (o *Orchestrator) emit(st *sessionState, cmd domain.Command, state domain.CommandState) {
	event := domain.SessionEvent{
		SessionID: st.session.ID,
		CommandID: cmd.ID,
		State:     state,
		Command:   cmd.String(),
		At:        o.clock.Now(),
	}
	select {
	case st.events <- event:
	default:
	}
}
