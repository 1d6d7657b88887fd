// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package control

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/StreamHouseAI/vrlforge/pkg/logging"
	"github.com/StreamHouseAI/vrlforge/services/forge/diag"
	"github.com/StreamHouseAI/vrlforge/services/forge/fixer"
	"github.com/StreamHouseAI/vrlforge/services/forge/generate"
	"github.com/StreamHouseAI/vrlforge/services/forge/promptctx"
	"github.com/StreamHouseAI/vrlforge/services/forge/session"
	"github.com/StreamHouseAI/vrlforge/services/forge/validate"
)

// TransitionEvent describes one state machine transition, delivered
// to instrumentation hooks as it happens.
type TransitionEvent struct {
	SessionID string    `json:"session_id"`
	From      State     `json:"from"`
	To        State     `json:"to"`
	Reason    string    `json:"reason"`
	Iteration int       `json:"iteration"`
	At        time.Time `json:"at"`
}

// Hook observes transitions. Hooks run synchronously on the loop
// goroutine and must not block.
type Hook func(TransitionEvent)

// Controller drives one session through the state machine until a
// terminal state.
type Controller struct {
	machine   *StateMachine
	generator *generate.Generator
	validator *validate.Adapter
	fixer     *fixer.Fixer
	log       *logging.Logger
	hooks     []Hook
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithHook registers a transition hook.
func WithHook(h Hook) ControllerOption {
	return func(c *Controller) { c.hooks = append(c.hooks, h) }
}

// WithLogger sets the logger.
func WithLogger(log *logging.Logger) ControllerOption {
	return func(c *Controller) { c.log = log }
}

// NewController wires the loop's collaborators.
func NewController(gen *generate.Generator, val *validate.Adapter, fix *fixer.Fixer, opts ...ControllerOption) *Controller {
	c := &Controller{
		machine:   NewStateMachine(),
		generator: gen,
		validator: val,
		fixer:     fix,
		log:       logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes the session to a terminal state and returns it.
//
// The loop:
//
//	INIT → GENERATE → VALIDATE → SUCCESS
//	                 ↘ CLASSIFY → LOCAL_FIX → VALIDATE
//	                            ↘ ESCALATE → GENERATE
//
// Budget guards run before every GENERATE and LOCAL_FIX; a failed
// guard ends the session in BUDGET_EXHAUSTED. A non-retryable
// diagnostic or a generator error ends it in ABORTED. Local fixes
// are free: they are counted separately and never consume an
// iteration or a billable model call.
func (c *Controller) Run(ctx context.Context, sess *session.Session) (final State, err error) {
	start := time.Now()
	cfg := sess.Config()
	ctx, span := startSessionSpan(ctx, sess.ID(), len(cfg.Samples))
	defer span.End()
	defer func() {
		recordSessionMetrics(ctx, time.Since(start), final, sess.Iterations(), sess.CostUSD())
	}()

	log := c.log.With("session_id", sess.ID())
	allocator := promptctx.NewAllocator(cfg.ContextBudget)

	state := StateInit
	var current session.Candidate
	var abortErr error

	step := func(to State, reason string) {
		next, stepErr := c.machine.Step(state, to)
		if stepErr != nil {
			// A bug in the loop itself, not in the session.
			panic(stepErr)
		}
		c.emit(ctx, TransitionEvent{
			SessionID: sess.ID(),
			From:      state,
			To:        next,
			Reason:    reason,
			Iteration: sess.Iterations(),
			At:        time.Now().UTC(),
		})
		log.Debug("state transition", "from", state, "to", next, "reason", reason)
		state = next
	}

	for !state.IsTerminal() {
		if ctx.Err() != nil {
			abortErr = ctx.Err()
			step(StateAborted, "context cancelled")
			break
		}

		switch state {
		case StateInit:
			if sess.WithinBudget() {
				step(StateGenerate, "session started")
			} else {
				step(StateBudgetExhausted, "no budget before first call")
			}

		case StateGenerate:
			iteration := sess.NextIteration()
			prompt, _ := allocator.Assemble(ctx, cfg.Task, c.components(sess))

			req := generate.Request{
				Task:    cfg.Task,
				Context: prompt,
			}
			if current.Code != "" {
				req.PreviousCode = current.Code
				req.Feedback = current.Diagnostics
			}

			res, genErr := c.generator.Generate(ctx, req)
			if genErr != nil {
				abortErr = genErr
				step(StateAborted, fmt.Sprintf("generation failed: %s", generate.ClassifyError(genErr)))
				break
			}
			sess.RecordCost(res.CostUSD)
			sess.RecordBillableCall()
			current = sess.Ledger().Append(session.Candidate{
				Code:      res.Code,
				Model:     res.Model,
				Source:    session.SourceGenerated,
				CostUSD:   res.CostUSD,
				CreatedAt: time.Now().UTC(),
			})
			log.Info("candidate generated",
				"iteration", iteration, "sequence", current.Sequence,
				"model", res.Model, "cost_usd", res.CostUSD)
			step(StateValidate, "candidate produced")

		case StateValidate:
			result := c.validator.Validate(ctx, current.Code, cfg.Samples)
			current.Diagnostics = result.Diagnostics
			current.Perf = result.Perf
			sess.Ledger().Update(current)

			if result.Valid {
				log.Info("candidate passed validation", "sequence", current.Sequence)
				step(StateSuccess, "no diagnostics")
			} else {
				log.Info("candidate failed validation",
					"sequence", current.Sequence, "diagnostics", len(result.Diagnostics))
				step(StateClassify, "diagnostics to triage")
			}

		case StateClassify:
			if nr := diag.FirstNonRetryable(current.Diagnostics); nr != nil {
				abortErr = fmt.Errorf("non-retryable diagnostic: [%s] %s", nr.Category, nr.Message)
				step(StateAborted, abortErr.Error())
				break
			}
			confidence := c.fixer.Confidence(current.Diagnostics)
			if cfg.FixPolicy.ShouldAttempt(current.Diagnostics, sess.Iterations(), confidence) {
				if sess.WithinBudget() {
					step(StateLocalFix, fmt.Sprintf("fix confidence %.2f", confidence))
				} else {
					step(StateBudgetExhausted, "budget spent before local fix")
				}
			} else {
				step(StateEscalate, fmt.Sprintf("fix confidence %.2f below policy", confidence))
			}

		case StateLocalFix:
			sess.RecordLocalFix()
			out := c.fixer.TryFix(current.Code, current.Diagnostics)
			if !out.Applied {
				step(StateEscalate, "no fix rule fired")
				break
			}
			current = sess.Ledger().Append(current.WithLocalFix(out.Code, out.Changes))
			log.Info("local fix applied",
				"sequence", current.Sequence, "changes", strings.Join(out.Changes, ","))
			step(StateValidate, "rewrite produced")

		case StateEscalate:
			if sess.WithinBudget() {
				step(StateGenerate, "escalating to model")
			} else {
				step(StateBudgetExhausted, "budget spent")
			}
		}
	}

	log.Info("session finished",
		"final_state", state, "iterations", sess.Iterations(),
		"local_fixes", sess.LocalFixes(),
		"billable_calls", sess.BillableCalls(), "cost_usd", sess.CostUSD())
	return state, abortErr
}

// components assembles the prompt material for one generation: the
// sample lines plus a compact history of prior attempts.
func (c *Controller) components(sess *session.Session) []promptctx.Component {
	cfg := sess.Config()
	comps := []promptctx.Component{
		promptctx.NewComponent("Sample Data", strings.Join(cfg.Samples, "\n"), 1, promptctx.CategorySamples),
	}
	if history := renderHistory(sess.Ledger().All()); history != "" {
		comps = append(comps, promptctx.NewComponent("Iteration History", history, 2, promptctx.CategoryHistory))
	}
	return comps
}

// renderHistory summarizes earlier attempts so the model does not
// repeat them.
func renderHistory(candidates []session.Candidate) string {
	if len(candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, cand := range candidates {
		fmt.Fprintf(&b, "attempt %d (%s): %d diagnostics\n",
			cand.Sequence, cand.Source, len(cand.Diagnostics))
		for _, d := range cand.Diagnostics {
			fmt.Fprintf(&b, "  - [%s] %s\n", d.Category, d.Message)
		}
	}
	return b.String()
}

func (c *Controller) emit(ctx context.Context, ev TransitionEvent) {
	recordTransitionMetrics(ctx, ev.From, ev.To)
	for _, h := range c.hooks {
		h(ev)
	}
}
