// This file may be distributed under the terms of the GNU GPLv3 license.

// Package exclude implements the gcode exclusion filter: per-line
// interception, exclusion state transitions, recovery synthesis, extended
// gcode policies and @-command control.
package exclude

import (
	"fmt"

	"excluderegion-go/pkg/gcode"
	"excluderegion-go/pkg/log"
	"excluderegion-go/pkg/metrics"
	"excluderegion-go/pkg/region"
	"excluderegion-go/pkg/settings"
)

// Engine is the line-level facade over the exclusion state machine. One
// goroutine owns the stream and calls ProcessLine for every input line in
// file order; region mutations arrive concurrently through the store.
type Engine struct {
	logger   *log.Logger
	cfg      *settings.Settings
	store    *region.Store
	metrics  *metrics.Collector
	state    *State
	handlers *Handlers
	at       *AtDispatcher
}

// NewEngine wires the filter together. The store is subscribed for
// region-count metrics; callers subscribe separately for broadcasts.
func NewEngine(cfg *settings.Settings, store *region.Store, logger *log.Logger, collector *metrics.Collector) (*Engine, error) {
	at, err := NewAtDispatcher(cfg.AtCommandActions)
	if err != nil {
		return nil, err
	}

	state := NewState(cfg, store, logger, collector)
	e := &Engine{
		logger:   logger.Component("engine"),
		cfg:      cfg,
		store:    store,
		metrics:  collector,
		state:    state,
		handlers: NewHandlers(state, cfg.ArcResolution, logger),
		at:       at,
	}
	store.Subscribe(func(set region.Set) {
		collector.SetActiveRegions(len(set))
	})
	return e, nil
}

// Store returns the engine's region store.
func (e *Engine) Store() *region.Store {
	return e.store
}

// ProcessLine filters one raw gcode line, returning the zero or more
// lines to send in its place. Unparseable, blank and comment lines pass
// through verbatim with no state update.
func (e *Engine) ProcessLine(raw string) []string {
	e.metrics.LineProcessed()

	line := gcode.ParseLine(raw)
	var out []string
	switch line.Kind {
	case gcode.KindCommand:
		out = e.handlers.HandleCommand(line)
	case gcode.KindAtCommand:
		out = e.processAtCommand(line)
	default:
		return []string{raw}
	}

	synthesized := len(out)
	for _, l := range out {
		if l == raw {
			synthesized--
		}
	}
	e.metrics.LinesSynthesized(synthesized)
	return out
}

// processAtCommand runs a matching rule, then passes the line through so
// downstream consumers still see the directive.
func (e *Engine) processAtCommand(line gcode.Line) []string {
	action, ok := e.at.Match(line.AtCommand, line.AtParams)
	if !ok {
		return []string{line.Raw}
	}

	context := fmt.Sprintf("@%s %s", line.AtCommand, line.AtParams)
	var cmds []string
	switch action {
	case settings.ActionEnableExclusion:
		e.state.EnableExclusion(context)
	case settings.ActionDisableExclusion:
		cmds = e.state.DisableExclusion(context)
	}
	return append(cmds, line.Raw)
}

// StartJob resets tracking state for a new print. Regions survive; the
// enabled/disabled baseline survives too.
func (e *Engine) StartJob() {
	e.logger.Info("print started")
	e.state.Reset()
	e.store.SetPrinting(true)
	e.store.SetMayShrinkWhilePrinting(e.cfg.MayShrinkRegionsWhilePrinting)
}

// FinishJob completes a print normally. An open excluded span is exited
// implicitly so merged commands still apply, then state resets and the
// region set is cleared when configured.
func (e *Engine) FinishJob() []string {
	e.logger.Info("print finished")
	var cmds []string
	if e.state.excluding {
		cmds = e.state.ExitExcludedRegion("print finished")
	}
	e.endJob()
	return cmds
}

// CancelJob aborts a print. Buffered state is discarded without emitting.
func (e *Engine) CancelJob() {
	e.logger.Info("print cancelled")
	e.endJob()
}

func (e *Engine) endJob() {
	e.state.Reset()
	e.store.SetPrinting(false)
	if e.cfg.ClearRegionsAfterPrintFinishes {
		e.store.Clear()
	}
}

// Mode returns the externally visible engine mode.
func (e *Engine) Mode() Mode {
	return e.state.Mode()
}

// GetStatus reports engine and region state for the status API.
func (e *Engine) GetStatus() map[string]any {
	return map[string]any{
		"state":   e.state.GetStatus(),
		"regions": e.store.GetStatus(),
	}
}
