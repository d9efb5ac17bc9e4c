package app

import (
	"fmt"
	"time"

	"github.com/bft-labs/icmprog/internal/catalog"
	"github.com/bft-labs/icmprog/internal/domain"
)

// WorkflowState is the operator-facing programming state.
type WorkflowState int

const (
	StateIdle WorkflowState = iota
	StateProfileSelected
	StateArmed
	StateWriting
)

// String returns a human-readable representation of the state.
func (s WorkflowState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateProfileSelected:
		return "ProfileSelected"
	case StateArmed:
		return "Armed"
	case StateWriting:
		return "Writing"
	default:
		return "Unknown"
	}
}

// Operator status strings.
const (
	StatusIdle              = "IDLE"
	StatusScanUnit          = "SCAN ICM"
	StatusRunning           = "RUNNING"
	StatusPass              = "PASS"
	StatusFail              = "FAIL"
	StatusAlreadyProgrammed = "ALREADY PROGRAMMED"
)

// Level grades a notice for display.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarn
	LevelError
)

// String returns a human-readable representation of the level.
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelSuccess:
		return "success"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Notice is a message for the operator. An empty Status leaves the status
// line unchanged.
type Notice struct {
	Level   Level
	Status  string
	Message string
}

// Event is an input to the workflow.
type Event interface{ isEvent() }

// ModelScanned selects a profile by catalog key.
type ModelScanned struct{ Key string }

// UnitScanned triggers a write when armed. AlreadyProgrammed is resolved by
// the driver before the event is applied.
type UnitScanned struct {
	ID                string
	AlreadyProgrammed bool
}

// ArmPressed arms the station for the next unit scan.
type ArmPressed struct{}

// ExchangeCompleted carries the result of the write started for UnitID.
// Started and Duration time the exchange for monitoring.
type ExchangeCompleted struct {
	UnitID   string
	Outcome  domain.Outcome
	Started  time.Time
	Duration time.Duration
}

// CatalogReplaced installs a freshly loaded catalog.
type CatalogReplaced struct{ Catalog *catalog.Catalog }

func (ModelScanned) isEvent()      {}
func (UnitScanned) isEvent()       {}
func (ArmPressed) isEvent()        {}
func (ExchangeCompleted) isEvent() {}
func (CatalogReplaced) isEvent()   {}

// Effect is work the driver performs after a transition.
type Effect interface{ isEffect() }

// ProgramUnit starts the transport exchange for a unit.
type ProgramUnit struct {
	UnitID  string
	Profile domain.Profile
}

// RecordUnit writes the audit record for a programmed unit.
type RecordUnit struct {
	UnitID  string
	Profile domain.Profile
}

// Notify shows a notice to the operator.
type Notify struct{ Notice Notice }

func (ProgramUnit) isEffect() {}
func (RecordUnit) isEffect()  {}
func (Notify) isEffect()      {}

// Operator messages.
const (
	msgScanModel = "Scan a barcode to select configuration."
	msgArm       = "Press Program to write configuration to ICM325A."
	msgScanUnit  = "Scan the ICM barcode to program."
)

// Workflow is the programming state machine. It is a value: Apply returns
// the next state and never performs I/O.
type Workflow struct {
	State   WorkflowState
	Catalog *catalog.Catalog

	// Profile is the captured profile; valid in every state but Idle
	Profile domain.Profile

	// UnitID is the unit being written, or the last one scanned while armed
	UnitID string

	// PendingCatalog waits for the in-flight write to finish
	PendingCatalog *catalog.Catalog
}

// NewWorkflow returns an idle workflow over c.
func NewWorkflow(c *catalog.Catalog) Workflow {
	return Workflow{State: StateIdle, Catalog: c}
}

// Apply computes the transition for ev.
func (w Workflow) Apply(ev Event) (Workflow, []Effect) {
	switch ev := ev.(type) {
	case ModelScanned:
		return w.selectModel(ev.Key)
	case ArmPressed:
		return w.arm()
	case UnitScanned:
		return w.unitScanned(ev)
	case ExchangeCompleted:
		return w.completed(ev)
	case CatalogReplaced:
		return w.replaceCatalog(ev.Catalog)
	default:
		return w, nil
	}
}

func (w Workflow) selectModel(key string) (Workflow, []Effect) {
	if w.State == StateWriting {
		return w, nil
	}

	p, ok := w.Catalog.Lookup(key)
	if !ok || !p.Valid() {
		// Reselecting while armed consumes the arming even when the key is unknown.
		if w.State == StateArmed {
			w.State = StateProfileSelected
		}
		return w, []Effect{notify(LevelWarn, "", fmt.Sprintf("Model %s is not in the catalog.", key))}
	}

	w.State = StateProfileSelected
	w.Profile = p
	w.UnitID = ""
	return w, []Effect{notify(LevelInfo, StatusIdle, msgArm)}
}

func (w Workflow) arm() (Workflow, []Effect) {
	if w.State != StateProfileSelected {
		return w, nil
	}
	w.State = StateArmed
	return w, []Effect{notify(LevelInfo, StatusScanUnit, msgScanUnit)}
}

func (w Workflow) unitScanned(ev UnitScanned) (Workflow, []Effect) {
	if w.State != StateArmed {
		return w, nil
	}

	w.UnitID = ev.ID
	if ev.AlreadyProgrammed {
		w.State = StateProfileSelected
		return w, []Effect{notify(LevelError, StatusAlreadyProgrammed,
			fmt.Sprintf("Unit %s already programmed.", ev.ID))}
	}

	w.State = StateWriting
	return w, []Effect{
		notify(LevelInfo, StatusRunning, fmt.Sprintf("Programming %s with %s.", ev.ID, w.Profile.Model)),
		ProgramUnit{UnitID: ev.ID, Profile: w.Profile},
	}
}

func (w Workflow) completed(ev ExchangeCompleted) (Workflow, []Effect) {
	if w.State != StateWriting || ev.UnitID != w.UnitID {
		return w, nil
	}

	var (
		effects []Effect
		outcome Notify
	)
	if ev.Outcome.Success() {
		effects = append(effects, RecordUnit{UnitID: w.UnitID, Profile: w.Profile})
		outcome = notify(LevelSuccess, StatusPass, fmt.Sprintf("Unit %s programmed with %s.", w.UnitID, w.Profile.Model))
	} else {
		outcome = notify(LevelError, StatusFail, ev.Outcome.Text())
	}

	// The outcome notice is the one the operator must see; a deferred swap
	// only adds to its text.
	if pending := w.PendingCatalog; pending != nil {
		w = NewWorkflow(pending)
		outcome.Notice.Message += fmt.Sprintf(" Loaded %d models.", pending.Len())
	} else {
		w.State = StateProfileSelected
	}
	return w, append(effects, outcome)
}

func (w Workflow) replaceCatalog(c *catalog.Catalog) (Workflow, []Effect) {
	if w.State == StateWriting {
		w.PendingCatalog = c
		return w, []Effect{notify(LevelWarn, "", "Catalog reload deferred until the current write finishes.")}
	}
	return NewWorkflow(c), []Effect{notify(LevelInfo, StatusIdle,
		fmt.Sprintf("Loaded %d models. %s", c.Len(), msgScanModel))}
}

func notify(level Level, status, msg string) Notify {
	return Notify{Notice: Notice{Level: level, Status: status, Message: msg}}
}
