// Package selection holds the building -> class -> room -> detail drill-down
// a visitor walks through, and re-resolves it against refreshed data.
package selection

import (
	"fmt"

	"inpatient-room-catalog/internal/models"
	"inpatient-room-catalog/internal/reconcile"
)

// Step is the current position in the drill-down.
type Step string

const (
	StepBuilding Step = "BUILDING"
	StepClass    Step = "CLASS"
	StepRoom     Step = "ROOM"
	StepDetail   Step = "DETAIL"
)

// Transition names a state machine operation.
type Transition string

const (
	SelectBuilding Transition = "selectBuilding"
	SelectClass    Transition = "selectClass"
	SelectRoom     Transition = "selectRoom"
	Back           Transition = "back"
	Reset          Transition = "reset"
)

// IllegalTransitionError is the panic value for a transition attempted from
// the wrong step. It signals a caller bug, not a data condition.
type IllegalTransitionError struct {
	From       Step
	Transition Transition
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition %s from step %s", e.Transition, e.From)
}

// State is a snapshot of the selection.
// Class != nil implies Building != nil, Room != nil implies Class != nil,
// and Step == StepBuilding implies Building == nil.
type State struct {
	Step     Step               `json:"step"`
	Building *models.Building   `json:"selectedBuilding"`
	Class    *models.RoomClass  `json:"selectedClass"`
	Room     *models.RoomRecord `json:"selectedRoom"`
}

// RoomLookup returns the rooms of a building+class pair from the current data.
type RoomLookup func(building, class string) []models.RoomRecord

// Machine is the selection state machine. It is not safe for concurrent use.
type Machine struct {
	state State
}

// New returns a machine at StepBuilding.
func New() *Machine {
	return &Machine{state: State{Step: StepBuilding}}
}

// State returns the current selection.
func (m *Machine) State() State {
	return m.state
}

// Can reports whether t is legal from the current state.
func (m *Machine) Can(t Transition) bool {
	switch t {
	case SelectBuilding:
		return m.state.Step == StepBuilding
	case SelectClass:
		return m.state.Step == StepClass && m.state.Building != nil
	case SelectRoom:
		return m.state.Step == StepRoom && m.state.Class != nil
	case Back, Reset:
		return true
	}
	return false
}

func (m *Machine) require(t Transition) {
	if !m.Can(t) {
		panic(&IllegalTransitionError{From: m.state.Step, Transition: t})
	}
}

// SelectBuilding picks a building and moves to StepClass.
func (m *Machine) SelectBuilding(b models.Building) {
	m.require(SelectBuilding)
	m.state = State{Step: StepClass, Building: &b}
}

// SelectClass picks a class of the selected building and moves to StepRoom.
func (m *Machine) SelectClass(c models.RoomClass) {
	m.require(SelectClass)
	m.state = State{Step: StepRoom, Building: m.state.Building, Class: &c}
}

// SelectRoom picks a room and moves to StepDetail.
func (m *Machine) SelectRoom(r models.RoomRecord) {
	m.require(SelectRoom)
	m.state.Room = &r
	m.state.Step = StepDetail
}

// Back moves one step up, clearing the selection of the step it leaves.
// From StepBuilding it does nothing.
func (m *Machine) Back() {
	switch m.state.Step {
	case StepDetail:
		m.state.Room = nil
		m.state.Step = StepRoom
	case StepRoom:
		m.state.Class = nil
		m.state.Room = nil
		m.state.Step = StepClass
	case StepClass:
		m.state = State{Step: StepBuilding}
	}
}

// Reset clears every selection and returns to StepBuilding.
func (m *Machine) Reset() {
	m.state = State{Step: StepBuilding}
}

// Outcome reports what Resolve did.
type Outcome string

const (
	OutcomeUnchanged   Outcome = "unchanged"
	OutcomeRebound     Outcome = "rebound"
	OutcomeRoomDropped Outcome = "room_dropped"
	OutcomeReset       Outcome = "reset"
)

// Resolve re-binds the selection to a freshly reconciled hierarchy by value.
// The building is found by id, then by normalized name. The class is found
// by exact name, then by normalized name, within it. If either is gone the
// machine resets. A selected room is refreshed by id from rooms; if it
// vanished the machine steps back to StepRoom.
func (m *Machine) Resolve(buildings []models.Building, rooms RoomLookup) Outcome {
	if m.state.Building == nil {
		return OutcomeUnchanged
	}

	building, ok := findBuilding(buildings, m.state.Building)
	if !ok {
		m.Reset()
		return OutcomeReset
	}

	next := State{Step: m.state.Step, Building: building}
	if m.state.Class != nil {
		class, ok := findClass(building, m.state.Class.Name)
		if !ok {
			m.Reset()
			return OutcomeReset
		}
		next.Class = class
	}

	outcome := OutcomeRebound
	if m.state.Room != nil {
		room, ok := findRoom(rooms, building.Name, next.Class.Name, m.state.Room.RoomID)
		if ok {
			next.Room = room
		} else {
			next.Step = StepRoom
			outcome = OutcomeRoomDropped
		}
	}

	m.state = next
	return outcome
}

// findBuilding prefers the derived id. Distinct categories such as
// "Gedung Mina" and "Unit Mina" share a normalized name but not an id.
func findBuilding(buildings []models.Building, selected *models.Building) (*models.Building, bool) {
	if selected.ID != "" {
		for i := range buildings {
			if buildings[i].ID == selected.ID {
				b := buildings[i]
				return &b, true
			}
		}
	}
	key := reconcile.Normalize(selected.Name)
	for i := range buildings {
		if reconcile.Normalize(buildings[i].Name) == key {
			b := buildings[i]
			return &b, true
		}
	}
	return nil, false
}

// findClass prefers the exact class name over the normalized one.
func findClass(b *models.Building, name string) (*models.RoomClass, bool) {
	if c, ok := b.FindClass(name); ok {
		class := *c
		return &class, true
	}
	key := reconcile.Normalize(name)
	for i := range b.Classes {
		if reconcile.Normalize(b.Classes[i].Name) == key {
			c := b.Classes[i]
			return &c, true
		}
	}
	return nil, false
}

func findRoom(rooms RoomLookup, building, class, id string) (*models.RoomRecord, bool) {
	if rooms == nil {
		return nil, false
	}
	for _, r := range rooms(building, class) {
		if r.RoomID == id {
			room := r
			return &room, true
		}
	}
	return nil, false
}
