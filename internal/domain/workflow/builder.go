package workflow

import (
	"fmt"
	"sort"
)

// GuardFunc reports whether a transition may be taken right now
type GuardFunc func() bool

// StepMachineBuilder builds configured step machines
type StepMachineBuilder interface {
	// Configure returns the configuration for transitions leaving state
	Configure(state StepState) StateConfiguration

	// Build creates a machine starting in initial
	Build(initial StepState) StepMachine
}

// StateConfiguration configures transitions for a specific state
type StateConfiguration interface {
	// Permit allows a trigger to move to the target state
	Permit(trigger Trigger, to StepState) StateConfiguration

	// PermitIf allows a trigger to move to the target state while guard passes
	PermitIf(trigger Trigger, to StepState, guard GuardFunc) StateConfiguration
}

type transition struct {
	to    StepState
	guard GuardFunc
}

type stateConfig struct {
	transitions map[Trigger][]transition
}

type stepMachineBuilder struct {
	configurations map[StepState]*stateConfig
}

type stepMachine struct {
	current        StepState
	configurations map[StepState]*stateConfig
}

// NewBuilder creates a new step machine builder
func NewBuilder() StepMachineBuilder {
	return &stepMachineBuilder{
		configurations: make(map[StepState]*stateConfig),
	}
}

func (b *stepMachineBuilder) Configure(state StepState) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid step state: %s", state))
	}

	config, exists := b.configurations[state]
	if !exists {
		config = &stateConfig{transitions: make(map[Trigger][]transition)}
		b.configurations[state] = config
	}
	return config
}

// Build copies the configuration so later Configure calls do not leak into built machines
func (b *stepMachineBuilder) Build(initial StepState) StepMachine {
	if !initial.IsValid() {
		panic(fmt.Sprintf("invalid initial step state: %s", initial))
	}

	configs := make(map[StepState]*stateConfig, len(b.configurations))
	for state, config := range b.configurations {
		transitions := make(map[Trigger][]transition, len(config.transitions))
		for trigger, ts := range config.transitions {
			transitions[trigger] = append([]transition(nil), ts...)
		}
		configs[state] = &stateConfig{transitions: transitions}
	}

	return &stepMachine{
		current:        initial,
		configurations: configs,
	}
}

func (c *stateConfig) Permit(trigger Trigger, to StepState) StateConfiguration {
	return c.PermitIf(trigger, to, nil)
}

func (c *stateConfig) PermitIf(trigger Trigger, to StepState, guard GuardFunc) StateConfiguration {
	if !to.IsValid() {
		panic(fmt.Sprintf("invalid target step state: %s", to))
	}
	c.transitions[trigger] = append(c.transitions[trigger], transition{to: to, guard: guard})
	return c
}

func (m *stepMachine) State() StepState {
	return m.current
}

// CanFire ignores guards; Fire evaluates them
func (m *stepMachine) CanFire(trigger Trigger) bool {
	config, exists := m.configurations[m.current]
	if !exists {
		return false
	}
	return len(config.transitions[trigger]) > 0
}

func (m *stepMachine) Fire(trigger Trigger) error {
	config, exists := m.configurations[m.current]
	if !exists {
		return fmt.Errorf("%w: %s from %s (no configuration)", ErrInvalidTransition, trigger, m.current)
	}

	transitions := config.transitions[trigger]
	if len(transitions) == 0 {
		return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, trigger, m.current)
	}

	for _, t := range transitions {
		if t.guard == nil || t.guard() {
			m.current = t.to
			return nil
		}
	}
	return fmt.Errorf("%w: %s from %s", ErrGuardFailed, trigger, m.current)
}

// PermittedTriggers returns the configured triggers in sorted order
func (m *stepMachine) PermittedTriggers() []Trigger {
	config, exists := m.configurations[m.current]
	if !exists {
		return []Trigger{}
	}

	triggers := make([]Trigger, 0, len(config.transitions))
	for trigger := range config.transitions {
		triggers = append(triggers, trigger)
	}
	sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })
	return triggers
}
