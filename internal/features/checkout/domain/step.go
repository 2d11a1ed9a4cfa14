package domain

import (
	"errors"
	"fmt"
)

// Step is the active screen of the checkout.
type Step string

const (
	StepCart     Step = "CART"
	StepAuth     Step = "AUTH"
	StepShipping Step = "SHIPPING"
	StepSummary  Step = "SUMMARY"
	StepPayment  Step = "PAYMENT"
	// StepStatus is the transaction status view opened over the payment step.
	StepStatus Step = "STATUS"
)

// steps lists the steps in forward order.
var steps = []Step{StepCart, StepAuth, StepShipping, StepSummary, StepPayment, StepStatus}

// Action is a user driven navigation request.
type Action string

const (
	ActionContinue Action = "continue"
	ActionBack     Action = "back"
)

var (
	// ErrInvalidStep is returned for names outside the step set.
	ErrInvalidStep = errors.New("invalid checkout step")
	// ErrInvalidAction is returned for actions other than continue and back.
	ErrInvalidAction = errors.New("invalid checkout action")
	// ErrNoNextStep is returned when continuing from the status view.
	ErrNoNextStep = errors.New("no step after the current one")
	// ErrNoPreviousStep is returned when going back from the cart.
	ErrNoPreviousStep = errors.New("no step before the current one")
	// ErrForwardJump is returned when GoTo targets the current or a later step.
	ErrForwardJump = errors.New("only earlier steps can be selected")
)

// ParseStep validates a step name.
func ParseStep(s string) (Step, error) {
	step := Step(s)
	if step.index() < 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidStep, s)
	}
	return step, nil
}

// Before reports whether s comes strictly before other.
func (s Step) Before(other Step) bool {
	return s.index() < other.index()
}

func (s Step) index() int {
	for i, step := range steps {
		if step == s {
			return i
		}
	}
	return -1
}

// transitions is the navigation table. A missing entry means the action is not available.
var transitions = map[Step]map[Action]Step{
	StepCart:     {ActionContinue: StepAuth},
	StepAuth:     {ActionContinue: StepShipping, ActionBack: StepCart},
	StepShipping: {ActionContinue: StepSummary, ActionBack: StepAuth},
	StepSummary:  {ActionContinue: StepPayment, ActionBack: StepShipping},
	StepPayment:  {ActionContinue: StepStatus, ActionBack: StepSummary},
	StepStatus:   {ActionBack: StepPayment},
}

// Transition returns the step reached from step by action, without checking preconditions.
func Transition(step Step, action Action) (Step, error) {
	next, ok := transitions[step]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStep, step)
	}

	switch action {
	case ActionContinue:
		if to, ok := next[action]; ok {
			return to, nil
		}
		return "", ErrNoNextStep
	case ActionBack:
		if to, ok := next[action]; ok {
			return to, nil
		}
		return "", ErrNoPreviousStep
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
}
