// Package fleet knows how the two alternating autoscaling groups of an
// application are named, and which of them is serving.
//
// The groups are named identically apart from a trailing discriminator,
// `a` or `b`. The deployment group reports exactly one of them; that is
// the active fleet, and the other is the standby.
package fleet

import (
	"fmt"

	fluxerr "github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/errors"
)

// ID is the name of an autoscaling group.
type ID string

func (id ID) String() string {
	return string(id)
}

// Slot is which of the two fleets an ID refers to.
type Slot int

const (
	SlotA Slot = iota
	SlotB
)

func (s Slot) String() string {
	switch s {
	case SlotA:
		return "a"
	case SlotB:
		return "b"
	}
	return fmt.Sprintf("Slot(%d)", int(s))
}

// Other returns the opposite slot.
func (s Slot) Other() Slot {
	if s == SlotA {
		return SlotB
	}
	return SlotA
}

// Pair is the active and standby fleets, as resolved at the start of a
// run. It is not updated afterwards.
type Pair struct {
	Active  ID
	Standby ID
}

// ActiveSlot is the slot of the active fleet. A Pair produced by
// Resolve always has one.
func (p Pair) ActiveSlot() Slot {
	s, _ := SlotOf(p.Active)
	return s
}

// A returns whichever fleet of the pair is in slot A.
func (p Pair) A() ID {
	if p.ActiveSlot() == SlotA {
		return p.Active
	}
	return p.Standby
}

// B returns whichever fleet of the pair is in slot B.
func (p Pair) B() ID {
	if p.ActiveSlot() == SlotB {
		return p.Active
	}
	return p.Standby
}

// SlotOf reads the discriminator from a fleet name. This is the only
// place the naming convention is interpreted.
func SlotOf(id ID) (Slot, error) {
	if len(id) > 0 {
		switch id[len(id)-1] {
		case 'a':
			return SlotA, nil
		case 'b':
			return SlotB, nil
		}
	}
	return 0, ErrNamingConvention(id)
}

// Resolve computes the pair from the fleet the deployment group reports
// as current.
func Resolve(current ID) (Pair, error) {
	slot, err := SlotOf(current)
	if err != nil {
		return Pair{}, err
	}
	other := current[:len(current)-1] + ID(slot.Other().String())
	return Pair{Active: current, Standby: other}, nil
}

func ErrNamingConvention(id ID) *fluxerr.Error {
	return &fluxerr.Error{
		Type: fluxerr.Configuration,
		Err:  fmt.Errorf("current autoscaling group %q must end in \"a\" or \"b\"", string(id)),
		Help: `The deployment group is attached to the autoscaling group

    ` + string(id) + `

but blue/green deployment needs the two fleets to be named alike except
for a final "a" or "b". Check the autoscaling groups attached to the
deployment group, and rename them (or attach the right one) before
trying again.
`,
	}
}
