// Package remotecontrol replays navigation control events as local input.
// Filter does it inline in a pipeline; Handler is the standalone entry point
// for hosts that receive control events directly.
package remotecontrol

import (
	"errors"

	"github.com/pion/logging"

	"remotecontrol/internal/input"
	"remotecontrol/internal/navigation"
	"remotecontrol/internal/translate"
)

// Executor runs input actions. *input.Handle implements it.
type Executor interface {
	Execute(a input.Action) error
}

type outcome int

const (
	// executed: translated and handed to the executor, possibly with no
	// actions at all.
	executed outcome = iota
	// pass: not ours; the event should travel on unchanged.
	pass
	// rejected: well-formed discriminator but unusable payload.
	rejected
	// malformed: a required field is missing or has the wrong type.
	malformed
)

// replay translates s and executes the resulting actions in order. Action
// failures are logged and do not stop later actions.
func replay(exec Executor, log logging.LeveledLogger, s *navigation.Structure) outcome {
	res, err := translate.Translate(s)
	switch {
	case errors.Is(err, translate.ErrUnrecognizedEvent):
		log.Warnf("Unhandled navigation event: %#v", s)
		return pass
	case errors.Is(err, translate.ErrMissingField):
		log.Errorf("Malformed navigation event, %v: %#v", err, s)
		return malformed
	case err != nil:
		log.Errorf("Cannot replay %v in %#v", err, s)
		return rejected
	case !res.Handled:
		log.Debugf("Ignoring navigation event: %#v", s)
		return pass
	}

	for _, a := range res.Actions {
		log.Debugf("Replaying %s", a)
		if err := exec.Execute(a); err != nil {
			log.Warnf("Input action did not succeed: %v", err)
		}
	}
	return executed
}
