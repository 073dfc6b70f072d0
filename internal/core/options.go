package core

import (
	"github.com/eleven-am/prpflow/internal/ports"
)

type Option func(*System)

// WithRenderer replaces the embedded PRP template renderer.
func WithRenderer(renderer ports.Renderer) Option {
	return func(s *System) {
		s.renderer = renderer
	}
}

func WithEnvironmentDetector(detector ports.EnvironmentDetector) Option {
	return func(s *System) {
		s.detector = detector
	}
}

func WithCommandValidator(validator ports.CommandValidator) Option {
	return func(s *System) {
		s.commandValidator = validator
	}
}

func WithCommandRunner(runner ports.CommandRunner) Option {
	return func(s *System) {
		s.runner = runner
	}
}

// WithObserver subscribes an extra listener to version events.
func WithObserver(observer ports.Observer) Option {
	return func(s *System) {
		s.extraObservers = append(s.extraObservers, observer)
	}
}
