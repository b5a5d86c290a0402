// Package core is the orchestration layer.  It composes the transport,
// the relay engine and sessions into the relay mode, and provides a
// builder that assembles that mode from a Config.
//
// Architecture layers (bottom → top):
//
//	transport  →  relay  →  session  →  core  →  cmd (CLI)
package core

import "context"

// Mode represents a complete operational mode of gorelay.  A mode owns
// its full lifecycle from binding to teardown.
type Mode interface {
	Run(ctx context.Context) error
}
