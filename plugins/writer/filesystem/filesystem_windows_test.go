//go:build windows

package filesystem

import (
	"errors"
	"testing"

	"github.com/Sergeyir/HardProcessesLO/pkg/contract"
)

func TestNestedIDsCannotEscapeRootWindows(t *testing.T) {
	flat := false
	w, err := New(&Options{OutputDir: t.TempDir(), Flat: &flat})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, id := range []string{`C:\out\hardlo.root`, `..`, `.`, `..\analytic.yaml`} {
		if _, err := w.mapPath(contract.ArtifactID(id)); !errors.Is(err, contract.ErrPathInvalid) {
			t.Fatalf("id %q accepted", id)
		}
	}
}
