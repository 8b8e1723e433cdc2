package uiscript

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine is a tiny shell script standing in for the JS engine binary:
// it echoes back whatever follows "TICK " on each line it reads.
const fakeEngineScript = "#!/bin/sh\nwhile read -r line; do\n  case \"$line\" in\n    TICK\\ *) echo \"ACK ${line#TICK }\";;\n  esac\ndone\n"

func writeFakeEngine(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-engine.sh")
	require.NoError(t, os.WriteFile(path, []byte(fakeEngineScript), 0o755))
	return path
}

func TestLaunchAndTickRoundTrip(t *testing.T) {
	engine := writeFakeEngine(t)
	p, err := Launch(engine, "dummy.js")
	require.NoError(t, err)
	defer p.Close()

	resp, err := p.Tick(`{"frame":1}`)
	require.NoError(t, err)
	assert.Contains(t, resp, `{"frame":1}`)
}

func TestCloseTerminatesProcess(t *testing.T) {
	engine := writeFakeEngine(t)
	p, err := Launch(engine, "dummy.js")
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}
