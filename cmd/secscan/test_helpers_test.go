package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// executeCommand executes a cobra command and returns its combined output.
func executeCommand(root *cobra.Command, args ...string) (string, error) {
	stdout, stderr, _, err := executeCommandSplit(root, args...)
	return stdout + stderr, err
}

// executeCommandSplit executes a cobra command with exit mocked and returns
// stdout, stderr and the exit code passed to exit (0 if it was not called).
func executeCommandSplit(root *cobra.Command, args ...string) (stdout, stderr string, code int, err error) {
	resetFlags(root)

	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)

	oldExit := exit
	exit = func(c int) {
		if c != 0 {
			panic(fmt.Sprintf("exit-%d", c))
		}
	}
	defer func() { exit = oldExit }()
	defer func() {
		if r := recover(); r != nil {
			s, ok := r.(string)
			if !ok || !strings.HasPrefix(s, "exit-") {
				panic(r)
			}
			fmt.Sscanf(s, "exit-%d", &code)
			stdout, stderr = outBuf.String(), errBuf.String()
		}
	}()

	root.SetArgs(args)
	root.SetOut(outBuf)
	root.SetErr(errBuf)
	root.SetIn(bytes.NewBufferString(""))
	err = root.Execute()
	return outBuf.String(), errBuf.String(), 0, err
}

// resetFlags resets all flags to their default values.
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			f.Value.Set(f.DefValue)
			f.Changed = false
		}
	})
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// chdir switches to dir for the duration of the test so no stray
// secscan.yaml or .env is picked up.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

// fakeOSV serves one advisory for flask and nothing for other packages.
func fakeOSV(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var q struct {
			Package struct {
				Name string `json:"name"`
			} `json:"package"`
		}
		_ = json.NewDecoder(r.Body).Decode(&q)
		w.Header().Set("Content-Type", "application/json")
		if q.Package.Name == "flask" {
			fmt.Fprint(w, `{"vulns":[{"id":"GHSA-test","summary":"Flask bug"}]}`)
			return
		}
		fmt.Fprint(w, `{}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// setupProject writes a python file with one risky line next to a
// requirements.txt, points the advisory client at a fake server and makes the
// static tool unavailable. It returns the path of the python file.
func setupProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "requirements.txt"), []byte("flask==0.1\n# comment\nrequests>=2.0\n"), 0644))
	target := filepath.Join(dir, "app.py")
	require.NoError(t, os.WriteFile(target, []byte("import os\nresult = eval(user_code)  # unsafe\n"), 0644))

	t.Setenv("SECSCAN_OSV_URL", fakeOSV(t).URL)
	t.Setenv("SECSCAN_STATIC_COMMAND", "secscan-missing-static-tool")
	return target
}
