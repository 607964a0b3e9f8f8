package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubExec struct {
	loggedIn bool
	calls    []string
}

func (s *stubExec) record(name string) error {
	s.calls = append(s.calls, name)
	return nil
}

func (s *stubExec) isLoggedIn() bool                   { return s.loggedIn }
func (s *stubExec) Login(context.Context) error        { return s.record("login") }
func (s *stubExec) Logout(context.Context) error       { return s.record("logout") }
func (s *stubExec) WhoAmI(context.Context) error       { return s.record("whoami") }
func (s *stubExec) Profile(context.Context) error      { return s.record("profile") }
func (s *stubExec) Services(context.Context) error     { return s.record("services") }
func (s *stubExec) AddService(context.Context) error   { return s.record("addservice") }
func (s *stubExec) RemoveService(context.Context) error { return s.record("rmservice") }
func (s *stubExec) TestService(context.Context) error  { return s.record("testservice") }
func (s *stubExec) Projects(context.Context) error     { return s.record("projects") }
func (s *stubExec) Overview(context.Context) error     { return s.record("overview") }
func (s *stubExec) Sync(context.Context) error         { return s.record("sync") }

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	orig := printlnFn
	t.Cleanup(func() { printlnFn = orig })

	var lines []string
	printlnFn = func(a ...any) (int, error) {
		parts := make([]string, 0, len(a))
		for _, v := range a {
			if s, ok := v.(string); ok {
				parts = append(parts, s)
			}
		}
		lines = append(lines, strings.Join(parts, " "))
		return 0, nil
	}
	return &lines
}

func runScript(a execIface, script string) {
	scanner := bufio.NewScanner(strings.NewReader(script))
	runREPL(context.Background(), a, func() string { return "" }, scanner)
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	captureOutput(t)

	s := &stubExec{loggedIn: true}
	runScript(s, "whoami\nservices\nprojects\nsync\nlogout\nexit\n")

	assert.Equal(t, []string{"whoami", "services", "projects", "sync", "logout"}, s.calls)
}

func TestRunREPL_SkipsBlankLinesAndReportsUnknown(t *testing.T) {
	out := captureOutput(t)

	s := &stubExec{}
	runScript(s, "\n\nfrobnicate\nexit\n")

	assert.Empty(t, s.calls)

	joined := strings.Join(*out, "\n")
	assert.Contains(t, joined, "Unknown command: frobnicate")
}

func TestRunREPL_HelpDependsOnLoginState(t *testing.T) {
	out := captureOutput(t)

	runScript(&stubExec{loggedIn: false}, "help\nexit\n")
	joined := strings.Join(*out, "\n")
	assert.Contains(t, joined, "login, exit")
	assert.NotContains(t, joined, "services")

	out = captureOutput(t)
	runScript(&stubExec{loggedIn: true}, "help\nexit\n")
	joined = strings.Join(*out, "\n")
	assert.Contains(t, joined, "services")
	assert.Contains(t, joined, "logout")
}

func TestRunREPL_ExitsOnEOF(t *testing.T) {
	captureOutput(t)

	s := &stubExec{}
	runScript(s, "projects\n") // no exit; scanner hits EOF

	assert.Equal(t, []string{"projects"}, s.calls)
}
