package executor

import (
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"light-dict/src/command"
	"light-dict/src/errs"
	"light-dict/src/eventloop"
	"light-dict/src/session"
)

type panelCall struct {
	text    string
	isError bool
}

type fakeSinks struct {
	order  []string
	panel  []panelCall
	armed  int
	commit string
	clip   string

	primaryErr error
	commitErr  error
}

func (f *fakeSinks) ArmIgnore()    { f.armed++; f.order = append(f.order, "arm") }
func (f *fakeSinks) DisarmIgnore() { f.armed--; f.order = append(f.order, "disarm") }
func (f *fakeSinks) SetPrimary(s string) error {
	f.order = append(f.order, "select")
	return f.primaryErr
}
func (f *fakeSinks) CopyClipboard(s string) error {
	f.clip = s
	f.order = append(f.order, "clip")
	return nil
}
func (f *fakeSinks) ShowPanel(_ session.Selection, text string, isError bool) {
	f.panel = append(f.panel, panelCall{text, isError})
	f.order = append(f.order, "popup")
}
func (f *fakeSinks) Commit(s string) error {
	f.commit = s
	f.order = append(f.order, "commit")
	return f.commitErr
}

type fakeHost struct{ keys, searches []string }

func (h *fakeHost) SimulateKeys(seq string) error {
	h.keys = append(h.keys, seq)
	return nil
}
func (h *fakeHost) OpenSearch(text string) error {
	h.searches = append(h.searches, text)
	return nil
}

type recordedLookup struct {
	command, output string
	err             error
}

type fakeHistory struct{ lines []recordedLookup }

func (h *fakeHistory) Record(cmd, _, _, output string, err error) {
	h.lines = append(h.lines, recordedLookup{cmd, output, err})
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func newExecutor() (*Executor, *fakeSinks, *fakeHost, *eventloop.Manual) {
	sinks := &fakeSinks{}
	host := &fakeHost{}
	sched := eventloop.NewManual()
	return New(eventloop.Inline{}, sched, sinks, host), sinks, host, sched
}

func TestSubstituteEscapesShellMetacharacters(t *testing.T) {
	got := Substitute("echo LDWORD", "; rm -rf /", "")
	assert.Equal(t, `echo '; rm -rf /'`, got)

	got = Substitute("echo LDWORD APPID", "a\nb", "")
	assert.Equal(t, "echo a\rb ''", got)

	// Values are not re-scanned for placeholders.
	got = Substitute("printf %s LDWORD", "APPID", "x")
	assert.Equal(t, "printf %s APPID", got)
}

func TestSubstitutedSelectionStaysOneArgument(t *testing.T) {
	requireShell(t)
	hostile := `x'; touch /tmp/should-not-exist-ld; echo '$(id)` + "`id`"
	out, err := exec.Command("sh", "-c", Substitute("printf %s LDWORD", hostile, "")).Output()
	require.NoError(t, err)
	assert.Equal(t, hostile, string(out))
}

func TestShellEchoShowsPanel(t *testing.T) {
	requireShell(t)
	e, sinks, _, _ := newExecutor()
	cmd := command.Command{Name: "echo", Text: "echo LDWORD", Sinks: command.SinkPopup, Enabled: true}

	e.Run(cmd, session.Selection{Text: "hello"})

	require.Len(t, sinks.panel, 1)
	assert.Equal(t, panelCall{"hello", false}, sinks.panel[0])
}

func TestShellNonZeroExitShowsStderrAsError(t *testing.T) {
	requireShell(t)
	e, sinks, _, _ := newExecutor()
	hist := &fakeHistory{}
	e.SetHistory(hist)
	e.Apply("history", true)
	cmd := command.Command{Name: "fail", Text: "echo boom >&2; exit 3", Sinks: command.SinkPopup}

	var res Result
	e.OnResult = func(_ command.Command, _ session.Selection, r Result) { res = r }
	e.Run(cmd, session.Selection{Text: "x"})

	require.Len(t, sinks.panel, 1)
	assert.Equal(t, panelCall{"boom", true}, sinks.panel[0])
	assert.Equal(t, errs.CodeExecution, errs.CodeOf(res.Err))
	require.Len(t, hist.lines, 1)
	assert.EqualError(t, hist.lines[0].err, "boom")
}

func TestErrorReachesPanelWhateverTheSinks(t *testing.T) {
	requireShell(t)
	e, sinks, _, _ := newExecutor()
	cmd := command.Command{Name: "fail", Text: "exit 1", Sinks: command.SinkClipboard}

	e.Run(cmd, session.Selection{Text: "x"})

	require.Len(t, sinks.panel, 1)
	assert.True(t, sinks.panel[0].isError)
	assert.Equal(t, "exit status 1", sinks.panel[0].text)
	assert.Empty(t, sinks.clip)
}

func TestSinkOrderArmsLockBeforeWrites(t *testing.T) {
	e, sinks, _, _ := newExecutor()
	cmd := command.Command{Name: "all", Sinks: command.SinkPopup | command.SinkClipboard | command.SinkCommit | command.SinkSelect}

	e.deliver(cmd, session.Selection{Text: "x"}, Ok("out"))

	assert.Equal(t, []string{"arm", "select", "clip", "popup", "arm", "commit"}, sinks.order)
	assert.Equal(t, "out", sinks.commit)
}

func TestFailedWritesDisarmTheLock(t *testing.T) {
	e, sinks, _, _ := newExecutor()
	sinks.primaryErr = errors.New("no xsel")
	sinks.commitErr = errors.New("no keyboard")
	cmd := command.Command{Name: "both", Sinks: command.SinkSelect | command.SinkCommit}

	e.deliver(cmd, session.Selection{Text: "x"}, Ok("out"))

	assert.Equal(t, []string{"arm", "select", "disarm", "arm", "commit", "disarm"}, sinks.order)
	assert.Zero(t, sinks.armed)
}

func TestStopCancelsPendingScript(t *testing.T) {
	e, sinks, _, sched := newExecutor()
	e.SetScriptEnabled(true)
	e.Run(command.Command{Text: `LDWORD`, Dialect: command.Scripted, Sinks: command.SinkPopup}, session.Selection{Text: "hi"})
	require.True(t, sched.Pending(scriptTimer))

	e.Stop()

	assert.Empty(t, sched.Names())
	assert.False(t, sched.Fire(scriptTimer))
	assert.Empty(t, sinks.panel)
}

func TestEmptyOutputShowsNoPanel(t *testing.T) {
	e, sinks, _, _ := newExecutor()
	e.deliver(command.Command{Sinks: command.SinkPopup}, session.Selection{}, Ok(""))
	assert.Empty(t, sinks.panel)
}

func TestBusyPoolReportsRetry(t *testing.T) {
	sinks := &fakeSinks{}
	e := New(rejectingRunner{}, eventloop.NewManual(), sinks, nil)
	e.Run(command.Command{Text: "echo hi", Sinks: command.SinkPopup}, session.Selection{Text: "x"})

	require.Len(t, sinks.panel, 1)
	assert.Equal(t, panelCall{"Busy, please retry", true}, sinks.panel[0])
}

func TestScriptedDialectDisabledByDefault(t *testing.T) {
	e, sinks, _, sched := newExecutor()
	cmd := command.Command{Text: `LDWORD + "!"`, Dialect: command.Scripted, Sinks: command.SinkPopup}

	e.Run(cmd, session.Selection{Text: "hi"})

	assert.Empty(t, sched.Names())
	require.Len(t, sinks.panel, 1)
	assert.True(t, sinks.panel[0].isError)
	assert.True(t, errors.Is(ErrScriptDisabled, errs.New(errs.CodeScriptDisabled, "")))
}

func TestScriptedDialectEvaluatesAfterDelay(t *testing.T) {
	e, sinks, host, sched := newExecutor()
	e.SetScriptEnabled(true)
	cmd := command.Command{
		Text:    `key("ctrl+c") && APPID == "editor.app" ? upper(LDWORD) : "no"`,
		Dialect: command.Scripted,
		Sinks:   command.SinkPopup,
	}

	e.Run(cmd, session.Selection{Text: "hi", AppID: "editor.app"})
	require.Empty(t, sinks.panel)
	d, ok := sched.Delay(scriptTimer)
	require.True(t, ok)
	assert.Equal(t, ScriptDelay, d)

	require.True(t, sched.Fire(scriptTimer))
	require.Len(t, sinks.panel, 1)
	assert.Equal(t, panelCall{"HI", false}, sinks.panel[0])
	assert.Equal(t, []string{"ctrl+c"}, host.keys)
}

func TestScriptedErrorIsSurfaced(t *testing.T) {
	e, sinks, _, sched := newExecutor()
	e.SetScriptEnabled(true)
	e.Run(command.Command{Text: `undefinedName + 1`, Dialect: command.Scripted, Sinks: command.SinkPopup}, session.Selection{})
	sched.Fire(scriptTimer)

	require.Len(t, sinks.panel, 1)
	assert.True(t, sinks.panel[0].isError)
}

func TestDetachedScriptRunsForSideEffects(t *testing.T) {
	e, sinks, host, sched := newExecutor()
	e.SetScriptEnabled(true)
	e.Run(command.Command{Text: `search(LDWORD)`, Dialect: command.Scripted}, session.Selection{Text: "golang"})
	sched.Fire(scriptTimer)

	assert.Equal(t, []string{"golang"}, host.searches)
	assert.Empty(t, sinks.panel)
}

func TestEvaluateCannotReachOutsideEnvironment(t *testing.T) {
	_, err := Evaluate(`exec("id")`, session.Selection{}, nil)
	assert.Error(t, err)

	out, err := Evaluate(`len(LDWORD)`, session.Selection{Text: "four"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "4", out)
	assert.False(t, strings.Contains(out, "\n"))
}

type rejectingRunner struct{}

func (rejectingRunner) Post(fn func())       { fn() }
func (rejectingRunner) Go(func() func()) bool { return false }
