package buildsys

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() context.Context {
	logger := zerolog.New(io.Discard)
	return WithLogger(context.Background(), &logger)
}

func scriptTask(short, base string, scripts ...string) *Task {
	cmds := make([]TaskCmd, len(scripts))
	for idx, content := range scripts {
		cmds[idx] = TaskCmdScript{TaskName: short, Content: content, Index: idx}
	}

	return &Task{Short: short, Base: base, Cmds: cmds}
}

func TestRunTaskExecutesCommandsInOrder(t *testing.T) {
	dir := t.TempDir()
	task := scriptTask("build", dir,
		"echo one >> order.txt",
		"echo two >> order.txt",
	)

	err := RunTask(testContext(), dir, "build", TaskList{"build": task}, false, false)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "order.txt"))
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(content))
}

func TestRunTaskAbortsOnFailure(t *testing.T) {
	dir := t.TempDir()
	task := scriptTask("build", dir,
		"echo one >> order.txt",
		"exit 3",
		"echo two >> order.txt",
	)

	err := RunTask(testContext(), dir, "build", TaskList{"build": task}, false, false)
	require.Error(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "order.txt"))
	require.NoError(t, err)
	assert.Equal(t, "one\n", string(content), "commands after the failure must not run")
}

func TestRunTaskUnknownTarget(t *testing.T) {
	err := RunTask(testContext(), t.TempDir(), "nope", TaskList{}, false, false)
	assert.Error(t, err)
}

func TestRunTaskRunsDepsFirst(t *testing.T) {
	dir := t.TempDir()
	dep := scriptTask("dep", dir, "echo dep >> order.txt")
	main := scriptTask("main", dir, "echo main >> order.txt")
	main.Deps = []string{"dep"}

	tasks := TaskList{"dep": dep, "main": main}
	err := RunTask(testContext(), dir, "main", tasks, false, false)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "order.txt"))
	require.NoError(t, err)
	assert.Equal(t, "dep\nmain\n", string(content))
}

func TestRunTaskDetectsCycles(t *testing.T) {
	dir := t.TempDir()
	first := scriptTask("first", dir)
	first.Deps = []string{"second"}
	second := scriptTask("second", dir)
	second.Deps = []string{"first"}

	err := RunTask(testContext(), dir, "first", TaskList{"first": first, "second": second}, false, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recursively")
}

func TestRunTaskDryRun(t *testing.T) {
	dir := t.TempDir()
	task := scriptTask("build", dir, "echo one > order.txt")

	err := RunTask(testContext(), dir, "build", TaskList{"build": task}, true, false)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "order.txt"))
	assert.True(t, os.IsNotExist(err), "dry runs must not execute anything")
}

func TestRunTaskSkipIfExists(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "out.pdf")
	require.NoError(t, os.WriteFile(marker, []byte("pdf"), 0660))

	task := scriptTask("build", dir, "echo one > order.txt")
	task.SkipIfExists = []string{"out.pdf"}

	err := RunTask(testContext(), dir, "build", TaskList{"build": task}, false, false)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "order.txt"))
	assert.True(t, os.IsNotExist(err), "task should have been skipped")

	// force overrides the skip check
	err = RunTask(testContext(), dir, "build", TaskList{"build": task}, false, true)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "order.txt"))
	assert.NoError(t, err)
}

func TestRunTaskStaleness(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "input.tex")
	require.NoError(t, os.WriteFile(input, []byte("in"), 0660))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(input, past, past))

	task := scriptTask("build", dir, "echo one >> runs.txt")
	task.Inputs = []string{"input.tex"}
	task.Outputs = []string{"output.pdf"}

	// the output is missing, so the first run executes
	err := RunTask(testContext(), dir, "build", TaskList{"build": task}, false, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "output.pdf"), []byte("out"), 0660))

	err = RunTask(testContext(), dir, "build", TaskList{"build": task}, false, false)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "runs.txt"))
	require.NoError(t, err)
	assert.Equal(t, "one\n", string(content), "up-to-date task must not run again")
}

func TestRunTaskSubTasks(t *testing.T) {
	dir := t.TempDir()
	inner := scriptTask("inner", dir, "echo inner >> order.txt")
	outer := &Task{
		Short: "outer",
		Base:  dir,
		Cmds: []TaskCmd{
			TaskCmdScript{TaskName: "outer", Content: "echo before >> order.txt"},
			TaskCmdTaskRef{Task: inner},
		},
	}

	err := RunTask(testContext(), dir, "outer", TaskList{"outer": outer, "inner": inner}, false, false)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "order.txt"))
	require.NoError(t, err)
	assert.Equal(t, "before\ninner\n", string(content))
}

func TestRunTaskEnv(t *testing.T) {
	dir := t.TempDir()
	task := scriptTask("build", dir, `echo "$SCORE_NAME" > name.txt`)
	task.Env = map[string]string{"SCORE_NAME": "songbook"}

	err := RunTask(testContext(), dir, "build", TaskList{"build": task}, false, false)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "name.txt"))
	require.NoError(t, err)
	assert.Equal(t, "songbook\n", string(content))
}
