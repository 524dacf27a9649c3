package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkratky/scorebuild/pkg/buildsys"
)

func taskScripts(t *testing.T, task *buildsys.Task) []string {
	t.Helper()

	scripts := make([]string, len(task.Cmds))
	for idx, cmd := range task.Cmds {
		script, ok := cmd.(buildsys.TaskCmdScript)
		require.True(t, ok)
		scripts[idx] = script.Content
	}
	return scripts
}

func TestTasksTargets(t *testing.T) {
	tasks := Tasks(DefaultConfig(), "/project")

	for _, name := range []string{"all", "single", "midis", "clean"} {
		require.Contains(t, tasks, name)
		assert.Equal(t, "/project", tasks[name].Base)
		assert.False(t, tasks[name].Hidden)
		assert.NotEmpty(t, tasks[name].Desc)
	}
}

func TestTasksAllSequence(t *testing.T) {
	tasks := Tasks(DefaultConfig(), ".")

	scripts := taskScripts(t, tasks["all"])
	assert.Equal(t, []string{
		"musixtex main.tex",
		"bibtex main",
		"musixtex main.tex",
		"cp main.pdf out.pdf",
	}, scripts, "the typesetter runs twice around the bibliography step")
}

func TestTasksSingle(t *testing.T) {
	tasks := Tasks(DefaultConfig(), ".")

	scripts := taskScripts(t, tasks["single"])
	assert.Equal(t, []string{
		"musixtex singleDev.tex",
		"cp singleDev.pdf out.pdf",
	}, scripts)
}

func TestTasksMidis(t *testing.T) {
	tasks := Tasks(DefaultConfig(), ".")

	scripts := taskScripts(t, tasks["midis"])
	assert.Equal(t, []string{"midify content"}, scripts)
}

func TestTasksClean(t *testing.T) {
	tasks := Tasks(DefaultConfig(), ".")

	scripts := taskScripts(t, tasks["clean"])
	require.Len(t, scripts, 2)
	assert.Contains(t, scripts[0], "rm -f")
	assert.Contains(t, scripts[0], "*.aux")
	assert.Contains(t, scripts[0], "main.pdf")
	assert.Contains(t, scripts[0], "singleDev.pdf")
	assert.NotContains(t, scripts[0], "out.pdf", "the final output survives a clean")
	assert.Equal(t, "rm -rf midiOutput", scripts[1])
}

func TestTasksUseConfiguredTools(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Typesetter = "pdflatex"
	cfg.Main = "songbook"

	tasks := Tasks(cfg, ".")
	scripts := taskScripts(t, tasks["all"])
	assert.Equal(t, "pdflatex songbook.tex", scripts[0])
	assert.Equal(t, "bibtex songbook", scripts[1])
	assert.Equal(t, "cp songbook.pdf out.pdf", scripts[3])
}

func TestReservedNames(t *testing.T) {
	reserved := ReservedNames()
	for _, name := range []string{"all", "single", "midis", "clean", "configure"} {
		assert.True(t, reserved[name], name)
	}
}
