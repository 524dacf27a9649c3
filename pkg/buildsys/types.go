package buildsys

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.starlark.net/starlark"
	starsyntax "go.starlark.net/syntax"
	"mvdan.cc/sh/v3/syntax"
)

// TaskCmdScript is a single shell snippet belonging to a task.
type TaskCmdScript struct {
	TaskName string
	Content  string
	Index    int
}

func (s TaskCmdScript) ToTask() (*Task, error) {
	return nil, nil
}

func (s TaskCmdScript) ToShellStmts(parser *syntax.Parser) ([]*syntax.Stmt, error) {
	reader := strings.NewReader(s.Content)
	result, err := parser.Parse(reader, fmt.Sprintf("%s:%d", s.TaskName, s.Index))
	if err != nil {
		return nil, eris.Wrapf(err, "failed to parse command %s", s.Content)
	}

	return result.Stmts, nil
}

// TaskCmdTaskRef embeds another task in a task's command list.
type TaskCmdTaskRef struct {
	Task *Task
}

func (t TaskCmdTaskRef) ToTask() (*Task, error) {
	return t.Task, nil
}

func (t TaskCmdTaskRef) ToShellStmts(*syntax.Parser) ([]*syntax.Stmt, error) {
	return nil, nil
}

type TaskCmd interface {
	ToTask() (*Task, error)
	ToShellStmts(*syntax.Parser) ([]*syntax.Stmt, error)
}

// Task is a named sequence of shell commands with optional dependencies.
// The built-in pipeline targets and tasks declared in a project's task
// script both end up as Task values.
type Task struct {
	Env          map[string]string
	Short        string
	Desc         string
	Base         string
	Inputs       []string
	Deps         []string
	SkipIfExists []string
	Outputs      []string
	Cmds         []TaskCmd
	Hidden       bool
}

// TaskList maps short names to each relevant task
type TaskList map[string]*Task

// ScriptOption is an option declared by a project's task script.
type ScriptOption struct {
	DefaultValue starlark.String
	Help         string
}

func (o ScriptOption) Default() string {
	return o.DefaultValue.GoString()
}

// Implement starlark.Value for *Task so task scripts can reference tasks
// inside other tasks' cmds lists.

// String returns a string representation of the task
func (t *Task) String() string {
	return fmt.Sprintf("<Task %s: %s>", t.Short, t.Desc)
}

// Type always returns "task" to indicate this type
func (t *Task) Type() string {
	return "task"
}

// Freeze doesn't do anything since tasks are immutable anyway
func (t *Task) Freeze() {}

// Truth always returns true since a task can't be nil or None
func (t *Task) Truth() starlark.Bool {
	return starlark.True
}

// Hash always returns an error since task is not hashable
func (t *Task) Hash() (uint32, error) {
	return 0, eris.New("task is not a hashable type")
}

// StarlarkPath is a filesystem path value inside task scripts. Unlike plain
// strings, paths are normalized against the project root.
type StarlarkPath string

func (p StarlarkPath) String() string {
	return starlark.String(p).String()
}

func (p StarlarkPath) Type() string {
	return "path"
}

func (p StarlarkPath) Freeze() {}

func (p StarlarkPath) Truth() starlark.Bool {
	return p != ""
}

func (p StarlarkPath) Hash() (uint32, error) {
	return starlark.String(p).Hash()
}

func (p StarlarkPath) CompareSameType(op starsyntax.Token, y_ starlark.Value, depth int) (bool, error) {
	y := y_.(StarlarkPath)

	switch op {
	case starsyntax.EQL:
		return p == y, nil
	case starsyntax.NEQ:
		return p != y, nil
	case starsyntax.LT:
		return p < y, nil
	case starsyntax.LE:
		return p <= y, nil
	case starsyntax.GT:
		return p > y, nil
	case starsyntax.GE:
		return p >= y, nil
	}

	return false, eris.Errorf("unknown operator %v", op)
}

func (p StarlarkPath) Index(i int) starlark.Value {
	return starlark.String(p[i])
}

func (p StarlarkPath) Len() int {
	return len(p)
}

func (p StarlarkPath) Slice(start, end, step int) starlark.Value {
	return starlark.String(p).Slice(start, end, step)
}
