// Package buildsys implements the task engine behind scorebuild. Tasks are
// fixed lists of shell commands executed strictly in order through
// mvdan.cc/sh; the first failing command aborts the whole run. Projects can
// declare additional tasks in a Starlark script next to their configuration.
package buildsys
