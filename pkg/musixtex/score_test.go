package musixtex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	assert.Equal(t, []string{"0", "ab", "c"}, parseArgs("0{ab}c"))
	assert.Equal(t, []string{"jk"}, parseArgs("{jk}"))
	assert.Equal(t, []string{"j"}, parseArgs("j"))
	assert.Empty(t, parseArgs(""))
	// nested braces are flattened into their group
	assert.Equal(t, []string{"abc"}, parseArgs("{a{b}c}"))
}

func TestMidifyable(t *testing.T) {
	assert.True(t, Midifyable(`% song\n\midifyable\n`))
	assert.False(t, Midifyable(`\begin{music}\endpiece`))
}

func parseSource(t *testing.T, src string) *Score {
	t.Helper()
	score, err := Parse(context.Background(), src)
	require.NoError(t, err)
	return score
}

func TestParseBasicScore(t *testing.T) {
	score := parseSource(t, `\midifyable
\begin{music}
\generalmeter{\meterfrac34}
\generalsignature{1}
\startpiece
\notes\ql{j}\sh{f}\ql{f}\en
\notes\ql{f}\en
\endpiece
\end{music}`)

	assert.Equal(t, 3, score.MeterNum)
	assert.Equal(t, 4, score.MeterDen)
	assert.Equal(t, 1, score.Signature)
	require.Len(t, score.Notes, 3)

	keys := make([]int, len(score.Notes))
	for idx, note := range score.Notes {
		var err error
		keys[idx], err = note.MidiKey()
		require.NoError(t, err)
	}

	// the sharp applies to the second f only, the bar line resets it
	assert.Equal(t, []int{60, 54, 53}, keys)

	assert.Equal(t, 0, score.Notes[0].Start)
	assert.Equal(t, 64, score.Notes[0].Duration)
	assert.Equal(t, 64, score.Notes[1].Start)
	assert.Equal(t, 128, score.Notes[2].Start)
}

func TestParseNotMidifyable(t *testing.T) {
	_, err := Parse(context.Background(), `\begin{music}\startpiece\endpiece`)
	assert.ErrorIs(t, err, ErrNotMidifyable)
}

func TestParseMissingMeter(t *testing.T) {
	_, err := Parse(context.Background(), `\midifyable
\begin{music}
\startpiece
\endpiece`)
	assert.Error(t, err)
}

func TestParseAllabreve(t *testing.T) {
	score := parseSource(t, `\midifyable
\begin{music}
\generalmeter{\allabreve}
\startpiece
\notes\wh{j}\en
\endpiece`)

	assert.Equal(t, 4, score.MeterNum)
	assert.Equal(t, 4, score.MeterDen)
	require.Len(t, score.Notes, 1)
	assert.Equal(t, 256, score.Notes[0].Duration)
}

func TestParseFlatSignature(t *testing.T) {
	score := parseSource(t, `\midifyable
\begin{music}
\generalmeter{\meterfrac44}
\generalsignature{-2}
\startpiece
\notes\ql{i}\na{i}\ql{i}\en
\endpiece`)

	assert.Equal(t, -2, score.Signature)
	require.Len(t, score.Notes, 2)

	key, err := score.Notes[0].MidiKey()
	require.NoError(t, err)
	assert.Equal(t, 58, key, "the signature flats the first note")

	key, err = score.Notes[1].MidiKey()
	require.NoError(t, err)
	assert.Equal(t, 59, key, "the explicit natural wins")
}

func TestParseDurations(t *testing.T) {
	score := parseSource(t, `\midifyable
\begin{music}
\generalmeter{\meterfrac44}
\startpiece
\notes\cl{j}\clp{j}\qlp{j}\hl{j}\hup{j}\en
\endpiece`)

	require.Len(t, score.Notes, 5)
	durations := make([]int, len(score.Notes))
	starts := make([]int, len(score.Notes))
	for idx, note := range score.Notes {
		durations[idx] = note.Duration
		starts[idx] = note.Start
	}

	assert.Equal(t, []int{32, 48, 96, 128, 192}, durations)
	assert.Equal(t, []int{0, 32, 80, 176, 304}, starts)
}

func TestParseBeamGroups(t *testing.T) {
	score := parseSource(t, `\midifyable
\begin{music}
\generalmeter{\meterfrac44}
\startpiece
\notes\Tqbu{jkl}\Dqbbl{mn}\en
\endpiece`)

	require.Len(t, score.Notes, 5)

	assert.Equal(t, Pitch('j'), score.Notes[0].Pitch)
	assert.Equal(t, Pitch('k'), score.Notes[1].Pitch)
	assert.Equal(t, Pitch('l'), score.Notes[2].Pitch)
	assert.Equal(t, 0, score.Notes[0].Start)
	assert.Equal(t, 32, score.Notes[1].Start)
	assert.Equal(t, 64, score.Notes[2].Start)
	assert.Equal(t, 32, score.Notes[2].Duration)

	// the triple takes 96 ticks, then two sixteenths
	assert.Equal(t, 96, score.Notes[3].Start)
	assert.Equal(t, 16, score.Notes[3].Duration)
	assert.Equal(t, 112, score.Notes[4].Start)
}

func TestParseExplicitBeams(t *testing.T) {
	score := parseSource(t, `\midifyable
\begin{music}
\generalmeter{\meterfrac44}
\startpiece
\notes\ibu0j0\qb0{j}\qbp0{k}\tbu0\qb0{l}\en
\endpiece`)

	require.Len(t, score.Notes, 3)
	assert.Equal(t, 32, score.Notes[0].Duration)
	assert.Equal(t, 48, score.Notes[1].Duration, "qbp is dotted")
	assert.Equal(t, 32, score.Notes[1].Start)
	assert.Equal(t, 80, score.Notes[2].Start)
}

func TestParseRepeatGap(t *testing.T) {
	score := parseSource(t, `\midifyable
\begin{music}
\generalmeter{\meterfrac44}
\startpiece
\notes\ql{j}\en\leftrepeat\notes\ql{k}\en
\endpiece`)

	require.Len(t, score.Notes, 2)
	assert.Equal(t, 64+1024, score.Notes[1].Start)
}

func TestParseSkipsUnknownCommands(t *testing.T) {
	score := parseSource(t, `\midifyable
\begin{music}
\generalmeter{\meterfrac44}
\startpiece
\notes\slur{x}\zchar{weird}\ql{j}\sk\en
\endpiece`)

	require.Len(t, score.Notes, 1)
	assert.Equal(t, 0, score.Notes[0].Start)
}

func TestParseCommentsAndSpaces(t *testing.T) {
	score := parseSource(t, `\midifyable
\begin{music}
\generalmeter{\meterfrac44} % three four would be nicer
\startpiece
\notes \ql{j} \en
\endpiece`)

	require.Len(t, score.Notes, 1)
}
