package musixtex

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// ErrNotMidifyable is returned for sources without the \midifyable marker.
var ErrNotMidifyable = eris.New(`source is not marked \midifyable`)

// Midifyable reports whether the source opted in to MIDI conversion.
func Midifyable(src string) bool {
	return strings.Contains(src, `\midifyable`)
}

// Score is the playable content of a single MusixTeX source.
type Score struct {
	MeterNum  int
	MeterDen  int
	Signature int
	Notes     []Note
}

var (
	commentRe   = regexp.MustCompile(`(%.*)?\n *`)
	meterRe     = regexp.MustCompile(`\\generalmeter\{\\meterfrac(\d)(\d)\}`)
	signatureRe = regexp.MustCompile(`\\generalsignature\{?(-?\d)`)
	commandRe   = regexp.MustCompile(`[a-zA-Z]+`)
)

// barCommands reset the accidentals accumulated within the current bar.
var barCommands = map[string]bool{
	"":         true,
	"notes":    true,
	"notesp":   true,
	"nnotes":   true,
	"nnnotes":  true,
	"en":       true,
	"xbar":     true,
	"alaligne": true,
}

// noteTicks lists the single-note commands and their durations. MusixTeX
// distinguishes stem direction (l/u) and auto (a) variants, the trailing p
// marks a dotted note.
var noteTicks = map[string]int{
	"cl": 32, "cu": 32, "ca": 32,
	"clp": 48, "cup": 48, "cap": 48,
	"ql": 64, "qu": 64, "qa": 64,
	"qlp": 96, "qup": 96, "qap": 96,
	"hl": 128, "hu": 128, "ha": 128,
	"hlp": 192, "hup": 192, "hap": 192,
	"wh": 256,
}

type beamGroup struct {
	count int
	ticks int
}

// beamGroups are the combined beam commands that carry their notes as
// arguments.
var beamGroups = map[string]beamGroup{
	"Dqbl": {2, 32}, "Dqbu": {2, 32},
	"Tqbl": {3, 32}, "Tqbu": {3, 32},
	"Qqbl": {4, 32}, "Qqbu": {4, 32},
	"Dqbbl": {2, 16}, "Dqbbu": {2, 16},
	"Tqbbl": {3, 16}, "Tqbbu": {3, 16},
	"Qqbbl": {4, 16}, "Qqbbu": {4, 16},
}

// beamStarts open an explicit beam and determine the duration of the qb
// notes inside it.
var beamStarts = map[string]int{
	"ibu": 32, "ibl": 32, "Ibu": 32, "Ibl": 32, "tbu": 32, "tbl": 32,
	"ibbu": 16, "ibbl": 16, "Ibbu": 16, "Ibbl": 16,
	"nbbu": 16, "nbbl": 16, "tbbu": 16, "tbbl": 16,
}

// ignoredCommands have no effect on timing or pitch.
var ignoredCommands = map[string]bool{
	"slur": true, "tslur": true, "isluru": true, "islurd": true,
	"sk": true, "hsk": true,
}

// parseArgs splits a command's argument string into single characters and
// brace-delimited groups. Nested braces are flattened into their group.
func parseArgs(s string) []string {
	args := []string{}
	current := strings.Builder{}
	depth := 0

	for _, c := range s {
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				args = append(args, current.String())
				current.Reset()
			}
		default:
			if depth > 0 {
				current.WriteRune(c)
			} else {
				args = append(args, string(c))
			}
		}
	}

	return args
}

// Parse extracts the Score from a MusixTeX source. Unknown notation
// commands are logged and skipped.
func Parse(ctx context.Context, src string) (*Score, error) {
	if !Midifyable(src) {
		return nil, ErrNotMidifyable
	}

	// drop comments and join continuation lines
	content := commentRe.ReplaceAllString(src, "")

	begin := strings.Index(content, `\begin{music}`)
	if begin < 0 {
		return nil, eris.New(`no \begin{music} block found`)
	}
	content = content[begin+len(`\begin{music}`):]

	end := strings.Index(content, `\endpiece`)
	if end < 0 {
		return nil, eris.New(`no \endpiece found`)
	}
	content = content[:end]

	content = strings.ReplaceAll(content, " ", "")
	content = strings.ReplaceAll(content, `\generalmeter{\allabreve}`, `\generalmeter{\meterfrac44}`)

	score := &Score{}

	meter := meterRe.FindStringSubmatch(content)
	if meter == nil {
		return nil, eris.New(`no \generalmeter found`)
	}
	score.MeterNum, _ = strconv.Atoi(meter[1])
	score.MeterDen, _ = strconv.Atoi(meter[2])

	// only the first digit of the signature counts; the sources never go
	// beyond 7 sharps or flats anyway
	if sig := signatureRe.FindStringSubmatch(content); sig != nil {
		score.Signature, _ = strconv.Atoi(sig[1])
	}
	global := signatureAccidentals(score.Signature)

	start := strings.Index(content, `\startpiece`)
	if start < 0 {
		return nil, eris.New(`no \startpiece found`)
	}
	content = content[start+len(`\startpiece`):]

	logger := zerolog.Ctx(ctx)
	deltatime := 0
	local := Accidentals{}
	beamNoteTicks := 0

	appendNote := func(arg string, start, ticks int) error {
		pitch, err := parsePitch(arg)
		if err != nil {
			return err
		}

		score.Notes = append(score.Notes, Note{
			Pitch:       pitch,
			Start:       start,
			Duration:    ticks,
			Accidentals: mergeAccidentals(global, local),
		})
		return nil
	}

	for _, element := range strings.Split(content, `\`) {
		if barCommands[strings.ToLower(element)] {
			local = Accidentals{}
			continue
		}

		name := commandRe.FindString(element)
		if name == "" {
			logger.Warn().Str("element", element).Msg("notation element without a command name")
			continue
		}
		args := parseArgs(element[len(name):])

		needArgs := func(n int) error {
			if len(args) < n {
				return eris.Errorf(`\%s is missing arguments (got %d, want %d)`, name, len(args), n)
			}
			return nil
		}

		switch {
		case noteTicks[name] > 0:
			if err := needArgs(1); err != nil {
				return nil, err
			}
			if err := appendNote(args[0], deltatime, noteTicks[name]); err != nil {
				return nil, err
			}
			deltatime += noteTicks[name]

		case name == "sh" || name == "fl" || name == "na":
			if err := needArgs(1); err != nil {
				return nil, err
			}
			pitch, err := parsePitch(args[0])
			if err != nil {
				return nil, err
			}
			switch name {
			case "sh":
				local.Sharps = append(local.Sharps, pitch)
			case "fl":
				local.Flats = append(local.Flats, pitch)
			case "na":
				local.Naturals = append(local.Naturals, pitch)
			}

		case beamGroups[name].count > 0:
			group := beamGroups[name]
			if len(args) == 1 {
				args = parseArgs(args[0])
			}
			if err := needArgs(group.count); err != nil {
				return nil, err
			}
			for i := 0; i < group.count; i++ {
				if err := appendNote(args[i], deltatime+i*group.ticks, group.ticks); err != nil {
					return nil, err
				}
			}
			deltatime += group.count * group.ticks

		case beamStarts[name] > 0:
			beamNoteTicks = beamStarts[name]

		case name == "qb":
			if err := needArgs(2); err != nil {
				return nil, err
			}
			if err := appendNote(args[1], deltatime, beamNoteTicks); err != nil {
				return nil, err
			}
			deltatime += beamNoteTicks

		case name == "qbp":
			if err := needArgs(2); err != nil {
				return nil, err
			}
			ticks := beamNoteTicks + beamNoteTicks/2
			if err := appendNote(args[1], deltatime, ticks); err != nil {
				return nil, err
			}
			deltatime += ticks

		case strings.Contains(name, "repeat"):
			deltatime += 1024

		case ignoredCommands[name]:

		default:
			logger.Warn().Str("element", element).Msg("unknown notation element")
		}
	}

	return score, nil
}
