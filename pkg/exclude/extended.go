// Extended gcode policies: exclude, first, last and merge handling for
// commands seen inside an excluded span.
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package exclude

import (
	"strings"

	"excluderegion-go/pkg/gcode"
	"excluderegion-go/pkg/settings"
)

// pendingEntry buffers one command code awaiting flush. Merge entries
// accumulate parameters; first/last entries hold a full command string.
type pendingEntry struct {
	code   string
	merged []gcode.Param
	raw    string
}

// PendingBuffer stores commands deferred until the excluded span ends,
// in last-touched order (a merged code moves to the end when it is seen
// again, matching the order the printer would have applied them).
type PendingBuffer struct {
	entries []*pendingEntry
}

func (b *PendingBuffer) find(code string) (int, *pendingEntry) {
	for i, e := range b.entries {
		if e.code == code {
			return i, e
		}
	}
	return -1, nil
}

func (b *PendingBuffer) remove(index int) *pendingEntry {
	e := b.entries[index]
	b.entries = append(b.entries[:index], b.entries[index+1:]...)
	return e
}

// RecordMerge folds the command's parameters into the accumulator for its
// code. Later values win per parameter letter; letters seen only earlier
// are retained.
func (b *PendingBuffer) RecordMerge(code string, params []gcode.Param) {
	index, entry := b.find(code)
	if entry == nil {
		entry = &pendingEntry{code: code}
	} else {
		b.remove(index)
	}
	b.entries = append(b.entries, entry)

	for _, p := range params {
		replaced := false
		for i := range entry.merged {
			if entry.merged[i].Letter == p.Letter {
				entry.merged[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			entry.merged = append(entry.merged, p)
		}
	}
}

// RecordFirst buffers the command only if its code has not been seen in
// this span.
func (b *PendingBuffer) RecordFirst(code, raw string) {
	if _, entry := b.find(code); entry != nil {
		return
	}
	b.entries = append(b.entries, &pendingEntry{code: code, raw: raw})
}

// RecordLast buffers the command, replacing any earlier occurrence of the
// same code and moving it to the end.
func (b *PendingBuffer) RecordLast(code, raw string) {
	if index, _ := b.find(code); index >= 0 {
		b.remove(index)
	}
	b.entries = append(b.entries, &pendingEntry{code: code, raw: raw})
}

// Flush returns the buffered commands in order and empties the buffer.
// Merge entries are rebuilt from their accumulated parameters.
func (b *PendingBuffer) Flush() []string {
	cmds := make([]string, 0, len(b.entries))
	for _, e := range b.entries {
		if e.raw != "" {
			cmds = append(cmds, e.raw)
			continue
		}
		var sb strings.Builder
		sb.WriteString(e.code)
		for _, p := range e.merged {
			sb.WriteByte(' ')
			sb.WriteByte(p.Letter)
			if p.HasValue {
				sb.WriteString(gcode.FormatFloat(p.Value))
			}
		}
		cmds = append(cmds, sb.String())
	}
	b.entries = nil
	return cmds
}

// Clear discards the buffer without emitting anything.
func (b *PendingBuffer) Clear() {
	b.entries = nil
}

// Len returns the number of buffered command codes.
func (b *PendingBuffer) Len() int {
	return len(b.entries)
}

// extendedRules indexes the configured rule table by command code.
func extendedRules(entries []settings.ExtendedGcode) map[string]settings.ExcludeMode {
	rules := make(map[string]settings.ExcludeMode, len(entries))
	for _, e := range entries {
		rules[strings.ToUpper(e.Gcode)] = e.Mode
	}
	return rules
}
