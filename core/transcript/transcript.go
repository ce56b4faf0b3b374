// Package transcript records what was said during a session as an ordered,
// append-only list of speaker-tagged fragments.
package transcript

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Speaker string

const (
	SpeakerUser   Speaker = "user"
	SpeakerAvatar Speaker = "avatar"
)

type Phase string

const (
	// PhasePartial entries are fragments of a turn still in progress.
	PhasePartial Phase = "partial"
	// PhaseFinal entries hold the complete message of a finished turn.
	PhaseFinal Phase = "final"
)

type Entry struct {
	ID      string
	Speaker Speaker
	Phase   Phase
	Text    string
	At      time.Time
}

// Message is one turn of the conversation assembled from its entries.
type Message struct {
	Speaker Speaker
	Text    string
	Final   bool
}

// Log is safe for concurrent use.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	// pending holds the partial fragments of the turn currently open for
	// each speaker.
	pending map[Speaker][]string
}

func NewLog() *Log {
	return &Log{pending: map[Speaker][]string{}}
}

// AppendPartial records a fragment of the speaker's current turn.
func (l *Log) AppendPartial(speaker Speaker, text string) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pending[speaker] = append(l.pending[speaker], text)
	return l.appendLocked(speaker, PhasePartial, text)
}

// AppendFinal closes the speaker's current turn. When text is empty the
// final entry is assembled from the turn's partial fragments. It reports
// false and appends nothing when there is no text at all.
func (l *Log) AppendFinal(speaker Speaker, text string) (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if text == "" {
		text = joinFragments(l.pending[speaker])
	}
	delete(l.pending, speaker)

	if text == "" {
		return Entry{}, false
	}
	return l.appendLocked(speaker, PhaseFinal, text), true
}

func (l *Log) appendLocked(speaker Speaker, phase Phase, text string) Entry {
	entry := Entry{
		ID:      uuid.NewString(),
		Speaker: speaker,
		Phase:   phase,
		Text:    text,
		At:      time.Now(),
	}
	l.entries = append(l.entries, entry)
	return entry
}

func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = nil
	l.pending = map[Speaker][]string{}
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Entries returns a point-in-time copy of the log.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Entry(nil), l.entries...)
}

// Messages folds the log into one message per turn. A turn still in
// progress is returned with Final unset and the fragments joined so far.
func (l *Log) Messages() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var (
		messages  []Message
		fragments []string
		current   Speaker
	)
	flush := func() {
		if len(fragments) > 0 {
			messages = append(messages, Message{Speaker: current, Text: joinFragments(fragments)})
			fragments = nil
		}
	}

	for _, entry := range l.entries {
		if entry.Speaker != current {
			flush()
			current = entry.Speaker
		}

		switch entry.Phase {
		case PhasePartial:
			fragments = append(fragments, entry.Text)
		case PhaseFinal:
			fragments = nil
			messages = append(messages, Message{Speaker: entry.Speaker, Text: entry.Text, Final: true})
		}
	}
	flush()

	return messages
}

func joinFragments(fragments []string) string {
	var b strings.Builder
	for _, fragment := range fragments {
		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(fragment)
	}
	return b.String()
}
