package transcript

import "testing"

func TestAppendPartialRecordsEntry(t *testing.T) {
	log := NewLog()

	entry := log.AppendPartial(SpeakerAvatar, "Hello")

	entries := log.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	if entries[0] != entry {
		t.Fatalf("expected returned entry to match stored entry")
	}
	if entry.Speaker != SpeakerAvatar || entry.Phase != PhasePartial || entry.Text != "Hello" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if entry.ID == "" || entry.At.IsZero() {
		t.Fatalf("expected id and timestamp to be set, got %+v", entry)
	}
}

func TestAppendFinalAssemblesPartials(t *testing.T) {
	log := NewLog()
	log.AppendPartial(SpeakerUser, "what is")
	log.AppendPartial(SpeakerUser, " Kruger ")

	entry, ok := log.AppendFinal(SpeakerUser, "")
	if !ok {
		t.Fatalf("expected final entry to be appended")
	}
	if entry.Text != "what is Kruger" || entry.Phase != PhaseFinal {
		t.Fatalf("unexpected final entry %+v", entry)
	}

	if _, ok := log.AppendFinal(SpeakerUser, ""); ok {
		t.Fatalf("expected empty turn to append nothing")
	}
	if got := log.Len(); got != 3 {
		t.Fatalf("expected 3 entries, got %d", got)
	}
}

func TestAppendFinalPrefersProvidedText(t *testing.T) {
	log := NewLog()
	log.AppendPartial(SpeakerAvatar, "Hel")

	entry, ok := log.AppendFinal(SpeakerAvatar, "Hello there")
	if !ok || entry.Text != "Hello there" {
		t.Fatalf("expected provided text to win, got %+v (ok=%t)", entry, ok)
	}
}

func TestMessagesFoldsTurns(t *testing.T) {
	log := NewLog()
	log.AppendPartial(SpeakerUser, "hi")
	log.AppendFinal(SpeakerUser, "")
	log.AppendPartial(SpeakerAvatar, "Hello,")
	log.AppendPartial(SpeakerAvatar, "welcome")

	messages := log.Messages()
	expected := []Message{
		{Speaker: SpeakerUser, Text: "hi", Final: true},
		{Speaker: SpeakerAvatar, Text: "Hello, welcome"},
	}
	if len(messages) != len(expected) {
		t.Fatalf("expected %d messages, got %+v", len(expected), messages)
	}
	for i := range expected {
		if messages[i] != expected[i] {
			t.Fatalf("message %d: expected %+v, got %+v", i, expected[i], messages[i])
		}
	}
}

func TestClearEmptiesLogAndPendingTurns(t *testing.T) {
	log := NewLog()
	log.AppendPartial(SpeakerAvatar, "left over")
	log.Clear()

	if log.Len() != 0 {
		t.Fatalf("expected empty log after clear")
	}
	if _, ok := log.AppendFinal(SpeakerAvatar, ""); ok {
		t.Fatalf("expected pending fragments to be dropped by clear")
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	log := NewLog()
	log.AppendPartial(SpeakerAvatar, "original")

	entries := log.Entries()
	entries[0].Text = "changed"

	if got := log.Entries()[0].Text; got != "original" {
		t.Fatalf("expected log to be unaffected by caller edits, got %q", got)
	}
}
