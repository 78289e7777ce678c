package segment

import (
	"strings"
	"testing"

	"github.com/podforge/podforge/pkg/podcast"
)

func TestSplit_AlternatingSpeakers(t *testing.T) {
	transcript := "HOST: Welcome to the show.\nGUEST: Glad to be here.\nHOST: Let's dive in."

	got := New().Split(transcript)

	want := []podcast.TranscriptSegment{
		{Role: podcast.RoleHost, Text: "Welcome to the show."},
		{Role: podcast.RoleGuest, Text: "Glad to be here."},
		{Role: podcast.RoleHost, Text: "Let's dive in."},
	}
	assertSegments(t, got, want)
}

func TestSplit_MultiLineTurns(t *testing.T) {
	transcript := "HOST: First line.\nStill the host talking.\n\nGUEST: Reply."

	got := New().Split(transcript)

	want := []podcast.TranscriptSegment{
		{Role: podcast.RoleHost, Text: "First line.\nStill the host talking."},
		{Role: podcast.RoleGuest, Text: "Reply."},
	}
	assertSegments(t, got, want)
}

func TestSplit_NoMarkers(t *testing.T) {
	transcript := "Just a narrated monologue.\nNo speaker markers anywhere."

	got := New().Split(transcript)
	if len(got) != 1 {
		t.Fatalf("segments = %d, want 1", len(got))
	}
	if got[0].Role != podcast.RoleHost {
		t.Errorf("role = %q, want host (default)", got[0].Role)
	}
	if got[0].Text != transcript {
		t.Errorf("text = %q, want full transcript", got[0].Text)
	}
}

func TestSplit_TextBeforeFirstMarker(t *testing.T) {
	transcript := "Opening narration.\nGUEST: Hello."

	got := New().Split(transcript)

	want := []podcast.TranscriptSegment{
		{Role: podcast.RoleHost, Text: "Opening narration."},
		{Role: podcast.RoleGuest, Text: "Hello."},
	}
	assertSegments(t, got, want)
}

func TestSplit_UnknownMarkerIsPlainText(t *testing.T) {
	transcript := "HOST: Hi.\nNARRATOR: not a real marker.\nGUEST: Bye."

	got := New().Split(transcript)

	want := []podcast.TranscriptSegment{
		{Role: podcast.RoleHost, Text: "Hi.\nNARRATOR: not a real marker."},
		{Role: podcast.RoleGuest, Text: "Bye."},
	}
	assertSegments(t, got, want)
}

func TestSplit_CaseInsensitiveAndIndented(t *testing.T) {
	transcript := "host: lower.\n  Guest: indented mixed case."

	got := New().Split(transcript)

	want := []podcast.TranscriptSegment{
		{Role: podcast.RoleHost, Text: "lower."},
		{Role: podcast.RoleGuest, Text: "indented mixed case."},
	}
	assertSegments(t, got, want)
}

func TestSplit_ConsecutiveSameRoleStaySeparate(t *testing.T) {
	transcript := "HOST: First turn.\nHOST: Second turn."

	got := New().Split(transcript)
	if len(got) != 2 {
		t.Fatalf("segments = %d, want 2 (turn boundaries preserved)", len(got))
	}
	for i, seg := range got {
		if seg.Role != podcast.RoleHost {
			t.Errorf("segment %d role = %q, want host", i, seg.Role)
		}
	}
}

func TestSplit_Empty(t *testing.T) {
	if got := New().Split(""); len(got) != 0 {
		t.Errorf("segments = %d, want 0", len(got))
	}
	if got := New().Split("   \n\n  "); len(got) != 0 {
		t.Errorf("whitespace-only segments = %d, want 0", len(got))
	}
}

func TestSplit_Idempotent(t *testing.T) {
	transcript := "HOST: A.\nGUEST: B."
	s := New()
	first := s.Split(transcript)
	second := s.Split(transcript)
	assertSegments(t, second, first)
}

func TestSplit_CustomMarkerAndDefaultRole(t *testing.T) {
	s := New(
		WithMarker("INTERVIEWER", podcast.RoleHost),
		WithDefaultRole(podcast.RoleGuest),
	)
	got := s.Split("Preamble.\nINTERVIEWER: Question?")

	want := []podcast.TranscriptSegment{
		{Role: podcast.RoleGuest, Text: "Preamble."},
		{Role: podcast.RoleHost, Text: "Question?"},
	}
	assertSegments(t, got, want)
}

// assertSegments compares segment slices, normalising nothing: order, role,
// and text must all match.
func assertSegments(t *testing.T, got, want []podcast.TranscriptSegment) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("segments = %d, want %d\ngot: %s", len(got), len(want), dump(got))
	}
	for i := range want {
		if got[i].Role != want[i].Role {
			t.Errorf("segment %d role = %q, want %q", i, got[i].Role, want[i].Role)
		}
		if got[i].Text != want[i].Text {
			t.Errorf("segment %d text = %q, want %q", i, got[i].Text, want[i].Text)
		}
	}
}

func dump(segs []podcast.TranscriptSegment) string {
	var sb strings.Builder
	for _, s := range segs {
		sb.WriteString(string(s.Role))
		sb.WriteString(": ")
		sb.WriteString(s.Text)
		sb.WriteString(" | ")
	}
	return sb.String()
}
