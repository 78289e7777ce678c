// Package segment parses an assembled transcript into an ordered sequence of
// speaker-tagged segments.
//
// The script format encodes speaker turns as line-leading role markers
// ("HOST:", "GUEST:"). The segmenter groups all text up to the next marker
// under the preceding role. It is a pure parse: it never fails, and malformed
// or unknown markers are treated as plain text continuation of the current
// segment. A transcript with no markers at all yields a single segment under
// the default role.
package segment

import (
	"strings"

	"github.com/podforge/podforge/pkg/podcast"
)

// Splitter parses transcripts according to a marker configuration.
// The zero value is not usable; call New.
type Splitter struct {
	markers     map[string]podcast.Role
	defaultRole podcast.Role
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithDefaultRole sets the role assigned to text before the first marker and
// to marker-free transcripts. Default: podcast.RoleHost.
func WithDefaultRole(r podcast.Role) Option {
	return func(s *Splitter) {
		s.defaultRole = r
	}
}

// WithMarker adds or overrides a marker label for a role. Labels are matched
// case-insensitively at the start of a line, followed by ":".
func WithMarker(label string, r podcast.Role) Option {
	return func(s *Splitter) {
		s.markers[strings.ToUpper(label)] = r
	}
}

// New returns a Splitter recognising the default "HOST:" and "GUEST:"
// markers.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		markers: map[string]podcast.Role{
			"HOST":  podcast.RoleHost,
			"GUEST": podcast.RoleGuest,
		},
		defaultRole: podcast.RoleHost,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Split parses transcript into ordered segments. The concatenation of all
// segment texts reproduces the transcript's spoken content modulo the
// stripped markers and surrounding whitespace. Consecutive turns by the same
// role remain separate segments, preserving turn boundaries.
func (s *Splitter) Split(transcript string) []podcast.TranscriptSegment {
	var segments []podcast.TranscriptSegment

	role := s.defaultRole
	var buf strings.Builder

	flush := func() {
		text := strings.TrimSpace(buf.String())
		buf.Reset()
		if text != "" {
			segments = append(segments, podcast.TranscriptSegment{Role: role, Text: text})
		}
	}

	for _, line := range strings.Split(transcript, "\n") {
		if r, rest, ok := s.matchMarker(line); ok {
			flush()
			role = r
			buf.WriteString(rest)
			buf.WriteByte('\n')
			continue
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	flush()

	return segments
}

// matchMarker reports whether line starts with a recognised role marker and
// returns the role and the remainder of the line after the separator.
func (s *Splitter) matchMarker(line string) (podcast.Role, string, bool) {
	trimmed := strings.TrimLeft(line, " \t")
	label, rest, ok := strings.Cut(trimmed, ":")
	if !ok {
		return "", "", false
	}
	role, ok := s.markers[strings.ToUpper(strings.TrimSpace(label))]
	if !ok {
		return "", "", false
	}
	return role, strings.TrimSpace(rest), true
}
