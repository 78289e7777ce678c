// Package podcast defines the shared types used across all podforge packages.
//
// These types form the lingua franca between the script generation stages, the
// speech synthesis stage, and the timeline assembler. Each package defines its
// own domain types, but the cross-cutting script data structures live here to
// avoid circular imports.
package podcast

// OutlineSection is the planner's specification for one section of the
// episode. It is immutable once produced.
type OutlineSection struct {
	// EstimatedSeconds is the planner's rough estimate of spoken duration.
	// Always > 0 for a valid outline.
	EstimatedSeconds int

	// Description summarises the content to cover in this section.
	Description string

	// SoundEffectPrompt optionally describes a short sound effect or music
	// sting to play leading into this section. Empty means no effect.
	SoundEffectPrompt string
}

// Outline is the high-level episode plan produced before any spoken text is
// written. Created once per generation run and never mutated; section order
// is playback order.
type Outline struct {
	// Title is the episode title.
	Title string

	// Description is the episode description.
	Description string

	// CoverImageDescription is a visual description of the episode cover
	// image, suitable for feeding to an image generator. Informational only.
	CoverImageDescription string

	// Sections is the ordered list of section specifications.
	Sections []OutlineSection
}

// Section is one unit of continuous spoken content produced by the expander.
// EstimatedSeconds is the model's own reading-time estimate for the produced
// text, which may differ from the outline's estimate.
type Section struct {
	EstimatedSeconds int
	Transcript       string
}

// Podcast is the accumulated script artifact. It is mutated only by the
// script assembler, strictly append-only and in outline order, then consumed
// read-only by the audio stages.
type Podcast struct {
	Title       string
	Description string

	// OutlineSections preserves the planner's section specs in order.
	OutlineSections []OutlineSection

	// Transcript is the full spoken text, grown by appending each section's
	// transcript separated by a blank line. Never reordered or rewritten.
	Transcript string

	// ElapsedMinutes is the running sum of Sections[i].EstimatedSeconds/60.
	ElapsedMinutes float64

	// Sections holds the expanded sections, index-aligned with OutlineSections.
	Sections []Section
}

// AppendSection appends s to the podcast, maintaining the transcript and the
// elapsed-minutes running total.
func (p *Podcast) AppendSection(s Section) {
	if p.Transcript != "" {
		p.Transcript += "\n\n"
	}
	p.Transcript += s.Transcript
	p.ElapsedMinutes += float64(s.EstimatedSeconds) / 60
	p.Sections = append(p.Sections, s)
}

// Role identifies which speaker a transcript segment belongs to.
type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

// TranscriptSegment is a single speaker-tagged span of transcript text.
// Segments are derived from Podcast.Transcript on demand, never stored.
type TranscriptSegment struct {
	Role Role
	Text string
}
