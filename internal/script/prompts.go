package script

import (
	"fmt"
	"strings"

	"github.com/podforge/podforge/pkg/podcast"
)

// Prompt construction for the outline planner and section expander. Both
// prompts demand a bare JSON object so responses can be validated against a
// strict schema; models that wrap output in markdown fences are tolerated by
// the parser, anything else is a schema failure.

const outlineSystemPrompt = `You are a podcast host planning an episode for your audience.

Respond with ONLY a JSON object in this exact format (no markdown, no prose):
{
  "title": "<episode title>",
  "description": "<episode description>",
  "cover_image_description": "<visual description of the episode cover image>",
  "sections": [
    {
      "estimated_seconds": <spoken duration estimate, integer>,
      "description": "<high-level content of this section>",
      "sound_effect_prompt": "<optional short sound effect or music sting to play going into this section, or empty string>"
    }
  ]
}`

const sectionSystemPrompt = `You are a podcast host writing the spoken transcript of an episode, one section at a time.

Write natural spoken language. When the episode format calls for two speakers, start each speaking turn on a new line prefixed with "HOST:" or "GUEST:". Do not include stage directions or sound effect descriptions in the transcript.

Respond with ONLY a JSON object in this exact format (no markdown, no prose):
{
  "estimated_seconds": <your estimate of the reading time of the transcript you wrote, integer>,
  "transcript": "<the full spoken text for this section>"
}`

// buildOutlinePrompt renders the planner's user message.
func buildOutlinePrompt(req PlanRequest) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Produce a podcast episode on the topic: %s\n", req.Topic)
	fmt.Fprintf(&sb, "The episode should be about %d minutes long.\n\n", req.TargetMinutes)

	sb.WriteString("Write an outline of the episode, consisting of several sections. ")
	sb.WriteString("Each section will be read one after the other as one continuous transcript.\n")
	fmt.Fprintf(&sb, "Aim for roughly %d sections of 2-4 minutes each.\n", max(1, req.TargetMinutes/3))

	if req.Style != "" {
		fmt.Fprintf(&sb, "Format: %s.\n", req.Style)
	}
	if req.Tone != "" {
		fmt.Fprintf(&sb, "Tone: %s.\n", req.Tone)
	}
	if req.KeyPoints != "" {
		fmt.Fprintf(&sb, "\nMake sure to cover these key points:\n%s\n", req.KeyPoints)
	}

	return sb.String()
}

// buildSectionPrompt renders the expander's user message. It carries the full
// outline for global context, the transcript written so far for continuity,
// and the remaining time budget so pacing self-corrects across sections.
func buildSectionPrompt(
	outline *podcast.Outline,
	spec podcast.OutlineSection,
	transcriptSoFar string,
	elapsedMinutes float64,
	targetMinutes int,
) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are writing the episode %q.\n", outline.Title)
	fmt.Fprintf(&sb, "The episode is about: %s\n\n", outline.Description)

	sb.WriteString("The full episode outline is:\n")
	for i, s := range outline.Sections {
		fmt.Fprintf(&sb, "%d. (%ds) %s\n", i+1, s.EstimatedSeconds, s.Description)
	}

	if transcriptSoFar != "" {
		fmt.Fprintf(&sb, "\nThe transcript so far:\n%s\n", transcriptSoFar)
		sb.WriteString("\nContinue seamlessly from the transcript above without repeating it.\n")
	}

	remaining := float64(targetMinutes) - elapsedMinutes
	fmt.Fprintf(&sb, "\n%.1f of %d minutes have been used; about %.1f minutes remain for the rest of the episode.\n",
		elapsedMinutes, targetMinutes, remaining)

	fmt.Fprintf(&sb, "\nNow write the full spoken transcript for the section: %s\n", spec.Description)
	fmt.Fprintf(&sb, "It should take about %d seconds to read aloud.\n", spec.EstimatedSeconds)
	sb.WriteString("It will be concatenated with the other sections to form the full episode transcript.\n")

	return sb.String()
}
