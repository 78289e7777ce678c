package script

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/podforge/podforge/pkg/podcast"
)

// outlineResponse is the JSON structure the planner expects from the model.
type outlineResponse struct {
	Title                 string `json:"title"`
	Description           string `json:"description"`
	CoverImageDescription string `json:"cover_image_description"`
	Sections              []struct {
		EstimatedSeconds  int    `json:"estimated_seconds"`
		Description       string `json:"description"`
		SoundEffectPrompt string `json:"sound_effect_prompt"`
	} `json:"sections"`
}

// sectionResponse is the JSON structure the expander expects from the model.
type sectionResponse struct {
	EstimatedSeconds int    `json:"estimated_seconds"`
	Transcript       string `json:"transcript"`
}

// parseOutline validates the model output against the outline schema. Any
// mismatch is an error so the retry layer can ask again.
func parseOutline(content string) (*podcast.Outline, error) {
	var r outlineResponse
	if err := json.Unmarshal([]byte(stripMarkdown(content)), &r); err != nil {
		return nil, fmt.Errorf("script: parse outline: %w", err)
	}

	if r.Title == "" {
		return nil, fmt.Errorf("script: outline missing title")
	}
	if len(r.Sections) == 0 {
		return nil, fmt.Errorf("script: outline has no sections")
	}

	out := &podcast.Outline{
		Title:                 r.Title,
		Description:           r.Description,
		CoverImageDescription: r.CoverImageDescription,
		Sections:              make([]podcast.OutlineSection, 0, len(r.Sections)),
	}
	for i, s := range r.Sections {
		if s.EstimatedSeconds <= 0 {
			return nil, fmt.Errorf("script: outline section %d has non-positive duration %d", i+1, s.EstimatedSeconds)
		}
		if strings.TrimSpace(s.Description) == "" {
			return nil, fmt.Errorf("script: outline section %d has empty description", i+1)
		}
		out.Sections = append(out.Sections, podcast.OutlineSection{
			EstimatedSeconds:  s.EstimatedSeconds,
			Description:       s.Description,
			SoundEffectPrompt: strings.TrimSpace(s.SoundEffectPrompt),
		})
	}
	return out, nil
}

// parseSection validates the model output against the section schema.
func parseSection(content string) (*podcast.Section, error) {
	var r sectionResponse
	if err := json.Unmarshal([]byte(stripMarkdown(content)), &r); err != nil {
		return nil, fmt.Errorf("script: parse section: %w", err)
	}

	if strings.TrimSpace(r.Transcript) == "" {
		return nil, fmt.Errorf("script: section has empty transcript")
	}
	if r.EstimatedSeconds <= 0 {
		return nil, fmt.Errorf("script: section has non-positive duration %d", r.EstimatedSeconds)
	}

	return &podcast.Section{
		EstimatedSeconds: r.EstimatedSeconds,
		Transcript:       strings.TrimSpace(r.Transcript),
	}, nil
}

// stripMarkdown removes optional markdown code fences (```json ... ```) that
// some models prepend and append to JSON output.
func stripMarkdown(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"```json", "```"} {
		if after, ok := strings.CutPrefix(s, prefix); ok {
			s = after
			break
		}
	}
	if before, ok := strings.CutSuffix(s, "```"); ok {
		s = before
	}
	return strings.TrimSpace(s)
}
