package assessment

import (
	"fmt"
	"strings"
)

// buildAssessmentPrompt generates the condition grading prompt sent with the photos
func buildAssessmentPrompt(description string) string {
	description = strings.TrimSpace(description)
	if description == "" {
		description = "(no description provided)"
	}

	return fmt.Sprintf(`You are an experienced used-book buyer grading a donated book for a community book swap.

You will receive one or more labeled photos of the same physical book (%s) and the donor's description.

DONOR DESCRIPTION:
%s

INSTRUCTIONS:
1. Score each visual feature from 0 (destroyed) to 10 (like new), as integers:
   - cover_condition: wear, creases, tears and fading on the front and back cover
   - spine_condition: cracks, splits, leaning and fading on the spine
   - pages_condition: yellowing, stains, folded corners and water damage on the pages
   - binding_integrity: how firmly pages are attached
   - cleanliness: dirt, odor indicators, stickers and residue
2. Look for writing, underlining or highlighting inside the book:
   - has_annotations: true if any is visible
   - annotation_severity: "none", "minor" (a few marks or a name inscription) or "heavy" (extensive notes or highlighting)
3. is_complete: false if any pages appear to be missing or torn out
4. should_reject: true only for severe damage (mold, water-logged pages, detached covers, broken binding)
5. Do not guess beyond what the photos show. If a feature is not visible, score it conservatively.

OUTPUT FORMAT:
Respond with ONLY a JSON object:

{
  "cover_condition": 0,
  "spine_condition": 0,
  "pages_condition": 0,
  "binding_integrity": 0,
  "cleanliness": 0,
  "has_annotations": false,
  "annotation_severity": "none",
  "is_complete": true,
  "should_reject": false,
  "justification": "One or two sentences a donor can read explaining the grade"
}`,
		strings.Join(PhotoLabels, ", "),
		description,
	)
}
