package moments

import "fmt"

// SystemPrompt is the fixed role sent with every extraction request.
const SystemPrompt = "You are an expert social media analyst who identifies viral video moments. " +
	"You understand what makes content shareable and engaging across platforms like " +
	"TikTok, Instagram Reels, and YouTube Shorts."

const promptTemplate = `
Analyze this YouTube video transcript and identify the TOP 5 most viral moments that would make great short clips.

VIDEO TRANSCRIPT WITH TIMESTAMPS:
%s

CLIP REQUIREMENTS:
- Each clip should be exactly %d seconds long
- Focus on moments with high engagement potential (humor, shock, emotion, valuable insights)
- Consider viral elements: hooks, punchlines, dramatic reveals, strong emotions, quotable moments

For each viral moment, provide:
1. START_TIME and END_TIME (in seconds) for a %d-second clip
2. VIRALITY_SCORE (0.0 to 1.0 scale where 1.0 = extremely viral)
3. GRADE (A+, A, A-, B+, B, B-, C+, C, C-, D+, D, F)
4. JUSTIFICATION (why this moment is viral - specific reasons)
5. EMOTIONAL_KEYWORDS (3-5 words describing the emotion/hook)
6. URGENCY_INDICATORS (what makes people want to share immediately)

Respond ONLY with a single valid JSON object. No markdown, no code fences, no text before or after it:
{
  "viral_moments": [
    {
      "start_timestamp": 45.2,
      "end_timestamp": 75.2,
      "virality_score": 0.92,
      "grade": "A",
      "justification": "Unexpected plot twist with strong emotional reaction that creates shareable moment",
      "emotional_keywords": ["shocking", "unexpected", "emotional", "relatable"],
      "urgency_indicators": ["plot twist", "strong reaction", "quotable line"]
    }
  ]
}
`

// BuildPrompt embeds the formatted transcript and the target clip length into
// the extraction instructions.
func BuildPrompt(transcript string, clipDuration int) string {
	return fmt.Sprintf(promptTemplate, transcript, clipDuration, clipDuration)
}
