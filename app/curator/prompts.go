package curator

import (
	"fmt"
	"strings"

	"github.com/albot-dev/alchemy/app/config"
)

// PromptBuilder renders stage prompts from the static reference data. The
// reader profile is configuration, never hard-coded per call.
type PromptBuilder struct {
	profile config.Profile
	axes    []config.Axis
}

func NewPromptBuilder(profile config.Profile, axes []config.Axis) *PromptBuilder {
	return &PromptBuilder{profile: profile, axes: axes}
}

func (b *PromptBuilder) readerContext() string {
	var sb strings.Builder

	name := b.profile.Name
	if name == "" {
		name = "the reader"
	}

	fmt.Fprintf(&sb, "## WHO IS %s\n%s\n", strings.ToUpper(name), b.profile.Identity)

	writeFacts := func(header string, facts []string) {
		if len(facts) == 0 {
			return
		}
		fmt.Fprintf(&sb, "\n## %s\n", header)
		for _, f := range facts {
			fmt.Fprintf(&sb, "- %s\n", f)
		}
	}

	writeFacts("BACKGROUND", b.profile.Background)
	writeFacts("DAILY PRACTICE", b.profile.Practices)
	writeFacts("CORE BELIEFS", b.profile.Beliefs)
	writeFacts("WHAT THE READER NEEDS FROM THIS CURATION", b.profile.Needs)

	return sb.String()
}

func (b *PromptBuilder) axesText() string {
	lines := make([]string, 0, len(b.axes))
	for _, a := range b.axes {
		lines = append(lines, fmt.Sprintf("- Axis %d: %s — %s", a.ID, a.Name, a.Description))
	}
	return strings.Join(lines, "\n")
}

// Selector builds the first-stage prompt: pick the best articles, do not
// summarize. Exclusions are listed as strong negative signal only.
func (b *PromptBuilder) Selector(candidates []ContentItem, count int, excl Exclusions) string {
	var exclusionNote string
	if !excl.Empty() {
		var parts []string
		if len(excl.Axes) > 0 {
			parts = append(parts, "axes: "+strings.Join(excl.Axes, ", "))
		}
		if len(excl.Sources) > 0 {
			parts = append(parts, "sources: "+strings.Join(excl.Sources, ", "))
		}
		exclusionNote = fmt.Sprintf(
			"\nEXCLUDED TOPICS (the reader marked these as not interesting — treat as strong negative signal, but you may still pick from them if nothing else qualifies): %s\n",
			strings.Join(parts, "; "))
	}

	var list strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&list, "[%d] %s\nSource: %s (Tier %d)\nURL: %s\nPreview: %s\n\n",
			i+1, c.Title, c.Source, c.Tier, c.URL, truncateRunes(c.Preview, 500))
	}

	return fmt.Sprintf(`You are the SELECTOR agent — your ONLY job is to pick the best articles for the reader. Do NOT summarize, do NOT analyze. Just select.

%s

The axes of interest:
%s

Selection criteria (in priority order):
1. Paradigm-shifting: does it introduce a NEW concept or framework, or challenge an existing mental model?
2. Argument over information: does it carry a clear THESIS and reasoning, not just reporting?
3. Timeless over timely: will this perspective still matter 10 years from now?
4. Tier priority: Tier 1 beats Tier 2 beats Tier 3.
5. Axis diversity: cover different axes when alternatives exist, not all from one topic.
%s
ARTICLES:
%s
Select exactly %d articles. For each, explain in 1 sentence WHY you chose it.

Respond in JSON:
{
  "selected": [
    {
      "index": 1,
      "title": "article title",
      "source": "source name",
      "url": "https://...",
      "tier": 1,
      "axis_id": 1,
      "axis_name": "axis name",
      "selection_reason": "why this article stands out (1 sentence)",
      "content_preview": "paste the preview here for the next agent"
    }
  ]
}`, b.readerContext(), b.axesText(), exclusionNote, list.String(), count)
}

// Analyst builds the second-stage prompt: a three-point card per selected
// article, under anti-genericity constraints.
func (b *PromptBuilder) Analyst(selections []Selection) string {
	var detail strings.Builder
	for i, s := range selections {
		fmt.Fprintf(&detail, "Article %d: %s\nSource: %s\nURL: %s\nAxis: %s\nSelection reason: %s\nPreview: %s\n\n---\n\n",
			i+1, s.Title, s.Source, s.URL, s.AxisName, s.Reason, truncateRunes(s.Preview, 800))
	}

	return fmt.Sprintf(`You are the ANALYST agent — the articles are already selected; spend ALL your effort on deep, specific three-point cards.

%s

SELECTED ARTICLES:
%s
For EACH article, produce a card with three fields:

CRITICAL RULES:
- why_new: what SPECIFIC claim, evidence, or argument is genuinely new? Never restate the title or give a vague summary. 2 dense sentences.
- new_concept: extract ONE named concept, framework, or term. If the article names none explicitly, identify the implicit framework and give it a name yourself.
- why_read: connect DIRECTLY to one specific facet of the reader's situation described above. Pick the MOST relevant facet. Never produce a generic "this is important" statement. 2 sentences.

Respond in JSON:
{
  "analyzed": [
    {
      "title": "article title",
      "source": "source name",
      "url": "https://...",
      "read_time": "12 min",
      "axis_id": 1,
      "axis_name": "axis name",
      "why_new": "the concrete novelty, 2 sentences",
      "new_concept_name": "Concept Name",
      "new_concept_desc": "one dense sentence describing the concept",
      "why_read": "the specific connection to the reader, 2 sentences"
    }
  ]
}

Produce exactly one card per article, in the same order. Dense and specific, zero filler.`, b.readerContext(), detail.String())
}

// Connector builds the third-stage prompt: one question or insight that
// ties at least two of today's cards together, optionally threading in a
// small sample of recently starred cards.
func (b *PromptBuilder) Connector(cards []CurationCard, starred []CurationCard) string {
	var summary strings.Builder
	for _, c := range cards {
		fmt.Fprintf(&summary, "- %s [%s]: %s — %s\n", c.Title, c.AxisName, c.ConceptName, c.ConceptDesc)
	}

	var starredContext string
	if len(starred) > 0 {
		var sb strings.Builder
		for i, c := range starred {
			if i >= 5 {
				break
			}
			fmt.Fprintf(&sb, "- %s [%s]: %s\n", c.Title, c.AxisName, c.ConceptName)
		}
		starredContext = "\nArticles the reader recently starred as impressive:\n" + sb.String()
	}

	return fmt.Sprintf(`You are the CONNECTOR agent — find the hidden thread that connects today's articles, and optionally connect them to the reader's recent interests.

%s

Today's selected articles:
%s%s
TASK: write ONE connecting question or insight that ties these articles together.

Rules:
- It must connect at least 2 of today's articles by theme.
- If starred articles are listed, try to thread today's picks into the reader's recent interests.
- 1-2 sentences, dense and specific. It opens the deep-read section of the briefing.

Respond in JSON:
{"connection": "the question or insight, 1-2 sentences"}`, b.readerContext(), summary.String(), starredContext)
}

// WeeklyConnection builds the report variant: one question threading the
// week's starred cards.
func (b *PromptBuilder) WeeklyConnection(starred []CurationCard) string {
	var list strings.Builder
	for _, c := range starred {
		fmt.Fprintf(&list, "- %s (Axis: %s)\n", c.Title, c.AxisName)
	}

	return fmt.Sprintf(`You are the reader's intellectual companion.

%s

This week, the reader starred these articles as impressive:
%s
Generate ONE powerful question that connects these articles into a single thread of inquiry. It should be thought-provoking, personal to the reader, and connect at least 2 of the articles thematically.

Respond in JSON:
{"question": "the question"}`, b.readerContext(), list.String())
}

// News builds the single-stage news prompt: select the most relevant
// headlines and summarize each in exactly three lines.
func (b *PromptBuilder) News(items []ContentItem, count int) string {
	var list strings.Builder
	for i, n := range items {
		fmt.Fprintf(&list, "[%d] %s\nSource: %s\nURL: %s\nDescription: %s\n\n",
			i+1, n.Title, n.Source, n.URL, truncateRunes(n.Preview, 300))
	}

	return fmt.Sprintf(`You are the reader's personal news curator.

%s

The axes of interest:
%s

TASK: select the %d most relevant news items for the reader. Be highly selective — only news that intersects with the reader's specific interests above.

For each selected item provide a hashtag keyword, the original title, and exactly 3 summary lines:
- Line 1: what happened (fact)
- Line 2: why it matters (context)
- Line 3: what it means for the reader (personalized takeaway, tied to a specific facet above)

NEWS ITEMS:
%s
Respond in JSON:
{
  "selected_news": [
    {
      "hashtag": "#keyword",
      "title": "headline",
      "summary_line_1": "what happened",
      "summary_line_2": "why it matters",
      "summary_line_3": "what it means for the reader",
      "url": "https://...",
      "source": "source name"
    }
  ]
}

Select exactly %d items. Be specific, not generic.`, b.readerContext(), b.axesText(), count, list.String(), count)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
