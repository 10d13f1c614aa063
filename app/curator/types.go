package curator

import "time"

// ItemKind distinguishes the two candidate streams. News items go through
// the single-stage summarizer, articles through the three-stage pipeline.
type ItemKind string

const (
	KindNews    ItemKind = "news"
	KindArticle ItemKind = "article"
)

// PreviewLimit bounds the content preview carried into model prompts,
// in runes.
const PreviewLimit = 2000

// ContentItem is a candidate piece of content. URLs are the global
// identity key: cards, news records and feedback events all join on URL.
type ContentItem struct {
	URL         string
	Title       string
	Source      string
	Tier        int
	Preview     string
	PublishedAt time.Time
	Kind        ItemKind
}

// Selection is the Selector stage's output for one item: the item tagged
// with its chosen axis and a one-sentence rationale. The rationale is
// required context for the Analyst, not decoration.
type Selection struct {
	ContentItem
	AxisID   int
	AxisName string
	Reason   string
}

// CurationCard is the delivered and persisted unit of output: one article
// plus its novelty/concept/relevance annotation.
type CurationCard struct {
	Title       string
	Source      string
	URL         string
	ReadTime    string
	AxisID      int
	AxisName    string
	WhyNew      string
	ConceptName string
	ConceptDesc string
	WhyRead     string
}

// NewsCard is a summarized news headline: hashtag keyword plus exactly
// three summary lines (fact, context, personal takeaway).
type NewsCard struct {
	Hashtag string
	Title   string
	Lines   [3]string
	URL     string
	Source  string
}

// SynthesisNote is the single cross-item question or insight produced per
// digest run.
type SynthesisNote string

// RunState tracks a pipeline run through its stages.
type RunState string

const (
	StateCollected   RunState = "collected"
	StateDeduped     RunState = "deduped"
	StateSelected    RunState = "selected"
	StateAnalyzed    RunState = "analyzed"
	StateSynthesized RunState = "synthesized"
	StateDone        RunState = "done"
	StateFailed      RunState = "failed"
)

// Digest is the result of one pipeline run. A failed run carries zero
// cards: there is no partial-success terminal state.
type Digest struct {
	Cards      []CurationCard
	Note       SynthesisNote
	State      RunState
	FailReason string
}

// Reaction is a canonical feedback kind. Raw reaction signals outside
// this set are ignored at the ingestion boundary.
type Reaction string

const (
	ReactionImpressed Reaction = "impressed"
	ReactionArchived  Reaction = "archived"
	ReactionDismissed Reaction = "dismissed"
)

// ItemStatus is the lifecycle status of a delivered card or news record.
type ItemStatus string

const (
	StatusSent     ItemStatus = "sent"
	StatusStarred  ItemStatus = "starred"
	StatusArchived ItemStatus = "archived"
	StatusSkipped  ItemStatus = "skipped"
)

// Status maps a canonical reaction to the item status it implies.
func (r Reaction) Status() ItemStatus {
	switch r {
	case ReactionImpressed:
		return StatusStarred
	case ReactionArchived:
		return StatusArchived
	case ReactionDismissed:
		return StatusSkipped
	default:
		return StatusSent
	}
}

// FeedbackEvent is an append-only record of one reader reaction.
type FeedbackEvent struct {
	ItemURL   string
	Reaction  Reaction
	Memo      string
	CreatedAt time.Time
}

// Exclusions holds axes and sources suppressed from future selection due
// to repeated negative feedback. Advisory only: the Selector treats them
// as strong negative signal, not a hard filter.
type Exclusions struct {
	Axes    []string
	Sources []string
}

func (e Exclusions) Empty() bool {
	return len(e.Axes) == 0 && len(e.Sources) == 0
}

// ItemFacts are the per-URL attributes the preference engine joins
// feedback events against.
type ItemFacts struct {
	AxisName string
	Source   string
}

// ScoredCard pairs a persisted card with its current status for stats
// computation.
type ScoredCard struct {
	Card   CurationCard
	Status ItemStatus
}

// WeeklyStats aggregates delivery and feedback counts over a 7-day
// window. Total always equals Starred+Archived+Skipped+Sent.
type WeeklyStats struct {
	Total        int
	Starred      int
	Archived     int
	Skipped      int
	Sent         int
	AxisCounts   map[string]int
	StarredCards []CurationCard
}
