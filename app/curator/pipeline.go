package curator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// candidateCap bounds how many candidates are offered to the Selector.
const candidateCap = 25

// starredSampleCap bounds the starred-history sample given to the
// Connector for continuity.
const starredSampleCap = 5

// defaultWeeklyQuestion is the report fallback when no starred history
// exists at all.
const defaultWeeklyQuestion = "Which ideas moved you this week, and what single question do they leave behind?"

// StageError marks a fail-closed stage outcome: the stage produced no
// usable payload, so the run terminates with zero cards. Downstream
// stages depend structurally on the prior stage's output shape, which is
// why there is no partial-success path.
type StageError struct {
	Stage  RunState
	Reason string
	Err    error
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("stage %s: %s: %v", e.Stage, e.Reason, e.Err)
	}
	return fmt.Sprintf("stage %s: %s", e.Stage, e.Reason)
}

func (e *StageError) Unwrap() error { return e.Err }

// PipelineOptions parameterize one run.
type PipelineOptions struct {
	// Count is the requested number of cards (K). The run yields
	// min(K, len(candidates)) cards.
	Count int
	// Exclusions act as a soft penalty inside the Selector prompt.
	Exclusions Exclusions
	// Starred is an optional sample of previously starred cards for the
	// Connector; at most five are used.
	Starred []CurationCard
}

// Pipeline runs the three curation stages strictly in sequence, one model
// round-trip per stage.
type Pipeline struct {
	client  ChatClient
	prompts *PromptBuilder
	timeout time.Duration
}

func NewPipeline(client ChatClient, prompts *PromptBuilder, timeout time.Duration) *Pipeline {
	return &Pipeline{client: client, prompts: prompts, timeout: timeout}
}

type selectorResponse struct {
	Selected []struct {
		Index           int    `json:"index"`
		Title           string `json:"title"`
		Source          string `json:"source"`
		URL             string `json:"url"`
		Tier            int    `json:"tier"`
		AxisID          int    `json:"axis_id"`
		AxisName        string `json:"axis_name"`
		SelectionReason string `json:"selection_reason"`
		ContentPreview  string `json:"content_preview"`
	} `json:"selected"`
}

type analystResponse struct {
	Analyzed []struct {
		Title       string `json:"title"`
		Source      string `json:"source"`
		URL         string `json:"url"`
		ReadTime    string `json:"read_time"`
		AxisID      int    `json:"axis_id"`
		AxisName    string `json:"axis_name"`
		WhyNew      string `json:"why_new"`
		ConceptName string `json:"new_concept_name"`
		ConceptDesc string `json:"new_concept_desc"`
		WhyRead     string `json:"why_read"`
	} `json:"analyzed"`
}

type connectorResponse struct {
	Connection string `json:"connection"`
}

type newsResponse struct {
	SelectedNews []struct {
		Hashtag string `json:"hashtag"`
		Title   string `json:"title"`
		Line1   string `json:"summary_line_1"`
		Line2   string `json:"summary_line_2"`
		Line3   string `json:"summary_line_3"`
		URL     string `json:"url"`
		Source  string `json:"source"`
	} `json:"selected_news"`
}

// Run executes Selector → Analyst → Connector over the already
// deduplicated candidate pool. A Selector or Analyst failure fails the
// whole run closed: the returned digest carries zero cards and the
// StageError describes the stage that broke.
func (p *Pipeline) Run(ctx context.Context, candidates []ContentItem, opts PipelineOptions) (*Digest, error) {
	digest := &Digest{State: StateDeduped}

	if opts.Count <= 0 || len(candidates) == 0 {
		digest.State = StateDone
		return digest, nil
	}

	pool := sortByTier(candidates)
	if len(pool) > candidateCap {
		pool = pool[:candidateCap]
	}
	count := opts.Count
	if count > len(pool) {
		count = len(pool)
	}

	selections, err := p.selectStage(ctx, pool, count, opts.Exclusions)
	if err != nil {
		return p.fail(digest, err)
	}
	digest.State = StateSelected
	slog.Debug("Selector stage complete", "selected", len(selections))

	cards, err := p.analyzeStage(ctx, selections)
	if err != nil {
		return p.fail(digest, err)
	}
	digest.State = StateAnalyzed
	digest.Cards = cards
	slog.Debug("Analyst stage complete", "cards", len(cards))

	digest.Note = p.connectStage(ctx, cards, opts.Starred)
	digest.State = StateSynthesized

	digest.State = StateDone
	return digest, nil
}

func (p *Pipeline) fail(digest *Digest, err error) (*Digest, error) {
	digest.Cards = nil
	digest.Note = ""
	digest.FailReason = err.Error()
	digest.State = StateFailed
	return digest, err
}

func (p *Pipeline) selectStage(ctx context.Context, pool []ContentItem, count int, excl Exclusions) ([]Selection, error) {
	raw, err := p.chat(ctx, p.prompts.Selector(pool, count, excl))
	if err != nil {
		return nil, &StageError{Stage: StateSelected, Reason: "model call failed", Err: err}
	}

	var resp selectorResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, &StageError{Stage: StateSelected, Reason: "malformed selector output", Err: err}
	}
	if len(resp.Selected) == 0 {
		return nil, &StageError{Stage: StateSelected, Reason: "selector returned no items"}
	}

	byURL := make(map[string]ContentItem, len(pool))
	for _, item := range pool {
		byURL[item.URL] = item
	}

	selections := make([]Selection, 0, count)
	for _, s := range resp.Selected {
		if len(selections) == count {
			break
		}
		item, ok := byURL[s.URL]
		if !ok {
			// Model echoed an URL outside the pool; recover by index.
			if s.Index >= 1 && s.Index <= len(pool) {
				item = pool[s.Index-1]
			} else {
				continue
			}
		}
		sel := Selection{
			ContentItem: item,
			AxisID:      s.AxisID,
			AxisName:    s.AxisName,
			Reason:      s.SelectionReason,
		}
		if sel.Preview == "" {
			sel.Preview = s.ContentPreview
		}
		selections = append(selections, sel)
	}

	if len(selections) == 0 {
		return nil, &StageError{Stage: StateSelected, Reason: "selector output matched no candidates"}
	}

	return selections, nil
}

func (p *Pipeline) analyzeStage(ctx context.Context, selections []Selection) ([]CurationCard, error) {
	raw, err := p.chat(ctx, p.prompts.Analyst(selections))
	if err != nil {
		return nil, &StageError{Stage: StateAnalyzed, Reason: "model call failed", Err: err}
	}

	var resp analystResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, &StageError{Stage: StateAnalyzed, Reason: "malformed analyst output", Err: err}
	}

	// The Analyst annotates, it never drops: output count must equal
	// input count.
	if len(resp.Analyzed) != len(selections) {
		return nil, &StageError{
			Stage:  StateAnalyzed,
			Reason: fmt.Sprintf("analyst returned %d cards for %d selections", len(resp.Analyzed), len(selections)),
		}
	}

	cards := make([]CurationCard, 0, len(selections))
	for i, a := range resp.Analyzed {
		if a.WhyNew == "" || a.ConceptName == "" || a.WhyRead == "" {
			return nil, &StageError{
				Stage:  StateAnalyzed,
				Reason: fmt.Sprintf("card %d is missing required fields", i+1),
			}
		}
		card := CurationCard{
			Title:       a.Title,
			Source:      a.Source,
			URL:         a.URL,
			ReadTime:    a.ReadTime,
			AxisID:      a.AxisID,
			AxisName:    a.AxisName,
			WhyNew:      a.WhyNew,
			ConceptName: a.ConceptName,
			ConceptDesc: a.ConceptDesc,
			WhyRead:     a.WhyRead,
		}
		// The URL key must survive the round-trip intact.
		if card.URL == "" {
			card.URL = selections[i].URL
		}
		if card.Title == "" {
			card.Title = selections[i].Title
		}
		if card.Source == "" {
			card.Source = selections[i].Source
		}
		if card.AxisName == "" {
			card.AxisID = selections[i].AxisID
			card.AxisName = selections[i].AxisName
		}
		cards = append(cards, card)
	}

	return cards, nil
}

// connectStage never fails the run: given at least one card it always
// yields a non-empty note, falling back to a question derived from the
// dominant axis when the model call breaks.
func (p *Pipeline) connectStage(ctx context.Context, cards []CurationCard, starred []CurationCard) SynthesisNote {
	if len(cards) == 0 {
		return ""
	}
	if len(starred) > starredSampleCap {
		starred = starred[:starredSampleCap]
	}

	raw, err := p.chat(ctx, p.prompts.Connector(cards, starred))
	if err != nil {
		slog.Warn("Connector stage failed, using fallback note", "error", err)
		return fallbackNote(cards)
	}

	var resp connectorResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil || resp.Connection == "" {
		slog.Warn("Connector output unusable, using fallback note", "error", err)
		return fallbackNote(cards)
	}

	return SynthesisNote(resp.Connection)
}

// SummarizeNews is the single-stage news variant: one round-trip that
// selects and summarizes up to count headlines. A failed or malformed
// call yields an empty list, logged, per the fail-closed policy for
// stage output.
func (p *Pipeline) SummarizeNews(ctx context.Context, items []ContentItem, count int) ([]NewsCard, error) {
	if count <= 0 || len(items) == 0 {
		return nil, nil
	}
	if len(items) > 30 {
		items = items[:30]
	}

	raw, err := p.chat(ctx, p.prompts.News(items, count))
	if err != nil {
		return nil, fmt.Errorf("news summarizer call: %w", err)
	}

	var resp newsResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("malformed news output: %w", err)
	}

	cards := make([]NewsCard, 0, count)
	for _, n := range resp.SelectedNews {
		if len(cards) == count {
			break
		}
		if n.URL == "" || n.Title == "" {
			continue
		}
		cards = append(cards, NewsCard{
			Hashtag: n.Hashtag,
			Title:   n.Title,
			Lines:   [3]string{n.Line1, n.Line2, n.Line3},
			URL:     n.URL,
			Source:  n.Source,
		})
	}

	return cards, nil
}

// GenerateWeeklyConnection produces the report variant of the synthesis
// note. With no starred history at all it returns the static default
// question rather than calling the model.
func (p *Pipeline) GenerateWeeklyConnection(ctx context.Context, starred []CurationCard) SynthesisNote {
	if len(starred) == 0 {
		return defaultWeeklyQuestion
	}

	raw, err := p.chat(ctx, p.prompts.WeeklyConnection(starred))
	if err != nil {
		slog.Warn("Weekly connection call failed, using default question", "error", err)
		return defaultWeeklyQuestion
	}

	var resp struct {
		Question string `json:"question"`
	}
	if err := json.Unmarshal([]byte(raw), &resp); err != nil || resp.Question == "" {
		slog.Warn("Weekly connection output unusable, using default question", "error", err)
		return defaultWeeklyQuestion
	}

	return SynthesisNote(resp.Question)
}

func (p *Pipeline) chat(ctx context.Context, prompt string) (string, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	return p.client.Chat(ctx, prompt)
}

func fallbackNote(cards []CurationCard) SynthesisNote {
	counts := make(map[string]int)
	for _, c := range cards {
		if c.AxisName != "" {
			counts[c.AxisName]++
		}
	}
	dominant := ""
	for axis, n := range counts {
		if dominant == "" || n > counts[dominant] {
			dominant = axis
		}
	}
	if dominant == "" {
		return "What single thread connects today's picks?"
	}
	return SynthesisNote(fmt.Sprintf("What thread runs through today's %s picks, and where does it lead next?", dominant))
}

func sortByTier(items []ContentItem) []ContentItem {
	sorted := make([]ContentItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Tier < sorted[j].Tier
	})
	return sorted
}
