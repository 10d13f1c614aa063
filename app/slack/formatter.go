package slack

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/albot-dev/alchemy/app/curator"
)

// Message is one Slack message: a plain-text fallback plus Block Kit
// blocks. Card messages keep the item URL in the fallback text so
// reaction lookups can recover it from message history.
type Message struct {
	Text   string
	Blocks []Block
}

// Block is a Block Kit layout block. Only the block shapes the digest
// actually uses are modeled.
type Block struct {
	Type     string        `json:"type"`
	Text     *TextObject   `json:"text,omitempty"`
	Elements []*TextObject `json:"elements,omitempty"`
}

type TextObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func headerBlock(text string) Block {
	return Block{Type: "header", Text: &TextObject{Type: "plain_text", Text: text}}
}

func sectionBlock(markdown string) Block {
	return Block{Type: "section", Text: &TextObject{Type: "mrkdwn", Text: markdown}}
}

func contextBlock(markdown string) Block {
	return Block{Type: "context", Elements: []*TextObject{{Type: "mrkdwn", Text: markdown}}}
}

func dividerBlock() Block {
	return Block{Type: "divider"}
}

// FormatDailyHeader opens a daily digest.
func FormatDailyHeader(now time.Time, newsCount, articleCount int) Message {
	title := fmt.Sprintf("Daily Digest — %s", now.Format("Mon, Jan 2"))
	return Message{
		Text: title,
		Blocks: []Block{
			headerBlock(title),
			contextBlock(fmt.Sprintf("%d headlines · %d deep reads", newsCount, articleCount)),
		},
	}
}

// FormatNewsCard renders one summarized headline as its own message.
func FormatNewsCard(card curator.NewsCard) Message {
	var sb strings.Builder
	fmt.Fprintf(&sb, "#%s  *<%s|%s>*\n", card.Hashtag, card.URL, escapeText(card.Title))
	for _, line := range card.Lines {
		if line == "" {
			continue
		}
		fmt.Fprintf(&sb, "• %s\n", escapeText(line))
	}

	return Message{
		Text: fmt.Sprintf("%s — %s", card.Title, card.URL),
		Blocks: []Block{
			sectionBlock(strings.TrimRight(sb.String(), "\n")),
			contextBlock(escapeText(card.Source)),
		},
	}
}

// FormatDeepReadHeader introduces the article section with the run's
// synthesis note.
func FormatDeepReadHeader(note curator.SynthesisNote) Message {
	blocks := []Block{dividerBlock(), headerBlock("Deep Reads")}
	if note != "" {
		blocks = append(blocks, sectionBlock("_"+escapeText(string(note))+"_"))
	}
	return Message{Text: "Deep Reads", Blocks: blocks}
}

// FormatArticleCard renders one curation card as its own message, so
// reactions land on exactly one item.
func FormatArticleCard(card curator.CurationCard) Message {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*<%s|%s>*\n", card.URL, escapeText(card.Title))
	fmt.Fprintf(&sb, "*What's new:* %s\n", escapeText(card.WhyNew))
	if card.ConceptName != "" {
		fmt.Fprintf(&sb, "*Concept — %s:* %s\n", escapeText(card.ConceptName), escapeText(card.ConceptDesc))
	}
	fmt.Fprintf(&sb, "*Why read it:* %s", escapeText(card.WhyRead))

	meta := escapeText(card.Source)
	if card.AxisName != "" {
		meta += " · " + escapeText(card.AxisName)
	}
	if card.ReadTime != "" {
		meta += " · " + escapeText(card.ReadTime)
	}

	return Message{
		Text: fmt.Sprintf("%s — %s", card.Title, card.URL),
		Blocks: []Block{
			sectionBlock(sb.String()),
			contextBlock(meta),
		},
	}
}

// FormatWeekendHeader opens a weekend digest.
func FormatWeekendHeader(now time.Time) Message {
	title := fmt.Sprintf("Weekend Digest — %s", now.Format("Mon, Jan 2"))
	return Message{
		Text:   title,
		Blocks: []Block{headerBlock(title)},
	}
}

// FormatWeeklyReport renders the weekly stats summary plus the
// connection question over starred items.
func FormatWeeklyReport(stats curator.WeeklyStats, question string) Message {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*%d items delivered*\n", stats.Total)
	fmt.Fprintf(&sb, "⭐ %d starred · 📂 %d archived · %d skipped · %d unread\n",
		stats.Starred, stats.Archived, stats.Skipped, stats.Sent)

	blocks := []Block{
		headerBlock("Weekly Report"),
		sectionBlock(strings.TrimRight(sb.String(), "\n")),
	}

	if len(stats.AxisCounts) > 0 {
		blocks = append(blocks, sectionBlock(formatAxisCounts(stats.AxisCounts)))
	}
	if len(stats.StarredCards) > 0 {
		blocks = append(blocks, sectionBlock(formatStarredList(stats.StarredCards)))
	}
	if question != "" {
		blocks = append(blocks, dividerBlock(), sectionBlock("_"+escapeText(question)+"_"))
	}

	return Message{Text: "Weekly Report", Blocks: blocks}
}

func formatStarredList(cards []curator.CurationCard) string {
	var sb strings.Builder
	sb.WriteString("*Starred this week:*\n")
	for _, card := range cards {
		fmt.Fprintf(&sb, "• <%s|%s>\n", card.URL, escapeText(card.Title))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatAxisCounts(counts map[string]int) string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("*By axis:*\n")
	for _, name := range names {
		fmt.Fprintf(&sb, "• %s: %d\n", escapeText(name), counts[name])
	}
	return strings.TrimRight(sb.String(), "\n")
}

// escapeText applies the Slack mrkdwn escaping rules for literal text.
func escapeText(text string) string {
	text = strings.ReplaceAll(text, "&", "&amp;")
	text = strings.ReplaceAll(text, "<", "&lt;")
	text = strings.ReplaceAll(text, ">", "&gt;")
	return text
}
