// Package extract turns a fetched detail page into a kalaam record: label
// based field extraction, lyric block recovery and cleanup, and assembly.
package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/JakeFAU/kalaam-crawler/internal/crawler"
	"github.com/JakeFAU/kalaam-crawler/internal/tree"
)

// Strategy selects how lyric blocks are read.
type Strategy string

const (
	// StrategyMarkup keeps the inner markup of lyric blocks and computes the
	// phonetic title key.
	StrategyMarkup Strategy = "markup"
	// StrategyFlattened reads lyric blocks as visible text only, falls back to
	// the listing title and skips the title key.
	StrategyFlattened Strategy = "flattened"
)

// Config names the page landmarks the extractor looks for.
type Config struct {
	Strategy      Strategy `mapstructure:"strategy"`
	TitleSelector string   `mapstructure:"title_selector"`
	ReciterLabel  string   `mapstructure:"reciter_label"`
	PoetLabel     string   `mapstructure:"poet_label"`
	RomanBlockID  string   `mapstructure:"roman_block_id"`
	UrduBlockID   string   `mapstructure:"urdu_block_id"`
	MediaSelector string   `mapstructure:"media_selector"`
}

// DefaultConfig matches the nohayonline.com detail page layout.
func DefaultConfig() Config {
	return Config{
		Strategy:      StrategyMarkup,
		TitleSelector: "h2",
		ReciterLabel:  "Nohakhan:",
		PoetLabel:     "Shayar:",
		RomanBlockID:  "etext",
		UrduBlockID:   "utext",
		MediaSelector: `a[href*="youtu"]`,
	}
}

// Extractor runs the extraction pipeline. It holds only immutable
// configuration and is safe for concurrent use.
type Extractor struct {
	cfg     Config
	reciter labelMatcher
	poet    labelMatcher
}

// New builds an Extractor, filling unset fields from DefaultConfig.
func New(cfg Config) (*Extractor, error) {
	def := DefaultConfig()
	if cfg.Strategy == "" {
		cfg.Strategy = def.Strategy
	}
	if cfg.Strategy != StrategyMarkup && cfg.Strategy != StrategyFlattened {
		return nil, fmt.Errorf("unknown extract strategy %q", cfg.Strategy)
	}
	cfg.TitleSelector = orDefault(cfg.TitleSelector, def.TitleSelector)
	cfg.ReciterLabel = orDefault(cfg.ReciterLabel, def.ReciterLabel)
	cfg.PoetLabel = orDefault(cfg.PoetLabel, def.PoetLabel)
	cfg.RomanBlockID = orDefault(cfg.RomanBlockID, def.RomanBlockID)
	cfg.UrduBlockID = orDefault(cfg.UrduBlockID, def.UrduBlockID)
	cfg.MediaSelector = orDefault(cfg.MediaSelector, def.MediaSelector)
	return &Extractor{
		cfg:     cfg,
		reciter: newLabelMatcher(cfg.ReciterLabel),
		poet:    newLabelMatcher(cfg.PoetLabel),
	}, nil
}

// Strategy reports the configured strategy.
func (e *Extractor) Strategy() Strategy {
	return e.cfg.Strategy
}

// Extract parses page and assembles its record.
func (e *Extractor) Extract(page crawler.RawPage) (Assembly, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return Assembly{}, fmt.Errorf("parse page %s: %w", page.URL, err)
	}
	var root *tree.Node
	if len(doc.Nodes) > 0 {
		root = tree.FromHTML(doc.Nodes[0])
	}

	fields := Fields{
		Title:     headingText(doc.Find(e.cfg.TitleSelector).First()),
		MediaLink: doc.Find(e.cfg.MediaSelector).First().AttrOr("href", ""),
	}
	fields.Reciter, _ = e.reciter.extract(root)
	fields.Poet, _ = e.poet.extract(root)

	if e.cfg.Strategy == StrategyFlattened {
		fields.LyricsRoman = flattenedBlock(root, e.cfg.RomanBlockID)
		fields.LyricsUrdu = flattenedBlock(root, e.cfg.UrduBlockID)
		fields.SkipKey = true
		if strings.TrimSpace(fields.Title) == "" {
			fields.Title = page.TitleHint
		}
		return Assemble(page, fields)
	}

	fields.LyricsRoman = markupBlock(page.Body, root, e.cfg.RomanBlockID, CleanRoman)
	fields.LyricsUrdu = markupBlock(page.Body, root, e.cfg.UrduBlockID, CleanUrdu)
	return Assemble(page, fields)
}

func markupBlock(body []byte, root *tree.Node, id string, clean func(string) string) string {
	if markup, ok := ExtractBlock(body, id); ok {
		return clean(markup)
	}
	return flattenedBlock(root, id)
}

func flattenedBlock(root *tree.Node, id string) string {
	node := tree.Find(root, tree.ByID(id))
	if node == nil {
		return ""
	}
	return node.Flatten()
}

// headingText joins the direct text children of sel, trimmed.
func headingText(sel *goquery.Selection) string {
	var b strings.Builder
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		if len(c.Nodes) > 0 && c.Nodes[0].Type == html.TextNode {
			b.WriteString(c.Nodes[0].Data)
		}
	})
	return strings.TrimSpace(b.String())
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
