package service

import (
	"strconv"
	"strings"

	"github.com/calgary-pulse/pulseqa/internal/domain"
)

// AssemblerConfig bounds the context handed to the generator.
type AssemblerConfig struct {
	// BudgetChars is the maximum total chunk text included in one context.
	BudgetChars int
}

// DefaultAssemblerConfig provides the default context budget.
func DefaultAssemblerConfig() AssemblerConfig {
	return AssemblerConfig{
		BudgetChars: 12000,
	}
}

// Assembler turns a ranked chunk list into a bounded answer context.
type Assembler struct {
	cfg AssemblerConfig
}

// NewAssembler creates a new Assembler instance
func NewAssembler(cfg AssemblerConfig) *Assembler {
	if cfg.BudgetChars <= 0 {
		cfg.BudgetChars = DefaultAssemblerConfig().BudgetChars
	}
	return &Assembler{cfg: cfg}
}

// Assemble dedupes by chunk id, keeps chunks in rank order until the budget
// is reached, and derives the citation and viz reference sets from what was
// actually included. Chunks are never truncated: a chunk that would
// overflow the budget is dropped whole and later chunks still get a chance
// to fit.
func (a *Assembler) Assemble(ranked []domain.RetrievedChunk) *domain.AnswerContext {
	actx := &domain.AnswerContext{}

	seenChunk := map[string]bool{}
	seenCitation := map[domain.Citation]bool{}
	seenViz := map[string]bool{}

	for _, rc := range ranked {
		if seenChunk[rc.Chunk.ID] {
			continue
		}
		if actx.TotalChars+len(rc.Chunk.Text) > a.cfg.BudgetChars {
			continue
		}
		seenChunk[rc.Chunk.ID] = true

		actx.Chunks = append(actx.Chunks, rc)
		actx.TotalChars += len(rc.Chunk.Text)

		citation := domain.Citation{Community: rc.Chunk.Community, Section: rc.Chunk.Section}
		if !seenCitation[citation] {
			seenCitation[citation] = true
			actx.Citations = append(actx.Citations, citation)
		}
		if rc.Chunk.VizRef != nil && !seenViz[rc.Chunk.VizRef.Locator] {
			seenViz[rc.Chunk.VizRef.Locator] = true
			actx.VizRefs = append(actx.VizRefs, *rc.Chunk.VizRef)
		}
	}
	return actx
}

// RenderPrompt renders the context for the external generator. Each chunk
// is numbered with its community, section, and viz locator so the generator
// can ground every figure it quotes, and the instruction payload requires
// section citations in the answer.
func (a *Assembler) RenderPrompt(question string, actx *domain.AnswerContext) string {
	var b strings.Builder
	b.WriteString("RETRIEVED DATA:\n\n")
	for i, rc := range actx.Chunks {
		b.WriteString("[" + strconv.Itoa(i+1) + "] (" + rc.Chunk.Community + " - " + string(rc.Chunk.Section) + ")")
		if rc.Chunk.VizRef != nil {
			b.WriteString(" " + rc.Chunk.VizRef.Locator)
		}
		b.WriteString("\n")
		b.WriteString(rc.Chunk.Text + "\n")
		if rc.Chunk.VizRef != nil {
			b.WriteString("Visualization available: " + rc.Chunk.VizRef.Label + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("QUESTION: " + question + "\n\n")
	b.WriteString("Answer the question using only the retrieved data above. ")
	b.WriteString("Quote figures exactly as they appear. ")
	b.WriteString("Cite the community and section for every fact you state. ")
	b.WriteString("If the data above does not answer the question, say so plainly. ")
	b.WriteString("When relevant, mention which visualizations are available on Calgary Pulse for the user to explore.")
	return b.String()
}
