package enrichment

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

const articleSystemPrompt = `You classify and summarize technology news for a research team.
Answer with a single JSON object. Set each is_* flag to true only when the article clearly matches it:
- is_new_technology: announces or explains a new technique, protocol or engineering approach
- is_new_product: announces a new product, service or major release
- is_new_academic_paper: reports on a newly published academic paper
- is_ai_related: concerns artificial intelligence or machine learning
- is_security_related: concerns information security, vulnerabilities or incidents
- is_it_related: concerns software, infrastructure or the IT industry
Write "summary" in %s, at most three sentences.`

const paperSystemPrompt = `You are a research assistant reading an academic paper.
Answer with a single JSON object. Write every field in %s.
- translated_abstract: the abstract translated faithfully
- summary: the contribution in two or three sentences
- tasks: short names of the research tasks the paper addresses, most specific first
- background: the problem and prior work the paper builds on
- method: the proposed approach
- dataset: datasets and benchmarks used, or an empty string
- results: the main quantitative and qualitative findings
- limitations: limitations stated or evident, or an empty string`

func articleSystem(lang string) string {
	return fmt.Sprintf(articleSystemPrompt, languageName(lang))
}

func paperSystem(lang string) string {
	return fmt.Sprintf(paperSystemPrompt, languageName(lang))
}

func articleUser(title, text string) string {
	var sb strings.Builder

	sb.WriteString("Title: ")
	sb.WriteString(strings.TrimSpace(title))
	sb.WriteString("\n\n")
	sb.WriteString(strings.TrimSpace(text))

	return sb.String()
}

func paperUser(in PaperInput) string {
	var sb strings.Builder

	sb.WriteString("Title: ")
	sb.WriteString(strings.TrimSpace(in.Title))

	if in.Abstract != "" {
		sb.WriteString("\n\nAbstract:\n")
		sb.WriteString(strings.TrimSpace(in.Abstract))
	}

	if in.FullText != "" {
		sb.WriteString("\n\nFull text:\n")
		sb.WriteString(in.FullText)
	}

	return sb.String()
}

// languageName turns a BCP 47 tag such as "ja" into an English name for prompts.
// Unknown tags are passed through unchanged.
func languageName(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		tag = defaultLanguage
	}

	parsed, err := language.Parse(tag)
	if err != nil {
		return tag
	}

	if name := display.English.Tags().Name(parsed); name != "" {
		return name
	}

	return tag
}
