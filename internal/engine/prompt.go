package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"sbomrag/internal/docstore"
	"sbomrag/internal/models"
	"sbomrag/pkg/utils"
)

// excerptLen bounds how much of each retrieved document goes into the prompt.
const excerptLen = 400

// BuildPrompt renders the fixed-structure reasoning prompt from the question,
// the inventory's aggregate stats, and the four retrieval result sets. The
// rendering is deterministic for identical inputs.
func BuildPrompt(question string, inv *models.Inventory, bundle *contextBundle) string {
	var b strings.Builder
	b.WriteString("You are a software supply-chain security analyst. ")
	b.WriteString("Answer the question using only the context below.\n")
	b.WriteString("Respond with a single JSON object of the form ")
	b.WriteString(`{"answer": "<markdown>", "keyFindings": [{"entity": "...", "reason": "..."}], "citations": [{"type": "package|vuln|advisory", "id": "..."}]}.` + "\n\n")

	c := inv.Summary.Counts
	fmt.Fprintf(&b, "## Project %s\n", inv.ProjectID)
	fmt.Fprintf(&b, "Packages: %d. Vulnerabilities: %d (%d critical, %d high, %d medium, %d low).\n\n",
		len(inv.Packages), c.Total(), c.Critical, c.High, c.Medium, c.Low)

	writeSection(&b, "Most relevant context", bundle.general)
	writeSection(&b, "Critical vulnerabilities", bundle.criticalVuln)
	writeSection(&b, "High-severity vulnerabilities", bundle.highVuln)
	writeSection(&b, "Direct dependencies", bundle.directPkgs)

	fmt.Fprintf(&b, "## Question\n%s\n", question)
	return b.String()
}

func writeSection(b *strings.Builder, title string, results []docstore.Result) {
	fmt.Fprintf(b, "## %s\n", title)
	if len(results) == 0 {
		b.WriteString("(none)\n\n")
		return
	}
	for _, r := range results {
		excerpt := strings.ReplaceAll(utils.Truncate(r.Document.Text, excerptLen), "\n", " ")
		fmt.Fprintf(b, "- [%s] %s\n", r.Document.ID, excerpt)
	}
	b.WriteString("\n")
}

// providerAnswer is the structured shape expected from the reasoning provider.
type providerAnswer struct {
	Answer      string            `json:"answer"`
	KeyFindings []models.Finding  `json:"keyFindings"`
	Citations   []models.Citation `json:"citations"`
}

// parseProviderAnswer decodes the provider's raw text. The text may be fenced
// in a markdown code block. Citations with an unknown type are dropped; an
// empty answer is an error so the caller falls back.
func parseProviderAnswer(raw string) (*providerAnswer, error) {
	cleaned := stripCodeFence(strings.TrimSpace(raw))
	var parsed providerAnswer
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}
	if strings.TrimSpace(parsed.Answer) == "" {
		return nil, errors.New("response has an empty answer")
	}
	valid := parsed.Citations[:0]
	for _, c := range parsed.Citations {
		switch c.Type {
		case models.CitationPackage, models.CitationVuln, models.CitationAdvisory:
			valid = append(valid, c)
		}
	}
	parsed.Citations = valid
	return &parsed, nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
