package engine

import (
	"fmt"
	"strings"

	"sbomrag/internal/models"
)

// fallbackAnswer builds the deterministic answer used when no reasoning
// provider is configured or the provider fails. The narrative template is
// chosen by keyword matches against the question text; key findings come from
// the inventory's top-risk list and citations from the top-risk list plus up
// to five vulnerabilities in inventory package order.
func fallbackAnswer(inv *models.Inventory, question string) (string, []models.Finding, []models.Citation) {
	q := strings.ToLower(question)
	var markdown string
	switch {
	case strings.Contains(q, "critical"):
		markdown = criticalNarrative(inv)
	case strings.Contains(q, "upgrade"):
		markdown = upgradeNarrative(inv)
	default:
		markdown = summaryNarrative(inv)
	}

	findings := make([]models.Finding, 0, len(inv.Summary.TopRisks))
	citations := make([]models.Citation, 0, len(inv.Summary.TopRisks)+5)
	for _, r := range inv.Summary.TopRisks {
		findings = append(findings, models.Finding{
			Entity: r.Name + "@" + r.Version,
			Reason: r.Reason,
		})
		citations = append(citations, models.Citation{
			Type: models.CitationPackage,
			ID:   r.Name + "@" + r.Version,
		})
	}
	cited := 0
	for i := range inv.Packages {
		if cited >= 5 {
			break
		}
		for j := range inv.Packages[i].Vulnerabilities {
			if cited >= 5 {
				break
			}
			citations = append(citations, models.Citation{
				Type: models.CitationVuln,
				ID:   inv.Packages[i].Vulnerabilities[j].ID,
			})
			cited++
		}
	}
	return markdown, findings, citations
}

func criticalNarrative(inv *models.Inventory) string {
	c := inv.Summary.Counts
	var b strings.Builder
	fmt.Fprintf(&b, "## Critical vulnerabilities in %s\n\n", inv.ProjectID)
	if c.Critical == 0 {
		b.WriteString("No critical vulnerabilities are currently known in this project.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "There are **%d critical** vulnerabilities (of %d total) that need immediate attention.\n\n",
		c.Critical, c.Total())
	b.WriteString("Affected packages:\n")
	for i := range inv.Packages {
		pkg := &inv.Packages[i]
		for j := range pkg.Vulnerabilities {
			v := &pkg.Vulnerabilities[j]
			if v.Severity == models.SeverityCritical {
				fmt.Fprintf(&b, "- `%s`: %s\n", pkg.Ref(), v.ID)
			}
		}
	}
	b.WriteString("\nUpdate the affected packages to patched versions as soon as possible; the remediation plan below lists the concrete steps.\n")
	return b.String()
}

func upgradeNarrative(inv *models.Inventory) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Upgrade priorities for %s\n\n", inv.ProjectID)
	if len(inv.Summary.TopRisks) == 0 {
		b.WriteString("No packages currently stand out as upgrade priorities.\n")
		return b.String()
	}
	b.WriteString("Prioritize upgrades by risk, highest first:\n\n")
	for i, r := range inv.Summary.TopRisks {
		fmt.Fprintf(&b, "%d. `%s@%s`: %s (risk score %.2f)\n", i+1, r.Name, r.Version, r.Reason, r.Score)
	}
	b.WriteString("\nStart at the top of the list: those packages combine the highest severity and supply-chain risk.\n")
	return b.String()
}

func summaryNarrative(inv *models.Inventory) string {
	c := inv.Summary.Counts
	var b strings.Builder
	fmt.Fprintf(&b, "## Security summary for %s\n\n", inv.ProjectID)
	fmt.Fprintf(&b, "The project has %d packages with %d known vulnerabilities: %d critical, %d high, %d medium, %d low.\n",
		len(inv.Packages), c.Total(), c.Critical, c.High, c.Medium, c.Low)
	if len(inv.Summary.TopRisks) > 0 {
		b.WriteString("\nTop risks:\n")
		for _, r := range inv.Summary.TopRisks {
			fmt.Fprintf(&b, "- `%s@%s`: %s\n", r.Name, r.Version, r.Reason)
		}
	}
	return b.String()
}
