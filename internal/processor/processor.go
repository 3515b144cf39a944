// Package processor transforms an enriched inventory into retrievable
// documents. The transform is pure and deterministic; embeddings are
// populated later by the caller.
package processor

import (
	"fmt"
	"strings"

	"sbomrag/internal/models"
)

// ToDocuments renders one inventory into its ordered document set: one
// project summary, one document per declared service, one per package, and
// one per (package, vulnerability) pair.
func ToDocuments(inv *models.Inventory) []models.Document {
	docs := make([]models.Document, 0, 1+len(inv.Services)+2*len(inv.Packages))
	docs = append(docs, projectDocument(inv))
	for _, svc := range inv.Services {
		docs = append(docs, serviceDocument(inv, svc))
	}
	for i := range inv.Packages {
		pkg := &inv.Packages[i]
		docs = append(docs, packageDocument(inv, pkg))
		for j := range pkg.Vulnerabilities {
			docs = append(docs, vulnDocument(inv, pkg, &pkg.Vulnerabilities[j]))
		}
	}
	return docs
}

func projectDocument(inv *models.Inventory) models.Document {
	direct := 0
	for i := range inv.Packages {
		if inv.Packages[i].Direct {
			direct++
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Project %s dependency inventory.\n", inv.ProjectID)
	fmt.Fprintf(&b, "Packages: %d total, %d direct, %d transitive.\n",
		len(inv.Packages), direct, len(inv.Packages)-direct)
	c := inv.Summary.Counts
	fmt.Fprintf(&b, "Vulnerabilities: %d total (%d critical, %d high, %d medium, %d low).\n",
		c.Total(), c.Critical, c.High, c.Medium, c.Low)
	if len(inv.Languages) > 0 {
		fmt.Fprintf(&b, "Languages: %s.\n", strings.Join(inv.Languages, ", "))
	}
	if len(inv.Services) > 0 {
		fmt.Fprintf(&b, "Services: %s.\n", strings.Join(inv.Services, ", "))
	}
	if len(inv.Summary.TopRisks) > 0 {
		b.WriteString("Top risks:\n")
		for _, r := range inv.Summary.TopRisks {
			fmt.Fprintf(&b, "- %s@%s: %s (score %.2f)\n", r.Name, r.Version, r.Reason, r.Score)
		}
	}
	return models.Document{
		ID:   "project:" + inv.ProjectID,
		Text: b.String(),
		Meta: models.DocMeta{
			Kind:      models.DocKindProject,
			ProjectID: inv.ProjectID,
			Name:      inv.ProjectID,
		},
	}
}

func serviceDocument(inv *models.Inventory, service string) models.Document {
	var members []*models.Package
	for i := range inv.Packages {
		for _, svc := range inv.Packages[i].Services {
			if svc == service {
				members = append(members, &inv.Packages[i])
				break
			}
		}
	}
	vulns := 0
	var direct []string
	for _, pkg := range members {
		vulns += len(pkg.Vulnerabilities)
		if pkg.Direct {
			direct = append(direct, pkg.Ref())
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Service %s of project %s.\n", service, inv.ProjectID)
	fmt.Fprintf(&b, "Uses %d packages with %d known vulnerabilities.\n", len(members), vulns)
	if len(direct) > 0 {
		fmt.Fprintf(&b, "Direct dependencies: %s.\n", strings.Join(direct, ", "))
	}
	return models.Document{
		ID:   "service:" + inv.ProjectID + ":" + service,
		Text: b.String(),
		Meta: models.DocMeta{
			Kind:      models.DocKindService,
			ProjectID: inv.ProjectID,
			Name:      service,
			Services:  []string{service},
		},
	}
}

func packageDocument(inv *models.Inventory, pkg *models.Package) models.Document {
	highest := models.HighestSeverity(pkg)
	var b strings.Builder
	fmt.Fprintf(&b, "Package %s (%s), %s dependency of project %s.\n",
		pkg.Ref(), pkg.Ecosystem, directness(pkg.Direct), inv.ProjectID)
	if pkg.License != "" {
		fmt.Fprintf(&b, "License: %s.\n", pkg.License)
	}
	if len(pkg.Services) > 0 {
		fmt.Fprintf(&b, "Used by services: %s.\n", strings.Join(pkg.Services, ", "))
	}
	fmt.Fprintf(&b, "Known vulnerabilities: %d, highest severity %s.\n",
		len(pkg.Vulnerabilities), highest)
	if factors := RiskFactors(pkg); len(factors) > 0 {
		fmt.Fprintf(&b, "Risk factors: %s.\n", strings.Join(factors, "; "))
	}
	fmt.Fprintf(&b, "Requires %d packages, required by %d.\n",
		len(pkg.Requires), len(pkg.RequiredBy))
	return models.Document{
		ID:   "package:" + inv.ProjectID + ":" + pkg.Name + ":" + pkg.Version,
		Text: b.String(),
		Meta: models.DocMeta{
			Kind:      models.DocKindPackage,
			ProjectID: inv.ProjectID,
			Name:      pkg.Name,
			Version:   pkg.Version,
			Ecosystem: pkg.Ecosystem,
			Direct:    pkg.Direct,
			Severity:  highest,
			Services:  pkg.Services,
		},
	}
}

func vulnDocument(inv *models.Inventory, pkg *models.Package, v *models.Vulnerability) models.Document {
	var b strings.Builder
	fmt.Fprintf(&b, "Vulnerability %s in %s (%s severity", v.ID, pkg.Ref(), v.Severity)
	if v.CVSS > 0 {
		fmt.Fprintf(&b, ", CVSS %.1f", v.CVSS)
	}
	b.WriteString(").\n")
	if v.Summary != "" {
		b.WriteString(v.Summary + "\n")
	}
	if !v.Published.IsZero() {
		fmt.Fprintf(&b, "Published %s.\n", v.Published.Format("2006-01-02"))
	}
	if len(v.AffectedRanges) > 0 {
		fmt.Fprintf(&b, "Affected versions: %s.\n", strings.Join(v.AffectedRanges, ", "))
	}
	if len(v.Exploits) > 0 {
		maturities := make([]string, 0, len(v.Exploits))
		for _, e := range v.Exploits {
			if e.Maturity != "" {
				maturities = append(maturities, e.Maturity)
			}
		}
		if len(maturities) > 0 {
			fmt.Fprintf(&b, "Known exploits: %d (%s).\n", len(v.Exploits), strings.Join(maturities, ", "))
		} else {
			fmt.Fprintf(&b, "Known exploits: %d.\n", len(v.Exploits))
		}
	}
	fmt.Fprintf(&b, "The affected package is a %s dependency", directness(pkg.Direct))
	if len(pkg.Services) > 0 {
		fmt.Fprintf(&b, " used by %s", strings.Join(pkg.Services, ", "))
	}
	b.WriteString(".\n")
	return models.Document{
		// The package coordinates keep ids unique when one advisory
		// affects several packages in the same inventory.
		ID: "vuln:" + inv.ProjectID + ":" + pkg.Name + ":" + pkg.Version + ":" + v.ID,
		Text: b.String(),
		Meta: models.DocMeta{
			Kind:       models.DocKindVuln,
			ProjectID:  inv.ProjectID,
			Name:       pkg.Name,
			Version:    pkg.Version,
			Ecosystem:  pkg.Ecosystem,
			Direct:     pkg.Direct,
			Severity:   v.Severity,
			Services:   pkg.Services,
			AdvisoryID: v.ID,
		},
	}
}

// RiskFactors renders the human-readable risk factor list derived from a
// package's risk profile. An empty slice means no notable factors.
func RiskFactors(pkg *models.Package) []string {
	var factors []string
	if pkg.Risk.Abandoned {
		factors = append(factors, "abandoned (no maintainer activity)")
	}
	if pkg.Risk.NewlyCreated {
		factors = append(factors, "newly created package")
	}
	if pkg.Risk.TyposquattingSuspicion > 0.5 {
		factors = append(factors, fmt.Sprintf("possible typosquat (suspicion %.2f)", pkg.Risk.TyposquattingSuspicion))
	}
	return factors
}

func directness(direct bool) string {
	if direct {
		return "direct"
	}
	return "transitive"
}
