package engine

import (
	"sbomrag/internal/models"
)

// Remediation rules run in fixed order, each contributing at most one step.
// Steps are never reordered by severity score.

var criticalActions = []string{
	"Update affected packages to patched versions",
	"Apply temporary mitigations where no patched version is available",
	"Validate the updates in a staging environment",
}

var highActions = []string{
	"Plan a coordinated update of the affected packages",
	"Test compatibility of the updated versions",
	"Monitor for regressions after rollout",
}

var abandonedActions = []string{
	"Identify maintained alternatives for each abandoned package",
	"Migrate incrementally, starting with direct dependencies",
	"Pin current versions until the replacement lands",
}

// BuildRemediationPlan derives the ordered remediation plan from the
// inventory. It is a pure function: no randomness, no external calls. The
// plan is empty only when the inventory has no critical or high
// vulnerabilities and no abandoned packages.
func BuildRemediationPlan(inv *models.Inventory) []models.RemediationStep {
	var plan []models.RemediationStep

	if step, ok := severityStep(inv, models.SeverityCritical, "Remediate critical vulnerabilities", models.ImpactHigh, criticalActions); ok {
		plan = append(plan, step)
	}
	if step, ok := severityStep(inv, models.SeverityHigh, "Address high-severity vulnerabilities", models.ImpactMedium, highActions); ok {
		plan = append(plan, step)
	}
	if step, ok := abandonedStep(inv); ok {
		plan = append(plan, step)
	}
	return plan
}

// severityStep emits one step covering every package that carries at least
// one vulnerability of the given severity, in inventory package order.
func severityStep(inv *models.Inventory, severity models.Severity, title string, impact models.Impact, actions []string) (models.RemediationStep, bool) {
	var affected []string
	directAffected := 0
	for i := range inv.Packages {
		pkg := &inv.Packages[i]
		carries := false
		for j := range pkg.Vulnerabilities {
			if pkg.Vulnerabilities[j].Severity == severity {
				carries = true
				break
			}
		}
		if !carries {
			continue
		}
		affected = append(affected, pkg.Name)
		if pkg.Direct {
			directAffected++
		}
	}
	if len(affected) == 0 {
		return models.RemediationStep{}, false
	}
	return models.RemediationStep{
		Title:        title,
		Impact:       impact,
		BreakageRisk: breakageRisk(directAffected),
		Actions:      actions,
		Packages:     affected,
	}, true
}

func abandonedStep(inv *models.Inventory) (models.RemediationStep, bool) {
	var affected []string
	for i := range inv.Packages {
		if inv.Packages[i].Risk.Abandoned {
			affected = append(affected, inv.Packages[i].Ref())
		}
	}
	if len(affected) == 0 {
		return models.RemediationStep{}, false
	}
	return models.RemediationStep{
		Title:        "Replace abandoned packages",
		Impact:       models.ImpactMedium,
		BreakageRisk: models.ImpactMedium,
		Actions:      abandonedActions,
		Packages:     affected,
	}, true
}

// breakageRisk classifies by how many directly-depended packages are affected:
// three or more is HIGH, one or two MEDIUM, none (only transitive) LOW.
func breakageRisk(directAffected int) models.Impact {
	switch {
	case directAffected >= 3:
		return models.ImpactHigh
	case directAffected >= 1:
		return models.ImpactMedium
	default:
		return models.ImpactLow
	}
}
