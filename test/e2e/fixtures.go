// Package e2e exercises the full index-then-ask flow against realistic
// inventories.
package e2e

import (
	"time"

	"sbomrag/internal/models"
)

// VulnerableInventory returns a small npm inventory with one critical and one
// high vulnerability, both on direct dependencies.
func VulnerableInventory() *models.Inventory {
	return &models.Inventory{
		ProjectID:   "shop-backend",
		GeneratedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Languages:   []string{"javascript"},
		Services:    []string{"api", "checkout"},
		Packages: []models.Package{
			{
				Name:      "axios",
				Version:   "0.21.1",
				Ecosystem: "npm",
				Direct:    true,
				License:   "MIT",
				Services:  []string{"api", "checkout"},
				Vulnerabilities: []models.Vulnerability{
					{
						ID:       "CVE-2021-3749",
						Source:   "nvd",
						CVSS:     9.8,
						Severity: models.SeverityCritical,
						Summary:  "Regular expression denial of service in trim function",
						Exploits: []models.Exploit{
							{Source: "exploit-db", Maturity: "poc"},
						},
					},
				},
			},
			{
				Name:      "lodash",
				Version:   "4.17.19",
				Ecosystem: "npm",
				Direct:    true,
				License:   "MIT",
				Services:  []string{"api"},
				Vulnerabilities: []models.Vulnerability{
					{
						ID:       "CVE-2021-23337",
						Source:   "nvd",
						CVSS:     7.2,
						Severity: models.SeverityHigh,
						Summary:  "Command injection via template function",
					},
				},
			},
			{
				Name:      "follow-redirects",
				Version:   "1.13.0",
				Ecosystem: "npm",
				Direct:    false,
				RequiredBy: []models.PackageRef{
					{Name: "axios", Version: "0.21.1"},
				},
			},
		},
		Summary: models.Summary{
			Counts: models.SeverityCounts{Critical: 1, High: 1},
			TopRisks: []models.TopRisk{
				{Name: "axios", Version: "0.21.1", Reason: "critical vulnerability with known exploit", Score: 0.95},
				{Name: "lodash", Version: "4.17.19", Reason: "high-severity vulnerability on a direct dependency", Score: 0.7},
			},
		},
	}
}

// CleanInventory returns an inventory with no vulnerabilities and no risk
// flags.
func CleanInventory() *models.Inventory {
	return &models.Inventory{
		ProjectID:   "docs-site",
		GeneratedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Languages:   []string{"javascript"},
		Packages: []models.Package{
			{Name: "marked", Version: "12.0.0", Ecosystem: "npm", Direct: true, License: "MIT"},
			{Name: "highlight.js", Version: "11.9.0", Ecosystem: "npm", Direct: true, License: "BSD-3-Clause"},
		},
	}
}
