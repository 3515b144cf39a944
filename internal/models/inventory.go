// Package models defines the shared data contracts: the enriched inventory
// handed over by the scan pipeline, the retrievable documents derived from it,
// and the answers produced by the reasoning engine.
package models

import "time"

// MaintainerTrust classifies how much the maintainer history of a package can
// be trusted, as assessed by the inventory producer.
type MaintainerTrust string

const (
	TrustHigh    MaintainerTrust = "high"
	TrustMedium  MaintainerTrust = "medium"
	TrustLow     MaintainerTrust = "low"
	TrustUnknown MaintainerTrust = "unknown"
)

// RiskProfile holds the supply-chain risk signals for a package.
type RiskProfile struct {
	Abandoned bool `json:"abandoned"`
	// TyposquattingSuspicion is 0..1; values above 0.5 are reported as a risk factor.
	TyposquattingSuspicion float64         `json:"typosquatting_suspicion"`
	NewlyCreated           bool            `json:"newly_created"`
	MaintainerTrust        MaintainerTrust `json:"maintainer_trust"`
}

// Exploit records a known exploit for a vulnerability.
type Exploit struct {
	Source   string `json:"source"`
	Maturity string `json:"maturity,omitempty"`
	URL      string `json:"url,omitempty"`
}

// Vulnerability is a single advisory affecting a package.
type Vulnerability struct {
	ID             string    `json:"id"`
	Source         string    `json:"source,omitempty"`
	CVSS           float64   `json:"cvss,omitempty"`
	Severity       Severity  `json:"severity"`
	Published      time.Time `json:"published,omitempty"`
	Summary        string    `json:"summary,omitempty"`
	AffectedRanges []string  `json:"affected_ranges,omitempty"`
	Exploits       []Exploit `json:"exploits,omitempty"`
	// References holds ids of related advisories (aliases, upstream ids).
	References []string `json:"references,omitempty"`
}

// PackageRef names another package in the same inventory by name and version.
// References that do not resolve within the snapshot are tolerated and simply
// not linked.
type PackageRef struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// PackageStats holds popularity and maintenance statistics from the registry.
type PackageStats struct {
	WeeklyDownloads int64     `json:"weekly_downloads,omitempty"`
	Maintainers     int       `json:"maintainers,omitempty"`
	LastRelease     time.Time `json:"last_release,omitempty"`
}

// Package is one entry of the dependency inventory. (Name, Version) pairs are
// unique within one inventory snapshot.
type Package struct {
	Name            string          `json:"name"`
	Version         string          `json:"version"`
	Ecosystem       string          `json:"ecosystem"`
	Direct          bool            `json:"direct"`
	License         string          `json:"license,omitempty"`
	Repository      string          `json:"repository,omitempty"`
	Services        []string        `json:"services,omitempty"`
	Stats           PackageStats    `json:"stats,omitempty"`
	Risk            RiskProfile     `json:"risk"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities,omitempty"`
	Requires        []PackageRef    `json:"requires,omitempty"`
	RequiredBy      []PackageRef    `json:"required_by,omitempty"`
}

// Ref returns the package's "name@version" reference string.
func (p *Package) Ref() string {
	return p.Name + "@" + p.Version
}

// TopRisk is one entry of the precomputed top-risk list.
type TopRisk struct {
	Name    string  `json:"name"`
	Version string  `json:"version"`
	Reason  string  `json:"reason"`
	Score   float64 `json:"score"` // 0..1
}

// SeverityCounts holds the vulnerability counts by category.
type SeverityCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// Total returns the sum over all categories.
func (c SeverityCounts) Total() int {
	return c.Critical + c.High + c.Medium + c.Low
}

// Summary is the precomputed aggregate view of an inventory.
type Summary struct {
	Counts   SeverityCounts `json:"counts"`
	TopRisks []TopRisk      `json:"top_risks,omitempty"`
}

// Inventory is one enriched SBOM snapshot for a project. It is produced once
// per scan by the external producer and cached wholesale by the engine;
// re-indexing the same project id replaces the cached value.
type Inventory struct {
	ProjectID   string    `json:"project_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Languages   []string  `json:"languages,omitempty"`
	Services    []string  `json:"services,omitempty"`
	Packages    []Package `json:"packages"`
	Summary     Summary   `json:"summary"`
}

// FindPackage returns the package with the given name and version, or nil.
func (inv *Inventory) FindPackage(name, version string) *Package {
	for i := range inv.Packages {
		if inv.Packages[i].Name == name && inv.Packages[i].Version == version {
			return &inv.Packages[i]
		}
	}
	return nil
}
