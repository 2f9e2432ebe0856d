// Package schema describes the two tables of the adaptation mission
// database. The descriptor is static, versioned data: it feeds the
// translation prompt, the statement validator, and the diagnostic probes.
package schema

import (
	"fmt"
	"strings"
)

// Version identifies the dataset snapshot this descriptor was written
// against. Bump it when the source spreadsheets change shape.
const Version = "2025-05"

const (
	// MultiValueDelimiter separates entries inside list-valued text columns.
	MultiValueDelimiter = ";"

	// NonEUSentinel marks NUTS fields of organizations outside the EU
	// geographic hierarchy.
	NonEUSentinel = "-"

	TableProjects     = "projects"
	TableParticipants = "participants"
)

// Column describes a single column: its SQL type and the semantics a
// query generator needs to know about it.
type Column struct {
	Name        string
	Type        string
	Description string
}

// Table is a named, ordered set of columns.
type Table struct {
	Name        string
	Description string
	Columns     []Column
}

// Descriptor is the full two-table schema plus its data quirks.
type Descriptor struct {
	Version string
	Tables  []Table

	// NullCounts records the known NULL counts of nullable columns in
	// the published dataset, for the prompt's null-handling rule.
	NullCounts map[string]int
}

// Default returns the descriptor for the published adaptation mission
// dataset (46 projects, 908 participants at time of publication).
func Default() *Descriptor {
	return &Descriptor{
		Version: Version,
		Tables: []Table{
			{
				Name:        TableParticipants,
				Description: "Organizations participating in EU Adaptation Mission projects. Aggregate data per organization across all projects.",
				Columns: []Column{
					{"participant_id", "INTEGER", "Unique ID"},
					{"participations", "INTEGER", "Number of projects this organization participates in (1-10)"},
					{"legal_name", "TEXT", "Official organization name (uppercase)"},
					{"participant_code", "TEXT", "EU portal URL identifier"},
					{"participant_type", "TEXT", "Organization type: 'PUB' (public body), 'PRC' (private company), 'HES' (higher education), 'OTH' (other), 'REC' (research)"},
					{"net_eu_contribution_euro", "REAL", "Total EU funding received (euros)"},
					{"funding_programme", "TEXT", "'H2020' or 'HORIZON'"},
					{"country_territory", "TEXT", "Country/region (e.g., 'Spain', 'Italy', 'Greece')"},
					{"city", "TEXT", "City name"},
					{"nuts_1_name", "TEXT", "EU NUTS level 1 region name. Contains '-' for non-EU countries"},
					{"nuts_2_name", "TEXT", "EU NUTS level 2 region name. Contains '-' for non-EU countries"},
					{"nuts_3_name", "TEXT", "EU NUTS level 3 region name. Contains '-' for non-EU countries"},
				},
			},
			{
				Name:        TableProjects,
				Description: "EU-funded adaptation mission projects.",
				Columns: []Column{
					{"project_id", "INTEGER", "Unique ID"},
					{"acronym", "TEXT", "Short project name (e.g., 'REGILIENCE', 'TransformAr')"},
					{"title", "TEXT", "Full project title"},
					{"project_url", "TEXT", "CORDIS project page URL"},
					{"project_start_date", "DATE", "Start date (YYYY-MM-DD format, 2021-2029 range)"},
					{"project_end_date", "DATE", "End date (YYYY-MM-DD format)"},
					{"total_budget_euro", "REAL", "Total project budget in euros"},
					{"eu_contribution_euro", "REAL", "EU contribution in euros"},
					{"hrp_result_url", "TEXT", "Horizon Results Platform link"},
					{"funding_programme", "TEXT", "'H2020', 'HORIZON', or 'Horizon Europe'"},
					{"topic_code", "TEXT", "Call topic code (e.g., 'LC-GD-1-3-2020')"},
					{"type_of_action", "TEXT", "'CSA' (coordination/support) or 'IA' (innovation action)"},
					{"mission_relevance_flag", "TEXT", "Always 'mission funded'"},
					{"category", "TEXT", "'Support to regions' or 'Cross cutting'"},
					{"climate_risks", "TEXT", "Semicolon-separated list of climate risks, e.g. 'Drought; Flooding; Extreme heat; Sea level rise; Wildfires'"},
					{"main_themes", "TEXT", "Semicolon-separated list of adaptation themes, e.g. 'Governance; Infrastructure; Water management; Ecosystems and nature-based solutions'"},
					{"regions", "TEXT", "Semicolon-separated list of regions, e.g. 'Valencia (Spain); Galicia Region (Spain); City of Egaleo (Greece)'"},
					{"coordinator", "TEXT", "Project coordinator as free text 'Organization, Country'"},
					{"coordinator_org", "TEXT", "Coordinator organization name, uppercase (join key into participants.legal_name)"},
					{"coordinator_country", "TEXT", "Coordinator country"},
					{"website", "TEXT", "Project website URL"},
				},
			},
		},
		NullCounts: map[string]int{
			"topic_code":     3,
			"hrp_result_url": 3,
			"website":        1,
		},
	}
}

// KnownTables returns the table names in declaration order.
func (d *Descriptor) KnownTables() []string {
	names := make([]string, 0, len(d.Tables))
	for _, t := range d.Tables {
		names = append(names, t.Name)
	}
	return names
}

// Table looks up a table by name, case-insensitively.
func (d *Descriptor) Table(name string) (*Table, bool) {
	for i := range d.Tables {
		if strings.EqualFold(d.Tables[i].Name, name) {
			return &d.Tables[i], true
		}
	}
	return nil, false
}

// IsKnownTable reports whether name is one of the two tables.
func (d *Descriptor) IsKnownTable(name string) bool {
	_, ok := d.Table(name)
	return ok
}

// IsKnownColumn reports whether column exists in the named table.
func (d *Descriptor) IsKnownColumn(table, column string) bool {
	t, ok := d.Table(table)
	if !ok {
		return false
	}
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, column) {
			return true
		}
	}
	return false
}

// MultiValueColumns lists the projects columns holding semicolon-delimited
// lists; filters against these must use pattern matching, never equality.
func (d *Descriptor) MultiValueColumns() []string {
	return []string{"climate_risks", "main_themes", "regions"}
}

// URLColumns lists columns holding URLs. The contract excludes them from
// projections unless the question asks for them.
func (d *Descriptor) URLColumns() []string {
	return []string{"project_url", "participant_code", "hrp_result_url", "website"}
}

// Describe renders the schema block handed to the reasoning service.
func (d *Descriptor) Describe() string {
	var b strings.Builder

	b.WriteString("DATABASE SCHEMA:\n")
	for _, t := range d.Tables {
		b.WriteString(fmt.Sprintf("\nTABLE: %s\n%s\n", t.Name, t.Description))
		for _, c := range t.Columns {
			b.WriteString(fmt.Sprintf("- %s (%s): %s\n", c.Name, c.Type, c.Description))
		}
	}

	b.WriteString("\nRELATIONSHIP:\n")
	b.WriteString("To find the coordinator's details from the participants table:\n")
	b.WriteString("  JOIN participants ON projects.coordinator_org = participants.legal_name\n")
	b.WriteString("The match is a best-effort string comparison, not a foreign key: it may\n")
	b.WriteString("produce zero, one, or many rows and must be treated as optional (LEFT JOIN).\n")

	if len(d.NullCounts) > 0 {
		b.WriteString("\nKNOWN NULLS:\n")
		for _, col := range []string{"topic_code", "hrp_result_url", "website"} {
			if n, ok := d.NullCounts[col]; ok {
				b.WriteString(fmt.Sprintf("- %s has %d NULLs\n", col, n))
			}
		}
	}

	return b.String()
}
