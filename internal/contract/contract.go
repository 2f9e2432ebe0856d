// Package contract holds the rule set that governs how a natural-language
// question is mapped to SQL. The rules are versioned configuration data,
// not code: they are rendered verbatim into the system prompt on every
// translation call, and the tests pin their content.
package contract

import (
	"fmt"
	"strings"

	"github.com/adaptmel/missionquery/internal/schema"
)

// Version identifies the rule set revision sent to the reasoning service.
const Version = "3"

// Rule is one hard constraint the generated SQL must satisfy.
type Rule struct {
	Name string
	Text string
}

// Example is a worked question/SQL pair included as few-shot context.
type Example struct {
	Question string
	SQL      string
}

// Rules returns the constraint set in prompt order.
func Rules() []Rule {
	return []Rule{
		{
			Name: "MULTI-VALUE FIELD QUERIES",
			Text: `The climate_risks, main_themes, and regions columns contain semicolon-separated lists.
To search within these fields, use LIKE with wildcards and COLLATE NOCASE for case-insensitive matching:

CORRECT:
  WHERE climate_risks LIKE '%Drought%'
  WHERE main_themes LIKE '%Water management%'
  WHERE regions LIKE '%Spain%'
  WHERE climate_risks LIKE '%drought%' COLLATE NOCASE

WRONG (will not match):
  WHERE climate_risks = 'Drought'

When counting distinct values within these fields, you cannot easily unnest them.
Instead, count projects that mention the term:
  SELECT COUNT(*) FROM projects WHERE climate_risks LIKE '%Flooding%'`,
		},
		{
			Name: "MONETARY VALUES",
			Text: `- All monetary values are in EUROS (not thousands)
- Display with appropriate formatting: ROUND(euro_value, 2)
- Use clear aliases: total_budget_millions, avg_contribution_euro
- For millions: ROUND(euro_value / 1000000.0, 2) as value_millions
- For totals: ROUND(SUM(euro_column), 2) as total_euros`,
		},
		{
			Name: "DATE HANDLING",
			Text: `- Dates are stored as DATE type (YYYY-MM-DD)
- For year filtering: WHERE strftime('%Y', project_start_date) = '2021'
- For date ranges: WHERE project_start_date BETWEEN '2021-01-01' AND '2022-12-31'
- For currently active projects: WHERE project_start_date <= date('now') AND project_end_date >= date('now')
- Never cast dates to numbers`,
		},
		{
			Name: "GEOGRAPHIC QUERIES",
			Text: `- NUTS columns may contain "-" for non-EU countries - filter these out:
  WHERE nuts_1_name != '-'
- Country names are in various formats: 'Spain', 'Italy', 'Greece', etc.
- For EU-only queries: WHERE nuts_1_name != '-'`,
		},
		{
			Name: "JOINING TABLES",
			Text: `Only join when the user explicitly asks about coordinator details or wants to combine
participant and project information:
  SELECT p.acronym, p.total_budget_euro, part.participant_type, part.city
  FROM projects p
  LEFT JOIN participants part ON p.coordinator_org = part.legal_name

Do NOT join if only querying projects or only querying participants.
Always use LEFT JOIN so projects without a matching participant are kept.`,
		},
		{
			Name: "URL COLUMNS",
			Text: `- project_url, participant_code, hrp_result_url, website are URLs
- Do NOT include in SELECT unless specifically requested
- Use for reference but not for grouping/aggregation`,
		},
		{
			Name: "AGGREGATION DEFAULTS",
			Text: `- Default LIMIT: 20 rows unless specified otherwise
- Always include ORDER BY for TOP N queries
- Use ROUND() for all numeric outputs to 2 decimal places
- Include context columns (acronym for projects, legal_name for participants)`,
		},
		{
			Name: "NULL HANDLING",
			Text: `- topic_code, hrp_result_url, and website contain NULLs
- Use WHERE column IS NOT NULL when relevant`,
		},
		{
			Name: "OUTPUT FORMAT",
			Text: `- Return ONLY the SQL query, no explanation
- Return exactly one statement
- Use valid SQLite syntax
- Use meaningful aliases
- Do NOT include markdown code fences`,
		},
	}
}

// Examples returns the few-shot question/SQL pairs.
func Examples() []Example {
	return []Example{
		{
			Question: "What are the top 5 projects by budget?",
			SQL: `SELECT acronym, title,
       ROUND(total_budget_euro / 1000000.0, 2) as budget_millions,
       coordinator
FROM projects
ORDER BY total_budget_euro DESC
LIMIT 5`,
		},
		{
			Question: "Which countries have the most participants?",
			SQL: `SELECT country_territory,
       COUNT(*) as participant_count,
       ROUND(SUM(net_eu_contribution_euro) / 1000000.0, 2) as total_funding_millions
FROM participants
WHERE country_territory IS NOT NULL
GROUP BY country_territory
ORDER BY participant_count DESC
LIMIT 10`,
		},
		{
			Question: "List all projects addressing drought",
			SQL: `SELECT acronym, title, coordinator,
       ROUND(total_budget_euro / 1000000.0, 2) as budget_millions,
       project_start_date
FROM projects
WHERE climate_risks LIKE '%Drought%'
ORDER BY total_budget_euro DESC`,
		},
		{
			Question: "How many projects address water management?",
			SQL: `SELECT COUNT(*) as project_count,
       ROUND(SUM(total_budget_euro) / 1000000.0, 2) as total_budget_millions
FROM projects
WHERE main_themes LIKE '%Water management%'`,
		},
		{
			Question: "Show projects in Spain with their coordinator details",
			SQL: `SELECT p.acronym, p.title,
       p.coordinator,
       part.participant_type,
       part.city,
       ROUND(p.total_budget_euro / 1000000.0, 2) as budget_millions
FROM projects p
LEFT JOIN participants part ON p.coordinator_org = part.legal_name
WHERE p.regions LIKE '%Spain%'
ORDER BY p.total_budget_euro DESC`,
		},
		{
			Question: "Which organizations coordinate multiple projects?",
			SQL: `SELECT coordinator_org, coordinator_country,
       COUNT(*) as projects_coordinated,
       ROUND(SUM(total_budget_euro) / 1000000.0, 2) as total_budget_millions
FROM projects
GROUP BY coordinator_org, coordinator_country
HAVING COUNT(*) > 1
ORDER BY projects_coordinated DESC`,
		},
		{
			Question: "Average project budget by funding programme",
			SQL: `SELECT funding_programme,
       COUNT(*) as project_count,
       ROUND(AVG(total_budget_euro) / 1000000.0, 2) as avg_budget_millions,
       ROUND(SUM(eu_contribution_euro) / 1000000.0, 2) as total_eu_contribution_millions
FROM projects
GROUP BY funding_programme
ORDER BY project_count DESC`,
		},
		{
			Question: "List research organizations (REC) participating in projects",
			SQL: `SELECT legal_name, country_territory, participations,
       ROUND(net_eu_contribution_euro, 2) as contribution_euro
FROM participants
WHERE participant_type = 'REC'
ORDER BY participations DESC, net_eu_contribution_euro DESC
LIMIT 20`,
		},
		{
			Question: "Projects starting in 2022 addressing flooding",
			SQL: `SELECT acronym, title, coordinator,
       project_start_date,
       ROUND(total_budget_euro / 1000000.0, 2) as budget_millions
FROM projects
WHERE strftime('%Y', project_start_date) = '2022'
  AND climate_risks LIKE '%Flooding%'
ORDER BY project_start_date`,
		},
		{
			Question: "Projects coordinated by universities",
			SQL: `SELECT p.acronym, p.title,
       p.coordinator,
       ROUND(p.total_budget_euro / 1000000.0, 2) as budget_millions
FROM projects p
LEFT JOIN participants part ON p.coordinator_org = part.legal_name
WHERE part.participant_type = 'HES'
ORDER BY p.total_budget_euro DESC`,
		},
		{
			Question: "Italian-led projects addressing drought",
			SQL: `SELECT acronym, title, coordinator,
       ROUND(total_budget_euro / 1000000.0, 2) as budget_millions
FROM projects
WHERE coordinator_country LIKE '%Italy%'
  AND climate_risks LIKE '%Drought%'
ORDER BY total_budget_euro DESC`,
		},
	}
}

// SystemPrompt assembles the full system message handed to the reasoning
// service: task statement, schema description, rules, and examples.
func SystemPrompt(d *schema.Descriptor) string {
	var b strings.Builder

	b.WriteString("You convert natural language questions about EU Adaptation Mission projects into SQL queries.\n\n")
	b.WriteString(d.Describe())

	b.WriteString("\n=== CRITICAL RULES ===\n")
	for i, r := range Rules() {
		b.WriteString(fmt.Sprintf("\nRULE %d - %s:\n%s\n", i+1, r.Name, r.Text))
	}

	b.WriteString("\n=== EXAMPLES ===\n")
	for _, ex := range Examples() {
		b.WriteString(fmt.Sprintf("\nQ: %q\n%s\n", ex.Question, ex.SQL))
	}

	return b.String()
}
