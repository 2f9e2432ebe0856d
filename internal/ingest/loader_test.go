package ingest

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adaptmel/missionquery/internal/observability"
)

func TestParseCoordinator(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		org     string
		country string
	}{
		{
			name:    "standard form",
			raw:     "Universidad de Valencia, Spain",
			org:     "UNIVERSIDAD DE VALENCIA",
			country: "Spain",
		},
		{
			name:    "comma inside organization name splits on last comma",
			raw:     "Ministry of Environment, Energy and Climate, Greece",
			org:     "MINISTRY OF ENVIRONMENT, ENERGY AND CLIMATE",
			country: "Greece",
		},
		{
			name: "no comma leaves org and country unset",
			raw:  "Some Organization Without Country",
		},
		{
			name: "empty value",
			raw:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ParseCoordinator(tt.raw)
			assert.Equal(t, tt.raw, c.Raw)
			assert.Equal(t, tt.org, c.Org)
			assert.Equal(t, tt.country, c.Country)
		})
	}
}

// newMigratedDB runs the real migrations against a temp database file
func newMigratedDB(t *testing.T) string {
	t.Helper()

	migrationsPath, err := filepath.Abs("../../migrations")
	require.NoError(t, err)

	dbPath := filepath.Join(t.TempDir(), "missions.db")
	require.NoError(t, RunMigrations(MigrationConfig{
		DatabasePath:   dbPath,
		MigrationsPath: migrationsPath,
	}))
	return dbPath
}

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const participantsCSV = `Participations,Legal Name,Participant Identification Code,Participant Type,NET EU financial contribution (euro),Funding programme,Country/Territory,CITY,NUTS 1 Name,NUTS 2 Name,NUTS 3 Name
3,UNIVERSIDAD DE VALENCIA,https://ec.europa.eu/info/funding-tenders/opportunities/portal/screen/how-to-participate/org-details/999999999,HES,1500000.50,HORIZON,Spain,Valencia,Este,Comunitat Valenciana,Valencia
1,COMUNE DI MILANO,https://ec.europa.eu/info/funding-tenders/opportunities/portal/screen/how-to-participate/org-details/888888888,PUB,250000,H2020,Italy,Milano,Nord-Ovest,Lombardia,Milano
2,SOME SWISS INSTITUTE,,REC,,HORIZON,Switzerland,Zurich,-,-,-
`

const projectsCSV = `ACRONYM,TITLE,Project id,Project Start Date,Project End Date,Total budget (euro),EU financial contribution (euro),HRP Result (link),Funding programme,TOPIC_CODE,Type of Action,Mission relevance flag,category,climate_risks,main_themes,regions,coordinator,website
REGILIENCE,Regional pathways to climate resilience,https://cordis.europa.eu/project/id/101036560,2021-10-01,2025-09-30,4999000,4999000,,HORIZON,LC-GD-1-3-2020,CSA,mission funded,Cross cutting,Drought; Flooding,Governance; Water management,Valencia (Spain); Galicia Region (Spain),"Universidad de Valencia, Spain",https://regilience.eu
HEATWATCH,Urban heat early warning,https://cordis.europa.eu/project/id/101069999,2022-06-01,2026-05-31,3200000,,https://results.example/heatwatch,HORIZON,,IA,mission funded,Support to regions,Heat waves,Infrastructure,City of Egaleo (Greece),Standalone Coordinator Without Comma,
`

func TestLoader_LoadAndSummarise(t *testing.T) {
	dbPath := newMigratedDB(t)

	loader, err := NewLoader(dbPath)
	require.NoError(t, err)
	defer loader.Close()

	participants := writeFixture(t, "participants.csv", participantsCSV)
	projects := writeFixture(t, "projects.csv", projectsCSV)

	n, err := loader.LoadParticipants(participants)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = loader.LoadProjects(projects)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	t.Run("coordinator split and uppercased", func(t *testing.T) {
		var raw, org, country string
		err := db.QueryRow(
			"SELECT coordinator, coordinator_org, coordinator_country FROM projects WHERE acronym = 'REGILIENCE'",
		).Scan(&raw, &org, &country)
		require.NoError(t, err)
		assert.Equal(t, "Universidad de Valencia, Spain", raw)
		assert.Equal(t, "UNIVERSIDAD DE VALENCIA", org)
		assert.Equal(t, "Spain", country)
	})

	t.Run("coordinator without comma leaves split columns NULL", func(t *testing.T) {
		var org, country sql.NullString
		err := db.QueryRow(
			"SELECT coordinator_org, coordinator_country FROM projects WHERE acronym = 'HEATWATCH'",
		).Scan(&org, &country)
		require.NoError(t, err)
		assert.False(t, org.Valid)
		assert.False(t, country.Valid)
	})

	t.Run("empty cells load as NULL", func(t *testing.T) {
		var contrib sql.NullFloat64
		err := db.QueryRow(
			"SELECT eu_contribution_euro FROM projects WHERE acronym = 'HEATWATCH'",
		).Scan(&contrib)
		require.NoError(t, err)
		assert.False(t, contrib.Valid)

		var code sql.NullString
		err = db.QueryRow(
			"SELECT topic_code FROM projects WHERE acronym = 'HEATWATCH'",
		).Scan(&code)
		require.NoError(t, err)
		assert.False(t, code.Valid)
	})

	t.Run("numeric affinities parsed", func(t *testing.T) {
		var participations int64
		var contribution float64
		err := db.QueryRow(
			"SELECT participations, net_eu_contribution_euro FROM participants WHERE legal_name = 'UNIVERSIDAD DE VALENCIA'",
		).Scan(&participations, &contribution)
		require.NoError(t, err)
		assert.Equal(t, int64(3), participations)
		assert.InDelta(t, 1500000.50, contribution, 0.001)
	})

	t.Run("coordinator join lines up with legal_name", func(t *testing.T) {
		var joined int
		err := db.QueryRow(
			"SELECT COUNT(*) FROM projects p JOIN participants part ON p.coordinator_org = part.legal_name",
		).Scan(&joined)
		require.NoError(t, err)
		assert.Equal(t, 1, joined)
	})

	t.Run("reload replaces rather than appends", func(t *testing.T) {
		n, err := loader.LoadParticipants(participants)
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		var count int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM participants").Scan(&count))
		assert.Equal(t, 3, count)
	})

	t.Run("loads are counted", func(t *testing.T) {
		m, ok := observability.GetGlobalMetrics().Get(
			observability.MetricIngestRows, map[string]string{"table": "projects"})
		require.True(t, ok)
		assert.GreaterOrEqual(t, m.Value, 2.0)
	})

	t.Run("budgets cover the EU contribution", func(t *testing.T) {
		var violations int
		err := db.QueryRow(
			"SELECT COUNT(*) FROM projects WHERE total_budget_euro < eu_contribution_euro",
		).Scan(&violations)
		require.NoError(t, err)
		assert.Equal(t, 0, violations)
	})

	t.Run("project end dates follow start dates", func(t *testing.T) {
		var violations int
		err := db.QueryRow(
			"SELECT COUNT(*) FROM projects WHERE project_end_date < project_start_date",
		).Scan(&violations)
		require.NoError(t, err)
		assert.Equal(t, 0, violations)
	})

	t.Run("summary figures", func(t *testing.T) {
		s, err := loader.Summary()
		require.NoError(t, err)
		assert.Equal(t, 3, s.Participants)
		assert.Equal(t, 2, s.Projects)
		assert.Equal(t, 3, s.ParticipantCountries)
		assert.InDelta(t, 1.75, s.ParticipantFundingMEUR, 0.01)
		assert.InDelta(t, 8.20, s.ProjectBudgetMEUR, 0.01)
		assert.InDelta(t, 5.00, s.EUContributionMEUR, 0.01)
		assert.Equal(t, "2021-10-01 to 2026-05-31", s.DateRange)
		assert.Equal(t, 1, s.CoordinatorJoins)
	})
}

func TestMigrationsCreateIndexes(t *testing.T) {
	dbPath := newMigratedDB(t)

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type = 'index' AND name LIKE 'idx_%'")
	require.NoError(t, err)
	defer rows.Close()

	names := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names[name] = true
	}
	require.NoError(t, rows.Err())

	for _, want := range []string{
		"idx_legal_name",
		"idx_country",
		"idx_participant_type",
		"idx_funding_programme_part",
		"idx_acronym",
		"idx_funding_programme_proj",
		"idx_coordinator_org",
		"idx_start_date",
		"idx_category",
	} {
		assert.True(t, names[want], "missing index %s", want)
	}
}

func TestLoader_MissingFile(t *testing.T) {
	dbPath := newMigratedDB(t)

	loader, err := NewLoader(dbPath)
	require.NoError(t, err)
	defer loader.Close()

	_, err = loader.LoadParticipants(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}
