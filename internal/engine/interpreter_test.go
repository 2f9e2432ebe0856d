package engine

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adaptmel/missionquery/internal/store"
)

// newFixtureStore creates a sqlite fixture shaped like the mission
// database, small enough to reason about in assertions.
func newFixtureStore(t *testing.T) *store.Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "missions.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	stmts := []string{
		`CREATE TABLE projects (
			project_id INTEGER PRIMARY KEY,
			acronym TEXT,
			title TEXT,
			total_budget_euro REAL,
			eu_contribution_euro REAL,
			climate_risks TEXT,
			main_themes TEXT,
			coordinator_org TEXT,
			coordinator_country TEXT
		)`,
		`CREATE TABLE participants (
			participant_id INTEGER PRIMARY KEY,
			legal_name TEXT,
			country_territory TEXT,
			net_eu_contribution_euro REAL
		)`,
		`INSERT INTO projects VALUES
			(0, 'REGILIENCE', 'Regional pathways to climate resilience', 4999000, 4999000,
			 'Drought; Flooding; Extreme heat', 'Governance; Water management', 'UNIVERSIDAD DE VALENCIA', 'Spain'),
			(1, 'HEATWATCH', 'Urban heat early warning', 3200000, NULL,
			 'Heat waves; Extreme heat', 'Infrastructure', 'COMUNE DI MILANO', 'Italy'),
			(2, 'DELTAWORKS', 'Delta flood protection', 8000000, 6000000,
			 'Flooding; Sea level rise', 'Ecosystems and nature-based solutions', 'TU DELFT', 'Netherlands')`,
		`INSERT INTO participants VALUES
			(0, 'UNIVERSIDAD DE VALENCIA', 'Spain', 1500000),
			(1, 'COMUNE DI MILANO', 'Italy', 800000),
			(2, 'POLITECNICO DI MILANO', 'Italy', 400000),
			(3, 'TU DELFT', 'Netherlands', 2000000)`,
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	return store.New(path)
}

func TestClassify(t *testing.T) {
	s := newFixtureStore(t)
	in := NewInterpreter(s)
	ctx := context.Background()

	t.Run("rows classify as normal", func(t *testing.T) {
		rs, err := s.Execute(ctx, "SELECT acronym, total_budget_euro FROM projects")
		require.NoError(t, err)
		assert.Equal(t, StateNormal, in.Classify(rs))
	})

	t.Run("zero rows classify as empty", func(t *testing.T) {
		rs, err := s.Execute(ctx, "SELECT acronym FROM projects WHERE coordinator_country = 'France'")
		require.NoError(t, err)
		assert.Equal(t, StateEmpty, in.Classify(rs))
	})

	t.Run("aggregate over no matches is degenerate", func(t *testing.T) {
		rs, err := s.Execute(ctx,
			"SELECT AVG(total_budget_euro) FROM projects WHERE coordinator_country = 'France'")
		require.NoError(t, err)
		require.Equal(t, 1, rs.RowCount())
		assert.Equal(t, StateDegenerate, in.Classify(rs))
	})

	t.Run("count zero alongside null sum is normal", func(t *testing.T) {
		rs, err := s.Execute(ctx,
			"SELECT COUNT(*), SUM(total_budget_euro) FROM projects WHERE coordinator_country = 'France'")
		require.NoError(t, err)
		require.Equal(t, 1, rs.RowCount())
		assert.Equal(t, StateNormal, in.Classify(rs))
	})

	t.Run("single row with real values is normal", func(t *testing.T) {
		rs, err := s.Execute(ctx, "SELECT acronym FROM projects WHERE project_id = 0")
		require.NoError(t, err)
		assert.Equal(t, StateNormal, in.Classify(rs))
	})

	t.Run("single row with null text but no numbers is degenerate", func(t *testing.T) {
		rs, err := s.Execute(ctx,
			"SELECT MAX(acronym) FROM projects WHERE coordinator_country = 'France'")
		require.NoError(t, err)
		assert.Equal(t, StateDegenerate, in.Classify(rs))
	})
}

func TestDiagnose(t *testing.T) {
	s := newFixtureStore(t)
	in := NewInterpreter(s)
	ctx := context.Background()

	t.Run("multi-value LIKE miss explains list semantics", func(t *testing.T) {
		suggestions := in.Diagnose(ctx,
			"SELECT acronym FROM projects WHERE climate_risks LIKE '%flooding%'")
		require.NotEmpty(t, suggestions)

		joined := ""
		for _, sg := range suggestions {
			joined += sg + "\n"
		}
		assert.Contains(t, joined, "semicolon-separated")
		assert.Contains(t, joined, "Common climate risks")
		assert.Contains(t, joined, "Example climate risks in database")
	})

	t.Run("projects query without LIKE still samples risks", func(t *testing.T) {
		suggestions := in.Diagnose(ctx,
			"SELECT acronym FROM projects WHERE coordinator_country = 'France'")
		require.NotEmpty(t, suggestions)
		assert.Contains(t, suggestions[0], "Example climate risks in database")
	})

	t.Run("participants query lists top countries", func(t *testing.T) {
		suggestions := in.Diagnose(ctx,
			"SELECT legal_name FROM participants WHERE country_territory = 'Atlantis'")
		require.Len(t, suggestions, 1)
		assert.Contains(t, suggestions[0], "Top countries with participants")
		assert.Contains(t, suggestions[0], "Italy (2)")
	})

	t.Run("join queries collect hints from both tables", func(t *testing.T) {
		suggestions := in.Diagnose(ctx,
			"SELECT p.acronym FROM projects p JOIN participants part ON p.coordinator_org = part.legal_name WHERE part.country_territory = 'Atlantis'")
		assert.GreaterOrEqual(t, len(suggestions), 2)
	})

	t.Run("probe failure degrades to a message", func(t *testing.T) {
		broken := store.New(filepath.Join(t.TempDir(), "absent.db"))
		in := NewInterpreter(broken)
		suggestions := in.Diagnose(ctx, "SELECT acronym FROM projects WHERE 1 = 0")
		require.NotEmpty(t, suggestions)
		assert.Contains(t, suggestions[len(suggestions)-1], "Unable to analyze query")
	})
}
