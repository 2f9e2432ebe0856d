package ingest

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/adaptmel/missionquery/internal/errors"
	"github.com/adaptmel/missionquery/internal/observability"
)

const (
	kindText = iota
	kindInt
	kindReal
)

// fieldSpec maps a source spreadsheet header to a database column and
// the affinity its cells should be parsed into.
type fieldSpec struct {
	header string
	column string
	kind   int
}

var participantFields = []fieldSpec{
	{"Participations", "participations", kindInt},
	{"Legal Name", "legal_name", kindText},
	{"Participant Identification Code", "participant_code", kindText},
	{"Participant Type", "participant_type", kindText},
	{"NET EU financial contribution (euro)", "net_eu_contribution_euro", kindReal},
	{"Funding programme", "funding_programme", kindText},
	{"Country/Territory", "country_territory", kindText},
	{"CITY", "city", kindText},
	{"NUTS 1 Name", "nuts_1_name", kindText},
	{"NUTS 2 Name", "nuts_2_name", kindText},
	{"NUTS 3 Name", "nuts_3_name", kindText},
}

var projectFields = []fieldSpec{
	{"ACRONYM", "acronym", kindText},
	{"TITLE", "title", kindText},
	{"Project id", "project_url", kindText},
	{"Project Start Date", "project_start_date", kindText},
	{"Project End Date", "project_end_date", kindText},
	{"Total budget (euro)", "total_budget_euro", kindReal},
	{"EU financial contribution (euro)", "eu_contribution_euro", kindReal},
	{"HRP Result (link)", "hrp_result_url", kindText},
	{"Funding programme", "funding_programme", kindText},
	{"TOPIC_CODE", "topic_code", kindText},
	{"Type of Action", "type_of_action", kindText},
	{"Mission relevance flag", "mission_relevance_flag", kindText},
	{"category", "category", kindText},
	{"climate_risks", "climate_risks", kindText},
	{"main_themes", "main_themes", kindText},
	{"regions", "regions", kindText},
	{"coordinator", "coordinator", kindText},
	{"website", "website", kindText},
}

// Loader writes the adaptation mission spreadsheets into SQLite. The
// target tables must already exist (see RunMigrations).
type Loader struct {
	db *sql.DB
}

// NewLoader opens a read-write connection to the database file
func NewLoader(databasePath string) (*Loader, error) {
	db, err := sql.Open("sqlite3", databasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &Loader{db: db}, nil
}

// Close releases the database connection
func (l *Loader) Close() error {
	return l.db.Close()
}

// readRows reads a spreadsheet into a header row plus data rows. XLSX
// files go through excelize; anything else is treated as CSV.
func readRows(path string) ([]string, [][]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
		}
		defer f.Close()

		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil, fmt.Errorf("workbook %s has no sheets", path)
		}

		rows, err := f.GetRows(sheets[0])
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
		}
		if len(rows) == 0 {
			return nil, nil, fmt.Errorf("sheet %s is empty", sheets[0])
		}
		return rows[0], rows[1:], nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("file %s is empty", path)
	}
	return records[0], records[1:], nil
}

// headerIndex maps each field's source header onto its column position.
// A field missing from the file gets index -1 and loads as NULL.
func headerIndex(headers []string, fields []fieldSpec) map[string]int {
	positions := make(map[string]int, len(fields))
	for _, f := range fields {
		positions[f.column] = -1
		for i, h := range headers {
			if strings.TrimSpace(h) == f.header {
				positions[f.column] = i
				break
			}
		}
	}
	return positions
}

// cell returns the trimmed cell at idx, tolerating short rows. XLSX
// readers drop trailing empty cells.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseCell converts a raw cell into a driver value of the field's
// affinity. Empty cells become NULL.
func parseCell(raw string, kind int) (interface{}, error) {
	if raw == "" {
		return nil, nil
	}
	switch kind {
	case kindInt:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("not an integer: %q", raw)
		}
		return v, nil
	case kindReal:
		v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", raw)
		}
		return v, nil
	default:
		return raw, nil
	}
}

// LoadParticipants replaces the participants table with the contents of
// the given spreadsheet and returns the number of rows loaded.
func (l *Loader) LoadParticipants(path string) (int, error) {
	start := time.Now()
	n, err := l.loadParticipants(path)
	observability.RecordIngestMetrics("participants", n, time.Since(start), err)
	return n, err
}

func (l *Loader) loadParticipants(path string) (int, error) {
	headers, rows, err := readRows(path)
	if err != nil {
		return 0, apperrors.NewIngestionError(err, path)
	}

	positions := headerIndex(headers, participantFields)

	columns := []string{"participant_id"}
	for _, f := range participantFields {
		columns = append(columns, f.column)
	}

	tx, err := l.db.Begin()
	if err != nil {
		return 0, apperrors.NewIngestionError(err, path)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM participants"); err != nil {
		return 0, apperrors.NewIngestionError(err, path)
	}

	stmt, err := tx.Prepare(insertSQL("participants", columns))
	if err != nil {
		return 0, apperrors.NewIngestionError(err, path)
	}
	defer stmt.Close()

	for i, row := range rows {
		args := []interface{}{int64(i)}
		for _, f := range participantFields {
			v, err := parseCell(cell(row, positions[f.column]), f.kind)
			if err != nil {
				return 0, apperrors.NewIngestionError(
					fmt.Errorf("row %d column %s: %w", i+2, f.column, err), path)
			}
			args = append(args, v)
		}
		if _, err := stmt.Exec(args...); err != nil {
			return 0, apperrors.NewIngestionError(err, path)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.NewIngestionError(err, path)
	}
	return len(rows), nil
}

// LoadProjects replaces the projects table with the contents of the
// given spreadsheet. The coordinator field is additionally split into
// coordinator_org and coordinator_country.
func (l *Loader) LoadProjects(path string) (int, error) {
	start := time.Now()
	n, err := l.loadProjects(path)
	observability.RecordIngestMetrics("projects", n, time.Since(start), err)
	return n, err
}

func (l *Loader) loadProjects(path string) (int, error) {
	headers, rows, err := readRows(path)
	if err != nil {
		return 0, apperrors.NewIngestionError(err, path)
	}

	positions := headerIndex(headers, projectFields)

	columns := []string{"project_id"}
	for _, f := range projectFields {
		columns = append(columns, f.column)
	}
	columns = append(columns, "coordinator_org", "coordinator_country")

	tx, err := l.db.Begin()
	if err != nil {
		return 0, apperrors.NewIngestionError(err, path)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM projects"); err != nil {
		return 0, apperrors.NewIngestionError(err, path)
	}

	stmt, err := tx.Prepare(insertSQL("projects", columns))
	if err != nil {
		return 0, apperrors.NewIngestionError(err, path)
	}
	defer stmt.Close()

	for i, row := range rows {
		args := []interface{}{int64(i)}
		var rawCoordinator string
		for _, f := range projectFields {
			raw := cell(row, positions[f.column])
			if f.column == "coordinator" {
				rawCoordinator = raw
			}
			v, err := parseCell(raw, f.kind)
			if err != nil {
				return 0, apperrors.NewIngestionError(
					fmt.Errorf("row %d column %s: %w", i+2, f.column, err), path)
			}
			args = append(args, v)
		}

		coord := ParseCoordinator(rawCoordinator)
		args = append(args, nullable(coord.Org), nullable(coord.Country))

		if _, err := stmt.Exec(args...); err != nil {
			return 0, apperrors.NewIngestionError(err, path)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.NewIngestionError(err, path)
	}
	return len(rows), nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func insertSQL(table string, columns []string) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), placeholders)
}

// LoadSummary reports the headline numbers of a finished load, mirrored
// from the dataset's published reference figures.
type LoadSummary struct {
	Participants           int
	Projects               int
	ParticipantCountries   int
	ParticipantFundingMEUR float64
	ProjectBudgetMEUR      float64
	EUContributionMEUR     float64
	DateRange              string
	CoordinatorJoins       int
}

// Summary computes the load summary from the live tables
func (l *Loader) Summary() (*LoadSummary, error) {
	s := &LoadSummary{}

	queries := []struct {
		dest  interface{}
		query string
	}{
		{&s.Participants, "SELECT COUNT(*) FROM participants"},
		{&s.Projects, "SELECT COUNT(*) FROM projects"},
		{&s.ParticipantCountries, "SELECT COUNT(DISTINCT country_territory) FROM participants"},
		{&s.ParticipantFundingMEUR, "SELECT COALESCE(ROUND(SUM(net_eu_contribution_euro)/1000000, 2), 0) FROM participants"},
		{&s.ProjectBudgetMEUR, "SELECT COALESCE(ROUND(SUM(total_budget_euro)/1000000, 2), 0) FROM projects"},
		{&s.EUContributionMEUR, "SELECT COALESCE(ROUND(SUM(eu_contribution_euro)/1000000, 2), 0) FROM projects"},
		{&s.DateRange, "SELECT COALESCE(MIN(project_start_date) || ' to ' || MAX(project_end_date), '') FROM projects"},
		{&s.CoordinatorJoins, "SELECT COUNT(*) FROM projects p JOIN participants part ON p.coordinator_org = part.legal_name"},
	}

	for _, q := range queries {
		if err := l.db.QueryRow(q.query).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("summary query failed: %w", err)
		}
	}
	return s, nil
}
