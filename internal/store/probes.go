package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/adaptmel/missionquery/internal/schema"
)

// CountryCount is one row of the country distribution probe
type CountryCount struct {
	Country string `json:"country"`
	Count   int    `json:"count"`
}

// SampleMultiValue returns up to limit distinct raw values of a
// semicolon-delimited projects column. Used to show users what the
// data actually contains when their filter matched nothing.
func (s *Store) SampleMultiValue(ctx context.Context, column string, limit int) ([]string, error) {
	if !schema.Default().IsKnownColumn(schema.TableProjects, column) {
		return nil, fmt.Errorf("unknown projects column %q", column)
	}

	query, args, err := sq.Select("DISTINCT " + column).
		From(schema.TableProjects).
		Where(sq.NotEq{column: nil}).
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build probe query: %w", err)
	}

	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// TopCountries returns the n countries with the most participant
// organizations, with counts, ordered descending.
func (s *Store) TopCountries(ctx context.Context, n int) ([]CountryCount, error) {
	query, args, err := sq.Select("country_territory", "COUNT(*) AS cnt").
		From(schema.TableParticipants).
		GroupBy("country_territory").
		OrderBy("cnt DESC").
		Limit(uint64(n)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build probe query: %w", err)
	}

	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []CountryCount
	for rows.Next() {
		var cc CountryCount
		if err := rows.Scan(&cc.Country, &cc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, cc)
	}
	return counts, rows.Err()
}
