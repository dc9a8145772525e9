/*
Package sqlite3adapter provides an implementation of the Adapter
interface in the sqlsource package that works over an SQLite3 database
file.
*/
package sqlite3adapter

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pbanos/dyntree/dataset/sqlsource"

	// Import of SQLite3 driver
	_ "github.com/mattn/go-sqlite3"
)

const samplesTableName = "samples"

type adapter struct {
	db *sql.DB
}

/*
New takes a path to an SQLite3 database file and a limit to the
connections to open against it at a time, and returns an Adapter that
works on the database, or an error if database/sql cannot set it up.
The file itself is not opened here: it is opened by the first query.
*/
func New(path string, maxConns int) (sqlsource.Adapter, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(maxConns)
	return &adapter{db}, nil
}

func (a *adapter) ColumnName(featureName string) (string, error) {
	if featureName == "id" {
		return "", fmt.Errorf(`'%s' is reserved and cannot be used as feature name`, featureName)
	}
	if strings.ContainsAny(featureName, `"`) {
		return "", fmt.Errorf(`feature name '%s' contains invalid character '"'`, featureName)
	}
	return featureName, nil
}

func (a *adapter) SelectRecords(ctx context.Context, columns []string) ([][]string, error) {
	var selectStmtBuf bytes.Buffer
	selectStmtBuf.WriteString("SELECT ")
	for i, c := range columns {
		if i > 0 {
			selectStmtBuf.WriteString(", ")
		}
		selectStmtBuf.WriteString(fmt.Sprintf(`CAST("%s" AS TEXT)`, c))
	}
	selectStmtBuf.WriteString(fmt.Sprintf(" FROM %s", samplesTableName))
	rows, err := a.db.QueryContext(ctx, selectStmtBuf.String())
	if err != nil {
		return nil, fmt.Errorf("querying %s: %v", samplesTableName, err)
	}
	defer rows.Close()
	var records [][]string
	for rows.Next() {
		values := make([]sql.NullString, len(columns))
		scans := make([]interface{}, len(columns))
		for i := range values {
			scans[i] = &values[i]
		}
		if err = rows.Scan(scans...); err != nil {
			return nil, fmt.Errorf("scanning %s row: %v", samplesTableName, err)
		}
		record := make([]string, len(columns))
		for i, v := range values {
			record[i] = v.String
		}
		records = append(records, record)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %v", samplesTableName, err)
	}
	return records, nil
}
