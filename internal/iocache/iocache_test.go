package iocache

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/coverwatch/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryStoreManager(t *testing.T) {
	mgr := NewHistoryStoreManager()
	assert.Nil(t, mgr.GetHistoryStore())

	// Empty backend keeps tracking disabled
	require.NoError(t, mgr.InitStores("", ""))
	assert.Nil(t, mgr.GetHistoryStore())

	require.NoError(t, mgr.InitStores(schema.SQLiteBackend, ":memory:"))
	require.NotNil(t, mgr.GetHistoryStore())

	mgr.CloseStores()
	mgr.CloseStores() // Idempotent
}

func TestHistoryStoreManagerInitError(t *testing.T) {
	mgr := NewHistoryStoreManager()
	err := mgr.InitStores("oracle", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize history store")
	assert.Nil(t, mgr.GetHistoryStore())
}

func TestClearHistory(t *testing.T) {
	tests := []struct {
		name    string
		backend schema.DatabaseBackend
		path    string
		wantErr string
	}{
		{name: "none is a no-op", backend: schema.NoneBackend},
		{name: "sqlite requires a path", backend: schema.SQLiteBackend, wantErr: "dbFilePath cannot be empty"},
		{name: "missing sqlite file is fine", backend: schema.SQLiteBackend, path: filepath.Join(t.TempDir(), "missing.db")},
		{name: "unsupported", backend: "oracle", wantErr: "unsupported history backend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClearHistory(tt.backend, tt.path, "")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestClearHistoryRemovesSQLiteFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	store, err := NewHistoryStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	_, err = store.BeginRun("trends", time.Now(), nil)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	require.NoError(t, ClearHistory(schema.SQLiteBackend, dbPath, ""))
	_, err = os.Stat(dbPath)
	assert.True(t, os.IsNotExist(err))
}

func TestExportHistory(t *testing.T) {
	store := newMemoryStore(t)
	start := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	runID, err := store.BeginRun("regressions", start, map[string]any{"days": 30})
	require.NoError(t, err)
	require.NoError(t, store.RecordComponentOutcome(runID, "xradio", decliningOutcome(start)))
	require.NoError(t, store.EndRun(runID, start.Add(time.Second), 1))

	base := filepath.Join(t.TempDir(), "export")
	var out bytes.Buffer
	require.NoError(t, ExportHistory(store, base, &out))

	assert.FileExists(t, base+".runs.parquet")
	assert.FileExists(t, base+".component_results.parquet")
	assert.Contains(t, out.String(), "Exported 1 runs")
	assert.Contains(t, out.String(), "Exported 1 component results")
}

func TestExportHistoryErrors(t *testing.T) {
	var out bytes.Buffer

	err := ExportHistory(newMemoryStore(t), "", &out)
	assert.ErrorContains(t, err, "--output-file is required")

	err = ExportHistory(nil, "out", &out)
	assert.ErrorContains(t, err, "history tracking is disabled")

	err = ExportHistory(newMemoryStore(t), filepath.Join(t.TempDir(), "out"), &out)
	assert.ErrorIs(t, err, ErrNothingToExport)

	failing := &MockHistoryStore{}
	failing.On("GetStatus").Return(schema.HistoryStatus{}, assert.AnError)
	err = ExportHistory(failing, "out", &out)
	assert.ErrorIs(t, err, assert.AnError)
	failing.AssertExpectations(t)
}

func TestExportHistoryRetrievalFailure(t *testing.T) {
	store := &MockHistoryStore{}
	store.On("GetStatus").Return(schema.HistoryStatus{Backend: "mysql", TotalRuns: 2}, nil)
	store.On("GetAllRuns").Return(nil, assert.AnError)

	err := ExportHistory(store, filepath.Join(t.TempDir(), "out"), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to retrieve runs")
	store.AssertNotCalled(t, "GetAllComponentResults")
}

func TestSQLUtils(t *testing.T) {
	assert.NoError(t, validateTableName("coverwatch_runs"))
	assert.Error(t, validateTableName(""))
	assert.Error(t, validateTableName("runs; DROP TABLE x"))

	assert.Equal(t, "`coverwatch_runs`", quoteTableName(runsTable, schema.MySQLBackend))
	assert.Equal(t, `"coverwatch_runs"`, quoteTableName(runsTable, schema.PostgreSQLBackend))

	query := "UPDATE t SET a = ?, b = ? WHERE id = ?"
	assert.Equal(t, "UPDATE t SET a = $1, b = $2 WHERE id = $3", rebind(query, schema.PostgreSQLBackend))
	assert.Equal(t, query, rebind(query, schema.MySQLBackend))

	dsn, err := normalizeMySQLDSN("user:pass@tcp(localhost:3306)/coverwatch")
	require.NoError(t, err)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "multiStatements=true")
}
