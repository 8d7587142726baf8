package store

// Run queries
const (
	queryInsertRun = `
		INSERT INTO runs (id, state, queued, complete, failed, workers, stream, started_at, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryUpdateRun = `
		UPDATE runs SET
			state = ?,
			queued = ?,
			complete = ?,
			failed = ?,
			finished_at = ?,
			error = ?
		WHERE id = ?`

	querySelectRuns = `
		SELECT id, state, queued, complete, failed, workers, stream, started_at, finished_at, error
		FROM runs`

	queryGetRun = querySelectRuns + ` WHERE id = ?`

	queryListRuns = querySelectRuns + ` ORDER BY started_at DESC LIMIT ?`

	queryLatestRun = querySelectRuns + ` ORDER BY started_at DESC LIMIT 1`
)
