package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/binary-inputs/constants"
	"github.com/joseph-ayodele/binary-inputs/internal/common"
	"github.com/joseph-ayodele/binary-inputs/internal/entity"
)

// Run is one row of extract_run.
type Run struct {
	ID         uuid.UUID
	Source     string
	Status     constants.RunStatus
	StartedAt  time.Time
	FinishedAt *time.Time
	Error      string
	InputCount int
	Context    entity.PageContext
}

var ErrRunNotFound = errors.New("extract run not found")

type RunRepository interface {
	Start(ctx context.Context, source string) (*Run, error)
	FinishSuccess(ctx context.Context, runID uuid.UUID, pc entity.PageContext, inputs []entity.BinaryInput) error
	FinishFailure(ctx context.Context, runID uuid.UUID, status constants.RunStatus, message string) error
	Get(ctx context.Context, runID uuid.UUID) (*Run, error)
	LatestForSource(ctx context.Context, source string) (*Run, error)
	ListInputs(ctx context.Context, runID uuid.UUID) ([]entity.BinaryInput, error)
}

type runRepo struct {
	db  *DB
	log *slog.Logger
	now func() time.Time
}

func NewRunRepository(db *DB, log *slog.Logger) RunRepository {
	if log == nil {
		log = slog.Default()
	}
	return &runRepo{db: db, log: log, now: func() time.Time { return time.Now().UTC() }}
}

func (r *runRepo) Start(ctx context.Context, source string) (*Run, error) {
	if err := common.NewValidator().Field("source", source, common.Required).Err("INVALID_RUN", common.ErrInvalidInput); err != nil {
		return nil, err
	}
	run := &Run{ID: uuid.New(), Source: source, Status: constants.RunStatusRunning, StartedAt: r.now()}
	_, err := r.db.SQL.ExecContext(ctx, r.db.rebind(
		`INSERT INTO extract_run (id, source, status, started_at) VALUES (?, ?, ?, ?)`),
		run.ID.String(), run.Source, string(run.Status), formatTime(run.StartedAt))
	if err != nil {
		r.log.Error("extract_run start failed", "source", source, "err", err)
		return nil, fmt.Errorf("%w: start run: %w", common.ErrDatabase, err)
	}
	r.log.Info("extract_run started", "run_id", run.ID, "source", source)
	return run, nil
}

// FinishSuccess stores the records and marks the run OK in one transaction.
func (r *runRepo) FinishSuccess(ctx context.Context, runID uuid.UUID, pc entity.PageContext, inputs []entity.BinaryInput) error {
	v := common.NewValidator().Field("run_id", runID, common.UUID)
	for i, in := range inputs {
		v.Field(fmt.Sprintf("inputs[%d].input_id", i), in.InputID, common.Required).
			Field(fmt.Sprintf("inputs[%d].input_number", i), in.InputNumber, common.NonNegative)
	}
	if err := v.Err("INVALID_RUN", common.ErrInvalidInput); err != nil {
		return err
	}

	tx, err := r.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", common.ErrDatabase, err)
	}
	defer func() { _ = tx.Rollback() }()

	insert := r.db.rebind(`INSERT INTO binary_input (
		id, run_id, seq, device, device_model, device_function, board, input_id, input_number,
		description_line1, description_line2, full_description, page_number
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	for i, in := range inputs {
		if _, err := tx.ExecContext(ctx, insert,
			uuid.NewString(), runID.String(), i, in.Device, in.DeviceModel, in.DeviceFunction, in.Board,
			in.InputID, in.InputNumber, in.DescriptionLine1, in.DescriptionLine2, in.FullDescription, in.PageNumber,
		); err != nil {
			return fmt.Errorf("%w: insert input %s: %w", common.ErrDatabase, in.InputID, err)
		}
	}

	res, err := tx.ExecContext(ctx, r.db.rebind(`UPDATE extract_run
		SET status = ?, finished_at = ?, input_count = ?, substation = ?, bay = ?, voltage = ?, switchgear = ?
		WHERE id = ?`),
		string(constants.RunStatusOK), formatTime(r.now()), len(inputs),
		pc.Substation, pc.Bay, pc.VoltageLevel, pc.Switchgear, runID.String())
	if err != nil {
		return fmt.Errorf("%w: finish run: %w", common.ErrDatabase, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRunNotFound
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", common.ErrDatabase, err)
	}
	r.log.Info("extract_run finished", "run_id", runID, "inputs", len(inputs))
	return nil
}

func (r *runRepo) FinishFailure(ctx context.Context, runID uuid.UUID, status constants.RunStatus, message string) error {
	err := common.NewValidator().
		Field("run_id", runID, common.UUID).
		Field("status", string(status), common.OneOf(string(constants.RunStatusFailed), string(constants.RunStatusUnsupported))).
		Err("INVALID_RUN", common.ErrInvalidInput)
	if err != nil {
		return err
	}
	res, err := r.db.SQL.ExecContext(ctx, r.db.rebind(
		`UPDATE extract_run SET status = ?, finished_at = ?, error = ? WHERE id = ?`),
		string(status), formatTime(r.now()), message, runID.String())
	if err != nil {
		r.log.Error("extract_run finish failure failed", "run_id", runID, "err", err)
		return fmt.Errorf("%w: finish run: %w", common.ErrDatabase, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRunNotFound
	}
	r.log.Info("extract_run failed", "run_id", runID, "status", status, "error", message)
	return nil
}

const runColumns = `id, source, status, started_at, finished_at, error, input_count, substation, bay, voltage, switchgear`

func (r *runRepo) Get(ctx context.Context, runID uuid.UUID) (*Run, error) {
	row := r.db.SQL.QueryRowContext(ctx, r.db.rebind(
		`SELECT `+runColumns+` FROM extract_run WHERE id = ?`), runID.String())
	return scanRun(row)
}

func (r *runRepo) LatestForSource(ctx context.Context, source string) (*Run, error) {
	row := r.db.SQL.QueryRowContext(ctx, r.db.rebind(
		`SELECT `+runColumns+` FROM extract_run WHERE source = ? ORDER BY started_at DESC LIMIT 1`), source)
	return scanRun(row)
}

func (r *runRepo) ListInputs(ctx context.Context, runID uuid.UUID) ([]entity.BinaryInput, error) {
	run, err := r.Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.SQL.QueryContext(ctx, r.db.rebind(`SELECT
		device, device_model, device_function, board, input_id, input_number,
		description_line1, description_line2, full_description, page_number
		FROM binary_input WHERE run_id = ? ORDER BY seq`), runID.String())
	if err != nil {
		return nil, fmt.Errorf("%w: list inputs: %w", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []entity.BinaryInput
	for rows.Next() {
		in := entity.BinaryInput{PageContext: run.Context}
		if err := rows.Scan(&in.Device, &in.DeviceModel, &in.DeviceFunction, &in.Board, &in.InputID, &in.InputNumber,
			&in.DescriptionLine1, &in.DescriptionLine2, &in.FullDescription, &in.PageNumber); err != nil {
			return nil, fmt.Errorf("%w: scan input: %w", common.ErrDatabase, err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list inputs: %w", common.ErrDatabase, err)
	}
	return out, nil
}

func scanRun(row *sql.Row) (*Run, error) {
	var (
		run        Run
		id, status string
		started    string
		finished   sql.NullString
	)
	err := row.Scan(&id, &run.Source, &status, &started, &finished, &run.Error, &run.InputCount,
		&run.Context.Substation, &run.Context.Bay, &run.Context.VoltageLevel, &run.Context.Switchgear)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scan run: %w", common.ErrDatabase, err)
	}
	if run.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: run id %q: %w", common.ErrDatabase, id, err)
	}
	run.Status = constants.RunStatus(status)
	if run.StartedAt, err = parseTime(started); err != nil {
		return nil, err
	}
	if finished.Valid && finished.String != "" {
		t, err := parseTime(finished.String)
		if err != nil {
			return nil, err
		}
		run.FinishedAt = &t
	}
	return &run, nil
}

// timeLayout is fixed-width UTC RFC 3339, so text order is time order in both dialects.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp %q: %w", common.ErrDatabase, s, err)
	}
	return t, nil
}
