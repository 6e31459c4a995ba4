package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/baiirun/reqtrack/internal/model"
)

// Create validates in, inserts a new requirement with a "created" history
// entry and returns its id. Blank optional fields get their defaults.
func (db *DB) Create(ctx context.Context, in model.RequirementInput) (int64, error) {
	f, err := in.Validate()
	if err != nil {
		return 0, err
	}
	f = f.WithDefaults()
	now := db.timestamp()

	var id int64
	err = db.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO requirements (title, description, status, priority, progress, unit, developer, created_at, owner_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			f.Title, f.Description, string(f.Status), f.Priority, f.Progress, f.Unit, f.Developer, now, db.ownerID,
		)
		if err != nil {
			return fmt.Errorf("failed to create requirement: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read requirement id: %w", err)
		}
		return recordHistory(ctx, tx, id, model.ActionCreated, now)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Get retrieves a requirement and its comments by id.
func (db *DB) Get(ctx context.Context, id int64) (*model.Requirement, error) {
	var row requirementRow
	err := db.GetContext(ctx, &row, selectRequirement+` WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &model.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get requirement: %w", err)
	}

	req := row.toModel()
	comments, err := db.commentsFor(ctx, ` AND id = ?`, []any{id})
	if err != nil {
		return nil, err
	}
	req.Comments = comments[id]
	return &req, nil
}

// UpdateStatus sets a requirement's status and records
// "status_changed_to_<status>". Any accepted status may follow any other.
func (db *DB) UpdateStatus(ctx context.Context, id int64, status model.Status) (*model.StatusUpdate, error) {
	if err := model.ValidateStatus(status); err != nil {
		return nil, err
	}
	now := db.timestamp()

	err := db.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE requirements SET status = ? WHERE id = ?`, string(status), id)
		if err != nil {
			return fmt.Errorf("failed to update status: %w", err)
		}
		if err := expectOneRow(res, id); err != nil {
			return err
		}
		return recordHistory(ctx, tx, id, model.StatusChangedAction(status), now)
	})
	if err != nil {
		return nil, err
	}
	return &model.StatusUpdate{ID: id, NewStatus: status}, nil
}

// Edit replaces a requirement's fields and records "edited". Blank status,
// priority, unit and developer keep their stored values; blank progress
// means 0.
func (db *DB) Edit(ctx context.Context, id int64, in model.RequirementInput) error {
	f, err := in.Validate()
	if err != nil {
		return err
	}
	now := db.timestamp()

	return db.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE requirements
			SET title = ?,
			    description = ?,
			    status = COALESCE(NULLIF(?, ''), status),
			    priority = COALESCE(NULLIF(?, ''), priority),
			    progress = ?,
			    unit = COALESCE(NULLIF(?, ''), unit),
			    developer = COALESCE(NULLIF(?, ''), developer)
			WHERE id = ?`,
			f.Title, f.Description, string(f.Status), f.Priority, f.Progress, f.Unit, f.Developer, id,
		)
		if err != nil {
			return fmt.Errorf("failed to edit requirement: %w", err)
		}
		if err := expectOneRow(res, id); err != nil {
			return err
		}
		return recordHistory(ctx, tx, id, model.ActionEdited, now)
	})
}

// expectOneRow turns an UPDATE that matched nothing into a NotFoundError.
func expectOneRow(res sql.Result, id int64) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return &model.NotFoundError{ID: id}
	}
	return nil
}
