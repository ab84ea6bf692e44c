package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pagesync/pagesync-server/internal/domain"
	"github.com/pagesync/pagesync-server/internal/sse"
	"github.com/pagesync/pagesync-server/internal/store"
)

// adminClockLead is how far an admin override's timestamp is pushed into
// the future so it outranks any snapshot a device submits around the same
// wall-clock moment. Device and server clocks are not synchronized, so this
// is a heuristic: a device clock more than an hour fast can still win.
const adminClockLead = time.Hour

// snapshotColumns is the ordered list of columns selected in snapshot
// queries. Must match the scan order in scanSnapshot.
const snapshotColumns = `seq, id, user_id, document_hash, progress, timestamp,
	device, source, percentage, page, epub_cfi, metadata, created_at`

// scanSnapshot scans a sql.Row (or sql.Rows via its Scan method) into a
// domain.ProgressSnapshot.
func scanSnapshot(scanner interface{ Scan(dest ...any) error }) (*domain.ProgressSnapshot, error) {
	var (
		snap      domain.ProgressSnapshot
		source    string
		page      sql.NullString
		epubCFI   sql.NullString
		metadata  sql.NullString
		createdAt string
	)

	err := scanner.Scan(
		&snap.Seq,
		&snap.ID,
		&snap.UserID,
		&snap.DocumentHash,
		&snap.Progress,
		&snap.Timestamp,
		&snap.Device,
		&source,
		&snap.Percentage,
		&page,
		&epubCFI,
		&metadata,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	snap.Source = domain.Source(source)
	if page.Valid {
		snap.Page = page.String
	}
	if epubCFI.Valid {
		snap.EpubCFI = epubCFI.String
	}
	if metadata.Valid {
		snap.Metadata = domain.ParseMetadata(metadata.String)
	}

	snap.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return &snap, nil
}

// latestSnapshotTx reads the most recent snapshot for (user, document)
// inside a transaction. Ties on timestamp break by insertion order.
func latestSnapshotTx(ctx context.Context, tx *sql.Tx, userID, documentHash string) (*domain.ProgressSnapshot, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+` FROM progress_snapshots
		WHERE user_id = ? AND document_hash = ?
		ORDER BY timestamp DESC, seq DESC LIMIT 1`,
		userID, documentHash)
	return scanSnapshot(row)
}

// AppendSnapshot appends a snapshot to the ledger.
//
// The prior latest snapshot's metadata for the same (user, document) is
// merged into the new row inside the same transaction, so metadata known
// from earlier snapshots survives pushes that carry none. The caller
// provides ID, timestamps, and source; Seq is assigned here.
func (s *Store) AppendSnapshot(ctx context.Context, snap *domain.ProgressSnapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	prior, err := latestSnapshotTx(ctx, tx, snap.UserID, snap.DocumentHash)
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	if prior != nil {
		snap.Metadata = prior.Metadata.Merge(snap.Metadata)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO progress_snapshots (
			id, user_id, document_hash, progress, timestamp,
			device, source, percentage, page, epub_cfi, metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID,
		snap.UserID,
		snap.DocumentHash,
		snap.Progress,
		snap.Timestamp,
		snap.Device,
		string(snap.Source),
		snap.Percentage,
		nullString(snap.Page),
		nullString(snap.EpubCFI),
		nullString(domain.EncodeMetadata(snap.Metadata)),
		formatTime(snap.CreatedAt),
	)
	if err != nil {
		return err
	}

	snap.Seq, err = result.LastInsertId()
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.emitter.Emit(sse.NewProgressUpdatedEvent(snap))
	return nil
}

// LatestSnapshot returns the most recent snapshot for (user, document),
// across all sources. Admin-synthesized rows are eligible here so a device
// pull honors administrative corrections.
// Returns store.ErrNotFound when the document has no history for the user.
func (s *Store) LatestSnapshot(ctx context.Context, userID, documentHash string) (*domain.ProgressSnapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+` FROM progress_snapshots
		WHERE user_id = ? AND document_hash = ?
		ORDER BY timestamp DESC, seq DESC LIMIT 1`,
		userID, documentHash)

	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// LatestSnapshotForDocument returns the most recent snapshot for a document
// across all users and sources. Used by the admin surfaces, which are not
// scoped to a user.
// Returns store.ErrNotFound when the document has no history.
func (s *Store) LatestSnapshotForDocument(ctx context.Context, documentHash string) (*domain.ProgressSnapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+` FROM progress_snapshots
		WHERE document_hash = ?
		ORDER BY timestamp DESC, seq DESC LIMIT 1`,
		documentHash)

	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// ListLatestPerDocument returns one snapshot per document: the latest row
// whose source is not excludeSource. The exclusion applies to the grouping
// search only; excluded rows remain reachable via LatestSnapshot and
// LatestSnapshotForDocument. The tie-break matches the latest queries
// exactly so both views agree on what "current" means.
func (s *Store) ListLatestPerDocument(ctx context.Context, excludeSource domain.Source) ([]*domain.ProgressSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+snapshotColumns+` FROM progress_snapshots p
		WHERE p.source != ?1
		  AND p.seq = (
			SELECT p2.seq FROM progress_snapshots p2
			WHERE p2.document_hash = p.document_hash AND p2.source != ?1
			ORDER BY p2.timestamp DESC, p2.seq DESC LIMIT 1
		  )
		ORDER BY p.timestamp DESC, p.seq DESC`,
		string(excludeSource))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []*domain.ProgressSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// DeleteDocumentSnapshots removes every snapshot for a document across all
// users. Returns the number of rows removed; zero is not an error here.
func (s *Store) DeleteDocumentSnapshots(ctx context.Context, documentHash string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM progress_snapshots WHERE document_hash = ?`, documentHash)
	if err != nil {
		return 0, err
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		s.emitter.Emit(sse.NewDocumentDeletedEvent(documentHash, removed))
	}
	return removed, nil
}

// RenameDevice rewrites the device field on every snapshot carrying
// oldName, across all documents and users. This is the one permitted bulk
// mutation of existing rows. Returns the number of rows changed.
func (s *Store) RenameDevice(ctx context.Context, oldName, newName string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE progress_snapshots SET device = ? WHERE device = ?`, newName, oldName)
	if err != nil {
		return 0, err
	}
	changed, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	if changed > 0 {
		s.emitter.Emit(sse.NewDeviceRenamedEvent(oldName, newName, changed))
	}
	return changed, nil
}

// EditDocument applies an administrative edit in a single transaction:
// read the document's current latest snapshot, merge the metadata patch,
// write the merged metadata back onto that row in place, and, only when a
// percentage is supplied, append an override snapshot that devices will see
// as the newest progress.
//
// The override copies the progress token, page, and locator from the latest
// snapshot because the admin does not know the true reading position and
// must not clobber it. Its timestamp leads the server clock by
// adminClockLead so it outranks concurrent device pushes.
//
// Returns the merged metadata and whether an override row was appended.
// Returns store.ErrNotFound when the document has no history.
func (s *Store) EditDocument(ctx context.Context, documentHash string, patch domain.Metadata, percentage *float64) (domain.Metadata, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Metadata{}, false, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+` FROM progress_snapshots
		WHERE document_hash = ?
		ORDER BY timestamp DESC, seq DESC LIMIT 1`,
		documentHash)

	latest, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return domain.Metadata{}, false, store.ErrNotFound
	}
	if err != nil {
		return domain.Metadata{}, false, err
	}

	merged := latest.Metadata.Merge(patch)

	if _, err := tx.ExecContext(ctx,
		`UPDATE progress_snapshots SET metadata = ? WHERE seq = ?`,
		nullString(domain.EncodeMetadata(merged)), latest.Seq); err != nil {
		return domain.Metadata{}, false, err
	}

	var override *domain.ProgressSnapshot
	if percentage != nil {
		now := time.Now()
		override = &domain.ProgressSnapshot{
			ID:           uuid.New().String(),
			UserID:       latest.UserID,
			DocumentHash: documentHash,
			Progress:     latest.Progress,
			Timestamp:    now.Add(adminClockLead).UnixMilli(),
			Device:       domain.AdminDeviceName,
			Source:       domain.SourceAdmin,
			Percentage:   *percentage,
			Page:         latest.Page,
			EpubCFI:      latest.EpubCFI,
			Metadata:     merged,
			CreatedAt:    now,
		}

		result, err := tx.ExecContext(ctx, `
			INSERT INTO progress_snapshots (
				id, user_id, document_hash, progress, timestamp,
				device, source, percentage, page, epub_cfi, metadata, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			override.ID,
			override.UserID,
			override.DocumentHash,
			override.Progress,
			override.Timestamp,
			override.Device,
			string(override.Source),
			override.Percentage,
			nullString(override.Page),
			nullString(override.EpubCFI),
			nullString(domain.EncodeMetadata(override.Metadata)),
			formatTime(override.CreatedAt),
		)
		if err != nil {
			return domain.Metadata{}, false, err
		}
		if override.Seq, err = result.LastInsertId(); err != nil {
			return domain.Metadata{}, false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Metadata{}, false, err
	}

	s.emitter.Emit(sse.NewMetadataUpdatedEvent(documentHash, merged))
	if override != nil {
		s.emitter.Emit(sse.NewProgressUpdatedEvent(override))
	}
	return merged, override != nil, nil
}

// CountDocumentSnapshots returns the number of ledger rows for a document.
func (s *Store) CountDocumentSnapshots(ctx context.Context, documentHash string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM progress_snapshots WHERE document_hash = ?`,
		documentHash).Scan(&count)
	return count, err
}
