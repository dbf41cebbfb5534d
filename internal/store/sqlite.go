package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sitewatch/fieldops/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS photos (
	id                  TEXT PRIMARY KEY,
	building_id         TEXT NOT NULL,
	worker_id           TEXT NOT NULL,
	image_ref           TEXT NOT NULL,
	thumbnail_ref       TEXT,
	captured_at         DATETIME NOT NULL,
	lat                 REAL NOT NULL,
	lon                 REAL NOT NULL,
	accuracy            REAL NOT NULL,
	tags                TEXT,
	detected_space_id   TEXT,
	detected_confidence REAL,
	override_space_id   TEXT,
	override_note       TEXT,
	version             INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS building_spaces (
	id          TEXT PRIMARY KEY,
	building_id TEXT NOT NULL,
	name        TEXT NOT NULL,
	category    TEXT,
	floor       TEXT,
	center_lat  REAL,
	center_lon  REAL,
	radius      REAL,
	access_type TEXT
);

CREATE TABLE IF NOT EXISTS space_stats (
	space_id      TEXT PRIMARY KEY,
	building_id   TEXT NOT NULL,
	photo_count   INTEGER NOT NULL DEFAULT 0,
	last_photo_at DATETIME
);

CREATE TABLE IF NOT EXISTS inspections (
	id              TEXT PRIMARY KEY,
	building_id     TEXT NOT NULL,
	year            INTEGER NOT NULL,
	month           INTEGER NOT NULL,
	inspector_id    TEXT,
	inspector_name  TEXT,
	inspection_date DATETIME,
	status          TEXT NOT NULL DEFAULT 'scheduled',
	next_date       DATETIME NOT NULL,
	version         INTEGER NOT NULL DEFAULT 1,
	UNIQUE (building_id, year, month)
);

CREATE TABLE IF NOT EXISTS checklist_items (
	id            TEXT PRIMARY KEY,
	inspection_id TEXT NOT NULL REFERENCES inspections(id) ON DELETE CASCADE,
	position      INTEGER NOT NULL,
	category      TEXT NOT NULL,
	title         TEXT NOT NULL,
	space_id      TEXT,
	status        TEXT NOT NULL DEFAULT 'pending',
	notes         TEXT
);

CREATE TABLE IF NOT EXISTS issues (
	id                TEXT PRIMARY KEY,
	checklist_item_id TEXT NOT NULL,
	title             TEXT NOT NULL,
	description       TEXT,
	severity          TEXT NOT NULL,
	status            TEXT NOT NULL DEFAULT 'open',
	created_at        DATETIME NOT NULL,
	resolved_at       DATETIME,
	version           INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_photos_building ON photos(building_id);
CREATE INDEX IF NOT EXISTS idx_spaces_building ON building_spaces(building_id);
CREATE INDEX IF NOT EXISTS idx_space_stats_building ON space_stats(building_id);
CREATE INDEX IF NOT EXISTS idx_items_inspection ON checklist_items(inspection_id);
CREATE INDEX IF NOT EXISTS idx_issues_item ON issues(checklist_item_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const photoColumns = `id, building_id, worker_id, image_ref, thumbnail_ref, captured_at,
	lat, lon, accuracy, tags, detected_space_id, detected_confidence,
	override_space_id, override_note, version`

func (s *SQLiteStore) CreatePhoto(ctx context.Context, photo *model.PhotoEvidence) error {
	tagsJSON, err := marshalTags(photo.Tags)
	if err != nil {
		return err
	}
	detSpace, detConf := smartLocationColumns(photo.SmartLocation)
	ovrSpace, ovrNote := overrideColumns(photo.WorkerOverride)

	photo.Version = 1
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO photos (`+photoColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		photo.ID, photo.BuildingID, photo.WorkerID, photo.ImageRef, nullString(photo.ThumbnailRef),
		photo.CaptureTimestamp.UTC(), photo.GPS.Latitude, photo.GPS.Longitude, photo.GPS.Accuracy,
		tagsJSON, detSpace, detConf, ovrSpace, ovrNote, photo.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return eris.Wrapf(ErrAlreadyExists, "sqlite: photo %s", photo.ID)
		}
		return eris.Wrapf(err, "sqlite: insert photo %s", photo.ID)
	}
	return nil
}

func (s *SQLiteStore) GetPhoto(ctx context.Context, id string) (*model.PhotoEvidence, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+photoColumns+` FROM photos WHERE id = ?`, id)
	return scanPhoto(row, id)
}

func (s *SQLiteStore) UpdatePhoto(ctx context.Context, photo *model.PhotoEvidence) error {
	tagsJSON, err := marshalTags(photo.Tags)
	if err != nil {
		return err
	}
	detSpace, detConf := smartLocationColumns(photo.SmartLocation)
	ovrSpace, ovrNote := overrideColumns(photo.WorkerOverride)

	res, err := s.db.ExecContext(ctx,
		`UPDATE photos SET tags = ?, detected_space_id = ?, detected_confidence = ?,
			override_space_id = ?, override_note = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		tagsJSON, detSpace, detConf, ovrSpace, ovrNote, photo.ID, photo.Version,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update photo %s", photo.ID)
	}
	if err := checkVersionedWrite(ctx, s.db, res, "photos", "photo", photo.ID); err != nil {
		return err
	}
	photo.Version++
	return nil
}

func (s *SQLiteStore) ListPhotosByBuilding(ctx context.Context, buildingID string) ([]model.PhotoEvidence, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+photoColumns+` FROM photos WHERE building_id = ? ORDER BY captured_at DESC`,
		buildingID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list photos for %s", buildingID)
	}
	defer rows.Close()

	var out []model.PhotoEvidence
	for rows.Next() {
		p, err := scanPhoto(rows, "")
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate photos")
}

func (s *SQLiteStore) ListSpaces(ctx context.Context, buildingID string) ([]model.BuildingSpace, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, building_id, name, category, floor, center_lat, center_lon, radius, access_type
		 FROM building_spaces WHERE building_id = ? ORDER BY name`,
		buildingID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list spaces for %s", buildingID)
	}
	defer rows.Close()

	var out []model.BuildingSpace
	for rows.Next() {
		var sp model.BuildingSpace
		var category, floor, accessType sql.NullString
		var lat, lon, radius sql.NullFloat64
		if err := rows.Scan(&sp.ID, &sp.BuildingID, &sp.Name, &category, &floor,
			&lat, &lon, &radius, &accessType); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan space")
		}
		sp.Category = category.String
		sp.Floor = floor.String
		sp.AccessType = accessType.String
		if lat.Valid && lon.Valid && radius.Valid {
			sp.Geofence = &model.Geofence{
				Center: model.Coordinate{Latitude: lat.Float64, Longitude: lon.Float64},
				Radius: radius.Float64,
			}
		}
		out = append(out, sp)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate spaces")
}

func (s *SQLiteStore) SeedSpaces(ctx context.Context, spaces []model.BuildingSpace) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin seed spaces")
	}
	defer tx.Rollback()

	for _, sp := range spaces {
		var lat, lon, radius any
		if sp.Geofence != nil {
			lat, lon, radius = sp.Geofence.Center.Latitude, sp.Geofence.Center.Longitude, sp.Geofence.Radius
		}
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO building_spaces
				(id, building_id, name, category, floor, center_lat, center_lon, radius, access_type)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sp.ID, sp.BuildingID, sp.Name, nullString(sp.Category), nullString(sp.Floor),
			lat, lon, radius, nullString(sp.AccessType),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: seed space %s", sp.ID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit seed spaces")
}

func (s *SQLiteStore) GetSpaceStats(ctx context.Context, buildingID string) ([]model.SpaceStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT space_id, building_id, photo_count, last_photo_at
		 FROM space_stats WHERE building_id = ?`,
		buildingID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get space stats for %s", buildingID)
	}
	defer rows.Close()

	var out []model.SpaceStats
	for rows.Next() {
		var st model.SpaceStats
		var last sql.NullTime
		if err := rows.Scan(&st.SpaceID, &st.BuildingID, &st.PhotoCount, &last); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan space stats")
		}
		if last.Valid {
			t := last.Time.UTC()
			st.LastPhotoAt = &t
		}
		out = append(out, st)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate space stats")
}

func (s *SQLiteStore) PutSpaceStats(ctx context.Context, buildingID string, stats []model.SpaceStats) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin put space stats")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM space_stats WHERE building_id = ?`, buildingID); err != nil {
		return eris.Wrapf(err, "sqlite: clear space stats for %s", buildingID)
	}
	for _, st := range stats {
		var last any
		if st.LastPhotoAt != nil {
			last = st.LastPhotoAt.UTC()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO space_stats (space_id, building_id, photo_count, last_photo_at) VALUES (?, ?, ?, ?)`,
			st.SpaceID, buildingID, st.PhotoCount, last,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert space stats %s", st.SpaceID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit space stats")
}

func (s *SQLiteStore) CreateInspection(ctx context.Context, checklist *model.InspectionChecklist) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin create inspection")
	}
	defer tx.Rollback()

	checklist.Version = 1
	var inspectionDate any
	if checklist.InspectionDate != nil {
		inspectionDate = checklist.InspectionDate.UTC()
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO inspections
			(id, building_id, year, month, inspector_id, inspector_name, inspection_date, status, next_date, version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		checklist.ID, checklist.BuildingID, checklist.Period.Year, checklist.Period.Month,
		nullString(checklist.InspectorID), nullString(checklist.InspectorName),
		inspectionDate, string(checklist.Status), checklist.NextInspectionDate.UTC(), checklist.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return eris.Wrapf(ErrAlreadyExists, "sqlite: inspection %s %s",
				checklist.BuildingID, checklist.Period)
		}
		return eris.Wrapf(err, "sqlite: insert inspection %s", checklist.ID)
	}

	if err := insertItems(ctx, tx, checklist.ID, checklist.Items); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit create inspection")
}

func (s *SQLiteStore) GetInspection(ctx context.Context, buildingID string, period model.Period) (*model.InspectionChecklist, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, building_id, year, month, inspector_id, inspector_name, inspection_date, status, next_date, version
		 FROM inspections WHERE building_id = ? AND year = ? AND month = ?`,
		buildingID, period.Year, period.Month)
	return s.scanInspection(ctx, row, buildingID+" "+period.String())
}

func (s *SQLiteStore) GetInspectionByID(ctx context.Context, id string) (*model.InspectionChecklist, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, building_id, year, month, inspector_id, inspector_name, inspection_date, status, next_date, version
		 FROM inspections WHERE id = ?`, id)
	return s.scanInspection(ctx, row, id)
}

func (s *SQLiteStore) UpdateInspection(ctx context.Context, checklist *model.InspectionChecklist) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin update inspection")
	}
	defer tx.Rollback()

	var inspectionDate any
	if checklist.InspectionDate != nil {
		inspectionDate = checklist.InspectionDate.UTC()
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE inspections SET inspector_id = ?, inspector_name = ?, inspection_date = ?,
			status = ?, next_date = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		nullString(checklist.InspectorID), nullString(checklist.InspectorName), inspectionDate,
		string(checklist.Status), checklist.NextInspectionDate.UTC(),
		checklist.ID, checklist.Version,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update inspection %s", checklist.ID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM inspections WHERE id = ?`, checklist.ID).Scan(&exists); err == sql.ErrNoRows {
			return eris.Wrapf(ErrNotFound, "sqlite: inspection %s", checklist.ID)
		}
		return eris.Wrapf(ErrConflict, "sqlite: inspection %s stale at version %d",
			checklist.ID, checklist.Version)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM checklist_items WHERE inspection_id = ?`, checklist.ID); err != nil {
		return eris.Wrapf(err, "sqlite: clear items for %s", checklist.ID)
	}
	if err := insertItems(ctx, tx, checklist.ID, checklist.Items); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sqlite: commit update inspection")
	}
	checklist.Version++
	return nil
}

func (s *SQLiteStore) CreateIssue(ctx context.Context, issue *model.Issue) error {
	issue.Version = 1
	var resolvedAt any
	if issue.ResolvedAt != nil {
		resolvedAt = issue.ResolvedAt.UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO issues (id, checklist_item_id, title, description, severity, status, created_at, resolved_at, version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		issue.ID, issue.ChecklistItemID, issue.Title, nullString(issue.Description),
		string(issue.Severity), string(issue.Status), issue.CreatedAt.UTC(), resolvedAt, issue.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return eris.Wrapf(ErrAlreadyExists, "sqlite: issue %s", issue.ID)
		}
		return eris.Wrapf(err, "sqlite: insert issue %s", issue.ID)
	}
	return nil
}

func (s *SQLiteStore) GetIssue(ctx context.Context, id string) (*model.Issue, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, checklist_item_id, title, description, severity, status, created_at, resolved_at, version
		 FROM issues WHERE id = ?`, id)
	return scanIssue(row, id)
}

func (s *SQLiteStore) UpdateIssue(ctx context.Context, issue *model.Issue) error {
	var resolvedAt any
	if issue.ResolvedAt != nil {
		resolvedAt = issue.ResolvedAt.UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE issues SET status = ?, resolved_at = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		string(issue.Status), resolvedAt, issue.ID, issue.Version,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update issue %s", issue.ID)
	}
	if err := checkVersionedWrite(ctx, s.db, res, "issues", "issue", issue.ID); err != nil {
		return err
	}
	issue.Version++
	return nil
}

func (s *SQLiteStore) ListIssuesByItem(ctx context.Context, checklistItemID string) ([]model.Issue, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, checklist_item_id, title, description, severity, status, created_at, resolved_at, version
		 FROM issues WHERE checklist_item_id = ? ORDER BY created_at`,
		checklistItemID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list issues for %s", checklistItemID)
	}
	defer rows.Close()

	var out []model.Issue
	for rows.Next() {
		is, err := scanIssue(rows, "")
		if err != nil {
			return nil, err
		}
		out = append(out, *is)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate issues")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scanInspection(ctx context.Context, row scannable, ref string) (*model.InspectionChecklist, error) {
	var c model.InspectionChecklist
	var inspectorID, inspectorName sql.NullString
	var inspectionDate sql.NullTime
	var status string

	err := row.Scan(&c.ID, &c.BuildingID, &c.Period.Year, &c.Period.Month,
		&inspectorID, &inspectorName, &inspectionDate, &status, &c.NextInspectionDate, &c.Version)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: inspection %s", ref)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan inspection")
	}
	c.InspectorID = inspectorID.String
	c.InspectorName = inspectorName.String
	c.Status = model.InspectionStatus(status)
	if inspectionDate.Valid {
		t := inspectionDate.Time.UTC()
		c.InspectionDate = &t
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, category, title, space_id, status, notes
		 FROM checklist_items WHERE inspection_id = ? ORDER BY position`, c.ID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list items for %s", c.ID)
	}
	defer rows.Close()
	for rows.Next() {
		var it model.ChecklistItem
		var spaceID, notes sql.NullString
		var itemStatus string
		if err := rows.Scan(&it.ID, &it.Category, &it.Title, &spaceID, &itemStatus, &notes); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan checklist item")
		}
		it.SpaceID = spaceID.String
		it.Notes = notes.String
		it.Status = model.ItemStatus(itemStatus)
		c.Items = append(c.Items, it)
	}
	return &c, eris.Wrap(rows.Err(), "sqlite: iterate checklist items")
}

func scanPhoto(row scannable, ref string) (*model.PhotoEvidence, error) {
	var p model.PhotoEvidence
	var thumbnail, tagsJSON, detSpace, ovrSpace, ovrNote sql.NullString
	var detConf sql.NullFloat64

	err := row.Scan(&p.ID, &p.BuildingID, &p.WorkerID, &p.ImageRef, &thumbnail,
		&p.CaptureTimestamp, &p.GPS.Latitude, &p.GPS.Longitude, &p.GPS.Accuracy,
		&tagsJSON, &detSpace, &detConf, &ovrSpace, &ovrNote, &p.Version)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: photo %s", ref)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan photo")
	}
	p.ThumbnailRef = thumbnail.String
	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &p.Tags); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal tags")
		}
	}
	if detSpace.Valid {
		p.SmartLocation = &model.SmartLocation{
			DetectedSpaceID: detSpace.String,
			Confidence:      detConf.Float64,
		}
	}
	if ovrSpace.Valid {
		p.WorkerOverride = &model.WorkerOverride{
			SpaceID: ovrSpace.String,
			Note:    ovrNote.String,
		}
	}
	return &p, nil
}

func scanIssue(row scannable, ref string) (*model.Issue, error) {
	var is model.Issue
	var description sql.NullString
	var resolvedAt sql.NullTime
	var severity, status string

	err := row.Scan(&is.ID, &is.ChecklistItemID, &is.Title, &description,
		&severity, &status, &is.CreatedAt, &resolvedAt, &is.Version)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: issue %s", ref)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan issue")
	}
	is.Description = description.String
	is.Severity = model.IssueSeverity(severity)
	is.Status = model.IssueStatus(status)
	if resolvedAt.Valid {
		t := resolvedAt.Time.UTC()
		is.ResolvedAt = &t
	}
	return &is, nil
}

func insertItems(ctx context.Context, tx *sql.Tx, inspectionID string, items []model.ChecklistItem) error {
	for i, it := range items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO checklist_items (id, inspection_id, position, category, title, space_id, status, notes)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			it.ID, inspectionID, i, it.Category, it.Title,
			nullString(it.SpaceID), string(it.Status), nullString(it.Notes),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert checklist item %s", it.ID)
		}
	}
	return nil
}

// checkVersionedWrite distinguishes a missing row from a stale version after
// an optimistic UPDATE touched zero rows.
func checkVersionedWrite(ctx context.Context, db *sql.DB, res sql.Result, table, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n > 0 {
		return nil
	}
	var exists int
	err = db.QueryRowContext(ctx, `SELECT 1 FROM `+table+` WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return eris.Wrapf(ErrNotFound, "sqlite: %s %s", entity, id)
	}
	if err != nil {
		return eris.Wrapf(err, "sqlite: check %s %s", entity, id)
	}
	return eris.Wrapf(ErrConflict, "sqlite: %s %s stale write", entity, id)
}

func marshalTags(tags []string) (any, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal tags")
	}
	return string(b), nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
