package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sitewatch/fieldops/internal/db"
	"github.com/sitewatch/fieldops/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// the hottest store operations.
var preparedStatements = map[string]string{
	"get_photo":      `SELECT id, building_id, worker_id, image_ref, thumbnail_ref, captured_at, lat, lon, accuracy, tags, detected_space_id, detected_confidence, override_space_id, override_note, version FROM photos WHERE id = $1`,
	"update_photo":   `UPDATE photos SET tags = $1, detected_space_id = $2, detected_confidence = $3, override_space_id = $4, override_note = $5, version = version + 1 WHERE id = $6 AND version = $7`,
	"list_spaces":    `SELECT id, building_id, name, category, floor, geom, radius, access_type FROM building_spaces WHERE building_id = $1 ORDER BY name`,
	"get_inspection": `SELECT id, building_id, year, month, inspector_id, inspector_name, inspection_date, status, next_date, version FROM inspections WHERE building_id = $1 AND year = $2 AND month = $3`,
	"list_items":     `SELECT id, category, title, space_id, status, notes FROM checklist_items WHERE inspection_id = $1 ORDER BY position`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS photos (
	id                  TEXT PRIMARY KEY,
	building_id         TEXT NOT NULL,
	worker_id           TEXT NOT NULL,
	image_ref           TEXT NOT NULL,
	thumbnail_ref       TEXT,
	captured_at         TIMESTAMPTZ NOT NULL,
	lat                 DOUBLE PRECISION NOT NULL,
	lon                 DOUBLE PRECISION NOT NULL,
	accuracy            DOUBLE PRECISION NOT NULL,
	geom                BYTEA,
	tags                JSONB,
	detected_space_id   TEXT,
	detected_confidence DOUBLE PRECISION,
	override_space_id   TEXT,
	override_note       TEXT,
	version             BIGINT NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS building_spaces (
	id          TEXT PRIMARY KEY,
	building_id TEXT NOT NULL,
	name        TEXT NOT NULL,
	category    TEXT,
	floor       TEXT,
	center_lat  DOUBLE PRECISION,
	center_lon  DOUBLE PRECISION,
	radius      DOUBLE PRECISION,
	geom        BYTEA,
	access_type TEXT
);

CREATE TABLE IF NOT EXISTS space_stats (
	space_id      TEXT PRIMARY KEY,
	building_id   TEXT NOT NULL,
	photo_count   INTEGER NOT NULL DEFAULT 0,
	last_photo_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS inspections (
	id              TEXT PRIMARY KEY,
	building_id     TEXT NOT NULL,
	year            INTEGER NOT NULL,
	month           INTEGER NOT NULL,
	inspector_id    TEXT,
	inspector_name  TEXT,
	inspection_date TIMESTAMPTZ,
	status          TEXT NOT NULL DEFAULT 'scheduled',
	next_date       TIMESTAMPTZ NOT NULL,
	version         BIGINT NOT NULL DEFAULT 1,
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
	created_at        TIMESTAMPTZ NOT NULL,
	resolved_at       TIMESTAMPTZ,
	version           BIGINT NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_photos_building ON photos(building_id);
CREATE INDEX IF NOT EXISTS idx_spaces_building ON building_spaces(building_id);
CREATE INDEX IF NOT EXISTS idx_space_stats_building ON space_stats(building_id);
CREATE INDEX IF NOT EXISTS idx_items_inspection ON checklist_items(inspection_id);
CREATE INDEX IF NOT EXISTS idx_issues_item ON issues(checklist_item_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreatePhoto(ctx context.Context, photo *model.PhotoEvidence) error {
	tagsJSON, err := marshalTags(photo.Tags)
	if err != nil {
		return err
	}
	geomBytes, err := db.EncodePoint(photo.GPS.Latitude, photo.GPS.Longitude)
	if err != nil {
		return err
	}
	detSpace, detConf := smartLocationColumns(photo.SmartLocation)
	ovrSpace, ovrNote := overrideColumns(photo.WorkerOverride)

	photo.Version = 1
	_, err = s.pool.Exec(ctx,
		`INSERT INTO photos (id, building_id, worker_id, image_ref, thumbnail_ref, captured_at,
			lat, lon, accuracy, geom, tags, detected_space_id, detected_confidence,
			override_space_id, override_note, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		photo.ID, photo.BuildingID, photo.WorkerID, photo.ImageRef, nullString(photo.ThumbnailRef),
		photo.CaptureTimestamp.UTC(), photo.GPS.Latitude, photo.GPS.Longitude, photo.GPS.Accuracy,
		geomBytes, tagsJSON, detSpace, detConf, ovrSpace, ovrNote, photo.Version,
	)
	if err != nil {
		if isPgUniqueViolation(err) {
			return eris.Wrapf(ErrAlreadyExists, "postgres: photo %s", photo.ID)
		}
		return eris.Wrapf(err, "postgres: insert photo %s", photo.ID)
	}
	return nil
}

func (s *PostgresStore) GetPhoto(ctx context.Context, id string) (*model.PhotoEvidence, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, building_id, worker_id, image_ref, thumbnail_ref, captured_at,
			lat, lon, accuracy, tags, detected_space_id, detected_confidence,
			override_space_id, override_note, version
		 FROM photos WHERE id = $1`, id)
	p, err := scanPgPhoto(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: photo %s", id)
	}
	return p, err
}

func (s *PostgresStore) UpdatePhoto(ctx context.Context, photo *model.PhotoEvidence) error {
	tagsJSON, err := marshalTags(photo.Tags)
	if err != nil {
		return err
	}
	detSpace, detConf := smartLocationColumns(photo.SmartLocation)
	ovrSpace, ovrNote := overrideColumns(photo.WorkerOverride)

	tag, err := s.pool.Exec(ctx,
		`UPDATE photos SET tags = $1, detected_space_id = $2, detected_confidence = $3,
			override_space_id = $4, override_note = $5, version = version + 1
		 WHERE id = $6 AND version = $7`,
		tagsJSON, detSpace, detConf, ovrSpace, ovrNote, photo.ID, photo.Version,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update photo %s", photo.ID)
	}
	if err := s.checkPgVersionedWrite(ctx, tag, "photos", "photo", photo.ID); err != nil {
		return err
	}
	photo.Version++
	return nil
}

func (s *PostgresStore) ListPhotosByBuilding(ctx context.Context, buildingID string) ([]model.PhotoEvidence, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, building_id, worker_id, image_ref, thumbnail_ref, captured_at,
			lat, lon, accuracy, tags, detected_space_id, detected_confidence,
			override_space_id, override_note, version
		 FROM photos WHERE building_id = $1 ORDER BY captured_at DESC`, buildingID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list photos for %s", buildingID)
	}
	defer rows.Close()

	var out []model.PhotoEvidence
	for rows.Next() {
		p, err := scanPgPhoto(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate photos")
}

func (s *PostgresStore) ListSpaces(ctx context.Context, buildingID string) ([]model.BuildingSpace, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, building_id, name, category, floor, geom, radius, access_type
		 FROM building_spaces WHERE building_id = $1 ORDER BY name`, buildingID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list spaces for %s", buildingID)
	}
	defer rows.Close()

	var out []model.BuildingSpace
	for rows.Next() {
		var sp model.BuildingSpace
		var category, floor, accessType *string
		var geomBytes []byte
		var radius *float64
		if err := rows.Scan(&sp.ID, &sp.BuildingID, &sp.Name, &category, &floor,
			&geomBytes, &radius, &accessType); err != nil {
			return nil, eris.Wrap(err, "postgres: scan space")
		}
		sp.Category = deref(category)
		sp.Floor = deref(floor)
		sp.AccessType = deref(accessType)
		if geomBytes != nil && radius != nil {
			lat, lon, err := db.DecodePoint(geomBytes)
			if err != nil {
				return nil, eris.Wrapf(err, "postgres: space %s geometry", sp.ID)
			}
			sp.Geofence = &model.Geofence{
				Center: model.Coordinate{Latitude: lat, Longitude: lon},
				Radius: *radius,
			}
		}
		out = append(out, sp)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate spaces")
}

func (s *PostgresStore) SeedSpaces(ctx context.Context, spaces []model.BuildingSpace) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin seed spaces")
	}
	defer tx.Rollback(ctx)

	for _, sp := range spaces {
		var lat, lon, radius any
		var geomBytes []byte
		if sp.Geofence != nil {
			lat, lon, radius = sp.Geofence.Center.Latitude, sp.Geofence.Center.Longitude, sp.Geofence.Radius
			geomBytes, err = db.EncodePoint(sp.Geofence.Center.Latitude, sp.Geofence.Center.Longitude)
			if err != nil {
				return err
			}
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO building_spaces (id, building_id, name, category, floor, center_lat, center_lon, radius, geom, access_type)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 ON CONFLICT (id) DO UPDATE SET
				building_id = EXCLUDED.building_id, name = EXCLUDED.name,
				category = EXCLUDED.category, floor = EXCLUDED.floor,
				center_lat = EXCLUDED.center_lat, center_lon = EXCLUDED.center_lon,
				radius = EXCLUDED.radius, geom = EXCLUDED.geom, access_type = EXCLUDED.access_type`,
			sp.ID, sp.BuildingID, sp.Name, nullString(sp.Category), nullString(sp.Floor),
			lat, lon, radius, geomBytes, nullString(sp.AccessType),
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: seed space %s", sp.ID)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit seed spaces")
}

func (s *PostgresStore) GetSpaceStats(ctx context.Context, buildingID string) ([]model.SpaceStats, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT space_id, building_id, photo_count, last_photo_at
		 FROM space_stats WHERE building_id = $1`, buildingID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get space stats for %s", buildingID)
	}
	defer rows.Close()

	var out []model.SpaceStats
	for rows.Next() {
		var st model.SpaceStats
		var last *time.Time
		if err := rows.Scan(&st.SpaceID, &st.BuildingID, &st.PhotoCount, &last); err != nil {
			return nil, eris.Wrap(err, "postgres: scan space stats")
		}
		st.LastPhotoAt = last
		out = append(out, st)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate space stats")
}

func (s *PostgresStore) PutSpaceStats(ctx context.Context, buildingID string, stats []model.SpaceStats) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin put space stats")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM space_stats WHERE building_id = $1`, buildingID); err != nil {
		return eris.Wrapf(err, "postgres: clear space stats for %s", buildingID)
	}
	for _, st := range stats {
		var last any
		if st.LastPhotoAt != nil {
			last = st.LastPhotoAt.UTC()
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO space_stats (space_id, building_id, photo_count, last_photo_at) VALUES ($1, $2, $3, $4)`,
			st.SpaceID, buildingID, st.PhotoCount, last,
		); err != nil {
			return eris.Wrapf(err, "postgres: insert space stats %s", st.SpaceID)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit space stats")
}

func (s *PostgresStore) CreateInspection(ctx context.Context, checklist *model.InspectionChecklist) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin create inspection")
	}
	defer tx.Rollback(ctx)

	checklist.Version = 1
	var inspectionDate any
	if checklist.InspectionDate != nil {
		inspectionDate = checklist.InspectionDate.UTC()
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO inspections (id, building_id, year, month, inspector_id, inspector_name,
			inspection_date, status, next_date, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		checklist.ID, checklist.BuildingID, checklist.Period.Year, checklist.Period.Month,
		nullString(checklist.InspectorID), nullString(checklist.InspectorName),
		inspectionDate, string(checklist.Status), checklist.NextInspectionDate.UTC(), checklist.Version,
	)
	if err != nil {
		if isPgUniqueViolation(err) {
			return eris.Wrapf(ErrAlreadyExists, "postgres: inspection %s %s",
				checklist.BuildingID, checklist.Period)
		}
		return eris.Wrapf(err, "postgres: insert inspection %s", checklist.ID)
	}

	for i, it := range checklist.Items {
		if _, err := tx.Exec(ctx,
			`INSERT INTO checklist_items (id, inspection_id, position, category, title, space_id, status, notes)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			it.ID, checklist.ID, i, it.Category, it.Title,
			nullString(it.SpaceID), string(it.Status), nullString(it.Notes),
		); err != nil {
			return eris.Wrapf(err, "postgres: insert checklist item %s", it.ID)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit create inspection")
}

func (s *PostgresStore) GetInspection(ctx context.Context, buildingID string, period model.Period) (*model.InspectionChecklist, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, building_id, year, month, inspector_id, inspector_name, inspection_date, status, next_date, version
		 FROM inspections WHERE building_id = $1 AND year = $2 AND month = $3`,
		buildingID, period.Year, period.Month)
	return s.scanPgInspection(ctx, row, buildingID+" "+period.String())
}

func (s *PostgresStore) GetInspectionByID(ctx context.Context, id string) (*model.InspectionChecklist, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, building_id, year, month, inspector_id, inspector_name, inspection_date, status, next_date, version
		 FROM inspections WHERE id = $1`, id)
	return s.scanPgInspection(ctx, row, id)
}

func (s *PostgresStore) UpdateInspection(ctx context.Context, checklist *model.InspectionChecklist) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin update inspection")
	}
	defer tx.Rollback(ctx)

	var inspectionDate any
	if checklist.InspectionDate != nil {
		inspectionDate = checklist.InspectionDate.UTC()
	}
	tag, err := tx.Exec(ctx,
		`UPDATE inspections SET inspector_id = $1, inspector_name = $2, inspection_date = $3,
			status = $4, next_date = $5, version = version + 1
		 WHERE id = $6 AND version = $7`,
		nullString(checklist.InspectorID), nullString(checklist.InspectorName), inspectionDate,
		string(checklist.Status), checklist.NextInspectionDate.UTC(),
		checklist.ID, checklist.Version,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update inspection %s", checklist.ID)
	}
	if tag.RowsAffected() == 0 {
		var exists int
		err := tx.QueryRow(ctx, `SELECT 1 FROM inspections WHERE id = $1`, checklist.ID).Scan(&exists)
		if errors.Is(err, pgx.ErrNoRows) {
			return eris.Wrapf(ErrNotFound, "postgres: inspection %s", checklist.ID)
		}
		if err != nil {
			return eris.Wrapf(err, "postgres: check inspection %s", checklist.ID)
		}
		return eris.Wrapf(ErrConflict, "postgres: inspection %s stale at version %d",
			checklist.ID, checklist.Version)
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM checklist_items WHERE inspection_id = $1`, checklist.ID); err != nil {
		return eris.Wrapf(err, "postgres: clear items for %s", checklist.ID)
	}
	for i, it := range checklist.Items {
		if _, err := tx.Exec(ctx,
			`INSERT INTO checklist_items (id, inspection_id, position, category, title, space_id, status, notes)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			it.ID, checklist.ID, i, it.Category, it.Title,
			nullString(it.SpaceID), string(it.Status), nullString(it.Notes),
		); err != nil {
			return eris.Wrapf(err, "postgres: insert checklist item %s", it.ID)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "postgres: commit update inspection")
	}
	checklist.Version++
	return nil
}

func (s *PostgresStore) CreateIssue(ctx context.Context, issue *model.Issue) error {
	issue.Version = 1
	var resolvedAt any
	if issue.ResolvedAt != nil {
		resolvedAt = issue.ResolvedAt.UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO issues (id, checklist_item_id, title, description, severity, status, created_at, resolved_at, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		issue.ID, issue.ChecklistItemID, issue.Title, nullString(issue.Description),
		string(issue.Severity), string(issue.Status), issue.CreatedAt.UTC(), resolvedAt, issue.Version,
	)
	if err != nil {
		if isPgUniqueViolation(err) {
			return eris.Wrapf(ErrAlreadyExists, "postgres: issue %s", issue.ID)
		}
		return eris.Wrapf(err, "postgres: insert issue %s", issue.ID)
	}
	return nil
}

func (s *PostgresStore) GetIssue(ctx context.Context, id string) (*model.Issue, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, checklist_item_id, title, description, severity, status, created_at, resolved_at, version
		 FROM issues WHERE id = $1`, id)
	is, err := scanPgIssue(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: issue %s", id)
	}
	return is, err
}

func (s *PostgresStore) UpdateIssue(ctx context.Context, issue *model.Issue) error {
	var resolvedAt any
	if issue.ResolvedAt != nil {
		resolvedAt = issue.ResolvedAt.UTC()
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE issues SET status = $1, resolved_at = $2, version = version + 1
		 WHERE id = $3 AND version = $4`,
		string(issue.Status), resolvedAt, issue.ID, issue.Version,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update issue %s", issue.ID)
	}
	if err := s.checkPgVersionedWrite(ctx, tag, "issues", "issue", issue.ID); err != nil {
		return err
	}
	issue.Version++
	return nil
}

func (s *PostgresStore) ListIssuesByItem(ctx context.Context, checklistItemID string) ([]model.Issue, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, checklist_item_id, title, description, severity, status, created_at, resolved_at, version
		 FROM issues WHERE checklist_item_id = $1 ORDER BY created_at`, checklistItemID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list issues for %s", checklistItemID)
	}
	defer rows.Close()

	var out []model.Issue
	for rows.Next() {
		is, err := scanPgIssue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *is)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate issues")
}

// helpers

func (s *PostgresStore) checkPgVersionedWrite(ctx context.Context, tag pgconn.CommandTag, table, entity, id string) error {
	if tag.RowsAffected() > 0 {
		return nil
	}
	var exists int
	err := s.pool.QueryRow(ctx, `SELECT 1 FROM `+table+` WHERE id = $1`, id).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return eris.Wrapf(ErrNotFound, "postgres: %s %s", entity, id)
	}
	if err != nil {
		return eris.Wrapf(err, "postgres: check %s %s", entity, id)
	}
	return eris.Wrapf(ErrConflict, "postgres: %s %s stale write", entity, id)
}

func (s *PostgresStore) scanPgInspection(ctx context.Context, row pgx.Row, ref string) (*model.InspectionChecklist, error) {
	var c model.InspectionChecklist
	var inspectorID, inspectorName *string
	var inspectionDate *time.Time
	var status string

	err := row.Scan(&c.ID, &c.BuildingID, &c.Period.Year, &c.Period.Month,
		&inspectorID, &inspectorName, &inspectionDate, &status, &c.NextInspectionDate, &c.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: inspection %s", ref)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan inspection")
	}
	c.InspectorID = deref(inspectorID)
	c.InspectorName = deref(inspectorName)
	c.Status = model.InspectionStatus(status)
	c.InspectionDate = inspectionDate

	rows, err := s.pool.Query(ctx,
		`SELECT id, category, title, space_id, status, notes
		 FROM checklist_items WHERE inspection_id = $1 ORDER BY position`, c.ID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list items for %s", c.ID)
	}
	defer rows.Close()
	for rows.Next() {
		var it model.ChecklistItem
		var spaceID, notes *string
		var itemStatus string
		if err := rows.Scan(&it.ID, &it.Category, &it.Title, &spaceID, &itemStatus, &notes); err != nil {
			return nil, eris.Wrap(err, "postgres: scan checklist item")
		}
		it.SpaceID = deref(spaceID)
		it.Notes = deref(notes)
		it.Status = model.ItemStatus(itemStatus)
		c.Items = append(c.Items, it)
	}
	return &c, eris.Wrap(rows.Err(), "postgres: iterate checklist items")
}

func scanPgPhoto(row pgx.Row) (*model.PhotoEvidence, error) {
	var p model.PhotoEvidence
	var thumbnail, detSpace, ovrSpace, ovrNote *string
	var tagsJSON []byte
	var detConf *float64

	err := row.Scan(&p.ID, &p.BuildingID, &p.WorkerID, &p.ImageRef, &thumbnail,
		&p.CaptureTimestamp, &p.GPS.Latitude, &p.GPS.Longitude, &p.GPS.Accuracy,
		&tagsJSON, &detSpace, &detConf, &ovrSpace, &ovrNote, &p.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, eris.Wrap(err, "postgres: scan photo")
	}
	p.ThumbnailRef = deref(thumbnail)
	if len(tagsJSON) > 0 {
		if err := json.Unmarshal(tagsJSON, &p.Tags); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal tags")
		}
	}
	if detSpace != nil {
		conf := 0.0
		if detConf != nil {
			conf = *detConf
		}
		p.SmartLocation = &model.SmartLocation{DetectedSpaceID: *detSpace, Confidence: conf}
	}
	if ovrSpace != nil {
		p.WorkerOverride = &model.WorkerOverride{SpaceID: *ovrSpace, Note: deref(ovrNote)}
	}
	return &p, nil
}

func scanPgIssue(row pgx.Row) (*model.Issue, error) {
	var is model.Issue
	var description *string
	var resolvedAt *time.Time
	var severity, status string

	err := row.Scan(&is.ID, &is.ChecklistItemID, &is.Title, &description,
		&severity, &status, &is.CreatedAt, &resolvedAt, &is.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, eris.Wrap(err, "postgres: scan issue")
	}
	is.Description = deref(description)
	is.Severity = model.IssueSeverity(severity)
	is.Status = model.IssueStatus(status)
	is.ResolvedAt = resolvedAt
	return &is, nil
}

func smartLocationColumns(sl *model.SmartLocation) (spaceID, confidence any) {
	if sl == nil {
		return nil, nil
	}
	return sl.DetectedSpaceID, sl.Confidence
}

func overrideColumns(wo *model.WorkerOverride) (spaceID, note any) {
	if wo == nil {
		return nil, nil
	}
	return wo.SpaceID, nullString(wo.Note)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
