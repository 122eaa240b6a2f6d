package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/TreatIQ-Intelligence/internal/domain/treatment"
	"github.com/turtacn/TreatIQ-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/TreatIQ-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/TreatIQ-Intelligence/pkg/errors"
	"github.com/turtacn/TreatIQ-Intelligence/pkg/types/prediction"
)

// storeName labels this repository in store metrics.
const storeName = "postgres"

// historyAgeSpan is the widest age gap the engine treats as a similar
// patient; rows outside it are filtered in SQL.
const historyAgeSpan = 9

const treatmentColumns = `id, name_en, name_local, category, intensity, contraindications, best_for`

// QueryObserver receives the latency and outcome of every store round trip.
type QueryObserver interface {
	RecordStoreQuery(store, operation string, duration time.Duration, err error)
}

type noopObserver struct{}

func (noopObserver) RecordStoreQuery(string, string, time.Duration, error) {}

// TreatmentRepoOptions tunes the historical outcome query.
type TreatmentRepoOptions struct {
	// HistoryLookback drops outcomes recorded before now-HistoryLookback.
	// Zero keeps everything.
	HistoryLookback time.Duration
	// HistoryLimit caps the rows returned, newest first.  Zero is unbounded.
	HistoryLimit int
	Observer     QueryObserver
	Now          func() time.Time
}

// TreatmentRepository reads the treatment catalog and historical outcomes
// from PostgreSQL.
type TreatmentRepository struct {
	conn *postgres.Connection
	tx   *sql.Tx
	log  logging.Logger
	opts TreatmentRepoOptions
}

var (
	_ treatment.Repository    = (*TreatmentRepository)(nil)
	_ treatment.CatalogLister = (*TreatmentRepository)(nil)
)

// NewTreatmentRepository binds a repository to conn.
func NewTreatmentRepository(conn *postgres.Connection, log logging.Logger, opts TreatmentRepoOptions) *TreatmentRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if opts.Observer == nil {
		opts.Observer = noopObserver{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &TreatmentRepository{conn: conn, log: log.Named("treatment_repo"), opts: opts}
}

func (r *TreatmentRepository) executor() queryExecutor {
	if r.tx != nil {
		return r.tx
	}
	return r.conn.DB()
}

// withTx returns a copy of r bound to tx.
func (r *TreatmentRepository) withTx(tx *sql.Tx) *TreatmentRepository {
	cp := *r
	cp.tx = tx
	return &cp
}

func (r *TreatmentRepository) observe(op string, start time.Time, err error) {
	r.opts.Observer.RecordStoreQuery(storeName, op, r.opts.Now().Sub(start), err)
}

// ─────────────────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────────────────

// FetchTreatments implements treatment.Repository.  Unknown ids are omitted.
func (r *TreatmentRepository) FetchTreatments(ctx context.Context, ids []string) (out []*prediction.TreatmentRecord, err error) {
	if len(ids) == 0 {
		return []*prediction.TreatmentRecord{}, nil
	}
	start := r.opts.Now()
	defer func() { r.observe("fetch_treatments", start, err) }()

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := `SELECT ` + treatmentColumns + ` FROM treatments WHERE id IN (` + placeholders(1, len(ids)) + `)`

	rows, err := r.executor().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreQuery, "failed to fetch treatments")
	}
	defer rows.Close()

	out, err = scanTreatments(rows)
	if err != nil {
		return nil, err
	}
	r.log.Debug("fetched treatments", logging.Int("requested", len(ids)), logging.Int("found", len(out)))
	return out, nil
}

// FetchHistoricalOutcomes implements treatment.Repository.  Only outcomes of
// patients within the similar-age band are returned; a profile without an age
// has no similar patients and skips the query.
func (r *TreatmentRepository) FetchHistoricalOutcomes(ctx context.Context, profile *prediction.PatientProfile) (out []*prediction.HistoricalRecord, err error) {
	age, ok := profile.KnownAge()
	if !ok {
		return []*prediction.HistoricalRecord{}, nil
	}
	start := r.opts.Now()
	defer func() { r.observe("fetch_history", start, err) }()

	query, args := historyQuery(age, r.opts, start)
	rows, err := r.executor().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreQuery, "failed to fetch historical outcomes")
	}
	defer rows.Close()

	out = make([]*prediction.HistoricalRecord, 0)
	for rows.Next() {
		var (
			h        prediction.HistoricalRecord
			skinType string
		)
		if err := rows.Scan(&h.PatientAge, &skinType, &h.TreatmentID, &h.SuccessRate, &h.RecordedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStoreQuery, "failed to scan historical outcome")
		}
		h.SkinType = prediction.SkinType(skinType)
		out = append(out, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreQuery, "failed to iterate historical outcomes")
	}
	return out, nil
}

func historyQuery(age int, opts TreatmentRepoOptions, now time.Time) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(`SELECT patient_age, skin_type, treatment_id, success_rate, recorded_at FROM historical_outcomes WHERE patient_age BETWEEN $1 AND $2`)
	args := []interface{}{age - historyAgeSpan, age + historyAgeSpan}

	if opts.HistoryLookback > 0 {
		args = append(args, now.Add(-opts.HistoryLookback))
		fmt.Fprintf(&sb, ` AND recorded_at >= $%d`, len(args))
	}
	sb.WriteString(` ORDER BY recorded_at DESC, id DESC`)
	if opts.HistoryLimit > 0 {
		args = append(args, opts.HistoryLimit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}
	return sb.String(), args
}

// ListTreatments implements treatment.CatalogLister, ordered by id.
func (r *TreatmentRepository) ListTreatments(ctx context.Context) (out []*prediction.TreatmentRecord, err error) {
	start := r.opts.Now()
	defer func() { r.observe("list_treatments", start, err) }()

	rows, err := r.executor().QueryContext(ctx, `SELECT `+treatmentColumns+` FROM treatments ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreQuery, "failed to list treatments")
	}
	defer rows.Close()
	return scanTreatments(rows)
}

func scanTreatments(rows *sql.Rows) ([]*prediction.TreatmentRecord, error) {
	out := make([]*prediction.TreatmentRecord, 0)
	for rows.Next() {
		t, err := scanTreatment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreQuery, "failed to iterate treatments")
	}
	return out, nil
}

func scanTreatment(row scanner) (*prediction.TreatmentRecord, error) {
	var (
		t                 prediction.TreatmentRecord
		category          string
		intensity         string
		contraindications []byte
		bestFor           []byte
	)
	if err := row.Scan(&t.ID, &t.Name.EN, &t.Name.Local, &category, &intensity, &contraindications, &bestFor); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreQuery, "failed to scan treatment")
	}
	t.Category = prediction.Category(category)
	t.Intensity = prediction.Level(intensity)

	if err := decodeList(contraindications, &t.Contraindications); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCatalogInvalid, "malformed contraindications").WithDetail("id=" + t.ID)
	}
	if err := decodeList(bestFor, &t.BestFor); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCatalogInvalid, "malformed best_for").WithDetail("id=" + t.ID)
	}
	return &t, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Writes
// ─────────────────────────────────────────────────────────────────────────────

// ImportCatalog upserts every treatment of c and appends its historical
// outcomes in a single transaction.
func (r *TreatmentRepository) ImportCatalog(ctx context.Context, c *treatment.Catalog) (err error) {
	if c == nil {
		return nil
	}
	// Validates the catalog the same way the memory store does.
	if _, err := treatment.NewMemoryRepository(c); err != nil {
		return err
	}

	start := r.opts.Now()
	defer func() { r.observe("import_catalog", start, err) }()

	err = r.conn.WithTransaction(ctx, func(tx *sql.Tx) error {
		txRepo := r.withTx(tx)
		for _, t := range c.Treatments {
			if err := txRepo.upsertTreatment(ctx, t); err != nil {
				return err
			}
		}
		for _, h := range c.HistoricalOutcomes {
			if err := txRepo.insertOutcome(ctx, h); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.log.Info("catalog imported",
		logging.Int("treatments", len(c.Treatments)),
		logging.Int("historical_outcomes", len(c.HistoricalOutcomes)),
	)
	return nil
}

func (r *TreatmentRepository) upsertTreatment(ctx context.Context, t *prediction.TreatmentRecord) error {
	contra, err := encodeList(t.Contraindications)
	if err != nil {
		return err
	}
	bestFor, err := encodeList(t.BestFor)
	if err != nil {
		return err
	}
	intensity := t.Intensity
	if intensity == "" {
		intensity = prediction.LevelMedium
	}

	query := `
		INSERT INTO treatments (` + treatmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name_en = EXCLUDED.name_en,
			name_local = EXCLUDED.name_local,
			category = EXCLUDED.category,
			intensity = EXCLUDED.intensity,
			contraindications = EXCLUDED.contraindications,
			best_for = EXCLUDED.best_for,
			updated_at = NOW()
	`
	if _, err := r.executor().ExecContext(ctx, query,
		t.ID, t.Name.EN, t.Name.Local, string(t.Category), string(intensity), contra, bestFor,
	); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to upsert treatment").WithDetail("id=" + t.ID)
	}
	return nil
}

func (r *TreatmentRepository) insertOutcome(ctx context.Context, h *prediction.HistoricalRecord) error {
	recordedAt := h.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = r.opts.Now()
	}
	query := `INSERT INTO historical_outcomes (patient_age, skin_type, treatment_id, success_rate, recorded_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.executor().ExecContext(ctx, query,
		h.PatientAge, string(h.SkinType), h.TreatmentID, h.SuccessRate, recordedAt,
	); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert historical outcome").WithDetail("treatment_id=" + h.TreatmentID)
	}
	return nil
}

//Personal.AI order the ending
