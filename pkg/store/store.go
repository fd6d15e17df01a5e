// Package store is the PostgreSQL gateway for the FMCSA tables and the
// derived detection tables. Reads bulk-load carriers with their
// inspection-derived VINs and crash aggregates; detection write-back runs
// under a single transaction so readers never observe a partial run.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/fleetsight/fleetsight/pkg/detect"
	"github.com/fleetsight/fleetsight/pkg/reporting"
)

const insertBatchSize = 500

// Store wraps the database handle.
type Store struct {
	db     *sql.DB
	logger *reporting.Logger
}

// Open connects to PostgreSQL at databaseURL and verifies the connection.
func Open(databaseURL string, logger *reporting.Logger) (*Store, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// NewWithDB wraps an existing handle; used by tests.
func NewWithDB(db *sql.DB, logger *reporting.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ── Read side ───────────────────────────────────────────────────

// LoadCarriers bulk-loads every carrier, then joins in inspection VINs and
// crash aggregates in memory.
func (s *Store) LoadCarriers(ctx context.Context) (map[int64]*detect.Carrier, error) {
	carriers := make(map[int64]*detect.Carrier)

	rows, err := s.db.QueryContext(ctx, `
		SELECT "dotNumber", "legalName", "dbaName",
		       "phyStreet", "phyCity", "phyState", "phyZip",
		       "phone", "fax", "cellPhone",
		       "companyOfficer1", "companyOfficer2",
		       "statusCode", "priorRevokeFlag", "priorRevokeDot",
		       "addDate", "powerUnits", "totalDrivers"
		FROM "FmcsaCarrier"`)
	if err != nil {
		return nil, fmt.Errorf("failed to query carriers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c                                    detect.Carrier
			dbaName, street, city, state, zip    sql.NullString
			phone, fax, cell, off1, off2, status sql.NullString
			revokeFlag                           sql.NullString
			revokeDot                            sql.NullInt64
			addDate                              sql.NullTime
			powerUnits, totalDrivers             sql.NullInt64
		)
		if err := rows.Scan(&c.DOT, &c.LegalName, &dbaName,
			&street, &city, &state, &zip,
			&phone, &fax, &cell, &off1, &off2,
			&status, &revokeFlag, &revokeDot,
			&addDate, &powerUnits, &totalDrivers); err != nil {
			return nil, fmt.Errorf("failed to scan carrier: %w", err)
		}
		c.DBAName = dbaName.String
		c.PhyStreet = street.String
		c.PhyCity = city.String
		c.PhyState = state.String
		c.PhyZip = zip.String
		c.Phone = phone.String
		c.Fax = fax.String
		c.CellPhone = cell.String
		c.Officer1 = off1.String
		c.Officer2 = off2.String
		c.StatusCode = status.String
		c.PriorRevokeFlag = revokeFlag.String
		c.PriorRevokeDOT = revokeDot.Int64
		if addDate.Valid {
			c.AddDate = addDate.Time
		}
		c.PowerUnits = int(powerUnits.Int64)
		c.TotalDrivers = int(totalDrivers.Int64)
		carriers[c.DOT] = &c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read carriers: %w", err)
	}

	if err := s.loadVINs(ctx, carriers); err != nil {
		return nil, err
	}
	if err := s.loadCrashAggregates(ctx, carriers); err != nil {
		return nil, err
	}
	return carriers, nil
}

func (s *Store) loadVINs(ctx context.Context, carriers map[int64]*detect.Carrier) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT "dotNumber", "vin"
		FROM "FmcsaInspection"
		WHERE "vin" IS NOT NULL AND "vin" != ''`)
	if err != nil {
		return fmt.Errorf("failed to query inspection VINs: %w", err)
	}
	defer rows.Close()

	seen := make(map[int64]map[string]struct{})
	for rows.Next() {
		var dot int64
		var vin string
		if err := rows.Scan(&dot, &vin); err != nil {
			return fmt.Errorf("failed to scan VIN: %w", err)
		}
		c, ok := carriers[dot]
		if !ok {
			continue
		}
		vin = strings.ToUpper(strings.TrimSpace(vin))
		if vin == "" {
			continue
		}
		if seen[dot] == nil {
			seen[dot] = make(map[string]struct{})
		}
		if _, dup := seen[dot][vin]; dup {
			continue
		}
		seen[dot][vin] = struct{}{}
		c.VINs = append(c.VINs, vin)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read VINs: %w", err)
	}
	for _, c := range carriers {
		sort.Strings(c.VINs)
	}
	return nil
}

func (s *Store) loadCrashAggregates(ctx context.Context, carriers map[int64]*detect.Carrier) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT "dotNumber", COUNT(*), COALESCE(SUM("fatalities"), 0)
		FROM "FmcsaCrash"
		GROUP BY "dotNumber"`)
	if err != nil {
		return fmt.Errorf("failed to query crash aggregates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dot int64
		var count, fatalities int
		if err := rows.Scan(&dot, &count, &fatalities); err != nil {
			return fmt.Errorf("failed to scan crash aggregate: %w", err)
		}
		if c, ok := carriers[dot]; ok {
			c.CrashCount = count
			c.Fatalities = fatalities
		}
	}
	return rows.Err()
}

// LoadSeedIdentifiers reads back the expansion identifiers for the given
// seed carriers: phones of 7+ characters, complete uppercased address
// triples, and officer names longer than 3 characters. Results are deduped
// and sorted.
func (s *Store) LoadSeedIdentifiers(ctx context.Context, dots []int64) (*SeedIdentifiers, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT "phone", "phyStreet", "phyCity", "phyState",
		       "companyOfficer1", "companyOfficer2"
		FROM "FmcsaCarrier"
		WHERE "dotNumber" = ANY($1)`, pq.Array(dots))
	if err != nil {
		return nil, fmt.Errorf("failed to query seed identifiers: %w", err)
	}
	defer rows.Close()

	phones := make(map[string]struct{})
	addresses := make(map[AddressTriple]struct{})
	officers := make(map[string]struct{})

	for rows.Next() {
		var phone, street, city, state, off1, off2 sql.NullString
		if err := rows.Scan(&phone, &street, &city, &state, &off1, &off2); err != nil {
			return nil, fmt.Errorf("failed to scan seed identifiers: %w", err)
		}
		if p := strings.TrimSpace(phone.String); len(p) >= 7 {
			phones[p] = struct{}{}
		}
		st, ci, sta := strings.TrimSpace(street.String), strings.TrimSpace(city.String), strings.TrimSpace(state.String)
		if st != "" && ci != "" && sta != "" {
			addresses[AddressTriple{
				Street: strings.ToUpper(st),
				City:   strings.ToUpper(ci),
				State:  strings.ToUpper(sta),
			}] = struct{}{}
		}
		for _, off := range []string{off1.String, off2.String} {
			if o := strings.TrimSpace(off); len(o) > 3 {
				officers[strings.ToUpper(o)] = struct{}{}
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read seed identifiers: %w", err)
	}

	out := &SeedIdentifiers{}
	for p := range phones {
		out.Phones = append(out.Phones, p)
	}
	sort.Strings(out.Phones)
	for a := range addresses {
		out.Addresses = append(out.Addresses, a)
	}
	sort.Slice(out.Addresses, func(i, j int) bool {
		a, b := out.Addresses[i], out.Addresses[j]
		if a.Street != b.Street {
			return a.Street < b.Street
		}
		if a.City != b.City {
			return a.City < b.City
		}
		return a.State < b.State
	})
	for o := range officers {
		out.Officers = append(out.Officers, o)
	}
	sort.Strings(out.Officers)
	return out, nil
}

// KnownDots reports which of the given DOT numbers already exist.
func (s *Store) KnownDots(ctx context.Context, dots []int64) (map[int64]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT "dotNumber" FROM "FmcsaCarrier" WHERE "dotNumber" = ANY($1)`, pq.Array(dots))
	if err != nil {
		return nil, fmt.Errorf("failed to query known dots: %w", err)
	}
	defer rows.Close()

	known := make(map[int64]bool, len(dots))
	for rows.Next() {
		var dot int64
		if err := rows.Scan(&dot); err != nil {
			return nil, fmt.Errorf("failed to scan dot: %w", err)
		}
		known[dot] = true
	}
	return known, rows.Err()
}

// ── Ingestion write side ────────────────────────────────────────

// UpsertCarriers inserts or updates census rows keyed by dotNumber.
func (s *Store) UpsertCarriers(ctx context.Context, carrierRows []CarrierRow) (int, error) {
	if len(carrierRows) == 0 {
		return 0, nil
	}
	const cols = 24
	total := 0
	for _, chunk := range chunkCarrierRows(carrierRows, insertBatchSize) {
		now := time.Now().UTC()
		args := make([]interface{}, 0, len(chunk)*cols)
		for _, r := range chunk {
			args = append(args,
				uuid.NewString(), r.DOT, r.LegalName, r.DBAName,
				r.PhyStreet, r.PhyCity, r.PhyState, r.PhyZip,
				r.Phone, r.Fax, r.CellPhone,
				r.Officer1, r.Officer2,
				r.StatusCode, r.PriorRevokeFlag, r.PriorRevokeDOT,
				r.AddDate, r.PowerUnits, r.TotalDrivers,
				r.FleetSize, r.DocketPrefix, r.DocketNumber,
				now, now)
		}
		query := `
			INSERT INTO "FmcsaCarrier" (
				"id", "dotNumber", "legalName", "dbaName",
				"phyStreet", "phyCity", "phyState", "phyZip",
				"phone", "fax", "cellPhone",
				"companyOfficer1", "companyOfficer2",
				"statusCode", "priorRevokeFlag", "priorRevokeDot",
				"addDate", "powerUnits", "totalDrivers",
				"fleetSize", "docketPrefix", "docketNumber",
				"createdAt", "updatedAt"
			) VALUES ` + valuesPlaceholders(len(chunk), cols) + `
			ON CONFLICT ("dotNumber") DO UPDATE SET
				"legalName" = EXCLUDED."legalName",
				"dbaName" = EXCLUDED."dbaName",
				"phyStreet" = EXCLUDED."phyStreet",
				"phyCity" = EXCLUDED."phyCity",
				"phyState" = EXCLUDED."phyState",
				"phyZip" = EXCLUDED."phyZip",
				"phone" = EXCLUDED."phone",
				"fax" = EXCLUDED."fax",
				"cellPhone" = EXCLUDED."cellPhone",
				"companyOfficer1" = EXCLUDED."companyOfficer1",
				"companyOfficer2" = EXCLUDED."companyOfficer2",
				"statusCode" = EXCLUDED."statusCode",
				"priorRevokeFlag" = EXCLUDED."priorRevokeFlag",
				"priorRevokeDot" = EXCLUDED."priorRevokeDot",
				"addDate" = EXCLUDED."addDate",
				"powerUnits" = EXCLUDED."powerUnits",
				"totalDrivers" = EXCLUDED."totalDrivers",
				"fleetSize" = EXCLUDED."fleetSize",
				"docketPrefix" = EXCLUDED."docketPrefix",
				"docketNumber" = EXCLUDED."docketNumber",
				"updatedAt" = NOW()`
		if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
			return total, fmt.Errorf("failed to upsert carriers: %w", err)
		}
		total += len(chunk)
	}
	return total, nil
}

// UpsertCrashes inserts crash rows; duplicates are dropped by the store's
// natural-key constraint.
func (s *Store) UpsertCrashes(ctx context.Context, crashRows []CrashRow) (int, error) {
	if len(crashRows) == 0 {
		return 0, nil
	}
	const cols = 9
	total := 0
	for _, chunk := range chunkCrashRows(crashRows, insertBatchSize) {
		now := time.Now().UTC()
		args := make([]interface{}, 0, len(chunk)*cols)
		for _, r := range chunk {
			args = append(args,
				uuid.NewString(), r.DOT, r.ReportDate, r.ReportNumber,
				r.State, r.Fatalities, r.Injuries, r.TowAway, now)
		}
		query := `
			INSERT INTO "FmcsaCrash" (
				"id", "dotNumber", "reportDate", "reportNumber", "state",
				"fatalities", "injuries", "towAway", "createdAt"
			) VALUES ` + valuesPlaceholders(len(chunk), cols) + `
			ON CONFLICT DO NOTHING`
		if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
			return total, fmt.Errorf("failed to upsert crashes: %w", err)
		}
		total += len(chunk)
	}
	return total, nil
}

// UpsertInspections inserts inspection rows; duplicates are dropped by the
// store's natural-key constraint.
func (s *Store) UpsertInspections(ctx context.Context, inspectionRows []InspectionRow) (int, error) {
	if len(inspectionRows) == 0 {
		return 0, nil
	}
	const cols = 8
	total := 0
	for _, chunk := range chunkInspectionRows(inspectionRows, insertBatchSize) {
		now := time.Now().UTC()
		args := make([]interface{}, 0, len(chunk)*cols)
		for _, r := range chunk {
			args = append(args,
				uuid.NewString(), r.DOT, r.InspectionDate, r.VIN,
				r.State, r.VehicleOOS, r.DriverOOS, now)
		}
		query := `
			INSERT INTO "FmcsaInspection" (
				"id", "dotNumber", "inspectionDate", "vin", "state",
				"vehicleOosTotal", "driverOosTotal", "createdAt"
			) VALUES ` + valuesPlaceholders(len(chunk), cols) + `
			ON CONFLICT DO NOTHING`
		if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
			return total, fmt.Errorf("failed to upsert inspections: %w", err)
		}
		total += len(chunk)
	}
	return total, nil
}

// ── SyncRun bookkeeping ─────────────────────────────────────────

// StartSyncRun records a stage as running.
func (s *Store) StartSyncRun(ctx context.Context, runID, dataset string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO "SyncRun" ("id", "runId", "dataset", "status", "createdAt", "updatedAt")
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT ("runId") DO UPDATE SET "status" = $4, "updatedAt" = NOW()`,
		uuid.NewString(), runID, dataset, SyncStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to start sync run %s: %w", runID, err)
	}
	return nil
}

// FinishSyncRun transitions a stage to done or failed.
func (s *Store) FinishSyncRun(ctx context.Context, runID, status string, rowsProcessed int, errMsg string) error {
	var errVal interface{}
	if errMsg != "" {
		errVal = errMsg
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE "SyncRun"
		SET "status" = $1, "rowsProcessed" = $2, "errorMessage" = $3, "updatedAt" = NOW()
		WHERE "runId" = $4`,
		status, rowsProcessed, errVal, runID)
	if err != nil {
		return fmt.Errorf("failed to finish sync run %s: %w", runID, err)
	}
	return nil
}

// ── Detection write-back ────────────────────────────────────────

// WriteDetection replaces the run's links and clusters and rewrites all risk
// scores under one transaction.
func (s *Store) WriteDetection(ctx context.Context, runID string, links []detect.Link, clusters []detect.Cluster, scores []detect.RiskScore) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM "CarrierLink" WHERE "runId" = $1`, runID); err != nil {
		return fmt.Errorf("failed to clear links: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM "ClusterMember" WHERE "clusterId" IN (
			SELECT "id" FROM "CarrierCluster" WHERE "runId" = $1
		)`, runID); err != nil {
		return fmt.Errorf("failed to clear cluster members: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM "CarrierCluster" WHERE "runId" = $1`, runID); err != nil {
		return fmt.Errorf("failed to clear clusters: %w", err)
	}

	if err := s.insertLinks(ctx, tx, runID, links); err != nil {
		return err
	}
	if err := s.insertClusters(ctx, tx, runID, clusters); err != nil {
		return err
	}
	if err := s.insertRiskScores(ctx, tx, scores); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit detection results: %w", err)
	}
	s.logger.Info("Wrote detection results",
		"links", len(links), "clusters", countMultiMember(clusters), "risk_scores", len(scores))
	return nil
}

func (s *Store) insertLinks(ctx context.Context, tx *sql.Tx, runID string, links []detect.Link) error {
	const cols = 6
	for start := 0; start < len(links); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(links) {
			end = len(links)
		}
		chunk := links[start:end]
		args := make([]interface{}, 0, len(chunk)*cols)
		for _, l := range chunk {
			reasons, err := json.Marshal(l.Reasons)
			if err != nil {
				return fmt.Errorf("failed to marshal link reasons: %w", err)
			}
			args = append(args, uuid.NewString(), l.A, l.B, l.Score, string(reasons), runID)
		}
		query := `
			INSERT INTO "CarrierLink" ("id", "dotNumberA", "dotNumberB", "score", "reasonsJson", "runId")
			VALUES ` + valuesPlaceholders(len(chunk), cols) + `
			ON CONFLICT ("dotNumberA", "dotNumberB", "runId") DO UPDATE SET
				"score" = EXCLUDED."score",
				"reasonsJson" = EXCLUDED."reasonsJson"`
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert links: %w", err)
		}
	}
	return nil
}

func (s *Store) insertClusters(ctx context.Context, tx *sql.Tx, runID string, clusters []detect.Cluster) error {
	for _, cl := range clusters {
		if cl.Size < 2 {
			continue
		}
		clusterDBID := uuid.NewString()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO "CarrierCluster" ("id", "clusterId", "size", "edgeCount",
				"avgLinkScore", "maxLinkScore", "runId")
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			clusterDBID, cl.ClusterID, cl.Size, cl.EdgeCount,
			cl.AvgLinkScore, cl.MaxLinkScore, runID); err != nil {
			return fmt.Errorf("failed to insert cluster %s: %w", cl.ClusterID, err)
		}

		const cols = 3
		args := make([]interface{}, 0, len(cl.Members)*cols)
		for _, dot := range cl.Members {
			args = append(args, uuid.NewString(), clusterDBID, dot)
		}
		query := `
			INSERT INTO "ClusterMember" ("id", "clusterId", "dotNumber")
			VALUES ` + valuesPlaceholders(len(cl.Members), cols) + `
			ON CONFLICT ("clusterId", "dotNumber") DO NOTHING`
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert cluster members: %w", err)
		}
	}
	return nil
}

func (s *Store) insertRiskScores(ctx context.Context, tx *sql.Tx, scores []detect.RiskScore) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM "CarrierRiskScore"`); err != nil {
		return fmt.Errorf("failed to clear risk scores: %w", err)
	}
	const cols = 8
	now := time.Now().UTC()
	for start := 0; start < len(scores); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(scores) {
			end = len(scores)
		}
		chunk := scores[start:end]
		args := make([]interface{}, 0, len(chunk)*cols)
		for _, rs := range chunk {
			signals := rs.Signals
			if signals == nil {
				signals = []string{}
			}
			signalsJSON, err := json.Marshal(signals)
			if err != nil {
				return fmt.Errorf("failed to marshal signals: %w", err)
			}
			args = append(args, uuid.NewString(), rs.DOT, rs.ChameleonScore,
				rs.SafetyScore, rs.CompositeScore, string(signalsJSON), rs.ClusterSize, now)
		}
		query := `
			INSERT INTO "CarrierRiskScore" ("id", "dotNumber", "chameleonScore", "safetyScore",
				"compositeScore", "signalsJson", "clusterSize", "updatedAt")
			VALUES ` + valuesPlaceholders(len(chunk), cols) + `
			ON CONFLICT ("dotNumber") DO UPDATE SET
				"chameleonScore" = EXCLUDED."chameleonScore",
				"safetyScore" = EXCLUDED."safetyScore",
				"compositeScore" = EXCLUDED."compositeScore",
				"signalsJson" = EXCLUDED."signalsJson",
				"clusterSize" = EXCLUDED."clusterSize",
				"updatedAt" = EXCLUDED."updatedAt"`
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert risk scores: %w", err)
		}
	}
	return nil
}

// LoadLinks reads back a run's links in descending score order.
func (s *Store) LoadLinks(ctx context.Context, runID string) ([]detect.Link, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT "dotNumberA", "dotNumberB", "score", "reasonsJson"
		FROM "CarrierLink"
		WHERE "runId" = $1
		ORDER BY "score" DESC, "dotNumberA", "dotNumberB"`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()

	var links []detect.Link
	for rows.Next() {
		var l detect.Link
		var reasonsJSON string
		if err := rows.Scan(&l.A, &l.B, &l.Score, &reasonsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		if err := json.Unmarshal([]byte(reasonsJSON), &l.Reasons); err != nil {
			return nil, fmt.Errorf("failed to unmarshal link reasons: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// ── Helpers ─────────────────────────────────────────────────────

func valuesPlaceholders(rows, cols int) string {
	var b strings.Builder
	n := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for c := 0; c < cols; c++ {
			if c > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", n)
			n++
		}
		b.WriteString(")")
	}
	return b.String()
}

func countMultiMember(clusters []detect.Cluster) int {
	n := 0
	for _, cl := range clusters {
		if cl.Size > 1 {
			n++
		}
	}
	return n
}

func chunkCarrierRows(rows []CarrierRow, size int) [][]CarrierRow {
	var out [][]CarrierRow
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		out = append(out, rows[start:end])
	}
	return out
}

func chunkCrashRows(rows []CrashRow, size int) [][]CrashRow {
	var out [][]CrashRow
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		out = append(out, rows[start:end])
	}
	return out
}

func chunkInspectionRows(rows []InspectionRow, size int) [][]InspectionRow {
	var out [][]InspectionRow
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		out = append(out, rows[start:end])
	}
	return out
}
