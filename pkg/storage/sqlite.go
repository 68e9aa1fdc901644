package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/kemeter/ring/pkg/types"
)

// SQLiteStore implements Store on top of a local SQLite database, following
// the schema and query shapes of the original kemeter/ring models (one
// table per aggregate, JSON-string columns for nested structures).
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS deployment (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	updated_at TEXT,
	last_event_at TEXT,
	status TEXT NOT NULL,
	restart_count INTEGER NOT NULL DEFAULT 0,
	namespace TEXT NOT NULL,
	name TEXT NOT NULL,
	image TEXT NOT NULL,
	command TEXT NOT NULL DEFAULT '[]',
	config TEXT,
	runtime TEXT NOT NULL,
	kind TEXT NOT NULL,
	replicas INTEGER NOT NULL DEFAULT 1,
	labels TEXT NOT NULL DEFAULT '{}',
	secrets TEXT NOT NULL DEFAULT '{}',
	volumes TEXT NOT NULL DEFAULT '',
	health_checks TEXT,
	resources TEXT
);

CREATE TABLE IF NOT EXISTS deployment_event (
	id TEXT PRIMARY KEY,
	deployment_id TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	level TEXT NOT NULL,
	message TEXT NOT NULL,
	component TEXT NOT NULL,
	reason TEXT
);
CREATE INDEX IF NOT EXISTS idx_deployment_event_deployment ON deployment_event(deployment_id);

CREATE TABLE IF NOT EXISTS health_check (
	id TEXT PRIMARY KEY,
	deployment_id TEXT NOT NULL,
	check_type TEXT NOT NULL,
	status TEXT NOT NULL,
	message TEXT,
	created_at TEXT NOT NULL,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_health_check_deployment ON health_check(deployment_id);

CREATE TABLE IF NOT EXISTS config (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	updated_at TEXT,
	namespace TEXT NOT NULL,
	name TEXT NOT NULL,
	data TEXT NOT NULL,
	labels TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS user (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	updated_at TEXT,
	status TEXT NOT NULL,
	username TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	token TEXT,
	login_at TEXT
);
`

// Open connects to (creating if absent) the SQLite database at path, pooled
// with maxOpenConns, and applies the schema, matching the WAL/foreign-keys
// pragmas the original database.rs pool uses.
func Open(path string, maxOpenConns int) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func newID() string {
	return uuid.New().String()
}

func jsonOrDefault(v interface{}, def string) string {
	b, err := json.Marshal(v)
	if err != nil {
		return def
	}
	return string(b)
}

// buildFilterClause renders an AND-joined, IN-valued WHERE clause from a
// Filter, dropping columns whose value set is empty, following
// original_source/src/models/config.rs::find_all.
func buildFilterClause(filter Filter) (string, []interface{}) {
	if len(filter) == 0 {
		return "", nil
	}

	var conditions []string
	var args []interface{}
	for column, values := range filter {
		if len(values) == 0 {
			continue
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(values)), ",")
		conditions = append(conditions, fmt.Sprintf("%s IN(%s)", column, placeholders))
		for _, v := range values {
			args = append(args, v)
		}
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

// ---- Deployments ----

const deploymentColumns = `id, created_at, updated_at, last_event_at, status, restart_count,
	namespace, name, image, command, config, runtime, kind, replicas, labels, secrets,
	volumes, health_checks, resources`

func (s *SQLiteStore) CreateDeployment(d *types.Deployment) error {
	if d.ID == "" {
		d.ID = newID()
	}
	if d.CreatedAt == "" {
		d.CreatedAt = nowRFC3339()
	}
	command := jsonOrDefault(d.Command, "[]")
	labels := jsonOrDefault(d.Labels, "{}")
	secrets := jsonOrDefault(d.Secrets, "{}")
	healthChecks := jsonOrDefault(d.HealthChecks, "[]")

	var configJSON *string
	if d.Config != nil {
		c := jsonOrDefault(d.Config, "{}")
		configJSON = &c
	}
	var resourcesJSON *string
	if d.Resources != nil {
		r := jsonOrDefault(d.Resources, "null")
		resourcesJSON = &r
	}

	_, err := s.db.Exec(
		`INSERT INTO deployment (id, created_at, status, restart_count, namespace, name, image,
			command, config, runtime, kind, replicas, labels, secrets, volumes, health_checks, resources)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.CreatedAt, string(d.Status), d.RestartCount, d.Namespace, d.Name, d.Image,
		command, configJSON, d.Runtime, string(d.Kind), d.Replicas, labels, secrets,
		d.Volumes, healthChecks, resourcesJSON,
	)
	if err != nil {
		return fmt.Errorf("create deployment: %w", err)
	}
	return nil
}

func scanDeployment(scan func(dest ...interface{}) error) (*types.Deployment, error) {
	var d types.Deployment
	var status, kind string
	var command, labels, secrets string
	var updatedAt, lastEventAt, configJSON, healthChecksJSON, resourcesJSON sql.NullString

	if err := scan(
		&d.ID, &d.CreatedAt, &updatedAt, &lastEventAt, &status, &d.RestartCount,
		&d.Namespace, &d.Name, &d.Image, &command, &configJSON, &d.Runtime, &kind,
		&d.Replicas, &labels, &secrets, &d.Volumes, &healthChecksJSON, &resourcesJSON,
	); err != nil {
		return nil, err
	}

	parsedStatus, err := types.ParseDeploymentStatus(status)
	if err != nil {
		parsedStatus = types.DeploymentError
	}
	d.Status = parsedStatus
	d.Kind = types.DeploymentKind(kind)

	if updatedAt.Valid {
		d.UpdatedAt = &updatedAt.String
	}
	if lastEventAt.Valid {
		d.LastEventAt = &lastEventAt.String
	}

	_ = json.Unmarshal([]byte(command), &d.Command)
	_ = json.Unmarshal([]byte(labels), &d.Labels)
	_ = json.Unmarshal([]byte(secrets), &d.Secrets)

	if configJSON.Valid && configJSON.String != "" {
		var cfg types.DeploymentConfig
		if json.Unmarshal([]byte(configJSON.String), &cfg) == nil {
			d.Config = &cfg
		}
	}
	if healthChecksJSON.Valid && healthChecksJSON.String != "" {
		_ = json.Unmarshal([]byte(healthChecksJSON.String), &d.HealthChecks)
	}
	if resourcesJSON.Valid && resourcesJSON.String != "" && resourcesJSON.String != "null" {
		var r types.ResourceLimits
		if json.Unmarshal([]byte(resourcesJSON.String), &r) == nil {
			d.Resources = &r
		}
	}

	return &d, nil
}

func (s *SQLiteStore) GetDeployment(id string) (*types.Deployment, error) {
	row := s.db.QueryRow("SELECT "+deploymentColumns+" FROM deployment WHERE id = ?", id)
	d, err := scanDeployment(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get deployment: %w", err)
	}
	return d, nil
}

func (s *SQLiteStore) ListDeployments(filter Filter) ([]*types.Deployment, error) {
	clause, args := buildFilterClause(filter)
	rows, err := s.db.Query("SELECT "+deploymentColumns+" FROM deployment"+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("list deployments: %w", err)
	}
	defer rows.Close()

	var result []*types.Deployment
	for rows.Next() {
		d, err := scanDeployment(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan deployment: %w", err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func (s *SQLiteStore) ListActiveByNamespaceName(namespace, name string) ([]*types.Deployment, error) {
	rows, err := s.db.Query(
		"SELECT "+deploymentColumns+" FROM deployment WHERE namespace = ? AND name = ? AND status <> ? ORDER BY created_at DESC",
		namespace, name, string(types.DeploymentDeleted),
	)
	if err != nil {
		return nil, fmt.Errorf("list active deployments: %w", err)
	}
	defer rows.Close()

	var result []*types.Deployment
	for rows.Next() {
		d, err := scanDeployment(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan deployment: %w", err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func (s *SQLiteStore) UpdateDeploymentStatus(d *types.Deployment) error {
	_, err := s.db.Exec(
		"UPDATE deployment SET status = ?, updated_at = ?, restart_count = ? WHERE id = ?",
		string(d.Status), nowRFC3339(), d.RestartCount, d.ID,
	)
	if err != nil {
		return fmt.Errorf("update deployment status: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteDeployments(ids []string) error {
	for _, id := range ids {
		if _, err := s.db.Exec("DELETE FROM deployment WHERE id = ?", id); err != nil {
			return fmt.Errorf("delete deployment %s: %w", id, err)
		}
	}
	return nil
}

// ---- Deployment events ----

func (s *SQLiteStore) CreateEvent(e *types.DeploymentEvent) error {
	if e.ID == "" {
		e.ID = newID()
	}
	if e.Timestamp == "" {
		e.Timestamp = nowRFC3339()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO deployment_event (id, deployment_id, timestamp, level, message, component, reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.DeploymentID, e.Timestamp, e.Level, e.Message, e.Component, e.Reason,
	)
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}

	if _, err := tx.Exec("UPDATE deployment SET last_event_at = ? WHERE id = ?", e.Timestamp, e.DeploymentID); err != nil {
		return fmt.Errorf("update last_event_at: %w", err)
	}

	return tx.Commit()
}

func scanEvent(scan func(dest ...interface{}) error) (*types.DeploymentEvent, error) {
	var e types.DeploymentEvent
	var reason sql.NullString
	if err := scan(&e.ID, &e.DeploymentID, &e.Timestamp, &e.Level, &e.Message, &e.Component, &reason); err != nil {
		return nil, err
	}
	if reason.Valid {
		e.Reason = &reason.String
	}
	return &e, nil
}

func (s *SQLiteStore) ListEventsByDeployment(deploymentID string, limit int) ([]*types.DeploymentEvent, error) {
	rows, err := s.db.Query(
		`SELECT id, deployment_id, timestamp, level, message, component, reason
		 FROM deployment_event WHERE deployment_id = ? ORDER BY timestamp DESC LIMIT ?`,
		deploymentID, clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var result []*types.DeploymentEvent
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (s *SQLiteStore) ListEventsByDeploymentAndLevel(deploymentID, level string, limit int) ([]*types.DeploymentEvent, error) {
	rows, err := s.db.Query(
		`SELECT id, deployment_id, timestamp, level, message, component, reason
		 FROM deployment_event WHERE deployment_id = ? AND level = ? ORDER BY timestamp DESC LIMIT ?`,
		deploymentID, level, clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list events by level: %w", err)
	}
	defer rows.Close()

	var result []*types.DeploymentEvent
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (s *SQLiteStore) DeleteEventsByDeployment(deploymentID string) (int64, error) {
	res, err := s.db.Exec("DELETE FROM deployment_event WHERE deployment_id = ?", deploymentID)
	if err != nil {
		return 0, fmt.Errorf("delete events: %w", err)
	}
	return res.RowsAffected()
}

// ---- Health check results ----

func (s *SQLiteStore) CreateHealthCheckResult(r *types.HealthCheckResult) error {
	if r.ID == "" {
		r.ID = newID()
	}
	if r.CreatedAt == "" {
		r.CreatedAt = nowRFC3339()
	}
	_, err := s.db.Exec(
		`INSERT INTO health_check (id, deployment_id, check_type, status, message, created_at, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.DeploymentID, r.CheckType, string(r.Status), r.Message, r.CreatedAt, r.StartedAt, r.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("create health check result: %w", err)
	}
	return nil
}

func scanHealthCheckResult(scan func(dest ...interface{}) error) (*types.HealthCheckResult, error) {
	var r types.HealthCheckResult
	var status string
	var message sql.NullString
	if err := scan(&r.ID, &r.DeploymentID, &r.CheckType, &status, &message, &r.CreatedAt, &r.StartedAt, &r.FinishedAt); err != nil {
		return nil, err
	}
	switch status {
	case string(types.HealthCheckSuccess), string(types.HealthCheckFailed), string(types.HealthCheckTimeout):
		r.Status = types.HealthCheckStatus(status)
	default:
		r.Status = types.HealthCheckFailed
	}
	if message.Valid {
		r.Message = &message.String
	}
	return &r, nil
}

func (s *SQLiteStore) ListHealthCheckResultsByDeployment(deploymentID string, limit int) ([]*types.HealthCheckResult, error) {
	l := limit
	if l <= 0 {
		l = 100
	}
	rows, err := s.db.Query(
		`SELECT id, deployment_id, check_type, status, message, created_at, started_at, finished_at
		 FROM health_check WHERE deployment_id = ? ORDER BY started_at DESC LIMIT ?`,
		deploymentID, l,
	)
	if err != nil {
		return nil, fmt.Errorf("list health check results: %w", err)
	}
	defer rows.Close()

	var result []*types.HealthCheckResult
	for rows.Next() {
		r, err := scanHealthCheckResult(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan health check result: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// LatestHealthCheckResultsByDeployment returns at most one row per check_type:
// the most recently started result for each probe the deployment runs.
func (s *SQLiteStore) LatestHealthCheckResultsByDeployment(deploymentID string) ([]*types.HealthCheckResult, error) {
	rows, err := s.db.Query(
		`SELECT hcr.id, hcr.deployment_id, hcr.check_type, hcr.status, hcr.message,
		        hcr.created_at, hcr.started_at, hcr.finished_at
		 FROM health_check hcr
		 INNER JOIN (
		     SELECT check_type, MAX(started_at) as max_started_at
		     FROM health_check WHERE deployment_id = ?
		     GROUP BY check_type
		 ) latest ON hcr.check_type = latest.check_type AND hcr.started_at = latest.max_started_at
		 WHERE hcr.deployment_id = ?
		 ORDER BY hcr.check_type`,
		deploymentID, deploymentID,
	)
	if err != nil {
		return nil, fmt.Errorf("latest health check results: %w", err)
	}
	defer rows.Close()

	var result []*types.HealthCheckResult
	for rows.Next() {
		r, err := scanHealthCheckResult(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan health check result: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func (s *SQLiteStore) DeleteHealthCheckResultsByDeployment(deploymentID string) (int64, error) {
	res, err := s.db.Exec("DELETE FROM health_check WHERE deployment_id = ?", deploymentID)
	if err != nil {
		return 0, fmt.Errorf("delete health check results: %w", err)
	}
	return res.RowsAffected()
}

// CleanupOldHealthCheckResults deletes rows older than olderThan and, per
// deployment, keeps only the most recent keepPerDeployment rows, matching
// cleanup_old_health_checks in the original model.
func (s *SQLiteStore) CleanupOldHealthCheckResults(olderThan time.Duration, keepPerDeployment int) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	res, err := s.db.Exec("DELETE FROM health_check WHERE started_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup by age: %w", err)
	}
	deletedByAge, _ := res.RowsAffected()

	rows, err := s.db.Query("SELECT DISTINCT deployment_id FROM health_check")
	if err != nil {
		return deletedByAge, fmt.Errorf("list deployment ids: %w", err)
	}
	var deploymentIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return deletedByAge, fmt.Errorf("scan deployment id: %w", err)
		}
		deploymentIDs = append(deploymentIDs, id)
	}
	rows.Close()

	var deletedByCount int64
	for _, id := range deploymentIDs {
		res, err := s.db.Exec(
			`DELETE FROM health_check
			 WHERE deployment_id = ? AND id NOT IN (
			     SELECT id FROM health_check WHERE deployment_id = ?
			     ORDER BY started_at DESC LIMIT ?
			 )`,
			id, id, keepPerDeployment,
		)
		if err != nil {
			return deletedByAge + deletedByCount, fmt.Errorf("cleanup by count for %s: %w", id, err)
		}
		n, _ := res.RowsAffected()
		deletedByCount += n
	}

	return deletedByAge + deletedByCount, nil
}

// ---- Configs ----

func (s *SQLiteStore) CreateConfig(c *types.Config) error {
	if c.ID == "" {
		c.ID = newID()
	}
	if c.CreatedAt == "" {
		c.CreatedAt = nowRFC3339()
	}
	_, err := s.db.Exec(
		`INSERT INTO config (id, created_at, updated_at, namespace, name, data, labels) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.CreatedAt, c.UpdatedAt, c.Namespace, c.Name, c.Data, c.Labels,
	)
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	return nil
}

func scanConfig(scan func(dest ...interface{}) error) (*types.Config, error) {
	var c types.Config
	var updatedAt sql.NullString
	if err := scan(&c.ID, &c.CreatedAt, &updatedAt, &c.Namespace, &c.Name, &c.Data, &c.Labels); err != nil {
		return nil, err
	}
	if updatedAt.Valid {
		c.UpdatedAt = &updatedAt.String
	}
	return &c, nil
}

func (s *SQLiteStore) GetConfig(id string) (*types.Config, error) {
	row := s.db.QueryRow("SELECT id, created_at, updated_at, namespace, name, data, labels FROM config WHERE id = ?", id)
	c, err := scanConfig(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get config: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) ListConfigs(filter Filter) ([]*types.Config, error) {
	clause, args := buildFilterClause(filter)
	rows, err := s.db.Query("SELECT id, created_at, updated_at, namespace, name, data, labels FROM config"+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("list configs: %w", err)
	}
	defer rows.Close()

	var result []*types.Config
	for rows.Next() {
		c, err := scanConfig(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan config: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *SQLiteStore) ListConfigsByNamespace(namespace string) ([]*types.Config, error) {
	return s.ListConfigs(Filter{"namespace": {namespace}})
}

func (s *SQLiteStore) UpdateConfig(c *types.Config) error {
	updatedAt := nowRFC3339()
	c.UpdatedAt = &updatedAt
	_, err := s.db.Exec(
		"UPDATE config SET updated_at = ?, name = ?, data = ?, labels = ? WHERE id = ?",
		updatedAt, c.Name, c.Data, c.Labels, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update config: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteConfig(id string) error {
	res, err := s.db.Exec("DELETE FROM config WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete config: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete config: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ---- Users ----

func (s *SQLiteStore) CreateUser(username, password string) error {
	_, err := s.db.Exec(
		"INSERT INTO user (id, created_at, status, username, password, token) VALUES (?, ?, ?, ?, ?, ?)",
		newID(), nowRFC3339(), string(types.UserActive), username, password, newID(),
	)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func scanUser(scan func(dest ...interface{}) error) (*types.User, error) {
	var u types.User
	var status string
	var updatedAt, token, loginAt sql.NullString
	if err := scan(&u.ID, &u.CreatedAt, &updatedAt, &status, &u.Username, &u.Password, &token, &loginAt); err != nil {
		return nil, err
	}
	u.Status = types.UserStatus(status)
	if updatedAt.Valid {
		u.UpdatedAt = &updatedAt.String
	}
	if token.Valid {
		u.Token = token.String
	}
	if loginAt.Valid {
		u.LoginAt = &loginAt.String
	}
	return &u, nil
}

const userColumns = "id, created_at, updated_at, status, username, password, token, login_at"

func (s *SQLiteStore) GetUser(id string) (*types.User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM user WHERE id = ?", id)
	u, err := scanUser(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *SQLiteStore) GetUserByUsername(username string) (*types.User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM user WHERE username = ?", username)
	u, err := scanUser(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

func (s *SQLiteStore) GetUserByToken(token string) (*types.User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM user WHERE token = ?", token)
	u, err := scanUser(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by token: %w", err)
	}
	return u, nil
}

func (s *SQLiteStore) ListUsers() ([]*types.User, error) {
	rows, err := s.db.Query("SELECT " + userColumns + " FROM user")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var result []*types.User
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

func (s *SQLiteStore) Login(u *types.User) error {
	_, err := s.db.Exec("UPDATE user SET token = ?, login_at = ? WHERE id = ?", u.Token, nowRFC3339(), u.ID)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateUser(u *types.User) error {
	_, err := s.db.Exec(
		"UPDATE user SET username = ?, password = ?, updated_at = ? WHERE id = ?",
		u.Username, u.Password, nowRFC3339(), u.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteUser(u *types.User) error {
	_, err := s.db.Exec("DELETE FROM user WHERE id = ?", u.ID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

var _ Store = (*SQLiteStore)(nil)
