// Package integration provides end-to-end tests for the consent retention API.
// Tests run the full HTTP surface against both PostgreSQL and MySQL databases.
package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scenespin/voiceconsent/internal/app"
	auditDomain "github.com/scenespin/voiceconsent/internal/audit/domain"
	auditDTO "github.com/scenespin/voiceconsent/internal/audit/http/dto"
	"github.com/scenespin/voiceconsent/internal/config"
	consentDTO "github.com/scenespin/voiceconsent/internal/consent/http/dto"
	retentionDomain "github.com/scenespin/voiceconsent/internal/retention/domain"
	"github.com/scenespin/voiceconsent/internal/testutil"
)

const testTriggerToken = "integration-trigger-token"

// integrationTestContext holds all dependencies and state for integration testing.
type integrationTestContext struct {
	container *app.Container
	db        *sql.DB
	server    *httptest.Server
	dbDriver  string
}

// makeRequest performs an HTTP request and returns the response and body.
func (ctx *integrationTestContext) makeRequest(
	t *testing.T,
	method, path string,
	body interface{},
	triggerToken string,
) (*http.Response, []byte) {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, ctx.server.URL+path, bodyReader)
	require.NoError(t, err, "failed to create request")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if triggerToken != "" {
		req.Header.Set("Authorization", "Bearer "+triggerToken)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err, "failed to perform request")

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")
	if closeErr := resp.Body.Close(); closeErr != nil {
		t.Logf("Warning: failed to close response body: %v", closeErr)
	}

	return resp, respBody
}

// setupIntegrationTest initializes the container and HTTP server against a real database.
func setupIntegrationTest(t *testing.T, dbDriver string) *integrationTestContext {
	t.Helper()

	gin.SetMode(gin.TestMode)

	var db *sql.DB
	var dsn string
	if dbDriver == "postgres" {
		db = testutil.SetupPostgresDB(t)
		dsn = testutil.GetPostgresTestDSN()
	} else {
		db = testutil.SetupMySQLDB(t)
		dsn = testutil.GetMySQLTestDSN()
	}

	cfg := &config.Config{
		DBDriver:             dbDriver,
		DBConnectionString:   dsn,
		DBMaxOpenConnections: 10,
		DBMaxIdleConnections: 5,
		DBConnMaxLifetime:    time.Hour,
		ServerHost:           "localhost",
		ServerPort:           8080,
		LogLevel:             "error",
		RetentionPeriodYears: 3,
		RetentionBatchSize:   100,
		RetentionConcurrency: 2,
		AuditSigningSecret:   "integration-test-signing-secret",
		AlertInterval:        time.Minute,
		AlertBatchSize:       10,
		AlertMaxRetries:      3,
		TriggerToken:         testTriggerToken,
	}

	container := app.NewContainer(cfg)

	httpServer, err := container.HTTPServer()
	require.NoError(t, err, "failed to get http server")

	server := httptest.NewServer(httpServer.GetHandler())

	testCtx := &integrationTestContext{
		container: container,
		db:        db,
		server:    server,
		dbDriver:  dbDriver,
	}

	t.Cleanup(func() {
		server.Close()
		_ = container.Shutdown(context.Background())
		// The container owns its own connection; the testutil one is closed here.
		testutil.TeardownDB(t, db)
	})

	return testCtx
}

// createConsent creates a consent record through the API whose retention
// deadline already passed, making it immediately due for enforcement.
func (ctx *integrationTestContext) createConsent(t *testing.T, agreedAt time.Time) consentDTO.ConsentResponse {
	t.Helper()

	subjectID := newSubjectID(t)
	reqBody := consentDTO.CreateConsentRequest{
		SubjectID: subjectID,
		AgreedAt:  agreedAt.Format(time.RFC3339),
	}

	resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/consents", reqBody, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode, "unexpected status: %s", string(body))

	var created consentDTO.ConsentResponse
	require.NoError(t, json.Unmarshal(body, &created))
	require.Equal(t, subjectID, created.SubjectID)

	return created
}

func newSubjectID(t *testing.T) string {
	t.Helper()
	return uuid.Must(uuid.NewV7()).String()
}

func runRetentionFlow(t *testing.T, dbDriver string) {
	ctx := setupIntegrationTest(t, dbDriver)

	// A record whose deadline passed a year ago, and one still inside its window.
	expired := ctx.createConsent(t, time.Now().UTC().AddDate(-4, 0, 0))
	active := ctx.createConsent(t, time.Now().UTC().AddDate(0, -6, 0))

	t.Run("GetConsentBeforeEnforcement", func(t *testing.T) {
		resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/consents/"+expired.ID, nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var record consentDTO.ConsentResponse
		require.NoError(t, json.Unmarshal(body, &record))
		assert.Nil(t, record.DeletedAt)
	})

	t.Run("TriggerWithoutTokenIsRejected", func(t *testing.T) {
		resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/retention/run", nil, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("TriggerDeletesOnlyExpiredRecords", func(t *testing.T) {
		resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/retention/run", nil, testTriggerToken)
		require.Equal(t, http.StatusOK, resp.StatusCode, "unexpected status: %s", string(body))

		var summary retentionDomain.JobSummary
		require.NoError(t, json.Unmarshal(body, &summary))
		assert.Equal(t, int64(1), summary.RecordsFound)
		assert.Equal(t, int64(1), summary.RecordsDeleted)
		assert.Empty(t, summary.Failures)
		assert.False(t, summary.NeedsAttention)
	})

	t.Run("DeletedRecordExposesDeletedAt", func(t *testing.T) {
		resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/consents/"+expired.ID, nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var record consentDTO.ConsentResponse
		require.NoError(t, json.Unmarshal(body, &record))
		require.NotNil(t, record.DeletedAt)
	})

	t.Run("ActiveRecordIsUntouched", func(t *testing.T) {
		resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/consents/"+active.ID, nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var record consentDTO.ConsentResponse
		require.NoError(t, json.Unmarshal(body, &record))
		assert.Nil(t, record.DeletedAt)
	})

	t.Run("SecondRunIsIdempotent", func(t *testing.T) {
		resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/retention/run", nil, testTriggerToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var summary retentionDomain.JobSummary
		require.NoError(t, json.Unmarshal(body, &summary))
		assert.Equal(t, int64(0), summary.RecordsFound)
		assert.Equal(t, int64(0), summary.RecordsDeleted)
	})

	t.Run("AuditTrailRecordsSingleDeletion", func(t *testing.T) {
		resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/consents/"+expired.ID+"/audit-logs", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var list auditDTO.ListAuditLogsResponse
		require.NoError(t, json.Unmarshal(body, &list))
		require.Len(t, list.Data, 2)

		assert.Equal(t, string(auditDomain.ActionConsentGranted), list.Data[0].Action)
		assert.Equal(t, string(auditDomain.ActionAutoDeletedRetention), list.Data[1].Action)
		assert.Equal(t, "system", list.Data[1].PerformedBy)
		assert.True(t, list.Data[1].Signed)
	})

	t.Run("DryRunDoesNotMutate", func(t *testing.T) {
		// Make another record due, then dry-run against it.
		dueAgain := ctx.createConsent(t, time.Now().UTC().AddDate(-5, 0, 0))

		reqBody := map[string]any{"dry_run": true}
		resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/retention/run", reqBody, testTriggerToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var summary retentionDomain.JobSummary
		require.NoError(t, json.Unmarshal(body, &summary))
		assert.True(t, summary.DryRun)
		assert.Equal(t, int64(1), summary.RecordsFound)
		assert.Equal(t, int64(0), summary.RecordsDeleted)

		resp, body = ctx.makeRequest(t, http.MethodGet, "/v1/consents/"+dueAgain.ID, nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var record consentDTO.ConsentResponse
		require.NoError(t, json.Unmarshal(body, &record))
		assert.Nil(t, record.DeletedAt)
	})

	t.Run("BatchVerificationPasses", func(t *testing.T) {
		auditLogUseCase, err := ctx.container.AuditLogUseCase()
		require.NoError(t, err)

		start := time.Now().UTC().Add(-time.Hour)
		end := time.Now().UTC().Add(time.Hour)
		report, err := auditLogUseCase.VerifyBatch(context.Background(), start, end)
		require.NoError(t, err)
		assert.Positive(t, report.TotalChecked)
		assert.Equal(t, report.TotalChecked, report.SignedCount)
		assert.Equal(t, int64(0), report.InvalidCount)
	})
}

func TestRetentionFlowPostgres(t *testing.T) {
	testutil.SkipIfNoPostgres(t)
	runRetentionFlow(t, "postgres")
}

func TestRetentionFlowMySQL(t *testing.T) {
	testutil.SkipIfNoMySQL(t)
	runRetentionFlow(t, "mysql")
}
