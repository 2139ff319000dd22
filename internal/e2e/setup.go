//go:build integration

package e2e

import (
	"database/sql"
	"net/http/httptest"
	"testing"

	"github.com/swasthatech/hospital-service/internal/auth"
	httpserver "github.com/swasthatech/hospital-service/internal/http"
	"github.com/swasthatech/hospital-service/internal/testutil"
)

// TestServer is a running API backed by the test database, with events
// captured in memory.
type TestServer struct {
	Server        *httptest.Server
	DB            *sql.DB
	MockPublisher *testutil.MockPublisher
	Issuer        *auth.Issuer
}

// SetupE2ETest starts the full router against PostgreSQL.
func SetupE2ETest(t *testing.T) *TestServer {
	t.Helper()

	db := testutil.SetupTestDB(t)
	mockPublisher := testutil.NewMockPublisher()

	perms, err := auth.LoadPermissions("../../permissions.yml")
	if err != nil {
		t.Fatalf("Failed to load permissions: %v", err)
	}

	issuer, verifier := testutil.CreateTestIssuer(t)
	handler := httpserver.NewHandler(httpserver.Deps{
		DB:              db,
		Issuer:          issuer,
		Verifier:        verifier,
		Permissions:     perms,
		Publisher:       mockPublisher,
		ServiceName:     "hospital-service-e2e",
		AllowedOrigins:  "http://localhost:4200",
		OrgEmailDomain:  "swasthatech.com",
		ConsultationFee: 500,
	})

	return &TestServer{
		Server:        httptest.NewServer(handler),
		DB:            db,
		MockPublisher: mockPublisher,
		Issuer:        issuer,
	}
}

// Cleanup cleans up all test resources
func (ts *TestServer) Cleanup(t *testing.T) {
	t.Helper()
	ts.Server.Close()
	testutil.CleanupTestDB(t, ts.DB)
	ts.DB.Close()
}

// Token signs a token as the server would issue at login.
func (ts *TestServer) Token(t *testing.T, userID int64, email, role string, profileID int64) string {
	t.Helper()
	return testutil.IssueTestToken(t, ts.Issuer, userID, email, role, profileID)
}

// NewClient creates a new HTTP test client for this server with the given token
func (ts *TestServer) NewClient(token string) *testutil.HTTPTestClient {
	return testutil.NewHTTPTestClient(ts.Server.URL, token)
}

// AdminClient seeds an approved admin and returns a client authenticated as it.
func (ts *TestServer) AdminClient(t *testing.T) (*testutil.HTTPTestClient, int64) {
	t.Helper()
	adminID, userID := testutil.CreateTestAdmin(t, ts.DB, "root@swasthatech.com", "Root Admin", true)
	return ts.NewClient(ts.Token(t, userID, "root@swasthatech.com", auth.RoleAdmin, adminID)), adminID
}
