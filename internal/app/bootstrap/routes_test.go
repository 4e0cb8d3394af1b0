package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/coursehub/internal/app/system/ratelimit"
	"github.com/dalemusser/coursehub/internal/app/system/timeouts"
	"github.com/dalemusser/coursehub/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)

	core := &config.CoreConfig{Env: "dev"}
	appCfg := validConfig()
	limiter := ratelimit.NewLoginLimiter(appCfg.LoginRateLimit, appCfg.LoginRateWindow)
	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db, LoginLimiter: limiter}
	t.Cleanup(limiter.Close)

	if err := EnsureSchema(ctx, core, appCfg, deps, zap.NewNop()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	h, err := BuildHandler(core, appCfg, deps, zap.NewNop())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}
	return h
}

func TestBuildHandler_Health(t *testing.T) {
	h := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"database":"connected"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestBuildHandler_GraphQLWithBearerToken(t *testing.T) {
	h := newTestHandler(t)

	post := func(token, query string) string {
		req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":`+query+`}`))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		return rec.Body.String()
	}

	body := post("", `"mutation { register(name: \"Jane\", email: \"jane@prof.com\", password: \"password123\") { token } }"`)
	const marker = `"token":"`
	i := strings.Index(body, marker)
	if i < 0 {
		t.Fatalf("no token in %s", body)
	}
	token := body[i+len(marker):]
	token = token[:strings.Index(token, `"`)]

	if got := post(token, `"{ me { email } }"`); !strings.Contains(got, `"email":"jane@prof.com"`) {
		t.Errorf("me with token = %s", got)
	}
	if got := post("", `"{ me { email } }"`); !strings.Contains(got, `"code":"UNAUTHENTICATED"`) {
		t.Errorf("me without token = %s", got)
	}
}

func TestBuildHandler_CORS(t *testing.T) {
	h := newTestHandler(t)

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/graphql", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	ok := preflight("http://localhost:3000")
	if got := ok.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allowed origin header = %q", got)
	}
	if got := ok.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("allow credentials = %q", got)
	}

	if got := preflight("http://evil.example").Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disallowed origin got Access-Control-Allow-Origin %q", got)
	}
}

func TestEnsureSchema_CreatesUniqueIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}
	if err := EnsureSchema(ctx, nil, validConfig(), deps, zap.NewNop()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	cur, err := db.Collection("enrollments").Indexes().List(ctx)
	if err != nil {
		t.Fatalf("list indexes: %v", err)
	}
	var specs []bson.M
	if err := cur.All(ctx, &specs); err != nil {
		t.Fatalf("decode indexes: %v", err)
	}
	found := false
	for _, s := range specs {
		if s["name"] == "uniq_enr_user_course" && s["unique"] == true {
			found = true
		}
	}
	if !found {
		t.Errorf("uniq_enr_user_course missing from %v", specs)
	}
}

func TestStartupAndShutdown(t *testing.T) {
	t.Cleanup(timeouts.Reset)

	cfg := validConfig()
	cfg.TimeoutShort = 1 * time.Second
	cfg.TimeoutMedium = 2 * time.Second
	cfg.TimeoutLong = 3 * time.Second
	if err := Startup(context.Background(), nil, cfg, DBDeps{}, zap.NewNop()); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	cur := timeouts.Current()
	if cur.Short != time.Second || cur.Medium != 2*time.Second || cur.Long != 3*time.Second {
		t.Errorf("timeouts = %+v", cur)
	}

	// Shutdown tolerates deps that were never connected.
	if err := Shutdown(context.Background(), nil, cfg, DBDeps{}, zap.NewNop()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}
