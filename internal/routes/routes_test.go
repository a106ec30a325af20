package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/doodleleagues/whitelist_checker/internal/config"
	"github.com/doodleleagues/whitelist_checker/internal/eligibility"
	"github.com/doodleleagues/whitelist_checker/internal/logging"
	"github.com/doodleleagues/whitelist_checker/internal/middleware"
	"github.com/doodleleagues/whitelist_checker/internal/oracle"
	"github.com/doodleleagues/whitelist_checker/internal/session"
	"github.com/doodleleagues/whitelist_checker/internal/whitelist"
)

const linkedWallet = "0x52908400098527886e0f7030069857d2e4169ee7"

func testConfig() config.Config {
	return config.Config{
		AppName:        "WhitelistChecker",
		AppEnv:         "test",
		SessionTTL:     time.Hour,
		IdempotencyTTL: time.Hour,
		CheckRateLimit: 100,
	}
}

func setupApp(t *testing.T, cache *redis.Client) *fiber.App {
	t.Helper()
	app, _ := setupAppWithSessions(t, cache)
	return app
}

func setupAppWithSessions(t *testing.T, cache *redis.Client) (*fiber.App, *session.Manager) {
	t.Helper()
	repo := whitelist.NewMemoryRepository()
	repo.Seed("dooduser", "")
	repo.Seed("complete", linkedWallet)

	app := fiber.New()
	sessions, err := Setup(app, Deps{
		Cfg:       testConfig(),
		Cache:     cache,
		Logger:    logging.Discard(),
		Whitelist: repo,
		Oracle:    oracle.Static{},
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	return app, sessions
}

func call(t *testing.T, app *fiber.App, method, path, sessionID, body string) (int, outcomeResponse, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if sessionID != "" {
		req.Header.Set(middleware.SessionHeader, sessionID)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var out outcomeResponse
	if resp.StatusCode == fiber.StatusOK && strings.HasPrefix(path, "/api/v1/") && path != "/api/v1/ping" {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
	}
	return resp.StatusCode, out, string(raw)
}

func TestCheckThenSubmitWallet(t *testing.T) {
	app := setupApp(t, nil)

	status, out, _ := call(t, app, fiber.MethodPost, "/api/v1/check", "", `{"input":"@DoodUser"}`)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if out.Outcome.Status != eligibility.StatusMissingWallet || !out.AwaitingWallet {
		t.Fatalf("expected missing wallet prompt, got %+v", out)
	}
	if out.SessionID == "" {
		t.Fatal("expected a session id to be issued")
	}

	_, out, _ = call(t, app, fiber.MethodPost, "/api/v1/wallet", out.SessionID, `{"wallet":"`+linkedWallet[:len(linkedWallet)-1]+`0"}`)
	if out.Outcome.Status != eligibility.StatusEligible || out.AwaitingWallet {
		t.Fatalf("expected eligible after linking, got %+v", out)
	}
	if out.Outcome.Reading != oracle.SuccessFallback {
		t.Fatalf("unexpected reading %q", out.Outcome.Reading)
	}

	_, got, _ := call(t, app, fiber.MethodGet, "/api/v1/outcome", out.SessionID, "")
	if got.Outcome.Status != eligibility.StatusEligible {
		t.Fatalf("expected outcome to persist in session, got %+v", got)
	}
}

func TestSessionsDoNotBleedIntoEachOther(t *testing.T) {
	app, sessions := setupAppWithSessions(t, nil)
	first, second := session.NewID(), session.NewID()

	_, out, _ := call(t, app, fiber.MethodPost, "/api/v1/check", first, `{"input":"@dooduser"}`)
	if out.Outcome.Status != eligibility.StatusMissingWallet {
		t.Fatalf("expected missing wallet, got %+v", out)
	}
	_, other, _ := call(t, app, fiber.MethodGet, "/api/v1/outcome", second, "")
	if other.SessionID != second || other.Outcome.Status != eligibility.StatusIdle {
		t.Fatalf("expected an idle second session, got %+v", other)
	}

	ctrl := sessions.Get(context.Background(), first)
	if ctrl.Outcome().Status != eligibility.StatusMissingWallet || !ctrl.AwaitingWallet() {
		t.Fatalf("first session lost its state: %+v", ctrl.Snapshot())
	}
	if sessions.Len() != 2 {
		t.Fatalf("expected two live sessions, got %d", sessions.Len())
	}

	_, out, _ = call(t, app, fiber.MethodPost, "/api/v1/wallet", first, `{"wallet":"0x1111111111111111111111111111111111111111"}`)
	if out.Outcome.Status != eligibility.StatusEligible {
		t.Fatalf("expected the first session to link its wallet, got %+v", out)
	}
}

func TestCheckByWallet(t *testing.T) {
	app := setupApp(t, nil)

	_, out, _ := call(t, app, fiber.MethodPost, "/api/v1/check", "", `{"input":"  `+strings.ToUpper(linkedWallet[2:])+`"}`)
	if out.Outcome.Status != eligibility.StatusNotEligible {
		t.Fatalf("expected hex without prefix to be treated as a username, got %+v", out)
	}

	_, out, _ = call(t, app, fiber.MethodPost, "/api/v1/check", "", `{"input":"`+linkedWallet+`"}`)
	if out.Outcome.Status != eligibility.StatusEligible {
		t.Fatalf("expected eligible wallet, got %+v", out)
	}
}

func TestCheckValidation(t *testing.T) {
	app := setupApp(t, nil)

	_, out, _ := call(t, app, fiber.MethodPost, "/api/v1/check", "", `{"input":" "}`)
	if out.Outcome.Status != eligibility.StatusError || out.Outcome.Message != eligibility.MessageTypeSomething {
		t.Fatalf("expected type something, got %+v", out)
	}

	status, _, body := call(t, app, fiber.MethodPost, "/api/v1/check", "", `{"input":"`+strings.Repeat("a", 257)+`"}`)
	if status != fiber.StatusBadRequest || !strings.Contains(body, "input") {
		t.Fatalf("expected 400 naming the field, got %d %s", status, body)
	}

	status, _, _ = call(t, app, fiber.MethodPost, "/api/v1/check", "", `{not json`)
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", status)
	}
}

func TestSubmitWalletWithoutPromptIsNoop(t *testing.T) {
	app := setupApp(t, nil)

	_, out, _ := call(t, app, fiber.MethodPost, "/api/v1/wallet", "", `{"wallet":"`+linkedWallet+`"}`)
	if out.Outcome.Status != eligibility.StatusIdle {
		t.Fatalf("expected idle session untouched, got %+v", out)
	}
}

func TestSessionsSurviveInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	_, out, _ := call(t, setupApp(t, cache), fiber.MethodPost, "/api/v1/check", "", `{"input":"dooduser"}`)
	if out.Outcome.Status != eligibility.StatusMissingWallet {
		t.Fatalf("expected missing wallet, got %+v", out)
	}

	// A fresh app, as after a restart, restores the session from Redis.
	_, got, _ := call(t, setupApp(t, cache), fiber.MethodGet, "/api/v1/outcome", out.SessionID, "")
	if got.Outcome.Status != eligibility.StatusMissingWallet || !got.AwaitingWallet {
		t.Fatalf("expected restored prompt, got %+v", got)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	app := setupApp(t, nil)
	call(t, app, fiber.MethodPost, "/api/v1/check", "", `{"input":"dooduser"}`)

	status, _, body := call(t, app, fiber.MethodGet, "/healthz", "", "")
	if status != fiber.StatusOK || !strings.Contains(body, `"postgres":"memory"`) {
		t.Fatalf("unexpected health response %d %s", status, body)
	}

	status, _, body = call(t, app, fiber.MethodGet, "/metrics", "", "")
	if status != fiber.StatusOK || !strings.Contains(body, "whitelist_outcomes_total") {
		t.Fatalf("expected outcome metrics, got %d", status)
	}

	status, _, body = call(t, app, fiber.MethodGet, "/api/v1/ping", "", "")
	if status != fiber.StatusOK || !strings.Contains(body, `"status":"ok"`) {
		t.Fatalf("unexpected ping %d %s", status, body)
	}
}

func TestSetupRequiresBackendsOutsideDev(t *testing.T) {
	cfg := testConfig()
	cfg.AppEnv = "production"
	if _, err := Setup(fiber.New(), Deps{Cfg: cfg, Logger: logging.Discard()}); err == nil {
		t.Fatal("expected an error without database and redis")
	}
}
