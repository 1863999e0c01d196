package ginrest

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/rthib91/ginrest/apierr"
)

func testContext(t *testing.T, method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, nil)
	return c, w
}

func newBareAPI(t *testing.T, cfg Config) *API {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return New(gin.New(), cfg)
}

func registerPaths(api *API, paths ...string) {
	for _, p := range paths {
		api.GET(p, func(c *gin.Context) { c.Status(http.StatusOK) })
	}
}

func TestHandleError_Smart404Suggestion(t *testing.T) {
	api := newBareAPI(t, DefaultConfig())
	registerPaths(api, "/foo", "/fee", "/fii")

	c, _ := testContext(t, http.MethodGet, "/fOo")
	resp, err := api.HandleError(c, apierr.New(http.StatusNotFound, ""))
	if err != nil {
		t.Fatalf("HandleError: %v", err)
	}
	if resp.Status != http.StatusNotFound {
		t.Fatalf("status=%d", resp.Status)
	}

	body, ok := resp.Body.(map[string]any)
	if !ok {
		t.Fatalf("body type %T", resp.Body)
	}
	msg, _ := body["message"].(string)
	if !strings.Contains(msg, "You have requested this URI [/fOo]") {
		t.Fatalf("message=%q", msg)
	}
	if !strings.Contains(msg, "did you mean /foo ?") {
		t.Fatalf("message=%q", msg)
	}
}

func TestHandleError_Smart404_NoCloseMatch(t *testing.T) {
	api := newBareAPI(t, DefaultConfig())
	registerPaths(api, "/foo", "/fee", "/fii")

	c, _ := testContext(t, http.MethodGet, "/faaaaa")
	resp, err := api.HandleError(c, apierr.New(http.StatusNotFound, ""))
	if err != nil {
		t.Fatalf("HandleError: %v", err)
	}
	msg, _ := resp.Body.(map[string]any)["message"].(string)
	if strings.Contains(msg, "did you mean") {
		t.Fatalf("unexpected hint: %q", msg)
	}
}

func TestHandleError_Smart404_Disabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Error404Help = false
	api := newBareAPI(t, cfg)
	registerPaths(api, "/foo")

	c, _ := testContext(t, http.MethodGet, "/fOo")
	resp, err := api.HandleError(c, apierr.New(http.StatusNotFound, ""))
	if err != nil {
		t.Fatalf("HandleError: %v", err)
	}
	msg, _ := resp.Body.(map[string]any)["message"].(string)
	if strings.Contains(msg, "did you mean") {
		t.Fatalf("help disabled but message=%q", msg)
	}
}

func TestHandleError_IncludeMessageOff(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IncludeMessage = false
	api := newBareAPI(t, cfg)

	c, _ := testContext(t, http.MethodGet, "/test")
	resp, err := api.HandleError(c, apierr.New(http.StatusBadRequest, "Blah"))
	if err != nil {
		t.Fatalf("HandleError: %v", err)
	}
	body, ok := resp.Body.(map[string]any)
	if !ok {
		t.Fatalf("body type %T", resp.Body)
	}
	if _, present := body["message"]; present {
		t.Fatalf("message present: %v", body)
	}
}

func TestHandleError_DataOverridesBody(t *testing.T) {
	api := newBareAPI(t, DefaultConfig())

	c, _ := testContext(t, http.MethodGet, "/test")
	e := apierr.New(http.StatusNotFound, "").WithData(map[string]any{"foo": "bar"})
	resp, err := api.HandleError(c, e)
	if err != nil {
		t.Fatalf("HandleError: %v", err)
	}
	if resp.Status != http.StatusNotFound {
		t.Fatalf("status=%d", resp.Status)
	}
	body, ok := resp.Body.(map[string]any)
	if !ok {
		t.Fatalf("body type %T", resp.Body)
	}
	if body["foo"] != "bar" {
		t.Fatalf("body=%v", body)
	}
}

func TestHandleError_SharedDataNotMutatedBy404Hint(t *testing.T) {
	api := newBareAPI(t, DefaultConfig())
	registerPaths(api, "/foo")

	shared := apierr.New(http.StatusNotFound, "").WithData(map[string]any{"message": "gone"})

	for i := 0; i < 2; i++ {
		c, _ := testContext(t, http.MethodGet, "/fOo")
		resp, err := api.HandleError(c, shared)
		if err != nil {
			t.Fatalf("HandleError: %v", err)
		}
		body, ok := resp.Body.(map[string]any)
		if !ok {
			t.Fatalf("body type %T", resp.Body)
		}
		msg, _ := body["message"].(string)
		if !strings.HasPrefix(msg, "gone") {
			t.Fatalf("call %d: message=%q", i, msg)
		}
		if got := strings.Count(msg, "did you mean"); got != 1 {
			t.Fatalf("call %d: %d hints in %q", i, got, msg)
		}
	}

	if shared.Data["message"] != "gone" {
		t.Fatalf("error payload mutated: %v", shared.Data)
	}
}

func TestHandleError_InvalidStatus_Becomes500KeepingData(t *testing.T) {
	api := newBareAPI(t, DefaultConfig())

	c, _ := testContext(t, http.MethodGet, "/test")
	e := &apierr.Error{Status: -1, Data: map[string]any{"foo": "bar"}}
	resp, err := api.HandleError(c, e)
	if err != nil {
		t.Fatalf("HandleError: %v", err)
	}
	if resp.Status != http.StatusInternalServerError {
		t.Fatalf("status=%d", resp.Status)
	}
	body, ok := resp.Body.(map[string]any)
	if !ok {
		t.Fatalf("body type %T", resp.Body)
	}
	if body["foo"] != "bar" {
		t.Fatalf("body=%v", body)
	}
}

func TestHandleError_HTTPError_NoHandler_DeclaredStatus(t *testing.T) {
	api := newBareAPI(t, DefaultConfig())

	c, _ := testContext(t, http.MethodGet, "/test")
	resp, err := api.HandleError(c, apierr.New(http.StatusConflict, ""))
	if err != nil {
		t.Fatalf("HandleError: %v", err)
	}
	if resp.Status != http.StatusConflict {
		t.Fatalf("status=%d", resp.Status)
	}
	msg, _ := resp.Body.(map[string]any)["message"].(string)
	if msg != apierr.Description(http.StatusConflict) {
		t.Fatalf("message=%q", msg)
	}
}

func TestHandleError_Propagation_ReturnsOriginal(t *testing.T) {
	propagate := true
	cfg := DefaultConfig()
	cfg.PropagateExceptions = &propagate
	api := newBareAPI(t, cfg)

	sentinel := errors.New("error")
	c, _ := testContext(t, http.MethodGet, "/test")
	_, err := api.HandleError(c, sentinel)
	if err == nil {
		t.Fatal("expected a propagation error")
	}
	if !errors.Is(err, sentinel) {
		t.Fatalf("err=%v", err)
	}
	var pe *propagationError
	if !errors.As(err, &pe) {
		t.Fatalf("err type %T", err)
	}
}

func TestHandleError_Propagation_DisabledByDefault(t *testing.T) {
	api := newBareAPI(t, DefaultConfig())

	c, _ := testContext(t, http.MethodGet, "/test")
	resp, err := api.HandleError(c, errors.New("error"))
	if err != nil {
		t.Fatalf("HandleError: %v", err)
	}
	if resp.Status != http.StatusInternalServerError {
		t.Fatalf("status=%d", resp.Status)
	}
}

func TestHandleError_401Challenge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ServeChallengeOn401 = true
	cfg.Realm = "notes-api"
	api := newBareAPI(t, cfg)

	c, _ := testContext(t, http.MethodGet, "/test")
	resp, err := api.HandleError(c, apierr.New(http.StatusUnauthorized, ""))
	if err != nil {
		t.Fatalf("HandleError: %v", err)
	}
	if resp.Status != http.StatusUnauthorized {
		t.Fatalf("status=%d", resp.Status)
	}
	if got := resp.Headers.Get("WWW-Authenticate"); got != `Basic realm="notes-api"` {
		t.Fatalf("challenge=%q", got)
	}
}

func TestHandleError_401NoChallengeByDefault(t *testing.T) {
	api := newBareAPI(t, DefaultConfig())

	c, _ := testContext(t, http.MethodGet, "/test")
	resp, err := api.HandleError(c, apierr.New(http.StatusUnauthorized, ""))
	if err != nil {
		t.Fatalf("HandleError: %v", err)
	}
	if got := resp.Headers.Get("WWW-Authenticate"); got != "" {
		t.Fatalf("unexpected challenge %q", got)
	}
}

func TestHandleError_GenericError_500WithStandardMessage(t *testing.T) {
	api := newBareAPI(t, DefaultConfig())

	c, _ := testContext(t, http.MethodGet, "/test")
	resp, err := api.HandleError(c, errors.New("database exploded"))
	if err != nil {
		t.Fatalf("HandleError: %v", err)
	}
	if resp.Status != http.StatusInternalServerError {
		t.Fatalf("status=%d", resp.Status)
	}
	msg, _ := resp.Body.(map[string]any)["message"].(string)
	if msg != http.StatusText(http.StatusInternalServerError) {
		t.Fatalf("message=%q", msg)
	}
	if strings.Contains(msg, "database exploded") {
		t.Fatalf("internal detail leaked: %q", msg)
	}
}
