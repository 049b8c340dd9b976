package echoapi_test

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"testing"

	echoapi "github.com/trezcool/preceptor/apps/devserver/echo"
	"github.com/trezcool/preceptor/core/function"
	backendsvc "github.com/trezcool/preceptor/services/backend"
	"github.com/trezcool/preceptor/tests"
)

type httpTest struct {
	name     string
	method   string
	path     string
	body     interface{}
	wantCode int
	wantMsg  string
}

// apiClient keeps the session cookie between requests, like a browser would.
type apiClient struct {
	t       *testing.T
	base    string
	project string
	http    *http.Client
}

func newAPIClient(t *testing.T, b *testutil.Backend) *apiClient {
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New() failed: %v", err)
	}
	return &apiClient{
		t:       t,
		base:    b.Server.URL,
		project: b.Conf.Backend.ProjectID,
		http:    &http.Client{Jar: jar},
	}
}

func (c *apiClient) do(method, path string, body interface{}) (int, []byte) {
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			c.t.Fatalf("encoding body failed: %v", err)
		}
	}
	url := c.base + path
	if !strings.HasPrefix(path, "/metrics") {
		url = c.base + echoapi.BasePath + path
	}
	req, err := http.NewRequest(method, url, &payload)
	if err != nil {
		c.t.Fatalf("http.NewRequest() failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.project != "" {
		req.Header.Set(backendsvc.HeaderProject, c.project)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		c.t.Fatalf("reading body failed: %v", err)
	}
	return resp.StatusCode, data
}

func (c *apiClient) login(email, pwd string) {
	code, data := c.do(http.MethodPost, "/account/sessions/email", map[string]string{"email": email, "password": pwd})
	if code != http.StatusCreated {
		c.t.Fatalf("login(%s) failed: %d %s", email, code, data)
	}
}

// execute runs one function action and returns the decoded envelope.
func (c *apiClient) execute(functionID string, body map[string]interface{}) function.Response {
	raw, err := json.Marshal(body)
	if err != nil {
		c.t.Fatalf("encoding action failed: %v", err)
	}
	code, data := c.do(http.MethodPost, "/functions/"+functionID+"/executions", map[string]interface{}{
		"body": string(raw), "async": false, "path": "/", "method": "POST",
	})
	if code != http.StatusCreated {
		c.t.Fatalf("execute() failed: %d %s", code, data)
	}
	var exec function.Execution
	if err := json.Unmarshal(data, &exec); err != nil {
		c.t.Fatalf("decoding execution failed: %v", err)
	}
	resp, err := function.Decode([]byte(exec.ResponseBody))
	if err != nil {
		c.t.Fatalf("decoding response failed: %v", err)
	}
	return resp
}

func errMessage(t *testing.T, data []byte) string {
	var body backendsvc.Error
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("decoding error body failed: %v (%s)", err, data)
	}
	return body.Message
}

func checkCode(t *testing.T, tt httpTest, code int, data []byte) {
	if code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v (%s)", code, tt.wantCode, data)
	}
	if tt.wantMsg != "" {
		if msg := errMessage(t, data); msg != tt.wantMsg {
			t.Errorf("failed! message = %q; wantMsg %q", msg, tt.wantMsg)
		}
	}
}
