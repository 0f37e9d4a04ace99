package cucumber

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cucumber/godog"
)

func init() {
	StepModules = append(StepModules, func(ctx *godog.ScenarioContext, s *TestScenario) {
		ctx.Step(`^I (GET|POST|PUT|DELETE) path "([^"]*)"$`, s.sendHTTPRequest)
		ctx.Step(`^I (GET|POST|PUT|DELETE) path "([^"]*)" with json body:$`, s.SendHTTPRequestWithJSONBody)
		ctx.Step(`^I set the "([^"]*)" header to "([^"]*)"$`, s.iSetTheHeaderTo)
		ctx.Step(`^I wait up to "([^"]*)" seconds for a GET on path "([^"]*)" response code to match "([^"]*)"$`, s.iWaitUpToSecondsForAGETOnPathResponseCodeToMatch)
	})
}

func (s *TestScenario) sendHTTPRequest(method, path string) error {
	return s.SendHTTPRequestWithJSONBody(method, path, nil)
}

// SendHTTPRequestWithJSONBody sends a request as the current user. The
// current user's identifier travels in the X-User-ID header.
func (s *TestScenario) SendHTTPRequestWithJSONBody(method, path string, jsonTxt *godog.DocString) error {
	session := s.Session()

	body := &bytes.Buffer{}
	if jsonTxt != nil {
		expanded, err := s.Expand(jsonTxt.Content)
		if err != nil {
			return err
		}
		body.WriteString(expanded)
	}

	expandedPath, err := s.Expand(path)
	if err != nil {
		return err
	}

	session.Resp = nil
	session.SetRespBytes(nil)

	req, err := http.NewRequestWithContext(context.Background(), method, s.Suite.apiURL()+expandedPath, body)
	if err != nil {
		return err
	}

	// Session headers are consumed by the next request.
	req.Header = session.Header
	session.Header = http.Header{}

	if req.Header.Get("X-User-ID") == "" {
		if id, ok := s.Users[session.UserName]; ok {
			req.Header.Set("X-User-ID", id.String())
		}
	}
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := session.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	session.Resp = resp
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	session.SetRespBytes(b)
	return nil
}

func (s *TestScenario) iSetTheHeaderTo(name, value string) error {
	expanded, err := s.Expand(value)
	if err != nil {
		return err
	}
	s.Session().Header.Set(name, expanded)
	return nil
}

func (s *TestScenario) iWaitUpToSecondsForAGETOnPathResponseCodeToMatch(timeout float64, path string, expected int) error {
	deadline := time.Now().Add(time.Duration(timeout * float64(time.Second)))
	var last int
	for {
		if err := s.sendHTTPRequest(http.MethodGet, path); err == nil && s.Session().Resp != nil {
			last = s.Session().Resp.StatusCode
			if last == expected {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for %s to respond %d, last code %d", path, expected, last)
		}
		time.Sleep(50 * time.Millisecond)
	}
}
