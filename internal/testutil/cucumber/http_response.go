package cucumber

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
	"github.com/itchyny/gojq"
)

func init() {
	StepModules = append(StepModules, func(ctx *godog.ScenarioContext, s *TestScenario) {
		ctx.Step(`^the response code should be (\d+)$`, s.theResponseCodeShouldBe)
		ctx.Step(`^the response should match json:$`, s.TheResponseShouldMatchJSONDoc)
		ctx.Step(`^the response should contain json:$`, s.TheResponseShouldContainJSONDoc)
		ctx.Step(`^the response should contain "([^"]*)"$`, s.theResponseShouldContain)
		ctx.Step(`^I store the "([^"]*)" selection from the response as \${([^}]*)}$`, s.iStoreTheSelectionFromTheResponseAs)
		ctx.Step(`^the "(.*)" selection from the response should match "([^"]*)"$`, s.theSelectionFromTheResponseShouldMatch)
		ctx.Step(`^the "([^"]*)" selection from the response should match json:$`, s.theSelectionFromTheResponseShouldMatchJSON)
		ctx.Step(`^\${([^}]*)} is not empty$`, s.variableIsNotEmpty)
	})
}

func (s *TestScenario) variableIsNotEmpty(name string) error {
	value, err := s.Resolve(name)
	if err != nil {
		return err
	}
	if value == nil || value == "" {
		return fmt.Errorf("variable ${%s} is empty", name)
	}
	return nil
}

func (s *TestScenario) theResponseCodeShouldBe(expected int) error {
	session := s.Session()
	if session.Resp == nil {
		return fmt.Errorf("no HTTP response available")
	}
	if actual := session.Resp.StatusCode; expected != actual {
		return fmt.Errorf("expected response code to be: %d, but actual is: %d, body: %s", expected, actual, string(session.RespBytes))
	}
	return nil
}

func (s *TestScenario) TheResponseShouldMatchJSONDoc(expected *godog.DocString) error {
	session := s.Session()
	if len(session.RespBytes) == 0 {
		return fmt.Errorf("got an empty response from server, expected a json body")
	}
	return s.JSONMustMatch(string(session.RespBytes), expected.Content, true)
}

func (s *TestScenario) TheResponseShouldContainJSONDoc(expected *godog.DocString) error {
	session := s.Session()
	if len(session.RespBytes) == 0 {
		return fmt.Errorf("got an empty response from server, expected a json body")
	}
	return s.JSONMustContain(string(session.RespBytes), expected.Content, true)
}

func (s *TestScenario) theResponseShouldContain(expected string) error {
	responseBody := string(s.Session().RespBytes)
	if !strings.Contains(responseBody, expected) {
		return fmt.Errorf("expected response to contain '%s', but it does not. Response body: %s", expected, responseBody)
	}
	return nil
}

func (s *TestScenario) selectFromResponse(selector string) (interface{}, error) {
	doc, err := s.Session().RespJSON()
	if err != nil {
		return nil, err
	}
	query, err := gojq.Parse(selector)
	if err != nil {
		return nil, err
	}
	iter := query.Run(doc)
	next, found := iter.Next()
	if !found {
		return nil, fmt.Errorf("expected JSON does not have node that matches selector: %s", selector)
	}
	if err, ok := next.(error); ok {
		return nil, err
	}
	return next, nil
}

func (s *TestScenario) iStoreTheSelectionFromTheResponseAs(selector, as string) error {
	value, err := s.selectFromResponse(selector)
	if err != nil {
		return err
	}
	s.Variables[as] = value
	return nil
}

func (s *TestScenario) theSelectionFromTheResponseShouldMatch(selector, expected string) error {
	actual, err := s.selectFromResponse(selector)
	if err != nil {
		return err
	}
	expected, err = s.Expand(expected)
	if err != nil {
		return err
	}
	got := "null"
	if actual != nil {
		got, err = ToString(actual)
		if err != nil {
			return err
		}
	}
	if got != expected {
		return fmt.Errorf("selected JSON does not match. expected: %v, actual: %v", expected, got)
	}
	return nil
}

func (s *TestScenario) theSelectionFromTheResponseShouldMatchJSON(selector string, expected *godog.DocString) error {
	actual, err := s.selectFromResponse(selector)
	if err != nil {
		return err
	}
	b, err := json.Marshal(actual)
	if err != nil {
		return err
	}
	return s.JSONMustMatch(string(b), expected.Content, true)
}
