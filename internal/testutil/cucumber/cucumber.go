// Package cucumber provides a godog-based BDD test framework for the chat
// server's HTTP API.
//
// Variables are scoped to the scenario. HTTP response state is stored in the
// acting user's session; switching users switches the session.
//
// Variable resolution supports:
//   - ${variableName}           → scenario variable lookup
//   - ${variable.field}         → nested field access
//   - ${response.field}         → last response body field via gojq
//   - ${variable | pipe}        → pipe transformations (json, string)
//   - ${scenarioId}             → identifier unique to the scenario
package cucumber

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/cucumber/godog/colors"
	"github.com/google/uuid"
	"github.com/itchyny/gojq"
	"github.com/pmezard/go-difflib/difflib"
)

func NewTestSuite() *TestSuite {
	return &TestSuite{
		APIURL: "http://localhost:8080",
		Extra:  map[string]interface{}{},
	}
}

func DefaultOptions() godog.Options {
	return godog.Options{
		Output:      colors.Colored(os.Stdout),
		Format:      "progress",
		Paths:       []string{"features"},
		Randomize:   time.Now().UTC().UnixNano(),
		Concurrency: 1,
	}
}

// TestSuite holds state global to all test scenarios.
type TestSuite struct {
	Mu       sync.Mutex
	APIURL   string
	TestingT *testing.T
	Extra    map[string]interface{}
	// Restart stops the server under test and starts it again from its
	// journal, returning the new API URL.
	Restart func() (string, error)
}

func (suite *TestSuite) apiURL() string {
	suite.Mu.Lock()
	defer suite.Mu.Unlock()
	return suite.APIURL
}

// TestScenario holds state for a single scenario. Not accessed concurrently.
type TestScenario struct {
	Suite       *TestSuite
	CurrentUser string
	sessions    map[string]*TestSession
	Variables   map[string]interface{}
	// Users maps a user name to the identifier the server assigned it.
	Users map[string]uuid.UUID
}

func (s *TestScenario) Logf(format string, args ...any) {
	s.Suite.TestingT.Logf(format, args...)
}

func (s *TestScenario) Session() *TestSession {
	result := s.sessions[s.CurrentUser]
	if result == nil {
		result = &TestSession{
			UserName: s.CurrentUser,
			Client:   &http.Client{},
			Header:   http.Header{},
		}
		s.sessions[s.CurrentUser] = result
	}
	return result
}

// JSONMustMatch compares two JSON documents for equality and reports a
// unified diff when they differ.
func (s *TestScenario) JSONMustMatch(actual, expected string, expandExpected bool) error {
	var actualParsed interface{}
	if err := json.Unmarshal([]byte(actual), &actualParsed); err != nil {
		return fmt.Errorf("error parsing actual json: %w\njson was:\n%s", err, actual)
	}

	expanded := expected
	if expandExpected {
		var err error
		expanded, err = s.Expand(expected)
		if err != nil {
			return err
		}
	}

	var expectedParsed interface{}
	if err := json.Unmarshal([]byte(expanded), &expectedParsed); err != nil {
		return fmt.Errorf("error parsing expected json: %w\njson was:\n%s", err, expanded)
	}

	if !reflect.DeepEqual(expectedParsed, actualParsed) {
		expected, _ := json.MarshalIndent(expectedParsed, "", "  ")
		actual, _ := json.MarshalIndent(actualParsed, "", "  ")
		diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(expected)),
			B:        difflib.SplitLines(string(actual)),
			FromFile: "Expected",
			ToFile:   "Actual",
			Context:  1,
		})
		return fmt.Errorf("actual does not match expected, diff:\n%s", diff)
	}
	return nil
}

// JSONMustContain checks that every field of expected is present in actual.
func (s *TestScenario) JSONMustContain(actual, expected string, expand bool) error {
	var actualParsed interface{}
	if err := json.Unmarshal([]byte(actual), &actualParsed); err != nil {
		return fmt.Errorf("error parsing actual json: %w\njson was:\n%s", err, actual)
	}

	if expand {
		var err error
		expected, err = s.Expand(expected)
		if err != nil {
			return err
		}
	}

	var expectedParsed interface{}
	if err := json.Unmarshal([]byte(expected), &expectedParsed); err != nil {
		return fmt.Errorf("error parsing expected json: %w\njson was:\n%s", err, expected)
	}

	if err := jsonSubset(expectedParsed, actualParsed, ""); err != nil {
		actualIndented, _ := json.MarshalIndent(actualParsed, "", "  ")
		return fmt.Errorf("actual does not contain expected.\n  mismatch: %s\n  actual:\n%s", err, actualIndented)
	}
	return nil
}

// jsonSubset checks that every field in expected exists in actual with a matching value.
// Arrays must have the same length and are compared element by element.
func jsonSubset(expected, actual interface{}, path string) error {
	if expected == nil {
		if actual != nil {
			return fmt.Errorf("at %s: expected null, got %v", pathOrRoot(path), actual)
		}
		return nil
	}

	switch exp := expected.(type) {
	case map[string]interface{}:
		act, ok := actual.(map[string]interface{})
		if !ok {
			return fmt.Errorf("at %s: expected object, got %T", pathOrRoot(path), actual)
		}
		for key, expVal := range exp {
			actVal, exists := act[key]
			if !exists {
				return fmt.Errorf("at %s: missing key %q", pathOrRoot(path), key)
			}
			if err := jsonSubset(expVal, actVal, path+"."+key); err != nil {
				return err
			}
		}
	case []interface{}:
		act, ok := actual.([]interface{})
		if !ok {
			return fmt.Errorf("at %s: expected array, got %T", pathOrRoot(path), actual)
		}
		if len(exp) != len(act) {
			return fmt.Errorf("at %s: expected array length %d, got %d", pathOrRoot(path), len(exp), len(act))
		}
		for i := range exp {
			if err := jsonSubset(exp[i], act[i], fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	default:
		if !reflect.DeepEqual(expected, actual) {
			return fmt.Errorf("at %s: expected %v (%T), got %v (%T)", pathOrRoot(path), expected, expected, actual, actual)
		}
	}
	return nil
}

func pathOrRoot(path string) string {
	if path == "" {
		return "$"
	}
	return "$" + path
}

// Expand replaces ${var} in the string based on scenario variables.
func (s *TestScenario) Expand(value string) (result string, rerr error) {
	return os.Expand(value, func(name string) string {
		res, err := s.ResolveString(name)
		if err != nil {
			rerr = err
			return ""
		}
		return res
	}), rerr
}

func (s *TestScenario) ResolveString(name string) (string, error) {
	value, err := s.Resolve(name)
	if err != nil {
		return "", err
	}
	return ToString(value)
}

func ToString(value interface{}) (string, error) {
	switch value := value.(type) {
	case string:
		return value, nil
	case bool:
		return strconv.FormatBool(value), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", value), nil
	case float32, float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", value), "0"), "."), nil
	case nil:
		return "", nil
	case fmt.Stringer:
		return value.String(), nil
	}

	b, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *TestScenario) Resolve(name string) (interface{}, error) {
	pipes := strings.Split(name, "|")
	for i := range pipes {
		pipes[i] = strings.TrimSpace(pipes[i])
	}
	name = pipes[0]
	pipes = pipes[1:]

	session := s.Session()
	if name == "response" {
		value, err := session.RespJSON()
		return pipeline(pipes, value, err)
	}
	if strings.HasPrefix(name, "response.") || strings.HasPrefix(name, "response[") {
		query, err := gojq.Parse("." + name)
		if err != nil {
			return pipeline(pipes, nil, err)
		}
		j, err := session.RespJSON()
		if err != nil {
			return pipeline(pipes, nil, err)
		}
		iter := query.Run(map[string]interface{}{"response": j})
		if next, found := iter.Next(); found {
			if err, ok := next.(error); ok {
				return pipeline(pipes, nil, err)
			}
			return pipeline(pipes, next, nil)
		}
		return pipeline(pipes, nil, fmt.Errorf("field ${%s} not found in json response:\n%s", name, string(session.RespBytes)))
	}

	parts := strings.Split(name, ".")
	value, found := s.Variables[parts[0]]
	if !found {
		return pipeline(pipes, nil, fmt.Errorf("variable ${%s} not defined yet", parts[0]))
	}
	for _, part := range parts[1:] {
		var err error
		value, err = selectChild(value, part)
		if err != nil {
			return pipeline(pipes, nil, err)
		}
	}
	return pipeline(pipes, value, nil)
}

func selectChild(value any, path string) (any, error) {
	v := reflect.ValueOf(value)
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		key := reflect.ValueOf(path)
		if v.Type().Key() != key.Type() {
			return nil, fmt.Errorf("cannot select map key %s from %s", path, v.Type())
		}
		v = v.MapIndex(key)
		if !v.IsValid() {
			return nil, fmt.Errorf("map key %s not found", path)
		}
	case reflect.Slice:
		index, err := strconv.Atoi(path)
		if err != nil {
			return nil, fmt.Errorf("cannot select slice index %s from %s", path, v.Type())
		}
		if index < 0 || index >= v.Len() {
			return nil, fmt.Errorf("slice index %s out of range", path)
		}
		v = v.Index(index)
	default:
		return nil, fmt.Errorf("can't navigate to '%s' on type of %s", path, v.Type())
	}
	return v.Interface(), nil
}

func pipeline(pipes []string, value any, err error) (any, error) {
	for _, pipe := range pipes {
		fn := PipeFunctions[pipe]
		if fn == nil {
			return nil, fmt.Errorf("unknown pipe: %s", pipe)
		}
		value, err = fn(value, err)
	}
	return value, err
}

var PipeFunctions = map[string]func(any, error) (any, error){
	"json": func(value any, err error) (any, error) {
		if err != nil {
			return value, err
		}
		buf := bytes.NewBuffer(nil)
		if err := json.NewEncoder(buf).Encode(value); err != nil {
			return value, err
		}
		return strings.TrimSpace(buf.String()), nil
	},
	"string": func(value any, err error) (any, error) {
		if err != nil {
			return value, err
		}
		return fmt.Sprintf("%v", value), nil
	},
}

// TestSession holds the HTTP context for a user, like a browser.
type TestSession struct {
	UserName  string
	Client    *http.Client
	Resp      *http.Response
	RespBytes []byte
	respJSON  interface{}
	Header    http.Header
}

// RespJSON returns the last HTTP response body as parsed JSON.
func (s *TestSession) RespJSON() (interface{}, error) {
	if s.respJSON == nil {
		if s.RespBytes == nil {
			return nil, fmt.Errorf("no response body")
		}
		if err := json.Unmarshal(s.RespBytes, &s.respJSON); err != nil {
			return nil, fmt.Errorf("error parsing response json: %w\njson was:\n%s", err, s.RespBytes)
		}
	}
	return s.respJSON, nil
}

func (s *TestSession) SetRespBytes(b []byte) {
	s.RespBytes = b
	s.respJSON = nil
}

// StepModules is the list of functions used to register steps with a godog.ScenarioContext.
var StepModules []func(ctx *godog.ScenarioContext, s *TestScenario)

func (suite *TestSuite) InitializeScenario(ctx *godog.ScenarioContext) {
	s := &TestScenario{
		Suite:     suite,
		Users:     map[string]uuid.UUID{},
		sessions:  map[string]*TestSession{},
		Variables: map[string]interface{}{},
	}

	// Names shared across scenarios of one feature can be made unique with it.
	s.Variables["scenarioId"] = uuid.NewString()

	for _, module := range StepModules {
		module(ctx, s)
	}
}
