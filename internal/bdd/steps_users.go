package bdd

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cucumber/godog"
	"github.com/google/uuid"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/testutil/cucumber"
)

func init() {
	cucumber.StepModules = append(cucumber.StepModules, func(ctx *godog.ScenarioContext, s *cucumber.TestScenario) {
		u := &userSteps{s: s}
		ctx.Step(`^user "([^"]*)" is registered$`, u.userIsRegistered)
		ctx.Step(`^I am user "([^"]*)"$`, u.iAmUser)
		ctx.Step(`^I am anonymous$`, u.iAmAnonymous)
	})
}

type userSteps struct {
	s *cucumber.TestScenario
}

// userIsRegistered creates the user anonymously and stores the server's reply
// as ${<name>}, so later steps can refer to ${alice.id}. A user already
// registered by an earlier scenario is looked up instead.
func (u *userSteps) userIsRegistered(name string) error {
	previous := u.s.CurrentUser
	u.s.CurrentUser = ""
	defer func() { u.s.CurrentUser = previous }()

	body := &godog.DocString{Content: fmt.Sprintf(`{"name": %q}`, name)}
	if err := u.s.SendHTTPRequestWithJSONBody(http.MethodPost, "/v1/users", body); err != nil {
		return err
	}
	session := u.s.Session()
	if session.Resp.StatusCode == http.StatusConflict {
		if err := u.s.SendHTTPRequestWithJSONBody(http.MethodGet, "/v1/users/"+name, nil); err != nil {
			return err
		}
		session = u.s.Session()
		if session.Resp.StatusCode != http.StatusOK {
			return fmt.Errorf("looking up %q: expected 200, got %d: %s", name, session.Resp.StatusCode, session.RespBytes)
		}
	} else if session.Resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("registering %q: expected 201, got %d: %s", name, session.Resp.StatusCode, session.RespBytes)
	}

	var created struct {
		ID   uuid.UUID `json:"id"`
		Name string    `json:"name"`
	}
	if err := json.Unmarshal(session.RespBytes, &created); err != nil {
		return fmt.Errorf("decoding user: %w", err)
	}
	u.s.Users[name] = created.ID
	doc, err := session.RespJSON()
	if err != nil {
		return err
	}
	u.s.Variables[name] = doc
	return nil
}

func (u *userSteps) iAmUser(name string) error {
	if _, ok := u.s.Users[name]; !ok {
		return fmt.Errorf("user %q has not been registered in this scenario", name)
	}
	u.s.CurrentUser = name
	return nil
}

func (u *userSteps) iAmAnonymous() error {
	u.s.CurrentUser = ""
	return nil
}
